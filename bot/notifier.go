package bot

import (
	"context"
	"fmt"

	"discord-moderator/model"
	"discord-moderator/utils"

	"go.uber.org/zap"
)

// expiryNotifier announces mutes lifted by their timer or the sweeper.
type expiryNotifier struct {
	bot    model.Bot
	logger *zap.Logger
}

func (n *expiryNotifier) SanctionExpired(ctx context.Context, record model.SanctionRecord) {
	s := n.bot.GetSession()
	if record.ChannelID != "" {
		if _, err := s.ChannelMessageSend(record.ChannelID, ExpiryAnnouncement(record.UserID)); err != nil {
			n.logger.Debug("Failed to announce lifted mute", zap.String("channelID", record.ChannelID), zap.Error(err))
		}
	}

	details := fmt.Sprintf("User: <@%s>\nReason: %s\nDuration: %s", record.UserID, record.Reason, utils.FormatMinutes(record.Duration()))
	if err := utils.LogInfo(s, n.bot.GetConfig().LogChannelID, "Moderation", "Mute expired", details); err != nil {
		n.logger.Debug("Failed to post expiry log", zap.Error(err))
	}
}

// ExpiryAnnouncement is posted where a mute was issued once it lapses.
func ExpiryAnnouncement(userID string) string {
	return fmt.Sprintf("✅ تم إلغاء ميوت <@%s> بعد انتهاء المدة", userID)
}
