package moderation

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"discord-moderator/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	MinPurgeAmount     = 1
	MaxPurgeAmount     = 100
	DefaultPurgeAmount = 5

	// messages older than this cannot be bulk-deleted
	bulkDeleteMaxAge = 14 * 24 * time.Hour
	bulkDeleteMax    = 100
)

// Actions performs the one-shot moderation actions: ban, kick and purge.
type Actions struct {
	platform Platform
	gate     *Gate
	clock    Clock
	logger   *zap.Logger
	retry    utils.RetryOptions
}

func NewActions(platform Platform, gate *Gate, clock Clock, logger *zap.Logger) *Actions {
	if clock == nil {
		clock = RealClock
	}
	return &Actions{
		platform: platform,
		gate:     gate,
		clock:    clock,
		logger:   logger.Named("actions"),
		retry:    utils.GetDiscordReadRetryOptions(),
	}
}

func orDefaultReason(reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return DefaultReason
	}
	return reason
}

// Ban bans target without deleting their messages.
func (a *Actions) Ban(ctx context.Context, guild *discordgo.Guild, actor, target *discordgo.Member, reason string) error {
	if err := a.gate.Authorize(guild, actor, ActionBan); err != nil {
		return err
	}
	if err := a.gate.ValidateTarget(guild, actor, target); err != nil {
		return err
	}

	reason = orDefaultReason(reason)
	err := a.platform.GuildBanCreateWithReason(guild.ID, target.User.ID,
		FormatAnnotation(AnnotationBanned, MemberName(actor), reason), 0, discordgo.WithContext(ctx))
	if err != nil {
		platformErrors.WithLabelValues("ban").Inc()
		return fmt.Errorf("failed to ban member: %w", classifyError(err))
	}

	moderationActions.WithLabelValues(string(ActionBan)).Inc()
	a.logger.Info("Banned member",
		zap.String("guildID", guild.ID),
		zap.String("userID", target.User.ID),
		zap.String("actorID", actor.User.ID),
		zap.String("reason", reason))
	return nil
}

// Kick removes target from the guild.
func (a *Actions) Kick(ctx context.Context, guild *discordgo.Guild, actor, target *discordgo.Member, reason string) error {
	if err := a.gate.Authorize(guild, actor, ActionKick); err != nil {
		return err
	}
	if err := a.gate.ValidateTarget(guild, actor, target); err != nil {
		return err
	}

	reason = orDefaultReason(reason)
	err := a.platform.GuildMemberDeleteWithReason(guild.ID, target.User.ID,
		FormatAnnotation(AnnotationKicked, MemberName(actor), reason), discordgo.WithContext(ctx))
	if err != nil {
		platformErrors.WithLabelValues("kick").Inc()
		return fmt.Errorf("failed to kick member: %w", classifyError(err))
	}

	moderationActions.WithLabelValues(string(ActionKick)).Inc()
	a.logger.Info("Kicked member",
		zap.String("guildID", guild.ID),
		zap.String("userID", target.User.ID),
		zap.String("actorID", actor.User.ID),
		zap.String("reason", reason))
	return nil
}

// PurgeRequest asks for the last Amount messages before and including the command to be deleted.
type PurgeRequest struct {
	Guild            *discordgo.Guild
	Actor            *discordgo.Member
	ChannelID        string
	CommandMessageID string
	Amount           int
}

// Purge deletes the command message and up to Amount messages before it. The returned count
// excludes the command message.
func (a *Actions) Purge(ctx context.Context, req PurgeRequest) (int, error) {
	if err := a.gate.Authorize(req.Guild, req.Actor, ActionPurge); err != nil {
		return 0, err
	}
	if req.Amount < MinPurgeAmount || req.Amount > MaxPurgeAmount {
		return 0, fmt.Errorf("%w: must be between %d and %d", ErrInvalidAmount, MinPurgeAmount, MaxPurgeAmount)
	}

	want := req.Amount
	ids := make([]string, 0, want+1)
	if req.CommandMessageID != "" {
		ids = append(ids, req.CommandMessageID)
		want++
	}

	// the API caps a page at 100
	before := req.CommandMessageID
	for len(ids) < want {
		limit := min(want-len(ids), bulkDeleteMax)
		msgs, err := readWithRetry(ctx, a.retry, func() ([]*discordgo.Message, error) {
			return a.platform.ChannelMessages(req.ChannelID, limit, before, "", "", discordgo.WithContext(ctx))
		})
		if err != nil {
			platformErrors.WithLabelValues("channel_messages").Inc()
			return 0, fmt.Errorf("failed to fetch messages: %w", err)
		}
		for _, m := range msgs {
			ids = append(ids, m.ID)
			before = m.ID
		}
		if len(msgs) < limit {
			break
		}
	}

	var recent, old []string
	cutoff := a.clock.Now().Add(-bulkDeleteMaxAge)
	for _, id := range ids {
		ts, err := discordgo.SnowflakeTimestamp(id)
		if err == nil && ts.Before(cutoff) {
			old = append(old, id)
			continue
		}
		recent = append(recent, id)
	}

	counted := func(batch []string) int {
		n := 0
		for _, id := range batch {
			if id != req.CommandMessageID {
				n++
			}
		}
		return n
	}

	deleted := 0
	for chunk := range slices.Chunk(recent, bulkDeleteMax) {
		if len(chunk) < 2 {
			old = append(old, chunk...)
			continue
		}
		if err := a.platform.ChannelMessagesBulkDelete(req.ChannelID, chunk, discordgo.WithContext(ctx)); err != nil {
			platformErrors.WithLabelValues("bulk_delete").Inc()
			return deleted, fmt.Errorf("failed to bulk delete messages: %w", classifyError(err))
		}
		deleted += counted(chunk)
	}

	for _, id := range old {
		if err := a.platform.ChannelMessageDelete(req.ChannelID, id, discordgo.WithContext(ctx)); err != nil {
			platformErrors.WithLabelValues("message_delete").Inc()
			a.logger.Warn("Failed to delete message",
				zap.String("channelID", req.ChannelID),
				zap.String("messageID", id),
				zap.Error(err))
			continue
		}
		deleted += counted([]string{id})
	}

	moderationActions.WithLabelValues(string(ActionPurge)).Inc()
	a.logger.Info("Purged messages",
		zap.String("channelID", req.ChannelID),
		zap.String("actorID", req.Actor.User.ID),
		zap.Int("deleted", deleted))
	return deleted, nil
}
