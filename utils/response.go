package utils

import (
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	ErrorReplyTTL        = 5 * time.Second
	ConfirmationReplyTTL = 10 * time.Second
	PurgeReplyTTL        = 5 * time.Second
)

// Replier sends command replies. Text commands cannot be ephemeral, so
// short-lived replies are deleted after a delay instead.
type Replier struct {
	session *discordgo.Session
	sent    *DedupeCache
	logger  *zap.Logger
}

func NewReplier(s *discordgo.Session, sent *DedupeCache, logger *zap.Logger) *Replier {
	return &Replier{
		session: s,
		sent:    sent,
		logger:  logger.Named("replier"),
	}
}

// Error sends an error reply for a command message, at most once per message and text.
func (r *Replier) Error(m *discordgo.Message, text string) {
	if !r.sent.Mark(m.ID + "_" + text) {
		return
	}
	msg, err := r.session.ChannelMessageSend(m.ChannelID, "❌ "+text)
	if err != nil {
		r.logger.Warn("Failed to send error reply", zap.String("channel_id", m.ChannelID), zap.Error(err))
		return
	}
	r.deleteAfter(msg, ErrorReplyTTL)
}

// Embed sends an embed with optional components and returns the message.
func (r *Replier) Embed(channelID string, embed *discordgo.MessageEmbed, components ...discordgo.MessageComponent) *discordgo.Message {
	msg, err := r.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	})
	if err != nil {
		r.logger.Warn("Failed to send embed", zap.String("channel_id", channelID), zap.Error(err))
		return nil
	}
	return msg
}

// Temporary sends an embed and deletes it after ttl.
func (r *Replier) Temporary(channelID string, embed *discordgo.MessageEmbed, ttl time.Duration) {
	if msg := r.Embed(channelID, embed); msg != nil {
		r.deleteAfter(msg, ttl)
	}
}

// Private sends a direct message with an embed to a user.
func (r *Replier) Private(userID string, embed *discordgo.MessageEmbed) {
	channel, err := r.session.UserChannelCreate(userID)
	if err != nil {
		r.logger.Debug("Failed to open private channel", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if _, err := r.session.ChannelMessageSendEmbed(channel.ID, embed); err != nil {
		r.logger.Debug("Failed to send private message", zap.String("user_id", userID), zap.Error(err))
	}
}

// Ephemeral answers a component interaction with a message only the clicker sees.
func (r *Replier) Ephemeral(i *discordgo.Interaction, content string, embeds ...*discordgo.MessageEmbed) {
	err := r.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Embeds:  embeds,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		r.logger.Warn("Failed to respond to interaction", zap.String("interaction_id", i.ID), zap.Error(err))
	}
}

// Defer acknowledges a component interaction with an ephemeral deferred response,
// completed later by EditEphemeral. Interactions must be acknowledged within three
// seconds. It returns false if the acknowledgement failed.
func (r *Replier) Defer(i *discordgo.Interaction) bool {
	if err := r.session.InteractionRespond(i, deferredResponse(true)); err != nil {
		r.logger.Warn("Failed to defer interaction", zap.String("interaction_id", i.ID), zap.Error(err))
		return false
	}
	return true
}

// EditEphemeral replaces the deferred response of an interaction.
func (r *Replier) EditEphemeral(i *discordgo.Interaction, content string, embeds ...*discordgo.MessageEmbed) {
	if _, err := r.session.InteractionResponseEdit(i, responseEdit(content, embeds)); err != nil {
		r.logger.Warn("Failed to edit interaction response", zap.String("interaction_id", i.ID), zap.Error(err))
	}
}

// EditError replaces the deferred response of an interaction with an error line.
func (r *Replier) EditError(i *discordgo.Interaction, text string) {
	r.EditEphemeral(i, "❌ "+text)
}

func deferredResponse(ephemeral bool) *discordgo.InteractionResponse {
	response := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}
	if ephemeral {
		response.Data = &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		}
	}
	return response
}

func responseEdit(content string, embeds []*discordgo.MessageEmbed) *discordgo.WebhookEdit {
	if embeds == nil {
		embeds = []*discordgo.MessageEmbed{}
	}
	return &discordgo.WebhookEdit{
		Content: &content,
		Embeds:  &embeds,
	}
}

func (r *Replier) deleteAfter(msg *discordgo.Message, ttl time.Duration) {
	time.AfterFunc(ttl, func() {
		// the message may already be gone, e.g. swept by a purge
		if err := r.session.ChannelMessageDelete(msg.ChannelID, msg.ID); err != nil {
			r.logger.Debug("Failed to delete temporary reply",
				zap.String("channel_id", msg.ChannelID),
				zap.String("message_id", msg.ID),
				zap.Error(err))
		}
	})
}
