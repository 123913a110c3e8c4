package handlers

import (
	"context"
	"fmt"

	"discord-moderator/commands"
	"discord-moderator/moderation"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func (d *dispatcher) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent || i.GuildID == "" || i.Member == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	customID := i.MessageComponentData().CustomID
	switch {
	case customID == commands.HelpGeneralID:
		d.b.Replier.Ephemeral(i.Interaction, "", commands.GeneralHelpEmbed())
	case customID == commands.HelpAdminID:
		d.handleAdminHelp(ctx, s, i)
	case commands.IsMuteOption(customID):
		d.handleMuteOption(ctx, s, i, customID)
	}
}

func (d *dispatcher) handleAdminHelp(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !d.b.Replier.Defer(i.Interaction) {
		return
	}

	guild, err := d.fetchGuild(ctx, s, i.GuildID)
	if err != nil {
		d.logger.Warn("Failed to fetch guild for help", zap.Error(err))
		d.b.Replier.EditError(i.Interaction, msgGeneric)
		return
	}
	if !d.b.Gate.IsModerator(guild, i.Member, moderation.ActionMute) {
		d.b.Replier.EditError(i.Interaction, msgAdminOnly)
		return
	}
	d.b.Replier.EditEphemeral(i.Interaction, "", commands.AdminHelpEmbed())
}

// handleMuteOption applies a preset reason picked from the mute options panel.
// The clicker is gated, not whoever opened the panel.
func (d *dispatcher) handleMuteOption(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, customID string) {
	targetID, preset, ok := commands.ParseMuteOptionID(customID)
	if !ok {
		d.logger.Warn("Malformed mute option", zap.String("customID", customID))
		return
	}
	if !d.b.Replier.Defer(i.Interaction) {
		return
	}

	guild, err := d.fetchGuild(ctx, s, i.GuildID)
	if err != nil {
		d.logger.Warn("Failed to fetch guild for mute option", zap.Error(err))
		d.b.Replier.EditError(i.Interaction, msgGeneric)
		return
	}
	actor := i.Member
	actor.GuildID = i.GuildID

	target, err := d.fetchMember(ctx, s, i.GuildID, targetID)
	if err != nil {
		d.b.Replier.EditError(i.Interaction, msgMemberNotFound)
		return
	}

	result, err := d.b.Applier.Apply(ctx, moderation.MuteRequest{
		Guild:     guild,
		Actor:     actor,
		Target:    target,
		Reason:    preset.Reason,
		ChannelID: i.ChannelID,
	})
	if err != nil {
		if !expectedError(err) {
			d.logger.Error("Mute option failed", zap.String("targetID", targetID), zap.Error(err))
		}
		d.b.Replier.EditError(i.Interaction, userMessage(err, target))
		return
	}

	d.b.Replier.EditEphemeral(i.Interaction, "", muteEmbed(target, actor, result.Sanction))
	d.b.Replier.Private(target.User.ID, mutedNoticeEmbed(guild, result.Sanction))
	d.logAction(s, "Mute", fmt.Sprintf("User: %s\nBy: %s\nReason: %s\nPanel: %s",
		mention(target), mention(actor), result.Sanction.Reason, preset.Label))
}
