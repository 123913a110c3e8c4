package handlers

import (
	"fmt"
	"time"

	"discord-moderator/commands"
	"discord-moderator/moderation"
	"discord-moderator/utils"

	"go.uber.org/zap"
)

const statusReplyTTL = 30 * time.Second

// handleMuteOptions shows the reason picker for a member.
func (d *dispatcher) handleMuteOptions(cc *commandContext) {
	if err := d.b.Gate.Authorize(cc.guild, cc.actor, moderation.ActionMute); err != nil {
		d.fail(cc, err)
		return
	}
	if err := d.b.Gate.ValidateTarget(cc.guild, cc.actor, cc.target); err != nil {
		d.fail(cc, err)
		return
	}

	durationOf := func(reason string) time.Duration {
		return d.b.Classifier.Classify(reason).Duration
	}
	d.b.Replier.Embed(cc.msg.ChannelID,
		commands.MuteOptionsEmbed(mention(cc.target), durationOf),
		commands.MuteOptionsComponents(cc.target.User.ID)...)
}

func (d *dispatcher) handleMute(cc *commandContext) {
	result, err := d.b.Applier.Apply(cc.ctx, moderation.MuteRequest{
		Guild:     cc.guild,
		Actor:     cc.actor,
		Target:    cc.target,
		Reason:    cc.inv.Args,
		ChannelID: cc.msg.ChannelID,
	})
	if err != nil {
		d.fail(cc, err)
		return
	}

	d.b.Replier.Temporary(cc.msg.ChannelID, muteEmbed(cc.target, cc.actor, result.Sanction), utils.ConfirmationReplyTTL)
	d.b.Replier.Private(cc.target.User.ID, mutedNoticeEmbed(cc.guild, result.Sanction))
	d.logMute(cc, result)
}

func (d *dispatcher) logMute(cc *commandContext, result *moderation.MuteResult) {
	d.logAction(cc.s, "Mute", fmt.Sprintf("User: %s\nBy: %s\nReason: %s\nDuration: %s",
		mention(cc.target), mention(cc.actor), result.Sanction.Reason, utils.FormatMinutes(result.Sanction.Duration)))
}

func (d *dispatcher) handleUnmute(cc *commandContext) {
	err := d.b.Applier.Unmute(cc.ctx, moderation.UnmuteRequest{
		Guild:  cc.guild,
		Actor:  cc.actor,
		Target: cc.target,
		Reason: cc.inv.Args,
	})
	if err != nil {
		d.fail(cc, err)
		return
	}

	d.b.Replier.Temporary(cc.msg.ChannelID, unmuteEmbed(cc.target, cc.actor), utils.ConfirmationReplyTTL)
	d.logAction(cc.s, "Unmute", fmt.Sprintf("User: %s\nBy: %s", mention(cc.target), mention(cc.actor)))
}

// handleMuteStatus reports the invoker's own mute, or another member's for moderators.
func (d *dispatcher) handleMuteStatus(cc *commandContext) {
	member := cc.actor
	if cc.target != nil && cc.target.User.ID != cc.actor.User.ID {
		if !d.b.Gate.IsModerator(cc.guild, cc.actor, moderation.ActionStatus) {
			d.b.Replier.Error(cc.msg, msgStatusOthers)
			return
		}
		member = cc.target
	}

	sanction, err := d.b.Reconstructor.ActiveSanction(cc.ctx, cc.guild.ID, member)
	if err != nil {
		d.logger.Warn("Failed to reconstruct mute",
			zap.String("guildID", cc.guild.ID),
			zap.String("userID", member.User.ID),
			zap.Error(err))
		details := fmt.Sprintf("User: %s\nError: %v", mention(member), err)
		if logErr := utils.LogWarn(cc.s, d.b.GetConfig().LogChannelID, "Moderation", "Mute status", details); logErr != nil {
			d.logger.Debug("Failed to post warning log", zap.Error(logErr))
		}
		d.b.Replier.Error(cc.msg, userMessage(err, member))
		return
	}

	d.b.Replier.Temporary(cc.msg.ChannelID, statusEmbed(member, sanction, time.Now()), statusReplyTTL)
}
