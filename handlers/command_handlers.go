package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"discord-moderator/commands"
	"discord-moderator/moderation"
	"discord-moderator/utils"
)

func (d *dispatcher) handleHelp(cc *commandContext) {
	d.b.Replier.Embed(cc.msg.ChannelID, commands.HelpEmbed(), commands.HelpComponents()...)
}

func (d *dispatcher) handleBan(cc *commandContext) {
	reason := reasonOrDefault(cc.inv.Args)
	if err := d.b.Actions.Ban(cc.ctx, cc.guild, cc.actor, cc.target, reason); err != nil {
		d.fail(cc, err)
		return
	}
	d.b.Replier.Temporary(cc.msg.ChannelID, banEmbed(cc.target, cc.actor, reason), utils.ConfirmationReplyTTL)
	d.logAction(cc.s, "Ban", fmt.Sprintf("User: %s\nBy: %s\nReason: %s", mention(cc.target), mention(cc.actor), reason))
}

func (d *dispatcher) handleKick(cc *commandContext) {
	reason := reasonOrDefault(cc.inv.Args)
	if err := d.b.Actions.Kick(cc.ctx, cc.guild, cc.actor, cc.target, reason); err != nil {
		d.fail(cc, err)
		return
	}
	d.b.Replier.Temporary(cc.msg.ChannelID, kickEmbed(cc.target, cc.actor, reason), utils.ConfirmationReplyTTL)
	d.logAction(cc.s, "Kick", fmt.Sprintf("User: %s\nBy: %s\nReason: %s", mention(cc.target), mention(cc.actor), reason))
}

func (d *dispatcher) handlePurge(cc *commandContext) {
	amount, err := parseAmount(cc.inv.Args)
	if err != nil {
		d.fail(cc, err)
		return
	}

	deleted, err := d.b.Actions.Purge(cc.ctx, moderation.PurgeRequest{
		Guild:            cc.guild,
		Actor:            cc.actor,
		ChannelID:        cc.msg.ChannelID,
		CommandMessageID: cc.msg.ID,
		Amount:           amount,
	})
	if err != nil {
		d.fail(cc, err)
		return
	}

	d.b.Replier.Temporary(cc.msg.ChannelID, purgeEmbed(deleted, cc.actor), utils.PurgeReplyTTL)
	d.logAction(cc.s, "Purge", fmt.Sprintf("Channel: <#%s>\nBy: %s\nDeleted: %d", cc.msg.ChannelID, mention(cc.actor), deleted))
}

func reasonOrDefault(reason string) string {
	if reason = strings.TrimSpace(reason); reason == "" {
		return moderation.DefaultReason
	}
	return reason
}

// parseAmount reads the purge count from the command arguments. Range checks are left to the purge itself.
func parseAmount(args string) (int, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return moderation.DefaultPurgeAmount, nil
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", moderation.ErrInvalidAmount, fields[0])
	}
	return n, nil
}
