package handlers

import (
	"context"
	"fmt"
	"time"

	"discord-moderator/bot"
	"discord-moderator/commands"
	"discord-moderator/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const commandTimeout = 30 * time.Second

// commandContext is one resolved text command.
type commandContext struct {
	ctx    context.Context
	s      *discordgo.Session
	msg    *discordgo.Message
	inv    commands.Invocation
	guild  *discordgo.Guild
	actor  *discordgo.Member
	target *discordgo.Member
}

type dispatcher struct {
	b        *bot.Bot
	logger   *zap.Logger
	handlers map[commands.Name]func(cc *commandContext)
}

func Register(b *bot.Bot) {
	d := &dispatcher{
		b:      b,
		logger: b.Logger.Named("handlers"),
	}
	d.handlers = commandHandlers(d)

	b.Session.AddHandler(d.onReady)
	b.Session.AddHandler(d.onMessageCreate)
	b.Session.AddHandler(d.onInteractionCreate)
}

func commandHandlers(d *dispatcher) map[commands.Name]func(cc *commandContext) {
	return map[commands.Name]func(cc *commandContext){
		commands.MuteOptions: d.handleMuteOptions,
		commands.Mute:        d.handleMute,
		commands.Unmute:      d.handleUnmute,
		commands.MuteStatus:  d.handleMuteStatus,
		commands.Help:        d.handleHelp,
		commands.Ban:         d.handleBan,
		commands.Kick:        d.handleKick,
		commands.Purge:       d.handlePurge,
		commands.SystemInfo:  d.handleSystemInfo,
	}
}

func (d *dispatcher) onReady(s *discordgo.Session, r *discordgo.Ready) {
	d.logger.Info("Logged in",
		zap.String("user", r.User.String()),
		zap.Int("guilds", len(r.Guilds)))
}

func (d *dispatcher) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}
	inv, ok := commands.Parse(m.Content)
	if !ok {
		return
	}
	handler, ok := d.handlers[inv.Name]
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	d.logger.Debug("Command received",
		zap.String("command", string(inv.Name)),
		zap.String("guildID", m.GuildID),
		zap.String("userID", m.Author.ID))

	cc, err := d.resolve(ctx, s, m, inv)
	if err != nil {
		d.logger.Warn("Failed to resolve command context", zap.String("command", string(inv.Name)), zap.Error(err))
		d.b.Replier.Error(m.Message, msgGeneric)
		return
	}

	if inv.TargetID != "" && cc.target == nil {
		d.b.Replier.Error(m.Message, msgMemberNotFound)
		return
	}
	if inv.NeedsTarget() && cc.target == nil {
		d.b.Replier.Error(m.Message, msgMentionMember)
		return
	}

	handler(cc)
}

// resolve loads the guild, the invoking member and the mentioned member, if any.
// A mentioned user who is not a member leaves target nil.
func (d *dispatcher) resolve(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, inv commands.Invocation) (*commandContext, error) {
	guild, err := d.fetchGuild(ctx, s, m.GuildID)
	if err != nil {
		return nil, err
	}

	actor := m.Member
	if actor == nil {
		if actor, err = d.fetchMember(ctx, s, m.GuildID, m.Author.ID); err != nil {
			return nil, fmt.Errorf("failed to fetch invoking member: %w", err)
		}
	}
	// message members arrive without the user and guild fields
	actor.User = m.Author
	actor.GuildID = m.GuildID

	cc := &commandContext{
		ctx:   ctx,
		s:     s,
		msg:   m.Message,
		inv:   inv,
		guild: guild,
		actor: actor,
	}

	if inv.TargetID != "" {
		target, err := d.fetchMember(ctx, s, m.GuildID, inv.TargetID)
		if err != nil {
			d.logger.Debug("Mentioned user is not a member", zap.String("userID", inv.TargetID), zap.Error(err))
		} else {
			cc.target = target
		}
	}
	return cc, nil
}

func (d *dispatcher) fetchGuild(ctx context.Context, s *discordgo.Session, guildID string) (*discordgo.Guild, error) {
	guild, err := utils.WithRetry(ctx, func() (*discordgo.Guild, error) {
		return s.Guild(guildID)
	}, utils.GetDiscordReadRetryOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guild %s: %w", guildID, err)
	}
	return guild, nil
}

func (d *dispatcher) fetchMember(ctx context.Context, s *discordgo.Session, guildID, userID string) (*discordgo.Member, error) {
	member, err := utils.WithRetry(ctx, func() (*discordgo.Member, error) {
		return s.GuildMember(guildID, userID)
	}, utils.GetDiscordReadRetryOptions())
	if err != nil {
		return nil, err
	}
	member.GuildID = guildID
	return member, nil
}

// fail reports err to the invoker. Errors the invoker did not cause are also logged.
func (d *dispatcher) fail(cc *commandContext, err error) {
	if !expectedError(err) {
		d.logger.Error("Command failed",
			zap.String("command", string(cc.inv.Name)),
			zap.String("guildID", cc.guild.ID),
			zap.String("userID", cc.actor.User.ID),
			zap.Error(err))
		details := fmt.Sprintf("Command: %s\nBy: %s\nError: %v", cc.inv.Keyword, mention(cc.actor), err)
		if logErr := utils.LogError(cc.s, d.b.GetConfig().LogChannelID, "Moderation", "Command failed", details); logErr != nil {
			d.logger.Warn("Failed to post error log", zap.Error(logErr))
		}
	}
	d.b.Replier.Error(cc.msg, userMessage(err, cc.target))
}

// logAction posts a moderation entry to the log channel.
func (d *dispatcher) logAction(s *discordgo.Session, operation, details string) {
	if err := utils.LogInfo(s, d.b.GetConfig().LogChannelID, "Moderation", operation, details); err != nil {
		d.logger.Warn("Failed to post moderation log", zap.String("operation", operation), zap.Error(err))
	}
}
