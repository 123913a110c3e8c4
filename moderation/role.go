package moderation

import (
	"context"
	"fmt"
	"sync"

	"discord-moderator/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

const (
	// RestrictedRoleName is the name of the per-guild role that silences its holders.
	RestrictedRoleName = "Muted"
	restrictedRoleColor = 0x607d8b

	textDeny  = discordgo.PermissionSendMessages | discordgo.PermissionSendMessagesInThreads | discordgo.PermissionAddReactions
	voiceDeny = discordgo.PermissionVoiceSpeak | discordgo.PermissionVoiceConnect

	overrideWorkers = 4
)

// requiredDeny returns the bits the restricted role must be denied in a channel, or 0 when the
// channel type is not restricted.
func requiredDeny(ch *discordgo.Channel) int64 {
	switch ch.Type {
	case discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews, discordgo.ChannelTypeGuildForum:
		return textDeny
	case discordgo.ChannelTypeGuildVoice, discordgo.ChannelTypeGuildStageVoice:
		return voiceDeny
	}
	return 0
}

// RoleManager keeps one restricted role per guild and the channel overrides backing it.
type RoleManager struct {
	platform Platform
	logger   *zap.Logger
	retry    utils.RetryOptions

	mu     sync.Mutex
	guilds map[string]*sync.Mutex
}

func NewRoleManager(platform Platform, logger *zap.Logger) *RoleManager {
	return &RoleManager{
		platform: platform,
		logger:   logger.Named("roles"),
		retry:    utils.GetDiscordReadRetryOptions(),
		guilds:   make(map[string]*sync.Mutex),
	}
}

func (m *RoleManager) guildLock(guildID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.guilds[guildID]
	if !ok {
		l = &sync.Mutex{}
		m.guilds[guildID] = l
	}
	return l
}

// FindRestrictedRole returns the guild's restricted role, or nil when none exists.
func (m *RoleManager) FindRestrictedRole(ctx context.Context, guildID string) (*discordgo.Role, error) {
	roles, err := readWithRetry(ctx, m.retry, func() ([]*discordgo.Role, error) {
		return m.platform.GuildRoles(guildID, discordgo.WithContext(ctx))
	})
	if err != nil {
		platformErrors.WithLabelValues("guild_roles").Inc()
		return nil, fmt.Errorf("failed to list roles of guild %s: %w", guildID, err)
	}
	return utils.FindRole(roles, RestrictedRoleName), nil
}

// EnsureRestrictedRole returns the restricted role, creating it and its channel overrides if needed.
// Channels already denying the required bits are left untouched, so a second call writes nothing.
func (m *RoleManager) EnsureRestrictedRole(ctx context.Context, guildID string) (*discordgo.Role, error) {
	lock := m.guildLock(guildID)
	lock.Lock()
	defer lock.Unlock()

	role, err := m.FindRestrictedRole(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRoleCreationFailed, err)
	}

	created := false
	if role == nil {
		color := restrictedRoleColor
		perms := int64(0)
		role, err = m.platform.GuildRoleCreate(guildID, &discordgo.RoleParams{
			Name:        RestrictedRoleName,
			Color:       &color,
			Permissions: &perms,
		}, discordgo.WithContext(ctx), discordgo.WithAuditLogReason("restricted role for muted members"))
		if err != nil {
			platformErrors.WithLabelValues("role_create").Inc()
			return nil, fmt.Errorf("%w: %w", ErrRoleCreationFailed, classifyError(err))
		}
		created = true
		m.logger.Info("Created restricted role",
			zap.String("guildID", guildID),
			zap.String("roleID", role.ID))
	}

	if err := m.applyOverrides(ctx, guildID, role.ID); err != nil {
		if created {
			if delErr := m.platform.GuildRoleDelete(guildID, role.ID, discordgo.WithContext(ctx)); delErr != nil {
				m.logger.Error("Failed to delete half-configured restricted role",
					zap.String("guildID", guildID),
					zap.String("roleID", role.ID),
					zap.Error(delErr))
			}
		}
		return nil, fmt.Errorf("%w: %w", ErrRoleCreationFailed, err)
	}

	return role, nil
}

func (m *RoleManager) applyOverrides(ctx context.Context, guildID, roleID string) error {
	channels, err := readWithRetry(ctx, m.retry, func() ([]*discordgo.Channel, error) {
		return m.platform.GuildChannels(guildID, discordgo.WithContext(ctx))
	})
	if err != nil {
		return fmt.Errorf("failed to list channels: %w", err)
	}

	p := pool.New().WithMaxGoroutines(overrideWorkers).WithContext(ctx)
	for _, ch := range channels {
		deny := requiredDeny(ch)
		if deny == 0 {
			continue
		}

		var allow, existing int64
		for _, ow := range ch.PermissionOverwrites {
			if ow.ID == roleID && ow.Type == discordgo.PermissionOverwriteTypeRole {
				allow, existing = ow.Allow, ow.Deny
				break
			}
		}
		if existing&deny == deny {
			continue
		}

		channelID := ch.ID
		newAllow := allow &^ deny
		newDeny := existing | deny
		p.Go(func(ctx context.Context) error {
			err := m.platform.ChannelPermissionSet(channelID, roleID, discordgo.PermissionOverwriteTypeRole,
				newAllow, newDeny, discordgo.WithContext(ctx))
			if err != nil {
				platformErrors.WithLabelValues("channel_override").Inc()
				return fmt.Errorf("channel %s: %w", channelID, classifyError(err))
			}
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return fmt.Errorf("failed to set channel overrides: %w", err)
	}
	return nil
}
