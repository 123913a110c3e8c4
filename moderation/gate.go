package moderation

import (
	"fmt"
	"strings"

	"discord-moderator/utils"

	"github.com/bwmarrin/discordgo"
)

// Action is a moderation operation subject to the gate.
type Action string

const (
	ActionMute       Action = "mute"
	ActionUnmute     Action = "unmute"
	ActionStatus     Action = "status"
	ActionBan        Action = "ban"
	ActionKick       Action = "kick"
	ActionPurge      Action = "purge"
	ActionSystemInfo Action = "sysinfo"
)

// Policy selects who counts as a moderator.
type Policy string

const (
	// PolicyRoleOrPermissions admits holders of the admin role or of any moderation permission.
	PolicyRoleOrPermissions Policy = "role_or_permissions"
	// PolicyOwner admits only the guild owner and holders of the owner role.
	PolicyOwner Policy = "owner"
	// PolicyActionPermission admits holders of the single permission each action needs.
	PolicyActionPermission Policy = "action_permission"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyRoleOrPermissions:
		return PolicyRoleOrPermissions, nil
	case PolicyOwner:
		return PolicyOwner, nil
	case PolicyActionPermission:
		return PolicyActionPermission, nil
	}
	return "", fmt.Errorf("unknown moderation policy %q", s)
}

const DefaultAdminRoleName = "ادمن"

const moderationPermissions = discordgo.PermissionAdministrator |
	discordgo.PermissionManageRoles |
	discordgo.PermissionBanMembers |
	discordgo.PermissionKickMembers |
	discordgo.PermissionManageMessages

var actionPermissions = map[Action]int64{
	ActionMute:       discordgo.PermissionManageRoles,
	ActionUnmute:     discordgo.PermissionManageRoles,
	ActionStatus:     discordgo.PermissionManageRoles,
	ActionBan:        discordgo.PermissionBanMembers,
	ActionKick:       discordgo.PermissionKickMembers,
	ActionPurge:      discordgo.PermissionManageMessages,
	ActionSystemInfo: discordgo.PermissionAdministrator,
}

// Gate decides whether an actor may perform an action and whether a target may be acted on.
type Gate struct {
	policy        Policy
	adminRoleName string
	ownerRoleName string
}

func NewGate(policy Policy, adminRoleName, ownerRoleName string) *Gate {
	if policy == "" {
		policy = PolicyRoleOrPermissions
	}
	if adminRoleName == "" {
		adminRoleName = DefaultAdminRoleName
	}
	return &Gate{policy: policy, adminRoleName: adminRoleName, ownerRoleName: ownerRoleName}
}

func (g *Gate) Policy() Policy {
	return g.policy
}

// Authorize returns ErrPermissionDenied unless actor may perform action in guild.
func (g *Gate) Authorize(guild *discordgo.Guild, actor *discordgo.Member, action Action) error {
	if g.allowed(guild, actor, action) {
		return nil
	}
	gateDenials.WithLabelValues(string(action)).Inc()
	return fmt.Errorf("%w: %s", ErrPermissionDenied, action)
}

// IsModerator reports whether actor passes the gate for action.
func (g *Gate) IsModerator(guild *discordgo.Guild, actor *discordgo.Member, action Action) bool {
	return g.allowed(guild, actor, action)
}

func (g *Gate) allowed(guild *discordgo.Guild, actor *discordgo.Member, action Action) bool {
	if guild == nil || actor == nil || actor.User == nil {
		return false
	}

	switch g.policy {
	case PolicyOwner:
		return actor.User.ID == guild.OwnerID || utils.HasRoleNamed(guild, actor, g.ownerRoleName)
	case PolicyActionPermission:
		perm, ok := actionPermissions[action]
		if !ok {
			return false
		}
		return utils.HasPermission(guild, actor, perm)
	default:
		if utils.HasRoleNamed(guild, actor, g.adminRoleName) {
			return true
		}
		return utils.MemberPermissions(guild, actor)&moderationPermissions != 0
	}
}

// ValidateTarget rejects bots, the actor themself and administrators, checked in that order.
func (g *Gate) ValidateTarget(guild *discordgo.Guild, actor, target *discordgo.Member) error {
	if target == nil || target.User == nil {
		return &TargetError{Reason: "unknown"}
	}
	if target.User.Bot {
		return &TargetError{Reason: TargetIsBot}
	}
	if actor != nil && actor.User != nil && actor.User.ID == target.User.ID {
		return &TargetError{Reason: TargetIsSelf}
	}
	if utils.IsAdministrator(guild, target) {
		return &TargetError{Reason: TargetIsAdministrator}
	}
	return nil
}
