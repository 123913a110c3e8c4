package utils

import (
	"slices"

	"github.com/bwmarrin/discordgo"
)

// MemberPermissions computes a member's guild-level permission bits from the guild role graph.
// The guild owner and Administrator holders receive every permission.
func MemberPermissions(guild *discordgo.Guild, member *discordgo.Member) int64 {
	if guild == nil || member == nil {
		return 0
	}
	if member.User != nil && member.User.ID == guild.OwnerID {
		return discordgo.PermissionAll
	}

	var perms int64
	for _, role := range guild.Roles {
		// @everyone shares the guild's id
		if role.ID == guild.ID || slices.Contains(member.Roles, role.ID) {
			perms |= role.Permissions
		}
	}

	if perms&discordgo.PermissionAdministrator != 0 {
		return discordgo.PermissionAll
	}
	return perms
}

// HasPermission reports whether member holds every bit in perm.
func HasPermission(guild *discordgo.Guild, member *discordgo.Member, perm int64) bool {
	return MemberPermissions(guild, member)&perm == perm
}

// IsAdministrator reports whether member is the guild owner or holds Administrator.
func IsAdministrator(guild *discordgo.Guild, member *discordgo.Member) bool {
	return HasPermission(guild, member, discordgo.PermissionAdministrator)
}

// HasRoleNamed reports whether member holds a guild role called name.
func HasRoleNamed(guild *discordgo.Guild, member *discordgo.Member, name string) bool {
	if guild == nil || member == nil || name == "" {
		return false
	}
	for _, role := range guild.Roles {
		if role.Name == name && slices.Contains(member.Roles, role.ID) {
			return true
		}
	}
	return false
}

// FindRole returns the guild role called name, or nil.
func FindRole(roles []*discordgo.Role, name string) *discordgo.Role {
	for _, role := range roles {
		if role.Name == name {
			return role
		}
	}
	return nil
}
