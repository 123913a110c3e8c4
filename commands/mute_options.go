package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"discord-moderator/utils"

	"github.com/bwmarrin/discordgo"
)

const muteOptionPrefix = "mute_option:"

// MutePreset is one button of the mute-options panel.
type MutePreset struct {
	Label  string
	Emoji  string
	Reason string
	Style  discordgo.ButtonStyle
}

// MutePresets are offered in this order; the index is part of each button's custom id.
var MutePresets = []MutePreset{
	{Label: "سب/شتائم", Emoji: "🤬", Reason: "سب/شتائم", Style: discordgo.DangerButton},
	{Label: "إساءة/استهزاء", Emoji: "😤", Reason: "إساءة/استهزاء", Style: discordgo.DangerButton},
	{Label: "روابط/إعلانات", Emoji: "🔗", Reason: "روابط/إعلانات", Style: discordgo.SecondaryButton},
	{Label: "سبام", Emoji: "📢", Reason: "سبام", Style: discordgo.SecondaryButton},
	{Label: "تجاهل التحذيرات", Emoji: "⚠️", Reason: "تجاهل التحذيرات", Style: discordgo.SecondaryButton},
}

// MuteOptionsEmbed lists every preset with the duration durationOf assigns to its reason.
func MuteOptionsEmbed(targetMention string, durationOf func(reason string) time.Duration) *discordgo.MessageEmbed {
	fields := make([]*discordgo.MessageEmbedField, 0, len(MutePresets))
	for _, p := range MutePresets {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   p.Emoji + " " + p.Label,
			Value:  utils.FormatMinutes(durationOf(p.Reason)),
			Inline: true,
		})
	}
	return &discordgo.MessageEmbed{
		Title:       "🔇 خيارات الإسكات",
		Description: fmt.Sprintf("اختر سبب الإسكات لـ %s", targetMention),
		Color:       ColorWarning,
		Fields:      fields,
	}
}

// MuteOptionsComponents builds the preset buttons for targetID. A row holds at most five buttons.
func MuteOptionsComponents(targetID string) []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent
	var row []discordgo.MessageComponent
	for i, p := range MutePresets {
		row = append(row, discordgo.Button{
			Label:    p.Label,
			Style:    p.Style,
			Emoji:    &discordgo.ComponentEmoji{Name: p.Emoji},
			CustomID: MuteOptionID(targetID, i),
		})
		if len(row) == 5 {
			rows = append(rows, discordgo.ActionsRow{Components: row})
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, discordgo.ActionsRow{Components: row})
	}
	return rows
}

func MuteOptionID(targetID string, index int) string {
	return muteOptionPrefix + targetID + ":" + strconv.Itoa(index)
}

// IsMuteOption reports whether customID belongs to a mute-options button.
func IsMuteOption(customID string) bool {
	return strings.HasPrefix(customID, muteOptionPrefix)
}

// ParseMuteOptionID returns the target and preset of a mute-options button.
func ParseMuteOptionID(customID string) (string, MutePreset, bool) {
	rest, ok := strings.CutPrefix(customID, muteOptionPrefix)
	if !ok {
		return "", MutePreset{}, false
	}
	targetID, idx, ok := strings.Cut(rest, ":")
	if !ok || targetID == "" {
		return "", MutePreset{}, false
	}
	i, err := strconv.Atoi(idx)
	if err != nil || i < 0 || i >= len(MutePresets) {
		return "", MutePreset{}, false
	}
	return targetID, MutePresets[i], true
}
