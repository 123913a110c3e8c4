package moderation

import (
	"strings"
	"unicode/utf8"
)

// Audit log actions written by the bot.
const (
	AnnotationMuted    = "muted"
	AnnotationUnmuted  = "unmuted"
	AnnotationBanned   = "banned"
	AnnotationKicked   = "kicked"
	ExpiryActor        = "expiry"
	maxAuditReasonRune = 512 // Discord's audit log reason limit
)

const (
	annotationBy     = " by "
	annotationReason = " - reason: "

	legacyMutePrefix = "ميوت بواسطة "
	legacyReason     = " - السبب: "
)

// Annotation is the structured content of an audit-log reason written by the bot.
type Annotation struct {
	Action string
	Actor  string
	Reason string
}

// FormatAnnotation renders "<action> by <actor> - reason: <reason>". Audit log
// reasons are capped at 512 runes; an over-long reason loses its tail so the
// action and actor stay readable by ParseAnnotation.
func FormatAnnotation(action, actor, reason string) string {
	prefix := action + annotationBy + actor + annotationReason
	room := maxAuditReasonRune - utf8.RuneCountInString(prefix)
	if room < 0 {
		return truncateRunes(prefix, maxAuditReasonRune)
	}
	return prefix + truncateRunes(reason, room)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// ParseAnnotation reads an audit reason written by FormatAnnotation or by the
// older Arabic form "ميوت بواسطة <actor> - السبب: <reason>".
func ParseAnnotation(s string) (Annotation, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Annotation{}, false
	}

	if rest, ok := strings.CutPrefix(s, legacyMutePrefix); ok {
		actor, reason, found := strings.Cut(rest, legacyReason)
		if !found {
			return Annotation{Action: AnnotationMuted, Actor: strings.TrimSpace(rest)}, true
		}
		return Annotation{
			Action: AnnotationMuted,
			Actor:  strings.TrimSpace(actor),
			Reason: strings.TrimSpace(reason),
		}, true
	}

	action, rest, ok := strings.Cut(s, annotationBy)
	if !ok || action == "" || strings.ContainsAny(action, " \t") {
		return Annotation{}, false
	}
	actor, reason, ok := strings.Cut(rest, annotationReason)
	if !ok {
		return Annotation{}, false
	}
	return Annotation{
		Action: action,
		Actor:  strings.TrimSpace(actor),
		Reason: strings.TrimSpace(reason),
	}, true
}
