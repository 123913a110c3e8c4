package commands

import (
	"regexp"
	"sort"
	"strings"
)

// Name identifies a text command independent of the keyword used to invoke it.
type Name string

const (
	MuteOptions Name = "muteoptions"
	Mute        Name = "mute"
	Unmute      Name = "unmute"
	MuteStatus  Name = "mutestatus"
	Help        Name = "help"
	Ban         Name = "ban"
	Kick        Name = "kick"
	Purge       Name = "purge"
	SystemInfo  Name = "sysinfo"
)

// keywords maps the first word of a message to a command.
var keywords = map[string]Name{
	"اسكات":  MuteOptions,
	"اسكت":   Mute,
	"تكلم":   Unmute,
	"اسكاتي": MuteStatus,
	"مساعدة": Help,
	"باند":   Ban,
	"كيك":    Kick,
	"مسح":    Purge,
	"حالة":   SystemInfo,

	"muteoptions": MuteOptions,
	"mute":        Mute,
	"unmute":      Unmute,
	"mutestatus":  MuteStatus,
	"help":        Help,
	"ban":         Ban,
	"kick":        Kick,
	"purge":       Purge,
	"sysinfo":     SystemInfo,
}

// targetRequired lists commands that need a member argument.
var targetRequired = map[Name]bool{
	MuteOptions: true,
	Mute:        true,
	Unmute:      true,
	Ban:         true,
	Kick:        true,
}

var (
	mentionPattern = regexp.MustCompile(`^<@!?(\d+)>$`)
	rawIDPattern   = regexp.MustCompile(`^\d{15,21}$`)
)

// Invocation is a parsed text command.
type Invocation struct {
	Name    Name
	Keyword string
	// TargetID is the mentioned member, empty when none was given.
	TargetID string
	// Args is everything after the keyword and target.
	Args string
}

// NeedsTarget reports whether the command cannot run without a member argument.
func (inv Invocation) NeedsTarget() bool {
	return targetRequired[inv.Name]
}

// Parse recognises a command at the start of content. Messages not starting with a
// known keyword are not commands.
func Parse(content string) (Invocation, bool) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Invocation{}, false
	}

	fields := strings.Fields(content)
	keyword := fields[0]
	name, ok := keywords[strings.ToLower(keyword)]
	if !ok {
		return Invocation{}, false
	}

	inv := Invocation{Name: name, Keyword: keyword}
	rest := strings.TrimSpace(strings.TrimPrefix(content, keyword))
	if rest == "" {
		return inv, true
	}

	first := strings.Fields(rest)[0]
	if id, ok := ParseUserID(first); ok {
		inv.TargetID = id
		rest = strings.TrimSpace(strings.TrimPrefix(rest, first))
	}
	inv.Args = rest
	return inv, true
}

// ParseUserID accepts a user mention or a raw snowflake.
func ParseUserID(s string) (string, bool) {
	if m := mentionPattern.FindStringSubmatch(s); m != nil {
		return m[1], true
	}
	if rawIDPattern.MatchString(s) {
		return s, true
	}
	return "", false
}

// Keywords returns every keyword bound to name.
func Keywords(name Name) []string {
	var out []string
	for k, n := range keywords {
		if n == name {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
