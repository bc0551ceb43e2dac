package discord

import (
	"regexp"
	"strings"
)

var (
	mentionRe = regexp.MustCompile(`^<@!?([0-9]{15,20})>$`)
	rawIDRe   = regexp.MustCompile(`^[0-9]{15,20}$`)
)

// ParseCommand splits a prefixed message into a command name and its arguments.
// ok is false when content does not start with prefix or names no command.
func ParseCommand(content, prefix string) (name string, args []string, ok bool) {
	content = strings.TrimSpace(content)
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}
	fields := strings.Fields(content[len(prefix):])
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

// ParseUserRef extracts a user id from a mention (<@id>, <@!id>) or a raw id.
func ParseUserRef(arg string) (string, bool) {
	if m := mentionRe.FindStringSubmatch(arg); m != nil {
		return m[1], true
	}
	if rawIDRe.MatchString(arg) {
		return arg, true
	}
	return "", false
}
