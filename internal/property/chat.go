package property

import "strings"

// ChatCommand is a recognized command-prefix extracted from a chat string
// by ProcessChat (§4.6 Chat rule).
type ChatCommand struct {
	Name string // "setnick", "setgroup", "trigger"
	Args string
}

// chatCommandPrefixes are the small set of "#name:" commands ProcessChat
// recognizes; anything else is plain chat with no side effect.
var chatCommandPrefixes = map[string]string{
	"#setnick:":  "setnick",
	"#setgroup:": "setgroup",
	"#trigger:":  "trigger",
}

// ProcessChat inspects a chat string for one of the recognized command
// prefixes and returns the command to execute server-side, or ok=false if
// the string is ordinary chat.
func ProcessChat(chat string) (ChatCommand, bool) {
	for prefix, name := range chatCommandPrefixes {
		if strings.HasPrefix(chat, prefix) {
			return ChatCommand{Name: name, Args: chat[len(prefix):]}, true
		}
	}
	return ChatCommand{}, false
}

// SanitizeChat strips ASCII control characters (the "stripped of control
// codes" clamp §4.6 names for PlayerWritableIfPlausible properties).
func SanitizeChat(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
