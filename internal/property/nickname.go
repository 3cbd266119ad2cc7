package property

import "strings"

const maxNickLength = 223 // GString length cap (wire.go WriteGString)

// SplitNick applies the guild-suffix rule: a nickname of the form
// "Name (Guild)" is split into ("Name", "Guild"); anything else is
// returned with an empty guild (§4.6 Nickname rule).
func SplitNick(nick string) (name, guild string) {
	open := strings.LastIndex(nick, "(")
	if open < 0 || !strings.HasSuffix(nick, ")") {
		return nick, ""
	}
	return strings.TrimSpace(nick[:open]), nick[open+1 : len(nick)-1]
}

// SetNickOptions carries the player state SetNick needs to judge whether
// an edit is allowed — kept deliberately small so this package doesn't
// need to know about Session.
type SetNickOptions struct {
	Force      bool
	GagUntil   int64 // unix seconds; 0 = not gagged
	NickLocked bool
	Now        int64
}

// SetNick implements the nickname rule: strip the "(guild)" suffix,
// truncate to the wire length cap, and — unless Force — reject the whole
// edit if the player is gagged or nick-locked.
func SetNick(raw string, opts SetNickOptions) (name, guild string, ok bool) {
	if !opts.Force {
		if opts.NickLocked {
			return "", "", false
		}
		if opts.GagUntil > opts.Now {
			return "", "", false
		}
	}
	name, guild = SplitNick(raw)
	if len(name) > maxNickLength {
		name = name[:maxNickLength]
	}
	return name, guild, true
}
