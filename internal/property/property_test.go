package property

import (
	"testing"

	"github.com/gs2core/server/internal/protocol"
)

func TestGetPropsSetPropsRoundTrip(t *testing.T) {
	store := map[ID][]byte{}
	commit := func(id ID, raw []byte) bool {
		store[id] = raw
		return true
	}

	w := protocol.NewWriter(1, protocol.CodepageASCII)
	w.WriteGChar(byte(PropHearts))
	w.WriteGChar(12)
	w.WriteGChar(byte(PropRupees))
	w.WriteGInt4(500)

	r := protocol.NewReader(w.Bytes(), protocol.CodepageASCII)
	SetProps(r, SetPropsOptions{}, commit)

	if got := store[PropHearts]; len(got) != 1 || got[0] != 12 {
		t.Fatalf("hearts = %v, want [12]", got)
	}
	if got := store[PropRupees]; len(got) != 4 {
		t.Fatalf("rupees width = %d, want 4", len(got))
	}

	out := protocol.NewWriter(2, protocol.CodepageASCII)
	GetProps(out, []ID{PropHearts, PropRupees}, func(id ID) []byte { return store[id] })
	rr := protocol.NewReader(out.Bytes(), protocol.CodepageASCII)

	if gotID := rr.ReadGChar(); gotID != byte(PropHearts) {
		t.Fatalf("id = %d, want %d", gotID, PropHearts)
	}
	if gotHearts := rr.ReadGChar(); gotHearts != 12 {
		t.Fatalf("re-encoded hearts = %d, want 12", gotHearts)
	}
	if gotID := rr.ReadGChar(); gotID != byte(PropRupees) {
		t.Fatalf("id = %d, want %d", gotID, PropRupees)
	}
	if gotRupees := rr.ReadGInt4(); gotRupees != 500 {
		t.Fatalf("re-encoded rupees = %d, want 500", gotRupees)
	}
}

func TestSetPropsDropsServerOnlyWhenSetByPlayer(t *testing.T) {
	var committed []ID
	commit := func(id ID, raw []byte) bool {
		committed = append(committed, id)
		return true
	}

	w := protocol.NewWriter(1, protocol.CodepageASCII)
	w.WriteGChar(byte(PropMaxHearts)) // ServerOnly
	w.WriteGChar(99)
	w.WriteGChar(byte(PropHearts)) // PlayerWritableIfPlausible
	w.WriteGChar(10)

	r := protocol.NewReader(w.Bytes(), protocol.CodepageASCII)
	SetProps(r, SetPropsOptions{SetByPlayer: true}, commit)

	if len(committed) != 1 || committed[0] != PropHearts {
		t.Fatalf("committed = %v, want only [PropHearts] (ServerOnly dropped)", committed)
	}
}

func TestSetPropsAllowsServerOnlyWhenNotSetByPlayer(t *testing.T) {
	var committed []ID
	commit := func(id ID, raw []byte) bool {
		committed = append(committed, id)
		return true
	}

	w := protocol.NewWriter(1, protocol.CodepageASCII)
	w.WriteGChar(byte(PropMaxHearts))
	w.WriteGChar(99)

	r := protocol.NewReader(w.Bytes(), protocol.CodepageASCII)
	SetProps(r, SetPropsOptions{SetByPlayer: false}, commit)

	if len(committed) != 1 || committed[0] != PropMaxHearts {
		t.Fatalf("committed = %v, want [PropMaxHearts] (RC bypasses gate)", committed)
	}
}

func TestParseSetPropsFlags(t *testing.T) {
	opts := ParseSetPropsFlags(FlagSetByPlayer | FlagForward)
	if !opts.SetByPlayer || !opts.Forward || opts.ForwardSelf {
		t.Fatalf("ParseSetPropsFlags = %+v", opts)
	}
}

func TestSetNickStripsGuildSuffix(t *testing.T) {
	name, guild, ok := SetNick("Joe(Knights)", SetNickOptions{})
	if !ok {
		t.Fatalf("SetNick rejected a plain rename")
	}
	if name != "Joe" || guild != "Knights" {
		t.Fatalf("SetNick() = (%q, %q), want (Joe, Knights)", name, guild)
	}
}

func TestSetNickLockedRejectsUnlessForced(t *testing.T) {
	_, _, ok := SetNick("NewName", SetNickOptions{NickLocked: true})
	if ok {
		t.Fatalf("SetNick should reject when nick-locked and not forced")
	}
	_, _, ok = SetNick("NewName", SetNickOptions{NickLocked: true, Force: true})
	if !ok {
		t.Fatalf("SetNick with Force should bypass the nick lock")
	}
}

func TestSanitizeChatStripsControlCodes(t *testing.T) {
	got := SanitizeChat("hi\x01there\x02")
	if got != "hithere" {
		t.Fatalf("SanitizeChat() = %q, want %q", got, "hithere")
	}
}
