package registry

import (
	"net"
	"testing"

	"go.uber.org/zap"

	"github.com/gs2core/server/internal/protocol"
	"github.com/gs2core/server/internal/session"
)

func newTestSession(t *testing.T, id uint64, class protocol.PeerClass, account string) *session.Session {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() { client.Close(); server.Close() })
	sess := session.New(id, server, 4, 4, zap.NewNop())
	sess.SetPeerClass(class)
	sess.Auth.Account = account
	return sess
}

func TestSupersedeTerminatesOlderLoadedSessionForSameAccount(t *testing.T) {
	reg := New()
	first := newTestSession(t, 1, protocol.ClassClient, "joe")
	reg.Add(first)
	if old := reg.Supersede(first); old != nil {
		t.Fatalf("first login should not supersede anything, got %v", old)
	}

	second := newTestSession(t, 2, protocol.ClassClient, "joe")
	reg.Add(second)
	old := reg.Supersede(second)
	if old != first {
		t.Fatalf("Supersede() = %v, want the first session", old)
	}

	cur, ok := reg.ByAccount(protocol.ClassClient, "joe")
	if !ok || cur != second {
		t.Fatalf("ByAccount() should now resolve to the superseding session")
	}
}

func TestSupersedeIsPerPeerClass(t *testing.T) {
	reg := New()
	client := newTestSession(t, 1, protocol.ClassClient, "joe")
	rc := newTestSession(t, 2, protocol.ClassRC, "joe")
	reg.Add(client)
	reg.Add(rc)
	reg.Supersede(client)
	if old := reg.Supersede(rc); old != nil {
		t.Fatalf("different peer class should not supersede: got %v", old)
	}
}

func TestRemoveDropsSessionFromEveryIndex(t *testing.T) {
	reg := New()
	sess := newTestSession(t, 1, protocol.ClassClient, "joe")
	reg.Add(sess)
	reg.Supersede(sess)
	sess.Level = "arena.nw" // as presence.Warp sets it before joining
	reg.Join("arena.nw", sess)
	reg.JoinChannel("global", sess)

	reg.Remove(sess)

	if _, ok := reg.Get(1); ok {
		t.Fatalf("Get() should miss after Remove")
	}
	if _, ok := reg.ByAccount(protocol.ClassClient, "joe"); ok {
		t.Fatalf("ByAccount() should miss after Remove")
	}
	if members := reg.LevelMembers("arena.nw"); len(members) != 0 {
		t.Fatalf("LevelMembers() = %v, want empty after Remove", members)
	}
	if members := reg.ChannelMembers("global"); len(members) != 0 {
		t.Fatalf("ChannelMembers() = %v, want empty after Remove", members)
	}
}

func TestJoinLevelReciprocatesMembership(t *testing.T) {
	reg := New()
	a := newTestSession(t, 1, protocol.ClassClient, "a")
	b := newTestSession(t, 2, protocol.ClassClient, "b")
	reg.Join("arena.nw", a)
	reg.Join("arena.nw", b)

	members := reg.LevelMembers("arena.nw")
	if len(members) != 2 || members[0] != a || members[1] != b {
		t.Fatalf("LevelMembers() = %v, want [a, b] in arrival order", members)
	}

	reg.Leave("arena.nw", a)
	members = reg.LevelMembers("arena.nw")
	if len(members) != 1 || members[0] != b {
		t.Fatalf("LevelMembers() after Leave = %v, want [b]", members)
	}
}

func TestLeaveChannelReportsWhetherSessionWasActuallyAMember(t *testing.T) {
	reg := New()
	sess := newTestSession(t, 1, protocol.ClassClient, "joe")

	if ok := reg.LeaveChannel("global", sess); ok {
		t.Fatalf("LeaveChannel() on a never-joined channel should return false")
	}

	reg.JoinChannel("global", sess)
	if ok := reg.LeaveChannel("global", sess); !ok {
		t.Fatalf("LeaveChannel() should return true for an actual member")
	}
	if ok := reg.LeaveChannel("global", sess); ok {
		t.Fatalf("LeaveChannel() called twice should return false the second time")
	}
}

func TestByClassExcludesNonIterableSessions(t *testing.T) {
	reg := New()
	visible := newTestSession(t, 1, protocol.ClassRC, "visible")
	hidden := newTestSession(t, 2, protocol.ClassRC, "hidden")
	reg.Add(visible)
	reg.Add(hidden)

	nonIterable := func(s *session.Session) bool { return s.Auth.Account == "hidden" }
	out := reg.ByClass(protocol.ClassRC, nonIterable)
	if len(out) != 1 || out[0] != visible {
		t.Fatalf("ByClass() = %v, want only the visible session", out)
	}
}

func TestExternalPeerTableRoundTrip(t *testing.T) {
	reg := New()
	reg.AddExternalPeer("peer1", ExternalPlayer{PeerServer: "peer1", AccountID: "joe"})
	ep, ok := reg.ExternalPeer("peer1", "joe")
	if !ok || ep.AccountID != "joe" {
		t.Fatalf("ExternalPeer() = %+v, %v", ep, ok)
	}
	if _, ok := reg.ExternalPeer("peer1", "nobody"); ok {
		t.Fatalf("ExternalPeer() should miss for an unknown account")
	}
}
