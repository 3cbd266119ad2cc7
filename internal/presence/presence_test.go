package presence

import (
	"net"
	"testing"

	"go.uber.org/zap"

	"github.com/gs2core/server/internal/session"
)

func newTestSession(t *testing.T, id uint64) *session.Session {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() { client.Close(); server.Close() })
	return session.New(id, server, 4, 4, zap.NewNop())
}

type fakeLevels struct {
	joins       []string
	leaves      []string
	arrivals    []string
	departures  []string
}

func (f *fakeLevels) Join(levelName string, sess *session.Session) { f.joins = append(f.joins, levelName) }
func (f *fakeLevels) Leave(levelName string, sess *session.Session) {
	f.leaves = append(f.leaves, levelName)
}
func (f *fakeLevels) BroadcastArrival(levelName string, sess *session.Session) {
	f.arrivals = append(f.arrivals, levelName)
}
func (f *fakeLevels) BroadcastDeparture(levelName string, sess *session.Session) {
	f.departures = append(f.departures, levelName)
}

func TestWarpJoinsNewLevelAndLeavesOld(t *testing.T) {
	sess := newTestSession(t, 1)
	sess.Level = "onlinestart.nw"
	ops := &fakeLevels{}
	lookup := func(name string) (LevelView, bool) {
		return LevelView{Name: name, ModTime: 10}, true
	}

	res := Warp(sess, "arena.nw", 30, 30, lookup, ops)

	if !res.OK {
		t.Fatalf("Warp() not OK")
	}
	if sess.Level != "arena.nw" {
		t.Fatalf("sess.Level = %q, want arena.nw", sess.Level)
	}
	if len(ops.leaves) != 1 || ops.leaves[0] != "onlinestart.nw" {
		t.Fatalf("leaves = %v, want [onlinestart.nw]", ops.leaves)
	}
	if len(ops.joins) != 1 || ops.joins[0] != "arena.nw" {
		t.Fatalf("joins = %v, want [arena.nw]", ops.joins)
	}
}

func TestWarpToUnknownLevelFailsWithoutMutatingSession(t *testing.T) {
	sess := newTestSession(t, 1)
	sess.Level = "onlinestart.nw"
	ops := &fakeLevels{}
	lookup := func(name string) (LevelView, bool) { return LevelView{}, false }

	res := Warp(sess, "nosuch.nw", 0, 0, lookup, ops)

	if res.OK {
		t.Fatalf("Warp() to unknown level should fail")
	}
	if sess.Level != "onlinestart.nw" {
		t.Fatalf("sess.Level mutated on failed warp: %q", sess.Level)
	}
	if len(ops.leaves) != 0 || len(ops.joins) != 0 {
		t.Fatalf("failed warp should not touch membership: leaves=%v joins=%v", ops.leaves, ops.joins)
	}
}

func TestDecideSendLevelCacheHit(t *testing.T) {
	sess := newTestSession(t, 1)
	sess.SetCachedLevel(session.CachedLevel{LevelName: "arena.nw", ModTime: 100})

	got := DecideSendLevel(sess, LevelView{Name: "arena.nw", ModTime: 100}, false)
	if got != SendCachedMarker {
		t.Fatalf("DecideSendLevel() = %v, want SendCachedMarker", got)
	}
}

func TestDecideSendLevelStaleCacheSendsFull(t *testing.T) {
	sess := newTestSession(t, 1)
	sess.SetCachedLevel(session.CachedLevel{LevelName: "arena.nw", ModTime: 50})

	got := DecideSendLevel(sess, LevelView{Name: "arena.nw", ModTime: 100}, false)
	if got != SendFullLevel {
		t.Fatalf("DecideSendLevel() = %v, want SendFullLevel", got)
	}
}

func TestDecideSendLevelNoCacheFromAdjacentSendsHint(t *testing.T) {
	sess := newTestSession(t, 1)
	got := DecideSendLevel(sess, LevelView{Name: "arena.nw", ModTime: 100}, true)
	if got != SendAdjacencyHint {
		t.Fatalf("DecideSendLevel() = %v, want SendAdjacencyHint", got)
	}
}

func TestResetOneLevelCacheForcesFullResend(t *testing.T) {
	sess := newTestSession(t, 1)
	sess.SetCachedLevel(session.CachedLevel{LevelName: "arena.nw", ModTime: 100})
	ResetOneLevelCache(sess, "arena.nw")

	got := DecideSendLevel(sess, LevelView{Name: "arena.nw", ModTime: 100}, false)
	if got != SendFullLevel {
		t.Fatalf("DecideSendLevel() after reset = %v, want SendFullLevel", got)
	}
}

func TestCachedLevelModtimeNeverExceedsLevelModtime(t *testing.T) {
	sess := newTestSession(t, 1)
	lvl := LevelView{Name: "arena.nw", ModTime: 42}
	RecordLevelSent(sess, lvl)

	cl, ok := sess.CachedLevel("arena.nw")
	if !ok || cl.ModTime > lvl.ModTime {
		t.Fatalf("cachedLevel.modtime = %d, want <= %d", cl.ModTime, lvl.ModTime)
	}
}
