package events

import (
	"net"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/gs2core/server/internal/protocol"
	"github.com/gs2core/server/internal/registry"
	"github.com/gs2core/server/internal/session"
)

func newTestSession(t *testing.T, id uint64) *session.Session {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() { client.Close(); server.Close() })
	sess := session.New(id, server, 4, 4, zap.NewNop())
	sess.SetPeerClass(protocol.ClassClient)
	return sess
}

func TestKeepAliveSystemClosesIdleSessions(t *testing.T) {
	reg := registry.New()
	sess := newTestSession(t, 1)
	sess.LastData.Store(time.Now().Add(-time.Hour).UnixNano())
	reg.Add(sess)

	sys := &KeepAliveSystem{Registry: reg, IdleTimeout: time.Minute, Log: zap.NewNop()}
	sys.Tick(time.Now())

	if !sess.IsClosed() {
		t.Fatalf("KeepAliveSystem should have closed an idle session")
	}
}

func TestKeepAliveSystemLeavesActiveSessionsAlone(t *testing.T) {
	reg := registry.New()
	sess := newTestSession(t, 1)
	sess.LastData.Store(time.Now().UnixNano())
	reg.Add(sess)

	sys := &KeepAliveSystem{Registry: reg, IdleTimeout: time.Minute, Log: zap.NewNop()}
	sys.Tick(time.Now())

	if sess.IsClosed() {
		t.Fatalf("KeepAliveSystem should not close a recently active session")
	}
}

func TestKeepAliveSystemIgnoresSessionsThatNeverSentData(t *testing.T) {
	reg := registry.New()
	sess := newTestSession(t, 1) // LastData never set (zero)
	reg.Add(sess)

	sys := &KeepAliveSystem{Registry: reg, IdleTimeout: time.Millisecond, Log: zap.NewNop()}
	sys.Tick(time.Now())

	if sess.IsClosed() {
		t.Fatalf("KeepAliveSystem should not act on a session with no recorded LastData yet")
	}
}

func TestSaveSystemRunsAtMostOncePerInterval(t *testing.T) {
	reg := registry.New()
	sess := newTestSession(t, 1)
	sess.SetPhase(protocol.PhaseLoaded)
	reg.Add(sess)

	var calls int
	sys := &SaveSystem{
		Registry:     reg,
		SaveInterval: time.Minute,
		Save:         func(*session.Session) error { calls++; return nil },
		Log:          zap.NewNop(),
	}

	base := time.Now()
	sys.Tick(base)
	sys.Tick(base.Add(10 * time.Second))
	if calls != 1 {
		t.Fatalf("Save called %d times within one interval, want 1", calls)
	}

	sys.Tick(base.Add(time.Minute + time.Second))
	if calls != 2 {
		t.Fatalf("Save called %d times after interval elapsed, want 2", calls)
	}
}

func TestSaveSystemSkipsSessionsNotLoaded(t *testing.T) {
	reg := registry.New()
	sess := newTestSession(t, 1)
	sess.SetPhase(protocol.PhaseAuthenticated)
	reg.Add(sess)

	var calls int
	sys := &SaveSystem{
		Registry:     reg,
		SaveInterval: time.Minute,
		Save:         func(*session.Session) error { calls++; return nil },
		Log:          zap.NewNop(),
	}
	sys.Tick(time.Now())
	if calls != 0 {
		t.Fatalf("SaveSystem should skip non-Loaded sessions, got %d calls", calls)
	}
}

func TestReconnectTimeoutSystemClosesStaleAuthenticatedSessions(t *testing.T) {
	reg := registry.New()
	sess := newTestSession(t, 1)
	sess.SetPhase(protocol.PhaseAuthenticated)
	reg.Add(sess)

	sys := &ReconnectTimeoutSystem{Registry: reg, MaxNoActivity: time.Minute, Log: zap.NewNop()}
	base := time.Now()
	sys.Tick(base) // first observation, starts the clock
	if sess.IsClosed() {
		t.Fatalf("should not close on first observation")
	}
	sys.Tick(base.Add(2 * time.Minute))
	if !sess.IsClosed() {
		t.Fatalf("ReconnectTimeoutSystem should close a session stuck in Authenticated past MaxNoActivity")
	}
}

func TestReconnectTimeoutSystemForgetsSessionsThatReachLoaded(t *testing.T) {
	reg := registry.New()
	sess := newTestSession(t, 1)
	sess.SetPhase(protocol.PhaseAuthenticated)
	reg.Add(sess)

	sys := &ReconnectTimeoutSystem{Registry: reg, MaxNoActivity: time.Minute, Log: zap.NewNop()}
	base := time.Now()
	sys.Tick(base)
	sess.SetPhase(protocol.PhaseLoaded)
	sys.Tick(base.Add(2 * time.Minute))

	if sess.IsClosed() {
		t.Fatalf("a session that reached Loaded should not be closed by ReconnectTimeoutSystem")
	}
}
