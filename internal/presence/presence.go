// Package presence implements the level-presence and level-view component
// (C7): warp, sendLevel's cached-vs-full decision, and level-cache
// invalidation. It holds no Session or Level state itself: sessions are
// passed in as *session.Session, and levels and player lists are reached
// through LevelLookup and PlayerListOps below, per the Design Notes'
// composition-over-inheritance guidance, so this package can be tested
// without a real level loader or registry.
package presence

import "github.com/gs2core/server/internal/session"

// LevelView is everything presence needs to know about a resolved level.
type LevelView struct {
	Name    string
	ModTime int64
}

// LevelLookup resolves a level by name, returning ok=false if unknown
// (the "Level Collaborator" named in §4.7, out of scope to implement here).
type LevelLookup func(name string) (LevelView, bool)

// PlayerListOps are the level-membership mutations warp needs; supplied by
// the registry so presence stays decoupled from C8's storage.
type PlayerListOps interface {
	Join(levelName string, sess *session.Session)
	Leave(levelName string, sess *session.Session)
	BroadcastArrival(levelName string, sess *session.Session)
	BroadcastDeparture(levelName string, sess *session.Session)
}

// WarpResult reports what Warp did, for the caller to drive further
// packet sends (sendLevel etc.) without presence needing to know how to
// build those packets itself.
type WarpResult struct {
	OK       bool
	Level    LevelView
	X, Y     byte
}

// Warp atomically moves sess from its current level (if any) to levelName
// at (x, y), per §4.7: resolve, leaveLevel on the old, bind+join+broadcast
// on the new.
func Warp(sess *session.Session, levelName string, x, y byte, lookup LevelLookup, ops PlayerListOps) WarpResult {
	lvl, ok := lookup(levelName)
	if !ok {
		return WarpResult{OK: false}
	}

	sess.FirstLevel.Store(sess.Level == "")

	if sess.Level != "" {
		ops.Leave(sess.Level, sess)
		ops.BroadcastDeparture(sess.Level, sess)
	}

	sess.Level = lvl.Name
	ops.Join(lvl.Name, sess)
	ops.BroadcastArrival(lvl.Name, sess)

	return WarpResult{OK: true, Level: lvl, X: x, Y: y}
}

// SendLevelDecision is what sendLevel should do, decided by consulting the
// session's cached-level entry against the level's current modtime.
type SendLevelDecision int

const (
	SendFullLevel SendLevelDecision = iota
	SendCachedMarker
	SendAdjacencyHint
)

// DecideSendLevel implements §4.7's sendLevel cache check: a cache entry
// whose modtime is at least the level's current modtime means the client
// already holds this version, so only the reuse marker needs to go out.
// fromAdjacent narrows a full send down to an adjacency hint instead.
func DecideSendLevel(sess *session.Session, lvl LevelView, fromAdjacent bool) SendLevelDecision {
	if cl, ok := sess.CachedLevel(lvl.Name); ok && cl.ModTime >= lvl.ModTime {
		return SendCachedMarker
	}
	if fromAdjacent {
		return SendAdjacencyHint
	}
	return SendFullLevel
}

// RecordLevelSent updates the session's cache entry after a full (or
// adjacency) send, so the next visit can hit the cached path.
func RecordLevelSent(sess *session.Session, lvl LevelView) {
	sess.SetCachedLevel(session.CachedLevel{LevelName: lvl.Name, ModTime: lvl.ModTime})
}

// ResetLevelCache invalidates every cached-level entry for sess, forcing a
// full resend on the next warp into any level (§4.7 resetLevelCache).
// The spec names a single-level variant; this implementation's Session
// only tracks cache entries in a flat map, so resetting "a level's entry"
// and resetting the whole set collapse to the same map-clear operation
// when the level name isn't separately tracked by a caller that still
// holds it — callers that need to invalidate just one level should use
// sess.SetCachedLevel with ModTime 0 instead.
func ResetLevelCache(sess *session.Session) {
	sess.ResetLevelCache()
}

// ResetOneLevelCache invalidates only levelName's entry, by overwriting it
// with a zero modtime — the next DecideSendLevel call for that level will
// then see cl.ModTime(0) < lvl.ModTime and choose a full send.
func ResetOneLevelCache(sess *session.Session, levelName string) {
	sess.SetCachedLevel(session.CachedLevel{LevelName: levelName, ModTime: 0})
}
