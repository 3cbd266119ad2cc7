package handler

import (
	"go.uber.org/zap"

	"github.com/gs2core/server/internal/session"
)

// OnDisconnect runs once a session's connection dies for any reason
// (protocol error, idle timeout, RC kick, socket close): it broadcasts the
// departure to the session's level, if any, and drops every registry
// index that still references it (§3 Invariants: "no Session reference
// outlives its connection").
func OnDisconnect(d *Deps, sess *session.Session) {
	if sess.Level != "" {
		rec := buildRemovePlayer(sess)
		for _, m := range d.Registry.LevelMembers(sess.Level) {
			if m == sess {
				continue
			}
			m.Send(rec)
		}
	}
	d.Registry.Remove(sess)
}

// ConsumeRaw handles the one raw-bytes record that follows a raw-announcer
// code (§4.1 "raw follows" framing). This core doesn't interpret NPC-add
// blobs or other raw payloads (§1 Non-goals: level/NPC content parsing);
// it just accounts for the bytes so the session's invalid-packet counter
// isn't charged for a record with no opcode.
func ConsumeRaw(d *Deps, sess *session.Session, raw []byte) {
	d.Log.Debug("raw record consumed", zap.Uint64("session", sess.ID), zap.Int("bytes", len(raw)))
}
