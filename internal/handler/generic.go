package handler

import (
	"github.com/gs2core/server/internal/protocol"
	"github.com/gs2core/server/internal/session"
)

// newForwardToLevel builds a generic handler for the large family of
// object-edit codes (board edits, bombs, horses, arrows, items, baddies,
// flags, chests, NPCs, images, weapons, shots, trigger/map/gani/script
// updates) whose payload this core doesn't interpret: it prefixes the
// sender's id and rebroadcasts the untouched body to every other member of
// the sender's level. (Properties whose Forward class is property.Local
// are not forwarded at all by broadcastProps; this level fan-out is
// closer to LevelBroadcast.)
func newForwardToLevel(d *Deps, outCode byte) protocol.HandlerFunc {
	return func(s any, r *protocol.Reader) bool {
		sess := s.(*session.Session)
		body := r.ReadRaw(r.Remaining())
		if sess.Level == "" {
			return true
		}
		w := protocol.NewWriter(outCode, sess.Version.Codepage)
		w.WriteGInt4(uint32(sess.ID))
		w.WriteRaw(body)
		rec := w.Finish(true)
		for _, m := range d.Registry.LevelMembers(sess.Level) {
			if m == sess {
				continue
			}
			m.Send(rec)
		}
		return true
	}
}

// HandleThrowCarried implements PLI_THROWCARRIED: like the generic
// level-forward codes, the thrown-NPC payload is rebroadcast untouched to the
// sender's level, but the carried NPC's id is also recorded on the
// session so other session-scoped logic (e.g. a later pickup attempt)
// can tell what, if anything, this player is mid-throw of.
func HandleThrowCarried(d *Deps) protocol.HandlerFunc {
	return func(s any, r *protocol.Reader) bool {
		sess := s.(*session.Session)
		npcID := r.ReadGInt4()
		rest := r.ReadRaw(r.Remaining())

		sess.CarriedNPCID.Store(int64(npcID))
		sess.ThrowCarried.Store(true)

		if sess.Level == "" {
			return true
		}
		w := protocol.NewWriter(protocol.PLO_BOARDPACKET, sess.Version.Codepage)
		w.WriteGInt4(uint32(sess.ID))
		w.WriteGInt4(npcID)
		w.WriteRaw(rest)
		rec := w.Finish(true)
		for _, m := range d.Registry.LevelMembers(sess.Level) {
			if m == sess {
				continue
			}
			m.Send(rec)
		}
		return true
	}
}

// HandleNoOp acknowledges receipt of an admin/scripting-console code this
// core doesn't implement server-side behavior for (e.g. filebrowser
// traversal, NC class/weapon/level-list management) without taking any
// action — keeping the session legal and counted rather than tripping the
// invalid-packet threshold for every retrieved-but-unimplemented RC/NC
// console feature (§1 Non-goals: tooling UIs for these are out of scope).
func HandleNoOp(d *Deps) protocol.HandlerFunc {
	return func(s any, r *protocol.Reader) bool {
		return true
	}
}
