package handler

import (
	"github.com/gs2core/server/internal/presence"
	"github.com/gs2core/server/internal/protocol"
	"github.com/gs2core/server/internal/session"
)

// HandleLevelWarp implements PLI_LEVELWARP (§4.7 warp): level name + target
// (x, y), resolved atomically through presence.Warp, followed by the
// sendLevel cache decision.
func HandleLevelWarp(d *Deps) protocol.HandlerFunc {
	return func(s any, r *protocol.Reader) bool {
		sess := s.(*session.Session)
		x := r.ReadGChar()
		y := r.ReadGChar()
		levelName := r.ReadGString()

		result := presence.Warp(sess, levelName, x, y, d.Levels.Lookup, newRegistryOps(d.Registry))
		if !result.OK {
			sess.Send(buildWarpFailed(sess.Version.Codepage, levelName))
			return true
		}
		sendLevel(d, sess, result.Level, false)
		return true
	}
}

// HandleAdjacentLevel implements PLI_ADJACENTLEVEL: the client is asking
// about a level visible via a link but not its current one, so sendLevel
// is told fromAdjacent=true (§4.7: "send only the parts needed for the
// adjacency hint").
func HandleAdjacentLevel(d *Deps) protocol.HandlerFunc {
	return func(s any, r *protocol.Reader) bool {
		sess := s.(*session.Session)
		levelName := r.ReadGString()
		lvl, ok := d.Levels.Lookup(levelName)
		if !ok {
			sess.Send(buildWarpFailed(sess.Version.Codepage, levelName))
			return true
		}
		sendLevel(d, sess, lvl, true)
		return true
	}
}
