package handler

import (
	"time"

	"go.uber.org/zap"

	"github.com/gs2core/server/internal/property"
	"github.com/gs2core/server/internal/protocol"
	"github.com/gs2core/server/internal/session"
)

// HandlePlayerProps implements PLI_PLAYERPROPS (§4.6 setProps, the player
// path): parse the id||bytes stream with the player-write gate enforced,
// commit, and forward the changed subset to the rest of the level.
func HandlePlayerProps(d *Deps) protocol.HandlerFunc {
	return func(s any, r *protocol.Reader) bool {
		sess := s.(*session.Session)
		opts := property.SetPropsOptions{SetByPlayer: true, Forward: true}
		changed := property.SetProps(r, opts, func(id property.ID, raw []byte) bool {
			return commitProp(d, sess, id, raw)
		})
		if len(changed) > 0 {
			broadcastProps(d, sess, changed, false)
		}
		return true
	}
}

// HandleRCPlayerPropsSet implements PLI_RC_PLAYERPROPSSET (§4.6
// setPropsRC): bypasses the player-write gate and records which RC
// operator made the edit.
func HandleRCPlayerPropsSet(d *Deps) protocol.HandlerFunc {
	return func(s any, r *protocol.Reader) bool {
		operator := s.(*session.Session)
		targetID := r.ReadGInt4()
		target, ok := d.Registry.Get(uint64(targetID))
		if !ok {
			return true
		}
		opts := property.SetPropsOptions{SetByPlayer: false, Forward: true}
		changed := property.SetProps(r, opts, func(id property.ID, raw []byte) bool {
			return target.SetProp(byte(id), raw)
		})
		d.Log.Info("RC setprops",
			zap.Uint64("operator", operator.ID), zap.String("operator_account", operator.Auth.Account),
			zap.Uint64("target", target.ID), zap.Int("changed", len(changed)))
		if len(changed) > 0 {
			broadcastProps(d, target, changed, false)
		}
		return true
	}
}

// HandleRCPlayerPropsGet implements PLI_RC_PLAYERPROPSGET: send every
// property the registry has recorded for the named target back to the
// requesting RC.
func HandleRCPlayerPropsGet(d *Deps) protocol.HandlerFunc {
	return func(s any, r *protocol.Reader) bool {
		operator := s.(*session.Session)
		targetID := r.ReadGInt4()
		target, ok := d.Registry.Get(uint64(targetID))
		if !ok {
			operator.Send(buildServerText(operator.Version.Codepage, "no such player"))
			return true
		}
		w := protocol.NewWriter(protocol.PLO_PLAYERPROPS, operator.Version.Codepage)
		w.WriteGInt4(uint32(target.ID))
		property.GetProps(w, property.AllIDs(), func(id property.ID) []byte { return target.Prop(byte(id)) })
		operator.Send(w.Finish(true))
		return true
	}
}

// commitProp applies a property's write-gating clamp (§4.6) and commits
// it to the session, returning whether the stored value changed. Special
// handling for nickname (guild-suffix split, gag/lock checks) and chat
// (sanitize + command dispatch) lives here rather than in property.SetProps
// itself, which stays collaborator-free per the Design Notes.
func commitProp(d *Deps, sess *session.Session, id property.ID, raw []byte) bool {
	spec, ok := property.Table[id]
	if !ok {
		return false
	}

	switch id {
	case property.PropNickname:
		name, guild, ok := property.SetNick(string(raw), property.SetNickOptions{
			GagUntil:   sess.GagUntil.Load(),
			NickLocked: sess.NickLocked.Load(),
			Now:        time.Now().Unix(),
		})
		if !ok {
			return false
		}
		changed := sess.SetProp(byte(property.PropNickname), []byte(name))
		if guild != "" {
			sess.SetProp(byte(property.PropGuild), []byte(guild))
		}
		sess.LastNick.Store(time.Now().UnixNano())
		return changed

	case property.PropChat:
		clean := property.SanitizeChat(string(raw))
		sess.LastChat.Store(time.Now().UnixNano())
		if cmd, ok := property.ProcessChat(clean); ok {
			handleChatCommand(d, sess, cmd)
		}
		return sess.SetProp(byte(id), []byte(clean))

	case property.PropHearts:
		if spec.Gate == property.PlayerWritableIfPlausible && len(raw) == 1 {
			if maxRaw := sess.Prop(byte(property.PropMaxHearts)); len(maxRaw) == 1 && raw[0] > maxRaw[0] {
				raw = maxRaw
			}
		}
	}

	return sess.SetProp(byte(id), raw)
}

// broadcastProps encodes one PLO_OTHERPLPROPS record for the
// LevelBroadcast/GlobalBroadcast subset of ids and fans it out to sess's
// level, optionally echoing the same record to sess itself
// (options.forwardSelf, §4.6).
func broadcastProps(d *Deps, sess *session.Session, ids []property.ID, forwardSelf bool) {
	var forwardable []property.ID
	for _, id := range ids {
		spec, ok := property.Table[id]
		if !ok {
			continue
		}
		if spec.Forward == property.LevelBroadcast || spec.Forward == property.GlobalBroadcast {
			forwardable = append(forwardable, id)
		}
	}
	if len(forwardable) == 0 {
		return
	}

	w := protocol.NewWriter(protocol.PLO_OTHERPLPROPS, sess.Version.Codepage)
	w.WriteGInt4(uint32(sess.ID))
	property.GetProps(w, forwardable, func(id property.ID) []byte { return sess.Prop(byte(id)) })
	rec := w.Finish(true)

	if sess.Level != "" {
		for _, member := range d.Registry.LevelMembers(sess.Level) {
			if member == sess {
				continue
			}
			member.Send(rec)
		}
	}
	if forwardSelf {
		sess.Send(rec)
	}
}
