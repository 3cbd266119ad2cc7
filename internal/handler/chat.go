package handler

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gs2core/server/internal/property"
	"github.com/gs2core/server/internal/protocol"
	"github.com/gs2core/server/internal/session"
)

// HandleToAll implements PLI_TOALL: the free-text level chat line. It goes
// through the same SanitizeChat/ProcessChat pipeline as a setChat property
// edit (§4.6 Chat rule) and, when it isn't a recognized command, is
// broadcast verbatim to the sender's level.
func HandleToAll(d *Deps) protocol.HandlerFunc {
	return func(s any, r *protocol.Reader) bool {
		sess := s.(*session.Session)
		raw := string(r.ReadToNewline())
		clean := property.SanitizeChat(raw)
		sess.LastChat.Store(time.Now().UnixNano())
		sess.SetProp(byte(property.PropChat), []byte(clean))

		if cmd, ok := property.ProcessChat(clean); ok {
			handleChatCommand(d, sess, cmd)
			return true
		}

		w := protocol.NewWriter(protocol.PLO_TOALL, sess.Version.Codepage)
		w.WriteGInt4(uint32(sess.ID))
		w.WriteGString(clean)
		rec := w.Finish(true)
		if sess.Level != "" {
			for _, m := range d.Registry.LevelMembers(sess.Level) {
				if m == sess {
					continue
				}
				m.Send(rec)
			}
		}
		return true
	}
}

// handleChatCommand dispatches the small set of command prefixes
// ProcessChat recognizes (§4.6: "setnick, setgroup, trigger-action whose
// effects are handled server-side").
func handleChatCommand(d *Deps, sess *session.Session, cmd property.ChatCommand) {
	switch cmd.Name {
	case "setnick":
		commitProp(d, sess, property.PropNickname, []byte(strings.TrimSpace(cmd.Args)))
		broadcastProps(d, sess, []property.ID{property.PropNickname, property.PropGuild}, true)
	case "setgroup":
		sess.Group = strings.TrimSpace(cmd.Args)
		sess.SetProp(byte(property.PropGroup), []byte(sess.Group))
		broadcastProps(d, sess, []property.ID{property.PropGroup}, true)
	case "trigger":
		// Trigger-actions are forwarded to the scripting collaborator
		// (out of scope, §1 Non-goals: "the scripting language's own
		// semantics") — the core's job ends at recognizing the prefix.
		d.Log.Debug("trigger action", zap.String("account", sess.Auth.Account), zap.String("args", cmd.Args))
	}
}
