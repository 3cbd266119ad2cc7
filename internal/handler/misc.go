package handler

import (
	"time"

	"go.uber.org/zap"

	"github.com/gs2core/server/internal/protocol"
	"github.com/gs2core/server/internal/scripting"
	"github.com/gs2core/server/internal/session"
)

// packetCountTolerance is how far the client's self-reported counter may
// drift from the server's observed count before it's treated as a
// desynchronized/cheating client (§4.5: "PLI_PACKETCOUNT... if
// desynchronized from the server's observed count beyond a tolerance,
// also terminates the session").
const packetCountTolerance = 64

// HandlePacketCount implements PLI_PACKETCOUNT.
func HandlePacketCount(d *Deps) protocol.HandlerFunc {
	return func(s any, r *protocol.Reader) bool {
		sess := s.(*session.Session)
		client := int64(r.ReadGInt4())
		observed := sess.PacketCount.Load()
		delta := client - observed
		if delta < 0 {
			delta = -delta
		}
		if delta > packetCountTolerance {
			d.Log.Warn("packet count desync, terminating",
				zap.Uint64("session", sess.ID), zap.Int64("client", client), zap.Int64("observed", observed))
			return false
		}
		return true
	}
}

// HandlePrivateMessage implements PLI_PRIVATEMESSAGE: deliver to a local
// session if the recipient is connected here, otherwise route through the
// external-peer table (§4.8 pmExternalPlayer).
func HandlePrivateMessage(d *Deps) protocol.HandlerFunc {
	return func(s any, r *protocol.Reader) bool {
		sess := s.(*session.Session)
		toAccount := r.ReadGString()
		message := r.ReadGString()
		sess.LastMessage.Store(time.Now().UnixNano())

		if target, ok := d.Registry.ByAccount(protocol.ClassClient, toAccount); ok {
			target.Send(buildPrivateMessage(target.Version.Codepage, sess.Auth.Nick, message))
			return true
		}

		// Not connected locally; try every peer server this registry
		// knows an external stand-in for (§4.8 External player).
		for _, peer := range d.Registry.ByClass(protocol.ClassNC, nil) {
			if _, ok := d.Registry.ExternalPeer(peer.Auth.Account, toAccount); ok {
				_ = d.Registry.PMExternalPlayer(peer.Auth.Account, toAccount, message,
					func(peerName, account, msg string) error {
						peer.Send(buildPrivateMessage(peer.Version.Codepage, sess.Auth.Nick+">"+account, msg))
						return nil
					})
				return true
			}
		}

		sess.Send(buildServerText(sess.Version.Codepage, "player not found: "+toAccount))
		return true
	}
}

// HandleRCDisconnectPlayer implements PLI_RC_DISCONNECTPLAYER.
func HandleRCDisconnectPlayer(d *Deps) protocol.HandlerFunc {
	return func(s any, r *protocol.Reader) bool {
		operator := s.(*session.Session)
		targetID := r.ReadGInt4()
		target, ok := d.Registry.Get(uint64(targetID))
		if !ok {
			return true
		}
		target.Send(buildDiscMessage(target.Version.Codepage, "disconnected by admin"))
		target.Close()
		d.Log.Info("RC disconnected player",
			zap.String("operator", operator.Auth.Account), zap.Uint64("target", target.ID))
		return true
	}
}

// HandleRCListRCs implements PLI_RC_LISTRCS: enumerate connected RC
// sessions. No non-iterable filter is passed to ByClass, so hidden admin
// sessions are listed too.
func HandleRCListRCs(d *Deps) protocol.HandlerFunc {
	return func(s any, r *protocol.Reader) bool {
		operator := s.(*session.Session)
		w := protocol.NewWriter(protocol.PLO_SERVERTEXT, operator.Version.Codepage)
		for _, rc := range d.Registry.ByClass(protocol.ClassRC, nil) {
			w.WriteGString(rc.Auth.Account)
		}
		operator.Send(w.Finish(true))
		return true
	}
}

// HandleRCChat implements PLI_RC_CHAT: admin broadcast to every loaded
// client session.
func HandleRCChat(d *Deps) protocol.HandlerFunc {
	return func(s any, r *protocol.Reader) bool {
		operator := s.(*session.Session)
		message := r.ReadGString()
		rec := buildServerText(operator.Version.Codepage, "[RC] "+operator.Auth.Account+": "+message)
		for _, c := range d.Registry.ByClass(protocol.ClassClient, nil) {
			c.Send(rec)
		}
		return true
	}
}

// HandleRawAnnounce implements the raw-announcer codes (PLI_RAWDATA,
// PLI_NC_NPCADD): it reads the announced byte count and arms the
// session's RecordSplitter so the next record the main loop extracts is
// delivered verbatim instead of newline-scanned (§4.1 "raw follows").
func HandleRawAnnounce(d *Deps) protocol.HandlerFunc {
	return func(s any, r *protocol.Reader) bool {
		sess := s.(*session.Session)
		n := int(r.ReadGInt4())
		sess.RawIncomingLen.Store(int32(n))
		sess.Splitter.ArmRawFollows(n)
		return true
	}
}

// HandleNCScriptSet implements PLI_NC_NPCSCRIPTSET: the NC peer submits new
// script source for an NPC; compilation is requested asynchronously since
// this is not on the level-load critical path (§12: the NC compile-request
// handler is the one caller of CompileScriptAsync).
func HandleNCScriptSet(d *Deps) protocol.HandlerFunc {
	return func(s any, r *protocol.Reader) bool {
		sess := s.(*session.Session)
		npcID := r.ReadGInt4()
		source := string(r.ReadToNewline())

		d.Scripts.CompileScriptAsync(source, func(art scripting.Artifact) {
			if art.Err != nil {
				sess.Send(buildServerText(sess.Version.Codepage, "compile failed"))
				return
			}
			w := protocol.NewWriter(protocol.PLO_NC_CONTROL, sess.Version.Codepage)
			w.WriteGInt4(npcID)
			sess.Send(w.Finish(true))
		})
		return true
	}
}

// HandleNCScriptGet implements PLI_NC_NPCSCRIPTGET: synchronous compile
// (or cache hit) on the caller's own goroutine, mirroring compileScript's
// default path (§4.3).
func HandleNCScriptGet(d *Deps) protocol.HandlerFunc {
	return func(s any, r *protocol.Reader) bool {
		sess := s.(*session.Session)
		npcID := r.ReadGInt4()
		source := string(r.ReadToNewline())

		d.Scripts.CompileScript(source, func(art scripting.Artifact) {
			w := protocol.NewWriter(protocol.PLO_NC_CONTROL, sess.Version.Codepage)
			w.WriteGInt4(npcID)
			if art.Err != nil {
				w.WriteGChar(1)
			} else {
				w.WriteGChar(0)
			}
			sess.Send(w.Finish(true))
		})
		return true
	}
}
