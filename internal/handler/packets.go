package handler

import (
	"github.com/gs2core/server/internal/protocol"
	"github.com/gs2core/server/internal/session"
)

// buildAddPlayer encodes the PLO_ADDPLAYER packet announcing sess's arrival
// to the rest of its level (§4.7 warp: "appends to its player-list,
// broadcasts arrival").
func buildAddPlayer(sess *session.Session) []byte {
	w := protocol.NewWriter(protocol.PLO_ADDPLAYER, sess.Version.Codepage)
	w.WriteGInt4(uint32(sess.ID))
	w.WriteGString(sess.Auth.Nick)
	return w.Finish(true)
}

// buildRemovePlayer encodes the PLO_REMOVEPLAYER packet announcing sess's
// departure from its previous level.
func buildRemovePlayer(sess *session.Session) []byte {
	w := protocol.NewWriter(protocol.PLO_REMOVEPLAYER, sess.Version.Codepage)
	w.WriteGInt4(uint32(sess.ID))
	return w.Finish(true)
}

// buildDiscMessage encodes the advisory sent to a session about to be
// terminated (§8 scenario 2: "disconnect advisory").
func buildDiscMessage(cp protocol.Codepage, reason string) []byte {
	w := protocol.NewWriter(protocol.PLO_DISCMESSAGE, cp)
	w.WriteGString(reason)
	return w.Finish(true)
}

// buildWarpFailed encodes the typed error sent when a warp target doesn't
// resolve (§7 Resource miss: "Send a typed error packet to the peer;
// session continues").
func buildWarpFailed(cp protocol.Codepage, levelName string) []byte {
	w := protocol.NewWriter(protocol.PLO_WARPFAILED, cp)
	w.WriteGString(levelName)
	return w.Finish(true)
}

// buildLevelName encodes the "you are now on level X" header that precedes
// a full level send, or stands alone as the cached-reuse marker when
// presence.DecideSendLevel says the client already has this version.
func buildLevelName(cp protocol.Codepage, levelName string) []byte {
	w := protocol.NewWriter(protocol.PLO_LEVELNAME, cp)
	w.WriteGString(levelName)
	return w.Finish(true)
}

// buildFileUpToDate answers a wantfile request when the client's cached
// copy is already current.
func buildFileUpToDate(cp protocol.Codepage, name string) []byte {
	w := protocol.NewWriter(protocol.PLO_FILEUPTODATE, cp)
	w.WriteGString(name)
	return w.Finish(true)
}

// buildFileSendFailed answers a wantfile request for a file the catalogue
// doesn't have (§7 Resource miss).
func buildFileSendFailed(cp protocol.Codepage, name string) []byte {
	w := protocol.NewWriter(protocol.PLO_FILESENDFAILED, cp)
	w.WriteGString(name)
	return w.Finish(true)
}

// buildServerFlags sends the handshake's server-flags packet — sent once,
// right after authentication (§4.4 Authenticated).
func buildServerFlags(cp protocol.Codepage, flags byte) []byte {
	w := protocol.NewWriter(protocol.PLO_SERVERFLAGS, cp)
	w.WriteGChar(flags)
	return w.Finish(true)
}

// buildServerText sends a one-line advisory (policy rejects, RC chat, etc).
func buildServerText(cp protocol.Codepage, text string) []byte {
	w := protocol.NewWriter(protocol.PLO_SERVERTEXT, cp)
	w.WriteGString(text)
	return w.Finish(true)
}

// buildPrivateMessage forwards a PM to its recipient.
func buildPrivateMessage(cp protocol.Codepage, fromNick, message string) []byte {
	w := protocol.NewWriter(protocol.PLO_PRIVATEMESSAGE, cp)
	w.WriteGString(fromNick)
	w.WriteGString(message)
	return w.Finish(true)
}
