package handler

import (
	"go.uber.org/zap"

	"github.com/gs2core/server/internal/protocol"
)

// rates are per-minute caps for chatty codes a malicious or buggy client
// could otherwise flood the dispatcher with (§4.5 "per-code rate
// limiting"). Codes not listed here are unlimited.
const (
	rateProps   = 600 // player movement/prop updates, multiple per second
	rateChat    = 30
	ratePM      = 20
	rateWarp    = 20
	rateFile    = 60
	ratePacket  = 120
	rateForward = 300
	rateRC      = 60
)

// Build constructs the complete dispatcher table (§4.5 Packet Dispatcher),
// binding every inbound code this implementation understands to its
// legality mask and handler. It is the single place that decides which
// peer classes and session phases may send which code — createFunctions'
// role in the teacher's GServer.
func Build(d *Deps, log *zap.Logger) *protocol.Registry {
	reg := protocol.NewRegistry(log)

	// Handshake: legal only in Await, from any not-yet-classified peer.
	reg.Register(protocol.PLI_LOGIN, protocol.Any, protocol.PhasesAwait, 0, HandleLogin(d))

	// Client gameplay, legal once Loaded.
	reg.Register(protocol.PLI_LEVELWARP, protocol.AnyClient, protocol.PhasesLoaded, rateWarp, HandleLevelWarp(d))
	reg.Register(protocol.PLI_ADJACENTLEVEL, protocol.AnyClient, protocol.PhasesLoaded, rateWarp, HandleAdjacentLevel(d))
	reg.Register(protocol.PLI_PLAYERPROPS, protocol.AnyClient, protocol.PhasesLoaded, rateProps, HandlePlayerProps(d))
	reg.Register(protocol.PLI_TOALL, protocol.AnyClient, protocol.PhasesLoaded, rateChat, HandleToAll(d))
	reg.Register(protocol.PLI_PRIVATEMESSAGE, protocol.AnyClient|protocol.AnyNC, protocol.PhasesLoaded, ratePM, HandlePrivateMessage(d))
	reg.Register(protocol.PLI_WANTFILE, protocol.AnyClient, protocol.PhasesAuthenticated|protocol.PhasesLoaded, rateFile, HandleWantFile(d))
	reg.Register(protocol.PLI_PACKETCOUNT, protocol.AnyClient, protocol.PhasesActive, ratePacket, HandlePacketCount(d))

	// Object/board-edit family: payload this core doesn't interpret, just
	// rebroadcast to the sender's level (§1 Non-goals: level geometry
	// parsing). Output code reuses the nearest
	// existing PLO_* constant since the distilled protocol table didn't
	// retrieve a dedicated outbound code per edit kind.
	forward := []struct {
		in  byte
		out byte
	}{
		{protocol.PLI_BOARDMODIFY, protocol.PLO_BOARDPACKET},
		{protocol.PLI_BOMBADD, protocol.PLO_BOARDPACKET},
		{protocol.PLI_BOMBDEL, protocol.PLO_BOARDPACKET},
		{protocol.PLI_HORSEADD, protocol.PLO_BOARDPACKET},
		{protocol.PLI_HORSEDEL, protocol.PLO_BOARDPACKET},
		{protocol.PLI_ARROWADD, protocol.PLO_BOARDPACKET},
		{protocol.PLI_FIRESPY, protocol.PLO_BOARDPACKET},
		{protocol.PLI_ITEMADD, protocol.PLO_BOARDPACKET},
		{protocol.PLI_ITEMDEL, protocol.PLO_BOARDPACKET},
		{protocol.PLI_CLAIMPKER, protocol.PLO_BOARDPACKET},
		{protocol.PLI_BADDYPROPS, protocol.PLO_BADDYPROPS},
		{protocol.PLI_BADDYHURT, protocol.PLO_BADDYPROPS},
		{protocol.PLI_BADDYADD, protocol.PLO_BADDYPROPS},
		{protocol.PLI_FLAGSET, protocol.PLO_FLAGSET},
		{protocol.PLI_FLAGDEL, protocol.PLO_FLAGSET},
		{protocol.PLI_OPENCHEST, protocol.PLO_LEVELCHEST},
		{protocol.PLI_PUTNPC, protocol.PLO_NPCPROPS},
		{protocol.PLI_NPCDEL, protocol.PLO_NPCPROPS},
		{protocol.PLI_NPCPROPS, protocol.PLO_NPCPROPS},
		{protocol.PLI_SHOWIMG, protocol.PLO_BOARDPACKET},
		{protocol.PLI_HURTPLAYER, protocol.PLO_BOARDPACKET},
		{protocol.PLI_EXPLOSION, protocol.PLO_BOARDPACKET},
		{protocol.PLI_NPCWEAPONDEL, protocol.PLO_NPCWEAPONDEL},
		{protocol.PLI_WEAPONADD, protocol.PLO_NPCWEAPONADD},
		{protocol.PLI_HITOBJECTS, protocol.PLO_BOARDPACKET},
		{protocol.PLI_TRIGGERACTION, protocol.PLO_BOARDPACKET},
		{protocol.PLI_MAPINFO, protocol.PLO_BOARDPACKET},
		{protocol.PLI_SHOOT, protocol.PLO_BOARDPACKET},
		{protocol.PLI_SHOOT2, protocol.PLO_BOARDPACKET},
		{protocol.PLI_UPDATEGANI, protocol.PLO_BOARDPACKET},
		{protocol.PLI_UPDATESCRIPT, protocol.PLO_BOARDPACKET},
	}
	for _, f := range forward {
		reg.Register(f.in, protocol.AnyClient, protocol.PhasesLoaded, rateForward, newForwardToLevel(d, f.out))
	}
	reg.Register(protocol.PLI_THROWCARRIED, protocol.AnyClient, protocol.PhasesLoaded, rateForward, HandleThrowCarried(d))

	// Legal from client sessions any time past the handshake and
	// acknowledged as no-ops (server-warp, language, process list and the
	// remaining miscellaneous client codes without a concrete server-side
	// effect in this core); nothing is rebroadcast.
	miscActive := []byte{
		protocol.PLI_REQUESTUPDATEBOARD, protocol.PLI_SERVERWARP, protocol.PLI_LANGUAGE,
		protocol.PLI_PROCESSLIST, protocol.PLI_VERIFYWANTSEND, protocol.PLI_UPDATECLASS,
		protocol.PLI_UPDATEFILE, protocol.PLI_REQUESTTEXT, protocol.PLI_SENDTEXT,
		protocol.PLI_UPDATEPACKAGEREQUESTFILE, protocol.PLI_PROFILEGET, protocol.PLI_PROFILESET,
	}
	for _, code := range miscActive {
		reg.Register(code, protocol.AnyClient, protocol.PhasesActive, rateForward, HandleNoOp(d))
	}

	// RC console.
	reg.Register(protocol.PLI_RC_PLAYERPROPSSET, protocol.AnyRC, protocol.PhasesLoaded, rateRC, HandleRCPlayerPropsSet(d))
	reg.Register(protocol.PLI_RC_PLAYERPROPSGET, protocol.AnyRC, protocol.PhasesLoaded, rateRC, HandleRCPlayerPropsGet(d))
	reg.Register(protocol.PLI_RC_DISCONNECTPLAYER, protocol.AnyRC, protocol.PhasesLoaded, rateRC, HandleRCDisconnectPlayer(d))
	reg.Register(protocol.PLI_RC_LISTRCS, protocol.AnyRC, protocol.PhasesLoaded, rateRC, HandleRCListRCs(d))
	reg.Register(protocol.PLI_RC_CHAT, protocol.AnyRC, protocol.PhasesLoaded, rateChat, HandleRCChat(d))
	reg.Register(protocol.PLI_RC_ADMINMESSAGE, protocol.AnyRC, protocol.PhasesLoaded, rateChat, HandleRCChat(d))
	reg.Register(protocol.PLI_RC_PRIVADMINMESSAGE, protocol.AnyRC, protocol.PhasesLoaded, ratePM, HandlePrivateMessage(d))

	// RC console codes retrieved but not given server-side behavior by this
	// core (server/folder/respawn/ap/baddy config, account CRUD, rights,
	// comments, bans, filebrowser, large-file transfer) — acknowledged as
	// no-ops rather than left unregistered, since unregistered codes count
	// against the invalid-packet threshold (§1 Non-goals: admin tooling UIs).
	rcNoOp := []byte{
		protocol.PLI_RC_SERVEROPTIONSGET, protocol.PLI_RC_SERVEROPTIONSSET,
		protocol.PLI_RC_FOLDERCONFIGGET, protocol.PLI_RC_FOLDERCONFIGSET,
		protocol.PLI_RC_RESPAWNSET, protocol.PLI_RC_HORSELIFESET, protocol.PLI_RC_APINCREMENTSET,
		protocol.PLI_RC_BADDYRESPAWNSET, protocol.PLI_RC_UPDATELEVELS, protocol.PLI_RC_DISCONNECTRC,
		protocol.PLI_RC_APPLYREASON, protocol.PLI_RC_SERVERFLAGSGET, protocol.PLI_RC_SERVERFLAGSSET,
		protocol.PLI_RC_ACCOUNTADD, protocol.PLI_RC_ACCOUNTDEL, protocol.PLI_RC_ACCOUNTLISTGET,
		protocol.PLI_RC_PLAYERPROPSGET2, protocol.PLI_RC_PLAYERPROPSGET3, protocol.PLI_RC_PLAYERPROPSRESET,
		protocol.PLI_RC_PLAYERPROPSSET2, protocol.PLI_RC_ACCOUNTGET, protocol.PLI_RC_ACCOUNTSET,
		protocol.PLI_RC_WARPPLAYER, protocol.PLI_RC_PLAYERRIGHTSGET, protocol.PLI_RC_PLAYERRIGHTSSET,
		protocol.PLI_RC_PLAYERCOMMENTSGET, protocol.PLI_RC_PLAYERCOMMENTSSET,
		protocol.PLI_RC_PLAYERBANGET, protocol.PLI_RC_PLAYERBANSET,
		protocol.PLI_RC_FILEBROWSER_CD,
		protocol.PLI_RC_FILEBROWSER_DOWN, protocol.PLI_RC_FILEBROWSER_UP, protocol.PLI_RC_FILEBROWSER_MOVE,
		protocol.PLI_RC_FILEBROWSER_DELETE, protocol.PLI_RC_FILEBROWSER_RENAME,
		protocol.PLI_RC_LARGEFILESTART, protocol.PLI_RC_LARGEFILEEND, protocol.PLI_RC_FOLDERDELETE,
		protocol.PLI_RC_UNKNOWN162, protocol.PLI_UNKNOWN46,
	}
	for _, code := range rcNoOp {
		reg.Register(code, protocol.AnyRC, protocol.PhasesLoaded, rateRC, HandleNoOp(d))
	}
	reg.Register(protocol.PLI_RC_FILEBROWSER_START, protocol.AnyRC, protocol.PhasesLoaded, rateRC, HandleFileBrowserStart(d))
	reg.Register(protocol.PLI_RC_FILEBROWSER_END, protocol.AnyRC, protocol.PhasesLoaded, rateRC, HandleFileBrowserEnd(d))

	// NC scripting-host peer.
	reg.Register(protocol.PLI_NC_NPCSCRIPTSET, protocol.AnyNC, protocol.PhasesLoaded, rateRC, HandleNCScriptSet(d))
	reg.Register(protocol.PLI_NC_NPCSCRIPTGET, protocol.AnyNC, protocol.PhasesLoaded, rateRC, HandleNCScriptGet(d))

	ncNoOp := []byte{
		protocol.PLI_NC_NPCGET, protocol.PLI_NC_NPCDELETE, protocol.PLI_NC_NPCRESET,
		protocol.PLI_NC_NPCWARP, protocol.PLI_NC_NPCFLAGSGET, protocol.PLI_NC_NPCFLAGSSET,
		protocol.PLI_NC_CLASSEDIT, protocol.PLI_NC_CLASSADD,
		protocol.PLI_NC_LOCALNPCSGET, protocol.PLI_NC_WEAPONLISTGET, protocol.PLI_NC_WEAPONGET,
		protocol.PLI_NC_WEAPONADD, protocol.PLI_NC_WEAPONDELETE, protocol.PLI_NC_CLASSDELETE,
		protocol.PLI_NC_LEVELLISTGET, protocol.PLI_NPCSERVERQUERY,
	}
	for _, code := range ncNoOp {
		reg.Register(code, protocol.AnyNC|protocol.AnyNPCServer, protocol.PhasesLoaded, rateRC, HandleNoOp(d))
	}

	// Raw-follows announcers: the handler records the announced byte count
	// and arms the session's RecordSplitter; the main loop then routes the
	// very next extracted record as raw bytes instead of through Dispatch
	// (§4.1 "raw follows").
	reg.Register(protocol.PLI_RAWDATA, protocol.Any, protocol.PhasesActive, 0, HandleRawAnnounce(d))
	reg.Register(protocol.PLI_NC_NPCADD, protocol.AnyNC|protocol.AnyNPCServer, protocol.PhasesLoaded, rateRC, HandleRawAnnounce(d))

	return reg
}
