package protocol

// Inbound code table (§6 Wire protocol). Values are assigned in the same
// order the original TPlayer.h declares its msgPLI_* handlers; the original
// header never lists the numeric wire values (they live in a sibling
// IEnums.h that was not part of the retrieved source), so the sequence
// below is this implementation's own assignment, kept stable for the life
// of the server.
const (
	PLI_NULL byte = iota
	PLI_LOGIN
	PLI_LEVELWARP
	PLI_BOARDMODIFY
	PLI_REQUESTUPDATEBOARD
	PLI_PLAYERPROPS
	PLI_NPCPROPS
	PLI_BOMBADD
	PLI_BOMBDEL
	PLI_TOALL
	PLI_HORSEADD
	PLI_HORSEDEL
	PLI_ARROWADD
	PLI_FIRESPY
	PLI_THROWCARRIED
	PLI_ITEMADD
	PLI_ITEMDEL
	PLI_CLAIMPKER
	PLI_BADDYPROPS
	PLI_BADDYHURT
	PLI_BADDYADD
	PLI_FLAGSET
	PLI_FLAGDEL
	PLI_OPENCHEST
	PLI_PUTNPC
	PLI_NPCDEL
	PLI_WANTFILE
	PLI_SHOWIMG
	PLI_HURTPLAYER
	PLI_EXPLOSION
	PLI_PRIVATEMESSAGE
	PLI_NPCWEAPONDEL
	PLI_PACKETCOUNT
	PLI_WEAPONADD
	PLI_UPDATEFILE
	PLI_ADJACENTLEVEL
	PLI_HITOBJECTS
	PLI_LANGUAGE
	PLI_TRIGGERACTION
	PLI_MAPINFO
	PLI_SHOOT
	PLI_SHOOT2
	PLI_SERVERWARP
	PLI_PROCESSLIST
	PLI_UNKNOWN46
	PLI_VERIFYWANTSEND
	PLI_UPDATECLASS
	PLI_RAWDATA
	PLI_RC_SERVEROPTIONSGET
	PLI_RC_SERVEROPTIONSSET
	PLI_RC_FOLDERCONFIGGET
	PLI_RC_FOLDERCONFIGSET
	PLI_RC_RESPAWNSET
	PLI_RC_HORSELIFESET
	PLI_RC_APINCREMENTSET
	PLI_RC_BADDYRESPAWNSET
	PLI_RC_PLAYERPROPSGET
	PLI_RC_PLAYERPROPSSET
	PLI_RC_DISCONNECTPLAYER
	PLI_RC_UPDATELEVELS
	PLI_RC_ADMINMESSAGE
	PLI_RC_PRIVADMINMESSAGE
	PLI_RC_LISTRCS
	PLI_RC_DISCONNECTRC
	PLI_RC_APPLYREASON
	PLI_RC_SERVERFLAGSGET
	PLI_RC_SERVERFLAGSSET
	PLI_RC_ACCOUNTADD
	PLI_RC_ACCOUNTDEL
	PLI_RC_ACCOUNTLISTGET
	PLI_RC_PLAYERPROPSGET2
	PLI_RC_PLAYERPROPSGET3
	PLI_RC_PLAYERPROPSRESET
	PLI_RC_PLAYERPROPSSET2
	PLI_RC_ACCOUNTGET
	PLI_RC_ACCOUNTSET
	PLI_RC_CHAT
	PLI_PROFILEGET
	PLI_PROFILESET
	PLI_RC_WARPPLAYER
	PLI_RC_PLAYERRIGHTSGET
	PLI_RC_PLAYERRIGHTSSET
	PLI_RC_PLAYERCOMMENTSGET
	PLI_RC_PLAYERCOMMENTSSET
	PLI_RC_PLAYERBANGET
	PLI_RC_PLAYERBANSET
	PLI_RC_FILEBROWSER_START
	PLI_RC_FILEBROWSER_CD
	PLI_RC_FILEBROWSER_END
	PLI_RC_FILEBROWSER_DOWN
	PLI_RC_FILEBROWSER_UP
	PLI_NPCSERVERQUERY
	PLI_RC_FILEBROWSER_MOVE
	PLI_RC_FILEBROWSER_DELETE
	PLI_RC_FILEBROWSER_RENAME
	PLI_RC_LARGEFILESTART
	PLI_RC_LARGEFILEEND
	PLI_RC_FOLDERDELETE
	PLI_NC_NPCGET
	PLI_NC_NPCDELETE
	PLI_NC_NPCRESET
	PLI_NC_NPCSCRIPTGET
	PLI_NC_NPCWARP
	PLI_NC_NPCFLAGSGET
	PLI_NC_NPCSCRIPTSET
	PLI_NC_NPCFLAGSSET
	PLI_NC_NPCADD
	PLI_NC_CLASSEDIT
	PLI_NC_CLASSADD
	PLI_NC_LOCALNPCSGET
	PLI_NC_WEAPONLISTGET
	PLI_NC_WEAPONGET
	PLI_NC_WEAPONADD
	PLI_NC_WEAPONDELETE
	PLI_NC_CLASSDELETE
	PLI_NC_LEVELLISTGET
	PLI_REQUESTTEXT
	PLI_SENDTEXT
	PLI_UPDATEGANI
	PLI_UPDATESCRIPT
	PLI_UPDATEPACKAGEREQUESTFILE
	PLI_RC_UNKNOWN162
)

// Outbound code table (server -> peer). Not enumerated in the distilled
// spec ("codes not enumerated here" — §6); this is the outbound set this
// implementation defines, and the handlers emit only some of these codes.
const (
	PLO_SIGNATURE byte = iota
	PLO_DISCMESSAGE
	PLO_PLAYERPROPS
	PLO_OTHERPLPROPS
	PLO_LEVELNAME
	PLO_BOARDPACKET
	PLO_LEVELSIGN
	PLO_LEVELLINK
	PLO_NPCPROPS
	PLO_BADDYPROPS
	PLO_LEVELCHEST
	PLO_REMOVEPLAYER
	PLO_ADDPLAYER
	PLO_WARPFAILED
	PLO_FILESENDFAILED
	PLO_FILEUPTODATE
	PLO_LARGEFILESTART
	PLO_LARGEFILEEND
	PLO_RAWDATA
	PLO_FILESTARTTRANSFER
	PLO_FLAGSET
	PLO_NEWWORLDTIME
	PLO_DEFAULTWEAPON
	PLO_HASNPCSERVER
	PLO_NPCWEAPONADD
	PLO_NPCWEAPONDEL
	PLO_TOALL
	PLO_SERVERTEXT
	PLO_UNKNOWN192
	PLO_NC_CONTROL
	PLO_NPCSERVERATTACH
	PLO_PRIVATEMESSAGE
	PLO_PUSHAWAY
	PLO_SERVERFLAGS
	PLO_STATUS
	PLO_FULLSTOP
	PLO_NICKNAME
)

// raw-follows markers consumed verbatim for the announced byte count (§4.1).
const (
	PLI_RAWDATA_IS_NPCADD = PLI_NC_NPCADD
)

