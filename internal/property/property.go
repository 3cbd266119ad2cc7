// Package property implements the canonical player-property set (C6): a
// fixed enumerated catalogue of 49 slots, each with a wire width, a
// write-gating policy, and a forwarding class. Grounded on TPlayer.h's
// PLSETPROPS_* flags (original_source) for the setProps options bits, and
// on the spec's Data Model for the property catalogue itself — the
// original's numeric property IDs live in a sibling header not present in
// the retrieved source, so this implementation assigns its own stable
// sequence.
package property

import "github.com/gs2core/server/internal/protocol"

// ID identifies one property slot.
type ID byte

// Gate is a property's write-gating policy (§4.6).
type Gate int

const (
	ServerOnly Gate = iota
	PlayerWritableIfPlausible
	PlayerWritable
)

// Forward is a property's forwarding class once committed (§4.6).
type Forward int

const (
	Local Forward = iota
	LevelBroadcast
	GlobalBroadcast
	Self
)

// Width describes how a property's value is encoded on the wire.
type Width int

const (
	WidthChar  Width = iota // 1 byte
	WidthShort              // 2 bytes
	WidthInt                // 3 bytes
	WidthInt4               // 4 bytes
	WidthInt5               // 5 bytes
	WidthString             // GChar-length-prefixed string
)

// Spec is the fixed per-property descriptor: width, gate, forwarding.
type Spec struct {
	ID       ID
	Name     string
	Width    Width
	Gate     Gate
	Forward  Forward
}

// The 49-slot catalogue (§3 Data Model). Order is this implementation's
// own assignment (no upstream numeric table was retrieved); it must stay
// stable for the server's lifetime once clients are built against it.
const (
	PropNickname ID = iota
	PropX
	PropY
	PropZ
	PropSprite
	PropAni
	PropHeadImage
	PropBodyImage
	PropShieldImage
	PropSwordImage
	PropSwordPower
	PropShieldPower
	PropGloveImage
	PropGlovePower
	PropChat
	PropHearts
	PropMaxHearts
	PropArrows
	PropBombs
	PropRupees
	PropSwimGani
	PropStatus
	PropTailImage
	PropHorseImage
	PropAPCounter
	PropMagicPoints
	PropGroup
	PropGuild
	PropCommunityName
	PropPlatform
	PropVersionString
	PropColorEffect
	PropCarrySprite
	PropCarryNPCID
	PropMP
	PropAlignment
	PropKilledCount
	PropDeathCount
	PropOnlineSeconds
	PropLanguage
	PropAmmoImage
	PropGani2
	PropPlayerID
	PropAccountName
	PropUnknown1
	PropUnknown2
	PropUnknown3
	PropUnknown4
	PropUnknown5
	propCount
)

// Table maps each registered ID to its Spec. Looking up an ID with no
// entry (including any ID >= propCount) returns ok=false.
var Table = buildTable()

// AllIDs returns every registered property ID in ascending order, for
// callers (e.g. the initial post-login property broadcast) that want the
// full catalogue rather than a hand-picked subset.
func AllIDs() []ID {
	ids := make([]ID, 0, propCount)
	for id := ID(0); id < propCount; id++ {
		if _, ok := Table[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func buildTable() map[ID]Spec {
	t := make(map[ID]Spec, propCount)
	add := func(id ID, name string, w Width, g Gate, f Forward) {
		t[id] = Spec{ID: id, Name: name, Width: w, Gate: g, Forward: f}
	}

	add(PropNickname, "nickname", WidthString, PlayerWritableIfPlausible, LevelBroadcast)
	add(PropX, "x", WidthChar, PlayerWritableIfPlausible, LevelBroadcast)
	add(PropY, "y", WidthChar, PlayerWritableIfPlausible, LevelBroadcast)
	add(PropZ, "z", WidthChar, PlayerWritableIfPlausible, LevelBroadcast)
	add(PropSprite, "sprite", WidthChar, PlayerWritable, LevelBroadcast)
	add(PropAni, "ani", WidthString, PlayerWritable, LevelBroadcast)
	add(PropHeadImage, "head_image", WidthString, PlayerWritable, LevelBroadcast)
	add(PropBodyImage, "body_image", WidthString, PlayerWritable, LevelBroadcast)
	add(PropShieldImage, "shield_image", WidthString, PlayerWritable, LevelBroadcast)
	add(PropSwordImage, "sword_image", WidthString, PlayerWritable, LevelBroadcast)
	add(PropSwordPower, "sword_power", WidthChar, ServerOnly, LevelBroadcast)
	add(PropShieldPower, "shield_power", WidthChar, ServerOnly, LevelBroadcast)
	add(PropGloveImage, "glove_image", WidthString, PlayerWritable, LevelBroadcast)
	add(PropGlovePower, "glove_power", WidthChar, ServerOnly, LevelBroadcast)
	add(PropChat, "chat", WidthString, PlayerWritableIfPlausible, LevelBroadcast)
	add(PropHearts, "hearts", WidthChar, PlayerWritableIfPlausible, LevelBroadcast)
	add(PropMaxHearts, "max_hearts", WidthChar, ServerOnly, LevelBroadcast)
	add(PropArrows, "arrows", WidthChar, ServerOnly, Self)
	add(PropBombs, "bombs", WidthChar, ServerOnly, Self)
	add(PropRupees, "rupees", WidthInt4, ServerOnly, Self)
	add(PropSwimGani, "swim_gani", WidthChar, PlayerWritable, LevelBroadcast)
	add(PropStatus, "status", WidthChar, PlayerWritableIfPlausible, LevelBroadcast)
	add(PropTailImage, "tail_image", WidthString, PlayerWritable, LevelBroadcast)
	add(PropHorseImage, "horse_image", WidthString, PlayerWritable, LevelBroadcast)
	add(PropAPCounter, "ap_counter", WidthShort, ServerOnly, Self)
	add(PropMagicPoints, "magic_points", WidthChar, ServerOnly, Self)
	add(PropGroup, "group", WidthString, ServerOnly, GlobalBroadcast)
	add(PropGuild, "guild", WidthString, ServerOnly, LevelBroadcast)
	add(PropCommunityName, "community_name", WidthString, ServerOnly, GlobalBroadcast)
	add(PropPlatform, "platform", WidthString, ServerOnly, Self)
	add(PropVersionString, "version_string", WidthString, ServerOnly, Self)
	add(PropColorEffect, "color_effect", WidthChar, PlayerWritable, LevelBroadcast)
	add(PropCarrySprite, "carry_sprite", WidthChar, PlayerWritable, LevelBroadcast)
	add(PropCarryNPCID, "carry_npc_id", WidthInt4, ServerOnly, Local)
	add(PropMP, "mp", WidthChar, PlayerWritableIfPlausible, Self)
	add(PropAlignment, "alignment", WidthShort, ServerOnly, Self)
	add(PropKilledCount, "killed_count", WidthInt, ServerOnly, Self)
	add(PropDeathCount, "death_count", WidthInt, ServerOnly, Self)
	add(PropOnlineSeconds, "online_seconds", WidthInt4, ServerOnly, Self)
	add(PropLanguage, "language", WidthString, ServerOnly, Self)
	add(PropAmmoImage, "ammo_image", WidthString, PlayerWritable, LevelBroadcast)
	add(PropGani2, "gani2", WidthString, PlayerWritable, LevelBroadcast)
	add(PropPlayerID, "player_id", WidthInt, ServerOnly, Self)
	add(PropAccountName, "account_name", WidthString, ServerOnly, Self)

	for _, id := range []ID{PropUnknown1, PropUnknown2, PropUnknown3, PropUnknown4, PropUnknown5} {
		add(id, "unknown", WidthChar, ServerOnly, Local)
	}

	return t
}

// SetPropsOptions mirrors PLSETPROPS_* (TPlayer.h, original_source): flags
// carried on a setProps call that decide server-side gating and forwarding.
type SetPropsOptions struct {
	SetByPlayer bool // PLSETPROPS_SETBYPLAYER: enforce write gates
	Forward     bool // PLSETPROPS_FORWARD: broadcast changed subset
	ForwardSelf bool // PLSETPROPS_FORWARDSELF: echo back to sender
}

const (
	FlagSetByPlayer = 0x01
	FlagForward     = 0x02
	FlagForwardSelf = 0x04
)

// ParseSetPropsFlags decodes the raw options byte into SetPropsOptions.
func ParseSetPropsFlags(raw byte) SetPropsOptions {
	return SetPropsOptions{
		SetByPlayer: raw&FlagSetByPlayer != 0,
		Forward:     raw&FlagForward != 0,
		ForwardSelf: raw&FlagForwardSelf != 0,
	}
}

// Value is a decoded property value: the raw wire bytes plus the spec that
// describes how to interpret them. Handlers type-assert based on Width.
type Value struct {
	Spec Spec
	Raw  []byte
}

// GetProps serializes the requested subset of properties, in the protocol's
// id||encoded-bytes format, from a getter callback supplied by the caller
// (the property engine itself holds no player state — that lives on the
// session/registry side per Design Notes' composition-over-inheritance
// guidance). Stored values are the decoded, un-offset bytes SetProps
// committed; writeByWidth re-applies each property's wire encoding
// (offset bytes, length-prefixed strings) so a value read in can be sent
// back out unchanged.
func GetProps(w *protocol.Writer, ids []ID, get func(ID) []byte) {
	for _, id := range ids {
		spec, ok := Table[id]
		if !ok {
			continue
		}
		raw := get(id)
		if raw == nil {
			continue
		}
		w.WriteGChar(byte(spec.ID))
		writeByWidth(w, spec.Width, raw)
	}
}

// SetProps parses a stream of id||encoded-bytes entries from r, applying
// each through its write-gating policy, and returns the set actually
// committed (so the caller can build the forward set per §4.6).
func SetProps(r *protocol.Reader, opts SetPropsOptions, commit func(ID, []byte) bool) []ID {
	var changed []ID
	for r.Remaining() > 0 {
		id := ID(r.ReadGChar())
		spec, ok := Table[id]
		if !ok {
			break // unknown id: can't know its width, stop parsing this stream
		}
		raw := readByWidth(r, spec.Width)

		if opts.SetByPlayer && spec.Gate == ServerOnly {
			continue // silently dropped per §4.6
		}
		if commit(id, raw) {
			changed = append(changed, id)
		}
	}
	return changed
}

// writeByWidth re-encodes a decoded, un-offset value back onto the wire
// per its property's width, mirroring readByWidth's decode (§6 "Endianness
// and offset-encoding").
func writeByWidth(w *protocol.Writer, width Width, raw []byte) {
	switch width {
	case WidthChar:
		if len(raw) < 1 {
			return
		}
		w.WriteGChar(raw[0])
	case WidthShort:
		if len(raw) < 2 {
			return
		}
		w.WriteGShort(uint16(raw[0])<<8 | uint16(raw[1]))
	case WidthInt:
		if len(raw) < 3 {
			return
		}
		w.WriteGInt(uint32(raw[0])<<16 | uint32(raw[1])<<8 | uint32(raw[2]))
	case WidthInt4:
		if len(raw) < 4 {
			return
		}
		w.WriteGInt4(uint32(raw[0])<<24 | uint32(raw[1])<<16 | uint32(raw[2])<<8 | uint32(raw[3]))
	case WidthInt5:
		if len(raw) < 5 {
			return
		}
		v := uint64(raw[0])<<32 | uint64(raw[1])<<24 | uint64(raw[2])<<16 | uint64(raw[3])<<8 | uint64(raw[4])
		w.WriteGInt5(v)
	case WidthString:
		w.WriteGString(string(raw))
	}
}

func readByWidth(r *protocol.Reader, w Width) []byte {
	switch w {
	case WidthChar:
		return []byte{r.ReadGChar()}
	case WidthShort:
		v := r.ReadGShort()
		return []byte{byte(v >> 8), byte(v)}
	case WidthInt:
		v := r.ReadGInt()
		return []byte{byte(v >> 16), byte(v >> 8), byte(v)}
	case WidthInt4:
		v := r.ReadGInt4()
		return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
	case WidthInt5:
		v := r.ReadGInt5()
		return []byte{byte(v >> 32), byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
	case WidthString:
		return []byte(r.ReadGString())
	default:
		return nil
	}
}
