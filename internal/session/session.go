// Package session implements the per-connection protocol state machine
// (§3 Data Model, §4.4 Session State Machine). A Session owns its socket
// and cipher exclusively; everything else the Registry holds about it is a
// non-owning reference.
package session

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/gs2core/server/internal/protocol"
)

// ClientVersion describes the peer's announced client, captured at login.
type ClientVersion struct {
	VersionString string
	Platform      string
	VersionID     int
	Codepage      protocol.Codepage
}

// Auth carries the authenticated identity once login succeeds.
type Auth struct {
	Account string
	Nick    string
	Guild   string
	Rights  uint32
}

// CachedLevel is what a session's client already holds locally for one
// level, so sendLevel can skip re-sending unchanged geometry (§3, §4.7).
type CachedLevel struct {
	LevelName string
	ModTime   int64
}

// Session is a per-connection record (§3 Data Model). Network I/O runs in
// dedicated goroutines; everything else is touched only from the tick loop
// and packet handlers, which all run on the same goroutine per the
// Concurrency Model, so Session itself needs no internal locking beyond
// what the socket plumbing requires.
type Session struct {
	ID uint64 // server-unique, nonzero once authenticated

	class atomic.Int32 // protocol.PeerClass
	phase atomic.Int32 // protocol.Phase

	conn   net.Conn
	cipher protocol.Cipher
	mu     sync.Mutex // guards conn writes and cipher swap on version negotiation

	InQueue  chan []byte
	OutQueue chan []byte

	// FileQueue carries the chunked body of an in-flight sendFile transfer
	// (§3 Data Model "file-send queue", §4.1 Outbound: "chunks a file into
	// size-capped frames interleaved with other traffic... so that one
	// large file cannot starve real-time packets"). writeLoop always
	// drains OutQueue first and only pulls a file chunk when there is no
	// real-time traffic ready, so a transfer never displaces gameplay
	// packets already queued ahead of it.
	FileQueue chan []byte

	Version ClientVersion
	Auth    Auth

	// Level is the current level name; empty between warps. Map is the
	// containing map name; also empty when there is none.
	Level string
	Map   string

	cachedLevelsMu sync.Mutex
	cachedLevels   map[string]CachedLevel

	channelsMu sync.Mutex
	channels   map[string]bool

	externalPlayersMu sync.Mutex
	externalPlayers   map[string]struct{}

	PacketCount    atomic.Int64
	invalidPackets atomic.Int64

	LastData     atomic.Int64 // unix nanos
	LastMovement atomic.Int64
	LastChat     atomic.Int64
	LastNick     atomic.Int64
	LastMessage  atomic.Int64
	LastSave     atomic.Int64
	Last1m       atomic.Int64

	Loaded             atomic.Bool
	IsUsingFileBrowser atomic.Bool
	FirstLevel         atomic.Bool

	RawIncomingLen atomic.Int32
	CarriedNPCID   atomic.Int64
	ThrowCarried   atomic.Bool

	Group string

	// GagUntil (unix seconds, 0 = not gagged) and NickLocked gate the
	// nickname rule's non-Force path (§4.6 Nickname rule).
	GagUntil   atomic.Int64
	NickLocked atomic.Bool

	// Script is an opaque handle to this session's scripting binding, if
	// any (NC-class peers or NPC-bound sessions). Declared as `any` to
	// avoid an import cycle with package scripting.
	Script any

	// Splitter carries this session's raw-follows state across frames
	// (§4.1): armed by the main loop after it dispatches a record whose
	// code is a raw announcer.
	Splitter *protocol.RecordSplitter

	propsMu sync.Mutex
	props   map[byte][]byte // property.ID -> last-committed decoded (un-offset) value

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	log *zap.Logger
}

// fileQueueSize bounds how many pending file chunks a session will buffer
// ahead of the writer goroutine actually draining them. It is deliberately
// small and independent of OutQueueSize: the file queue is only ever
// consulted by writeLoop when OutQueue is momentarily empty, so its depth
// controls how far a transfer can get ahead of the writer, not how much
// real-time traffic it can block.
const fileQueueSize = 16

// New constructs a Session in the Await phase. inSize/outSize size the
// socket queues (teacher's net.Session backpressure pattern).
func New(id uint64, conn net.Conn, inSize, outSize int, log *zap.Logger) *Session {
	s := &Session{
		ID:              id,
		conn:            conn,
		InQueue:         make(chan []byte, inSize),
		OutQueue:        make(chan []byte, outSize),
		FileQueue:       make(chan []byte, fileQueueSize),
		cachedLevels:    make(map[string]CachedLevel),
		channels:        make(map[string]bool),
		externalPlayers: make(map[string]struct{}),
		closeCh:         make(chan struct{}),
		log:             log.With(zap.Uint64("session", id)),
		cipher:          protocol.NewCipher(protocol.CipherNone, 0),
		Splitter:        &protocol.RecordSplitter{},
		props:           make(map[byte][]byte),
	}
	s.class.Store(int32(protocol.ClassAwait))
	s.phase.Store(int32(protocol.PhaseAwait))
	return s
}

func (s *Session) PeerClass() protocol.PeerClass { return protocol.PeerClass(s.class.Load()) }
func (s *Session) SetPeerClass(c protocol.PeerClass) { s.class.Store(int32(c)) }

func (s *Session) Phase() protocol.Phase { return protocol.Phase(s.phase.Load()) }
func (s *Session) SetPhase(p protocol.Phase) { s.phase.Store(int32(p)) }

// IsLoggedIn reports the Session invariant: class != Await and id > 0
// (§3 Invariants).
func (s *Session) IsLoggedIn() bool {
	return s.PeerClass() != protocol.ClassAwait && s.ID > 0
}

// NoteInvalidPacket and InvalidPacketCount satisfy protocol.Dispatcher.
func (s *Session) NoteInvalidPacket()     { s.invalidPackets.Add(1) }
func (s *Session) InvalidPacketCount() int { return int(s.invalidPackets.Load()) }

// ResetCipher installs a fresh cipher, keyed at login or whenever version
// negotiation completes (§4.1: "Encryption resets... whenever version
// negotiation completes").
func (s *Session) ResetCipher(gen protocol.CipherGeneration, seed int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cipher = protocol.NewCipher(gen, seed)
}

func (s *Session) Decrypt(data []byte) []byte {
	s.mu.Lock()
	c := s.cipher
	s.mu.Unlock()
	return c.Decrypt(data)
}

func (s *Session) Encrypt(data []byte) []byte {
	s.mu.Lock()
	c := s.cipher
	s.mu.Unlock()
	return c.Encrypt(data)
}

// Start launches the reader and writer goroutines. Framing/ciphering are
// handled here; the caller supplies the codepage used to interpret
// records once they reach the dispatcher.
func (s *Session) Start() {
	go s.readLoop()
	go s.writeLoop()
}

// Send queues an already-built record for framing and sending.
// Non-blocking: a full OutQueue disconnects the session rather than
// applying backpressure to the whole server (teacher's pattern).
func (s *Session) Send(rec []byte) {
	if s.closed.Load() {
		return
	}
	select {
	case s.OutQueue <- rec:
	default:
		s.log.Warn("output queue full, disconnecting slow session")
		s.Close()
	}
}

// QueueFileChunk enqueues one chunk of an in-flight file transfer onto the
// session's file-send queue. Unlike Send, this blocks the caller (the
// handler's own goroutine, per-session — §5 Concurrency Model) when the
// queue is full instead of disconnecting, which is what paces a transfer
// to the writer's actual drain rate rather than either flooding OutQueue
// or dropping the connection. Returns false if the session closed before
// the chunk could be queued.
func (s *Session) QueueFileChunk(rec []byte) bool {
	if s.closed.Load() {
		return false
	}
	select {
	case s.FileQueue <- rec:
		return true
	case <-s.closeCh:
		return false
	}
}

func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.SetPhase(protocol.PhaseTerminated)
		close(s.closeCh)
		s.conn.Close()
	})
}

func (s *Session) IsClosed() bool { return s.closed.Load() }

func (s *Session) readLoop() {
	defer s.Close()
	for {
		select {
		case <-s.closeCh:
			return
		default:
		}

		body, err := protocol.ReadFrameHeader(s.conn)
		if err != nil {
			if !s.closed.Load() {
				s.log.Debug("read error", zap.Error(err))
			}
			return
		}
		if body == nil {
			continue
		}
		s.LastData.Store(time.Now().UnixNano())
		plaintext := s.Decrypt(body)

		select {
		case s.InQueue <- plaintext:
		case <-s.closeCh:
			return
		}
	}
}

// writeRecord encrypts and frames one record to the wire.
func (s *Session) writeRecord(rec []byte) error {
	buf := make([]byte, len(rec))
	copy(buf, rec)
	encrypted := s.Encrypt(buf)
	s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return protocol.WriteFrameHeader(s.conn, encrypted)
}

// writeLoop drains OutQueue ahead of FileQueue: real-time traffic already
// queued is always written first, and a file chunk is only pulled once
// OutQueue has nothing ready, so an in-flight sendFile transfer (§4.1)
// never displaces gameplay packets.
func (s *Session) writeLoop() {
	defer s.Close()
	for {
		var rec []byte
		select {
		case rec = <-s.OutQueue:
		case <-s.closeCh:
			return
		default:
			select {
			case rec = <-s.OutQueue:
			case rec = <-s.FileQueue:
			case <-s.closeCh:
				return
			}
		}

		if err := s.writeRecord(rec); err != nil {
			if !s.closed.Load() {
				s.log.Debug("write error", zap.Error(err))
			}
			return
		}
	}
}

// CachedLevel returns the session's cached (level,modtime) pair for name,
// or the zero value and false if the client isn't known to have it yet.
func (s *Session) CachedLevel(name string) (CachedLevel, bool) {
	s.cachedLevelsMu.Lock()
	defer s.cachedLevelsMu.Unlock()
	cl, ok := s.cachedLevels[name]
	return cl, ok
}

func (s *Session) SetCachedLevel(cl CachedLevel) {
	s.cachedLevelsMu.Lock()
	defer s.cachedLevelsMu.Unlock()
	s.cachedLevels[cl.LevelName] = cl
}

// ResetLevelCache drops every cached-level entry, forcing a full resend on
// next visit to each (used after a level reload invalidates modtimes).
func (s *Session) ResetLevelCache() {
	s.cachedLevelsMu.Lock()
	defer s.cachedLevelsMu.Unlock()
	s.cachedLevels = make(map[string]CachedLevel)
}

func (s *Session) JoinChannel(name string) {
	s.channelsMu.Lock()
	defer s.channelsMu.Unlock()
	s.channels[name] = true
}

func (s *Session) LeaveChannel(name string) {
	s.channelsMu.Lock()
	defer s.channelsMu.Unlock()
	delete(s.channels, name)
}

func (s *Session) InChannel(name string) bool {
	s.channelsMu.Lock()
	defer s.channelsMu.Unlock()
	return s.channels[name]
}

// AddExternalPlayer records a player discovered via a peer NPC-server,
// keyed by its fully-qualified "account@server" identity.
func (s *Session) AddExternalPlayer(key string) {
	s.externalPlayersMu.Lock()
	defer s.externalPlayersMu.Unlock()
	s.externalPlayers[key] = struct{}{}
}

func (s *Session) HasExternalPlayer(key string) bool {
	s.externalPlayersMu.Lock()
	defer s.externalPlayersMu.Unlock()
	_, ok := s.externalPlayers[key]
	return ok
}

// Prop returns the last-committed decoded value for property id, or nil if
// it has never been set on this session.
func (s *Session) Prop(id byte) []byte {
	s.propsMu.Lock()
	defer s.propsMu.Unlock()
	return s.props[id]
}

// SetProp commits a decoded property value, returning whether the value
// actually changed (callers use this to build the forward set, §4.6).
func (s *Session) SetProp(id byte, raw []byte) bool {
	s.propsMu.Lock()
	defer s.propsMu.Unlock()
	old, ok := s.props[id]
	if ok && string(old) == string(raw) {
		return false
	}
	cp := make([]byte, len(raw))
	copy(cp, raw)
	s.props[id] = cp
	return true
}

func (s *Session) String() string {
	return fmt.Sprintf("Session(id=%d class=%s phase=%s account=%q)", s.ID, s.PeerClass(), s.Phase(), s.Auth.Account)
}
