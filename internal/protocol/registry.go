package protocol

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HandlerFunc is the contract a packet handler implements: given the
// session (opaque to avoid an import cycle with package session) and a
// reader positioned just past the opcode byte, it returns false when the
// session should be terminated (§4.5).
type HandlerFunc func(sess any, r *Reader) bool

// handlerEntry carries, per code, everything the dispatcher needs to judge
// legality before it ever calls the handler.
type handlerEntry struct {
	classes  ClassMask
	phases   PhaseMask
	rate     rateLimit
	fn       HandlerFunc
}

// rateLimit is a simple fixed-window "N per minute" bucket. Zero value
// means unlimited.
type rateLimit struct {
	perMinute int
}

type rateState struct {
	windowStart time.Time
	count       int
}

// Registry is the static, table-driven dispatcher built once at process
// start (createFunctions in the original), mapping inbound code to its
// legality rules and handler (§4.5 Packet Dispatcher).
type Registry struct {
	mu       sync.Mutex // guards rate state only; the table itself is immutable after Build
	handlers map[byte]*handlerEntry
	rates    map[byte]*rateState
	log      *zap.Logger

	// InvalidThreshold is the number of invalid/illegal/rate-limited
	// packets that triggers termination. The count is the session's
	// running total: it is never reset, so there is no time window.
	InvalidThreshold int
}

// NewRegistry returns an empty registry ready for Register calls.
func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		handlers:         make(map[byte]*handlerEntry),
		rates:            make(map[byte]*rateState),
		log:              log,
		InvalidThreshold: 10,
	}
}

// Register binds a code to the peer classes and phases allowed to send it,
// an optional per-minute rate cap (0 = unlimited), and the handler. Calling
// Register twice for the same code replaces the earlier entry — callers
// register the full table once at startup, so this is almost always a bug
// if it happens, but the registry doesn't police it.
func (reg *Registry) Register(code byte, classes ClassMask, phases PhaseMask, perMinute int, fn HandlerFunc) {
	reg.handlers[code] = &handlerEntry{
		classes: classes,
		phases:  phases,
		rate:    rateLimit{perMinute: perMinute},
		fn:      fn,
	}
}

// Dispatcher is the minimal view of a session the registry needs in order
// to judge legality, independent of package session's concrete type.
type Dispatcher interface {
	PeerClass() PeerClass
	Phase() Phase
	NoteInvalidPacket()
	InvalidPacketCount() int
}

// Dispatch looks up the handler for rec's opcode, checks class/phase
// legality and rate limit, and — if all pass — invokes it with panic
// recovery. It returns false when the caller should terminate the session
// (handler-requested close, illegal packet past threshold, or panic).
func (reg *Registry) Dispatch(sess Dispatcher, rec []byte, cp Codepage) bool {
	if len(rec) == 0 {
		return reg.countInvalid(sess, "empty record")
	}
	r := NewReader(rec, cp)
	code := r.Opcode()

	entry, ok := reg.handlers[code]
	if !ok {
		reg.log.Debug("unknown opcode", zap.Uint8("code", code))
		return reg.countInvalid(sess, "unknown opcode")
	}
	if !Allows(entry.classes, sess.PeerClass()) {
		reg.log.Warn("opcode not legal for peer class",
			zap.Uint8("code", code), zap.String("class", sess.PeerClass().String()))
		return reg.countInvalid(sess, "class not allowed")
	}
	if !AllowsPhase(entry.phases, sess.Phase()) {
		reg.log.Warn("opcode not legal in phase",
			zap.Uint8("code", code), zap.String("phase", sess.Phase().String()))
		return reg.countInvalid(sess, "phase not allowed")
	}
	if entry.rate.perMinute > 0 && !reg.allow(code, entry.rate.perMinute) {
		reg.log.Warn("opcode rate exceeded", zap.Uint8("code", code))
		return reg.countInvalid(sess, "rate exceeded")
	}

	return reg.safeCall(entry.fn, sess, r, code)
}

// allow applies a fixed one-minute window per code, shared across all
// sessions hitting this registry — callers that need a per-session budget
// instead track it on the Session and pass a tighter perMinute here.
func (reg *Registry) allow(code byte, perMinute int) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	st, ok := reg.rates[code]
	now := time.Now()
	if !ok {
		st = &rateState{windowStart: now}
		reg.rates[code] = st
	}
	if now.Sub(st.windowStart) >= time.Minute {
		st.windowStart = now
		st.count = 0
	}
	st.count++
	return st.count <= perMinute
}

// countInvalid increments the session's invalid-packet counter and reports
// whether the session should keep running — false once the threshold is
// crossed (§4.5: "When invalidPackets crosses a threshold... the session
// is terminated with protocol-error").
func (reg *Registry) countInvalid(sess Dispatcher, reason string) bool {
	sess.NoteInvalidPacket()
	if sess.InvalidPacketCount() >= reg.InvalidThreshold {
		reg.log.Warn("invalid packet threshold exceeded, terminating session", zap.String("reason", reason))
		return false
	}
	return true
}

// safeCall recovers a panicking handler so one bad packet can't take down
// the dispatch loop; a recovered panic counts as a handler-requested
// termination of that one session, not a threshold hit.
func (reg *Registry) safeCall(fn HandlerFunc, sess Dispatcher, r *Reader, code byte) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			reg.log.Error("handler panic recovered",
				zap.Uint8("code", code), zap.Any("panic", rec))
			ok = false
		}
	}()
	return fn(sess, r)
}

// DescribeLegality is a debugging helper returning a human-readable summary
// of a code's registered legality, or an error if the code isn't registered.
func (reg *Registry) DescribeLegality(code byte) (string, error) {
	entry, ok := reg.handlers[code]
	if !ok {
		return "", fmt.Errorf("protocol: code %d not registered", code)
	}
	return fmt.Sprintf("classes=%08b phases=%04b rate=%d/min", entry.classes, entry.phases, entry.rate.perMinute), nil
}
