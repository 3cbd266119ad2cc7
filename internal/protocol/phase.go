package protocol

import "fmt"

// Phase is a session's protocol lifecycle stage (§4.4 Session State Machine).
type Phase int

const (
	PhaseAwait Phase = iota
	PhaseAuthenticated
	PhaseLoaded
	PhaseTerminated
)

func (p Phase) String() string {
	switch p {
	case PhaseAwait:
		return "Await"
	case PhaseAuthenticated:
		return "Authenticated"
	case PhaseLoaded:
		return "Loaded"
	case PhaseTerminated:
		return "Terminated"
	default:
		return fmt.Sprintf("Unknown(%d)", int(p))
	}
}

type phaseMask uint8

const (
	maskAwaitPhase phaseMask = 1 << iota
	maskAuthenticated
	maskLoaded
	maskTerminated
)

func (p Phase) mask() phaseMask {
	switch p {
	case PhaseAwait:
		return maskAwaitPhase
	case PhaseAuthenticated:
		return maskAuthenticated
	case PhaseLoaded:
		return maskLoaded
	case PhaseTerminated:
		return maskTerminated
	default:
		return 0
	}
}

// PhaseMask is the exported type used when registering handlers.
type PhaseMask = phaseMask

const (
	PhasesAwait         = maskAwaitPhase
	PhasesAuthenticated = maskAuthenticated
	PhasesLoaded        = maskLoaded
	// PhasesActive covers every phase past the handshake — used for codes
	// like PLI_PACKETCOUNT that are legal any time the session is alive.
	PhasesActive = maskAuthenticated | maskLoaded
)

// AllowsPhase reports whether mask permits phase p.
func AllowsPhase(mask phaseMask, p Phase) bool {
	return mask&p.mask() != 0
}
