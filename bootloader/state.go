package bootloader

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is reported when an event arrives in a phase that
// does not accept it.
var ErrInvalidTransition = errors.New("invalid state transition")

// Phase identifies a step of the transfer state machine.
//
// Phases only move forward, except SendingChunk and AwaitChunkAck which
// alternate once per image window.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitStartAck
	PhaseAwaitConfigAck
	PhaseSendingChunk
	PhaseAwaitChunkAck
	PhaseAwaitStopAck
	PhaseDone
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitStartAck:
		return "start"
	case PhaseAwaitConfigAck:
		return "config"
	case PhaseSendingChunk:
		return "sending chunk"
	case PhaseAwaitChunkAck:
		return "chunk ack"
	case PhaseAwaitStopAck:
		return "stop"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Terminal reports whether no further transitions are possible.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseFailed
}

// EventKind is the outcome of performing an Effect.
type EventKind int

const (
	// EventBegin starts a transfer from PhaseIdle
	EventBegin EventKind = iota

	// EventSent reports a packet was written without awaiting a response
	EventSent

	// EventAck reports a validated ACK response
	EventAck

	// EventFailure reports any error; Event.Err carries it
	EventFailure
)

func (k EventKind) String() string {
	switch k {
	case EventBegin:
		return "begin"
	case EventSent:
		return "sent"
	case EventAck:
		return "ack"
	case EventFailure:
		return "failure"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is fed into Next.
type Event struct {
	Kind EventKind
	Err  error
}

// Emit selects the packet an Effect writes.
type Emit int

const (
	EmitNone Emit = iota
	EmitStart
	EmitConfig
	EmitChunk
	EmitStop
)

func (e Emit) String() string {
	switch e {
	case EmitNone:
		return "none"
	case EmitStart:
		return "START"
	case EmitConfig:
		return "CONF"
	case EmitChunk:
		return "DATA"
	case EmitStop:
		return "STOP"
	default:
		return fmt.Sprintf("emit(%d)", int(e))
	}
}

// Effect is the side effect a transition asks the driver to perform,
// in field order: pause, emit, pause, await.
type Effect struct {
	// PhasePause waits Config.PhaseSettle before emitting
	PhasePause bool

	// Emit is the packet to write (EmitNone writes nothing)
	Emit Emit

	// Chunk is the window index when Emit is EmitChunk
	Chunk int

	// ChunkPause waits Config.ChunkSettle before reading the response
	ChunkPause bool

	// Await reads and validates a response after emitting
	Await bool
}

// State is the orchestrator's view of a transfer.
type State struct {
	// Phase is the current phase
	Phase Phase

	// Chunk is the window being sent or acknowledged
	Chunk int

	// Chunks is the total number of windows in the image
	Chunks int

	// Err is the failure reason when Phase is PhaseFailed
	Err error
}

// NewState returns the idle state for an image of the given number of windows.
func NewState(chunks int) State {
	return State{Phase: PhaseIdle, Chunks: chunks}
}

// Next applies ev to s and returns the new state with the effect that must
// be performed next. It has no side effects of its own.
func Next(s State, ev Event) (State, Effect) {
	if s.Phase.Terminal() {
		return s, Effect{}
	}

	if ev.Kind == EventFailure {
		return fail(s, ev.Err), Effect{}
	}

	switch {
	case s.Phase == PhaseIdle && ev.Kind == EventBegin:
		s.Phase = PhaseAwaitStartAck
		return s, Effect{Emit: EmitStart, Await: true}

	case s.Phase == PhaseAwaitStartAck && ev.Kind == EventAck:
		s.Phase = PhaseAwaitConfigAck
		return s, Effect{PhasePause: true, Emit: EmitConfig, Await: true}

	case s.Phase == PhaseAwaitConfigAck && ev.Kind == EventAck:
		if s.Chunks == 0 {
			return stop(s)
		}
		s.Phase = PhaseSendingChunk
		s.Chunk = 0
		return s, Effect{PhasePause: true, Emit: EmitChunk, Chunk: 0}

	case s.Phase == PhaseSendingChunk && ev.Kind == EventSent:
		s.Phase = PhaseAwaitChunkAck
		return s, Effect{ChunkPause: true, Await: true}

	case s.Phase == PhaseAwaitChunkAck && ev.Kind == EventAck:
		if s.Chunk+1 >= s.Chunks {
			return stop(s)
		}
		s.Phase = PhaseSendingChunk
		s.Chunk++
		return s, Effect{Emit: EmitChunk, Chunk: s.Chunk}

	case s.Phase == PhaseAwaitStopAck && ev.Kind == EventAck:
		s.Phase = PhaseDone
		return s, Effect{}
	}

	return fail(s, fmt.Errorf("%w: %s in phase %s", ErrInvalidTransition, ev.Kind, s.Phase)), Effect{}
}

func stop(s State) (State, Effect) {
	s.Phase = PhaseAwaitStopAck
	return s, Effect{PhasePause: true, Emit: EmitStop, Await: true}
}

func fail(s State, err error) State {
	if err == nil {
		err = errors.New("unspecified failure")
	}
	s.Phase = PhaseFailed
	s.Err = err
	return s
}
