package bootloader

import (
	"errors"
	"fmt"
	"io"

	"github.com/moffa90/go-sbp/protocol"
)

// ErrTimeout is wrapped when the transport reports a read timeout.
var ErrTimeout = errors.New("response timeout")

// Kind classifies why a transfer failed.
type Kind int

const (
	// KindTransport covers write, read and timeout failures of the link
	KindTransport Kind = iota + 1

	// KindProtocol covers malformed responses (bad SOF, wrong type, short frame)
	KindProtocol

	// KindRejected means the device answered with NACK
	KindRejected

	// KindInput covers bad caller input (version string, empty image)
	KindInput

	// KindCanceled means the context was canceled mid-transfer
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport error"
	case KindProtocol:
		return "protocol violation"
	case KindRejected:
		return "device rejected"
	case KindInput:
		return "input error"
	case KindCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// TransferError reports the phase a transfer failed in and why.
type TransferError struct {
	// Phase is the phase that was active when the failure occurred
	Phase Phase

	// Chunk is the window index for chunk phases, -1 otherwise
	Chunk int

	// Kind classifies the failure
	Kind Kind

	// Err is the underlying error
	Err error
}

func (e *TransferError) Error() string {
	if e.Chunk >= 0 {
		return fmt.Sprintf("%s phase (chunk %d): %s: %v", e.Phase, e.Chunk, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s phase: %s: %v", e.Phase, e.Kind, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a TransferError of the given kind.
func IsKind(err error, kind Kind) bool {
	var te *TransferError
	return errors.As(err, &te) && te.Kind == kind
}

// inputError wraps a caller input problem detected before any packet is sent.
func inputError(err error) *TransferError {
	return &TransferError{Phase: PhaseIdle, Chunk: -1, Kind: KindInput, Err: err}
}

// readError classifies a failed response read.
func readError(err error) (Kind, error) {
	var te interface{ Timeout() bool }
	switch {
	case errors.As(err, &te) && te.Timeout():
		return KindTransport, fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return KindProtocol, fmt.Errorf("%w: incomplete response: %w", protocol.ErrShortFrame, err)
	default:
		return KindTransport, fmt.Errorf("read response: %w", err)
	}
}

// responseError classifies a response that failed validation.
func responseError(err error) Kind {
	if protocol.IsProtocolError(err) {
		return KindRejected
	}
	return KindProtocol
}
