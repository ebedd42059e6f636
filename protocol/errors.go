package protocol

import (
	"errors"
	"fmt"
)

var (
	// Frame validation
	ErrShortFrame      = errors.New("short frame")
	ErrInvalidSOF      = errors.New("invalid start of frame")
	ErrUnexpectedType  = errors.New("unexpected packet type")
	ErrUnknownResponse = errors.New("unknown response code")
	ErrChecksum        = errors.New("checksum mismatch")

	// Packet construction
	ErrEmptyChunk    = errors.New("chunk cannot be empty")
	ErrChunkTooLarge = errors.New("chunk exceeds maximum size")
	ErrImageTooLarge = errors.New("image exceeds maximum size")

	// Input
	ErrInvalidVersion = errors.New("invalid version")
)

// ProtocolError represents an explicit rejection by the bootloader.
// Contains the response code from the RESP frame.
type ProtocolError struct {
	// Operation is the packet that was rejected
	Operation string

	// StatusCode is the response code sent by the device
	StatusCode byte
}

func (e *ProtocolError) Error() string {
	op := e.Operation
	if op == "" {
		op = "packet"
	}
	return fmt.Sprintf("%s rejected: %s (0x%02X)", op, getStatusName(e.StatusCode), e.StatusCode)
}

// IsProtocolError returns true if err is or wraps a ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// getStatusName returns a human-readable name for a response code.
func getStatusName(code byte) string {
	switch code {
	case ACK:
		return "ack"
	case NACK:
		return "nack"
	default:
		return fmt.Sprintf("unknown response code 0x%02X", code)
	}
}
