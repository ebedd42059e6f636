package protocol

import (
	"encoding/binary"
	"fmt"
)

// ValidateResponse checks a RESP frame read from the device.
//
// Response frame structure:
//
//	[SOF][0x45][LEN_L][LEN_H][CODE][RESERVED(7)]
//
// Returns nil only for a complete frame with the ACK code. A NACK yields
// a *ProtocolError; structural problems wrap ErrShortFrame, ErrInvalidSOF,
// ErrUnexpectedType or ErrUnknownResponse.
func ValidateResponse(frame []byte) error {
	return validate("", frame)
}

// ValidateResponseFor is ValidateResponse for the reply to a packet of type
// sent. A NACK names that packet in its *ProtocolError.
func ValidateResponseFor(sent PacketType, frame []byte) error {
	return validate(sent.String(), frame)
}

func validate(op string, frame []byte) error {
	code, err := ParseResponse(frame)
	if err != nil {
		return err
	}

	switch code {
	case ACK:
		return nil
	case NACK:
		return &ProtocolError{Operation: op, StatusCode: code}
	default:
		return fmt.Errorf("%w: 0x%02X", ErrUnknownResponse, code)
	}
}

// ParseResponse validates the framing of a RESP frame and returns its code.
func ParseResponse(frame []byte) (byte, error) {
	if len(frame) < ResponseSize {
		return 0, fmt.Errorf("%w: got %d bytes, expected %d", ErrShortFrame, len(frame), ResponseSize)
	}

	if frame[HeaderSOFOffset] != StartOfFrame {
		return 0, fmt.Errorf("%w: got 0x%02X, expected 0x%02X", ErrInvalidSOF, frame[HeaderSOFOffset], StartOfFrame)
	}

	if t := PacketType(frame[HeaderTypeOffset]); t != TypeResp {
		return 0, fmt.Errorf("%w: got %s, expected %s", ErrUnexpectedType, t, TypeResp)
	}

	return frame[ResponseCodeOffset], nil
}

// BuildResponse constructs the 12-byte RESP frame a device sends back.
// The reserved tail carries the checksum of the code byte.
func BuildResponse(code byte) []byte {
	frame := make([]byte, ResponseSize)
	h := EncodeHeader(TypeResp, ResponseLength)
	copy(frame, h[:])
	frame[ResponseCodeOffset] = code
	binary.LittleEndian.PutUint32(frame[ResponseChecksumOffset:], Checksum([]byte{code}))
	return frame
}
