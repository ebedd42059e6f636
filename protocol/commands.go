package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeHeader constructs a packet header.
//
// Header structure:
//
//	[SOF][TYPE][LEN_L][LEN_H]
func EncodeHeader(t PacketType, length uint16) [HeaderSize]byte {
	var h [HeaderSize]byte
	h[HeaderSOFOffset] = StartOfFrame
	h[HeaderTypeOffset] = byte(t)
	binary.LittleEndian.PutUint16(h[HeaderLengthOffset:], length)
	return h
}

// DecodeHeader parses the first HeaderSize bytes of b.
// The type code is returned as-is; callers decide which types they accept.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: got %d bytes, header is %d", ErrShortFrame, len(b), HeaderSize)
	}
	if b[HeaderSOFOffset] != StartOfFrame {
		return Header{}, fmt.Errorf("%w: got 0x%02X, expected 0x%02X", ErrInvalidSOF, b[HeaderSOFOffset], StartOfFrame)
	}
	return Header{
		Type:   PacketType(b[HeaderTypeOffset]),
		Length: binary.LittleEndian.Uint16(b[HeaderLengthOffset:]),
	}, nil
}

// BuildStartPacket constructs a START packet.
//
// Frame structure:
//
//	[SOF][0x01][0x04][0x00] [0x00 x 8]
func BuildStartPacket() (*Packet, error) {
	return buildControlPacket(TypeStart), nil
}

// BuildStopPacket constructs a STOP packet.
//
// Frame structure:
//
//	[SOF][0x23][0x04][0x00] [0x00 x 8]
func BuildStopPacket() (*Packet, error) {
	return buildControlPacket(TypeStop), nil
}

func buildControlPacket(t PacketType) *Packet {
	return &Packet{
		Header:  Header{Type: t, Length: ControlLength},
		Payload: make([]byte, ControlPayloadSize),
	}
}

// BuildConfPacket constructs a CONF packet describing the whole image.
//
// Frame structure:
//
//	[SOF][0x67][0x0C][0x00] [VERSION(4)][SIZE(4)][CRC(image)(4)][CRC(previous 12)(4)]
//
// The header declares ConfLength (12) while ConfPayloadSize (16) bytes follow;
// the device reads the trailing checksum separately.
func BuildConfPacket(version Version, image []byte) (*Packet, error) {
	if uint64(len(image)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d bytes", ErrImageTooLarge, len(image))
	}

	payload := make([]byte, 0, ConfPayloadSize)
	payload = append(payload, version[:]...)
	payload = binary.LittleEndian.AppendUint32(payload, uint32(len(image)))
	payload = AppendChecksum(payload, image)
	payload = AppendChecksum(payload, payload)

	return &Packet{
		Header:  Header{Type: TypeConf, Length: ConfLength},
		Payload: payload,
	}, nil
}

// ParseConfPayload decodes and verifies the payload of a CONF packet.
func ParseConfPayload(payload []byte) (*Config, error) {
	if len(payload) != ConfPayloadSize {
		return nil, fmt.Errorf("%w: CONF payload is %d bytes, expected %d", ErrShortFrame, len(payload), ConfPayloadSize)
	}

	want := binary.LittleEndian.Uint32(payload[ConfSelfCRCOffset:])
	if got := Checksum(payload[:ConfLength]); got != want {
		return nil, fmt.Errorf("%w: CONF got 0x%08X, expected 0x%08X", ErrChecksum, got, want)
	}

	cfg := &Config{
		Size:     binary.LittleEndian.Uint32(payload[ConfSizeOffset:]),
		Checksum: binary.LittleEndian.Uint32(payload[ConfChecksumOffset:]),
	}
	copy(cfg.Version[:], payload[ConfVersionOffset:ConfVersionOffset+VersionSize])

	return cfg, nil
}

// BuildDataPacket constructs a DATA packet for one image window.
//
// Frame structure:
//
//	[SOF][0x89][LEN_L][LEN_H] [CHUNK(LEN)][CRC(chunk)(4)]
//
// LEN counts the chunk only, not its trailing checksum.
func BuildDataPacket(chunk []byte) (*Packet, error) {
	if len(chunk) == 0 {
		return nil, ErrEmptyChunk
	}
	if len(chunk) > MaxChunkSize {
		return nil, fmt.Errorf("%w: %d bytes, maximum is %d", ErrChunkTooLarge, len(chunk), MaxChunkSize)
	}

	payload := make([]byte, 0, len(chunk)+ChecksumSize)
	payload = append(payload, chunk...)
	payload = AppendChecksum(payload, chunk)

	return &Packet{
		Header:  Header{Type: TypeData, Length: uint16(len(chunk))},
		Payload: payload,
	}, nil
}

// ParseDataPayload verifies the trailing checksum of a DATA payload and
// returns the chunk bytes.
func ParseDataPayload(payload []byte) ([]byte, error) {
	if len(payload) <= ChecksumSize {
		return nil, fmt.Errorf("%w: DATA payload is %d bytes", ErrShortFrame, len(payload))
	}

	n := len(payload) - ChecksumSize
	want := binary.LittleEndian.Uint32(payload[n:])
	if got := Checksum(payload[:n]); got != want {
		return nil, fmt.Errorf("%w: DATA got 0x%08X, expected 0x%08X", ErrChecksum, got, want)
	}

	return payload[:n], nil
}

// PayloadSize returns how many payload bytes follow a header on the wire.
func PayloadSize(h Header) (int, error) {
	switch h.Type {
	case TypeStart, TypeStop:
		return ControlPayloadSize, nil
	case TypeConf, TypeData:
		return int(h.Length) + ChecksumSize, nil
	case TypeResp:
		return ResponseSize - HeaderSize, nil
	default:
		return 0, fmt.Errorf("%w: 0x%02X", ErrUnexpectedType, byte(h.Type))
	}
}
