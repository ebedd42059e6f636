package protocol

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// Header is the decoded form of the 4-byte packet header.
type Header struct {
	// Type is the packet type code
	Type PacketType

	// Length is the declared payload length
	Length uint16
}

// Packet is a complete frame ready to be written.
// Header and payload are kept apart because the device needs a settle
// delay between receiving them.
type Packet struct {
	// Header is the decoded header
	Header Header

	// Payload is the exact byte sequence written after the header.
	// Its size may differ from Header.Length (see ConfLength).
	Payload []byte
}

// HeaderBytes returns the encoded header.
func (p *Packet) HeaderBytes() []byte {
	h := EncodeHeader(p.Header.Type, p.Header.Length)
	return h[:]
}

// Bytes returns header and payload concatenated.
func (p *Packet) Bytes() []byte {
	frame := make([]byte, 0, HeaderSize+len(p.Payload))
	frame = append(frame, p.HeaderBytes()...)
	return append(frame, p.Payload...)
}

// Config is the decoded CONF payload.
type Config struct {
	// Version is the firmware version tag
	Version Version

	// Size is the total image size in bytes
	Size uint32

	// Checksum is the CRC-32/MPEG-2 of the whole image
	Checksum uint32
}

// Version is the 4-byte version tag carried in a CONF packet.
// Components are stored major first, zero padded on the right.
type Version [VersionSize]byte

// ParseVersion parses a dotted version string such as "1.2.3".
// Between one and four decimal components are accepted, each 0..255.
func ParseVersion(s string) (Version, error) {
	var v Version
	if s == "" {
		return v, fmt.Errorf("%w: empty string", ErrInvalidVersion)
	}

	parts := strings.Split(s, ".")
	if len(parts) > VersionSize {
		return v, fmt.Errorf("%w: %q has %d components, maximum is %d",
			ErrInvalidVersion, s, len(parts), VersionSize)
	}

	for i, part := range parts {
		n, err := strconv.ParseUint(part, 10, 8)
		if err != nil {
			return Version{}, fmt.Errorf("%w: component %d of %q: %v", ErrInvalidVersion, i, s, err)
		}
		v[i] = byte(n)
	}

	return v, nil
}

// String renders the version as four dotted components.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v[0], v[1], v[2], v[3])
}

// Uint32 returns the tag as the device stores it (little-endian word).
func (v Version) Uint32() uint32 {
	return binary.LittleEndian.Uint32(v[:])
}

// String returns a human-readable packet type name.
func (t PacketType) String() string {
	switch t {
	case TypeStart:
		return "START"
	case TypeStop:
		return "STOP"
	case TypeResp:
		return "RESP"
	case TypeConf:
		return "CONF"
	case TypeData:
		return "DATA"
	default:
		return fmt.Sprintf("UNKNOWN(0x%02X)", byte(t))
	}
}

// Valid reports whether t is one of the defined packet types.
func (t PacketType) Valid() bool {
	switch t {
	case TypeStart, TypeStop, TypeResp, TypeConf, TypeData:
		return true
	}
	return false
}
