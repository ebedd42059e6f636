package protocol

// ProtocolName identifies the wire protocol implemented by this package.
const ProtocolName = "SBP"

// Header layout.
const (
	// StartOfFrame is the marker byte that begins every packet (0x5A)
	StartOfFrame = 0x5A

	// HeaderSize is the header size in bytes: SOF(1) + TYPE(1) + LEN(2)
	HeaderSize = 4

	// HeaderSOFOffset is the offset of the SOF marker
	HeaderSOFOffset = 0

	// HeaderTypeOffset is the offset of the packet type code
	HeaderTypeOffset = 1

	// HeaderLengthOffset is the offset of the little-endian length field
	HeaderLengthOffset = 2
)

// PacketType is the type code carried in byte 1 of every header.
type PacketType byte

// Packet type codes.
const (
	// TypeStart announces the beginning of a firmware download
	TypeStart PacketType = 0x01

	// TypeStop announces the end of a firmware download
	TypeStop PacketType = 0x23

	// TypeResp is a device response carrying an ACK/NACK code
	TypeResp PacketType = 0x45

	// TypeConf carries version, image size and image checksum
	TypeConf PacketType = 0x67

	// TypeData carries one chunk of the image
	TypeData PacketType = 0x89
)

// Response codes.
const (
	// ACK indicates the previous packet was accepted
	ACK = 0x15

	// NACK indicates the previous packet was rejected
	NACK = 0x16
)

// Payload sizes.
const (
	// ChecksumSize is the size of a CRC-32/MPEG-2 field on the wire
	ChecksumSize = 4

	// ControlPayloadSize is the payload size of START and STOP packets (zero filled)
	ControlPayloadSize = 8

	// ControlLength is the length field declared by START and STOP packets
	ControlLength = 4

	// VersionSize is the size of the version tag in a CONF packet
	VersionSize = 4

	// ConfLength is the length field declared by CONF packets.
	// It covers version, size and image checksum but not the trailing
	// checksum of those 12 bytes, so the emitted payload is ConfPayloadSize.
	ConfLength = 12

	// ConfPayloadSize is the number of payload bytes emitted for a CONF packet
	ConfPayloadSize = ConfLength + ChecksumSize

	// MaxChunkSize is the largest image window carried by one DATA packet
	MaxChunkSize = 1024
)

// CONF payload offsets.
const (
	ConfVersionOffset  = 0
	ConfSizeOffset     = 4
	ConfChecksumOffset = 8
	ConfSelfCRCOffset  = 12
)

// Response frame layout.
const (
	// ResponseSize is the size of a complete RESP frame
	ResponseSize = 12

	// ResponseLength is the length field a device places in a RESP header (unused by the host)
	ResponseLength = 4

	// ResponseCodeOffset is the absolute offset of the ACK/NACK code
	ResponseCodeOffset = 4

	// ResponseChecksumOffset is the offset of the checksum a device places over the code
	ResponseChecksumOffset = 8
)
