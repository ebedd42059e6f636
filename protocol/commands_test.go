package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestEncodeHeader(t *testing.T) {
	h := EncodeHeader(TypeData, 0x0400)
	want := [HeaderSize]byte{0x5A, 0x89, 0x00, 0x04}
	if h != want {
		t.Errorf("EncodeHeader() = % X, want % X", h, want)
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	types := []PacketType{TypeStart, TypeStop, TypeResp, TypeConf, TypeData}

	for _, typ := range types {
		t.Run(typ.String(), func(t *testing.T) {
			for n := 0; n <= 0xFFFF; n++ {
				h := EncodeHeader(typ, uint16(n))
				got, err := DecodeHeader(h[:])
				if err != nil {
					t.Fatalf("DecodeHeader(len=%d): unexpected error: %v", n, err)
				}
				if got.Type != typ || got.Length != uint16(n) {
					t.Fatalf("DecodeHeader(EncodeHeader(%s, %d)) = {%s, %d}", typ, n, got.Type, got.Length)
				}
			}
		})
	}
}

func TestDecodeHeaderErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		wantErr error
	}{
		{name: "empty", input: nil, wantErr: ErrShortFrame},
		{name: "three bytes", input: []byte{0x5A, 0x01, 0x04}, wantErr: ErrShortFrame},
		{name: "bad sof", input: []byte{0x5B, 0x01, 0x04, 0x00}, wantErr: ErrInvalidSOF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeHeader(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("DecodeHeader() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuildControlPackets(t *testing.T) {
	tests := []struct {
		name  string
		build func() (*Packet, error)
		want  []byte
	}{
		{
			name:  "start",
			build: BuildStartPacket,
			want:  []byte{0x5A, 0x01, 0x04, 0x00, 0, 0, 0, 0, 0, 0, 0, 0},
		},
		{
			name:  "stop",
			build: BuildStopPacket,
			want:  []byte{0x5A, 0x23, 0x04, 0x00, 0, 0, 0, 0, 0, 0, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkt, err := tt.build()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(pkt.Bytes(), tt.want) {
				t.Errorf("packet = % X, want % X", pkt.Bytes(), tt.want)
			}
		})
	}
}

func TestBuildConfPacket(t *testing.T) {
	image := make([]byte, 2500)
	version, err := ParseVersion("1.2.3")
	if err != nil {
		t.Fatalf("ParseVersion: %v", err)
	}

	pkt, err := BuildConfPacket(version, image)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hdr := pkt.HeaderBytes()
	if !bytes.Equal(hdr, []byte{0x5A, 0x67, 0x0C, 0x00}) {
		t.Errorf("header = % X, want 5A 67 0C 00", hdr)
	}

	// The declared length stays 12 while 16 bytes follow.
	if pkt.Header.Length != ConfLength {
		t.Errorf("Length = %d, want %d", pkt.Header.Length, ConfLength)
	}
	if len(pkt.Payload) != ConfPayloadSize {
		t.Fatalf("payload size = %d, want %d", len(pkt.Payload), ConfPayloadSize)
	}

	p := pkt.Payload
	if !bytes.Equal(p[0:4], []byte{1, 2, 3, 0}) {
		t.Errorf("version = % X, want 01 02 03 00", p[0:4])
	}
	if got := binary.LittleEndian.Uint32(p[4:8]); got != 2500 {
		t.Errorf("size = %d, want 2500", got)
	}
	if got, want := binary.LittleEndian.Uint32(p[8:12]), Checksum(image); got != want {
		t.Errorf("image crc = 0x%08X, want 0x%08X", got, want)
	}
	if got, want := binary.LittleEndian.Uint32(p[12:16]), Checksum(p[:12]); got != want {
		t.Errorf("self crc = 0x%08X, want 0x%08X", got, want)
	}
}

func TestConfPayloadSizeIndependentOfImage(t *testing.T) {
	for _, n := range []int{0, 1, 1024, 65535, 70000} {
		pkt, err := BuildConfPacket(Version{}, make([]byte, n))
		if err != nil {
			t.Fatalf("size %d: unexpected error: %v", n, err)
		}
		if len(pkt.Payload) != ConfPayloadSize || pkt.Header.Length != ConfLength {
			t.Errorf("size %d: payload=%d length=%d", n, len(pkt.Payload), pkt.Header.Length)
		}
	}
}

func TestParseConfPayload(t *testing.T) {
	image := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	version := Version{4, 5, 6, 0}

	pkt, err := BuildConfPacket(version, image)
	if err != nil {
		t.Fatalf("BuildConfPacket: %v", err)
	}

	cfg, err := ParseConfPayload(pkt.Payload)
	if err != nil {
		t.Fatalf("ParseConfPayload: %v", err)
	}
	if cfg.Version != version || cfg.Size != 4 || cfg.Checksum != Checksum(image) {
		t.Errorf("config = %+v", cfg)
	}

	t.Run("corrupted", func(t *testing.T) {
		bad := append([]byte(nil), pkt.Payload...)
		bad[ConfSizeOffset] ^= 0xFF
		if _, err := ParseConfPayload(bad); !errors.Is(err, ErrChecksum) {
			t.Errorf("error = %v, want %v", err, ErrChecksum)
		}
	})

	t.Run("short", func(t *testing.T) {
		if _, err := ParseConfPayload(pkt.Payload[:12]); !errors.Is(err, ErrShortFrame) {
			t.Errorf("error = %v, want %v", err, ErrShortFrame)
		}
	})
}

func TestBuildDataPacket(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{name: "single byte", data: []byte{0x42}},
		{name: "partial chunk", data: bytes.Repeat([]byte{0x11}, 452)},
		{name: "max size", data: make([]byte, MaxChunkSize)},
		{name: "empty", data: []byte{}, wantErr: ErrEmptyChunk},
		{name: "nil", data: nil, wantErr: ErrEmptyChunk},
		{name: "too large", data: make([]byte, MaxChunkSize+1), wantErr: ErrChunkTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkt, err := BuildDataPacket(tt.data)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if pkt.Header.Type != TypeData {
				t.Errorf("Type = %s, want %s", pkt.Header.Type, TypeData)
			}
			if int(pkt.Header.Length) != len(tt.data) {
				t.Errorf("Length = %d, want %d", pkt.Header.Length, len(tt.data))
			}
			if len(pkt.Payload) != len(tt.data)+ChecksumSize {
				t.Errorf("payload size = %d, want %d", len(pkt.Payload), len(tt.data)+ChecksumSize)
			}

			chunk, err := ParseDataPayload(pkt.Payload)
			if err != nil {
				t.Fatalf("ParseDataPayload: %v", err)
			}
			if !bytes.Equal(chunk, tt.data) {
				t.Error("chunk does not survive the payload round trip")
			}
		})
	}
}

func TestParseDataPayloadCorrupted(t *testing.T) {
	pkt, err := BuildDataPacket([]byte{1, 2, 3, 4, 5})
	if err != nil {
		t.Fatalf("BuildDataPacket: %v", err)
	}
	pkt.Payload[0] = 0xFF

	if _, err := ParseDataPayload(pkt.Payload); !errors.Is(err, ErrChecksum) {
		t.Errorf("error = %v, want %v", err, ErrChecksum)
	}
	if _, err := ParseDataPayload([]byte{1, 2, 3, 4}); !errors.Is(err, ErrShortFrame) {
		t.Errorf("error = %v, want %v", err, ErrShortFrame)
	}
}

func TestPayloadSize(t *testing.T) {
	tests := []struct {
		header Header
		want   int
	}{
		{Header{Type: TypeStart, Length: ControlLength}, 8},
		{Header{Type: TypeStop, Length: ControlLength}, 8},
		{Header{Type: TypeConf, Length: ConfLength}, 16},
		{Header{Type: TypeData, Length: 452}, 456},
		{Header{Type: TypeResp, Length: ResponseLength}, 8},
	}

	for _, tt := range tests {
		t.Run(tt.header.Type.String(), func(t *testing.T) {
			got, err := PayloadSize(tt.header)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("PayloadSize() = %d, want %d", got, tt.want)
			}
		})
	}

	if _, err := PayloadSize(Header{Type: 0x99}); !errors.Is(err, ErrUnexpectedType) {
		t.Errorf("unknown type error = %v, want %v", err, ErrUnexpectedType)
	}
}
