package emulator

import (
	"bytes"
	"errors"
	"testing"

	"github.com/moffa90/go-sbp/protocol"
)

// send writes a packet the way the host does: header, then payload.
func send(t *testing.T, d *Device, pkt *protocol.Packet) []byte {
	t.Helper()
	d.Write(pkt.HeaderBytes())
	d.Write(pkt.Payload)

	resp := make([]byte, protocol.ResponseSize)
	n, err := d.Read(resp)
	if err != nil {
		t.Fatalf("Read() unexpected error: %v", err)
	}
	return resp[:n]
}

// mustPacket unwraps a packet builder result; the builders only fail on
// invalid input, which these tests never pass.
func mustPacket(pkt *protocol.Packet, err error) *protocol.Packet {
	if err != nil {
		panic("build packet: " + err.Error())
	}
	return pkt
}

func TestDeviceFullSession(t *testing.T) {
	image := bytes.Repeat([]byte{0x5A, 0xA5, 0x00}, 700)
	d := New()

	resp := send(t, d, mustPacket(protocol.BuildStartPacket()))
	if err := protocol.ValidateResponse(resp); err != nil {
		t.Fatalf("START: %v", err)
	}

	resp = send(t, d, mustPacket(protocol.BuildConfPacket(protocol.Version{1, 0, 0, 0}, image)))
	if err := protocol.ValidateResponse(resp); err != nil {
		t.Fatalf("CONF: %v", err)
	}

	for start := 0; start < len(image); start += protocol.MaxChunkSize {
		end := min(start+protocol.MaxChunkSize, len(image))
		resp = send(t, d, mustPacket(protocol.BuildDataPacket(image[start:end])))
		if err := protocol.ValidateResponse(resp); err != nil {
			t.Fatalf("DATA at %d: %v", start, err)
		}
	}

	resp = send(t, d, mustPacket(protocol.BuildStopPacket()))
	if err := protocol.ValidateResponse(resp); err != nil {
		t.Fatalf("STOP: %v", err)
	}

	if d.State() != StateComplete {
		t.Errorf("State() = %s, want %s", d.State(), StateComplete)
	}
	if !bytes.Equal(d.Image(), image) {
		t.Error("reassembled image differs from the original")
	}
	if cfg := d.Config(); cfg == nil || cfg.Size != uint32(len(image)) {
		t.Errorf("Config() = %+v", cfg)
	}
	if got := len(d.Packets()); got != 6 {
		t.Errorf("len(Packets()) = %d, want 6", got)
	}
}

func TestDeviceRejectsOutOfOrder(t *testing.T) {
	d := New()

	resp := send(t, d, mustPacket(protocol.BuildDataPacket([]byte{1, 2, 3})))
	if !protocol.IsProtocolError(protocol.ValidateResponse(resp)) {
		t.Errorf("DATA before CONF: response % X, want NACK", resp)
	}

	resp = send(t, d, mustPacket(protocol.BuildConfPacket(protocol.Version{}, []byte{1})))
	if !protocol.IsProtocolError(protocol.ValidateResponse(resp)) {
		t.Errorf("CONF before START: response % X, want NACK", resp)
	}
}

func TestDeviceRejectsCorruptData(t *testing.T) {
	d := New()
	send(t, d, mustPacket(protocol.BuildStartPacket()))
	send(t, d, mustPacket(protocol.BuildConfPacket(protocol.Version{}, []byte{1, 2, 3, 4})))

	pkt := mustPacket(protocol.BuildDataPacket([]byte{1, 2, 3, 4}))
	pkt.Payload[1] ^= 0xFF

	resp := send(t, d, pkt)
	if !protocol.IsProtocolError(protocol.ValidateResponse(resp)) {
		t.Errorf("corrupt DATA: response % X, want NACK", resp)
	}
}

func TestDeviceStopChecksImage(t *testing.T) {
	d := New()
	send(t, d, mustPacket(protocol.BuildStartPacket()))
	send(t, d, mustPacket(protocol.BuildConfPacket(protocol.Version{}, []byte{1, 2, 3, 4})))
	send(t, d, mustPacket(protocol.BuildDataPacket([]byte{1, 2})))

	resp := send(t, d, mustPacket(protocol.BuildStopPacket()))
	if !protocol.IsProtocolError(protocol.ValidateResponse(resp)) {
		t.Errorf("STOP with missing bytes: response % X, want NACK", resp)
	}
	if d.State() == StateComplete {
		t.Error("device completed with a partial image")
	}
}

func TestDeviceBadSOFResynchronises(t *testing.T) {
	d := New()
	d.Write([]byte{0xFF})

	start := mustPacket(protocol.BuildStartPacket())
	d.Write(start.Bytes())

	resp := make([]byte, 2*protocol.ResponseSize)
	n, err := d.Read(resp)
	if err != nil {
		t.Fatalf("Read() unexpected error: %v", err)
	}
	if n != 2*protocol.ResponseSize {
		t.Fatalf("Read() = %d bytes, want %d", n, 2*protocol.ResponseSize)
	}

	if !protocol.IsProtocolError(protocol.ValidateResponse(resp[:12])) {
		t.Errorf("garbage byte: response % X, want NACK", resp[:12])
	}
	if err := protocol.ValidateResponse(resp[12:]); err != nil {
		t.Errorf("START after garbage: %v", err)
	}
}

func TestDeviceFaults(t *testing.T) {
	tests := []struct {
		name    string
		fault   Fault
		wantErr error
		wantLen int
	}{
		{name: "bad sof", fault: FaultBadSOF, wantErr: protocol.ErrInvalidSOF, wantLen: 12},
		{name: "bad type", fault: FaultBadType, wantErr: protocol.ErrUnexpectedType, wantLen: 12},
		{name: "short", fault: FaultShort, wantErr: protocol.ErrShortFrame, wantLen: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(WithFault(0, tt.fault))
			resp := send(t, d, mustPacket(protocol.BuildStartPacket()))

			if len(resp) != tt.wantLen {
				t.Errorf("response length = %d, want %d", len(resp), tt.wantLen)
			}
			if err := protocol.ValidateResponse(resp); !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateResponse() = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("nack", func(t *testing.T) {
		d := New(WithFault(0, FaultNack))
		resp := send(t, d, mustPacket(protocol.BuildStartPacket()))
		if !protocol.IsProtocolError(protocol.ValidateResponse(resp)) {
			t.Errorf("response % X, want NACK", resp)
		}
		if d.State() != StateReset {
			t.Errorf("State() = %s, want %s", d.State(), StateReset)
		}
	})

	t.Run("silent", func(t *testing.T) {
		d := New(WithFault(0, FaultSilent))
		pkt := mustPacket(protocol.BuildStartPacket())
		d.Write(pkt.Bytes())

		_, err := d.Read(make([]byte, protocol.ResponseSize))
		var te interface{ Timeout() bool }
		if !errors.As(err, &te) || !te.Timeout() {
			t.Errorf("Read() error = %v, want a timeout", err)
		}
	})
}
