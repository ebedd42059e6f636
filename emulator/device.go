package emulator

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/moffa90/go-sbp/protocol"
)

// ErrNoResponse is returned by Read when no response is pending.
// It reports Timeout() == true, like a serial read that timed out.
var ErrNoResponse error = timeoutError{}

type timeoutError struct{}

func (timeoutError) Error() string { return "emulator: no response pending" }
func (timeoutError) Timeout() bool { return true }

// State is the receiver state of the simulated bootloader.
type State int

const (
	StateReset State = iota
	StateStarted
	StateConfigured
	StateReceiving
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateReset:
		return "reset"
	case StateStarted:
		return "started"
	case StateConfigured:
		return "configured"
	case StateReceiving:
		return "receiving"
	case StateComplete:
		return "complete"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Fault alters how the device answers one packet.
type Fault int

const (
	FaultNone Fault = iota

	// FaultNack rejects the packet without processing it
	FaultNack

	// FaultBadSOF corrupts the SOF byte of the response
	FaultBadSOF

	// FaultBadType corrupts the type byte of the response
	FaultBadType

	// FaultShort sends only the first half of the response
	FaultShort

	// FaultSilent sends no response at all
	FaultSilent
)

// Device simulates an SBP bootloader behind an io.ReadWriter.
// Bytes written by the host are reassembled into packets; each complete
// packet queues one RESP frame for Read.
//
// Device is safe for concurrent use.
type Device struct {
	mu      sync.Mutex
	in      []byte
	out     bytes.Buffer
	state   State
	config  *protocol.Config
	image   []byte
	packets []protocol.Packet
	faults  map[int]Fault
}

// Option configures a Device.
type Option func(*Device)

// WithFault applies f to the response of the n-th packet (0-based, counted
// across the whole session: START is 0, CONF is 1, the first DATA is 2).
func WithFault(n int, f Fault) Option {
	return func(d *Device) {
		d.faults[n] = f
	}
}

// New creates a Device in the reset state.
func New(opts ...Option) *Device {
	d := &Device{faults: make(map[int]Fault)}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Write feeds host bytes into the receiver. It never fails.
func (d *Device) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.in = append(d.in, p...)
	d.process()
	return len(p), nil
}

// Read returns pending response bytes, or ErrNoResponse if there are none.
func (d *Device) Read(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.out.Len() == 0 {
		return 0, ErrNoResponse
	}
	return d.out.Read(p)
}

// process consumes every complete packet in the input buffer.
func (d *Device) process() {
	for len(d.in) >= protocol.HeaderSize {
		hdr, err := protocol.DecodeHeader(d.in)
		if err != nil {
			// Resynchronise on the next byte, as the firmware does.
			d.in = d.in[1:]
			d.respond(-1, protocol.NACK)
			continue
		}

		size, err := protocol.PayloadSize(hdr)
		if err != nil || hdr.Type == protocol.TypeResp {
			d.in = d.in[protocol.HeaderSize:]
			d.respond(-1, protocol.NACK)
			continue
		}

		total := protocol.HeaderSize + size
		if len(d.in) < total {
			return
		}

		payload := append([]byte(nil), d.in[protocol.HeaderSize:total]...)
		d.in = d.in[total:]

		n := len(d.packets)
		d.packets = append(d.packets, protocol.Packet{Header: hdr, Payload: payload})

		code := byte(protocol.NACK)
		if d.faults[n] != FaultNack {
			code = d.handle(hdr, payload)
		}
		d.respond(n, code)
	}
}

// handle applies one packet to the receiver state and returns the response code.
func (d *Device) handle(hdr protocol.Header, payload []byte) byte {
	switch hdr.Type {
	case protocol.TypeStart:
		d.state = StateStarted
		d.config = nil
		d.image = nil
		return protocol.ACK

	case protocol.TypeConf:
		if d.state != StateStarted {
			return protocol.NACK
		}
		if hdr.Length < protocol.ConfLength {
			return protocol.NACK
		}
		cfg, err := protocol.ParseConfPayload(payload)
		if err != nil {
			return protocol.NACK
		}
		d.config = cfg
		d.image = make([]byte, 0, cfg.Size)
		d.state = StateConfigured
		return protocol.ACK

	case protocol.TypeData:
		if d.state != StateConfigured && d.state != StateReceiving {
			return protocol.NACK
		}
		chunk, err := protocol.ParseDataPayload(payload)
		if err != nil {
			return protocol.NACK
		}
		if uint64(len(d.image))+uint64(len(chunk)) > uint64(d.config.Size) {
			return protocol.NACK
		}
		d.image = append(d.image, chunk...)
		d.state = StateReceiving
		return protocol.ACK

	case protocol.TypeStop:
		if d.state != StateConfigured && d.state != StateReceiving {
			return protocol.NACK
		}
		if err := d.verify(); err != nil {
			return protocol.NACK
		}
		d.state = StateComplete
		return protocol.ACK
	}

	return protocol.NACK
}

// verify checks the reassembled image against the CONF description.
func (d *Device) verify() error {
	if uint64(len(d.image)) != uint64(d.config.Size) {
		return fmt.Errorf("received %d bytes, configured %d", len(d.image), d.config.Size)
	}
	if crc := protocol.Checksum(d.image); crc != d.config.Checksum {
		return errors.New("image checksum mismatch")
	}
	return nil
}

// respond queues the response frame for packet n, applying any fault.
func (d *Device) respond(n int, code byte) {
	frame := protocol.BuildResponse(code)

	switch d.faults[n] {
	case FaultBadSOF:
		frame[protocol.HeaderSOFOffset] = 0x00
	case FaultBadType:
		frame[protocol.HeaderTypeOffset] = byte(protocol.TypeData)
	case FaultShort:
		frame = frame[:protocol.ResponseSize/2]
	case FaultSilent:
		return
	}

	d.out.Write(frame)
}

// Packets returns the packets received so far, in order.
func (d *Device) Packets() []protocol.Packet {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]protocol.Packet(nil), d.packets...)
}

// Image returns a copy of the image bytes received so far.
func (d *Device) Image() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.image...)
}

// Config returns the last accepted CONF description, or nil.
func (d *Device) Config() *protocol.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.config == nil {
		return nil
	}
	cfg := *d.config
	return &cfg
}

// State returns the current receiver state.
func (d *Device) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}
