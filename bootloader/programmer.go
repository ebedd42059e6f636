package bootloader

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/moffa90/go-sbp/firmware"
	"github.com/moffa90/go-sbp/protocol"
)

// Programmer drives SBP transfers to a bootloader over a byte-stream transport.
//
// A Programmer owns its device for the duration of Program and must not be
// used for more than one transfer at a time.
type Programmer struct {
	device io.ReadWriter
	config Config
}

// transfer is the mutable state of one Program call.
type transfer struct {
	id      ulid.ULID
	image   *firmware.Image
	version protocol.Version
	state   State
	start   time.Time
	written int
}

// New creates a new Programmer with the given device and options.
// The device must implement io.ReadWriter; its lifecycle stays with the caller.
//
// Example:
//
//	port, _ := serial.Open(serial.Config{Device: "/dev/ttyUSB0", BaudRate: 115200})
//	defer port.Close()
//	prog := bootloader.New(port,
//	    bootloader.WithProgressCallback(progressFunc),
//	    bootloader.WithReadTimeout(30*time.Second),
//	)
func New(device io.ReadWriter, opts ...Option) *Programmer {
	if device == nil {
		panic("device cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Programmer{
		device: device,
		config: cfg,
	}
}

// Program performs the complete transfer sequence:
//  1. START, gated by ACK
//  2. CONF with version, image size and image checksum, gated by ACK
//  3. one DATA packet per 1024-byte window, each gated by ACK
//  4. STOP, gated by ACK
//
// The version string must have at most four dot-separated components, each
// fitting in one byte; it is validated before anything is written. The first
// failure aborts the transfer and is returned as a *TransferError.
//
// Example:
//
//	img, _ := firmware.Load("app.bin")
//	err := prog.Program(context.Background(), img, "1.2.3")
func (p *Programmer) Program(ctx context.Context, img *firmware.Image, version string) error {
	if img == nil {
		return inputError(errors.New("firmware image cannot be nil"))
	}
	if img.Size() == 0 {
		return inputError(firmware.ErrEmptyImage)
	}

	v, err := protocol.ParseVersion(version)
	if err != nil {
		return inputError(err)
	}

	id, err := ulid.New(ulid.Now(), rand.Reader)
	if err != nil {
		return fmt.Errorf("session id: %w", err)
	}

	t := &transfer{
		id:      id,
		image:   img,
		version: v,
		state:   NewState(img.NumChunks()),
		start:   time.Now(),
	}

	if rt, ok := p.device.(interface{ SetReadTimeout(time.Duration) }); ok {
		rt.SetReadTimeout(p.config.ReadTimeout)
	}

	p.logInfo("transfer starting",
		"session", t.id.String(),
		"size", img.Size(),
		"chunks", img.NumChunks(),
		"crc", fmt.Sprintf("0x%08X", img.Checksum()),
		"version", v.String(),
	)

	ev := Event{Kind: EventBegin}
	for {
		var eff Effect
		t.state, eff = Next(t.state, ev)
		if t.state.Phase.Terminal() {
			break
		}

		p.reportProgress(t.progress())
		ev = p.perform(ctx, t, eff)
	}

	if t.state.Phase == PhaseFailed {
		p.logError("transfer failed",
			"session", t.id.String(),
			"error", t.state.Err.Error(),
		)
		return t.state.Err
	}

	p.reportProgress(t.progress())
	p.logInfo("transfer complete",
		"session", t.id.String(),
		"chunks", t.state.Chunks,
		"bytes", t.written,
		"elapsed", time.Since(t.start).String(),
	)

	return nil
}

// perform executes eff for the state just entered and returns the resulting event.
func (p *Programmer) perform(ctx context.Context, t *transfer, eff Effect) Event {
	s := t.state

	if err := ctx.Err(); err != nil {
		return t.failure(KindCanceled, err)
	}

	if eff.PhasePause {
		if err := p.settle(ctx, p.config.PhaseSettle); err != nil {
			return t.failure(KindCanceled, err)
		}
	}

	if eff.Emit != EmitNone {
		pkt, err := t.packet(eff)
		if err != nil {
			return t.failure(KindInput, err)
		}

		p.logDebug("sending packet",
			"session", t.id.String(),
			"type", pkt.Header.Type.String(),
			"length", pkt.Header.Length,
			"payload", len(pkt.Payload),
		)

		if err := p.writePacket(ctx, pkt); err != nil {
			if ctx.Err() != nil {
				return t.failure(KindCanceled, err)
			}
			return t.failure(KindTransport, err)
		}
	}

	if !eff.Await {
		return Event{Kind: EventSent}
	}

	if eff.ChunkPause {
		if err := p.settle(ctx, p.config.ChunkSettle); err != nil {
			return t.failure(KindCanceled, err)
		}
	}

	if kind, err := p.awaitAck(awaitedPacket(s.Phase)); err != nil {
		return t.failure(kind, err)
	}

	if s.Phase == PhaseAwaitChunkAck {
		t.written += len(t.image.Chunk(s.Chunk))
	}

	return Event{Kind: EventAck}
}

// packet builds the packet selected by eff.
func (t *transfer) packet(eff Effect) (*protocol.Packet, error) {
	switch eff.Emit {
	case EmitStart:
		return protocol.BuildStartPacket()
	case EmitConfig:
		return protocol.BuildConfPacket(t.version, t.image.Data())
	case EmitChunk:
		return protocol.BuildDataPacket(t.image.Chunk(eff.Chunk))
	case EmitStop:
		return protocol.BuildStopPacket()
	default:
		return nil, fmt.Errorf("%w: emit %s", ErrInvalidTransition, eff.Emit)
	}
}

// failure wraps err in a TransferError for the current phase.
func (t *transfer) failure(kind Kind, err error) Event {
	chunk := -1
	if t.state.Phase == PhaseSendingChunk || t.state.Phase == PhaseAwaitChunkAck {
		chunk = t.state.Chunk
	}
	return Event{
		Kind: EventFailure,
		Err: &TransferError{
			Phase: t.state.Phase,
			Chunk: chunk,
			Kind:  kind,
			Err:   err,
		},
	}
}

// progress snapshots the transfer for ProgressCallback.
func (t *transfer) progress() Progress {
	s := t.state
	acked := 0
	pct := 0.0

	switch s.Phase {
	case PhaseAwaitConfigAck:
		pct = 2
	case PhaseSendingChunk, PhaseAwaitChunkAck:
		acked = s.Chunk
		pct = 5 + float64(acked)/float64(s.Chunks)*90
	case PhaseAwaitStopAck:
		acked = s.Chunks
		pct = 95
	case PhaseDone:
		acked = s.Chunks
		pct = 100
	}

	return Progress{
		SessionID:    t.id.String(),
		Phase:        s.Phase,
		CurrentChunk: acked,
		TotalChunks:  s.Chunks,
		Percentage:   pct,
		BytesWritten: t.written,
		ElapsedTime:  time.Since(t.start),
	}
}

// writePacket writes the header, waits HeaderSettle, then writes the payload.
func (p *Programmer) writePacket(ctx context.Context, pkt *protocol.Packet) error {
	if err := p.write(pkt.HeaderBytes()); err != nil {
		return fmt.Errorf("write %s header: %w", pkt.Header.Type, err)
	}

	if err := p.settle(ctx, p.config.HeaderSettle); err != nil {
		return err
	}

	if err := p.write(pkt.Payload); err != nil {
		return fmt.Errorf("write %s payload: %w", pkt.Header.Type, err)
	}

	return nil
}

func (p *Programmer) write(b []byte) error {
	n, err := p.device.Write(b)
	if err != nil {
		return err
	}
	if n < len(b) {
		return io.ErrShortWrite
	}
	return nil
}

// awaitedPacket is the packet whose response phase ph waits for.
func awaitedPacket(ph Phase) protocol.PacketType {
	switch ph {
	case PhaseAwaitStartAck:
		return protocol.TypeStart
	case PhaseAwaitConfigAck:
		return protocol.TypeConf
	case PhaseAwaitStopAck:
		return protocol.TypeStop
	default:
		return protocol.TypeData
	}
}

// awaitAck reads exactly one response frame and validates it as the reply
// to sent.
func (p *Programmer) awaitAck(sent protocol.PacketType) (Kind, error) {
	if rd, ok := p.device.(interface{ SetReadDeadline(time.Time) error }); ok {
		if err := rd.SetReadDeadline(time.Now().Add(p.config.ReadTimeout)); err != nil {
			return KindTransport, fmt.Errorf("set read deadline: %w", err)
		}
	}

	frame := make([]byte, protocol.ResponseSize)
	if _, err := io.ReadFull(p.device, frame); err != nil {
		return readError(err)
	}

	if err := protocol.ValidateResponseFor(sent, frame); err != nil {
		return responseError(err), err
	}

	p.logDebug("response ok", "frame", fmt.Sprintf("% X", frame))
	return 0, nil
}

// settle blocks for d or until ctx is done. The pauses are required by the
// device and are never skipped for a positive d.
func (p *Programmer) settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// reportProgress calls the progress callback if configured.
func (p *Programmer) reportProgress(progress Progress) {
	if p.config.ProgressCallback != nil {
		p.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (p *Programmer) logDebug(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (p *Programmer) logInfo(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (p *Programmer) logError(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Error(msg, keysAndValues...)
	}
}
