// Package bootloader provides a high-level API for pushing firmware images to
// an SBP (Serial Bootloader Protocol) bootloader.
//
// # Overview
//
// This package orchestrates the complete transfer sequence:
//   - START, acknowledged by the device
//   - CONF describing version, image size and image checksum
//   - DATA packets carrying 1024-byte windows of the image, each acknowledged
//   - STOP, acknowledged by the device
//
// Every step is gated by a validated ACK. The first failure aborts the
// transfer; nothing is retried.
//
// # Basic Usage
//
//	port, err := serial.Open(serial.Config{Device: "/dev/ttyUSB0", BaudRate: 115200})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	img, err := firmware.Load("app.bin")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	prog := bootloader.New(port)
//	if err := prog.Program(context.Background(), img, "1.2.3"); err != nil {
//	    log.Fatal(err)
//	}
//
// # State Machine
//
// The sequence is an explicit state machine. Next is a pure transition
// function returning the new State and the Effect to perform:
//
//	Idle -> AwaitStartAck -> AwaitConfigAck -> SendingChunk(i) -> AwaitChunkAck(i)
//	     -> ... -> AwaitStopAck -> Done
//
// Any failure moves to Failed. Program is a loop that performs each Effect
// against the device and feeds the outcome back as an Event.
//
// # Settle Delays
//
// The device needs real-time pauses while it processes packets:
//   - HeaderSettle (100ms) between a header and its payload
//   - PhaseSettle (2s) before CONF, the first DATA and STOP
//   - ChunkSettle (1s) between a DATA packet and reading its response
//
// They are configurable for tuning and tests:
//
//	prog := bootloader.New(device, bootloader.WithSettleDelays(0, 0, 0))
//
// # Logging
//
// Pass any Logger implementation, or adapt zerolog:
//
//	logger := zerolog.New(os.Stderr)
//	prog := bootloader.New(device, bootloader.WithLogger(bootloader.NewZerologLogger(logger)))
//
// # Error Handling
//
// Program returns a *TransferError naming the failed phase and a Kind:
//   - KindTransport: write or read failure, including ErrTimeout
//   - KindProtocol: bad SOF, wrong packet type, incomplete response
//   - KindRejected: the device answered NACK (wraps *protocol.ProtocolError)
//   - KindInput: malformed version string or empty image
//   - KindCanceled: the context was canceled
//
//	if bootloader.IsKind(err, bootloader.KindRejected) {
//	    // device refused the image
//	}
//
// # Hardware Independence
//
// The device is any io.ReadWriter. If it also implements
// SetReadTimeout(time.Duration) or SetReadDeadline(time.Time) error, the
// configured read timeout is applied to it.
package bootloader
