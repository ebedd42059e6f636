package bootloader

import "time"

// Progress contains information about the transfer progress.
// Passed to ProgressCallback during a transfer.
type Progress struct {
	// SessionID identifies the transfer (ULID)
	SessionID string

	// Phase is the phase just entered:
	//   start         - START sent, awaiting ACK
	//   config        - CONF sent, awaiting ACK
	//   sending chunk - DATA being written
	//   chunk ack     - DATA sent, awaiting ACK
	//   stop          - STOP sent, awaiting ACK
	//   done          - transfer completed successfully
	Phase Phase

	// CurrentChunk is the number of chunks acknowledged so far
	CurrentChunk int

	// TotalChunks is the number of chunks in the image
	TotalChunks int

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// BytesWritten is the number of image bytes acknowledged so far
	BytesWritten int

	// ElapsedTime is the time elapsed since the transfer started
	ElapsedTime time.Duration
}

// ProgressCallback is called on every phase change to report progress.
// Implementations should return quickly; settle delays are timed around it.
//
// Example:
//
//	prog := bootloader.New(device,
//	    bootloader.WithProgressCallback(func(p bootloader.Progress) {
//	        fmt.Printf("[%s] %.1f%% - chunk %d/%d\n",
//	            p.Phase, p.Percentage, p.CurrentChunk, p.TotalChunks)
//	    }),
//	)
type ProgressCallback func(Progress)

// Logger is an optional logging interface that can be provided to the programmer.
// NewZerologLogger adapts a zerolog.Logger; any other framework can be
// plugged in the same way.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
