package bootloader

import "time"

// Config holds the programmer configuration.
type Config struct {
	// ProgressCallback is called during the transfer to report progress (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// ReadTimeout bounds each response read. It is applied to transports
	// exposing SetReadTimeout or SetReadDeadline.
	ReadTimeout time.Duration

	// HeaderSettle is the pause between writing a header and its payload
	HeaderSettle time.Duration

	// PhaseSettle is the pause before CONF, the first DATA and STOP,
	// giving the device time to erase and prepare flash
	PhaseSettle time.Duration

	// ChunkSettle is the pause between writing a DATA packet and reading its response
	ChunkSettle time.Duration
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		ReadTimeout:  30 * time.Second,
		HeaderSettle: 100 * time.Millisecond,
		PhaseSettle:  2 * time.Second,
		ChunkSettle:  1 * time.Second,
	}
}

// Option is a functional option for configuring the Programmer.
type Option func(*Config)

// WithProgressCallback sets a callback function to track transfer progress.
//
// Example:
//
//	prog := bootloader.New(device,
//	    bootloader.WithProgressCallback(func(p bootloader.Progress) {
//	        fmt.Printf("%.1f%% complete\n", p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for the programmer operations.
//
// Example:
//
//	prog := bootloader.New(device, bootloader.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithReadTimeout sets the response read timeout.
//
// Example:
//
//	prog := bootloader.New(device, bootloader.WithReadTimeout(5*time.Second))
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.ReadTimeout = timeout
		}
	}
}

// WithHeaderSettle sets the pause between a header and its payload.
func WithHeaderSettle(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.HeaderSettle = d
		}
	}
}

// WithPhaseSettle sets the pause between protocol phases.
func WithPhaseSettle(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.PhaseSettle = d
		}
	}
}

// WithChunkSettle sets the pause between a DATA packet and its response read.
func WithChunkSettle(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.ChunkSettle = d
		}
	}
}

// WithSettleDelays sets all three settle delays at once.
// Tests against a simulated device typically pass zeros.
//
// Example:
//
//	prog := bootloader.New(device, bootloader.WithSettleDelays(0, 0, 0))
func WithSettleDelays(header, phase, chunk time.Duration) Option {
	return func(c *Config) {
		WithHeaderSettle(header)(c)
		WithPhaseSettle(phase)(c)
		WithChunkSettle(chunk)(c)
	}
}
