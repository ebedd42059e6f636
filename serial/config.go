// Package serial provides a raw 8N1 serial port transport for SBP bootloaders.
//
// A Port implements io.ReadWriter and the optional SetReadTimeout hook that
// bootloader.Programmer looks for, so it can be handed to bootloader.New
// directly:
//
//	port, err := serial.Open(serial.Config{Device: "/dev/ttyUSB0"})
//	if err != nil {
//	    return err
//	}
//	defer port.Close()
//
//	prog := bootloader.New(port)
package serial

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrClosed      = errors.New("serial: port closed")
	ErrUnsupported = errors.New("serial: platform not supported")

	// ErrTimeout is returned by Read when no byte arrives within the read
	// timeout. It reports Timeout() == true.
	ErrTimeout error = timeoutError{}
)

type timeoutError struct{}

func (timeoutError) Error() string { return "serial: read timed out" }
func (timeoutError) Timeout() bool { return true }

// Default link parameters
const (
	DefaultBaudRate    = 115200
	DefaultReadTimeout = 30 * time.Second
)

// Config holds serial port configuration.
type Config struct {
	// Device path (e.g., /dev/ttyUSB0, /dev/ttyACM0)
	Device string

	// Baud rate (default: 115200)
	BaudRate int

	// Read timeout for individual reads (default: 30 seconds)
	ReadTimeout time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		BaudRate:    DefaultBaudRate,
		ReadTimeout: DefaultReadTimeout,
	}
}

func (c *Config) applyDefaults() error {
	if c.Device == "" {
		return errors.New("serial: device path required")
	}
	if c.BaudRate == 0 {
		c.BaudRate = DefaultBaudRate
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	return nil
}
