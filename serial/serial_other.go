//go:build !linux && !darwin

package serial

import "time"

// Port is unavailable on this platform; Open always fails.
type Port struct{}

// ListPorts returns ErrUnsupported on this platform.
func ListPorts() ([]string, error) { return nil, ErrUnsupported }

// Open returns ErrUnsupported on this platform.
func Open(cfg Config) (*Port, error) {
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return nil, ErrUnsupported
}

func (p *Port) Read([]byte) (int, error) { return 0, ErrUnsupported }
func (p *Port) Write([]byte) (int, error) { return 0, ErrUnsupported }
func (p *Port) Close() error { return nil }
func (p *Port) Device() string { return "" }
func (p *Port) SetReadTimeout(time.Duration) {}
func (p *Port) SetReadDeadline(time.Time) error { return ErrUnsupported }
func (p *Port) Flush() error { return ErrUnsupported }
