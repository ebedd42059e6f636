// Command sbpflash uploads a firmware image to an SBP bootloader over a
// serial port.
//
// Usage:
//
//	sbpflash [flags] <firmware.bin> <MAJOR.MINOR.PATCH>
//	sbpflash -list
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/moffa90/go-sbp/bootloader"
	"github.com/moffa90/go-sbp/emulator"
	"github.com/moffa90/go-sbp/firmware"
	"github.com/moffa90/go-sbp/protocol"
	"github.com/moffa90/go-sbp/serial"
)

// options holds the parsed command line.
type options struct {
	Port         string
	BaudRate     int
	Timeout      time.Duration
	HeaderSettle time.Duration
	PhaseSettle  time.Duration
	ChunkSettle  time.Duration
	DryRun       bool
	List         bool
	Verbose      bool

	FirmwarePath string
	Version      string
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}

	fs := flag.NewFlagSet("sbpflash", flag.ContinueOnError)
	fs.StringVar(&opts.Port, "port", "/dev/ttyUSB0", "serial device of the bootloader")
	fs.IntVar(&opts.BaudRate, "baud", serial.DefaultBaudRate, "serial baud rate")
	fs.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "response read timeout")
	fs.DurationVar(&opts.HeaderSettle, "header-settle", 100*time.Millisecond, "pause between a packet header and its payload")
	fs.DurationVar(&opts.PhaseSettle, "phase-settle", 2*time.Second, "pause before CONF, the first DATA and STOP")
	fs.DurationVar(&opts.ChunkSettle, "chunk-settle", time.Second, "pause between a DATA packet and reading its response")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "run against an in-memory emulated bootloader instead of -port")
	fs.BoolVar(&opts.List, "list", false, "print the serial ports found on this host and exit")
	fs.BoolVar(&opts.Verbose, "v", false, "enable debug logging")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: sbpflash [flags] <firmware.bin> <MAJOR.MINOR.PATCH>\n\nFlags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.List {
		return opts, nil
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return nil, errors.New("expected firmware path and version")
	}
	opts.FirmwarePath = fs.Arg(0)
	opts.Version = fs.Arg(1)

	// Reject a bad version before any device is opened.
	if _, err := protocol.ParseVersion(opts.Version); err != nil {
		return nil, err
	}

	// An emulated device needs no settle time unless asked for explicitly.
	if opts.DryRun {
		set := make(map[string]bool)
		fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
		if !set["header-settle"] {
			opts.HeaderSettle = 0
		}
		if !set["phase-settle"] {
			opts.PhaseSettle = 0
		}
		if !set["chunk-settle"] {
			opts.ChunkSettle = 0
		}
	}

	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "sbpflash: %v\n", err)
		os.Exit(1)
	}

	if opts.List {
		if err := listPorts(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "sbpflash: %v\n", err)
			os.Exit(1)
		}
		return
	}

	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		log.Error().Err(err).Msg("Programming failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *options) error {
	img, err := firmware.Load(opts.FirmwarePath)
	if err != nil {
		return err
	}

	log.Info().
		Str("file", opts.FirmwarePath).
		Int("size", img.Size()).
		Int("chunks", img.NumChunks()).
		Str("crc", fmt.Sprintf("0x%08X", img.Checksum())).
		Msg("Firmware loaded")

	device, closeDevice, err := openDevice(opts)
	if err != nil {
		return err
	}
	defer closeDevice()

	prog := bootloader.New(device,
		bootloader.WithLogger(bootloader.NewZerologLogger(log.Logger)),
		bootloader.WithReadTimeout(opts.Timeout),
		bootloader.WithSettleDelays(opts.HeaderSettle, opts.PhaseSettle, opts.ChunkSettle),
		bootloader.WithProgressCallback(func(p bootloader.Progress) {
			log.Debug().
				Str("session", p.SessionID).
				Stringer("phase", p.Phase).
				Int("chunk", p.CurrentChunk).
				Int("chunks", p.TotalChunks).
				Float64("percent", p.Percentage).
				Msg("Progress")
		}),
	)

	start := time.Now()
	if err := prog.Program(ctx, img, opts.Version); err != nil {
		return err
	}

	log.Info().
		Dur("elapsed", time.Since(start)).
		Str("version", opts.Version).
		Msg("Programming complete")
	return nil
}

// listPorts writes one serial device path per line.
func listPorts(w io.Writer) error {
	ports, err := serial.ListPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		_, err := fmt.Fprintln(w, "no serial ports found")
		return err
	}
	for _, port := range ports {
		if _, err := fmt.Fprintln(w, port); err != nil {
			return err
		}
	}
	return nil
}

// openDevice returns the serial port, or an emulated bootloader for -dry-run.
func openDevice(opts *options) (io.ReadWriter, func(), error) {
	if opts.DryRun {
		log.Warn().Msg("Dry run: using emulated bootloader")
		return emulator.New(), func() {}, nil
	}

	port, err := serial.Open(serial.Config{
		Device:      opts.Port,
		BaudRate:    opts.BaudRate,
		ReadTimeout: opts.Timeout,
	})
	if err != nil {
		return nil, nil, err
	}

	// Drop anything the device sent before we were listening.
	if err := port.Flush(); err != nil {
		log.Warn().Err(err).Msg("Failed to flush serial buffers")
	}

	log.Info().Str("port", port.Device()).Int("baud", opts.BaudRate).Msg("Serial port open")
	return port, func() { port.Close() }, nil
}
