package bootloader

import "github.com/rs/zerolog"

// zerologLogger adapts zerolog to the Logger interface.
type zerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger returns a Logger that writes key-value pairs as
// structured zerolog fields.
//
// Example:
//
//	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
//	prog := bootloader.New(device, bootloader.WithLogger(bootloader.NewZerologLogger(logger)))
func NewZerologLogger(l zerolog.Logger) Logger {
	return &zerologLogger{log: l}
}

func (z *zerologLogger) Debug(msg string, kv ...interface{}) {
	z.log.Debug().Fields(kv).Msg(msg)
}

func (z *zerologLogger) Info(msg string, kv ...interface{}) {
	z.log.Info().Fields(kv).Msg(msg)
}

func (z *zerologLogger) Error(msg string, kv ...interface{}) {
	z.log.Error().Fields(kv).Msg(msg)
}
