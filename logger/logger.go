// Package logger defines the logging contract of socialkit.
//
// Every component writes (level, message, category) tuples through the
// Logger interface. The category is "{platform}/{operation}", so a sink
// can split output per platform or per flow. The default sink is Nop;
// hosts that want structured output can use Zap or plug their own.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log levels accepted by WriteLog.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Logger is the sink for all socialkit log output.
type Logger interface {
	WriteLog(level, message, category string)
}

// Nop discards everything. It is the default sink.
type Nop struct{}

func (Nop) WriteLog(level, message, category string) {}

// Zap writes through a zap logger with the category attached as a field.
type Zap struct {
	log *zap.Logger
}

// NewZap builds a production zap logger at the given level. An
// unparseable level falls back to info.
func NewZap(level string) (*Zap, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zap.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	log, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &Zap{log: log}, nil
}

// WrapZap adapts an existing zap logger the host already configured.
func WrapZap(log *zap.Logger) *Zap {
	return &Zap{log: log}
}

func (z *Zap) WriteLog(level, message, category string) {
	field := zap.String("category", category)
	switch level {
	case LevelDebug:
		z.log.Debug(message, field)
	case LevelWarn:
		z.log.Warn(message, field)
	case LevelError:
		z.log.Error(message, field)
	default:
		z.log.Info(message, field)
	}
}

// Sync flushes buffered entries.
func (z *Zap) Sync() error { return z.log.Sync() }
