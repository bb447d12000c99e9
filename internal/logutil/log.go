package logutil

import (
	"sync/atomic"

	"github.com/pingcap/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// DefaultLogLevel is the level used when neither a flag nor a project file sets one.
	DefaultLogLevel = "warn"
	// DefaultLogFormat is the default format of the log.
	DefaultLogFormat = "text"
)

// LogConfig serializes log related config in toml.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewLogConfig creates a LogConfig. Empty values fall back to the defaults.
func NewLogConfig(level, format string) *LogConfig {
	if level == "" {
		level = DefaultLogLevel
	}
	if format == "" {
		format = DefaultLogFormat
	}
	return &LogConfig{
		Level:  level,
		Format: format,
	}
}

var (
	globalLogger atomic.Pointer[zap.Logger]
	globalLevel  = zap.NewAtomicLevelAt(zapcore.WarnLevel)
)

func init() {
	globalLogger.Store(zap.NewNop())
}

// InitLogger initializes the global logger with cfg. The log is written to stderr so that it never mixes
// with the output of a command.
func InitLogger(cfg *LogConfig, opts ...zap.Option) error {
	lg, err := newLogger(cfg, opts...)
	if err != nil {
		return errors.Trace(err)
	}
	globalLogger.Store(lg)
	return nil
}

func newLogger(cfg *LogConfig, opts ...zap.Option) (*zap.Logger, error) {
	if err := globalLevel.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, errors.Annotatef(err, "invalid log level %q", cfg.Level)
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg := zap.Config{
		Level:             globalLevel,
		Encoding:          "console",
		EncoderConfig:     encCfg,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: true,
	}
	switch cfg.Format {
	case "text":
	case "json":
		zcfg.Encoding = "json"
		zcfg.EncoderConfig = zap.NewProductionEncoderConfig()
	default:
		return nil, errors.Errorf("unsupported log format %q", cfg.Format)
	}

	opts = append(opts, zap.AddStacktrace(zapcore.FatalLevel))
	lg, err := zcfg.Build(opts...)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return lg, nil
}

// SetLevel sets the level of the global logger.
func SetLevel(level string) error {
	l := zap.NewAtomicLevel()
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return errors.Trace(err)
	}
	globalLevel.SetLevel(l.Level())
	return nil
}

// BgLogger returns the global logger. It discards everything until InitLogger is called.
func BgLogger() *zap.Logger {
	return globalLogger.Load()
}
