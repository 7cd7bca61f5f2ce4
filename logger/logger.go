// Package logger builds the zap.Logger used throughout the pipeline engine.
package logger

import (
	"io"
	"time"

	logfmt "github.com/jsternberg/zap-logfmt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls the logger's output format and level. It is embedded in
// configfile.Config and carries the same toml tags the teacher's own
// logger.Config uses.
type Config struct {
	Format string        `toml:"format"`
	Level  zapcore.Level `toml:"level"`
}

// NewConfig returns a Config with defaults: logfmt output at info level.
func NewConfig() Config {
	return Config{Format: "logfmt", Level: zapcore.InfoLevel}
}

// New builds a *zap.Logger writing to w according to cfg.Format ("json",
// "logfmt", or "auto", which behaves like "logfmt").
func New(w io.Writer, cfg Config) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = func(ts time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(ts.UTC().Format(time.RFC3339))
	}
	encCfg.EncodeDuration = func(d time.Duration, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(d.String())
	}

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "json":
		encoder = zapcore.NewJSONEncoder(encCfg)
	default:
		encoder = logfmt.NewEncoder(encCfg)
	}

	return zap.New(zapcore.NewCore(
		encoder,
		zapcore.Lock(zapcore.AddSync(w)),
		cfg.Level,
	))
}
