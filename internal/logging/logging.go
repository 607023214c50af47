// Package logging builds the zap logger shared by the CLI and its components.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the logger output.
type Options struct {
	JSON    bool      // JSON lines instead of console text
	Verbose bool      // Debug level
	Quiet   bool      // discard everything
	Output  io.Writer // defaults to os.Stderr
}

// New builds a logger. Logs go to stderr so stdout stays free for
// command output.
func New(opts Options) *zap.Logger {
	if opts.Quiet {
		return zap.NewNop()
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	level := zapcore.InfoLevel
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if opts.JSON {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(out), level)
	return zap.New(core)
}
