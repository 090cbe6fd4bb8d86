// Package logging emits the "[PYFLYBY] ..." action lines on stderr.
// Info lines announce what the tool decided to do ("import base64",
// "b64decode('...')"); --quiet suppresses them, --verbose adds debug.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Carreau/pyflyby/internal/config"
)

var (
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	logger = build(os.Stderr)
)

func build(w io.Writer) *zap.SugaredLogger {
	enc := zapcore.EncoderConfig{
		MessageKey:  "msg",
		LineEnding:  zapcore.DefaultLineEnding,
		EncodeLevel: func(zapcore.Level, zapcore.PrimitiveArrayEncoder) {},
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), level)
	return zap.New(core).Sugar()
}

// SetOutput redirects log output. Tests use this to capture lines.
func SetOutput(w io.Writer) {
	logger = build(w)
}

// SetQuiet suppresses info and warning lines, keeping errors.
func SetQuiet() { level.SetLevel(zapcore.ErrorLevel) }

// SetVerbose enables debug lines.
func SetVerbose() { level.SetLevel(zapcore.DebugLevel) }

// InfoEnabled reports whether info lines are currently emitted.
func InfoEnabled() bool { return level.Enabled(zapcore.InfoLevel) }

func prefixed(format string, args []any) string {
	return config.LogPrefix + " " + fmt.Sprintf(format, args...)
}

// Info logs an action line, e.g. `import strings` or the call being made.
func Info(format string, args ...any) {
	logger.Info(prefixed(format, args))
}

// Debug logs a diagnostic line shown only under --verbose.
func Debug(format string, args ...any) {
	logger.Debug(prefixed(format, args))
}

// Error logs an error line. Shown even under --quiet.
func Error(format string, args ...any) {
	logger.Error(prefixed(format, args))
}
