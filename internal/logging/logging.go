// Package logging builds the diagnostic logger used across lore.
// Lore is a CLI that other tools call from hooks, so the logger writes to a
// file under the data directory rather than polluting stdout, which carries
// command output.
package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FileName is the diagnostic log file inside the logs directory.
const FileName = "lore.log"

// New returns a file-backed logger rooted at dir. Verbose lowers the level
// to debug. If the directory cannot be created the logger degrades to a
// no-op rather than failing the command.
func New(dir string, verbose bool) *zap.Logger {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return zap.NewNop()
	}

	f, err := os.OpenFile(filepath.Join(dir, FileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zap.NewNop()
	}

	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.Lock(f), level)
	return zap.New(core)
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger {
	return zap.NewNop()
}
