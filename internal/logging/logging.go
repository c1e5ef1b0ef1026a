// Package logging builds the debug logger. Logging is off unless asked for;
// when on, JSON lines are appended to a file so they never mix with the
// terminal output of an interactive run.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hpkotak/askcmd/internal/config"
)

// EnvDebug enables debug logging without the --debug flag.
const EnvDebug = "ASKCMD_DEBUG"

// Path returns the debug log path (~/.askcmd/debug.log).
func Path() string {
	return filepath.Join(config.Dir(), "debug.log")
}

// Enabled reports whether debug logging is requested by flag or environment.
func Enabled(flag bool, lookupEnv func(string) (string, bool)) bool {
	if flag {
		return true
	}
	v, _ := lookupEnv(EnvDebug)
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// New returns a no-op logger when debug is false. Otherwise it appends JSON
// entries to path, each tagged with a per-run id. The returned close func
// flushes and closes the file.
func New(debug bool, path string) (*zap.Logger, func(), error) {
	if !debug {
		return zap.NewNop(), func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, fmt.Errorf("creating log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening debug log: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.AddSync(f),
		zap.DebugLevel,
	)

	logger := zap.New(core).With(zap.String("run", uuid.NewString()))
	closeFn := func() {
		_ = logger.Sync()
		_ = f.Close()
	}
	return logger, closeFn, nil
}
