// Package credentials resolves and stores the API key used by key-based
// providers. Environment variables take precedence over the stored file.
package credentials

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"github.com/hpkotak/askcmd/internal/config"
)

const (
	// EnvKey is the primary environment variable.
	EnvKey = "OPENAI_API_KEY"
	// LegacyEnvKey is still honored for older setups.
	LegacyEnvKey = "ASKCMD_API_KEY"
)

// MissingError reports that no credential could be resolved.
type MissingError struct {
	Message    string
	Suggestion string
}

func (e *MissingError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s. %s", e.Message, e.Suggestion)
	}
	return e.Message
}

func errMissing() *MissingError {
	return &MissingError{
		Message:    "no API key found",
		Suggestion: fmt.Sprintf("Run 'askcmd init' or set %s", EnvKey),
	}
}

// Path returns the credentials file path (~/.askcmd/credentials).
func Path() string {
	return filepath.Join(config.Dir(), "credentials")
}

// Resolve returns the first non-empty key from EnvKey, LegacyEnvKey and the
// credentials file, in that order. lookupEnv is usually os.LookupEnv.
func Resolve(lookupEnv func(string) (string, bool)) (string, error) {
	for _, name := range []string{EnvKey, LegacyEnvKey} {
		if v, ok := lookupEnv(name); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v, nil
			}
		}
	}

	key, err := Load()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", errMissing()
		}
		return "", err
	}
	if key == "" {
		return "", errMissing()
	}
	return key, nil
}

// Load reads the stored key. An empty file yields "".
func Load() (string, error) {
	data, err := os.ReadFile(Path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		return "", fmt.Errorf("reading credentials: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line, nil
		}
	}
	return "", nil
}

// Save stores key with owner-only permissions. Concurrent writers are
// serialized through a lock file next to the credentials file.
func Save(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("API key cannot be empty")
	}

	dir := config.Dir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	lock := flock.New(Path() + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("locking credentials: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(dir, "credentials-*")
	if err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.WriteString(key + "\n"); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing credentials: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	if err := os.Rename(tmp.Name(), Path()); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}
