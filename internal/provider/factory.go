package provider

import (
	"fmt"
	"strings"
	"time"
)

// BuildConfig contains provider-specific runtime settings used by the factory.
type BuildConfig struct {
	Name       string
	Model      string
	APIKey     string
	OpenAIHost string
	OllamaHost string
	AFMCommand string
	Timeout    time.Duration
}

// RequiresAPIKey reports whether the named provider needs an API credential.
func RequiresAPIKey(name string) bool {
	switch normalizeName(name) {
	case "openai", "openai-chat":
		return true
	default:
		return false
	}
}

// NewFromConfig builds the configured provider implementation.
func NewFromConfig(cfg BuildConfig) (Provider, error) {
	switch normalizeName(cfg.Name) {
	case "openai":
		return NewOpenAI(cfg.OpenAIHost, cfg.Model, cfg.APIKey, cfg.Timeout)
	case "openai-chat":
		return NewChat(cfg.OpenAIHost, cfg.Model, cfg.APIKey, cfg.Timeout)
	case "ollama":
		return NewOllama(cfg.OllamaHost, cfg.Model, cfg.Timeout)
	case "afm":
		return NewAFM(cfg.Model, cfg.AFMCommand)
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Name)
	}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
