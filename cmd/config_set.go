package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hpkotak/askcmd/internal/config"
)

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Update a configuration value",
	Long: `Update a configuration value. Supported keys:
  provider         LLM provider (openai/openai-chat/ollama/afm)
  model            Model name (e.g., gpt-5-nano, llama3.2:latest)
  openai.host      OpenAI or OpenAI-compatible API base URL
  ollama.host      Ollama server URL
  afm.command      AFM bridge executable path
  request_timeout  Per-request timeout (e.g., 30s, 2m)`,
	Args: cobra.ArbitraryArgs,
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configSetCmd)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if len(args) != 2 {
		return runAsQuery(cmd, args)
	}
	key, value := args[0], args[1]

	cfg, err := config.Load()
	if err != nil {
		if !errors.Is(err, config.ErrNotFound) {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = config.Default()
	}

	switch key {
	case "provider":
		cfg.Provider = strings.TrimSpace(value)
		applyProviderDefaults(cfg)
	case "model":
		value = strings.TrimSpace(value)
		if value == "" {
			return fmt.Errorf("model cannot be empty")
		}
		cfg.Model = value
	case "ollama.host":
		if _, err := url.ParseRequestURI(value); err != nil {
			return fmt.Errorf("invalid URL %q: %w", value, err)
		}
		cfg.Ollama.Host = value
	case "openai.host":
		if _, err := url.ParseRequestURI(value); err != nil {
			return fmt.Errorf("invalid URL %q: %w", value, err)
		}
		cfg.OpenAI.Host = value
	case "afm.command":
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("afm command cannot be empty")
		}
		cfg.AFM.Command = value
	case "request_timeout":
		d, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		if d <= 0 {
			return fmt.Errorf("request_timeout must be positive")
		}
		cfg.RequestTimeout = d
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := config.Save(cfg); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(ioOut, "Set %s = %s\n", key, value)
	return nil
}

func applyProviderDefaults(cfg *config.Config) {
	defaults := config.Default()
	switch cfg.Provider {
	case "ollama":
		if strings.TrimSpace(cfg.Ollama.Host) == "" {
			cfg.Ollama.Host = defaults.Ollama.Host
		}
	case "openai", "openai-chat":
		if strings.TrimSpace(cfg.OpenAI.Host) == "" {
			cfg.OpenAI.Host = defaults.OpenAI.Host
		}
	case "afm":
		if strings.TrimSpace(cfg.AFM.Command) == "" {
			cfg.AFM.Command = defaults.AFM.Command
		}
	}
}
