// Package setup implements `askcmd init`: storing an API key for key-based
// providers, or detecting and configuring a local backend. All actions
// require explicit user consent.
package setup

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"golang.org/x/term"

	"github.com/hpkotak/askcmd/internal/config"
	"github.com/hpkotak/askcmd/internal/credentials"
	"github.com/hpkotak/askcmd/internal/executor"
	"github.com/hpkotak/askcmd/internal/platform"
	"github.com/hpkotak/askcmd/internal/provider"
)

// Package-level function variables for testability.
var (
	lookPath     = exec.LookPath
	execCommand  = exec.Command
	platformOS   = platform.OS
	readPassword = term.ReadPassword
)

// Run executes the interactive init flow for providerName, or for the
// configured provider when providerName is empty.
// in and out are injectable for testability.
func Run(providerName string, in io.Reader, out io.Writer) error {
	_, _ = fmt.Fprintln(out, "askcmd init")
	_, _ = fmt.Fprintln(out, "===========")
	_, _ = fmt.Fprintf(out, "Platform: %s\n\n", platformOS())

	cfg, err := config.LoadOrDefault()
	if err != nil {
		return err
	}
	if providerName != "" {
		cfg.Provider = providerName
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	switch {
	case provider.RequiresAPIKey(cfg.Provider):
		if err := captureKey(in, out); err != nil {
			return err
		}
	case cfg.Provider == "ollama":
		model, err := configureOllama(cfg.Ollama.Host, in, out)
		if err != nil {
			return err
		}
		cfg.Model = model
	case cfg.Provider == "afm":
		if _, err := lookPath(cfg.AFM.Command); err != nil {
			return fmt.Errorf("afm bridge %q not found in PATH. Install it or run: askcmd config set afm.command <path>", cfg.AFM.Command)
		}
		_, _ = fmt.Fprintf(out, "[ok] Found %s\n", cfg.AFM.Command)
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	_, _ = fmt.Fprintf(out, "\nConfig saved to %s\n", config.Path())
	_, _ = fmt.Fprintln(out, "Ready! Try: askcmd list s3 buckets")
	return nil
}

func captureKey(in io.Reader, out io.Writer) error {
	_, _ = fmt.Fprint(out, "OpenAI API key: ")
	key, err := readSecret(in)
	_, _ = fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("reading API key: %w", err)
	}
	if key == "" {
		return fmt.Errorf("no API key entered")
	}

	if err := credentials.Save(key); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "[ok] API key saved to %s\n", credentials.Path())
	return nil
}

// readSecret reads the key without echo when in is a terminal.
func readSecret(in io.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && platform.IsTerminal(f) {
		b, err := readPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, _ := executor.ReadLine(in)
	return line, nil
}

func configureOllama(host string, in io.Reader, out io.Writer) (string, error) {
	if err := ensureOllamaInstalled(in, out); err != nil {
		return "", err
	}
	if err := ensureOllamaRunning(host, in, out); err != nil {
		return "", err
	}
	client, err := ollamaClient(host)
	if err != nil {
		return "", err
	}
	return selectModel(client, in, out)
}

func ensureOllamaInstalled(in io.Reader, out io.Writer) error {
	if _, err := lookPath("ollama"); err == nil {
		_, _ = fmt.Fprintln(out, "[ok] Ollama is installed")
		return nil
	}

	_, _ = fmt.Fprintln(out, "[!!] Ollama not found")

	var cmd *exec.Cmd
	switch platformOS() {
	case "darwin":
		if !executor.Confirm("Install Ollama via Homebrew?", true, in, out) {
			return fmt.Errorf("ollama is required. Install it manually from https://ollama.com")
		}
		_, _ = fmt.Fprintln(out, "Running: brew install ollama")
		cmd = execCommand("brew", "install", "ollama")
	case "linux":
		if !executor.Confirm("Install Ollama via install script?", true, in, out) {
			return fmt.Errorf("ollama is required. Install it manually from https://ollama.com")
		}
		_, _ = fmt.Fprintln(out, "Running: curl -fsSL https://ollama.com/install.sh | sh")
		cmd = execCommand("sh", "-c", "curl -fsSL https://ollama.com/install.sh | sh")
	default:
		return fmt.Errorf("unsupported platform %s. Install Ollama manually from https://ollama.com", platformOS())
	}

	cmd.Stdout = out
	cmd.Stderr = out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to install ollama: %w", err)
	}

	_, _ = fmt.Fprintln(out, "[ok] Ollama installed")
	return nil
}

func ensureOllamaRunning(host string, in io.Reader, out io.Writer) error {
	if isOllamaReachable(host) {
		_, _ = fmt.Fprintln(out, "[ok] Ollama is running")
		return nil
	}

	_, _ = fmt.Fprintln(out, "[!!] Ollama is not running")
	if !executor.Confirm("Start Ollama?", true, in, out) {
		return fmt.Errorf("ollama must be running. Start it with: ollama serve")
	}

	_, _ = fmt.Fprintln(out, "Starting Ollama in background...")
	// Ollama keeps running after askcmd exits.
	cmd := execCommand("ollama", "serve")
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ollama: %w", err)
	}

	for i := 0; i < 10; i++ {
		time.Sleep(time.Second)
		if isOllamaReachable(host) {
			_, _ = fmt.Fprintln(out, "[ok] Ollama is running")
			return nil
		}
		_, _ = fmt.Fprint(out, ".")
	}

	return fmt.Errorf("ollama did not start within 10 seconds")
}

func selectModel(client *api.Client, in io.Reader, out io.Writer) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	models, err := client.List(ctx)
	if err != nil {
		return "", fmt.Errorf("listing models: %w", err)
	}

	if len(models.Models) == 0 {
		return pullRecommendedModel(client, in, out)
	}

	_, _ = fmt.Fprintln(out, "\nAvailable models:")
	for i, m := range models.Models {
		_, _ = fmt.Fprintf(out, "  %d. %s\n", i+1, m.Name)
	}
	_, _ = fmt.Fprint(out, "\nSelect default model [1]: ")

	input := readLine(in)

	idx := 0
	if input != "" {
		n, err := strconv.Atoi(input)
		if err != nil || n < 1 || n > len(models.Models) {
			return "", fmt.Errorf("invalid selection: %s", input)
		}
		idx = n - 1
	}

	selected := models.Models[idx].Name
	_, _ = fmt.Fprintf(out, "[ok] Selected: %s\n", selected)
	return selected, nil
}

func pullRecommendedModel(client *api.Client, in io.Reader, out io.Writer) (string, error) {
	_, _ = fmt.Fprintln(out, "\nNo models found. Pull a recommended model?")
	_, _ = fmt.Fprintln(out, "  1. qwen2.5-coder:1.5b  (fast, ~1GB)")
	_, _ = fmt.Fprintln(out, "  2. llama3.2:3b         (general, ~2GB)")
	_, _ = fmt.Fprintln(out, "  3. Skip")
	_, _ = fmt.Fprint(out, "\nSelect [1]: ")

	var model string
	switch input := readLine(in); input {
	case "", "1":
		model = "qwen2.5-coder:1.5b"
	case "2":
		model = "llama3.2:3b"
	case "3":
		return "", fmt.Errorf("no model selected. Pull a model manually with: ollama pull <model>")
	default:
		return "", fmt.Errorf("invalid selection: %s", input)
	}

	_, _ = fmt.Fprintf(out, "Pulling %s (this may take a few minutes)...\n", model)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	err := client.Pull(ctx, &api.PullRequest{Model: model}, func(resp api.ProgressResponse) error {
		if resp.Total > 0 {
			pct := float64(resp.Completed) / float64(resp.Total) * 100
			_, _ = fmt.Fprintf(out, "\r  %.0f%% downloaded", pct)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("pulling model: %w", err)
	}
	_, _ = fmt.Fprintf(out, "\n[ok] %s ready\n", model)
	return model, nil
}

func ollamaClient(host string) (*api.Client, error) {
	base, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("parsing host URL: %w", err)
	}
	httpClient := &http.Client{Timeout: 10 * time.Second}
	return api.NewClient(base, httpClient), nil
}

func isOllamaReachable(host string) bool {
	client := http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(host)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func readLine(in io.Reader) string {
	line, _ := executor.ReadLine(in)
	return line
}
