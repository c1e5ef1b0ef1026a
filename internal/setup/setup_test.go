package setup

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/creack/pty"
	"github.com/ollama/ollama/api"

	"github.com/hpkotak/askcmd/internal/config"
	"github.com/hpkotak/askcmd/internal/credentials"
)

// saveFuncVars saves the current package-level function vars and returns
// a restore function. Call restore in a defer.
func saveFuncVars(t *testing.T) func() {
	t.Helper()
	origLookPath := lookPath
	origExecCommand := execCommand
	origPlatformOS := platformOS
	origReadPassword := readPassword
	return func() {
		lookPath = origLookPath
		execCommand = origExecCommand
		platformOS = origPlatformOS
		readPassword = origReadPassword
	}
}

// mockOllamaListServer returns an httptest server that responds to /api/tags.
func mockOllamaListServer(models []string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/api/tags"):
			resp := api.ListResponse{}
			for _, m := range models {
				resp.Models = append(resp.Models, api.ListModelResponse{Name: m})
			}
			_ = json.NewEncoder(w).Encode(resp)
		case strings.HasSuffix(r.URL.Path, "/api/pull"):
			// Simulate a successful pull with one progress response.
			resp := api.ProgressResponse{Status: "success", Total: 100, Completed: 100}
			_ = json.NewEncoder(w).Encode(resp)
		default:
			w.WriteHeader(http.StatusOK) // health check
		}
	}))
}

func TestReadLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"normal input", "hello\n", "hello"},
		{"whitespace trimming", "  spaces  \n", "spaces"},
		{"empty line", "\n", ""},
		{"multi-line reads first", "first\nsecond\n", "first"},
		{"no trailing newline", "last", "last"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := readLine(strings.NewReader(tt.input))
			if got != tt.want {
				t.Errorf("readLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsOllamaReachable(t *testing.T) {
	t.Run("server returns 200", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		if !isOllamaReachable(srv.URL) {
			t.Error("isOllamaReachable() = false, want true")
		}
	})

	t.Run("server returns 500", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		if isOllamaReachable(srv.URL) {
			t.Error("isOllamaReachable() = true, want false")
		}
	})

	t.Run("server closed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		if isOllamaReachable(srv.URL) {
			t.Error("isOllamaReachable() = true for closed server, want false")
		}
	})
}

func TestOllamaClient(t *testing.T) {
	t.Run("valid URL", func(t *testing.T) {
		client, err := ollamaClient("http://localhost:11434")
		if err != nil {
			t.Errorf("ollamaClient() unexpected error: %v", err)
		}
		if client == nil {
			t.Error("ollamaClient() returned nil")
		}
	})

	t.Run("empty URL accepted", func(t *testing.T) {
		// url.Parse accepts empty strings
		_, err := ollamaClient("")
		if err != nil {
			t.Errorf("ollamaClient(\"\") unexpected error: %v", err)
		}
	})
}

func TestSelectModel(t *testing.T) {
	tests := []struct {
		name    string
		models  []string
		input   string
		want    string
		wantErr string
	}{
		{
			name:   "select first model",
			models: []string{"llama3.2:latest", "codellama:7b"},
			input:  "1\n",
			want:   "llama3.2:latest",
		},
		{
			name:   "select second model",
			models: []string{"llama3.2:latest", "codellama:7b"},
			input:  "2\n",
			want:   "codellama:7b",
		},
		{
			name:   "enter selects default (first)",
			models: []string{"llama3.2:latest", "codellama:7b"},
			input:  "\n",
			want:   "llama3.2:latest",
		},
		{
			name:    "invalid number",
			models:  []string{"llama3.2:latest"},
			input:   "5\n",
			wantErr: "invalid selection",
		},
		{
			name:    "non-numeric input",
			models:  []string{"llama3.2:latest"},
			input:   "abc\n",
			wantErr: "invalid selection",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := mockOllamaListServer(tt.models)
			defer srv.Close()

			client, err := ollamaClient(srv.URL)
			if err != nil {
				t.Fatalf("ollamaClient: %v", err)
			}

			in := strings.NewReader(tt.input)
			out := &bytes.Buffer{}
			got, err := selectModel(client, in, out)

			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("selectModel() expected error containing %q, got nil", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error = %q, want substring %q", err.Error(), tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("selectModel() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("selectModel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPullRecommendedModel(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr string
	}{
		{"select qwen2.5-coder", "1\n", "qwen2.5-coder:1.5b", ""},
		{"default selects qwen2.5-coder", "\n", "qwen2.5-coder:1.5b", ""},
		{"select llama3.2:3b", "2\n", "llama3.2:3b", ""},
		{"skip", "3\n", "", "no model selected"},
		{"invalid input", "xyz\n", "", "invalid selection"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := mockOllamaListServer(nil)
			defer srv.Close()

			client, err := ollamaClient(srv.URL)
			if err != nil {
				t.Fatalf("ollamaClient: %v", err)
			}

			in := strings.NewReader(tt.input)
			out := &bytes.Buffer{}
			got, err := pullRecommendedModel(client, in, out)

			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error = %q, want substring %q", err.Error(), tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("pullRecommendedModel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEnsureOllamaInstalled(t *testing.T) {
	tests := []struct {
		name      string
		found     bool   // whether ollama is in PATH
		os        string // mock platform OS
		input     string // user input for confirmation
		wantErr   string
		wantInOut string // substring expected in output
	}{
		{
			name:      "already installed",
			found:     true,
			os:        "darwin",
			wantInOut: "[ok] Ollama is installed",
		},
		{
			name:    "not installed, unsupported OS",
			found:   false,
			os:      "windows",
			wantErr: "unsupported platform",
		},
		{
			name:    "not installed, darwin, user declines",
			found:   false,
			os:      "darwin",
			input:   "n\n",
			wantErr: "ollama is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restore := saveFuncVars(t)
			defer restore()

			if tt.found {
				lookPath = func(file string) (string, error) {
					return "/usr/local/bin/ollama", nil
				}
			} else {
				lookPath = func(file string) (string, error) {
					return "", exec.ErrNotFound
				}
			}
			platformOS = func() string { return tt.os }

			in := strings.NewReader(tt.input)
			out := &bytes.Buffer{}
			err := ensureOllamaInstalled(in, out)

			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error = %q, want substring %q", err.Error(), tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantInOut != "" && !strings.Contains(out.String(), tt.wantInOut) {
				t.Errorf("output = %q, want substring %q", out.String(), tt.wantInOut)
			}
		})
	}
}

func TestEnsureOllamaRunning(t *testing.T) {
	t.Run("already reachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		out := &bytes.Buffer{}
		err := ensureOllamaRunning(srv.URL, strings.NewReader(""), out)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), "[ok] Ollama is running") {
			t.Errorf("output = %q, want substring %q", out.String(), "[ok] Ollama is running")
		}
	})

	t.Run("not reachable, user declines", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		srv.Close() // closed = unreachable

		out := &bytes.Buffer{}
		err := ensureOllamaRunning(srv.URL, strings.NewReader("n\n"), out)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "ollama must be running") {
			t.Errorf("error = %q, want substring %q", err.Error(), "ollama must be running")
		}
	})
}

func TestRunStoresAPIKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	out := &bytes.Buffer{}
	if err := Run("openai", strings.NewReader("  sk-test-123  \n"), out); err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}

	key, err := credentials.Load()
	if err != nil {
		t.Fatalf("credentials.Load: %v", err)
	}
	if key != "sk-test-123" {
		t.Errorf("stored key = %q, want %q", key, "sk-test-123")
	}
	if strings.Contains(out.String(), "sk-test-123") {
		t.Error("output must not echo the key")
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	if cfg.Provider != "openai" {
		t.Errorf("provider = %q, want %q", cfg.Provider, "openai")
	}
}

func TestRunRejectsEmptyKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	err := Run("openai-chat", strings.NewReader("\n"), &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "no API key entered") {
		t.Fatalf("Run() error = %v, want no API key entered", err)
	}
	if _, err := os.Stat(config.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("config should not be written on failure, stat err = %v", err)
	}
}

func TestRunInvalidProvider(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	err := Run("bedrock", strings.NewReader(""), &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "invalid provider") {
		t.Fatalf("Run() error = %v, want invalid provider", err)
	}
}

func TestRunOllamaSelectsModel(t *testing.T) {
	restore := saveFuncVars(t)
	defer restore()
	t.Setenv("HOME", t.TempDir())

	srv := mockOllamaListServer([]string{"llama3.2:latest", "qwen2.5-coder:7b"})
	defer srv.Close()

	cfg := config.Default()
	cfg.Ollama.Host = srv.URL
	if err := config.Save(cfg); err != nil {
		t.Fatalf("config.Save: %v", err)
	}
	lookPath = func(string) (string, error) { return "/usr/local/bin/ollama", nil }

	out := &bytes.Buffer{}
	if err := Run("ollama", strings.NewReader("2\n"), out); err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}

	got, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	if got.Provider != "ollama" || got.Model != "qwen2.5-coder:7b" {
		t.Errorf("config = %s/%s, want ollama/qwen2.5-coder:7b", got.Provider, got.Model)
	}
	if got.Ollama.Host != srv.URL {
		t.Errorf("ollama host = %q, want %q", got.Ollama.Host, srv.URL)
	}
}

func TestRunAFM(t *testing.T) {
	restore := saveFuncVars(t)
	defer restore()

	t.Run("bridge found", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		lookPath = func(string) (string, error) { return "/usr/local/bin/afm-bridge", nil }

		out := &bytes.Buffer{}
		if err := Run("afm", strings.NewReader(""), out); err != nil {
			t.Fatalf("Run() unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), "[ok] Found afm-bridge") {
			t.Errorf("output = %q", out.String())
		}
	})

	t.Run("bridge missing", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		lookPath = func(string) (string, error) { return "", exec.ErrNotFound }

		err := Run("afm", strings.NewReader(""), &bytes.Buffer{})
		if err == nil || !strings.Contains(err.Error(), "afm.command") {
			t.Fatalf("Run() error = %v, want afm.command hint", err)
		}
	})
}

func TestReadSecretOnTerminal(t *testing.T) {
	restore := saveFuncVars(t)
	defer restore()

	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("pty not available: %v", err)
	}
	defer ptmx.Close()
	defer tty.Close()

	var gotFD int
	readPassword = func(fd int) ([]byte, error) {
		gotFD = fd
		return []byte(" sk-hidden \n"), nil
	}

	got, err := readSecret(tty)
	if err != nil {
		t.Fatalf("readSecret() unexpected error: %v", err)
	}
	if got != "sk-hidden" {
		t.Errorf("readSecret() = %q, want %q", got, "sk-hidden")
	}
	if gotFD != int(tty.Fd()) {
		t.Errorf("readPassword fd = %d, want %d", gotFD, int(tty.Fd()))
	}
}

func TestReadSecretFromPipe(t *testing.T) {
	restore := saveFuncVars(t)
	defer restore()
	readPassword = func(int) ([]byte, error) {
		t.Fatal("readPassword should not be used for non-terminal input")
		return nil, nil
	}

	got, err := readSecret(strings.NewReader("sk-piped\nextra\n"))
	if err != nil {
		t.Fatalf("readSecret() unexpected error: %v", err)
	}
	if got != "sk-piped" {
		t.Errorf("readSecret() = %q, want %q", got, "sk-piped")
	}
}
