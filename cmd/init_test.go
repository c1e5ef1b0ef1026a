package cmd

import (
	"bytes"
	"io"
	"testing"

	"github.com/hpkotak/askcmd/internal/config"
)

func TestRunInit(t *testing.T) {
	restore := saveCmdVars(t)
	defer restore()
	setupTestConfig(t, config.Default())

	var gotProvider string
	calls := 0
	runSetup = func(providerName string, _ io.Reader, _ io.Writer) error {
		calls++
		gotProvider = providerName
		return nil
	}
	providerFlag = "ollama"

	if err := runInit(initCmd, nil); err != nil {
		t.Fatalf("runInit() unexpected error: %v", err)
	}
	if calls != 1 || gotProvider != "ollama" {
		t.Errorf("runSetup calls = %d provider = %q, want 1/ollama", calls, gotProvider)
	}
}

func TestRunInitWithWordsIsAQuery(t *testing.T) {
	restore := saveCmdVars(t)
	defer restore()
	setupTestConfig(t, config.Default())

	runSetup = func(string, io.Reader, io.Writer) error {
		t.Fatal("runSetup must not be called when init has arguments")
		return nil
	}
	mock := &mockProvider{texts: []string{"git init"}}
	out, _, _ := stubNonInteractive(mock)

	if err := runInit(initCmd, []string{"a", "git", "repo"}); err != nil {
		t.Fatalf("runInit() unexpected error: %v", err)
	}
	if out.String() != "git init\n" {
		t.Errorf("stdout = %q, want %q", out.String(), "git init\n")
	}
}

func TestInitRegistered(t *testing.T) {
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	defer rootCmd.SetOut(nil)
	if err := rootCmd.Help(); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("init")) {
		t.Errorf("help does not list init:\n%s", buf.String())
	}
}
