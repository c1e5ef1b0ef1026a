package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hpkotak/askcmd/internal/config"
	"github.com/hpkotak/askcmd/internal/credentials"
	"github.com/hpkotak/askcmd/internal/executor"
	"github.com/hpkotak/askcmd/internal/interact"
	"github.com/hpkotak/askcmd/internal/logging"
	"github.com/hpkotak/askcmd/internal/platform"
	"github.com/hpkotak/askcmd/internal/provider"
	"github.com/hpkotak/askcmd/internal/suggest"
	"github.com/hpkotak/askcmd/internal/terminal"
)

var (
	modelFlag    string
	providerFlag string
	debugFlag    bool
)

// session is the raw-mode keyboard used for accept/reject.
type session interface {
	interact.DecisionSource
	Close() error
}

// Package-level function variables for testability.
// Tests override these to avoid real provider/executor/terminal calls.
var (
	newProvider   = provider.NewFromConfig
	startCommand  = executor.Start
	resolveAPIKey = func() (string, error) { return credentials.Resolve(os.LookupEnv) }
	isInteractive = platform.Interactive
	openSession   = func(cancel context.CancelFunc) (session, error) {
		return terminal.Open(os.Stdin, cancel)
	}
	ioIn  io.Reader = os.Stdin
	ioOut io.Writer = os.Stdout
	ioErr io.Writer = os.Stderr
)

var rootCmd = &cobra.Command{
	Use:   "askcmd [natural language request]",
	Short: "Turn a request into one shell command",
	Long: `askcmd turns a natural-language request into a single shell command.

Press Enter to run the suggestion, or n for a different one (up to 3).
Ctrl+C cancels. Flags go before the request.

Examples:
  askcmd list s3 buckets
  askcmd find files larger than 100MB
  askcmd init`,
	Args:              cobra.ArbitraryArgs,
	RunE:              runSuggest,
	SilenceErrors:     true,
	SilenceUsage:      true,
	DisableAutoGenTag: true,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "override model for this query")
	rootCmd.PersistentFlags().StringVar(&providerFlag, "provider", "", "override provider for this query (openai/openai-chat/ollama/afm)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "write debug logs to ~/.askcmd/debug.log")
}

// Execute runs the CLI. Errors not already shown to the user are printed
// to stderr.
func Execute() error {
	rootCmd.InitDefaultHelpCmd()
	stopFlagsAtQuery(rootCmd)

	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, interact.ErrInterrupted) && !interact.Reported(err) {
		_, _ = fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
	}
	return err
}

// ExitCode maps an Execute error to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, interact.ErrInterrupted):
		return 130
	default:
		return 1
	}
}

// stopFlagsAtQuery ends flag parsing at the first plain word, so "-la" in
// "what does ls -la do" stays part of the request. Flags go before it.
func stopFlagsAtQuery(c *cobra.Command) {
	c.Flags().SetInterspersed(false)
	for _, sub := range c.Commands() {
		stopFlagsAtQuery(sub)
	}
}

// runAsQuery treats a subcommand invocation that is not in its exact form as
// an ordinary request, command words included.
func runAsQuery(cmd *cobra.Command, args []string) error {
	words := strings.Fields(cmd.CommandPath())[1:]
	return runSuggest(cmd, append(words, args...))
}

func runSuggest(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return cmd.Help()
	}

	cfg, err := config.LoadOrDefault()
	if err != nil {
		return err
	}
	if providerFlag != "" {
		cfg.Provider = providerFlag
	}
	if modelFlag != "" {
		cfg.Model = modelFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Credentials are checked before anything touches the network.
	var apiKey string
	if provider.RequiresAPIKey(cfg.Provider) {
		if apiKey, err = resolveAPIKey(); err != nil {
			return err
		}
	}

	logger, closeLog, err := logging.New(logging.Enabled(debugFlag, os.LookupEnv), logging.Path())
	if err != nil {
		return err
	}
	defer closeLog()
	logger.Debug("run started",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model),
		zap.Duration("timeout", cfg.Timeout()))

	p, err := newProvider(provider.BuildConfig{
		Name:       cfg.Provider,
		Model:      cfg.Model,
		APIKey:     apiKey,
		OpenAIHost: cfg.OpenAI.Host,
		OllamaHost: cfg.Ollama.Host,
		AFMCommand: cfg.AFM.Command,
		Timeout:    cfg.Timeout(),
	})
	if err != nil {
		return fmt.Errorf("creating provider: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	presenter := interact.NewPresenter(ioOut, ioErr)
	loop := &interact.Loop{
		Fetcher: &suggest.Fetcher{
			Provider: p,
			Timeout:  cfg.Timeout(),
			Logger:   logger,
		},
		Presenter: presenter,
		Logger:    logger,
	}

	var (
		sess    session
		started *exec.Cmd
	)
	if isInteractive() {
		sess, err = openSession(cancel)
		if err != nil {
			logger.Debug("interactive mode unavailable", zap.Error(err))
		} else {
			defer func() { _ = sess.Close() }()
			presenter.Raw = true
			loop.Decisions = sess
			loop.Handoff = func(command string) error {
				// The command gets the terminal back in its normal mode.
				if err := sess.Close(); err != nil {
					logger.Debug("restoring terminal", zap.Error(err))
				}
				var startErr error
				started, startErr = startCommand(command)
				return startErr
			}
		}
	}

	outcome, err := loop.Run(ctx, query)
	logger.Debug("run finished",
		zap.Stringer("state", outcome.State),
		zap.Int("rejected", len(outcome.Rejected)),
		zap.Error(err))

	if errors.Is(err, interact.ErrInterrupted) {
		if sess != nil {
			_ = sess.Close()
			_, _ = fmt.Fprint(ioOut, "\n")
		}
		return err
	}
	if err != nil {
		return err
	}

	// The loop returned as soon as the command started. Waiting here is the
	// controller keeping the foreground until the command exits, so the shell
	// prompt does not return underneath it. Its exit status is not ours.
	if started != nil {
		_ = started.Wait()
	}
	return nil
}
