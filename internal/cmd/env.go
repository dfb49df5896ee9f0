package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dhanwis/tutoradmin/internal/api"
	"github.com/dhanwis/tutoradmin/internal/auth"
	"github.com/dhanwis/tutoradmin/internal/catalog"
	"github.com/dhanwis/tutoradmin/internal/config"
	"github.com/dhanwis/tutoradmin/internal/errors"
	"github.com/dhanwis/tutoradmin/internal/logging"
	"github.com/dhanwis/tutoradmin/internal/model"
	"github.com/dhanwis/tutoradmin/internal/output"
)

// stdinIsTerminal is swapped out in tests.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// env is everything a command needs, built once per invocation from the
// loaded configuration.
type env struct {
	cfg     *config.Config
	logger  *logging.Logger
	tokens  *auth.Store
	client  *api.Client
	printer *output.Printer
	out     io.Writer
	errOut  io.Writer
}

func loadEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}

	logger := createLogger(cmd, cfg).WithCommand(cmd.CommandPath())
	tokens := auth.NewStore(cfg.Auth.ResolveTokenFile())

	return &env{
		cfg:    cfg,
		logger: logger,
		tokens: tokens,
		client: api.New(cfg.API.BaseURL,
			api.WithTokens(tokens),
			api.WithAuthScheme(cfg.API.AuthScheme),
			api.WithTimeout(cfg.API.Timeout()),
			api.WithLogger(logger),
		),
		printer: output.NewPrinter(cmd.OutOrStdout(), format),
		out:     cmd.OutOrStdout(),
		errOut:  cmd.ErrOrStderr(),
	}, nil
}

// createLogger returns a file logger if logging is enabled in config.
// Returns a NopLogger if logging is disabled or if creation fails.
func createLogger(cmd *cobra.Command, cfg *config.Config) *logging.Logger {
	if !cfg.Logging.Enabled {
		return logging.NopLogger()
	}

	logger, err := logging.NewLogger(cfg.Logging.ResolveDir(), logging.ParseLevel(cfg.Logging.Level))
	if err != nil {
		// Log creation failure shouldn't prevent the command from running
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to create logger: %v\n", err)
		return logging.NopLogger()
	}
	return logger
}

func (e *env) Close() {
	_ = e.logger.Close()
}

func (e *env) catalog() *catalog.Store {
	return catalog.NewStore(e.cfg.Catalog.ResolveFile(), e.logger)
}

func (e *env) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(e.out, format, args...)
}

// notef writes a status line. In JSON and YAML mode it goes to stderr so
// stdout stays machine-readable.
func (e *env) notef(format string, args ...any) {
	w := e.out
	if e.printer.Format() != output.FormatTable {
		w = e.errOut
	}
	_, _ = fmt.Fprintf(w, format, args...)
}

// fail logs err in full and returns the short message the admin sees.
func (e *env) fail(action string, err error) error {
	e.logger.Error("command failed", "action", action, "error", err.Error())
	return &actionError{action: action, err: err}
}

// actionError prints as the one-line user message for a failed action and
// unwraps to the underlying error.
type actionError struct {
	action string
	err    error
}

func (e *actionError) Error() string {
	return errors.UserMessage(e.action, e.err)
}

func (e *actionError) Unwrap() error {
	return e.err
}

// parseID parses a positional or flag id.
func parseID(kind model.Kind, s string) (model.ID, error) {
	id, err := model.ParseID(s)
	if err != nil || id <= 0 {
		return 0, errors.NewValidationError(fmt.Sprintf("invalid %s id %q", kind, s)).WithField(string(kind)).WithValue(s)
	}
	return id, nil
}

// parseIDs parses a list of ids; each element may itself be comma separated.
func parseIDs(kind model.Kind, values []string) ([]model.ID, error) {
	var ids []model.ID
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := parseID(kind, part)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
