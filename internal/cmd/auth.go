package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dhanwis/tutoradmin/internal/errors"
)

func registerAuthCmds(parent *cobra.Command) {
	var (
		email         string
		passwordStdin bool
	)

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the admin API and store the token",
		Long: `Log in with an admin email and password. The returned token is stored
in the config directory (mode 0600) and sent with every later command.

The password is read from the terminal without echo, or from the first line
of standard input with --password-stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, email, passwordStdin)
		},
	}
	loginCmd.Flags().StringVarP(&email, "email", "e", "", "admin email (prompted if omitted)")
	loginCmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from standard input")

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored token",
		Args:  cobra.NoArgs,
		RunE:  runLogout,
	}

	parent.AddCommand(loginCmd, logoutCmd)
}

func runLogin(cmd *cobra.Command, email string, passwordStdin bool) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	in := bufio.NewReader(cmd.InOrStdin())

	if email == "" {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Email: ")
		if email, err = readLine(in); err != nil {
			return e.fail("log in", errors.NewValidationError("an email is required").WithField("email").WithCause(err))
		}
	}

	password, err := readPassword(cmd, in, passwordStdin)
	if err != nil {
		return e.fail("log in", err)
	}

	token, err := e.client.Login(cmd.Context(), strings.TrimSpace(email), password)
	if err != nil {
		e.logger.Error("login failed", "error", err.Error())
		// The server's own reason (e.g. wrong password) is what the admin needs here.
		var apiErr *errors.APIError
		if errors.As(err, &apiErr) && apiErr.ServerMessage != "" {
			return errors.New(apiErr.ServerMessage)
		}
		return &actionError{action: "log in", err: err}
	}

	if err := e.tokens.Save(token); err != nil {
		return e.fail("save the login token", err)
	}

	e.logger.Info("logged in", "token_file", e.tokens.Path())
	e.printf("Logged in. Token saved to %s\n", e.tokens.Path())
	return nil
}

func readPassword(cmd *cobra.Command, in *bufio.Reader, fromStdin bool) (string, error) {
	if fromStdin {
		password, err := readLine(in)
		if err != nil || password == "" {
			return "", errors.NewValidationError("no password on standard input").WithField("password")
		}
		return password, nil
	}

	if !stdinIsTerminal() {
		return "", errors.NewValidationError("standard input is not a terminal; use --password-stdin").WithField("password")
	}

	_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	_, _ = fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if len(raw) == 0 {
		return "", errors.NewValidationError("a password is required").WithField("password")
	}
	return string(raw), nil
}

// readLine returns the next line without its line ending. A final line
// without a newline is accepted.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.tokens.Clear(); err != nil {
		return e.fail("log out", err)
	}
	e.logger.Info("logged out")
	e.printf("Logged out.\n")
	return nil
}
