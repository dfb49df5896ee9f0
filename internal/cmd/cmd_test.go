package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dhanwis/tutoradmin/internal/auth"
	"github.com/dhanwis/tutoradmin/internal/config"
	"github.com/dhanwis/tutoradmin/internal/testutil"
)

// executeCommand runs a fresh command tree with args and returns captured output
func executeCommand(args ...string) (output string, err error) {
	return executeCommandWithInput("", args...)
}

func executeCommandWithInput(stdin string, args ...string) (output string, err error) {
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err = root.Execute()
	return buf.String(), err
}

// setupTestEnvironment points the CLI at a fake API and an empty config
// directory. Logging is off unless a test turns it on.
func setupTestEnvironment(t *testing.T) *testutil.FakeAPI {
	t.Helper()

	fake := testutil.NewFakeAPI(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("TUTORADMIN_API_BASE_URL", fake.URL())
	t.Setenv("TUTORADMIN_LOGGING_ENABLED", "false")

	prev := stdinIsTerminal
	stdinIsTerminal = func() bool { return false }
	t.Cleanup(func() { stdinIsTerminal = prev })

	return fake
}

// loginForTest stores the token the fake API accepts.
func loginForTest(t *testing.T) {
	t.Helper()
	if err := auth.NewStore(filepath.Join(config.ConfigDir(), "token")).Save(testutil.TestToken); err != nil {
		t.Fatalf("save token: %v", err)
	}
}

func TestRootCommand(t *testing.T) {
	root := NewRootCmd()
	if root.Use != "tutoradmin" {
		t.Errorf("root.Use = %q, want %q", root.Use, "tutoradmin")
	}

	// Check for expected subcommands (compare by Name(), not Use which includes args)
	expectedCmds := []string{"login", "logout", "students", "tutors", "assign", "categories", "reviews", "config"}
	cmdMap := make(map[string]bool)
	for _, c := range root.Commands() {
		cmdMap[c.Name()] = true
	}
	for _, expected := range expectedCmds {
		if !cmdMap[expected] {
			t.Errorf("expected subcommand %q not found", expected)
		}
	}
}

func TestLoginCommand(t *testing.T) {
	setupTestEnvironment(t)

	output, err := executeCommandWithInput(testutil.TestPassword+"\n", "login", "--email", testutil.TestEmail, "--password-stdin")
	if err != nil {
		t.Fatalf("login failed: %v\nOutput: %s", err, output)
	}
	if !strings.Contains(output, "Logged in.") {
		t.Errorf("output = %q, want it to report the login", output)
	}

	token, err := auth.NewStore(filepath.Join(config.ConfigDir(), "token")).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if token != testutil.TestToken {
		t.Errorf("stored token = %q, want %q", token, testutil.TestToken)
	}
}

func TestLoginCommand_PromptsForEmail(t *testing.T) {
	fake := setupTestEnvironment(t)

	input := testutil.TestEmail + "\n" + testutil.TestPassword + "\n"
	if output, err := executeCommandWithInput(input, "login", "--password-stdin"); err != nil {
		t.Fatalf("login failed: %v\nOutput: %s", err, output)
	}

	reqs := fake.Requests()
	if len(reqs) != 1 || reqs[0].Body["email"] != testutil.TestEmail {
		t.Errorf("requests = %+v, want one login with the prompted email", reqs)
	}
}

func TestLoginCommand_WrongPassword(t *testing.T) {
	setupTestEnvironment(t)

	_, err := executeCommandWithInput("wrong\n", "login", "--email", testutil.TestEmail, "--password-stdin")
	if err == nil {
		t.Fatal("login with a wrong password succeeded")
	}
	if got, want := err.Error(), "Invalid email or password"; got != want {
		t.Errorf("error = %q, want the server message %q", got, want)
	}
	if _, statErr := os.Stat(filepath.Join(config.ConfigDir(), "token")); !os.IsNotExist(statErr) {
		t.Error("token file written after a failed login")
	}
}

func TestLoginCommand_NoTerminal(t *testing.T) {
	setupTestEnvironment(t)

	_, err := executeCommand("login", "--email", testutil.TestEmail)
	if err == nil {
		t.Fatal("login without a terminal or --password-stdin succeeded")
	}
	if !strings.Contains(err.Error(), "--password-stdin") {
		t.Errorf("error = %q, want a hint about --password-stdin", err)
	}
}

func TestLogoutCommand(t *testing.T) {
	setupTestEnvironment(t)
	loginForTest(t)

	output, err := executeCommand("logout")
	if err != nil {
		t.Fatalf("logout failed: %v\nOutput: %s", err, output)
	}
	if _, err := os.Stat(filepath.Join(config.ConfigDir(), "token")); !os.IsNotExist(err) {
		t.Error("token file still present after logout")
	}

	// Logging out twice is fine.
	if _, err := executeCommand("logout"); err != nil {
		t.Errorf("second logout failed: %v", err)
	}
}

func TestConfigCommands(t *testing.T) {
	setupTestEnvironment(t)

	output, err := executeCommand("config", "path")
	if err != nil {
		t.Fatalf("config path failed: %v", err)
	}
	if !strings.Contains(output, "Default path: "+config.ConfigFile()) {
		t.Errorf("config path output = %q", output)
	}

	if output, err := executeCommand("config", "init"); err != nil {
		t.Fatalf("config init failed: %v\nOutput: %s", err, output)
	}
	if _, err := os.Stat(config.ConfigFile()); err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	if _, err := executeCommand("config", "init"); err == nil {
		t.Error("second config init succeeded, want an error")
	}

	if output, err := executeCommand("config", "set", "output.format", "yaml"); err != nil {
		t.Fatalf("config set failed: %v\nOutput: %s", err, output)
	}

	output, err = executeCommand("config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	for _, want := range []string{"Config file: " + config.ConfigFile(), "format: yaml", "auth_scheme: Token"} {
		if !strings.Contains(output, want) {
			t.Errorf("config show output missing %q:\n%s", want, output)
		}
	}
}

func TestConfigSet_Invalid(t *testing.T) {
	setupTestEnvironment(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown key", []string{"config", "set", "nope", "x"}},
		{"bad format", []string{"config", "set", "output.format", "xml"}},
		{"bad bool", []string{"config", "set", "logging.enabled", "maybe"}},
		{"bad int", []string{"config", "set", "api.timeout_seconds", "soon"}},
		{"out of range", []string{"config", "set", "api.timeout_seconds", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := executeCommand(tt.args...); err == nil {
				t.Errorf("%v succeeded, want an error", tt.args)
			}
		})
	}
	if _, err := os.Stat(config.ConfigFile()); !os.IsNotExist(err) {
		t.Error("config file written by a rejected set")
	}
}

func TestExplicitConfigFileMissing(t *testing.T) {
	setupTestEnvironment(t)

	if _, err := executeCommand("--config", filepath.Join(t.TempDir(), "missing.yaml"), "reviews"); err == nil {
		t.Error("missing --config file accepted, want an error")
	}
}

func TestInvalidOutputFlag(t *testing.T) {
	setupTestEnvironment(t)

	_, err := executeCommand("reviews", "-o", "xml")
	if err == nil || !strings.Contains(err.Error(), "output.format") {
		t.Errorf("error = %v, want an output.format validation error", err)
	}
}
