// Package vast wraps the Vast.ai CLI binary.
//
// All control-plane operations (offer search, template and instance
// management, log retrieval) shell out to the vastai executable rather than
// talking to the REST API directly, so the CLI stays in lockstep with
// whatever vastai version the user has installed.
package vast

import (
	"context"
	"encoding/json"
	"strings"

	shellquote "github.com/kballard/go-shellquote"

	"github.com/MannyJMusic/dfl-desktop/internal/errors"
	"github.com/MannyJMusic/dfl-desktop/internal/logging"
	"github.com/MannyJMusic/dfl-desktop/internal/system"
)

// Client invokes the vastai CLI.
type Client struct {
	binary string
	apiKey string
	exec   system.CommandExecutor
}

// Option configures a Client.
type Option func(*Client)

// WithExecutor sets a custom command executor (used in tests).
func WithExecutor(exec system.CommandExecutor) Option {
	return func(c *Client) {
		c.exec = exec
	}
}

// NewClient creates a Client for the given vastai binary and API key.
// An empty apiKey means the vastai CLI's own configured key is used.
func NewClient(binary, apiKey string, opts ...Option) *Client {
	c := &Client{
		binary: binary,
		apiKey: apiKey,
		exec:   system.DefaultExecutor(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// compose builds the full argument list for a vastai invocation.
func (c *Client) compose(args []string, raw bool) []string {
	out := make([]string, 0, len(args)+3)
	out = append(out, args...)
	if raw {
		out = append(out, "--raw")
	}
	if c.apiKey != "" {
		out = append(out, "--api-key", c.apiKey)
	}
	return out
}

// FormatCommand returns the shell-quoted command line for the given
// arguments, suitable for previewing before execution.
func (c *Client) FormatCommand(args ...string) string {
	full := append([]string{c.binary}, c.compose(args, false)...)
	return shellquote.Join(full...)
}

// Run executes a vastai command and returns its stdout.
func (c *Client) Run(ctx context.Context, args ...string) (string, error) {
	full := c.compose(args, false)
	logging.Debug("running vastai command", "args", strings.Join(args, " "))

	stdout, stderr, err := c.exec.ExecuteSeparate(ctx, c.binary, full...)
	if err != nil {
		return "", errors.CommandFailed(
			shellquote.Join(append([]string{c.binary}, args...)...),
			system.ExitCode(err),
			strings.TrimSpace(string(stderr)),
		)
	}
	return string(stdout), nil
}

// RunJSON executes a vastai command with --raw and decodes the JSON payload
// from its stdout. Banner or warning text surrounding the payload is
// tolerated. The decoded value is stored in v.
func (c *Client) RunJSON(ctx context.Context, v any, args ...string) error {
	full := c.compose(args, true)
	logging.Debug("running vastai command", "args", strings.Join(args, " "), "raw", true)

	stdout, stderr, err := c.exec.ExecuteSeparate(ctx, c.binary, full...)
	if err != nil {
		return errors.CommandFailed(
			shellquote.Join(append([]string{c.binary}, args...)...),
			system.ExitCode(err),
			strings.TrimSpace(string(stderr)),
		)
	}

	data := strings.TrimSpace(string(stdout))
	if data == "" {
		return nil
	}

	payload, ok := ExtractJSON(data)
	if !ok {
		return errors.New(errors.ExitCommandFailed, "vastai returned no JSON payload: "+truncate(data, 200))
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return errors.Wrap(errors.ExitCommandFailed, "failed to decode vastai output", err)
	}
	return nil
}

// Stream executes a vastai command and delivers each stdout line to onLine.
// It blocks until the command exits or ctx is cancelled; cancellation is not
// an error.
func (c *Client) Stream(ctx context.Context, onLine func(string), args ...string) error {
	full := c.compose(args, false)
	logging.Debug("streaming vastai command", "args", strings.Join(args, " "))

	err := c.exec.ExecuteStream(ctx, onLine, c.binary, full...)
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}

	var streamErr *system.StreamError
	if errors.As(err, &streamErr) {
		return errors.CommandFailed(
			shellquote.Join(append([]string{c.binary}, args...)...),
			system.ExitCode(err),
			streamErr.Stderr,
		)
	}
	return errors.CommandFailed(
		shellquote.Join(append([]string{c.binary}, args...)...),
		system.ExitCode(err),
		err.Error(),
	)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
