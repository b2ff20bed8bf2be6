// Package ssh provides SSH connection utilities for rented instances.
// Instances expose a proxied SSH endpoint (ssh_host/ssh_port), so every
// connection targets root@host on a non-standard port.
package ssh

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"syscall"

	"github.com/MannyJMusic/dfl-desktop/internal/system"
)

// Default SSH configuration values.
const (
	DefaultUser           = "root"
	DefaultConnectTimeout = 5
)

// Options configures SSH connection parameters.
type Options struct {
	Host               string
	Port               int
	User               string
	StrictHostKeyCheck bool
	KnownHostsFile     string
	ConnectTimeout     int
	BatchMode          bool
	RequestTTY         bool
}

// DefaultOptions returns Options for an instance SSH endpoint. Host keys
// rotate with every rental, so strict checking stays off.
func DefaultOptions(host string, port int) Options {
	return Options{
		Host:               host,
		Port:               port,
		User:               DefaultUser,
		StrictHostKeyCheck: false,
		KnownHostsFile:     "/dev/null",
		ConnectTimeout:     DefaultConnectTimeout,
	}
}

// Endpoint builds Options from the string fields an instance record carries.
func Endpoint(host, port string) (Options, error) {
	if host == "" {
		return Options{}, fmt.Errorf("instance has no ssh host")
	}
	p, err := strconv.Atoi(port)
	if err != nil || p < 1 {
		return Options{}, fmt.Errorf("instance has no usable ssh port (got %q)", port)
	}
	return DefaultOptions(host, p), nil
}

// WithBatchMode returns a copy with batch mode enabled.
func (o Options) WithBatchMode() Options {
	o.BatchMode = true
	return o
}

// WithTTY returns a copy with TTY requested.
func (o Options) WithTTY() Options {
	o.RequestTTY = true
	return o
}

// WithTimeout returns a copy with the specified connect timeout.
func (o Options) WithTimeout(seconds int) Options {
	o.ConnectTimeout = seconds
	return o
}

// BaseArgs returns the common SSH arguments (options only, no user@host).
func (o Options) BaseArgs() []string {
	var args []string

	if o.Port > 0 {
		args = append(args, "-p", strconv.Itoa(o.Port))
	}

	if !o.StrictHostKeyCheck {
		args = append(args, "-o", "StrictHostKeyChecking=no")
	}

	if o.KnownHostsFile != "" {
		args = append(args, "-o", fmt.Sprintf("UserKnownHostsFile=%s", o.KnownHostsFile))
	}

	if o.BatchMode {
		args = append(args, "-o", "BatchMode=yes")
	}

	if o.ConnectTimeout > 0 {
		args = append(args, "-o", fmt.Sprintf("ConnectTimeout=%d", o.ConnectTimeout))
	}

	if o.RequestTTY {
		args = append(args, "-t")
	}

	return args
}

// Destination returns the user@host string.
func (o Options) Destination() string {
	return fmt.Sprintf("%s@%s", o.User, o.Host)
}

// BuildArgs returns complete SSH arguments for executing a command.
func (o Options) BuildArgs(command ...string) []string {
	args := o.BaseArgs()
	args = append(args, o.Destination())
	args = append(args, command...)
	return args
}

// BuildArgsWithArgv returns complete SSH arguments including "ssh" as argv[0].
// Used for syscall.Exec which requires the program name in argv.
func (o Options) BuildArgsWithArgv(command ...string) []string {
	args := []string{"ssh"}
	args = append(args, o.BuildArgs(command...)...)
	return args
}

// ReplaceWithSession replaces the current process with an SSH session.
// This uses syscall.Exec and does not return on success.
func (o Options) ReplaceWithSession(command string) error {
	sshPath, err := exec.LookPath("ssh")
	if err != nil {
		return fmt.Errorf("ssh not found: %w", err)
	}

	opts := o.WithTTY()
	var args []string
	if command != "" {
		args = opts.BuildArgsWithArgv(command)
	} else {
		args = opts.BuildArgsWithArgv()
	}

	return syscall.Exec(sshPath, args, os.Environ())
}

// CheckConnection reports whether the instance SSH endpoint accepts a
// connection. It runs a no-op command in batch mode so a missing key or an
// unreachable host fails fast instead of prompting.
func (o Options) CheckConnection(ctx context.Context, executor system.CommandExecutor) bool {
	_, err := executor.Execute(ctx, "ssh", o.WithBatchMode().BuildArgs("true")...)
	return err == nil
}
