package errors

import (
	"errors"
	"fmt"
)

// Exit codes for dflctl
const (
	ExitSuccess          = 0
	ExitGeneralError     = 1
	ExitCommandFailed    = 2
	ExitOfferSearch      = 3
	ExitTemplateNotFound = 4
	ExitInstanceNotFound = 5
	ExitConfigError      = 6
	ExitBootstrapFailed  = 7
	ExitSSHError         = 8
)

// CLIError is the base error type for dflctl
type CLIError struct {
	Code    int
	Message string
	Cause   error
}

func (e *CLIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the exit code for this error
func (e *CLIError) ExitCode() int {
	return e.Code
}

// New creates a new CLIError
func New(code int, message string) *CLIError {
	return &CLIError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a CLIError
func Wrap(code int, message string, cause error) *CLIError {
	return &CLIError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Common error constructors

// CommandFailed returns an error for a failed vastai CLI invocation.
// The exit code of the underlying command is preserved when positive
// so scripts wrapping dflctl see the same code the vastai CLI produced.
func CommandFailed(command string, exitCode int, stderr string) *CLIError {
	code := ExitCommandFailed
	if exitCode > 0 {
		code = exitCode
	}
	msg := fmt.Sprintf("command %s failed with exit code %d", command, exitCode)
	if stderr != "" {
		msg = fmt.Sprintf("%s: %s", msg, stderr)
	}
	return New(code, msg)
}

// OfferSearchFailed returns an error for offer search failures
func OfferSearchFailed(cause error) *CLIError {
	return Wrap(ExitOfferSearch, "offer search failed", cause)
}

// TemplateHashMissing returns an error for a template without a usable hash
func TemplateHashMissing(name string) *CLIError {
	return New(ExitTemplateNotFound, fmt.Sprintf("template %s has no template hash; cannot launch an instance from it", name))
}

// InstanceNotFound returns an error for a missing instance
func InstanceNotFound(id string) *CLIError {
	return New(ExitInstanceNotFound, fmt.Sprintf("instance not found: %s", id))
}

// ConfigError returns an error for configuration issues
func ConfigError(message string, cause error) *CLIError {
	return Wrap(ExitConfigError, message, cause)
}

// BootstrapError returns an error for on-instance provisioning failures
func BootstrapError(step string, cause error) *CLIError {
	return Wrap(ExitBootstrapFailed, fmt.Sprintf("bootstrap step %s failed", step), cause)
}

// SSHError returns an error for SSH operations
func SSHError(message string, cause error) *CLIError {
	return Wrap(ExitSSHError, message, cause)
}

// ValidationError returns an error for input validation failures
func ValidationError(message string) *CLIError {
	return New(ExitGeneralError, message)
}

// GetExitCode extracts the exit code from an error
func GetExitCode(err error) int {
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.ExitCode()
	}
	return ExitGeneralError
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return errors.As(err, target)
}
