// Package logging provides logging utilities for dflctl.
//
// This package provides two categories of output:
//   - Debug logging: Structured logs for debugging (via slog)
//   - User output: Formatted messages for end users
//
// # Debug Logging
//
// Debug logs are written using slog and controlled by verbosity settings:
//
//	logging.Debug("searching offers", "query", query, "limit", limit)
//	logging.Warn("log stream interrupted", "instance", id, "error", err)
//
// # User Output
//
// User-facing messages are formatted with status indicators:
//
//	logging.UserInfo("Fetching templates...")
//	logging.UserSuccess("Instance %s created", id)
//	logging.UserWarning("Completion marker not seen; review logs above")
//	logging.UserError("Instance creation failed: %v", err)
//
// Output destinations:
//   - UserInfo, UserSuccess: stdout
//   - UserWarning, UserError: stderr
package logging
