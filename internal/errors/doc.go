// Package errors provides typed errors with process exit codes for dflctl.
//
// Every user-visible failure maps to an exit code so shell scripts wrapping
// dflctl can branch on the class of failure. Failures of the underlying
// vastai CLI keep the exit code vastai itself reported.
package errors
