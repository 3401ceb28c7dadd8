package sshutil

import "io"

// Process is a running command whose output is consumed as it arrives.
type Process interface {
	Output() io.Reader
	// Wait blocks until the command exits.
	Wait() error
	// Close stops the command.
	Close() error
}

// Runner is the part of Client the remote feed needs. Tests substitute a
// fake that never dials.
type Runner interface {
	// Exec runs a command and returns stdout, stderr, and exit code.
	// A non-zero exit code with nil error means the command ran but failed.
	Exec(cmd string) (stdout, stderr []byte, exitCode int, err error)

	// Start launches a long-running command and streams its stdout.
	Start(cmd string) (Process, error)

	// GetHost returns the host as given to Dial.
	GetHost() string

	// Close closes the SSH connection.
	Close() error
}

var (
	_ Runner  = (*Client)(nil)
	_ Process = (*Stream)(nil)
)
