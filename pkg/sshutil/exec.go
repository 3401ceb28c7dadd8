package sshutil

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"golang.org/x/crypto/ssh"

	"github.com/rileyhilliard/livecharts/internal/errors"
)

// Exec runs cmd on the remote host and returns its output.
// exitCode is -1 when the command couldn't be run at all.
func (c *Client) Exec(cmd string) (stdout, stderr []byte, exitCode int, err error) {
	session, err := c.NewSession()
	if err != nil {
		return nil, nil, -1, errors.WrapWithCode(err, errors.ErrSSH,
			"Failed to create SSH session",
			"Connection may have been closed. Try reconnecting.")
	}
	defer session.Close()

	var stdoutBuf, stderrBuf bytes.Buffer
	session.Stdout = &stdoutBuf
	session.Stderr = &stderrBuf

	if err := session.Run(cmd); err != nil {
		if exitErr, ok := err.(*ssh.ExitError); ok {
			return stdoutBuf.Bytes(), stderrBuf.Bytes(), exitErr.ExitStatus(), nil
		}
		return nil, nil, -1, errors.WrapWithCode(err, errors.ErrExec,
			fmt.Sprintf("Failed to execute command: %s", cmd),
			"Check if the command exists on the remote host.")
	}

	return stdoutBuf.Bytes(), stderrBuf.Bytes(), 0, nil
}

// Stream is a long-running remote command whose stdout is read incrementally.
type Stream struct {
	stdout    io.Reader
	session   *ssh.Session
	stderr    bytes.Buffer
	closeOnce sync.Once
}

// Start launches cmd and returns as soon as it is running.
func (c *Client) Start(cmd string) (Process, error) {
	session, err := c.NewSession()
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			"Failed to create SSH session",
			"Connection may have been closed. Try reconnecting.")
	}

	s := &Stream{session: session}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		return nil, errors.WrapWithCode(err, errors.ErrSSH, "Couldn't open remote stdout", "")
	}
	s.stdout = stdout
	session.Stderr = &s.stderr

	if err := session.Start(cmd); err != nil {
		session.Close()
		return nil, errors.WrapWithCode(err, errors.ErrExec,
			fmt.Sprintf("Failed to start command: %s", cmd),
			"Check if the command exists on the remote host.")
	}
	return s, nil
}

// Output returns the command's stdout.
func (s *Stream) Output() io.Reader {
	return s.stdout
}

// Wait blocks until the remote command exits. A non-zero exit is reported as
// an ErrExec error carrying the command's stderr.
func (s *Stream) Wait() error {
	err := s.session.Wait()
	if err == nil {
		return nil
	}
	if exitErr, ok := err.(*ssh.ExitError); ok {
		return errors.New(errors.ErrExec,
			fmt.Sprintf("Remote command exited with status %d", exitErr.ExitStatus()),
			s.stderr.String())
	}
	return errors.WrapWithCode(err, errors.ErrSSH, "Remote stream ended", "")
}

// Close asks the remote command to stop and closes the session.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		_ = s.session.Signal(ssh.SIGTERM)
		err = s.session.Close()
		if err == io.EOF {
			err = nil
		}
	})
	return err
}
