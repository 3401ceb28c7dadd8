package doctor

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh/agent"

	"github.com/rileyhilliard/livecharts/pkg/sshutil"
)

// keyFiles lists the private keys Dial would try, the LIVECHARTS_SSH_KEY one
// first.
func keyFiles(home string) []string {
	var paths []string
	if p := os.Getenv(sshutil.KeyEnv); p != "" {
		paths = append(paths, p)
	}
	dir := filepath.Join(home, ".ssh")
	return append(paths,
		filepath.Join(dir, "id_ed25519"),
		filepath.Join(dir, "id_rsa"),
		filepath.Join(dir, "id_ecdsa"),
	)
}

// display shortens paths under home to ~/.
func display(home, path string) string {
	if home != "" && strings.HasPrefix(path, home+string(filepath.Separator)) {
		return "~" + path[len(home):]
	}
	return path
}

// SSHKeyCheck verifies a private key exists for Dial to offer.
type SSHKeyCheck struct {
	// Remote is false for a local source, which needs no SSH.
	Remote bool
	Home   string
}

func (c *SSHKeyCheck) Name() string     { return "ssh_key" }
func (c *SSHKeyCheck) Category() string { return "SSH" }

func (c *SSHKeyCheck) Run(ctx context.Context) CheckResult {
	if !c.Remote {
		return skipLocal()
	}
	for _, path := range keyFiles(c.Home) {
		if _, err := os.Stat(path); err == nil {
			return CheckResult{
				Status:  StatusPass,
				Message: fmt.Sprintf("SSH key found: %s", display(c.Home, path)),
			}
		}
	}
	if os.Getenv("SSH_AUTH_SOCK") != "" {
		return CheckResult{
			Status:  StatusWarn,
			Message: "No SSH key file found, relying on the agent",
		}
	}
	return CheckResult{
		Status:     StatusFail,
		Message:    "No SSH key found",
		Suggestion: fmt.Sprintf("Generate a key with: ssh-keygen -t ed25519, or set %s", sshutil.KeyEnv),
	}
}

// SSHAgentCheck counts the keys held by the agent at SSH_AUTH_SOCK.
type SSHAgentCheck struct {
	Remote bool
}

func (c *SSHAgentCheck) Name() string     { return "ssh_agent" }
func (c *SSHAgentCheck) Category() string { return "SSH" }

func (c *SSHAgentCheck) Run(ctx context.Context) CheckResult {
	if !c.Remote {
		return skipLocal()
	}

	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return CheckResult{
			Status:     StatusWarn,
			Message:    "SSH agent not running, key files only",
			Suggestion: "Start one with: eval $(ssh-agent) && ssh-add",
		}
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socket)
	if err != nil {
		return CheckResult{
			Status:     StatusWarn,
			Message:    "SSH agent socket not accessible",
			Suggestion: "Restart the agent: eval $(ssh-agent) && ssh-add",
		}
	}
	defer conn.Close()

	keys, err := agent.NewClient(conn).List()
	if err != nil {
		return CheckResult{
			Status:     StatusWarn,
			Message:    "Cannot query SSH agent",
			Suggestion: "Check the agent with: ssh-add -l",
		}
	}
	if len(keys) == 0 {
		return CheckResult{
			Status:     StatusWarn,
			Message:    "SSH agent running but no keys loaded",
			Suggestion: "Add a key with: ssh-add",
		}
	}
	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("SSH agent running with %d key%s loaded", len(keys), pluralize(len(keys))),
	}
}

// SSHKeyPermissionsCheck flags private keys readable by group or others.
type SSHKeyPermissionsCheck struct {
	Remote bool
	Home   string
}

func (c *SSHKeyPermissionsCheck) Name() string     { return "ssh_key_permissions" }
func (c *SSHKeyPermissionsCheck) Category() string { return "SSH" }

func (c *SSHKeyPermissionsCheck) Run(ctx context.Context) CheckResult {
	if !c.Remote {
		return skipLocal()
	}

	var bad []string
	found := false
	for _, path := range keyFiles(c.Home) {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		found = true
		if info.Mode().Perm()&0077 != 0 {
			bad = append(bad, display(c.Home, path))
		}
	}

	if !found {
		// ssh_key reports the missing key.
		return CheckResult{Status: StatusSkip, Message: "No private keys to check"}
	}
	if len(bad) > 0 {
		return CheckResult{
			Status:     StatusWarn,
			Message:    fmt.Sprintf("Insecure permissions on: %s", strings.Join(bad, ", ")),
			Suggestion: "Fix: chmod 600 " + strings.Join(bad, " "),
		}
	}
	return CheckResult{Status: StatusPass, Message: "SSH key permissions OK"}
}

func skipLocal() CheckResult {
	return CheckResult{Status: StatusSkip, Message: "Local source, SSH not used"}
}

// NewSSHChecks creates the SSH checks. home is where ~/.ssh lives.
func NewSSHChecks(remote bool, home string) []Check {
	return []Check{
		&SSHKeyCheck{Remote: remote, Home: home},
		&SSHAgentCheck{Remote: remote},
		&SSHKeyPermissionsCheck{Remote: remote, Home: home},
	}
}
