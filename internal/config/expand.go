package config

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// Expand resolves the log file path: ${HOME} and ${USER} are substituted and
// a leading ~ or ~/ becomes the home directory. ~username is left alone.
// Other ${...} references are kept verbatim.
func Expand(path string) string {
	if path == "" {
		return path
	}

	path = os.Expand(path, func(name string) string {
		switch name {
		case "HOME":
			return homeDir()
		case "USER":
			return userName()
		}
		return "${" + name + "}"
	})

	switch {
	case path == "~":
		return homeDir()
	case strings.HasPrefix(path, "~/"):
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

func userName() string {
	for _, key := range []string{"USER", "LOGNAME", "USERNAME"} {
		if name := os.Getenv(key); name != "" {
			return name
		}
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "user"
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "~"
}
