// Package util builds shell command lines for commands run on remote hosts.
package util

import "strings"

// safeChars never need quoting in a POSIX shell word.
const safeChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_./:=@%+,"

// ShellQuote wraps a string in single quotes, escaping any existing single quotes.
func ShellQuote(s string) string {
	// Replace ' with '\'' (end quote, escaped quote, start quote)
	escaped := strings.ReplaceAll(s, "'", "'\\''")
	return "'" + escaped + "'"
}

// QuoteIfNeeded returns s unchanged when the shell would read it as one
// literal word, and single-quoted otherwise.
func QuoteIfNeeded(s string) string {
	if s == "" {
		return "''"
	}
	for _, r := range s {
		if !strings.ContainsRune(safeChars, r) {
			return ShellQuote(s)
		}
	}
	return s
}

// ShellCommand joins name and args into a command line the remote shell
// splits back into the same words.
func ShellCommand(name string, args ...string) string {
	words := make([]string, 0, len(args)+1)
	words = append(words, QuoteIfNeeded(name))
	for _, a := range args {
		words = append(words, QuoteIfNeeded(a))
	}
	return strings.Join(words, " ")
}
