package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShellQuote(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", "'simple'"},
		{"with space", "'with space'"},
		{"with'quote", "'with'\\''quote'"},
		{"", "''"},
		{"$variable", "'$variable'"},
		{"$(command)", "'$(command)'"},
		{"`backtick`", "'`backtick`'"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShellQuote(tt.input))
		})
	}
}

func TestQuoteIfNeeded(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"docker", "docker"},
		{"/usr/local/bin/podman", "/usr/local/bin/podman"},
		{"--format", "--format"},
		{"{{json .}}", "'{{json .}}'"},
		{"docker; rm -rf ~", "'docker; rm -rf ~'"},
		{"", "''"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, QuoteIfNeeded(tt.input))
		})
	}
}

func TestShellCommand(t *testing.T) {
	assert.Equal(t, "docker stats --format '{{json .}}'", ShellCommand("docker", "stats", "--format", "{{json .}}"))
	assert.Equal(t, "'my runtime' ps", ShellCommand("my runtime", "ps"))
}
