package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestColumnWidths(t *testing.T) {
	cols := ColumnWidths([]string{"NAME", "CPU"}, [][]string{
		{"web-frontend", "1.5 %"},
		{"db", "12.25 %"},
	})

	assert.Equal(t, []TableColumn{
		{Title: "NAME", Width: 13},
		{Title: "CPU", Width: 8},
	}, cols)
}

func TestRenderTable(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	rows := [][]string{
		{"web", "12.5 %"},
		{"db", "1 %"},
	}
	out := RenderTable(ColumnWidths([]string{"NAME", "CPU"}, rows), rows)

	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "web")
	assert.Contains(t, out, "12.5 %")
	assert.Contains(t, out, "db")
}

func TestRenderTable_Empty(t *testing.T) {
	assert.Empty(t, RenderTable([]TableColumn{{Title: "NAME", Width: 5}}, nil))
}
