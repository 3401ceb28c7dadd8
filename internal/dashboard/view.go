package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/livecharts/internal/charts"
)

const (
	seriesLabelWidth = 18
	seriesValueWidth = 14
)

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if m.notice != "" {
		b.WriteString(NoticeStyle.Render(m.notice + "  (esc to dismiss)"))
		b.WriteString("\n")
	}

	b.WriteString(m.renderBody())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderHeader renders the title line with the pipeline state.
func (m Model) renderHeader() string {
	title := TitleStyle.Render("livecharts")
	if !m.hasFrame {
		return HeaderStyle.Render(title + LabelStyle.Render(" | waiting for stats from "+m.source))
	}

	f := m.frame
	parts := []string{
		m.source,
		"mode " + f.Mode.String(),
		fmt.Sprintf("%d containers", len(f.Containers)),
		fmt.Sprintf("%d selected", f.Selected.Len()),
		"every " + f.Interval.String(),
	}
	if f.Timestamp != "" {
		parts = append(parts, f.Timestamp)
	}
	if f.Filter != "" {
		parts = append(parts, "filter /"+f.Filter+"/")
	}

	line := title + LabelStyle.Render(" | "+strings.Join(parts, " | "))
	if f.Frozen {
		line += " " + FrozenBadgeStyle.Render("FROZEN")
	}
	return HeaderStyle.Render(line)
}

func (m Model) renderBody() string {
	list := m.renderList()
	if !m.viewportReady {
		return lipgloss.JoinHorizontal(lipgloss.Top, list, m.renderCharts(80))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, list, m.viewport.View())
}

// renderList renders the container list with the cursor and selection marks.
func (m Model) renderList() string {
	inner := listWidth - 4
	if len(m.frame.Containers) == 0 {
		return ListStyle.Width(inner).Render(MutedStyle.Render("no containers"))
	}

	lines := make([]string, 0, len(m.frame.Containers))
	for i, c := range m.frame.Containers {
		cursor := "  "
		if i == m.cursor {
			cursor = CursorStyle.Render("› ")
		}
		check := "[ ]"
		if m.frame.IsSelected(c.ID) {
			check = "[x]"
		}
		name := truncate(c.Name, inner-8)
		lines = append(lines, cursor+check+" "+colorStyle(c.Color).Render("●")+" "+name)
	}
	return ListStyle.Width(inner).Render(strings.Join(lines, "\n"))
}

// renderCharts renders one block per dataset, one sparkline row per series.
func (m Model) renderCharts(width int) string {
	if !m.hasFrame {
		return MutedStyle.Render("Waiting for stats...")
	}
	if len(m.frame.Datasets) == 0 {
		if m.frame.Selected.Empty() {
			return MutedStyle.Render("No containers selected. Press space to pick one, or a for all.")
		}
		return MutedStyle.Render("Collecting samples...")
	}

	inner := width - 4
	sparkWidth := inner - seriesLabelWidth - seriesValueWidth - 2
	if sparkWidth < 5 {
		sparkWidth = 5
	}

	blocks := make([]string, 0, len(m.frame.Datasets)+1)
	for _, ds := range m.frame.Datasets {
		blocks = append(blocks, ChartStyle.Width(inner).Render(renderDataset(ds, sparkWidth)))
	}
	if m.frame.LimitReached {
		blocks = append(blocks, MutedStyle.Render(
			fmt.Sprintf("showing %d of %d charts", len(m.frame.Datasets), m.frame.Total)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

func renderDataset(ds charts.Dataset, sparkWidth int) string {
	lines := []string{colorStyle(ds.Device.Color).Bold(true).Render(ds.Title())}
	for _, s := range ds.Series() {
		values := ds.Values(s)
		latest := 0.0
		if len(values) > 0 {
			latest = values[len(values)-1]
		}
		if s.Flow == charts.FlowWrite {
			latest = -latest
		}

		label := s.Label
		switch s.Flow {
		case charts.FlowRead:
			label += " ↓"
		case charts.FlowWrite:
			label += " ↑"
		}

		style := colorStyle(s.Color)
		lines = append(lines, fmt.Sprintf("%s %s %s",
			pad(truncate(label, seriesLabelWidth), seriesLabelWidth),
			style.Render(Sparkline(values, sparkWidth)),
			LabelStyle.Render(charts.FormatValue(latest)+" "+ds.Device.Unit),
		))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderFooter() string {
	var b strings.Builder
	if m.lastErr != "" {
		b.WriteString(ErrorStyle.Render(m.lastErr))
		b.WriteString("\n")
	}
	b.WriteString(FooterStyle.Render(m.help.View(m.keys)))
	return b.String()
}

// truncate shortens s to n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

func pad(s string, n int) string {
	w := lipgloss.Width(s)
	if w >= n {
		return s
	}
	return s + strings.Repeat(" ", n-w)
}
