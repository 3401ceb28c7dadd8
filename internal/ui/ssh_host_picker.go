package ui

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/livecharts/internal/errors"
	"github.com/rileyhilliard/livecharts/pkg/sshutil"
)

// PickResult is how the host picker ended.
type PickResult int

const (
	// PickCancelled means the user backed out.
	PickCancelled PickResult = iota
	// PickSelected means a host was chosen.
	PickSelected
	// PickManual means the user wants to type a host.
	PickManual
)

type hostItem struct {
	host sshutil.HostEntry
}

func (i hostItem) Title() string       { return i.host.Alias }
func (i hostItem) Description() string { return i.host.Description() }

func (i hostItem) FilterValue() string {
	values := []string{i.host.Alias}
	if i.host.Hostname != "" {
		values = append(values, i.host.Hostname)
	}
	if i.host.User != "" {
		values = append(values, i.host.User)
	}
	return strings.Join(values, " ")
}

type hostPickerKeyMap struct {
	Enter  key.Binding
	Manual key.Binding
	Quit   key.Binding
}

var hostPickerKeys = hostPickerKeyMap{
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Manual: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "manual entry"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q/esc", "cancel"),
	),
}

// HostPickerModel lets the user pick a host from their ssh config.
type HostPickerModel struct {
	list     list.Model
	selected sshutil.HostEntry
	result   PickResult
	quitting bool
}

// NewHostPickerModel creates a picker over hosts.
func NewHostPickerModel(hosts []sshutil.HostEntry) HostPickerModel {
	items := make([]list.Item, len(hosts))
	for i, h := range hosts {
		items[i] = hostItem{host: h}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(ColorPrimary).
		BorderForeground(ColorSecondary)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(ColorMuted)

	l := list.New(items, delegate, 80, 15)
	l.Title = "Pick the docker host to chart"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Padding(0, 0, 1, 0)
	l.Styles.HelpStyle = lipgloss.NewStyle().Foreground(ColorMuted)
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{hostPickerKeys.Manual}
	}

	return HostPickerModel{list: l}
}

// Init implements tea.Model.
func (m HostPickerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m HostPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Keys belong to the filter input while it's open.
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, hostPickerKeys.Enter):
			if item, ok := m.list.SelectedItem().(hostItem); ok {
				m.selected = item.host
				m.result = PickSelected
			}
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, hostPickerKeys.Manual):
			m.result = PickManual
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, hostPickerKeys.Quit):
			m.result = PickCancelled
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-2)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m HostPickerModel) View() string {
	if m.quitting {
		return ""
	}
	hint := lipgloss.NewStyle().
		Foreground(ColorMuted).
		Render("\n  Press 'm' to type a host instead")
	return m.list.View() + hint
}

// Result returns how the picker ended and the chosen host, if any.
func (m HostPickerModel) Result() (sshutil.HostEntry, PickResult) {
	return m.selected, m.result
}

// PickSSHHost runs the picker on the terminal. With no hosts it asks for
// manual entry straight away.
func PickSSHHost(hosts []sshutil.HostEntry) (sshutil.HostEntry, PickResult, error) {
	return PickSSHHostWithIO(hosts, os.Stdout, os.Stdin)
}

// PickSSHHostWithIO runs the picker on the given streams.
func PickSSHHostWithIO(hosts []sshutil.HostEntry, out io.Writer, in io.Reader) (sshutil.HostEntry, PickResult, error) {
	if len(hosts) == 0 {
		return sshutil.HostEntry{}, PickManual, nil
	}

	p := tea.NewProgram(NewHostPickerModel(hosts), tea.WithOutput(out), tea.WithInput(in))
	final, err := p.Run()
	if err != nil {
		return sshutil.HostEntry{}, PickCancelled, errors.WrapWithCode(err, errors.ErrConfig,
			"SSH host picker failed",
			"Pass the host with --host instead")
	}

	m, ok := final.(HostPickerModel)
	if !ok {
		return sshutil.HostEntry{}, PickCancelled, nil
	}
	host, result := m.Result()
	return host, result, nil
}
