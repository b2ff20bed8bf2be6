package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MannyJMusic/dfl-desktop/internal/instances"
)

// Action represents the action to take after picker selection.
type Action int

const (
	ActionNone Action = iota
	ActionSSH
	ActionMonitor
	ActionLogs
	ActionDestroy
	ActionQuit
)

// PickerResult holds the result of the picker.
type PickerResult struct {
	Action   Action
	Instance instances.Instance
}

// instanceItem implements list.Item for instance display.
type instanceItem struct {
	inst instances.Instance
}

func (i instanceItem) Title() string {
	label := i.inst.Label()
	if label == "" {
		label = i.inst.GPUName()
	}
	return fmt.Sprintf("%s  %s", i.inst.ID(), label)
}

func (i instanceItem) Description() string {
	statusIcon := "●"
	switch i.inst.Status() {
	case "running":
		statusIcon = "✓"
	case "exited", "stopped":
		statusIcon = "○"
	case "error":
		statusIcon = "⚠"
	}

	conn := "no ssh endpoint"
	if i.inst.SSHHost() != "" {
		conn = i.inst.SSHHost() + ":" + i.inst.SSHPort()
	}

	return fmt.Sprintf("%s %s | %s | %s",
		statusIcon,
		i.inst.Status(),
		templateOrDash(i.inst),
		conn,
	)
}

func (i instanceItem) FilterValue() string {
	return i.inst.ID() + " " + i.inst.GPUName() + " " + i.inst.Label()
}

func templateOrDash(inst instances.Instance) string {
	if t := inst.TemplateName(); t != "" {
		return t
	}
	return "-"
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)
)

// Model is the bubbletea model for the instance picker.
type Model struct {
	list     list.Model
	result   PickerResult
	quitting bool
	width    int
	height   int
}

// NewPicker creates a new instance picker.
func NewPicker(insts []instances.Instance) Model {
	items := make([]list.Item, len(insts))
	for i, inst := range insts {
		items[i] = instanceItem{inst: inst}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = selectedStyle
	delegate.Styles.SelectedDesc = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	l := list.New(items, delegate, 80, 20)
	l.Title = "DeepFaceLab Desktop - Select Instance"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	return Model{list: l}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case tea.KeyMsg:
		// Don't handle keys if filtering
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "enter":
			if item, ok := m.list.SelectedItem().(instanceItem); ok {
				m.result = PickerResult{Action: ActionSSH, Instance: item.inst}
				m.quitting = true
				return m, tea.Quit
			}

		case "m":
			if item, ok := m.list.SelectedItem().(instanceItem); ok {
				m.result = PickerResult{Action: ActionMonitor, Instance: item.inst}
				m.quitting = true
				return m, tea.Quit
			}

		case "l":
			if item, ok := m.list.SelectedItem().(instanceItem); ok {
				m.result = PickerResult{Action: ActionLogs, Instance: item.inst}
				m.quitting = true
				return m, tea.Quit
			}

		case "d":
			if item, ok := m.list.SelectedItem().(instanceItem); ok {
				m.result = PickerResult{Action: ActionDestroy, Instance: item.inst}
				m.quitting = true
				return m, tea.Quit
			}

		case "q", "esc":
			m.result = PickerResult{Action: ActionQuit}
			m.quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	help := helpStyle.Render("[enter] SSH  [m] Monitor  [l] Logs  [d] Destroy  [/] Filter  [q] Quit")

	return m.list.View() + "\n" + help
}

// Result returns the picker result.
func (m Model) Result() PickerResult {
	return m.result
}

// RunPicker runs the interactive instance picker.
func RunPicker(insts []instances.Instance) (PickerResult, error) {
	if len(insts) == 0 {
		return PickerResult{Action: ActionQuit}, nil
	}

	m := NewPicker(insts)
	p := tea.NewProgram(m, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return PickerResult{}, err
	}

	return finalModel.(Model).Result(), nil
}

// SimplePicker is a non-interactive fallback that just lists instances.
func SimplePicker(insts []instances.Instance) string {
	var sb strings.Builder

	sb.WriteString("DeepFaceLab Desktop - Instances\n")
	sb.WriteString(strings.Repeat("─", 60) + "\n\n")

	if len(insts) == 0 {
		sb.WriteString("No instances found.\n")
		sb.WriteString("Create one with: dflctl provision\n")
		return sb.String()
	}

	for i, inst := range insts {
		statusIcon := "●"
		switch inst.Status() {
		case "running":
			statusIcon = "✓"
		case "error":
			statusIcon = "⚠"
		}

		sb.WriteString(fmt.Sprintf("%d. %s %s (%s)\n",
			i+1, statusIcon, inst.ID(), inst.GPUName()))
		endpoint := "-"
		if inst.SSHHost() != "" {
			endpoint = inst.SSHHost() + ":" + inst.SSHPort()
		}
		sb.WriteString(fmt.Sprintf("   Status: %s | SSH: %s\n\n", inst.Status(), endpoint))
	}

	return sb.String()
}
