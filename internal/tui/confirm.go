package tui

import (
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrNotInteractive reports a confirmation that cannot be asked.
var ErrNotInteractive = errors.New("confirmation required but input is not a terminal, rerun with --yes")

var (
	promptStyle = lipgloss.NewStyle().Bold(true)
	activeStyle = lipgloss.NewStyle().Reverse(true).Padding(0, 1)
	idleStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// ConfirmModel is a yes/no prompt. It defaults to no.
type ConfirmModel struct {
	prompt    string
	yes       bool
	done      bool
	cancelled bool
}

// NewConfirmModel creates a prompt with the given question.
func NewConfirmModel(prompt string) ConfirmModel {
	return ConfirmModel{prompt: prompt}
}

// Confirmed reports the final answer; a cancelled prompt is a no.
func (m ConfirmModel) Confirmed() bool {
	return m.done && m.yes && !m.cancelled
}

// Init satisfies the tea.Model interface.
func (m ConfirmModel) Init() tea.Cmd { return nil }

// Update satisfies the tea.Model interface.
func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "Y":
		m.yes, m.done = true, true
		return m, tea.Quit
	case "n", "N":
		m.yes, m.done = false, true
		return m, tea.Quit
	case "ctrl+c", "esc", "q":
		m.cancelled, m.done = true, true
		return m, tea.Quit
	case "enter":
		m.done = true
		return m, tea.Quit
	case "left", "right", "tab", "h", "l":
		m.yes = !m.yes
	}
	return m, nil
}

// View satisfies the tea.Model interface.
func (m ConfirmModel) View() string {
	if m.done {
		answer := "no"
		if m.Confirmed() {
			answer = "yes"
		}
		return fmt.Sprintf("%s %s\n", promptStyle.Render(m.prompt), answer)
	}
	yes, no := idleStyle.Render("Yes"), activeStyle.Render("No")
	if m.yes {
		yes, no = activeStyle.Render("Yes"), idleStyle.Render("No")
	}
	return fmt.Sprintf("%s %s %s\n", promptStyle.Render(m.prompt), yes, no)
}

// Confirm asks prompt on the terminal behind in. assumeYes answers without
// asking; a non-terminal input returns ErrNotInteractive.
func Confirm(in io.Reader, out io.Writer, prompt string, assumeYes bool) (bool, error) {
	if assumeYes {
		return true, nil
	}
	file, ok := in.(*os.File)
	if !ok || !Interactive(file) {
		return false, ErrNotInteractive
	}

	p := tea.NewProgram(NewConfirmModel(prompt), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return false, err
	}
	m, ok := final.(ConfirmModel)
	if !ok {
		return false, nil
	}
	return m.Confirmed(), nil
}
