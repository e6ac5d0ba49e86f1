package gates

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ReaderApprover answers gate prompts from a plain reader/writer pair.
// It backs scripted runs and tests where no terminal is attached.
type ReaderApprover struct {
	in  *bufio.Reader
	out io.Writer
}

// NewReaderApprover creates an approver reading replies line by line.
func NewReaderApprover(in io.Reader, out io.Writer) *ReaderApprover {
	return &ReaderApprover{in: bufio.NewReader(in), out: out}
}

// Ask prints the gate message and returns the next input line.
func (a *ReaderApprover) Ask(message string) (string, error) {
	fmt.Fprintln(a.out, message)
	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// TUIApprover answers gate prompts via an inline bubbletea text input.
type TUIApprover struct{}

// NewTUIApprover creates a terminal-backed approver.
func NewTUIApprover() *TUIApprover {
	return &TUIApprover{}
}

// Ask runs a one-shot prompt program and returns the submitted reply.
func (a *TUIApprover) Ask(message string) (string, error) {
	model := newPromptModel(message)
	p := tea.NewProgram(model)
	final, err := p.Run()
	if err != nil {
		return "", err
	}
	done, ok := final.(*promptModel)
	if !ok {
		return "", fmt.Errorf("unexpected prompt model %T", final)
	}
	return done.reply, nil
}

// promptModel is a single-question prompt: render the gate message, take
// one line of input, quit on enter or escape.
type promptModel struct {
	message string
	input   textinput.Model
	reply   string
}

func newPromptModel(message string) *promptModel {
	ti := textinput.New()
	ti.Placeholder = "y/N"
	ti.Focus()
	ti.CharLimit = 32
	ti.Width = 24

	return &promptModel{
		message: message,
		input:   ti,
	}
}

// Init implements tea.Model.
func (m *promptModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			m.reply = m.input.Value()
			return m, tea.Quit
		case "esc", "ctrl+c":
			m.reply = ""
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *promptModel) View() string {
	return m.message + "\n" + m.input.View() + "\n"
}
