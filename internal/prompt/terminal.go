package prompt

import (
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gravitational/trace"
)

var (
	styleQuestion = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	styleHint     = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)
	styleAnswer   = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)

// Terminal prompts through a bubbletea text input with tab completion.
type Terminal struct {
	in  io.Reader
	out io.Writer
}

// NewTerminal creates a prompter running an interactive text input on in.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: in, out: out}
}

func (t *Terminal) Ask(question string, suggestions []string) (string, error) {
	return t.run(newInputModel(question, suggestions))
}

func (t *Terminal) Confirm(question string) (bool, error) {
	answer, err := t.run(newInputModel(question, []string{"yes", "no"}))
	if err != nil {
		return false, trace.Wrap(err)
	}
	return parseConfirmation(answer), nil
}

func (t *Terminal) run(model inputModel) (string, error) {
	prog := tea.NewProgram(model, tea.WithInput(t.in), tea.WithOutput(t.out))
	result, err := prog.Run()
	if err != nil {
		return "", trace.Wrap(err, "failed to run prompt")
	}

	final, ok := result.(inputModel)
	if !ok {
		return "", trace.BadParameter("prompt returned unexpected model %T", result)
	}
	if final.interrupted {
		return "", trace.Wrap(ErrInterrupted)
	}
	return final.answer, nil
}

type inputModel struct {
	question    string
	input       textinput.Model
	suggestions bool
	answer      string
	done        bool
	interrupted bool
}

func newInputModel(question string, suggestions []string) inputModel {
	input := textinput.New()
	input.Prompt = "> "
	input.ShowSuggestions = len(suggestions) > 0
	input.SetSuggestions(suggestions)
	input.Focus()

	return inputModel{
		question:    question,
		input:       input,
		suggestions: len(suggestions) > 0,
	}
}

func (m inputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.interrupted = true
			return m, tea.Quit
		case tea.KeyEnter:
			m.answer = m.input.Value()
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m inputModel) View() string {
	var b strings.Builder
	b.WriteString(styleQuestion.Render(m.question))
	b.WriteString("\n")

	// Keep the answer on screen once the program exits
	if m.done {
		b.WriteString("> " + styleAnswer.Render(m.answer) + "\n")
		return b.String()
	}
	if m.interrupted {
		return b.String()
	}

	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.suggestions {
		b.WriteString(styleHint.Render("tab to complete"))
		b.WriteString("\n")
	}
	return b.String()
}
