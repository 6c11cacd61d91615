// Package wizard interactively fills in command parameters that were not given
// on the command line.
//
// A command describes its parameters as an ordered Form. Resolve asks for every
// parameter that has no value yet, shows a summary of the answers and asks for
// confirmation, asking all missing parameters again until the user accepts.
package wizard

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gravitational/trace"
	"github.com/samber/lo"
)

// ErrUserAborted is returned when the answers were rejected more often than allowed.
var ErrUserAborted = errors.New("user declined to confirm the answers")

// Prompter reads answers from the user.
type Prompter interface {
	// Ask reads a single answer. Suggestions, when given, are offered for completion
	// but do not restrict the answer.
	Ask(question string, suggestions []string) (string, error)
	// Confirm asks a yes/no question.
	Confirm(question string) (bool, error)
}

// Options tune how strictly answers are collected.
type Options struct {
	// NoInteraction fails instead of prompting when a parameter is missing.
	NoInteraction bool
	// Strict rejects answers that are not part of a parameter's choices.
	Strict bool
	// MaxAttempts limits how many times the summary may be rejected. Zero means no limit.
	MaxAttempts int
}

// Wizard resolves forms by prompting through a Prompter and writing
// informational output to a writer.
type Wizard struct {
	prompter Prompter
	out      io.Writer
	opts     Options

	infoStyle    lipgloss.Style
	commentStyle lipgloss.Style
}

// New creates a wizard asking its questions through prompter and writing to out.
func New(prompter Prompter, out io.Writer, opts Options) *Wizard {
	renderer := lipgloss.NewRenderer(out)

	return &Wizard{
		prompter:     prompter,
		out:          out,
		opts:         opts,
		infoStyle:    renderer.NewStyle().Foreground(lipgloss.Color("2")),
		commentStyle: renderer.NewStyle().Foreground(lipgloss.Color("3")),
	}
}

// Resolve returns a copy of initial in which every parameter of the form has a value.
// When nothing is missing it returns immediately without any output.
func (w *Wizard) Resolve(form Form, initial Parameters) (Parameters, error) {
	params := initial.Clone()

	missing := form.Missing(params)
	if len(missing) == 0 {
		return params, nil
	}

	names := lo.Map(missing, func(spec ParameterSpec, _ int) string { return spec.Name })
	if w.opts.NoInteraction {
		return nil, trace.BadParameter("missing required options: %s", strings.Join(names, ", "))
	}

	w.Infof("These arguments haven't been filled yet: %s", w.Highlight(strings.Join(names, ", ")))
	w.Infof("The following questions will fill these in for you.")
	w.lineBreak()

	for attempt := 1; ; attempt++ {
		for _, spec := range missing {
			value, err := w.askFor(spec, params)
			if err != nil {
				return nil, trace.Wrap(err, "failed to read %s", spec.Name)
			}
			// Stored right away, later parameters may depend on it
			params[spec.Name] = value
			w.lineBreak()
		}

		confirmed, err := w.confirm(form, params)
		if err != nil {
			return nil, trace.Wrap(err, "failed to read confirmation")
		}
		if confirmed {
			return params, nil
		}

		if w.opts.MaxAttempts > 0 && attempt >= w.opts.MaxAttempts {
			return nil, trace.Wrap(ErrUserAborted, "answers rejected %d times", attempt)
		}

		w.lineBreak()
		w.Infof("Answers have been reset and re-asking questions.")
		w.lineBreak()
	}
}

func (w *Wizard) askFor(spec ParameterSpec, params Parameters) (string, error) {
	if spec.Pick != nil {
		return spec.Pick(w, params)
	}

	var choices []string
	if spec.Choices != nil {
		choices = spec.Choices()
		w.Infof("%s: %s", spec.ChoicesLabel, w.Highlight(strings.Join(choices, ", ")))
	}

	question := spec.Question
	if spec.Root != nil {
		question += " " + w.Highlight(spec.Root(params))
	}

	return w.Ask(question, choices)
}

func (w *Wizard) confirm(form Form, params Parameters) (bool, error) {
	w.Infof("Just to be sure...")
	if form.Summary != nil {
		w.Infof("%s", form.Summary(params))
	}
	w.lineBreak()

	return w.prompter.Confirm("Are these correct? [Y/n]")
}

// Ask prompts until a non-empty answer is given. In strict mode the answer must
// also be one of choices, when there are any.
func (w *Wizard) Ask(question string, choices []string) (string, error) {
	for {
		answer, err := w.prompter.Ask(question, choices)
		if err != nil {
			return "", trace.Wrap(err)
		}

		answer = strings.TrimSpace(answer)
		if answer == "" {
			w.Infof("A value is required.")
			continue
		}

		if w.opts.Strict && len(choices) > 0 && !lo.Contains(choices, answer) {
			w.Infof("%s is not one of: %s", w.Highlight(answer), w.Highlight(strings.Join(choices, ", ")))
			continue
		}

		return answer, nil
	}
}

// Infof writes an informational line.
func (w *Wizard) Infof(format string, args ...interface{}) {
	fmt.Fprintln(w.out, w.infoStyle.Render(fmt.Sprintf(format, args...)))
}

// Print writes text as is, followed by a newline.
func (w *Wizard) Print(text string) {
	fmt.Fprintln(w.out, text)
}

// Highlight marks a value inside an informational line.
func (w *Wizard) Highlight(text string) string {
	return w.commentStyle.Render(text)
}

func (w *Wizard) lineBreak() {
	fmt.Fprintln(w.out)
}
