// Package prompt reads answers from the user, either through an interactive
// terminal UI or line by line when stdin is not a terminal.
package prompt

import (
	"errors"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/ermos/backupmanager/internal/wizard"
)

// ErrInterrupted is returned when the user cancels a prompt.
var ErrInterrupted = errors.New("prompt interrupted")

// New returns a terminal UI prompter when in is a terminal, and a line prompter otherwise.
func New(in *os.File, out io.Writer) wizard.Prompter {
	if term.IsTerminal(int(in.Fd())) {
		return NewTerminal(in, out)
	}
	return NewLine(in, out)
}

// parseConfirmation treats an empty answer and anything starting with "y" as a yes.
func parseConfirmation(answer string) bool {
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "" || strings.HasPrefix(answer, "y")
}
