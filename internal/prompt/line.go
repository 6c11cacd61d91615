package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gravitational/trace"
)

// Line reads one answer per line. Used when input is piped.
type Line struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewLine creates a prompter reading one answer per line from in.
func NewLine(in io.Reader, out io.Writer) *Line {
	return &Line{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

func (l *Line) Ask(question string, _ []string) (string, error) {
	fmt.Fprintf(l.out, "%s\n> ", question)
	return l.readLine()
}

func (l *Line) Confirm(question string) (bool, error) {
	fmt.Fprintf(l.out, "%s ", question)
	answer, err := l.readLine()
	if err != nil {
		return false, trace.Wrap(err)
	}
	return parseConfirmation(answer), nil
}

func (l *Line) readLine() (string, error) {
	line, err := l.reader.ReadString('\n')
	if err != nil {
		// A last line without a trailing newline is still an answer
		if !errors.Is(err, io.EOF) || line == "" {
			return "", trace.Wrap(err, "failed to read answer")
		}
	}
	return strings.TrimRight(line, "\r\n"), nil
}
