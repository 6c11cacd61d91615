package backupmanager

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gravitational/trace"
)

// Command is an external program invocation. Stdin and Stdout, when set, are
// file paths the process reads from and writes to.
type Command struct {
	Name   string
	Args   []string
	Env    []string
	Stdin  string
	Stdout string
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// ShellProcessor runs external dump and restore tools.
type ShellProcessor struct {
	logger *log.Logger
	// Used for tests to intercept commands before they run
	run func(*exec.Cmd) error
}

// NewShellProcessor creates a new shell processor instance
func NewShellProcessor(logger *log.Logger) *ShellProcessor {
	if logger == nil {
		logger = nullLogger
	}

	return &ShellProcessor{
		logger: logger,
		run:    (*exec.Cmd).Run,
	}
}

// Process runs the command to completion. The process is killed when ctx is cancelled.
func (sp *ShellProcessor) Process(ctx context.Context, command Command) error {
	// Arguments may carry credentials, so only the program name is logged
	sp.logger.Debug("Running command", "command", command.Name)

	cmd := exec.CommandContext(ctx, command.Name, command.Args...)
	cmd.Env = append(os.Environ(), command.Env...)

	var stderr strings.Builder
	cmd.Stderr = &stderr

	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()

	if command.Stdin != "" {
		in, err := os.Open(command.Stdin)
		if err != nil {
			return trace.Wrap(err, "failed to open %q for %q", command.Stdin, command.Name)
		}
		closers = append(closers, in)
		cmd.Stdin = in
	}

	if command.Stdout != "" {
		out, err := os.OpenFile(command.Stdout, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
		if err != nil {
			return trace.Wrap(err, "failed to open %q for %q", command.Stdout, command.Name)
		}
		closers = append(closers, out)
		cmd.Stdout = out
	}

	if err := sp.run(cmd); err != nil {
		return trace.Wrap(err, "process %q failed with stderr: %s", command.Name, strings.TrimSpace(stderr.String()))
	}

	return nil
}
