// Package commands implements the backup-manager command line.
package commands

import (
	"context"
	"fmt"
	"html"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/gravitational/trace"
	"github.com/spf13/cobra"

	"github.com/ermos/backupmanager"
	"github.com/ermos/backupmanager/internal/constants"
	"github.com/ermos/backupmanager/internal/logging"
	"github.com/ermos/backupmanager/internal/prompt"
	"github.com/ermos/backupmanager/internal/wizard"
)

// app holds the state shared by every command.
type app struct {
	configPath    string
	envFile       string
	verbose       bool
	wizardOptions wizard.Options

	logger   *log.Logger
	prompter wizard.Prompter

	// loadServices builds the collaborators once flags are parsed
	loadServices func(ctx context.Context, a *app) (*Services, error)
}

func newApp() *app {
	return &app{loadServices: loadManagerServices}
}

// Execute runs the command line and exits with a non-zero status on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp()
	if err := newRootCommand(a).ExecuteContext(ctx); err != nil {
		reportError(os.Stderr, err, a.verbose)
		stop()
		os.Exit(1)
	}
}

func reportError(w io.Writer, err error, verbose bool) {
	if verbose {
		// DebugReport HTML escapes template characters
		fmt.Fprintln(w, html.UnescapeString(trace.DebugReport(err)))
		return
	}
	fmt.Fprintf(w, "Error: %s\n", trace.UserMessage(err))
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           constants.ToolName,
		Short:         "Back up, restore and list database dumps on the configured storages",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if a.logger == nil {
				a.logger = logging.New(cmd.ErrOrStderr(), a.verbose)
			}
			if a.prompter == nil {
				a.prompter = newPrompter(cmd)
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "backup-manager.yaml", "Path to the configuration file")
	flags.StringVar(&a.envFile, "env-file", ".env", "Path to an optional .env file")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	flags.BoolVarP(&a.wizardOptions.NoInteraction, "no-interaction", "n", false, "Fail instead of asking for missing options")
	flags.BoolVar(&a.wizardOptions.Strict, "strict", false, "Only accept answers from the offered choices")
	flags.IntVar(&a.wizardOptions.MaxAttempts, "max-attempts", 0, "Abort after the answers were rejected this many times (0 for no limit)")

	cmd.AddCommand(
		newBackupCommand(a),
		newRestoreCommand(a),
		newListCommand(a),
		newScheduleCommand(a),
		newVersionCommand(),
	)

	return cmd
}

func newPrompter(cmd *cobra.Command) wizard.Prompter {
	if f, ok := cmd.InOrStdin().(*os.File); ok {
		return prompt.New(f, cmd.OutOrStdout())
	}
	return prompt.NewLine(cmd.InOrStdin(), cmd.OutOrStdout())
}

func (a *app) services(ctx context.Context) (*Services, error) {
	svc, err := a.loadServices(ctx, a)
	if err != nil {
		return nil, trace.Wrap(err, "failed to load services")
	}
	return svc, nil
}

func (a *app) newWizard(cmd *cobra.Command) *wizard.Wizard {
	return wizard.New(a.prompter, cmd.OutOrStdout(), a.wizardOptions)
}

func loadManagerServices(_ context.Context, a *app) (*Services, error) {
	cfg, err := backupmanager.LoadConfig(a.configPath, a.envFile)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	m, err := backupmanager.New(cfg, backupmanager.WithLogger(a.logger))
	if err != nil {
		return nil, trace.Wrap(err)
	}

	return &Services{
		Databases:   m.Databases,
		Storages:    m.Storages,
		Compressors: m.Compressors,
		Backup:      m.Backup,
		Restore:     m.Restore,
		Scheduler:   m.Scheduler,
	}, nil
}
