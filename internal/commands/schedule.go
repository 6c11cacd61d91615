package commands

import (
	"fmt"
	"time"

	"github.com/gravitational/trace"
	"github.com/spf13/cobra"

	"github.com/ermos/backupmanager"
	"github.com/ermos/backupmanager/internal/wizard"
)

type scheduleOptions struct {
	backupOptions
	cron       string
	keep       int
	timeout    time.Duration
	runOnStart bool
}

func newScheduleCommand(a *app) *cobra.Command {
	opts := &scheduleOptions{}

	cmd := &cobra.Command{
		Use:   "db:schedule",
		Short: "Run database backups on a cron schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSchedule(cmd, a, opts)
		},
	}
	opts.bindFlags(cmd, "Directory the backups are written to")

	flags := cmd.Flags()
	flags.StringVar(&opts.cron, "cron", "0 3 * * *", "Standard 5-field cron expression")
	flags.IntVar(&opts.keep, "keep", 0, "Number of backups to keep in the directory (0 keeps all)")
	flags.DurationVar(&opts.timeout, "timeout", time.Hour, "Maximum duration of a single backup")
	flags.BoolVar(&opts.runOnStart, "on-start", false, "Run a backup immediately before waiting for the schedule")

	return cmd
}

func scheduleForm(svc *Services, opts *scheduleOptions) wizard.Form {
	form := backupForm(svc)
	for i := range form.Specs {
		if form.Specs[i].Name == paramDestinationPath {
			form.Specs[i].Question = "In which directory do you want to store the backups?"
		}
	}

	form.Summary = func(p wizard.Parameters) string {
		return fmt.Sprintf("Do you want to schedule backups of %s to %s at %s, compressed with %s, on %q?",
			p[paramDatabase],
			p[paramDestination],
			rootedPath(svc, p[paramDestination], p[paramDestinationPath]),
			p[paramCompression],
			opts.cron,
		)
	}
	return form
}

func runSchedule(cmd *cobra.Command, a *app, opts *scheduleOptions) error {
	svc, err := a.services(cmd.Context())
	if err != nil {
		return trace.Wrap(err)
	}

	w := a.newWizard(cmd)
	params, err := w.Resolve(scheduleForm(svc, opts), opts.parameters())
	if err != nil {
		return trace.Wrap(err)
	}

	job := backupmanager.ScheduledBackup{
		Database:       params[paramDatabase],
		Destination:    params[paramDestination],
		Directory:      params[paramDestinationPath],
		Compression:    params[paramCompression],
		Cron:           opts.cron,
		RetentionCount: opts.keep,
		Timeout:        opts.timeout,
		RunOnStart:     opts.runOnStart,
	}

	w.Infof("Scheduling backups of %s on %s", w.Highlight(job.Database), w.Highlight(job.Cron))
	return trace.Wrap(svc.Scheduler.Run(cmd.Context(), job))
}
