package commands

import (
	"context"
	"fmt"
	"path"

	"github.com/gravitational/trace"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/ermos/backupmanager/internal/listing"
	"github.com/ermos/backupmanager/internal/wizard"
)

type restoreOptions struct {
	source      string
	sourcePath  string
	database    string
	compression string
}

func newRestoreCommand(a *app) *cobra.Command {
	opts := &restoreOptions{}

	cmd := &cobra.Command{
		Use:   "db:restore",
		Short: "Restore a database backup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRestore(cmd, a, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.source, paramSource, "", "Source configuration name")
	flags.StringVar(&opts.sourcePath, paramSourcePath, "", "Source path from service")
	flags.StringVar(&opts.database, paramDatabase, "", "Database configuration name")
	flags.StringVar(&opts.compression, paramCompression, "", "Compression type")

	return cmd
}

func restoreForm(ctx context.Context, svc *Services) wizard.Form {
	return wizard.Form{
		Specs: []wizard.ParameterSpec{
			storageSpec(svc, paramSource, "Available storage services", "From which storage service do you want to choose?"),
			{
				Name: paramSourcePath,
				Pick: func(w *wizard.Wizard, resolved wizard.Parameters) (string, error) {
					return pickBackup(ctx, svc, w, resolved[paramSource])
				},
			},
			databaseSpec(svc),
			compressionSpec(svc),
		},
		Summary: func(p wizard.Parameters) string {
			return fmt.Sprintf("Do you want to restore the backup %s from %s to database %s and decompress it from %s?",
				rootedPath(svc, p[paramSource], p[paramSourcePath]),
				p[paramSource],
				p[paramDatabase],
				p[paramCompression],
			)
		},
	}
}

// pickBackup asks for a directory on source and lets the user choose one of
// the files in it. Directories without files are asked for again.
func pickBackup(ctx context.Context, svc *Services, w *wizard.Wizard, source string) (string, error) {
	// A missing directory reads as empty, so an unknown source must fail first
	if !lo.Contains(svc.Storages.AvailableProviders(), source) {
		return "", trace.NotFound("storage %q is not configured", source)
	}

	root := svc.Storages.ConfigValue(source, "root")

	for {
		dir, err := w.Ask("From which path do you want to select? "+w.Highlight(root), nil)
		if err != nil {
			return "", trace.Wrap(err)
		}
		w.Print("")

		entries, err := svc.Storages.List(ctx, source, dir)
		if err != nil && !trace.IsNotFound(err) {
			return "", trace.Wrap(err)
		}

		files := listing.FileNames(entries)
		if len(files) == 0 {
			w.Infof("No backups were found at this path.")
			w.Print("")
			continue
		}

		w.Infof("Available database dumps:")
		w.Print(listing.Render(entries))

		file, err := w.Ask("Which database dump do you want to restore?", files)
		if err != nil {
			return "", trace.Wrap(err)
		}
		return path.Join(dir, file), nil
	}
}

func runRestore(cmd *cobra.Command, a *app, opts *restoreOptions) error {
	svc, err := a.services(cmd.Context())
	if err != nil {
		return trace.Wrap(err)
	}

	w := a.newWizard(cmd)
	params, err := w.Resolve(restoreForm(cmd.Context(), svc), wizard.Parameters{
		paramSource:      opts.source,
		paramSourcePath:  opts.sourcePath,
		paramDatabase:    opts.database,
		paramCompression: opts.compression,
	})
	if err != nil {
		return trace.Wrap(err)
	}

	w.Infof("Downloading and importing backup...")
	err = svc.Restore.Run(cmd.Context(),
		params[paramSource],
		params[paramSourcePath],
		params[paramDatabase],
		params[paramCompression],
	)
	if err != nil {
		return trace.Wrap(err)
	}

	w.Print("")
	w.Infof("Successfully restored %s from %s to database %s.",
		w.Highlight(rootedPath(svc, params[paramSource], params[paramSourcePath])),
		w.Highlight(params[paramSource]),
		w.Highlight(params[paramDatabase]),
	)
	return nil
}
