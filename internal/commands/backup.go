package commands

import (
	"fmt"

	"github.com/gravitational/trace"
	"github.com/spf13/cobra"

	"github.com/ermos/backupmanager/internal/wizard"
)

type backupOptions struct {
	database        string
	destination     string
	destinationPath string
	compression     string
}

func (o backupOptions) parameters() wizard.Parameters {
	return wizard.Parameters{
		paramDatabase:        o.database,
		paramDestination:     o.destination,
		paramDestinationPath: o.destinationPath,
		paramCompression:     o.compression,
	}
}

func (o *backupOptions) bindFlags(cmd *cobra.Command, pathUsage string) {
	flags := cmd.Flags()
	flags.StringVar(&o.database, paramDatabase, "", "Database configuration name")
	flags.StringVar(&o.destination, paramDestination, "", "Destination configuration name")
	flags.StringVar(&o.destinationPath, paramDestinationPath, "", pathUsage)
	flags.StringVar(&o.compression, paramCompression, "", "Compression type")
}

func newBackupCommand(a *app) *cobra.Command {
	opts := &backupOptions{}

	cmd := &cobra.Command{
		Use:   "db:backup",
		Short: "Create a database backup and store it on a storage destination",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBackup(cmd, a, opts)
		},
	}
	opts.bindFlags(cmd, "File destination path")

	return cmd
}

func backupForm(svc *Services) wizard.Form {
	return wizard.Form{
		Specs: []wizard.ParameterSpec{
			databaseSpec(svc),
			storageSpec(svc, paramDestination, "Available storage services", "To which storage service you want to save?"),
			pathSpec(svc, paramDestinationPath, paramDestination, "How do you want to name the backup?"),
			compressionSpec(svc),
		},
		Summary: func(p wizard.Parameters) string {
			return fmt.Sprintf("Do you want to create a backup of %s, store it on %s at %s and compress it to %s?",
				p[paramDatabase],
				p[paramDestination],
				rootedPath(svc, p[paramDestination], p[paramDestinationPath]),
				p[paramCompression],
			)
		},
	}
}

func runBackup(cmd *cobra.Command, a *app, opts *backupOptions) error {
	svc, err := a.services(cmd.Context())
	if err != nil {
		return trace.Wrap(err)
	}

	w := a.newWizard(cmd)
	params, err := w.Resolve(backupForm(svc), opts.parameters())
	if err != nil {
		return trace.Wrap(err)
	}

	w.Infof("Dumping database and uploading...")
	err = svc.Backup.Run(cmd.Context(),
		params[paramDatabase],
		params[paramDestination],
		params[paramDestinationPath],
		params[paramCompression],
	)
	if err != nil {
		return trace.Wrap(err)
	}

	w.Print("")
	w.Infof("Successfully dumped %s, compressed with %s and store it to %s at %s",
		w.Highlight(params[paramDatabase]),
		w.Highlight(params[paramCompression]),
		w.Highlight(params[paramDestination]),
		w.Highlight(rootedPath(svc, params[paramDestination], params[paramDestinationPath])),
	)
	return nil
}
