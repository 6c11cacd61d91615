package commands

import (
	"fmt"

	"github.com/gravitational/trace"
	"github.com/spf13/cobra"

	"github.com/ermos/backupmanager/internal/listing"
	"github.com/ermos/backupmanager/internal/wizard"
)

func newListCommand(a *app) *cobra.Command {
	var source, dir string

	cmd := &cobra.Command{
		Use:   "db:list",
		Short: "List contents of a backup storage destination",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.services(cmd.Context())
			if err != nil {
				return trace.Wrap(err)
			}

			w := a.newWizard(cmd)
			params, err := w.Resolve(listForm(svc), wizard.Parameters{
				paramSource: source,
				paramPath:   dir,
			})
			if err != nil {
				return trace.Wrap(err)
			}

			entries, err := svc.Storages.List(cmd.Context(), params[paramSource], params[paramPath])
			if err != nil {
				return trace.Wrap(err)
			}

			w.Print(listing.Render(entries))
			return nil
		},
	}

	cmd.Flags().StringVar(&source, paramSource, "", "Source configuration name")
	cmd.Flags().StringVar(&dir, paramPath, "", "Directory path")

	return cmd
}

func listForm(svc *Services) wizard.Form {
	return wizard.Form{
		Specs: []wizard.ParameterSpec{
			storageSpec(svc, paramSource, "Available sources", "From which source do you want to list?"),
			pathSpec(svc, paramPath, paramSource, "From which path?"),
		},
		Summary: func(p wizard.Parameters) string {
			return fmt.Sprintf("Do you want to list files from %s on %s?",
				rootedPath(svc, p[paramSource], p[paramPath]),
				p[paramSource],
			)
		},
	}
}
