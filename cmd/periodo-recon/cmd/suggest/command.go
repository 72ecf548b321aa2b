// Package suggest provides commands for the service's suggest endpoints.
package suggest

import (
	"github.com/spf13/cobra"

	"github.com/periodo/reconciler/internal/appcontext"
	"github.com/periodo/reconciler/internal/cmd/output"
)

// NewCommand creates the suggest command with its subcommands.
func NewCommand(app appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest [resource]",
		Short: "Query the suggest endpoints",
		Long: `Suggest lists what the service offers for autocompletion.

Available subcommands:
  properties  - properties a query may carry
  entities    - periods whose name starts with a prefix`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newPropertiesCommand(app))
	cmd.AddCommand(newEntitiesCommand(app))

	return cmd
}

func newPropertiesCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:     "properties",
		Aliases: []string{"props"},
		Short:   "List properties supported by the service",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}

			props, err := client.SuggestProperties(cmd.Context())
			if err != nil {
				return err
			}

			format := output.Format(app.OutputFormat())
			var data any = props
			if format == output.FormatTable {
				data = output.PropertiesToData(props)
			}
			return output.NewFormatter(format).Format(cmd.OutOrStdout(), data)
		},
	}
}

func newEntitiesCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:     "entities <prefix>",
		Aliases: []string{"periods"},
		Short:   "List periods whose name starts with prefix",
		Example: `  periodo-recon suggest entities "late rom"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}

			candidates, err := client.SuggestEntities(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			format := output.Format(app.OutputFormat())
			var data any = candidates
			if format == output.FormatTable {
				data = output.CandidatesToData(candidates)
			}
			return output.NewFormatter(format).Format(cmd.OutOrStdout(), data)
		},
	}
}
