// Package describe provides the describe command, which prints the
// reconciliation service manifest.
package describe

import (
	"github.com/spf13/cobra"

	"github.com/periodo/reconciler/internal/appcontext"
	"github.com/periodo/reconciler/internal/cmd/output"
)

// NewCommand creates the describe command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Show the service manifest",
		Long: `Describe fetches the reconciliation service manifest: its name,
identifier and schema spaces, default types and view URL template.`,
		Example: `  periodo-recon describe
  periodo-recon describe --host data.perio.do --protocol https --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}

			d, err := client.Describe(cmd.Context())
			if err != nil {
				return err
			}

			format := output.Format(app.OutputFormat())
			var data any = d
			if format == output.FormatTable {
				data = output.DescriptorToData(d)
			}
			return output.NewFormatter(format).Format(cmd.OutOrStdout(), data)
		},
	}
}
