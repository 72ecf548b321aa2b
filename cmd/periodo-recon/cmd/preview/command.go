// Package preview provides the preview command.
package preview

import (
	"github.com/spf13/cobra"

	"github.com/periodo/reconciler/internal/appcontext"
)

// NewCommand creates the preview command. The service's HTML is written
// to stdout unchanged.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var flyout bool

	cmd := &cobra.Command{
		Use:   "preview <period-id>",
		Short: "Fetch the HTML preview of a period",
		Example: `  periodo-recon preview p0abc123
  periodo-recon preview p0abc123 --flyout > card.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}

			body, err := client.PreviewPeriod(cmd.Context(), args[0], flyout)
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(body)
			return err
		},
	}

	cmd.Flags().BoolVar(&flyout, "flyout", false, "request the compact flyout fragment")

	return cmd
}
