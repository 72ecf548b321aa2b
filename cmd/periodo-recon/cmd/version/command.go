// Package version provides the version command.
package version

import (
	"github.com/spf13/cobra"

	"github.com/periodo/reconciler/internal/appcontext"
)

// NewCommand creates the version command. Build details are printed when
// verbose reports true at run time.
func NewCommand(app appcontext.Interface, verbose func() bool) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("periodo-recon %s\n", app.Version())
			if verbose != nil && verbose() {
				cmd.Printf("  commit:   %s\n", app.Commit())
				cmd.Printf("  built:    %s\n", app.Date())
				cmd.Printf("  built by: %s\n", app.BuiltBy())
			}
		},
	}
}
