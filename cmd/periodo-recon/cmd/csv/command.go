// Package csv provides the csv command, which reconciles every row of a
// tabular file and writes it back with match columns appended.
package csv

import (
	"github.com/spf13/cobra"

	"github.com/periodo/reconciler/internal/appcontext"
)

// NewCommand creates the csv command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var flags *Flags

	cmd := &cobra.Command{
		Use:     "csv <input>",
		Aliases: []string{"file"},
		Short:   "Reconcile every row of a CSV, TSV or XLSX file",
		Long: `Csv reconciles the query column of every input row and appends
match columns:

  match_num            position of the chosen candidate (1-based)
  match_name           name of the chosen candidate
  match_id             identifier of the chosen candidate
  candidates_count     number of candidates returned
  match_fallback_id    most frequent match for the same query text
  match_fallback_name  name of the fallback match

Rows are sent in pages. Queries listed with --ignore never receive a
primary match but still contribute to fallbacks. The output format
follows the file extension of --output (csv, tsv, xlsx, json, yaml).`,
		Example: `  periodo-recon csv periods.csv --query name -o matched.csv
  periodo-recon csv sites.xlsx --query period --location country --summary summary.csv
  periodo-recon csv in.csv --query label --transpose --ignore 'Unknown,"Roman, Late"'
  periodo-recon csv in.csv --query label --mode single --concurrency 8 --allow-partial -o out.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Execute(cmd.Context(), app, args[0], flags, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags = addFlags(cmd)

	return cmd
}
