// Package query provides the query command, which reconciles free-text
// period names given on the command line.
package query

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/periodo/reconciler/internal/appcontext"
	"github.com/periodo/reconciler/internal/cmd/output"
	"github.com/periodo/reconciler/pkg/errors"
	"github.com/periodo/reconciler/pkg/periodo"
	pquery "github.com/periodo/reconciler/pkg/query"
	"github.com/periodo/reconciler/pkg/reconcile"
)

// Flags holds the query command flags.
type Flags struct {
	Limit    int
	Location string
	Start    string
	Stop     string
}

// Result is the candidates returned for one query text.
type Result struct {
	Query      string              `json:"query" yaml:"query"`
	Candidates []periodo.Candidate `json:"candidates" yaml:"candidates"`
}

// NewCommand creates the query command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:   "query <text>...",
		Short: "Reconcile period names",
		Long: `Query sends each argument as one reconciliation query and prints
the candidates, best first. Location, start and stop are attached to
every query as properties.`,
		Example: `  periodo-recon query "Bronze Age"
  periodo-recon query "Late Roman" "Early Iron Age" --location Italy
  periodo-recon query Neolithic --start -7000 --limit 3 --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}

			queries, err := buildQueries(args, flags)
			if err != nil {
				return err
			}

			response, err := client.Reconcile(cmd.Context(), queries, app.Defaults().Mode)
			if err != nil {
				return err
			}

			results := make([]Result, len(queries))
			for i, q := range queries {
				results[i] = Result{Query: q.Text(), Candidates: response[q.Label()].Result}
			}

			format := output.Format(app.OutputFormat())
			var data any = results
			if format == output.FormatTable {
				data = resultsToData(results)
			}
			return output.NewFormatter(format).Format(cmd.OutOrStdout(), data)
		},
	}

	cmd.Flags().IntVarP(&flags.Limit, "limit", "l", 0, "maximum candidates per query (0 leaves it to the service)")
	cmd.Flags().StringVar(&flags.Location, "location", "", "location property")
	cmd.Flags().StringVar(&flags.Start, "start", "", "start property")
	cmd.Flags().StringVar(&flags.Stop, "stop", "", "stop property")

	return cmd
}

func buildQueries(texts []string, flags *Flags) ([]pquery.Query, error) {
	if flags.Limit < 0 {
		return nil, &errors.ValidationError{Field: "limit", Value: flags.Limit, Message: "must not be negative"}
	}

	var props []pquery.Property
	for _, p := range []pquery.Property{
		{Name: reconcile.PropertyLocation, Value: flags.Location},
		{Name: reconcile.PropertyStart, Value: flags.Start},
		{Name: reconcile.PropertyStop, Value: flags.Stop},
	} {
		if p.Value != "" {
			props = append(props, p)
		}
	}

	queries := make([]pquery.Query, len(texts))
	for i, text := range texts {
		opts := []pquery.Option{pquery.WithLabel(strconv.Itoa(i)), pquery.WithProperties(props...)}
		if flags.Limit > 0 {
			opts = append(opts, pquery.WithLimit(flags.Limit))
		}
		queries[i] = pquery.New(text, opts...)
	}
	return queries, nil
}

// resultsToData flattens all candidates into one table keyed by query.
func resultsToData(results []Result) output.Data {
	data := output.Data{
		Headers: []string{"Query"},
	}
	for _, r := range results {
		cands := output.CandidatesToData(r.Candidates)
		if data.ColumnAlignment == nil {
			data.Headers = append(data.Headers, cands.Headers...)
			data.ColumnAlignment = append([]output.Align{output.AlignLeft}, cands.ColumnAlignment...)
		}
		if len(cands.Rows) == 0 {
			row := make([]string, len(data.Headers))
			row[0] = r.Query
			row[3] = "(no candidates)"
			data.Rows = append(data.Rows, row)
			continue
		}
		for _, row := range cands.Rows {
			data.Rows = append(data.Rows, append([]string{r.Query}, row...))
		}
	}
	return data
}
