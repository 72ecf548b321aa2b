package csv

import (
	"context"
	"io"

	"github.com/periodo/reconciler/internal/appcontext"
	"github.com/periodo/reconciler/internal/cmd/output"
	"github.com/periodo/reconciler/pkg/reconcile"
	"github.com/periodo/reconciler/pkg/tabular"
)

// Execute reconciles the rows of input and writes the results to w. With
// --allow-partial a failed page still produces output and the page error
// is returned afterwards. Stats go to w when rows are written to a file and
// to errW when rows go to w and the run was incomplete.
func Execute(ctx context.Context, app appcontext.Interface, input string, flags *Flags, w, errW io.Writer) error {
	logger := app.Logger()

	table, err := tabular.ReadFile(input)
	if err != nil {
		return err
	}
	logger.Info().Str("input", input).Int("rows", table.Len()).Msg("Read input")

	client, err := app.Client()
	if err != nil {
		return err
	}

	defaults := app.Defaults()
	opts, err := flags.options(defaults.PageSize, defaults.Mode)
	if err != nil {
		return err
	}
	opts = append(opts, reconcile.WithLogger(logger))

	r, err := reconcile.New(client, table.Header, flags.fields(), opts...)
	if err != nil {
		return err
	}

	result, runErr := r.Matches(ctx, table.Rows)
	if result == nil {
		return runErr
	}

	if err := writeResults(result, flags, w); err != nil {
		return err
	}

	switch {
	case toFile(flags.Output):
		if err := writeStats(w, output.Format(app.OutputFormat()), result); err != nil {
			return err
		}
	case result.Incomplete:
		if err := writeStats(errW, output.Format(app.OutputFormat()), result); err != nil {
			return err
		}
	}

	return runErr
}

// writeResults writes the reconciled rows and, when requested, the summary.
func writeResults(result *reconcile.Result, flags *Flags, w io.Writer) error {
	if !toFile(flags.Output) {
		if err := tabular.Write(w, tabular.FormatCSV, result.Table()); err != nil {
			return err
		}
	} else if err := tabular.WriteFile(flags.Output, result.Table()); err != nil {
		return err
	}

	if flags.Summary != "" {
		if err := tabular.WriteFile(flags.Summary, result.SummaryTable()); err != nil {
			return err
		}
	}
	return nil
}

// Report is the machine-readable run summary printed after a run.
type Report struct {
	reconcile.Stats `yaml:",inline"`
	Incomplete      bool `json:"incomplete" yaml:"incomplete"`
}

func writeStats(w io.Writer, format output.Format, result *reconcile.Result) error {
	var data any = Report{Stats: result.Stats(), Incomplete: result.Incomplete}
	if format == output.FormatTable {
		data = output.StatsToData(result.Stats(), result.Incomplete)
	}
	return output.NewFormatter(format).Format(w, data)
}

// toFile reports whether rows go to a file rather than stdout.
func toFile(path string) bool {
	return path != "" && path != "-"
}
