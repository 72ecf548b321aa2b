package csv

import (
	"github.com/spf13/cobra"

	"github.com/periodo/reconciler/pkg/errors"
	"github.com/periodo/reconciler/pkg/periodo"
	"github.com/periodo/reconciler/pkg/reconcile"
)

// Flags holds the csv command flags.
type Flags struct {
	Query    string
	Location string
	Start    string
	Stop     string

	Ignore       string
	Transpose    bool
	TopCandidate bool
	Prefix       string
	PageSize     int
	AllowPartial bool

	Output  string
	Summary string
}

// addFlags adds csv-specific flags to the command.
func addFlags(cmd *cobra.Command) *Flags {
	flags := &Flags{}

	cmd.Flags().StringVar(&flags.Query, "query", "", "column holding the period name (required)")
	cmd.Flags().StringVar(&flags.Location, "location", "", "column sent as the location property")
	cmd.Flags().StringVar(&flags.Start, "start", "", "column sent as the start property")
	cmd.Flags().StringVar(&flags.Stop, "stop", "", "column sent as the stop property")
	_ = cmd.MarkFlagRequired("query")

	cmd.Flags().StringVar(&flags.Ignore, "ignore", "", "CSV line of query texts that never get a primary match")
	cmd.Flags().BoolVar(&flags.Transpose, "transpose", false, `swap "Late, Roman" into "Roman Late" before querying`)
	cmd.Flags().BoolVar(&flags.TopCandidate, "top-candidate", false, "take the best candidate when no exact match exists")
	cmd.Flags().StringVar(&flags.Prefix, "prefix", "", "prefix for the appended match columns")
	cmd.Flags().IntVar(&flags.PageSize, "page-size", 0, "rows per request (default from config)")
	cmd.Flags().BoolVar(&flags.AllowPartial, "allow-partial", false, "write rows resolved before a failed page")

	cmd.Flags().StringVarP(&flags.Output, "output", "o", "", "output file (default CSV on stdout)")
	cmd.Flags().StringVar(&flags.Summary, "summary", "", "write a histogram of distinct queries to this file")

	return flags
}

// fields returns the input columns to read.
func (f *Flags) fields() reconcile.Fields {
	return reconcile.Fields{
		Query:    f.Query,
		Location: f.Location,
		Start:    f.Start,
		Stop:     f.Stop,
	}
}

// options converts flags into reconciler options. An unset page size
// falls back to the configured default; the request mode comes from the
// global --mode flag.
func (f *Flags) options(pageSize int, mode periodo.Mode) ([]reconcile.Option, error) {
	if f.PageSize != 0 {
		pageSize = f.PageSize
	}
	if f.Output != "" && f.Output == f.Summary {
		return nil, errors.NewConfigurationError("summary", "summary and output must be different files")
	}

	return []reconcile.Option{
		reconcile.WithIgnoredQueriesLine(f.Ignore),
		reconcile.WithTranspose(f.Transpose),
		reconcile.WithTopCandidate(f.TopCandidate),
		reconcile.WithPrefix(f.Prefix),
		reconcile.WithPageSize(pageSize),
		reconcile.WithMode(mode),
		reconcile.WithAllowPartial(f.AllowPartial),
	}, nil
}
