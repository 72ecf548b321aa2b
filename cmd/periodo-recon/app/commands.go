package app

import (
	"github.com/spf13/cobra"

	"github.com/periodo/reconciler/cmd/periodo-recon/cmd/csv"
	"github.com/periodo/reconciler/cmd/periodo-recon/cmd/describe"
	"github.com/periodo/reconciler/cmd/periodo-recon/cmd/preview"
	"github.com/periodo/reconciler/cmd/periodo-recon/cmd/query"
	"github.com/periodo/reconciler/cmd/periodo-recon/cmd/suggest"
	"github.com/periodo/reconciler/cmd/periodo-recon/cmd/version"
)

// CreateCSVCommand creates the csv command with app dependencies.
func (a *App) CreateCSVCommand() *cobra.Command {
	cmd := csv.NewCommand(a)
	cmd.GroupID = "core"
	return cmd
}

// CreateQueryCommand creates the query command with app dependencies.
func (a *App) CreateQueryCommand() *cobra.Command {
	cmd := query.NewCommand(a)
	cmd.GroupID = "core"
	return cmd
}

// CreateDescribeCommand creates the describe command with app dependencies.
func (a *App) CreateDescribeCommand() *cobra.Command {
	cmd := describe.NewCommand(a)
	cmd.GroupID = "service"
	return cmd
}

// CreateSuggestCommand creates the suggest command with app dependencies.
func (a *App) CreateSuggestCommand() *cobra.Command {
	cmd := suggest.NewCommand(a)
	cmd.GroupID = "service"
	return cmd
}

// CreatePreviewCommand creates the preview command with app dependencies.
func (a *App) CreatePreviewCommand() *cobra.Command {
	cmd := preview.NewCommand(a)
	cmd.GroupID = "service"
	return cmd
}

// CreateVersionCommand creates the version command.
func (a *App) CreateVersionCommand() *cobra.Command {
	return version.NewCommand(a, func() bool { return a.config.Verbose })
}
