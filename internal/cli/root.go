// Package cli wires the servicedesk commands.
package cli

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

// NewRootCommand returns the servicedesk command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "servicedesk",
		Short: "Repair-shop service desk",
		Long: `servicedesk manages users, service tickets, technician assignment and change history
for a small repair shop. It runs as a terminal desk or as an HTTP API over the same store.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to config file (default: ./servicedesk.yaml)")

	cmd.AddCommand(
		newServeCommand(opts),
		newDeskCommand(opts),
		newMigrateCommand(opts),
		newProvisionAdminCommand(opts),
	)
	return cmd
}
