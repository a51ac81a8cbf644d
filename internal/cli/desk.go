package cli

import (
	"github.com/spf13/cobra"

	"github.com/spec-kit/servicedesk/internal/session"
	"github.com/spec-kit/servicedesk/internal/tui"
)

func newDeskCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "desk",
		Short: "Open the terminal desk",
		Long:  `Open the interactive service desk in the terminal. Logs go to LOG_FILE.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := openRuntime(ctx, opts, logToFile)
			if err != nil {
				return err
			}
			defer rt.Close()

			return tui.Run(ctx, session.New(rt.services, rt.logger), rt.logger)
		},
	}
}
