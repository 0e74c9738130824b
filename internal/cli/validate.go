package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/chore/internal/ports/primary"
	"github.com/example/chore/internal/wire"
)

// ValidateCmd returns the validate command.
func ValidateCmd() *cobra.Command {
	var repair, watch bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check both chore logs for integrity violations",
		Long: `Check the active and completed logs for duplicates, misplaced records,
dangling successor references, and chain cycles.

With --repair every violation is fixed. With --watch validation runs on the
validate_schedule cron expression until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := wire.ChoreAdapterWithOutput(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)

			if !watch {
				report, err := adapter.Validate(ctx, repair)
				if err != nil {
					return err
				}
				if !repair && len(report.Violations) > 0 {
					return fmt.Errorf("%d integrity violation(s) found\nHint: run 'chore validate --repair'", len(report.Violations))
				}
				return nil
			}

			sched, err := wire.Scheduler(repair, func(report *primary.IntegrityReport) {
				adapter.PrintReport(report)
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			sched.Start(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "Watching, next validation at %s (Ctrl-C to stop)\n",
				sched.NextRun().Format("2006-01-02 15:04"))
			<-ctx.Done()
			sched.Stop()
			return nil
		},
	}
	cmd.Flags().BoolVar(&repair, "repair", false, "Repair every violation found")
	cmd.Flags().BoolVar(&watch, "watch", false, "Keep running on the configured schedule")
	return cmd
}
