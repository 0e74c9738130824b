package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/chore/internal/ports/primary"
	"github.com/example/chore/internal/wire"
)

// EventsCmd returns the events command.
func EventsCmd() *cobra.Command {
	var kind, choreArg string
	var limit int
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List lifecycle events from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			filters := primary.EventFilters{Kind: kind, Limit: limit}
			if choreArg != "" {
				id, err := parseChoreID(choreArg)
				if err != nil {
					return err
				}
				filters.ChoreID = id
			}

			adapter, err := wire.ChoreAdapterWithOutput(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return adapter.Events(commandContext(cmd), filters)
		},
	}
	cmd.Flags().StringVarP(&choreArg, "chore", "c", "", "Only events for this chore")
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "Filter by kind (created, updated, deleted, transition, activation, chain_warning, repair)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of events")
	return cmd
}
