package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/chore/internal/cli"
	"github.com/example/chore/internal/version"
	"github.com/example/chore/internal/wire"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "chore",
		Short:   "chore - staged lifecycle for chained units of work",
		Version: version.String(),
		Long: `chore tracks units of work through design, plan, and work stages, each
reviewed before the next begins. Finished chores move to a completed log and
activate their successor in the chain.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("actor", "", "Name recorded on journal events (default $CHORE_ACTOR, else the role)")

	// Chore lifecycle
	rootCmd.AddCommand(cli.CreateCmd())
	rootCmd.AddCommand(cli.ShowCmd())
	rootCmd.AddCommand(cli.ListCmd())
	rootCmd.AddCommand(cli.UpdateCmd())
	rootCmd.AddCommand(cli.ReplaceCmd())
	rootCmd.AddCommand(cli.DeleteCmd())
	rootCmd.AddCommand(cli.TransitionCmd())
	rootCmd.AddCommand(cli.ArchiveCmd())

	// Maintenance
	rootCmd.AddCommand(cli.ValidateCmd())
	rootCmd.AddCommand(cli.EventsCmd())
	rootCmd.AddCommand(cli.ConfigCmd())
	rootCmd.AddCommand(cli.VersionCmd())

	err := rootCmd.ExecuteContext(context.Background())
	if cerr := wire.Close(); cerr != nil {
		fmt.Fprintln(os.Stderr, cerr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
