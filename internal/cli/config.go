package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/chore/internal/config"
	"github.com/example/chore/internal/schedule"
)

// ConfigCmd returns the config command.
func ConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and change chore configuration",
		Long:  "Read and write $CHORE_HOME/config.yaml (default ~/.chore/config.yaml)",
	}
	cmd.AddCommand(configListCmd())
	cmd.AddCommand(configGetCmd())
	cmd.AddCommand(configSetCmd())
	return cmd
}

func configListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every configuration key and its value",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, key := range config.Keys() {
				value, err := cfg.Get(key)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\n", key, value)
			}
			return w.Flush()
		},
	}
}

func configGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [key]",
		Short: "Print one configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			value, err := cfg.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func configSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Set a configuration value and save it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load the file without environment overrides so they are not persisted.
			cfg, err := config.LoadFile(config.HomeDir())
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			next, err := schedule.NextRunTime(cfg.ValidateSchedule, time.Now())
			if err != nil {
				return fmt.Errorf("invalid validate_schedule %q: %w", cfg.ValidateSchedule, err)
			}
			if err := config.SaveConfig(cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s = %s\n", args[0], args[1])
			if args[0] == "validate_schedule" {
				fmt.Fprintf(cmd.OutOrStdout(), "  Next validation: %s\n", next.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}
