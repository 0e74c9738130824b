package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/chore/internal/ctxutil"
	"github.com/example/chore/internal/ports/primary"
	"github.com/example/chore/internal/wire"
)

// commandContext returns the command context carrying the --actor flag.
func commandContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	actor, _ := cmd.Flags().GetString("actor")
	if actor == "" {
		actor = os.Getenv("CHORE_ACTOR")
	}
	return ctxutil.WithActor(ctx, actor)
}

// CreateCmd returns the create command.
func CreateCmd() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a new chore at design",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := wire.ChoreAdapterWithOutput(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			_, err = adapter.Create(commandContext(cmd), args[0], description)
			return err
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Chore description")
	return cmd
}

// ShowCmd returns the show command.
func ShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [chore-id]",
		Short: "Show chore details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseChoreID(args[0])
			if err != nil {
				return err
			}
			adapter, err := wire.ChoreAdapterWithOutput(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			_, err = adapter.Show(commandContext(cmd), id)
			return err
		},
	}
}

// ListCmd returns the list command.
func ListCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List chores from both logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := wire.ChoreAdapterWithOutput(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return adapter.List(commandContext(cmd), status)
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status (design, design_review, ..., work_done)")
	return cmd
}

// UpdateCmd returns the update command.
func UpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update [chore-id]",
		Short: "Update a chore's fields (never its status)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseChoreID(args[0])
			if err != nil {
				return err
			}
			req := primary.UpdateChoreRequest{ChoreID: id}
			flags := cmd.Flags()
			for flag, dst := range map[string]**string{
				"name":        &req.Name,
				"description": &req.Description,
				"progress":    &req.ProgressInfo,
				"review":      &req.ReviewInfo,
			} {
				if flags.Changed(flag) {
					v, _ := flags.GetString(flag)
					*dst = &v
				}
			}
			if flags.Changed("next") {
				raw, _ := flags.GetString("next")
				next, err := parseChoreID(raw)
				if err != nil {
					return err
				}
				req.NextChoreID = &next
			}
			req.ClearNext, _ = flags.GetBool("clear-next")

			adapter, err := wire.ChoreAdapterWithOutput(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return adapter.Update(commandContext(cmd), req)
		},
	}
	cmd.Flags().StringP("name", "n", "", "New chore name")
	cmd.Flags().StringP("description", "d", "", "New chore description")
	cmd.Flags().String("progress", "", "Progress info to record")
	cmd.Flags().String("review", "", "Review info to record")
	cmd.Flags().String("next", "", "Successor chore ID")
	cmd.Flags().Bool("clear-next", false, "Unlink the successor chore")
	return cmd
}

// ReplaceCmd returns the replace command.
func ReplaceCmd() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "replace [chore-id] [name]",
		Short: "Replace a chore's name and description",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseChoreID(args[0])
			if err != nil {
				return err
			}
			adapter, err := wire.ChoreAdapterWithOutput(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return adapter.Replace(commandContext(cmd), id, args[1], description)
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "New chore description")
	return cmd
}

// DeleteCmd returns the delete command.
func DeleteCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete [chore-id]",
		Short: "Delete an active chore that is not done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseChoreID(args[0])
			if err != nil {
				return err
			}
			cfg, err := wire.Config()
			if err != nil {
				return err
			}
			adapter, err := wire.ChoreAdapterWithOutput(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			ctx := commandContext(cmd)
			if cfg.ConfirmDelete && !force {
				if _, err := adapter.Show(ctx, id); err != nil {
					return err
				}
				if !confirmPrompt(cmd.OutOrStdout(), cmd.InOrStdin(), fmt.Sprintf("Delete chore %d?", id)) {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
					return nil
				}
			}
			return adapter.Delete(ctx, id)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Delete without asking for confirmation")
	return cmd
}

// TransitionCmd returns the transition command.
func TransitionCmd() *cobra.Command {
	var role, note string
	cmd := &cobra.Command{
		Use:   "transition [chore-id] [status]",
		Short: "Move a chore one step through its workflow",
		Long: `Move a chore to the next status, or back one step from a review state.

The producer moves design, plan, and work forward and submits them for review.
The reviewer approves or rejects review states. Reaching work_done archives the
chore and activates its successor.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseChoreID(args[0])
			if err != nil {
				return err
			}
			adapter, err := wire.ChoreAdapterWithOutput(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return adapter.Transition(commandContext(cmd), id, args[1], role, note)
		},
	}
	cmd.Flags().StringVarP(&role, "role", "r", "producer", "Acting role (producer or reviewer)")
	cmd.Flags().StringVar(&note, "note", "", "Note recorded with the transition")
	return cmd
}

// ArchiveCmd returns the archive command.
func ArchiveCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Move chores already at work_done to the completed log",
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := wire.ChoreAdapterWithOutput(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return adapter.Archive(commandContext(cmd), dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be archived without moving anything")
	return cmd
}
