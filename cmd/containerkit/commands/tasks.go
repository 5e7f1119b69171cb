package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	dserrors "github.com/systmms/containerkit/internal/errors"
	"github.com/systmms/containerkit/pkg/taskstore"
)

func NewTasksCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Record and list batch-task runs",
	}

	cmd.AddCommand(
		newTasksRecordCommand(app),
		newTasksListCommand(app),
	)
	return cmd
}

func (a *App) taskStore() *taskstore.Store {
	dir := a.Config.Tasks.Dir
	if dir == "" {
		dir = taskstore.DefaultDir()
	}
	return taskstore.NewStore(dir)
}

func newTasksRecordCommand(app *App) *cobra.Command {
	var (
		dagID        string
		runID        string
		taskID       string
		status       string
		metadataJSON string
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Upsert the entry for one task run",
		Long: `Record the state of a task run. The first record for a
(dag, run, task) triple creates the entry; later records update its
status and merge metadata, keeping the original creation time.

Example:
  containerkit tasks record --dag-id nightly-orders --run-id "$RUN_ID" \
    --task-id extract --status success --metadata '{"rows": 1042}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dagID == "" || runID == "" || taskID == "" || status == "" {
				return dserrors.UserError{
					Message:    "dag-id, run-id, task-id and status are all required",
					Suggestion: "Pass --dag-id, --run-id, --task-id and --status",
				}
			}

			var metadata map[string]any
			if metadataJSON != "" {
				if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
					return dserrors.UserError{
						Message:    "invalid --metadata value",
						Suggestion: `Pass a JSON object like '{"rows": 1042}'`,
						Err:        err,
					}
				}
			}

			entry, err := app.taskStore().HandleTask(dagID, runID, taskID, status, metadata)
			if err != nil {
				return err
			}
			app.Logger.Info("Recorded %s/%s/%s as %s", entry.DagID, entry.RunID, entry.TaskID, entry.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&dagID, "dag-id", "", "The DAG ID")
	cmd.Flags().StringVar(&runID, "run-id", "", "The run ID")
	cmd.Flags().StringVar(&taskID, "task-id", "", "The task ID")
	cmd.Flags().StringVar(&status, "status", "", "Task status (e.g. running, success, failed)")
	cmd.Flags().StringVar(&metadataJSON, "metadata", "", "JSON object of extra fields to merge into the entry")
	return cmd
}

func newTasksListCommand(app *App) *cobra.Command {
	var (
		dagID  string
		runID  string
		status string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded task runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := app.taskStore().List(taskstore.Filter{
				DagID:  dagID,
				RunID:  runID,
				Status: status,
			}, limit)
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				app.Logger.Info("No task entries found")
				return nil
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, entry := range entries {
				if err := enc.Encode(entry); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d entries\n", len(entries))
			return nil
		},
	}

	cmd.Flags().StringVar(&dagID, "dag-id", "", "Only entries for this DAG")
	cmd.Flags().StringVar(&runID, "run-id", "", "Only entries for this run")
	cmd.Flags().StringVar(&status, "status", "", "Only entries with this status")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum entries to print (0 for all)")
	return cmd
}
