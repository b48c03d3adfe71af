package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/lakescan-io/lakescan/internal/state"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show collection run history",
		RunE:  runRuns,
	}

	cmd.Flags().Int("limit", 20, "Maximum number of runs to show")
	cmd.Flags().String("state", "", "Run history database path")

	return cmd
}

func runRuns(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := state.Open(cfg.StatePath)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"RUN", "SCOPE", "STATUS", "STARTED", "DURATION", "TABLES", "OK", "PARTIAL", "FAILED"})

	for _, run := range runs {
		t.AppendRow(table.Row{
			shortID(run.ID),
			run.Catalog + "." + run.Schema,
			run.Status,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			runDuration(run),
			strconv.Itoa(run.TablesTotal),
			strconv.Itoa(run.TablesSucceeded),
			strconv.Itoa(run.TablesPartial),
			strconv.Itoa(run.TablesFailed),
		})
	}
	t.Render()
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func runDuration(run *state.Run) string {
	if run.CompletedAt == nil {
		return "-"
	}
	return run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
}
