package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"repodump/internal/config"
	"repodump/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past download runs",
	RunE:  runHistory,
}

var historyIssuesCmd = &cobra.Command{
	Use:   "issues <run-id>",
	Short: "Show the issues recorded for one run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryIssues,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show")
	historyCmd.AddCommand(historyIssuesCmd)
}

func openHistory() (history.Store, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	store, err := history.New(cfg.History)
	if err != nil {
		return nil, fmt.Errorf("opening history store: %w", err)
	}
	return store, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	fmt.Printf("%-5s %-20s %-8s %-24s %6s %6s %6s\n",
		"ID", "TARGET", "PLATFORM", "STARTED", "TOTAL", "OK", "FAIL")
	for _, r := range runs {
		fmt.Printf("%-5d %-20s %-8s %-24s %6d %6d %6d\n",
			r.ID, r.Username, r.Platform,
			r.StartedAt.Local().Format(time.RFC3339),
			r.Total, r.Succeeded, r.Failed)
	}
	return nil
}

func runHistoryIssues(cmd *cobra.Command, args []string) error {
	runID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid run id %q", args[0])
	}

	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	issues, err := store.IssuesForRun(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if len(issues) == 0 {
		fmt.Printf("No issues recorded for run %d.\n", runID)
		return nil
	}

	for _, issue := range issues {
		fmt.Printf("%-12s %s\n             %s\n", issue.Kind, issue.Repo, issue.Message)
	}
	return nil
}
