package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aoyama-dev/sitemirror/internal/config"
	"github.com/aoyama-dev/sitemirror/internal/database"
)

// NewTrafficCmd creates the traffic command for inspecting the recorded
// traffic archive.
func NewTrafficCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "traffic",
		Short: "Inspect the recorded traffic archive",
		Long: `Traffic lists archive runs recorded with --capture-traffic and the
request/response exchanges stored for each run. The stored bodies allow
replaying a past response without touching the live site.`,
		Example: `  sitemirror traffic
  sitemirror traffic --run 3
  sitemirror traffic --run 3 --url https://example.org/page`,
		RunE: runTraffic,
	}

	cmd.Flags().Int64("run", 0, "Show the exchanges of a specific run ID")
	cmd.Flags().String("url", "", "Dump the stored body of one URL (requires --run)")
	cmd.Flags().Int("limit", 20, "Number of runs to list")
	cmd.Flags().String("db-dir", "", "Directory of the traffic database (default: XDG data dir)")

	return cmd
}

// runTraffic executes the traffic command.
func runTraffic(cmd *cobra.Command, _ []string) error {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}
	runID, err := cmd.Flags().GetInt64("run")
	if err != nil {
		return err
	}
	targetURL, err := cmd.Flags().GetString("url")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(dbDir, opts)
	if err != nil {
		return fmt.Errorf("no traffic archive found (run archive with --capture-traffic first): %w", err)
	}
	defer db.Close()

	switch {
	case targetURL != "":
		if runID == 0 {
			return fmt.Errorf("--url requires --run")
		}
		return dumpExchange(cmd, db, runID, targetURL)
	case runID != 0:
		return listExchanges(cmd, db, runID)
	default:
		return listRuns(cmd, db, limit)
	}
}

// listRuns prints the recorded runs, newest first.
func listRuns(cmd *cobra.Command, db *database.TrafficDB, limit int) error {
	runs, err := db.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no recorded runs")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSEED\tSTARTED\tARCHIVED\tSKIPPED\tFAILED")
	for _, r := range runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\n",
			r.ID, r.Seed, r.StartedAt.Format("2006-01-02 15:04:05"),
			r.Archived, r.Skipped, r.Failures)
	}
	return w.Flush()
}

// listExchanges prints the exchanges of one run in fetch order.
func listExchanges(cmd *cobra.Command, db *database.TrafficDB, runID int64) error {
	exchanges, err := db.ListExchanges(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if len(exchanges) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no exchanges recorded for run %d\n", runID)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STATUS\tSIZE\tTYPE\tURL")
	for _, e := range exchanges {
		kind := e.ContentType
		if e.Binary {
			kind += " (binary)"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			e.StatusCode, strconv.FormatInt(e.BodySize, 10), kind, e.URL)
	}
	return w.Flush()
}

// dumpExchange writes the stored body of one URL to the command's output,
// replaying the recorded response.
func dumpExchange(cmd *cobra.Command, db *database.TrafficDB, runID int64, url string) error {
	e, err := db.GetExchange(cmd.Context(), runID, url)
	if err != nil {
		return err
	}
	if _, err := cmd.OutOrStdout().Write(e.Body); err != nil {
		return err
	}
	return nil
}
