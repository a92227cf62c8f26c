package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/crimemap/internal/store"
)

var (
	runsLimit int
	runsYear  int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List exported runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		runs, err := st.ListRuns(ctx, runsLimit)
		if err != nil {
			return eris.Wrap(err, "runs list")
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the stored crime and subtype rates of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		return showRun(ctx, st, args[0], runsYear, os.Stdout)
	},
}

// showRun prints one year of a stored run; year 0 means the run's last year.
func showRun(ctx context.Context, st store.Store, runID string, year int, out io.Writer) error {
	run, err := st.GetRun(ctx, runID)
	if err != nil {
		return eris.Wrap(err, "runs show")
	}
	if year == 0 {
		year = run.LastYear
	}
	if year < run.FirstYear || year > run.LastYear {
		return eris.Errorf("runs show: run %s covers %d-%d, not %d", truncateID(run.ID), run.FirstYear, run.LastYear, year)
	}

	crime, err := st.CrimeRates(ctx, run.ID, year)
	if err != nil {
		return eris.Wrap(err, "runs show: crime rates")
	}
	subtypes, err := st.SubtypeRates(ctx, run.ID, year)
	if err != nil {
		return eris.Wrap(err, "runs show: subtype rates")
	}
	formatRunRates(out, run, year, crime, subtypes)
	return nil
}

func formatRunRates(out io.Writer, run *store.Run, year int, crime map[string]float64, subtypes map[string]map[string]float64) {
	_, _ = fmt.Fprintf(out, "Run %s (%s), %d\n", truncateID(run.ID), run.Source, year)

	boroughs := make([]string, 0, len(crime))
	for b := range crime {
		boroughs = append(boroughs, b)
	}
	sort.Strings(boroughs)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "BOROUGH\tSUBTYPE\tRATE")
	_, _ = fmt.Fprintln(w, "-------\t-------\t----")
	for _, b := range boroughs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%.2f\n", b, "(all)", crime[b])
		names := make([]string, 0, len(subtypes[b]))
		for name := range subtypes[b] {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			_, _ = fmt.Fprintf(w, "\t%s\t%.2f\n", name, subtypes[b][name])
		}
	}
	_ = w.Flush()
}

func formatRunsList(out io.Writer, runs []store.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tYEARS\tBOROUGHS\tSOURCE\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t-----\t--------\t------\t-------")

	for _, r := range runs {
		source := r.Source
		if len(source) > 40 {
			source = source[:37] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%d-%d\t%d\t%s\t%s\n",
			truncateID(r.ID),
			r.FirstYear, r.LastYear,
			r.Boroughs,
			source,
			r.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to list")
	runsShowCmd.Flags().IntVar(&runsYear, "year", 0, "year to show (default the run's last year)")
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}
