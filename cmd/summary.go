package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/crimemap/internal/choropleth"
	"github.com/sells-group/crimemap/internal/model"
	"github.com/sells-group/crimemap/internal/rank"
)

var summaryYear int

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print boroughs ranked by crime rate for a year",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := loadData(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		year := summaryYear
		if year == 0 {
			year = st.DefaultYear()
		}
		snap, err := st.Snapshot(year)
		if err != nil {
			return err
		}
		return formatSummary(os.Stdout, snap)
	},
}

// formatSummary prints one row per recorded borough, highest rate first,
// with the map colour each borough gets.
func formatSummary(out io.Writer, snap *model.YearlySnapshot) error {
	m := choropleth.Build(snap)
	boroughs := snap.Boroughs()
	sort.SliceStable(boroughs, func(i, j int) bool {
		return snap.CrimeRates[boroughs[i]] > snap.CrimeRates[boroughs[j]]
	})

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "%s, %d\n", choropleth.Title, snap.Year)
	_, _ = fmt.Fprintln(w, "RANK\tBOROUGH\tRATE\tCOLOUR")
	_, _ = fmt.Fprintln(w, "----\t-------\t----\t------")
	all := snap.RateValues()
	for _, b := range boroughs {
		rate := snap.CrimeRates[b]
		r, err := rank.Rank(rate, all)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\n", r, b, rate, m.Colors[b])
	}
	return w.Flush()
}

func init() {
	summaryCmd.Flags().IntVar(&summaryYear, "year", 0, "year to summarise (default from config)")
	rootCmd.AddCommand(summaryCmd)
}
