package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/crimemap/internal/panel"
)

var (
	panelYear int
	panelJSON bool
)

var panelCmd = &cobra.Command{
	Use:   "panel <borough>",
	Short: "Print the statistics panel of a borough",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := loadData(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		year := panelYear
		if year == 0 {
			year = st.DefaultYear()
		}
		data, err := panel.NewAssembler(st).Assemble(args[0], year)
		if err != nil {
			return err
		}
		if panelJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(data)
		}
		formatPanel(os.Stdout, data)
		return nil
	},
}

func formatPanel(out io.Writer, p *panel.PanelData) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, p.Header)
	_, _ = fmt.Fprintln(w, strings.Repeat("=", len(p.Header)))
	_, _ = fmt.Fprintf(w, "%s:\t%s %s\t%s\n", p.CrimeRate.Label, p.CrimeRate.Display, p.CrimeRate.Unit, p.CrimeRate.RankText)
	for _, s := range p.Subtypes {
		_, _ = fmt.Fprintf(w, "  %s:\t%s %s\t%s\n", s.Label, s.Display, s.Unit, s.RankText)
	}
	_, _ = fmt.Fprintf(w, "%s:\t%s\t%s\n", p.Population.Label, p.Population.Display, p.Population.RankText)
	for _, ind := range p.Indicators {
		_, _ = fmt.Fprintf(w, "%s:\t%s\t%s\n", ind.Label, ind.Display, ind.RankText)
	}
	_ = w.Flush()

	_, _ = fmt.Fprintf(out, "\n%s\n\n%s\n", p.CrimeNote, p.IndicatorNote)
}

func init() {
	panelCmd.Flags().IntVar(&panelYear, "year", 0, "year to show (default from config)")
	panelCmd.Flags().BoolVar(&panelJSON, "json", false, "print the panel as JSON")
	rootCmd.AddCommand(panelCmd)
}
