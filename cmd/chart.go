package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/crimemap/internal/chart"
)

var chartOut string

var chartCmd = &cobra.Command{
	Use:   "chart <borough>",
	Short: "Render a borough's crime rate trend (png, svg or pdf)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		borough := args[0]
		out := chartOut
		if out == "" {
			out = chartFileName(borough)
		}

		st, err := loadData(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if err := chart.RenderTrend(st, borough, out); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, out)
		return nil
	},
}

// chartFileName derives a default output name, e.g. "kensington-and-chelsea.png".
func chartFileName(borough string) string {
	name := strings.ToLower(strings.Join(strings.Fields(borough), "-"))
	return name + ".png"
}

func init() {
	chartCmd.Flags().StringVarP(&chartOut, "out", "o", "", "output file; the extension picks the format")
	rootCmd.AddCommand(chartCmd)
}
