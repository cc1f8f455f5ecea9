package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/banyan-labs/lead-optimizer/internal/model"
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Print the configured product rule sets",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rules, err := model.LoadRules(cfg.Rules.Path)
		if err != nil {
			return eris.Wrap(err, "load rules")
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tNAME\tNONPROFIT REQ\tSCORE RANGE\tQUALIFIED\tHIGH PRIORITY\tKEYWORDS")
		for _, p := range rules.Products {
			fmt.Fprintf(w, "%s\t%s\t%v\t%.1f-%.1f\t%.1f\t%.1f\t%s\n",
				p.Key, p.Name, p.RequiresNonprofit,
				p.MinScore, p.MaxScore,
				p.QualifiedThreshold, p.HighPriority,
				strings.Join(p.TargetKeywords, ", "),
			)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(productsCmd)
}
