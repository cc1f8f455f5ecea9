package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/banyan-labs/lead-optimizer/internal/model"
)

var (
	runCompany  string
	runWebsite  string
	runEmail    string
	runEIN      string
	runLocation string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Enrich and score a single lead",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		coord, _, err := initCoordinator()
		if err != nil {
			return err
		}

		lead := model.Lead{
			Company:  runCompany,
			Website:  runWebsite,
			Email:    runEmail,
			EIN:      runEIN,
			Location: runLocation,
		}

		enriched := coord.EnrichLead(ctx, lead)

		zap.L().Info("enrichment complete",
			zap.String("company", lead.Company),
			zap.String("best_product", enriched.BestProduct),
			zap.Float64("best_score", enriched.BestScore),
			zap.Float64("data_quality", enriched.DataQuality),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(enriched.Flatten())
	},
}

func init() {
	runCmd.Flags().StringVar(&runCompany, "company", "", "organization name (required)")
	runCmd.Flags().StringVar(&runWebsite, "website", "", "website URL")
	runCmd.Flags().StringVar(&runEmail, "email", "", "contact email")
	runCmd.Flags().StringVar(&runEIN, "ein", "", "employer identification number")
	runCmd.Flags().StringVar(&runLocation, "location", "", "city/state")
	_ = runCmd.MarkFlagRequired("company")
	rootCmd.AddCommand(runCmd)
}
