package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/banyan-labs/lead-optimizer/internal/enrich"
	"github.com/banyan-labs/lead-optimizer/internal/model"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start webhook server for enrichment requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		coord, _, err := initCoordinator()
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: serveMux(ctx, coord),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

// serveMux builds the webhook routes. Split out so tests can drive the
// handlers without binding a port.
func serveMux(ctx context.Context, coord *enrich.Coordinator) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /enrich", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Company  string `json:"company"`
			Website  string `json:"website"`
			Email    string `json:"email"`
			EIN      string `json:"ein"`
			Location string `json:"location"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if req.Company == "" {
			http.Error(w, `{"error":"company is required"}`, http.StatusBadRequest)
			return
		}

		lead := model.Lead{
			Company:  req.Company,
			Website:  req.Website,
			Email:    req.Email,
			EIN:      req.EIN,
			Location: req.Location,
		}

		// Enrichment runs asynchronously; the caller polls or reads the CRM.
		go func() {
			enriched := coord.EnrichLead(ctx, lead)
			zap.L().Info("webhook enrichment complete",
				zap.String("company", lead.Company),
				zap.String("best_product", enriched.BestProduct),
				zap.Float64("best_score", enriched.BestScore),
			)
		}()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "accepted",
			"company": req.Company,
		})
	})

	return mux
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
