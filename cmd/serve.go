package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an HTTP server for on-demand enrichment",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(true); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		deps, err := initDeps(ctx)
		if err != nil {
			return err
		}
		defer deps.store.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
			stats, err := deps.store.Stats(req.Context())
			if err != nil {
				zap.L().Error("stats query failed", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "stats unavailable"})
				return
			}
			writeJSON(w, http.StatusOK, stats)
		})

		r.Post("/enrich/{resortID}", func(w http.ResponseWriter, req *http.Request) {
			resortID := chi.URLParam(req, "resortID")

			resort, err := deps.store.GetResort(req.Context(), resortID)
			if err != nil {
				zap.L().Error("resort lookup failed", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "lookup failed"})
				return
			}
			if resort == nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "resort not found"})
				return
			}

			// Enrichment outlives the request; progress lands in the log
			// and the enrichment_log table. Each request gets its own
			// Enricher: the seen-set and run summary are run-scoped.
			go func() {
				summary, err := deps.newEnricher().EnrichOne(ctx, resortID)
				if err != nil {
					zap.L().Error("on-demand enrichment failed",
						zap.String("resort_id", resortID),
						zap.Error(err),
					)
					return
				}
				zap.L().Info("on-demand enrichment complete",
					zap.String("resort_id", resortID),
					zap.Int("linked", summary.VenuesLinked),
				)
			}()

			writeJSON(w, http.StatusAccepted, map[string]string{
				"status": "accepted",
				"resort": resort.Name,
			})
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
