package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

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
	Short: "Start the HTTP server for planning runs and opportunity queries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPlanner(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/plan", func(w http.ResponseWriter, req *http.Request) {
			// Planning runs minutes, not milliseconds; accept and run in
			// the background against the server's lifetime context.
			go func() {
				runCtx, cancel := contextWithPlanTimeout(ctx)
				defer cancel()

				memory, err := env.Store.Memory(runCtx)
				if err != nil {
					zap.L().Error("plan request: load memory failed", zap.Error(err))
					return
				}

				best, err := env.Planner.Plan(runCtx, memory)
				if err != nil {
					zap.L().Error("plan request failed", zap.Error(err))
					return
				}
				if best == nil {
					zap.L().Info("plan request complete, no opportunity surfaced")
					return
				}

				if _, err := env.Store.SaveOpportunity(runCtx, *best, true); err != nil {
					zap.L().Error("plan request: save opportunity failed",
						zap.String("url", best.Deal.URL),
						zap.Error(err),
					)
					return
				}
				zap.L().Info("plan request complete",
					zap.String("url", best.Deal.URL),
					zap.Float64("discount", best.Discount),
				)
			}()

			writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
		})

		r.Get("/opportunities", func(w http.ResponseWriter, req *http.Request) {
			records, err := env.Store.ListOpportunities(req.Context(), 0)
			if err != nil {
				zap.L().Error("list opportunities failed", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list opportunities"})
				return
			}
			writeJSON(w, http.StatusOK, records)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

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

func contextWithPlanTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(cfg.Planner.TimeoutSecs)*time.Second)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
