// Package serve wires the HTTP surface: session lifecycle, field editing,
// verification, stage transitions, and submission.
package serve

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"

	"github.com/tradenest/intake-workflow-backend/internal/monitor"
	"github.com/tradenest/intake-workflow-backend/internal/serve/httphandler"
	"github.com/tradenest/intake-workflow-backend/internal/serve/session"
	"github.com/tradenest/intake-workflow-backend/internal/submission"
)

const shutdownTimeout = 10 * time.Second

type ServeOptions struct {
	Port      int
	Version   string
	GitCommit string

	CORSAllowedOrigins []string

	SessionStore   *session.Store
	Assembler      *submission.Assembler
	MonitorService *monitor.MonitorService
}

// Serve starts the HTTP server and blocks until SIGINT or SIGTERM, then
// shuts down gracefully.
func Serve(opts ServeOptions) error {
	mux := handleHTTP(opts)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("starting intake workflow server on port %d", opts.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("running HTTP server: %w", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Infof("received signal %q, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}
	return nil
}

func handleHTTP(opts ServeOptions) *chi.Mux {
	mux := chi.NewMux()

	mux.Use(chimiddleware.RequestID)
	mux.Use(chimiddleware.RealIP)
	mux.Use(chimiddleware.Recoverer)
	mux.Use(cors.New(cors.Options{
		AllowedOrigins: opts.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler)

	mux.Get("/health", httphandler.HealthHandler{
		Version:   opts.Version,
		ServiceID: "intake-workflow-backend",
		ReleaseID: opts.GitCommit,
	}.ServeHTTP)

	if opts.MonitorService != nil {
		mux.Method(http.MethodGet, "/metrics", opts.MonitorService.Handler())
	}

	sessionHandler := httphandler.SessionHandler{Store: opts.SessionStore}
	stageHandler := httphandler.StageHandler{Store: opts.SessionStore}
	verificationHandler := httphandler.VerificationHandler{
		Store:          opts.SessionStore,
		MonitorService: opts.MonitorService,
	}
	submissionHandler := httphandler.SubmissionHandler{
		Store:          opts.SessionStore,
		Assembler:      opts.Assembler,
		MonitorService: opts.MonitorService,
	}

	mux.Route("/sessions", func(r chi.Router) {
		r.Post("/", sessionHandler.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", sessionHandler.GetSession)
			r.Delete("/", sessionHandler.DeleteSession)
			r.Patch("/fields", sessionHandler.PatchFields)
			r.Put("/documents/{name}", sessionHandler.AttachDocument)

			r.Post("/advance", stageHandler.Advance)
			r.Post("/retreat", stageHandler.Retreat)

			r.Post("/verifications/{kind}/initiate", verificationHandler.Initiate)
			r.Post("/verifications/{kind}/resolve", verificationHandler.Resolve)

			r.Post("/submit", submissionHandler.Submit)
		})
	})

	return mux
}
