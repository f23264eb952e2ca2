package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	api "github.com/coursekit/quizflow/internal/api/http"
	"github.com/coursekit/quizflow/internal/config"
	"github.com/coursekit/quizflow/internal/db"
	"github.com/coursekit/quizflow/internal/events"
	"github.com/coursekit/quizflow/internal/kvstore"
	"github.com/coursekit/quizflow/internal/logging"
	"github.com/coursekit/quizflow/internal/metrics"
	"github.com/coursekit/quizflow/internal/quiz"
	"github.com/coursekit/quizflow/internal/report"
	"github.com/coursekit/quizflow/internal/session"
)

const serviceName = "quizflowd"

func main() {
	cfg := config.FromEnv()
	log := logging.New(serviceName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	quizzes := quiz.NewSQLStore(dbh)
	sessions := session.NewSQLStore(dbh)
	eventLog := events.NewRepo(dbh)
	kv := kvstore.NewSQL(dbh)
	m := metrics.New(serviceName)

	backend := report.NewHTTPBackend(report.HTTPBackendConfig{
		BaseURL: cfg.PlatformURL,
		Timeout: cfg.SubmitTimeout,
	})
	reporter := report.New(backend, sessions, log)

	var fallback session.DefinitionSource
	if cfg.ContentURL != "" {
		fallback = quiz.NewClient(quiz.ClientConfig{BaseURL: cfg.ContentURL, Timeout: cfg.SubmitTimeout})
	}

	svc := session.NewService(session.ServiceConfig{
		Quizzes:       quizzes,
		Sessions:      sessions,
		Reporter:      reporter,
		Events:        eventLog,
		Fallback:      fallback,
		Log:           log,
		Metrics:       m,
		ReportTimeout: cfg.SubmitTimeout,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(m.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	api.Mount(r, api.Deps{Service: svc, Quizzes: quizzes, KV: kv})
	r.Handle("/metrics", promhttp.Handler())

	log.Infof("listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
