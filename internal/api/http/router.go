package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/coursekit/quizflow/internal/kvstore"
	"github.com/coursekit/quizflow/internal/quiz"
	"github.com/coursekit/quizflow/internal/session"
)

type Deps struct {
	Service *session.Service
	Quizzes quiz.Store
	KV      kvstore.KV
}

// Mount attaches the API surface to the router. Middleware (logging, CORS,
// metrics) is the caller's business.
func Mount(r chi.Router, d Deps) {
	r.Post("/quizzes", UploadQuizHandler(d.Quizzes))
	r.Get("/quizzes/{quizID}", GetQuizHandler(d.Quizzes))

	r.Post("/sessions", StartSessionHandler(d.Service, d.KV))
	r.Route("/sessions/{sessionID}", func(sr chi.Router) {
		sr.Get("/", GetSessionHandler(d.Service))
		sr.Post("/choice", SubmitChoiceHandler(d.Service))
		sr.Post("/flashcard", SubmitFlashcardHandler(d.Service))
		sr.Post("/advance", AdvanceHandler(d.Service))
		sr.Post("/back", BackHandler(d.Service))
		sr.Post("/restart", RestartHandler(d.Service, d.KV))
		sr.Get("/result", ResultHandler(d.Service))
		sr.Post("/redeliver", RedeliverHandler(d.Service))
	})

	r.Get("/users/{userID}/sessions/active", ActiveSessionHandler(d.Service, d.KV))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
}
