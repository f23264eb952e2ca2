package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/coursekit/quizflow/internal/quiz"
)

type uploadQuizReq struct {
	ID        string          `json:"id" validate:"required"`
	Title     string          `json:"title" validate:"required"`
	Type      string          `json:"type"`
	Questions []quiz.Question `json:"questions" validate:"required,min=1"`
}

// UploadQuizHandler upserts a definition. Structural rules beyond field
// presence (two or more options, answer among options) are enforced by
// quiz.Validate inside the store.
func UploadQuizHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req uploadQuizReq
		if !decodeJSON(w, r, &req) {
			return
		}
		d := quiz.Definition{
			ID:        req.ID,
			Title:     req.Title,
			Kind:      quiz.KindFromWire(req.Type),
			Questions: req.Questions,
		}
		if err := store.Put(r.Context(), d); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": d.ID})
	}
}

// GetQuizHandler serves the student-safe view: no answer keys, no
// explanations.
func GetQuizHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "quizID")
		d, err := store.Get(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}
