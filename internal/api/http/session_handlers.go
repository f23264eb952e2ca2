package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/coursekit/quizflow/internal/kvstore"
	"github.com/coursekit/quizflow/internal/quiz"
	"github.com/coursekit/quizflow/internal/report"
	"github.com/coursekit/quizflow/internal/session"
)

type startSessionReq struct {
	QuizID     string `json:"quiz_id" validate:"required"`
	UserID     string `json:"user_id" validate:"required"`
	ActivityID string `json:"activity_id"`
	ModuleID   string `json:"module_id"`
}

type choiceReq struct {
	Option string `json:"option" validate:"required"`
}

type flashcardReq struct {
	KnewIt *bool `json:"knew_it" validate:"required"`
}

type questionView struct {
	ID       string   `json:"id"`
	Prompt   string   `json:"question"`
	Options  []string `json:"options,omitempty"`
	Answered bool     `json:"answered"`
	Selected string   `json:"selected,omitempty"`
	Correct  *bool    `json:"correct,omitempty"`
	// CorrectAnswer doubles as the card back for flashcards; for multiple
	// choice it is revealed only once the question is checked.
	CorrectAnswer string `json:"correct_answer,omitempty"`
	Explanation   string `json:"explanation,omitempty"`
}

type sessionView struct {
	ID       string        `json:"id"`
	QuizID   string        `json:"quiz_id"`
	Title    string        `json:"title"`
	Kind     quiz.Kind     `json:"kind"`
	Phase    session.Phase `json:"phase"`
	Position int           `json:"position"`
	Total    int           `json:"total"`
	Progress float64       `json:"progress"`
	Score    int           `json:"score"`
	Question *questionView `json:"question,omitempty"`
}

func viewOf(sess session.Session, def quiz.Definition) sessionView {
	v := sessionView{
		ID:       sess.ID,
		QuizID:   sess.QuizID,
		Title:    def.Title,
		Kind:     def.Kind,
		Phase:    sess.State.Phase,
		Position: sess.State.Position,
		Total:    len(sess.State.Order),
		Progress: session.ProgressFraction(sess.State),
		Score:    sess.State.Score,
	}
	if session.IsComplete(sess.State) {
		return v
	}
	q, err := session.Current(sess.State, def)
	if err != nil {
		return v
	}
	qv := questionView{ID: q.ID, Prompt: q.Prompt, Options: q.Options}
	resp, answered := sess.State.Responses[q.ID]
	qv.Answered = answered
	switch def.Kind {
	case quiz.KindFlashcard:
		// The card back ships with the question; the client reveals it on
		// flip without another round trip.
		qv.CorrectAnswer = q.Answer
		if answered {
			correct := resp.KnewIt
			qv.Correct = &correct
		}
	default:
		if answered {
			correct := resp.Correct
			qv.Selected = resp.Selected
			qv.Correct = &correct
			qv.CorrectAnswer = q.Answer
			qv.Explanation = q.Explanation
		}
	}
	v.Question = &qv
	return v
}

func activeSessionKey(userID string) string { return "active_session:" + userID }

func StartSessionHandler(svc *session.Service, kv kvstore.KV) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req startSessionReq
		if !decodeJSON(w, r, &req) {
			return
		}
		sess, err := svc.StartAttempt(r.Context(), session.StartInput{
			QuizID:     req.QuizID,
			UserID:     req.UserID,
			ActivityID: req.ActivityID,
			ModuleID:   req.ModuleID,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = kv.Set(r.Context(), activeSessionKey(req.UserID), sess.ID)
		_, def, err := svc.Get(r.Context(), sess.ID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, viewOf(sess, def))
	}
}

func GetSessionHandler(svc *session.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, def, err := svc.Get(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, viewOf(sess, def))
	}
}

func SubmitChoiceHandler(svc *session.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req choiceReq
		if !decodeJSON(w, r, &req) {
			return
		}
		id := chi.URLParam(r, "sessionID")
		sess, err := svc.SubmitChoice(r.Context(), id, req.Option)
		if err != nil {
			writeErr(w, err)
			return
		}
		_, def, err := svc.Get(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, viewOf(sess, def))
	}
}

func SubmitFlashcardHandler(svc *session.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req flashcardReq
		if !decodeJSON(w, r, &req) {
			return
		}
		id := chi.URLParam(r, "sessionID")
		sess, err := svc.SubmitFlashcard(r.Context(), id, *req.KnewIt)
		if err != nil {
			writeErr(w, err)
			return
		}
		_, def, err := svc.Get(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, viewOf(sess, def))
	}
}

func AdvanceHandler(svc *session.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionID")
		sess, err := svc.AdvanceAttempt(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		_, def, err := svc.Get(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, viewOf(sess, def))
	}
}

func BackHandler(svc *session.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionID")
		sess, err := svc.BackAttempt(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		_, def, err := svc.Get(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, viewOf(sess, def))
	}
}

func RestartHandler(svc *session.Service, kv kvstore.KV) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := svc.RestartAttempt(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		_ = kv.Set(r.Context(), activeSessionKey(sess.UserID), sess.ID)
		_, def, err := svc.Get(r.Context(), sess.ID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, viewOf(sess, def))
	}
}

type resultView struct {
	Completed      bool          `json:"completed"`
	Record         report.Record `json:"record"`
	DeliveryStatus string        `json:"delivery_status,omitempty"`
}

// ResultHandler renders the local summary. It serves from stored state only,
// so the learner sees their score whatever happened to delivery.
func ResultHandler(svc *session.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, def, err := svc.Get(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resultView{
			Completed:      session.IsComplete(sess.State),
			Record:         report.BuildResult(def, sess.State),
			DeliveryStatus: sess.DeliveryStatus,
		})
	}
}

func RedeliverHandler(svc *session.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Redeliver(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ActiveSessionHandler(svc *session.Service, kv kvstore.KV) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		id, err := kv.Get(r.Context(), activeSessionKey(userID))
		if err != nil {
			http.Error(w, "no active session", http.StatusNotFound)
			return
		}
		sess, def, err := svc.Get(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, viewOf(sess, def))
	}
}
