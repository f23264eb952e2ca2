package report

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/coursekit/quizflow/internal/quiz"
	"github.com/coursekit/quizflow/internal/session"
)

// MarkStore is the slice of the session store the reporter needs to record
// delivery outcomes.
type MarkStore interface {
	MarkDeliveryPending(ctx context.Context, id string) error
	MarkDeliveryOK(ctx context.Context, id string) error
	MarkDeliveryFailed(ctx context.Context, id string, cause string) error
}

// Reporter turns a completed session into durable artifacts: one result
// submission and, for attempts linked to a tracked activity, one completion
// signal. Both fire at most once per session, whatever the caller does.
type Reporter struct {
	backend Backend
	store   MarkStore
	log     logrus.FieldLogger

	mu        sync.Mutex
	submitted map[string]bool
	notified  map[string]bool
}

func New(backend Backend, store MarkStore, log logrus.FieldLogger) *Reporter {
	return &Reporter{
		backend:   backend,
		store:     store,
		log:       log,
		submitted: map[string]bool{},
		notified:  map[string]bool{},
	}
}

// Report delivers the result record and the completion signal for a
// completed session. The two calls are independent: a failed submission does
// not suppress the completion signal. Errors are logged and recorded on the
// stored session; the returned error is for tests and operator tooling, the
// learner-facing path ignores it.
func (r *Reporter) Report(ctx context.Context, sess session.Session, def quiz.Definition) error {
	if !session.IsComplete(sess.State) {
		return errors.New("session not completed")
	}
	var errSubmit, errNotify error
	if r.claim(r.submitted, sess.ID) {
		errSubmit = r.submit(ctx, sess, def)
	}
	if sess.ModuleID != "" && r.claim(r.notified, sess.ID) {
		errNotify = r.notify(ctx, sess)
	}
	return errors.Join(errSubmit, errNotify)
}

// Redeliver retries a failed result submission on operator request. It
// bypasses the once-only latch deliberately; the latch guards the completion
// render path, not manual retries.
func (r *Reporter) Redeliver(ctx context.Context, sess session.Session, def quiz.Definition) error {
	if !session.IsComplete(sess.State) {
		return errors.New("session not completed")
	}
	r.claim(r.submitted, sess.ID)
	return r.submit(ctx, sess, def)
}

func (r *Reporter) submit(ctx context.Context, sess session.Session, def quiz.Definition) error {
	_ = r.store.MarkDeliveryPending(ctx, sess.ID)
	rec := BuildResult(def, sess.State)
	if err := r.backend.SubmitResult(ctx, rec); err != nil {
		_ = r.store.MarkDeliveryFailed(ctx, sess.ID, err.Error())
		r.log.WithFields(logrus.Fields{
			"session_id": sess.ID,
			"quiz_id":    sess.QuizID,
			"error":      err.Error(),
		}).Error("result submission failed")
		return err
	}
	_ = r.store.MarkDeliveryOK(ctx, sess.ID)
	r.log.WithFields(logrus.Fields{
		"session_id": sess.ID,
		"quiz_id":    sess.QuizID,
		"score":      rec.Score,
	}).Info("result submitted")
	return nil
}

func (r *Reporter) notify(ctx context.Context, sess session.Session) error {
	c := Completion{
		ModuleID:   sess.ModuleID,
		ActivityID: sess.ActivityID,
		QuizID:     sess.QuizID,
		QuizScore:  ScorePercent(sess.State),
	}
	if err := r.backend.CompleteActivity(ctx, c); err != nil {
		r.log.WithFields(logrus.Fields{
			"session_id":  sess.ID,
			"module_id":   sess.ModuleID,
			"activity_id": sess.ActivityID,
			"error":       err.Error(),
		}).Error("activity completion signal failed")
		return err
	}
	return nil
}

// claim reports whether the caller won the latch for id.
func (r *Reporter) claim(m map[string]bool, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m[id] {
		return false
	}
	m[id] = true
	return true
}
