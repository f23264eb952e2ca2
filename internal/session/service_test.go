package session_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/coursekit/quizflow/internal/events"
	"github.com/coursekit/quizflow/internal/quiz"
	"github.com/coursekit/quizflow/internal/session"
)

type fakeReporter struct {
	store    session.Store
	calls    chan session.Session
	phaseOK  bool
	redelivs int
}

func (f *fakeReporter) Report(ctx context.Context, s session.Session, _ quiz.Definition) error {
	// The ordering guarantee: by the time delivery fires, the stored session
	// must already be in the terminal phase.
	if stored, err := f.store.Get(ctx, s.ID); err == nil {
		f.phaseOK = session.IsComplete(stored.State)
	}
	f.calls <- s
	return nil
}

func (f *fakeReporter) Redeliver(context.Context, session.Session, quiz.Definition) error {
	f.redelivs++
	return nil
}

type fakeSource struct {
	def     quiz.Definition
	fetches int
}

func (f *fakeSource) Fetch(_ context.Context, quizID string) (quiz.Definition, error) {
	f.fetches++
	if quizID != f.def.ID {
		return quiz.Definition{}, quiz.ErrNotFound
	}
	return f.def, nil
}

func newTestService(t *testing.T, def quiz.Definition) (*session.Service, *fakeReporter, *events.MemoryRepo) {
	t.Helper()
	quizzes := quiz.NewInMemoryStore()
	if err := quizzes.Put(context.Background(), def); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
	sessions := session.NewInMemoryStore()
	rep := &fakeReporter{store: sessions, calls: make(chan session.Session, 2)}
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	ev := events.NewMemoryRepo()
	svc := session.NewService(session.ServiceConfig{
		Quizzes:  quizzes,
		Sessions: sessions,
		Reporter: rep,
		Events:   ev,
		Log:      log,
		EngineOptions: []session.Option{
			session.WithRand(rand.New(rand.NewSource(1))),
		},
	})
	return svc, rep, ev
}

func TestServiceFullRunDeliversOnce(t *testing.T) {
	ctx := context.Background()
	def := mcqDef(3)
	svc, rep, ev := newTestService(t, def)

	sess, err := svc.StartAttempt(ctx, session.StartInput{
		QuizID: def.ID, UserID: "u1", ActivityID: "a1", ModuleID: "m1",
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if sess.ActivityID != "a1" || sess.ModuleID != "m1" {
		t.Fatalf("linkage lost: %+v", sess)
	}

	for i := 0; i < 3; i++ {
		cur, d, err := svc.Get(ctx, sess.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		q, err := session.Current(cur.State, d)
		if err != nil {
			t.Fatalf("current: %v", err)
		}
		if _, err := svc.SubmitChoice(ctx, sess.ID, q.Answer); err != nil {
			t.Fatalf("choice: %v", err)
		}
		if _, err := svc.AdvanceAttempt(ctx, sess.ID); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}

	select {
	case delivered := <-rep.calls:
		if delivered.ID != sess.ID {
			t.Fatalf("delivered wrong session: %s", delivered.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("reporter never invoked")
	}
	if !rep.phaseOK {
		t.Fatalf("delivery fired before terminal phase was persisted")
	}

	stored, _, err := svc.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !session.IsComplete(stored.State) || stored.State.Score != 3 {
		t.Fatalf("stored state: %+v", stored.State)
	}
	if stored.CompletedAt == 0 {
		t.Fatalf("completed_at not stamped")
	}

	// Advancing a completed session is a no-op and must not re-deliver.
	if _, err := svc.AdvanceAttempt(ctx, sess.ID); err != nil {
		t.Fatalf("advance completed: %v", err)
	}
	select {
	case <-rep.calls:
		t.Fatalf("second delivery for one completion")
	case <-time.After(100 * time.Millisecond):
	}

	var started, completed int
	for _, e := range ev.All() {
		switch e.Type {
		case events.TypeAttemptStarted:
			started++
		case events.TypeAttemptCompleted:
			completed++
		}
	}
	if started != 1 || completed != 1 {
		t.Fatalf("event log: %d started, %d completed", started, completed)
	}
}

func TestServiceFallbackFetchesAndCaches(t *testing.T) {
	ctx := context.Background()
	def := mcqDef(2)
	quizzes := quiz.NewInMemoryStore()
	sessions := session.NewInMemoryStore()
	src := &fakeSource{def: def}
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	svc := session.NewService(session.ServiceConfig{
		Quizzes:  quizzes,
		Sessions: sessions,
		Reporter: &fakeReporter{store: sessions, calls: make(chan session.Session, 1)},
		Fallback: src,
		Log:      log,
	})

	if _, err := svc.StartAttempt(ctx, session.StartInput{QuizID: def.ID, UserID: "u1"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if src.fetches != 1 {
		t.Fatalf("fetches = %d, want 1", src.fetches)
	}
	// Second start hits the local cache.
	if _, err := svc.StartAttempt(ctx, session.StartInput{QuizID: def.ID, UserID: "u2"}); err != nil {
		t.Fatalf("second start: %v", err)
	}
	if src.fetches != 1 {
		t.Fatalf("fetches = %d after cache, want 1", src.fetches)
	}
}

func TestServiceStartUnknownQuiz(t *testing.T) {
	svc, _, _ := newTestService(t, mcqDef(1))
	_, err := svc.StartAttempt(context.Background(), session.StartInput{QuizID: "missing", UserID: "u1"})
	if !errors.Is(err, quiz.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestServiceRestartOpensFreshSession(t *testing.T) {
	ctx := context.Background()
	def := flashDef(2)
	svc, _, _ := newTestService(t, def)

	sess, err := svc.StartAttempt(ctx, session.StartInput{QuizID: def.ID, UserID: "u1", ModuleID: "m1"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.SubmitFlashcard(ctx, sess.ID, true); err != nil {
		t.Fatalf("flashcard: %v", err)
	}

	fresh, err := svc.RestartAttempt(ctx, sess.ID)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if fresh.ID == sess.ID {
		t.Fatalf("restart reused the session ID")
	}
	if fresh.QuizID != sess.QuizID || fresh.ModuleID != "m1" {
		t.Fatalf("restart lost linkage: %+v", fresh)
	}
	if fresh.State.Score != 0 || len(fresh.State.Responses) != 0 {
		t.Fatalf("restart carried state over: %+v", fresh.State)
	}

	// The old attempt's row is untouched; history is append-only.
	old, _, err := svc.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("old session gone: %v", err)
	}
	if old.State.Score != 1 {
		t.Fatalf("old session mutated: %+v", old.State)
	}
}

func TestServiceBackOnlyForFlashcards(t *testing.T) {
	ctx := context.Background()
	def := mcqDef(2)
	svc, _, _ := newTestService(t, def)
	sess, err := svc.StartAttempt(ctx, session.StartInput{QuizID: def.ID, UserID: "u1"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.BackAttempt(ctx, sess.ID); !errors.Is(err, session.ErrKindMismatch) {
		t.Fatalf("expected ErrKindMismatch, got %v", err)
	}
}

func TestServiceRedeliverDelegates(t *testing.T) {
	ctx := context.Background()
	def := flashDef(1)
	svc, rep, _ := newTestService(t, def)
	sess, err := svc.StartAttempt(ctx, session.StartInput{QuizID: def.ID, UserID: "u1"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := svc.Redeliver(ctx, sess.ID); err != nil {
		t.Fatalf("redeliver: %v", err)
	}
	if rep.redelivs != 1 {
		t.Fatalf("redeliveries = %d, want 1", rep.redelivs)
	}
}
