package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/coursekit/quizflow/internal/events"
	"github.com/coursekit/quizflow/internal/metrics"
	"github.com/coursekit/quizflow/internal/quiz"
)

// Reporter delivers a completed session's artifacts to the platform.
type Reporter interface {
	Report(ctx context.Context, s Session, def quiz.Definition) error
	Redeliver(ctx context.Context, s Session, def quiz.Definition) error
}

// EventSink is the append-only audit log.
type EventSink interface {
	Append(ctx context.Context, typ, key, dataJSON string) error
}

// DefinitionSource fetches quiz definitions not present locally.
type DefinitionSource interface {
	Fetch(ctx context.Context, quizID string) (quiz.Definition, error)
}

type ServiceConfig struct {
	Quizzes  quiz.Store
	Sessions Store
	Reporter Reporter
	Events   EventSink
	Fallback DefinitionSource // optional
	Log      logrus.FieldLogger
	Metrics  *metrics.Metrics // optional

	// EngineOptions seed the engine's RNG and clock, for tests.
	EngineOptions []Option
	// ReportTimeout bounds the outbound delivery triggered on completion.
	ReportTimeout time.Duration
}

// Service drives attempts end to end: definition lookup, engine transitions,
// persistence, and the completion side effects. All engine semantics stay in
// the pure functions; the service only sequences them.
type Service struct {
	quizzes       quiz.Store
	sessions      Store
	reporter      Reporter
	events        EventSink
	fallback      DefinitionSource
	log           logrus.FieldLogger
	metrics       *metrics.Metrics
	engineOpts    []Option
	reportTimeout time.Duration
}

func NewService(cfg ServiceConfig) *Service {
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	if cfg.ReportTimeout <= 0 {
		cfg.ReportTimeout = 10 * time.Second
	}
	return &Service{
		quizzes:       cfg.Quizzes,
		sessions:      cfg.Sessions,
		reporter:      cfg.Reporter,
		events:        cfg.Events,
		fallback:      cfg.Fallback,
		log:           cfg.Log,
		metrics:       cfg.Metrics,
		engineOpts:    cfg.EngineOptions,
		reportTimeout: cfg.ReportTimeout,
	}
}

type StartInput struct {
	QuizID     string
	UserID     string
	ActivityID string
	ModuleID   string
}

// StartAttempt looks up the quiz (local store first, content API fallback)
// and opens a fresh session for it.
func (s *Service) StartAttempt(ctx context.Context, in StartInput) (Session, error) {
	def, err := s.definition(ctx, in.QuizID)
	if err != nil {
		return Session{}, err
	}
	st, err := Start(def, s.engineOpts...)
	if err != nil {
		return Session{}, err
	}
	sess := Session{
		ID:         uuid.NewString(),
		UserID:     in.UserID,
		QuizID:     def.ID,
		ActivityID: in.ActivityID,
		ModuleID:   in.ModuleID,
		State:      st,
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return Session{}, err
	}
	s.appendEvent(ctx, events.TypeAttemptStarted, sess)
	if s.metrics != nil {
		s.metrics.SessionsStarted.Inc()
	}
	return sess, nil
}

// Get returns the stored session and its full definition.
func (s *Service) Get(ctx context.Context, id string) (Session, quiz.Definition, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return Session{}, quiz.Definition{}, err
	}
	def, err := s.quizzes.GetFull(ctx, sess.QuizID)
	if err != nil {
		return Session{}, quiz.Definition{}, err
	}
	return sess, def, nil
}

func (s *Service) SubmitChoice(ctx context.Context, id, option string) (Session, error) {
	return s.transition(ctx, id, func(st State, def quiz.Definition) (State, error) {
		return SubmitChoice(st, def, option)
	})
}

func (s *Service) SubmitFlashcard(ctx context.Context, id string, knewIt bool) (Session, error) {
	return s.transition(ctx, id, func(st State, def quiz.Definition) (State, error) {
		return SubmitFlashcard(st, def, knewIt)
	})
}

// AdvanceAttempt steps forward. When the step exhausts the deck the session
// is persisted as completed before any outbound call fires, and delivery
// runs in the background so the learner-facing response never waits on it.
func (s *Service) AdvanceAttempt(ctx context.Context, id string) (Session, error) {
	sess, def, err := s.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if IsComplete(sess.State) {
		return sess, nil
	}
	sess.State = Advance(sess.State)
	if IsComplete(sess.State) {
		sess.CompletedAt = time.Now().Unix()
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return Session{}, err
	}
	if IsComplete(sess.State) {
		s.appendEvent(ctx, events.TypeAttemptCompleted, sess)
		if s.metrics != nil {
			s.metrics.SessionsCompleted.Inc()
		}
		s.deliver(sess, def)
	}
	return sess, nil
}

// BackAttempt steps to the previous card. Only flashcard decks allow going
// back; recorded judgments are untouched.
func (s *Service) BackAttempt(ctx context.Context, id string) (Session, error) {
	sess, def, err := s.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if def.Kind != quiz.KindFlashcard {
		return Session{}, ErrKindMismatch
	}
	sess.State = Back(sess.State)
	if err := s.sessions.Put(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// RestartAttempt opens a new session over the same quiz and linkage. The old
// session row stays; attempt history is append-only.
func (s *Service) RestartAttempt(ctx context.Context, id string) (Session, error) {
	old, err := s.sessions.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	return s.StartAttempt(ctx, StartInput{
		QuizID:     old.QuizID,
		UserID:     old.UserID,
		ActivityID: old.ActivityID,
		ModuleID:   old.ModuleID,
	})
}

// Redeliver retries result delivery for a completed session, synchronously.
func (s *Service) Redeliver(ctx context.Context, id string) error {
	sess, def, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.reporter.Redeliver(ctx, sess, def)
}

func (s *Service) transition(ctx context.Context, id string, step func(State, quiz.Definition) (State, error)) (Session, error) {
	sess, def, err := s.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	st, err := step(sess.State, def)
	if err != nil {
		return Session{}, err
	}
	sess.State = st
	if err := s.sessions.Put(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s *Service) definition(ctx context.Context, quizID string) (quiz.Definition, error) {
	def, err := s.quizzes.GetFull(ctx, quizID)
	if err == nil {
		return def, nil
	}
	if !errors.Is(err, quiz.ErrNotFound) || s.fallback == nil {
		return quiz.Definition{}, err
	}
	def, err = s.fallback.Fetch(ctx, quizID)
	if err != nil {
		return quiz.Definition{}, err
	}
	if err := s.quizzes.Put(ctx, def); err != nil {
		s.log.WithFields(logrus.Fields{"quiz_id": quizID, "error": err.Error()}).
			Warn("caching fetched quiz failed")
	}
	return def, nil
}

// deliver launches the reporter detached from the request context; the
// completion response must not block on, or fail with, the platform backend.
func (s *Service) deliver(sess Session, def quiz.Definition) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.reportTimeout)
		defer cancel()
		if err := s.reporter.Report(ctx, sess, def); err != nil {
			if s.metrics != nil {
				s.metrics.DeliveryFailures.Inc()
			}
		}
	}()
}

func (s *Service) appendEvent(ctx context.Context, typ string, sess Session) {
	if s.events == nil {
		return
	}
	data, _ := json.Marshal(map[string]any{
		"session_id": sess.ID,
		"quiz_id":    sess.QuizID,
		"user_id":    sess.UserID,
		"score":      sess.State.Score,
		"phase":      sess.State.Phase,
	})
	if err := s.events.Append(ctx, typ, sess.ID, string(data)); err != nil {
		s.log.WithFields(logrus.Fields{"session_id": sess.ID, "error": err.Error()}).
			Warn("event append failed")
	}
}
