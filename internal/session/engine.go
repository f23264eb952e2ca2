package session

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/coursekit/quizflow/internal/quiz"
)

type Phase string

const (
	PhaseInProgress Phase = "in_progress"
	PhaseCompleted  Phase = "completed"
)

var (
	ErrCompleted       = errors.New("session already completed")
	ErrKindMismatch    = errors.New("operation does not match quiz kind")
	ErrAlreadyAnswered = errors.New("question already answered")
	ErrUnknownOption   = errors.New("option not part of question")
)

// Response is the recorded outcome for one question, discriminated by Kind:
// Selected/Correct are meaningful for multiple choice, KnewIt/Viewed for
// flashcards.
type Response struct {
	Kind     quiz.Kind `json:"kind"`
	Selected string    `json:"selected,omitempty"`
	Correct  bool      `json:"correct"`
	KnewIt   bool      `json:"knew_it,omitempty"`
	Viewed   bool      `json:"viewed,omitempty"`
}

// State is one quiz attempt. Values are immutable: every transition returns
// a fresh State, so a caller holding an old value never observes a mutation.
type State struct {
	QuizID string `json:"quiz_id"`
	// Order is the presentation order, a permutation of question indices
	// drawn once at start.
	Order []int `json:"order"`
	// OptionOrder holds, per original question index, a permutation of that
	// question's options. Nil entries for flashcards.
	OptionOrder [][]int             `json:"option_order,omitempty"`
	Position    int                 `json:"position"`
	Responses   map[string]Response `json:"responses"`
	Score       int                 `json:"score"`
	StartedAt   time.Time           `json:"started_at"`
	Phase       Phase               `json:"phase"`
}

type Option func(*config)

type config struct {
	rng *rand.Rand
	now func() time.Time
}

// WithRand injects the permutation source, for deterministic tests.
func WithRand(r *rand.Rand) Option { return func(c *config) { c.rng = r } }

// WithClock injects the clock used for StartedAt.
func WithClock(now func() time.Time) Option { return func(c *config) { c.now = now } }

// Start validates the definition and begins a fresh attempt: new shuffle,
// empty responses, zero score. Restarting an attempt is just Start again;
// the previous attempt's ordering is never reused.
func Start(def quiz.Definition, opts ...Option) (State, error) {
	if err := quiz.Validate(def); err != nil {
		return State{}, err
	}
	cfg := &config{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
	for _, o := range opts {
		o(cfg)
	}
	st := State{
		QuizID:    def.ID,
		Order:     cfg.rng.Perm(len(def.Questions)),
		Responses: map[string]Response{},
		StartedAt: cfg.now().UTC(),
		Phase:     PhaseInProgress,
	}
	if def.Kind == quiz.KindMultipleChoice {
		st.OptionOrder = make([][]int, len(def.Questions))
		for i, q := range def.Questions {
			st.OptionOrder[i] = cfg.rng.Perm(len(q.Options))
		}
	}
	return st, nil
}

// Current resolves the question at the present position, with its options in
// presentation order. The answer key is left intact; serving layers strip it.
func Current(st State, def quiz.Definition) (quiz.Question, error) {
	idx, err := currentIndex(st, def)
	if err != nil {
		return quiz.Question{}, err
	}
	q := def.Questions[idx]
	if def.Kind == quiz.KindMultipleChoice && idx < len(st.OptionOrder) {
		perm := st.OptionOrder[idx]
		opts := make([]string, len(q.Options))
		for i, j := range perm {
			opts[i] = q.Options[j]
		}
		q.Options = opts
	}
	return q, nil
}

// SubmitChoice records the learner's pick for the current multiple-choice
// question. A question is locked once checked; advancing is a separate step
// so the UI can reveal correctness first.
func SubmitChoice(st State, def quiz.Definition, option string) (State, error) {
	if st.Phase != PhaseInProgress {
		return st, ErrCompleted
	}
	if def.Kind != quiz.KindMultipleChoice {
		return st, ErrKindMismatch
	}
	idx, err := currentIndex(st, def)
	if err != nil {
		return st, err
	}
	q := def.Questions[idx]
	if _, done := st.Responses[q.ID]; done {
		return st, ErrAlreadyAnswered
	}
	found := false
	for _, o := range q.Options {
		if o == option {
			found = true
			break
		}
	}
	if !found {
		return st, fmt.Errorf("%w: %q", ErrUnknownOption, option)
	}
	next := st.clone()
	correct := option == q.Answer
	next.Responses[q.ID] = Response{
		Kind:     quiz.KindMultipleChoice,
		Selected: option,
		Correct:  correct,
	}
	if correct {
		next.Score++
	}
	return next, nil
}

// SubmitFlashcard records a self-assessment for the current card. Unlike
// multiple choice, a judgment may be revised before advancing; the score
// follows the latest judgment.
func SubmitFlashcard(st State, def quiz.Definition, knewIt bool) (State, error) {
	if st.Phase != PhaseInProgress {
		return st, ErrCompleted
	}
	if def.Kind != quiz.KindFlashcard {
		return st, ErrKindMismatch
	}
	idx, err := currentIndex(st, def)
	if err != nil {
		return st, err
	}
	q := def.Questions[idx]
	next := st.clone()
	if prev, ok := next.Responses[q.ID]; ok && prev.KnewIt {
		next.Score--
	}
	next.Responses[q.ID] = Response{
		Kind:    quiz.KindFlashcard,
		KnewIt:  knewIt,
		Correct: knewIt,
		Viewed:  true,
	}
	if knewIt {
		next.Score++
	}
	return next, nil
}

// Advance moves to the next question, or into the terminal phase when the
// deck is exhausted. This is the only transition into PhaseCompleted, and a
// completed state absorbs further calls unchanged.
func Advance(st State) State {
	if st.Phase != PhaseInProgress {
		return st
	}
	next := st.clone()
	if st.Position+1 < len(st.Order) {
		next.Position++
		return next
	}
	next.Phase = PhaseCompleted
	return next
}

// Back steps to the previous question without touching recorded responses.
// Callers restrict it to flashcard decks.
func Back(st State) State {
	if st.Phase != PhaseInProgress || st.Position == 0 {
		return st
	}
	next := st.clone()
	next.Position--
	return next
}

// ProgressFraction is how far through the deck the attempt is, in [0, 1).
func ProgressFraction(st State) float64 {
	if len(st.Order) == 0 {
		return 0
	}
	return float64(st.Position) / float64(len(st.Order))
}

func IsComplete(st State) bool { return st.Phase == PhaseCompleted }

func currentIndex(st State, def quiz.Definition) (int, error) {
	if st.Position < 0 || st.Position >= len(st.Order) {
		return 0, fmt.Errorf("position %d out of range", st.Position)
	}
	idx := st.Order[st.Position]
	if idx < 0 || idx >= len(def.Questions) {
		return 0, fmt.Errorf("definition does not match session: index %d", idx)
	}
	return idx, nil
}

// clone copies the mutable parts of a state. Order and OptionOrder are fixed
// for the attempt's lifetime and may be shared.
func (st State) clone() State {
	next := st
	next.Responses = make(map[string]Response, len(st.Responses))
	for k, v := range st.Responses {
		next.Responses[k] = v
	}
	return next
}
