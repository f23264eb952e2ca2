package quiz_test

import (
	"context"
	"errors"
	"testing"

	"github.com/coursekit/quizflow/internal/quiz"
)

func validMCQ() quiz.Definition {
	return quiz.Definition{
		ID:    "q1",
		Title: "Capitals",
		Kind:  quiz.KindMultipleChoice,
		Questions: []quiz.Question{
			{ID: "a", Prompt: "Capital of France?", Options: []string{"Paris", "Lyon"}, Answer: "Paris", Explanation: "It is Paris."},
		},
	}
}

func TestValidateAcceptsWellFormed(t *testing.T) {
	if err := quiz.Validate(validMCQ()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsEmpty(t *testing.T) {
	d := validMCQ()
	d.Questions = nil
	if err := quiz.Validate(d); !errors.Is(err, quiz.ErrInvalidDefinition) {
		t.Fatalf("expected ErrInvalidDefinition, got %v", err)
	}
}

func TestValidateRejectsSingleOption(t *testing.T) {
	d := validMCQ()
	d.Questions[0].Options = []string{"Paris"}
	if err := quiz.Validate(d); !errors.Is(err, quiz.ErrInvalidDefinition) {
		t.Fatalf("expected ErrInvalidDefinition, got %v", err)
	}
}

func TestValidateRejectsStrayAnswer(t *testing.T) {
	d := validMCQ()
	d.Questions[0].Answer = "Berlin"
	if err := quiz.Validate(d); !errors.Is(err, quiz.ErrInvalidDefinition) {
		t.Fatalf("expected ErrInvalidDefinition, got %v", err)
	}
}

func TestValidateFlashcardsSkipOptionRules(t *testing.T) {
	d := quiz.Definition{
		ID:    "deck",
		Title: "Deck",
		Kind:  quiz.KindFlashcard,
		Questions: []quiz.Question{
			{ID: "c1", Prompt: "front", Answer: "back"},
		},
	}
	if err := quiz.Validate(d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestKindFromWire(t *testing.T) {
	if quiz.KindFromWire("flashcard") != quiz.KindFlashcard {
		t.Fatalf("flashcard not recognized")
	}
	if quiz.KindFromWire("") != quiz.KindMultipleChoice {
		t.Fatalf("default kind should be multiple choice")
	}
	if quiz.KindFromWire("anything") != quiz.KindMultipleChoice {
		t.Fatalf("unknown kinds default to multiple choice")
	}
}

func TestStudentViewStripsGradingMaterial(t *testing.T) {
	d := validMCQ()
	safe := quiz.StudentView(d)
	if safe.Questions[0].Answer != "" || safe.Questions[0].Explanation != "" {
		t.Fatalf("student view leaked grading material: %+v", safe.Questions[0])
	}
	// The original must be untouched.
	if d.Questions[0].Answer != "Paris" {
		t.Fatalf("source definition mutated")
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := quiz.NewInMemoryStore()
	if err := store.Put(ctx, validMCQ()); err != nil {
		t.Fatalf("put: %v", err)
	}

	full, err := store.GetFull(ctx, "q1")
	if err != nil {
		t.Fatalf("get full: %v", err)
	}
	if full.Questions[0].Answer != "Paris" {
		t.Fatalf("full view missing answer key")
	}

	safe, err := store.Get(ctx, "q1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if safe.Questions[0].Answer != "" {
		t.Fatalf("student get leaked answer key")
	}

	if _, err := store.Get(ctx, "nope"); !errors.Is(err, quiz.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreRejectsInvalid(t *testing.T) {
	d := validMCQ()
	d.Questions = nil
	if err := quiz.NewInMemoryStore().Put(context.Background(), d); !errors.Is(err, quiz.ErrInvalidDefinition) {
		t.Fatalf("expected ErrInvalidDefinition, got %v", err)
	}
}
