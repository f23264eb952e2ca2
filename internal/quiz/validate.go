package quiz

import (
	"errors"
	"fmt"
)

// ErrInvalidDefinition is wrapped by every validation failure so callers can
// distinguish malformed quizzes from transport errors with errors.Is.
var ErrInvalidDefinition = errors.New("invalid quiz definition")

// Validate checks the structural rules a definition must satisfy before a
// session may be started: at least one question, and for multiple choice at
// least two options with the answer present among them.
func Validate(d Definition) error {
	if len(d.Questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrInvalidDefinition)
	}
	if d.Kind == KindFlashcard {
		return nil
	}
	for i, q := range d.Questions {
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: question %d (%s) has %d options", ErrInvalidDefinition, i, q.ID, len(q.Options))
		}
		if !contains(q.Options, q.Answer) {
			return fmt.Errorf("%w: question %d (%s) answer not among options", ErrInvalidDefinition, i, q.ID)
		}
	}
	return nil
}

func contains(opts []string, v string) bool {
	for _, o := range opts {
		if o == v {
			return true
		}
	}
	return false
}
