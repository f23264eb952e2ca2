package quiz

// Kind selects which fields of a Question are meaningful.
type Kind string

const (
	KindMultipleChoice Kind = "multiple_choice"
	KindFlashcard      Kind = "flashcard"
)

// KindFromWire maps the upstream "type" field: anything other than
// "flashcard" is a multiple-choice quiz.
func KindFromWire(t string) Kind {
	if t == string(KindFlashcard) {
		return KindFlashcard
	}
	return KindMultipleChoice
}

type Question struct {
	ID     string `json:"id"`
	Prompt string `json:"question"`
	// Answer is the correct option for multiple choice, or the back of the
	// card for flashcards.
	Answer      string   `json:"correctAnswer"`
	Options     []string `json:"options,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
}

type Definition struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Kind      Kind       `json:"type"`
	Questions []Question `json:"questions"`

	CreatedAt int64 `json:"created_at,omitempty"`
}
