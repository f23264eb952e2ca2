package report

import (
	"github.com/coursekit/quizflow/internal/quiz"
	"github.com/coursekit/quizflow/internal/session"
)

// Answer is one per-question outcome in the submitted record. The learner's
// answer is carried in display form: the option text for multiple choice, a
// "knew it" phrase for flashcards.
type Answer struct {
	QuestionID string `json:"question_id"`
	Prompt     string `json:"question"`
	Given      string `json:"answer"`
	Correct    bool   `json:"correct"`
	Viewed     bool   `json:"viewed"`
}

// Record is the payload posted to the platform's result endpoint.
type Record struct {
	QuizID         string   `json:"quiz_id"`
	QuizTitle      string   `json:"quiz_title"`
	Score          int      `json:"score"`
	TotalQuestions int      `json:"total_questions"`
	StartTimestamp int64    `json:"start_timestamp"`
	Answers        []Answer `json:"answers"`
}

// Completion signals module-progress tracking that a linked activity is done.
type Completion struct {
	ModuleID   string  `json:"moduleId"`
	ActivityID string  `json:"activityId,omitempty"`
	QuizID     string  `json:"quizId"`
	QuizScore  float64 `json:"quizScore"`
}

const (
	flashcardKnown   = "knew it"
	flashcardUnknown = "did not know it"
)

// BuildResult flattens a completed attempt into the wire record. Answers
// follow presentation order. A flashcard the learner navigated past without
// judging is reported as not known, with viewed=false.
func BuildResult(def quiz.Definition, st session.State) Record {
	rec := Record{
		QuizID:         def.ID,
		QuizTitle:      def.Title,
		Score:          st.Score,
		TotalQuestions: len(st.Order),
		StartTimestamp: st.StartedAt.Unix(),
		Answers:        make([]Answer, 0, len(st.Order)),
	}
	for _, idx := range st.Order {
		q := def.Questions[idx]
		resp, answered := st.Responses[q.ID]
		a := Answer{QuestionID: q.ID, Prompt: q.Prompt}
		switch {
		case def.Kind == quiz.KindFlashcard && answered:
			a.Correct = resp.KnewIt
			a.Viewed = resp.Viewed
			a.Given = flashcardUnknown
			if resp.KnewIt {
				a.Given = flashcardKnown
			}
		case def.Kind == quiz.KindFlashcard:
			a.Given = flashcardUnknown
		case answered:
			a.Given = resp.Selected
			a.Correct = resp.Correct
			a.Viewed = true
		}
		rec.Answers = append(rec.Answers, a)
	}
	return rec
}

// ScorePercent is the completion signal's score, in [0, 100].
func ScorePercent(st session.State) float64 {
	if len(st.Order) == 0 {
		return 0
	}
	return 100 * float64(st.Score) / float64(len(st.Order))
}
