package quiz

import (
	"fmt"
	"time"
)

// Mode selects the session flow: practice grades and persists each answer
// immediately, exam collects selections and grades everything at submit.
type Mode string

const (
	ModePractice Mode = "practice"
	ModeExam     Mode = "exam"
)

// TopicAll is the topic recorded on exam sessions, which draw from the
// whole question bank.
const TopicAll = "all"

type Question struct {
	ID                 string   `json:"id"`
	Stem               string   `json:"stem"`
	Options            []string `json:"options"`
	Answer             []string `json:"answer"`
	ExplanationCorrect string   `json:"explanation_correct,omitempty"`
	Topic              string   `json:"topic"`
	CreatedAt          int64    `json:"created_at,omitempty"`
}

// ValidationError reports a malformed entity rejected at construction time.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks the Question invariants: at least two options, a
// non-empty answer key, and every answer present among the options.
func (q Question) Validate() error {
	if q.Stem == "" {
		return &ValidationError{Field: "stem", Reason: "must not be empty"}
	}
	if q.Topic == "" {
		return &ValidationError{Field: "topic", Reason: "must not be empty"}
	}
	if len(q.Options) < 2 {
		return &ValidationError{Field: "options", Reason: "need at least two options"}
	}
	if len(q.Answer) == 0 {
		return &ValidationError{Field: "answer", Reason: "must not be empty"}
	}
	opts := toSet(q.Options)
	for _, a := range q.Answer {
		if _, ok := opts[a]; !ok {
			return &ValidationError{Field: "answer", Reason: fmt.Sprintf("%q is not one of the options", a)}
		}
	}
	return nil
}

// MultiSelect reports whether the question expects more than one answer.
func (q Question) MultiSelect() bool { return len(q.Answer) > 1 }

type TestSession struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	Mode            Mode       `json:"mode"`
	Topic           string     `json:"topic"`
	TotalQuestions  int        `json:"total_questions"`
	CorrectAnswers  int        `json:"correct_answers"`
	ScorePercentage float64    `json:"score_percentage"`
	Completed       bool       `json:"completed"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// TestAnswer is one graded submission. Stem, correct answer and topic are
// snapshots so later edits to the source question don't rewrite history.
type TestAnswer struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"session_id"`
	QuestionID     string    `json:"question_id"`
	QuestionStem   string    `json:"question_stem"`
	SelectedAnswer []string  `json:"selected_answer"`
	CorrectAnswer  []string  `json:"correct_answer"`
	IsCorrect      bool      `json:"is_correct"`
	Topic          string    `json:"topic"`
	CreatedAt      time.Time `json:"created_at"`
}
