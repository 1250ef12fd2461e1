package quiz

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// SessionStore is the persistence surface the engine needs. The full store
// contract lives in internal/store; tests supply fakes.
type SessionStore interface {
	CreateSession(ctx context.Context, s TestSession) (TestSession, error)
	CreateAnswer(ctx context.Context, a TestAnswer) (TestAnswer, error)
	FinalizeSession(ctx context.Context, id string, correct int, score float64, completedAt time.Time) (TestSession, error)
}

type State int

const (
	StateNotStarted State = iota
	StateInProgress
	StateCompleted
)

// SubmitResult is the immediate feedback for one practice answer.
type SubmitResult struct {
	Correct       bool     `json:"correct"`
	CorrectAnswer []string `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// Engine runs one practice or exam session for one user. It owns the
// session-local state: shuffled question order, shuffled option order,
// current index, accumulated selections and the running correct count.
// None of that is persisted; abandoning the engine simply leaves the
// TestSession row un-finalized.
//
// An Engine is not safe for concurrent use. Each session belongs to exactly
// one user acting serially, so callers that share engines across goroutines
// must do their own locking.
type Engine struct {
	store SessionStore
	rng   *rand.Rand
	now   func() time.Time

	state      State
	session    TestSession
	questions  []Question
	index      int
	answered   map[string]bool     // practice: question IDs already graded
	selections map[string][]string // exam: revisable picks per question ID
	correct    int
}

type Option func(*Engine)

// WithRand injects the random source used for shuffling, for reproducible
// tests.
func WithRand(rng *rand.Rand) Option { return func(e *Engine) { e.rng = rng } }

// WithClock overrides the completion timestamp source.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

func NewEngine(store SessionStore, opts ...Option) *Engine {
	e := &Engine{
		store:      store,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		now:        time.Now,
		answered:   map[string]bool{},
		selections: map[string][]string{},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Start selects the pool (topic match for practice, the whole bank for
// exam), shuffles the pool order and each question's option order
// independently, and creates the TestSession record with zeroed counters.
// Returns ErrEmptyPool without creating anything when no question
// qualifies.
func (e *Engine) Start(ctx context.Context, userID string, mode Mode, topic string, bank []Question) (TestSession, error) {
	if e.state != StateNotStarted {
		return TestSession{}, ErrInvalidState
	}

	var pool []Question
	if mode == ModeExam {
		topic = TopicAll
		pool = append(pool, bank...)
	} else {
		for _, q := range bank {
			if q.Topic == topic {
				pool = append(pool, q)
			}
		}
	}
	if len(pool) == 0 {
		return TestSession{}, ErrEmptyPool
	}

	pool = Shuffle(pool, e.rng)
	for i := range pool {
		pool[i].Options = Shuffle(pool[i].Options, e.rng)
	}

	created, err := e.store.CreateSession(ctx, TestSession{
		ID:             uuid.NewString(),
		UserID:         userID,
		Mode:           mode,
		Topic:          topic,
		TotalQuestions: len(pool),
		CreatedAt:      e.now(),
	})
	if err != nil {
		return TestSession{}, err
	}

	e.session = created
	e.questions = pool
	e.index = 0
	e.state = StateInProgress
	return created, nil
}

func (e *Engine) State() State          { return e.state }
func (e *Engine) Session() TestSession  { return e.session }
func (e *Engine) Questions() []Question { return e.questions }
func (e *Engine) Index() int            { return e.index }

// Current returns the question at the session cursor.
func (e *Engine) Current() (Question, error) {
	if e.state != StateInProgress {
		return Question{}, ErrInvalidState
	}
	return e.questions[e.index], nil
}

// AnsweredCount reports how many questions have a graded answer (practice)
// or a recorded selection (exam).
func (e *Engine) AnsweredCount() int {
	if e.session.Mode == ModeExam {
		return len(e.selections)
	}
	return len(e.answered)
}

// SubmitAnswer grades one practice answer against the question's canonical
// answer key and persists the TestAnswer immediately. Calling it twice for
// the same question writes two records; the UI flow submits at most once.
// Exam sessions collect selections with Select and grade at Finish instead.
func (e *Engine) SubmitAnswer(ctx context.Context, questionID string, selected []string) (SubmitResult, error) {
	if e.state != StateInProgress || e.session.Mode != ModePractice {
		return SubmitResult{}, ErrInvalidState
	}
	q, ok := e.find(questionID)
	if !ok {
		return SubmitResult{}, ErrQuestionNotFound
	}

	correct := IsCorrect(selected, q.Answer)
	_, err := e.store.CreateAnswer(ctx, TestAnswer{
		ID:             uuid.NewString(),
		SessionID:      e.session.ID,
		QuestionID:     q.ID,
		QuestionStem:   q.Stem,
		SelectedAnswer: selected,
		CorrectAnswer:  q.Answer,
		IsCorrect:      correct,
		Topic:          q.Topic,
		CreatedAt:      e.now(),
	})
	if err != nil {
		return SubmitResult{}, err
	}

	e.answered[q.ID] = true
	if correct {
		e.correct++
	}
	return SubmitResult{Correct: correct, CorrectAnswer: q.Answer, Explanation: q.ExplanationCorrect}, nil
}

// Select records a revisable exam pick in memory. An empty selection still
// counts as answered, matching the deselect-all behaviour of the UI.
func (e *Engine) Select(questionID string, selected []string) error {
	if e.state != StateInProgress || e.session.Mode != ModeExam {
		return ErrInvalidState
	}
	if _, ok := e.find(questionID); !ok {
		return ErrQuestionNotFound
	}
	e.selections[questionID] = selected
	return nil
}

// Advance moves the practice cursor forward one question. The current
// question must have been submitted first: practice gates progress on
// feedback.
func (e *Engine) Advance() error {
	if e.state != StateInProgress || e.session.Mode != ModePractice {
		return ErrInvalidState
	}
	if !e.answered[e.questions[e.index].ID] {
		return ErrInvalidState
	}
	if e.index == len(e.questions)-1 {
		return ErrEndOfSession
	}
	e.index++
	return nil
}

// Navigate jumps the exam cursor to any question. Practice sessions only
// move forward via Advance.
func (e *Engine) Navigate(index int) error {
	if e.state != StateInProgress || e.session.Mode != ModeExam {
		return ErrInvalidState
	}
	if index < 0 || index >= len(e.questions) {
		return ErrQuestionNotFound
	}
	e.index = index
	return nil
}

// Finish finalizes the session. Practice requires the cursor to have
// reached (and answered) the last question; exam requires a selection for
// every question and grades them all here, persisting TestAnswers in
// question order before the single session update. A persistence failure
// part-way leaves prior answer writes committed and the session
// un-finalized; that state is surfaced, not retried.
func (e *Engine) Finish(ctx context.Context) (TestSession, error) {
	if e.state != StateInProgress {
		return TestSession{}, ErrInvalidState
	}

	switch e.session.Mode {
	case ModePractice:
		if e.index != len(e.questions)-1 || !e.answered[e.questions[e.index].ID] {
			return TestSession{}, ErrInvalidState
		}
	case ModeExam:
		if len(e.selections) != len(e.questions) {
			return TestSession{}, ErrInvalidState
		}
		e.correct = 0
		for _, q := range e.questions {
			selected := e.selections[q.ID]
			correct := IsCorrect(selected, q.Answer)
			if correct {
				e.correct++
			}
			_, err := e.store.CreateAnswer(ctx, TestAnswer{
				ID:             uuid.NewString(),
				SessionID:      e.session.ID,
				QuestionID:     q.ID,
				QuestionStem:   q.Stem,
				SelectedAnswer: selected,
				CorrectAnswer:  q.Answer,
				IsCorrect:      correct,
				Topic:          q.Topic,
				CreatedAt:      e.now(),
			})
			if err != nil {
				return TestSession{}, err
			}
		}
	}

	score := 100 * float64(e.correct) / float64(len(e.questions))
	completedAt := e.now()
	updated, err := e.store.FinalizeSession(ctx, e.session.ID, e.correct, score, completedAt)
	if err != nil {
		return TestSession{}, err
	}

	e.session = updated
	e.state = StateCompleted
	return updated, nil
}

func (e *Engine) find(questionID string) (Question, bool) {
	for _, q := range e.questions {
		if q.ID == questionID {
			return q, true
		}
	}
	return Question{}, false
}
