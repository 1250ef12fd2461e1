// Package store persists questions, sessions, answers, users and forum
// records behind narrow interfaces so the engine and reporting code never
// touch SQL directly.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/safecert/whitecard-trainer/internal/quiz"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("store: not found")

// PersistenceError wraps a failed create/update/delete/list call. The core
// never retries these; callers decide whether to keep an in-progress
// session around for a manual retry.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return "store: " + e.Op + ": " + e.Err.Error() }
func (e *PersistenceError) Unwrap() error { return e.Err }

func persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

type QuestionStore interface {
	ListQuestions(ctx context.Context) ([]quiz.Question, error)
	GetQuestion(ctx context.Context, id string) (quiz.Question, error)
	CreateQuestion(ctx context.Context, q quiz.Question) (quiz.Question, error)
	UpdateQuestion(ctx context.Context, q quiz.Question) (quiz.Question, error)
	DeleteQuestion(ctx context.Context, id string) error
}

type SessionListOpts struct {
	UserID        string
	CompletedOnly bool
}

type AnswerListOpts struct {
	SessionID string // answers of one session
	UserID    string // or: all answers across a user's sessions
}

// SessionStore covers the engine's write path plus the read paths the
// reports need.
type SessionStore interface {
	quiz.SessionStore
	GetSession(ctx context.Context, id string) (quiz.TestSession, error)
	ListSessions(ctx context.Context, opts SessionListOpts) ([]quiz.TestSession, error)
	ListAnswers(ctx context.Context, opts AnswerListOpts) ([]quiz.TestAnswer, error)
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"` // admin|member
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (User, error)
	CreateUser(ctx context.Context, u User) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}
