package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/safecert/whitecard-trainer/internal/auth"
	"github.com/safecert/whitecard-trainer/internal/quiz"
	"github.com/safecert/whitecard-trainer/internal/store"
)

// Registry tracks the live engines for in-progress sessions. Engines are
// session-local state machines, so the registry pins each one to the user
// that started it and serializes access through a per-session lock.
type Registry struct {
	mu     sync.RWMutex
	active map[string]*activeSession
}

type activeSession struct {
	mu     sync.Mutex
	userID string
	engine *quiz.Engine
}

func NewRegistry() *Registry {
	return &Registry{active: map[string]*activeSession{}}
}

var errNotOwner = errors.New("session belongs to another user")

func (r *Registry) add(sessionID, userID string, e *quiz.Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[sessionID] = &activeSession{userID: userID, engine: e}
}

func (r *Registry) get(sessionID, userID string) (*activeSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.active[sessionID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if s.userID != userID {
		return nil, errNotOwner
	}
	return s, nil
}

func (r *Registry) remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, sessionID)
}

// sessionQuestion is the client-facing view of a question: no answer key,
// no explanation. Grading happens server-side.
type sessionQuestion struct {
	ID          string   `json:"id"`
	Stem        string   `json:"stem"`
	Options     []string `json:"options"`
	Topic       string   `json:"topic"`
	MultiSelect bool     `json:"multi_select"`
}

func toSessionQuestions(qs []quiz.Question) []sessionQuestion {
	out := make([]sessionQuestion, len(qs))
	for i, q := range qs {
		out[i] = sessionQuestion{
			ID:          q.ID,
			Stem:        q.Stem,
			Options:     q.Options,
			Topic:       q.Topic,
			MultiSelect: q.MultiSelect(),
		}
	}
	return out
}

type sessionState struct {
	Session   quiz.TestSession  `json:"session"`
	Questions []sessionQuestion `json:"questions"`
	Index     int               `json:"index"`
	Answered  int               `json:"answered"`
}

func stateOf(e *quiz.Engine) sessionState {
	return sessionState{
		Session:   e.Session(),
		Questions: toSessionQuestions(e.Questions()),
		Index:     e.Index(),
		Answered:  e.AnsweredCount(),
	}
}

// StartSessionHandler creates a session from the current question bank and
// registers its engine.
func StartSessionHandler(reg *Registry, questions store.QuestionStore, sessions store.SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.IdentityFromContext(r.Context())
		var req struct {
			Mode  string `json:"mode"`
			Topic string `json:"topic"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		mode := quiz.Mode(req.Mode)
		if mode != quiz.ModePractice && mode != quiz.ModeExam {
			http.Error(w, "mode must be practice or exam", http.StatusBadRequest)
			return
		}
		if mode == quiz.ModePractice && req.Topic == "" {
			http.Error(w, "topic required for practice", http.StatusBadRequest)
			return
		}

		bank, err := questions.ListQuestions(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		engine := quiz.NewEngine(sessions)
		created, err := engine.Start(r.Context(), id.ID, mode, req.Topic, bank)
		if err != nil {
			writeError(w, err)
			return
		}
		reg.add(created.ID, id.ID, engine)
		writeJSON(w, http.StatusCreated, stateOf(engine))
	}
}

// GetSessionStateHandler reports the live state of an in-progress session.
func GetSessionStateHandler(reg *Registry) http.HandlerFunc {
	return withSession(reg, func(w http.ResponseWriter, r *http.Request, e *quiz.Engine) {
		writeJSON(w, http.StatusOK, stateOf(e))
	})
}

// SubmitAnswerHandler grades one practice answer and returns the feedback.
func SubmitAnswerHandler(reg *Registry) http.HandlerFunc {
	return withSession(reg, func(w http.ResponseWriter, r *http.Request, e *quiz.Engine) {
		var req struct {
			QuestionID string   `json:"question_id"`
			Selected   []string `json:"selected"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		res, err := e.SubmitAnswer(r.Context(), req.QuestionID, req.Selected)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	})
}

// AdvanceHandler moves a practice session to the next question.
func AdvanceHandler(reg *Registry) http.HandlerFunc {
	return withSession(reg, func(w http.ResponseWriter, r *http.Request, e *quiz.Engine) {
		if err := e.Advance(); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stateOf(e))
	})
}

// SelectHandler records a revisable exam selection.
func SelectHandler(reg *Registry) http.HandlerFunc {
	return withSession(reg, func(w http.ResponseWriter, r *http.Request, e *quiz.Engine) {
		var req struct {
			QuestionID string   `json:"question_id"`
			Selected   []string `json:"selected"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := e.Select(req.QuestionID, req.Selected); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stateOf(e))
	})
}

// NavigateHandler jumps an exam session to an arbitrary question.
func NavigateHandler(reg *Registry) http.HandlerFunc {
	return withSession(reg, func(w http.ResponseWriter, r *http.Request, e *quiz.Engine) {
		var req struct {
			Index int `json:"index"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := e.Navigate(req.Index); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stateOf(e))
	})
}

// FinishSessionHandler finalizes the session and drops its engine. On
// failure the engine stays registered so the client can retry the finish.
func FinishSessionHandler(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := auth.IdentityFromContext(r.Context())
		sessionID := chi.URLParam(r, "sessionID")
		s, err := reg.get(sessionID, identity.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		done, err := s.engine.Finish(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		reg.remove(sessionID)
		writeJSON(w, http.StatusOK, done)
	}
}

// withSession resolves the caller's active session and runs fn under its
// lock.
func withSession(reg *Registry, fn func(http.ResponseWriter, *http.Request, *quiz.Engine)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := auth.IdentityFromContext(r.Context())
		s, err := reg.get(chi.URLParam(r, "sessionID"), identity.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		fn(w, r, s.engine)
	}
}
