// Package http exposes the trainer over a JSON API: session lifecycle,
// question management, reports, AI comparison and the community forum.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/safecert/whitecard-trainer/internal/analysis"
	"github.com/safecert/whitecard-trainer/internal/forum"
	"github.com/safecert/whitecard-trainer/internal/quiz"
	"github.com/safecert/whitecard-trainer/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP statuses. Anything unrecognized
// is a 500 with a generic body so store internals never leak.
func writeError(w http.ResponseWriter, err error) {
	var ve *quiz.ValidationError
	switch {
	case errors.As(err, &ve):
		http.Error(w, ve.Error(), http.StatusBadRequest)
	case errors.Is(err, quiz.ErrEmptyPool):
		http.Error(w, "no questions available for that topic", http.StatusConflict)
	case errors.Is(err, quiz.ErrInvalidState):
		http.Error(w, "operation not valid in the session's current state", http.StatusConflict)
	case errors.Is(err, quiz.ErrQuestionNotFound):
		http.Error(w, "question not in this session", http.StatusNotFound)
	case errors.Is(err, quiz.ErrEndOfSession):
		http.Error(w, "already at the last question", http.StatusConflict)
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, errNotOwner):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, forum.ErrUnknownCategory),
		errors.Is(err, forum.ErrMissingField),
		errors.Is(err, forum.ErrEmptyComment):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, analysis.ErrUnavailable):
		http.Error(w, "analysis service unavailable", http.StatusBadGateway)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
