package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/safecert/whitecard-trainer/internal/analysis"
	"github.com/safecert/whitecard-trainer/internal/auth"
	"github.com/safecert/whitecard-trainer/internal/quiz"
	"github.com/safecert/whitecard-trainer/internal/report"
	"github.com/safecert/whitecard-trainer/internal/store"
)

// ListReportsHandler returns the caller's completed sessions, newest
// first.
func ListReportsHandler(sessions store.SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := auth.IdentityFromContext(r.Context())
		list, err := sessions.ListSessions(r.Context(), store.SessionListOpts{
			UserID:        identity.ID,
			CompletedOnly: true,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// SessionReportHandler returns one completed session with its answers and
// the per-topic breakdown, weakest and strongest topics included.
func SessionReportHandler(sessions store.SessionStore) http.HandlerFunc {
	type sessionReport struct {
		Session quiz.TestSession            `json:"session"`
		Answers []quiz.TestAnswer           `json:"answers"`
		Topics  map[string]report.TopicStat `json:"topics"`
		Weak    []report.TopicStat          `json:"weak_topics"`
		Strong  []report.TopicStat          `json:"strong_topics"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := auth.IdentityFromContext(r.Context())
		s, answers, err := ownedSession(r, sessions, chi.URLParam(r, "sessionID"), identity.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		stats := report.Aggregate(answers)
		writeJSON(w, http.StatusOK, sessionReport{
			Session: s,
			Answers: answers,
			Topics:  stats,
			Weak:    report.WeakTopics(stats),
			Strong:  report.StrongTopics(stats),
		})
	}
}

// DashboardHandler aggregates every answer the caller has ever given into
// overall figures and the cross-session topic breakdown.
func DashboardHandler(sessions store.SessionStore) http.HandlerFunc {
	type dashboard struct {
		SessionsCompleted int                         `json:"sessions_completed"`
		AverageScore      float64                     `json:"average_score"`
		BestScore         float64                     `json:"best_score"`
		Topics            map[string]report.TopicStat `json:"topics"`
		Weak              []report.TopicStat          `json:"weak_topics"`
		Strong            []report.TopicStat          `json:"strong_topics"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := auth.IdentityFromContext(r.Context())
		completed, err := sessions.ListSessions(r.Context(), store.SessionListOpts{
			UserID:        identity.ID,
			CompletedOnly: true,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		answers, err := sessions.ListAnswers(r.Context(), store.AnswerListOpts{UserID: identity.ID})
		if err != nil {
			writeError(w, err)
			return
		}

		var d dashboard
		d.SessionsCompleted = len(completed)
		for _, s := range completed {
			d.AverageScore += s.ScorePercentage
			if s.ScorePercentage > d.BestScore {
				d.BestScore = s.ScorePercentage
			}
		}
		if len(completed) > 0 {
			d.AverageScore /= float64(len(completed))
		}
		d.Topics = report.Aggregate(answers)
		d.Weak = report.WeakTopics(d.Topics)
		d.Strong = report.StrongTopics(d.Topics)
		writeJSON(w, http.StatusOK, d)
	}
}

// CompareReportsHandler asks the analyst to compare two of the caller's
// completed sessions.
func CompareReportsHandler(sessions store.SessionStore, analyzer analysis.Analyzer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if analyzer == nil {
			http.Error(w, "analysis not configured", http.StatusServiceUnavailable)
			return
		}
		identity, _ := auth.IdentityFromContext(r.Context())
		var req struct {
			CurrentID  string `json:"current_id"`
			PreviousID string `json:"previous_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CurrentID == "" || req.PreviousID == "" {
			http.Error(w, "current_id and previous_id required", http.StatusBadRequest)
			return
		}

		current, currentAnswers, err := ownedSession(r, sessions, req.CurrentID, identity.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		previous, previousAnswers, err := ownedSession(r, sessions, req.PreviousID, identity.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		if !current.Completed || !previous.Completed {
			http.Error(w, "both sessions must be completed", http.StatusConflict)
			return
		}

		out, err := analyzer.Compare(r.Context(), analysis.Request{
			Current:  current,
			Previous: previous,
			Stats:    report.Compare(currentAnswers, previousAnswers),
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// ownedSession loads a session and its answers, rejecting sessions that
// belong to someone else.
func ownedSession(r *http.Request, sessions store.SessionStore, sessionID, userID string) (quiz.TestSession, []quiz.TestAnswer, error) {
	s, err := sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		return quiz.TestSession{}, nil, err
	}
	if s.UserID != userID {
		return quiz.TestSession{}, nil, errNotOwner
	}
	answers, err := sessions.ListAnswers(r.Context(), store.AnswerListOpts{SessionID: sessionID})
	if err != nil {
		return quiz.TestSession{}, nil, err
	}
	return s, answers, nil
}
