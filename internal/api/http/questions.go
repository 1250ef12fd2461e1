package http

import (
	"encoding/json"
	"math"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/safecert/whitecard-trainer/internal/quiz"
	"github.com/safecert/whitecard-trainer/internal/store"
)

// Exam parameters shown to trainees before they start.
const (
	examPassMark           = 80.0
	examMinutesPerQuestion = 1.5
)

// ListTopicsHandler returns each topic with its question count, so the
// practice screen can grey out empty topics instead of hitting an empty
// pool at start.
func ListTopicsHandler(questions store.QuestionStore) http.HandlerFunc {
	type topicInfo struct {
		Topic string `json:"topic"`
		Count int    `json:"count"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		bank, err := questions.ListQuestions(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		counts := map[string]int{}
		for _, q := range bank {
			counts[q.Topic]++
		}
		out := make([]topicInfo, 0, len(counts))
		for topic, n := range counts {
			out = append(out, topicInfo{Topic: topic, Count: n})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Topic < out[j].Topic })
		writeJSON(w, http.StatusOK, out)
	}
}

// ExamInfoHandler describes the exam: question count, pass mark and the
// estimated duration at a nominal pace.
func ExamInfoHandler(questions store.QuestionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bank, err := questions.ListQuestions(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"question_count":    len(bank),
			"pass_mark":         examPassMark,
			"estimated_minutes": int(math.Ceil(float64(len(bank)) * examMinutesPerQuestion)),
		})
	}
}

// Admin question bank CRUD. These return the full record, answer key
// included.

// ListQuestionsHandler lists the bank, optionally narrowed by ?topic= and
// a ?q= substring match on the stem.
func ListQuestionsHandler(questions store.QuestionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bank, err := questions.ListQuestions(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		topic := r.URL.Query().Get("topic")
		q := strings.ToLower(r.URL.Query().Get("q"))
		out := make([]quiz.Question, 0, len(bank))
		for _, question := range bank {
			if topic != "" && question.Topic != topic {
				continue
			}
			if q != "" && !strings.Contains(strings.ToLower(question.Stem), q) {
				continue
			}
			out = append(out, question)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func CreateQuestionHandler(questions store.QuestionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q quiz.Question
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		created, err := questions.CreateQuestion(r.Context(), q)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func UpdateQuestionHandler(questions store.QuestionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q quiz.Question
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		q.ID = chi.URLParam(r, "questionID")
		updated, err := questions.UpdateQuestion(r.Context(), q)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func DeleteQuestionHandler(questions store.QuestionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := questions.DeleteQuestion(r.Context(), chi.URLParam(r, "questionID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
