// Package analysis asks an LLM to compare two completed sessions. The core
// only shapes the request payload and checks the response matches the
// declared schema; the narrative content is never re-derived locally, and a
// failure here degrades only the comparison feature.
package analysis

import (
	"context"
	"errors"

	"github.com/safecert/whitecard-trainer/internal/quiz"
	"github.com/safecert/whitecard-trainer/internal/report"
)

// ErrUnavailable means the analysis service failed or returned output that
// does not conform to the schema. Session and report data are never
// affected.
var ErrUnavailable = errors.New("analysis: comparison service unavailable")

// Request carries the two completed sessions and their paired topic
// statistics as assembled by report.Compare.
type Request struct {
	Current  quiz.TestSession
	Previous quiz.TestSession
	Stats    report.Comparison
}

type TopicShift struct {
	Topic              string  `json:"topic"`
	Improvement        string  `json:"improvement,omitempty"`
	Decline            string  `json:"decline,omitempty"`
	PreviousPercentage float64 `json:"previous_percentage"`
	CurrentPercentage  float64 `json:"current_percentage"`
}

type StableTopic struct {
	Topic      string  `json:"topic"`
	Percentage float64 `json:"percentage"`
}

// Comparison is the structured verdict returned by the analyst.
type Comparison struct {
	OverallTrend    string        `json:"overall_trend"` // improved|declined|stable
	ScoreChange     float64       `json:"score_change"`
	ImprovedTopics  []TopicShift  `json:"improved_topics"`
	DeclinedTopics  []TopicShift  `json:"declined_topics"`
	StableTopics    []StableTopic `json:"stable_topics"`
	Recommendations []string      `json:"recommendations"`
	Summary         string        `json:"summary"`
	Motivation      string        `json:"motivation"`
}

// Analyzer lets handlers and tests swap the OpenAI-backed client for a
// fake.
type Analyzer interface {
	Compare(ctx context.Context, req Request) (Comparison, error)
}

func validate(c Comparison) error {
	switch c.OverallTrend {
	case "improved", "declined", "stable":
	default:
		return errors.New("overall_trend must be improved, declined or stable")
	}
	if c.Summary == "" {
		return errors.New("summary missing")
	}
	if c.Motivation == "" {
		return errors.New("motivation missing")
	}
	if len(c.Recommendations) == 0 {
		return errors.New("recommendations missing")
	}
	return nil
}
