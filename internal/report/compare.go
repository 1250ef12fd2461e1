package report

import "github.com/safecert/whitecard-trainer/internal/quiz"

// Comparison pairs the topic statistics of two completed sessions. It is
// the sole input handed to the analysis collaborator, which computes the
// deltas and narrative itself; no scoring judgment happens here.
type Comparison struct {
	CurrentStats  map[string]TopicStat `json:"current_stats"`
	PreviousStats map[string]TopicStat `json:"previous_stats"`
}

// Compare aggregates both answer collections symmetrically.
func Compare(currentAnswers, previousAnswers []quiz.TestAnswer) Comparison {
	return Comparison{
		CurrentStats:  Aggregate(currentAnswers),
		PreviousStats: Aggregate(previousAnswers),
	}
}
