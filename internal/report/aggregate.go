// Package report reduces persisted answer history into per-topic accuracy
// statistics and assembles the paired payload for comparison analysis.
package report

import (
	"sort"

	"github.com/safecert/whitecard-trainer/internal/quiz"
)

// Classification thresholds. Topics in [70, 80) land in neither list.
const (
	weakBelow      = 70.0
	strongAtOrOver = 80.0
)

type TopicStat struct {
	Topic      string  `json:"topic"`
	Correct    int     `json:"correct"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// Aggregate folds answers into per-topic counts. A pure function of its
// input: aggregating the same collection twice gives identical stats, and
// an empty collection gives an empty map (no topic ever has total zero).
func Aggregate(answers []quiz.TestAnswer) map[string]TopicStat {
	stats := map[string]TopicStat{}
	for _, a := range answers {
		s := stats[a.Topic]
		s.Topic = a.Topic
		s.Total++
		if a.IsCorrect {
			s.Correct++
		}
		stats[a.Topic] = s
	}
	for topic, s := range stats {
		s.Percentage = 100 * float64(s.Correct) / float64(s.Total)
		stats[topic] = s
	}
	return stats
}

// WeakTopics returns topics under 70% accuracy, worst first.
func WeakTopics(stats map[string]TopicStat) []TopicStat {
	var out []TopicStat
	for _, s := range stats {
		if s.Percentage < weakBelow {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Percentage != out[j].Percentage {
			return out[i].Percentage < out[j].Percentage
		}
		return out[i].Topic < out[j].Topic
	})
	return out
}

// StrongTopics returns topics at or above 80% accuracy, best first.
func StrongTopics(stats map[string]TopicStat) []TopicStat {
	var out []TopicStat
	for _, s := range stats {
		if s.Percentage >= strongAtOrOver {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Percentage != out[j].Percentage {
			return out[i].Percentage > out[j].Percentage
		}
		return out[i].Topic < out[j].Topic
	})
	return out
}
