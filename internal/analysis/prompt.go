package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/safecert/whitecard-trainer/internal/quiz"
	"github.com/safecert/whitecard-trainer/internal/report"
)

// buildPrompt embeds both sessions' metadata and per-topic breakdowns in
// the natural-language request handed to the analyst.
func buildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("You are an expert White Card training analyst. Analyze the performance comparison between two test sessions and provide detailed insights.\n\n")
	writeSession(&b, "Current Session", req.Current, req.Stats.CurrentStats)
	writeSession(&b, "Previous Session", req.Previous, req.Stats.PreviousStats)
	b.WriteString(`Provide a comprehensive analysis covering:
1. Overall performance trend (improved, declined, or stable)
2. Specific topics where performance improved
3. Specific topics where performance declined
4. Actionable recommendations for improvement
5. Encouragement and motivation

Format your response in a friendly, encouraging tone suitable for a construction worker studying for their White Card.`)
	return b.String()
}

func writeSession(b *strings.Builder, label string, s quiz.TestSession, stats map[string]report.TopicStat) {
	fmt.Fprintf(b, "**%s:**\n", label)
	fmt.Fprintf(b, "- Mode: %s\n", s.Mode)
	fmt.Fprintf(b, "- Topic: %s\n", s.Topic)
	fmt.Fprintf(b, "- Score: %.1f%%\n", s.ScorePercentage)
	fmt.Fprintf(b, "- Correct: %d/%d\n", s.CorrectAnswers, s.TotalQuestions)
	if s.CompletedAt != nil {
		fmt.Fprintf(b, "- Date: %s\n", s.CompletedAt.Format("Jan 2, 2006"))
	}
	breakdown, err := json.MarshalIndent(stats, "", "  ")
	if err == nil {
		fmt.Fprintf(b, "- Topic breakdown: %s\n", breakdown)
	}
	b.WriteString("\n")
}
