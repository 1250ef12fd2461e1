package analysis

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const submitTool = "submit_comparison"

// Client is the OpenAI-backed Analyzer. The model is forced through a
// function-call tool so the reply is structured JSON rather than prose.
type Client struct {
	api   *openai.Client
	model string
}

type ClientOption func(*Client)

func WithModel(model string) ClientOption { return func(c *Client) { c.model = model } }

func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{api: openai.NewClient(apiKey), model: openai.GPT4o}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Compare(ctx context.Context, req Request) (Comparison, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You compare workplace-safety quiz sessions and report structured progress analysis.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(req),
			},
		},
		Tools: []openai.Tool{
			{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        submitTool,
					Description: "Submit the session comparison analysis",
					Parameters:  comparisonSchema,
				},
			},
		},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: submitTool},
		},
	})
	if err != nil {
		return Comparison{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if len(resp.Choices) == 0 {
		return Comparison{}, fmt.Errorf("%w: empty response", ErrUnavailable)
	}
	choice := resp.Choices[0]
	if len(choice.Message.ToolCalls) == 0 {
		return Comparison{}, fmt.Errorf("%w: no tool call in response", ErrUnavailable)
	}
	call := choice.Message.ToolCalls[0]
	if call.Function.Name != submitTool {
		return Comparison{}, fmt.Errorf("%w: unexpected tool call %s", ErrUnavailable, call.Function.Name)
	}

	var out Comparison
	if err := json.Unmarshal([]byte(call.Function.Arguments), &out); err != nil {
		return Comparison{}, fmt.Errorf("%w: malformed arguments: %v", ErrUnavailable, err)
	}
	if err := validate(out); err != nil {
		return Comparison{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return out, nil
}

var comparisonSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"overall_trend": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"improved", "declined", "stable"},
			"description": "Overall performance trend",
		},
		"score_change": map[string]interface{}{
			"type":        "number",
			"description": "Percentage point change in score",
		},
		"improved_topics": map[string]interface{}{
			"type":  "array",
			"items": topicShiftSchema("improvement"),
		},
		"declined_topics": map[string]interface{}{
			"type":  "array",
			"items": topicShiftSchema("decline"),
		},
		"stable_topics": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"topic":      map[string]interface{}{"type": "string"},
					"percentage": map[string]interface{}{"type": "number"},
				},
			},
		},
		"recommendations": map[string]interface{}{
			"type":        "array",
			"items":       map[string]interface{}{"type": "string"},
			"description": "3-5 specific actionable recommendations",
		},
		"summary": map[string]interface{}{
			"type":        "string",
			"description": "A brief encouraging summary (2-3 sentences)",
		},
		"motivation": map[string]interface{}{
			"type":        "string",
			"description": "An encouraging message to keep the learner motivated",
		},
	},
	"required": []string{"overall_trend", "score_change", "recommendations", "summary", "motivation"},
}

func topicShiftSchema(deltaField string) map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"topic":               map[string]interface{}{"type": "string"},
			deltaField:            map[string]interface{}{"type": "string"},
			"previous_percentage": map[string]interface{}{"type": "number"},
			"current_percentage":  map[string]interface{}{"type": "number"},
		},
	}
}
