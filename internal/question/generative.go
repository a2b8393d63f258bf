package question

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/pavelanni/interviewsim/internal/llm"
	"github.com/pavelanni/interviewsim/internal/llm/prompts"
)

// HistoryWindow is how many recent exchanges a question prompt carries.
const HistoryWindow = 3

// MinQuestionWords is the shortest generated question accepted.
const MinQuestionWords = 5

const (
	questionMaxTokens   = 150
	questionTemperature = 0.7
)

var leadingLabelRegex = regexp.MustCompile(`(?i)^(?:\*\*)?(?:follow-up\s+)?(?:question|q)\s*\d*\s*[:.)-]\s*(?:\*\*)?\s*|^\d+\s*[.)]\s+`)

// Generative asks a text-generation model for each question.
type Generative struct {
	gen         llm.Generator
	maxTokens   int
	temperature float32
}

// NewGenerative returns a Source backed by gen.
func NewGenerative(gen llm.Generator) *Generative {
	return &Generative{
		gen:         gen,
		maxTokens:   questionMaxTokens,
		temperature: questionTemperature,
	}
}

// Next generates main question req.Number. The last HistoryWindow
// exchanges are included so the model avoids repeating itself.
func (g *Generative) Next(ctx context.Context, req Request) (string, error) {
	history := req.History
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}
	prompt, err := prompts.Question(prompts.QuestionData{
		Role:        req.Role.DisplayLabel(),
		Description: req.Role.Description,
		Level:       req.Level,
		Experience:  req.Experience,
		Number:      req.Number,
		Total:       req.Total,
		FocusAreas:  req.Role.FocusAreas,
		History:     history,
	})
	if err != nil {
		return "", err
	}
	return g.generate(ctx, prompt)
}

// FollowUp generates a probe for the just-answered question.
func (g *Generative) FollowUp(ctx context.Context, req FollowUpRequest) (string, error) {
	prompt, err := prompts.FollowUp(prompts.FollowUpData{
		Role:       req.Role.DisplayLabel(),
		Level:      req.Level,
		Question:   req.Question,
		Answer:     req.Answer,
		FocusAreas: req.Role.FocusAreas,
	})
	if err != nil {
		return "", err
	}
	return g.generate(ctx, prompt)
}

func (g *Generative) generate(ctx context.Context, prompt string) (string, error) {
	if g.gen == nil {
		return "", fmt.Errorf("%w: no generator", ErrGenerationFailed)
	}
	raw, err := g.gen.Generate(ctx, prompt, g.maxTokens, g.temperature)
	if err != nil {
		slog.Warn("question generation failed", "error", err)
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	q := Clean(raw)
	if n := len(strings.Fields(q)); n < MinQuestionWords {
		slog.Warn("generated question too short", "words", n, "raw", raw)
		return "", fmt.Errorf("%w: %d words", ErrGenerationFailed, n)
	}
	return q, nil
}

// Clean strips the labels, numbering and quotes models tend to wrap
// around a question.
func Clean(raw string) string {
	q := strings.TrimSpace(raw)
	q = leadingLabelRegex.ReplaceAllString(q, "")
	q = strings.Trim(q, "\"'`*“” \t\n")
	return strings.TrimSpace(q)
}
