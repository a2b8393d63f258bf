// Package feedback turns a candidate's answer into coaching feedback and a
// 0-10 score.
package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pavelanni/interviewsim/internal/llm"
	"github.com/pavelanni/interviewsim/internal/llm/prompts"
	"github.com/pavelanni/interviewsim/internal/model"
)

// ErrGenerationFailed is returned when the model produced no usable feedback.
var ErrGenerationFailed = llm.ErrGenerationFailed

// Origin records how an evaluation was produced.
type Origin string

const (
	OriginGenerated Origin = "generated"
	OriginTemplate  Origin = "template"
	OriginHeuristic Origin = "heuristic"
)

const (
	feedbackMaxTokens   = 500
	feedbackTemperature = 0.3
)

// EvalRequest is one answer to evaluate.
type EvalRequest struct {
	Question string
	Answer   string
	Role     model.RoleProfile
	Level    string
	Fallback bool // serve templated feedback without calling the model
}

// Evaluation is the feedback and score for one answer.
type Evaluation struct {
	Feedback  string
	Score     int
	Confident bool
	Origin    Origin
}

// Scorer evaluates answers with a text-generation model, or with templates
// when no model is configured.
type Scorer struct {
	gen         llm.Generator
	maxTokens   int
	temperature float32
}

// NewScorer returns a Scorer. A nil gen makes every evaluation templated.
func NewScorer(gen llm.Generator) *Scorer {
	return &Scorer{
		gen:         gen,
		maxTokens:   feedbackMaxTokens,
		temperature: feedbackTemperature,
	}
}

// Evaluate scores req.Answer. Model failures return ErrGenerationFailed;
// callers are expected to fall back to Heuristic.
func (s *Scorer) Evaluate(ctx context.Context, req EvalRequest) (Evaluation, error) {
	if req.Fallback || s.gen == nil {
		return Template(req), nil
	}

	prompt, err := prompts.Feedback(prompts.FeedbackData{
		Role:       req.Role.DisplayLabel(),
		Level:      req.Level,
		Question:   req.Question,
		Answer:     req.Answer,
		FocusAreas: req.Role.FocusAreas,
	})
	if err != nil {
		return Evaluation{}, err
	}

	text, err := s.gen.Generate(ctx, prompt, s.maxTokens, s.temperature)
	if err != nil {
		slog.Warn("feedback generation failed", "error", err)
		return Evaluation{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Evaluation{}, fmt.Errorf("%w: empty feedback", ErrGenerationFailed)
	}

	score, confident := ExtractScore(text)
	if !confident {
		slog.Debug("no numeric score in feedback, using keyword estimate", "score", score)
	}
	return Evaluation{
		Feedback:  text,
		Score:     score,
		Confident: confident,
		Origin:    OriginGenerated,
	}, nil
}
