// Package question supplies interview questions, either from the static
// catalog or from a text-generation model.
package question

import (
	"context"

	"github.com/pavelanni/interviewsim/internal/llm"
	"github.com/pavelanni/interviewsim/internal/model"
)

// ErrGenerationFailed is returned when a generated question is unusable.
// Callers switch to catalog content.
var ErrGenerationFailed = llm.ErrGenerationFailed

// Request describes the next main question to produce.
type Request struct {
	Role       model.RoleProfile
	Level      string
	Number     int // 1-based
	Total      int
	Experience string
	History    []model.Exchange
}

// FollowUpRequest describes the follow-up to produce for an answered question.
type FollowUpRequest struct {
	Role     model.RoleProfile
	Level    string
	Question string
	Answer   string
	Count    int // 1 for the first follow-up of a main question
}

// Source produces main questions and follow-ups.
type Source interface {
	Next(ctx context.Context, req Request) (string, error)
	FollowUp(ctx context.Context, req FollowUpRequest) (string, error)
}
