// Package interview runs the turn-taking state machine of one practice
// interview: it asks questions, validates and scores answers, inserts
// follow-ups and builds the final report.
package interview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/pavelanni/interviewsim/internal/catalog"
	"github.com/pavelanni/interviewsim/internal/feedback"
	"github.com/pavelanni/interviewsim/internal/model"
	"github.com/pavelanni/interviewsim/internal/question"
	"github.com/pavelanni/interviewsim/internal/report"
)

// MinAnswerLength is the shortest accepted answer, in characters after
// trimming surrounding whitespace.
const MinAnswerLength = 20

// ErrInvalidTransition is returned when an operation is not allowed in the
// current phase.
var ErrInvalidTransition = errors.New("invalid transition")

// ValidationError rejects an answer without changing session state.
type ValidationError struct {
	Length int
	Min    int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("answer too short: %d characters, at least %d required", e.Length, e.Min)
}

// Scorer evaluates one answer.
type Scorer interface {
	Evaluate(ctx context.Context, req feedback.EvalRequest) (feedback.Evaluation, error)
}

// Recorder receives interview events. *metrics.Metrics implements it.
type Recorder interface {
	InterviewStarted()
	InterviewCompleted()
	QuestionAsked(followUp bool)
	AnswerScored(confident bool)
	FallbackEntered()
	GenerationCall(success bool)
}

type nopRecorder struct{}

func (nopRecorder) InterviewStarted() {}
func (nopRecorder) InterviewCompleted() {}
func (nopRecorder) QuestionAsked(bool) {}
func (nopRecorder) AnswerScored(bool) {}
func (nopRecorder) FallbackEntered() {}
func (nopRecorder) GenerationCall(bool) {}

// Option configures a Controller.
type Option func(*Controller)

// WithGenerative makes src the primary question source. Without it every
// question comes from the catalog.
func WithGenerative(src question.Source) Option {
	return func(c *Controller) { c.generative = src }
}

// WithRecorder sets the event recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) {
		if r != nil {
			c.rec = r
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithID sets the session ID instead of a random UUID.
func WithID(id string) Option {
	return func(c *Controller) { c.state.ID = id }
}

// Controller drives one interview. It is not safe for concurrent use.
type Controller struct {
	role       model.RoleProfile
	catalog    question.Source
	generative question.Source
	scorer     Scorer
	rec        Recorder
	now        func() time.Time

	state   model.SessionState
	phase   model.Phase
	pending string
	report  *model.Report
}

// New validates cfg against the catalog and starts an interview in the
// awaiting-question phase.
func New(cfg model.SessionConfig, cat *catalog.Catalog, scorer Scorer, opts ...Option) (*Controller, error) {
	role, ok := cat.Role(cfg.Role)
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %q", model.ErrInvalidConfig, cfg.Role)
	}
	if err := cfg.Validate(role); err != nil {
		return nil, err
	}
	if scorer == nil {
		scorer = feedback.NewScorer(nil)
	}

	c := &Controller{
		role:    role,
		catalog: question.NewCatalog(cat),
		scorer:  scorer,
		rec:     nopRecorder{},
		now:     time.Now,
		phase:   model.PhaseAwaitingQuestion,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.state.ID == "" {
		c.state.ID = uuid.NewString()
	}
	c.state.Config = cfg
	c.state.CurrentQuestionNumber = 1
	c.state.StartedAt = c.now()

	c.rec.InterviewStarted()
	slog.Info("interview started",
		"session_id", c.state.ID,
		"role", cfg.Role,
		"level", cfg.Level,
		"questions", cfg.MaxQuestions,
		"follow_ups", cfg.EnableFollowUp,
		"generative", c.generative != nil)
	return c, nil
}

// ID returns the session ID.
func (c *Controller) ID() string { return c.state.ID }

// Role returns the interview's role profile.
func (c *Controller) Role() model.RoleProfile { return c.role }

// Phase returns the current phase.
func (c *Controller) Phase() model.Phase { return c.phase }

// Pending returns the question waiting for an answer and whether it is a
// follow-up. ok is false when no question is outstanding.
func (c *Controller) Pending() (text string, followUp bool, ok bool) {
	switch c.phase {
	case model.PhaseQuestionDisplayed, model.PhaseAwaitingAnswer,
		model.PhaseFollowUpDisplayed, model.PhaseAwaitingFollowUpAnswer:
		return c.pending, c.state.FollowUpActive, true
	}
	return "", false, false
}

// State returns a deep copy of the session state.
func (c *Controller) State() model.SessionState {
	s := c.state
	s.Transcript = make([]model.Exchange, len(c.state.Transcript))
	for i, ex := range c.state.Transcript {
		s.Transcript[i] = cloneExchange(ex)
	}
	s.Scores = append([]int(nil), c.state.Scores...)
	return s
}

// Report returns the final report once the interview is completed.
func (c *Controller) Report() (model.Report, bool) {
	if c.report == nil {
		return model.Report{}, false
	}
	r := *c.report
	r.Transcript = make([]model.Exchange, len(c.report.Transcript))
	for i, ex := range c.report.Transcript {
		r.Transcript[i] = cloneExchange(ex)
	}
	return r, true
}

// NextQuestion produces the next main question. The transcript is not
// touched until the question is answered.
func (c *Controller) NextQuestion(ctx context.Context) (string, error) {
	if c.phase != model.PhaseAwaitingQuestion {
		return "", fmt.Errorf("%w: next question in phase %s", ErrInvalidTransition, c.phase)
	}

	req := question.Request{
		Role:       c.role,
		Level:      c.state.Config.Level,
		Number:     c.state.CurrentQuestionNumber,
		Total:      c.state.Config.MaxQuestions,
		Experience: c.state.Config.Experience,
		History:    c.state.RecentHistory(question.HistoryWindow),
	}
	q := c.ask(ctx, func(src question.Source) (string, error) { return src.Next(ctx, req) })

	c.pending = q
	c.phase = model.PhaseQuestionDisplayed
	c.rec.QuestionAsked(false)
	slog.Debug("question served",
		"session_id", c.state.ID,
		"number", c.state.CurrentQuestionNumber,
		"fallback", c.state.UsingFallbackQuestions)
	return q, nil
}

// MarkDisplayed records that the pending question has been shown.
func (c *Controller) MarkDisplayed() error {
	switch c.phase {
	case model.PhaseQuestionDisplayed:
		c.phase = model.PhaseAwaitingAnswer
	case model.PhaseFollowUpDisplayed:
		c.phase = model.PhaseAwaitingFollowUpAnswer
	default:
		return fmt.Errorf("%w: mark displayed in phase %s", ErrInvalidTransition, c.phase)
	}
	return nil
}

// SubmitAnswer records and scores an answer to the pending question and
// returns the scored exchange. Answers shorter than MinAnswerLength are
// rejected with a *ValidationError and leave the state unchanged.
func (c *Controller) SubmitAnswer(ctx context.Context, answer string) (model.Exchange, error) {
	if _, _, ok := c.Pending(); !ok {
		return model.Exchange{}, fmt.Errorf("%w: submit answer in phase %s", ErrInvalidTransition, c.phase)
	}
	answer = strings.TrimSpace(answer)
	if n := utf8.RuneCountInString(answer); n < MinAnswerLength {
		return model.Exchange{}, &ValidationError{Length: n, Min: MinAnswerLength}
	}

	c.state.Transcript = append(c.state.Transcript, model.Exchange{
		QuestionNumber: c.state.CurrentQuestionNumber,
		IsFollowUp:     c.state.FollowUpActive,
		Question:       c.pending,
		Answer:         answer,
	})
	c.phase = model.PhaseScoring
	ex := &c.state.Transcript[len(c.state.Transcript)-1]

	ev := c.evaluate(ctx, *ex)
	text, score := ev.Feedback, ev.Score
	ex.Feedback = &text
	ex.Score = &score
	ex.LowConfidence = !ev.Confident
	c.state.Scores = append(c.state.Scores, score)
	c.rec.AnswerScored(ev.Confident)
	scored := cloneExchange(*ex)

	slog.Info("answer scored",
		"session_id", c.state.ID,
		"number", scored.QuestionNumber,
		"follow_up", scored.IsFollowUp,
		"score", score,
		"origin", ev.Origin)

	// A follow-up answer ends the current follow-up before the rule is
	// checked again, so follow-ups chain up to MaxFollowUps per question.
	c.state.FollowUpActive = false
	if c.state.Config.EnableFollowUp && score < 9 && c.state.FollowUpCount < model.MaxFollowUps {
		c.startFollowUp(ctx, scored)
		return scored, nil
	}
	c.advance()
	return scored, nil
}

// Skip discards the pending question without recording an exchange and
// moves on to the next main question.
func (c *Controller) Skip() error {
	if _, _, ok := c.Pending(); !ok {
		return fmt.Errorf("%w: skip in phase %s", ErrInvalidTransition, c.phase)
	}
	slog.Info("question skipped",
		"session_id", c.state.ID,
		"number", c.state.CurrentQuestionNumber,
		"follow_up", c.state.FollowUpActive)
	c.advance()
	return nil
}

func (c *Controller) startFollowUp(ctx context.Context, answered model.Exchange) {
	c.state.FollowUpCount++
	req := question.FollowUpRequest{
		Role:     c.role,
		Level:    c.state.Config.Level,
		Question: answered.Question,
		Answer:   answered.Answer,
		Count:    c.state.FollowUpCount,
	}
	c.pending = c.ask(ctx, func(src question.Source) (string, error) { return src.FollowUp(ctx, req) })
	c.state.FollowUpActive = true
	c.phase = model.PhaseFollowUpDisplayed
	c.rec.QuestionAsked(true)
}

func (c *Controller) advance() {
	c.state.FollowUpActive = false
	c.state.FollowUpCount = 0
	c.state.CurrentQuestionNumber++
	c.pending = ""
	if c.state.CurrentQuestionNumber > c.state.Config.MaxQuestions {
		c.complete()
		return
	}
	c.phase = model.PhaseAwaitingQuestion
}

func (c *Controller) complete() {
	r := report.Build(c.state, c.now())
	c.report = &r
	c.phase = model.PhaseCompleted
	c.rec.InterviewCompleted()
	slog.Info("interview completed",
		"session_id", c.state.ID,
		"average", r.AverageScore,
		"grade", r.Grade,
		"fallback", r.FallbackMode)
}

// ask tries the generative source unless fallback mode is on, then retries
// once against the catalog.
func (c *Controller) ask(ctx context.Context, call func(question.Source) (string, error)) string {
	if c.generative != nil && !c.state.UsingFallbackQuestions {
		q, err := call(c.generative)
		c.rec.GenerationCall(err == nil)
		if err == nil {
			return q
		}
		c.enterFallback(err)
	}
	q, err := call(c.catalog)
	if err != nil || q == "" {
		return catalog.GenericQuestion
	}
	return q
}

func (c *Controller) evaluate(ctx context.Context, ex model.Exchange) feedback.Evaluation {
	req := feedback.EvalRequest{
		Question: ex.Question,
		Answer:   ex.Answer,
		Role:     c.role,
		Level:    c.state.Config.Level,
		Fallback: c.state.UsingFallbackQuestions,
	}
	ev, err := c.scorer.Evaluate(ctx, req)
	if err != nil {
		c.rec.GenerationCall(false)
		c.enterFallback(err)
		return feedback.Heuristic(req)
	}
	if ev.Origin == feedback.OriginGenerated {
		c.rec.GenerationCall(true)
	}
	return ev
}

// enterFallback switches the session to catalog content for good.
func (c *Controller) enterFallback(err error) {
	if c.state.UsingFallbackQuestions {
		return
	}
	c.state.UsingFallbackQuestions = true
	c.rec.FallbackEntered()
	slog.Warn("generation unavailable, using catalog content for the rest of the interview",
		"session_id", c.state.ID,
		"error", err)
}

func cloneExchange(ex model.Exchange) model.Exchange {
	if ex.Feedback != nil {
		f := *ex.Feedback
		ex.Feedback = &f
	}
	if ex.Score != nil {
		s := *ex.Score
		ex.Score = &s
	}
	return ex
}
