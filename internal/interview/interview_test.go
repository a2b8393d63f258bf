package interview

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/pavelanni/interviewsim/internal/catalog"
	"github.com/pavelanni/interviewsim/internal/feedback"
	"github.com/pavelanni/interviewsim/internal/metrics"
	"github.com/pavelanni/interviewsim/internal/model"
	"github.com/pavelanni/interviewsim/internal/question"
)

const testCatalog = `
levels: [Junior, Senior]
roles:
  - name: Software Developer
    description: Build applications
    focus_areas: [Programming, Debugging]
    questions:
      Junior: [Q1, Q2]
`

const goodAnswer = "I reproduce the bug first, then bisect the change that introduced it."

type fakeScorer struct {
	scores []int
	err    error
	reqs   []feedback.EvalRequest
}

func (f *fakeScorer) Evaluate(_ context.Context, req feedback.EvalRequest) (feedback.Evaluation, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return feedback.Evaluation{}, f.err
	}
	s := f.scores[min(len(f.reqs)-1, len(f.scores)-1)]
	return feedback.Evaluation{
		Feedback:  fmt.Sprintf("Score: %d/10", s),
		Score:     s,
		Confident: true,
		Origin:    feedback.OriginGenerated,
	}, nil
}

type fakeGenerator struct {
	out   string
	err   error
	calls int
}

func (f *fakeGenerator) Generate(_ context.Context, _ string, _ int, _ float32) (string, error) {
	f.calls++
	return f.out, f.err
}

func testCat(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Parse([]byte(testCatalog))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return cat
}

func newController(t *testing.T, cfg model.SessionConfig, scorer Scorer, opts ...Option) *Controller {
	t.Helper()
	if cfg.Role == "" {
		cfg.Role = "Software Developer"
	}
	if cfg.Level == "" {
		cfg.Level = "Junior"
	}
	if cfg.MaxQuestions == 0 {
		cfg.MaxQuestions = 3
	}
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	opts = append([]Option{WithClock(func() time.Time { return start })}, opts...)
	c, err := New(cfg, testCat(t), scorer, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

// answerTurn asks, displays and answers one question.
func answerTurn(t *testing.T, c *Controller) model.Exchange {
	t.Helper()
	if c.Phase() == model.PhaseAwaitingQuestion {
		if _, err := c.NextQuestion(context.Background()); err != nil {
			t.Fatalf("NextQuestion: %v", err)
		}
	}
	if err := c.MarkDisplayed(); err != nil {
		t.Fatalf("MarkDisplayed: %v", err)
	}
	ex, err := c.SubmitAnswer(context.Background(), goodAnswer)
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	return ex
}

func TestNewValidatesConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  model.SessionConfig
	}{
		{"unknown role", model.SessionConfig{Role: "Astronaut", Level: "Junior", MaxQuestions: 3}},
		{"unknown level", model.SessionConfig{Role: "Software Developer", Level: "Lead", MaxQuestions: 3}},
		{"too few questions", model.SessionConfig{Role: "Software Developer", Level: "Junior", MaxQuestions: 2}},
		{"too many questions", model.SessionConfig{Role: "Software Developer", Level: "Junior", MaxQuestions: 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, testCat(t), nil)
			if !errors.Is(err, model.ErrInvalidConfig) {
				t.Errorf("New error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestInitialState(t *testing.T) {
	c := newController(t, model.SessionConfig{}, nil, WithID("fixed"))
	s := c.State()
	if c.Phase() != model.PhaseAwaitingQuestion {
		t.Errorf("phase = %s", c.Phase())
	}
	if s.ID != "fixed" || s.CurrentQuestionNumber != 1 || len(s.Transcript) != 0 || s.UsingFallbackQuestions {
		t.Errorf("unexpected initial state %+v", s)
	}
	if _, _, ok := c.Pending(); ok {
		t.Error("no question should be pending")
	}
	if _, ok := c.Report(); ok {
		t.Error("report should not exist yet")
	}
}

func TestCatalogInterviewCompletes(t *testing.T) {
	c := newController(t, model.SessionConfig{}, &fakeScorer{scores: []int{7}})

	var questions []string
	for range 3 {
		q, err := c.NextQuestion(context.Background())
		if err != nil {
			t.Fatalf("NextQuestion: %v", err)
		}
		questions = append(questions, q)
		answerTurn(t, c)
	}

	want := []string{"Q1", "Q2", catalog.GenericQuestion}
	for i := range want {
		if questions[i] != want[i] {
			t.Errorf("question %d = %q, want %q", i+1, questions[i], want[i])
		}
	}
	if c.Phase() != model.PhaseCompleted {
		t.Fatalf("phase = %s, want completed", c.Phase())
	}
	r, ok := c.Report()
	if !ok {
		t.Fatal("report missing")
	}
	if len(r.Transcript) != 3 || r.AverageScore != 7 || r.Grade != "B" {
		t.Errorf("unexpected report %+v", r)
	}
	if _, err := c.NextQuestion(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("NextQuestion after completion: %v", err)
	}
}

func TestShortAnswerRejected(t *testing.T) {
	scorer := &fakeScorer{scores: []int{7}}
	c := newController(t, model.SessionConfig{}, scorer)
	if _, err := c.NextQuestion(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := c.MarkDisplayed(); err != nil {
		t.Fatal(err)
	}
	before := c.State()

	_, err := c.SubmitAnswer(context.Background(), "  fifteen chars!!  ")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	if verr.Length != 15 || verr.Min != MinAnswerLength {
		t.Errorf("ValidationError = %+v", verr)
	}

	after := c.State()
	if len(after.Transcript) != len(before.Transcript) || after.CurrentQuestionNumber != before.CurrentQuestionNumber {
		t.Error("state changed after rejected answer")
	}
	if c.Phase() != model.PhaseAwaitingAnswer {
		t.Errorf("phase = %s, want awaiting_answer", c.Phase())
	}
	if len(scorer.reqs) != 0 {
		t.Error("scorer should not be called for a rejected answer")
	}

	if _, err := c.SubmitAnswer(context.Background(), goodAnswer); err != nil {
		t.Errorf("retry with a valid answer: %v", err)
	}
}

func TestDegenerateGenerationSwitchesToCatalog(t *testing.T) {
	gen := &fakeGenerator{out: "Tell me more."}
	rec := metrics.NewMetrics()
	c := newController(t, model.SessionConfig{}, &fakeScorer{scores: []int{9}},
		WithGenerative(question.NewGenerative(gen)), WithRecorder(rec))

	q, err := c.NextQuestion(context.Background())
	if err != nil {
		t.Fatalf("NextQuestion: %v", err)
	}
	if q != "Q1" {
		t.Errorf("question = %q, want catalog Q1", q)
	}
	if !c.State().UsingFallbackQuestions {
		t.Fatal("fallback flag should be set")
	}

	gen.out = "How would you design a rate limiter for a public API?"
	answerTurn(t, c)
	q, _ = c.NextQuestion(context.Background())
	if q != "Q2" {
		t.Errorf("question after fallback = %q, want catalog Q2", q)
	}
	if gen.calls != 1 {
		t.Errorf("generator called %d times, want 1", gen.calls)
	}
	if !c.State().UsingFallbackQuestions {
		t.Error("fallback flag must stay set")
	}

	snap := rec.Snapshot()
	if snap.FallbacksEntered != 1 || snap.GenerationFailures != 1 {
		t.Errorf("metrics = %+v", snap)
	}
}

func TestGenerativeQuestionUsed(t *testing.T) {
	gen := &fakeGenerator{out: "How would you design a rate limiter for a public API?"}
	c := newController(t, model.SessionConfig{}, &fakeScorer{scores: []int{9}},
		WithGenerative(question.NewGenerative(gen)))

	q, err := c.NextQuestion(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if q != gen.out {
		t.Errorf("question = %q", q)
	}
	if c.State().UsingFallbackQuestions {
		t.Error("fallback flag should not be set")
	}
}

func TestFollowUpAfterModerateScore(t *testing.T) {
	c := newController(t, model.SessionConfig{EnableFollowUp: true}, &fakeScorer{scores: []int{6}})

	ex := answerTurn(t, c)
	if ex.IsFollowUp || ex.Score == nil || *ex.Score != 6 {
		t.Errorf("scored exchange = %+v", ex)
	}
	if c.Phase() != model.PhaseFollowUpDisplayed {
		t.Fatalf("phase = %s, want follow_up_displayed", c.Phase())
	}
	s := c.State()
	if !s.FollowUpActive || s.FollowUpCount != 1 || s.CurrentQuestionNumber != 1 {
		t.Errorf("state after first answer: active=%v count=%d number=%d",
			s.FollowUpActive, s.FollowUpCount, s.CurrentQuestionNumber)
	}
	text, followUp, ok := c.Pending()
	if !ok || !followUp || text == "" {
		t.Errorf("Pending = %q, %v, %v", text, followUp, ok)
	}

	ex = answerTurn(t, c)
	if !ex.IsFollowUp || ex.QuestionNumber != 1 {
		t.Errorf("first follow-up exchange = %+v", ex)
	}
	if s := c.State(); s.FollowUpCount != 2 || !s.FollowUpActive {
		t.Errorf("second follow-up not started: %+v", s)
	}

	answerTurn(t, c)
	s = c.State()
	if s.FollowUpActive || s.FollowUpCount != 0 || s.CurrentQuestionNumber != 2 {
		t.Errorf("turn did not advance after two follow-ups: %+v", s)
	}
	if c.Phase() != model.PhaseAwaitingQuestion {
		t.Errorf("phase = %s", c.Phase())
	}
	if len(s.Transcript) != 3 || len(s.Scores) != 3 {
		t.Errorf("transcript has %d entries, scores %d", len(s.Transcript), len(s.Scores))
	}
}

func TestNoFollowUpForHighScoreOrWhenDisabled(t *testing.T) {
	tests := []struct {
		name   string
		enable bool
		score  int
	}{
		{"high score", true, 9},
		{"disabled", false, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newController(t, model.SessionConfig{EnableFollowUp: tt.enable}, &fakeScorer{scores: []int{tt.score}})
			answerTurn(t, c)
			if c.Phase() != model.PhaseAwaitingQuestion || c.State().CurrentQuestionNumber != 2 {
				t.Errorf("phase = %s, number = %d", c.Phase(), c.State().CurrentQuestionNumber)
			}
		})
	}
}

func TestFollowUpsDoNotCountTowardMaxQuestions(t *testing.T) {
	c := newController(t, model.SessionConfig{EnableFollowUp: true, MaxQuestions: 3}, &fakeScorer{scores: []int{5}})

	turns := 0
	for c.Phase() != model.PhaseCompleted {
		answerTurn(t, c)
		if c.State().FollowUpCount > model.MaxFollowUps {
			t.Fatalf("follow-up count exceeded %d", model.MaxFollowUps)
		}
		turns++
		if turns > 20 {
			t.Fatal("interview did not complete")
		}
	}
	r, _ := c.Report()
	if len(r.Transcript) != 9 {
		t.Errorf("transcript = %d entries, want 9", len(r.Transcript))
	}
	main := 0
	for _, ex := range r.Transcript {
		if !ex.IsFollowUp {
			main++
		}
	}
	if main != 3 {
		t.Errorf("main questions = %d, want 3", main)
	}
}

func TestSkip(t *testing.T) {
	scorer := &fakeScorer{scores: []int{6}}
	c := newController(t, model.SessionConfig{EnableFollowUp: true}, scorer)

	if err := c.Skip(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Skip with nothing pending: %v", err)
	}

	if _, err := c.NextQuestion(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := c.Skip(); err != nil {
		t.Fatalf("Skip main question: %v", err)
	}
	s := c.State()
	if len(s.Transcript) != 0 || len(s.Scores) != 0 || s.CurrentQuestionNumber != 2 {
		t.Errorf("state after skip: %+v", s)
	}

	answerTurn(t, c)
	if c.Phase() != model.PhaseFollowUpDisplayed {
		t.Fatalf("phase = %s, want follow-up", c.Phase())
	}
	if err := c.MarkDisplayed(); err != nil {
		t.Fatal(err)
	}
	if err := c.Skip(); err != nil {
		t.Fatalf("Skip follow-up: %v", err)
	}
	s = c.State()
	if s.FollowUpActive || s.FollowUpCount != 0 || s.CurrentQuestionNumber != 3 {
		t.Errorf("state after follow-up skip: %+v", s)
	}
	if len(s.Transcript) != 1 {
		t.Errorf("transcript = %d, want 1", len(s.Transcript))
	}

	if _, err := c.NextQuestion(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := c.Skip(); err != nil {
		t.Fatal(err)
	}
	if c.Phase() != model.PhaseCompleted {
		t.Errorf("phase = %s, want completed", c.Phase())
	}
	r, _ := c.Report()
	if len(r.Transcript) != 1 {
		t.Errorf("report transcript = %d, want 1", len(r.Transcript))
	}
}

func TestScorerFailureUsesHeuristic(t *testing.T) {
	scorer := &fakeScorer{err: fmt.Errorf("%w: timeout", feedback.ErrGenerationFailed)}
	c := newController(t, model.SessionConfig{}, scorer)

	ex := answerTurn(t, c)
	if ex.Score == nil || *ex.Score != feedback.DefaultScore {
		t.Errorf("score = %v, want default", ex.Score)
	}
	if !ex.LowConfidence {
		t.Error("heuristic score should be low confidence")
	}
	if !c.State().UsingFallbackQuestions {
		t.Error("scorer failure should enter fallback mode")
	}

	scorer.err = nil
	scorer.scores = []int{8}
	answerTurn(t, c)
	if !scorer.reqs[len(scorer.reqs)-1].Fallback {
		t.Error("later evaluations should be requested in fallback mode")
	}
}

func TestInvalidTransitions(t *testing.T) {
	c := newController(t, model.SessionConfig{}, &fakeScorer{scores: []int{7}})

	if _, err := c.SubmitAnswer(context.Background(), goodAnswer); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("SubmitAnswer before question: %v", err)
	}
	if err := c.MarkDisplayed(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("MarkDisplayed before question: %v", err)
	}
	if _, err := c.NextQuestion(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := c.NextQuestion(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second NextQuestion: %v", err)
	}

	// Answering straight from the displayed phase is allowed.
	if _, err := c.SubmitAnswer(context.Background(), goodAnswer); err != nil {
		t.Errorf("SubmitAnswer from displayed phase: %v", err)
	}
}

func TestStateIsACopy(t *testing.T) {
	c := newController(t, model.SessionConfig{}, &fakeScorer{scores: []int{7}})
	answerTurn(t, c)

	s := c.State()
	*s.Transcript[0].Score = 0
	s.Transcript[0].Answer = "changed"
	again := c.State()
	if *again.Transcript[0].Score != 7 || again.Transcript[0].Answer != goodAnswer {
		t.Error("State leaked internal references")
	}
}
