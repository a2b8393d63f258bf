package tui

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/interviewsim/internal/catalog"
	appI18n "github.com/pavelanni/interviewsim/internal/i18n"
	"github.com/pavelanni/interviewsim/internal/model"
	"github.com/pavelanni/interviewsim/internal/voice"
)

const longAnswer = "In one project I found a slow query and fixed it by adding an index to the table."

func TestMain(m *testing.M) {
	if err := appI18n.Init("en"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type scriptedPrompter struct {
	cfg      model.SessionConfig
	actions  []Action
	answers  []string
	restarts []bool
	setups   int
}

func (p *scriptedPrompter) Setup(context.Context, []model.RoleProfile) (model.SessionConfig, error) {
	p.setups++
	return p.cfg, nil
}

func (p *scriptedPrompter) Action(context.Context, bool) (Action, error) {
	if len(p.actions) == 0 {
		return ActionType, nil
	}
	a := p.actions[0]
	p.actions = p.actions[1:]
	return a, nil
}

func (p *scriptedPrompter) Answer(context.Context) (string, error) {
	if len(p.answers) == 0 {
		return longAnswer, nil
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, nil
}

func (p *scriptedPrompter) Confirm(context.Context, string) (bool, error) {
	if len(p.restarts) == 0 {
		return false, nil
	}
	r := p.restarts[0]
	p.restarts = p.restarts[1:]
	return r, nil
}

type recordingSpeaker struct{ spoken []string }

func (s *recordingSpeaker) Speak(text string) { s.spoken = append(s.spoken, text) }

type scriptedListener struct{ results []string }

func (l *scriptedListener) Listen(context.Context, time.Duration, time.Duration) string {
	r := l.results[0]
	l.results = l.results[1:]
	return r
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	return cat
}

func testConfig(followUps bool) model.SessionConfig {
	return model.SessionConfig{
		Role:           "Software Development",
		Level:          "Junior",
		MaxQuestions:   3,
		EnableFollowUp: followUps,
		CandidateName:  "Sam",
	}
}

func TestInterviewActions(t *testing.T) {
	p := &scriptedPrompter{
		actions: []Action{
			ActionRead, ActionSkip, // question 1
			ActionType, ActionType, // question 2: too short, then valid
			ActionVoice, ActionVoice, // question 3: silence, then speech
		},
		answers: []string{"short", longAnswer},
	}
	speaker := &recordingSpeaker{}
	listener := &scriptedListener{results: []string{voice.NoSpeech, longAnswer}}
	var out bytes.Buffer

	r := New(p, Options{
		Catalog:  testCatalog(t),
		Speaker:  speaker,
		Listener: listener,
		Out:      &out,
	})
	rep, err := r.Interview(context.Background(), testConfig(false))
	require.NoError(t, err)

	require.Len(t, speaker.spoken, 1)
	assert.NotEmpty(t, speaker.spoken[0])

	require.Len(t, rep.Transcript, 2)
	assert.Equal(t, 2, rep.Transcript[0].QuestionNumber)
	assert.Equal(t, 3, rep.Transcript[1].QuestionNumber)
	assert.Equal(t, "Sam", rep.Candidate)

	text := out.String()
	assert.Contains(t, text, "Question 1 of 3")
	assert.Contains(t, text, "too short: 5 characters")
	assert.Contains(t, text, voice.NoSpeech)
	assert.Contains(t, text, "You said: "+longAnswer)
	assert.Contains(t, text, "Score:")
}

func TestInterviewFollowUps(t *testing.T) {
	p := &scriptedPrompter{}
	var out bytes.Buffer
	r := New(p, Options{Catalog: testCatalog(t), Out: &out})

	rep, err := r.Interview(context.Background(), testConfig(true))
	require.NoError(t, err)

	// Catalog feedback never reaches 9, so each question gets two follow-ups.
	require.Len(t, rep.Transcript, 9)
	followUps := 0
	for _, ex := range rep.Transcript {
		if ex.IsFollowUp {
			followUps++
		}
	}
	assert.Equal(t, 6, followUps)
	assert.Contains(t, out.String(), "Follow-up to question 1")
}

func TestRunWritesReports(t *testing.T) {
	dir := t.TempDir()
	p := &scriptedPrompter{cfg: testConfig(false), restarts: []bool{true, false}}
	var saved []model.Report
	var out bytes.Buffer

	r := New(p, Options{
		Catalog: testCatalog(t),
		OutDir:  dir,
		Out:     &out,
		Saved:   func(rep model.Report) { saved = append(saved, rep) },
	})
	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, 2, p.setups)
	assert.Len(t, saved, 2)

	files, err := filepath.Glob(filepath.Join(dir, "interview_*"))
	require.NoError(t, err)
	assert.NotEmpty(t, files)

	text := out.String()
	assert.Contains(t, text, "Interview Summary")
	assert.Contains(t, text, "Interview tips")
	assert.Contains(t, text, "Saved "+dir)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(text), "Good luck with your interviews!"))
}

func TestRenderFeedback(t *testing.T) {
	ctx := context.Background()
	fb := "Try to provide more detailed answers. | Consider including specific examples."
	score := 5
	got := DefaultStyles().renderFeedback(ctx, model.Exchange{
		Feedback:      &fb,
		Score:         &score,
		LowConfidence: true,
	})
	assert.Contains(t, got, "Try to provide more detailed answers.")
	assert.Contains(t, got, "Consider including specific examples.")
	assert.NotContains(t, got, " | ")
	assert.Contains(t, got, "Score: 5/10")
	assert.Contains(t, got, "Scored without a generated evaluation.")
}

func TestRenderSummary(t *testing.T) {
	ctx := context.Background()
	rep := model.Report{
		Candidate:    "Sam",
		Role:         "Data Science",
		Level:        "Senior",
		AverageScore: 7.3,
		Grade:        "B",
		FallbackMode: true,
	}
	got := DefaultStyles().renderSummary(ctx, rep, []string{"/tmp/a.json"})
	assert.Contains(t, got, "Sam | Data Science | Senior")
	assert.Contains(t, got, "Overall score: 7.3/10 (grade B)")
	assert.Contains(t, got, "built-in question bank")
	assert.Contains(t, got, "Saved /tmp/a.json")
}

func TestRenderTips(t *testing.T) {
	got := DefaultStyles().renderTips(context.Background())
	for _, id := range []string{"Tip1", "Tip2", "Tip3", "Tip4"} {
		assert.Contains(t, got, appI18n.T(context.Background(), id))
	}
}

func TestLevelsFor(t *testing.T) {
	roles := testCatalog(t).Roles()
	assert.Equal(t, roles[0].Levels, levelsFor(roles, roles[0].Name))
	assert.Nil(t, levelsFor(roles, "Astronaut"))
}
