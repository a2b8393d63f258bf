package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/interviewsim/internal/model"
)

func scored(n int, followUp bool, q string, score int) model.Exchange {
	fb := "feedback for " + q
	return model.Exchange{
		QuestionNumber: n,
		IsFollowUp:     followUp,
		Question:       q,
		Answer:         "answer to " + q,
		Feedback:       &fb,
		Score:          &score,
	}
}

func testState() model.SessionState {
	started := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	low := scored(2, false, "Q2", 6)
	low.LowConfidence = true
	return model.SessionState{
		ID: "sess-1",
		Config: model.SessionConfig{
			Role:          "Software Development",
			Level:         "Junior",
			MaxQuestions:  3,
			CandidateName: "Ada",
			Experience:    "2 years",
		},
		Transcript: []model.Exchange{
			scored(1, false, "Q1", 9),
			low,
			scored(2, true, "F1", 7),
			{QuestionNumber: 3, Question: "Q3", Answer: "unscored"},
		},
		CurrentQuestionNumber: 4,
		StartedAt:             started,
	}
}

func TestBuild(t *testing.T) {
	state := testState()
	r := Build(state, state.StartedAt.Add(5*time.Minute+30*time.Second))

	assert.Equal(t, "sess-1", r.SessionID)
	assert.Equal(t, "Ada", r.Candidate)
	assert.InDelta(t, 22.0/3.0, r.AverageScore, 1e-9)
	assert.Equal(t, "B", r.Grade)
	assert.Equal(t, int64(330), r.DurationSeconds)
	assert.Equal(t, 1, r.LowConfidenceScores)
	assert.Len(t, r.Transcript, 4)

	state.Transcript[0].Question = "mutated"
	assert.Equal(t, "Q1", r.Transcript[0].Question, "report must not share the transcript slice")
}

func TestBuildEmpty(t *testing.T) {
	now := time.Now()
	r := Build(model.SessionState{StartedAt: now}, now)
	assert.Zero(t, r.AverageScore)
	assert.Equal(t, "Needs Practice", r.Grade)
	assert.Equal(t, DefaultCandidate, r.Candidate)
}

func TestGrade(t *testing.T) {
	tests := []struct {
		avg  float64
		want string
	}{
		{10, "A"},
		{8.5, "A"},
		{8.49, "B"},
		{7, "B"},
		{6.99, "C"},
		{5.5, "C"},
		{5.49, "Needs Practice"},
		{0, "Needs Practice"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Grade(tt.avg), "Grade(%v)", tt.avg)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	state := testState()
	r := Build(state, state.StartedAt.Add(time.Minute))

	data, err := JSON(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"overallScore"`)
	assert.Contains(t, string(data), `"questionsAnswered": 4`)

	back, err := ParseJSON(data)
	require.NoError(t, err)
	assert.Equal(t, r.AverageScore, back.OverallScore)
	require.Len(t, back.Conversation, len(r.Transcript))
	for i, ex := range r.Transcript {
		if ex.Score == nil {
			assert.Nil(t, back.Conversation[i].Score)
			continue
		}
		require.NotNil(t, back.Conversation[i].Score)
		assert.Equal(t, *ex.Score, *back.Conversation[i].Score)
		assert.Equal(t, ex.IsFollowUp, back.Conversation[i].IsFollowUp)
	}

	_, err = ParseJSON([]byte("{not json"))
	assert.Error(t, err)
}

func TestText(t *testing.T) {
	state := testState()
	state.UsingFallbackQuestions = true
	out := Text(Build(state, state.StartedAt.Add(time.Minute)))

	assert.Contains(t, out, "Candidate: Ada")
	assert.Contains(t, out, "Overall score: 7.3/10")
	assert.Contains(t, out, "Question 1: Q1")
	assert.Contains(t, out, "Follow-up to question 2: F1")
	assert.Contains(t, out, "Score: 9/10")
	assert.Contains(t, out, "catalog questions")
}

func TestFilename(t *testing.T) {
	at := time.Date(2026, 1, 2, 15, 4, 0, 0, time.UTC)
	assert.Equal(t, "interview_report_software_development_20260102_1504.json",
		Filename(FormatJSON, "Software Development", at))
	assert.Equal(t, "interview_summary_ui_ux_design_20260102_1504.txt",
		Filename(FormatText, "UI/UX Design", at))
}

func TestWriteFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	state := testState()
	r := Build(state, state.StartedAt.Add(time.Minute))

	paths, err := WriteFiles(dir, r)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	back, err := ParseJSON(data)
	require.NoError(t, err)
	assert.Equal(t, "Ada", back.Candidate)

	assert.FileExists(t, paths[1])
}
