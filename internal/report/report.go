// Package report reduces a finished interview to a summary and renders it
// as JSON or plain text.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pavelanni/interviewsim/internal/model"
)

// DefaultCandidate names candidates who did not give a name.
const DefaultCandidate = "Candidate"

// Format is an export format.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "txt"
)

// Build summarizes state as of now.
func Build(state model.SessionState, now time.Time) model.Report {
	transcript := make([]model.Exchange, len(state.Transcript))
	copy(transcript, state.Transcript)

	var sum, n, lowConfidence int
	for _, ex := range transcript {
		if ex.Score == nil {
			continue
		}
		sum += *ex.Score
		n++
		if ex.LowConfidence {
			lowConfidence++
		}
	}
	var avg float64
	if n > 0 {
		avg = float64(sum) / float64(n)
	}

	candidate := strings.TrimSpace(state.Config.CandidateName)
	if candidate == "" {
		candidate = DefaultCandidate
	}
	return model.Report{
		SessionID:           state.ID,
		Candidate:           candidate,
		Role:                state.Config.Role,
		Level:               state.Config.Level,
		Experience:          state.Config.Experience,
		StartedAt:           state.StartedAt,
		CompletedAt:         now,
		AverageScore:        avg,
		Grade:               Grade(avg),
		DurationSeconds:     int64(now.Sub(state.StartedAt).Seconds()),
		FallbackMode:        state.UsingFallbackQuestions,
		LowConfidenceScores: lowConfidence,
		Transcript:          transcript,
	}
}

// Grade buckets an average score. Lower bounds are inclusive.
func Grade(avg float64) string {
	switch {
	case avg >= 8.5:
		return "A"
	case avg >= 7:
		return "B"
	case avg >= 5.5:
		return "C"
	default:
		return "Needs Practice"
	}
}

// ToExport converts a report to its structured export document.
func ToExport(r model.Report) model.ReportExport {
	conv := make([]model.ConversationMsg, 0, len(r.Transcript))
	for _, ex := range r.Transcript {
		msg := model.ConversationMsg{
			Question:       ex.Question,
			Answer:         ex.Answer,
			QuestionNumber: ex.QuestionNumber,
			IsFollowUp:     ex.IsFollowUp,
		}
		if ex.Feedback != nil {
			msg.Feedback = *ex.Feedback
		}
		if ex.Score != nil {
			s := *ex.Score
			msg.Score = &s
		}
		conv = append(conv, msg)
	}
	return model.ReportExport{
		Candidate:         r.Candidate,
		Role:              r.Role,
		Level:             r.Level,
		Date:              r.CompletedAt.Format(time.RFC3339),
		OverallScore:      r.AverageScore,
		Grade:             r.Grade,
		QuestionsAnswered: len(r.Transcript),
		DurationSeconds:   r.DurationSeconds,
		FallbackMode:      r.FallbackMode,
		Conversation:      conv,
	}
}

// JSON renders the structured export.
func JSON(r model.Report) ([]byte, error) {
	data, err := json.MarshalIndent(ToExport(r), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return data, nil
}

// ParseJSON reads a document produced by JSON.
func ParseJSON(data []byte) (model.ReportExport, error) {
	var e model.ReportExport
	if err := json.Unmarshal(data, &e); err != nil {
		return model.ReportExport{}, fmt.Errorf("parse report: %w", err)
	}
	return e, nil
}

// Text renders a human-readable summary.
func Text(r model.Report) string {
	var b strings.Builder
	b.WriteString("INTERVIEW SUMMARY\n")
	b.WriteString(strings.Repeat("=", 40) + "\n")
	fmt.Fprintf(&b, "Candidate: %s\n", r.Candidate)
	fmt.Fprintf(&b, "Role: %s\n", r.Role)
	fmt.Fprintf(&b, "Level: %s\n", r.Level)
	if r.Experience != "" {
		fmt.Fprintf(&b, "Experience: %s\n", r.Experience)
	}
	fmt.Fprintf(&b, "Date: %s\n", r.CompletedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Duration: %s\n", (time.Duration(r.DurationSeconds) * time.Second).String())
	fmt.Fprintf(&b, "Overall score: %.1f/10\n", r.AverageScore)
	fmt.Fprintf(&b, "Grade: %s\n", r.Grade)
	fmt.Fprintf(&b, "Questions answered: %d\n", len(r.Transcript))
	if r.FallbackMode {
		b.WriteString("Note: generated content was unavailable; catalog questions and templated feedback were used.\n")
	}

	for _, ex := range r.Transcript {
		b.WriteString("\n" + strings.Repeat("-", 40) + "\n")
		if ex.IsFollowUp {
			fmt.Fprintf(&b, "Follow-up to question %d: %s\n", ex.QuestionNumber, ex.Question)
		} else {
			fmt.Fprintf(&b, "Question %d: %s\n", ex.QuestionNumber, ex.Question)
		}
		fmt.Fprintf(&b, "Answer: %s\n", ex.Answer)
		if ex.Feedback != nil {
			fmt.Fprintf(&b, "Feedback: %s\n", *ex.Feedback)
		}
		if ex.Score != nil {
			fmt.Fprintf(&b, "Score: %d/10\n", *ex.Score)
		}
	}
	return b.String()
}

// Filename returns interview_<report|summary>_<role>_<YYYYMMDD_HHMM>.<ext>,
// with the role lowercased and spaces replaced by underscores.
func Filename(f Format, role string, t time.Time) string {
	kind := "report"
	if f == FormatText {
		kind = "summary"
	}
	slug := strings.ToLower(strings.Join(strings.Fields(role), "_"))
	slug = strings.ReplaceAll(slug, "/", "_")
	return fmt.Sprintf("interview_%s_%s_%s.%s", kind, slug, t.Format("20060102_1504"), f)
}

// WriteFiles writes the JSON report and the text summary into dir and
// returns their paths.
func WriteFiles(dir string, r model.Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	data, err := JSON(r)
	if err != nil {
		return nil, err
	}
	files := []struct {
		format Format
		data   []byte
	}{
		{FormatJSON, data},
		{FormatText, []byte(Text(r))},
	}
	var paths []string
	for _, f := range files {
		p := filepath.Join(dir, Filename(f.format, r.Role, r.CompletedAt))
		if err := os.WriteFile(p, f.data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", p, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}
