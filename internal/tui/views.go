package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	appI18n "github.com/pavelanni/interviewsim/internal/i18n"
	"github.com/pavelanni/interviewsim/internal/model"
)

// Styles contains lipgloss styles for the practice screens
type Styles struct {
	Title    lipgloss.Style
	Question lipgloss.Style
	Muted    lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Score    lipgloss.Style
	Border   lipgloss.Style
}

// DefaultStyles returns the default lipgloss styles
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")), // Purple
		Question: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")), // Cyan
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")), // Gray
		Warning: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("226")), // Yellow
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")), // Red
		Score: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("46")), // Green
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1),
	}
}

// renderQuestion renders the pending question with its heading.
func (s Styles) renderQuestion(ctx context.Context, text string, followUp bool, number, total int) string {
	var heading string
	if followUp {
		heading = appI18n.Td(ctx, "FollowUpN", map[string]any{"Number": number})
	} else {
		heading = appI18n.Td(ctx, "QuestionN", map[string]any{"Number": number, "Total": total})
	}
	return s.Title.Render(heading) + "\n" + s.Question.Render(text)
}

// renderFeedback renders a scored exchange.
func (s Styles) renderFeedback(ctx context.Context, ex model.Exchange) string {
	var b strings.Builder
	b.WriteString(s.Title.Render(appI18n.T(ctx, "Feedback")))
	b.WriteString("\n")
	if ex.Feedback != nil {
		// Heuristic feedback joins its points with pipes.
		for _, line := range strings.Split(*ex.Feedback, " | ") {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	if ex.Score != nil {
		b.WriteString(s.Score.Render(appI18n.Td(ctx, "ScoreN", map[string]any{"Score": *ex.Score})))
	}
	if ex.LowConfidence {
		b.WriteString("\n")
		b.WriteString(s.Muted.Render(appI18n.T(ctx, "LowConfidence")))
	}
	return s.Border.Render(strings.TrimRight(b.String(), "\n"))
}

// renderSummary renders the end-of-interview summary and the saved files.
func (s Styles) renderSummary(ctx context.Context, rep model.Report, paths []string) string {
	var b strings.Builder
	b.WriteString(s.Title.Render(appI18n.T(ctx, "Summary")))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s | %s | %s\n", rep.Candidate, rep.Role, rep.Level)
	b.WriteString(s.Score.Render(appI18n.Td(ctx, "OverallScore", map[string]any{
		"Score": fmt.Sprintf("%.1f", rep.AverageScore),
		"Grade": rep.Grade,
	})))
	b.WriteString("\n")
	if rep.FallbackMode {
		b.WriteString(s.Warning.Render(appI18n.T(ctx, "FallbackNotice")))
		b.WriteString("\n")
	}
	for _, p := range paths {
		b.WriteString(s.Muted.Render(appI18n.Td(ctx, "SavedTo", map[string]any{"Path": p})))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderTips renders the interview tips footer.
func (s Styles) renderTips(ctx context.Context) string {
	var b strings.Builder
	b.WriteString(s.Title.Render(appI18n.T(ctx, "TipsTitle")))
	for _, id := range []string{"Tip1", "Tip2", "Tip3", "Tip4"} {
		b.WriteString("\n  • ")
		b.WriteString(appI18n.T(ctx, id))
	}
	return s.Muted.Render(b.String())
}
