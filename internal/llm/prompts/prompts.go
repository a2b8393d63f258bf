package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"

	"github.com/pavelanni/interviewsim/internal/model"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const maxAnswerRunes = 4000

var candidateAnswerRegex = regexp.MustCompile(`(?i)</?\s*candidate-answer\b[^>]*>`)

var (
	loadOnce  sync.Once
	loadErr   error
	templates *template.Template
)

// QuestionData feeds the main-question prompt.
type QuestionData struct {
	Role        string
	Description string
	Level       string
	Experience  string
	Number      int
	Total       int
	FocusAreas  []string
	History     []model.Exchange
}

// FollowUpData feeds the follow-up prompt.
type FollowUpData struct {
	Role       string
	Level      string
	Question   string
	Answer     string
	FocusAreas []string
}

// FeedbackData feeds the feedback prompt.
type FeedbackData struct {
	Role       string
	Level      string
	Question   string
	Answer     string
	FocusAreas []string
}

func load() error {
	loadOnce.Do(func() {
		templates, loadErr = template.New("prompts").
			Funcs(template.FuncMap{"join": strings.Join}).
			ParseFS(templateFS, "templates/*.tmpl")
		if loadErr != nil {
			loadErr = fmt.Errorf("parse prompt templates: %w", loadErr)
		}
	})
	return loadErr
}

// Question renders the prompt that asks for main question d.Number.
func Question(d QuestionData) (string, error) {
	history := make([]model.Exchange, len(d.History))
	for i, ex := range d.History {
		ex.Answer = SanitizeAnswer(ex.Answer)
		history[i] = ex
	}
	d.History = history
	return render("question.tmpl", d)
}

// FollowUp renders the prompt that asks for a follow-up on one answer.
func FollowUp(d FollowUpData) (string, error) {
	d.Answer = SanitizeAnswer(d.Answer)
	return render("followup.tmpl", d)
}

// Feedback renders the prompt that asks for feedback and a score.
func Feedback(d FeedbackData) (string, error) {
	d.Answer = SanitizeAnswer(d.Answer)
	return render("feedback.tmpl", d)
}

func render(name string, data any) (string, error) {
	if err := load(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("execute %s: %w", name, err)
	}
	return buf.String(), nil
}

// SanitizeAnswer strips delimiter tags a candidate could use to break out of
// the answer block and truncates very long answers.
func SanitizeAnswer(answer string) string {
	answer = candidateAnswerRegex.ReplaceAllString(answer, "")
	answer = strings.TrimSpace(answer)

	if answer == "" {
		return "[No answer provided]"
	}

	if utf8.RuneCountInString(answer) > maxAnswerRunes {
		runes := []rune(answer)
		answer = string(runes[:maxAnswerRunes]) + "\n\n[Answer truncated due to length]"
	}
	return answer
}
