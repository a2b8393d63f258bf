package tui

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	appI18n "github.com/pavelanni/interviewsim/internal/i18n"
	"github.com/pavelanni/interviewsim/internal/model"
)

// Action is what the candidate chooses to do with a displayed question.
type Action string

const (
	ActionType  Action = "type"
	ActionVoice Action = "voice"
	ActionRead  Action = "read"
	ActionSkip  Action = "skip"
)

// Prompter collects input from the candidate.
type Prompter interface {
	Setup(ctx context.Context, roles []model.RoleProfile) (model.SessionConfig, error)
	Action(ctx context.Context, voice bool) (Action, error)
	Answer(ctx context.Context) (string, error)
	Confirm(ctx context.Context, title string) (bool, error)
}

// HuhPrompter asks through huh forms on the terminal.
type HuhPrompter struct{}

// Setup displays the interview settings form.
func (HuhPrompter) Setup(ctx context.Context, roles []model.RoleProfile) (model.SessionConfig, error) {
	if len(roles) == 0 {
		return model.SessionConfig{}, fmt.Errorf("no roles in catalog")
	}
	cfg := model.SessionConfig{
		Role:           roles[0].Name,
		MaxQuestions:   5,
		EnableFollowUp: true,
	}

	roleOpts := make([]huh.Option[string], len(roles))
	for i, r := range roles {
		roleOpts[i] = huh.NewOption(r.DisplayLabel(), r.Name)
	}
	countOpts := make([]huh.Option[int], 0, model.MaxQuestions-model.MinQuestions+1)
	for n := model.MinQuestions; n <= model.MaxQuestions; n++ {
		countOpts = append(countOpts, huh.NewOption(strconv.Itoa(n), n))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(appI18n.T(ctx, "SelectRole")).
				Options(roleOpts...).
				Value(&cfg.Role),
			huh.NewSelect[string]().
				Title(appI18n.T(ctx, "SelectLevel")).
				OptionsFunc(func() []huh.Option[string] {
					return huh.NewOptions(levelsFor(roles, cfg.Role)...)
				}, &cfg.Role).
				Value(&cfg.Level),
		),
		huh.NewGroup(
			huh.NewSelect[int]().
				Title(appI18n.T(ctx, "QuestionCount")).
				Options(countOpts...).
				Value(&cfg.MaxQuestions),
			huh.NewConfirm().
				Title(appI18n.T(ctx, "EnableFollowUps")).
				Value(&cfg.EnableFollowUp),
			huh.NewInput().
				Title(appI18n.T(ctx, "CandidateName")).
				Value(&cfg.CandidateName),
			huh.NewInput().
				Title(appI18n.T(ctx, "Experience")).
				Value(&cfg.Experience),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		return model.SessionConfig{}, fmt.Errorf("setup form: %w", err)
	}
	cfg.CandidateName = strings.TrimSpace(cfg.CandidateName)
	cfg.Experience = strings.TrimSpace(cfg.Experience)
	return cfg, nil
}

// Action asks what to do with the displayed question. The voice option is
// only offered when speech capture is configured.
func (HuhPrompter) Action(ctx context.Context, voice bool) (Action, error) {
	opts := []huh.Option[Action]{huh.NewOption(appI18n.T(ctx, "ActionType"), ActionType)}
	if voice {
		opts = append(opts, huh.NewOption(appI18n.T(ctx, "ActionVoice"), ActionVoice))
	}
	opts = append(opts,
		huh.NewOption(appI18n.T(ctx, "ActionRead"), ActionRead),
		huh.NewOption(appI18n.T(ctx, "ActionSkip"), ActionSkip),
	)

	var a Action
	sel := huh.NewSelect[Action]().
		Title(appI18n.T(ctx, "ChooseAction")).
		Options(opts...).
		Value(&a)
	if err := huh.NewForm(huh.NewGroup(sel)).RunWithContext(ctx); err != nil {
		return "", fmt.Errorf("action prompt: %w", err)
	}
	return a, nil
}

// Answer reads a typed answer.
func (HuhPrompter) Answer(ctx context.Context) (string, error) {
	var text string
	input := huh.NewText().
		Title(appI18n.T(ctx, "YourAnswer")).
		Lines(6).
		Value(&text)
	if err := huh.NewForm(huh.NewGroup(input)).RunWithContext(ctx); err != nil {
		return "", fmt.Errorf("answer prompt: %w", err)
	}
	return text, nil
}

// Confirm displays a yes/no prompt.
func (HuhPrompter) Confirm(ctx context.Context, title string) (bool, error) {
	var ok bool
	confirm := huh.NewConfirm().
		Title(title).
		Value(&ok)
	if err := huh.NewForm(huh.NewGroup(confirm)).RunWithContext(ctx); err != nil {
		return false, fmt.Errorf("confirm prompt: %w", err)
	}
	return ok, nil
}

func levelsFor(roles []model.RoleProfile, name string) []string {
	for _, r := range roles {
		if r.Name == name {
			return r.Levels
		}
	}
	return nil
}

// IsInteractive returns true if stdin is a terminal (not piped)
func IsInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
