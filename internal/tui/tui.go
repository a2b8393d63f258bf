// Package tui runs an interview practice session in the terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/pavelanni/interviewsim/internal/catalog"
	"github.com/pavelanni/interviewsim/internal/feedback"
	appI18n "github.com/pavelanni/interviewsim/internal/i18n"
	"github.com/pavelanni/interviewsim/internal/interview"
	"github.com/pavelanni/interviewsim/internal/llm"
	"github.com/pavelanni/interviewsim/internal/model"
	"github.com/pavelanni/interviewsim/internal/question"
	"github.com/pavelanni/interviewsim/internal/report"
	"github.com/pavelanni/interviewsim/internal/voice"
)

// Options configures a Runner. Generator, Recorder, Speaker and Listener
// are optional.
type Options struct {
	Catalog   *catalog.Catalog
	Generator llm.Generator
	Recorder  interview.Recorder
	Speaker   voice.Speaker
	Listener  voice.Listener
	// OutDir receives the report files; empty disables writing them.
	OutDir string
	Out    io.Writer
	// Saved is called with each completed report.
	Saved func(model.Report)
}

// Runner drives practice interviews through a Prompter.
type Runner struct {
	prompt Prompter
	opts   Options
	styles Styles
}

// New creates a Runner.
func New(p Prompter, opts Options) *Runner {
	if opts.Speaker == nil {
		opts.Speaker = voice.NopSpeaker{}
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	return &Runner{prompt: p, opts: opts, styles: DefaultStyles()}
}

// Run repeats interviews until the candidate declines to restart.
func (r *Runner) Run(ctx context.Context) error {
	r.println(r.styles.Title.Render(appI18n.T(ctx, "AppTitle")))
	for {
		cfg, err := r.prompt.Setup(ctx, r.opts.Catalog.Roles())
		if err != nil {
			return err
		}
		rep, err := r.Interview(ctx, cfg)
		if err != nil {
			return err
		}
		r.finish(ctx, rep)

		again, err := r.prompt.Confirm(ctx, appI18n.T(ctx, "Restart"))
		if err != nil {
			return err
		}
		if !again {
			r.println(appI18n.T(ctx, "Goodbye"))
			return nil
		}
	}
}

// Interview runs one interview to completion and returns its report.
func (r *Runner) Interview(ctx context.Context, cfg model.SessionConfig) (model.Report, error) {
	ctrl, err := r.newController(cfg)
	if err != nil {
		return model.Report{}, err
	}

	noticed := false
	for ctrl.Phase() != model.PhaseCompleted {
		// Follow-ups are produced by the scoring step and are already pending.
		if ctrl.Phase() == model.PhaseAwaitingQuestion {
			if _, err := ctrl.NextQuestion(ctx); err != nil {
				return model.Report{}, err
			}
		}
		text, followUp, _ := ctrl.Pending()
		st := ctrl.State()
		if st.UsingFallbackQuestions && !noticed {
			r.println(r.styles.Warning.Render(appI18n.T(ctx, "FallbackNotice")))
			noticed = true
		}
		r.println(r.styles.renderQuestion(ctx, text, followUp, st.CurrentQuestionNumber, st.Config.MaxQuestions))
		if err := ctrl.MarkDisplayed(); err != nil {
			return model.Report{}, err
		}

		if err := r.respond(ctx, ctrl, text); err != nil {
			return model.Report{}, err
		}
		if ctrl.Phase() == model.PhaseAwaitingQuestion {
			r.println(r.styles.Muted.Render(
				appI18n.Tp(ctx, "QuestionsRemaining", cfg.MaxQuestions-ctrl.State().CurrentQuestionNumber+1)))
		}
	}

	rep, ok := ctrl.Report()
	if !ok {
		return model.Report{}, fmt.Errorf("interview %s finished without a report", ctrl.ID())
	}
	return rep, nil
}

// respond loops on the action prompt until the pending question has been
// answered or skipped.
func (r *Runner) respond(ctx context.Context, ctrl *interview.Controller, text string) error {
	for {
		action, err := r.prompt.Action(ctx, r.opts.Listener != nil)
		if err != nil {
			return err
		}

		var answer string
		switch action {
		case ActionSkip:
			return ctrl.Skip()
		case ActionRead:
			r.opts.Speaker.Speak(text)
			continue
		case ActionVoice:
			if r.opts.Listener == nil {
				continue
			}
			r.println(r.styles.Muted.Render(appI18n.T(ctx, "Listening")))
			answer = r.opts.Listener.Listen(ctx, voice.DefaultWait, voice.DefaultPhrase)
			if answer == voice.NoSpeech || answer == voice.Unrecognized {
				r.println(r.styles.Error.Render(answer))
				continue
			}
			r.println(appI18n.Td(ctx, "YouSaid", map[string]any{"Text": answer}))
		default:
			answer, err = r.prompt.Answer(ctx)
			if err != nil {
				return err
			}
		}

		ex, err := ctrl.SubmitAnswer(ctx, answer)
		var verr *interview.ValidationError
		if errors.As(err, &verr) {
			r.println(r.styles.Error.Render(appI18n.Td(ctx, "ErrAnswerTooShort",
				map[string]any{"Length": verr.Length, "Min": verr.Min})))
			continue
		}
		if err != nil {
			return err
		}
		r.println(r.styles.renderFeedback(ctx, ex))
		return nil
	}
}

func (r *Runner) finish(ctx context.Context, rep model.Report) {
	var paths []string
	if r.opts.OutDir != "" {
		var err error
		paths, err = report.WriteFiles(r.opts.OutDir, rep)
		if err != nil {
			slog.Error("failed to write report", "dir", r.opts.OutDir, "error", err)
		}
	}
	if r.opts.Saved != nil {
		r.opts.Saved(rep)
	}
	r.println(r.styles.renderSummary(ctx, rep, paths))
	r.println(r.styles.renderTips(ctx))
}

func (r *Runner) newController(cfg model.SessionConfig) (*interview.Controller, error) {
	opts := []interview.Option{interview.WithRecorder(r.opts.Recorder)}
	if r.opts.Generator != nil {
		opts = append(opts, interview.WithGenerative(question.NewGenerative(r.opts.Generator)))
	}
	return interview.New(cfg, r.opts.Catalog, feedback.NewScorer(r.opts.Generator), opts...)
}

func (r *Runner) println(s string) {
	fmt.Fprintln(r.opts.Out, s)
}
