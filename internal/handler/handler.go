package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/interviewsim/internal/catalog"
	"github.com/pavelanni/interviewsim/internal/feedback"
	appI18n "github.com/pavelanni/interviewsim/internal/i18n"
	"github.com/pavelanni/interviewsim/internal/interview"
	"github.com/pavelanni/interviewsim/internal/llm"
	"github.com/pavelanni/interviewsim/internal/metrics"
	"github.com/pavelanni/interviewsim/internal/model"
	"github.com/pavelanni/interviewsim/internal/question"
	"github.com/pavelanni/interviewsim/internal/report"
	"github.com/pavelanni/interviewsim/internal/store"
)

const maxBodyBytes = 1 << 20

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	catalog  *catalog.Catalog
	store    *store.Store
	gen      llm.Generator
	metrics  *metrics.Metrics
	sessions *registry
}

// New creates a new Handler. s and gen may be nil: without a store nothing
// is archived and the admin routes are not mounted, without a generator
// every interview runs on catalog content.
func New(cat *catalog.Catalog, s *store.Store, gen llm.Generator, m *metrics.Metrics) *Handler {
	if m == nil {
		m = metrics.NewMetrics()
	}
	return &Handler{
		catalog:  cat,
		store:    s,
		gen:      gen,
		metrics:  m,
		sessions: newRegistry(),
	}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Get("/metrics", h.handleMetrics)
	r.Get("/roles", h.handleListRoles)
	r.Get("/roles/{name}", h.handleGetRole)
	r.Post("/recommendations", h.handleRecommend)

	r.Post("/sessions", h.handleCreateSession)
	r.Get("/sessions/{id}", h.handleGetSession)
	r.Post("/sessions/{id}/question", h.handleNextQuestion)
	r.Post("/sessions/{id}/displayed", h.handleDisplayed)
	r.Post("/sessions/{id}/answer", h.handleAnswer)
	r.Post("/sessions/{id}/skip", h.handleSkip)
	r.Get("/sessions/{id}/report", h.handleSessionReport)

	if h.store != nil {
		r.Route("/admin", func(r chi.Router) {
			r.Use(h.requireReviewer)
			r.Get("/reports", h.handleListReports)
			r.Get("/reports/{id}", h.handleGetReport)
			r.Get("/export", h.handleExport)
			r.Get("/catalog", h.handleCatalogInfo)
			r.Post("/reviewers", h.handleCreateReviewer)
			r.Put("/reviewers/{username}", h.handleSetReviewerActive)
		})
	}
}

type pendingView struct {
	Text     string `json:"text"`
	FollowUp bool   `json:"follow_up"`
	Number   int    `json:"number"`
}

type sessionView struct {
	ID              string              `json:"id"`
	Phase           model.Phase         `json:"phase"`
	Config          model.SessionConfig `json:"config"`
	CurrentQuestion int                 `json:"current_question"`
	FollowUpActive  bool                `json:"follow_up_active"`
	FollowUpCount   int                 `json:"follow_up_count"`
	FallbackMode    bool                `json:"fallback_mode"`
	Notice          string              `json:"notice,omitempty"`
	Remaining       string              `json:"remaining,omitempty"`
	Pending         *pendingView        `json:"pending,omitempty"`
	Transcript      []model.Exchange    `json:"transcript"`
}

type answerRequest struct {
	Answer string `json:"answer"`
}

type answerResponse struct {
	Exchange model.Exchange `json:"exchange"`
	Session  sessionView    `json:"session"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) view(r *http.Request, c *interview.Controller) sessionView {
	st := c.State()
	v := sessionView{
		ID:              st.ID,
		Phase:           c.Phase(),
		Config:          st.Config,
		CurrentQuestion: st.CurrentQuestionNumber,
		FollowUpActive:  st.FollowUpActive,
		FollowUpCount:   st.FollowUpCount,
		FallbackMode:    st.UsingFallbackQuestions,
		Transcript:      st.Transcript,
	}
	if st.UsingFallbackQuestions {
		v.Notice = appI18n.T(r.Context(), "FallbackNotice")
	}
	if c.Phase() != model.PhaseCompleted {
		v.Remaining = appI18n.Tp(r.Context(), "QuestionsRemaining", st.Config.MaxQuestions-st.CurrentQuestionNumber+1)
	}
	if text, followUp, ok := c.Pending(); ok {
		v.Pending = &pendingView{Text: text, FollowUp: followUp, Number: st.CurrentQuestionNumber}
	}
	return v
}

func (h *Handler) newController(cfg model.SessionConfig) (*interview.Controller, error) {
	opts := []interview.Option{interview.WithRecorder(h.metrics)}
	if h.gen != nil {
		opts = append(opts, interview.WithGenerative(question.NewGenerative(h.gen)))
	}
	return interview.New(cfg, h.catalog, feedback.NewScorer(h.gen), opts...)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"generative": h.gen != nil,
		"archive":    h.store != nil,
	})
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"counters":        h.metrics.Snapshot(),
		"active_sessions": h.sessions.len(),
	})
}

func (h *Handler) handleListRoles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Roles())
}

func (h *Handler) handleGetRole(w http.ResponseWriter, r *http.Request) {
	// Role names such as "UI/UX Design" arrive percent-encoded.
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "ErrBadRequest", nil)
		return
	}
	role, ok := h.catalog.Role(name)
	if !ok {
		h.writeError(w, r, http.StatusNotFound, "ErrRoleNotFound", nil)
		return
	}
	writeJSON(w, http.StatusOK, role)
}

func (h *Handler) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var p model.UserProfile
	if err := decodeJSON(w, r, &p); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "ErrBadRequest", nil)
		return
	}
	recs := h.catalog.Recommend(p)
	if recs == nil {
		recs = []model.Recommendation{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var cfg model.SessionConfig
	if err := decodeJSON(w, r, &cfg); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "ErrBadRequest", nil)
		return
	}
	ctrl, err := h.newController(cfg)
	if err != nil {
		if errors.Is(err, model.ErrInvalidConfig) {
			h.writeError(w, r, http.StatusBadRequest, "ErrInvalidConfig", map[string]any{"Detail": err.Error()})
			return
		}
		slog.Error("failed to start interview", "error", err)
		h.writeError(w, r, http.StatusInternalServerError, "ErrInternal", nil)
		return
	}
	h.sessions.add(ctrl)
	writeJSON(w, http.StatusCreated, h.view(r, ctrl))
}

// withSession runs fn with the session locked.
func (h *Handler) withSession(w http.ResponseWriter, r *http.Request, fn func(s *session)) {
	s, ok := h.sessions.get(chi.URLParam(r, "id"))
	if !ok {
		h.writeError(w, r, http.StatusNotFound, "ErrSessionNotFound", nil)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = h.sessions.now()
	fn(s)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *session) {
		writeJSON(w, http.StatusOK, h.view(r, s.ctrl))
	})
}

func (h *Handler) handleNextQuestion(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *session) {
		if _, err := s.ctrl.NextQuestion(r.Context()); err != nil {
			h.writeControllerError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, h.view(r, s.ctrl))
	})
}

func (h *Handler) handleDisplayed(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *session) {
		if err := s.ctrl.MarkDisplayed(); err != nil {
			h.writeControllerError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, h.view(r, s.ctrl))
	})
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "ErrBadRequest", nil)
		return
	}
	h.withSession(w, r, func(s *session) {
		ex, err := s.ctrl.SubmitAnswer(r.Context(), req.Answer)
		if err != nil {
			h.writeControllerError(w, r, err)
			return
		}
		h.archive(s)
		writeJSON(w, http.StatusOK, answerResponse{Exchange: ex, Session: h.view(r, s.ctrl)})
	})
}

func (h *Handler) handleSkip(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *session) {
		if err := s.ctrl.Skip(); err != nil {
			h.writeControllerError(w, r, err)
			return
		}
		h.archive(s)
		writeJSON(w, http.StatusOK, h.view(r, s.ctrl))
	})
}

func (h *Handler) handleSessionReport(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *session) {
		rep, ok := s.ctrl.Report()
		if !ok {
			h.writeError(w, r, http.StatusConflict, "ErrReportNotReady", nil)
			return
		}
		writeReport(w, r, rep)
	})
}

// archive stores a completed interview once. Archive failures are logged;
// the report stays available from memory.
func (h *Handler) archive(s *session) {
	if h.store == nil || s.archived {
		return
	}
	rep, ok := s.ctrl.Report()
	if !ok {
		return
	}
	if err := h.store.SaveReport(rep); err != nil {
		slog.Error("failed to archive report", "session_id", rep.SessionID, "error", err)
		return
	}
	s.archived = true
}

func (h *Handler) writeControllerError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *interview.ValidationError
	switch {
	case errors.As(err, &verr):
		h.writeError(w, r, http.StatusUnprocessableEntity, "ErrAnswerTooShort",
			map[string]any{"Length": verr.Length, "Min": verr.Min})
	case errors.Is(err, interview.ErrInvalidTransition):
		h.writeError(w, r, http.StatusConflict, "ErrInvalidTransition", nil)
	default:
		slog.Error("interview operation failed", "error", err)
		h.writeError(w, r, http.StatusInternalServerError, "ErrInternal", nil)
	}
}

func writeReport(w http.ResponseWriter, r *http.Request, rep model.Report) {
	switch report.Format(r.URL.Query().Get("format")) {
	case report.FormatText:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", report.Filename(report.FormatText, rep.Role, rep.CompletedAt)))
		_, _ = w.Write([]byte(report.Text(rep)))
	default:
		data, err := report.JSON(rep)
		if err != nil {
			slog.Error("failed to render report", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", report.Filename(report.FormatJSON, rep.Role, rep.CompletedAt)))
		_, _ = w.Write(data)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, msgID string, data map[string]any) {
	var msg string
	if data != nil {
		msg = appI18n.Td(r.Context(), msgID, data)
	} else {
		msg = appI18n.T(r.Context(), msgID)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
