package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/interviewsim/internal/store"
)

type createReviewerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) handleListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.store.ListReports(r.URL.Query().Get("role"))
	if err != nil {
		slog.Error("failed to list reports", "error", err)
		h.writeError(w, r, http.StatusInternalServerError, "ErrInternal", nil)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (h *Handler) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rep, err := h.store.GetReport(id)
	if errors.Is(err, sql.ErrNoRows) {
		h.writeError(w, r, http.StatusNotFound, "ErrReportNotFound", nil)
		return
	}
	if err != nil {
		slog.Error("failed to get report", "id", id, "error", err)
		h.writeError(w, r, http.StatusInternalServerError, "ErrInternal", nil)
		return
	}
	writeReport(w, r, rep)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	archive, err := h.store.ExportAll(r.URL.Query().Get("role"))
	if err != nil {
		slog.Error("failed to export archive", "error", err)
		h.writeError(w, r, http.StatusInternalServerError, "ErrInternal", nil)
		return
	}
	slog.Info("archive exported",
		"reviewer", reviewerFromContext(r.Context()).Username,
		"reports", len(archive.Reports))
	writeJSON(w, http.StatusOK, archive)
}

func (h *Handler) handleCatalogInfo(w http.ResponseWriter, r *http.Request) {
	sha, err := h.store.GetMetadata(store.MetaCatalogSHA)
	if err != nil {
		slog.Error("failed to read catalog metadata", "error", err)
		h.writeError(w, r, http.StatusInternalServerError, "ErrInternal", nil)
		return
	}
	roles, _ := h.store.GetMetadata(store.MetaCatalogRoles)
	n, _ := strconv.Atoi(roles)
	count, err := h.store.ReportCount()
	if err != nil {
		slog.Error("failed to count reports", "error", err)
		h.writeError(w, r, http.StatusInternalServerError, "ErrInternal", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"catalog_sha256": sha,
		"catalog_roles":  n,
		"loaded_roles":   len(h.catalog.Roles()),
		"reports":        count,
	})
}

func (h *Handler) handleCreateReviewer(w http.ResponseWriter, r *http.Request) {
	var req createReviewerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "ErrBadRequest", nil)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		h.writeError(w, r, http.StatusBadRequest, "ErrBadRequest", nil)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		h.writeError(w, r, http.StatusInternalServerError, "ErrInternal", nil)
		return
	}

	id, err := h.store.CreateReviewer(req.Username, string(hash))
	if err != nil {
		slog.Error("failed to create reviewer", "error", err)
		h.writeError(w, r, http.StatusConflict, "ErrBadRequest", nil)
		return
	}

	slog.Info("reviewer created", "username", req.Username,
		"by", reviewerFromContext(r.Context()).Username)
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "username": req.Username})
}

type reviewerStatusRequest struct {
	Active bool `json:"active"`
}

func (h *Handler) handleSetReviewerActive(w http.ResponseWriter, r *http.Request) {
	var req reviewerStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "ErrBadRequest", nil)
		return
	}
	username := chi.URLParam(r, "username")
	if err := h.store.SetReviewerActive(username, req.Active); err != nil {
		slog.Error("failed to update reviewer", "username", username, "error", err)
		h.writeError(w, r, http.StatusInternalServerError, "ErrInternal", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
