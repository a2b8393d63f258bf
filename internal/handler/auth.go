package handler

import (
	"context"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/interviewsim/internal/model"
)

const authRealm = `Basic realm="interviewsim archive"`

type reviewerKey struct{}

func contextWithReviewer(ctx context.Context, rv *model.Reviewer) context.Context {
	return context.WithValue(ctx, reviewerKey{}, rv)
}

// reviewerFromContext returns the authenticated reviewer, or nil.
func reviewerFromContext(ctx context.Context) *model.Reviewer {
	rv, _ := ctx.Value(reviewerKey{}).(*model.Reviewer)
	return rv
}

// requireReviewer is middleware that checks HTTP basic credentials against
// the reviewer accounts in the archive.
func (h *Handler) requireReviewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok || username == "" {
			h.unauthorized(w, r)
			return
		}

		rv, err := h.store.GetReviewer(username)
		if err != nil {
			slog.Error("failed to get reviewer", "error", err)
			h.writeError(w, r, http.StatusInternalServerError, "ErrInternal", nil)
			return
		}
		if rv == nil || !rv.Active {
			h.unauthorized(w, r)
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(rv.PasswordHash), []byte(password)); err != nil {
			slog.Warn("reviewer login failed", "username", username)
			h.unauthorized(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(contextWithReviewer(r.Context(), rv)))
	})
}

func (h *Handler) unauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", authRealm)
	h.writeError(w, r, http.StatusUnauthorized, "ErrUnauthorized", nil)
}
