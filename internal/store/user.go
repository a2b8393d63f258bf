package store

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/pavelanni/interviewsim/internal/model"
)

// CreateReviewer inserts a reviewer account. passwordHash must already be
// a bcrypt hash.
func (s *Store) CreateReviewer(username, passwordHash string) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO reviewers (username, password_hash, active, created_at) VALUES (?, ?, 1, ?)`,
		username, passwordHash, time.Now(),
	)
	if err != nil {
		slog.Error("failed to create reviewer", "username", username, "error", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	slog.Info("created reviewer", "id", id, "username", username)
	return id, nil
}

// GetReviewer returns a reviewer by username, or nil if there is none.
func (s *Store) GetReviewer(username string) (*model.Reviewer, error) {
	var u model.Reviewer
	err := s.db.QueryRow(
		`SELECT id, username, password_hash, active, created_at FROM reviewers WHERE username = ?`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Active, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SetReviewerActive enables or disables a reviewer.
func (s *Store) SetReviewerActive(username string, active bool) error {
	_, err := s.db.Exec(`UPDATE reviewers SET active = ? WHERE username = ?`, active, username)
	return err
}

// ReviewerCount returns the total number of reviewers.
func (s *Store) ReviewerCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM reviewers`).Scan(&count)
	return count, err
}
