package store

import (
	"database/sql"
	"fmt"

	"github.com/pavelanni/interviewsim/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS interviews (
		id TEXT PRIMARY KEY,
		candidate TEXT NOT NULL,
		role TEXT NOT NULL,
		level TEXT NOT NULL,
		experience TEXT NOT NULL DEFAULT '',
		started_at DATETIME NOT NULL,
		completed_at DATETIME NOT NULL,
		average_score REAL NOT NULL DEFAULT 0,
		grade TEXT NOT NULL,
		duration_seconds INTEGER NOT NULL DEFAULT 0,
		fallback_mode BOOLEAN NOT NULL DEFAULT 0,
		low_confidence_scores INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS exchanges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		interview_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		question_number INTEGER NOT NULL,
		is_follow_up BOOLEAN NOT NULL DEFAULT 0,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		feedback TEXT,
		score INTEGER,
		low_confidence BOOLEAN NOT NULL DEFAULT 0,
		FOREIGN KEY (interview_id) REFERENCES interviews(id)
	);

	CREATE INDEX IF NOT EXISTS idx_exchanges_interview ON exchanges(interview_id, position);

	CREATE TABLE IF NOT EXISTS reviewers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS archive_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveReport stores a completed interview and its transcript. Saving the
// same session again replaces the earlier copy.
func (s *Store) SaveReport(r model.Report) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM exchanges WHERE interview_id = ?`, r.SessionID); err != nil {
		return err
	}
	_, err = tx.Exec(
		`INSERT INTO interviews (id, candidate, role, level, experience, started_at, completed_at,
		   average_score, grade, duration_seconds, fallback_mode, low_confidence_scores)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   candidate = excluded.candidate, role = excluded.role, level = excluded.level,
		   experience = excluded.experience, started_at = excluded.started_at,
		   completed_at = excluded.completed_at, average_score = excluded.average_score,
		   grade = excluded.grade, duration_seconds = excluded.duration_seconds,
		   fallback_mode = excluded.fallback_mode, low_confidence_scores = excluded.low_confidence_scores`,
		r.SessionID, r.Candidate, r.Role, r.Level, r.Experience, r.StartedAt, r.CompletedAt,
		r.AverageScore, r.Grade, r.DurationSeconds, r.FallbackMode, r.LowConfidenceScores,
	)
	if err != nil {
		return err
	}

	for i, ex := range r.Transcript {
		var fb sql.NullString
		if ex.Feedback != nil {
			fb = sql.NullString{String: *ex.Feedback, Valid: true}
		}
		var score sql.NullInt64
		if ex.Score != nil {
			score = sql.NullInt64{Int64: int64(*ex.Score), Valid: true}
		}
		_, err := tx.Exec(
			`INSERT INTO exchanges (interview_id, position, question_number, is_follow_up,
			   question, answer, feedback, score, low_confidence)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.SessionID, i, ex.QuestionNumber, ex.IsFollowUp, ex.Question, ex.Answer, fb, score, ex.LowConfidence,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

const reportColumns = `id, candidate, role, level, experience, started_at, completed_at,
	average_score, grade, duration_seconds, fallback_mode, low_confidence_scores`

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(row scanner) (model.Report, error) {
	var r model.Report
	err := row.Scan(&r.SessionID, &r.Candidate, &r.Role, &r.Level, &r.Experience, &r.StartedAt, &r.CompletedAt,
		&r.AverageScore, &r.Grade, &r.DurationSeconds, &r.FallbackMode, &r.LowConfidenceScores)
	return r, err
}

// GetReport returns a report with its transcript. It returns sql.ErrNoRows
// when the session is not archived.
func (s *Store) GetReport(id string) (model.Report, error) {
	r, err := scanReport(s.db.QueryRow(`SELECT `+reportColumns+` FROM interviews WHERE id = ?`, id))
	if err != nil {
		return model.Report{}, err
	}
	r.Transcript, err = s.getExchanges(id)
	if err != nil {
		return model.Report{}, err
	}
	return r, nil
}

func (s *Store) getExchanges(interviewID string) ([]model.Exchange, error) {
	rows, err := s.db.Query(
		`SELECT question_number, is_follow_up, question, answer, feedback, score, low_confidence
		 FROM exchanges WHERE interview_id = ? ORDER BY position`, interviewID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	exchanges := []model.Exchange{}
	for rows.Next() {
		var ex model.Exchange
		var fb sql.NullString
		var score sql.NullInt64
		if err := rows.Scan(&ex.QuestionNumber, &ex.IsFollowUp, &ex.Question, &ex.Answer, &fb, &score, &ex.LowConfidence); err != nil {
			return nil, err
		}
		if fb.Valid {
			ex.Feedback = &fb.String
		}
		if score.Valid {
			n := int(score.Int64)
			ex.Score = &n
		}
		exchanges = append(exchanges, ex)
	}
	return exchanges, rows.Err()
}

// ListReports returns archived reports without transcripts, newest first.
// An empty role means all roles.
func (s *Store) ListReports(role string) ([]model.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM interviews WHERE 1=1`
	var args []any
	if role != "" {
		query += ` AND role = ?`
		args = append(args, role)
	}
	query += ` ORDER BY completed_at DESC, id`
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var reports []model.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// ReportCount returns the number of archived reports.
func (s *Store) ReportCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM interviews`).Scan(&count)
	return count, err
}
