package model

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Question count bounds for a single interview.
const (
	MinQuestions = 3
	MaxQuestions = 8
)

// MaxFollowUps caps the follow-up sub-rounds attached to one main question.
const MaxFollowUps = 2

// ErrInvalidConfig is returned when a SessionConfig cannot start an interview.
var ErrInvalidConfig = errors.New("invalid session config")

// Phase is a step of the interview turn-taking state machine.
type Phase string

const (
	PhaseAwaitingQuestion       Phase = "awaiting_question"
	PhaseQuestionDisplayed      Phase = "question_displayed"
	PhaseAwaitingAnswer         Phase = "awaiting_answer"
	PhaseScoring                Phase = "scoring"
	PhaseFollowUpDisplayed      Phase = "follow_up_displayed"
	PhaseAwaitingFollowUpAnswer Phase = "awaiting_follow_up_answer"
	PhaseCompleted              Phase = "completed"
)

// RoleProfile identifies a career track.
type RoleProfile struct {
	Name        string   `yaml:"name" json:"name"`
	Label       string   `yaml:"label" json:"label"`
	Description string   `yaml:"description" json:"description"`
	FocusAreas  []string `yaml:"focus_areas" json:"focus_areas"`
	Levels      []string `yaml:"levels" json:"levels"`
}

// HasLevel reports whether level is one of the role's level options.
func (r RoleProfile) HasLevel(level string) bool {
	return slices.Contains(r.Levels, level)
}

// DisplayLabel returns the label, or the name when no label is set.
func (r RoleProfile) DisplayLabel() string {
	if r.Label != "" {
		return r.Label
	}
	return r.Name
}

// SessionConfig holds the parameters chosen when an interview starts.
type SessionConfig struct {
	Role           string `json:"role"`
	Level          string `json:"level"`
	MaxQuestions   int    `json:"max_questions"`
	EnableFollowUp bool   `json:"enable_follow_up"`
	CandidateName  string `json:"candidate_name,omitempty"`
	Experience     string `json:"experience,omitempty"` // years, or "years of study"
}

// Validate checks the config against the role it refers to.
func (c SessionConfig) Validate(role RoleProfile) error {
	if c.Role == "" || c.Role != role.Name {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidConfig, c.Role)
	}
	if !role.HasLevel(c.Level) {
		return fmt.Errorf("%w: level %q not offered for role %q", ErrInvalidConfig, c.Level, c.Role)
	}
	if c.MaxQuestions < MinQuestions || c.MaxQuestions > MaxQuestions {
		return fmt.Errorf("%w: max questions must be between %d and %d, got %d",
			ErrInvalidConfig, MinQuestions, MaxQuestions, c.MaxQuestions)
	}
	return nil
}

// Exchange is one question/answer/feedback unit of the transcript.
// Feedback and Score stay nil until the answer has been scored.
type Exchange struct {
	QuestionNumber int     `json:"question_number"`
	IsFollowUp     bool    `json:"is_follow_up"`
	Question       string  `json:"question"`
	Answer         string  `json:"answer"`
	Feedback       *string `json:"feedback,omitempty"`
	Score          *int    `json:"score,omitempty"`
	LowConfidence  bool    `json:"low_confidence,omitempty"`
}

// Scored reports whether feedback and score have been attached.
func (e Exchange) Scored() bool {
	return e.Feedback != nil && e.Score != nil
}

// SessionState is the mutable state of a running interview.
type SessionState struct {
	ID                     string        `json:"id"`
	Config                 SessionConfig `json:"config"`
	Transcript             []Exchange    `json:"transcript"`
	Scores                 []int         `json:"scores"`
	CurrentQuestionNumber  int           `json:"current_question_number"`
	FollowUpActive         bool          `json:"follow_up_active"`
	FollowUpCount          int           `json:"follow_up_count"`
	UsingFallbackQuestions bool          `json:"using_fallback_questions"`
	StartedAt              time.Time     `json:"started_at"`
}

// RecentHistory returns up to n most recent exchanges, oldest first.
func (s *SessionState) RecentHistory(n int) []Exchange {
	if n <= 0 || len(s.Transcript) == 0 {
		return nil
	}
	start := max(len(s.Transcript)-n, 0)
	return slices.Clone(s.Transcript[start:])
}

// Report summarizes a finished interview.
type Report struct {
	SessionID           string     `json:"session_id"`
	Candidate           string     `json:"candidate"`
	Role                string     `json:"role"`
	Level               string     `json:"level"`
	Experience          string     `json:"experience,omitempty"`
	StartedAt           time.Time  `json:"started_at"`
	CompletedAt         time.Time  `json:"completed_at"`
	AverageScore        float64    `json:"average_score"`
	Grade               string     `json:"grade"`
	DurationSeconds     int64      `json:"duration_seconds"`
	FallbackMode        bool       `json:"fallback_mode"`
	LowConfidenceScores int        `json:"low_confidence_scores"`
	Transcript          []Exchange `json:"transcript"`
}

// UserProfile is the career assessment a candidate fills in before practicing.
type UserProfile struct {
	Name          string   `json:"name"`
	Education     string   `json:"education,omitempty"`
	Major         string   `json:"major,omitempty"`
	Experience    string   `json:"experience,omitempty"`
	Skills        []string `json:"skills"`
	Interests     []string `json:"interests"`
	LearningStyle string   `json:"learning_style,omitempty"`
}

// Recommendation ranks a role against a UserProfile.
type Recommendation struct {
	Role        string   `json:"role"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Score       int      `json:"score"`
	Reasons     []string `json:"reasons"`
	FocusAreas  []string `json:"focus_areas"`
}

// Reviewer is an account allowed to read the report archive.
type Reviewer struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}
