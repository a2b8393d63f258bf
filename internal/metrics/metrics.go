package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu                  sync.RWMutex
	interviewsStarted   int64
	interviewsCompleted int64
	questionsAsked      int64
	followUpsAsked      int64
	answersScored       int64
	lowConfidence       int64
	fallbacksEntered    int64
	generationCalls     int64
	generationFailures  int64
	lastUpdateTime      time.Time
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	InterviewsStarted   int64     `json:"interviews_started"`
	InterviewsCompleted int64     `json:"interviews_completed"`
	QuestionsAsked      int64     `json:"questions_asked"`
	FollowUpsAsked      int64     `json:"follow_ups_asked"`
	AnswersScored       int64     `json:"answers_scored"`
	LowConfidenceScores int64     `json:"low_confidence_scores"`
	FallbacksEntered    int64     `json:"fallbacks_entered"`
	GenerationCalls     int64     `json:"generation_calls"`
	GenerationFailures  int64     `json:"generation_failures"`
	LastUpdateTime      time.Time `json:"last_update_time"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		lastUpdateTime: time.Now(),
	}
}

func (m *Metrics) update(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn()
	m.lastUpdateTime = time.Now()
}

func (m *Metrics) InterviewStarted() {
	m.update(func() { m.interviewsStarted++ })
}

func (m *Metrics) InterviewCompleted() {
	m.update(func() { m.interviewsCompleted++ })
}

func (m *Metrics) QuestionAsked(followUp bool) {
	m.update(func() {
		if followUp {
			m.followUpsAsked++
			return
		}
		m.questionsAsked++
	})
}

func (m *Metrics) AnswerScored(confident bool) {
	m.update(func() {
		m.answersScored++
		if !confident {
			m.lowConfidence++
		}
	})
}

func (m *Metrics) FallbackEntered() {
	m.update(func() { m.fallbacksEntered++ })
}

func (m *Metrics) GenerationCall(success bool) {
	m.update(func() {
		m.generationCalls++
		if !success {
			m.generationFailures++
		}
	})
}

func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		InterviewsStarted:   m.interviewsStarted,
		InterviewsCompleted: m.interviewsCompleted,
		QuestionsAsked:      m.questionsAsked,
		FollowUpsAsked:      m.followUpsAsked,
		AnswersScored:       m.answersScored,
		LowConfidenceScores: m.lowConfidence,
		FallbacksEntered:    m.fallbacksEntered,
		GenerationCalls:     m.generationCalls,
		GenerationFailures:  m.generationFailures,
		LastUpdateTime:      m.lastUpdateTime,
	}
}
