package model

// ReportExport is the structured document written for a finished interview.
type ReportExport struct {
	Candidate         string            `json:"candidate"`
	Role              string            `json:"role"`
	Level             string            `json:"level"`
	Date              string            `json:"date"`
	OverallScore      float64           `json:"overallScore"`
	Grade             string            `json:"grade"`
	QuestionsAnswered int               `json:"questionsAnswered"`
	DurationSeconds   int64             `json:"durationSeconds"`
	FallbackMode      bool              `json:"fallbackMode"`
	Conversation      []ConversationMsg `json:"conversation"`
}

// ConversationMsg is one exchange in an exported conversation.
type ConversationMsg struct {
	Question       string `json:"question"`
	Answer         string `json:"answer"`
	Feedback       string `json:"feedback"`
	Score          *int   `json:"score"`
	QuestionNumber int    `json:"questionNumber"`
	IsFollowUp     bool   `json:"isFollowUp"`
}

// ArchiveExport is the top-level document produced by the export command.
type ArchiveExport struct {
	ExportedAt string         `json:"exported_at"`
	Count      int            `json:"count"`
	Reports    []ReportExport `json:"reports"`
}
