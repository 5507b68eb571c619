package model

import "time"

type BatchStatus string

const (
	BatchStatusPreparing BatchStatus = "preparing"
	BatchStatusReady     BatchStatus = "ready"
	BatchStatusCompleted BatchStatus = "completed"
	BatchStatusFailed    BatchStatus = "failed"
)

func (s BatchStatus) Terminal() bool {
	return s == BatchStatusCompleted || s == BatchStatusFailed
}

// InvalidDocument records why a submitted document was excluded during
// validation. It lives in the batch metadata, never on the queue.
type InvalidDocument struct {
	DocumentID string `json:"document_id"`
	Reason     string `json:"reason"`
}

// BatchMetadata is the diagnostic payload stored on the ledger row.
type BatchMetadata struct {
	SubmittedDocuments int               `json:"submitted_documents"`
	InvalidDocuments   int               `json:"invalid_documents"`
	InvalidReasons     []InvalidDocument `json:"invalid_reasons,omitempty"`
}

// AnalysisOptions is an opaque configuration blob handed through to the
// analysis engine. The pipeline only ever reads the model name out of it.
type AnalysisOptions map[string]any

func (o AnalysisOptions) Model() string {
	if o == nil {
		return ""
	}
	if m, ok := o["model"].(string); ok {
		return m
	}
	return ""
}

// BatchJob is the ledger row tracking aggregate progress for one batch.
// TotalDocuments reflects only valid documents once validation finished;
// the counters are mutated exclusively by workers via additive updates.
type BatchJob struct {
	ID                  string
	Owner               string
	Status              BatchStatus
	TotalDocuments      int
	ProcessedDocuments  int
	SuccessfulDocuments int
	FailedDocuments     int
	Options             AnalysisOptions
	Metadata            BatchMetadata
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func NewBatchJob(id, owner string, submitted int, options AnalysisOptions) *BatchJob {
	now := time.Now()
	return &BatchJob{
		ID:             id,
		Owner:          owner,
		Status:         BatchStatusPreparing,
		TotalDocuments: submitted,
		Options:        options,
		Metadata:       BatchMetadata{SubmittedDocuments: submitted},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
