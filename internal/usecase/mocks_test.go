//go:build !integration

// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"veracity-pipeline/internal/domain"
	"veracity-pipeline/internal/domain/model"
	"veracity-pipeline/internal/domain/ports/adapter"
	"veracity-pipeline/internal/domain/ports/repository"
)

// memBatchRepo is a small in-memory ledger used by unit tests. It mirrors
// the real repository's counter semantics including the message-id guard
// and the terminal status flip.
type memBatchRepo struct {
	mu        sync.Mutex
	store     map[string]*model.BatchJob
	progress  map[string]bool // applied message ids
	createErr error
	updateErr error
	incErr    error
}

func newMemBatchRepo() *memBatchRepo {
	return &memBatchRepo{
		store:    make(map[string]*model.BatchJob),
		progress: make(map[string]bool),
	}
}

func (m *memBatchRepo) Create(ctx context.Context, tx repository.Tx, batch *model.BatchJob) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[batch.ID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *batch
	m.store[batch.ID] = &cp
	return nil
}

func (m *memBatchRepo) UpdateValidation(ctx context.Context, tx repository.Tx, batchID string, status model.BatchStatus, totalValid int, meta model.BatchMetadata) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.store[batchID]
	if !ok {
		return domain.ErrNotFound
	}
	b.Status = status
	b.TotalDocuments = totalValid
	b.Metadata = meta
	return nil
}

func (m *memBatchRepo) IncrementCounters(ctx context.Context, batchID string, delta repository.CounterDelta) (bool, error) {
	if m.incErr != nil {
		return false, m.incErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.progress[delta.MessageID] {
		return false, nil
	}
	b, ok := m.store[batchID]
	if !ok {
		return false, domain.ErrNotFound
	}
	m.progress[delta.MessageID] = true
	b.ProcessedDocuments += delta.Processed
	b.SuccessfulDocuments += delta.Successful
	b.FailedDocuments += delta.Failed
	if b.TotalDocuments > 0 && b.ProcessedDocuments >= b.TotalDocuments {
		if b.SuccessfulDocuments == 0 {
			b.Status = model.BatchStatusFailed
		} else {
			b.Status = model.BatchStatusCompleted
		}
	}
	return true, nil
}

func (m *memBatchRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.BatchJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

// memResultRepo stores results keyed by (batch, document), upsert style.
type memResultRepo struct {
	mu       sync.Mutex
	rows     map[string]*model.AnalysisResult
	failDocs map[string]error // document id -> injected save error
}

func newMemResultRepo() *memResultRepo {
	return &memResultRepo{
		rows:     make(map[string]*model.AnalysisResult),
		failDocs: make(map[string]error),
	}
}

func (m *memResultRepo) Save(ctx context.Context, tx repository.Tx, result *model.AnalysisResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failDocs[result.DocumentID]; ok {
		return err
	}
	cp := *result
	m.rows[result.BatchID+"/"+result.DocumentID] = &cp
	return nil
}

func (m *memResultRepo) ListByBatch(ctx context.Context, tx repository.Tx, batchID string) ([]*model.AnalysisResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.AnalysisResult
	for _, r := range m.rows {
		if r.BatchID == batchID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memResultRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// fakeContentSource serves objects from a map. Refs missing from the map
// fail both Exists and Fetch with ErrNotFound.
type fakeContentSource struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeContentSource() *fakeContentSource {
	return &fakeContentSource{objects: make(map[string][]byte)}
}

func (f *fakeContentSource) put(ref string, content []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[ref] = content
}

func (f *fakeContentSource) Exists(ctx context.Context, ref string) (adapter.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[ref]
	if !ok {
		return adapter.ObjectInfo{}, domain.ErrNotFound
	}
	return adapter.ObjectInfo{Size: int64(len(b)), ContentType: "text/plain"}, nil
}

func (f *fakeContentSource) Fetch(ctx context.Context, ref string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[ref]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

// fakeEngine returns a fixed verdict unless AnalyzeFunc is set.
type fakeEngine struct {
	AnalyzeFunc func(ctx context.Context, text string, opts model.AnalysisOptions) (*adapter.Analysis, error)
	mu          sync.Mutex
	calls       int
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Analyze(ctx context.Context, text string, opts model.AnalysisOptions) (*adapter.Analysis, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.AnalyzeFunc != nil {
		return f.AnalyzeFunc(ctx, text, opts)
	}
	return &adapter.Analysis{
		Accuracy:  90,
		RiskLevel: model.RiskLow,
		Model:     "fake-model",
		Usage:     &model.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
	}, nil
}

func (f *fakeEngine) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// memQueue records published messages and can fail selected chunk indexes.
type memQueue struct {
	mu         sync.Mutex
	published  []adapter.QueueMessage
	failChunks map[int]bool
	seq        int
}

func newMemQueue() *memQueue {
	return &memQueue{failChunks: make(map[int]bool)}
}

func (m *memQueue) Publish(ctx context.Context, msg adapter.QueueMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failChunks[msg.ChunkIndex] {
		return fmt.Errorf("publish chunk %d: broker unavailable", msg.ChunkIndex)
	}
	m.seq++
	msg.MessageID = fmt.Sprintf("msg-%d", m.seq)
	m.published = append(m.published, msg)
	return nil
}

func (m *memQueue) messages() []adapter.QueueMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]adapter.QueueMessage, len(m.published))
	copy(out, m.published)
	return out
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}
