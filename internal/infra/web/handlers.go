package web

import (
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"veracity-pipeline/internal/domain"
	"veracity-pipeline/internal/domain/model"
)

type submitRequest struct {
	BatchID   string                `json:"batch_id"`
	Owner     string                `json:"owner"`
	Documents []model.Document      `json:"documents"`
	Options   model.AnalysisOptions `json:"options,omitempty"`
}

type batchResponse struct {
	ID                  string                `json:"id"`
	Owner               string                `json:"owner"`
	Status              model.BatchStatus     `json:"status"`
	TotalDocuments      int                   `json:"total_documents"`
	ProcessedDocuments  int                   `json:"processed_documents"`
	SuccessfulDocuments int                   `json:"successful_documents"`
	FailedDocuments     int                   `json:"failed_documents"`
	Metadata            model.BatchMetadata   `json:"metadata"`
	CreatedAt           time.Time             `json:"created_at"`
	UpdatedAt           time.Time             `json:"updated_at"`
}

func (s *Server) handleSubmitBatch(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Owner == "" {
		writeError(w, http.StatusBadRequest, "owner is required")
		return
	}
	if req.BatchID == "" {
		req.BatchID = ulid.MustNew(ulid.Timestamp(time.Now()), rand.New(rand.NewSource(time.Now().UnixNano()))).String()
	}

	result, err := s.preparer.PrepareBatch(r.Context(), req.BatchID, req.Owner, req.Documents, req.Options)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyExists):
			writeError(w, http.StatusConflict, "batch id already exists")
		case errors.Is(err, domain.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, "invalid submission")
		default:
			s.log.Error().Err(err).Str("batch_id", req.BatchID).Msg("batch preparation failed")
			writeError(w, http.StatusInternalServerError, "batch preparation failed")
		}
		return
	}
	writeJSON(w, http.StatusAccepted, result)
}

func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	batch, err := s.batches.FindByID(r.Context(), nil, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "batch not found")
			return
		}
		s.log.Error().Err(err).Str("batch_id", id).Msg("batch lookup failed")
		writeError(w, http.StatusInternalServerError, "batch lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{
		ID:                  batch.ID,
		Owner:               batch.Owner,
		Status:              batch.Status,
		TotalDocuments:      batch.TotalDocuments,
		ProcessedDocuments:  batch.ProcessedDocuments,
		SuccessfulDocuments: batch.SuccessfulDocuments,
		FailedDocuments:     batch.FailedDocuments,
		Metadata:            batch.Metadata,
		CreatedAt:           batch.CreatedAt,
		UpdatedAt:           batch.UpdatedAt,
	})
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.batches.FindByID(r.Context(), nil, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "batch not found")
			return
		}
		s.log.Error().Err(err).Str("batch_id", id).Msg("batch lookup failed")
		writeError(w, http.StatusInternalServerError, "batch lookup failed")
		return
	}

	results, err := s.results.ListByBatch(r.Context(), nil, id)
	if err != nil {
		s.log.Error().Err(err).Str("batch_id", id).Msg("result listing failed")
		writeError(w, http.StatusInternalServerError, "result listing failed")
		return
	}
	out := make([]resultResponse, 0, len(results))
	for _, res := range results {
		out = append(out, resultResponse{
			ID:           res.ID,
			DocumentID:   res.DocumentID,
			Filename:     res.Filename,
			Accuracy:     res.Accuracy,
			RiskLevel:    res.RiskLevel,
			FlaggedSpans: res.FlaggedSpans,
			Model:        res.Model,
			Fallback:     res.Fallback,
			Cost:         res.Cost,
			CreatedAt:    res.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type resultResponse struct {
	ID           string              `json:"id"`
	DocumentID   string              `json:"document_id"`
	Filename     string              `json:"filename,omitempty"`
	Accuracy     float64             `json:"accuracy"`
	RiskLevel    model.RiskLevel     `json:"risk_level"`
	FlaggedSpans []model.FlaggedSpan `json:"flagged_spans,omitempty"`
	Model        string              `json:"model,omitempty"`
	Fallback     bool                `json:"fallback"`
	Cost         float64             `json:"cost"`
	CreatedAt    time.Time           `json:"created_at"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
