package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nezreka/fulfillment/pkg/catalog"
	"github.com/nezreka/fulfillment/pkg/fulfillment"
)

type submitBatchRequest struct {
	Tracks        []catalog.TrackDescriptor `json:"tracks"`
	Source        fulfillment.SourceTag     `json:"source"`
	MaxConcurrent int                       `json:"max_concurrent,omitempty"`
}

type submitBatchResponse struct {
	BatchID string   `json:"batch_id"`
	TaskIDs []string `json:"task_ids"`
}

func (s *Server) submitBatch(w http.ResponseWriter, r *http.Request) {
	var req submitBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Tracks) == 0 {
		httpError(w, http.StatusBadRequest, "tracks must not be empty")
		return
	}
	source := req.Source
	if source == "" {
		source = fulfillment.SourceManual
	}

	reqs := make([]fulfillment.SubmitRequest, len(req.Tracks))
	for i, d := range req.Tracks {
		reqs[i] = fulfillment.SubmitRequest{Descriptor: d, Source: source}
	}

	batch, err := s.engine.SubmitBatch(r.Context(), reqs, req.MaxConcurrent)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, submitBatchResponse{BatchID: batch.ID, TaskIDs: batch.Queue})
}

func (s *Server) getBatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "batchID")
	snap, ok := s.engine.GetBatch(id)
	if !ok {
		httpError(w, http.StatusNotFound, "batch not found")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "taskID")
	snap, ok := s.engine.GetTask(id)
	if !ok {
		httpError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) cancelBatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "batchID")
	if !s.engine.CancelBatchByID(id) {
		httpError(w, http.StatusNotFound, "batch not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
