package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nezreka/fulfillment/pkg/catalog"
	"github.com/nezreka/fulfillment/pkg/events"
	"github.com/nezreka/fulfillment/pkg/fulfillment"
)

type fakeEngine struct {
	submitted []fulfillment.SubmitRequest
	batch     *fulfillment.Batch
	batches   map[string]fulfillment.BatchSnapshot
	tasks     map[string]fulfillment.TaskSnapshot
	cancelled string
}

func (f *fakeEngine) SubmitBatch(ctx context.Context, reqs []fulfillment.SubmitRequest, maxConcurrent int) (*fulfillment.Batch, error) {
	f.submitted = reqs
	return f.batch, nil
}

func (f *fakeEngine) GetBatch(batchID string) (fulfillment.BatchSnapshot, bool) {
	snap, ok := f.batches[batchID]
	return snap, ok
}

func (f *fakeEngine) GetTask(taskID string) (fulfillment.TaskSnapshot, bool) {
	snap, ok := f.tasks[taskID]
	return snap, ok
}

func (f *fakeEngine) CancelBatchByID(batchID string) bool {
	f.cancelled = batchID
	return batchID == "exists"
}

func TestSubmitBatchReturnsCreated(t *testing.T) {
	fe := &fakeEngine{batch: &fulfillment.Batch{ID: "batch-1", Queue: []string{"t1", "t2"}}}
	s := New(fe, events.New())

	body, _ := json.Marshal(submitBatchRequest{
		Tracks: []catalog.TrackDescriptor{{ID: "x", Name: "Song", Artists: []string{"Artist"}}},
	})
	req := httptest.NewRequest(http.MethodPost, "/batches/", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d, body=%s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var resp submitBatchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.BatchID != "batch-1" || len(resp.TaskIDs) != 2 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if len(fe.submitted) != 1 || fe.submitted[0].Source != fulfillment.SourceManual {
		t.Errorf("expected one manual-source submission, got %+v", fe.submitted)
	}
}

func TestSubmitBatchRejectsEmptyTracks(t *testing.T) {
	fe := &fakeEngine{}
	s := New(fe, events.New())

	body, _ := json.Marshal(submitBatchRequest{})
	req := httptest.NewRequest(http.MethodPost, "/batches/", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestGetBatchNotFound(t *testing.T) {
	fe := &fakeEngine{batches: map[string]fulfillment.BatchSnapshot{}}
	s := New(fe, events.New())

	req := httptest.NewRequest(http.MethodGet, "/batches/missing", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestGetBatchFound(t *testing.T) {
	fe := &fakeEngine{batches: map[string]fulfillment.BatchSnapshot{
		"b1": {ID: "b1", MaxConcurrent: 3},
	}}
	s := New(fe, events.New())

	req := httptest.NewRequest(http.MethodGet, "/batches/b1", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var snap fulfillment.BatchSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.ID != "b1" {
		t.Errorf("ID = %q, want b1", snap.ID)
	}
}

func TestCancelBatch(t *testing.T) {
	fe := &fakeEngine{}
	s := New(fe, events.New())

	req := httptest.NewRequest(http.MethodDelete, "/batches/exists", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if fe.cancelled != "exists" {
		t.Errorf("cancelled = %q, want exists", fe.cancelled)
	}
}

func TestHealthz(t *testing.T) {
	fe := &fakeEngine{}
	s := New(fe, events.New())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
