package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/ingest"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/schedule"
)

// IngestHandler handles row-feed uploads and the periodic check trigger
type IngestHandler struct {
	ingestSvc *ingest.Service
	sched     *schedule.Service
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(ingestSvc *ingest.Service, sched *schedule.Service) *IngestHandler {
	return &IngestHandler{
		ingestSvc: ingestSvc,
		sched:     sched,
	}
}

// FuelFills ingests a parsed fuel-fill batch
func (h *IngestHandler) FuelFills(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var batch ingest.FuelBatchMessage
	if err := json.Unmarshal(body, &batch); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if batch.SHA256 != "" {
		seen, err := h.ingestSvc.AlreadyProcessed(r.Context(), batch.SHA256)
		if err != nil {
			http.Error(w, "Upload ledger lookup failed", http.StatusInternalServerError)
			return
		}
		if seen {
			http.Error(w, "File already processed", http.StatusConflict)
			return
		}
	}

	summary, err := h.ingestSvc.ProcessFuelFills(r.Context(), batch.Rows, batch.SourceFile)
	if err != nil {
		if errors.Is(err, ingest.ErrEmptyBatch) {
			http.Error(w, "Batch contains no rows", http.StatusBadRequest)
			return
		}
		http.Error(w, "Batch processing failed", http.StatusInternalServerError)
		return
	}

	if batch.SHA256 != "" {
		err := h.ingestSvc.RecordUpload(r.Context(), models.FuelUploadLog{
			OriginalFilename: batch.SourceFile,
			SHA256:           batch.SHA256,
			SizeBytes:        batch.SizeBytes,
			RowsProcessed:    summary.Processed,
			VehiclesUpdated:  summary.VehiclesUpdated,
		})
		if err != nil {
			http.Error(w, "Batch processed but ledger update failed", http.StatusInternalServerError)
			return
		}
	}

	writeJSON(w, http.StatusOK, summary)
}

// Novelties ingests a parsed free-text novelty batch
func (h *IngestHandler) Novelties(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var rows []models.NoveltyRow
	if err := json.Unmarshal(body, &rows); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	summary, err := h.ingestSvc.ProcessNovelties(r.Context(), rows)
	if err != nil {
		if errors.Is(err, ingest.ErrEmptyBatch) {
			http.Error(w, "Batch contains no rows", http.StatusBadRequest)
			return
		}
		http.Error(w, "Batch processing failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// RunChecks triggers one periodic due-date and document pass
func (h *IngestHandler) RunChecks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	summary, err := h.sched.RunChecks(r.Context(), time.Now())
	if err != nil {
		http.Error(w, "Checks failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
