package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/wallet-feed/internal/types"
)

// handleTriggerIngest handles POST /api/ingest/{address} - queues a
// history ingestion run for the wallet.
func (s *Server) handleTriggerIngest(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	if !types.IsValidAddress(address) {
		respondErrorWith(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid wallet address")
		return
	}

	job, err := s.ingestQueue.Enqueue(r.Context(), address)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, job)
}

// handleGetIngestJob handles GET /api/ingest/jobs/{id}
func (s *Server) handleGetIngestJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	job, err := s.ingestJobs.GetByID(r.Context(), jobID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, job)
}
