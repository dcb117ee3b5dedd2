package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/recruit-pipeline/internal/server/middleware"
	"github.com/jonathan/recruit-pipeline/internal/types"
)

// ---------------------------------------------------------------------
// Interview Handlers
// ---------------------------------------------------------------------

func (s *Server) handleBookInterview(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetActor(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var cmd types.BookInterviewCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	slot, err := s.pipeline.BookInterview(r.Context(), actor, cmd)
	if err != nil {
		s.engineError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, slot)
}

// UpdateInterviewRequest selects one of the slot mutations on PATCH /interviews/{id}.
type UpdateInterviewRequest struct {
	Action          string    `json:"action"` // "reschedule", "cancel" or "complete"
	NewStart        time.Time `json:"new_start,omitempty"`
	DurationMinutes int       `json:"duration_minutes,omitempty"`
}

func (s *Server) handleUpdateInterview(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetActor(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	slotID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid slot ID")
		return
	}

	var req UpdateInterviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	switch req.Action {
	case "reschedule":
		slot, err := s.pipeline.RescheduleInterview(r.Context(), actor, types.RescheduleInterviewCommand{
			SlotID:          slotID,
			NewStart:        req.NewStart,
			DurationMinutes: req.DurationMinutes,
		})
		if err != nil {
			s.engineError(w, err)
			return
		}
		s.jsonResponse(w, http.StatusOK, slot)
	case "cancel":
		if err := s.pipeline.CancelInterview(r.Context(), actor, types.CancelInterviewCommand{SlotID: slotID}); err != nil {
			s.engineError(w, err)
			return
		}
		s.jsonResponse(w, http.StatusOK, map[string]string{"status": "cancelled"})
	case "complete":
		if err := s.pipeline.CompleteInterview(r.Context(), actor, types.CompleteInterviewCommand{SlotID: slotID}); err != nil {
			s.engineError(w, err)
			return
		}
		s.jsonResponse(w, http.StatusOK, map[string]string{"status": "completed"})
	default:
		s.errorResponse(w, http.StatusBadRequest, "Action must be one of: reschedule, cancel, complete")
	}
}

func (s *Server) handleListInterviewerSlots(w http.ResponseWriter, r *http.Request) {
	interviewerID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid interviewer ID")
		return
	}

	var from, to time.Time
	if v := r.URL.Query().Get("from"); v != "" {
		from, err = time.Parse(time.RFC3339, v)
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, "Invalid 'from' timestamp, want RFC3339")
			return
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		to, err = time.Parse(time.RFC3339, v)
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, "Invalid 'to' timestamp, want RFC3339")
			return
		}
	}

	slots, err := s.pipeline.ListInterviewerSlots(r.Context(), interviewerID, from, to)
	if err != nil {
		s.engineError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"slots": slots})
}

// ---------------------------------------------------------------------
// Candidate Handlers
// ---------------------------------------------------------------------

func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := s.pipeline.ListCandidates(r.Context())
	if err != nil {
		s.engineError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"candidates": candidates})
}

func (s *Server) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid candidate ID")
		return
	}

	candidate, err := s.pipeline.GetCandidate(r.Context(), id)
	if err != nil {
		s.engineError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, candidate)
}

// AdvanceStageRequest carries the target stage for PATCH /candidates/{id}/stage.
type AdvanceStageRequest struct {
	TargetStage string `json:"target_stage"`
}

func (s *Server) handleAdvanceStage(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetActor(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	candidateID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid candidate ID")
		return
	}

	var req AdvanceStageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	candidate, err := s.pipeline.AdvanceStage(r.Context(), actor, types.AdvanceStageCommand{
		CandidateID: candidateID,
		TargetStage: req.TargetStage,
	})
	if err != nil {
		s.engineError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, candidate)
}

func (s *Server) handleBatchDelete(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetActor(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var cmd types.BatchDeleteCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	count, err := s.pipeline.BatchDeleteCandidates(r.Context(), actor, cmd)
	if err != nil {
		s.engineError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]int{"deleted": count})
}

// ---------------------------------------------------------------------
// Activity Handlers
// ---------------------------------------------------------------------

func (s *Server) handleRecentActivity(w http.ResponseWriter, r *http.Request) {
	q := types.ActivityQuery{Page: 1, PageSize: 20}
	var err error
	if v := r.URL.Query().Get("page"); v != "" {
		if q.Page, err = strconv.Atoi(v); err != nil {
			s.errorResponse(w, http.StatusBadRequest, "Invalid 'page' parameter")
			return
		}
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		if q.PageSize, err = strconv.Atoi(v); err != nil {
			s.errorResponse(w, http.StatusBadRequest, "Invalid 'page_size' parameter")
			return
		}
	}

	page, err := s.pipeline.RecentActivity(r.Context(), q)
	if err != nil {
		s.engineError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, page)
}
