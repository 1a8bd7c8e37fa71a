package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/talent-board/internal/digest"
	"github.com/jonathan/talent-board/internal/lifecycle"
	"github.com/jonathan/talent-board/internal/types"
)

// SubmitApplicationRequest represents the payload for applying to a posting
type SubmitApplicationRequest struct {
	CoverLetter string `json:"cover_letter" validate:"max=10000"`
	ResumeURL   string `json:"resume_url" validate:"omitempty,url"`
}

// UpdateStatusRequest represents the payload for a status transition
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ListApplicationsResponse represents a user's applied-jobs list
type ListApplicationsResponse struct {
	Applications []types.AppliedJob `json:"applications"`
	Count        int                `json:"count"`
}

// handleSubmitApplication creates an application for the authenticated
// applicant against the posting in the path.
func (s *Server) handleSubmitApplication(w http.ResponseWriter, r *http.Request) {
	actor := s.requireActor(w, r)
	if actor == nil {
		return
	}

	postingID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid posting ID")
		return
	}

	var req SubmitApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	appID, err := s.engine.Submit(r.Context(), postingID, actor.ID, req.CoverLetter, req.ResumeURL)
	if err != nil {
		// The posting-side record exists even when the user-side write
		// failed; surface the application ID so clients can reconcile.
		if _, ok := err.(*lifecycle.ErrPartiallyApplied); ok {
			s.jsonResponse(w, http.StatusBadGateway, map[string]string{
				"error":          err.Error(),
				"code":           "partially_applied",
				"application_id": appID.String(),
			})
			return
		}
		s.domainErrorResponse(w, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, map[string]string{
		"application_id": appID.String(),
		"status":         string(types.StatusPending),
	})
}

// handleUpdateApplicationStatus transitions an application's status.
// Only the posting owner or an admin may transition.
func (s *Server) handleUpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	actor := s.requireActor(w, r)
	if actor == nil {
		return
	}

	postingID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid posting ID")
		return
	}
	applicationID, err := uuid.Parse(r.PathValue("app_id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid application ID")
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	status := types.ApplicationStatus(req.Status)
	if !status.Valid() {
		s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", req.Status))
		return
	}

	if err := s.engine.UpdateStatus(r.Context(), postingID, applicationID, status, *actor); err != nil {
		s.domainErrorResponse(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{"status": string(status)})
}

// ListPostingApplicationsResponse represents a posting's received applications
type ListPostingApplicationsResponse struct {
	Applications []types.Application `json:"applications"`
	Count        int                 `json:"count"`
}

// handleListPostingApplications returns all applications received by a
// posting, so the owner can obtain application IDs for status updates.
// Only the posting owner or an admin may read them.
func (s *Server) handleListPostingApplications(w http.ResponseWriter, r *http.Request) {
	actor := s.requireActor(w, r)
	if actor == nil {
		return
	}

	postingID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid posting ID")
		return
	}

	posting, err := s.db.GetPosting(r.Context(), postingID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if posting == nil {
		s.errorResponse(w, http.StatusNotFound, "Posting not found")
		return
	}
	if actor.Role != types.RoleAdmin && posting.OwnerID != actor.ID {
		s.errorResponse(w, http.StatusForbidden, "Not the posting owner")
		return
	}

	applications, err := s.db.ListApplications(r.Context(), postingID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if applications == nil {
		applications = []types.Application{}
	}

	s.jsonResponse(w, http.StatusOK, ListPostingApplicationsResponse{
		Applications: applications,
		Count:        len(applications),
	})
}

// handleListMyApplications returns the applied-jobs list for a user.
// Users may only read their own list; admins may read anyone's.
func (s *Server) handleListMyApplications(w http.ResponseWriter, r *http.Request) {
	actor := s.requireActor(w, r)
	if actor == nil {
		return
	}

	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	if actor.Role != types.RoleAdmin && actor.ID != userID {
		s.errorResponse(w, http.StatusForbidden, "Cannot read another user's applications")
		return
	}

	applications, err := s.db.ListAppliedJobs(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if applications == nil {
		applications = []types.AppliedJob{}
	}

	s.jsonResponse(w, http.StatusOK, ListApplicationsResponse{
		Applications: applications,
		Count:        len(applications),
	})
}

// ReconcileRequest represents the payload for repairing a half-applied
// application
type ReconcileRequest struct {
	ApplicantID string `json:"applicant_id"`
}

// handleReconcile re-propagates the posting-side application state to
// the applicant's back-reference list. The retry path after a 502 with
// code "partially_applied". Admin only.
func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	actor := s.requireActor(w, r)
	if actor == nil {
		return
	}
	if actor.Role != types.RoleAdmin {
		s.errorResponse(w, http.StatusForbidden, "Only admins can reconcile applications")
		return
	}

	postingID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid posting ID")
		return
	}

	var req ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	applicantID, err := uuid.Parse(req.ApplicantID)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid applicant_id")
		return
	}

	if err := s.engine.Reconcile(r.Context(), postingID, applicantID); err != nil {
		s.domainErrorResponse(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{"message": "Application reconciled"})
}

// handleRunDigest triggers a manual digest run. Admin only; a run
// already in flight yields 409.
func (s *Server) handleRunDigest(w http.ResponseWriter, r *http.Request) {
	actor := s.requireActor(w, r)
	if actor == nil {
		return
	}
	if actor.Role != types.RoleAdmin {
		s.errorResponse(w, http.StatusForbidden, "Only admins can trigger digest runs")
		return
	}

	summary, err := s.runner.Run(r.Context(), digest.ModeManual)
	if err != nil {
		s.domainErrorResponse(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, summary)
}

// extractValidationErrors extracts validation error messages from validator errors.
func extractValidationErrors(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrors) > 0 {
			ve := validationErrors[0]
			return fmt.Sprintf("validation error: %s - %s", ve.Field(), ve.Tag())
		}
	}
	return "validation error: invalid request"
}
