package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/talent-board/internal/search"
	"github.com/jonathan/talent-board/internal/types"
)

// SearchPostingsResponse represents the response for searching postings
type SearchPostingsResponse struct {
	Postings []types.Posting `json:"postings"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Pages    int             `json:"pages"`
}

// CreatePostingRequest represents the payload for creating a posting
type CreatePostingRequest struct {
	Title            string   `json:"title" validate:"required"`
	Company          string   `json:"company" validate:"required"`
	Description      string   `json:"description"`
	Requirements     []string `json:"requirements"`
	Responsibilities []string `json:"responsibilities"`
	Skills           []string `json:"skills"`
	SalaryMin        int      `json:"salary_min" validate:"min=0"`
	SalaryMax        int      `json:"salary_max" validate:"min=0"`
	SalaryCurrency   string   `json:"salary_currency"`
	SalaryPeriod     string   `json:"salary_period"`
	Location         string   `json:"location"`
	EmploymentType   string   `json:"employment_type"`
	ExperienceLevel  string   `json:"experience_level"`
}

// handleSearchPostings lists active postings with filters, ranking and
// pagination taken from the query string.
func (s *Server) handleSearchPostings(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()

	params := search.Params{
		Query:           qs.Get("q"),
		Location:        qs.Get("location"),
		EmploymentType:  qs.Get("employment_type"),
		ExperienceLevel: qs.Get("experience_level"),
		MinSalary:       parseQueryInt(r, "min_salary", 0, 0),
		MaxSalary:       parseQueryInt(r, "max_salary", 0, 0),
		SortField:       qs.Get("sort"),
		SortDir:         qs.Get("order"),
		Page:            parseQueryInt(r, "page", 0, 0),
		PageSize:        parseQueryInt(r, "page_size", 0, search.MaxPageSize),
	}

	query := search.Build(params)
	postings, total, err := s.db.SearchPostings(r.Context(), query)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if postings == nil {
		postings = []types.Posting{}
	}

	s.jsonResponse(w, http.StatusOK, SearchPostingsResponse{
		Postings: postings,
		Total:    total,
		Page:     query.Page,
		PageSize: query.PageSize,
		Pages:    search.PageCount(total, query.PageSize),
	})
}

// handleGetPosting retrieves a posting by its ID and records the view.
func (s *Server) handleGetPosting(w http.ResponseWriter, r *http.Request) {
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

	// View counting is best effort; a failed increment never blocks the read.
	if err := s.engine.RecordView(r.Context(), postingID); err != nil {
		s.log.Warnw("failed to record posting view", "posting_id", postingID, "error", err)
	} else {
		posting.Views++
	}

	s.jsonResponse(w, http.StatusOK, posting)
}

// handleCreatePosting creates a posting owned by the authenticated actor.
func (s *Server) handleCreatePosting(w http.ResponseWriter, r *http.Request) {
	actor := s.requireActor(w, r)
	if actor == nil {
		return
	}
	if actor.Role != types.RoleEmployer && actor.Role != types.RoleAdmin {
		s.errorResponse(w, http.StatusForbidden, "Only employers can create postings")
		return
	}

	var req CreatePostingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	posting, verr := postingFromRequest(&req)
	if verr != nil {
		s.errorResponse(w, http.StatusBadRequest, verr.Error())
		return
	}
	posting.OwnerID = actor.ID
	posting.Active = true

	if err := s.db.CreatePosting(r.Context(), posting); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusCreated, posting)
}

// handleUpdatePosting replaces a posting's mutable fields. Only the
// owner or an admin may update.
func (s *Server) handleUpdatePosting(w http.ResponseWriter, r *http.Request) {
	actor := s.requireActor(w, r)
	if actor == nil {
		return
	}

	postingID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid posting ID")
		return
	}

	existing, err := s.db.GetPosting(r.Context(), postingID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if existing == nil {
		s.errorResponse(w, http.StatusNotFound, "Posting not found")
		return
	}
	if actor.Role != types.RoleAdmin && existing.OwnerID != actor.ID {
		s.errorResponse(w, http.StatusForbidden, "Not the posting owner")
		return
	}

	var req CreatePostingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	updated, verr := postingFromRequest(&req)
	if verr != nil {
		s.errorResponse(w, http.StatusBadRequest, verr.Error())
		return
	}
	updated.ID = existing.ID
	updated.OwnerID = existing.OwnerID
	updated.Active = existing.Active

	if err := s.db.UpdatePosting(r.Context(), updated); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, updated)
}

// handleDeletePosting removes a posting and, via cascade, its applications.
func (s *Server) handleDeletePosting(w http.ResponseWriter, r *http.Request) {
	actor := s.requireActor(w, r)
	if actor == nil {
		return
	}

	postingID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid posting ID")
		return
	}

	existing, err := s.db.GetPosting(r.Context(), postingID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if existing == nil {
		s.errorResponse(w, http.StatusNotFound, "Posting not found")
		return
	}
	if actor.Role != types.RoleAdmin && existing.OwnerID != actor.ID {
		s.errorResponse(w, http.StatusForbidden, "Not the posting owner")
		return
	}

	if err := s.db.DeletePosting(r.Context(), postingID); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{"message": "Posting deleted"})
}

// postingFromRequest validates enum fields and builds the domain posting.
func postingFromRequest(req *CreatePostingRequest) (*types.Posting, error) {
	p := &types.Posting{
		Title:            req.Title,
		Company:          req.Company,
		Description:      req.Description,
		Requirements:     req.Requirements,
		Responsibilities: req.Responsibilities,
		Skills:           req.Skills,
		Salary: types.SalaryRange{
			Min:      req.SalaryMin,
			Max:      req.SalaryMax,
			Currency: req.SalaryCurrency,
			Period:   types.SalaryPeriod(req.SalaryPeriod),
		},
		Location:        req.Location,
		EmploymentType:  types.EmploymentType(req.EmploymentType),
		ExperienceLevel: types.ExperienceLevel(req.ExperienceLevel),
	}

	if req.EmploymentType != "" && !p.EmploymentType.Valid() {
		return nil, &ErrValidation{Field: "employment_type", Message: "unknown value"}
	}
	if req.ExperienceLevel != "" && !p.ExperienceLevel.Valid() {
		return nil, &ErrValidation{Field: "experience_level", Message: "unknown value"}
	}
	if req.SalaryPeriod != "" && !p.Salary.Period.Valid() {
		return nil, &ErrValidation{Field: "salary_period", Message: "unknown value"}
	}
	if req.SalaryMin > 0 && req.SalaryMax > 0 && req.SalaryMin > req.SalaryMax {
		return nil, &ErrValidation{Field: "salary_min", Message: "must not exceed salary_max"}
	}
	return p, nil
}

// parseQueryInt parses an integer query parameter with a default and an
// optional maximum (0 means unbounded).
func parseQueryInt(r *http.Request, key string, defaultValue, maxValue int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	if maxValue > 0 && n > maxValue {
		return maxValue
	}
	return n
}
