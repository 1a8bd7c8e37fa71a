// Package types defines the domain entities shared across the engine:
// postings, applications, users, and their enumerated fields.
package types

import (
	"time"

	"github.com/google/uuid"
)

// EmploymentType classifies how a posting is staffed.
type EmploymentType string

const (
	EmploymentFullTime   EmploymentType = "full-time"
	EmploymentPartTime   EmploymentType = "part-time"
	EmploymentContract   EmploymentType = "contract"
	EmploymentInternship EmploymentType = "internship"
	EmploymentFreelance  EmploymentType = "freelance"
)

// Valid reports whether t is a known employment type.
func (t EmploymentType) Valid() bool {
	switch t {
	case EmploymentFullTime, EmploymentPartTime, EmploymentContract, EmploymentInternship, EmploymentFreelance:
		return true
	}
	return false
}

// ExperienceLevel classifies the seniority a posting targets.
type ExperienceLevel string

const (
	ExperienceEntry     ExperienceLevel = "entry"
	ExperienceMid       ExperienceLevel = "mid"
	ExperienceSenior    ExperienceLevel = "senior"
	ExperienceExecutive ExperienceLevel = "executive"
)

// Valid reports whether l is a known experience level.
func (l ExperienceLevel) Valid() bool {
	switch l {
	case ExperienceEntry, ExperienceMid, ExperienceSenior, ExperienceExecutive:
		return true
	}
	return false
}

// SalaryPeriod is the unit a salary range is quoted in.
type SalaryPeriod string

const (
	SalaryHourly  SalaryPeriod = "hourly"
	SalaryMonthly SalaryPeriod = "monthly"
	SalaryYearly  SalaryPeriod = "yearly"
)

// Valid reports whether p is a known salary period.
func (p SalaryPeriod) Valid() bool {
	switch p {
	case SalaryHourly, SalaryMonthly, SalaryYearly:
		return true
	}
	return false
}

// SalaryRange is the advertised compensation band on a posting.
type SalaryRange struct {
	Min      int          `json:"min"`
	Max      int          `json:"max"`
	Currency string       `json:"currency"`
	Period   SalaryPeriod `json:"period"`
}

// Overlaps reports whether the range intersects [min, max].
// A zero bound is open: Overlaps(60000, 0) means "at least 60000".
func (s SalaryRange) Overlaps(min, max int) bool {
	if min > 0 && s.Max < min {
		return false
	}
	if max > 0 && s.Min > max {
		return false
	}
	return true
}

// ApplicationStatus is the lifecycle state of a single application.
type ApplicationStatus string

const (
	StatusPending     ApplicationStatus = "pending"
	StatusReviewed    ApplicationStatus = "reviewed"
	StatusShortlisted ApplicationStatus = "shortlisted"
	StatusRejected    ApplicationStatus = "rejected"
	StatusHired       ApplicationStatus = "hired"
)

// Valid reports whether s is a known application status.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusReviewed, StatusShortlisted, StatusRejected, StatusHired:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed out of s.
func (s ApplicationStatus) Terminal() bool {
	return s == StatusRejected || s == StatusHired
}

// CanTransitionTo reports whether moving from s to next is legal.
// The graph is strictly forward: pending -> reviewed -> shortlisted,
// with rejected/hired reachable from any non-terminal state.
func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	if !next.Valid() || s.Terminal() {
		return false
	}
	switch s {
	case StatusPending:
		return next != StatusPending
	case StatusReviewed:
		return next != StatusPending && next != StatusReviewed
	case StatusShortlisted:
		return next == StatusRejected || next == StatusHired
	}
	return false
}

// UserRole distinguishes applicants from posting owners and admins.
type UserRole string

const (
	RoleApplicant UserRole = "applicant"
	RoleEmployer  UserRole = "employer"
	RoleAdmin     UserRole = "admin"
)

// Posting is a job advertisement. It owns its applications and carries
// denormalized counters kept consistent by the lifecycle engine.
type Posting struct {
	ID                uuid.UUID       `json:"id"`
	Title             string          `json:"title"`
	Company           string          `json:"company"`
	Description       string          `json:"description"`
	Requirements      []string        `json:"requirements"`
	Responsibilities  []string        `json:"responsibilities"`
	Skills            []string        `json:"skills"`
	Salary            SalaryRange     `json:"salary"`
	Location          string          `json:"location"`
	EmploymentType    EmploymentType  `json:"employment_type"`
	ExperienceLevel   ExperienceLevel `json:"experience_level"`
	Active            bool            `json:"active"`
	Views             int64           `json:"views"`
	ApplicationsCount int             `json:"applications_count"`
	OwnerID           uuid.UUID       `json:"owner_id"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Application is one applicant's submission against one posting.
// At most one exists per (posting, applicant) pair.
type Application struct {
	ID          uuid.UUID         `json:"id"`
	PostingID   uuid.UUID         `json:"posting_id"`
	ApplicantID uuid.UUID         `json:"applicant_id"`
	Status      ApplicationStatus `json:"status"`
	CoverLetter string            `json:"cover_letter,omitempty"`
	ResumeURL   string            `json:"resume_url,omitempty"`
	AppliedAt   time.Time         `json:"applied_at"`
}

// AppliedJob is the denormalized back-reference a user keeps for each
// application, mirroring the status of the posting-side record.
type AppliedJob struct {
	PostingID uuid.UUID         `json:"posting_id"`
	AppliedAt time.Time         `json:"applied_at"`
	Status    ApplicationStatus `json:"status"`
}

// User is the slice of the account aggregate the engine needs: digest
// eligibility flags, declared skills, and the applied-jobs list.
type User struct {
	ID                   uuid.UUID `json:"id"`
	Email                string    `json:"email"`
	Name                 string    `json:"name"`
	Role                 UserRole  `json:"role"`
	Skills               []string  `json:"skills"`
	Active               bool      `json:"active"`
	EmailVerified        bool      `json:"email_verified"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	CreatedAt            time.Time `json:"created_at"`
}

// DigestEligible reports whether the user should receive job digests.
func (u *User) DigestEligible() bool {
	return u.Role == RoleApplicant && u.Active && u.EmailVerified && u.NotificationsEnabled
}
