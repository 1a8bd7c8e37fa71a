// Package search builds posting queries from flat filter parameters.
// Build is pure: the same Params always produce the same Query, so a
// query against an unchanged store is idempotent.
package search

import (
	"fmt"
	"strings"

	"github.com/jonathan/talent-board/internal/types"
)

const (
	// DefaultPageSize is used when the caller supplies no page size.
	DefaultPageSize = 20
	// MaxPageSize bounds response size regardless of what the caller asks for.
	MaxPageSize = 100

	// Free-text match weights. An exact field match outranks any
	// substring match; title outranks company outranks location
	// outranks description.
	weightTitleExact   = 40
	weightCompanyExact = 30
	weightTitlePart    = 20
	weightCompanyPart  = 15
	weightLocationPart = 10
	weightDescPart     = 5
)

// SortDirAsc and SortDirDesc are the accepted sort directions.
const (
	SortDirAsc  = "asc"
	SortDirDesc = "desc"
)

// sortColumns whitelists caller-facing sort fields to real columns.
// Anything else falls back to creation time.
var sortColumns = map[string]string{
	"created_at":   "created_at",
	"title":        "title",
	"company":      "company",
	"views":        "views",
	"applications": "applications_count",
	"salary":       "salary_max",
}

// Params is the full set of search inputs. Zero values mean "not set".
type Params struct {
	Query           string
	Location        string
	EmploymentType  string
	ExperienceLevel string
	MinSalary       int
	MaxSalary       int
	SortField       string
	SortDir         string
	Page            int
	PageSize        int
}

// Query is a composed predicate, ordering, and pagination window over
// the postings table. Where fragments are ANDed; Args line up with the
// $n placeholders already embedded in the fragments.
type Query struct {
	Where    []string
	Args     []any
	OrderBy  string
	Limit    int
	Offset   int
	Page     int
	PageSize int
}

// WhereClause renders the combined predicate, always non-empty because
// only active postings are ever eligible.
func (q Query) WhereClause() string {
	return "WHERE " + strings.Join(q.Where, " AND ")
}

// Build translates Params into a Query. Invalid values are clamped or
// ignored rather than rejected: bad enums drop their filter, unknown
// sort fields fall back to recency, and the page window is normalized.
func Build(p Params) Query {
	q := Query{
		Where: []string{"active = TRUE"},
	}

	arg := func(v any) string {
		q.Args = append(q.Args, v)
		return fmt.Sprintf("$%d", len(q.Args))
	}

	scoreExpr := ""
	if text := strings.TrimSpace(p.Query); text != "" {
		exact := arg(strings.ToLower(text))
		pattern := arg("%" + text + "%")
		scoreExpr = fmt.Sprintf(
			"(CASE WHEN LOWER(title) = %[1]s THEN %[3]d WHEN title ILIKE %[2]s THEN %[4]d ELSE 0 END"+
				" + CASE WHEN LOWER(company) = %[1]s THEN %[5]d WHEN company ILIKE %[2]s THEN %[6]d ELSE 0 END"+
				" + CASE WHEN location ILIKE %[2]s THEN %[7]d ELSE 0 END"+
				" + CASE WHEN description ILIKE %[2]s THEN %[8]d ELSE 0 END)",
			exact, pattern,
			weightTitleExact, weightTitlePart,
			weightCompanyExact, weightCompanyPart,
			weightLocationPart, weightDescPart,
		)
		q.Where = append(q.Where, scoreExpr+" > 0")
	}

	if loc := strings.TrimSpace(p.Location); loc != "" {
		q.Where = append(q.Where, "location ILIKE "+arg("%"+loc+"%"))
	}

	if et := types.EmploymentType(p.EmploymentType); p.EmploymentType != "" && et.Valid() {
		q.Where = append(q.Where, "employment_type = "+arg(string(et)))
	}

	if el := types.ExperienceLevel(p.ExperienceLevel); p.ExperienceLevel != "" && el.Valid() {
		q.Where = append(q.Where, "experience_level = "+arg(string(el)))
	}

	// Salary ranges must overlap [MinSalary, MaxSalary], open on any
	// absent bound.
	if p.MinSalary > 0 {
		q.Where = append(q.Where, "salary_max >= "+arg(p.MinSalary))
	}
	if p.MaxSalary > 0 {
		q.Where = append(q.Where, "salary_min <= "+arg(p.MaxSalary))
	}

	q.OrderBy = orderBy(p, scoreExpr)

	q.Page = p.Page
	if q.Page < 1 {
		q.Page = 1
	}
	q.PageSize = p.PageSize
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	q.Limit = q.PageSize
	q.Offset = (q.Page - 1) * q.PageSize

	return q
}

// orderBy resolves the ordering expression. A free-text query with no
// explicit sort ranks by match score first so stronger matches surface.
func orderBy(p Params, scoreExpr string) string {
	if scoreExpr != "" && (p.SortField == "" || p.SortField == "relevance") {
		return scoreExpr + " DESC, created_at DESC"
	}

	col, known := sortColumns[p.SortField]
	if p.SortField != "" && !known {
		// Unknown sort field: the whole sort falls back to the default.
		return "created_at DESC"
	}
	if !known {
		col = "created_at"
	}

	dir := "DESC"
	if strings.EqualFold(p.SortDir, SortDirAsc) {
		dir = "ASC"
	}
	return col + " " + dir
}

// PageCount returns ceil(total / pageSize) for a result envelope.
func PageCount(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
