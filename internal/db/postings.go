package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/talent-board/internal/search"
	"github.com/jonathan/talent-board/internal/types"
)

const postingColumns = `id, title, company, description, requirements, responsibilities, skills,
	        salary_min, salary_max, salary_currency, salary_period, location,
	        employment_type, experience_level, active, views, applications_count,
	        owner_id, created_at, updated_at`

// scanPosting reads one posting row. The three list fields are JSONB.
func scanPosting(row pgx.Row) (*types.Posting, error) {
	var p types.Posting
	var requirementsJSON, responsibilitiesJSON, skillsJSON []byte

	err := row.Scan(&p.ID, &p.Title, &p.Company, &p.Description,
		&requirementsJSON, &responsibilitiesJSON, &skillsJSON,
		&p.Salary.Min, &p.Salary.Max, &p.Salary.Currency, &p.Salary.Period,
		&p.Location, &p.EmploymentType, &p.ExperienceLevel,
		&p.Active, &p.Views, &p.ApplicationsCount,
		&p.OwnerID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if requirementsJSON != nil {
		_ = json.Unmarshal(requirementsJSON, &p.Requirements)
	}
	if responsibilitiesJSON != nil {
		_ = json.Unmarshal(responsibilitiesJSON, &p.Responsibilities)
	}
	if skillsJSON != nil {
		_ = json.Unmarshal(skillsJSON, &p.Skills)
	}

	return &p, nil
}

func marshalLists(p *types.Posting) (requirements, responsibilities, skills []byte, err error) {
	if requirements, err = json.Marshal(p.Requirements); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal requirements: %w", err)
	}
	if responsibilities, err = json.Marshal(p.Responsibilities); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal responsibilities: %w", err)
	}
	if skills, err = json.Marshal(p.Skills); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal skills: %w", err)
	}
	return requirements, responsibilities, skills, nil
}

// GetPosting retrieves a posting by its ID
func (db *DB) GetPosting(ctx context.Context, id uuid.UUID) (*types.Posting, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+postingColumns+` FROM postings WHERE id = $1`, id)

	p, err := scanPosting(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get posting: %w", err)
	}
	return p, nil
}

// CreatePosting inserts a posting and fills in its generated fields
func (db *DB) CreatePosting(ctx context.Context, p *types.Posting) error {
	requirements, responsibilities, skills, err := marshalLists(p)
	if err != nil {
		return err
	}

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	err = db.pool.QueryRow(ctx,
		`INSERT INTO postings (id, title, company, description, requirements, responsibilities,
		                       skills, salary_min, salary_max, salary_currency, salary_period,
		                       location, employment_type, experience_level, active, owner_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		 RETURNING views, applications_count, created_at, updated_at`,
		p.ID, p.Title, p.Company, p.Description, requirements, responsibilities,
		skills, p.Salary.Min, p.Salary.Max, p.Salary.Currency, p.Salary.Period,
		p.Location, p.EmploymentType, p.ExperienceLevel, p.Active, p.OwnerID,
	).Scan(&p.Views, &p.ApplicationsCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create posting: %w", err)
	}
	return nil
}

// UpdatePosting updates the mutable fields of a posting
func (db *DB) UpdatePosting(ctx context.Context, p *types.Posting) error {
	requirements, responsibilities, skills, err := marshalLists(p)
	if err != nil {
		return err
	}

	result, err := db.pool.Exec(ctx,
		`UPDATE postings SET
		     title = $2, company = $3, description = $4, requirements = $5,
		     responsibilities = $6, skills = $7, salary_min = $8, salary_max = $9,
		     salary_currency = $10, salary_period = $11, location = $12,
		     employment_type = $13, experience_level = $14, active = $15,
		     updated_at = NOW()
		 WHERE id = $1`,
		p.ID, p.Title, p.Company, p.Description, requirements, responsibilities,
		skills, p.Salary.Min, p.Salary.Max, p.Salary.Currency, p.Salary.Period,
		p.Location, p.EmploymentType, p.ExperienceLevel, p.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to update posting: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("posting not found: %s", p.ID)
	}
	return nil
}

// DeletePosting removes a posting and, via cascade, its applications
func (db *DB) DeletePosting(ctx context.Context, id uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM postings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete posting: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("posting not found: %s", id)
	}
	return nil
}

// SearchPostings runs a composed search query and returns the matching
// page along with the total match count.
func (db *DB) SearchPostings(ctx context.Context, q search.Query) ([]types.Posting, int, error) {
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM postings %s", q.WhereClause())
	var total int
	if err := db.pool.QueryRow(ctx, countQuery, q.Args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count postings: %w", err)
	}

	args := append(append([]any{}, q.Args...), q.Limit, q.Offset)
	query := fmt.Sprintf(
		`SELECT %s FROM postings %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		postingColumns, q.WhereClause(), q.OrderBy, len(q.Args)+1, len(q.Args)+2,
	)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search postings: %w", err)
	}
	defer rows.Close()

	var postings []types.Posting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan posting: %w", err)
		}
		postings = append(postings, *p)
	}
	return postings, total, nil
}

// ListRecentActivePostings returns active postings created after since,
// newest first, capped at limit. Digest candidate selection.
func (db *DB) ListRecentActivePostings(ctx context.Context, since time.Time, limit int) ([]types.Posting, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+postingColumns+`
		 FROM postings
		 WHERE active = TRUE AND created_at >= $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		since, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent postings: %w", err)
	}
	defer rows.Close()

	var postings []types.Posting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan posting: %w", err)
		}
		postings = append(postings, *p)
	}
	return postings, nil
}

// IncrementViews atomically bumps the posting's view counter. Kept as a
// single UPDATE so concurrent readers never lose increments.
func (db *DB) IncrementViews(ctx context.Context, postingID uuid.UUID) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE postings SET views = views + 1 WHERE id = $1`, postingID)
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("posting not found: %s", postingID)
	}
	return nil
}
