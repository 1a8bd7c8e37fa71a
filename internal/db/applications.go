package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jonathan/talent-board/internal/lifecycle"
	"github.com/jonathan/talent-board/internal/types"
)

const applicationColumns = `id, posting_id, applicant_id, status, cover_letter, resume_url, applied_at`

func scanApplication(row pgx.Row) (*types.Application, error) {
	var a types.Application
	err := row.Scan(&a.ID, &a.PostingID, &a.ApplicantID, &a.Status,
		&a.CoverLetter, &a.ResumeURL, &a.AppliedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetApplication retrieves an application scoped to its parent posting
func (db *DB) GetApplication(ctx context.Context, postingID, applicationID uuid.UUID) (*types.Application, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+applicationColumns+`
		 FROM applications WHERE id = $1 AND posting_id = $2`,
		applicationID, postingID)

	a, err := scanApplication(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return a, nil
}

// GetApplicationByApplicant retrieves the application one applicant has
// on a posting, if any. The (posting, applicant) pair is unique.
func (db *DB) GetApplicationByApplicant(ctx context.Context, postingID, applicantID uuid.UUID) (*types.Application, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+applicationColumns+`
		 FROM applications WHERE posting_id = $1 AND applicant_id = $2`,
		postingID, applicantID)

	a, err := scanApplication(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get application by applicant: %w", err)
	}
	return a, nil
}

// ListApplications returns a posting's applications, oldest first.
func (db *DB) ListApplications(ctx context.Context, postingID uuid.UUID) ([]types.Application, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+applicationColumns+`
		 FROM applications WHERE posting_id = $1
		 ORDER BY applied_at ASC`,
		postingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var apps []types.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, *a)
	}
	return apps, nil
}

// CreateApplication inserts the application and bumps the posting's
// applications_count in one transaction, keeping the counter equal to
// the row count at all times.
func (db *DB) CreateApplication(ctx context.Context, app *types.Application) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO applications (id, posting_id, applicant_id, status, cover_letter, resume_url, applied_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		app.ID, app.PostingID, app.ApplicantID, app.Status, app.CoverLetter, app.ResumeURL, app.AppliedAt,
	)
	if err != nil {
		// Two concurrent submits can both pass the engine's pre-check;
		// the UNIQUE (posting_id, applicant_id) constraint decides the
		// loser, which must still surface as a duplicate, not a 500.
		if isUniqueViolation(err) {
			return &lifecycle.ErrDuplicateApplication{
				PostingID:   app.PostingID,
				ApplicantID: app.ApplicantID,
			}
		}
		return fmt.Errorf("failed to insert application: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE postings SET applications_count = applications_count + 1, updated_at = NOW()
		 WHERE id = $1`,
		app.PostingID,
	)
	if err != nil {
		return fmt.Errorf("failed to bump application counter: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit application: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// UpdateApplicationStatus sets the posting-side application status
func (db *DB) UpdateApplicationStatus(ctx context.Context, postingID, applicationID uuid.UUID, status types.ApplicationStatus) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE applications SET status = $1 WHERE id = $2 AND posting_id = $3`,
		status, applicationID, postingID,
	)
	if err != nil {
		return fmt.Errorf("failed to update application status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("application not found: %s", applicationID)
	}
	return nil
}
