package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/talent-board/internal/types"
)

const userColumns = `id, email, name, role, skills, active, email_verified, notifications_enabled, created_at`

func scanUser(row pgx.Row) (*types.User, error) {
	var u types.User
	var skillsJSON []byte

	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &skillsJSON,
		&u.Active, &u.EmailVerified, &u.NotificationsEnabled, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	if skillsJSON != nil {
		_ = json.Unmarshal(skillsJSON, &u.Skills)
	}
	return &u, nil
}

// GetUser retrieves a user by ID
func (db *DB) GetUser(ctx context.Context, id uuid.UUID) (*types.User, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	u, err := scanUser(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// CreateUser inserts a user record
func (db *DB) CreateUser(ctx context.Context, u *types.User) error {
	skillsJSON, err := json.Marshal(u.Skills)
	if err != nil {
		return fmt.Errorf("failed to marshal skills: %w", err)
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}

	err = db.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, name, role, skills, active, email_verified, notifications_enabled)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at`,
		u.ID, u.Email, u.Name, u.Role, skillsJSON, u.Active, u.EmailVerified, u.NotificationsEnabled,
	).Scan(&u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// ListDigestEligibleUsers returns applicants that are active, verified,
// and opted in to notifications. limit <= 0 means no cap.
func (db *DB) ListDigestEligibleUsers(ctx context.Context, limit int) ([]types.User, error) {
	query := `SELECT ` + userColumns + `
		 FROM users
		 WHERE role = 'applicant' AND active = TRUE
		   AND email_verified = TRUE AND notifications_enabled = TRUE
		 ORDER BY created_at ASC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible users: %w", err)
	}
	defer rows.Close()

	var users []types.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, nil
}

// AppendAppliedJob adds a back-reference entry to the user's
// applied-jobs list.
func (db *DB) AppendAppliedJob(ctx context.Context, userID uuid.UUID, entry types.AppliedJob) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO applied_jobs (user_id, posting_id, applied_at, status)
		 VALUES ($1, $2, $3, $4)`,
		userID, entry.PostingID, entry.AppliedAt, entry.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to append applied job: %w", err)
	}
	return nil
}

// GetAppliedJob retrieves one back-reference entry, nil when absent.
func (db *DB) GetAppliedJob(ctx context.Context, userID, postingID uuid.UUID) (*types.AppliedJob, error) {
	var entry types.AppliedJob
	err := db.pool.QueryRow(ctx,
		`SELECT posting_id, applied_at, status
		 FROM applied_jobs WHERE user_id = $1 AND posting_id = $2`,
		userID, postingID,
	).Scan(&entry.PostingID, &entry.AppliedAt, &entry.Status)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get applied job: %w", err)
	}
	return &entry, nil
}

// UpdateAppliedJobStatus mirrors a posting-side status change onto the
// user's back-reference entry.
func (db *DB) UpdateAppliedJobStatus(ctx context.Context, userID, postingID uuid.UUID, status types.ApplicationStatus) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE applied_jobs SET status = $1 WHERE user_id = $2 AND posting_id = $3`,
		status, userID, postingID,
	)
	if err != nil {
		return fmt.Errorf("failed to update applied job status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("applied job entry not found for user %s posting %s", userID, postingID)
	}
	return nil
}

// ListAppliedJobs returns the user's applied-jobs entries, newest first.
// This is the read path the denormalized copy exists for.
func (db *DB) ListAppliedJobs(ctx context.Context, userID uuid.UUID) ([]types.AppliedJob, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT posting_id, applied_at, status
		 FROM applied_jobs WHERE user_id = $1
		 ORDER BY applied_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applied jobs: %w", err)
	}
	defer rows.Close()

	var entries []types.AppliedJob
	for rows.Next() {
		var entry types.AppliedJob
		if err := rows.Scan(&entry.PostingID, &entry.AppliedAt, &entry.Status); err != nil {
			return nil, fmt.Errorf("failed to scan applied job: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
