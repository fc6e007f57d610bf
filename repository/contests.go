package repository

import (
	"context"
	"fmt"

	"trading-contest/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const contestColumns = `id, name, join_code, win_condition, starting_balance, status, created_at`

// CreateContest persists a new contest
func (r *Repository) CreateContest(ctx context.Context, contest *models.Contest) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO contests (id, name, join_code, win_condition, starting_balance, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, contest.ID, contest.Name, contest.JoinCode, contest.WinCondition, contest.StartingBalance, contest.Status, contest.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create contest: %w", err)
	}
	return nil
}

// GetContest returns a single contest by ID
func (r *Repository) GetContest(ctx context.Context, id uuid.UUID) (*models.Contest, error) {
	var c models.Contest
	err := r.db.QueryRow(ctx, `
		SELECT `+contestColumns+` FROM contests WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.JoinCode, &c.WinCondition, &c.StartingBalance, &c.Status, &c.CreatedAt)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query contest: %w", err)
	}
	return &c, nil
}

// GetActiveContestByJoinCode returns the active contest with the given
// join code, or nil if no active contest matches. Codes are matched
// exactly as stored.
func (r *Repository) GetActiveContestByJoinCode(ctx context.Context, joinCode string) (*models.Contest, error) {
	var c models.Contest
	err := r.db.QueryRow(ctx, `
		SELECT `+contestColumns+` FROM contests WHERE join_code = $1 AND status = $2
	`, joinCode, models.ContestStatusActive).Scan(&c.ID, &c.Name, &c.JoinCode, &c.WinCondition, &c.StartingBalance, &c.Status, &c.CreatedAt)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query contest by join code: %w", err)
	}
	return &c, nil
}

// JoinCodeExists reports whether any contest already holds the code,
// regardless of status.
func (r *Repository) JoinCodeExists(ctx context.Context, joinCode string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM contests WHERE join_code = $1)
	`, joinCode).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check join code: %w", err)
	}
	return exists, nil
}

// GetActiveContests returns all contests still admitting players
func (r *Repository) GetActiveContests(ctx context.Context) ([]models.Contest, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+contestColumns+` FROM contests
		WHERE status = $1
		ORDER BY created_at DESC
	`, models.ContestStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to query contests: %w", err)
	}
	defer rows.Close()

	var contests []models.Contest
	for rows.Next() {
		var c models.Contest
		if err := rows.Scan(&c.ID, &c.Name, &c.JoinCode, &c.WinCondition, &c.StartingBalance, &c.Status, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contest: %w", err)
		}
		contests = append(contests, c)
	}
	return contests, nil
}

// UpdateContestStatus moves a contest through its lifecycle
func (r *Repository) UpdateContestStatus(ctx context.Context, id uuid.UUID, status models.ContestStatus) error {
	_, err := r.db.Exec(ctx, `UPDATE contests SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update contest status: %w", err)
	}
	return nil
}
