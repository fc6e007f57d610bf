package repository

import (
	"context"
	"fmt"

	"trading-contest/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const playerColumns = `id, contest_id, name, starting_balance, cash_balance, created_at`

// CreatePlayer persists a new player
func (r *Repository) CreatePlayer(ctx context.Context, player *models.Player) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO players (id, contest_id, name, starting_balance, cash_balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, player.ID, player.ContestID, player.Name, player.StartingBalance, player.CashBalance, player.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

// GetPlayer returns a single player by ID
func (r *Repository) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	var p models.Player
	err := r.db.QueryRow(ctx, `
		SELECT `+playerColumns+` FROM players WHERE id = $1
	`, id).Scan(&p.ID, &p.ContestID, &p.Name, &p.StartingBalance, &p.CashBalance, &p.CreatedAt)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query player: %w", err)
	}
	return &p, nil
}

// GetContestPlayers returns a contest's players in join order. The
// leaderboard relies on this ordering for stable ties.
func (r *Repository) GetContestPlayers(ctx context.Context, contestID uuid.UUID) ([]models.Player, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+playerColumns+` FROM players
		WHERE contest_id = $1
		ORDER BY created_at, id
	`, contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.ID, &p.ContestID, &p.Name, &p.StartingBalance, &p.CashBalance, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, p)
	}
	return players, nil
}

// UpdatePlayerCash sets a player's cash balance. Only trade processing
// calls this, inside its transaction.
func (r *Repository) UpdatePlayerCash(ctx context.Context, id uuid.UUID, cashBalance decimal.Decimal) error {
	_, err := r.db.Exec(ctx, `UPDATE players SET cash_balance = $2 WHERE id = $1`, id, cashBalance)
	if err != nil {
		return fmt.Errorf("failed to update player cash: %w", err)
	}
	return nil
}
