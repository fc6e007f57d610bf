package repository

import (
	"context"
	"fmt"

	"trading-contest/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const positionColumns = `id, player_id, ticker, quantity, avg_price, current_price, updated_at`

// GetPlayerPositions returns all open positions for a player
func (r *Repository) GetPlayerPositions(ctx context.Context, playerID uuid.UUID) ([]models.Position, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+positionColumns+` FROM positions
		WHERE player_id = $1
		ORDER BY ticker
	`, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []models.Position
	for rows.Next() {
		var p models.Position
		if err := rows.Scan(&p.ID, &p.PlayerID, &p.Ticker, &p.Quantity, &p.AvgPrice, &p.CurrentPrice, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, p)
	}
	return positions, nil
}

// GetPositionByTicker returns a player's position in the given ticker,
// or nil if the player holds none.
func (r *Repository) GetPositionByTicker(ctx context.Context, playerID uuid.UUID, ticker string) (*models.Position, error) {
	var p models.Position
	err := r.db.QueryRow(ctx, `
		SELECT `+positionColumns+` FROM positions WHERE player_id = $1 AND ticker = $2
	`, playerID, ticker).Scan(&p.ID, &p.PlayerID, &p.Ticker, &p.Quantity, &p.AvgPrice, &p.CurrentPrice, &p.UpdatedAt)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query position: %w", err)
	}
	return &p, nil
}

// CreatePosition creates a new position
func (r *Repository) CreatePosition(ctx context.Context, pos *models.Position) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO positions (id, player_id, ticker, quantity, avg_price, current_price, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, pos.ID, pos.PlayerID, pos.Ticker, pos.Quantity, pos.AvgPrice, pos.CurrentPrice, pos.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create position: %w", err)
	}
	return nil
}

// UpdatePosition updates an existing position
func (r *Repository) UpdatePosition(ctx context.Context, pos *models.Position) error {
	_, err := r.db.Exec(ctx, `
		UPDATE positions
		SET quantity = $2, avg_price = $3, current_price = $4, updated_at = NOW()
		WHERE id = $1
	`, pos.ID, pos.Quantity, pos.AvgPrice, pos.CurrentPrice)

	if err != nil {
		return fmt.Errorf("failed to update position: %w", err)
	}
	return nil
}

// DeletePosition removes a position. Called when a sell brings the
// quantity to exactly zero.
func (r *Repository) DeletePosition(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM positions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete position: %w", err)
	}
	return nil
}
