package repository

import (
	"context"
	"fmt"

	"trading-contest/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const tradeColumns = `id, player_id, ticker, side, quantity, price, total_amount, trade_date, created_at`

// CreateTrade appends a trade to the ledger
func (r *Repository) CreateTrade(ctx context.Context, trade *models.Trade) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO trades (id, player_id, ticker, side, quantity, price, total_amount, trade_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, trade.ID, trade.PlayerID, trade.Ticker, trade.Side, trade.Quantity, trade.Price, trade.TotalAmount, trade.TradeDate, trade.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create trade: %w", err)
	}
	return nil
}

// GetPlayerTrades returns a player's trades, newest first
func (r *Repository) GetPlayerTrades(ctx context.Context, playerID uuid.UUID, limit int) ([]models.Trade, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+tradeColumns+` FROM trades
		WHERE player_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// GetContestTrades returns every trade across all players in the
// contest, newest first.
func (r *Repository) GetContestTrades(ctx context.Context, contestID uuid.UUID) ([]models.Trade, error) {
	rows, err := r.db.Query(ctx, `
		SELECT t.id, t.player_id, t.ticker, t.side, t.quantity, t.price, t.total_amount, t.trade_date, t.created_at
		FROM trades t
		JOIN players p ON p.id = t.player_id
		WHERE p.contest_id = $1
		ORDER BY t.created_at DESC
	`, contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to query contest trades: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

func scanTrades(rows pgx.Rows) ([]models.Trade, error) {
	var trades []models.Trade
	for rows.Next() {
		var t models.Trade
		if err := rows.Scan(&t.ID, &t.PlayerID, &t.Ticker, &t.Side, &t.Quantity, &t.Price, &t.TotalAmount, &t.TradeDate, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, nil
}
