package repository

import (
	"context"
	"fmt"
)

// Migrate creates the four relations if they do not exist. The schema
// mirrors the data model: contests own players via contest_id, players
// own positions and trades via player_id.
func (r *Repository) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS contests (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			join_code TEXT NOT NULL UNIQUE,
			win_condition TEXT NOT NULL,
			starting_balance NUMERIC NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS players (
			id UUID PRIMARY KEY,
			contest_id UUID NOT NULL REFERENCES contests(id),
			name TEXT NOT NULL,
			starting_balance NUMERIC NOT NULL,
			cash_balance NUMERIC NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS positions (
			id UUID PRIMARY KEY,
			player_id UUID NOT NULL REFERENCES players(id),
			ticker TEXT NOT NULL,
			quantity NUMERIC NOT NULL,
			avg_price NUMERIC NOT NULL,
			current_price NUMERIC NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (player_id, ticker)
		)`,
		`CREATE TABLE IF NOT EXISTS trades (
			id UUID PRIMARY KEY,
			player_id UUID NOT NULL REFERENCES players(id),
			ticker TEXT NOT NULL,
			side TEXT NOT NULL,
			quantity NUMERIC NOT NULL,
			price NUMERIC NOT NULL,
			total_amount NUMERIC NOT NULL,
			trade_date TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_players_contest ON players(contest_id)`,
		`CREATE INDEX IF NOT EXISTS idx_positions_player ON positions(player_id)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_player ON trades(player_id)`,
	}

	for _, stmt := range statements {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}
