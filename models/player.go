package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Player struct {
	ID              uuid.UUID       `json:"id"`
	ContestID       uuid.UUID       `json:"contest_id"`
	Name            string          `json:"name"`
	StartingBalance decimal.Decimal `json:"starting_balance"`
	CashBalance     decimal.Decimal `json:"cash_balance"`
	CreatedAt       time.Time       `json:"created_at"`
}

// NewPlayer creates a player joining the given contest. The contest's
// starting balance is copied at join time; later contest edits never
// reprice an existing player.
func NewPlayer(contest *Contest, name string) *Player {
	return &Player{
		ID:              uuid.New(),
		ContestID:       contest.ID,
		Name:            name,
		StartingBalance: contest.StartingBalance,
		CashBalance:     contest.StartingBalance,
		CreatedAt:       time.Now(),
	}
}
