package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Contest struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	JoinCode        string          `json:"join_code"`
	WinCondition    string          `json:"win_condition"`
	StartingBalance decimal.Decimal `json:"starting_balance"`
	Status          ContestStatus   `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

type ContestStatus string

const (
	ContestStatusActive    ContestStatus = "active"
	ContestStatusCompleted ContestStatus = "completed"
	ContestStatusCancelled ContestStatus = "cancelled"
)

// JoinCodeLength is the number of characters in a contest join code.
const JoinCodeLength = 6

func NewContest(name, winCondition string, startingBalance decimal.Decimal, joinCode string) *Contest {
	return &Contest{
		ID:              uuid.New(),
		Name:            name,
		JoinCode:        joinCode,
		WinCondition:    winCondition,
		StartingBalance: startingBalance,
		Status:          ContestStatusActive,
		CreatedAt:       time.Now(),
	}
}

// IsActive reports whether the contest still admits players and trades.
func (c *Contest) IsActive() bool {
	return c.Status == ContestStatusActive
}
