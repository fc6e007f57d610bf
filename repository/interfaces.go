package repository

import (
	"context"

	"trading-contest/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store defines all persistence operations. *Repository is the
// PostgreSQL implementation; *MemoryStore backs tests and the
// no-database development mode.
type Store interface {
	// Health and lifecycle
	Close()
	Health(ctx context.Context) error

	// Contests
	CreateContest(ctx context.Context, contest *models.Contest) error
	GetContest(ctx context.Context, id uuid.UUID) (*models.Contest, error)
	GetActiveContestByJoinCode(ctx context.Context, joinCode string) (*models.Contest, error)
	JoinCodeExists(ctx context.Context, joinCode string) (bool, error)
	GetActiveContests(ctx context.Context) ([]models.Contest, error)
	UpdateContestStatus(ctx context.Context, id uuid.UUID, status models.ContestStatus) error

	// Players
	CreatePlayer(ctx context.Context, player *models.Player) error
	GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error)
	GetContestPlayers(ctx context.Context, contestID uuid.UUID) ([]models.Player, error)
	UpdatePlayerCash(ctx context.Context, id uuid.UUID, cashBalance decimal.Decimal) error

	// Positions
	GetPlayerPositions(ctx context.Context, playerID uuid.UUID) ([]models.Position, error)
	GetPositionByTicker(ctx context.Context, playerID uuid.UUID, ticker string) (*models.Position, error)
	CreatePosition(ctx context.Context, pos *models.Position) error
	UpdatePosition(ctx context.Context, pos *models.Position) error
	DeletePosition(ctx context.Context, id uuid.UUID) error

	// Trades
	CreateTrade(ctx context.Context, trade *models.Trade) error
	GetPlayerTrades(ctx context.Context, playerID uuid.UUID, limit int) ([]models.Trade, error)
	GetContestTrades(ctx context.Context, contestID uuid.UUID) ([]models.Trade, error)

	// InTx runs fn atomically; all Store calls made through fn's
	// argument see and produce uncommitted state until fn returns nil.
	InTx(ctx context.Context, fn func(Store) error) error
}

// Compile-time interface verification
var _ Store = (*Repository)(nil)
var _ Store = (*MemoryStore)(nil)
