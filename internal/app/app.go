package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trading-contest/config"
	"trading-contest/contest"
	"trading-contest/leaderboard"
	"trading-contest/ledger"
	"trading-contest/models"
	"trading-contest/observability"
	"trading-contest/repository"
	"trading-contest/services"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// App wires the contest registry, ledger engine, leaderboard aggregator
// and external services together for the HTTP layer. Extractor and payer
// are optional: when unconfigured the corresponding operations degrade
// instead of failing the whole application.
type App struct {
	cfg        *config.Config
	store      repository.Store
	registry   *contest.Registry
	engine     *ledger.Engine
	aggregator *leaderboard.Aggregator
	extractor  services.Extractor
	payer      services.Payer
}

// New creates a new App over the given store and external services.
func New(cfg *config.Config, store repository.Store, extractor services.Extractor, payer services.Payer) *App {
	return &App{
		cfg:        cfg,
		store:      store,
		registry:   contest.New(store),
		engine:     ledger.New(store),
		aggregator: leaderboard.New(store),
		extractor:  extractor,
		payer:      payer,
	}
}

// Shutdown releases the store's resources.
func (a *App) Shutdown(ctx context.Context) {
	if a.store != nil {
		a.store.Close()
	}
}

// Store returns the backing store for health checks.
func (a *App) Store() repository.Store {
	return a.store
}

// HasExtractor reports whether a screenshot extraction backend is configured.
func (a *App) HasExtractor() bool {
	return a.extractor != nil
}

// CreateContest creates a new contest. A nil starting balance falls back
// to the configured default.
func (a *App) CreateContest(ctx context.Context, name, winCondition string, startingBalance *decimal.Decimal) (*models.Contest, error) {
	balance := a.cfg.Contest.DefaultStartingBalance
	if startingBalance != nil {
		balance = *startingBalance
	}

	c, err := a.registry.CreateContest(ctx, name, winCondition, balance)
	if err != nil {
		return nil, err
	}
	observability.GetMetrics().RecordContestCreated()
	return c, nil
}

// JoinContest admits a player into the active contest holding the join code.
func (a *App) JoinContest(ctx context.Context, joinCode, playerName string) (*models.Player, error) {
	player, err := a.registry.JoinContest(ctx, joinCode, playerName)
	if err != nil {
		return nil, err
	}
	observability.GetMetrics().RecordPlayerJoined()
	return player, nil
}

// ActiveContests returns contests that still admit players.
func (a *App) ActiveContests(ctx context.Context) ([]models.Contest, error) {
	return a.registry.ActiveContests(ctx)
}

// GetContest returns one contest, or nil when none holds the ID.
func (a *App) GetContest(ctx context.Context, contestID uuid.UUID) (*models.Contest, error) {
	return a.store.GetContest(ctx, contestID)
}

// ContestPlayers returns a contest's players in join order.
func (a *App) ContestPlayers(ctx context.Context, contestID uuid.UUID) ([]models.Player, error) {
	return a.registry.ContestPlayers(ctx, contestID)
}

// Leaderboard returns contest standings ranked by total profit.
func (a *App) Leaderboard(ctx context.Context, contestID uuid.UUID) ([]leaderboard.Entry, error) {
	return a.aggregator.Leaderboard(ctx, contestID)
}

// ContestTrades returns all contest trades, newest first.
func (a *App) ContestTrades(ctx context.Context, contestID uuid.UUID) ([]leaderboard.TradeView, error) {
	return a.aggregator.ContestTrades(ctx, contestID)
}

// SubmitTrade applies one trade to the player's ledger.
func (a *App) SubmitTrade(ctx context.Context, playerID uuid.UUID, ticker string, side models.TradeSide, quantity, price decimal.Decimal, tradeDate time.Time) (*models.Trade, error) {
	trade, err := a.engine.ProcessTrade(ctx, playerID, ticker, side, quantity, price, tradeDate)
	if err != nil {
		observability.GetMetrics().RecordTradeRejection(string(side), rejectionReason(err))
		return nil, err
	}

	total, _ := trade.TotalAmount.Float64()
	observability.GetMetrics().RecordTradeProcessed(string(side), total)
	return trade, nil
}

// rejectionReason maps engine errors to a bounded metric label set.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ledger.ErrOversell):
		return "oversell"
	case errors.Is(err, ledger.ErrNoPosition):
		return "no_position"
	case errors.Is(err, ledger.ErrPlayerNotFound):
		return "player_not_found"
	case errors.Is(err, ledger.ErrInvalidTrade):
		return "invalid"
	default:
		return "error"
	}
}

// GetPlayer returns one player, or nil when none holds the ID.
func (a *App) GetPlayer(ctx context.Context, playerID uuid.UUID) (*models.Player, error) {
	return a.store.GetPlayer(ctx, playerID)
}

// PlayerPositions returns a player's open positions.
func (a *App) PlayerPositions(ctx context.Context, playerID uuid.UUID) ([]models.Position, error) {
	return a.store.GetPlayerPositions(ctx, playerID)
}

// PlayerTrades returns a player's trade history, newest first.
func (a *App) PlayerTrades(ctx context.Context, playerID uuid.UUID, limit int) ([]models.Trade, error) {
	return a.store.GetPlayerTrades(ctx, playerID, limit)
}

// ExtractTrade runs the configured vision backend over a screenshot.
// Extraction never fails the request: provider errors come back as an
// unsuccessful result the client can show to the user.
func (a *App) ExtractTrade(ctx context.Context, image []byte) (*models.ExtractedTrade, error) {
	if a.extractor == nil {
		return nil, fmt.Errorf("screenshot extraction not configured")
	}

	metrics := observability.GetMetrics()
	result, err := a.extractor.ExtractTrade(ctx, image)
	if err != nil {
		metrics.RecordExtraction(a.extractor.Provider(), "error")
		observability.Warn("screenshot extraction failed",
			"provider", a.extractor.Provider(), "error", err)
		return models.ExtractionFailure(err.Error()), nil
	}

	status := "failure"
	if result.Success {
		status = "success"
	}
	metrics.RecordExtraction(a.extractor.Provider(), status)
	return result, nil
}

// CompletionResult reports the outcome of ending a contest.
type CompletionResult struct {
	Contest      *models.Contest    `json:"contest"`
	Winner       *leaderboard.Entry `json:"winner,omitempty"`
	PayoutAmount decimal.Decimal    `json:"payout_amount"`
	PaidOut      bool               `json:"paid_out"`
}

// CompleteContest ends an active contest: the top-ranked player wins and
// receives their total profit through the payments provider, then the
// contest flips to completed. A failed payout aborts the completion so
// the operation can be retried; a winner with zero or negative profit,
// or a missing payments configuration, completes without paying.
func (a *App) CompleteContest(ctx context.Context, contestID uuid.UUID) (*CompletionResult, error) {
	c, err := a.store.GetContest(ctx, contestID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, leaderboard.ErrContestNotFound
	}
	if !c.IsActive() {
		return nil, leaderboard.ErrContestNotActive
	}

	entries, err := a.aggregator.Leaderboard(ctx, contestID)
	if err != nil {
		return nil, err
	}

	result := &CompletionResult{Contest: c, PayoutAmount: decimal.Zero}
	if len(entries) > 0 {
		winner := entries[0]
		result.Winner = &winner

		if a.payer != nil && winner.TotalProfit.IsPositive() {
			if err := a.payer.PayWinner(ctx, contestID, winner.PlayerID, winner.PlayerName, winner.TotalProfit); err != nil {
				return nil, fmt.Errorf("failed to pay winner: %w", err)
			}
			result.PayoutAmount = winner.TotalProfit
			result.PaidOut = true
		}
	}

	if err := a.aggregator.CompleteContest(ctx, contestID); err != nil {
		return nil, err
	}
	c.Status = models.ContestStatusCompleted

	observability.Info("contest completed",
		"contest_id", contestID,
		"paid_out", result.PaidOut,
		"payout_amount", result.PayoutAmount.String())
	return result, nil
}
