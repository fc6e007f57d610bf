// Package leaderboard joins player cash and position market value into
// ranked portfolio snapshots and contest trade histories.
package leaderboard

import (
	"context"
	"errors"
	"sort"
	"time"

	"trading-contest/models"
	"trading-contest/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrContestNotFound  = errors.New("contest not found")
	ErrContestNotActive = errors.New("contest is not active")
)

// Entry is one row of the leaderboard.
type Entry struct {
	Rank           int             `json:"rank"`
	PlayerID       uuid.UUID       `json:"player_id"`
	PlayerName     string          `json:"player_name"`
	CashBalance    decimal.Decimal `json:"cash_balance"`
	PortfolioValue decimal.Decimal `json:"portfolio_value"`
	TotalProfit    decimal.Decimal `json:"total_profit"`
	UnrealizedPL   decimal.Decimal `json:"unrealized_pl"`
}

// TradeView is a contest trade annotated with its player's display
// name; quantities are shown as absolute values.
type TradeView struct {
	ID          uuid.UUID       `json:"id"`
	PlayerName  string          `json:"player_name"`
	Ticker      string          `json:"ticker"`
	Side        models.TradeSide `json:"side"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	TradeDate   time.Time       `json:"trade_date"`
}

// Aggregator reads contest state into presentation-ready snapshots.
type Aggregator struct {
	store repository.Store
}

func New(store repository.Store) *Aggregator {
	return &Aggregator{store: store}
}

// Leaderboard computes each player's portfolio value (cash plus
// positions at their last-observed prices), profit against the
// starting balance, and unrealized P/L, sorted descending by total
// profit. Ties keep join order; rank is the 1-based position after the
// sort, not shared between equal profits.
func (a *Aggregator) Leaderboard(ctx context.Context, contestID uuid.UUID) ([]Entry, error) {
	players, err := a.store.GetContestPlayers(ctx, contestID)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(players))
	for _, p := range players {
		positions, err := a.store.GetPlayerPositions(ctx, p.ID)
		if err != nil {
			return nil, err
		}

		marketValue := decimal.Zero
		unrealized := decimal.Zero
		for _, pos := range positions {
			marketValue = marketValue.Add(pos.MarketValue())
			unrealized = unrealized.Add(pos.UnrealizedPL())
		}

		portfolioValue := p.CashBalance.Add(marketValue)
		entries = append(entries, Entry{
			PlayerID:       p.ID,
			PlayerName:     p.Name,
			CashBalance:    p.CashBalance,
			PortfolioValue: portfolioValue,
			TotalProfit:    portfolioValue.Sub(p.StartingBalance),
			UnrealizedPL:   unrealized,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalProfit.GreaterThan(entries[j].TotalProfit)
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// ContestTrades returns every trade in the contest, newest first,
// annotated with player names.
func (a *Aggregator) ContestTrades(ctx context.Context, contestID uuid.UUID) ([]TradeView, error) {
	players, err := a.store.GetContestPlayers(ctx, contestID)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(players))
	for _, p := range players {
		names[p.ID] = p.Name
	}

	trades, err := a.store.GetContestTrades(ctx, contestID)
	if err != nil {
		return nil, err
	}

	views := make([]TradeView, 0, len(trades))
	for _, t := range trades {
		views = append(views, TradeView{
			ID:          t.ID,
			PlayerName:  names[t.PlayerID],
			Ticker:      t.Ticker,
			Side:        t.Side,
			Quantity:    t.Quantity.Abs(),
			Price:       t.Price,
			TotalAmount: t.TotalAmount,
			TradeDate:   t.TradeDate,
		})
	}
	return views, nil
}

// CompleteContest flips an active contest to completed. The win
// condition is free text and never evaluated here; ending a contest is
// a manual action taken through the payout flow.
func (a *Aggregator) CompleteContest(ctx context.Context, contestID uuid.UUID) error {
	c, err := a.store.GetContest(ctx, contestID)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrContestNotFound
	}
	if !c.IsActive() {
		return ErrContestNotActive
	}
	return a.store.UpdateContestStatus(ctx, contestID, models.ContestStatusCompleted)
}
