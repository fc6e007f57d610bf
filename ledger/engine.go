// Package ledger implements the position/ledger accounting engine:
// applying a trade to a player's cash balance and position set under
// the weighted-average-cost method, atomically.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trading-contest/models"
	"trading-contest/observability"
	"trading-contest/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrPlayerNotFound    = errors.New("player not found")
	ErrInvalidTrade      = errors.New("trade quantity and price must be positive")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNoPosition        = errors.New("no position in ticker")
	ErrOversell          = errors.New("sell quantity exceeds held quantity")
)

// Engine applies trades against a Store. It owns the accounting
// invariants; callers only supply confirmed trade fields.
type Engine struct {
	store repository.Store
}

func New(store repository.Store) *Engine {
	return &Engine{store: store}
}

// ProcessTrade validates and applies one trade for a player. The cash
// adjustment, the position update and the ledger row are committed
// together or not at all: a rejected trade leaves every balance
// exactly as it found it.
func (e *Engine) ProcessTrade(ctx context.Context, playerID uuid.UUID, ticker string, side models.TradeSide, quantity, price decimal.Decimal, tradeDate time.Time) (*models.Trade, error) {
	if !quantity.IsPositive() || !price.IsPositive() {
		return nil, ErrInvalidTrade
	}
	if ticker == "" {
		return nil, ErrInvalidTrade
	}
	if side != models.TradeSideBuy && side != models.TradeSideSell {
		return nil, fmt.Errorf("%w: unknown side %q", ErrInvalidTrade, side)
	}

	log := observability.With("player_id", playerID, "ticker", ticker, "side", side)

	var trade *models.Trade
	err := e.store.InTx(ctx, func(s repository.Store) error {
		player, err := s.GetPlayer(ctx, playerID)
		if err != nil {
			return err
		}
		if player == nil {
			return ErrPlayerNotFound
		}

		totalAmount := quantity.Mul(price)

		var newCash decimal.Decimal
		if side == models.TradeSideBuy {
			if totalAmount.GreaterThan(player.CashBalance) {
				// No partial fills: either the whole buy clears or none of it.
				return fmt.Errorf("%w: need %s, have %s", ErrInsufficientFunds,
					totalAmount.StringFixed(2), player.CashBalance.StringFixed(2))
			}
			newCash = player.CashBalance.Sub(totalAmount)
		} else {
			// Sell proceeds are always credited; UpdatePosition rejects
			// the trade (and rolls this back) if the shares aren't held.
			newCash = player.CashBalance.Add(totalAmount)
		}

		if err := e.UpdatePosition(ctx, s, playerID, ticker, side, quantity, price); err != nil {
			return err
		}

		if err := s.UpdatePlayerCash(ctx, playerID, newCash); err != nil {
			return err
		}

		trade = models.NewTrade(playerID, ticker, side, quantity, price, tradeDate)
		return s.CreateTrade(ctx, trade)
	})
	if err != nil {
		log.Warn("trade rejected", "error", err)
		return nil, err
	}

	log.Info("trade processed",
		"trade_id", trade.ID,
		"quantity", quantity.String(),
		"price", price.String(),
		"total", trade.TotalAmount.String())
	return trade, nil
}

// UpdatePosition applies one trade's effect on the player's position
// in the ticker. Buys reweight the average cost (or open a position at
// the trade price); sells decrement the quantity and delete the row
// when it reaches exactly zero. The sell quantity is taken as an
// absolute value.
func (e *Engine) UpdatePosition(ctx context.Context, s repository.Store, playerID uuid.UUID, ticker string, side models.TradeSide, quantity, price decimal.Decimal) error {
	pos, err := s.GetPositionByTicker(ctx, playerID, ticker)
	if err != nil {
		return err
	}

	if side == models.TradeSideBuy {
		if pos == nil {
			return s.CreatePosition(ctx, models.NewPosition(playerID, ticker, quantity, price))
		}
		pos.ApplyBuy(quantity, price)
		return s.UpdatePosition(ctx, pos)
	}

	// Sell
	if pos == nil {
		return ErrNoPosition
	}
	quantity = quantity.Abs()
	if quantity.GreaterThan(pos.Quantity) {
		return fmt.Errorf("%w: hold %s, tried to sell %s", ErrOversell,
			pos.Quantity.String(), quantity.String())
	}

	pos.ApplySell(quantity, price)
	if pos.Quantity.IsZero() {
		// The average cost is discarded with the row; it is not needed again.
		return s.DeletePosition(ctx, pos.ID)
	}
	return s.UpdatePosition(ctx, pos)
}
