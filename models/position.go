package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Position is a player's holding in a single ticker. Quantity and
// AvgPrice stay consistent with the full buy/sell history under the
// weighted-average-cost method; CurrentPrice is a snapshot of the
// player's own last trade price, not a market feed.
type Position struct {
	ID           uuid.UUID       `json:"id"`
	PlayerID     uuid.UUID       `json:"player_id"`
	Ticker       string          `json:"ticker"`
	Quantity     decimal.Decimal `json:"quantity"`
	AvgPrice     decimal.Decimal `json:"avg_price"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewPosition creates a position from a first buy: the average cost is
// the trade price.
func NewPosition(playerID uuid.UUID, ticker string, quantity, price decimal.Decimal) *Position {
	return &Position{
		ID:           uuid.New(),
		PlayerID:     playerID,
		Ticker:       ticker,
		Quantity:     quantity,
		AvgPrice:     price,
		CurrentPrice: price,
		UpdatedAt:    time.Now(),
	}
}

// ApplyBuy folds a buy into the position, recomputing the weighted
// average cost: (oldQty*oldAvg + qty*price) / (oldQty+qty).
func (p *Position) ApplyBuy(quantity, price decimal.Decimal) {
	newQuantity := p.Quantity.Add(quantity)
	totalCost := p.Quantity.Mul(p.AvgPrice).Add(quantity.Mul(price))
	p.AvgPrice = totalCost.Div(newQuantity)
	p.Quantity = newQuantity
	p.CurrentPrice = price
	p.UpdatedAt = time.Now()
}

// ApplySell decrements the held quantity. The average cost is left
// untouched; selling realizes P/L but does not reprice the remainder.
// Callers must have checked quantity <= p.Quantity.
func (p *Position) ApplySell(quantity, price decimal.Decimal) {
	p.Quantity = p.Quantity.Sub(quantity)
	p.CurrentPrice = price
	p.UpdatedAt = time.Now()
}

// MarketValue returns quantity * last observed price.
func (p *Position) MarketValue() decimal.Decimal {
	return p.Quantity.Mul(p.CurrentPrice)
}

// UnrealizedPL returns (current price - average cost) * quantity.
func (p *Position) UnrealizedPL() decimal.Decimal {
	return p.CurrentPrice.Sub(p.AvgPrice).Mul(p.Quantity)
}
