package repository

import (
	"context"
	"errors"
	"testing"

	"trading-contest/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func seedPlayer(t *testing.T, store *MemoryStore) (*models.Contest, *models.Player) {
	t.Helper()
	ctx := context.Background()

	contest := models.NewContest("Test", "", decimal.NewFromInt(10_000), "ABC123")
	if err := store.CreateContest(ctx, contest); err != nil {
		t.Fatalf("CreateContest failed: %v", err)
	}
	player := models.NewPlayer(contest, "alice")
	if err := store.CreatePlayer(ctx, player); err != nil {
		t.Fatalf("CreatePlayer failed: %v", err)
	}
	return contest, player
}

func TestInTx_CommitsOnSuccess(t *testing.T) {
	store := NewMemoryStore()
	_, player := seedPlayer(t, store)
	ctx := context.Background()

	err := store.InTx(ctx, func(s Store) error {
		if err := s.UpdatePlayerCash(ctx, player.ID, decimal.NewFromInt(5000)); err != nil {
			return err
		}
		return s.CreateTrade(ctx, models.NewTrade(player.ID, "AAPL", models.TradeSideBuy, decimal.NewFromInt(10), decimal.NewFromInt(500), player.CreatedAt))
	})
	if err != nil {
		t.Fatalf("InTx failed: %v", err)
	}

	p, _ := store.GetPlayer(ctx, player.ID)
	if !p.CashBalance.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("expected committed cash 5000, got %s", p.CashBalance)
	}
	trades, _ := store.GetPlayerTrades(ctx, player.ID, 10)
	if len(trades) != 1 {
		t.Errorf("expected 1 committed trade, got %d", len(trades))
	}
}

func TestInTx_RollsBackOnError(t *testing.T) {
	store := NewMemoryStore()
	contest, player := seedPlayer(t, store)
	ctx := context.Background()
	boom := errors.New("boom")

	pos := models.NewPosition(player.ID, "AAPL", decimal.NewFromInt(10), decimal.NewFromInt(100))
	err := store.InTx(ctx, func(s Store) error {
		if err := s.UpdatePlayerCash(ctx, player.ID, decimal.Zero); err != nil {
			return err
		}
		if err := s.CreatePosition(ctx, pos); err != nil {
			return err
		}
		if err := s.CreateTrade(ctx, models.NewTrade(player.ID, "AAPL", models.TradeSideBuy, decimal.NewFromInt(10), decimal.NewFromInt(100), player.CreatedAt)); err != nil {
			return err
		}
		if err := s.UpdateContestStatus(ctx, contest.ID, models.ContestStatusCancelled); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	p, _ := store.GetPlayer(ctx, player.ID)
	if !p.CashBalance.Equal(decimal.NewFromInt(10_000)) {
		t.Errorf("cash should have rolled back to 10000, got %s", p.CashBalance)
	}
	if got, _ := store.GetPositionByTicker(ctx, player.ID, "AAPL"); got != nil {
		t.Error("position should have rolled back")
	}
	trades, _ := store.GetPlayerTrades(ctx, player.ID, 10)
	if len(trades) != 0 {
		t.Errorf("trades should have rolled back, got %d", len(trades))
	}
	c, _ := store.GetContest(ctx, contest.ID)
	if c.Status != models.ContestStatusActive {
		t.Errorf("contest status should have rolled back, got %s", c.Status)
	}
}

func TestInTx_ReadsSeeUncommittedWrites(t *testing.T) {
	store := NewMemoryStore()
	_, player := seedPlayer(t, store)
	ctx := context.Background()

	err := store.InTx(ctx, func(s Store) error {
		if err := s.UpdatePlayerCash(ctx, player.ID, decimal.NewFromInt(123)); err != nil {
			return err
		}
		p, err := s.GetPlayer(ctx, player.ID)
		if err != nil {
			return err
		}
		if !p.CashBalance.Equal(decimal.NewFromInt(123)) {
			t.Errorf("read inside tx should see the write, got %s", p.CashBalance)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("InTx failed: %v", err)
	}
}

func TestGetActiveContestByJoinCode(t *testing.T) {
	store := NewMemoryStore()
	contest, _ := seedPlayer(t, store)
	ctx := context.Background()

	got, err := store.GetActiveContestByJoinCode(ctx, contest.JoinCode)
	if err != nil {
		t.Fatalf("GetActiveContestByJoinCode failed: %v", err)
	}
	if got == nil || got.ID != contest.ID {
		t.Fatalf("expected contest %s, got %+v", contest.ID, got)
	}

	// Completed contests don't match.
	if err := store.UpdateContestStatus(ctx, contest.ID, models.ContestStatusCompleted); err != nil {
		t.Fatalf("UpdateContestStatus failed: %v", err)
	}
	got, err = store.GetActiveContestByJoinCode(ctx, contest.JoinCode)
	if err != nil {
		t.Fatalf("GetActiveContestByJoinCode failed: %v", err)
	}
	if got != nil {
		t.Error("completed contest should not match by join code")
	}
}

func TestGetContestPlayers_JoinOrder(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	contest := models.NewContest("Test", "", decimal.NewFromInt(1000), "ZZZ999")
	if err := store.CreateContest(ctx, contest); err != nil {
		t.Fatalf("CreateContest failed: %v", err)
	}

	names := []string{"one", "two", "three", "four"}
	for _, name := range names {
		if err := store.CreatePlayer(ctx, models.NewPlayer(contest, name)); err != nil {
			t.Fatalf("CreatePlayer failed: %v", err)
		}
	}

	players, err := store.GetContestPlayers(ctx, contest.ID)
	if err != nil {
		t.Fatalf("GetContestPlayers failed: %v", err)
	}
	for i, name := range names {
		if players[i].Name != name {
			t.Errorf("position %d: expected %s, got %s", i, name, players[i].Name)
		}
	}
}

func TestGetPlayer_Unknown(t *testing.T) {
	store := NewMemoryStore()
	p, err := store.GetPlayer(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("GetPlayer failed: %v", err)
	}
	if p != nil {
		t.Errorf("expected nil for unknown player, got %+v", p)
	}
}

func TestGetPlayerTrades_LimitAndOrder(t *testing.T) {
	store := NewMemoryStore()
	_, player := seedPlayer(t, store)
	ctx := context.Background()

	tickers := []string{"AAPL", "TSLA", "NVDA"}
	for _, ticker := range tickers {
		trade := models.NewTrade(player.ID, ticker, models.TradeSideBuy, decimal.NewFromInt(1), decimal.NewFromInt(10), player.CreatedAt)
		if err := store.CreateTrade(ctx, trade); err != nil {
			t.Fatalf("CreateTrade failed: %v", err)
		}
	}

	trades, err := store.GetPlayerTrades(ctx, player.ID, 2)
	if err != nil {
		t.Fatalf("GetPlayerTrades failed: %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	if trades[0].Ticker != "NVDA" || trades[1].Ticker != "TSLA" {
		t.Errorf("expected newest first (NVDA, TSLA), got (%s, %s)", trades[0].Ticker, trades[1].Ticker)
	}
}
