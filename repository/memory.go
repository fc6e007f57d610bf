package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"trading-contest/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryStore is an in-memory Store used when DATABASE_URL is not set
// and throughout the test suite. Data does not survive a restart.
type MemoryStore struct {
	mu        sync.Mutex
	contests  map[uuid.UUID]models.Contest
	players   map[uuid.UUID]models.Player
	positions map[uuid.UUID]models.Position
	trades    []models.Trade

	// playerOrder preserves join order per contest for stable
	// leaderboard ties.
	playerOrder map[uuid.UUID][]uuid.UUID

	// inTx guards against nested transactions; the parent MemoryStore
	// holds the lock for the duration of InTx.
	inTx bool
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		contests:    make(map[uuid.UUID]models.Contest),
		players:     make(map[uuid.UUID]models.Player),
		positions:   make(map[uuid.UUID]models.Position),
		playerOrder: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (m *MemoryStore) Close() {}

func (m *MemoryStore) Health(ctx context.Context) error { return nil }

// InTx snapshots the store, runs fn, and restores the snapshot if fn
// fails. This gives the same all-or-nothing guarantee the PostgreSQL
// transaction does.
func (m *MemoryStore) InTx(ctx context.Context, fn func(Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.copyState()

	tx := &MemoryStore{
		contests:    m.contests,
		players:     m.players,
		positions:   m.positions,
		trades:      m.trades,
		playerOrder: m.playerOrder,
		inTx:        true,
	}

	if err := fn(tx); err != nil {
		m.contests = snapshot.contests
		m.players = snapshot.players
		m.positions = snapshot.positions
		m.trades = snapshot.trades
		m.playerOrder = snapshot.playerOrder
		return err
	}

	// fn mutated the tx view's maps; slices may have been reallocated.
	m.trades = tx.trades
	return nil
}

func (m *MemoryStore) copyState() *MemoryStore {
	s := NewMemoryStore()
	for k, v := range m.contests {
		s.contests[k] = v
	}
	for k, v := range m.players {
		s.players[k] = v
	}
	for k, v := range m.positions {
		s.positions[k] = v
	}
	s.trades = append([]models.Trade(nil), m.trades...)
	for k, v := range m.playerOrder {
		s.playerOrder[k] = append([]uuid.UUID(nil), v...)
	}
	return s
}

func (m *MemoryStore) lock() func() {
	if m.inTx {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

// Contests

func (m *MemoryStore) CreateContest(ctx context.Context, contest *models.Contest) error {
	defer m.lock()()
	m.contests[contest.ID] = *contest
	return nil
}

func (m *MemoryStore) GetContest(ctx context.Context, id uuid.UUID) (*models.Contest, error) {
	defer m.lock()()
	if c, ok := m.contests[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (m *MemoryStore) GetActiveContestByJoinCode(ctx context.Context, joinCode string) (*models.Contest, error) {
	defer m.lock()()
	for _, c := range m.contests {
		if c.JoinCode == joinCode && c.Status == models.ContestStatusActive {
			contest := c
			return &contest, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) JoinCodeExists(ctx context.Context, joinCode string) (bool, error) {
	defer m.lock()()
	for _, c := range m.contests {
		if c.JoinCode == joinCode {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) GetActiveContests(ctx context.Context) ([]models.Contest, error) {
	defer m.lock()()
	var contests []models.Contest
	for _, c := range m.contests {
		if c.Status == models.ContestStatusActive {
			contests = append(contests, c)
		}
	}
	sort.Slice(contests, func(i, j int) bool {
		return contests[i].CreatedAt.After(contests[j].CreatedAt)
	})
	return contests, nil
}

func (m *MemoryStore) UpdateContestStatus(ctx context.Context, id uuid.UUID, status models.ContestStatus) error {
	defer m.lock()()
	if c, ok := m.contests[id]; ok {
		c.Status = status
		m.contests[id] = c
	}
	return nil
}

// Players

func (m *MemoryStore) CreatePlayer(ctx context.Context, player *models.Player) error {
	defer m.lock()()
	m.players[player.ID] = *player
	m.playerOrder[player.ContestID] = append(m.playerOrder[player.ContestID], player.ID)
	return nil
}

func (m *MemoryStore) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	defer m.lock()()
	if p, ok := m.players[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (m *MemoryStore) GetContestPlayers(ctx context.Context, contestID uuid.UUID) ([]models.Player, error) {
	defer m.lock()()
	var players []models.Player
	for _, id := range m.playerOrder[contestID] {
		if p, ok := m.players[id]; ok {
			players = append(players, p)
		}
	}
	return players, nil
}

func (m *MemoryStore) UpdatePlayerCash(ctx context.Context, id uuid.UUID, cashBalance decimal.Decimal) error {
	defer m.lock()()
	if p, ok := m.players[id]; ok {
		p.CashBalance = cashBalance
		m.players[id] = p
	}
	return nil
}

// Positions

func (m *MemoryStore) GetPlayerPositions(ctx context.Context, playerID uuid.UUID) ([]models.Position, error) {
	defer m.lock()()
	var positions []models.Position
	for _, p := range m.positions {
		if p.PlayerID == playerID {
			positions = append(positions, p)
		}
	}
	sort.Slice(positions, func(i, j int) bool {
		return strings.Compare(positions[i].Ticker, positions[j].Ticker) < 0
	})
	return positions, nil
}

func (m *MemoryStore) GetPositionByTicker(ctx context.Context, playerID uuid.UUID, ticker string) (*models.Position, error) {
	defer m.lock()()
	for _, p := range m.positions {
		if p.PlayerID == playerID && p.Ticker == ticker {
			pos := p
			return &pos, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) CreatePosition(ctx context.Context, pos *models.Position) error {
	defer m.lock()()
	m.positions[pos.ID] = *pos
	return nil
}

func (m *MemoryStore) UpdatePosition(ctx context.Context, pos *models.Position) error {
	defer m.lock()()
	m.positions[pos.ID] = *pos
	return nil
}

func (m *MemoryStore) DeletePosition(ctx context.Context, id uuid.UUID) error {
	defer m.lock()()
	delete(m.positions, id)
	return nil
}

// Trades

func (m *MemoryStore) CreateTrade(ctx context.Context, trade *models.Trade) error {
	defer m.lock()()
	m.trades = append(m.trades, *trade)
	return nil
}

func (m *MemoryStore) GetPlayerTrades(ctx context.Context, playerID uuid.UUID, limit int) ([]models.Trade, error) {
	defer m.lock()()
	if limit <= 0 {
		limit = 50
	}
	var trades []models.Trade
	// trades are appended in creation order; walk backwards for newest first
	for i := len(m.trades) - 1; i >= 0 && len(trades) < limit; i-- {
		if m.trades[i].PlayerID == playerID {
			trades = append(trades, m.trades[i])
		}
	}
	return trades, nil
}

func (m *MemoryStore) GetContestTrades(ctx context.Context, contestID uuid.UUID) ([]models.Trade, error) {
	defer m.lock()()
	var trades []models.Trade
	for i := len(m.trades) - 1; i >= 0; i-- {
		if p, ok := m.players[m.trades[i].PlayerID]; ok && p.ContestID == contestID {
			trades = append(trades, m.trades[i])
		}
	}
	return trades, nil
}
