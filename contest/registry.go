// Package contest manages contest creation and player admission.
package contest

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"trading-contest/models"
	"trading-contest/observability"
	"trading-contest/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrContestNotFound = errors.New("contest not found or not active")
	ErrInvalidContest  = errors.New("contest name and positive starting balance are required")
	ErrInvalidPlayer   = errors.New("player name is required")
)

const joinCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Registry creates contests and admits players.
type Registry struct {
	store repository.Store
}

func New(store repository.Store) *Registry {
	return &Registry{store: store}
}

// CreateContest persists a new active contest with a join code that no
// existing contest holds.
func (r *Registry) CreateContest(ctx context.Context, name, winCondition string, startingBalance decimal.Decimal) (*models.Contest, error) {
	if name == "" || !startingBalance.IsPositive() {
		return nil, ErrInvalidContest
	}

	joinCode, err := r.generateJoinCode(ctx)
	if err != nil {
		return nil, err
	}

	contest := models.NewContest(name, winCondition, startingBalance, joinCode)
	if err := r.store.CreateContest(ctx, contest); err != nil {
		return nil, err
	}

	observability.Info("contest created",
		"contest_id", contest.ID,
		"join_code", contest.JoinCode,
		"starting_balance", startingBalance.String())
	return contest, nil
}

// JoinContest admits a player into the active contest holding the join
// code. The player's cash balance starts at the contest's starting
// balance. Codes are matched exactly as stored (upper-case); the HTTP
// layer canonicalizes case before calling.
func (r *Registry) JoinContest(ctx context.Context, joinCode, playerName string) (*models.Player, error) {
	if playerName == "" {
		return nil, ErrInvalidPlayer
	}

	c, err := r.store.GetActiveContestByJoinCode(ctx, joinCode)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrContestNotFound
	}

	player := models.NewPlayer(c, playerName)
	if err := r.store.CreatePlayer(ctx, player); err != nil {
		return nil, err
	}

	observability.Info("player joined contest",
		"contest_id", c.ID,
		"player_id", player.ID,
		"player_name", playerName)
	return player, nil
}

// ActiveContests returns all contests that still admit players.
func (r *Registry) ActiveContests(ctx context.Context) ([]models.Contest, error) {
	return r.store.GetActiveContests(ctx)
}

// ContestPlayers returns a contest's players in join order.
func (r *Registry) ContestPlayers(ctx context.Context, contestID uuid.UUID) ([]models.Player, error) {
	return r.store.GetContestPlayers(ctx, contestID)
}

// generateJoinCode draws 6 upper-alphanumeric characters repeatedly
// until the code collides with no stored contest.
func (r *Registry) generateJoinCode(ctx context.Context) (string, error) {
	for {
		code, err := randomCode(models.JoinCodeLength)
		if err != nil {
			return "", err
		}
		exists, err := r.store.JoinCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
}

func randomCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate join code: %w", err)
	}
	for i, b := range buf {
		buf[i] = joinCodeCharset[int(b)%len(joinCodeCharset)]
	}
	return string(buf), nil
}
