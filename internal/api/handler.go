package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"trading-contest/config"
	"trading-contest/contest"
	"trading-contest/internal/app"
	"trading-contest/leaderboard"
	"trading-contest/ledger"
	"trading-contest/models"
	"trading-contest/observability"
	"trading-contest/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// maxScreenshotBytes caps uploaded screenshot size at 10 MB.
const maxScreenshotBytes = 10 << 20

var tickerPattern = regexp.MustCompile(`^[A-Z0-9.-]+$`)

// Handler handles HTTP API requests
type Handler struct {
	app *app.App
	cfg *config.Config
}

// NewHandler creates a new Handler
func NewHandler(application *app.App, cfg *config.Config) *Handler {
	return &Handler{app: application, cfg: cfg}
}

// HandleHealth returns the health status of the application
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status": "ok",
		"services": map[string]string{
			"database": "unknown",
		},
	}

	if h.app.Store() != nil {
		if err := h.app.Store().Health(r.Context()); err == nil {
			status["services"].(map[string]string)["database"] = "connected"
		} else {
			status["services"].(map[string]string)["database"] = "disconnected"
			status["status"] = "degraded"
		}
	} else {
		status["services"].(map[string]string)["database"] = "not_configured"
	}

	cbStatus := services.GetGlobalRegistry().Status()
	status["circuit_breakers"] = cbStatus

	for _, cb := range cbStatus {
		if cb.State == "open" {
			status["status"] = "degraded"
			break
		}
	}

	h.jsonResponse(w, status)
}

// CreateContestRequest is the body of POST /api/contests.
type CreateContestRequest struct {
	Name            string `json:"name"`
	WinCondition    string `json:"win_condition"`
	StartingBalance string `json:"starting_balance,omitempty"`
}

// HandleCreateContest creates a new contest
func (h *Handler) HandleCreateContest(w http.ResponseWriter, r *http.Request) {
	var req CreateContestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid JSON request", http.StatusBadRequest)
		return
	}

	var balance *decimal.Decimal
	if req.StartingBalance != "" {
		parsed, err := decimal.NewFromString(req.StartingBalance)
		if err != nil {
			h.jsonError(w, "invalid starting_balance", http.StatusBadRequest)
			return
		}
		balance = &parsed
	}

	c, err := h.app.CreateContest(r.Context(), strings.TrimSpace(req.Name), strings.TrimSpace(req.WinCondition), balance)
	if err != nil {
		h.domainError(w, err)
		return
	}

	h.jsonCreated(w, c)
}

// HandleGetContests returns all active contests
func (h *Handler) HandleGetContests(w http.ResponseWriter, r *http.Request) {
	contests, err := h.app.ActiveContests(r.Context())
	if err != nil {
		h.domainError(w, err)
		return
	}
	h.jsonResponse(w, contests)
}

// JoinContestRequest is the body of POST /api/contests/join.
type JoinContestRequest struct {
	JoinCode   string `json:"join_code"`
	PlayerName string `json:"player_name"`
}

// HandleJoinContest admits a player into a contest by join code
func (h *Handler) HandleJoinContest(w http.ResponseWriter, r *http.Request) {
	var req JoinContestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid JSON request", http.StatusBadRequest)
		return
	}

	// Codes are stored upper-case; accept any case from clients.
	joinCode := strings.ToUpper(strings.TrimSpace(req.JoinCode))
	if joinCode == "" {
		h.jsonError(w, "join_code is required", http.StatusBadRequest)
		return
	}

	player, err := h.app.JoinContest(r.Context(), joinCode, strings.TrimSpace(req.PlayerName))
	if err != nil {
		h.domainError(w, err)
		return
	}

	h.jsonCreated(w, player)
}

// HandleGetContestPlayers returns a contest's players in join order
func (h *Handler) HandleGetContestPlayers(w http.ResponseWriter, r *http.Request) {
	contestID, ok := h.parseIDParam(w, r, "id")
	if !ok {
		return
	}

	players, err := h.app.ContestPlayers(r.Context(), contestID)
	if err != nil {
		h.domainError(w, err)
		return
	}
	h.jsonResponse(w, players)
}

// HandleGetLeaderboard returns contest standings ranked by total profit
func (h *Handler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	contestID, ok := h.parseIDParam(w, r, "id")
	if !ok {
		return
	}

	entries, err := h.app.Leaderboard(r.Context(), contestID)
	if err != nil {
		h.domainError(w, err)
		return
	}
	h.jsonResponse(w, entries)
}

// HandleGetContestTrades returns all contest trades, newest first
func (h *Handler) HandleGetContestTrades(w http.ResponseWriter, r *http.Request) {
	contestID, ok := h.parseIDParam(w, r, "id")
	if !ok {
		return
	}

	trades, err := h.app.ContestTrades(r.Context(), contestID)
	if err != nil {
		h.domainError(w, err)
		return
	}
	h.jsonResponse(w, trades)
}

// HandleCompleteContest ends a contest and pays out the winner
func (h *Handler) HandleCompleteContest(w http.ResponseWriter, r *http.Request) {
	contestID, ok := h.parseIDParam(w, r, "id")
	if !ok {
		return
	}

	result, err := h.app.CompleteContest(r.Context(), contestID)
	if err != nil {
		h.domainError(w, err)
		return
	}
	h.jsonResponse(w, result)
}

// SubmitTradeRequest is the body of POST /api/players/{id}/trades.
type SubmitTradeRequest struct {
	Ticker    string `json:"ticker"`
	Side      string `json:"side"`
	Quantity  string `json:"quantity"`
	Price     string `json:"price"`
	TradeDate string `json:"trade_date,omitempty"` // YYYY-MM-DD, defaults to today
}

// HandleSubmitTrade applies one confirmed trade to a player's ledger
func (h *Handler) HandleSubmitTrade(w http.ResponseWriter, r *http.Request) {
	playerID, ok := h.parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req SubmitTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid JSON request", http.StatusBadRequest)
		return
	}

	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	if err := validateTicker(ticker); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	side := models.TradeSide(strings.ToLower(strings.TrimSpace(req.Side)))

	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		h.jsonError(w, "invalid quantity", http.StatusBadRequest)
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		h.jsonError(w, "invalid price", http.StatusBadRequest)
		return
	}

	tradeDate := time.Now().UTC()
	if req.TradeDate != "" {
		tradeDate, err = time.Parse("2006-01-02", req.TradeDate)
		if err != nil {
			h.jsonError(w, "invalid trade_date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}

	trade, err := h.app.SubmitTrade(r.Context(), playerID, ticker, side, quantity, price, tradeDate)
	if err != nil {
		observability.WithRequestID(middleware.GetReqID(r.Context())).Warn("trade rejected",
			"player_id", playerID, "ticker", ticker, "side", side, "error", err)
		h.domainError(w, err)
		return
	}

	h.jsonCreated(w, trade)
}

// HandleGetPlayerPositions returns a player's open positions
func (h *Handler) HandleGetPlayerPositions(w http.ResponseWriter, r *http.Request) {
	playerID, ok := h.parseIDParam(w, r, "id")
	if !ok {
		return
	}

	positions, err := h.app.PlayerPositions(r.Context(), playerID)
	if err != nil {
		h.domainError(w, err)
		return
	}
	h.jsonResponse(w, positions)
}

// HandleGetPlayerTrades returns a player's trades, newest first
func (h *Handler) HandleGetPlayerTrades(w http.ResponseWriter, r *http.Request) {
	playerID, ok := h.parseIDParam(w, r, "id")
	if !ok {
		return
	}

	limit := parseLimitParam(r, 50)

	trades, err := h.app.PlayerTrades(r.Context(), playerID, limit)
	if err != nil {
		h.domainError(w, err)
		return
	}
	h.jsonResponse(w, trades)
}

// HandleExtractTrade runs screenshot extraction on an uploaded image.
// Provider failures return HTTP 200 with success=false: the client shows
// the diagnostic and lets the user correct or retry.
func (h *Handler) HandleExtractTrade(w http.ResponseWriter, r *http.Request) {
	if !h.app.HasExtractor() {
		h.jsonError(w, "screenshot extraction not configured", http.StatusServiceUnavailable)
		return
	}

	if err := r.ParseMultipartForm(maxScreenshotBytes); err != nil {
		h.jsonError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		h.jsonError(w, "image file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	// Read one byte past the cap so an oversized upload is detected
	// instead of silently truncated.
	image, err := io.ReadAll(io.LimitReader(file, maxScreenshotBytes+1))
	if err != nil {
		h.jsonError(w, "failed to read image", http.StatusBadRequest)
		return
	}
	if len(image) == 0 {
		h.jsonError(w, "image file is empty", http.StatusBadRequest)
		return
	}
	if len(image) > maxScreenshotBytes {
		h.jsonError(w, "image exceeds the 10 MB limit", http.StatusRequestEntityTooLarge)
		return
	}

	result, err := h.app.ExtractTrade(r.Context(), image)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	h.jsonResponse(w, result)
}

// Helper functions

// parseIDParam parses a UUID path parameter, writing a 400 on failure.
func (h *Handler) parseIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		h.jsonError(w, fmt.Sprintf("invalid %s: must be a UUID", name), http.StatusBadRequest)
		return uuid.UUID{}, false
	}
	return id, true
}

// parseLimitParam parses the limit query parameter
func parseLimitParam(r *http.Request, defaultLimit int) int {
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			return l
		}
	}
	return defaultLimit
}

// validateTicker validates a ticker symbol
func validateTicker(ticker string) error {
	if ticker == "" {
		return fmt.Errorf("ticker is required")
	}
	if len(ticker) > 10 {
		return fmt.Errorf("ticker too long (max 10 characters)")
	}
	if !tickerPattern.MatchString(ticker) {
		return fmt.Errorf("invalid ticker format (alphanumeric, dots, and dashes only)")
	}
	return nil
}

// domainError maps domain sentinel errors onto HTTP status codes.
func (h *Handler) domainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, contest.ErrContestNotFound),
		errors.Is(err, leaderboard.ErrContestNotFound),
		errors.Is(err, ledger.ErrPlayerNotFound):
		status = http.StatusNotFound
	case errors.Is(err, contest.ErrInvalidContest),
		errors.Is(err, contest.ErrInvalidPlayer),
		errors.Is(err, ledger.ErrInvalidTrade):
		status = http.StatusBadRequest
	case errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrOversell),
		errors.Is(err, ledger.ErrNoPosition),
		errors.Is(err, leaderboard.ErrContestNotActive):
		status = http.StatusUnprocessableEntity
	}
	h.jsonError(w, err.Error(), status)
}

func (h *Handler) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonCreated(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
