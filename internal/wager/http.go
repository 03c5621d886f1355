package wager

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/oddspool/wager-engine/internal/limits"
	"github.com/oddspool/wager-engine/internal/model"
	"github.com/oddspool/wager-engine/internal/odds"
	"github.com/oddspool/wager-engine/internal/treasury"
)

// Handler exposes the engine over HTTP.
type Handler struct {
	svc      *Service
	validate *validator.Validate
}

// NewHandler creates the HTTP layer over a Service.
func NewHandler(svc *Service) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

// Routes mounts all engine endpoints on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/events", h.ListEvents)
	r.Post("/events", h.CreateEvent)
	r.Get("/events/{eventID}", h.GetEvent)
	r.Get("/events/{eventID}/odds", h.GetOdds)
	r.Get("/events/{eventID}/bets", h.ListEventBets)
	r.Post("/events/{eventID}/resolve", h.ResolveEvent)

	r.Get("/bets", h.ListBets)
	r.Post("/bets", h.PlaceBet)
	r.Get("/bets/{betID}", h.GetBet)
	r.Post("/bets/{betID}/claim", h.ClaimWinnings)

	r.Get("/pool", h.GetPool)
	r.Post("/admin/transfer-ownership", h.TransferOwnership)
	r.Post("/admin/withdraw", h.WithdrawPoolFunds)
}

// --- Request types ---

// CreateEventRequest is the JSON body for event creation.
type CreateEventRequest struct {
	Title            string           `json:"title" validate:"required"`
	Outcomes         []string         `json:"outcomes" validate:"required"`
	PointSpread      *int64           `json:"point_spread,omitempty"`
	TotalScoreTarget *decimal.Decimal `json:"total_score_target,omitempty"`
}

// PlaceBetRequest is the JSON body for POST /bets. Details carries the
// bet-type-specific payload: a comma-separated event id list for parlays,
// a numeric threshold for over-unders.
type PlaceBetRequest struct {
	EventID int64           `json:"event_id" validate:"required"`
	Bettor  string          `json:"bettor" validate:"required"`
	Amount  decimal.Decimal `json:"amount"`
	Outcome string          `json:"outcome" validate:"required"`
	BetType string          `json:"bet_type" validate:"required"`
	Details string          `json:"details,omitempty"`
}

// ResolveEventRequest is the JSON body for POST /events/{eventID}/resolve.
type ResolveEventRequest struct {
	Actor          string           `json:"actor" validate:"required"`
	WinningOutcome string           `json:"winning_outcome" validate:"required"`
	FinalScore     *decimal.Decimal `json:"final_score,omitempty"`
}

// TransferOwnershipRequest is the JSON body for ownership transfer.
type TransferOwnershipRequest struct {
	Actor    string `json:"actor" validate:"required"`
	NewOwner string `json:"new_owner" validate:"required"`
}

// WithdrawRequest is the JSON body for pool withdrawal.
type WithdrawRequest struct {
	Actor  string          `json:"actor" validate:"required"`
	Amount decimal.Decimal `json:"amount"`
}

// ClaimResponse is the JSON body returned from a successful claim.
type ClaimResponse struct {
	BetID  int64           `json:"bet_id"`
	Payout decimal.Decimal `json:"payout"`
}

// --- Handlers ---

// CreateEvent handles POST /api/v1/events
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !h.decode(w, r, &req) {
		return
	}

	event, err := h.svc.CreateEvent(r.Context(), req.Title, req.Outcomes, req.PointSpread, req.TotalScoreTarget)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// GetEvent handles GET /api/v1/events/{eventID}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	event, err := h.svc.GetEvent(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// ListEvents handles GET /api/v1/events
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.ListEvents(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// GetOdds handles GET /api/v1/events/{eventID}/odds?outcome=A
// Without an outcome parameter it returns the odds for both outcomes.
func (h *Handler) GetOdds(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}

	if outcome := r.URL.Query().Get("outcome"); outcome != "" {
		o, err := h.svc.OddsForOutcome(r.Context(), id, outcome)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]decimal.Decimal{outcome: o})
		return
	}

	event, err := h.svc.GetEvent(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make(map[string]decimal.Decimal, 2)
	for _, outcome := range event.Outcomes {
		if o, err := h.svc.OddsForOutcome(r.Context(), id, outcome); err == nil {
			resp[outcome] = o
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListEventBets handles GET /api/v1/events/{eventID}/bets
func (h *Handler) ListEventBets(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	bets, err := h.svc.ListBetsByEvent(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if bets == nil {
		bets = []model.Bet{}
	}
	writeJSON(w, http.StatusOK, bets)
}

// PlaceBet handles POST /api/v1/bets
func (h *Handler) PlaceBet(w http.ResponseWriter, r *http.Request) {
	var req PlaceBetRequest
	if !h.decode(w, r, &req) {
		return
	}

	bet, err := h.svc.PlaceBet(r.Context(), PlaceBetParams{
		EventID: req.EventID,
		Bettor:  req.Bettor,
		Amount:  req.Amount,
		Outcome: req.Outcome,
		Type:    model.BetType(req.BetType),
		Details: req.Details,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bet)
}

// GetBet handles GET /api/v1/bets/{betID}
func (h *Handler) GetBet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "betID")
	if !ok {
		return
	}
	bet, err := h.svc.GetBet(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bet)
}

// ListBets handles GET /api/v1/bets?bettor=alice
func (h *Handler) ListBets(w http.ResponseWriter, r *http.Request) {
	bettor := r.URL.Query().Get("bettor")
	if bettor == "" {
		writeJSONError(w, "bettor query parameter is required", http.StatusBadRequest)
		return
	}
	bets, err := h.svc.ListBetsByBettor(r.Context(), bettor)
	if err != nil {
		writeError(w, err)
		return
	}
	if bets == nil {
		bets = []model.Bet{}
	}
	writeJSON(w, http.StatusOK, bets)
}

// ResolveEvent handles POST /api/v1/events/{eventID}/resolve
func (h *Handler) ResolveEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	var req ResolveEventRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.svc.ResolveEvent(r.Context(), req.Actor, id, req.WinningOutcome, req.FinalScore); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"event_id": id})
}

// ClaimWinnings handles POST /api/v1/bets/{betID}/claim
func (h *Handler) ClaimWinnings(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "betID")
	if !ok {
		return
	}

	payout, err := h.svc.ClaimWinnings(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ClaimResponse{BetID: id, Payout: payout})
}

// GetPool handles GET /api/v1/pool
func (h *Handler) GetPool(w http.ResponseWriter, r *http.Request) {
	balance, err := h.svc.PoolBalance(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"balance": balance})
}

// TransferOwnership handles POST /api/v1/admin/transfer-ownership
func (h *Handler) TransferOwnership(w http.ResponseWriter, r *http.Request) {
	var req TransferOwnershipRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.svc.TransferOwnership(r.Context(), req.Actor, req.NewOwner); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"owner": req.NewOwner})
}

// WithdrawPoolFunds handles POST /api/v1/admin/withdraw
func (h *Handler) WithdrawPoolFunds(w http.ResponseWriter, r *http.Request) {
	var req WithdrawRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.svc.WithdrawPoolFunds(r.Context(), req.Actor, req.Amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"withdrawn": req.Amount.String()})
}

// --- helpers ---

// decode unmarshals and validates a JSON request body, writing a 400 on
// failure. Returns false if the request was rejected.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, "invalid "+param, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// writeError maps engine sentinels to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	writeJSONError(w, err.Error(), statusFor(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrEventNotFound), errors.Is(err, ErrBetNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidOutcomeSet),
		errors.Is(err, ErrInvalidOutcome),
		errors.Is(err, ErrInvalidBetType),
		errors.Is(err, ErrInvalidBetDetails),
		errors.Is(err, ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, ErrEventAlreadyResolved),
		errors.Is(err, ErrEventNotResolved),
		errors.Is(err, ErrAlreadyClaimed),
		errors.Is(err, ErrNotAWinner),
		errors.Is(err, ErrMissingData),
		errors.Is(err, treasury.ErrInsufficientFunds),
		errors.Is(err, odds.ErrZeroOutcomePool),
		errors.Is(err, limits.ErrPerEventLimitExceeded),
		errors.Is(err, limits.ErrOpenStakeLimitExceeded):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
