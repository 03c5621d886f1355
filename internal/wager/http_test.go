package wager_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/oddspool/wager-engine/internal/model"
	"github.com/oddspool/wager-engine/internal/store"
	"github.com/oddspool/wager-engine/internal/treasury"
	"github.com/oddspool/wager-engine/internal/wager"
)

func newTestRouter(t *testing.T, bettors ...string) (*chi.Mux, *treasury.MemoryTreasury) {
	t.Helper()
	ms := store.NewMemoryStore()
	tr := treasury.NewMemoryTreasury()
	for _, b := range bettors {
		tr.Deposit(b, d(100000))
	}
	svc := wager.NewService(ms, tr, nil, nil, owner)
	r := chi.NewRouter()
	wager.NewHandler(svc).Routes(r)
	return r, tr
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
}

func TestHTTP_EventLifecycle(t *testing.T) {
	r, _ := newTestRouter(t, "alice", "bob")

	rec := doJSON(t, r, http.MethodPost, "/events", wager.CreateEventRequest{
		Title:    "Cup Final",
		Outcomes: []string{"A", "B"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create event: got %d, body %s", rec.Code, rec.Body.String())
	}
	var event model.Event
	decodeBody(t, rec, &event)
	if event.ID != 1 || event.Title != "Cup Final" || event.Resolved {
		t.Errorf("unexpected event: %+v", event)
	}

	rec = doJSON(t, r, http.MethodGet, "/events/1", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("get event: got %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodGet, "/events", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list events: got %d", rec.Code)
	}
	var events []model.Event
	decodeBody(t, rec, &events)
	if len(events) != 1 {
		t.Errorf("expected 1 event, got %d", len(events))
	}
}

func TestHTTP_CreateEvent_BadOutcomes(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/events", wager.CreateEventRequest{
		Title:    "Bad",
		Outcomes: []string{"A", "A"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHTTP_BetAndClaimFlow(t *testing.T) {
	r, tr := newTestRouter(t, "alice", "bob")

	doJSON(t, r, http.MethodPost, "/events", wager.CreateEventRequest{
		Title: "Match", Outcomes: []string{"A", "B"},
	})

	rec := doJSON(t, r, http.MethodPost, "/bets", wager.PlaceBetRequest{
		EventID: 1, Bettor: "alice", Amount: d(100), Outcome: "A", BetType: "single",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("place bet: got %d, body %s", rec.Code, rec.Body.String())
	}
	var bet model.Bet
	decodeBody(t, rec, &bet)
	if bet.ID != 1 || !bet.Amount.Equal(d(100)) {
		t.Errorf("unexpected bet: %+v", bet)
	}

	doJSON(t, r, http.MethodPost, "/bets", wager.PlaceBetRequest{
		EventID: 1, Bettor: "bob", Amount: d(300), Outcome: "B", BetType: "single",
	})

	rec = doJSON(t, r, http.MethodGet, "/events/1/odds?outcome=A", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("odds: got %d", rec.Code)
	}
	var oddsResp map[string]decimal.Decimal
	decodeBody(t, rec, &oddsResp)
	if !oddsResp["A"].Equal(d(400)) {
		t.Errorf("expected odds[A]=400, got %s", oddsResp["A"])
	}

	// Claim before resolution conflicts.
	rec = doJSON(t, r, http.MethodPost, "/bets/1/claim", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("claim before resolve: expected 409, got %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodPost, "/events/1/resolve", wager.ResolveEventRequest{
		Actor: owner, WinningOutcome: "A",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("resolve: got %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodPost, "/bets/1/claim", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("claim: got %d, body %s", rec.Code, rec.Body.String())
	}
	var claim wager.ClaimResponse
	decodeBody(t, rec, &claim)
	if !claim.Payout.Equal(d(400)) {
		t.Errorf("expected payout=400, got %s", claim.Payout)
	}
	if !tr.Balance("alice").Equal(d(100300)) {
		t.Errorf("expected alice=100300, got %s", tr.Balance("alice"))
	}

	// Second claim and losing claim both conflict.
	if rec := doJSON(t, r, http.MethodPost, "/bets/1/claim", nil); rec.Code != http.StatusConflict {
		t.Errorf("double claim: expected 409, got %d", rec.Code)
	}
	if rec := doJSON(t, r, http.MethodPost, "/bets/2/claim", nil); rec.Code != http.StatusConflict {
		t.Errorf("losing claim: expected 409, got %d", rec.Code)
	}
}

func TestHTTP_ListEventBets(t *testing.T) {
	r, _ := newTestRouter(t, "alice", "bob")

	doJSON(t, r, http.MethodPost, "/events", wager.CreateEventRequest{
		Title: "Match", Outcomes: []string{"A", "B"},
	})
	doJSON(t, r, http.MethodPost, "/bets", wager.PlaceBetRequest{
		EventID: 1, Bettor: "alice", Amount: d(100), Outcome: "A", BetType: "single",
	})
	doJSON(t, r, http.MethodPost, "/bets", wager.PlaceBetRequest{
		EventID: 1, Bettor: "bob", Amount: d(300), Outcome: "B", BetType: "single",
	})

	rec := doJSON(t, r, http.MethodGet, "/events/1/bets", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list event bets: got %d", rec.Code)
	}
	var bets []model.Bet
	decodeBody(t, rec, &bets)
	if len(bets) != 2 || bets[0].Bettor != "alice" || bets[1].Bettor != "bob" {
		t.Errorf("unexpected bets: %+v", bets)
	}

	if rec := doJSON(t, r, http.MethodGet, "/events/42/bets", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing event: expected 404, got %d", rec.Code)
	}
}

func TestHTTP_ResolveUnauthorized(t *testing.T) {
	r, _ := newTestRouter(t)

	doJSON(t, r, http.MethodPost, "/events", wager.CreateEventRequest{
		Title: "Match", Outcomes: []string{"A", "B"},
	})

	rec := doJSON(t, r, http.MethodPost, "/events/1/resolve", wager.ResolveEventRequest{
		Actor: "mallory", WinningOutcome: "A",
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestHTTP_ParlayWithoutDetails(t *testing.T) {
	r, _ := newTestRouter(t, "alice")

	doJSON(t, r, http.MethodPost, "/events", wager.CreateEventRequest{
		Title: "Match", Outcomes: []string{"A", "B"},
	})

	rec := doJSON(t, r, http.MethodPost, "/bets", wager.PlaceBetRequest{
		EventID: 1, Bettor: "alice", Amount: d(10), Outcome: "A", BetType: "parlay",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestHTTP_NotFoundAndBadIDs(t *testing.T) {
	r, _ := newTestRouter(t)

	if rec := doJSON(t, r, http.MethodGet, "/events/42", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing event: expected 404, got %d", rec.Code)
	}
	if rec := doJSON(t, r, http.MethodGet, "/bets/42", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing bet: expected 404, got %d", rec.Code)
	}
	if rec := doJSON(t, r, http.MethodGet, "/events/abc", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: expected 400, got %d", rec.Code)
	}
	if rec := doJSON(t, r, http.MethodGet, "/bets", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("list bets without bettor: expected 400, got %d", rec.Code)
	}
}

func TestHTTP_PoolAndAdmin(t *testing.T) {
	r, _ := newTestRouter(t, "alice")

	doJSON(t, r, http.MethodPost, "/events", wager.CreateEventRequest{
		Title: "Match", Outcomes: []string{"A", "B"},
	})
	doJSON(t, r, http.MethodPost, "/bets", wager.PlaceBetRequest{
		EventID: 1, Bettor: "alice", Amount: d(250), Outcome: "A", BetType: "single",
	})

	rec := doJSON(t, r, http.MethodGet, "/pool", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("pool: got %d", rec.Code)
	}
	var pool map[string]decimal.Decimal
	decodeBody(t, rec, &pool)
	if !pool["balance"].Equal(d(250)) {
		t.Errorf("expected pool=250, got %s", pool["balance"])
	}

	rec = doJSON(t, r, http.MethodPost, "/admin/withdraw", wager.WithdrawRequest{
		Actor: "mallory", Amount: d(10),
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("withdraw by stranger: expected 403, got %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodPost, "/admin/transfer-ownership", wager.TransferOwnershipRequest{
		Actor: owner, NewOwner: "alice",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("transfer: got %d, body %s", rec.Code, rec.Body.String())
	}

	// Authority moved; the old owner can no longer withdraw.
	rec = doJSON(t, r, http.MethodPost, "/admin/withdraw", wager.WithdrawRequest{
		Actor: owner, Amount: d(10),
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("withdraw by old owner: expected 403, got %d", rec.Code)
	}
	rec = doJSON(t, r, http.MethodPost, "/admin/withdraw", wager.WithdrawRequest{
		Actor: "alice", Amount: d(10),
	})
	if rec.Code != http.StatusOK {
		t.Errorf("withdraw by new owner: got %d, body %s", rec.Code, rec.Body.String())
	}
}
