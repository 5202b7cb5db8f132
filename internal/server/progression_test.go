package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"runner-progression/internal/database/dbtest"
	"runner-progression/internal/notify"
	"runner-progression/internal/repository"
	"runner-progression/internal/service"

	"github.com/rs/zerolog"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	db := dbtest.Open(t)
	logger := zerolog.Nop()
	bus := notify.NewBus(logger)
	guard := service.NewPlayerGuard()

	ledgerRepo := repository.NewLedgerRepository(db, logger)
	grantRepo := repository.NewGrantRepository(db, logger)
	collectionRepo := repository.NewCollectionRepository(db, logger)
	deckRepo := repository.NewDeckRepository(db, logger)
	rankRepo := repository.NewRankRepository(db, logger)
	seasonRepo := repository.NewSeasonRepository(db, logger)

	srv := NewProgressionServer(
		service.NewLedgerService(db, ledgerRepo, grantRepo, guard, bus, logger),
		service.NewCollectionService(db, collectionRepo, guard, bus, logger),
		service.NewUpgradeService(db, collectionRepo, ledgerRepo, guard, bus, logger),
		service.NewDeckService(db, deckRepo, collectionRepo, guard, bus, logger),
		service.NewRankService(db, rankRepo, seasonRepo, guard, bus, logger),
		service.NewSeasonService(db, seasonRepo, ledgerRepo, guard, bus, logger),
		bus,
		logger,
	)
	return srv.Routes()
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	rec := doJSON(t, newTestRouter(t), http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d, want 200", rec.Code)
	}
}

func TestMatchResultEndpoint(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/players/p1/match-results", map[string]any{
		"trophy_delta": 550,
		"season_id":    "s1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var got struct {
		Trophies int64 `json:"trophies"`
		Tier     struct {
			ID string `json:"id"`
		} `json:"tier"`
	}
	decodeBody(t, rec, &got)
	if got.Trophies != 550 || got.Tier.ID != "silver" {
		t.Fatalf("response = %d trophies / tier %q, want 550 / silver", got.Trophies, got.Tier.ID)
	}
}

func TestUpgradeEndpointReportsShortfall(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	// Own a common card with enough copies but an empty wallet.
	rec := doJSON(t, router, http.MethodPost, "/players/p1/cards", map[string]any{
		"card_id": "dash", "kind": "skill", "count": 3,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("acquire status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/players/p1/cards/dash/upgrade", nil)
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("upgrade status = %d, want 402 (body %s)", rec.Code, rec.Body.String())
	}

	var got struct {
		Reason  string `json:"reason"`
		Details struct {
			CoinCost      uint64 `json:"coin_cost"`
			CoinBalance   uint64 `json:"coin_balance"`
			CoinShortfall uint64 `json:"coin_shortfall"`
		} `json:"details"`
	}
	decodeBody(t, rec, &got)
	if got.Reason != "insufficient_funds" {
		t.Errorf("reason = %q, want insufficient_funds", got.Reason)
	}
	if got.Details.CoinCost != 100 || got.Details.CoinBalance != 0 || got.Details.CoinShortfall != 100 {
		t.Errorf("details = %+v, want cost 100 / balance 0 / shortfall 100", got.Details)
	}
}

func TestGrantEndpointIdempotent(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	body := map[string]any{"kind": "soft", "amount": 400, "source_transaction_id": "tx-9"}

	for i, wantApplied := range []bool{true, false} {
		rec := doJSON(t, router, http.MethodPost, "/players/p1/grants", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("grant %d status = %d, body %s", i, rec.Code, rec.Body.String())
		}
		var got struct {
			Applied bool `json:"applied"`
			Ledger  struct {
				Soft uint64 `json:"soft"`
			} `json:"ledger"`
		}
		decodeBody(t, rec, &got)
		if got.Applied != wantApplied {
			t.Errorf("grant %d applied = %v, want %v", i, got.Applied, wantApplied)
		}
		if got.Ledger.Soft != 400 {
			t.Errorf("grant %d soft balance = %d, want 400", i, got.Ledger.Soft)
		}
	}
}

func TestGrantEndpointRejectsMissingTransactionID(t *testing.T) {
	t.Parallel()

	rec := doJSON(t, newTestRouter(t), http.MethodPost, "/players/p1/grants", map[string]any{
		"kind": "soft", "amount": 400,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestDeckEndpointFullConflict(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	ids := []string{"a", "b", "c", "d", "e"}
	for _, id := range ids {
		rec := doJSON(t, router, http.MethodPost, "/players/p1/cards", map[string]any{
			"card_id": id, "kind": "skill", "count": 1,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("acquire %s status = %d", id, rec.Code)
		}
	}
	for _, id := range ids[:4] {
		rec := doJSON(t, router, http.MethodPost, "/players/p1/deck/"+id+"/toggle", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("toggle %s status = %d, body %s", id, rec.Code, rec.Body.String())
		}
	}

	rec := doJSON(t, router, http.MethodPost, "/players/p1/deck/e/toggle", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("toggle on full deck status = %d, want 409 (body %s)", rec.Code, rec.Body.String())
	}
	var got struct {
		Reason string `json:"reason"`
	}
	decodeBody(t, rec, &got)
	if got.Reason != "deck_full" {
		t.Errorf("reason = %q, want deck_full", got.Reason)
	}
}

func TestSeasonEndpointsSettlementFlow(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/players/p1/match-results", map[string]any{
		"trophy_delta": 4820, "season_id": "s1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("match result status = %d", rec.Code)
	}

	// Claim before close is a conflict.
	rec = doJSON(t, router, http.MethodPost, "/players/p1/seasons/s1/claim", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("claim while open status = %d, want 409", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/players/p1/seasons/s1/close", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("close status = %d, body %s", rec.Code, rec.Body.String())
	}
	var season struct {
		GemReward uint64 `json:"gem_reward"`
		Closed    bool   `json:"closed"`
	}
	decodeBody(t, rec, &season)
	if !season.Closed || season.GemReward != 98 {
		t.Fatalf("season = %+v, want closed with reward 98", season)
	}

	rec = doJSON(t, router, http.MethodPost, "/players/p1/seasons/s1/claim", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("claim status = %d, body %s", rec.Code, rec.Body.String())
	}
	var claim struct {
		Granted        uint64 `json:"granted"`
		AlreadyClaimed bool   `json:"already_claimed"`
	}
	decodeBody(t, rec, &claim)
	if claim.Granted != 98 || claim.AlreadyClaimed {
		t.Fatalf("claim = %+v, want fresh grant of 98", claim)
	}

	rec = doJSON(t, router, http.MethodGet, "/players/p1/ledger", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ledger status = %d", rec.Code)
	}
	var ledger struct {
		Premium uint64 `json:"premium"`
	}
	decodeBody(t, rec, &ledger)
	if ledger.Premium != 98 {
		t.Fatalf("premium balance = %d, want 98", ledger.Premium)
	}
}
