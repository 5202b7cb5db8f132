package server

import (
	"encoding/json"
	"net/http"

	"runner-progression/internal/domain"
	"runner-progression/internal/notify"
	"runner-progression/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// ProgressionServer exposes the progression engine to the presentation layer
// and to the match-result and storefront intakes.
type ProgressionServer struct {
	ledgerSvc     *service.LedgerService
	collectionSvc *service.CollectionService
	upgradeSvc    *service.UpgradeService
	deckSvc       *service.DeckService
	rankSvc       *service.RankService
	seasonSvc     *service.SeasonService
	bus           *notify.Bus
	logger        zerolog.Logger
}

func NewProgressionServer(
	ledgerSvc *service.LedgerService,
	collectionSvc *service.CollectionService,
	upgradeSvc *service.UpgradeService,
	deckSvc *service.DeckService,
	rankSvc *service.RankService,
	seasonSvc *service.SeasonService,
	bus *notify.Bus,
	logger zerolog.Logger,
) *ProgressionServer {
	return &ProgressionServer{
		ledgerSvc:     ledgerSvc,
		collectionSvc: collectionSvc,
		upgradeSvc:    upgradeSvc,
		deckSvc:       deckSvc,
		rankSvc:       rankSvc,
		seasonSvc:     seasonSvc,
		bus:           bus,
		logger:        logger,
	}
}

// Routes registers every endpoint on a fresh router.
func (s *ProgressionServer) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.logger)
	})

	r.Route("/players/{playerID}", func(r chi.Router) {
		r.Post("/match-results", s.handleReportMatchResult)
		r.Post("/grants", s.handleGrantCurrency)
		r.Post("/cards", s.handleAcquireCard)
		r.Post("/cards/{cardID}/upgrade", s.handleUpgradeCard)
		r.Post("/deck/{cardID}/toggle", s.handleToggleDeckSlot)
		r.Post("/seasons/{seasonID}/close", s.handleCloseSeason)
		r.Post("/seasons/{seasonID}/claim", s.handleClaimSeasonReward)

		r.Get("/rank", s.handleGetRank)
		r.Get("/collection", s.handleGetCollection)
		r.Get("/deck", s.handleGetDeck)
		r.Get("/ledger", s.handleGetLedger)
		r.Get("/seasons/{seasonID}", s.handleGetSeason)
		r.Get("/events", s.handleEvents)
	})

	return r
}

type matchResultRequest struct {
	TrophyDelta int64  `json:"trophy_delta"`
	SeasonID    string `json:"season_id,omitempty"`
}

func (s *ProgressionServer) handleReportMatchResult(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")

	var req matchResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body", s.logger)
		return
	}

	state, err := s.rankSvc.ApplyMatchResult(r.Context(), playerID, req.TrophyDelta, req.SeasonID)
	if err != nil {
		writeError(w, err, s.logger)
		return
	}
	writeJSON(w, http.StatusOK, toRankView(state), s.logger)
}

type grantRequest struct {
	Kind                string `json:"kind"`
	Amount              uint64 `json:"amount"`
	SourceTransactionID string `json:"source_transaction_id"`
}

type grantResponse struct {
	Applied bool       `json:"applied"`
	Kind    string     `json:"kind"`
	Amount  uint64     `json:"amount"`
	Ledger  ledgerView `json:"ledger"`
}

func (s *ProgressionServer) handleGrantCurrency(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")

	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body", s.logger)
		return
	}
	kind, err := domain.ParseCurrencyKind(req.Kind)
	if err != nil {
		writeBadRequest(w, err.Error(), s.logger)
		return
	}
	if req.SourceTransactionID == "" {
		writeBadRequest(w, "source_transaction_id is required", s.logger)
		return
	}

	grant, applied, err := s.ledgerSvc.Grant(r.Context(), playerID, kind, req.Amount, req.SourceTransactionID)
	if err != nil {
		writeError(w, err, s.logger)
		return
	}

	ledger, err := s.ledgerSvc.Ledger(r.Context(), playerID)
	if err != nil {
		writeError(w, err, s.logger)
		return
	}

	writeJSON(w, http.StatusOK, grantResponse{
		Applied: applied,
		Kind:    string(grant.Kind),
		Amount:  grant.Amount,
		Ledger:  toLedgerView(ledger),
	}, s.logger)
}

type acquireRequest struct {
	CardID string `json:"card_id"`
	Kind   string `json:"kind"`
	Count  uint   `json:"count"`
}

func (s *ProgressionServer) handleAcquireCard(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")

	var req acquireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body", s.logger)
		return
	}
	if req.CardID == "" {
		writeBadRequest(w, "card_id is required", s.logger)
		return
	}
	kind, err := domain.ParseCardKind(req.Kind)
	if err != nil {
		writeBadRequest(w, err.Error(), s.logger)
		return
	}
	count := req.Count
	if count == 0 {
		count = 1
	}

	record, err := s.collectionSvc.Acquire(r.Context(), playerID, req.CardID, kind, count)
	if err != nil {
		writeError(w, err, s.logger)
		return
	}
	writeJSON(w, http.StatusOK, toCardView(*record), s.logger)
}

type upgradeResponse struct {
	Card           cardView `json:"card"`
	CopiesConsumed uint     `json:"copies_consumed"`
	CoinCost       uint64   `json:"coin_cost"`
}

func (s *ProgressionServer) handleUpgradeCard(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	cardID := chi.URLParam(r, "cardID")

	result, err := s.upgradeSvc.Upgrade(r.Context(), playerID, cardID)
	if err != nil {
		writeError(w, err, s.logger)
		return
	}
	writeJSON(w, http.StatusOK, upgradeResponse{
		Card:           toCardView(result.Record),
		CopiesConsumed: result.CopiesConsumed,
		CoinCost:       result.CoinCost,
	}, s.logger)
}

type toggleResponse struct {
	Added bool     `json:"added"`
	Deck  deckView `json:"deck"`
}

func (s *ProgressionServer) handleToggleDeckSlot(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	cardID := chi.URLParam(r, "cardID")

	added, deck, err := s.deckSvc.Toggle(r.Context(), playerID, cardID)
	if err != nil {
		writeError(w, err, s.logger)
		return
	}
	writeJSON(w, http.StatusOK, toggleResponse{Added: added, Deck: toDeckView(deck)}, s.logger)
}

func (s *ProgressionServer) handleCloseSeason(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	seasonID := chi.URLParam(r, "seasonID")

	record, err := s.seasonSvc.Close(r.Context(), playerID, seasonID)
	if err != nil {
		writeError(w, err, s.logger)
		return
	}
	writeJSON(w, http.StatusOK, toSeasonView(record), s.logger)
}

type claimResponse struct {
	Granted        uint64 `json:"granted"`
	AlreadyClaimed bool   `json:"already_claimed"`
}

func (s *ProgressionServer) handleClaimSeasonReward(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	seasonID := chi.URLParam(r, "seasonID")

	result, err := s.seasonSvc.Claim(r.Context(), playerID, seasonID)
	if err != nil {
		writeError(w, err, s.logger)
		return
	}
	writeJSON(w, http.StatusOK, claimResponse{
		Granted:        result.Granted,
		AlreadyClaimed: result.AlreadyClaimed,
	}, s.logger)
}

func (s *ProgressionServer) handleGetRank(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")

	state, err := s.rankSvc.Rank(r.Context(), playerID)
	if err != nil {
		writeError(w, err, s.logger)
		return
	}
	writeJSON(w, http.StatusOK, toRankView(state), s.logger)
}

func (s *ProgressionServer) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")

	records, err := s.collectionSvc.Collection(r.Context(), playerID)
	if err != nil {
		writeError(w, err, s.logger)
		return
	}

	views := make([]cardView, 0, len(records))
	for _, record := range records {
		views = append(views, toCardView(record))
	}
	writeJSON(w, http.StatusOK, map[string]any{"cards": views}, s.logger)
}

func (s *ProgressionServer) handleGetDeck(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")

	slots, err := s.deckSvc.Deck(r.Context(), playerID)
	if err != nil {
		writeError(w, err, s.logger)
		return
	}
	writeJSON(w, http.StatusOK, toDeckView(slots), s.logger)
}

func (s *ProgressionServer) handleGetLedger(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")

	ledger, err := s.ledgerSvc.Ledger(r.Context(), playerID)
	if err != nil {
		writeError(w, err, s.logger)
		return
	}
	writeJSON(w, http.StatusOK, toLedgerView(ledger), s.logger)
}

func (s *ProgressionServer) handleGetSeason(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	seasonID := chi.URLParam(r, "seasonID")

	record, err := s.seasonSvc.Season(r.Context(), playerID, seasonID)
	if err != nil {
		writeError(w, err, s.logger)
		return
	}
	writeJSON(w, http.StatusOK, toSeasonView(record), s.logger)
}

// handleEvents streams post-commit change notifications as server-sent
// events until the client disconnects.
func (s *ProgressionServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeBadRequest(w, "streaming unsupported", s.logger)
		return
	}

	events, cancel := s.bus.Subscribe(playerID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	encoder := json.NewEncoder(w)
	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if _, err := w.Write([]byte("data: ")); err != nil {
				return
			}
			if err := encoder.Encode(event); err != nil {
				return
			}
			if _, err := w.Write([]byte("\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
