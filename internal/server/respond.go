package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"runner-progression/internal/domain"
	"runner-progression/internal/service"

	"github.com/rs/zerolog"
)

func writeJSON(w http.ResponseWriter, status int, v any, logger zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

type errorResponse struct {
	Error   string         `json:"error"`
	Reason  string         `json:"reason"`
	Details map[string]any `json:"details,omitempty"`
}

// writeError maps domain errors onto stable machine-readable reasons with
// enough detail for a specific user-facing message.
func writeError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	status := http.StatusInternalServerError
	reason := "internal"
	var details map[string]any

	switch {
	case errors.Is(err, domain.ErrNotFound):
		status, reason = http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrInsufficientFunds):
		status, reason = http.StatusPaymentRequired, "insufficient_funds"
	case errors.Is(err, domain.ErrInsufficientCopies):
		status, reason = http.StatusConflict, "insufficient_copies"
	case errors.Is(err, domain.ErrDeckFull):
		status, reason = http.StatusConflict, "deck_full"
	case errors.Is(err, domain.ErrSeasonOpen):
		status, reason = http.StatusConflict, "season_open"
	case errors.Is(err, domain.ErrNotSkillCard):
		status, reason = http.StatusBadRequest, "not_skill_card"
	case errors.Is(err, domain.ErrInvalidAmount):
		status, reason = http.StatusBadRequest, "invalid_amount"
	case errors.Is(err, domain.ErrOutOfRange):
		status, reason = http.StatusBadRequest, "out_of_range"
	case errors.Is(err, domain.ErrPersistenceUnavailable):
		status, reason = http.StatusServiceUnavailable, "persistence_unavailable"
	case errors.Is(err, domain.ErrInvariantViolation):
		status, reason = http.StatusInternalServerError, "invariant_violation"
	}

	var rejection *service.UpgradeRejection
	if errors.As(err, &rejection) {
		details = map[string]any{
			"copies_needed": rejection.CopiesNeeded,
			"copies_held":   rejection.CopiesHeld,
			"coin_cost":     rejection.CoinCost,
		}
		if errors.Is(err, domain.ErrInsufficientFunds) {
			details["coin_balance"] = rejection.CoinBalance
			details["coin_shortfall"] = rejection.CoinShortfall
		}
		if errors.Is(err, domain.ErrInsufficientCopies) {
			details["copies_shortage"] = rejection.CopiesShortage
		}
	}

	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("reason", reason).Msg("request failed")
	}

	writeJSON(w, status, errorResponse{
		Error:   err.Error(),
		Reason:  reason,
		Details: details,
	}, logger)
}

func writeBadRequest(w http.ResponseWriter, msg string, logger zerolog.Logger) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg, Reason: "bad_request"}, logger)
}
