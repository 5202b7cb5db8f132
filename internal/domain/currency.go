package domain

import (
	"fmt"
	"math"
	"time"
)

type CurrencyKind string

const (
	CurrencySoft    CurrencyKind = "soft"
	CurrencyPremium CurrencyKind = "premium"
)

func ParseCurrencyKind(s string) (CurrencyKind, error) {
	switch CurrencyKind(s) {
	case CurrencySoft, CurrencyPremium:
		return CurrencyKind(s), nil
	default:
		return "", fmt.Errorf("unknown currency kind %q", s)
	}
}

// Ledger holds the two independent per-player balances. Balances are
// unsigned; a debit that would cross zero fails closed.
type Ledger struct {
	PlayerID  string
	Soft      uint64
	Premium   uint64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (l *Ledger) Balance(kind CurrencyKind) uint64 {
	if kind == CurrencyPremium {
		return l.Premium
	}
	return l.Soft
}

// MaxBalance caps balances at what a signed 64-bit storage column can hold.
const MaxBalance uint64 = math.MaxInt64

// AddBalance returns base+amount, rejecting overflow instead of wrapping.
func AddBalance(base, amount uint64) (uint64, error) {
	if base > MaxBalance || amount > MaxBalance-base {
		return 0, ErrOutOfRange
	}
	return base + amount, nil
}

// CurrencyGrant records one applied storefront grant. The source transaction
// id is the idempotency key: replaying the same grant is a no-op that
// returns the recorded row.
type CurrencyGrant struct {
	PlayerID            string
	SourceTransactionID string
	Kind                CurrencyKind
	Amount              uint64
	CreatedAt           time.Time
}
