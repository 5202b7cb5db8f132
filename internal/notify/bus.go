// Package notify delivers post-commit change events to the presentation
// layer. Publishers only call Publish after the underlying mutation is
// durable, so a subscriber never observes state that could still roll back.
package notify

import (
	"sync"
	"time"

	"runner-progression/internal/constants"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type EventType string

const (
	EventCardUpgraded        EventType = "card_upgraded"
	EventCardAcquired        EventType = "card_acquired"
	EventDeckChanged         EventType = "deck_changed"
	EventRankChanged         EventType = "rank_changed"
	EventCurrencyGranted     EventType = "currency_granted"
	EventSeasonRewardGranted EventType = "season_reward_granted"
)

type Event struct {
	ID       string         `json:"id"`
	PlayerID string         `json:"player_id"`
	Type     EventType      `json:"type"`
	Payload  map[string]any `json:"payload,omitempty"`
	At       time.Time      `json:"at"`
}

type subscriber struct {
	playerID string
	ch       chan Event
}

// Bus fans events out to per-player subscribers. Delivery is best effort: a
// subscriber that stops draining loses events rather than stalling the
// engine.
type Bus struct {
	mu     sync.RWMutex
	subs   map[*subscriber]struct{}
	logger zerolog.Logger
}

func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		subs:   make(map[*subscriber]struct{}),
		logger: logger,
	}
}

// Subscribe registers for one player's events. The returned cancel func
// unregisters and closes the channel.
func (b *Bus) Subscribe(playerID string) (<-chan Event, func()) {
	sub := &subscriber{
		playerID: playerID,
		ch:       make(chan Event, constants.NotifyBufferSize),
	}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[sub]; ok {
			delete(b.subs, sub)
			close(sub.ch)
		}
		b.mu.Unlock()
	}
	return sub.ch, cancel
}

// Publish delivers the event to every subscriber of its player.
func (b *Bus) Publish(playerID string, eventType EventType, payload map[string]any) {
	id, err := gonanoid.New()
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to generate event id")
		return
	}

	event := Event{
		ID:       id,
		PlayerID: playerID,
		Type:     eventType,
		Payload:  payload,
		At:       time.Now(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs {
		if sub.playerID != playerID {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			b.logger.Warn().
				Str("player_id", playerID).
				Str("event_type", string(eventType)).
				Msg("subscriber buffer full, dropping event")
		}
	}

	b.logger.Debug().
		Str("player_id", playerID).
		Str("event_type", string(eventType)).
		Str("event_id", id).
		Msg("event published")
}
