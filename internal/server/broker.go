package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Event is the payload pushed to session subscribers. Delivery is
// at-most-once and best-effort: consumers treat it as a hint to re-fetch
// authoritative state, never as the sole source of truth.
type Event struct {
	Type            string `json:"type"`
	TeamName        string `json:"teamName,omitempty"`
	TotalScore      int    `json:"totalScore,omitempty"`
	CheckpointIndex int    `json:"checkpointIndex,omitempty"`
	Status          string `json:"status,omitempty"`
}

const (
	EventScoreUpdate          = "scoreUpdate"
	EventCheckpointUnlocked   = "checkpointUnlocked"
	EventSessionStatusChanged = "sessionStatusChanged"
	EventTeamJoined           = "teamJoined"
)

// Broker is an in-process pub/sub for realtime events, keyed by session ID.
// With a Redis client attached it doubles as a backplane so events reach
// subscribers on other instances.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}

	rdb    *redis.Client
	logger *slog.Logger
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events for the
// given session.
func (b *Broker) Subscribe(sessionID string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[chan []byte]struct{})
	}
	b.subs[sessionID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the session's subscribers.
func (b *Broker) Unsubscribe(sessionID string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[sessionID], ch)
	if len(b.subs[sessionID]) == 0 {
		delete(b.subs, sessionID)
	}
	b.mu.Unlock()
}

// Publish sends an event to all subscribers of the session. With a Redis
// backplane attached the event goes through Redis so every instance,
// including this one, delivers it exactly once; without one it is delivered
// in-process.
func (b *Broker) Publish(sessionID string, event Event) {
	data, _ := json.Marshal(event)

	if b.rdb != nil {
		if err := b.rdb.Publish(context.Background(), backplaneChannel(sessionID), data).Err(); err == nil {
			return
		} else if b.logger != nil {
			b.logger.Warn("backplane publish failed, delivering locally", "session", sessionID, "error", err)
		}
	}
	b.deliver(sessionID, data)
}

func (b *Broker) deliver(sessionID string, data []byte) {
	b.mu.RLock()
	for ch := range b.subs[sessionID] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}

func backplaneChannel(sessionID string) string {
	return "impacttour:session:" + sessionID
}

// AttachBackplane connects the broker to Redis pub/sub and starts a
// goroutine fanning remote events into local subscribers. Runs until ctx is
// cancelled. A broken backplane degrades to per-instance delivery, it never
// fails requests.
func (b *Broker) AttachBackplane(ctx context.Context, rdb *redis.Client, logger *slog.Logger) {
	b.rdb = rdb
	b.logger = logger

	sub := rdb.PSubscribe(ctx, backplaneChannel("*"))
	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				sessionID := msg.Channel[len(backplaneChannel("")):]
				b.deliver(sessionID, []byte(msg.Payload))
			}
		}
	}()
}
