package server

import (
	"encoding/json"
	"testing"
	"time"
)

func TestBrokerPublishSubscribe(t *testing.T) {
	b := NewBroker()

	ch := b.Subscribe("session-1")
	defer b.Unsubscribe("session-1", ch)

	other := b.Subscribe("session-2")
	defer b.Unsubscribe("session-2", other)

	b.Publish("session-1", Event{Type: EventScoreUpdate, TeamName: "De Fietsers", TotalScore: 42})

	select {
	case data := <-ch:
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("decoding event: %v", err)
		}
		if ev.Type != EventScoreUpdate || ev.TeamName != "De Fietsers" || ev.TotalScore != 42 {
			t.Errorf("event = %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}

	select {
	case <-other:
		t.Fatal("event leaked to another session")
	default:
	}
}

func TestBrokerUnsubscribe(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("session-1")
	b.Unsubscribe("session-1", ch)

	b.Publish("session-1", Event{Type: EventSessionStatusChanged, Status: "paused"})

	select {
	case <-ch:
		t.Fatal("event delivered after unsubscribe")
	default:
	}
}

func TestBrokerDropsWhenSlow(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("session-1")
	defer b.Unsubscribe("session-1", ch)

	// Fill the buffer and keep publishing; the broker must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish("session-1", Event{Type: EventCheckpointUnlocked, CheckpointIndex: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}
