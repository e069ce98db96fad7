package ws

import (
	"encoding/json"
	"testing"

	"wordstake_backend/internal/domain"
)

func testClient(hub *Hub, wallet, gameID string) *Client {
	return NewClient(wallet, gameID, nil, hub)
}

func TestHubPublishReachesSubscribers(t *testing.T) {
	hub := NewHub()
	c1 := testClient(hub, "alice", "g1")
	c2 := testClient(hub, "bob", "g1")
	other := testClient(hub, "carol", "g2")

	hub.Subscribe("g1", c1)
	hub.Subscribe("g1", c2)
	hub.Subscribe("g2", other)

	hub.PublishGame(&domain.GameRecord{ID: "g1", Status: domain.GameStatusPlaying})

	for _, c := range []*Client{c1, c2} {
		select {
		case msg := <-c.send:
			var ev Event
			if err := json.Unmarshal(msg, &ev); err != nil {
				t.Fatalf("bad payload: %v", err)
			}
			if ev.Type != "game_update" {
				t.Errorf("type = %q, want game_update", ev.Type)
			}
		default:
			t.Fatalf("subscriber %s got no message", c.Wallet)
		}
	}

	select {
	case <-other.send:
		t.Fatal("subscriber of another game received the broadcast")
	default:
	}
}

func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub()
	c := testClient(hub, "alice", "g1")

	hub.Subscribe("g1", c)
	if hub.Subscribers("g1") != 1 {
		t.Fatal("expected one subscriber")
	}

	hub.Unsubscribe("g1", c)
	if hub.Subscribers("g1") != 0 {
		t.Fatal("expected no subscribers")
	}

	hub.PublishGame(&domain.GameRecord{ID: "g1"})
	select {
	case <-c.send:
		t.Fatal("unsubscribed client received a broadcast")
	default:
	}
}

func TestHubSlowSubscriberIsSkipped(t *testing.T) {
	hub := NewHub()
	c := NewClient("alice", "g1", nil, hub)
	hub.Subscribe("g1", c)

	// fill the buffer; further publishes must not block
	for i := 0; i < cap(c.send)+10; i++ {
		hub.PublishGame(&domain.GameRecord{ID: "g1"})
	}
}
