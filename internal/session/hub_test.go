package session

import (
	"sync"
	"testing"

	"bridgequest/internal/models"
)

func newRecordingClient(id string) (*Client, *[]models.GameEvent, *sync.Mutex) {
	client := NewClient(id, nil)
	var mu sync.Mutex
	received := &[]models.GameEvent{}
	client.SetSendHook(func(event models.GameEvent) {
		mu.Lock()
		*received = append(*received, event)
		mu.Unlock()
	})
	return client, received, &mu
}

func TestRoomJoinLeave(t *testing.T) {
	room := NewRoom("lobby:1")
	a, _, _ := newRecordingClient("a")
	b, _, _ := newRecordingClient("b")

	room.Join(a)
	room.Join(b)
	if room.ClientCount() != 2 {
		t.Fatalf("expected 2 clients, got %d", room.ClientCount())
	}

	if left := room.Leave(a); left != 1 {
		t.Fatalf("expected 1 remaining, got %d", left)
	}
	if left := room.Leave(b); left != 0 {
		t.Fatalf("expected empty room, got %d", left)
	}

	// Leaving twice must not panic or go negative.
	if left := room.Leave(b); left != 0 {
		t.Fatalf("expected empty room, got %d", left)
	}
}

func TestRoomBroadcast(t *testing.T) {
	room := NewRoom("lobby:1")
	a, gotA, muA := newRecordingClient("a")
	b, gotB, muB := newRecordingClient("b")
	room.Join(a)
	room.Join(b)

	room.Broadcast(models.GameEvent{Type: "player_joined"})

	muA.Lock()
	defer muA.Unlock()
	muB.Lock()
	defer muB.Unlock()
	if len(*gotA) != 1 || (*gotA)[0].Type != "player_joined" {
		t.Fatalf("client a did not receive the event")
	}
	if len(*gotB) != 1 {
		t.Fatalf("client b did not receive the event")
	}
}

func TestHubGetOrCreate(t *testing.T) {
	hub := NewHub()

	room := hub.GetOrCreate("lobby:1")
	if room != hub.GetOrCreate("lobby:1") {
		t.Fatalf("expected the same room instance for one channel")
	}
	if room == hub.GetOrCreate("game:1") {
		t.Fatalf("expected distinct rooms per channel")
	}
}

func TestHubDispatch(t *testing.T) {
	hub := NewHub()
	client, got, mu := newRecordingClient("a")
	hub.GetOrCreate("lobby:1").Join(client)

	hub.Dispatch("lobby:1", models.GameEvent{Type: "player_joined"})
	// Unknown channels are dropped silently.
	hub.Dispatch("lobby:99", models.GameEvent{Type: "player_joined"})

	mu.Lock()
	defer mu.Unlock()
	if len(*got) != 1 {
		t.Fatalf("expected exactly one delivery, got %d", len(*got))
	}
}

func TestHubClientCount(t *testing.T) {
	hub := NewHub()
	if hub.ClientCount("lobby:1") != 0 {
		t.Fatalf("expected 0 for unknown channel")
	}

	client, _, _ := newRecordingClient("a")
	hub.GetOrCreate("lobby:1").Join(client)
	if hub.ClientCount("lobby:1") != 1 {
		t.Fatalf("expected 1 client")
	}

	hub.Delete("lobby:1")
	if hub.ClientCount("lobby:1") != 0 {
		t.Fatalf("expected 0 after delete")
	}
}

func TestClientSendWithoutConn(t *testing.T) {
	// A client with neither hook nor connection must not panic.
	client := NewClient("a", nil)
	client.Send(models.GameEvent{Type: "noop"})
}
