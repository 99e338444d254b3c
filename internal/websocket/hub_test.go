package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub, room string) *Client {
	return &Client{
		hub:  hub,
		room: room,
		send: make(chan []byte, sendBufferSize),
	}
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data := <-c.send:
		var got Message
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return got
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
	}
	return Message{}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(discard)

	c1 := mockClient(hub, "Flatmates")
	c2 := mockClient(hub, "Flatmates")
	c3 := mockClient(hub, "Other")

	hub.Register(c1)
	hub.Register(c2)
	hub.Register(c3)

	if got := hub.ClientCount("Flatmates"); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}
	if got := hub.Total(); got != 3 {
		t.Fatalf("expected 3 clients total, got %d", got)
	}

	hub.Unregister(c1)
	if got := hub.ClientCount("Flatmates"); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}

	hub.Unregister(c2)
	hub.Unregister(c3)
	if got := hub.Total(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
	if len(hub.rooms) != 0 {
		t.Errorf("expected empty rooms to be dropped, got %d", len(hub.rooms))
	}
}

func TestDoubleUnregister(t *testing.T) {
	hub := NewHub(discard)
	c := mockClient(hub, "Flatmates")
	hub.Register(c)
	hub.Unregister(c)
	// Should not panic
	hub.Unregister(c)

	if got := hub.ClientCount("Flatmates"); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestBroadcastStaysInRoom(t *testing.T) {
	hub := NewHub(discard)

	alice := mockClient(hub, "Flatmates")
	bob := mockClient(hub, "Flatmates")
	carol := mockClient(hub, "Other")
	for _, c := range []*Client{alice, bob, carol} {
		hub.Register(c)
	}

	hub.Broadcast("Flatmates", NewMessage("shopping_item", "created", 42, map[string]any{"name": "Milk"}))

	for _, c := range []*Client{alice, bob} {
		got := receive(t, c)
		if got.Type != "shopping_item_created" {
			t.Errorf("expected type shopping_item_created, got %s", got.Type)
		}
		if got.ID != 42 {
			t.Errorf("expected id 42, got %d", got.ID)
		}
		if got.Extra["name"] != "Milk" {
			t.Errorf("expected extra name Milk, got %v", got.Extra["name"])
		}
	}

	select {
	case data := <-carol.send:
		t.Errorf("message leaked to another household: %s", data)
	default:
	}
}

func TestBroadcastEmptyRoom(t *testing.T) {
	hub := NewHub(discard)
	// Should not panic
	hub.Broadcast("Nobody", NewMessage("member", "joined", 1, nil))
}

func TestBroadcastFullBuffer(t *testing.T) {
	hub := NewHub(discard)

	c := mockClient(hub, "Flatmates")
	hub.Register(c)

	for i := 0; i < sendBufferSize; i++ {
		hub.Broadcast("Flatmates", NewMessage("test", "fill", int64(i), nil))
	}

	// This should drop the message, not panic or block
	hub.Broadcast("Flatmates", NewMessage("test", "dropped", 999, nil))

	if got := len(c.send); got != sendBufferSize {
		t.Errorf("expected %d buffered messages, got %d", sendBufferSize, got)
	}

	hub.Unregister(c)
}

func TestCloseAll(t *testing.T) {
	hub := NewHub(discard)
	c1 := mockClient(hub, "Flatmates")
	c2 := mockClient(hub, "Other")
	hub.Register(c1)
	hub.Register(c2)

	hub.CloseAll()

	for _, c := range []*Client{c1, c2} {
		if _, ok := <-c.send; ok {
			t.Error("expected send channel to be closed")
		}
	}
	if got := hub.Total(); got != 0 {
		t.Errorf("expected 0 clients, got %d", got)
	}

	// Unregister after CloseAll must not close the channel twice.
	hub.Unregister(c1)
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage("member", "joined", 5, nil)
	if msg.Type != "member_joined" {
		t.Errorf("expected type member_joined, got %s", msg.Type)
	}
	if msg.Entity != "member" {
		t.Errorf("expected entity member, got %s", msg.Entity)
	}
	if msg.Action != "joined" {
		t.Errorf("expected action joined, got %s", msg.Action)
	}
	if msg.ID != 5 {
		t.Errorf("expected id 5, got %d", msg.ID)
	}
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(discard)
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		room := "Flatmates"
		if i%2 == 0 {
			room = "Other"
		}
		go func() {
			defer wg.Done()
			c := mockClient(hub, room)
			hub.Register(c)
			hub.Broadcast(room, NewMessage("test", "concurrent", 0, nil))
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}()
	}

	wg.Wait()

	if got := hub.Total(); got != 0 {
		t.Errorf("expected 0 clients after concurrent test, got %d", got)
	}
}
