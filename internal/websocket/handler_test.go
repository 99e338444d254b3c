package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/coder/websocket"
	"go.uber.org/goleak"

	"github.com/dukerupert/roomies/internal/auth"
)

func withHousehold(household string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := auth.With(r.Context(), auth.Context{UserID: 1, Household: household})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func waitForClients(t *testing.T, hub *Hub, room string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount(room) != want {
		if time.Now().After(deadline) {
			t.Fatalf("room %q has %d clients, want %d", room, hub.ClientCount(room), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHandleWebSocketDelivers(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	hub := NewHub(discard)
	srv := httptest.NewServer(withHousehold("Flatmates", HandleWebSocket(hub, discard)))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := ws.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	waitForClients(t, hub, "Flatmates", 1)
	hub.Broadcast("Flatmates", NewMessage("shopping_item", "checked", 3, nil))

	typ, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if typ != ws.MessageText {
		t.Errorf("message type = %v, want text", typ)
	}
	var got Message
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Type != "shopping_item_checked" {
		t.Errorf("type = %q, want %q", got.Type, "shopping_item_checked")
	}

	conn.Close(ws.StatusNormalClosure, "")
	waitForClients(t, hub, "Flatmates", 0)
}

func TestHandleWebSocketCloseAll(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	hub := NewHub(discard)
	srv := httptest.NewServer(withHousehold("Flatmates", HandleWebSocket(hub, discard)))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	waitForClients(t, hub, "Flatmates", 1)
	hub.CloseAll()

	if _, _, err := conn.Read(ctx); err == nil {
		t.Error("expected read to fail after shutdown")
	}
	waitForClients(t, hub, "Flatmates", 0)
}

func TestHandleWebSocketRequiresHousehold(t *testing.T) {
	hub := NewHub(discard)
	handler := HandleWebSocket(hub, discard)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/ws", nil))

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}
