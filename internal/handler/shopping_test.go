package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/dukerupert/roomies/internal/auth"
	"github.com/dukerupert/roomies/internal/database"
	"github.com/dukerupert/roomies/internal/model"
	"github.com/dukerupert/roomies/internal/store"
	ws "github.com/dukerupert/roomies/internal/websocket"
)

type recordingHub struct {
	mu   sync.Mutex
	sent map[string][]ws.Message
}

func (h *recordingHub) Broadcast(room string, msg ws.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sent == nil {
		h.sent = make(map[string][]ws.Message)
	}
	h.sent[room] = append(h.sent[room], msg)
}

type shoppingFixture struct {
	h     *ShoppingHandler
	items *store.ShoppingStore
	hub   *recordingHub
	ac    auth.Context
	mux   *http.ServeMux
}

func newShoppingFixture(t *testing.T) shoppingFixture {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	u, err := store.NewUserStore(db).Create(ctx, "alice", "x")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := store.NewHouseholdStore(db).Create(ctx, "Flatmates", u.ID); err != nil {
		t.Fatalf("create household: %v", err)
	}

	items := store.NewShoppingStore(db)
	hub := &recordingHub{}
	h := NewShoppingHandler(items, hub, newTestRenderer(t), discard)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /shopping", h.Page)
	mux.HandleFunc("POST /shopping/items", h.AddItem)
	mux.HandleFunc("POST /shopping/items/{id}/check", h.ToggleItem)
	mux.HandleFunc("POST /shopping/clear-checked", h.ClearChecked)

	return shoppingFixture{
		h:     h,
		items: items,
		hub:   hub,
		ac:    auth.Context{UserID: u.ID, Household: "Flatmates", SessionID: 1},
		mux:   mux,
	}
}

func (f shoppingFixture) do(t *testing.T, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req = req.WithContext(auth.With(req.Context(), f.ac))
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func TestAddItemAutoCategorizes(t *testing.T) {
	f := newShoppingFixture(t)

	rec := f.do(t, "POST", "/shopping/items", url.Values{"name": {"2 milk"}})
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
	}
	if loc := rec.Header().Get("Location"); loc != "/shopping" {
		t.Errorf("Location = %q, want /shopping", loc)
	}

	items, _ := f.items.ListItems(context.Background(), "Flatmates")
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	got := items[0]
	if got.Name != "milk" || got.Quantity != "2" || got.Category != "Dairy" {
		t.Errorf("item = %+v, want milk x2 in Dairy", got)
	}
	if got.AddedBy == nil || *got.AddedBy != f.ac.UserID {
		t.Errorf("added_by = %v, want %d", got.AddedBy, f.ac.UserID)
	}
	if n := len(f.hub.sent["Flatmates"]); n != 1 {
		t.Errorf("broadcasts = %d, want 1", n)
	}
}

func TestAddItemExplicitCategory(t *testing.T) {
	f := newShoppingFixture(t)

	f.do(t, "POST", "/shopping/items", url.Values{"name": {"candles"}, "quantity": {"3"}, "category": {"Household"}})

	items, _ := f.items.ListItems(context.Background(), "Flatmates")
	if len(items) != 1 || items[0].Category != "Household" || items[0].Quantity != "3" {
		t.Errorf("items = %+v, want candles x3 in Household", items)
	}
}

func TestAddItemRequiresName(t *testing.T) {
	f := newShoppingFixture(t)

	rec := f.do(t, "POST", "/shopping/items", url.Values{"name": {"   "}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if !strings.Contains(rec.Body.String(), "Item name is required") {
		t.Error("expected validation message")
	}
}

func TestToggleItem(t *testing.T) {
	f := newShoppingFixture(t)
	item, _ := f.items.CreateItem(context.Background(), "Flatmates", "Eggs", "", "Dairy", 0)

	rec := f.do(t, "POST", "/shopping/items/"+itoa(item.ID)+"/check", nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
	}

	got, _ := f.items.GetItem(context.Background(), "Flatmates", item.ID)
	if !got.Checked {
		t.Error("expected item to be checked")
	}
	sent := f.hub.sent["Flatmates"]
	if len(sent) != 1 || sent[0].Type != "shopping_item_checked" {
		t.Errorf("broadcasts = %+v, want one shopping_item_checked", sent)
	}
}

func TestToggleItemNotFound(t *testing.T) {
	f := newShoppingFixture(t)

	for _, target := range []string{"/shopping/items/999/check", "/shopping/items/abc/check"} {
		rec := f.do(t, "POST", target, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want %d", target, rec.Code, http.StatusNotFound)
		}
	}
}

func TestClearChecked(t *testing.T) {
	f := newShoppingFixture(t)
	ctx := context.Background()
	milk, _ := f.items.CreateItem(ctx, "Flatmates", "Milk", "", "Dairy", 0)
	f.items.CreateItem(ctx, "Flatmates", "Bread", "", "Bakery", 0)
	f.items.ToggleChecked(ctx, "Flatmates", milk.ID, 0)

	rec := f.do(t, "POST", "/shopping/clear-checked", nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
	}

	items, _ := f.items.ListItems(ctx, "Flatmates")
	if len(items) != 1 || items[0].Name != "Bread" {
		t.Errorf("items = %+v, want only Bread", items)
	}
}

func TestShoppingPage(t *testing.T) {
	f := newShoppingFixture(t)
	ctx := context.Background()
	f.items.CreateItem(ctx, "Flatmates", "Milk", "2", "Dairy", 0)
	bread, _ := f.items.CreateItem(ctx, "Flatmates", "Bread", "", "Bakery", 0)
	f.items.ToggleChecked(ctx, "Flatmates", bread.ID, 0)

	rec := f.do(t, "GET", "/shopping", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	for _, want := range []string{"Shopping list for Flatmates", "Milk", "<s>Bread</s>", "Still to buy: 1"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestGroupByCategory(t *testing.T) {
	items := []model.ShoppingItem{
		{Name: "Bread", Category: "Bakery"},
		{Name: "Milk", Category: "Dairy"},
		{Name: "Eggs", Category: "Dairy"},
		{Name: "Apples", Category: "Produce", Checked: true},
	}

	open, checked := groupByCategory(items)
	if len(open) != 2 {
		t.Fatalf("groups = %d, want 2", len(open))
	}
	if open[1].Category != "Dairy" || len(open[1].Items) != 2 {
		t.Errorf("dairy group = %+v", open[1])
	}
	if len(checked) != 1 || checked[0].Name != "Apples" {
		t.Errorf("checked = %+v", checked)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
