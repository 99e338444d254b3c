package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dukerupert/roomies/internal/apperr"
	"github.com/dukerupert/roomies/internal/auth"
	"github.com/dukerupert/roomies/internal/model"
	"github.com/dukerupert/roomies/internal/shopping"
	"github.com/dukerupert/roomies/internal/store"
	ws "github.com/dukerupert/roomies/internal/websocket"
)

type ShoppingHandler struct {
	items  *store.ShoppingStore
	hub    Broadcaster
	render *Renderer
	logger *slog.Logger
}

func NewShoppingHandler(items *store.ShoppingStore, hub Broadcaster, render *Renderer, logger *slog.Logger) *ShoppingHandler {
	return &ShoppingHandler{items: items, hub: hub, render: render, logger: logger}
}

type categoryGroup struct {
	Category string
	Items    []model.ShoppingItem
}

// groupByCategory keeps the store's ordering: unchecked first, then by
// category.
func groupByCategory(items []model.ShoppingItem) (open []categoryGroup, checked []model.ShoppingItem) {
	for _, item := range items {
		if item.Checked {
			checked = append(checked, item)
			continue
		}
		if n := len(open); n > 0 && open[n-1].Category == item.Category {
			open[n-1].Items = append(open[n-1].Items, item)
			continue
		}
		open = append(open, categoryGroup{Category: item.Category, Items: []model.ShoppingItem{item}})
	}
	return open, checked
}

func (h *ShoppingHandler) Page(w http.ResponseWriter, r *http.Request) {
	household := auth.Household(r.Context())

	items, err := h.items.ListItems(r.Context(), household)
	if err != nil {
		h.render.Error(w, r, err)
		return
	}
	open, checked := groupByCategory(items)

	h.render.Render(w, r, http.StatusOK, "shopping.html", map[string]any{
		"Title":      "Shopping list",
		"Household":  household,
		"Groups":     open,
		"Checked":    checked,
		"Remaining":  len(items) - len(checked),
		"Categories": shopping.Categories,
	})
}

func (h *ShoppingHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render.Error(w, r, apperr.Validation("invalid form data"))
		return
	}
	ac, _ := auth.FromContext(r.Context())

	name := strings.TrimSpace(r.PostFormValue("name"))
	quantity := strings.TrimSpace(r.PostFormValue("quantity"))
	if quantity == "" {
		name, quantity = shopping.ParseEntry(name)
	}
	if name == "" {
		h.render.Error(w, r, apperr.Validation("Item name is required"))
		return
	}

	category := r.PostFormValue("category")
	if !shopping.ValidCategory(category) {
		category = shopping.Categorize(name)
	}

	item, err := h.items.CreateItem(r.Context(), ac.Household, name, quantity, category, ac.UserID)
	if err != nil {
		h.render.Error(w, r, err)
		return
	}

	h.hub.Broadcast(ac.Household, ws.NewMessage("shopping_item", "created", item.ID, map[string]any{
		"name":     item.Name,
		"category": item.Category,
	}))
	redirect(w, r, "/shopping")
}

func (h *ShoppingHandler) ToggleItem(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.render.ErrorStatus(w, r, http.StatusNotFound, apperr.NotFound("item not found"))
		return
	}

	item, err := h.items.ToggleChecked(r.Context(), ac.Household, id, ac.UserID)
	if err != nil {
		h.render.Error(w, r, err)
		return
	}
	if item == nil {
		h.render.ErrorStatus(w, r, http.StatusNotFound, apperr.NotFound("item not found"))
		return
	}

	action := "unchecked"
	if item.Checked {
		action = "checked"
	}
	h.hub.Broadcast(ac.Household, ws.NewMessage("shopping_item", action, item.ID, nil))
	redirect(w, r, "/shopping")
}

func (h *ShoppingHandler) ClearChecked(w http.ResponseWriter, r *http.Request) {
	household := auth.Household(r.Context())

	n, err := h.items.ClearChecked(r.Context(), household)
	if err != nil {
		h.render.Error(w, r, err)
		return
	}
	if n > 0 {
		h.hub.Broadcast(household, ws.NewMessage("shopping_list", "cleared", 0, map[string]any{"removed": n}))
	}
	redirect(w, r, "/shopping")
}
