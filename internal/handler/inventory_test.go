package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/savoria-pos/api/internal/database"
	"github.com/savoria-pos/api/internal/enum"
	"github.com/savoria-pos/api/internal/handler"
	"github.com/savoria-pos/api/internal/service"
)

// --- Mock store ---

type mockInventoryHandlerStore struct {
	items map[uuid.UUID]database.InventoryItem
	txns  map[uuid.UUID][]database.InventoryTransaction
}

func newMockInventoryHandlerStore() *mockInventoryHandlerStore {
	return &mockInventoryHandlerStore{
		items: make(map[uuid.UUID]database.InventoryItem),
		txns:  make(map[uuid.UUID][]database.InventoryTransaction),
	}
}

func (m *mockInventoryHandlerStore) GetInventoryItem(_ context.Context, arg database.GetInventoryItemParams) (database.InventoryItem, error) {
	it, ok := m.items[arg.ID]
	if !ok || it.RestaurantID != arg.RestaurantID {
		return database.InventoryItem{}, pgx.ErrNoRows
	}
	return it, nil
}

func (m *mockInventoryHandlerStore) GetInventoryItemForUpdate(ctx context.Context, arg database.GetInventoryItemParams) (database.InventoryItem, error) {
	return m.GetInventoryItem(ctx, arg)
}

func (m *mockInventoryHandlerStore) GetInventoryByMenuItem(_ context.Context, arg database.GetInventoryByMenuItemParams) (database.InventoryItem, error) {
	for _, it := range m.items {
		if it.RestaurantID == arg.RestaurantID && it.MenuItemID.Valid && it.MenuItemID.Bytes == arg.MenuItemID.Bytes {
			return it, nil
		}
	}
	return database.InventoryItem{}, pgx.ErrNoRows
}

func (m *mockInventoryHandlerStore) GetMenuItem(_ context.Context, arg database.GetMenuItemParams) (database.MenuItem, error) {
	return database.MenuItem{}, pgx.ErrNoRows
}

func (m *mockInventoryHandlerStore) ListInventoryByRestaurant(_ context.Context, restaurantID uuid.UUID) ([]database.InventoryItem, error) {
	var result []database.InventoryItem
	for _, it := range m.items {
		if it.RestaurantID == restaurantID {
			result = append(result, it)
		}
	}
	return result, nil
}

func (m *mockInventoryHandlerStore) ListInventoryLinkingMenuItem(_ context.Context, arg database.ListInventoryLinkingMenuItemParams) ([]database.InventoryItem, error) {
	var result []database.InventoryItem
	for _, it := range m.items {
		if it.RestaurantID != arg.RestaurantID {
			continue
		}
		for _, l := range it.LinkedItems {
			if l.LinkedMenuItemID == arg.MenuItemID.String() {
				result = append(result, it)
				break
			}
		}
	}
	return result, nil
}

func (m *mockInventoryHandlerStore) CreateInventoryItem(_ context.Context, arg database.CreateInventoryItemParams) (database.InventoryItem, error) {
	now := time.Now()
	it := database.InventoryItem{
		ID:                  uuid.New(),
		RestaurantID:        arg.RestaurantID,
		MenuItemID:          arg.MenuItemID,
		Name:                arg.Name,
		Quantity:            arg.Quantity,
		Unit:                arg.Unit,
		CustomUnit:          arg.CustomUnit,
		MinimumThreshold:    arg.MinimumThreshold,
		ConsumptionPerOrder: arg.ConsumptionPerOrder,
		MaxCapacity:         arg.MaxCapacity,
		CostPerUnit:         arg.CostPerUnit,
		Supplier:            arg.Supplier,
		IsTracked:           arg.IsTracked,
		AutoDeduct:          arg.AutoDeduct,
		LinkedItems:         arg.LinkedItems,
		BaseInventoryID:     arg.BaseInventoryID,
		BaseRatio:           arg.BaseRatio,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	m.items[it.ID] = it
	return it, nil
}

func (m *mockInventoryHandlerStore) UpdateInventoryItem(_ context.Context, arg database.UpdateInventoryItemParams) (database.InventoryItem, error) {
	it, ok := m.items[arg.ID]
	if !ok || it.RestaurantID != arg.RestaurantID {
		return database.InventoryItem{}, pgx.ErrNoRows
	}
	it.Name = arg.Name
	it.Unit = arg.Unit
	it.CustomUnit = arg.CustomUnit
	it.MinimumThreshold = arg.MinimumThreshold
	it.ConsumptionPerOrder = arg.ConsumptionPerOrder
	it.MaxCapacity = arg.MaxCapacity
	it.CostPerUnit = arg.CostPerUnit
	it.Supplier = arg.Supplier
	it.IsTracked = arg.IsTracked
	it.AutoDeduct = arg.AutoDeduct
	it.UpdatedAt = time.Now()
	m.items[it.ID] = it
	return it, nil
}

func (m *mockInventoryHandlerStore) SetInventoryQuantity(_ context.Context, arg database.SetInventoryQuantityParams) (database.InventoryItem, error) {
	it, ok := m.items[arg.ID]
	if !ok {
		return database.InventoryItem{}, pgx.ErrNoRows
	}
	it.Quantity = arg.Quantity
	m.items[it.ID] = it
	return it, nil
}

func (m *mockInventoryHandlerStore) SetInventoryLinks(_ context.Context, arg database.SetInventoryLinksParams) (database.InventoryItem, error) {
	it, ok := m.items[arg.ID]
	if !ok {
		return database.InventoryItem{}, pgx.ErrNoRows
	}
	it.AutoDeduct = arg.AutoDeduct
	it.LinkedItems = arg.LinkedItems
	it.BaseInventoryID = arg.BaseInventoryID
	it.BaseRatio = arg.BaseRatio
	m.items[it.ID] = it
	return it, nil
}

func (m *mockInventoryHandlerStore) CreateInventoryTransaction(_ context.Context, arg database.CreateInventoryTransactionParams) (database.InventoryTransaction, error) {
	txn := database.InventoryTransaction{
		ID:               uuid.New(),
		InventoryID:      arg.InventoryID,
		RestaurantID:     arg.RestaurantID,
		Type:             arg.Type,
		PreviousQuantity: arg.PreviousQuantity,
		NewQuantity:      arg.NewQuantity,
		QuantityChange:   arg.QuantityChange,
		Reason:           arg.Reason,
		Notes:            arg.Notes,
		OrderID:          arg.OrderID,
		CreatedBy:        arg.CreatedBy,
		CreatedAt:        time.Now(),
	}
	m.txns[arg.InventoryID] = append(m.txns[arg.InventoryID], txn)
	return txn, nil
}

func (m *mockInventoryHandlerStore) CountInventoryTransactions(_ context.Context, inventoryID uuid.UUID) (int64, error) {
	return int64(len(m.txns[inventoryID])), nil
}

func (m *mockInventoryHandlerStore) DeleteInventoryItem(_ context.Context, arg database.DeleteInventoryItemParams) (uuid.UUID, error) {
	it, ok := m.items[arg.ID]
	if !ok || it.RestaurantID != arg.RestaurantID {
		return uuid.Nil, pgx.ErrNoRows
	}
	delete(m.items, arg.ID)
	return arg.ID, nil
}

func (m *mockInventoryHandlerStore) EnableAutoDeductForAll(_ context.Context, restaurantID uuid.UUID) (int64, error) {
	var n int64
	for id, it := range m.items {
		if it.RestaurantID == restaurantID && !it.AutoDeduct {
			it.AutoDeduct = true
			m.items[id] = it
			n++
		}
	}
	return n, nil
}

func (m *mockInventoryHandlerStore) ListInventoryTransactions(_ context.Context, arg database.ListInventoryTransactionsParams) ([]database.InventoryTransaction, error) {
	var result []database.InventoryTransaction
	for _, txn := range m.txns[arg.InventoryID] {
		if arg.Type.Valid && txn.Type != arg.Type.String {
			continue
		}
		result = append(result, txn)
		if int32(len(result)) >= arg.Limit {
			break
		}
	}
	return result, nil
}

func setupInventoryRouter(store *mockInventoryHandlerStore) *chi.Mux {
	svc := service.NewInventoryService(nil, func(database.DBTX) service.InventoryStore { return store })
	h := handler.NewInventoryHandler(store, svc, nil)
	r := chi.NewRouter()
	r.Route("/restaurants/{rid}/inventory", h.RegisterRoutes)
	return r
}

func trackedItem(rid uuid.UUID, name, qty, threshold string) database.InventoryItem {
	now := time.Now()
	return database.InventoryItem{
		ID:                  uuid.New(),
		RestaurantID:        rid,
		Name:                name,
		Quantity:            testNumeric(qty),
		Unit:                enum.UnitKg,
		MinimumThreshold:    testNumeric(threshold),
		ConsumptionPerOrder: testNumeric("1"),
		IsTracked:           true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// --- Tests ---

func TestInventoryList_ReportsStockStatus(t *testing.T) {
	store := newMockInventoryHandlerStore()
	rid := uuid.New()

	low := trackedItem(rid, "Paneer", "3", "5")
	out := trackedItem(rid, "Basmati Rice", "0", "10")
	ok := trackedItem(rid, "Ghee", "20", "5")
	store.items[low.ID] = low
	store.items[out.ID] = out
	store.items[ok.ID] = ok

	router := setupInventoryRouter(store)
	rr := doRequest(t, router, "GET", "/restaurants/"+rid.String()+"/inventory", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	resp := decodeListResponse(t, rr)
	statuses := make(map[string]string)
	for _, item := range resp {
		statuses[item["name"].(string)] = item["stock_status"].(string)
	}
	want := map[string]string{
		"Paneer":       "Low Stock",
		"Basmati Rice": "Out of Stock",
		"Ghee":         "In Stock",
	}
	for name, status := range want {
		if statuses[name] != status {
			t.Errorf("%s: got %q, want %q", name, statuses[name], status)
		}
	}
}

func TestInventoryCreate_Valid(t *testing.T) {
	store := newMockInventoryHandlerStore()
	rid := uuid.New()
	router := setupInventoryRouter(store)

	rr := doRequest(t, router, "POST", "/restaurants/"+rid.String()+"/inventory", map[string]interface{}{
		"name":     "Paneer",
		"unit":     enum.UnitKg,
		"quantity": "12.5",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["quantity"] != "12.5" {
		t.Errorf("quantity: got %v, want 12.5", resp["quantity"])
	}
	// consumption_per_order defaults to 1 per order when omitted
	if resp["consumption_per_order"] != "1" {
		t.Errorf("consumption_per_order: got %v, want 1", resp["consumption_per_order"])
	}
}

func TestInventoryCreate_InvalidUnit(t *testing.T) {
	store := newMockInventoryHandlerStore()
	rid := uuid.New()
	router := setupInventoryRouter(store)

	rr := doRequest(t, router, "POST", "/restaurants/"+rid.String()+"/inventory", map[string]interface{}{
		"name": "Paneer",
		"unit": "barrels",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestInventoryCreate_CustomUnitNeedsLabel(t *testing.T) {
	store := newMockInventoryHandlerStore()
	rid := uuid.New()
	router := setupInventoryRouter(store)

	rr := doRequest(t, router, "POST", "/restaurants/"+rid.String()+"/inventory", map[string]interface{}{
		"name": "Paneer",
		"unit": enum.UnitCustom,
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestInventoryTransactions_FilterByType(t *testing.T) {
	store := newMockInventoryHandlerStore()
	rid := uuid.New()
	item := trackedItem(rid, "Paneer", "10", "2")
	store.items[item.ID] = item

	addTxn := func(typ string) {
		store.txns[item.ID] = append(store.txns[item.ID], database.InventoryTransaction{
			ID: uuid.New(), InventoryID: item.ID, RestaurantID: rid, Type: typ,
			PreviousQuantity: testNumeric("10"), NewQuantity: testNumeric("12"),
			QuantityChange: testNumeric("2"), CreatedBy: uuid.New(), CreatedAt: time.Now(),
		})
	}
	addTxn(enum.AdjustmentTypeRestock)
	addTxn(enum.AdjustmentTypeWaste)
	addTxn(enum.AdjustmentTypeRestock)

	router := setupInventoryRouter(store)
	rr := doRequest(t, router, "GET", "/restaurants/"+rid.String()+"/inventory/"+item.ID.String()+"/transactions?type=restock", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	txns := resp["transactions"].([]interface{})
	if len(txns) != 2 {
		t.Errorf("expected 2 restock transactions, got %d", len(txns))
	}
	if resp["total"].(float64) != 3 {
		t.Errorf("total: got %v, want 3", resp["total"])
	}
}

func TestInventoryTransactions_RejectsBadType(t *testing.T) {
	store := newMockInventoryHandlerStore()
	rid := uuid.New()
	item := trackedItem(rid, "Paneer", "10", "2")
	store.items[item.ID] = item

	router := setupInventoryRouter(store)
	rr := doRequest(t, router, "GET", "/restaurants/"+rid.String()+"/inventory/"+item.ID.String()+"/transactions?type=bogus", nil)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestInventoryEnableAutoDeduct(t *testing.T) {
	store := newMockInventoryHandlerStore()
	rid := uuid.New()
	a := trackedItem(rid, "Paneer", "10", "2")
	b := trackedItem(rid, "Ghee", "5", "1")
	b.AutoDeduct = true
	store.items[a.ID] = a
	store.items[b.ID] = b

	router := setupInventoryRouter(store)
	rr := doRequest(t, router, "POST", "/restaurants/"+rid.String()+"/inventory/enable-auto-deduct", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	resp := decodeResponse(t, rr)
	if resp["updated"].(float64) != 1 {
		t.Errorf("updated: got %v, want 1", resp["updated"])
	}
}

func TestInventoryDelete_ThenGone(t *testing.T) {
	store := newMockInventoryHandlerStore()
	rid := uuid.New()
	item := trackedItem(rid, "Paneer", "10", "2")
	store.items[item.ID] = item

	router := setupInventoryRouter(store)
	rr := doRequest(t, router, "DELETE", "/restaurants/"+rid.String()+"/inventory/"+item.ID.String(), nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status: got %d, want %d", rr.Code, http.StatusNoContent)
	}

	rr = doRequest(t, router, "GET", "/restaurants/"+rid.String()+"/inventory/"+item.ID.String(), nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("get after delete: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}
