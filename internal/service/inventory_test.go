package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/savoria-pos/api/internal/database"
	"github.com/savoria-pos/api/internal/enum"
	"github.com/shopspring/decimal"
)

// --- Mock implementations ---

// mockTx implements pgx.Tx with only the methods we need.
// The unused methods panic so we catch accidental calls.
type mockTx struct {
	commitErr   error
	rollbackErr error
	committed   bool
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) Commit(ctx context.Context) error {
	m.committed = true
	return m.commitErr
}
func (m *mockTx) Rollback(ctx context.Context) error { return m.rollbackErr }
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

// mockTxBeginner implements TxBeginner.
type mockTxBeginner struct {
	tx  pgx.Tx
	err error
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	return m.tx, m.err
}

// mockInventoryStore implements InventoryStore with configurable behavior.
type mockInventoryStore struct {
	getItemFn          func(ctx context.Context, arg database.GetInventoryItemParams) (database.InventoryItem, error)
	getItemForUpdateFn func(ctx context.Context, arg database.GetInventoryItemParams) (database.InventoryItem, error)
	getByMenuItemFn    func(ctx context.Context, arg database.GetInventoryByMenuItemParams) (database.InventoryItem, error)
	getMenuItemFn      func(ctx context.Context, arg database.GetMenuItemParams) (database.MenuItem, error)
	listFn             func(ctx context.Context, restaurantID uuid.UUID) ([]database.InventoryItem, error)
	listLinkingFn      func(ctx context.Context, arg database.ListInventoryLinkingMenuItemParams) ([]database.InventoryItem, error)
	createItemFn       func(ctx context.Context, arg database.CreateInventoryItemParams) (database.InventoryItem, error)
	setQuantityFn      func(ctx context.Context, arg database.SetInventoryQuantityParams) (database.InventoryItem, error)
	setLinksFn         func(ctx context.Context, arg database.SetInventoryLinksParams) (database.InventoryItem, error)
	createTxnFn        func(ctx context.Context, arg database.CreateInventoryTransactionParams) (database.InventoryTransaction, error)
	countTxnsFn        func(ctx context.Context, inventoryID uuid.UUID) (int64, error)
}

func (m *mockInventoryStore) GetInventoryItem(ctx context.Context, arg database.GetInventoryItemParams) (database.InventoryItem, error) {
	return m.getItemFn(ctx, arg)
}
func (m *mockInventoryStore) GetInventoryItemForUpdate(ctx context.Context, arg database.GetInventoryItemParams) (database.InventoryItem, error) {
	return m.getItemForUpdateFn(ctx, arg)
}
func (m *mockInventoryStore) GetInventoryByMenuItem(ctx context.Context, arg database.GetInventoryByMenuItemParams) (database.InventoryItem, error) {
	return m.getByMenuItemFn(ctx, arg)
}
func (m *mockInventoryStore) GetMenuItem(ctx context.Context, arg database.GetMenuItemParams) (database.MenuItem, error) {
	return m.getMenuItemFn(ctx, arg)
}
func (m *mockInventoryStore) ListInventoryByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]database.InventoryItem, error) {
	return m.listFn(ctx, restaurantID)
}
func (m *mockInventoryStore) ListInventoryLinkingMenuItem(ctx context.Context, arg database.ListInventoryLinkingMenuItemParams) ([]database.InventoryItem, error) {
	if m.listLinkingFn == nil {
		return nil, nil
	}
	return m.listLinkingFn(ctx, arg)
}
func (m *mockInventoryStore) CreateInventoryItem(ctx context.Context, arg database.CreateInventoryItemParams) (database.InventoryItem, error) {
	return m.createItemFn(ctx, arg)
}
func (m *mockInventoryStore) SetInventoryQuantity(ctx context.Context, arg database.SetInventoryQuantityParams) (database.InventoryItem, error) {
	return m.setQuantityFn(ctx, arg)
}
func (m *mockInventoryStore) SetInventoryLinks(ctx context.Context, arg database.SetInventoryLinksParams) (database.InventoryItem, error) {
	return m.setLinksFn(ctx, arg)
}
func (m *mockInventoryStore) CreateInventoryTransaction(ctx context.Context, arg database.CreateInventoryTransactionParams) (database.InventoryTransaction, error) {
	return m.createTxnFn(ctx, arg)
}
func (m *mockInventoryStore) CountInventoryTransactions(ctx context.Context, inventoryID uuid.UUID) (int64, error) {
	return m.countTxnsFn(ctx, inventoryID)
}

func mustNumeric(t *testing.T, s string) pgtype.Numeric {
	t.Helper()
	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		t.Fatalf("scan numeric %q: %v", s, err)
	}
	return n
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// --- Stock status ---

func TestStockStatus(t *testing.T) {
	tests := []struct {
		name      string
		tracked   bool
		qty       string
		threshold string
		want      string
	}{
		{"not tracked", false, "0", "5", enum.StockStatusNotTracked},
		{"not tracked with stock", false, "100", "5", enum.StockStatusNotTracked},
		{"out of stock", true, "0", "5", enum.StockStatusOutOfStock},
		{"low stock", true, "3", "5", enum.StockStatusLowStock},
		{"exactly at threshold is low", true, "5", "5", enum.StockStatusLowStock},
		{"just above threshold", true, "5.01", "5", enum.StockStatusInStock},
		{"in stock", true, "50", "5", enum.StockStatusInStock},
		{"zero threshold nonzero qty", true, "1", "0", enum.StockStatusInStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StockStatus(tt.tracked, dec(tt.qty), dec(tt.threshold))
			if got != tt.want {
				t.Errorf("StockStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

// --- Adjustment computation ---

func TestComputeAdjustment(t *testing.T) {
	tests := []struct {
		name     string
		adjType  string
		current  string
		amount   string
		wantQty  string
		wantDiff string
		wantErr  error
	}{
		{"restock adds", enum.AdjustmentTypeRestock, "10", "5", "15", "5", nil},
		{"return adds", enum.AdjustmentTypeReturn, "10", "2.5", "12.5", "2.5", nil},
		{"waste subtracts", enum.AdjustmentTypeWaste, "10", "4", "6", "-4", nil},
		{"waste to zero", enum.AdjustmentTypeWaste, "10", "10", "0", "-10", nil},
		{"waste below zero rejected", enum.AdjustmentTypeWaste, "10", "11", "", "", ErrNegativeQuantity},
		{"manual is absolute", enum.AdjustmentTypeManualAdjustment, "10", "3", "3", "-7", nil},
		{"manual up", enum.AdjustmentTypeManualAdjustment, "10", "25", "25", "15", nil},
		{"order deduction subtracts", enum.AdjustmentTypeOrderDeduction, "8", "3", "5", "-3", nil},
		{"negative amount rejected", enum.AdjustmentTypeRestock, "10", "-1", "", "", ErrNegativeAmount},
		{"unknown type rejected", "bogus", "10", "1", "", "", ErrInvalidAdjustmentType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotQty, gotDiff, err := ComputeAdjustment(tt.adjType, dec(tt.current), dec(tt.amount))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ComputeAdjustment() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ComputeAdjustment() unexpected error: %v", err)
			}
			if !gotQty.Equal(dec(tt.wantQty)) {
				t.Errorf("new quantity = %s, want %s", gotQty, tt.wantQty)
			}
			if !gotDiff.Equal(dec(tt.wantDiff)) {
				t.Errorf("delta = %s, want %s", gotDiff, tt.wantDiff)
			}
		})
	}
}

// --- Adjust ---

func TestAdjust(t *testing.T) {
	restaurantID := uuid.New()
	itemID := uuid.New()
	actorID := uuid.New()

	newService := func(store *mockInventoryStore, tx *mockTx) *InventoryService {
		return NewInventoryService(
			&mockTxBeginner{tx: tx},
			func(db database.DBTX) InventoryStore { return store },
		)
	}

	baseItem := func(qty, threshold string) database.InventoryItem {
		return database.InventoryItem{
			ID:               itemID,
			RestaurantID:     restaurantID,
			Name:             "Tomatoes",
			Quantity:         mustNumeric(t, qty),
			MinimumThreshold: mustNumeric(t, threshold),
			IsTracked:        true,
		}
	}

	t.Run("writes exactly one transaction with prev new and delta", func(t *testing.T) {
		var txns []database.CreateInventoryTransactionParams
		var setQty *database.SetInventoryQuantityParams

		store := &mockInventoryStore{
			getItemForUpdateFn: func(ctx context.Context, arg database.GetInventoryItemParams) (database.InventoryItem, error) {
				return baseItem("10", "2"), nil
			},
			setQuantityFn: func(ctx context.Context, arg database.SetInventoryQuantityParams) (database.InventoryItem, error) {
				setQty = &arg
				it := baseItem("10", "2")
				it.Quantity = arg.Quantity
				return it, nil
			},
			createTxnFn: func(ctx context.Context, arg database.CreateInventoryTransactionParams) (database.InventoryTransaction, error) {
				txns = append(txns, arg)
				return database.InventoryTransaction{ID: uuid.New()}, nil
			},
		}
		tx := &mockTx{}

		result, err := newService(store, tx).Adjust(context.Background(), AdjustmentRequest{
			InventoryID:  itemID,
			RestaurantID: restaurantID,
			Type:         enum.AdjustmentTypeRestock,
			Amount:       dec("5"),
			Reason:       "weekly delivery",
			ActorID:      actorID,
		})
		if err != nil {
			t.Fatalf("Adjust() error: %v", err)
		}
		if !tx.committed {
			t.Error("transaction was not committed")
		}
		if len(txns) != 1 {
			t.Fatalf("got %d transaction records, want 1", len(txns))
		}
		txn := txns[0]
		if got := numericToDecimal(txn.PreviousQuantity); !got.Equal(dec("10")) {
			t.Errorf("previous quantity = %s, want 10", got)
		}
		if got := numericToDecimal(txn.NewQuantity); !got.Equal(dec("15")) {
			t.Errorf("new quantity = %s, want 15", got)
		}
		if got := numericToDecimal(txn.QuantityChange); !got.Equal(dec("5")) {
			t.Errorf("quantity change = %s, want 5", got)
		}
		if setQty == nil {
			t.Fatal("quantity was not updated")
		}
		if result.WentLow {
			t.Error("restock should not report a low-stock crossing")
		}
	})

	t.Run("negative result rejects and writes nothing", func(t *testing.T) {
		store := &mockInventoryStore{
			getItemForUpdateFn: func(ctx context.Context, arg database.GetInventoryItemParams) (database.InventoryItem, error) {
				return baseItem("3", "2"), nil
			},
			setQuantityFn: func(ctx context.Context, arg database.SetInventoryQuantityParams) (database.InventoryItem, error) {
				t.Fatal("quantity must not be written for a rejected adjustment")
				return database.InventoryItem{}, nil
			},
			createTxnFn: func(ctx context.Context, arg database.CreateInventoryTransactionParams) (database.InventoryTransaction, error) {
				t.Fatal("no transaction record for a rejected adjustment")
				return database.InventoryTransaction{}, nil
			},
		}
		tx := &mockTx{}

		_, err := newService(store, tx).Adjust(context.Background(), AdjustmentRequest{
			InventoryID:  itemID,
			RestaurantID: restaurantID,
			Type:         enum.AdjustmentTypeWaste,
			Amount:       dec("5"),
			ActorID:      actorID,
		})
		if !errors.Is(err, ErrNegativeQuantity) {
			t.Fatalf("Adjust() error = %v, want ErrNegativeQuantity", err)
		}
		if tx.committed {
			t.Error("rejected adjustment must not commit")
		}
	})

	t.Run("detects low stock crossing", func(t *testing.T) {
		store := &mockInventoryStore{
			getItemForUpdateFn: func(ctx context.Context, arg database.GetInventoryItemParams) (database.InventoryItem, error) {
				return baseItem("6", "5"), nil
			},
			setQuantityFn: func(ctx context.Context, arg database.SetInventoryQuantityParams) (database.InventoryItem, error) {
				it := baseItem("6", "5")
				it.Quantity = arg.Quantity
				return it, nil
			},
			createTxnFn: func(ctx context.Context, arg database.CreateInventoryTransactionParams) (database.InventoryTransaction, error) {
				return database.InventoryTransaction{ID: uuid.New()}, nil
			},
		}

		result, err := newService(store, &mockTx{}).Adjust(context.Background(), AdjustmentRequest{
			InventoryID:  itemID,
			RestaurantID: restaurantID,
			Type:         enum.AdjustmentTypeWaste,
			Amount:       dec("2"),
			ActorID:      actorID,
		})
		if err != nil {
			t.Fatalf("Adjust() error: %v", err)
		}
		if !result.WentLow {
			t.Error("6 -> 4 with threshold 5 should report WentLow")
		}
	})

	t.Run("unknown item", func(t *testing.T) {
		store := &mockInventoryStore{
			getItemForUpdateFn: func(ctx context.Context, arg database.GetInventoryItemParams) (database.InventoryItem, error) {
				return database.InventoryItem{}, pgx.ErrNoRows
			},
		}

		_, err := newService(store, &mockTx{}).Adjust(context.Background(), AdjustmentRequest{
			InventoryID:  itemID,
			RestaurantID: restaurantID,
			Type:         enum.AdjustmentTypeRestock,
			Amount:       dec("1"),
		})
		if !errors.Is(err, ErrItemNotFound) {
			t.Fatalf("Adjust() error = %v, want ErrItemNotFound", err)
		}
	})
}

// --- Link resolution ---

func TestResolveLinkedItems(t *testing.T) {
	restaurantID := uuid.New()
	baseID := uuid.New()
	menuItemID := uuid.New()

	svc := NewInventoryService(&mockTxBeginner{}, func(db database.DBTX) InventoryStore { return nil })

	baseItem := database.InventoryItem{
		ID:           baseID,
		RestaurantID: restaurantID,
		Name:         "Pizza Dough",
	}
	menuItem := database.MenuItem{ID: menuItemID, RestaurantID: restaurantID, Name: "Garlic Bread"}

	t.Run("existing inventory resolves and patches reverse link", func(t *testing.T) {
		targetID := uuid.New()
		target := database.InventoryItem{
			ID:           targetID,
			RestaurantID: restaurantID,
			Name:         "Garlic Bread",
			MenuItemID:   pgtype.UUID{Bytes: menuItemID, Valid: true},
			AutoDeduct:   false,
		}

		var patched []database.SetInventoryLinksParams
		store := &mockInventoryStore{
			getItemFn: func(ctx context.Context, arg database.GetInventoryItemParams) (database.InventoryItem, error) {
				return baseItem, nil
			},
			getMenuItemFn: func(ctx context.Context, arg database.GetMenuItemParams) (database.MenuItem, error) {
				return menuItem, nil
			},
			getByMenuItemFn: func(ctx context.Context, arg database.GetInventoryByMenuItemParams) (database.InventoryItem, error) {
				return target, nil
			},
			setLinksFn: func(ctx context.Context, arg database.SetInventoryLinksParams) (database.InventoryItem, error) {
				patched = append(patched, arg)
				return database.InventoryItem{ID: arg.ID}, nil
			},
		}

		result, err := svc.ResolveLinkedItems(context.Background(), store, baseID, restaurantID, []LinkRequest{{
			LinkedMenuItemID:  menuItemID,
			Ratio:             dec("2"),
			ReverseRatio:      dec("0.5"),
			EnableReverseLink: true,
		}})
		if err != nil {
			t.Fatalf("ResolveLinkedItems() error: %v", err)
		}
		if result.Patched != 1 {
			t.Errorf("patched = %d, want 1", result.Patched)
		}
		// First call patches the target, second updates the base's link list.
		if len(patched) != 2 {
			t.Fatalf("got %d SetInventoryLinks calls, want 2", len(patched))
		}
		targetPatch := patched[0]
		if !targetPatch.AutoDeduct {
			t.Error("link target must be forced to auto-deduct")
		}
		if !targetPatch.BaseInventoryID.Valid || targetPatch.BaseInventoryID.Bytes != baseID {
			t.Error("link target must point back at the base item")
		}
		if got := numericToDecimal(targetPatch.BaseRatio); !got.Equal(dec("0.5")) {
			t.Errorf("base ratio = %s, want 0.5", got)
		}
		basePatch := patched[1]
		if len(basePatch.LinkedItems) != 1 {
			t.Fatalf("base has %d links, want 1", len(basePatch.LinkedItems))
		}
		if basePatch.LinkedItems[0].LinkedInventoryID != targetID.String() {
			t.Errorf("linked inventory id = %q, want %q", basePatch.LinkedItems[0].LinkedInventoryID, targetID)
		}
	})

	t.Run("missing inventory is created with auto deduct", func(t *testing.T) {
		createdID := uuid.New()
		var createParams *database.CreateInventoryItemParams
		store := &mockInventoryStore{
			getItemFn: func(ctx context.Context, arg database.GetInventoryItemParams) (database.InventoryItem, error) {
				return baseItem, nil
			},
			getMenuItemFn: func(ctx context.Context, arg database.GetMenuItemParams) (database.MenuItem, error) {
				return menuItem, nil
			},
			getByMenuItemFn: func(ctx context.Context, arg database.GetInventoryByMenuItemParams) (database.InventoryItem, error) {
				return database.InventoryItem{}, pgx.ErrNoRows
			},
			createItemFn: func(ctx context.Context, arg database.CreateInventoryItemParams) (database.InventoryItem, error) {
				createParams = &arg
				return database.InventoryItem{ID: createdID}, nil
			},
			setLinksFn: func(ctx context.Context, arg database.SetInventoryLinksParams) (database.InventoryItem, error) {
				return database.InventoryItem{ID: arg.ID, LinkedItems: arg.LinkedItems}, nil
			},
		}

		result, err := svc.ResolveLinkedItems(context.Background(), store, baseID, restaurantID, []LinkRequest{{
			LinkedMenuItemID:  menuItemID,
			Ratio:             dec("1"),
			ReverseRatio:      dec("3"),
			EnableReverseLink: true,
			InitialQuantity:   dec("20"),
		}})
		if err != nil {
			t.Fatalf("ResolveLinkedItems() error: %v", err)
		}
		if result.Created != 1 {
			t.Errorf("created = %d, want 1", result.Created)
		}
		if createParams == nil {
			t.Fatal("inventory was not created")
		}
		if !createParams.AutoDeduct {
			t.Error("created inventory must auto-deduct")
		}
		if got := numericToDecimal(createParams.Quantity); !got.Equal(dec("20")) {
			t.Errorf("initial quantity = %s, want 20", got)
		}
		if got := numericToDecimal(createParams.BaseRatio); !got.Equal(dec("3")) {
			t.Errorf("base ratio = %s, want 3", got)
		}
		if result.Base.LinkedItems[0].LinkedInventoryID != createdID.String() {
			t.Errorf("linked inventory id = %q, want created id", result.Base.LinkedItems[0].LinkedInventoryID)
		}
	})

	t.Run("create failure keeps placeholder and continues", func(t *testing.T) {
		store := &mockInventoryStore{
			getItemFn: func(ctx context.Context, arg database.GetInventoryItemParams) (database.InventoryItem, error) {
				return baseItem, nil
			},
			getMenuItemFn: func(ctx context.Context, arg database.GetMenuItemParams) (database.MenuItem, error) {
				return menuItem, nil
			},
			getByMenuItemFn: func(ctx context.Context, arg database.GetInventoryByMenuItemParams) (database.InventoryItem, error) {
				return database.InventoryItem{}, pgx.ErrNoRows
			},
			createItemFn: func(ctx context.Context, arg database.CreateInventoryItemParams) (database.InventoryItem, error) {
				return database.InventoryItem{}, errors.New("disk full")
			},
			setLinksFn: func(ctx context.Context, arg database.SetInventoryLinksParams) (database.InventoryItem, error) {
				return database.InventoryItem{ID: arg.ID, LinkedItems: arg.LinkedItems}, nil
			},
		}

		result, err := svc.ResolveLinkedItems(context.Background(), store, baseID, restaurantID, []LinkRequest{{
			LinkedMenuItemID: menuItemID,
			Ratio:            dec("1"),
		}})
		if err != nil {
			t.Fatalf("ResolveLinkedItems() error: %v", err)
		}
		if len(result.Failures) != 1 {
			t.Fatalf("got %d failures, want 1", len(result.Failures))
		}
		link := result.Base.LinkedItems[0]
		if !strings.HasPrefix(link.LinkedInventoryID, PendingLinkPrefix) {
			t.Errorf("linked inventory id = %q, want %s placeholder", link.LinkedInventoryID, PendingLinkPrefix)
		}
		if !strings.HasSuffix(link.LinkedInventoryID, menuItemID.String()) {
			t.Errorf("placeholder must carry the menu item id, got %q", link.LinkedInventoryID)
		}
	})

	t.Run("idempotent on already resolved links", func(t *testing.T) {
		targetID := uuid.New()
		target := database.InventoryItem{
			ID:              targetID,
			RestaurantID:    restaurantID,
			MenuItemID:      pgtype.UUID{Bytes: menuItemID, Valid: true},
			AutoDeduct:      true,
			BaseInventoryID: pgtype.UUID{Bytes: baseID, Valid: true},
			BaseRatio:       mustNumeric(t, "0.5"),
		}

		setLinksCalls := 0
		store := &mockInventoryStore{
			getItemFn: func(ctx context.Context, arg database.GetInventoryItemParams) (database.InventoryItem, error) {
				return baseItem, nil
			},
			getMenuItemFn: func(ctx context.Context, arg database.GetMenuItemParams) (database.MenuItem, error) {
				return menuItem, nil
			},
			getByMenuItemFn: func(ctx context.Context, arg database.GetInventoryByMenuItemParams) (database.InventoryItem, error) {
				return target, nil
			},
			setLinksFn: func(ctx context.Context, arg database.SetInventoryLinksParams) (database.InventoryItem, error) {
				setLinksCalls++
				return database.InventoryItem{ID: arg.ID, LinkedItems: arg.LinkedItems}, nil
			},
		}

		result, err := svc.ResolveLinkedItems(context.Background(), store, baseID, restaurantID, []LinkRequest{{
			LinkedMenuItemID:  menuItemID,
			Ratio:             dec("2"),
			ReverseRatio:      dec("0.5"),
			EnableReverseLink: true,
		}})
		if err != nil {
			t.Fatalf("ResolveLinkedItems() error: %v", err)
		}
		if result.Patched != 0 || result.Created != 0 {
			t.Errorf("resolved set must not be touched again: patched=%d created=%d", result.Patched, result.Created)
		}
		// Only the base link list write.
		if setLinksCalls != 1 {
			t.Errorf("SetInventoryLinks calls = %d, want 1", setLinksCalls)
		}
	})

	t.Run("zero ratio rejected", func(t *testing.T) {
		store := &mockInventoryStore{
			getItemFn: func(ctx context.Context, arg database.GetInventoryItemParams) (database.InventoryItem, error) {
				return baseItem, nil
			},
		}
		_, err := svc.ResolveLinkedItems(context.Background(), store, baseID, restaurantID, []LinkRequest{{
			LinkedMenuItemID: menuItemID,
			Ratio:            decimal.Zero,
		}})
		if !errors.Is(err, ErrInvalidRatio) {
			t.Fatalf("error = %v, want ErrInvalidRatio", err)
		}
	})
}

// --- Order deduction ---

func TestDeductForOrder(t *testing.T) {
	restaurantID := uuid.New()
	orderID := uuid.New()
	actorID := uuid.New()
	menuItemID := uuid.New()
	baseInvID := uuid.New()

	svc := NewInventoryService(&mockTxBeginner{}, func(db database.DBTX) InventoryStore { return nil })

	t.Run("deducts consumption and propagates to base", func(t *testing.T) {
		item := database.InventoryItem{
			ID:                  uuid.New(),
			RestaurantID:        restaurantID,
			Name:                "Garlic Bread",
			MenuItemID:          pgtype.UUID{Bytes: menuItemID, Valid: true},
			Quantity:            mustNumeric(t, "10"),
			ConsumptionPerOrder: mustNumeric(t, "1"),
			IsTracked:           true,
			AutoDeduct:          true,
			BaseInventoryID:     pgtype.UUID{Bytes: baseInvID, Valid: true},
			BaseRatio:           mustNumeric(t, "0.5"),
		}
		base := database.InventoryItem{
			ID:           baseInvID,
			RestaurantID: restaurantID,
			Name:         "Pizza Dough",
			Quantity:     mustNumeric(t, "8"),
			IsTracked:    true,
			AutoDeduct:   true,
		}

		quantities := map[uuid.UUID]decimal.Decimal{}
		var txnTypes []string
		store := &mockInventoryStore{
			getByMenuItemFn: func(ctx context.Context, arg database.GetInventoryByMenuItemParams) (database.InventoryItem, error) {
				return item, nil
			},
			getItemForUpdateFn: func(ctx context.Context, arg database.GetInventoryItemParams) (database.InventoryItem, error) {
				return base, nil
			},
			setQuantityFn: func(ctx context.Context, arg database.SetInventoryQuantityParams) (database.InventoryItem, error) {
				quantities[arg.ID] = numericToDecimal(arg.Quantity)
				return database.InventoryItem{ID: arg.ID}, nil
			},
			createTxnFn: func(ctx context.Context, arg database.CreateInventoryTransactionParams) (database.InventoryTransaction, error) {
				txnTypes = append(txnTypes, arg.Type)
				if !arg.OrderID.Valid || arg.OrderID.Bytes != orderID {
					t.Error("deduction transaction must reference the order")
				}
				return database.InventoryTransaction{}, nil
			},
		}

		warnings, err := svc.DeductForOrder(context.Background(), store, restaurantID, orderID, actorID,
			map[uuid.UUID]int32{menuItemID: 4})
		if err != nil {
			t.Fatalf("DeductForOrder() error: %v", err)
		}
		if len(warnings) != 0 {
			t.Fatalf("unexpected warnings: %v", warnings)
		}
		if got := quantities[item.ID]; !got.Equal(dec("6")) {
			t.Errorf("item quantity = %s, want 6", got)
		}
		if got := quantities[baseInvID]; !got.Equal(dec("6")) {
			t.Errorf("base quantity = %s, want 6 (8 - 0.5x4)", got)
		}
		for _, typ := range txnTypes {
			if typ != enum.AdjustmentTypeOrderDeduction {
				t.Errorf("transaction type = %q, want order_deduction", typ)
			}
		}
	})

	t.Run("clamps at zero with warning", func(t *testing.T) {
		item := database.InventoryItem{
			ID:                  uuid.New(),
			RestaurantID:        restaurantID,
			Name:                "Mozzarella",
			MenuItemID:          pgtype.UUID{Bytes: menuItemID, Valid: true},
			Quantity:            mustNumeric(t, "3"),
			ConsumptionPerOrder: mustNumeric(t, "2"),
			IsTracked:           true,
			AutoDeduct:          true,
		}

		var finalQty decimal.Decimal
		store := &mockInventoryStore{
			getByMenuItemFn: func(ctx context.Context, arg database.GetInventoryByMenuItemParams) (database.InventoryItem, error) {
				return item, nil
			},
			setQuantityFn: func(ctx context.Context, arg database.SetInventoryQuantityParams) (database.InventoryItem, error) {
				finalQty = numericToDecimal(arg.Quantity)
				return database.InventoryItem{ID: arg.ID}, nil
			},
			createTxnFn: func(ctx context.Context, arg database.CreateInventoryTransactionParams) (database.InventoryTransaction, error) {
				return database.InventoryTransaction{}, nil
			},
		}

		warnings, err := svc.DeductForOrder(context.Background(), store, restaurantID, orderID, actorID,
			map[uuid.UUID]int32{menuItemID: 5})
		if err != nil {
			t.Fatalf("DeductForOrder() error: %v", err)
		}
		if len(warnings) != 1 {
			t.Fatalf("got %d warnings, want 1", len(warnings))
		}
		if !warnings[0].Requested.Equal(dec("10")) || !warnings[0].Deducted.Equal(dec("3")) {
			t.Errorf("warning = %+v, want requested 10 deducted 3", warnings[0])
		}
		if !finalQty.IsZero() {
			t.Errorf("final quantity = %s, want 0", finalQty)
		}
	})

	t.Run("forward link deducts the holder", func(t *testing.T) {
		// The sold menu item has no inventory record of its own; a holder
		// lists it in linked_items without the reverse fields set.
		holder := database.InventoryItem{
			ID:           uuid.New(),
			RestaurantID: restaurantID,
			Name:         "Pizza Dough",
			Quantity:     mustNumeric(t, "10"),
			IsTracked:    true,
			AutoDeduct:   true,
			LinkedItems: []database.LinkedItem{
				{
					ID:               uuid.NewString(),
					LinkedMenuItemID: menuItemID.String(),
					Ratio:            "0.5",
					IsActive:         true,
				},
			},
		}

		var holderQty decimal.Decimal
		store := &mockInventoryStore{
			getByMenuItemFn: func(ctx context.Context, arg database.GetInventoryByMenuItemParams) (database.InventoryItem, error) {
				return database.InventoryItem{}, pgx.ErrNoRows
			},
			listLinkingFn: func(ctx context.Context, arg database.ListInventoryLinkingMenuItemParams) ([]database.InventoryItem, error) {
				if arg.MenuItemID != menuItemID {
					t.Errorf("linking lookup for menu item %s, want %s", arg.MenuItemID, menuItemID)
				}
				return []database.InventoryItem{holder}, nil
			},
			setQuantityFn: func(ctx context.Context, arg database.SetInventoryQuantityParams) (database.InventoryItem, error) {
				holderQty = numericToDecimal(arg.Quantity)
				return database.InventoryItem{ID: arg.ID}, nil
			},
			createTxnFn: func(ctx context.Context, arg database.CreateInventoryTransactionParams) (database.InventoryTransaction, error) {
				return database.InventoryTransaction{}, nil
			},
		}

		warnings, err := svc.DeductForOrder(context.Background(), store, restaurantID, orderID, actorID,
			map[uuid.UUID]int32{menuItemID: 4})
		if err != nil {
			t.Fatalf("DeductForOrder() error: %v", err)
		}
		if len(warnings) != 0 {
			t.Fatalf("unexpected warnings: %v", warnings)
		}
		if !holderQty.Equal(dec("8")) {
			t.Errorf("holder quantity = %s, want 8 (10 - 0.5x4)", holderQty)
		}
	})

	t.Run("reverse-linked base is not deducted twice", func(t *testing.T) {
		item := database.InventoryItem{
			ID:                  uuid.New(),
			RestaurantID:        restaurantID,
			Name:                "Garlic Bread",
			MenuItemID:          pgtype.UUID{Bytes: menuItemID, Valid: true},
			Quantity:            mustNumeric(t, "10"),
			ConsumptionPerOrder: mustNumeric(t, "1"),
			IsTracked:           true,
			AutoDeduct:          true,
			BaseInventoryID:     pgtype.UUID{Bytes: baseInvID, Valid: true},
			BaseRatio:           mustNumeric(t, "0.5"),
		}
		base := database.InventoryItem{
			ID:           baseInvID,
			RestaurantID: restaurantID,
			Name:         "Pizza Dough",
			Quantity:     mustNumeric(t, "8"),
			IsTracked:    true,
			AutoDeduct:   true,
			LinkedItems: []database.LinkedItem{
				{
					ID:                uuid.NewString(),
					LinkedMenuItemID:  menuItemID.String(),
					Ratio:             "0.5",
					EnableReverseLink: true,
					IsActive:          true,
				},
			},
		}

		deductions := map[uuid.UUID]int{}
		store := &mockInventoryStore{
			getByMenuItemFn: func(ctx context.Context, arg database.GetInventoryByMenuItemParams) (database.InventoryItem, error) {
				return item, nil
			},
			getItemForUpdateFn: func(ctx context.Context, arg database.GetInventoryItemParams) (database.InventoryItem, error) {
				return base, nil
			},
			listLinkingFn: func(ctx context.Context, arg database.ListInventoryLinkingMenuItemParams) ([]database.InventoryItem, error) {
				return []database.InventoryItem{base}, nil
			},
			setQuantityFn: func(ctx context.Context, arg database.SetInventoryQuantityParams) (database.InventoryItem, error) {
				deductions[arg.ID]++
				return database.InventoryItem{ID: arg.ID}, nil
			},
			createTxnFn: func(ctx context.Context, arg database.CreateInventoryTransactionParams) (database.InventoryTransaction, error) {
				return database.InventoryTransaction{}, nil
			},
		}

		if _, err := svc.DeductForOrder(context.Background(), store, restaurantID, orderID, actorID,
			map[uuid.UUID]int32{menuItemID: 2}); err != nil {
			t.Fatalf("DeductForOrder() error: %v", err)
		}
		if deductions[baseInvID] != 1 {
			t.Errorf("base deducted %d times, want 1", deductions[baseInvID])
		}
	})

	t.Run("skips untracked and manual items", func(t *testing.T) {
		item := database.InventoryItem{
			ID:           uuid.New(),
			RestaurantID: restaurantID,
			MenuItemID:   pgtype.UUID{Bytes: menuItemID, Valid: true},
			Quantity:     mustNumeric(t, "3"),
			IsTracked:    true,
			AutoDeduct:   false,
		}
		store := &mockInventoryStore{
			getByMenuItemFn: func(ctx context.Context, arg database.GetInventoryByMenuItemParams) (database.InventoryItem, error) {
				return item, nil
			},
			setQuantityFn: func(ctx context.Context, arg database.SetInventoryQuantityParams) (database.InventoryItem, error) {
				t.Fatal("manual-deduct item must not be touched")
				return database.InventoryItem{}, nil
			},
		}

		if _, err := svc.DeductForOrder(context.Background(), store, restaurantID, orderID, actorID,
			map[uuid.UUID]int32{menuItemID: 1}); err != nil {
			t.Fatalf("DeductForOrder() error: %v", err)
		}
	})
}
