package cart

import (
	"context"
	"reflect"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/coffeeclub/coffeeclub-client/pkg/enums"
	pkgerrors "github.com/coffeeclub/coffeeclub-client/pkg/errors"
	"github.com/coffeeclub/coffeeclub-client/pkg/types"
)

type stubGateway struct {
	mu sync.Mutex

	snapshot []types.CartItemPayload
	err      error

	addCalls       []types.AddCartItemRequest
	quantityCalls  []int
	removedLineIDs []int64
	freeDrinkCalls []bool
	clearCalls     int
}

func (g *stubGateway) respond() ([]types.CartItemPayload, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.snapshot, nil
}

func (g *stubGateway) FetchCart(context.Context) ([]types.CartItemPayload, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.respond()
}

func (g *stubGateway) AddCartItem(_ context.Context, req types.AddCartItemRequest) ([]types.CartItemPayload, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addCalls = append(g.addCalls, req)
	return g.respond()
}

func (g *stubGateway) UpdateCartItemQuantity(_ context.Context, _ int64, quantity int) ([]types.CartItemPayload, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.quantityCalls = append(g.quantityCalls, quantity)
	return g.respond()
}

func (g *stubGateway) SetCartItemFreeDrink(_ context.Context, _ int64, apply bool) ([]types.CartItemPayload, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.freeDrinkCalls = append(g.freeDrinkCalls, apply)
	return g.respond()
}

func (g *stubGateway) RemoveCartItem(_ context.Context, lineID int64) ([]types.CartItemPayload, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removedLineIDs = append(g.removedLineIDs, lineID)
	return g.respond()
}

func (g *stubGateway) ClearCart(context.Context) ([]types.CartItemPayload, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clearCalls++
	return g.respond()
}

func latte() types.MenuItem {
	return types.MenuItem{
		ID:       1,
		Name:     "Latte",
		Price:    decimal.RequireFromString("4.50"),
		Category: enums.MenuCategoryCoffee,
	}
}

func croissant() types.MenuItem {
	return types.MenuItem{
		ID:       2,
		Name:     "Croissant",
		Price:    decimal.RequireFromString("3.25"),
		Category: enums.MenuCategoryPastry,
	}
}

func oatCustomization() *types.Customization {
	return &types.Customization{Milk: enums.MilkOat, Shots: 2}
}

func lattePayload(id int64, qty int, free bool) types.CartItemPayload {
	return types.CartItemPayload{
		ID:            id,
		MenuItem:      latte(),
		Quantity:      qty,
		MilkOption:    enums.MilkOat,
		EspressoShots: 2,
		IsFreeDrink:   free,
	}
}

func seedStore(t *testing.T, gw *stubGateway, snapshot []types.CartItemPayload) *Store {
	t.Helper()
	store := NewStore(gw, nil, nil)
	gw.snapshot = snapshot
	if err := store.Refresh(context.Background()); err != nil {
		t.Fatalf("seed refresh: %v", err)
	}
	return store
}

func TestAddItemCommitsSnapshot(t *testing.T) {
	gw := &stubGateway{snapshot: []types.CartItemPayload{lattePayload(10, 1, false)}}
	store := NewStore(gw, nil, nil)

	if err := store.AddItem(context.Background(), latte(), 1, oatCustomization()); err != nil {
		t.Fatalf("add: %v", err)
	}

	items := store.Items()
	if len(items) != 1 || items[0].ID != 10 || items[0].Quantity != 1 {
		t.Fatalf("unexpected items: %+v", items)
	}
	if items[0].Customization == nil || items[0].Customization.Milk != enums.MilkOat {
		t.Fatalf("customization should survive reconciliation: %+v", items[0].Customization)
	}
	if len(gw.addCalls) != 1 || gw.addCalls[0].MenuItemID != 1 {
		t.Fatalf("unexpected gateway calls: %+v", gw.addCalls)
	}
}

func TestAddItemValidation(t *testing.T) {
	store := NewStore(&stubGateway{}, nil, nil)
	ctx := context.Background()

	cases := []struct {
		name   string
		item   types.MenuItem
		qty    int
		custom *types.Customization
	}{
		{"coffee without customization", latte(), 1, nil},
		{"pastry with customization", croissant(), 1, oatCustomization()},
		{"zero quantity", croissant(), 0, nil},
		{"too many shots", latte(), 1, &types.Customization{Milk: enums.MilkWhole, Shots: 7}},
		{"too many pumps", latte(), 1, &types.Customization{
			Milk: enums.MilkWhole, Shots: 2,
			Flavor: &types.FlavorChoice{Name: "Vanilla", Pumps: 9},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := store.AddItem(ctx, tc.item, tc.qty, tc.custom)
			appErr := pkgerrors.As(err)
			if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestFailedMutationLeavesStateUntouched(t *testing.T) {
	gw := &stubGateway{}
	store := seedStore(t, gw, []types.CartItemPayload{lattePayload(10, 2, false)})
	before := store.Items()

	gw.err = pkgerrors.New(pkgerrors.CodeNetwork, "network unavailable")
	if err := store.IncrementItem(context.Background(), 10); err == nil {
		t.Fatal("expected gateway failure")
	}

	if !reflect.DeepEqual(before, store.Items()) {
		t.Fatalf("failed mutation changed state: before=%+v after=%+v", before, store.Items())
	}
}

func TestDecrementRemovesAtQuantityOne(t *testing.T) {
	gw := &stubGateway{}
	store := seedStore(t, gw, []types.CartItemPayload{lattePayload(10, 1, false)})

	gw.snapshot = nil
	if err := store.DecrementItem(context.Background(), 10); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if len(gw.removedLineIDs) != 1 || gw.removedLineIDs[0] != 10 {
		t.Fatalf("quantity 1 should remove the line, got removes=%v updates=%v", gw.removedLineIDs, gw.quantityCalls)
	}
	if len(store.Items()) != 0 {
		t.Fatalf("line should be gone: %+v", store.Items())
	}
}

func TestDecrementUpdatesAboveQuantityOne(t *testing.T) {
	gw := &stubGateway{}
	store := seedStore(t, gw, []types.CartItemPayload{lattePayload(10, 3, false)})

	gw.snapshot = []types.CartItemPayload{lattePayload(10, 2, false)}
	if err := store.DecrementItem(context.Background(), 10); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if len(gw.quantityCalls) != 1 || gw.quantityCalls[0] != 2 {
		t.Fatalf("expected quantity update to 2, got %v", gw.quantityCalls)
	}
	if len(gw.removedLineIDs) != 0 {
		t.Fatalf("nothing should be removed: %v", gw.removedLineIDs)
	}
}

func TestDistinctCustomizationsStaySeparate(t *testing.T) {
	vanilla := "Vanilla"
	pumps := 2
	snapshot := []types.CartItemPayload{
		lattePayload(10, 1, false),
		{
			ID: 11, MenuItem: latte(), Quantity: 1,
			MilkOption: enums.MilkOat, EspressoShots: 2,
			FlavorName: &vanilla, FlavorPumps: &pumps,
		},
	}
	store := seedStore(t, &stubGateway{}, snapshot)

	items := store.Items()
	if len(items) != 2 {
		t.Fatalf("variant lines must not merge: %+v", items)
	}
	if items[0].Customization.Fingerprint() == items[1].Customization.Fingerprint() {
		t.Fatal("distinct flavors should yield distinct fingerprints")
	}
	if store.QuantityByMenuItem(1) != 2 {
		t.Fatalf("menu-item quantity should span variants, got %d", store.QuantityByMenuItem(1))
	}
}

func TestToggleFreeDrinkPreconditions(t *testing.T) {
	gw := &stubGateway{}
	store := seedStore(t, gw, []types.CartItemPayload{
		lattePayload(10, 2, false),
		{ID: 11, MenuItem: croissant(), Quantity: 1},
	})
	ctx := context.Background()

	err := store.ToggleFreeDrink(ctx, 10)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodePrecondition {
		t.Fatalf("quantity>1 redemption should fail precondition, got %v", err)
	}

	err = store.ToggleFreeDrink(ctx, 11)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodePrecondition {
		t.Fatalf("pastry redemption should fail precondition, got %v", err)
	}

	err = store.ToggleFreeDrink(ctx, 99)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("missing line should be not found, got %v", err)
	}

	if len(gw.freeDrinkCalls) != 0 {
		t.Fatalf("no precondition failure should reach the gateway: %v", gw.freeDrinkCalls)
	}
}

func TestToggleFreeDrinkRoundTrip(t *testing.T) {
	gw := &stubGateway{}
	store := seedStore(t, gw, []types.CartItemPayload{lattePayload(10, 1, false)})
	ctx := context.Background()

	gw.snapshot = []types.CartItemPayload{lattePayload(10, 1, true)}
	if err := store.ToggleFreeDrink(ctx, 10); err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if store.PendingFreeDrinks() != 1 {
		t.Fatalf("expected one pending free drink, got %d", store.PendingFreeDrinks())
	}
	if !store.Subtotal().IsZero() {
		t.Fatalf("free drink should not count toward subtotal, got %s", store.Subtotal())
	}

	gw.snapshot = []types.CartItemPayload{lattePayload(10, 1, false)}
	if err := store.ToggleFreeDrink(ctx, 10); err != nil {
		t.Fatalf("un-redeem: %v", err)
	}
	if got := gw.freeDrinkCalls; len(got) != 2 || !got[0] || got[1] {
		t.Fatalf("expected apply then revert, got %v", got)
	}
	if store.PendingFreeDrinks() != 0 {
		t.Fatalf("pending count should drop to zero, got %d", store.PendingFreeDrinks())
	}
}

func TestIncrementRejectsFreeDrinkLine(t *testing.T) {
	store := seedStore(t, &stubGateway{}, []types.CartItemPayload{lattePayload(10, 1, true)})
	err := store.IncrementItem(context.Background(), 10)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodePrecondition {
		t.Fatalf("expected precondition error, got %v", err)
	}
}

func TestSubtotalSkipsFreeLines(t *testing.T) {
	store := seedStore(t, &stubGateway{}, []types.CartItemPayload{
		lattePayload(10, 2, false),
		lattePayload(11, 1, true),
		{ID: 12, MenuItem: croissant(), Quantity: 1},
	})

	want := decimal.RequireFromString("12.25") // 2 * 4.50 + 3.25
	if !store.Subtotal().Equal(want) {
		t.Fatalf("subtotal = %s, want %s", store.Subtotal(), want)
	}
	if store.TotalQuantity() != 4 {
		t.Fatalf("total quantity = %d, want 4", store.TotalQuantity())
	}
}

func TestStaleSnapshotIsDiscarded(t *testing.T) {
	gw := &stubGateway{}
	store := seedStore(t, gw, []types.CartItemPayload{lattePayload(10, 1, false)})

	// Simulate a refresh that was issued before a later mutation committed:
	// its sequence number is older, so its snapshot must be dropped.
	staleSeq := store.beginOp()
	freshSeq := store.beginOp()

	store.commit(context.Background(), freshSeq, []types.CartItemPayload{lattePayload(10, 5, false)})
	store.commit(context.Background(), staleSeq, []types.CartItemPayload{lattePayload(10, 1, false)})

	items := store.Items()
	if len(items) != 1 || items[0].Quantity != 5 {
		t.Fatalf("stale snapshot rolled state backwards: %+v", items)
	}
}

func TestResetDiscardsInFlightResponses(t *testing.T) {
	store := seedStore(t, &stubGateway{}, []types.CartItemPayload{lattePayload(10, 1, false)})

	inFlight := store.beginOp()
	store.Reset()
	store.commit(context.Background(), inFlight, []types.CartItemPayload{lattePayload(10, 1, false)})

	if len(store.Items()) != 0 {
		t.Fatalf("reset store should stay empty, got %+v", store.Items())
	}
}

type stubSessions struct {
	active   bool
	hydrated bool
}

func (s stubSessions) Active() bool   { return s.active }
func (s stubSessions) Hydrated() bool { return s.hydrated }

func TestMutationsRequireActiveSession(t *testing.T) {
	gw := &stubGateway{}
	store := NewStore(gw, stubSessions{active: false, hydrated: true}, nil)

	err := store.AddItem(context.Background(), latte(), 1, oatCustomization())
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodePrecondition {
		t.Fatalf("expected precondition error, got %v", err)
	}
	if len(gw.addCalls) != 0 {
		t.Fatal("gated mutation must not reach the gateway")
	}
}

func TestClearEmptiesCart(t *testing.T) {
	gw := &stubGateway{}
	store := seedStore(t, gw, []types.CartItemPayload{lattePayload(10, 2, false)})

	gw.snapshot = nil
	if err := store.Clear(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if gw.clearCalls != 1 || len(store.Items()) != 0 {
		t.Fatalf("cart should be empty after clear: calls=%d items=%+v", gw.clearCalls, store.Items())
	}
}
