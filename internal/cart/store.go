package cart

import (
	"context"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/coffeeclub/coffeeclub-client/pkg/errors"
	"github.com/coffeeclub/coffeeclub-client/pkg/logger"
	"github.com/coffeeclub/coffeeclub-client/pkg/types"
)

// Gateway is the slice of the API client the cart store drives. Every
// mutating call returns the full replacement snapshot.
type Gateway interface {
	FetchCart(ctx context.Context) ([]types.CartItemPayload, error)
	AddCartItem(ctx context.Context, req types.AddCartItemRequest) ([]types.CartItemPayload, error)
	UpdateCartItemQuantity(ctx context.Context, lineID int64, quantity int) ([]types.CartItemPayload, error)
	SetCartItemFreeDrink(ctx context.Context, lineID int64, apply bool) ([]types.CartItemPayload, error)
	RemoveCartItem(ctx context.Context, lineID int64) ([]types.CartItemPayload, error)
	ClearCart(ctx context.Context) ([]types.CartItemPayload, error)
}

// Sessions gates cart mutations on an authenticated, hydrated session.
type Sessions interface {
	Active() bool
	Hydrated() bool
}

// Line is one reconciled cart line, keyed by the server-issued line id.
type Line struct {
	ID            int64
	MenuItem      types.MenuItem
	Quantity      int
	Customization *types.Customization
	IsFreeDrink   bool
}

// Price returns the line's extended price; a redeemed free drink costs zero.
func (l Line) Price() decimal.Decimal {
	if l.IsFreeDrink {
		return decimal.Zero
	}
	return l.MenuItem.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Store mirrors the server cart. Mutations are serialized through opMu so the
// server applies them in the order the user issued them; every response
// carries a sequence number and only the newest snapshot ever commits, so a
// slow response can never roll local state backwards. Failed mutations leave
// the mirror untouched.
type Store struct {
	gateway  Gateway
	sessions Sessions
	validate *validator.Validate
	logg     *logger.Logger

	opMu sync.Mutex

	stateMu    sync.RWMutex
	lines      map[int64]Line
	nextSeq    uint64
	appliedSeq uint64
}

// NewStore builds the cart store. sessions may be nil when the caller gates
// authentication elsewhere.
func NewStore(gw Gateway, sessions Sessions, logg *logger.Logger) *Store {
	return &Store{
		gateway:  gw,
		sessions: sessions,
		validate: validator.New(),
		logg:     logg,
		lines:    map[int64]Line{},
	}
}

// Refresh replaces the mirror from the server. It intentionally does not
// serialize behind mutations; the sequence check alone keeps a stale fetch
// from clobbering a newer mutation result.
func (s *Store) Refresh(ctx context.Context) error {
	if err := s.requireSession(); err != nil {
		return err
	}
	seq := s.beginOp()
	snapshot, err := s.gateway.FetchCart(ctx)
	if err != nil {
		return err
	}
	s.commit(ctx, seq, snapshot)
	return nil
}

// AddItem adds quantity units of the menu item. Coffees must carry a
// customization; anything else must not.
func (s *Store) AddItem(ctx context.Context, item types.MenuItem, quantity int, custom *types.Customization) error {
	if err := s.requireSession(); err != nil {
		return err
	}
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if item.IsCoffee() && custom == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "coffee items require a customization")
	}
	if !item.IsCoffee() && custom != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "only coffee items accept a customization")
	}

	req := types.AddCartItemRequest{MenuItemID: item.ID, Quantity: quantity, Customization: custom}
	if err := s.validate.Struct(req); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart item").WithDetails(err.Error())
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	seq := s.beginOp()
	snapshot, err := s.gateway.AddCartItem(ctx, req)
	if err != nil {
		return err
	}
	s.commit(ctx, seq, snapshot)
	return nil
}

// IncrementItem raises a line's quantity by one.
func (s *Store) IncrementItem(ctx context.Context, lineID int64) error {
	if err := s.requireSession(); err != nil {
		return err
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	line, ok := s.line(lineID)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	if line.IsFreeDrink {
		return pkgerrors.New(pkgerrors.CodePrecondition, "a redeemed free drink stays at quantity 1")
	}

	seq := s.beginOp()
	snapshot, err := s.gateway.UpdateCartItemQuantity(ctx, lineID, line.Quantity+1)
	if err != nil {
		return err
	}
	s.commit(ctx, seq, snapshot)
	return nil
}

// DecrementItem lowers a line's quantity by one; at quantity 1 the line is
// removed instead.
func (s *Store) DecrementItem(ctx context.Context, lineID int64) error {
	if err := s.requireSession(); err != nil {
		return err
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	line, ok := s.line(lineID)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}

	var (
		snapshot []types.CartItemPayload
		err      error
	)
	seq := s.beginOp()
	if line.Quantity <= 1 {
		snapshot, err = s.gateway.RemoveCartItem(ctx, lineID)
	} else {
		snapshot, err = s.gateway.UpdateCartItemQuantity(ctx, lineID, line.Quantity-1)
	}
	if err != nil {
		return err
	}
	s.commit(ctx, seq, snapshot)
	return nil
}

// RemoveItem deletes a line outright.
func (s *Store) RemoveItem(ctx context.Context, lineID int64) error {
	if err := s.requireSession(); err != nil {
		return err
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	if _, ok := s.line(lineID); !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}

	seq := s.beginOp()
	snapshot, err := s.gateway.RemoveCartItem(ctx, lineID)
	if err != nil {
		return err
	}
	s.commit(ctx, seq, snapshot)
	return nil
}

// ToggleFreeDrink redeems a free-coffee credit on a line, or takes the
// redemption back. Redeeming requires the line to sit at quantity 1 so the
// credit covers exactly one drink.
func (s *Store) ToggleFreeDrink(ctx context.Context, lineID int64) error {
	if err := s.requireSession(); err != nil {
		return err
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	line, ok := s.line(lineID)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	if !line.MenuItem.IsCoffee() {
		return pkgerrors.New(pkgerrors.CodePrecondition, "free-drink credits apply to coffee only")
	}
	if !line.IsFreeDrink && line.Quantity != 1 {
		return pkgerrors.New(pkgerrors.CodePrecondition, "free-drink credits apply to a single drink")
	}

	seq := s.beginOp()
	snapshot, err := s.gateway.SetCartItemFreeDrink(ctx, lineID, !line.IsFreeDrink)
	if err != nil {
		return err
	}
	s.commit(ctx, seq, snapshot)
	return nil
}

// Clear empties the cart on the server and locally.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.requireSession(); err != nil {
		return err
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	seq := s.beginOp()
	snapshot, err := s.gateway.ClearCart(ctx)
	if err != nil {
		return err
	}
	s.commit(ctx, seq, snapshot)
	return nil
}

// Reset drops local state without a server call, for sign-out. The sequence
// bump makes any still-in-flight response land stale and get discarded.
func (s *Store) Reset() {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.nextSeq++
	s.appliedSeq = s.nextSeq
	s.lines = map[int64]Line{}
}

// Items returns the lines ordered by line id.
func (s *Store) Items() []Line {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	items := make([]Line, 0, len(s.lines))
	for _, line := range s.lines {
		items = append(items, line)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

// Subtotal sums extended line prices; redeemed free drinks contribute zero.
func (s *Store) Subtotal() decimal.Decimal {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	total := decimal.Zero
	for _, line := range s.lines {
		total = total.Add(line.Price())
	}
	return total
}

// TotalQuantity is the unit count across all lines.
func (s *Store) TotalQuantity() int {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	total := 0
	for _, line := range s.lines {
		total += line.Quantity
	}
	return total
}

// PendingFreeDrinks counts credits already committed to cart lines but not
// yet settled by checkout.
func (s *Store) PendingFreeDrinks() int {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	count := 0
	for _, line := range s.lines {
		if line.IsFreeDrink {
			count++
		}
	}
	return count
}

// QuantityByMenuItem sums units of a menu item across every variant line.
func (s *Store) QuantityByMenuItem(menuItemID int64) int {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	total := 0
	for _, line := range s.lines {
		if line.MenuItem.ID == menuItemID {
			total += line.Quantity
		}
	}
	return total
}

func (s *Store) requireSession() error {
	if s.sessions == nil {
		return nil
	}
	if !s.sessions.Hydrated() || !s.sessions.Active() {
		return pkgerrors.New(pkgerrors.CodePrecondition, "active session required")
	}
	return nil
}

func (s *Store) line(id int64) (Line, bool) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	line, ok := s.lines[id]
	return line, ok
}

func (s *Store) beginOp() uint64 {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.nextSeq++
	return s.nextSeq
}

// commit installs a snapshot unless something newer already landed.
func (s *Store) commit(ctx context.Context, seq uint64, snapshot []types.CartItemPayload) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	if seq <= s.appliedSeq {
		if s.logg != nil {
			s.logg.Debug(ctx, "discarding stale cart snapshot")
		}
		return
	}
	s.appliedSeq = seq

	lines := make(map[int64]Line, len(snapshot))
	for _, payload := range snapshot {
		lines[payload.ID] = Line{
			ID:            payload.ID,
			MenuItem:      payload.MenuItem,
			Quantity:      payload.Quantity,
			Customization: payload.Customization(),
			IsFreeDrink:   payload.IsFreeDrink,
		}
	}
	s.lines = lines
}
