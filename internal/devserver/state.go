package devserver

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coffeeclub/coffeeclub-client/pkg/enums"
	pkgerrors "github.com/coffeeclub/coffeeclub-client/pkg/errors"
	"github.com/coffeeclub/coffeeclub-client/pkg/types"
)

// rewardTier is one loyalty tier boundary, by lifetime points.
type rewardTier struct {
	level     types.TierLevel
	threshold int
}

var rewardTiers = []rewardTier{
	{types.TierLevel{Name: "Bronze", Tagline: "Every cup counts"}, 0},
	{types.TierLevel{Name: "Silver", Tagline: "Regular of the house"}, 250},
	{types.TierLevel{Name: "Gold", Tagline: "First name basis"}, 600},
}

const recentTransactionLimit = 10

type user struct {
	ID                    int64
	Email                 string
	PasswordHash          string
	FirstName             string
	LastName              string
	BirthDate             string // YYYY-MM-DD
	Phone                 string
	RequiresPasswordReset bool
}

type cartLine struct {
	ID          int64
	MenuItemID  int64
	Quantity    int
	Milk        enums.MilkOption
	Shots       int
	FlavorName  string
	FlavorPumps int
	IsFreeDrink bool
}

func (l cartLine) fingerprint() string {
	if l.Milk == "" {
		return "plain"
	}
	if l.FlavorName == "" {
		return fmt.Sprintf("%s|%d", l.Milk, l.Shots)
	}
	return fmt.Sprintf("%s|%d|%s|%d", l.Milk, l.Shots, l.FlavorName, l.FlavorPumps)
}

type account struct {
	cart           []*cartLine
	punchProgress  int
	rewardPoints   int
	lifetimePoints int
	freeCredits    int
	giftBalance    decimal.Decimal
	rewardTxns     []types.RewardTransaction
	giftTxns       []types.GiftCardTransaction
}

type paymentIntent struct {
	ID           string
	ClientSecret string
	AmountCents  int64
	Purpose      string
	UserID       int64
}

// state is the devserver's whole world: users, the menu, per-user carts and
// rewards ledgers, and issued payment intents. One lock guards everything;
// the dev loop never needs more.
type state struct {
	mu sync.Mutex

	freeDrinkThreshold int
	now                func() time.Time

	users     map[string]*user
	usersByID map[int64]*user
	accounts  map[int64]*account
	intents   map[string]*paymentIntent
	menu      []types.MenuItem

	nextUserID  int64
	nextLineID  int64
	nextTxnID   int64
	nextOrderID int64
}

func newState(freeDrinkThreshold int, now func() time.Time) *state {
	if freeDrinkThreshold <= 0 {
		freeDrinkThreshold = 10
	}
	if now == nil {
		now = time.Now
	}
	return &state{
		freeDrinkThreshold: freeDrinkThreshold,
		now:                now,
		users:              map[string]*user{},
		usersByID:          map[int64]*user{},
		accounts:           map[int64]*account{},
		intents:            map[string]*paymentIntent{},
		menu:               seedMenu(),
	}
}

func seedMenu() []types.MenuItem {
	price := decimal.RequireFromString
	return []types.MenuItem{
		{ID: 1, Name: "House Drip", Description: "Daily roast, brewed steady", Price: price("3.00"), Category: enums.MenuCategoryCoffee, ImageKey: "house-drip", IsAvailable: true},
		{ID: 2, Name: "Latte", Description: "Double shot with steamed milk", Price: price("4.50"), Category: enums.MenuCategoryCoffee, ImageKey: "latte", Tags: []string{"popular"}, IsAvailable: true},
		{ID: 3, Name: "Cappuccino", Description: "Equal parts espresso, milk, foam", Price: price("4.25"), Category: enums.MenuCategoryCoffee, ImageKey: "cappuccino", IsAvailable: true},
		{ID: 4, Name: "Cold Brew", Description: "Steeped 18 hours, served over ice", Price: price("4.75"), Category: enums.MenuCategoryCoffee, ImageKey: "cold-brew", Tags: []string{"iced"}, IsAvailable: true},
		{ID: 5, Name: "Mocha", Description: "Espresso, chocolate, steamed milk", Price: price("5.25"), Category: enums.MenuCategoryCoffee, ImageKey: "mocha", IsAvailable: true},
		{ID: 6, Name: "Butter Croissant", Description: "Laminated and baked each morning", Price: price("3.25"), Category: enums.MenuCategoryPastry, ImageKey: "croissant", Tags: []string{"popular"}, IsAvailable: true},
		{ID: 7, Name: "Blueberry Muffin", Description: "Bursting with wild blueberries", Price: price("3.50"), Category: enums.MenuCategoryPastry, ImageKey: "muffin", IsAvailable: true},
		{ID: 8, Name: "Cinnamon Roll", Description: "Cream cheese icing, still warm", Price: price("4.00"), Category: enums.MenuCategoryPastry, ImageKey: "cinnamon-roll", IsAvailable: true},
	}
}

// --- users ---

func (s *state) registerUser(email, passwordHash, firstName, lastName string) (*user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(strings.TrimSpace(email))
	if _, exists := s.users[key]; exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists")
	}

	s.nextUserID++
	created := &user{
		ID:           s.nextUserID,
		Email:        key,
		PasswordHash: passwordHash,
		FirstName:    firstName,
		LastName:     lastName,
	}
	s.users[key] = created
	s.usersByID[created.ID] = created
	s.accounts[created.ID] = &account{giftBalance: decimal.Zero}
	return created, nil
}

func (s *state) userByEmail(email string) (*user, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	found, ok := s.users[strings.ToLower(strings.TrimSpace(email))]
	return found, ok
}

func (s *state) userByID(id int64) (*user, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	found, ok := s.usersByID[id]
	return found, ok
}

func (s *state) updateUser(id int64, apply func(*user)) (*user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	found, ok := s.usersByID[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	apply(found)
	return found, nil
}

// --- menu ---

func (s *state) menuItems(category enums.MenuCategory) []types.MenuItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]types.MenuItem, 0, len(s.menu))
	for _, item := range s.menu {
		if category != "" && item.Category != category {
			continue
		}
		items = append(items, item)
	}
	return items
}

func (s *state) menuItem(id int64) (types.MenuItem, bool) {
	for _, item := range s.menu {
		if item.ID == id {
			return item, true
		}
	}
	return types.MenuItem{}, false
}

// --- cart ---

func (s *state) cartSnapshot(userID int64) []types.CartItemPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(userID)
}

func (s *state) snapshotLocked(userID int64) []types.CartItemPayload {
	acct := s.accounts[userID]
	if acct == nil {
		return []types.CartItemPayload{}
	}

	snapshot := make([]types.CartItemPayload, 0, len(acct.cart))
	for _, line := range acct.cart {
		item, _ := s.menuItem(line.MenuItemID)
		payload := types.CartItemPayload{
			ID:          line.ID,
			MenuItem:    item,
			Quantity:    line.Quantity,
			IsFreeDrink: line.IsFreeDrink,
		}
		if item.IsCoffee() {
			payload.MilkOption = line.Milk
			payload.EspressoShots = line.Shots
			if line.FlavorName != "" {
				name := line.FlavorName
				pumps := line.FlavorPumps
				payload.FlavorName = &name
				payload.FlavorPumps = &pumps
			}
		}
		snapshot = append(snapshot, payload)
	}
	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].ID < snapshot[j].ID })
	return snapshot
}

func (s *state) addCartItem(userID int64, req types.AddCartItemRequest) ([]types.CartItemPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.menuItem(req.MenuItemID)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
	}
	if !item.IsAvailable {
		return nil, pkgerrors.New(pkgerrors.CodePrecondition, "menu item is unavailable")
	}
	if req.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if item.IsCoffee() && req.Customization == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coffee items require a customization")
	}
	if !item.IsCoffee() && req.Customization != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "only coffee items accept a customization")
	}

	incoming := cartLine{MenuItemID: item.ID, Quantity: req.Quantity}
	if custom := req.Customization; custom != nil {
		if !custom.Milk.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown milk option")
		}
		if custom.Shots < 1 || custom.Shots > 6 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "espresso shots must be between 1 and 6")
		}
		incoming.Milk = custom.Milk
		incoming.Shots = custom.Shots
		if custom.Flavor != nil {
			if custom.Flavor.Name == "" {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "flavor name is required")
			}
			if custom.Flavor.Pumps < 0 || custom.Flavor.Pumps > 8 {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "flavor pumps must be between 0 and 8")
			}
			incoming.FlavorName = custom.Flavor.Name
			incoming.FlavorPumps = custom.Flavor.Pumps
		}
	}

	acct := s.accounts[userID]

	// Merge into an existing line only on an exact variant match; redeemed
	// free-drink lines never absorb more quantity.
	for _, line := range acct.cart {
		if line.MenuItemID == incoming.MenuItemID && !line.IsFreeDrink && line.fingerprint() == incoming.fingerprint() {
			line.Quantity += incoming.Quantity
			return s.snapshotLocked(userID), nil
		}
	}

	s.nextLineID++
	incoming.ID = s.nextLineID
	acct.cart = append(acct.cart, &incoming)
	return s.snapshotLocked(userID), nil
}

func (s *state) updateCartItem(userID, lineID int64, req types.UpdateCartItemRequest) ([]types.CartItemPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct := s.accounts[userID]
	line := findLine(acct, lineID)
	if line == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}

	switch {
	case req.Quantity != nil:
		if *req.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
		}
		if line.IsFreeDrink && *req.Quantity != 1 {
			return nil, pkgerrors.New(pkgerrors.CodePrecondition, "a redeemed free drink stays at quantity 1")
		}
		line.Quantity = *req.Quantity
	case req.IsFreeDrink != nil:
		if err := s.setFreeDrinkLocked(userID, line, *req.IsFreeDrink); err != nil {
			return nil, err
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no update fields provided")
	}

	return s.snapshotLocked(userID), nil
}

func (s *state) setFreeDrinkLocked(userID int64, line *cartLine, apply bool) error {
	if line.IsFreeDrink == apply {
		return nil
	}
	if !apply {
		line.IsFreeDrink = false
		return nil
	}

	item, _ := s.menuItem(line.MenuItemID)
	if !item.IsCoffee() {
		return pkgerrors.New(pkgerrors.CodePrecondition, "free-drink credits apply to coffee only")
	}
	if line.Quantity != 1 {
		return pkgerrors.New(pkgerrors.CodePrecondition, "free-drink credits apply to a single drink")
	}

	acct := s.accounts[userID]
	if acct.freeCredits-pendingFreeDrinks(acct) < 1 {
		return pkgerrors.New(pkgerrors.CodePrecondition, "no free-drink credits available")
	}
	line.IsFreeDrink = true
	return nil
}

func (s *state) removeCartItem(userID, lineID int64) ([]types.CartItemPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct := s.accounts[userID]
	for i, line := range acct.cart {
		if line.ID == lineID {
			acct.cart = append(acct.cart[:i], acct.cart[i+1:]...)
			return s.snapshotLocked(userID), nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
}

func (s *state) clearCart(userID int64) []types.CartItemPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[userID].cart = nil
	return s.snapshotLocked(userID)
}

func findLine(acct *account, lineID int64) *cartLine {
	for _, line := range acct.cart {
		if line.ID == lineID {
			return line
		}
	}
	return nil
}

func pendingFreeDrinks(acct *account) int {
	count := 0
	for _, line := range acct.cart {
		if line.IsFreeDrink {
			count++
		}
	}
	return count
}

func (s *state) cartSubtotalLocked(userID int64) decimal.Decimal {
	acct := s.accounts[userID]
	total := decimal.Zero
	for _, line := range acct.cart {
		if line.IsFreeDrink {
			continue
		}
		item, _ := s.menuItem(line.MenuItemID)
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

// --- rewards ---

func (s *state) rewardSummary(userID int64) *types.RewardSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rewardSummaryLocked(userID)
}

func (s *state) rewardSummaryLocked(userID int64) *types.RewardSummary {
	acct := s.accounts[userID]

	current := rewardTiers[0]
	var next *rewardTier
	for i := range rewardTiers {
		if acct.lifetimePoints >= rewardTiers[i].threshold {
			current = rewardTiers[i]
			if i+1 < len(rewardTiers) {
				next = &rewardTiers[i+1]
			} else {
				next = nil
			}
		}
	}

	tier := types.TierInfo{Current: current.level}
	if next != nil {
		span := next.threshold - current.threshold
		progress := acct.lifetimePoints - current.threshold
		tier.PointsUntilNext = next.threshold - acct.lifetimePoints
		if span > 0 {
			tier.PercentToNext = progress * 100 / span
		}
	} else {
		tier.PercentToNext = 100
	}

	return &types.RewardSummary{
		RewardPoints:         acct.rewardPoints,
		LifetimeRewardPoints: acct.lifetimePoints,
		Tier:                 tier,
		PunchCard: types.PunchCard{
			PointsTowardsNextFreeDrink: acct.punchProgress,
			FreeDrinkThreshold:         s.freeDrinkThreshold,
			FreeCoffeesAvailable:       acct.freeCredits,
		},
		FreeCoffeeCredits:          acct.freeCredits,
		GiftCardBalance:            acct.giftBalance,
		RecentRewardTransactions:   lastN(acct.rewardTxns, recentTransactionLimit),
		RecentGiftCardTransactions: lastN(acct.giftTxns, recentTransactionLimit),
	}
}

func (s *state) refillGiftCard(userID int64, amount decimal.Decimal, note string) *types.RewardSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct := s.accounts[userID]
	acct.giftBalance = acct.giftBalance.Add(amount)

	s.nextTxnID++
	acct.giftTxns = append(acct.giftTxns, types.GiftCardTransaction{
		ID:        s.nextTxnID,
		Type:      enums.GiftCardTxReload,
		Amount:    amount,
		Note:      note,
		CreatedAt: s.now(),
	})

	// Reloads earn double points on the dollar.
	points := int(amount.Mul(decimal.NewFromInt(2)).IntPart())
	s.earnPointsLocked(acct, points, "Gift card reload")

	return s.rewardSummaryLocked(userID)
}

func (s *state) earnPointsLocked(acct *account, points int, reason string) {
	if points <= 0 {
		return
	}
	acct.rewardPoints += points
	acct.lifetimePoints += points
	s.nextTxnID++
	acct.rewardTxns = append(acct.rewardTxns, types.RewardTransaction{
		ID:        s.nextTxnID,
		Type:      enums.RewardTxEarn,
		Points:    points,
		Reason:    reason,
		CreatedAt: s.now(),
	})
}

// --- payments and orders ---

func (s *state) createIntent(userID int64, amountCents int64, purpose string) (*types.PaymentIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if amountCents == 0 {
		amountCents = s.cartSubtotalLocked(userID).Mul(decimal.NewFromInt(100)).IntPart()
	}
	if amountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodePrecondition, "nothing to charge")
	}

	id := "pi_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
	intent := &paymentIntent{
		ID:           id,
		ClientSecret: id + "_secret_" + uuid.NewString()[:8],
		AmountCents:  amountCents,
		Purpose:      purpose,
		UserID:       userID,
	}
	s.intents[id] = intent

	return &types.PaymentIntent{ID: intent.ID, ClientSecret: intent.ClientSecret, AmountCents: intent.AmountCents}, nil
}

func (s *state) chargeGiftCard(userID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.accounts[userID].cart) == 0 {
		return "", pkgerrors.New(pkgerrors.CodePrecondition, "cart is empty")
	}

	subtotal := s.cartSubtotalLocked(userID)
	if subtotal.LessThanOrEqual(decimal.Zero) {
		return "", pkgerrors.New(pkgerrors.CodePrecondition, "use the free-order path for a zero subtotal")
	}

	acct := s.accounts[userID]
	if acct.giftBalance.LessThan(subtotal) {
		return "", pkgerrors.New(pkgerrors.CodePrecondition, "gift-card balance does not cover the order")
	}

	acct.giftBalance = acct.giftBalance.Sub(subtotal)
	s.nextTxnID++
	acct.giftTxns = append(acct.giftTxns, types.GiftCardTransaction{
		ID:        s.nextTxnID,
		Type:      enums.GiftCardTxPurchase,
		Amount:    subtotal.Neg(),
		Note:      "Order payment",
		CreatedAt: s.now(),
	})

	return s.settleOrderLocked(userID, subtotal), nil
}

func (s *state) completeFreeOrder(userID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.accounts[userID].cart) == 0 {
		return "", pkgerrors.New(pkgerrors.CodePrecondition, "cart is empty")
	}
	subtotal := s.cartSubtotalLocked(userID)
	if subtotal.GreaterThan(decimal.Zero) {
		return "", pkgerrors.New(pkgerrors.CodePrecondition, "cart is not fully covered by credits")
	}
	return s.settleOrderLocked(userID, decimal.Zero), nil
}

// settleOrderLocked burns redeemed credits, accrues punches and points, and
// clears the cart. Punches accrue per paid coffee unit; a full punch card
// converts to a free-drink credit on the spot.
func (s *state) settleOrderLocked(userID int64, subtotal decimal.Decimal) string {
	acct := s.accounts[userID]

	redeemed := 0
	paidCoffees := 0
	for _, line := range acct.cart {
		item, _ := s.menuItem(line.MenuItemID)
		if line.IsFreeDrink {
			redeemed++
			continue
		}
		if item.IsCoffee() {
			paidCoffees += line.Quantity
		}
	}

	if redeemed > 0 {
		acct.freeCredits -= redeemed
		if acct.freeCredits < 0 {
			acct.freeCredits = 0
		}
		s.nextTxnID++
		acct.rewardTxns = append(acct.rewardTxns, types.RewardTransaction{
			ID:        s.nextTxnID,
			Type:      enums.RewardTxRedeem,
			Points:    0,
			Reason:    fmt.Sprintf("Redeemed %d free drink(s)", redeemed),
			CreatedAt: s.now(),
		})
	}

	acct.punchProgress += paidCoffees
	for acct.punchProgress >= s.freeDrinkThreshold {
		acct.punchProgress -= s.freeDrinkThreshold
		acct.freeCredits++
	}

	s.earnPointsLocked(acct, int(subtotal.Round(0).IntPart()), "Order placed")

	acct.cart = nil
	s.nextOrderID++
	return fmt.Sprintf("order-%d", s.nextOrderID)
}

func lastN[T any](items []T, n int) []T {
	if len(items) <= n {
		return append([]T(nil), items...)
	}
	return append([]T(nil), items[len(items)-n:]...)
}
