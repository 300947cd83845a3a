package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/coffeeclub/coffeeclub-client/internal/assistant"
	"github.com/coffeeclub/coffeeclub-client/internal/cart"
	"github.com/coffeeclub/coffeeclub-client/internal/checkout"
	"github.com/coffeeclub/coffeeclub-client/internal/checkout/stripepresenter"
	"github.com/coffeeclub/coffeeclub-client/internal/gateway"
	"github.com/coffeeclub/coffeeclub-client/internal/profile"
	"github.com/coffeeclub/coffeeclub-client/internal/rewards"
	"github.com/coffeeclub/coffeeclub-client/internal/session"
	"github.com/coffeeclub/coffeeclub-client/internal/weather"
	"github.com/coffeeclub/coffeeclub-client/pkg/config"
	"github.com/coffeeclub/coffeeclub-client/pkg/enums"
	"github.com/coffeeclub/coffeeclub-client/pkg/logger"
	"github.com/coffeeclub/coffeeclub-client/pkg/storage"
	"github.com/coffeeclub/coffeeclub-client/pkg/types"
)

const usage = `coffeeclub <command> [args]

  register <email> <password>       create an account and sign in
  login <email> <password>          sign in
  logout                            sign out and clear local state
  menu [COFFEE|PASTRY]              list the catalog
  cart                              show the current cart
  cart add <itemID> <qty> [milk shots [flavor pumps]]
  cart rm <lineID>                  remove a line
  cart free <lineID>                toggle a free-drink redemption
  cart clear                        empty the cart
  rewards                           show the rewards summary
  reload <amount>                   reload the gift card
  checkout [card|gift-card]         place the order
  profile                           show the profile
  chat <message...>                 talk to the assistant
  weather                           show local conditions
`

// app holds everything a command needs, wired once per invocation.
type app struct {
	cfg       *config.Config
	logg      *logger.Logger
	storage   *storage.Store
	sessions  *session.Store
	api       *gateway.Client
	carts     *cart.Store
	rewards   *rewards.Store
	weather   *weather.Service
	presenter *stripepresenter.Presenter
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "app"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "app",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx := context.Background()

	store, err := storage.Open(ctx, cfg.Storage, logg)
	if err != nil {
		logg.Error(ctx, "failed to open device storage", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logg.Error(ctx, "error closing device storage", err)
		}
	}()

	sessions := session.NewStore(store, logg)
	if err := sessions.Hydrate(ctx); err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "session hydration failed, starting signed out")
	}

	api, err := gateway.NewClient(cfg.API, sessions)
	if err != nil {
		logg.Error(ctx, "failed to build api client", err)
		os.Exit(1)
	}

	a := &app{
		cfg:      cfg,
		logg:     logg,
		storage:  store,
		sessions: sessions,
		api:      api,
		carts:    cart.NewStore(api, sessions, logg),
		weather:  weather.NewService(cfg.Weather, store, logg),
	}

	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(2)
	}

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "register", "login":
		return a.runAuth(ctx, command, args)
	case "logout":
		a.carts.Reset()
		return a.sessions.SignOut(ctx)
	case "menu":
		return a.runMenu(ctx, args)
	case "cart":
		return a.runCart(ctx, args)
	case "rewards":
		return a.runRewards(ctx)
	case "reload":
		return a.runReload(ctx, args)
	case "checkout":
		return a.runCheckout(ctx, args)
	case "profile":
		return a.runProfile(ctx)
	case "chat":
		return a.runChat(ctx, args)
	case "weather":
		return a.runWeather(ctx)
	case "help":
		fmt.Print(usage)
		return nil
	default:
		fmt.Print(usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) runAuth(ctx context.Context, command string, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: %s <email> <password>", command)
	}

	var (
		resp *types.LoginResponse
		err  error
	)
	if command == "register" {
		resp, err = a.api.Register(ctx, args[0], args[1])
	} else {
		resp, err = a.api.Login(ctx, args[0], args[1])
	}
	if err != nil {
		return err
	}

	identity := types.Identity{Email: resp.Email, Sub: resp.Sub}
	opts := &session.Options{RequiresPasswordReset: resp.RequiresPasswordReset}
	if err := a.sessions.SignIn(ctx, resp.AccessToken, identity, opts); err != nil {
		return err
	}

	fmt.Printf("signed in as %s\n", resp.Email)
	if resp.RequiresPasswordReset {
		fmt.Println("note: a password reset is required")
	}
	return nil
}

func (a *app) runMenu(ctx context.Context, args []string) error {
	var category enums.MenuCategory
	if len(args) > 0 {
		parsed, err := enums.ParseMenuCategory(strings.ToUpper(args[0]))
		if err != nil {
			return err
		}
		category = parsed
	}

	items, err := a.api.FetchMenu(ctx, category)
	if err != nil {
		return err
	}
	for _, item := range items {
		marker := " "
		if !item.IsAvailable {
			marker = "x"
		}
		fmt.Printf("%s %3d  $%-6s %-18s %s\n", marker, item.ID, item.Price.StringFixed(2), item.Name, item.Description)
	}
	return nil
}

func (a *app) runCart(ctx context.Context, args []string) error {
	if err := a.carts.Refresh(ctx); err != nil {
		return err
	}

	if len(args) == 0 {
		return a.printCart()
	}

	switch args[0] {
	case "add":
		return a.runCartAdd(ctx, args[1:])
	case "rm":
		lineID, err := parseID(args[1:])
		if err != nil {
			return err
		}
		if err := a.carts.RemoveItem(ctx, lineID); err != nil {
			return err
		}
	case "free":
		lineID, err := parseID(args[1:])
		if err != nil {
			return err
		}
		if err := a.carts.ToggleFreeDrink(ctx, lineID); err != nil {
			return err
		}
	case "clear":
		if err := a.carts.Clear(ctx); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown cart subcommand %q", args[0])
	}
	return a.printCart()
}

func (a *app) runCartAdd(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: cart add <itemID> <qty> [milk shots [flavor pumps]]")
	}
	itemID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid item id %q", args[0])
	}
	quantity, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid quantity %q", args[1])
	}

	items, err := a.api.FetchMenu(ctx, "")
	if err != nil {
		return err
	}
	var item *types.MenuItem
	for i := range items {
		if items[i].ID == itemID {
			item = &items[i]
			break
		}
	}
	if item == nil {
		return fmt.Errorf("menu item %d not found", itemID)
	}

	var custom *types.Customization
	if len(args) >= 4 {
		shots, err := strconv.Atoi(args[3])
		if err != nil {
			return fmt.Errorf("invalid shot count %q", args[3])
		}
		custom = &types.Customization{
			Milk:  enums.MilkOption(strings.ToUpper(args[2])),
			Shots: shots,
		}
		if len(args) >= 6 {
			pumps, err := strconv.Atoi(args[5])
			if err != nil {
				return fmt.Errorf("invalid pump count %q", args[5])
			}
			custom.Flavor = &types.FlavorChoice{Name: args[4], Pumps: pumps}
		}
	} else if item.IsCoffee() {
		// Sensible default so `cart add 2 1` just works.
		custom = &types.Customization{Milk: enums.MilkWhole, Shots: 2}
	}

	if err := a.carts.AddItem(ctx, *item, quantity, custom); err != nil {
		return err
	}
	return a.printCart()
}

func (a *app) printCart() error {
	lines := a.carts.Items()
	if len(lines) == 0 {
		fmt.Println("cart is empty")
		return nil
	}
	for _, line := range lines {
		note := ""
		if line.Customization != nil {
			note = fmt.Sprintf(" (%s, %d shots)", line.Customization.Milk, line.Customization.Shots)
			if line.Customization.Flavor != nil {
				note = fmt.Sprintf(" (%s, %d shots, %s x%d)",
					line.Customization.Milk, line.Customization.Shots,
					line.Customization.Flavor.Name, line.Customization.Flavor.Pumps)
			}
		}
		if line.IsFreeDrink {
			note += " [free drink]"
		}
		fmt.Printf("%3d  %dx %-18s $%s%s\n", line.ID, line.Quantity, line.MenuItem.Name, line.Price().StringFixed(2), note)
	}
	fmt.Printf("subtotal: $%s\n", a.carts.Subtotal().StringFixed(2))
	return nil
}

// paymentPresenter builds the stripe-backed presenter lazily so commands that
// never touch payments work without a Stripe key.
func (a *app) paymentPresenter(ctx context.Context) (*stripepresenter.Presenter, error) {
	if a.presenter != nil {
		return a.presenter, nil
	}
	presenter, err := stripepresenter.NewPresenter(ctx, a.cfg.Stripe, a.logg)
	if err != nil {
		return nil, err
	}
	a.presenter = presenter
	return presenter, nil
}

func (a *app) rewardsStore(ctx context.Context) (*rewards.Store, error) {
	if a.rewards != nil {
		return a.rewards, nil
	}
	presenter, err := a.paymentPresenter(ctx)
	if err != nil {
		return nil, err
	}
	a.rewards = rewards.NewStore(a.api, presenter, a.logg)
	return a.rewards, nil
}

func (a *app) runRewards(ctx context.Context) error {
	summary, err := a.api.FetchRewards(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("tier: %s (%s)\n", summary.Tier.Current.Name, summary.Tier.Current.Tagline)
	fmt.Printf("points: %d (lifetime %d)\n", summary.RewardPoints, summary.LifetimeRewardPoints)
	fmt.Printf("punch card: %d/%d, %d free coffee(s) banked\n",
		summary.PunchCard.PointsTowardsNextFreeDrink, summary.PunchCard.FreeDrinkThreshold, summary.FreeCoffeeCredits)
	fmt.Printf("gift card: $%s\n", summary.GiftCardBalance.StringFixed(2))
	return nil
}

func (a *app) runReload(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: reload <amount>")
	}
	amount, err := decimal.NewFromString(args[0])
	if err != nil {
		return fmt.Errorf("invalid amount %q", args[0])
	}

	store, err := a.rewardsStore(ctx)
	if err != nil {
		return err
	}
	result, err := store.Reload(ctx, amount)
	if err != nil {
		return err
	}
	if result.Status == rewards.ReloadCanceled {
		fmt.Println("reload canceled")
		return nil
	}
	fmt.Printf("gift card balance: $%s\n", result.Summary.GiftCardBalance.StringFixed(2))
	return nil
}

func (a *app) runCheckout(ctx context.Context, args []string) error {
	method := checkout.PaymentMethodCard
	if len(args) > 0 {
		switch args[0] {
		case "card":
			method = checkout.PaymentMethodCard
		case "gift-card":
			method = checkout.PaymentMethodGiftCard
		default:
			return fmt.Errorf("unknown payment method %q", args[0])
		}
	}

	if err := a.carts.Refresh(ctx); err != nil {
		return err
	}
	store, err := a.rewardsStore(ctx)
	if err != nil {
		return err
	}
	if err := store.Refresh(ctx); err != nil {
		return err
	}

	presenter, err := a.paymentPresenter(ctx)
	if err != nil {
		return err
	}

	orchestrator := checkout.NewOrchestrator(a.api, a.carts, store, presenter, a.logg)
	result, err := orchestrator.Checkout(ctx, method)
	if err != nil {
		return err
	}
	if result.Status == checkout.StatusCanceled {
		fmt.Println("checkout canceled")
		return nil
	}
	fmt.Printf("order placed: %s\n", result.OrderID)
	return nil
}

func (a *app) runProfile(ctx context.Context) error {
	service := profile.NewService(a.api, a.logg)
	if err := service.Refresh(ctx); err != nil {
		return err
	}
	current := service.Current()
	fmt.Printf("%s %s <%s>\n", current.FirstName, current.LastName, current.Email)
	if current.BirthDate != "" {
		fmt.Printf("birthday: %s\n", current.BirthDate)
	}
	if current.Phone != "" {
		fmt.Printf("phone: %s\n", profile.FormatPhoneInput(current.Phone))
	}
	return nil
}

func (a *app) runChat(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: chat <message...>")
	}

	chat := assistant.NewSession(a.api, a.weather, a.logg)
	if err := chat.Send(ctx, strings.Join(args, " ")); err != nil {
		a.logg.Warn(ctx, "assistant send failed, showing retry copy")
	}
	messages := chat.Messages()
	last := messages[len(messages)-1]
	fmt.Println(last.Content)
	if last.GuardrailNote != "" {
		fmt.Println(last.GuardrailNote)
	}
	return nil
}

func (a *app) runWeather(ctx context.Context) error {
	snapshot, err := a.weather.Current(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s, %.0f° (feels like %.0f°)\n",
		snapshot.LocationName, snapshot.Description, snapshot.Temperature, snapshot.FeelsLike)
	return nil
}

func parseID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("a line id is required")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid line id %q", args[0])
	}
	return id, nil
}
