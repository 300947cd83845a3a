package types

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/coffeeclub/coffeeclub-client/pkg/enums"
)

// TierLevel names a loyalty tier.
type TierLevel struct {
	Name    string `json:"name"`
	Tagline string `json:"tagline"`
}

// TierInfo describes progress through the loyalty tiers.
type TierInfo struct {
	Current         TierLevel `json:"current"`
	PercentToNext   int       `json:"percentToNext"`
	PointsUntilNext int       `json:"pointsUntilNext"`
}

// PunchCard tracks progress toward the next free coffee.
type PunchCard struct {
	PointsTowardsNextFreeDrink int `json:"pointsTowardsNextFreeDrink"`
	FreeDrinkThreshold         int `json:"freeDrinkThreshold"`
	FreeCoffeesAvailable       int `json:"freeCoffeesAvailable"`
}

// RewardTransaction is one reward-point ledger entry.
type RewardTransaction struct {
	ID        int64                       `json:"id"`
	Type      enums.RewardTransactionType `json:"type"`
	Points    int                         `json:"points"`
	Reason    string                      `json:"reason,omitempty"`
	CreatedAt time.Time                   `json:"createdAt"`
}

// GiftCardTransaction is one gift-card ledger entry.
type GiftCardTransaction struct {
	ID        int64                         `json:"id"`
	Type      enums.GiftCardTransactionType `json:"type"`
	Amount    decimal.Decimal               `json:"amount"`
	Note      string                        `json:"note,omitempty"`
	CreatedAt time.Time                     `json:"createdAt"`
}

// RewardSummary is the GET /rewards snapshot. The client never mutates it
// except by replacing it wholesale after a server round-trip.
type RewardSummary struct {
	RewardPoints               int                   `json:"rewardPoints"`
	LifetimeRewardPoints       int                   `json:"lifetimeRewardPoints"`
	Tier                       TierInfo              `json:"tier"`
	PunchCard                  PunchCard             `json:"punchCard"`
	FreeCoffeeCredits          int                   `json:"freeCoffeeCredits"`
	GiftCardBalance            decimal.Decimal       `json:"giftCardBalance"`
	RecentRewardTransactions   []RewardTransaction   `json:"recentRewardTransactions"`
	RecentGiftCardTransactions []GiftCardTransaction `json:"recentGiftCardTransactions"`
}

// RefillRequest reports a confirmed gift-card reload; this is the step that
// actually credits the balance.
type RefillRequest struct {
	Amount     decimal.Decimal `json:"amount" validate:"required"`
	PaymentRef string          `json:"paymentRef" validate:"required"`
}
