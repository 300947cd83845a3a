package enums

// RewardTransactionType classifies reward-point ledger entries.
type RewardTransactionType string

const (
	RewardTxEarn   RewardTransactionType = "EARN"
	RewardTxRedeem RewardTransactionType = "REDEEM"
	RewardTxAdjust RewardTransactionType = "ADJUST"
)

// GiftCardTransactionType classifies gift-card ledger entries.
type GiftCardTransactionType string

const (
	GiftCardTxPurchase GiftCardTransactionType = "PURCHASE"
	GiftCardTxReload   GiftCardTransactionType = "RELOAD"
)
