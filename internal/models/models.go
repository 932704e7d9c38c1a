package models

import "time"

type User struct {
	ID            string    `db:"id" json:"id"`
	Username      string    `db:"username" json:"username"`
	Email         string    `db:"email" json:"email"`
	PasswordHash  string    `db:"password_hash" json:"-"`
	FirstName     string    `db:"first_name" json:"first_name"`
	LastName      string    `db:"last_name" json:"last_name"`
	Role          string    `db:"role" json:"role"`
	WalletAddress *string   `db:"wallet_address" json:"wallet_address,omitempty"`
	KYCVerified   bool      `db:"kyc_verified" json:"kyc_verified"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

const (
	RoleInvestor = "investor"
	RoleSeller   = "seller"
	RoleAdmin    = "admin"
)

// Property is the tokenized asset. ValueMinor and MonthlyRentMinor are minor
// currency units; TokenPrice is a decimal string frozen at tokenization time.
type Property struct {
	ID              string         `db:"id" json:"id"`
	SellerID        string         `db:"seller_id" json:"seller_id"`
	Name            string         `db:"name" json:"name"`
	Description     string         `db:"description" json:"description"`
	Address         string         `db:"address" json:"address"`
	PropertyType    string         `db:"property_type" json:"property_type"`
	ValueMinor      int64          `db:"value_minor" json:"-"`
	SizeSqm         int64          `db:"size_sqm" json:"size_sqm"`
	MonthlyRentMinor *int64        `db:"monthly_rent_minor" json:"-"`
	OccupancyStatus string         `db:"occupancy_status" json:"occupancy_status"`
	TotalTokens     int64          `db:"total_tokens" json:"total_tokens"`
	TokenPrice      string         `db:"token_price" json:"token_price"`
	TokensAvailable int64          `db:"tokens_available" json:"tokens_available"`
	TokensSold      int64          `db:"tokens_sold" json:"tokens_sold"`
	Status          PropertyStatus `db:"status" json:"status"`
	TokenSymbol     string         `db:"token_symbol" json:"token_symbol"`
	MintTxHash      string         `db:"mint_tx_hash" json:"mint_tx_hash,omitempty"`
	RejectedReason  *string        `db:"rejected_reason" json:"rejected_reason,omitempty"`
	ApprovedAt      *time.Time     `db:"approved_at" json:"approved_at,omitempty"`
	ListedAt        *time.Time     `db:"listed_at" json:"listed_at,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// Holding accumulates one investor's position in one property. It is merged
// on every repeat purchase and never deleted; AveragePrice is the weighted
// average purchase price so AveragePrice x TokenAmount tracks TotalInvested.
type Holding struct {
	ID                 string    `db:"id" json:"id"`
	UserID             string    `db:"user_id" json:"user_id"`
	PropertyID         string    `db:"property_id" json:"property_id"`
	TokenAmount        int64     `db:"token_amount" json:"token_amount"`
	TotalInvestedMinor int64     `db:"total_invested_minor" json:"-"`
	AveragePrice       string    `db:"average_price" json:"average_price"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

type Transaction struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	PropertyID    string    `db:"property_id" json:"property_id"`
	Type          string    `db:"type" json:"type"`
	Status        string    `db:"status" json:"status"`
	TokenAmount   int64     `db:"token_amount" json:"token_amount"`
	PricePerToken string    `db:"price_per_token" json:"price_per_token"`
	TotalMinor    int64     `db:"total_minor" json:"-"`
	LedgerTxHash  *string   `db:"ledger_tx_hash" json:"ledger_tx_hash,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

const (
	TransactionPurchase           = "purchase"
	TransactionSale               = "sale"
	TransactionIncomeDistribution = "income_distribution"

	TransactionPending   = "pending"
	TransactionCompleted = "completed"
	TransactionFailed    = "failed"
)

type IncomeDistribution struct {
	ID               string     `db:"id" json:"id"`
	PropertyID       string     `db:"property_id" json:"property_id"`
	TotalIncomeMinor int64      `db:"total_income_minor" json:"-"`
	PerToken         string     `db:"per_token" json:"per_token"`
	Status           string     `db:"status" json:"status"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	DistributedAt    *time.Time `db:"distributed_at" json:"distributed_at,omitempty"`
}

const (
	DistributionCalculated  = "calculated"
	DistributionDistributed = "distributed"
)

type DistributionRecipient struct {
	ID             string  `db:"id" json:"id"`
	DistributionID string  `db:"distribution_id" json:"distribution_id"`
	UserID         string  `db:"user_id" json:"user_id"`
	TokenAmount    int64   `db:"token_amount" json:"token_amount"`
	IncomeMinor    int64   `db:"income_minor" json:"-"`
	LedgerTxHash   *string `db:"ledger_tx_hash" json:"ledger_tx_hash,omitempty"`
}

type MarketOrder struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	PropertyID    string    `db:"property_id" json:"property_id"`
	Side          string    `db:"side" json:"side"`
	TokenAmount   int64     `db:"token_amount" json:"token_amount"`
	PricePerToken string    `db:"price_per_token" json:"price_per_token"`
	Status        string    `db:"status" json:"status"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

const (
	OrderSideBuy  = "buy"
	OrderSideSell = "sell"

	OrderActive    = "active"
	OrderFilled    = "filled"
	OrderCancelled = "cancelled"
)
