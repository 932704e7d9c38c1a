// Package ledger defines the token-ledger capability the orchestration layer
// depends on, with an XRPL adapter for production and a deterministic fake
// for tests and local development. The backend is chosen by the entry point;
// business logic only ever sees the interface.
package ledger

import (
	"context"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Payout is one recipient of an income distribution. Amount is in major
// currency units.
type Payout struct {
	Wallet string
	Amount decimal.Decimal
}

type Ledger interface {
	// MintTokens creates the issued currency for a property and returns the
	// anchoring transaction hash.
	MintTokens(ctx context.Context, symbol string, totalSupply int64) (string, error)
	// EstablishTrustLine opens (or re-confirms) a trust line from the investor
	// wallet to the issuer for the given symbol. Idempotent on-ledger.
	EstablishTrustLine(ctx context.Context, wallet, symbol string, maxAmount int64) (string, error)
	// TransferTokens pays tokens from the issuer to an investor wallet.
	TransferTokens(ctx context.Context, wallet, symbol string, amount int64, memo string) (string, error)
	// DistributeIncome sends one payment per payout and returns the hashes in
	// the same order.
	DistributeIncome(ctx context.Context, payouts []Payout) ([]string, error)
	// ValidateWalletAddress reports whether the address is a well-formed
	// classic XRPL address.
	ValidateWalletAddress(address string) bool
}

// Classic XRPL addresses: base58 starting with 'r', no 0/O/I/l.
var addressRegex = regexp.MustCompile(`^r[1-9A-HJ-NP-Za-km-z]{24,34}$`)

func ValidWalletAddress(address string) bool {
	return addressRegex.MatchString(address)
}

var symbolStrip = regexp.MustCompile(`[^a-zA-Z0-9]`)

// TokenSymbol derives a short currency code from a property identifier:
// the first four alphanumerics, uppercased, "PROP" when none remain.
func TokenSymbol(propertyID string) string {
	cleaned := symbolStrip.ReplaceAllString(propertyID, "")
	if len(cleaned) > 4 {
		cleaned = cleaned[:4]
	}
	if cleaned == "" {
		return "PROP"
	}
	return strings.ToUpper(cleaned)
}
