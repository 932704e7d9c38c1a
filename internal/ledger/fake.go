package ledger

import (
	"context"
	"fmt"
	"sync"
)

// Fake is an in-memory Ledger with sequence-numbered, fully deterministic
// transaction hashes. It records every call so tests can assert on the
// exact ledger traffic, and can be primed to fail the next call.
type Fake struct {
	mu   sync.Mutex
	seq  int64
	fail error

	Mints      []FakeMint
	TrustLines []FakeTrustLine
	Transfers  []FakeTransfer
	Payouts    []Payout
}

type FakeMint struct {
	Symbol      string
	TotalSupply int64
}

type FakeTrustLine struct {
	Wallet    string
	Symbol    string
	MaxAmount int64
}

type FakeTransfer struct {
	Wallet string
	Symbol string
	Amount int64
	Memo   string
}

func NewFake() *Fake {
	return &Fake{}
}

// FailNext makes the next ledger call return err instead of succeeding.
func (f *Fake) FailNext(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = err
}

func (f *Fake) next(prefix string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		err := f.fail
		f.fail = nil
		return "", err
	}
	f.seq++
	return fmt.Sprintf("%s-%06d", prefix, f.seq), nil
}

func (f *Fake) MintTokens(_ context.Context, symbol string, totalSupply int64) (string, error) {
	hash, err := f.next("MINT")
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	f.Mints = append(f.Mints, FakeMint{Symbol: symbol, TotalSupply: totalSupply})
	f.mu.Unlock()
	return hash, nil
}

func (f *Fake) EstablishTrustLine(_ context.Context, wallet, symbol string, maxAmount int64) (string, error) {
	hash, err := f.next("TRUST")
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	f.TrustLines = append(f.TrustLines, FakeTrustLine{Wallet: wallet, Symbol: symbol, MaxAmount: maxAmount})
	f.mu.Unlock()
	return hash, nil
}

func (f *Fake) TransferTokens(_ context.Context, wallet, symbol string, amount int64, memo string) (string, error) {
	hash, err := f.next("XFER")
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	f.Transfers = append(f.Transfers, FakeTransfer{Wallet: wallet, Symbol: symbol, Amount: amount, Memo: memo})
	f.mu.Unlock()
	return hash, nil
}

func (f *Fake) DistributeIncome(_ context.Context, payouts []Payout) ([]string, error) {
	hashes := make([]string, 0, len(payouts))
	for _, payout := range payouts {
		hash, err := f.next("INCOME")
		if err != nil {
			return nil, err
		}
		f.mu.Lock()
		f.Payouts = append(f.Payouts, payout)
		f.mu.Unlock()
		hashes = append(hashes, hash)
	}
	return hashes, nil
}

func (f *Fake) ValidateWalletAddress(address string) bool {
	return ValidWalletAddress(address)
}
