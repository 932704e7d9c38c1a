package services

import (
	"context"
	"io"
	"time"

	"proptoken/internal/ledger"
	"proptoken/internal/models"
	"proptoken/internal/store"
	"proptoken/internal/websocket"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type fakeTxRunner struct {
	err error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

// retryingTxRunner runs the closure twice, simulating a serialization retry.
type retryingTxRunner struct{}

func (retryingTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if err := fn(nil); err != nil {
		return err
	}
	return fn(nil)
}

type stubPropertyStore struct {
	createFn       func(ctx context.Context, tx store.Execer, p models.Property) error
	getByIDFn      func(ctx context.Context, propertyID string) (models.Property, error)
	getForUpdateFn func(ctx context.Context, tx store.Getter, propertyID string) (models.Property, error)
	setStatusFn    func(ctx context.Context, tx store.Execer, propertyID string, status models.PropertyStatus, at time.Time, reason *string) error
	markListedFn   func(ctx context.Context, tx store.Execer, propertyID string, totalTokens int64, tokenPrice, symbol, mintTxHash string, listedAt time.Time) error
	applySaleFn    func(ctx context.Context, tx store.Execer, propertyID string, tokenAmount int64, status models.PropertyStatus) error
}

func (s stubPropertyStore) Create(ctx context.Context, tx store.Execer, p models.Property) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, p)
}

func (s stubPropertyStore) GetByID(ctx context.Context, propertyID string) (models.Property, error) {
	return s.getByIDFn(ctx, propertyID)
}

func (s stubPropertyStore) GetForUpdate(ctx context.Context, tx store.Getter, propertyID string) (models.Property, error) {
	return s.getForUpdateFn(ctx, tx, propertyID)
}

func (s stubPropertyStore) SetStatus(ctx context.Context, tx store.Execer, propertyID string, status models.PropertyStatus, at time.Time, reason *string) error {
	if s.setStatusFn == nil {
		return nil
	}
	return s.setStatusFn(ctx, tx, propertyID, status, at, reason)
}

func (s stubPropertyStore) MarkListed(ctx context.Context, tx store.Execer, propertyID string, totalTokens int64, tokenPrice, symbol, mintTxHash string, listedAt time.Time) error {
	if s.markListedFn == nil {
		return nil
	}
	return s.markListedFn(ctx, tx, propertyID, totalTokens, tokenPrice, symbol, mintTxHash, listedAt)
}

func (s stubPropertyStore) ApplySale(ctx context.Context, tx store.Execer, propertyID string, tokenAmount int64, status models.PropertyStatus) error {
	if s.applySaleFn == nil {
		return nil
	}
	return s.applySaleFn(ctx, tx, propertyID, tokenAmount, status)
}

type stubHoldingStore struct {
	getForUpdateFn func(ctx context.Context, tx store.Getter, userID, propertyID string) (models.Holding, error)
	createFn       func(ctx context.Context, tx store.Execer, h models.Holding) error
	applyFn        func(ctx context.Context, tx store.Execer, holdingID string, tokenAmount, totalInvestedMinor int64, averagePrice string) error
	listLockedFn   func(ctx context.Context, tx store.Selecter, propertyID string) ([]store.HoldingWithWallet, error)
}

func (s stubHoldingStore) GetForUpdate(ctx context.Context, tx store.Getter, userID, propertyID string) (models.Holding, error) {
	return s.getForUpdateFn(ctx, tx, userID, propertyID)
}

func (s stubHoldingStore) Create(ctx context.Context, tx store.Execer, h models.Holding) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, h)
}

func (s stubHoldingStore) ApplyPurchase(ctx context.Context, tx store.Execer, holdingID string, tokenAmount, totalInvestedMinor int64, averagePrice string) error {
	if s.applyFn == nil {
		return nil
	}
	return s.applyFn(ctx, tx, holdingID, tokenAmount, totalInvestedMinor, averagePrice)
}

func (s stubHoldingStore) ListByPropertyLocked(ctx context.Context, tx store.Selecter, propertyID string) ([]store.HoldingWithWallet, error) {
	return s.listLockedFn(ctx, tx, propertyID)
}

type stubTransactionStore struct {
	createFn func(ctx context.Context, tx store.Execer, input store.TransactionInput) error
}

func (s stubTransactionStore) Create(ctx context.Context, tx store.Execer, input store.TransactionInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

type stubDistributionStore struct {
	createFn     func(ctx context.Context, tx store.Execer, input store.DistributionInput) error
	recipientsFn func(ctx context.Context, tx store.Execer, recipients []store.RecipientInput) error
	markFn       func(ctx context.Context, tx store.Execer, distributionID string, at time.Time) error
}

func (s stubDistributionStore) Create(ctx context.Context, tx store.Execer, input store.DistributionInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubDistributionStore) InsertRecipients(ctx context.Context, tx store.Execer, recipients []store.RecipientInput) error {
	if s.recipientsFn == nil {
		return nil
	}
	return s.recipientsFn(ctx, tx, recipients)
}

func (s stubDistributionStore) MarkDistributed(ctx context.Context, tx store.Execer, distributionID string, at time.Time) error {
	if s.markFn == nil {
		return nil
	}
	return s.markFn(ctx, tx, distributionID, at)
}

type stubUserStore struct {
	setWalletFn func(ctx context.Context, tx store.Execer, userID, wallet string) error
}

func (s stubUserStore) SetWalletAddressIfEmpty(ctx context.Context, tx store.Execer, userID, wallet string) error {
	if s.setWalletFn == nil {
		return nil
	}
	return s.setWalletFn(ctx, tx, userID, wallet)
}

type stubAuditStore struct {
	logFn func(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

type stubHub struct {
	updates []websocket.PropertyUpdate
}

func (s *stubHub) BroadcastProperty(update websocket.PropertyUpdate) {
	s.updates = append(s.updates, update)
}

// stubLedger fails deterministically; the Fake covers the success paths.
type stubLedger struct {
	mintFn       func(ctx context.Context, symbol string, totalSupply int64) (string, error)
	trustFn      func(ctx context.Context, wallet, symbol string, maxAmount int64) (string, error)
	transferFn   func(ctx context.Context, wallet, symbol string, amount int64, memo string) (string, error)
	distributeFn func(ctx context.Context, payouts []ledger.Payout) ([]string, error)
}

func (s stubLedger) MintTokens(ctx context.Context, symbol string, totalSupply int64) (string, error) {
	if s.mintFn == nil {
		return "MINT-000001", nil
	}
	return s.mintFn(ctx, symbol, totalSupply)
}

func (s stubLedger) EstablishTrustLine(ctx context.Context, wallet, symbol string, maxAmount int64) (string, error) {
	if s.trustFn == nil {
		return "TRUST-000001", nil
	}
	return s.trustFn(ctx, wallet, symbol, maxAmount)
}

func (s stubLedger) TransferTokens(ctx context.Context, wallet, symbol string, amount int64, memo string) (string, error) {
	if s.transferFn == nil {
		return "XFER-000001", nil
	}
	return s.transferFn(ctx, wallet, symbol, amount, memo)
}

func (s stubLedger) DistributeIncome(ctx context.Context, payouts []ledger.Payout) ([]string, error) {
	if s.distributeFn == nil {
		return nil, nil
	}
	return s.distributeFn(ctx, payouts)
}

func (s stubLedger) ValidateWalletAddress(address string) bool {
	return len(address) > 0 && address[0] == 'r'
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
