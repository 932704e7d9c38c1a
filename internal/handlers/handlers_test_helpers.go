package handlers

import (
	"context"
	"io"
	"time"

	"proptoken/internal/config"
	"proptoken/internal/models"
	"proptoken/internal/services"
	"proptoken/internal/store"
	"proptoken/internal/websocket"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return fn(nil)
}

type stubUserStore struct {
	createFn     func(ctx context.Context, tx store.Execer, u models.User) error
	getByEmailFn func(ctx context.Context, email string) (models.User, error)
	getByIDFn    func(ctx context.Context, userID string) (models.User, error)
}

func (s stubUserStore) Create(ctx context.Context, tx store.Execer, u models.User) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, u)
}

func (s stubUserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return s.getByEmailFn(ctx, email)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	return s.getByIDFn(ctx, userID)
}

type stubPropertyStore struct {
	getByIDFn      func(ctx context.Context, propertyID string) (models.Property, error)
	listByStatusFn func(ctx context.Context, status models.PropertyStatus, limit, offset int) ([]models.Property, error)
	listBySellerFn func(ctx context.Context, sellerID string) ([]models.Property, error)
}

func (s stubPropertyStore) GetByID(ctx context.Context, propertyID string) (models.Property, error) {
	return s.getByIDFn(ctx, propertyID)
}

func (s stubPropertyStore) ListByStatus(ctx context.Context, status models.PropertyStatus, limit, offset int) ([]models.Property, error) {
	if s.listByStatusFn == nil {
		return nil, nil
	}
	return s.listByStatusFn(ctx, status, limit, offset)
}

func (s stubPropertyStore) ListBySeller(ctx context.Context, sellerID string) ([]models.Property, error) {
	if s.listBySellerFn == nil {
		return nil, nil
	}
	return s.listBySellerFn(ctx, sellerID)
}

type stubHoldingStore struct {
	listByUserFn func(ctx context.Context, userID string) ([]store.HoldingWithProperty, error)
}

func (s stubHoldingStore) ListByUser(ctx context.Context, userID string) ([]store.HoldingWithProperty, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID)
}

type stubTransactionStore struct {
	listByUserFn     func(ctx context.Context, userID, txType string, limit, offset int) ([]models.Transaction, error)
	listByPropertyFn func(ctx context.Context, propertyID string, limit, offset int) ([]models.Transaction, error)
	updateStatusFn   func(ctx context.Context, tx store.Execer, transactionID, status string, ledgerTxHash *string) (int64, error)
}

func (s stubTransactionStore) UpdateStatus(ctx context.Context, tx store.Execer, transactionID, status string, ledgerTxHash *string) (int64, error) {
	if s.updateStatusFn == nil {
		return 1, nil
	}
	return s.updateStatusFn(ctx, tx, transactionID, status, ledgerTxHash)
}

func (s stubTransactionStore) ListByUser(ctx context.Context, userID, txType string, limit, offset int) ([]models.Transaction, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID, txType, limit, offset)
}

func (s stubTransactionStore) ListByProperty(ctx context.Context, propertyID string, limit, offset int) ([]models.Transaction, error) {
	if s.listByPropertyFn == nil {
		return nil, nil
	}
	return s.listByPropertyFn(ctx, propertyID, limit, offset)
}

type stubDistributionStore struct {
	getByIDFn        func(ctx context.Context, distributionID string) (models.IncomeDistribution, error)
	listByPropertyFn func(ctx context.Context, propertyID string) ([]models.IncomeDistribution, error)
	listRecipientsFn func(ctx context.Context, distributionID string) ([]models.DistributionRecipient, error)
}

func (s stubDistributionStore) GetByID(ctx context.Context, distributionID string) (models.IncomeDistribution, error) {
	return s.getByIDFn(ctx, distributionID)
}

func (s stubDistributionStore) ListByProperty(ctx context.Context, propertyID string) ([]models.IncomeDistribution, error) {
	if s.listByPropertyFn == nil {
		return nil, nil
	}
	return s.listByPropertyFn(ctx, propertyID)
}

func (s stubDistributionStore) ListRecipients(ctx context.Context, distributionID string) ([]models.DistributionRecipient, error) {
	if s.listRecipientsFn == nil {
		return nil, nil
	}
	return s.listRecipientsFn(ctx, distributionID)
}

type stubAuditStore struct{}

func (stubAuditStore) Log(context.Context, store.Execer, string, string, string, string, string) error {
	return nil
}

func (stubAuditStore) List(context.Context, int, int) ([]map[string]any, error) {
	return nil, nil
}

type stubTokenizationService struct {
	submitFn     func(ctx context.Context, req services.SubmitPropertyRequest) (models.Property, error)
	approveFn    func(ctx context.Context, adminID, propertyID string) error
	rejectFn     func(ctx context.Context, adminID, propertyID, reason string) error
	tokenizeFn   func(ctx context.Context, adminID, propertyID string) (services.TokenizationResult, error)
	purchaseFn   func(ctx context.Context, req services.PurchaseRequest) (services.PurchaseResult, error)
	distributeFn func(ctx context.Context, adminID, propertyID string, totalIncomeMinor int64) (services.DistributionResult, error)
}

func (s stubTokenizationService) SubmitProperty(ctx context.Context, req services.SubmitPropertyRequest) (models.Property, error) {
	return s.submitFn(ctx, req)
}

func (s stubTokenizationService) ApproveProperty(ctx context.Context, adminID, propertyID string) error {
	return s.approveFn(ctx, adminID, propertyID)
}

func (s stubTokenizationService) RejectProperty(ctx context.Context, adminID, propertyID, reason string) error {
	return s.rejectFn(ctx, adminID, propertyID, reason)
}

func (s stubTokenizationService) TokenizeProperty(ctx context.Context, adminID, propertyID string) (services.TokenizationResult, error) {
	return s.tokenizeFn(ctx, adminID, propertyID)
}

func (s stubTokenizationService) PurchaseTokens(ctx context.Context, req services.PurchaseRequest) (services.PurchaseResult, error) {
	return s.purchaseFn(ctx, req)
}

func (s stubTokenizationService) DistributeRentalIncome(ctx context.Context, adminID, propertyID string, totalIncomeMinor int64) (services.DistributionResult, error) {
	return s.distributeFn(ctx, adminID, propertyID, totalIncomeMinor)
}

type stubMarketService struct {
	placeFn      func(ctx context.Context, req services.OrderRequest) (models.MarketOrder, error)
	getFn        func(ctx context.Context, orderID string) (models.MarketOrder, error)
	cancelFn     func(ctx context.Context, userID, orderID string) error
	byPropertyFn func(ctx context.Context, propertyID string) ([]models.MarketOrder, error)
	byUserFn     func(ctx context.Context, userID string) ([]models.MarketOrder, error)
}

func (s stubMarketService) GetOrder(ctx context.Context, orderID string) (models.MarketOrder, error) {
	return s.getFn(ctx, orderID)
}

func (s stubMarketService) PlaceOrder(ctx context.Context, req services.OrderRequest) (models.MarketOrder, error) {
	return s.placeFn(ctx, req)
}

func (s stubMarketService) CancelOrder(ctx context.Context, userID, orderID string) error {
	return s.cancelFn(ctx, userID, orderID)
}

func (s stubMarketService) ListActiveByProperty(ctx context.Context, propertyID string) ([]models.MarketOrder, error) {
	if s.byPropertyFn == nil {
		return nil, nil
	}
	return s.byPropertyFn(ctx, propertyID)
}

func (s stubMarketService) ListByUser(ctx context.Context, userID string) ([]models.MarketOrder, error) {
	if s.byUserFn == nil {
		return nil, nil
	}
	return s.byUserFn(ctx, userID)
}

type handlerStubs struct {
	users         stubUserStore
	properties    stubPropertyStore
	holdings      stubHoldingStore
	transactions  stubTransactionStore
	distributions stubDistributionStore
	tokenization  stubTokenizationService
	market        stubMarketService
}

func newTestHandler(stubs handlerStubs) *Handler {
	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := config.Config{JWTSecret: "test-secret", AllowedOrigins: "*", TokenTTL: time.Hour}
	return New(fakeTxRunner{}, cfg, stubs.users, stubs.properties, stubs.holdings, stubs.transactions, stubs.distributions, stubAuditStore{}, stubs.tokenization, stubs.market, websocket.NewHub(), log)
}
