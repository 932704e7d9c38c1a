package handlers

import (
	"context"

	"proptoken/internal/models"
	"proptoken/internal/services"
	"proptoken/internal/store"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, u models.User) error
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, userID string) (models.User, error)
}

type PropertyStore interface {
	GetByID(ctx context.Context, propertyID string) (models.Property, error)
	ListByStatus(ctx context.Context, status models.PropertyStatus, limit, offset int) ([]models.Property, error)
	ListBySeller(ctx context.Context, sellerID string) ([]models.Property, error)
}

type HoldingStore interface {
	ListByUser(ctx context.Context, userID string) ([]store.HoldingWithProperty, error)
}

type TransactionStore interface {
	ListByUser(ctx context.Context, userID, txType string, limit, offset int) ([]models.Transaction, error)
	ListByProperty(ctx context.Context, propertyID string, limit, offset int) ([]models.Transaction, error)
	UpdateStatus(ctx context.Context, tx store.Execer, transactionID, status string, ledgerTxHash *string) (int64, error)
}

type DistributionStore interface {
	GetByID(ctx context.Context, distributionID string) (models.IncomeDistribution, error)
	ListByProperty(ctx context.Context, propertyID string) ([]models.IncomeDistribution, error)
	ListRecipients(ctx context.Context, distributionID string) ([]models.DistributionRecipient, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	List(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

type TokenizationService interface {
	SubmitProperty(ctx context.Context, req services.SubmitPropertyRequest) (models.Property, error)
	ApproveProperty(ctx context.Context, adminID, propertyID string) error
	RejectProperty(ctx context.Context, adminID, propertyID, reason string) error
	TokenizeProperty(ctx context.Context, adminID, propertyID string) (services.TokenizationResult, error)
	PurchaseTokens(ctx context.Context, req services.PurchaseRequest) (services.PurchaseResult, error)
	DistributeRentalIncome(ctx context.Context, adminID, propertyID string, totalIncomeMinor int64) (services.DistributionResult, error)
}

type MarketService interface {
	PlaceOrder(ctx context.Context, req services.OrderRequest) (models.MarketOrder, error)
	GetOrder(ctx context.Context, orderID string) (models.MarketOrder, error)
	CancelOrder(ctx context.Context, userID, orderID string) error
	ListActiveByProperty(ctx context.Context, propertyID string) ([]models.MarketOrder, error)
	ListByUser(ctx context.Context, userID string) ([]models.MarketOrder, error)
}
