package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"proptoken/internal/db"
	"proptoken/internal/models"
	"proptoken/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrNotTradeable        = errors.New("property not open for trading")
	ErrInsufficientHolding = errors.New("insufficient token holding for sell order")
	ErrInvalidOrder        = errors.New("invalid order")
)

type OrderStore interface {
	Create(ctx context.Context, tx store.Execer, o models.MarketOrder) error
	GetByID(ctx context.Context, orderID string) (models.MarketOrder, error)
	ListActiveByProperty(ctx context.Context, propertyID string) ([]models.MarketOrder, error)
	ListByUser(ctx context.Context, userID string) ([]models.MarketOrder, error)
	Cancel(ctx context.Context, tx store.Execer, orderID, userID string) (int64, error)
}

type orderPropertyStore interface {
	GetForUpdate(ctx context.Context, tx store.Getter, propertyID string) (models.Property, error)
}

type orderHoldingStore interface {
	GetForUpdate(ctx context.Context, tx store.Getter, userID, propertyID string) (models.Holding, error)
}

// MarketService posts and cancels secondary-market orders. Orders are a
// bulletin board for peer discovery; settlement happens off-platform, so
// placing one never moves tokens.
type MarketService struct {
	txRunner   db.TxRunner
	orders     OrderStore
	properties orderPropertyStore
	holdings   orderHoldingStore
	audit      AuditStore
	log        *logrus.Logger
}

func NewMarketService(txRunner db.TxRunner, orders OrderStore, properties orderPropertyStore, holdings orderHoldingStore, audit AuditStore, log *logrus.Logger) *MarketService {
	return &MarketService{
		txRunner:   txRunner,
		orders:     orders,
		properties: properties,
		holdings:   holdings,
		audit:      audit,
		log:        log,
	}
}

type OrderRequest struct {
	UserID        string
	PropertyID    string
	Side          string
	TokenAmount   int64
	PricePerToken string
}

func (s *MarketService) PlaceOrder(ctx context.Context, req OrderRequest) (models.MarketOrder, error) {
	if req.Side != models.OrderSideBuy && req.Side != models.OrderSideSell {
		return models.MarketOrder{}, ErrInvalidOrder
	}
	if req.TokenAmount <= 0 {
		return models.MarketOrder{}, ErrInvalidOrder
	}
	price, err := decimal.NewFromString(req.PricePerToken)
	if err != nil || price.LessThanOrEqual(decimal.Zero) {
		return models.MarketOrder{}, ErrInvalidOrder
	}

	order := models.MarketOrder{
		ID:            uuid.NewString(),
		UserID:        req.UserID,
		PropertyID:    req.PropertyID,
		Side:          req.Side,
		TokenAmount:   req.TokenAmount,
		PricePerToken: price.StringFixedBank(6),
		Status:        models.OrderActive,
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		property, err := s.properties.GetForUpdate(ctx, tx, req.PropertyID)
		if err != nil {
			return mapNotFound(err)
		}
		if property.Status != models.StatusListed && property.Status != models.StatusSoldOut {
			return ErrNotTradeable
		}
		if req.Side == models.OrderSideSell {
			holding, err := s.holdings.GetForUpdate(ctx, tx, req.UserID, req.PropertyID)
			if errors.Is(err, sql.ErrNoRows) || (err == nil && holding.TokenAmount < req.TokenAmount) {
				return ErrInsufficientHolding
			}
			if err != nil {
				return err
			}
		}
		if err := s.orders.Create(ctx, tx, order); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]any{"side": req.Side, "token_amount": req.TokenAmount})
		return s.audit.Log(ctx, tx, req.UserID, "order_place", "market_order", order.ID, string(data))
	})
	if err != nil {
		return models.MarketOrder{}, err
	}
	return order, nil
}

func (s *MarketService) GetOrder(ctx context.Context, orderID string) (models.MarketOrder, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MarketOrder{}, ErrOrderNotFound
	}
	if err != nil {
		return models.MarketOrder{}, err
	}
	return order, nil
}

func (s *MarketService) CancelOrder(ctx context.Context, userID, orderID string) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		affected, err := s.orders.Cancel(ctx, tx, orderID, userID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrOrderNotFound
		}
		return s.audit.Log(ctx, tx, userID, "order_cancel", "market_order", orderID, "{}")
	})
}

func (s *MarketService) ListActiveByProperty(ctx context.Context, propertyID string) ([]models.MarketOrder, error) {
	return s.orders.ListActiveByProperty(ctx, propertyID)
}

func (s *MarketService) ListByUser(ctx context.Context, userID string) ([]models.MarketOrder, error) {
	return s.orders.ListByUser(ctx, userID)
}
