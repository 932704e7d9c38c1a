package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"proptoken/internal/db"
	"proptoken/internal/ledger"
	"proptoken/internal/models"
	"proptoken/internal/money"
	"proptoken/internal/store"
	"proptoken/internal/tokenmath"
	"proptoken/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	ErrPropertyNotFound   = errors.New("property not found")
	ErrNotApproved        = errors.New("property not approved for tokenization")
	ErrNotListed          = errors.New("property not available for investment")
	ErrBelowMinimum       = errors.New("minimum investment is 100 tokens")
	ErrInsufficientSupply = errors.New("insufficient tokens available")
	ErrInvalidWallet      = errors.New("invalid wallet address")
	ErrNoHolders          = errors.New("no token holders found")
	ErrLedgerUnavailable  = errors.New("ledger unavailable")
)

type PropertyStore interface {
	Create(ctx context.Context, tx store.Execer, p models.Property) error
	GetByID(ctx context.Context, propertyID string) (models.Property, error)
	GetForUpdate(ctx context.Context, tx store.Getter, propertyID string) (models.Property, error)
	SetStatus(ctx context.Context, tx store.Execer, propertyID string, status models.PropertyStatus, at time.Time, reason *string) error
	MarkListed(ctx context.Context, tx store.Execer, propertyID string, totalTokens int64, tokenPrice, symbol, mintTxHash string, listedAt time.Time) error
	ApplySale(ctx context.Context, tx store.Execer, propertyID string, tokenAmount int64, status models.PropertyStatus) error
}

type HoldingStore interface {
	GetForUpdate(ctx context.Context, tx store.Getter, userID, propertyID string) (models.Holding, error)
	Create(ctx context.Context, tx store.Execer, h models.Holding) error
	ApplyPurchase(ctx context.Context, tx store.Execer, holdingID string, tokenAmount, totalInvestedMinor int64, averagePrice string) error
	ListByPropertyLocked(ctx context.Context, tx store.Selecter, propertyID string) ([]store.HoldingWithWallet, error)
}

type TransactionStore interface {
	Create(ctx context.Context, tx store.Execer, input store.TransactionInput) error
}

type DistributionStore interface {
	Create(ctx context.Context, tx store.Execer, input store.DistributionInput) error
	InsertRecipients(ctx context.Context, tx store.Execer, recipients []store.RecipientInput) error
	MarkDistributed(ctx context.Context, tx store.Execer, distributionID string, at time.Time) error
}

type UserStore interface {
	SetWalletAddressIfEmpty(ctx context.Context, tx store.Execer, userID, wallet string) error
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

type PropertyHub interface {
	BroadcastProperty(update websocket.PropertyUpdate)
}

// TokenizationService sequences the property lifecycle: approval, token
// minting and listing, fractional purchases, and rental-income distribution.
// Every read-check-write sequence runs in a serializable transaction against
// the FOR UPDATE property row, so competing purchases can never both pass the
// supply check.
type TokenizationService struct {
	txRunner      db.TxRunner
	properties    PropertyStore
	holdings      HoldingStore
	transactions  TransactionStore
	distributions DistributionStore
	users         UserStore
	audit         AuditStore
	ledger        ledger.Ledger
	hub           PropertyHub
	log           *logrus.Logger
	ledgerTimeout time.Duration
	now           func() time.Time
}

func NewTokenizationService(
	txRunner db.TxRunner,
	properties PropertyStore,
	holdings HoldingStore,
	transactions TransactionStore,
	distributions DistributionStore,
	users UserStore,
	audit AuditStore,
	tokenLedger ledger.Ledger,
	hub PropertyHub,
	log *logrus.Logger,
	ledgerTimeout time.Duration,
) *TokenizationService {
	return &TokenizationService{
		txRunner:      txRunner,
		properties:    properties,
		holdings:      holdings,
		transactions:  transactions,
		distributions: distributions,
		users:         users,
		audit:         audit,
		ledger:        tokenLedger,
		hub:           hub,
		log:           log,
		ledgerTimeout: ledgerTimeout,
		now:           time.Now,
	}
}

type SubmitPropertyRequest struct {
	SellerID         string
	Name             string
	Description      string
	Address          string
	PropertyType     string
	ValueMinor       int64
	SizeSqm          int64
	MonthlyRentMinor *int64
	OccupancyStatus  string
}

// SubmitProperty records a seller's listing request. The tokenization
// minimums are enforced here so a property that could never tokenize is
// rejected up front rather than at admin review.
func (s *TokenizationService) SubmitProperty(ctx context.Context, req SubmitPropertyRequest) (models.Property, error) {
	if err := tokenmath.ValidateTokenizationParameters(money.DecimalFromMinor(req.ValueMinor), req.SizeSqm); err != nil {
		return models.Property{}, err
	}
	property := models.Property{
		ID:               uuid.NewString(),
		SellerID:         req.SellerID,
		Name:             req.Name,
		Description:      req.Description,
		Address:          req.Address,
		PropertyType:     req.PropertyType,
		ValueMinor:       req.ValueMinor,
		SizeSqm:          req.SizeSqm,
		MonthlyRentMinor: req.MonthlyRentMinor,
		OccupancyStatus:  req.OccupancyStatus,
		Status:           models.StatusPendingReview,
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.properties.Create(ctx, tx, property); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]any{"name": req.Name, "value": money.FormatMinor(req.ValueMinor)})
		return s.audit.Log(ctx, tx, req.SellerID, "property_submit", "property", property.ID, string(data))
	})
	if err != nil {
		return models.Property{}, err
	}
	return property, nil
}

func (s *TokenizationService) ApproveProperty(ctx context.Context, adminID, propertyID string) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		property, err := s.properties.GetForUpdate(ctx, tx, propertyID)
		if err != nil {
			return mapNotFound(err)
		}
		next, err := models.Transition(property.Status, models.StatusApproved)
		if err != nil {
			return err
		}
		if err := s.properties.SetStatus(ctx, tx, propertyID, next, s.now(), nil); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{"property_id": propertyID})
		return s.audit.Log(ctx, tx, adminID, "property_approve", "property", propertyID, string(data))
	})
}

func (s *TokenizationService) RejectProperty(ctx context.Context, adminID, propertyID, reason string) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		property, err := s.properties.GetForUpdate(ctx, tx, propertyID)
		if err != nil {
			return mapNotFound(err)
		}
		next, err := models.Transition(property.Status, models.StatusRejected)
		if err != nil {
			return err
		}
		if err := s.properties.SetStatus(ctx, tx, propertyID, next, s.now(), &reason); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{"property_id": propertyID, "reason": reason})
		return s.audit.Log(ctx, tx, adminID, "property_reject", "property", propertyID, string(data))
	})
}

type TokenizationResult struct {
	TokenSymbol string              `json:"token_symbol"`
	MintTxHash  string              `json:"mint_tx_hash"`
	Breakdown   tokenmath.Breakdown `json:"breakdown"`
}

// TokenizeProperty mints the property's issued currency and freezes the
// token supply and price on the listing. The mint happens before the
// database transaction; the status re-check under the row lock keeps a
// concurrent second tokenization from listing twice. A mint whose listing
// update then fails is logged for reconciliation.
func (s *TokenizationService) TokenizeProperty(ctx context.Context, adminID, propertyID string) (TokenizationResult, error) {
	property, err := s.properties.GetByID(ctx, propertyID)
	if err != nil {
		return TokenizationResult{}, mapNotFound(err)
	}
	if property.Status != models.StatusApproved {
		return TokenizationResult{}, ErrNotApproved
	}
	breakdown, err := tokenmath.ComputeBreakdown(money.DecimalFromMinor(property.ValueMinor), property.SizeSqm)
	if err != nil {
		return TokenizationResult{}, err
	}
	symbol := ledger.TokenSymbol(propertyID)
	mintHash, err := s.callLedger(ctx, "mint", func(c context.Context) (string, error) {
		return s.ledger.MintTokens(c, symbol, breakdown.TotalTokens)
	})
	if err != nil {
		return TokenizationResult{}, err
	}

	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		locked, err := s.properties.GetForUpdate(ctx, tx, propertyID)
		if err != nil {
			return mapNotFound(err)
		}
		if _, err := models.Transition(locked.Status, models.StatusListed); err != nil {
			return ErrNotApproved
		}
		price := breakdown.TokenPrice.StringFixed(2)
		if err := s.properties.MarkListed(ctx, tx, propertyID, breakdown.TotalTokens, price, symbol, mintHash, s.now()); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]any{
			"token_symbol": symbol,
			"mint_tx_hash": mintHash,
			"total_tokens": breakdown.TotalTokens,
			"token_price":  price,
		})
		return s.audit.Log(ctx, tx, adminID, "property_tokenize", "property", propertyID, string(data))
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"property_id":  propertyID,
			"mint_tx_hash": mintHash,
		}).WithError(err).Error("tokens minted but listing update failed; reconcile manually")
		return TokenizationResult{}, err
	}

	s.hub.BroadcastProperty(websocket.PropertyUpdate{
		PropertyID:      propertyID,
		TokensAvailable: breakdown.TotalTokens,
		TokensSold:      0,
		Status:          string(models.StatusListed),
	})
	return TokenizationResult{TokenSymbol: symbol, MintTxHash: mintHash, Breakdown: breakdown}, nil
}

type PurchaseRequest struct {
	UserID        string
	PropertyID    string
	TokenAmount   int64
	WalletAddress string
}

type PurchaseResult struct {
	TransactionID   string `json:"transaction_id"`
	TransferTxHash  string `json:"transfer_tx_hash"`
	TotalMinor      int64  `json:"-"`
	TokensAvailable int64  `json:"tokens_available"`
	SoldOut         bool   `json:"sold_out"`
}

// PurchaseTokens sells tokenAmount tokens of a listed property to an
// investor. Validation, the ledger transfer, and all writes form one logical
// transaction: any validation failure aborts with no side effects, and a
// ledger failure rolls the database back. The ledger calls are guarded so a
// serialization retry does not transfer twice.
func (s *TokenizationService) PurchaseTokens(ctx context.Context, req PurchaseRequest) (PurchaseResult, error) {
	var (
		result       PurchaseResult
		update       websocket.PropertyUpdate
		trustHash    string
		transferHash string
	)
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		property, err := s.properties.GetForUpdate(ctx, tx, req.PropertyID)
		if err != nil {
			return mapNotFound(err)
		}
		if property.Status != models.StatusListed {
			return ErrNotListed
		}
		if req.TokenAmount < tokenmath.MinimumPurchaseTokens {
			return ErrBelowMinimum
		}
		if req.TokenAmount > property.TokensAvailable {
			return ErrInsufficientSupply
		}
		if !s.ledger.ValidateWalletAddress(req.WalletAddress) {
			return ErrInvalidWallet
		}

		price, err := decimal.NewFromString(property.TokenPrice)
		if err != nil {
			return fmt.Errorf("corrupt token price on property %s: %w", property.ID, err)
		}
		total := price.Mul(decimal.NewFromInt(req.TokenAmount))
		totalMinor := money.MinorFromDecimal(total)

		if trustHash == "" {
			// trust line limit leaves room for future purchases
			trustHash, err = s.callLedger(ctx, "trust_line", func(c context.Context) (string, error) {
				return s.ledger.EstablishTrustLine(c, req.WalletAddress, property.TokenSymbol, req.TokenAmount*2)
			})
			if err != nil {
				return err
			}
		}
		if transferHash == "" {
			transferHash, err = s.callLedger(ctx, "transfer", func(c context.Context) (string, error) {
				return s.ledger.TransferTokens(c, req.WalletAddress, property.TokenSymbol, req.TokenAmount,
					"Investment in property "+property.ID)
			})
			if err != nil {
				return err
			}
		}

		transactionID := uuid.NewString()
		if err := s.transactions.Create(ctx, tx, store.TransactionInput{
			ID:            transactionID,
			UserID:        req.UserID,
			PropertyID:    property.ID,
			Type:          models.TransactionPurchase,
			Status:        models.TransactionCompleted,
			TokenAmount:   req.TokenAmount,
			PricePerToken: property.TokenPrice,
			TotalMinor:    totalMinor,
			LedgerTxHash:  &transferHash,
		}); err != nil {
			return err
		}

		status := property.Status
		if property.TokensAvailable == req.TokenAmount {
			status, err = models.Transition(property.Status, models.StatusSoldOut)
			if err != nil {
				return err
			}
		}
		if err := s.properties.ApplySale(ctx, tx, property.ID, req.TokenAmount, status); err != nil {
			return err
		}

		holding, err := s.holdings.GetForUpdate(ctx, tx, req.UserID, property.ID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			average := total.Div(decimal.NewFromInt(req.TokenAmount))
			if err := s.holdings.Create(ctx, tx, models.Holding{
				ID:                 uuid.NewString(),
				UserID:             req.UserID,
				PropertyID:         property.ID,
				TokenAmount:        req.TokenAmount,
				TotalInvestedMinor: totalMinor,
				AveragePrice:       average.StringFixedBank(6),
			}); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			newTokens := holding.TokenAmount + req.TokenAmount
			newInvested := holding.TotalInvestedMinor + totalMinor
			average := money.DecimalFromMinor(newInvested).Div(decimal.NewFromInt(newTokens))
			if err := s.holdings.ApplyPurchase(ctx, tx, holding.ID, newTokens, newInvested, average.StringFixedBank(6)); err != nil {
				return err
			}
		}

		if err := s.users.SetWalletAddressIfEmpty(ctx, tx, req.UserID, req.WalletAddress); err != nil {
			return err
		}

		data, _ := json.Marshal(map[string]any{
			"transaction_id": transactionID,
			"token_amount":   req.TokenAmount,
			"total":          money.FormatMinor(totalMinor),
		})
		if err := s.audit.Log(ctx, tx, req.UserID, "token_purchase", "transaction", transactionID, string(data)); err != nil {
			return err
		}

		result = PurchaseResult{
			TransactionID:   transactionID,
			TransferTxHash:  transferHash,
			TotalMinor:      totalMinor,
			TokensAvailable: property.TokensAvailable - req.TokenAmount,
			SoldOut:         status == models.StatusSoldOut,
		}
		update = websocket.PropertyUpdate{
			PropertyID:      property.ID,
			TokensAvailable: property.TokensAvailable - req.TokenAmount,
			TokensSold:      property.TokensSold + req.TokenAmount,
			Status:          string(status),
		}
		return nil
	})
	if err != nil {
		if transferHash != "" {
			s.log.WithFields(logrus.Fields{
				"property_id":      req.PropertyID,
				"user_id":          req.UserID,
				"transfer_tx_hash": transferHash,
			}).WithError(err).Error("tokens transferred on ledger but purchase aborted; reconcile manually")
		}
		return PurchaseResult{}, err
	}
	s.hub.BroadcastProperty(update)
	return result, nil
}

type DistributionResult struct {
	DistributionID string   `json:"distribution_id"`
	PerToken       string   `json:"per_token"`
	Recipients     int      `json:"recipients"`
	PayoutHashes   []string `json:"payout_hashes"`
}

// DistributeRentalIncome splits a rental payout across current holders in
// proportion to their token counts. Holders without a wallet address are
// recorded but not paid; their transactions stay pending until an operator
// reconciles them. Non-final shares are floored to whole minor units and the
// last recipient takes whatever is left, so the recorded amounts sum exactly
// to the payout and no share can go negative.
func (s *TokenizationService) DistributeRentalIncome(ctx context.Context, adminID, propertyID string, totalIncomeMinor int64) (DistributionResult, error) {
	var (
		result       DistributionResult
		payoutHashes []string
	)
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		property, err := s.properties.GetForUpdate(ctx, tx, propertyID)
		if err != nil {
			return mapNotFound(err)
		}
		holdings, err := s.holdings.ListByPropertyLocked(ctx, tx, propertyID)
		if err != nil {
			return err
		}
		if len(holdings) == 0 {
			return ErrNoHolders
		}

		var totalHeld int64
		for _, h := range holdings {
			totalHeld += h.TokenAmount
		}
		totalIncome := money.DecimalFromMinor(totalIncomeMinor)
		perToken, err := tokenmath.IncomePerToken(totalIncome, totalHeld)
		if err != nil {
			return err
		}

		type recipient struct {
			holding     store.HoldingWithWallet
			incomeMinor int64
		}
		recipients := make([]recipient, 0, len(holdings))
		var assigned int64
		for i, h := range holdings {
			var minor int64
			if i == len(holdings)-1 {
				minor = totalIncomeMinor - assigned
			} else {
				share, err := tokenmath.RentalIncomeShare(h.TokenAmount, totalHeld, totalIncome)
				if err != nil {
					return err
				}
				minor = money.FloorMinor(share)
			}
			assigned += minor
			recipients = append(recipients, recipient{holding: h, incomeMinor: minor})
		}

		distributionID := uuid.NewString()
		perTokenStr := perToken.StringFixedBank(6)
		if err := s.distributions.Create(ctx, tx, store.DistributionInput{
			ID:               distributionID,
			PropertyID:       property.ID,
			TotalIncomeMinor: totalIncomeMinor,
			PerToken:         perTokenStr,
		}); err != nil {
			return err
		}

		if payoutHashes == nil {
			payouts := make([]ledger.Payout, 0, len(recipients))
			for _, r := range recipients {
				if r.holding.WalletAddress == nil {
					continue
				}
				payouts = append(payouts, ledger.Payout{
					Wallet: *r.holding.WalletAddress,
					Amount: money.DecimalFromMinor(r.incomeMinor),
				})
			}
			payoutHashes, err = s.callLedgerBatch(ctx, "distribute_income", payouts)
			if err != nil {
				return err
			}
		}

		inputs := make([]store.RecipientInput, 0, len(recipients))
		hashIdx := 0
		for _, r := range recipients {
			var hashPtr *string
			if r.holding.WalletAddress != nil && hashIdx < len(payoutHashes) {
				hash := payoutHashes[hashIdx]
				hashIdx++
				hashPtr = &hash
			}
			inputs = append(inputs, store.RecipientInput{
				ID:             uuid.NewString(),
				DistributionID: distributionID,
				UserID:         r.holding.UserID,
				TokenAmount:    r.holding.TokenAmount,
				IncomeMinor:    r.incomeMinor,
				LedgerTxHash:   hashPtr,
			})

			status := models.TransactionPending
			if hashPtr != nil {
				status = models.TransactionCompleted
			}
			if err := s.transactions.Create(ctx, tx, store.TransactionInput{
				ID:            uuid.NewString(),
				UserID:        r.holding.UserID,
				PropertyID:    property.ID,
				Type:          models.TransactionIncomeDistribution,
				Status:        status,
				TokenAmount:   r.holding.TokenAmount,
				PricePerToken: perTokenStr,
				TotalMinor:    r.incomeMinor,
				LedgerTxHash:  hashPtr,
			}); err != nil {
				return err
			}
		}
		if err := s.distributions.InsertRecipients(ctx, tx, inputs); err != nil {
			return err
		}
		if err := s.distributions.MarkDistributed(ctx, tx, distributionID, s.now()); err != nil {
			return err
		}

		data, _ := json.Marshal(map[string]any{
			"distribution_id": distributionID,
			"total_income":    money.FormatMinor(totalIncomeMinor),
			"recipients":      len(recipients),
		})
		if err := s.audit.Log(ctx, tx, adminID, "income_distribute", "income_distribution", distributionID, string(data)); err != nil {
			return err
		}

		result = DistributionResult{
			DistributionID: distributionID,
			PerToken:       perTokenStr,
			Recipients:     len(recipients),
			PayoutHashes:   payoutHashes,
		}
		return nil
	})
	if err != nil {
		if len(payoutHashes) > 0 {
			s.log.WithFields(logrus.Fields{
				"property_id": propertyID,
				"payouts":     len(payoutHashes),
			}).WithError(err).Error("income paid on ledger but distribution aborted; reconcile manually")
		}
		return DistributionResult{}, err
	}
	return result, nil
}

const ledgerAttempts = 2

func (s *TokenizationService) callLedger(ctx context.Context, op string, fn func(context.Context) (string, error)) (string, error) {
	for attempt := 1; attempt <= ledgerAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, s.ledgerTimeout)
		hash, err := fn(callCtx)
		cancel()
		if err == nil {
			return hash, nil
		}
		s.log.WithError(err).WithFields(logrus.Fields{"op": op, "attempt": attempt}).Warn("ledger call failed")
	}
	return "", fmt.Errorf("%s after %d attempts: %w", op, ledgerAttempts, ErrLedgerUnavailable)
}

func (s *TokenizationService) callLedgerBatch(ctx context.Context, op string, payouts []ledger.Payout) ([]string, error) {
	if len(payouts) == 0 {
		return []string{}, nil
	}
	for attempt := 1; attempt <= ledgerAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, s.ledgerTimeout)
		hashes, err := s.ledger.DistributeIncome(callCtx, payouts)
		cancel()
		if err == nil {
			return hashes, nil
		}
		// partial batches are not retried: re-sending would double-pay the
		// recipients that already went through
		if len(hashes) > 0 {
			s.log.WithError(err).WithFields(logrus.Fields{"op": op, "sent": len(hashes)}).Error("ledger batch partially applied")
			return nil, fmt.Errorf("%s partially applied: %w", op, ErrLedgerUnavailable)
		}
		s.log.WithError(err).WithFields(logrus.Fields{"op": op, "attempt": attempt}).Warn("ledger call failed")
	}
	return nil, fmt.Errorf("%s after %d attempts: %w", op, ledgerAttempts, ErrLedgerUnavailable)
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrPropertyNotFound
	}
	return err
}
