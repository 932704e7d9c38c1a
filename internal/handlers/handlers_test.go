package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"proptoken/internal/auth"
	"proptoken/internal/models"
	"proptoken/internal/services"
	"proptoken/internal/store"
)

func bearer(t *testing.T, userID, role string) string {
	t.Helper()
	token, err := auth.GenerateToken("test-secret", userID, role, time.Hour)
	if err != nil {
		t.Fatalf("token generation failed: %v", err)
	}
	return "Bearer " + token
}

func doJSON(t *testing.T, handler http.Handler, method, path, authHeader string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "203.0.113.7:1234"
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestPurchaseEndpointMapsDomainErrors(t *testing.T) {
	cases := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"not listed", services.ErrNotListed, http.StatusConflict},
		{"below minimum", services.ErrBelowMinimum, http.StatusBadRequest},
		{"insufficient supply", services.ErrInsufficientSupply, http.StatusUnprocessableEntity},
		{"invalid wallet", services.ErrInvalidWallet, http.StatusBadRequest},
		{"not found", services.ErrPropertyNotFound, http.StatusNotFound},
		{"ledger down", services.ErrLedgerUnavailable, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := newTestHandler(handlerStubs{
				tokenization: stubTokenizationService{
					purchaseFn: func(context.Context, services.PurchaseRequest) (services.PurchaseResult, error) {
						return services.PurchaseResult{}, tc.serviceErr
					},
				},
			})
			rec := doJSON(t, handler.Routes(), http.MethodPost, "/properties/prop-1/purchase", bearer(t, "user-1", models.RoleInvestor), map[string]any{
				"token_amount":   100,
				"wallet_address": "rNCFjv8Ek5oDrNiMJ3pw6eLLFtMjZLJnf2",
			})
			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tc.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestPurchaseEndpointSuccess(t *testing.T) {
	var captured services.PurchaseRequest
	handler := newTestHandler(handlerStubs{
		tokenization: stubTokenizationService{
			purchaseFn: func(_ context.Context, req services.PurchaseRequest) (services.PurchaseResult, error) {
				captured = req
				return services.PurchaseResult{
					TransactionID:   "tx-1",
					TransferTxHash:  "XFER-000002",
					TotalMinor:      20_000,
					TokensAvailable: 1_299_900,
				}, nil
			},
		},
	})
	rec := doJSON(t, handler.Routes(), http.MethodPost, "/properties/prop-1/purchase", bearer(t, "user-1", models.RoleInvestor), map[string]any{
		"token_amount":   100,
		"wallet_address": "rNCFjv8Ek5oDrNiMJ3pw6eLLFtMjZLJnf2",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.UserID != "user-1" || captured.PropertyID != "prop-1" || captured.TokenAmount != 100 {
		t.Fatalf("unexpected request passed to service: %+v", captured)
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if payload["total"] != "200.00" || payload["transaction_id"] != "tx-1" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestPurchaseEndpointRequiresInvestorRole(t *testing.T) {
	handler := newTestHandler(handlerStubs{
		tokenization: stubTokenizationService{
			purchaseFn: func(context.Context, services.PurchaseRequest) (services.PurchaseResult, error) {
				t.Fatalf("service must not be called")
				return services.PurchaseResult{}, nil
			},
		},
	})
	rec := doJSON(t, handler.Routes(), http.MethodPost, "/properties/prop-1/purchase", bearer(t, "user-1", models.RoleSeller), map[string]any{
		"token_amount": 100,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	handler := newTestHandler(handlerStubs{})
	rec := doJSON(t, handler.Routes(), http.MethodPost, "/admin/properties/prop-1/approve", bearer(t, "user-1", models.RoleInvestor), nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	rec = doJSON(t, handler.Routes(), http.MethodPost, "/admin/properties/prop-1/approve", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestApproveEndpoint(t *testing.T) {
	var approvedBy, propertyID string
	handler := newTestHandler(handlerStubs{
		tokenization: stubTokenizationService{
			approveFn: func(_ context.Context, adminID, id string) error {
				approvedBy = adminID
				propertyID = id
				return nil
			},
		},
	})
	rec := doJSON(t, handler.Routes(), http.MethodPost, "/admin/properties/prop-1/approve", bearer(t, "admin-1", models.RoleAdmin), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if approvedBy != "admin-1" || propertyID != "prop-1" {
		t.Fatalf("unexpected call: %s %s", approvedBy, propertyID)
	}
}

func TestRejectEndpointRequiresReason(t *testing.T) {
	handler := newTestHandler(handlerStubs{
		tokenization: stubTokenizationService{
			rejectFn: func(context.Context, string, string, string) error {
				t.Fatalf("service must not be called without a reason")
				return nil
			},
		},
	})
	rec := doJSON(t, handler.Routes(), http.MethodPost, "/admin/properties/prop-1/reject", bearer(t, "admin-1", models.RoleAdmin), map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDistributeEndpointParsesMoney(t *testing.T) {
	var receivedMinor int64
	handler := newTestHandler(handlerStubs{
		tokenization: stubTokenizationService{
			distributeFn: func(_ context.Context, _, _ string, totalIncomeMinor int64) (services.DistributionResult, error) {
				receivedMinor = totalIncomeMinor
				return services.DistributionResult{DistributionID: "dist-1", Recipients: 2}, nil
			},
		},
	})
	rec := doJSON(t, handler.Routes(), http.MethodPost, "/admin/properties/prop-1/distribute", bearer(t, "admin-1", models.RoleAdmin), map[string]any{
		"total_income": "10000.00",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if receivedMinor != 1_000_000 {
		t.Fatalf("expected 1000000 minor units, got %d", receivedMinor)
	}

	rec = doJSON(t, handler.Routes(), http.MethodPost, "/admin/properties/prop-1/distribute", bearer(t, "admin-1", models.RoleAdmin), map[string]any{
		"total_income": "-5",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative income, got %d", rec.Code)
	}
}

func TestGetBreakdownEndpoint(t *testing.T) {
	handler := newTestHandler(handlerStubs{
		properties: stubPropertyStore{
			getByIDFn: func(context.Context, string) (models.Property, error) {
				rent := int64(1_000_000)
				return models.Property{
					ID: "prop-1", ValueMinor: 260_000_000, SizeSqm: 130,
					MonthlyRentMinor: &rent, Status: models.StatusApproved,
				}, nil
			},
		},
	})
	rec := doJSON(t, handler.Routes(), http.MethodGet, "/properties/prop-1/breakdown", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Breakdown struct {
			TotalTokens int64  `json:"total_tokens"`
			TokenPrice  string `json:"token_price"`
		} `json:"breakdown"`
		AnnualYieldPercent string `json:"annual_yield_percent"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if payload.Breakdown.TotalTokens != 1_300_000 || payload.Breakdown.TokenPrice != "2" {
		t.Fatalf("unexpected breakdown: %+v", payload)
	}
	if payload.AnnualYieldPercent != "4.62" {
		t.Fatalf("expected yield 4.62, got %s", payload.AnnualYieldPercent)
	}
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	handler := newTestHandler(handlerStubs{})
	rec := doJSON(t, handler.Routes(), http.MethodPost, "/auth/register", "", map[string]any{
		"username": "wannabe_admin",
		"email":    "admin@example.com",
		"password": "longenough",
		"role":     "admin",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRegisterAndLogin(t *testing.T) {
	var createdRole string
	passwordHash, err := auth.HashPassword("longenough")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	handler := newTestHandler(handlerStubs{
		users: stubUserStore{
			createFn: func(_ context.Context, _ store.Execer, u models.User) error {
				createdRole = u.Role
				return nil
			},
			getByEmailFn: func(context.Context, string) (models.User, error) {
				return models.User{ID: "user-1", Role: models.RoleSeller, PasswordHash: passwordHash}, nil
			},
		},
	})

	rec := doJSON(t, handler.Routes(), http.MethodPost, "/auth/register", "", map[string]any{
		"username": "marina_seller",
		"email":    "seller@example.com",
		"password": "longenough",
		"role":     "seller",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if createdRole != models.RoleSeller {
		t.Fatalf("expected seller role persisted, got %q", createdRole)
	}

	rec = doJSON(t, handler.Routes(), http.MethodPost, "/auth/login", "", map[string]any{
		"email":    "seller@example.com",
		"password": "longenough",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	claims, err := auth.ParseToken("test-secret", payload["token"])
	if err != nil {
		t.Fatalf("login token invalid: %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != models.RoleSeller {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	rec = doJSON(t, handler.Routes(), http.MethodPost, "/auth/login", "", map[string]any{
		"email":    "seller@example.com",
		"password": "wrong-password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", rec.Code)
	}
}

func TestSettleTransactionEndpoint(t *testing.T) {
	var settledID, settledStatus string
	var settledHash *string
	handler := newTestHandler(handlerStubs{
		transactions: stubTransactionStore{
			updateStatusFn: func(_ context.Context, _ store.Execer, transactionID, status string, ledgerTxHash *string) (int64, error) {
				settledID = transactionID
				settledStatus = status
				settledHash = ledgerTxHash
				return 1, nil
			},
		},
	})
	rec := doJSON(t, handler.Routes(), http.MethodPost, "/admin/transactions/txn-9/settle", bearer(t, "admin-1", models.RoleAdmin), map[string]string{
		"ledger_tx_hash": "PAY-000042",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if settledID != "txn-9" || settledStatus != "completed" {
		t.Fatalf("unexpected update: %s %s", settledID, settledStatus)
	}
	if settledHash == nil || *settledHash != "PAY-000042" {
		t.Fatalf("hash not passed through: %v", settledHash)
	}
}

func TestSettleTransactionNotPending(t *testing.T) {
	handler := newTestHandler(handlerStubs{
		transactions: stubTransactionStore{
			updateStatusFn: func(context.Context, store.Execer, string, string, *string) (int64, error) {
				return 0, nil
			},
		},
	})
	rec := doJSON(t, handler.Routes(), http.MethodPost, "/admin/transactions/txn-9/settle", bearer(t, "admin-1", models.RoleAdmin), map[string]string{
		"ledger_tx_hash": "PAY-000042",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = doJSON(t, handler.Routes(), http.MethodPost, "/admin/transactions/txn-9/settle", bearer(t, "admin-1", models.RoleAdmin), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without hash, got %d", rec.Code)
	}
}

func TestGetOrderHidesForeignOrders(t *testing.T) {
	handler := newTestHandler(handlerStubs{
		market: stubMarketService{
			getFn: func(context.Context, string) (models.MarketOrder, error) {
				return models.MarketOrder{ID: "order-1", UserID: "user-1"}, nil
			},
		},
	})

	rec := doJSON(t, handler.Routes(), http.MethodGet, "/orders/order-1", bearer(t, "user-1", models.RoleInvestor), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for owner, got %d", rec.Code)
	}

	rec = doJSON(t, handler.Routes(), http.MethodGet, "/orders/order-1", bearer(t, "user-2", models.RoleInvestor), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for non-owner, got %d", rec.Code)
	}

	rec = doJSON(t, handler.Routes(), http.MethodGet, "/orders/order-1", bearer(t, "admin-1", models.RoleAdmin), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", rec.Code)
	}
}

func TestLedgerFailureResponseHidesDetail(t *testing.T) {
	handler := newTestHandler(handlerStubs{
		tokenization: stubTokenizationService{
			purchaseFn: func(context.Context, services.PurchaseRequest) (services.PurchaseResult, error) {
				return services.PurchaseResult{}, fmt.Errorf("transfer after 2 attempts: %w", services.ErrLedgerUnavailable)
			},
		},
	})
	rec := doJSON(t, handler.Routes(), http.MethodPost, "/properties/prop-1/purchase", bearer(t, "user-1", models.RoleInvestor), map[string]any{
		"token_amount":   100,
		"wallet_address": "rNCFjv8Ek5oDrNiMJ3pw6eLLFtMjZLJnf2",
	})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "ledger unavailable" {
		t.Fatalf("expected generic ledger message, got %q", body["error"])
	}
}
