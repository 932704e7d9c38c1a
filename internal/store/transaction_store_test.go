package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"proptoken/internal/models"
)

func TestTransactionStoreCreate(t *testing.T) {
	ctx := context.Background()
	hash := "XFER-000001"
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO transactions") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 9 {
				t.Fatalf("expected 9 args, got %d", len(args))
			}
			if args[3] != models.TransactionPurchase || args[4] != models.TransactionCompleted {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewTransactionStore(stubDB{})
	err := store.Create(ctx, execer, TransactionInput{
		ID: "tx-1", UserID: "user-1", PropertyID: "prop-1",
		Type: models.TransactionPurchase, Status: models.TransactionCompleted,
		TokenAmount: 100, PricePerToken: "2.00", TotalMinor: 20_000, LedgerTxHash: &hash,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTransactionStoreUpdateStatusOnlyPending(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "status = 'pending'") {
				t.Fatalf("status update must be guarded on pending: %s", query)
			}
			return stubResult{rows: 0}, nil
		},
	}
	store := NewTransactionStore(stubDB{})
	affected, err := store.UpdateStatus(ctx, execer, "tx-1", models.TransactionCompleted, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected 0 rows for a non-pending transaction, got %d", affected)
	}
}

func TestTransactionStoreListByUserWithTypeFilter(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "AND type = $2") {
				t.Fatalf("expected type filter: %s", query)
			}
			if len(args) != 4 || args[1] != models.TransactionPurchase {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*[]models.Transaction) = []models.Transaction{{ID: "tx-1"}}
			return nil
		},
	})
	rows, err := store.ListByUser(ctx, "user-1", models.TransactionPurchase, 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("unexpected rows: %#v", rows)
	}
}
