package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"proptoken/internal/models"
)

func TestPropertyStoreCreate(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO properties") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 11 {
				t.Fatalf("expected 11 args, got %d", len(args))
			}
			if args[0] != "prop-1" || args[1] != "seller-1" || args[10] != models.StatusPendingReview {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewPropertyStore(stubDB{})
	err := store.Create(ctx, execer, models.Property{
		ID: "prop-1", SellerID: "seller-1", Name: "Marina Tower",
		ValueMinor: 260_000_000, SizeSqm: 130, Status: models.StatusPendingReview,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPropertyStoreGetForUpdate(t *testing.T) {
	ctx := context.Background()
	getter := stubGetter{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "FOR UPDATE") {
				t.Fatalf("expected row lock, got: %s", query)
			}
			if len(args) != 1 || args[0] != "prop-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*models.Property) = models.Property{ID: "prop-1", Status: models.StatusListed}
			return nil
		},
	}
	store := NewPropertyStore(stubDB{})
	row, err := store.GetForUpdate(ctx, getter, "prop-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.ID != "prop-1" || row.Status != models.StatusListed {
		t.Fatalf("unexpected row: %#v", row)
	}
}

func TestPropertyStoreSetStatusApproved(t *testing.T) {
	ctx := context.Background()
	at := time.Now()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "approved_at = $2") {
				t.Fatalf("approved transition must stamp approved_at: %s", query)
			}
			if args[0] != models.StatusApproved || args[2] != "prop-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewPropertyStore(stubDB{})
	if err := store.SetStatus(ctx, execer, "prop-1", models.StatusApproved, at, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPropertyStoreSetStatusRejected(t *testing.T) {
	ctx := context.Background()
	reason := "missing title deed"
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "rejected_reason = $2") {
				t.Fatalf("rejected transition must record the reason: %s", query)
			}
			ptr, ok := args[1].(*string)
			if !ok || *ptr != reason {
				t.Fatalf("unexpected reason arg: %#v", args[1])
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewPropertyStore(stubDB{})
	if err := store.SetStatus(ctx, execer, "prop-1", models.StatusRejected, time.Now(), &reason); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPropertyStoreMarkListed(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "tokens_available = $2") || !strings.Contains(query, "tokens_sold = 0") {
				t.Fatalf("listing must reset the supply counters: %s", query)
			}
			if args[1] != int64(1_300_000) || args[2] != "2.00" || args[3] != "ABCD" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewPropertyStore(stubDB{})
	if err := store.MarkListed(ctx, execer, "prop-1", 1_300_000, "2.00", "ABCD", "MINT-000001", time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPropertyStoreApplySale(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "tokens_available = tokens_available - $1") {
				t.Fatalf("unexpected query: %s", query)
			}
			if args[0] != int64(100) || args[1] != models.StatusSoldOut || args[2] != "prop-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewPropertyStore(stubDB{})
	if err := store.ApplySale(ctx, execer, "prop-1", 100, models.StatusSoldOut); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPropertyStoreListByStatus(t *testing.T) {
	ctx := context.Background()
	store := NewPropertyStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "WHERE status = $1") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 3 || args[0] != models.StatusListed {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*[]models.Property) = []models.Property{{ID: "prop-1"}}
			return nil
		},
	})
	rows, err := store.ListByStatus(ctx, models.StatusListed, 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "prop-1" {
		t.Fatalf("unexpected rows: %#v", rows)
	}
}
