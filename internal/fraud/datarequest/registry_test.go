package datarequest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"fraudengine/internal/contracts"
)

func TestRegisterAndResolve(t *testing.T) {
	reg := NewRegistry()

	var got RecentTransactionCountRequest
	err := Register(reg, func(_ context.Context, req RecentTransactionCountRequest) (int, error) {
		got = req
		return 7, nil
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	want := RecentTransactionCountRequest{
		AccountID: uuid.New(),
		Since:     time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}
	count, err := Resolve[int](context.Background(), reg, want)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if count != 7 {
		t.Errorf("Resolve() = %d, want 7", count)
	}
	if got != want {
		t.Errorf("handler received %+v, want %+v", got, want)
	}
}

func TestResolveWithoutHandler(t *testing.T) {
	reg := NewRegistry()

	_, err := Resolve[int](context.Background(), reg, RecentTransactionCountRequest{AccountID: uuid.New()})
	if !errors.Is(err, ErrNoHandler) {
		t.Fatalf("Resolve() error = %v, want ErrNoHandler", err)
	}
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	reg := NewRegistry()

	handler := func(context.Context, RecentTransactionCountRequest) (int, error) { return 0, nil }
	if err := Register(reg, handler); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	if err := Register(reg, handler); err == nil {
		t.Fatal("second Register() succeeded, want error")
	}
}

func TestResolvePropagatesHandlerError(t *testing.T) {
	reg := NewRegistry()

	boom := errors.New("history store down")
	if err := Register(reg, func(context.Context, RecentTransactionCountRequest) (int, error) {
		return 0, boom
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, err := Resolve[int](context.Background(), reg, RecentTransactionCountRequest{})
	if !errors.Is(err, boom) {
		t.Fatalf("Resolve() error = %v, want %v", err, boom)
	}
}

func TestRecentTransactionCountFromTransaction(t *testing.T) {
	accountID := uuid.New()
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tx := contracts.TransactionReceived{AccountID: accountID, Timestamp: ts}

	req := RecentTransactionCountFromTransaction(tx, time.Hour)
	if req.AccountID != accountID {
		t.Errorf("AccountID = %s, want %s", req.AccountID, accountID)
	}
	if want := ts.Add(-time.Hour); !req.Since.Equal(want) {
		t.Errorf("Since = %s, want %s", req.Since, want)
	}
}

func TestRecentTransactionCountFromTransactionZeroTimestamp(t *testing.T) {
	tx := contracts.TransactionReceived{AccountID: uuid.New()}

	before := time.Now().UTC().Add(-time.Hour)
	req := RecentTransactionCountFromTransaction(tx, time.Hour)
	after := time.Now().UTC().Add(-time.Hour)

	if req.Since.Before(before) || req.Since.After(after) {
		t.Errorf("Since = %s, want within [%s, %s]", req.Since, before, after)
	}
}
