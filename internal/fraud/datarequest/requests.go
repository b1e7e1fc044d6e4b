package datarequest

import (
	"time"

	"github.com/google/uuid"

	"fraudengine/internal/contracts"
)

// RecentTransactionCountRequest asks how many transactions an account produced
// since a cutoff. The velocity rule both declares and resolves it.
type RecentTransactionCountRequest struct {
	AccountID uuid.UUID
	Since     time.Time
}

func (RecentTransactionCountRequest) RequestID() string { return "RecentTransactionCount" }

// RecentTransactionCountFromTransaction derives the request from the
// transaction itself: the lookback window ends at the transaction's own
// timestamp, falling back to now when the timestamp is unset.
func RecentTransactionCountFromTransaction(tx contracts.TransactionReceived, window time.Duration) RecentTransactionCountRequest {
	end := tx.Timestamp
	if end.IsZero() {
		end = time.Now().UTC()
	}
	return RecentTransactionCountRequest{
		AccountID: tx.AccountID,
		Since:     end.Add(-window),
	}
}
