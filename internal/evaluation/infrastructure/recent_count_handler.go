package infrastructure

import (
	"context"

	"fraudengine/internal/evaluation/domain"
	"fraudengine/internal/fraud/datarequest"
)

// RegisterDataHandlers binds every data request kind the rules can emit to
// its backing repository. Called once at worker startup.
func RegisterDataHandlers(reg *datarequest.Registry, history domain.TransactionHistoryRepository) error {
	return datarequest.Register(reg, func(ctx context.Context, req datarequest.RecentTransactionCountRequest) (int, error) {
		return history.RecentTransactionCount(ctx, req.AccountID, req.Since)
	})
}
