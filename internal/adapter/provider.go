package adapter

import (
	"context"

	"github.com/wallet-feed/internal/types"
)

// HistoryProvider fetches one page of transaction history for a wallet.
// Pages are numbered from 0. Implementations return a categorized
// provider error on any upstream failure and never retry internally;
// retry policy belongs to the caller.
type HistoryProvider interface {
	FetchPage(ctx context.Context, address string, page int) (*types.HistoryPage, error)
}
