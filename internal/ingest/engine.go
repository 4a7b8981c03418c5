// Package ingest turns on-chain wallet activity into stored transactions
// and derived feed posts.
package ingest

import (
	"context"
	"time"

	"github.com/wallet-feed/internal/adapter"
	"github.com/wallet-feed/internal/logging"
	"github.com/wallet-feed/internal/models"
	"github.com/wallet-feed/internal/types"
)

// TxStore persists transactions keyed by chain identity
type TxStore interface {
	Upsert(ctx context.Context, tx *models.Transaction) (int64, bool, error)
}

// PostStore persists posts derived from transactions
type PostStore interface {
	CreateDerived(ctx context.Context, post *models.Post) (bool, error)
}

// Engine walks a wallet's paginated history and persists what it finds.
// Re-running over the same history is a no-op: transaction identity and
// the per-author derived-post guard absorb repeats.
type Engine struct {
	provider adapter.HistoryProvider
	txs      TxStore
	posts    PostStore
	logger   *logging.Logger
}

// NewEngine creates an ingestion engine
func NewEngine(provider adapter.HistoryProvider, txs TxStore, posts PostStore, logger *logging.Logger) *Engine {
	return &Engine{
		provider: provider,
		txs:      txs,
		posts:    posts,
		logger:   logger,
	}
}

// Result summarizes one ingestion run
type Result struct {
	TxSeen       int
	TxCreated    int
	PostsCreated int
	NextUpdateAt time.Time
}

// IngestAddress fetches the address's history page by page and persists
// it. limit == 0 means walk the full history; limit > 0 stops once that
// many transactions have been seen. Pages commit independently, so a
// provider failure mid-run keeps everything ingested so far.
//
// A post is derived only for transactions inserted by this run whose
// sender is the ingested address. Received-only activity never produces
// a post.
func (e *Engine) IngestAddress(ctx context.Context, address string, limit int) (*Result, error) {
	address = types.ChecksumAddress(address)

	logger := e.logger.WithField("address", address)
	result := &Result{}

	for page := 0; ; page++ {
		histPage, err := e.provider.FetchPage(ctx, address, page)
		if err != nil {
			logger.WithError(err).WithField("page", page).Error("History fetch failed")
			return result, err
		}

		for _, item := range histPage.Items {
			if limit > 0 && result.TxSeen >= limit {
				break
			}
			result.TxSeen++

			tx := models.FromTxItem(item)
			txID, created, err := e.txs.Upsert(ctx, tx)
			if err != nil {
				return result, err
			}
			if !created {
				continue
			}
			result.TxCreated++

			if !types.SameAddress(item.FromAddress, address) {
				continue
			}

			post := &models.Post{
				Author:    address,
				RefTx:     &txID,
				CreatedAt: item.BlockSignedAt.UTC(),
			}
			madePost, err := e.posts.CreateDerived(ctx, post)
			if err != nil {
				return result, err
			}
			if madePost {
				result.PostsCreated++
			}
		}

		result.NextUpdateAt = histPage.NextUpdateAt

		if !histPage.HasMore {
			break
		}
		if limit > 0 && result.TxSeen >= limit {
			break
		}
	}

	logger.WithFields(map[string]interface{}{
		"txSeen":       result.TxSeen,
		"txCreated":    result.TxCreated,
		"postsCreated": result.PostsCreated,
	}).Info("Ingestion completed")

	return result, nil
}
