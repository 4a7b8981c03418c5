package ingest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/wallet-feed/internal/types"
)

// Ingestion is the one write path that can run repeatedly over the same
// history, so its dedup guarantees get property coverage: however the
// provider slices a history into pages, and however often ingestion
// reruns, each transaction lands once and derived posts only come from
// self-originated transactions.

func pagesFromItems(items []types.TxItem, pageSize int) []*types.HistoryPage {
	if pageSize < 1 {
		pageSize = 1
	}
	var pages []*types.HistoryPage
	for start := 0; start < len(items); start += pageSize {
		end := start + pageSize
		if end > len(items) {
			end = len(items)
		}
		pages = append(pages, &types.HistoryPage{
			Items:   items[start:end],
			HasMore: end < len(items),
		})
	}
	return pages
}

func TestIngestProperties(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	// hash index + outbound flag per item; hashes repeat to exercise
	// provider overlap between runs
	genItems := gen.SliceOf(gopter.CombineGens(
		gen.IntRange(0, 15),
		gen.Bool(),
	).Map(func(values []interface{}) types.TxItem {
		hash := fmt.Sprintf("0x%04x", values[0].(int))
		if values[1].(bool) {
			return txItem(hash, walletA, walletB, now)
		}
		return txItem(hash, walletB, walletA, now)
	}))

	properties := gopter.NewProperties(nil)

	properties.Property("repeat runs never duplicate transactions or posts", prop.ForAll(
		func(items []types.TxItem, pageSize int, runs int) bool {
			provider := &fakeProvider{pages: pagesFromItems(items, pageSize), failPage: -1}
			txs := newFakeTxStore()
			posts := newFakePostStore()
			engine := NewEngine(provider, txs, posts, testLogger())

			distinct := make(map[string]bool)
			outbound := make(map[string]bool)
			for _, item := range items {
				distinct[item.TxHash] = true
				// first occurrence of a hash decides its direction
				if _, seen := outbound[item.TxHash]; !seen {
					outbound[item.TxHash] = item.FromAddress == walletA
				}
			}
			wantPosts := 0
			for _, out := range outbound {
				if out {
					wantPosts++
				}
			}

			for i := 0; i < runs; i++ {
				if _, err := engine.IngestAddress(context.Background(), walletA, 0); err != nil {
					return false
				}
			}

			return len(txs.byHash) == len(distinct) && len(posts.posts) == wantPosts
		},
		genItems,
		gen.IntRange(1, 5),
		gen.IntRange(1, 3),
	))

	properties.Property("ingesting as the counterparty derives no posts for inbound transfers", prop.ForAll(
		func(count int) bool {
			items := make([]types.TxItem, count)
			for i := range items {
				items[i] = txItem(fmt.Sprintf("0x%04x", i), walletA, walletB, now)
			}
			provider := &fakeProvider{pages: pagesFromItems(items, 3), failPage: -1}
			posts := newFakePostStore()
			engine := NewEngine(provider, newFakeTxStore(), posts, testLogger())

			if _, err := engine.IngestAddress(context.Background(), walletB, 0); err != nil {
				return false
			}
			return len(posts.posts) == 0
		},
		gen.IntRange(0, 20),
	))

	properties.TestingRun(t)
}
