package models

import (
	"time"

	"github.com/wallet-feed/internal/types"
)

// IngestJob tracks one ingestion run for one wallet address.
type IngestJob struct {
	JobID        string                `json:"jobId"`
	Address      string                `json:"address"`
	Status       types.IngestJobStatus `json:"status"`
	TxSeen       int                   `json:"txSeen"`
	TxCreated    int                   `json:"txCreated"`
	PostsCreated int                   `json:"postsCreated"`
	Error        *string               `json:"error,omitempty"`
	RetryCount   int                   `json:"retryCount"`
	CreatedAt    time.Time             `json:"createdAt"`
	StartedAt    *time.Time            `json:"startedAt,omitempty"`
	CompletedAt  *time.Time            `json:"completedAt,omitempty"`
}
