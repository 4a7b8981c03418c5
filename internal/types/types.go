// Package types provides common type definitions for the wallet feed system.
package types

import (
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// EventKind discriminates the typed notification events
type EventKind string

const (
	// EventCommentOnPost is raised when someone comments on a user's post
	EventCommentOnPost EventKind = "comment_on_post"
	// EventMentionedInPost is raised when a user is tagged in a post
	EventMentionedInPost EventKind = "mentioned_in_post"
	// EventMentionedInComment is raised when a user is tagged in a comment
	EventMentionedInComment EventKind = "mentioned_in_comment"
	// EventFollowed is raised when a user gains a follower
	EventFollowed EventKind = "followed"
	// EventLikedPost is raised when someone likes a user's post
	EventLikedPost EventKind = "liked_post"
	// EventLikedComment is raised when someone likes a user's comment
	EventLikedComment EventKind = "liked_comment"
	// EventRepost is raised when someone reposts a user's post
	EventRepost EventKind = "repost"
)

// IngestJobStatus represents the status of an ingestion job
type IngestJobStatus string

const (
	// IngestStatusQueued represents a job waiting to be processed
	IngestStatusQueued IngestJobStatus = "queued"
	// IngestStatusInProgress represents a job currently being processed
	IngestStatusInProgress IngestJobStatus = "in_progress"
	// IngestStatusCompleted represents a successfully completed job
	IngestStatusCompleted IngestJobStatus = "completed"
	// IngestStatusFailed represents a failed job
	IngestStatusFailed IngestJobStatus = "failed"
)

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// IsValidAddress reports whether s is a syntactically valid EVM address.
func IsValidAddress(s string) bool {
	return common.IsHexAddress(s)
}

// ChecksumAddress normalizes an address to its EIP-55 checksummed form.
// The input must already be a valid hex address (see IsValidAddress).
func ChecksumAddress(s string) string {
	return common.HexToAddress(s).Hex()
}

// SameAddress compares two addresses ignoring checksum casing.
func SameAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}

// HistoryPage is one page of a wallet's transaction history as returned by
// the external indexer, plus the provider's hint for when fresh data is
// expected next.
type HistoryPage struct {
	Items        []TxItem  `json:"items"`
	HasMore      bool      `json:"has_more"`
	NextUpdateAt time.Time `json:"next_update_at"`
}

// TxItem is one transaction in a history page, in provider-normalized form.
type TxItem struct {
	ChainID       int64                `json:"chain_id"`
	TxHash        string               `json:"tx_hash"`
	BlockSignedAt time.Time            `json:"block_signed_at"`
	TxOffset      int                  `json:"tx_offset"`
	Successful    bool                 `json:"successful"`
	FromAddress   string               `json:"from_address"`
	ToAddress     string               `json:"to_address"`
	Value         string               `json:"value"`
	ERC20         []ERC20TransferItem  `json:"erc20_transfers,omitempty"`
	ERC721        []ERC721TransferItem `json:"erc721_transfers,omitempty"`
}

// ERC20TransferItem is a fungible token transfer nested in a TxItem.
type ERC20TransferItem struct {
	ContractAddress string `json:"contract_address"`
	ContractName    string `json:"contract_name"`
	ContractTicker  string `json:"contract_ticker"`
	LogoURL         string `json:"logo_url"`
	FromAddress     string `json:"from_address"`
	ToAddress       string `json:"to_address"`
	Amount          string `json:"amount"`
	Decimals        int    `json:"decimals"`
}

// ERC721TransferItem is an NFT transfer nested in a TxItem.
type ERC721TransferItem struct {
	ContractAddress string `json:"contract_address"`
	ContractName    string `json:"contract_name"`
	ContractTicker  string `json:"contract_ticker"`
	LogoURL         string `json:"logo_url"`
	FromAddress     string `json:"from_address"`
	ToAddress       string `json:"to_address"`
	TokenID         string `json:"token_id"`
}
