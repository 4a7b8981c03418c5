package models

import (
	"time"

	"github.com/wallet-feed/internal/types"
)

// Transaction represents an on-chain transaction persisted by the ingestion
// engine. Identity is (chain_id, tx_hash); rows are append-only and never
// mutated after creation.
type Transaction struct {
	ID            int64     `json:"id"`
	ChainID       int64     `json:"chain_id"`
	TxHash        string    `json:"tx_hash"`
	BlockSignedAt time.Time `json:"block_signed_at"`
	TxOffset      int       `json:"tx_offset"`
	Successful    bool      `json:"successful"`
	FromAddress   string    `json:"from_address"`
	ToAddress     string    `json:"to_address"`
	Value         string    `json:"value"`

	ERC20Transfers  []ERC20Transfer  `json:"erc20_transfers"`
	ERC721Transfers []ERC721Transfer `json:"erc721_transfers"`
}

// ERC20Transfer is a fungible token movement belonging to one transaction.
// Cascade-deleted with its parent.
type ERC20Transfer struct {
	ID              int64  `json:"-"`
	TxID            int64  `json:"-"`
	ContractAddress string `json:"contract_address"`
	ContractName    string `json:"contract_name"`
	ContractTicker  string `json:"contract_ticker"`
	LogoURL         string `json:"logo_url"`
	FromAddress     string `json:"from_address"`
	ToAddress       string `json:"to_address"`
	Amount          string `json:"amount"`
	Decimals        int    `json:"decimals"`
}

// ERC721Transfer is an NFT movement belonging to one transaction.
// Cascade-deleted with its parent.
type ERC721Transfer struct {
	ID              int64  `json:"-"`
	TxID            int64  `json:"-"`
	ContractAddress string `json:"contract_address"`
	ContractName    string `json:"contract_name"`
	ContractTicker  string `json:"contract_ticker"`
	LogoURL         string `json:"logo_url"`
	FromAddress     string `json:"from_address"`
	ToAddress       string `json:"to_address"`
	TokenID         string `json:"token_id"`
}

// FromTxItem converts a provider history item into a Transaction with its
// transfer line items attached.
func FromTxItem(item types.TxItem) *Transaction {
	tx := &Transaction{
		ChainID:       item.ChainID,
		TxHash:        item.TxHash,
		BlockSignedAt: item.BlockSignedAt.UTC(),
		TxOffset:      item.TxOffset,
		Successful:    item.Successful,
		FromAddress:   item.FromAddress,
		ToAddress:     item.ToAddress,
		Value:         item.Value,
	}

	for _, t := range item.ERC20 {
		tx.ERC20Transfers = append(tx.ERC20Transfers, ERC20Transfer{
			ContractAddress: t.ContractAddress,
			ContractName:    t.ContractName,
			ContractTicker:  t.ContractTicker,
			LogoURL:         t.LogoURL,
			FromAddress:     t.FromAddress,
			ToAddress:       t.ToAddress,
			Amount:          t.Amount,
			Decimals:        t.Decimals,
		})
	}
	for _, t := range item.ERC721 {
		tx.ERC721Transfers = append(tx.ERC721Transfers, ERC721Transfer{
			ContractAddress: t.ContractAddress,
			ContractName:    t.ContractName,
			ContractTicker:  t.ContractTicker,
			LogoURL:         t.LogoURL,
			FromAddress:     t.FromAddress,
			ToAddress:       t.ToAddress,
			TokenID:         t.TokenID,
		})
	}

	return tx
}
