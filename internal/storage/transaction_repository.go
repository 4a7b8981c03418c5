package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	apperrors "github.com/wallet-feed/internal/errors"
	"github.com/wallet-feed/internal/models"
)

// TransactionRepository handles on-chain transaction persistence
type TransactionRepository struct {
	db *PostgresDB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *PostgresDB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Upsert inserts a transaction keyed by (chain_id, tx_hash). When the row
// already exists nothing is written and the existing id is returned.
// Transfer line items are attached only on first insert, inside one
// database transaction, so a row never exists with half its transfers.
// Returns (id, created, error).
func (r *TransactionRepository) Upsert(ctx context.Context, tx *models.Transaction) (int64, bool, error) {
	dbTx, err := r.db.Pool().Begin(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback(ctx) // nolint:errcheck // no-op after commit

	insertQuery := `
		INSERT INTO transactions (chain_id, tx_hash, block_signed_at, tx_offset,
			successful, from_address, to_address, value)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (chain_id, tx_hash) DO NOTHING
		RETURNING id
	`

	var id int64
	err = dbTx.QueryRow(ctx, insertQuery,
		tx.ChainID,
		tx.TxHash,
		tx.BlockSignedAt,
		tx.TxOffset,
		tx.Successful,
		tx.FromAddress,
		tx.ToAddress,
		tx.Value,
	).Scan(&id)

	if errors.Is(err, pgx.ErrNoRows) {
		// Row already existed; fetch its id and skip transfer inserts.
		selectQuery := `SELECT id FROM transactions WHERE chain_id = $1 AND tx_hash = $2`
		if err := dbTx.QueryRow(ctx, selectQuery, tx.ChainID, tx.TxHash).Scan(&id); err != nil {
			return 0, false, fmt.Errorf("failed to look up existing transaction: %w", err)
		}
		if err := dbTx.Commit(ctx); err != nil {
			return 0, false, fmt.Errorf("failed to commit: %w", err)
		}
		tx.ID = id
		return id, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to insert transaction: %w", err)
	}

	for _, t := range tx.ERC20Transfers {
		transferQuery := `
			INSERT INTO erc20_transfers (tx_id, contract_address, contract_name,
				contract_ticker, logo_url, from_address, to_address, amount, decimals)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
		_, err := dbTx.Exec(ctx, transferQuery,
			id, t.ContractAddress, t.ContractName, t.ContractTicker,
			t.LogoURL, t.FromAddress, t.ToAddress, t.Amount, t.Decimals,
		)
		if err != nil {
			return 0, false, fmt.Errorf("failed to insert erc20 transfer: %w", err)
		}
	}

	for _, t := range tx.ERC721Transfers {
		transferQuery := `
			INSERT INTO erc721_transfers (tx_id, contract_address, contract_name,
				contract_ticker, logo_url, from_address, to_address, token_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		_, err := dbTx.Exec(ctx, transferQuery,
			id, t.ContractAddress, t.ContractName, t.ContractTicker,
			t.LogoURL, t.FromAddress, t.ToAddress, t.TokenID,
		)
		if err != nil {
			return 0, false, fmt.Errorf("failed to insert erc721 transfer: %w", err)
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return 0, false, fmt.Errorf("failed to commit: %w", err)
	}

	tx.ID = id
	return id, true, nil
}

// GetByID retrieves a transaction with its transfer line items
func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*models.Transaction, error) {
	query := `
		SELECT id, chain_id, tx_hash, block_signed_at, tx_offset,
			successful, from_address, to_address, value
		FROM transactions
		WHERE id = $1
	`

	var tx models.Transaction
	err := r.db.Pool().QueryRow(ctx, query, id).Scan(
		&tx.ID,
		&tx.ChainID,
		&tx.TxHash,
		&tx.BlockSignedAt,
		&tx.TxOffset,
		&tx.Successful,
		&tx.FromAddress,
		&tx.ToAddress,
		&tx.Value,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("transaction", fmt.Sprintf("%d", id))
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	if err := r.loadTransfers(ctx, &tx); err != nil {
		return nil, err
	}

	return &tx, nil
}

// GetByHash retrieves a transaction by its chain identity
func (r *TransactionRepository) GetByHash(ctx context.Context, chainID int64, txHash string) (*models.Transaction, error) {
	query := `SELECT id FROM transactions WHERE chain_id = $1 AND tx_hash = $2`

	var id int64
	err := r.db.Pool().QueryRow(ctx, query, chainID, txHash).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("transaction", txHash)
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return r.GetByID(ctx, id)
}

// Count returns the total number of stored transactions
func (r *TransactionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.Pool().QueryRow(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

func (r *TransactionRepository) loadTransfers(ctx context.Context, tx *models.Transaction) error {
	erc20Query := `
		SELECT id, tx_id, contract_address, contract_name, contract_ticker,
			logo_url, from_address, to_address, amount, decimals
		FROM erc20_transfers
		WHERE tx_id = $1
		ORDER BY id
	`

	rows, err := r.db.Pool().Query(ctx, erc20Query, tx.ID)
	if err != nil {
		return fmt.Errorf("failed to load erc20 transfers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t models.ERC20Transfer
		err := rows.Scan(&t.ID, &t.TxID, &t.ContractAddress, &t.ContractName,
			&t.ContractTicker, &t.LogoURL, &t.FromAddress, &t.ToAddress,
			&t.Amount, &t.Decimals)
		if err != nil {
			return fmt.Errorf("failed to scan erc20 transfer: %w", err)
		}
		tx.ERC20Transfers = append(tx.ERC20Transfers, t)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating erc20 transfers: %w", err)
	}

	erc721Query := `
		SELECT id, tx_id, contract_address, contract_name, contract_ticker,
			logo_url, from_address, to_address, token_id
		FROM erc721_transfers
		WHERE tx_id = $1
		ORDER BY id
	`

	nftRows, err := r.db.Pool().Query(ctx, erc721Query, tx.ID)
	if err != nil {
		return fmt.Errorf("failed to load erc721 transfers: %w", err)
	}
	defer nftRows.Close()

	for nftRows.Next() {
		var t models.ERC721Transfer
		err := nftRows.Scan(&t.ID, &t.TxID, &t.ContractAddress, &t.ContractName,
			&t.ContractTicker, &t.LogoURL, &t.FromAddress, &t.ToAddress,
			&t.TokenID)
		if err != nil {
			return fmt.Errorf("failed to scan erc721 transfer: %w", err)
		}
		tx.ERC721Transfers = append(tx.ERC721Transfers, t)
	}
	if err := nftRows.Err(); err != nil {
		return fmt.Errorf("error iterating erc721 transfers: %w", err)
	}

	return nil
}
