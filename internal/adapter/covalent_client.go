package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/wallet-feed/internal/errors"
	"github.com/wallet-feed/internal/types"
)

// CovalentClient fetches paginated transaction history from the Covalent API.
// One outbound request per FetchPage call. The client never retries; callers
// decide retry policy based on the categorized error.
type CovalentClient struct {
	apiKey  string
	baseURL string
	chainID int64
	client  *http.Client
	limiter *rate.Limiter
}

// covalentItem is one transaction entry in the provider payload.
type covalentItem struct {
	TxHash        string    `json:"tx_hash"`
	BlockSignedAt time.Time `json:"block_signed_at"`
	TxOffset      int       `json:"tx_offset"`
	Successful    bool      `json:"successful"`
	FromAddress   string    `json:"from_address"`
	ToAddress     string    `json:"to_address"`
	Value         string    `json:"value"`
	Erc20         []struct {
		ContractAddress string `json:"contract_address"`
		ContractName    string `json:"contract_name"`
		ContractTicker  string `json:"contract_ticker_symbol"`
		LogoURL         string `json:"logo_url"`
		From            string `json:"from_address"`
		To              string `json:"to_address"`
		Amount          string `json:"amount"`
		Decimals        int    `json:"contract_decimals"`
	} `json:"erc20_transfers"`
	Erc721 []struct {
		ContractAddress string `json:"contract_address"`
		ContractName    string `json:"contract_name"`
		ContractTicker  string `json:"contract_ticker_symbol"`
		LogoURL         string `json:"logo_url"`
		From            string `json:"from_address"`
		To              string `json:"to_address"`
		TokenID         string `json:"token_id"`
	} `json:"nft_transfers"`
}

// covalentResponse is the provider payload envelope.
type covalentResponse struct {
	Data struct {
		Items      []covalentItem `json:"items"`
		Pagination struct {
			HasMore bool `json:"has_more"`
		} `json:"pagination"`
		NextUpdateAt time.Time `json:"next_update_at"`
	} `json:"data"`
	Error        bool   `json:"error"`
	ErrorMessage string `json:"error_message"`
}

// NewCovalentClient creates a history client with a shared request throttle.
func NewCovalentClient(baseURL, apiKey string, chainID int64, requestsPerSecond float64, timeout time.Duration) *CovalentClient {
	burst := int(requestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return &CovalentClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		chainID: chainID,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// FetchPage fetches one page of transaction history for an address.
// Pages start at 0. Any upstream failure is returned as a provider error.
func (c *CovalentClient) FetchPage(ctx context.Context, address string, page int) (*types.HistoryPage, error) {
	if !types.IsValidAddress(address) {
		return nil, errors.NewInvalidAddressError(address)
	}
	if page < 0 {
		return nil, errors.NewInvalidParameterError("page", "must be non-negative")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.NewProviderError("request throttle interrupted", err)
	}

	url := fmt.Sprintf("%s/%d/address/%s/transactions_v2/?page-number=%d&key=%s",
		c.baseURL, c.chainID, address, page, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewProviderError("failed to build request", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.NewProviderError("request failed", err)
	}
	defer resp.Body.Close() // nolint:errcheck // cleanup in defer

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewProviderError("failed to read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewProviderError(
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var payload covalentResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.NewProviderError("malformed response body", err)
	}
	if payload.Error {
		return nil, errors.NewProviderError(payload.ErrorMessage, nil)
	}

	out := &types.HistoryPage{
		Items:        make([]types.TxItem, 0, len(payload.Data.Items)),
		HasMore:      payload.Data.Pagination.HasMore,
		NextUpdateAt: payload.Data.NextUpdateAt,
	}
	for _, item := range payload.Data.Items {
		out.Items = append(out.Items, c.convertItem(item))
	}
	return out, nil
}

// convertItem normalizes one provider entry. Addresses are checksummed so
// every stored address has a single canonical form.
func (c *CovalentClient) convertItem(item covalentItem) types.TxItem {
	tx := types.TxItem{
		ChainID:       c.chainID,
		TxHash:        item.TxHash,
		BlockSignedAt: item.BlockSignedAt,
		TxOffset:      item.TxOffset,
		Successful:    item.Successful,
		FromAddress:   types.ChecksumAddress(item.FromAddress),
		ToAddress:     checksumOrEmpty(item.ToAddress),
		Value:         item.Value,
	}

	for _, t := range item.Erc20 {
		tx.ERC20 = append(tx.ERC20, types.ERC20TransferItem{
			ContractAddress: types.ChecksumAddress(t.ContractAddress),
			ContractName:    t.ContractName,
			ContractTicker:  t.ContractTicker,
			LogoURL:         t.LogoURL,
			FromAddress:     types.ChecksumAddress(t.From),
			ToAddress:       checksumOrEmpty(t.To),
			Amount:          t.Amount,
			Decimals:        t.Decimals,
		})
	}
	for _, t := range item.Erc721 {
		tx.ERC721 = append(tx.ERC721, types.ERC721TransferItem{
			ContractAddress: types.ChecksumAddress(t.ContractAddress),
			ContractName:    t.ContractName,
			ContractTicker:  t.ContractTicker,
			LogoURL:         t.LogoURL,
			FromAddress:     types.ChecksumAddress(t.From),
			ToAddress:       checksumOrEmpty(t.To),
			TokenID:         t.TokenID,
		})
	}
	return tx
}

// checksumOrEmpty handles contract creation entries where the recipient
// address is empty.
func checksumOrEmpty(s string) string {
	if s == "" {
		return ""
	}
	return types.ChecksumAddress(s)
}
