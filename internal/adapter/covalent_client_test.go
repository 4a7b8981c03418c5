package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/wallet-feed/internal/errors"
)

const testAddress = "0x89205A3A3b2A69De6Dbf7f01ED13B2108B2c43e7"

func historyPayload(hasMore bool) string {
	return fmt.Sprintf(`{
		"data": {
			"items": [
				{
					"tx_hash": "0xabc123",
					"block_signed_at": "2022-01-15T10:30:00Z",
					"tx_offset": 5,
					"successful": true,
					"from_address": "0x89205a3a3b2a69de6dbf7f01ed13b2108b2c43e7",
					"to_address": "0x8a90cab2b38dba80c64b7734e58ee1db38b8992e",
					"value": "1000000000000000000",
					"erc20_transfers": [
						{
							"contract_address": "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
							"contract_name": "USD Coin",
							"contract_ticker_symbol": "USDC",
							"from_address": "0x89205a3a3b2a69de6dbf7f01ed13b2108b2c43e7",
							"to_address": "0x8a90cab2b38dba80c64b7734e58ee1db38b8992e",
							"amount": "250000000",
							"contract_decimals": 6
						}
					]
				}
			],
			"pagination": {"has_more": %t},
			"next_update_at": "2022-01-15T10:35:00Z"
		},
		"error": false
	}`, hasMore)
}

func TestFetchPage(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, historyPayload(true))
	}))
	defer server.Close()

	client := NewCovalentClient(server.URL, "test-key", 1, 100, 5*time.Second)

	page, err := client.FetchPage(context.Background(), testAddress, 0)
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}

	wantPath := "/1/address/" + testAddress + "/transactions_v2/"
	if gotPath != wantPath {
		t.Errorf("request path = %q, want %q", gotPath, wantPath)
	}
	if gotQuery != "page-number=0&key=test-key" {
		t.Errorf("request query = %q", gotQuery)
	}

	if !page.HasMore {
		t.Error("expected HasMore = true")
	}
	if page.NextUpdateAt.IsZero() {
		t.Error("expected NextUpdateAt to be set")
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(page.Items))
	}

	item := page.Items[0]
	if item.TxHash != "0xabc123" {
		t.Errorf("TxHash = %q", item.TxHash)
	}
	if item.ChainID != 1 {
		t.Errorf("ChainID = %d, want 1", item.ChainID)
	}
	// Addresses come back normalized to checksum form.
	if item.FromAddress != testAddress {
		t.Errorf("FromAddress = %q, want checksummed %q", item.FromAddress, testAddress)
	}
	if len(item.ERC20) != 1 {
		t.Fatalf("expected 1 erc20 transfer, got %d", len(item.ERC20))
	}
	if item.ERC20[0].ContractTicker != "USDC" {
		t.Errorf("ContractTicker = %q", item.ERC20[0].ContractTicker)
	}
	if item.ERC20[0].Decimals != 6 {
		t.Errorf("Decimals = %d", item.ERC20[0].Decimals)
	}
}

func TestFetchPageLastPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, historyPayload(false))
	}))
	defer server.Close()

	client := NewCovalentClient(server.URL, "test-key", 1, 100, 5*time.Second)

	page, err := client.FetchPage(context.Background(), testAddress, 3)
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}
	if page.HasMore {
		t.Error("expected HasMore = false on final page")
	}
}

func TestFetchPageProviderErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "http 500",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "http 429",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, "not json at all")
			},
		},
		{
			name: "error envelope",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"error": true, "error_message": "backend unavailable"}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewCovalentClient(server.URL, "test-key", 1, 100, 5*time.Second)

			_, err := client.FetchPage(context.Background(), testAddress, 0)
			if err == nil {
				t.Fatal("expected error")
			}
			var catErr *apperrors.CategorizedError
			if !errors.As(err, &catErr) {
				t.Fatalf("expected categorized error, got %T", err)
			}
			if catErr.Code != "PROVIDER_ERROR" {
				t.Errorf("error code = %q, want PROVIDER_ERROR", catErr.Code)
			}
		})
	}
}

func TestFetchPageNoRetry(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewCovalentClient(server.URL, "test-key", 1, 100, 5*time.Second)

	_, err := client.FetchPage(context.Background(), testAddress, 0)
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 upstream call, got %d", calls)
	}
}

func TestFetchPageRejectsBadInput(t *testing.T) {
	client := NewCovalentClient("http://unused", "test-key", 1, 100, 5*time.Second)

	if _, err := client.FetchPage(context.Background(), "not-an-address", 0); err == nil {
		t.Error("expected error for invalid address")
	}
	if _, err := client.FetchPage(context.Background(), testAddress, -1); err == nil {
		t.Error("expected error for negative page")
	}
}
