package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/wallet-feed/internal/errors"
	"github.com/wallet-feed/internal/logging"
	"github.com/wallet-feed/internal/models"
)

const wallet = "0x89205A3A3b2A69De6Dbf7f01ED13B2108B2c43e7"

type fakeUsers struct {
	known map[string]bool
}

func (f *fakeUsers) GetOrCreate(ctx context.Context, address string) (*models.User, bool, error) {
	if f.known == nil {
		f.known = make(map[string]bool)
	}
	created := !f.known[address]
	f.known[address] = true
	return &models.User{Address: address}, created, nil
}

type fakeIngest struct {
	enqueued []string
}

func (f *fakeIngest) Enqueue(ctx context.Context, address string) (*models.IngestJob, error) {
	f.enqueued = append(f.enqueued, address)
	return &models.IngestJob{JobID: "job", Address: address}, nil
}

func newTestAuthenticator() (*Authenticator, *fakeUsers, *fakeIngest) {
	users := &fakeUsers{}
	ingest := &fakeIngest{}
	logger := logging.NewLogger(logging.LevelError, logging.FormatText)
	return NewAuthenticator(users, ingest, logger), users, ingest
}

func TestAuthenticateProvisionsAndQueuesIngestion(t *testing.T) {
	auth, _, ingest := newTestAuthenticator()

	// Lowercase input comes back checksummed.
	address, err := auth.Authenticate(context.Background(), "0x89205a3a3b2a69de6dbf7f01ed13b2108b2c43e7")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if address != wallet {
		t.Errorf("address = %s, want checksummed %s", address, wallet)
	}
	if len(ingest.enqueued) != 1 {
		t.Fatalf("enqueued = %d, want 1 first-sight ingestion", len(ingest.enqueued))
	}

	// Second authentication of the same wallet does not re-trigger.
	if _, err := auth.Authenticate(context.Background(), wallet); err != nil {
		t.Fatalf("second Authenticate failed: %v", err)
	}
	if len(ingest.enqueued) != 1 {
		t.Errorf("enqueued = %d after repeat auth, want 1", len(ingest.enqueued))
	}
}

func TestAuthenticateRejectsBadHeader(t *testing.T) {
	auth, _, _ := newTestAuthenticator()

	for _, value := range []string{"", "nonsense", "0x123"} {
		_, err := auth.Authenticate(context.Background(), value)
		if err == nil {
			t.Errorf("Authenticate(%q) should fail", value)
			continue
		}
		if apperrors.GetHTTPStatusCode(err) != http.StatusUnauthorized {
			t.Errorf("Authenticate(%q) status = %d, want 401", value, apperrors.GetHTTPStatusCode(err))
		}
	}
}

func TestMiddleware(t *testing.T) {
	auth, _, _ := newTestAuthenticator()

	var gotWallet string
	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotWallet = WalletFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderWalletAddress, wallet)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotWallet != wallet {
		t.Errorf("wallet in context = %q, want %q", gotWallet, wallet)
	}

	// Missing header is rejected before the handler runs.
	gotWallet = ""
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if gotWallet != "" {
		t.Error("handler should not run without authentication")
	}
}

func TestOptionalMiddleware(t *testing.T) {
	auth, _, _ := newTestAuthenticator()

	var called bool
	var gotWallet string
	handler := auth.OptionalMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		gotWallet = WalletFromContext(r.Context())
	}))

	// Anonymous request passes through.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called || gotWallet != "" {
		t.Errorf("anonymous request: called=%t wallet=%q", called, gotWallet)
	}

	// Malformed header is still rejected.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderWalletAddress, "garbage")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("malformed header status = %d, want 401", rec.Code)
	}
}
