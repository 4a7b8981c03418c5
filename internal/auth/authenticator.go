// Package auth resolves the calling wallet from the request and
// provisions users on first sight.
package auth

import (
	"context"
	"net/http"

	apperrors "github.com/wallet-feed/internal/errors"
	"github.com/wallet-feed/internal/logging"
	"github.com/wallet-feed/internal/models"
	"github.com/wallet-feed/internal/types"
)

// HeaderWalletAddress carries the caller's wallet address. Signature
// verification happens at the edge; by the time a request reaches this
// service the header is trusted.
const HeaderWalletAddress = "X-Wallet-Address"

type contextKey string

const walletKey contextKey = "wallet"

// UserProvisioner creates users on first sight
type UserProvisioner interface {
	GetOrCreate(ctx context.Context, address string) (*models.User, bool, error)
}

// IngestTrigger enqueues an initial history ingestion for a new wallet
type IngestTrigger interface {
	Enqueue(ctx context.Context, address string) (*models.IngestJob, error)
}

// Authenticator turns the wallet header into a provisioned user. A
// wallet seen for the first time gets a user row and a queued ingestion
// of its history.
type Authenticator struct {
	users  UserProvisioner
	ingest IngestTrigger
	logger *logging.Logger
}

// NewAuthenticator creates an authenticator
func NewAuthenticator(users UserProvisioner, ingest IngestTrigger, logger *logging.Logger) *Authenticator {
	return &Authenticator{
		users:  users,
		ingest: ingest,
		logger: logger,
	}
}

// Authenticate validates the header value and returns the checksummed
// wallet address, provisioning the user as a side effect.
func (a *Authenticator) Authenticate(ctx context.Context, headerValue string) (string, error) {
	if headerValue == "" {
		return "", apperrors.NewUnauthorizedError("missing wallet address header")
	}
	if !types.IsValidAddress(headerValue) {
		return "", apperrors.NewUnauthorizedError("malformed wallet address")
	}

	address := types.ChecksumAddress(headerValue)

	_, created, err := a.users.GetOrCreate(ctx, address)
	if err != nil {
		return "", apperrors.NewInternalError("failed to provision user", err)
	}

	if created && a.ingest != nil {
		if _, err := a.ingest.Enqueue(ctx, address); err != nil {
			// First ingestion is best effort; the scheduler's next
			// refresh run covers the wallet anyway.
			a.logger.WithError(err).WithField("address", address).Warn("Failed to enqueue first ingestion")
		} else {
			a.logger.WithField("address", address).Info("New wallet provisioned, history ingestion queued")
		}
	}

	return address, nil
}

// Middleware authenticates every request and stores the wallet in the
// request context. Requests without a valid header are rejected.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		address, err := a.Authenticate(r.Context(), r.Header.Get(HeaderWalletAddress))
		if err != nil {
			http.Error(w, err.Error(), apperrors.GetHTTPStatusCode(err))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithWallet(r.Context(), address)))
	})
}

// OptionalMiddleware authenticates when the header is present and passes
// the request through anonymously otherwise. Malformed headers are still
// rejected.
func (a *Authenticator) OptionalMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headerValue := r.Header.Get(HeaderWalletAddress)
		if headerValue == "" {
			next.ServeHTTP(w, r)
			return
		}

		address, err := a.Authenticate(r.Context(), headerValue)
		if err != nil {
			http.Error(w, err.Error(), apperrors.GetHTTPStatusCode(err))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithWallet(r.Context(), address)))
	})
}

// WithWallet stores the authenticated wallet address in the context
func WithWallet(ctx context.Context, address string) context.Context {
	return context.WithValue(ctx, walletKey, address)
}

// WalletFromContext returns the authenticated wallet address, or empty
// when the request is anonymous.
func WalletFromContext(ctx context.Context) string {
	if address, ok := ctx.Value(walletKey).(string); ok {
		return address
	}
	return ""
}
