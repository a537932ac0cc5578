// Package api exposes the clearinghouse wire protocol as typed
// operations. It hides envelope construction and response parsing from
// callers and carries no business logic.
package api

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/denizsoft/go-efatura/efatura/config"
	"github.com/denizsoft/go-efatura/efatura/model"
	"github.com/denizsoft/go-efatura/efatura/soap"
)

var logger = log.WithField("component", "efatura.api")

// BatchLimit caps one status batch query; callers must chunk.
const BatchLimit = 20

// Client is one provider integration. Implementations are selected by
// tenant configuration; callers stay provider agnostic.
type Client interface {
	// Login opens a session. Failures surface as *model.AuthError.
	Login(ctx context.Context) (string, error)

	// Logout closes a session. Best effort: failures are logged and
	// never propagated, a leaked session must not block the
	// surrounding business operation.
	Logout(ctx context.Context, session string)

	// SubmitDocument transfers one packaged document.
	SubmitDocument(ctx context.Context, session, fileName string, data []byte, contentHash string, meta model.SubmitMetadata) (*model.SubmitResult, error)

	// QueryStatus queries the processing state of one transfer.
	QueryStatus(ctx context.Context, session, transferID string) (*model.TransferStatusResult, error)

	// QueryStatusBatch queries up to BatchLimit transfers at once.
	QueryStatusBatch(ctx context.Context, session string, transferIDs []string) ([]model.TransferStatusResult, error)

	// QueryDocument queries document level state by document
	// identifier (ETTN).
	QueryDocument(ctx context.Context, session, documentID string) (*model.DocumentStatusResult, error)

	// ListDocuments lists document summaries in a date range.
	ListDocuments(ctx context.Context, session string, rng model.DateRange, dir model.ListDirection) ([]model.DocumentSummary, error)

	// CancelDocument cancels a previously transmitted document by its
	// legal number. Only the archive regime permits cancellation.
	CancelDocument(ctx context.Context, session, legalNumber string, at time.Time) error

	// Name identifies the provider for logs and errors.
	Name() string
}

// ForTenant builds the provider client a tenant is configured for,
// bound to the endpoint of the given document profile.
func ForTenant(t config.Tenant, profile model.DocumentProfile) Client {
	endpoint := t.EndpointFor(profile)
	switch t.Provider {
	case config.ProviderELogo:
		return NewELogo(endpoint, t.Username, t.Password, t.CallTimeout())
	default:
		return NewVeriban(endpoint, t.Username, t.Password, t.CallTimeout())
	}
}

// WithSession runs fn inside a provider session and guarantees exactly
// one logout per successful login on every exit path, including panic.
func WithSession(ctx context.Context, c Client, fn func(session string) error) error {
	session, err := c.Login(ctx)
	if err != nil {
		return err
	}
	defer c.Logout(ctx, session)
	return fn(session)
}

// newSoap is swapped out by tests.
var newSoap = soap.New
