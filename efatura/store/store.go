package store

import (
	"context"
	"errors"
	"time"

	"github.com/denizsoft/go-efatura/efatura/config"
	"github.com/denizsoft/go-efatura/efatura/model"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicateNumber is the storage-level uniqueness violation for a
	// legal number. Callers recompute the number once and retry.
	ErrDuplicateNumber = errors.New("store: legal number already taken")
)

// InvoiceStore holds the immutable invoice snapshots and owns the legal
// number uniqueness constraint.
type InvoiceStore interface {
	// Snapshot returns the invoice by its internal id.
	Snapshot(ctx context.Context, invoiceID string) (*model.InvoiceSnapshot, error)

	// SaveLegalNumber assigns the number to the invoice. Returns
	// ErrDuplicateNumber when the same number is already held by
	// another invoice of the same profile.
	SaveLegalNumber(ctx context.Context, invoiceID string, n model.LegalNumber, profile model.DocumentProfile) error

	// MaxSequence returns the highest sequence already assigned for the
	// series+year prefix within the profile, 0 when none.
	MaxSequence(ctx context.Context, prefix string, profile model.DocumentProfile) (int64, error)
}

// TransferStore is the per-invoice transfer bookkeeping.
type TransferStore interface {
	// Record returns the transfer record for the invoice, or a zero
	// record with StatusNone when the invoice was never submitted.
	Record(ctx context.Context, invoiceID string) (*model.TransferRecord, error)

	// Save persists the record, last write wins.
	Save(ctx context.Context, rec *model.TransferRecord) error

	// Pending returns up to limit non-terminal records with a transfer
	// id, oldest LastCheckedAt first.
	Pending(ctx context.Context, limit int) ([]*model.TransferRecord, error)
}

// LedgerEntry is one row of the provider-agnostic outgoing ledger.
type LedgerEntry struct {
	DocumentID  string // ETTN
	LegalNumber string
	Profile     model.DocumentProfile
	Provider    string
	TransferID  string
	SubmittedAt time.Time
}

// LedgerStore keeps the outgoing ledger keyed by document id.
type LedgerStore interface {
	UpsertOutgoing(ctx context.Context, e LedgerEntry) error
	Outgoing(ctx context.Context, documentID string) (*LedgerEntry, error)
}

// CredentialStore resolves the active tenant configuration.
type CredentialStore interface {
	TenantConfig(ctx context.Context) (*config.Tenant, error)
}
