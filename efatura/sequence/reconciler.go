// Package sequence assigns collision-free legal numbers. The next
// sequence is max(local, remote)+1 within the series+year prefix, so a
// restore from an older backup cannot reissue a number the provider has
// already seen.
package sequence

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	log "github.com/sirupsen/logrus"

	"github.com/denizsoft/go-efatura/efatura/api"
	"github.com/denizsoft/go-efatura/efatura/config"
	"github.com/denizsoft/go-efatura/efatura/model"
	"github.com/denizsoft/go-efatura/efatura/mutex"
	"github.com/denizsoft/go-efatura/efatura/store"
)

var logger = log.WithField("component", "efatura.sequence")

// remoteScanWindow bounds how far back the remote document list is
// consulted when reconciling the sequence.
const remoteScanWindow = 30 * 24 * time.Hour

// Reconciler computes and persists the next legal number for an
// invoice. Assignment is serialized per series+year prefix.
type Reconciler struct {
	invoices store.InvoiceStore
	tenants  store.CredentialStore
	locks    mutex.KeyedRWMutex[string]

	// forTenant is swapped in tests.
	forTenant func(t config.Tenant, profile model.DocumentProfile) api.Client

	now func() time.Time
}

func NewReconciler(invoices store.InvoiceStore, tenants store.CredentialStore) *Reconciler {
	return &Reconciler{
		invoices:  invoices,
		tenants:   tenants,
		forTenant: api.ForTenant,
		now:       time.Now,
	}
}

// Assign computes the next number for the invoice's series and year,
// persists it, and returns it. On a storage uniqueness violation the
// computation runs once more before giving up.
func (r *Reconciler) Assign(ctx context.Context, inv *model.InvoiceSnapshot) (model.LegalNumber, error) {
	tenant, err := r.tenants.TenantConfig(ctx)
	if err != nil {
		return model.LegalNumber{}, errors.Wrap(err, "load tenant config")
	}

	series := tenant.Series(inv.Profile)
	year := inv.IssueDate.Year()

	prefix := model.LegalNumber{Series: series, Year: year}.Prefix()
	r.locks.Lock(prefix)
	defer r.locks.Unlock(prefix)

	n, err := r.next(ctx, *tenant, inv, series, year, prefix)
	if err != nil {
		return model.LegalNumber{}, err
	}

	err = r.invoices.SaveLegalNumber(ctx, inv.ID, n, inv.Profile)
	if errors.Is(err, store.ErrDuplicateNumber) {
		logger.WithField("number", n.String()).Warn("legal number already taken, recomputing once")
		n, err = r.next(ctx, *tenant, inv, series, year, prefix)
		if err != nil {
			return model.LegalNumber{}, err
		}
		err = r.invoices.SaveLegalNumber(ctx, inv.ID, n, inv.Profile)
	}
	if err != nil {
		return model.LegalNumber{}, errors.Wrap(err, "persist legal number")
	}
	return n, nil
}

func (r *Reconciler) next(ctx context.Context, tenant config.Tenant, inv *model.InvoiceSnapshot, series string, year int, prefix string) (model.LegalNumber, error) {
	local, err := r.invoices.MaxSequence(ctx, prefix, inv.Profile)
	if err != nil {
		return model.LegalNumber{}, errors.Wrap(err, "local max sequence")
	}

	remote := r.remoteMax(ctx, tenant, inv.Profile, prefix)
	if remote > local {
		local = remote
	}
	return model.NewLegalNumber(series, year, local+1)
}

// remoteMax scans the provider's recent outgoing documents for numbers
// in the same prefix. Any failure degrades to local-only assignment.
func (r *Reconciler) remoteMax(ctx context.Context, tenant config.Tenant, profile model.DocumentProfile, prefix string) int64 {
	client := r.forTenant(tenant, profile)

	var max int64
	err := api.WithSession(ctx, client, func(session string) error {
		rng := model.DateRange{Start: r.now().Add(-remoteScanWindow), End: r.now()}
		docs, err := client.ListDocuments(ctx, session, rng, model.DirectionOutgoing)
		if err != nil {
			return err
		}
		for _, doc := range docs {
			number := doc.ProviderNumber
			docProfile := doc.Profile
			if number == "" || docProfile == "" {
				if doc.DocumentID == "" {
					continue
				}
				st, err := client.QueryDocument(ctx, session, doc.DocumentID)
				if err != nil {
					return err
				}
				if number == "" {
					number = st.ProviderNumber
				}
				if docProfile == "" {
					docProfile = st.Profile
				}
			}
			// Only a positive profile match counts. A document whose
			// profile cannot be established must not steer the sequence.
			if docProfile != string(profile) {
				continue
			}
			n, err := model.ParseLegalNumber(number)
			if err != nil || n.Prefix() != prefix {
				continue
			}
			if n.Sequence > max {
				max = n.Sequence
			}
		}
		return nil
	})
	if err != nil {
		logger.WithError(err).WithField("prefix", prefix).Warn("remote sequence scan failed, assigning from local records only")
		return 0
	}
	return max
}
