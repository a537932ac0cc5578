package transfer

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	log "github.com/sirupsen/logrus"

	"github.com/denizsoft/go-efatura/efatura/api"
	"github.com/denizsoft/go-efatura/efatura/config"
	"github.com/denizsoft/go-efatura/efatura/model"
	"github.com/denizsoft/go-efatura/efatura/store"
)

// Provider state codes for a transferred package.
const (
	stateUploaded   = 1
	stateQueued     = 2
	stateProcessing = 3
	stateFailed     = 4
	stateDelivered  = 5
)

// Recipient answer type codes reported on document level queries.
const (
	answerCodeReturned = 3
	answerCodeRejected = 4
	answerCodeAccepted = 5
)

// Poller reconciles provider processing state into local records. It is
// invoked by the CLI or an external scheduler; there is no in-process
// timer.
type Poller struct {
	transfers store.TransferStore
	tenants   store.CredentialStore

	forTenant func(t config.Tenant, profile model.DocumentProfile) api.Client
	now       func() time.Time
}

func NewPoller(transfers store.TransferStore, tenants store.CredentialStore) *Poller {
	return &Poller{
		transfers: transfers,
		tenants:   tenants,
		forTenant: api.ForTenant,
		now:       time.Now,
	}
}

// Check refreshes one invoice's transfer state. Terminal records only
// get their LastCheckedAt refreshed; the transport state never moves
// backwards out of a terminal status.
func (p *Poller) Check(ctx context.Context, invoiceID string) (*model.TransferRecord, error) {
	rec, err := p.transfers.Record(ctx, invoiceID)
	if err != nil {
		return nil, errors.Wrap(err, "load transfer record")
	}
	if rec.TransferID == "" {
		return nil, errors.Errorf("invoice %s has no transfer to check", invoiceID)
	}

	if rec.Status.Terminal() {
		rec.LastCheckedAt = p.now()
		if err := p.transfers.Save(ctx, rec); err != nil {
			return nil, errors.Wrap(err, "persist transfer record")
		}
		return rec, nil
	}

	tenant, err := p.tenants.TenantConfig(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load tenant config")
	}
	client := p.forTenant(*tenant, rec.Profile)

	err = api.WithSession(ctx, client, func(session string) error {
		st, err := client.QueryStatus(ctx, session, rec.TransferID)
		if err != nil {
			return err
		}
		p.apply(rec, st)

		// The recipient answer lives on the document, not the
		// transfer, and only exists once processing finished.
		if rec.DocumentID != "" && rec.Status == model.StatusDelivered {
			doc, err := client.QueryDocument(ctx, session, rec.DocumentID)
			if err != nil {
				logger.WithError(err).WithField("invoice", invoiceID).Warn("document level query failed")
				return nil
			}
			p.annotate(rec, doc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := p.transfers.Save(ctx, rec); err != nil {
		return nil, errors.Wrap(err, "persist transfer record")
	}
	return rec, nil
}

// CheckPending refreshes up to limit in-flight records, oldest check
// first, batching status queries inside a single session.
func (p *Poller) CheckPending(ctx context.Context, limit int) (int, error) {
	pending, err := p.transfers.Pending(ctx, limit)
	if err != nil {
		return 0, errors.Wrap(err, "list pending transfers")
	}
	if len(pending) == 0 {
		return 0, nil
	}

	tenant, err := p.tenants.TenantConfig(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "load tenant config")
	}

	// Records are grouped by profile because the two profiles may be
	// served by different endpoints.
	byProfile := map[model.DocumentProfile][]*model.TransferRecord{}
	for _, rec := range pending {
		byProfile[rec.Profile] = append(byProfile[rec.Profile], rec)
	}

	checked := 0
	for profile, recs := range byProfile {
		client := p.forTenant(*tenant, profile)
		err := api.WithSession(ctx, client, func(session string) error {
			for start := 0; start < len(recs); start += api.BatchLimit {
				end := start + api.BatchLimit
				if end > len(recs) {
					end = len(recs)
				}
				chunk := recs[start:end]

				ids := make([]string, len(chunk))
				for i, rec := range chunk {
					ids[i] = rec.TransferID
				}
				results, err := client.QueryStatusBatch(ctx, session, ids)
				if err != nil {
					return err
				}
				for i := range results {
					if i >= len(chunk) {
						break
					}
					p.apply(chunk[i], &results[i])
					if err := p.transfers.Save(ctx, chunk[i]); err != nil {
						return errors.Wrap(err, "persist transfer record")
					}
					checked++
				}
			}
			return nil
		})
		if err != nil {
			return checked, err
		}
	}

	logger.WithField("checked", checked).Debug("pending transfers reconciled")
	return checked, nil
}

// apply maps the provider state onto the local record.
func (p *Poller) apply(rec *model.TransferRecord, st *model.TransferStatusResult) {
	rec.StateCode = st.StateCode
	rec.StateText = st.StateDescription
	if st.ProviderNumber != "" {
		rec.ProviderNumber = st.ProviderNumber
	}
	rec.LastCheckedAt = p.now()

	switch st.StateCode {
	case stateDelivered:
		rec.Status = model.StatusDelivered
	case stateFailed:
		rec.Status = model.StatusFailed
		rec.LastError = st.StateDescription
	case stateUploaded, stateProcessing:
		rec.Status = model.StatusProcessing
	case stateQueued:
		rec.Status = model.StatusQueued
	default:
		// Unknown state codes leave the transport status untouched.
		logger.WithFields(log.Fields{
			"invoice": rec.InvoiceID,
			"state":   st.StateCode,
		}).Debug("unmapped provider state code")
	}
}

// annotate records the recipient's business answer without changing the
// transport status: a rejected invoice was still delivered.
func (p *Poller) annotate(rec *model.TransferRecord, doc *model.DocumentStatusResult) {
	if doc.ProviderNumber != "" {
		rec.ProviderNumber = doc.ProviderNumber
	}
	switch doc.AnswerTypeCode {
	case answerCodeAccepted:
		rec.Answer = model.AnswerAccepted
	case answerCodeRejected:
		rec.Answer = model.AnswerRejected
	case answerCodeReturned:
		rec.Answer = model.AnswerReturned
	}
	if rec.Answer != "" && doc.StateDescription != "" {
		rec.AnswerNote = doc.StateDescription
	}
}
