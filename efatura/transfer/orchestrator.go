// Package transfer drives the submission lifecycle: compile, package,
// submit inside a provider session, and reconcile remote state into the
// local transfer records.
package transfer

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/denizsoft/go-efatura/efatura/api"
	"github.com/denizsoft/go-efatura/efatura/archive"
	"github.com/denizsoft/go-efatura/efatura/config"
	"github.com/denizsoft/go-efatura/efatura/model"
	"github.com/denizsoft/go-efatura/efatura/sequence"
	"github.com/denizsoft/go-efatura/efatura/store"
	"github.com/denizsoft/go-efatura/efatura/ubl"
)

var logger = log.WithField("component", "efatura.transfer")

// SubmitOptions tunes one submission attempt.
type SubmitOptions struct {
	// Force overrides the duplicate guard for in-flight records and
	// for failed records that exhausted the automatic retry ceiling.
	// A delivered invoice is never resent regardless of Force.
	Force bool

	// CustomerAlias is the registered mailbox of a participant buyer.
	CustomerAlias string

	// Archive delivery options, ignored on the basic profile.
	MailAddresses []string
	GsmNumber     string
}

// SubmitOutcome reports what a submission attempt did.
type SubmitOutcome struct {
	Record   *model.TransferRecord
	Accepted bool
}

// Orchestrator owns the submission side of the transfer lifecycle.
type Orchestrator struct {
	invoices  store.InvoiceStore
	transfers store.TransferStore
	ledger    store.LedgerStore
	tenants   store.CredentialStore
	seq       *sequence.Reconciler
	compiler  *ubl.Compiler

	forTenant func(t config.Tenant, profile model.DocumentProfile) api.Client
	newUUID   func() string
	now       func() time.Time
}

func NewOrchestrator(invoices store.InvoiceStore, transfers store.TransferStore, ledger store.LedgerStore, tenants store.CredentialStore) *Orchestrator {
	return &Orchestrator{
		invoices:  invoices,
		transfers: transfers,
		ledger:    ledger,
		tenants:   tenants,
		seq:       sequence.NewReconciler(invoices, tenants),
		compiler:  ubl.NewCompiler(),
		forTenant: api.ForTenant,
		newUUID:   uuid.NewString,
		now:       time.Now,
	}
}

// Submit runs one submission attempt for the invoice. The returned
// record reflects the persisted post-attempt state even when the
// attempt failed.
func (o *Orchestrator) Submit(ctx context.Context, invoiceID string, opts SubmitOptions) (*SubmitOutcome, error) {
	inv, err := o.invoices.Snapshot(ctx, invoiceID)
	if err != nil {
		return nil, errors.Wrap(err, "load invoice")
	}
	rec, err := o.transfers.Record(ctx, invoiceID)
	if err != nil {
		return nil, errors.Wrap(err, "load transfer record")
	}

	if err := o.guard(rec, opts.Force); err != nil {
		return nil, err
	}

	if err := ubl.Validate(inv); err != nil {
		return nil, err
	}

	if inv.LegalNumber == "" {
		n, err := o.seq.Assign(ctx, inv)
		if err != nil {
			return nil, errors.Wrap(err, "assign legal number")
		}
		inv.LegalNumber = n.String()
	}

	// The document identifier survives retries so the provider can
	// deduplicate a resent package.
	if rec.DocumentID == "" {
		rec.DocumentID = o.newUUID()
	}
	rec.LegalNumber = inv.LegalNumber
	rec.Profile = inv.Profile

	xml, err := o.compiler.Build(inv, rec.DocumentID)
	if err != nil {
		return nil, errors.Wrap(err, "compile document")
	}
	pkg, err := archive.PackDocument(rec.DocumentID, xml)
	if err != nil {
		return nil, errors.Wrap(err, "package document")
	}

	tenant, err := o.tenants.TenantConfig(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load tenant config")
	}
	client := o.forTenant(*tenant, inv.Profile)

	meta := model.SubmitMetadata{
		DocumentID:    rec.DocumentID,
		LegalNumber:   inv.LegalNumber,
		Profile:       inv.Profile,
		CustomerAlias: o.alias(inv, opts),
		DirectSend:    true,
		MailAddresses: opts.MailAddresses,
		GsmNumber:     opts.GsmNumber,
	}

	var res *model.SubmitResult
	submitErr := api.WithSession(ctx, client, func(session string) error {
		var err error
		res, err = client.SubmitDocument(ctx, session, pkg.Name, pkg.Data, pkg.MD5Hash, meta)
		return err
	})

	if submitErr != nil || res == nil || !res.OperationCompleted {
		o.recordFailure(ctx, rec, res, submitErr)
		if submitErr != nil {
			return &SubmitOutcome{Record: rec}, submitErr
		}
		return &SubmitOutcome{Record: rec}, &model.TransferError{
			Code:      res.ErrorCode,
			Message:   failureMessage(res),
			Retryable: retryable(nil, res.ErrorCode),
		}
	}

	rec.Status = model.StatusQueued
	rec.TransferID = res.TransferID
	rec.ContentHash = pkg.MD5Hash
	rec.SubmittedAt = o.now()
	rec.RetryCount = 0
	rec.RetryAfter = time.Time{}
	rec.LastError = ""
	if err := o.transfers.Save(ctx, rec); err != nil {
		return nil, errors.Wrap(err, "persist transfer record")
	}

	if err := o.ledger.UpsertOutgoing(ctx, store.LedgerEntry{
		DocumentID:  rec.DocumentID,
		LegalNumber: rec.LegalNumber,
		Profile:     rec.Profile,
		Provider:    client.Name(),
		TransferID:  rec.TransferID,
		SubmittedAt: rec.SubmittedAt,
	}); err != nil {
		return nil, errors.Wrap(err, "update outgoing ledger")
	}

	logger.WithFields(log.Fields{
		"invoice":  invoiceID,
		"number":   rec.LegalNumber,
		"transfer": rec.TransferID,
	}).Info("document queued at provider")

	return &SubmitOutcome{Record: rec, Accepted: true}, nil
}

// guard enforces the duplicate submission rules: delivered is final,
// an in-flight transfer or an exhausted retry ceiling needs an
// explicit force override.
func (o *Orchestrator) guard(rec *model.TransferRecord, force bool) error {
	if rec.Status == model.StatusDelivered {
		return &model.ConflictError{
			InvoiceID:     rec.InvoiceID,
			Status:        rec.Status,
			TransferID:    rec.TransferID,
			LastCheckedAt: rec.LastCheckedAt,
		}
	}
	exhausted := rec.Status == model.StatusFailed && rec.RetryCount >= MaxAttempts
	if (!rec.Status.Resubmittable() || exhausted) && !force {
		return &model.ConflictError{
			InvoiceID:     rec.InvoiceID,
			Status:        rec.Status,
			TransferID:    rec.TransferID,
			LastCheckedAt: rec.LastCheckedAt,
			Forcible:      true,
		}
	}
	return nil
}

func (o *Orchestrator) alias(inv *model.InvoiceSnapshot, opts SubmitOptions) string {
	if inv.Profile == model.ProfileEArchive {
		return ""
	}
	if opts.CustomerAlias != "" {
		return opts.CustomerAlias
	}
	return inv.Buyer.RegisteredAlias
}

// recordFailure persists the failed attempt. Retryable failures stay
// resubmittable with an advisory backoff until the attempt ceiling.
func (o *Orchestrator) recordFailure(ctx context.Context, rec *model.TransferRecord, res *model.SubmitResult, err error) {
	code := 0
	if res != nil {
		code = res.ErrorCode
	}

	rec.Status = model.StatusFailed
	rec.LastError = failureText(res, err)
	rec.LastCheckedAt = o.now()

	if retryable(err, code) && rec.RetryCount+1 < MaxAttempts {
		rec.RetryCount++
		rec.RetryAfter = o.now().Add(RetryDelay)
	} else {
		rec.RetryCount++
		rec.RetryAfter = time.Time{}
	}

	if saveErr := o.transfers.Save(ctx, rec); saveErr != nil {
		logger.WithError(saveErr).WithField("invoice", rec.InvoiceID).Error("could not persist failed attempt")
	}
}

// Cancel voids a previously transmitted archive invoice at the provider
// and marks the local record cancelled. The basic profile has no cancel
// operation; corrections there go through the recipient answer flow.
func (o *Orchestrator) Cancel(ctx context.Context, invoiceID, reason string) (*model.TransferRecord, error) {
	rec, err := o.transfers.Record(ctx, invoiceID)
	if err != nil {
		return nil, errors.Wrap(err, "load transfer record")
	}
	if rec.Status == model.StatusNone {
		return nil, errors.Errorf("invoice %s was never submitted", invoiceID)
	}
	if rec.Profile != model.ProfileEArchive {
		return nil, &model.ValidationError{Field: "profile", Message: "only archive invoices can be cancelled"}
	}

	tenant, err := o.tenants.TenantConfig(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load tenant config")
	}
	client := o.forTenant(*tenant, rec.Profile)

	err = api.WithSession(ctx, client, func(session string) error {
		return client.CancelDocument(ctx, session, rec.LegalNumber, o.now())
	})
	if err != nil {
		return nil, err
	}

	rec.Status = model.StatusCancelled
	rec.AnswerNote = reason
	rec.LastCheckedAt = o.now()
	if err := o.transfers.Save(ctx, rec); err != nil {
		return nil, errors.Wrap(err, "persist transfer record")
	}

	logger.WithFields(log.Fields{"invoice": invoiceID, "number": rec.LegalNumber}).Info("document cancelled")
	return rec, nil
}

func failureMessage(res *model.SubmitResult) string {
	if res.ErrorMessage != "" {
		return res.ErrorMessage
	}
	if res.Description != "" {
		return res.Description
	}
	return "provider refused the transfer"
}

func failureText(res *model.SubmitResult, err error) string {
	if err != nil {
		return err.Error()
	}
	if res != nil {
		return failureMessage(res)
	}
	return "unknown failure"
}
