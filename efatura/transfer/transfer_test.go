package transfer

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denizsoft/go-efatura/efatura/api"
	"github.com/denizsoft/go-efatura/efatura/config"
	"github.com/denizsoft/go-efatura/efatura/model"
	"github.com/denizsoft/go-efatura/efatura/store/memory"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

// fakeClient records calls and serves canned results.
type fakeClient struct {
	submitResult *model.SubmitResult
	submitErr    error
	statusResult *model.TransferStatusResult
	statusErr    error
	docResult    *model.DocumentStatusResult
	cancelErr    error

	logins      int
	logouts     int
	submitted   []model.SubmitMetadata
	submittedTo []string // file names
	cancelled   []string
	batches     [][]string
}

func (f *fakeClient) Name() string { return "fake" }

func (f *fakeClient) Login(context.Context) (string, error) {
	f.logins++
	return "session", nil
}

func (f *fakeClient) Logout(context.Context, string) { f.logouts++ }

func (f *fakeClient) SubmitDocument(_ context.Context, _, fileName string, _ []byte, _ string, meta model.SubmitMetadata) (*model.SubmitResult, error) {
	f.submitted = append(f.submitted, meta)
	f.submittedTo = append(f.submittedTo, fileName)
	return f.submitResult, f.submitErr
}

func (f *fakeClient) QueryStatus(context.Context, string, string) (*model.TransferStatusResult, error) {
	return f.statusResult, f.statusErr
}

func (f *fakeClient) QueryStatusBatch(_ context.Context, _ string, ids []string) ([]model.TransferStatusResult, error) {
	f.batches = append(f.batches, ids)
	out := make([]model.TransferStatusResult, len(ids))
	for i := range ids {
		out[i] = *f.statusResult
	}
	return out, nil
}

func (f *fakeClient) QueryDocument(context.Context, string, string) (*model.DocumentStatusResult, error) {
	if f.docResult == nil {
		return &model.DocumentStatusResult{}, nil
	}
	return f.docResult, nil
}

func (f *fakeClient) ListDocuments(context.Context, string, model.DateRange, model.ListDirection) ([]model.DocumentSummary, error) {
	return nil, nil
}

func (f *fakeClient) CancelDocument(_ context.Context, _, legalNumber string, _ time.Time) error {
	f.cancelled = append(f.cancelled, legalNumber)
	return f.cancelErr
}

func newTestOrchestrator(st *memory.Store, fake *fakeClient) *Orchestrator {
	o := NewOrchestrator(st, st, st, st)
	o.forTenant = func(config.Tenant, model.DocumentProfile) api.Client { return fake }
	o.newUUID = func() string { return "ettn-minted" }
	o.now = func() time.Time { return testNow }
	return o
}

func seedStore() *memory.Store {
	st := memory.New()
	st.SetTenant(config.Tenant{Provider: config.ProviderVeriban, Username: "u", Password: "p"})
	return st
}

func seedInvoice(st *memory.Store, id string, numbered bool) {
	inv := &model.InvoiceSnapshot{
		ID:        id,
		Profile:   model.ProfileEInvoice,
		IssueDate: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Supplier: model.Party{
			Name:  "Deniz Yazılım AŞ",
			TaxID: "1234567890",
		},
		Buyer: model.Party{
			Name:            "Acme Ticaret AŞ",
			TaxID:           "9876543210",
			RegisteredAlias: "urn:mail:defaultpk@acme.com.tr",
		},
		Lines: []model.Line{{
			Name:      "Hizmet",
			Quantity:  decimal.NewFromInt(1),
			LineTotal: decimal.RequireFromString("118.00"),
			TaxRate:   decimal.NewFromInt(18),
		}},
		Subtotal:   decimal.RequireFromString("100.00"),
		TaxTotal:   decimal.RequireFromString("18.00"),
		GrandTotal: decimal.RequireFromString("118.00"),
	}
	if numbered {
		inv.LegalNumber = "FAT2026000000001"
	}
	st.PutInvoice(inv)
}

func TestSubmit_Success(t *testing.T) {
	st := seedStore()
	seedInvoice(st, "inv-1", true)
	fake := &fakeClient{submitResult: &model.SubmitResult{OperationCompleted: true, TransferID: "tr-99"}}
	o := newTestOrchestrator(st, fake)

	out, err := o.Submit(context.Background(), "inv-1", SubmitOptions{})
	require.NoError(t, err)
	require.True(t, out.Accepted)

	rec := out.Record
	assert.Equal(t, model.StatusQueued, rec.Status)
	assert.Equal(t, "tr-99", rec.TransferID)
	assert.Equal(t, "ettn-minted", rec.DocumentID)
	assert.Equal(t, "FAT2026000000001", rec.LegalNumber)
	assert.NotEmpty(t, rec.ContentHash)
	assert.Equal(t, testNow, rec.SubmittedAt)

	require.Len(t, fake.submittedTo, 1)
	assert.Equal(t, "ettn-minted.zip", fake.submittedTo[0])
	require.Len(t, fake.submitted, 1)
	assert.Equal(t, "urn:mail:defaultpk@acme.com.tr", fake.submitted[0].CustomerAlias)

	assert.Equal(t, fake.logins, fake.logouts, "session must be closed after submit")

	entry, err := st.Outgoing(context.Background(), "ettn-minted")
	require.NoError(t, err)
	assert.Equal(t, "tr-99", entry.TransferID)
	assert.Equal(t, "fake", entry.Provider)
}

func TestSubmit_DeliveredNeverResent(t *testing.T) {
	st := seedStore()
	seedInvoice(st, "inv-1", true)
	require.NoError(t, st.Save(context.Background(), &model.TransferRecord{
		InvoiceID: "inv-1", TransferID: "tr-1", Status: model.StatusDelivered,
	}))
	fake := &fakeClient{}
	o := newTestOrchestrator(st, fake)

	_, err := o.Submit(context.Background(), "inv-1", SubmitOptions{Force: true})

	var ce *model.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, model.StatusDelivered, ce.Status)
	assert.False(t, ce.Forcible)
	assert.Zero(t, fake.logins, "no provider call on a refused duplicate")
}

func TestSubmit_InFlightNeedsForce(t *testing.T) {
	st := seedStore()
	seedInvoice(st, "inv-1", true)
	require.NoError(t, st.Save(context.Background(), &model.TransferRecord{
		InvoiceID: "inv-1", DocumentID: "ettn-old", TransferID: "tr-1", Status: model.StatusQueued,
	}))
	fake := &fakeClient{submitResult: &model.SubmitResult{OperationCompleted: true, TransferID: "tr-2"}}
	o := newTestOrchestrator(st, fake)

	_, err := o.Submit(context.Background(), "inv-1", SubmitOptions{})
	var ce *model.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.True(t, ce.Forcible)
	assert.Equal(t, "tr-1", ce.TransferID)

	out, err := o.Submit(context.Background(), "inv-1", SubmitOptions{Force: true})
	require.NoError(t, err)
	assert.Equal(t, "ettn-old", out.Record.DocumentID, "document id is reused on resubmission")
}

func TestSubmit_RetryableFailure(t *testing.T) {
	st := seedStore()
	seedInvoice(st, "inv-1", true)
	fake := &fakeClient{submitResult: &model.SubmitResult{
		OperationCompleted: false, ErrorCode: 5000, ErrorMessage: "sistem hatası",
	}}
	o := newTestOrchestrator(st, fake)

	out, err := o.Submit(context.Background(), "inv-1", SubmitOptions{})
	require.Error(t, err)
	var te *model.TransferError
	require.ErrorAs(t, err, &te)
	assert.True(t, te.Retryable)

	rec := out.Record
	assert.Equal(t, model.StatusFailed, rec.Status)
	assert.Equal(t, 1, rec.RetryCount)
	assert.Equal(t, testNow.Add(RetryDelay), rec.RetryAfter)
	assert.Contains(t, rec.LastError, "sistem hatası")
	assert.True(t, rec.Status.Resubmittable())
}

func TestSubmit_PermanentFailure(t *testing.T) {
	st := seedStore()
	seedInvoice(st, "inv-1", true)
	fake := &fakeClient{submitResult: &model.SubmitResult{
		OperationCompleted: false, ErrorCode: 5101, ErrorMessage: "hash uyuşmuyor",
	}}
	o := newTestOrchestrator(st, fake)

	out, err := o.Submit(context.Background(), "inv-1", SubmitOptions{})
	require.Error(t, err)

	rec := out.Record
	assert.Equal(t, model.StatusFailed, rec.Status)
	assert.True(t, rec.RetryAfter.IsZero(), "permanent failures get no retry window")
}

func TestSubmit_RetryCeiling(t *testing.T) {
	st := seedStore()
	seedInvoice(st, "inv-1", true)
	require.NoError(t, st.Save(context.Background(), &model.TransferRecord{
		InvoiceID: "inv-1", DocumentID: "ettn-old", Status: model.StatusFailed, RetryCount: MaxAttempts - 1,
	}))
	fake := &fakeClient{submitResult: &model.SubmitResult{OperationCompleted: false, ErrorCode: 5000}}
	o := newTestOrchestrator(st, fake)

	out, err := o.Submit(context.Background(), "inv-1", SubmitOptions{})
	require.Error(t, err)

	rec := out.Record
	assert.Equal(t, MaxAttempts, rec.RetryCount)
	assert.True(t, rec.RetryAfter.IsZero(), "the ceiling ends automatic resubmission")
}

func TestSubmit_ExhaustedCeilingNeedsForce(t *testing.T) {
	st := seedStore()
	seedInvoice(st, "inv-1", true)
	require.NoError(t, st.Save(context.Background(), &model.TransferRecord{
		InvoiceID: "inv-1", DocumentID: "ettn-old", Status: model.StatusFailed, RetryCount: MaxAttempts,
	}))
	fake := &fakeClient{submitResult: &model.SubmitResult{OperationCompleted: true, TransferID: "tr-2"}}
	o := newTestOrchestrator(st, fake)

	_, err := o.Submit(context.Background(), "inv-1", SubmitOptions{})
	var ce *model.ConflictError
	require.ErrorAs(t, err, &ce, "an exhausted ceiling blocks automatic resubmission")
	assert.True(t, ce.Forcible)
	assert.Zero(t, fake.logins, "no provider call on a refused duplicate")

	out, err := o.Submit(context.Background(), "inv-1", SubmitOptions{Force: true})
	require.NoError(t, err)
	assert.True(t, out.Accepted)
	assert.Zero(t, out.Record.RetryCount, "a forced resubmission starts a fresh retry cycle")
}

func TestSubmit_ValidationStopsBeforeNetwork(t *testing.T) {
	st := seedStore()
	st.PutInvoice(&model.InvoiceSnapshot{
		ID:        "bad",
		Profile:   model.ProfileEInvoice,
		IssueDate: testNow,
	})
	fake := &fakeClient{}
	o := newTestOrchestrator(st, fake)

	_, err := o.Submit(context.Background(), "bad", SubmitOptions{})
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Zero(t, fake.logins)
}

func TestSubmit_AssignsNumberWhenMissing(t *testing.T) {
	st := seedStore()
	seedInvoice(st, "inv-1", false)
	fake := &fakeClient{submitResult: &model.SubmitResult{OperationCompleted: true, TransferID: "tr-1"}}
	o := newTestOrchestrator(st, fake)

	out, err := o.Submit(context.Background(), "inv-1", SubmitOptions{})
	require.NoError(t, err)
	assert.Equal(t, "FAT2026000000001", out.Record.LegalNumber)

	stored, err := st.Snapshot(context.Background(), "inv-1")
	require.NoError(t, err)
	assert.Equal(t, "FAT2026000000001", stored.LegalNumber)
}

func TestCancel_ArchiveOnly(t *testing.T) {
	st := seedStore()
	require.NoError(t, st.Save(context.Background(), &model.TransferRecord{
		InvoiceID: "inv-1", LegalNumber: "FAT2026000000001",
		Profile: model.ProfileEInvoice, Status: model.StatusDelivered,
	}))
	o := newTestOrchestrator(st, &fakeClient{})

	_, err := o.Cancel(context.Background(), "inv-1", "wrong amount")
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestCancel_Archive(t *testing.T) {
	st := seedStore()
	require.NoError(t, st.Save(context.Background(), &model.TransferRecord{
		InvoiceID: "inv-1", LegalNumber: "EAR2026000000001",
		Profile: model.ProfileEArchive, Status: model.StatusDelivered,
	}))
	fake := &fakeClient{}
	o := newTestOrchestrator(st, fake)

	rec, err := o.Cancel(context.Background(), "inv-1", "wrong amount")
	require.NoError(t, err)

	assert.Equal(t, model.StatusCancelled, rec.Status)
	assert.Equal(t, "wrong amount", rec.AnswerNote)
	assert.Equal(t, []string{"EAR2026000000001"}, fake.cancelled)
	assert.Equal(t, fake.logins, fake.logouts)
}

func TestCancel_NeverSubmitted(t *testing.T) {
	st := seedStore()
	o := newTestOrchestrator(st, &fakeClient{})

	_, err := o.Cancel(context.Background(), "ghost", "reason")
	assert.Error(t, err)
}

func TestSubmit_ArchiveOmitsAlias(t *testing.T) {
	st := seedStore()
	inv := &model.InvoiceSnapshot{
		ID:          "inv-1",
		LegalNumber: "EAR2026000000001",
		Profile:     model.ProfileEArchive,
		IssueDate:   testNow,
		Supplier:    model.Party{Name: "Deniz Yazılım AŞ", TaxID: "1234567890"},
		Buyer:       model.Party{Name: "Ayşe Kaya", TaxID: "12345678901"},
		Lines: []model.Line{{
			Name: "Hizmet", Quantity: decimal.NewFromInt(1),
			LineTotal: decimal.RequireFromString("118.00"), TaxRate: decimal.NewFromInt(18),
		}},
		GrandTotal: decimal.RequireFromString("118.00"),
	}
	st.PutInvoice(inv)
	fake := &fakeClient{submitResult: &model.SubmitResult{OperationCompleted: true, TransferID: "tr-1"}}
	o := newTestOrchestrator(st, fake)

	_, err := o.Submit(context.Background(), "inv-1", SubmitOptions{CustomerAlias: "should-not-pass"})
	require.NoError(t, err)

	require.Len(t, fake.submitted, 1)
	assert.Empty(t, fake.submitted[0].CustomerAlias, "archive buyers have no registered alias")
}
