package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/denizsoft/go-efatura/efatura/config"
	"github.com/denizsoft/go-efatura/efatura/model"
	"github.com/denizsoft/go-efatura/efatura/store"
)

// Store is the in-memory implementation of all store contracts. It backs
// the tests and the demo server; a production deployment plugs a
// database-backed implementation behind the same interfaces.
type Store struct {
	mu        sync.RWMutex
	invoices  map[string]*model.InvoiceSnapshot
	numbers   map[string]string // profile+number -> invoiceID, the uniqueness index
	transfers map[string]*model.TransferRecord
	ledger    map[string]store.LedgerEntry
	tenant    *config.Tenant
}

func New() *Store {
	return &Store{
		invoices:  make(map[string]*model.InvoiceSnapshot),
		numbers:   make(map[string]string),
		transfers: make(map[string]*model.TransferRecord),
		ledger:    make(map[string]store.LedgerEntry),
	}
}

// PutInvoice seeds a snapshot. If the snapshot already carries a legal
// number the uniqueness index is populated too.
func (s *Store) PutInvoice(inv *model.InvoiceSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *inv
	s.invoices[inv.ID] = &cp
	if inv.LegalNumber != "" {
		s.numbers[numberKey(inv.Profile, inv.LegalNumber)] = inv.ID
	}
}

// SetTenant sets the configuration returned by TenantConfig.
func (s *Store) SetTenant(t config.Tenant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenant = &t
}

func (s *Store) Snapshot(_ context.Context, invoiceID string) (*model.InvoiceSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invoices[invoiceID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (s *Store) SaveLegalNumber(_ context.Context, invoiceID string, n model.LegalNumber, profile model.DocumentProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[invoiceID]
	if !ok {
		return store.ErrNotFound
	}
	key := numberKey(profile, n.String())
	if holder, taken := s.numbers[key]; taken && holder != invoiceID {
		return store.ErrDuplicateNumber
	}
	if inv.LegalNumber != "" && inv.LegalNumber != n.String() {
		delete(s.numbers, numberKey(profile, inv.LegalNumber))
	}
	s.numbers[key] = invoiceID
	inv.LegalNumber = n.String()
	return nil
}

func (s *Store) MaxSequence(_ context.Context, prefix string, profile model.DocumentProfile) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var max int64
	for _, inv := range s.invoices {
		if inv.Profile != profile || inv.LegalNumber == "" {
			continue
		}
		n, err := model.ParseLegalNumber(inv.LegalNumber)
		if err != nil || n.Prefix() != prefix {
			continue
		}
		if n.Sequence > max {
			max = n.Sequence
		}
	}
	return max, nil
}

func (s *Store) Record(_ context.Context, invoiceID string) (*model.TransferRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.transfers[invoiceID]
	if !ok {
		return &model.TransferRecord{InvoiceID: invoiceID, Status: model.StatusNone}, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *Store) Save(_ context.Context, rec *model.TransferRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.transfers[rec.InvoiceID] = &cp
	return nil
}

func (s *Store) Pending(_ context.Context, limit int) ([]*model.TransferRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.TransferRecord
	for _, rec := range s.transfers {
		if rec.Status.Terminal() || rec.TransferID == "" {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastCheckedAt.Before(out[j].LastCheckedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) UpsertOutgoing(_ context.Context, e store.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger[e.DocumentID] = e
	return nil
}

func (s *Store) Outgoing(_ context.Context, documentID string) (*store.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.ledger[documentID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &e, nil
}

func (s *Store) TenantConfig(_ context.Context) (*config.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tenant == nil {
		return nil, store.ErrNotFound
	}
	cp := *s.tenant
	return &cp, nil
}

func numberKey(profile model.DocumentProfile, number string) string {
	return string(profile) + "/" + number
}
