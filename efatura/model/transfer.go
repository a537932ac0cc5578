package model

import "time"

// TransferStatus is the local transport state of a submitted document.
type TransferStatus string

const (
	StatusNone       TransferStatus = ""
	StatusQueued     TransferStatus = "queued"
	StatusProcessing TransferStatus = "processing"
	StatusDelivered  TransferStatus = "delivered"
	StatusFailed     TransferStatus = "failed"
	StatusCancelled  TransferStatus = "cancelled"
)

// Terminal reports whether no further transport transitions are
// expected for the status.
func (s TransferStatus) Terminal() bool {
	switch s {
	case StatusDelivered, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Resubmittable reports whether a new submission attempt may claim the
// record without a force override.
func (s TransferStatus) Resubmittable() bool {
	return s == StatusNone || s == StatusFailed || s == StatusCancelled
}

// AnswerType is the application level accept/reject response of the
// recipient, a business acknowledgment distinct from transport
// delivery.
type AnswerType string

const (
	AnswerAccepted AnswerType = "KABUL"
	AnswerRejected AnswerType = "RED"
	AnswerReturned AnswerType = "IADE"
)

// TransferRecord is the mutable transfer bookkeeping attached to an
// invoice. Records are created on the first submission attempt and are
// never deleted; terminal records remain as an audit trail.
type TransferRecord struct {
	InvoiceID   string
	DocumentID  string // ETTN, minted once and reused across retries
	LegalNumber string
	Profile     DocumentProfile

	TransferID  string // provider issued envelope/transfer identifier
	Status      TransferStatus
	ContentHash string // MD5 of the transmitted package

	RetryCount int
	RetryAfter time.Time // advisory, zero when not resubmittable

	ProviderNumber string // document number as the provider reports it
	StateCode      int
	StateText      string
	Answer         AnswerType // secondary annotation, empty when none
	AnswerNote     string

	LastError     string
	SubmittedAt   time.Time
	LastCheckedAt time.Time
}
