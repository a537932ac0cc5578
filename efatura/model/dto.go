package model

import "time"

// Provider response DTOs. The remote schema is loosely versioned and
// optional fields vary by provider and document type, so every field
// here defaults to its zero value when absent from the response.

// SubmitResult is the outcome of a document transfer call.
type SubmitResult struct {
	OperationCompleted bool
	TransferID         string
	Description        string
	ErrorCode          int
	ErrorMessage       string
}

// TransferStatusResult is the processing state of a previously
// transferred package, queried by transfer identifier.
type TransferStatusResult struct {
	OperationCompleted bool
	StateCode          int
	StateDescription   string
	ProviderNumber     string
	ErrorCode          int
	ErrorMessage       string
}

// DocumentStatusResult is the document level state queried by document
// identifier (ETTN). AnswerStateCode and AnswerTypeCode carry the
// downstream business acknowledgment when the recipient has responded.
type DocumentStatusResult struct {
	StateCode        int
	StateName        string
	StateDescription string
	ProviderNumber   string
	Profile          string
	EnvelopeID       string
	AnswerStateCode  int
	AnswerTypeCode   int
}

// ListDirection selects outgoing or incoming documents.
type ListDirection string

const (
	DirectionOutgoing ListDirection = "outgoing"
	DirectionIncoming ListDirection = "incoming"
)

type DateRange struct {
	Start time.Time
	End   time.Time
}

// DocumentSummary is one row of a document list response.
type DocumentSummary struct {
	DocumentID     string // ETTN
	ProviderNumber string
	Profile        string
	IssueDate      string
	Payable        string
	Currency       string
	CustomerName   string
	CustomerTaxID  string
}

// SubmitMetadata carries the transfer fields that accompany the binary
// package but are not part of the document itself.
type SubmitMetadata struct {
	DocumentID    string
	LegalNumber   string
	Profile       DocumentProfile
	CustomerAlias string // archive profile leaves this empty
	DirectSend    bool

	// Archive profile delivery options.
	TransportationType string // ELEKTRONIK when empty
	MailAddresses      []string
	GsmNumber          string
}
