package server

import (
	"time"

	"github.com/denizsoft/go-efatura/efatura/model"
)

// SendRequest is the optional body of the send endpoint
type SendRequest struct {
	Force         bool     `json:"force"`
	CustomerAlias string   `json:"customer_alias,omitempty"`
	MailAddresses []string `json:"mail_addresses,omitempty"`
	GsmNumber     string   `json:"gsm_number,omitempty"`
}

// CancelRequest is the body of the cancel endpoint
type CancelRequest struct {
	Reason string `json:"reason"`
}

// PollRequest is the body of the poll endpoint
type PollRequest struct {
	Limit int `json:"limit"`
}

// PollResponse reports how many transfers were reconciled
type PollResponse struct {
	Checked int `json:"checked"`
}

// RecordResponse is the JSON view of a transfer record
type RecordResponse struct {
	InvoiceID      string     `json:"invoice_id"`
	DocumentID     string     `json:"document_id,omitempty"`
	LegalNumber    string     `json:"legal_number,omitempty"`
	Profile        string     `json:"profile,omitempty"`
	TransferID     string     `json:"transfer_id,omitempty"`
	Status         string     `json:"status"`
	StateCode      int        `json:"state_code,omitempty"`
	StateText      string     `json:"state_text,omitempty"`
	ProviderNumber string     `json:"provider_number,omitempty"`
	Answer         string     `json:"answer,omitempty"`
	AnswerNote     string     `json:"answer_note,omitempty"`
	RetryCount     int        `json:"retry_count,omitempty"`
	RetryAfter     *time.Time `json:"retry_after,omitempty"`
	LastError      string     `json:"last_error,omitempty"`
	SubmittedAt    *time.Time `json:"submitted_at,omitempty"`
	LastCheckedAt  *time.Time `json:"last_checked_at,omitempty"`
}

// ConflictResponse is returned on refused duplicate submissions
type ConflictResponse struct {
	Error         string    `json:"error"`
	Status        string    `json:"status"`
	TransferID    string    `json:"transfer_id,omitempty"`
	LastCheckedAt time.Time `json:"last_checked_at"`
	Forcible      bool      `json:"forcible"`
}

// ErrorResponse is the standard error response
type ErrorResponse struct {
	Error  string          `json:"error"`
	Field  string          `json:"field,omitempty"`
	Record *RecordResponse `json:"record,omitempty"`
}

func recordResponse(rec *model.TransferRecord) RecordResponse {
	r := RecordResponse{
		InvoiceID:      rec.InvoiceID,
		DocumentID:     rec.DocumentID,
		LegalNumber:    rec.LegalNumber,
		Profile:        string(rec.Profile),
		TransferID:     rec.TransferID,
		Status:         string(rec.Status),
		StateCode:      rec.StateCode,
		StateText:      rec.StateText,
		ProviderNumber: rec.ProviderNumber,
		Answer:         string(rec.Answer),
		AnswerNote:     rec.AnswerNote,
		RetryCount:     rec.RetryCount,
		LastError:      rec.LastError,
	}
	if !rec.RetryAfter.IsZero() {
		t := rec.RetryAfter
		r.RetryAfter = &t
	}
	if !rec.SubmittedAt.IsZero() {
		t := rec.SubmittedAt
		r.SubmittedAt = &t
	}
	if !rec.LastCheckedAt.IsZero() {
		t := rec.LastCheckedAt
		r.LastCheckedAt = &t
	}
	return r
}
