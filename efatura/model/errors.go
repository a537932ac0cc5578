package model

import (
	"fmt"
	"time"
)

// AuthError reports invalid credentials or an unreachable provider
// endpoint. Never retried automatically.
type AuthError struct {
	Provider string
	Message  string
	Cause    error
}

func (e *AuthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s login failed: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s login failed: %s", e.Provider, e.Message)
}

func (e *AuthError) Unwrap() error { return e.Cause }

// ValidationError reports a mandatory field missing from the snapshot.
// Raised before any network call is attempted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid invoice: %s: %s", e.Field, e.Message)
}

// TransferError reports a submission the remote rejected or could not
// take. Retryable errors match a fixed allow-list of transient
// signatures; everything else is terminal.
type TransferError struct {
	Code      int
	Message   string
	Retryable bool
	Cause     error
}

func (e *TransferError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("transfer failed (code %d): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("transfer failed: %s", e.Message)
}

func (e *TransferError) Unwrap() error { return e.Cause }

// ConflictError reports a blocked duplicate submission. It carries the
// current known state so a caller can present an informed resend
// confirmation instead of a bare failure.
type ConflictError struct {
	InvoiceID     string
	Status        TransferStatus
	TransferID    string
	LastCheckedAt time.Time
	Forcible      bool
}

func (e *ConflictError) Error() string {
	if !e.Forcible {
		return fmt.Sprintf("invoice %s is already %s and cannot be resent", e.InvoiceID, e.Status)
	}
	return fmt.Sprintf("invoice %s is already %s; pass force to resend", e.InvoiceID, e.Status)
}
