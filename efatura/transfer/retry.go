package transfer

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/denizsoft/go-efatura/efatura/model"
	"github.com/denizsoft/go-efatura/efatura/soap"
)

const (
	// MaxAttempts is the automatic resubmission ceiling per invoice.
	MaxAttempts = 3

	// RetryDelay is the advisory backoff written into RetryAfter.
	RetryDelay = 5 * time.Minute
)

// retryableFaultCodes are provider faults worth resubmitting: a generic
// system fault and a queue insert failure. Everything else (bad hash,
// malformed content, auth) will fail the same way again.
var retryableFaultCodes = map[int]bool{
	soap.CodeSystemFault: true,
	soap.CodeQueueInsert: true,
}

// retryable classifies a submission failure. Only failures on an
// allow-list qualify; unknown failures are treated as permanent so a
// rejected document is never hammered against the provider.
func retryable(err error, errorCode int) bool {
	if retryableFaultCodes[errorCode] {
		return true
	}
	if err == nil {
		return false
	}

	var te *model.TransferError
	if errors.As(err, &te) {
		return te.Retryable || retryableFaultCodes[te.Code]
	}
	var fe *soap.FaultError
	if errors.As(err, &fe) {
		return retryableFaultCodes[fe.Code]
	}
	// A garbled reply says nothing about the document itself.
	var ue *soap.UnexpectedResponseError
	if errors.As(err, &ue) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, sig := range []string{"timeout", "timed out", "connection refused", "connection reset"} {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}
