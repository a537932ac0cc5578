package qr

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denizsoft/go-efatura/efatura/model"
)

func TestVerificationPayload(t *testing.T) {
	inv := &model.InvoiceSnapshot{
		LegalNumber: "EAR2026000000042",
		IssueDate:   time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Currency:    "TRY",
		Supplier:    model.Party{TaxID: "1234567890"},
		Buyer:       model.Party{TaxID: "12345678901"},
		GrandTotal:  decimal.RequireFromString("168.00"),
	}

	payload, err := VerificationPayload(inv, "f47ac10b-58cc-4372-a567-0e02b2c3d479", []byte("<Invoice/>"))
	require.NoError(t, err)

	fields := strings.Split(payload, "|")
	require.Len(t, fields, 7)
	assert.Equal(t, "f47ac10b-58cc-4372-a567-0e02b2c3d479", fields[0])
	assert.Equal(t, "EAR2026000000042", fields[1])
	assert.Equal(t, "15-03-2026", fields[2])
	assert.Equal(t, "1234567890", fields[3])
	assert.Equal(t, "12345678901", fields[4])
	assert.Equal(t, "168.00 TRY", fields[5])
	assert.NotEmpty(t, fields[6])
}

func TestVerificationPayload_NoNumber(t *testing.T) {
	inv := &model.InvoiceSnapshot{IssueDate: time.Now()}
	_, err := VerificationPayload(inv, "some-ettn", nil)
	assert.Error(t, err)
}

func TestPNG(t *testing.T) {
	png, err := PNG("ettn|EAR2026000000042|15-03-2026", 256)
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestPNG_Empty(t *testing.T) {
	_, err := PNG("", 256)
	assert.Error(t, err)
}
