// Package qr renders the verification QR printed on archive invoices.
// The payload carries the fields the tax authority portal needs to look
// the document up and confirm its totals.
package qr

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/denizsoft/go-efatura/efatura/model"
)

// VerificationPayload builds the pipe-delimited verification string for
// an issued invoice. Field order is fixed: ETTN, legal number, issue
// date, supplier and buyer tax ids, payable amount with currency, and a
// base64url SHA-256 digest of the document XML.
func VerificationPayload(inv *model.InvoiceSnapshot, documentID string, xml []byte) (string, error) {
	if documentID == "" {
		return "", errors.New("missing document id")
	}
	if inv.LegalNumber == "" {
		return "", errors.New("invoice has no legal number")
	}

	sum := sha256.Sum256(xml)
	digest := base64.RawURLEncoding.EncodeToString(sum[:])

	fields := []string{
		documentID,
		inv.LegalNumber,
		inv.IssueDate.Format("02-01-2006"),
		inv.Supplier.TaxID,
		inv.Buyer.TaxID,
		fmt.Sprintf("%s %s", inv.GrandTotal.StringFixed(2), inv.Currency),
		digest,
	}
	return strings.Join(fields, "|"), nil
}

// PNG renders the payload as a QR image. size is the edge length in
// pixels.
func PNG(payload string, size int) ([]byte, error) {
	if payload == "" {
		return nil, errors.New("empty payload")
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, size)
	if err != nil {
		return nil, errors.Wrap(err, "encode qr")
	}
	return png, nil
}
