package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentProfile selects which of the two invoice regimes applies.
// The profile decides the provider-side number space and the schema
// variant, so it must be fixed before compilation and never changed
// after a document has been transmitted.
type DocumentProfile string

const (
	// ProfileEInvoice is the directly exchanged invoice between two
	// registered clearinghouse participants.
	ProfileEInvoice DocumentProfile = "TICARIFATURA"
	// ProfileEArchive is the archive invoice issued to buyers that are
	// not clearinghouse participants.
	ProfileEArchive DocumentProfile = "EARSIVFATURA"
)

// ProfileFor returns the document profile for a buyer: registered
// participants receive a basic invoice, everyone else an archive one.
func ProfileFor(buyer Party) DocumentProfile {
	if buyer.RegisteredAlias != "" {
		return ProfileEInvoice
	}
	return ProfileEArchive
}

type Address struct {
	Street     string
	City       string
	District   string
	PostalCode string
	Country    string
}

// Party is one side of the invoice. TaxID length distinguishes legal
// entities (10 digits) from natural persons (11 digits).
type Party struct {
	Name      string
	TaxID     string
	TaxOffice string
	Address   Address
	Phone     string
	Email     string
	Website   string

	// RegisteredAlias is the clearinghouse postbox alias of a
	// registered participant, empty for everyone else.
	RegisteredAlias string
}

// NaturalPerson reports whether the party is modelled as a natural
// person rather than a legal entity.
func (p Party) NaturalPerson() bool {
	return len(p.TaxID) == 11
}

type Line struct {
	Name          string
	Quantity      decimal.Decimal
	Unit          string
	UnitPrice     decimal.Decimal
	DiscountRate  decimal.Decimal
	TaxRate       decimal.Decimal
	LineTotal     decimal.Decimal // gross, tax inclusive
	TaxAmount     decimal.Decimal // zero means: derive from LineTotal and TaxRate
	CommodityCode string
}

// Tax returns the line tax amount, deriving it from the gross total
// when the snapshot carries no precomputed value.
func (l Line) Tax() decimal.Decimal {
	if !l.TaxAmount.IsZero() {
		return l.TaxAmount
	}
	if l.TaxRate.IsZero() {
		return decimal.Zero
	}
	hundred := decimal.NewFromInt(100)
	return l.LineTotal.Mul(l.TaxRate).Div(hundred.Add(l.TaxRate)).Round(2)
}

// Base returns the taxable base of the line: gross total minus tax.
func (l Line) Base() decimal.Decimal {
	return l.LineTotal.Sub(l.Tax())
}

// InvoiceSnapshot is an immutable view of one invoice at compile time.
// All derived results (assigned number, transfer state) are expressed
// as return values and separate persistence calls, never written back
// into the snapshot.
type InvoiceSnapshot struct {
	ID          string
	LegalNumber string // empty until assigned
	Profile     DocumentProfile
	TypeCode    string // SATIS when empty
	IssueDate   time.Time
	IssueTime   string // HH:mm:ss, issue date wall clock when empty
	DueDate     *time.Time
	Currency    string
	Note        string

	Supplier Party
	Buyer    Party
	Lines    []Line

	Subtotal      decimal.Decimal // tax exclusive
	TaxTotal      decimal.Decimal
	DiscountTotal decimal.Decimal
	GrandTotal    decimal.Decimal // tax inclusive, payable
}
