// Package ubl compiles invoice snapshots into UBL-TR tax documents.
// The compiler is a pure transform: no I/O, and the same snapshot plus
// document identifier always yields byte identical XML.
package ubl

import (
	"sort"
	"strings"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/denizsoft/go-efatura/efatura/model"
)

const (
	ublVersion      = "2.1"
	customizationID = "TR1.2"
	taxSchemeName   = "KDV"
	taxTypeCode     = "0015"
)

// Compiler builds tax authority XML documents. The signatory fields
// identify the provider whose fiscal seal is applied server side to
// archive invoices; defaults match the integrated provider.
type Compiler struct {
	SignatoryTaxID   string
	SignatoryCity    string
	SignatoryCountry string
}

func NewCompiler() *Compiler {
	return &Compiler{
		SignatoryTaxID:   "9240481875",
		SignatoryCity:    "İstanbul",
		SignatoryCountry: "Türkiye",
	}
}

// Build compiles the snapshot into a canonical UBL-TR document. The
// documentID is the 128-bit identifier (ETTN) minted once per invoice
// and reused for all retries.
func (c *Compiler) Build(inv *model.InvoiceSnapshot, documentID string) ([]byte, error) {
	if err := Validate(inv); err != nil {
		return nil, err
	}

	currency := inv.Currency
	if currency == "" {
		currency = "TRY"
	}
	typeCode := inv.TypeCode
	if typeCode == "" {
		typeCode = "SATIS"
	}
	issueDate := inv.IssueDate.Format("2006-01-02")
	issueTime := inv.IssueTime
	if issueTime == "" {
		issueTime = inv.IssueDate.Format("15:04:05")
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("Invoice")
	root.CreateAttr("xmlns", "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2")
	root.CreateAttr("xmlns:cac", "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2")
	root.CreateAttr("xmlns:cbc", "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2")
	root.CreateAttr("xmlns:xsi", "http://www.w3.org/2001/XMLSchema-instance")

	text(root, "cbc:UBLVersionID", ublVersion)
	text(root, "cbc:CustomizationID", customizationID)
	text(root, "cbc:ProfileID", string(inv.Profile))
	text(root, "cbc:ID", inv.LegalNumber)
	text(root, "cbc:CopyIndicator", "false")
	text(root, "cbc:UUID", documentID)
	text(root, "cbc:IssueDate", issueDate)
	text(root, "cbc:IssueTime", issueTime)
	text(root, "cbc:InvoiceTypeCode", typeCode)
	if inv.Note != "" {
		text(root, "cbc:Note", inv.Note)
	}
	if inv.DueDate != nil {
		text(root, "cbc:DueDate", inv.DueDate.Format("2006-01-02"))
	}

	cur := text(root, "cbc:DocumentCurrencyCode", currency)
	cur.CreateAttr("listID", "ISO 4217 Alpha")
	cur.CreateAttr("listName", "Currency")
	text(root, "cbc:LineCountNumeric", decimal.NewFromInt(int64(len(inv.Lines))).String())

	if inv.Profile == model.ProfileEArchive {
		c.signatureBlock(root)
		c.dispatchNote(root, issueDate)
	}

	c.supplierParty(root, inv.Supplier)
	c.customerParty(root, inv)

	c.taxTotal(root, inv, currency)
	c.monetaryTotal(root, inv, currency)

	for i, line := range inv.Lines {
		c.invoiceLine(root, line, i+1, currency)
	}

	doc.Indent(2)
	return doc.WriteToBytes()
}

// Validate checks the snapshot for mandatory fields before any network
// call is attempted.
func Validate(inv *model.InvoiceSnapshot) error {
	if inv.Supplier.Name == "" {
		return &model.ValidationError{Field: "supplier.name", Message: "missing"}
	}
	if inv.Supplier.TaxID == "" {
		return &model.ValidationError{Field: "supplier.taxID", Message: "missing"}
	}
	if inv.Buyer.Name == "" {
		return &model.ValidationError{Field: "buyer.name", Message: "missing"}
	}
	if n := len(inv.Buyer.TaxID); n != 10 && n != 11 {
		return &model.ValidationError{Field: "buyer.taxID", Message: "must be 10 or 11 digits"}
	}
	if len(inv.Lines) == 0 {
		return &model.ValidationError{Field: "lines", Message: "invoice has no lines"}
	}
	if inv.Profile != model.ProfileEInvoice && inv.Profile != model.ProfileEArchive {
		return &model.ValidationError{Field: "profile", Message: "unknown document profile"}
	}
	if _, err := model.ParseLegalNumber(inv.LegalNumber); err != nil {
		return &model.ValidationError{Field: "legalNumber", Message: err.Error()}
	}
	return nil
}

func (c *Compiler) signatureBlock(root *etree.Element) {
	sig := root.CreateElement("cac:Signature")
	id := text(sig, "cbc:ID", c.SignatoryTaxID)
	id.CreateAttr("schemeID", "VKN_TCKN")

	party := sig.CreateElement("cac:SignatoryParty")
	pid := party.CreateElement("cac:PartyIdentification")
	text(pid, "cbc:ID", c.SignatoryTaxID).CreateAttr("schemeID", "VKN")
	addr := party.CreateElement("cac:PostalAddress")
	text(addr, "cbc:CityName", c.SignatoryCity)
	text(addr.CreateElement("cac:Country"), "cbc:Name", c.SignatoryCountry)

	att := sig.CreateElement("cac:DigitalSignatureAttachment")
	text(att.CreateElement("cac:ExternalReference"), "cbc:URI", "#Signature")
}

func (c *Compiler) dispatchNote(root *etree.Element, issueDate string) {
	ref := root.CreateElement("cac:AdditionalDocumentReference")
	text(ref, "cbc:ID", "İrsaliye yerine geçer.").CreateAttr("schemeID", "XSLTDISPATCH")
	text(ref, "cbc:IssueDate", issueDate)
}

func (c *Compiler) supplierParty(root *etree.Element, p model.Party) {
	party := root.CreateElement("cac:AccountingSupplierParty").CreateElement("cac:Party")
	if p.Website != "" {
		text(party, "cbc:WebsiteURI", p.Website)
	}
	pid := party.CreateElement("cac:PartyIdentification")
	text(pid, "cbc:ID", p.TaxID).CreateAttr("schemeID", "VKN")
	text(party.CreateElement("cac:PartyName"), "cbc:Name", p.Name)
	c.postalAddress(party, p.Address)
	if p.TaxOffice != "" {
		scheme := party.CreateElement("cac:PartyTaxScheme").CreateElement("cac:TaxScheme")
		text(scheme, "cbc:Name", p.TaxOffice)
	}
	c.contact(party, p)
}

func (c *Compiler) customerParty(root *etree.Element, inv *model.InvoiceSnapshot) {
	p := inv.Buyer
	party := root.CreateElement("cac:AccountingCustomerParty").CreateElement("cac:Party")

	scheme := "VKN"
	if p.NaturalPerson() {
		scheme = "TCKN"
	}
	pid := party.CreateElement("cac:PartyIdentification")
	text(pid, "cbc:ID", p.TaxID).CreateAttr("schemeID", scheme)
	text(party.CreateElement("cac:PartyName"), "cbc:Name", p.Name)
	c.postalAddress(party, p.Address)

	if p.NaturalPerson() {
		first, family := splitPersonName(p.Name)
		person := party.CreateElement("cac:Person")
		text(person, "cbc:FirstName", first)
		text(person, "cbc:FamilyName", family)
	}

	// The archive variant omits the buyer tax office block.
	if p.TaxOffice != "" && inv.Profile != model.ProfileEArchive {
		s := party.CreateElement("cac:PartyTaxScheme").CreateElement("cac:TaxScheme")
		text(s, "cbc:Name", p.TaxOffice)
	}
	c.contact(party, p)
}

func (c *Compiler) postalAddress(party *etree.Element, a model.Address) {
	addr := party.CreateElement("cac:PostalAddress")
	if a.Street != "" {
		text(addr, "cbc:StreetName", a.Street)
	}
	city := a.City
	if city == "" {
		city = "İstanbul"
	}
	text(addr, "cbc:CityName", city)
	district := a.District
	if district == "" {
		district = city
	}
	text(addr, "cbc:CitySubdivisionName", district)
	if a.PostalCode != "" {
		text(addr, "cbc:PostalZone", a.PostalCode)
	}
	country := a.Country
	if country == "" {
		country = "Türkiye"
	}
	text(addr.CreateElement("cac:Country"), "cbc:Name", country)
}

func (c *Compiler) contact(party *etree.Element, p model.Party) {
	if p.Phone == "" && p.Email == "" {
		return
	}
	contact := party.CreateElement("cac:Contact")
	if p.Phone != "" {
		text(contact, "cbc:Telephone", p.Phone)
	}
	if p.Email != "" {
		text(contact, "cbc:ElectronicMail", p.Email)
	}
}

type taxGroup struct {
	rate   decimal.Decimal
	base   decimal.Decimal
	amount decimal.Decimal
}

// TaxGroups re-sums line bases and tax amounts grouped by distinct tax
// rate, ordered by ascending rate. The authority validates these
// grouped totals independently of line level rounding.
func TaxGroups(lines []model.Line) []struct {
	Rate, Base, Amount decimal.Decimal
} {
	byRate := map[string]*taxGroup{}
	var order []string
	for _, line := range lines {
		key := line.TaxRate.String()
		g, ok := byRate[key]
		if !ok {
			g = &taxGroup{rate: line.TaxRate}
			byRate[key] = g
			order = append(order, key)
		}
		g.base = g.base.Add(line.Base())
		g.amount = g.amount.Add(line.Tax())
	}
	sort.Slice(order, func(i, j int) bool {
		return byRate[order[i]].rate.LessThan(byRate[order[j]].rate)
	})
	out := make([]struct{ Rate, Base, Amount decimal.Decimal }, 0, len(order))
	for _, key := range order {
		g := byRate[key]
		out = append(out, struct{ Rate, Base, Amount decimal.Decimal }{g.rate, g.base, g.amount})
	}
	return out
}

func (c *Compiler) taxTotal(root *etree.Element, inv *model.InvoiceSnapshot, currency string) {
	groups := TaxGroups(inv.Lines)

	total := decimal.Zero
	for _, g := range groups {
		total = total.Add(g.Amount)
	}

	tt := root.CreateElement("cac:TaxTotal")
	amount(tt, "cbc:TaxAmount", total, currency)
	for _, g := range groups {
		sub := tt.CreateElement("cac:TaxSubtotal")
		amount(sub, "cbc:TaxableAmount", g.Base, currency)
		amount(sub, "cbc:TaxAmount", g.Amount, currency)
		cat := sub.CreateElement("cac:TaxCategory")
		text(cat, "cbc:Percent", g.Rate.StringFixed(2))
		scheme := cat.CreateElement("cac:TaxScheme")
		text(scheme, "cbc:Name", taxSchemeName)
		text(scheme, "cbc:TaxTypeCode", taxTypeCode)
	}
}

func (c *Compiler) monetaryTotal(root *etree.Element, inv *model.InvoiceSnapshot, currency string) {
	mt := root.CreateElement("cac:LegalMonetaryTotal")
	amount(mt, "cbc:LineExtensionAmount", inv.Subtotal, currency)
	if inv.DiscountTotal.IsPositive() {
		amount(mt, "cbc:AllowanceTotalAmount", inv.DiscountTotal, currency)
	}
	amount(mt, "cbc:TaxExclusiveAmount", inv.Subtotal, currency)
	amount(mt, "cbc:TaxInclusiveAmount", inv.GrandTotal, currency)
	amount(mt, "cbc:PayableAmount", inv.GrandTotal, currency)
}

func (c *Compiler) invoiceLine(root *etree.Element, line model.Line, number int, currency string) {
	el := root.CreateElement("cac:InvoiceLine")
	text(el, "cbc:ID", decimal.NewFromInt(int64(number)).String())
	qty := text(el, "cbc:InvoicedQuantity", line.Quantity.StringFixed(2))
	qty.CreateAttr("unitCode", UnitCode(line.Unit))
	amount(el, "cbc:LineExtensionAmount", line.Base(), currency)

	item := el.CreateElement("cac:Item")
	text(item, "cbc:Name", line.Name)
	if line.CommodityCode != "" {
		cls := item.CreateElement("cac:CommodityClassification")
		code := text(cls, "cbc:ItemClassificationCode", line.CommodityCode)
		code.CreateAttr("listID", "GTIP")
	}

	price := el.CreateElement("cac:Price")
	amount(price, "cbc:PriceAmount", line.UnitPrice, currency)

	if line.TaxRate.IsPositive() {
		tt := el.CreateElement("cac:TaxTotal")
		amount(tt, "cbc:TaxAmount", line.Tax(), currency)
		sub := tt.CreateElement("cac:TaxSubtotal")
		amount(sub, "cbc:TaxableAmount", line.Base(), currency)
		amount(sub, "cbc:TaxAmount", line.Tax(), currency)
		cat := sub.CreateElement("cac:TaxCategory")
		text(cat, "cbc:Percent", line.TaxRate.StringFixed(2))
		scheme := cat.CreateElement("cac:TaxScheme")
		text(scheme, "cbc:Name", taxSchemeName)
		text(scheme, "cbc:TaxTypeCode", taxTypeCode)
	}
}

func text(parent *etree.Element, tag, value string) *etree.Element {
	el := parent.CreateElement(tag)
	el.SetText(value)
	return el
}

func amount(parent *etree.Element, tag string, v decimal.Decimal, currency string) *etree.Element {
	el := text(parent, tag, v.StringFixed(2))
	el.CreateAttr("currencyID", currency)
	return el
}

func splitPersonName(name string) (first, family string) {
	parts := strings.Fields(name)
	if len(parts) < 2 {
		return name, ""
	}
	return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
}
