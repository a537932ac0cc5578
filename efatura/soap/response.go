package soap

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Response is a parsed provider reply. Field lookup is tolerant by
// contract: the remote schema is loosely versioned, so an absent field
// yields an empty or zero default instead of a parse failure.
type Response struct {
	doc *etree.Document
}

// Parse reads a response document. Only a body that cannot be read as
// XML at all is an error.
func Parse(body []byte) (*Response, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, &UnexpectedResponseError{Message: "response is not well formed XML", Cause: err}
	}
	return &Response{doc: doc}, nil
}

// Text returns the text of the first element with the given local
// name, ignoring namespace prefixes, or "" when absent.
func (r *Response) Text(name string) string {
	el := findLocal(&r.doc.Element, name)
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.Text())
}

// Int returns the integer value of the named field, 0 when absent or
// malformed.
func (r *Response) Int(name string) int {
	v, err := strconv.Atoi(r.Text(name))
	if err != nil {
		return 0
	}
	return v
}

// Bool returns the boolean value of the named field, false when absent.
func (r *Response) Bool(name string) bool {
	return strings.EqualFold(r.Text(name), "true")
}

// Has reports whether the named field is present at all.
func (r *Response) Has(name string) bool {
	return findLocal(&r.doc.Element, name) != nil
}

// Each visits every element with the given local name, in document
// order. Used for list responses.
func (r *Response) Each(name string, fn func(item *Item)) {
	walk(&r.doc.Element, name, func(el *etree.Element) {
		fn(&Item{el: el})
	})
}

// Fault returns the fault carried by the response, or nil. Both
// standard SOAP faults and the providers' own fault markers are
// recognized.
func (r *Response) Fault() error {
	code := r.Int("FaultCode")
	for _, tag := range []string{"FaultDescription", "faultstring", "FaultString"} {
		if msg := r.Text(tag); msg != "" {
			return &FaultError{Code: code, Message: msg}
		}
	}
	if code != 0 {
		return &FaultError{Code: code, Message: CodeMessage(code)}
	}
	return nil
}

// Item is one repeated element of a list response, with the same
// tolerant lookup semantics as Response.
type Item struct {
	el *etree.Element
}

func (i *Item) Text(name string) string {
	el := findLocal(i.el, name)
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.Text())
}

func (i *Item) Int(name string) int {
	v, err := strconv.Atoi(i.Text(name))
	if err != nil {
		return 0
	}
	return v
}

// findLocal searches depth first for an element whose local tag
// matches, regardless of prefix.
func findLocal(el *etree.Element, name string) *etree.Element {
	if el.Tag == name {
		return el
	}
	for _, child := range el.ChildElements() {
		if found := findLocal(child, name); found != nil {
			return found
		}
	}
	return nil
}

func walk(el *etree.Element, name string, fn func(*etree.Element)) {
	if el.Tag == name {
		fn(el)
		return
	}
	for _, child := range el.ChildElements() {
		walk(child, name, fn)
	}
}
