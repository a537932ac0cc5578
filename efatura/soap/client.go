// Package soap implements the session based XML remote procedure
// transport the clearinghouse providers speak: HTTPS POST with an
// action header, a soapenv envelope and tolerant response parsing.
package soap

import (
	"context"
	"fmt"
	"time"

	"github.com/beevik/etree"
	"github.com/go-faster/errors"
	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"

	"github.com/denizsoft/go-efatura/efatura/util"
)

const (
	envelopeNS = "http://schemas.xmlsoap.org/soap/envelope/"
	serviceNS  = "http://tempuri.org/"
)

type Client interface {
	Call(ctx context.Context, action string, body *etree.Element) (*Response, error)
}

type client struct {
	rest     *resty.Client
	endpoint string
}

// New creates a transport bound to one webservice endpoint. The
// timeout is the only interruption mechanism for an outbound call.
func New(endpoint string, timeout time.Duration) Client {
	rest := resty.New().SetTimeout(timeout)
	return &client{rest: rest, endpoint: endpoint}
}

// NewRequest builds the action element for a call body. Children are
// added by the caller in wire order; .NET SOAP services are sensitive
// to element ordering.
func NewRequest(action string) *etree.Element {
	el := etree.NewElement("tem:" + action)
	return el
}

// Text appends a child element with escaped text content.
func Text(parent *etree.Element, tag, value string) *etree.Element {
	el := parent.CreateElement("tem:" + tag)
	el.SetText(value)
	return el
}

// Bool appends a child with the lowercase boolean form the services
// expect.
func Bool(parent *etree.Element, tag string, v bool) *etree.Element {
	return Text(parent, tag, fmt.Sprintf("%t", v))
}

// Nil appends an explicitly nilled child element.
func Nil(parent *etree.Element, tag string) *etree.Element {
	el := parent.CreateElement("tem:" + tag)
	el.CreateAttr("xsi:nil", "true")
	el.CreateAttr("xmlns:xsi", "http://www.w3.org/2001/XMLSchema-instance")
	return el
}

func (c *client) Call(ctx context.Context, action string, body *etree.Element) (*Response, error) {
	payload, err := envelope(body)
	if err != nil {
		return nil, errors.Wrap(err, "build envelope")
	}

	r := c.rest.R().SetContext(ctx)
	if util.HttpTraceEnabled() {
		r.EnableTrace()
	}

	resp, err := r.
		SetBody(payload).
		SetHeader("Content-Type", "text/xml; charset=utf-8").
		SetHeader("SOAPAction", action).
		Post(c.endpoint)

	if err != nil {
		return nil, &RequestError{Action: action, Err: err}
	}

	log.WithFields(log.Fields{
		"component": "efatura.soap",
		"action":    action,
		"status":    resp.StatusCode(),
		"time":      resp.Time(),
	}).Debug("provider call completed")

	if resp.IsError() {
		return nil, &RequestError{
			Action:     action,
			StatusCode: resp.StatusCode(),
			Body:       resp.String(),
		}
	}

	parsed, err := Parse(resp.Body())
	if err != nil {
		return nil, err
	}
	if fault := parsed.Fault(); fault != nil {
		return nil, fault
	}
	return parsed, nil
}

func envelope(body *etree.Element) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)

	env := doc.CreateElement("soapenv:Envelope")
	env.CreateAttr("xmlns:soapenv", envelopeNS)
	env.CreateAttr("xmlns:tem", serviceNS)
	env.CreateElement("soapenv:Header")
	env.CreateElement("soapenv:Body").AddChild(body)

	return doc.WriteToBytes()
}
