// Package config holds per tenant provider configuration: credentials,
// endpoint and the configurable series codes for each document profile.
package config

import (
	"strings"
	"time"

	"github.com/denizsoft/go-efatura/efatura/model"
)

// ProviderKind names one of the two supported clearinghouse providers.
type ProviderKind string

const (
	ProviderVeriban ProviderKind = "veriban"
	ProviderELogo   ProviderKind = "elogo"
)

const (
	defaultSeriesEInvoice = "FAT"
	defaultSeriesEArchive = "EAR"
)

// Tenant is the provider configuration of one company. Read only for
// the transmission core; maintained elsewhere.
type Tenant struct {
	Provider ProviderKind
	Endpoint string // e-invoice webservice URL
	// ArchiveEndpoint is the separate archive transfer endpoint; falls
	// back to Endpoint when empty.
	ArchiveEndpoint string
	Username        string
	Password        string
	Active          bool

	SeriesEInvoice string // 3 letter series for the basic profile
	SeriesEArchive string // 3 letter series for the archive profile

	Timeout time.Duration // per call, 60s when zero
}

// Series returns the configured series code for a profile, normalized
// to 3 upper case characters, defaulting per profile when unset or
// malformed. The two profiles use distinct series because their
// provider side number spaces are independent.
func (t Tenant) Series(profile model.DocumentProfile) string {
	s := t.SeriesEInvoice
	def := defaultSeriesEInvoice
	if profile == model.ProfileEArchive {
		s = t.SeriesEArchive
		def = defaultSeriesEArchive
	}
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) > 3 {
		s = s[:3]
	}
	if len(s) != 3 {
		return def
	}
	return s
}

// EndpointFor returns the webservice URL to use for a profile.
func (t Tenant) EndpointFor(profile model.DocumentProfile) string {
	if profile == model.ProfileEArchive && t.ArchiveEndpoint != "" {
		return t.ArchiveEndpoint
	}
	return t.Endpoint
}

// CallTimeout returns the outbound call timeout, the only interruption
// mechanism for a provider call.
func (t Tenant) CallTimeout() time.Duration {
	if t.Timeout <= 0 {
		return 60 * time.Second
	}
	return t.Timeout
}
