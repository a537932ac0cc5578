package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/denizsoft/go-efatura/efatura/model"
)

func TestSeries(t *testing.T) {
	cases := []struct {
		name    string
		tenant  Tenant
		profile model.DocumentProfile
		want    string
	}{
		{"default e-invoice", Tenant{}, model.ProfileEInvoice, "FAT"},
		{"default e-archive", Tenant{}, model.ProfileEArchive, "EAR"},
		{"configured", Tenant{SeriesEInvoice: "ABC"}, model.ProfileEInvoice, "ABC"},
		{"lowercase normalized", Tenant{SeriesEInvoice: "abc"}, model.ProfileEInvoice, "ABC"},
		{"whitespace trimmed", Tenant{SeriesEArchive: " xyz "}, model.ProfileEArchive, "XYZ"},
		{"too long truncated", Tenant{SeriesEInvoice: "ABCDEF"}, model.ProfileEInvoice, "ABC"},
		{"too short falls back", Tenant{SeriesEInvoice: "AB"}, model.ProfileEInvoice, "FAT"},
		{"profiles stay apart", Tenant{SeriesEInvoice: "AAA", SeriesEArchive: "BBB"}, model.ProfileEArchive, "BBB"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.tenant.Series(tc.profile))
		})
	}
}

func TestEndpointFor(t *testing.T) {
	tn := Tenant{Endpoint: "https://einv.example.com"}
	assert.Equal(t, "https://einv.example.com", tn.EndpointFor(model.ProfileEInvoice))
	assert.Equal(t, "https://einv.example.com", tn.EndpointFor(model.ProfileEArchive), "archive falls back to the main endpoint")

	tn.ArchiveEndpoint = "https://earc.example.com"
	assert.Equal(t, "https://earc.example.com", tn.EndpointFor(model.ProfileEArchive))
	assert.Equal(t, "https://einv.example.com", tn.EndpointFor(model.ProfileEInvoice))
}

func TestCallTimeout(t *testing.T) {
	assert.Equal(t, 60*time.Second, Tenant{}.CallTimeout())
	assert.Equal(t, 5*time.Second, Tenant{Timeout: 5 * time.Second}.CallTimeout())
}
