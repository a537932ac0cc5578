package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileFor(t *testing.T) {
	registered := Party{Name: "Acme AS", TaxID: "1234567890", RegisteredAlias: "urn:mail:defaultpk@acme.com.tr"}
	consumer := Party{Name: "Ali Veli", TaxID: "12345678901"}

	assert.Equal(t, ProfileEInvoice, ProfileFor(registered))
	assert.Equal(t, ProfileEArchive, ProfileFor(consumer))
}

func TestPartyNaturalPerson(t *testing.T) {
	assert.True(t, Party{TaxID: "12345678901"}.NaturalPerson())
	assert.False(t, Party{TaxID: "1234567890"}.NaturalPerson())
}

func TestLineTax_DerivedFromGross(t *testing.T) {
	l := Line{
		LineTotal: decimal.RequireFromString("118.00"),
		TaxRate:   decimal.NewFromInt(18),
	}

	assert.Equal(t, "18.00", l.Tax().StringFixed(2))
	assert.Equal(t, "100.00", l.Base().StringFixed(2))
}

func TestLineTax_PrecomputedWins(t *testing.T) {
	l := Line{
		LineTotal: decimal.RequireFromString("118.00"),
		TaxRate:   decimal.NewFromInt(18),
		TaxAmount: decimal.RequireFromString("17.99"),
	}

	assert.Equal(t, "17.99", l.Tax().StringFixed(2))
}

func TestLineTax_ZeroRate(t *testing.T) {
	l := Line{LineTotal: decimal.RequireFromString("50.00")}

	assert.True(t, l.Tax().IsZero())
	assert.Equal(t, "50.00", l.Base().StringFixed(2))
}

func TestNewLegalNumber(t *testing.T) {
	n, err := NewLegalNumber("fat", 2026, 42)
	require.NoError(t, err)

	assert.Equal(t, "FAT2026000000042", n.String())
	assert.Equal(t, "FAT2026", n.Prefix())
}

func TestNewLegalNumber_Invalid(t *testing.T) {
	_, err := NewLegalNumber("TOOLONG", 2026, 1)
	assert.Error(t, err)

	_, err = NewLegalNumber("FAT", 2026, 0)
	assert.Error(t, err)

	_, err = NewLegalNumber("FAT", 2026, 1000000000)
	assert.Error(t, err)
}

func TestParseLegalNumber(t *testing.T) {
	n, err := ParseLegalNumber("EAR2025000001234")
	require.NoError(t, err)

	assert.Equal(t, "EAR", n.Series)
	assert.Equal(t, 2025, n.Year)
	assert.Equal(t, int64(1234), n.Sequence)
}

func TestParseLegalNumber_Invalid(t *testing.T) {
	cases := []string{
		"",
		"FAT2025",
		"FAT2025000000001X",
		"fat2025000000001",
		"FATX025000000001",
	}
	for _, c := range cases {
		_, err := ParseLegalNumber(c)
		assert.Error(t, err, "input %q", c)
	}
}

func TestTransferStatus(t *testing.T) {
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusQueued.Terminal())
	assert.False(t, StatusNone.Terminal())

	assert.True(t, StatusNone.Resubmittable())
	assert.True(t, StatusFailed.Resubmittable())
	assert.True(t, StatusCancelled.Resubmittable())
	assert.False(t, StatusQueued.Resubmittable())
	assert.False(t, StatusProcessing.Resubmittable())
	assert.False(t, StatusDelivered.Resubmittable())
}
