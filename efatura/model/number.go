package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// LegalNumber is the authority mandated document number: a 3 character
// series, a 4 digit year and a 9 digit zero padded sequence, 16
// characters in total. Once the document has been transmitted the
// number is immutable.
type LegalNumber struct {
	Series   string
	Year     int
	Sequence int64
}

const legalNumberLen = 16

var seriesPattern = regexp.MustCompile(`^[A-Z0-9]{3}$`)

// NewLegalNumber builds a number from its parts, validating the series.
func NewLegalNumber(series string, year int, sequence int64) (LegalNumber, error) {
	series = strings.ToUpper(strings.TrimSpace(series))
	if !seriesPattern.MatchString(series) {
		return LegalNumber{}, fmt.Errorf("invalid series %q: must be 3 characters", series)
	}
	if sequence < 1 || sequence > 999999999 {
		return LegalNumber{}, fmt.Errorf("sequence %d out of range", sequence)
	}
	return LegalNumber{Series: series, Year: year, Sequence: sequence}, nil
}

// ParseLegalNumber parses the 16 character wire form.
func ParseLegalNumber(s string) (LegalNumber, error) {
	if len(s) != legalNumberLen {
		return LegalNumber{}, fmt.Errorf("legal number %q: want %d characters, got %d", s, legalNumberLen, len(s))
	}
	series := s[:3]
	if !seriesPattern.MatchString(series) {
		return LegalNumber{}, fmt.Errorf("legal number %q: invalid series", s)
	}
	year, err := strconv.Atoi(s[3:7])
	if err != nil {
		return LegalNumber{}, fmt.Errorf("legal number %q: invalid year", s)
	}
	seq, err := strconv.ParseInt(s[7:], 10, 64)
	if err != nil {
		return LegalNumber{}, fmt.Errorf("legal number %q: invalid sequence", s)
	}
	return LegalNumber{Series: series, Year: year, Sequence: seq}, nil
}

// Prefix returns series+year, the key under which sequences are scanned.
func (n LegalNumber) Prefix() string {
	return fmt.Sprintf("%s%04d", n.Series, n.Year)
}

func (n LegalNumber) String() string {
	return fmt.Sprintf("%s%04d%09d", n.Series, n.Year, n.Sequence)
}
