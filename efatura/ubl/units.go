package ubl

import "strings"

// DefaultUnitCode is the generic "piece" code used when a unit string
// cannot be mapped to the authority's coded vocabulary.
const DefaultUnitCode = "C62"

// Codes already in the authority vocabulary pass through unchanged.
var knownUnitCodes = map[string]struct{}{
	"C62": {}, "MTR": {}, "MTK": {}, "MTQ": {},
	"KGM": {}, "GRM": {}, "LTR": {}, "MLT": {},
	"HUR": {}, "DAY": {}, "MON": {}, "WEE": {},
	"PA": {}, "CT": {}, "PK": {}, "SET": {},
	"TNE": {}, "BG": {}, "BX": {}, "EA": {},
	"PC": {}, "PR": {}, "TU": {}, "BO": {},
	"CN": {}, "DZN": {}, "GRO": {}, "ANN": {},
}

// Free-form unit names as they appear in invoice records.
var unitNames = map[string]string{
	"adet":      "C62",
	"kilogram":  "KGM",
	"gram":      "GRM",
	"metre":     "MTR",
	"metrekare": "MTK",
	"metreküp":  "MTQ",
	"litre":     "LTR",
	"mililitre": "MLT",
	"paket":     "PA",
	"kutu":      "CT",
	"saat":      "HUR",
	"gün":       "DAY",
	"hafta":     "WEE",
	"ay":        "MON",
	"yıl":       "ANN",
	"kg":        "KGM",
	"g":         "GRM",
	"m":         "MTR",
	"m2":        "MTK",
	"m3":        "MTQ",
	"lt":        "LTR",
	"ml":        "MLT",
	"ton":       "TNE",
	"takım":     "SET",
}

// UnitCode normalizes a unit-of-measure string to the authority coded
// vocabulary, defaulting to DefaultUnitCode when unrecognized.
func UnitCode(unit string) string {
	unit = strings.TrimSpace(unit)
	if unit == "" {
		return DefaultUnitCode
	}
	if _, ok := knownUnitCodes[strings.ToUpper(unit)]; ok {
		return strings.ToUpper(unit)
	}
	if code, ok := unitNames[strings.ToLower(unit)]; ok {
		return code
	}
	return DefaultUnitCode
}
