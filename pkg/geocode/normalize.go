package geocode

import (
	"regexp"
	"strings"
)

var (
	cepRe        = regexp.MustCompile(`\b\d{5}-?\d{3}\b`)
	multiDashRe  = regexp.MustCompile(`-{2,}`)
	multiSpaceRe = regexp.MustCompile(`\s+`)
)

// corrections fixes recurring data-entry mistakes seen in the source
// spreadsheet. Applied after whitespace/separator collapsing, in order.
var corrections = [...][2]string{
	{"SALVADOR - BAHIA", "Salvador - BA"},
	{"SIMOES FILHO", "Simões Filho"},
	{"CAMACARI", "Camaçari"},
}

// CleanAddress normalizes a raw address: trims, collapses runs of dashes
// and whitespace, and applies the correction table. Empty or blank input
// yields "".
func CleanAddress(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = multiDashRe.ReplaceAllString(s, "-")
	s = multiSpaceRe.ReplaceAllString(s, " ")
	for _, c := range corrections {
		s = strings.ReplaceAll(s, c[0], c[1])
	}
	return s
}

// ExtractCEP returns the first 5+3 digit postal code substring in s, or "".
// The match is purely syntactic; the code is not validated for existence.
func ExtractCEP(s string) string {
	return cepRe.FindString(s)
}

// digitsOnly strips everything but ASCII digits.
func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
