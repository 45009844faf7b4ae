// Package numparse turns Vietnamese and international formatted number
// text into exact decimals.
//
// Vietnamese pages write "80.000.000" and "1.234,56"; international ones
// write "2,029.81". Both appear on the same sites, sometimes on the same page.
package numparse

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// SanitizeVN parses formatted number text. Anything other than digits,
// '.' and ',' is dropped first. It reports false when the text carries no
// digits or the separators are ambiguous (a comma after the only dot).
//
//	"25.500.000,50" -> 25500000.50
//	"2,029.81"      -> 2029.81
//	"80.000.000"    -> 80000000
func SanitizeVN(text string) (decimal.Decimal, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == '.' || r == ',' {
			return r
		}
		return -1
	}, strings.TrimSpace(text))
	if cleaned == "" {
		return decimal.Zero, false
	}

	dots := strings.Count(cleaned, ".")
	commas := strings.Count(cleaned, ",")

	switch {
	case commas == 0 && dots >= 2:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	case commas >= 1 && dots == 1:
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			return decimal.Zero, false
		}
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case commas == 1 && dots == 0:
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	case commas == 0 && dots == 1:
	case commas >= 2:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	default:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParseListing parses short listing figures such as "180,9" (tr/m2) or
// "1.200". A lone dot followed by exactly three digits is a thousands
// separator; otherwise it is the decimal point.
func ParseListing(raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	hasComma := strings.Contains(raw, ",")
	hasDot := strings.Contains(raw, ".")

	switch {
	case hasComma && hasDot:
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.ReplaceAll(raw, ",", ".")
	case hasComma:
		raw = strings.ReplaceAll(raw, ",", ".")
	case hasDot:
		parts := strings.Split(raw, ".")
		if len(parts) == 2 && len(parts[1]) == 3 {
			raw = strings.ReplaceAll(raw, ".", "")
		}
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
