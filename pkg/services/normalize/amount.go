// Package normalize turns raw table cells into validated line items.
package normalize

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// notReportedMarkers are cell values that mean "no value for this period".
// They are distinct from a financial zero and must never be converted to 0.
var notReportedMarkers = map[string]struct{}{
	"":    {},
	"-":   {},
	"–":   {},
	"—":   {},
	"na":  {},
	"n/a": {},
}

// suffixMultipliers handle compact scale suffixes occasionally seen in
// scraped cells, e.g. "1.2M".
var suffixMultipliers = map[byte]int64{
	'k': 1_000,
	'm': 1_000_000,
	'b': 1_000_000_000,
}

// ParseAmount parses a raw numeric cell. Currency symbols and thousands
// separators are stripped, a parenthesized value is negative, and a
// trailing k/m/b suffix scales the value. reported=false means the cell
// carries no value for the period (blank or dash); that is not an error.
func ParseAmount(cell string) (amount decimal.Decimal, reported bool, err error) {
	v := strings.TrimSpace(cell)
	if _, ok := notReportedMarkers[strings.ToLower(v)]; ok {
		return decimal.Decimal{}, false, nil
	}

	for _, sym := range []string{"$", "€", "£", "¥"} {
		v = strings.ReplaceAll(v, sym, "")
	}
	v = strings.ReplaceAll(v, ",", "")
	v = strings.ReplaceAll(v, " ", "")

	negative := false
	if strings.HasPrefix(v, "(") && strings.HasSuffix(v, ")") {
		negative = true
		v = v[1 : len(v)-1]
	}

	if _, ok := notReportedMarkers[strings.ToLower(v)]; ok {
		return decimal.Decimal{}, false, nil
	}

	var multiplier int64 = 1
	if len(v) > 1 {
		if m, ok := suffixMultipliers[lower(v[len(v)-1])]; ok {
			multiplier = m
			v = v[:len(v)-1]
		}
	}

	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("not a numeric cell: %q", cell)
	}
	if multiplier != 1 {
		d = d.Mul(decimal.NewFromInt(multiplier))
	}
	if negative {
		d = d.Neg()
	}
	return d, true, nil
}

// IsNumericCell reports whether the cell parses to a numeric value. Blank
// and dash cells are not numeric.
func IsNumericCell(cell string) bool {
	_, reported, err := ParseAmount(cell)
	return err == nil && reported
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
