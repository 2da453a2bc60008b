package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category classifies a balance sheet line item.
type Category string

const (
	CategoryAsset        Category = "Assets"
	CategoryLiability    Category = "Liabilities"
	CategoryEquity       Category = "Stockholders' Equity"
	CategoryUnclassified Category = "Unclassified"
)

// Scale is the multiplier implied by the raw numeric cells of a statement,
// e.g. "in thousands" means every cell is expressed in units of 1,000.
type Scale int64

const (
	ScaleUnits     Scale = 1
	ScaleThousands Scale = 1_000
	ScaleMillions  Scale = 1_000_000
	ScaleBillions  Scale = 1_000_000_000
)

// String returns the conventional statement footnote label for the scale.
func (s Scale) String() string {
	switch s {
	case ScaleThousands:
		return "thousands"
	case ScaleMillions:
		return "millions"
	case ScaleBillions:
		return "billions"
	default:
		return "units"
	}
}

// Factor returns the scale multiplier as an exact decimal.
func (s Scale) Factor() decimal.Decimal {
	return decimal.NewFromInt(int64(s))
}

// ParseScale maps a user-facing scale name ("thousands", "millions", ...)
// to a Scale. Unknown names report ok=false.
func ParseScale(name string) (Scale, bool) {
	switch name {
	case "units", "":
		return ScaleUnits, true
	case "thousands":
		return ScaleThousands, true
	case "millions":
		return ScaleMillions, true
	case "billions":
		return ScaleBillions, true
	default:
		return ScaleUnits, false
	}
}

// LineItem is a single financial statement row for one reporting period.
// Immutable once created by the normalizer.
type LineItem struct {
	Label    string
	Amount   decimal.Decimal
	Period   string
	Category Category
	IsTotal  bool
	// NeedsReview marks items whose label matched no category rule. They
	// are kept as Unclassified rather than dropped.
	NeedsReview bool
}

// StatementRecordSet is an ordered collection of line items extracted from
// one statement page for one reporting period.
type StatementRecordSet struct {
	Period      string
	SourceURL   string
	SourceFile  string
	Scale       Scale
	ExtractedAt time.Time
	Items       []LineItem
}

// TotalFor returns the top-level total for the given category and whether
// one was found. "Top-level" means the last total row of the category,
// which on a balance sheet is the section grand total.
func (rs *StatementRecordSet) TotalFor(cat Category) (decimal.Decimal, bool) {
	var total decimal.Decimal
	found := false
	for _, it := range rs.Items {
		if it.Category == cat && it.IsTotal {
			total = it.Amount
			found = true
		}
	}
	return total, found
}
