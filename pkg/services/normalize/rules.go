package normalize

import (
	"strings"

	"github.com/de-tools/statement-atlas/pkg/models/domain"
)

// CategoryRule maps a label substring to a category. Rules are ordered;
// the first match wins.
type CategoryRule struct {
	Pattern  string
	Category domain.Category
}

// DefaultRules returns the ordered keyword-to-category rules for balance
// sheet line items. More specific patterns come first so that, for
// example, "deferred revenue" is classified before the generic "revenue"
// vocabulary can interfere.
func DefaultRules() []CategoryRule {
	return []CategoryRule{
		// Liabilities
		// The combined grand total sits at the bottom of the equity
		// section; it must not be mistaken for the liabilities total.
		{"total liabilities and", domain.CategoryEquity},

		{"accounts payable", domain.CategoryLiability},
		{"accrued", domain.CategoryLiability},
		{"deferred revenue", domain.CategoryLiability},
		{"operating lease liabilit", domain.CategoryLiability},
		{"finance lease liabilit", domain.CategoryLiability},
		{"debt", domain.CategoryLiability},
		{"notes payable", domain.CategoryLiability},
		{"total liabilities", domain.CategoryLiability},

		// Equity
		{"common stock", domain.CategoryEquity},
		{"preferred stock", domain.CategoryEquity},
		{"treasury stock", domain.CategoryEquity},
		{"additional paid-in capital", domain.CategoryEquity},
		{"accumulated other comprehensive", domain.CategoryEquity},
		{"accumulated deficit", domain.CategoryEquity},
		{"retained earnings", domain.CategoryEquity},
		{"noncontrolling interest", domain.CategoryEquity},
		{"stockholders' equity", domain.CategoryEquity},
		{"shareholders' equity", domain.CategoryEquity},

		// Assets
		{"cash and cash equivalents", domain.CategoryAsset},
		{"restricted cash", domain.CategoryAsset},
		{"investment", domain.CategoryAsset},
		{"receivable", domain.CategoryAsset},
		{"prepaid", domain.CategoryAsset},
		{"deferred commissions", domain.CategoryAsset},
		{"property and equipment", domain.CategoryAsset},
		{"right-of-use", domain.CategoryAsset},
		{"goodwill", domain.CategoryAsset},
		{"intangible", domain.CategoryAsset},
		{"total assets", domain.CategoryAsset},
	}
}

// sectionFor recognizes section boundary rows ("Assets",
// "Current liabilities:") that set the carrying category for the rows
// below them. ok=false means the row is a regular line item.
func sectionFor(label string) (domain.Category, bool) {
	l := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(label), ":"))
	switch {
	case l == "assets" || l == "current assets" || strings.HasSuffix(l, " assets"):
		return domain.CategoryAsset, true
	case l == "liabilities" || l == "current liabilities" || strings.HasSuffix(l, " liabilities"):
		return domain.CategoryLiability, true
	case l == "stockholders' equity" || l == "shareholders' equity" ||
		l == "liabilities and stockholders' equity" || l == "liabilities and shareholders' equity":
		return domain.CategoryEquity, true
	}
	return "", false
}

// classify applies the ordered rules, falling back to the carrying
// section. review=true flags a label that matched nothing.
func classify(label string, rules []CategoryRule, section domain.Category) (cat domain.Category, review bool) {
	l := strings.ToLower(label)
	for _, r := range rules {
		if strings.Contains(l, r.Pattern) {
			return r.Category, false
		}
	}
	if section != "" {
		return section, false
	}
	return domain.CategoryUnclassified, true
}
