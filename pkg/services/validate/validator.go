package validate

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/de-tools/statement-atlas/pkg/models/domain"
)

// Warning codes. The first two fail validation; the rest are advisory.
const (
	CodeMissingCategory   = "missing-category"
	CodeIdentityMismatch  = "identity-mismatch"
	CodeIdentityUnchecked = "identity-unchecked"
	CodeDuplicateItem     = "duplicate-line-item"
	CodePeriodSwing       = "period-swing"
	CodeNegativeBalance   = "negative-balance"
)

// Settings configure validation thresholds.
type Settings struct {
	// Tolerance is the maximum accepted identity gap, in the record
	// set's scale units. Rounding in filings makes exact equality rare.
	Tolerance decimal.Decimal
	// MaxPeriodChange flags a line item whose value moved by more than
	// this multiple between periods. Catches scale detection errors.
	MaxPeriodChange decimal.Decimal
	// RestatementMarkers suppress the duplicate check for labels that
	// legitimately repeat.
	RestatementMarkers []string
}

func DefaultSettings() Settings {
	return Settings{
		Tolerance:          decimal.NewFromInt(1),
		MaxPeriodChange:    decimal.NewFromInt(10),
		RestatementMarkers: []string{"restated", "as adjusted"},
	}
}

// Result reports the outcome of validating one statement's record sets.
// Warnings are advisory and never change the process exit code.
type Result struct {
	Passed   bool
	Warnings []domain.ValidationWarning
}

// Validator checks extracted record sets against accounting invariants.
// It never mutates its input.
type Validator struct {
	settings Settings
}

func NewValidator(settings Settings) *Validator {
	return &Validator{settings: settings}
}

// Validate runs every check over every record set, plus the cross-period
// swing check between consecutive sets.
func (v *Validator) Validate(ctx context.Context, sets []domain.StatementRecordSet) Result {
	res := Result{Passed: true}

	for i := range sets {
		v.checkCategories(&res, &sets[i])
		v.checkIdentity(&res, &sets[i])
		v.checkDuplicates(&res, &sets[i])
		v.checkNegatives(&res, &sets[i])
	}
	for i := 0; i+1 < len(sets); i++ {
		v.checkPeriodSwing(&res, &sets[i], &sets[i+1])
	}

	logger := zerolog.Ctx(ctx)
	for _, w := range res.Warnings {
		logger.Warn().Str("code", w.Code).Msg(w.Detail)
	}
	return res
}

func (v *Validator) warn(res *Result, code, format string, args ...any) {
	res.Warnings = append(res.Warnings, domain.ValidationWarning{
		Code:   code,
		Detail: fmt.Sprintf(format, args...),
	})
	if code == CodeMissingCategory || code == CodeIdentityMismatch {
		res.Passed = false
	}
}

func (v *Validator) checkCategories(res *Result, rs *domain.StatementRecordSet) {
	required := []domain.Category{
		domain.CategoryAsset, domain.CategoryLiability, domain.CategoryEquity,
	}
	for _, cat := range required {
		found := false
		for _, it := range rs.Items {
			if it.Category == cat {
				found = true
				break
			}
		}
		if !found {
			v.warn(res, CodeMissingCategory, "period %s has no %s line items", rs.Period, cat)
		}
	}
}

// checkIdentity verifies assets = liabilities + equity within tolerance.
// The combined bottom row ("total liabilities and stockholders' equity")
// is not the equity total; when present it is checked against total
// assets directly.
func (v *Validator) checkIdentity(res *Result, rs *domain.StatementRecordSet) {
	assets, haveAssets := rs.TotalFor(domain.CategoryAsset)
	liabilities, haveLiabilities := rs.TotalFor(domain.CategoryLiability)

	var equity, combined decimal.Decimal
	haveEquity, haveCombined := false, false
	for _, it := range rs.Items {
		if it.Category != domain.CategoryEquity || !it.IsTotal {
			continue
		}
		if strings.Contains(strings.ToLower(it.Label), "total liabilities and") {
			combined, haveCombined = it.Amount, true
		} else {
			equity, haveEquity = it.Amount, true
		}
	}

	checked := false
	if haveAssets && haveLiabilities && haveEquity {
		checked = true
		if gap := assets.Sub(liabilities.Add(equity)).Abs(); gap.GreaterThan(v.settings.Tolerance) {
			v.warn(res, CodeIdentityMismatch,
				"period %s: assets %s != liabilities %s + equity %s (gap %s)",
				rs.Period, assets, liabilities, equity, gap)
		}
	}
	if haveAssets && haveCombined {
		checked = true
		if gap := assets.Sub(combined).Abs(); gap.GreaterThan(v.settings.Tolerance) {
			v.warn(res, CodeIdentityMismatch,
				"period %s: assets %s != combined total %s (gap %s)",
				rs.Period, assets, combined, gap)
		}
	}
	if !checked {
		v.warn(res, CodeIdentityUnchecked,
			"period %s: not enough totals to check the accounting identity", rs.Period)
	}
}

func (v *Validator) checkDuplicates(res *Result, rs *domain.StatementRecordSet) {
	type key struct {
		cat   domain.Category
		label string
	}
	seen := map[key]bool{}
	for _, it := range rs.Items {
		if v.isRestatement(it.Label) {
			continue
		}
		k := key{cat: it.Category, label: strings.ToLower(it.Label)}
		if seen[k] {
			v.warn(res, CodeDuplicateItem,
				"period %s: %q appears more than once under %s", rs.Period, it.Label, it.Category)
		}
		seen[k] = true
	}
}

func (v *Validator) isRestatement(label string) bool {
	l := strings.ToLower(label)
	for _, marker := range v.settings.RestatementMarkers {
		if strings.Contains(l, marker) {
			return true
		}
	}
	return false
}

// positiveAccountMarkers name accounts that are negative only when
// something went wrong upstream, usually a sign flip in parsing.
var positiveAccountMarkers = []string{"cash", "receivable", "prepaid"}

func (v *Validator) checkNegatives(res *Result, rs *domain.StatementRecordSet) {
	for _, it := range rs.Items {
		if !it.Amount.IsNegative() {
			continue
		}
		l := strings.ToLower(it.Label)
		for _, marker := range positiveAccountMarkers {
			if strings.Contains(l, marker) {
				v.warn(res, CodeNegativeBalance,
					"period %s: %q is negative (%s)", rs.Period, it.Label, it.Amount)
				break
			}
		}
	}
}

// checkPeriodSwing compares matching line items across two consecutive
// periods and flags moves beyond the configured multiple.
func (v *Validator) checkPeriodSwing(res *Result, current, prior *domain.StatementRecordSet) {
	type key struct {
		cat   domain.Category
		label string
	}
	priorAmounts := map[key]decimal.Decimal{}
	for _, it := range prior.Items {
		priorAmounts[key{it.Category, strings.ToLower(it.Label)}] = it.Amount
	}

	for _, it := range current.Items {
		prev, ok := priorAmounts[key{it.Category, strings.ToLower(it.Label)}]
		if !ok || prev.IsZero() || it.Amount.IsZero() {
			continue
		}
		ratio := it.Amount.Abs().Div(prev.Abs())
		if ratio.GreaterThan(v.settings.MaxPeriodChange) ||
			ratio.LessThan(decimal.NewFromInt(1).Div(v.settings.MaxPeriodChange)) {
			v.warn(res, CodePeriodSwing,
				"%q moved from %s (%s) to %s (%s), more than %sx",
				it.Label, prev, prior.Period, it.Amount, current.Period, v.settings.MaxPeriodChange)
		}
	}
}
