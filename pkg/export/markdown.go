package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/de-tools/statement-atlas/pkg/models/domain"
)

// WriteMarkdown renders one table per record set for human review,
// with a scale footnote under each table.
func WriteMarkdown(path string, sets []domain.StatementRecordSet) error {
	var b strings.Builder

	b.WriteString("# Balance Sheet\n")
	if len(sets) > 0 && sets[0].SourceURL != "" {
		fmt.Fprintf(&b, "\nSource: %s\n", sets[0].SourceURL)
	}

	for _, rs := range sets {
		fmt.Fprintf(&b, "\n## %s\n\n", rs.Period)
		b.WriteString("| Line Item | Category | Amount |\n")
		b.WriteString("| --- | --- | ---: |\n")
		for _, it := range rs.Items {
			label := it.Label
			if it.IsTotal {
				label = "**" + label + "**"
			}
			fmt.Fprintf(&b, "| %s | %s | %s |\n", label, it.Category, groupDigits(it.Amount))
		}
		if rs.Scale != domain.ScaleUnits && rs.Scale != 0 {
			fmt.Fprintf(&b, "\n_Amounts in %s._\n", rs.Scale)
		}
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return &domain.WriteError{Path: path, Err: err}
	}
	return nil
}

// groupDigits renders a decimal with thousands separators, the way the
// amounts appear in the filing itself.
func groupDigits(d decimal.Decimal) string {
	s := d.String()
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(fracPart)
	}
	return b.String()
}
