package export

import (
	"os"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/de-tools/statement-atlas/pkg/models/domain"
)

// Record is one CSV row. Column order is part of the output contract;
// downstream loaders index by header name but diffs rely on stability.
type Record struct {
	FiscalQuarter string          `csv:"fiscal_quarter"`
	Category      string          `csv:"category"`
	LineItem      string          `csv:"line_item"`
	Amount        decimal.Decimal `csv:"amount"`
	IsTotal       bool            `csv:"is_total"`
}

// Records flattens record sets into CSV rows, preserving statement order.
func Records(sets []domain.StatementRecordSet) []Record {
	var out []Record
	for _, rs := range sets {
		for _, it := range rs.Items {
			out = append(out, Record{
				FiscalQuarter: rs.Period,
				Category:      string(it.Category),
				LineItem:      it.Label,
				Amount:        it.Amount,
				IsTotal:       it.IsTotal,
			})
		}
	}
	return out
}

// WriteCSV writes all record sets to a single CSV file.
func WriteCSV(path string, sets []domain.StatementRecordSet) error {
	f, err := os.Create(path)
	if err != nil {
		return &domain.WriteError{Path: path, Err: err}
	}
	defer f.Close()

	records := Records(sets)
	if err := gocsv.MarshalFile(&records, f); err != nil {
		return &domain.WriteError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &domain.WriteError{Path: path, Err: err}
	}
	return nil
}

// ReadRecords parses a CSV file previously produced by WriteCSV.
func ReadRecords(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []Record
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		return nil, err
	}
	return records, nil
}
