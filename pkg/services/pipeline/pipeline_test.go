package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/statement-atlas/pkg/models/domain"
)

func TestFiscalQuarter(t *testing.T) {
	cases := map[string]string{
		"https://example.com/Q1-FY25-10Q.pdf":       "FY25Q1",
		"https://example.com/fy24-q3-earnings.pdf":  "FY24Q3",
		"https://example.com/10-K-FY23.pdf":         "",
		"https://example.com/annual-report.pdf":     "",
		"https://example.com/filings/FY26/Q2/a.pdf": "FY26Q2",
	}
	for url, want := range cases {
		assert.Equal(t, want, FiscalQuarter(url), "url %s", url)
	}
}

func TestFallbackPeriods(t *testing.T) {
	assert.Equal(t, []string{"FY25Q1", "prior"}, fallbackPeriods("https://example.com/Q1-FY25-10Q.pdf"))
	assert.Nil(t, fallbackPeriods("https://example.com/annual-report.pdf"))
}

func stubResult(period string, rows int) *urlResult {
	items := make([]domain.LineItem, rows)
	for i := range items {
		items[i] = domain.LineItem{
			Label:    fmt.Sprintf("Line %d", i),
			Amount:   decimal.NewFromInt(int64(i)),
			Period:   period,
			Category: domain.CategoryAsset,
		}
	}
	return &urlResult{
		sets:   []domain.StatementRecordSet{{Period: period, Items: items}},
		passed: true,
	}
}

func TestRun_OneFailureDoesNotAbortBatch(t *testing.T) {
	settings := DefaultSettings()
	settings.OutputCSV = filepath.Join(t.TempDir(), "out.csv")
	r := NewRunner(settings)
	r.process = func(_ context.Context, url string) (*urlResult, error) {
		if url == "https://example.com/bad.pdf" {
			return nil, &domain.DownloadError{URL: url, Err: fmt.Errorf("status 404")}
		}
		return stubResult("FY25Q1", 3), nil
	}

	statuses, err := r.Run(context.Background(), []string{
		"https://example.com/good.pdf",
		"https://example.com/bad.pdf",
		"https://example.com/also-good.pdf",
	})
	require.NoError(t, err)
	require.Len(t, statuses, 3)

	assert.NoError(t, statuses[0].Err)
	assert.Equal(t, 3, statuses[0].Rows)
	assert.True(t, statuses[0].Passed)

	var dlErr *domain.DownloadError
	assert.ErrorAs(t, statuses[1].Err, &dlErr)

	assert.NoError(t, statuses[2].Err)

	// successful URLs still produced the combined CSV
	_, statErr := os.Stat(settings.OutputCSV)
	assert.NoError(t, statErr)
}

func TestRun_WritesMarkdownWhenConfigured(t *testing.T) {
	settings := DefaultSettings()
	settings.OutputCSV = filepath.Join(t.TempDir(), "out.csv")
	settings.OutputMarkdown = filepath.Join(t.TempDir(), "out.md")
	r := NewRunner(settings)
	r.process = func(_ context.Context, _ string) (*urlResult, error) {
		return stubResult("FY25Q1", 2), nil
	}

	_, err := r.Run(context.Background(), []string{"https://example.com/a.pdf"})
	require.NoError(t, err)

	data, err := os.ReadFile(settings.OutputMarkdown)
	require.NoError(t, err)
	assert.Contains(t, string(data), "## FY25Q1")
}

func TestRun_AllFailuresWriteNothing(t *testing.T) {
	settings := DefaultSettings()
	settings.OutputCSV = filepath.Join(t.TempDir(), "out.csv")
	r := NewRunner(settings)
	r.process = func(_ context.Context, url string) (*urlResult, error) {
		return nil, &domain.DownloadError{URL: url, Err: fmt.Errorf("unreachable")}
	}

	statuses, err := r.Run(context.Background(), []string{"https://example.com/a.pdf"})
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Error(t, statuses[0].Err)

	_, statErr := os.Stat(settings.OutputCSV)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_StatusCarriesWarnings(t *testing.T) {
	r := NewRunner(DefaultSettings())
	r.process = func(_ context.Context, _ string) (*urlResult, error) {
		res := stubResult("FY25Q1", 1)
		res.passed = false
		res.warnings = []domain.ValidationWarning{{Code: "identity-mismatch", Detail: "gap 17"}}
		return res, nil
	}

	statuses, err := r.Run(context.Background(), []string{"https://example.com/a.pdf"})
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.False(t, statuses[0].Passed)
	require.Len(t, statuses[0].Warnings, 1)
	assert.Equal(t, "identity-mismatch", statuses[0].Warnings[0].Code)
}
