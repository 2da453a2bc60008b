package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/rs/zerolog"

	"github.com/de-tools/statement-atlas/pkg/export"
	"github.com/de-tools/statement-atlas/pkg/models/domain"
	"github.com/de-tools/statement-atlas/pkg/pdf"
	"github.com/de-tools/statement-atlas/pkg/services/extract"
	"github.com/de-tools/statement-atlas/pkg/services/fetch"
	"github.com/de-tools/statement-atlas/pkg/services/locate"
	"github.com/de-tools/statement-atlas/pkg/services/normalize"
	"github.com/de-tools/statement-atlas/pkg/services/validate"
)

// Settings aggregate the per-stage settings plus output destinations.
type Settings struct {
	Fetch     fetch.Settings
	PDF       pdf.Settings
	Locate    locate.Settings
	Score     extract.ScoreWeights
	Normalize normalize.Settings
	Validate  validate.Settings

	// TmpDir receives downloaded PDFs. Empty means the OS temp dir.
	TmpDir         string
	OutputCSV      string
	OutputMarkdown string
}

func DefaultSettings() Settings {
	return Settings{
		Fetch:     fetch.DefaultSettings(),
		PDF:       pdf.DefaultSettings(),
		Locate:    locate.DefaultSettings(),
		Score:     extract.DefaultScoreWeights(),
		Normalize: normalize.DefaultSettings(),
		Validate:  validate.DefaultSettings(),
	}
}

// URLStatus is the per-URL outcome of a batch run.
type URLStatus struct {
	URL      string
	Err      error
	Periods  []string
	Rows     int
	Passed   bool
	Warnings []domain.ValidationWarning
}

type urlResult struct {
	sets     []domain.StatementRecordSet
	passed   bool
	warnings []domain.ValidationWarning
}

// Runner drives the extraction pipeline over a batch of URLs. One URL
// failing never aborts the rest of the batch.
type Runner struct {
	settings   Settings
	fetcher    *fetch.Fetcher
	locator    *locate.Locator
	extractor  *extract.Service
	normalizer *normalize.Normalizer
	validator  *validate.Validator

	// process is swapped in tests to isolate batch behavior.
	process func(ctx context.Context, url string) (*urlResult, error)
}

func NewRunner(settings Settings) *Runner {
	r := &Runner{
		settings:   settings,
		fetcher:    fetch.NewFetcher(settings.Fetch),
		locator:    locate.NewLocator(settings.Locate),
		extractor:  extract.NewService(settings.Score),
		normalizer: normalize.NewNormalizer(settings.Normalize),
		validator:  validate.NewValidator(settings.Validate),
	}
	r.process = r.processURL
	return r
}

// Run processes every URL and writes the combined outputs. The returned
// error covers output writing only; per-URL failures live in the
// statuses.
func (r *Runner) Run(ctx context.Context, urls []string) ([]URLStatus, error) {
	logger := zerolog.Ctx(ctx)

	statuses := make([]URLStatus, 0, len(urls))
	var allSets []domain.StatementRecordSet
	for _, url := range urls {
		status := URLStatus{URL: url}
		res, err := r.process(ctx, url)
		if err != nil {
			logger.Error().Err(err).Str("url", url).Msg("url failed")
			status.Err = err
		} else {
			status.Passed = res.passed
			status.Warnings = res.warnings
			for _, rs := range res.sets {
				status.Periods = append(status.Periods, rs.Period)
				status.Rows += len(rs.Items)
			}
			allSets = append(allSets, res.sets...)
		}
		statuses = append(statuses, status)
	}

	if r.settings.OutputCSV != "" && len(allSets) > 0 {
		if err := export.WriteCSV(r.settings.OutputCSV, allSets); err != nil {
			return statuses, err
		}
		logger.Info().Str("path", r.settings.OutputCSV).Msg("wrote csv")
	}
	if r.settings.OutputMarkdown != "" && len(allSets) > 0 {
		if err := export.WriteMarkdown(r.settings.OutputMarkdown, allSets); err != nil {
			return statuses, err
		}
		logger.Info().Str("path", r.settings.OutputMarkdown).Msg("wrote markdown")
	}
	return statuses, nil
}

func (r *Runner) processURL(ctx context.Context, url string) (*urlResult, error) {
	logger := zerolog.Ctx(ctx)

	dir := r.settings.TmpDir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "statement-atlas-*")
		if err != nil {
			return nil, err
		}
		defer os.RemoveAll(tmp)
		dir = tmp
	}

	path, err := r.fetcher.Download(ctx, url, dir)
	if err != nil {
		return nil, err
	}

	doc, err := pdf.Open(path, r.settings.PDF)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	pages := make([]*pdf.PageText, 0, doc.PageCount())
	for i := 0; i < doc.PageCount(); i++ {
		pt, err := doc.Page(i)
		if err != nil {
			// an unreadable page only costs us that page
			logger.Warn().Err(err).Int("page", i).Msg("skipping unreadable page")
			pt = &pdf.PageText{Number: i}
		}
		pages = append(pages, pt)
	}

	best, _, err := r.locator.Locate(ctx, url, pages)
	if err != nil {
		return nil, err
	}
	logger.Info().Int("page", best).Str("url", url).Msg("located balance sheet page")

	candidate, err := r.extractor.BestTable(ctx, []*pdf.PageText{pages[best]})
	if err != nil {
		return nil, err
	}

	meta := normalize.Meta{
		SourceURL:       url,
		SourceFile:      filepath.Base(path),
		FallbackPeriods: fallbackPeriods(url),
		ExtractedAt:     time.Now().UTC(),
	}
	result, err := r.normalizer.Normalize(ctx, candidate.Table, meta)
	if err != nil {
		return nil, err
	}
	if len(result.RecordSets) == 0 {
		return nil, fmt.Errorf("no line items extracted from %s", url)
	}

	vres := r.validator.Validate(ctx, result.RecordSets)
	return &urlResult{
		sets:     result.RecordSets,
		passed:   vres.Passed,
		warnings: vres.Warnings,
	}, nil
}

var (
	fyPattern      = regexp.MustCompile(`(?i)FY(\d{2})`)
	quarterPattern = regexp.MustCompile(`(?i)\bQ(\d)`)
)

// FiscalQuarter derives a label like "FY25Q1" from a filing URL. Empty
// when the URL carries no recognizable quarter.
func FiscalQuarter(url string) string {
	fy := fyPattern.FindStringSubmatch(url)
	q := quarterPattern.FindStringSubmatch(url)
	if fy == nil || q == nil {
		return ""
	}
	return fmt.Sprintf("FY%sQ%s", fy[1], q[1])
}

// fallbackPeriods labels the value columns when the table header carries
// no parseable dates. The second column gets a relative label rather
// than a guessed date.
func fallbackPeriods(url string) []string {
	if fq := FiscalQuarter(url); fq != "" {
		return []string{fq, "prior"}
	}
	return nil
}
