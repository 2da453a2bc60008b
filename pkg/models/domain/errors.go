package domain

import "fmt"

// DownloadError indicates the fetcher exhausted its retries for a URL.
// Fatal for that URL.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download failed for %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// PageNotFoundError indicates no page scored above the locator threshold.
// Fatal for that URL.
type PageNotFoundError struct {
	Source string
	Pages  int
}

func (e *PageNotFoundError) Error() string {
	return fmt.Sprintf("no statement page found in %s (%d pages scanned)", e.Source, e.Pages)
}

// NoTableFoundError indicates every extracted candidate scored below the
// acceptance threshold, or no candidates were extracted at all. Fatal for
// that URL.
type NoTableFoundError struct {
	Page       int
	Candidates int
	BestScore  float64
}

func (e *NoTableFoundError) Error() string {
	if e.Candidates == 0 {
		return fmt.Sprintf("no table candidates extracted from page %d", e.Page)
	}
	return fmt.Sprintf("no acceptable table on page %d: best score %.1f across %d candidates",
		e.Page, e.BestScore, e.Candidates)
}

// CellParseError is row-scoped and recoverable: the normalizer skips the
// offending row, logs it, and continues.
type CellParseError struct {
	Row   int
	Cell  string
	Label string
	Err   error
}

func (e *CellParseError) Error() string {
	return fmt.Sprintf("row %d (%q): cannot parse cell %q: %v", e.Row, e.Label, e.Cell, e.Err)
}

func (e *CellParseError) Unwrap() error { return e.Err }

// TableStructureError indicates the extracted grid is too irregular to
// normalize (column counts disagree beyond tolerance). Fatal.
type TableStructureError struct {
	Page   int
	Detail string
}

func (e *TableStructureError) Error() string {
	return fmt.Sprintf("malformed table on page %d: %s", e.Page, e.Detail)
}

// WriteError indicates a filesystem failure while writing output. Fatal.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write failed for %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ValidationWarning is non-fatal. Warnings are collected by the validator
// and surfaced to the caller; they never change the exit code.
type ValidationWarning struct {
	Code   string
	Detail string
}

func (w ValidationWarning) String() string {
	return fmt.Sprintf("%s: %s", w.Code, w.Detail)
}
