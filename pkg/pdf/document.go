// Package pdf reads financial statement PDFs through pdfcpu and exposes
// per-page positioned text and ruling geometry for table extraction.
package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Settings control document access.
type Settings struct {
	// ExtractTimeout guards content extraction against PDFs that make the
	// library hang. Zero disables the guard.
	ExtractTimeout time.Duration
	// ScratchDir receives decoded content streams. Each pipeline run must
	// use its own scratch dir.
	ScratchDir string
}

// DefaultSettings returns the settings used by the extract command.
func DefaultSettings() Settings {
	return Settings{ExtractTimeout: 30 * time.Second}
}

// Document is a read-only view over a PDF file.
type Document struct {
	path       string
	pageCount  int
	conf       *model.Configuration
	settings   Settings
	scratch    string
	ownScratch bool
	cache      map[int]*PageText
}

// Open validates the file and reads its page count. The returned document
// caches page text, so repeated access to the same page is cheap and,
// importantly, deterministic.
func Open(path string, settings Settings) (*Document, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	if err := api.ValidateFile(path, conf); err != nil {
		return nil, fmt.Errorf("invalid pdf %s: %w", path, err)
	}
	count, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("page count for %s: %w", path, err)
	}

	scratch := settings.ScratchDir
	ownScratch := false
	if scratch == "" {
		scratch, err = os.MkdirTemp("", "statement-atlas-*")
		if err != nil {
			return nil, fmt.Errorf("create scratch dir: %w", err)
		}
		ownScratch = true
	}

	return &Document{
		path:       path,
		pageCount:  count,
		conf:       conf,
		settings:   settings,
		scratch:    scratch,
		ownScratch: ownScratch,
		cache:      map[int]*PageText{},
	}, nil
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return d.pageCount }

// Path returns the underlying file path.
func (d *Document) Path() string { return d.path }

// Close removes the scratch dir when the document created it.
func (d *Document) Close() error {
	if d.ownScratch {
		return os.RemoveAll(d.scratch)
	}
	return nil
}

// Page returns the positioned text of the 0-indexed page n.
func (d *Document) Page(n int) (*PageText, error) {
	if n < 0 || n >= d.pageCount {
		return nil, fmt.Errorf("page %d out of range [0,%d)", n, d.pageCount)
	}
	if pt, ok := d.cache[n]; ok {
		return pt, nil
	}

	raw, err := d.extractContent(n)
	if err != nil {
		return nil, err
	}
	pt := BuildPageText(n, ParseContent(raw))
	d.cache[n] = pt
	return pt, nil
}

// extractContent decodes the content stream of page n (0-indexed) into
// the scratch dir and returns its bytes. Extraction runs under the
// configured wall-clock guard.
func (d *Document) extractContent(n int) ([]byte, error) {
	outDir := filepath.Join(d.scratch, fmt.Sprintf("page-%d", n))
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create page scratch dir: %w", err)
	}

	pageNr := strconv.Itoa(n + 1) // pdfcpu pages are 1-based

	errCh := make(chan error, 1)
	go func() {
		errCh <- api.ExtractContentFile(d.path, outDir, []string{pageNr}, d.conf)
	}()

	if d.settings.ExtractTimeout > 0 {
		select {
		case err := <-errCh:
			if err != nil {
				return nil, fmt.Errorf("extract content for page %d: %w", n, err)
			}
		case <-time.After(d.settings.ExtractTimeout):
			return nil, fmt.Errorf("extract content for page %d: timed out after %s", n, d.settings.ExtractTimeout)
		}
	} else if err := <-errCh; err != nil {
		return nil, fmt.Errorf("extract content for page %d: %w", n, err)
	}

	matches, err := filepath.Glob(filepath.Join(outDir, "*"))
	if err != nil || len(matches) == 0 {
		return nil, fmt.Errorf("no content stream produced for page %d", n)
	}
	return os.ReadFile(matches[0])
}
