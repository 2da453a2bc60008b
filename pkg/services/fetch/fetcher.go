// Package fetch downloads statement PDFs to a per-run scratch directory.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/de-tools/statement-atlas/pkg/models/domain"
)

// pdfSignature is the required magic prefix of a PDF file.
var pdfSignature = []byte("%PDF-")

// Settings configure download behavior.
type Settings struct {
	// MaxRetries is the number of retry attempts after the first request.
	MaxRetries int
	// RetryWaitMin/Max bound the exponential backoff between attempts.
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// RequestTimeout is the per-request HTTP timeout.
	RequestTimeout time.Duration
}

// DefaultSettings returns the fetcher defaults used by the extract command.
func DefaultSettings() Settings {
	return Settings{
		MaxRetries:     3,
		RetryWaitMin:   1 * time.Second,
		RetryWaitMax:   30 * time.Second,
		RequestTimeout: 60 * time.Second,
	}
}

// Fetcher downloads PDFs over HTTP with retry and integrity checks.
type Fetcher struct {
	client *retryablehttp.Client
}

// NewFetcher creates a fetcher. The retryablehttp logger is silenced; the
// fetcher logs through the zerolog logger carried in the request context.
func NewFetcher(settings Settings) *Fetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = settings.MaxRetries
	client.RetryWaitMin = settings.RetryWaitMin
	client.RetryWaitMax = settings.RetryWaitMax
	client.HTTPClient.Timeout = settings.RequestTimeout
	client.Logger = nil
	return &Fetcher{client: client}
}

// Download fetches url into dir and returns the local path. The filename
// is derived from the URL path, with ".pdf" appended when missing. It
// fails with *domain.DownloadError after exhausting retries or when the
// downloaded file is empty or not a PDF.
func (f *Fetcher) Download(ctx context.Context, url, dir string) (string, error) {
	logger := zerolog.Ctx(ctx)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &domain.DownloadError{URL: url, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &domain.DownloadError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &domain.DownloadError{URL: url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	dest := filepath.Join(dir, FileName(url))
	out, err := os.Create(dest)
	if err != nil {
		return "", &domain.DownloadError{URL: url, Err: err}
	}

	written, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", &domain.DownloadError{URL: url, Err: err}
	}

	if err := verifySignature(dest, written); err != nil {
		return "", &domain.DownloadError{URL: url, Err: err}
	}

	logger.Info().Str("url", url).Str("path", dest).Int64("bytes", written).Msg("downloaded pdf")
	return dest, nil
}

// FileName derives a local filename from the URL path, mirroring how the
// source filings are named upstream.
func FileName(rawURL string) string {
	name := ""
	if u, err := url.Parse(rawURL); err == nil {
		name = path.Base(u.Path)
	}
	if name == "." || name == "/" || name == "" {
		name = "document"
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}
	return name
}

func verifySignature(dest string, size int64) error {
	if size == 0 {
		return fmt.Errorf("downloaded file is empty")
	}
	fh, err := os.Open(dest)
	if err != nil {
		return err
	}
	defer fh.Close()

	header := make([]byte, len(pdfSignature))
	if _, err := io.ReadFull(fh, header); err != nil {
		return fmt.Errorf("file too short for a pdf signature")
	}
	if !bytes.Equal(header, pdfSignature) {
		return fmt.Errorf("missing %%PDF- signature")
	}
	return nil
}
