// Package locate finds the statement page of a filing by scanning page
// text for keyword evidence.
package locate

import (
	"context"
	"strings"

	"github.com/cloudflare/ahocorasick"
	"github.com/rs/zerolog"

	"github.com/de-tools/statement-atlas/pkg/models/domain"
	"github.com/de-tools/statement-atlas/pkg/pdf"
)

// Settings configure the page scoring heuristic. The defaults target
// consolidated balance sheets in 10-K/10-Q filings.
type Settings struct {
	// TargetPhrases are the statement titles. Any one match earns
	// PhraseWeight once.
	TargetPhrases []string
	// Keywords are secondary evidence; each distinct hit earns KeywordWeight.
	Keywords []string
	// PhraseWeight is the score for a title match (default: 100).
	PhraseWeight float64
	// KeywordWeight is the score per distinct secondary keyword (default: 10).
	KeywordWeight float64
	// MinKeywords accepts a page without a title match when at least this
	// many distinct keywords are present (default: 3).
	MinKeywords int
}

// DefaultSettings returns the balance sheet locator configuration.
func DefaultSettings() Settings {
	return Settings{
		TargetPhrases: []string{
			"condensed consolidated balance sheets",
			"condensed consolidated balance sheet",
			"consolidated balance sheets",
			"consolidated balance sheet",
			"balance sheets",
			"balance sheet",
		},
		Keywords: []string{
			"total assets",
			"total liabilities",
			"stockholders' equity",
			"shareholders' equity",
			"cash and cash equivalents",
			"accounts payable",
			"(in thousands",
		},
		PhraseWeight:  100,
		KeywordWeight: 10,
		MinKeywords:   3,
	}
}

// PageScore is the locator's verdict for one page.
type PageScore struct {
	Page        int
	Score       float64
	TitleMatch  bool
	KeywordHits int
}

// Locator scores pages against the configured phrases and keywords. The
// scan is pure: the same pages and settings always produce the same
// scores.
type Locator struct {
	settings Settings
	phrases  *ahocorasick.Matcher
	keywords *ahocorasick.Matcher
}

// NewLocator builds the multi-pattern matchers once so each page is
// scanned in a single pass regardless of pattern count.
func NewLocator(settings Settings) *Locator {
	return &Locator{
		settings: settings,
		phrases:  ahocorasick.NewStringMatcher(settings.TargetPhrases),
		keywords: ahocorasick.NewStringMatcher(settings.Keywords),
	}
}

// Locate returns the 0-indexed page most likely to hold the target
// statement, together with every page's score. Ties break toward the
// earliest page. When no page passes the acceptance threshold it fails
// with *domain.PageNotFoundError.
func (l *Locator) Locate(ctx context.Context, source string, pages []*pdf.PageText) (int, []PageScore, error) {
	logger := zerolog.Ctx(ctx)

	scores := make([]PageScore, 0, len(pages))
	best := -1
	for _, pt := range pages {
		ps := l.scorePage(pt)
		scores = append(scores, ps)
		if !l.acceptable(ps) {
			continue
		}
		if best == -1 || ps.Score > scores[best].Score {
			best = len(scores) - 1
		}
	}

	if best == -1 {
		return 0, scores, &domain.PageNotFoundError{Source: source, Pages: len(pages)}
	}

	logger.Debug().
		Int("page", scores[best].Page).
		Float64("score", scores[best].Score).
		Int("keyword_hits", scores[best].KeywordHits).
		Msg("located statement page")
	return scores[best].Page, scores, nil
}

func (l *Locator) scorePage(pt *pdf.PageText) PageScore {
	text := strings.ToLower(pt.Text())
	ps := PageScore{Page: pt.Number}

	// A table of contents mentions the statement title without carrying
	// any financial data; it must not win over the statement itself.
	if strings.Contains(text, "table of contents") && !strings.Contains(text, "$") {
		return ps
	}

	if len(l.phrases.Match([]byte(text))) > 0 {
		ps.TitleMatch = true
		ps.Score += l.settings.PhraseWeight
	}
	ps.KeywordHits = len(l.keywords.Match([]byte(text)))
	ps.Score += float64(ps.KeywordHits) * l.settings.KeywordWeight
	return ps
}

// acceptable applies the threshold: a title match backed by at least one
// keyword, or enough keyword evidence on its own.
func (l *Locator) acceptable(ps PageScore) bool {
	if ps.TitleMatch && ps.KeywordHits >= 1 {
		return true
	}
	return ps.KeywordHits >= l.settings.MinKeywords
}
