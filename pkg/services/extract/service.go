package extract

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/de-tools/statement-atlas/pkg/models/domain"
	"github.com/de-tools/statement-atlas/pkg/pdf"
)

// Service runs every registered strategy over candidate pages and picks
// the best scoring table.
type Service struct {
	registry *Registry
	scorer   *Scorer
}

func NewService(weights ScoreWeights) *Service {
	registry := DefaultRegistry()
	return &Service{
		registry: registry,
		scorer:   NewScorer(weights, registry),
	}
}

// BestTable extracts candidates from the given pages and selects the
// winner. A strategy failing on one page only loses that page's
// candidates; selection failure is *domain.NoTableFoundError.
func (s *Service) BestTable(ctx context.Context, pages []*pdf.PageText) (domain.ScoredCandidate, error) {
	logger := zerolog.Ctx(ctx)

	var candidates []domain.RawTable
	for _, pt := range pages {
		for _, strategy := range s.registry.Strategies() {
			tables, err := strategy.Extract(pt)
			if err != nil {
				logger.Warn().Err(err).
					Int("page", pt.Number).
					Str("strategy", strategy.Name()).
					Msg("strategy failed on page")
				continue
			}
			candidates = append(candidates, tables...)
		}
	}
	return s.scorer.Select(ctx, candidates)
}
