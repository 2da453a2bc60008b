package extract

import (
	"github.com/de-tools/statement-atlas/pkg/models/domain"
	"github.com/de-tools/statement-atlas/pkg/pdf"
)

// Strategy turns positioned page text into zero or more candidate grids.
// Strategies are heuristics; returning no tables is not an error.
type Strategy interface {
	Name() string
	Extract(pt *pdf.PageText) ([]domain.RawTable, error)
}

// Registry holds strategies in registration order. The order matters: it
// is the final tie-break between equally scored candidates, so the more
// structured strategy should be registered first.
type Registry struct {
	strategies []Strategy
	order      map[string]int
}

func NewRegistry(strategies ...Strategy) *Registry {
	r := &Registry{order: map[string]int{}}
	for _, s := range strategies {
		r.Register(s)
	}
	return r
}

// DefaultRegistry registers lattice before stream: ruling-bounded grids
// are more reliable than inferred columns when both produce a candidate.
func DefaultRegistry() *Registry {
	return NewRegistry(NewLattice(), NewStream())
}

func (r *Registry) Register(s Strategy) {
	if _, ok := r.order[s.Name()]; ok {
		return
	}
	r.order[s.Name()] = len(r.strategies)
	r.strategies = append(r.strategies, s)
}

func (r *Registry) Strategies() []Strategy {
	return r.strategies
}

// rank returns the registration index; unknown names rank last.
func (r *Registry) rank(name string) int {
	if i, ok := r.order[name]; ok {
		return i
	}
	return len(r.strategies)
}
