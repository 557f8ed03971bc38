package application

import (
	"context"
	"fmt"
	"time"

	"github.com/dfryer1193/mediasweep/internal/metrics"
	"github.com/dfryer1193/mediasweep/media/domain"
)

// Scanner decides whether an attachment is referenced by any registered predicate
type Scanner struct {
	predicates []Predicate
}

func NewScanner(predicates []Predicate) *Scanner {
	return &Scanner{predicates: predicates}
}

// Predicates returns the names of the registered predicates in evaluation order
func (s *Scanner) Predicates() []string {
	names := make([]string, 0, len(s.predicates))
	for _, p := range s.predicates {
		names = append(names, p.Name())
	}
	return names
}

// IsReferenced reports whether any predicate references att
func (s *Scanner) IsReferenced(ctx context.Context, att domain.Attachment) (bool, error) {
	_, found, err := s.Match(ctx, att)
	return found, err
}

// Match evaluates predicates in order and stops at the first one that references att,
// returning its name. A predicate error stops evaluation: the attachment cannot be
// classified, and callers must not treat it as unreferenced.
func (s *Scanner) Match(ctx context.Context, att domain.Attachment) (string, bool, error) {
	for _, p := range s.predicates {
		start := time.Now()
		found, err := p.Check(ctx, att)
		elapsed := time.Since(start)

		if err != nil {
			metrics.ObservePredicate(p.Name(), "error", elapsed)
			return "", false, fmt.Errorf("predicate %s failed for attachment %d: %w", p.Name(), att.ID, err)
		}

		if found {
			metrics.ObservePredicate(p.Name(), "referenced", elapsed)
			return p.Name(), true, nil
		}
		metrics.ObservePredicate(p.Name(), "clear", elapsed)
	}

	return "", false, nil
}
