package usecase

import (
	"context"

	"github.com/alldopamine/catalog/internal/domain"
	"github.com/alldopamine/catalog/internal/textutil"
)

// FindCandidates returns the works of the record's domain whose author or
// developer equals the record's exactly. Domains without an author key and
// records with a blank key never have candidates.
func FindCandidates(ctx context.Context, works WorkRepository, rec domain.PlatformRecord) ([]*domain.Work, error) {
	if !rec.Domain.HasAuthorKey() {
		return nil, nil
	}
	key := rec.AuthorKey()
	if key == "" {
		return nil, nil
	}
	return works.FindByDomainAndAuthorKey(ctx, rec.Domain, key)
}

// Match is a candidate together with its title similarity.
type Match struct {
	Work  *domain.Work
	Score float64
}

// BestMatch picks the candidate with the highest title similarity at or
// above threshold. Ties go to the lowest work id.
func BestMatch(title string, candidates []*domain.Work, threshold float64) (Match, bool) {
	var best Match
	found := false
	for _, c := range candidates {
		score := textutil.Similarity(title, c.Title)
		if score < threshold {
			continue
		}
		if !found || score > best.Score || (score == best.Score && c.ID < best.Work.ID) {
			best = Match{Work: c, Score: score}
			found = true
		}
	}
	return best, found
}
