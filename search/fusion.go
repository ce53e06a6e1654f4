package search

import (
	"slices"

	"github.com/poiesic/vicinity/core"
)

// Fuse computes normalized scores for a candidate set and returns the ranked,
// truncated result list. Pure function: it depends only on its arguments and
// is deterministic for identical inputs.
//
// Scoring contract:
//   - location score: 1 - distance/radius, clipped to [0, 1]; a candidate at
//     distance 0 scores 1, at the radius boundary scores 0
//   - similarity: cosine similarity clipped to [0, 1]; negative similarity is
//     zero relevance, not negative relevance
//   - location_only: combined = location score
//   - semantic_only: combined = similarity
//   - hybrid: combined = w*location + (1-w)*similarity
//
// Candidates below MinSimilarity are dropped (not binding in location-only
// mode), as is the requester and any candidate missing a component the mode
// requires; partial data never masquerades as a match. Results are ordered by
// combined score descending with ties broken by user ID ascending, then
// truncated to MaxResults.
//
// The request is expected to be fully resolved: LocationWeight set for hybrid
// mode, RadiusKm set for location modes.
func Fuse(req *core.QueryRequest, candidates []core.Candidate) []core.ScoredResult {
	results := make([]core.ScoredResult, 0, len(candidates))

	for _, cand := range candidates {
		if cand.UserID == req.RequesterID {
			continue
		}

		var locationScore, similarity float64
		switch req.Mode {
		case core.ModeLocationOnly, core.ModeHybrid:
			if cand.DistanceKm == nil {
				continue
			}
			locationScore = clip01(1 - *cand.DistanceKm/req.RadiusKm)
		}
		if req.Mode != core.ModeLocationOnly {
			if cand.Similarity == nil {
				continue
			}
			similarity = clip01(*cand.Similarity)
			if similarity < req.MinSimilarity {
				continue
			}
		}

		var combined float64
		switch req.Mode {
		case core.ModeLocationOnly:
			combined = locationScore
		case core.ModeSemanticOnly:
			combined = similarity
		case core.ModeHybrid:
			w := *req.LocationWeight
			combined = w*locationScore + (1-w)*similarity
		}

		results = append(results, core.ScoredResult{
			UserID:        cand.UserID,
			DistanceKm:    cand.DistanceKm,
			Similarity:    similarity,
			CombinedScore: combined,
			Metadata:      cand.Metadata,
		})
	}

	// Total order: score descending, user ID ascending. Required for
	// reproducible output and stable pagination.
	slices.SortFunc(results, func(a, b core.ScoredResult) int {
		if a.CombinedScore > b.CombinedScore {
			return -1
		}
		if a.CombinedScore < b.CombinedScore {
			return 1
		}
		if a.UserID < b.UserID {
			return -1
		}
		if a.UserID > b.UserID {
			return 1
		}
		return 0
	})

	if len(results) > req.MaxResults {
		results = results[:req.MaxResults]
	}
	return results
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
