package services

import "sort"

// rrfK is the standard Reciprocal Rank Fusion constant. It dampens the
// influence of top ranks and is fixed, never tuned per query.
const rrfK = 60

type FusedResult struct {
	ID    int64
	Score float64
}

// FuseRanked merges a lexical ranking and a vector ranking of faculty ids
// into one list using Reciprocal Rank Fusion:
//
//	score(id) = 1/(k + lexicalRank(id)) + 1/(k + vectorRank(id))
//
// where ranks start at 1 and an id absent from a list contributes nothing
// from that term. Rank positions, not raw scores, are fused, which makes the
// merge robust to the incomparable scales of ts_rank and cosine similarity.
//
// Ties on fused score break deterministically: vector rank ascending (ids
// absent from the vector list sort after those present), then lexical rank
// ascending, then id ascending. Output is truncated to limit.
func FuseRanked(lexicalIDs, vectorIDs []int64, k, limit int) []FusedResult {
	if k <= 0 {
		k = rrfK
	}

	lexicalRank := rankPositions(lexicalIDs)
	vectorRank := rankPositions(vectorIDs)

	scores := map[int64]float64{}
	for id, rank := range lexicalRank {
		scores[id] += 1.0 / float64(k+rank)
	}
	for id, rank := range vectorRank {
		scores[id] += 1.0 / float64(k+rank)
	}

	fused := make([]FusedResult, 0, len(scores))
	for id, score := range scores {
		fused = append(fused, FusedResult{ID: id, Score: score})
	}

	missing := len(scores) + 1
	rankOr := func(ranks map[int64]int, id int64) int {
		if r, ok := ranks[id]; ok {
			return r
		}
		return missing
	}
	sort.Slice(fused, func(i, j int) bool {
		if fused[i].Score != fused[j].Score {
			return fused[i].Score > fused[j].Score
		}
		vi, vj := rankOr(vectorRank, fused[i].ID), rankOr(vectorRank, fused[j].ID)
		if vi != vj {
			return vi < vj
		}
		li, lj := rankOr(lexicalRank, fused[i].ID), rankOr(lexicalRank, fused[j].ID)
		if li != lj {
			return li < lj
		}
		return fused[i].ID < fused[j].ID
	})

	if limit > 0 && len(fused) > limit {
		fused = fused[:limit]
	}
	return fused
}

// rankPositions maps each id to its 1-based rank, keeping the first
// occurrence if an id somehow appears twice.
func rankPositions(ids []int64) map[int64]int {
	ranks := make(map[int64]int, len(ids))
	for i, id := range ids {
		if _, ok := ranks[id]; !ok {
			ranks[id] = i + 1
		}
	}
	return ranks
}
