package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/advisormatch-backend/internal/pkg/errors"
	"github.com/yungbote/advisormatch-backend/internal/platform/logger"
	"github.com/yungbote/advisormatch-backend/internal/repos"
	"github.com/yungbote/advisormatch-backend/internal/types"
)

const (
	// candidatePoolSize is how deep each side of hybrid search ranks before
	// fusion.
	candidatePoolSize = 50
	// papersPerFaculty is the canonical top-N-by-citation paper attachment.
	papersPerFaculty = 5

	defaultSearchLimit = 10
)

type SearchRequest struct {
	Query        string
	Limit        int
	MinHIndex    int
	Universities []string
}

// SearchService runs hybrid faculty search: query expansion, then lexical
// and vector rankings over identically filtered candidate pools, merged with
// Reciprocal Rank Fusion.
type SearchService struct {
	log      *logger.Logger
	faculty  repos.FacultyRepo
	papers   repos.PaperRepo
	embedder Embedder
	expander *QueryExpander
}

func NewSearchService(baseLog *logger.Logger, faculty repos.FacultyRepo, papers repos.PaperRepo, embedder Embedder, expander *QueryExpander) *SearchService {
	return &SearchService{
		log:      baseLog.With("service", "SearchService"),
		faculty:  faculty,
		papers:   papers,
		embedder: embedder,
		expander: expander,
	}
}

// Search returns at most req.Limit faculty in fused rank order. If either
// ranking side fails the whole call fails; we never fuse a one-sided ranking
// because its scores would not be comparable across requests.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) ([]SearchResult, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("query is required: %w", errors.ErrInvalidArgument)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	expanded := s.expander.Expand(query)

	embedding, err := s.embedder.Embed(ctx, expanded)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	// Both sides see the same filter predicates, so fused ranks are computed
	// over one candidate pool definition.
	filter := repos.SearchFilter{
		MinHIndex:    req.MinHIndex,
		Universities: req.Universities,
	}

	var (
		lexicalIDs []int64
		vectorHits []repos.FacultyHit
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var lexErr error
		lexicalIDs, lexErr = s.faculty.SearchLexical(gctx, expanded, filter, candidatePoolSize)
		if lexErr != nil {
			return fmt.Errorf("lexical search: %w", lexErr)
		}
		return nil
	})
	g.Go(func() error {
		var vecErr error
		vectorHits, vecErr = s.faculty.SearchByEmbedding(gctx, types.Vector(embedding), filter, candidatePoolSize)
		if vecErr != nil {
			return fmt.Errorf("vector search: %w", vecErr)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	vectorIDs := make([]int64, 0, len(vectorHits))
	facultyByID := make(map[int64]*types.Faculty, len(vectorHits))
	for _, hit := range vectorHits {
		vectorIDs = append(vectorIDs, hit.Faculty.ID)
		facultyByID[hit.Faculty.ID] = hit.Faculty
	}

	fused := FuseRanked(lexicalIDs, vectorIDs, rrfK, limit)
	if len(fused) == 0 {
		return []SearchResult{}, nil
	}

	// Lexical-only survivors still need their rows loaded.
	var missingIDs []int64
	for _, fr := range fused {
		if _, ok := facultyByID[fr.ID]; !ok {
			missingIDs = append(missingIDs, fr.ID)
		}
	}
	if len(missingIDs) > 0 {
		loaded, err := s.faculty.GetByIDs(ctx, missingIDs)
		if err != nil {
			return nil, fmt.Errorf("loading faculty: %w", err)
		}
		for _, f := range loaded {
			facultyByID[f.ID] = f
		}
	}

	fusedIDs := make([]int64, 0, len(fused))
	for _, fr := range fused {
		fusedIDs = append(fusedIDs, fr.ID)
	}
	papersByFaculty, err := s.papers.TopByFacultyIDs(ctx, fusedIDs, papersPerFaculty)
	if err != nil {
		return nil, fmt.Errorf("loading papers: %w", err)
	}

	results := make([]SearchResult, 0, len(fused))
	for _, fr := range fused {
		f, ok := facultyByID[fr.ID]
		if !ok {
			continue
		}
		results = append(results, SearchResult{
			Faculty:    toFacultyResponse(f),
			Similarity: fr.Score,
			Papers:     toPaperResponses(papersByFaculty[fr.ID]),
		})
	}

	s.log.Debug("Hybrid search complete",
		"query", query,
		"lexical_candidates", len(lexicalIDs),
		"vector_candidates", len(vectorIDs),
		"results", len(results),
	)
	return results, nil
}
