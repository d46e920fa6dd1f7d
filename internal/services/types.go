package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yungbote/advisormatch-backend/internal/types"
)

// Embedder is the embedding provider consumed by search and exploration.
// Dimensionality is fixed across calls; nothing else is assumed.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// LLM is the language-model provider. Failures and malformed output are
// expected and handled with deterministic fallbacks, never surfaced.
type LLM interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

type FacultyResponse struct {
	ID                int64    `json:"id"`
	Name              string   `json:"name"`
	Affiliation       string   `json:"affiliation"`
	HIndex            int      `json:"h_index"`
	PaperCount        int      `json:"paper_count"`
	SemanticScholarID string   `json:"semantic_scholar_id"`
	ResearchTags      []string `json:"research_tags"`
}

type PaperResponse struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Year          *int   `json:"year"`
	Venue         string `json:"venue"`
	CitationCount *int   `json:"citation_count"`
}

// SearchResult pairs a faculty with its score and up to five supporting
// papers. Score is cosine similarity on the pure vector path and an RRF
// score on the hybrid path; the two are not comparable.
type SearchResult struct {
	Faculty    FacultyResponse `json:"faculty"`
	Similarity float64         `json:"similarity"`
	Papers     []PaperResponse `json:"papers"`
}

func toFacultyResponse(f *types.Faculty) FacultyResponse {
	tags := f.ResearchTags
	if tags == nil {
		tags = []string{}
	}
	return FacultyResponse{
		ID:                f.ID,
		Name:              f.Name,
		Affiliation:       f.Affiliation,
		HIndex:            f.HIndex,
		PaperCount:        f.PaperCount,
		SemanticScholarID: f.SemanticScholarID,
		ResearchTags:      tags,
	}
}

func toPaperResponses(papers []*types.Paper) []PaperResponse {
	out := make([]PaperResponse, 0, len(papers))
	for _, p := range papers {
		out = append(out, PaperResponse{
			ID:            p.ID,
			Title:         p.Title,
			Year:          p.Year,
			Venue:         p.Venue,
			CitationCount: p.CitationCount,
		})
	}
	return out
}

// decodeJSONBlock strictly unmarshals an LLM response into v, tolerating only
// a surrounding Markdown code fence. Anything else malformed is an error and
// the caller falls back to its deterministic default.
func decodeJSONBlock(raw string, v any) error {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
		raw = strings.TrimSpace(raw)
	}
	if raw == "" {
		return fmt.Errorf("empty response")
	}
	return json.Unmarshal([]byte(raw), v)
}
