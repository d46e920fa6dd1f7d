package types

import (
	"strings"
	"time"
)

type Faculty struct {
	ID                int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SemanticScholarID string    `gorm:"size:50;uniqueIndex;column:semantic_scholar_id" json:"semantic_scholar_id"`
	Name              string    `gorm:"size:255;not null;column:name" json:"name"`
	Affiliation       string    `gorm:"size:500;column:affiliation" json:"affiliation"`
	Homepage          string    `gorm:"size:500;column:homepage" json:"homepage"`
	HIndex            int       `gorm:"column:h_index" json:"h_index"`
	CitationCount     int       `gorm:"column:citation_count" json:"citation_count"`
	PaperCount        int       `gorm:"column:paper_count" json:"paper_count"`
	ResearchSummary   string    `gorm:"type:text;column:research_summary" json:"research_summary"`
	ResearchTags      []string  `gorm:"type:jsonb;serializer:json;column:research_tags" json:"research_tags"`
	Embedding         Vector    `gorm:"column:embedding" json:"-"`
	CreatedAt         time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt         time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Faculty) TableName() string {
	return "faculty"
}

// NormalizeTags deduplicates research tags case-insensitively, keeping the
// first spelling seen. Ingestion runs every tag set through this before write.
func NormalizeTags(tags []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
	}
	return out
}
