package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/advisormatch-backend/internal/db"
	"github.com/yungbote/advisormatch-backend/internal/platform/logger"
	"github.com/yungbote/advisormatch-backend/internal/platform/openai"
	"github.com/yungbote/advisormatch-backend/internal/types"
)

const (
	embedBatchSize     = 32
	facultyPaperSample = 10
	abstractSnippetLen = 500
)

type facultyImport struct {
	SemanticScholarID string        `json:"semantic_scholar_id"`
	Name              string        `json:"name"`
	Affiliation       string        `json:"affiliation"`
	Homepage          string        `json:"homepage"`
	HIndex            int           `json:"h_index"`
	CitationCount     int           `json:"citation_count"`
	PaperCount        int           `json:"paper_count"`
	ResearchSummary   string        `json:"research_summary"`
	ResearchTags      []string      `json:"research_tags"`
	Papers            []paperImport `json:"papers"`
}

type paperImport struct {
	Title         string `json:"title"`
	Abstract      string `json:"abstract"`
	Year          *int   `json:"year"`
	Venue         string `json:"venue"`
	CitationCount *int   `json:"citation_count"`
}

func main() {
	inputPath := flag.String("input", "", "path to a faculty JSON export (optional)")
	backfill := flag.Bool("backfill", true, "embed rows missing embeddings")
	flag.Parse()

	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	ctx := context.Background()

	if *inputPath != "" {
		if err := importFaculty(ctx, log, thePG.WithContext(ctx), *inputPath); err != nil {
			log.Fatal("Faculty import failed", "error", err)
		}
	}

	if *backfill {
		embedder, err := openai.NewClient(log)
		if err != nil {
			log.Fatal("Could not init OpenAI client", "error", err)
		}
		if err := backfillFacultyEmbeddings(ctx, log, thePG, embedder); err != nil {
			log.Fatal("Faculty embedding backfill failed", "error", err)
		}
		if err := backfillPaperEmbeddings(ctx, log, thePG, embedder); err != nil {
			log.Fatal("Paper embedding backfill failed", "error", err)
		}
	}

	log.Info("Ingestion complete")
}

func importFaculty(ctx context.Context, log *logger.Logger, tx *gorm.DB, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	var imports []facultyImport
	if err := json.Unmarshal(raw, &imports); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	for _, fi := range imports {
		faculty := types.Faculty{
			SemanticScholarID: fi.SemanticScholarID,
			Name:              fi.Name,
			Affiliation:       fi.Affiliation,
			Homepage:          fi.Homepage,
			HIndex:            fi.HIndex,
			CitationCount:     fi.CitationCount,
			PaperCount:        fi.PaperCount,
			ResearchSummary:   fi.ResearchSummary,
			ResearchTags:      types.NormalizeTags(fi.ResearchTags),
		}
		if err := tx.Where("semantic_scholar_id = ?", fi.SemanticScholarID).
			Assign(faculty).
			FirstOrCreate(&faculty).Error; err != nil {
			return fmt.Errorf("upserting faculty %s: %w", fi.Name, err)
		}
		for _, pi := range fi.Papers {
			paper := types.Paper{
				FacultyID:     &faculty.ID,
				Title:         pi.Title,
				Abstract:      pi.Abstract,
				Year:          pi.Year,
				Venue:         pi.Venue,
				CitationCount: pi.CitationCount,
			}
			if err := tx.Where("faculty_id = ? AND title = ?", faculty.ID, pi.Title).
				Assign(paper).
				FirstOrCreate(&paper).Error; err != nil {
				return fmt.Errorf("upserting paper %q: %w", pi.Title, err)
			}
		}
		log.Info("Imported faculty", "name", fi.Name, "papers", len(fi.Papers))
	}
	return nil
}

// backfillFacultyEmbeddings embeds a profile document per faculty: name,
// affiliation, and up to ten top paper titles with abstract snippets.
func backfillFacultyEmbeddings(ctx context.Context, log *logger.Logger, thePG *gorm.DB, embedder openai.Client) error {
	var pending []*types.Faculty
	if err := thePG.WithContext(ctx).
		Where("embedding IS NULL").
		Find(&pending).Error; err != nil {
		return err
	}
	if len(pending) == 0 {
		log.Info("No faculty need embeddings")
		return nil
	}

	for start := 0; start < len(pending); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		texts := make([]string, 0, len(batch))
		for _, f := range batch {
			var papers []*types.Paper
			if err := thePG.WithContext(ctx).
				Where("faculty_id = ?", f.ID).
				Order("citation_count DESC NULLS LAST").
				Limit(facultyPaperSample).
				Find(&papers).Error; err != nil {
				return err
			}
			texts = append(texts, facultyDocument(f, papers))
		}

		embeddings, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding faculty batch: %w", err)
		}
		for i, f := range batch {
			if err := thePG.WithContext(ctx).Model(f).
				Update("embedding", types.Vector(embeddings[i])).Error; err != nil {
				return err
			}
		}
		log.Info("Embedded faculty batch", "done", end, "total", len(pending))
	}
	return nil
}

func backfillPaperEmbeddings(ctx context.Context, log *logger.Logger, thePG *gorm.DB, embedder openai.Client) error {
	var pending []*types.Paper
	if err := thePG.WithContext(ctx).
		Where("embedding IS NULL AND abstract IS NOT NULL AND abstract != ''").
		Find(&pending).Error; err != nil {
		return err
	}
	if len(pending) == 0 {
		log.Info("No papers need embeddings")
		return nil
	}

	for start := 0; start < len(pending); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		texts := make([]string, 0, len(batch))
		for _, p := range batch {
			texts = append(texts, p.Title+"\n"+abstractSnippet(p.Abstract))
		}

		embeddings, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding paper batch: %w", err)
		}
		for i, p := range batch {
			if err := thePG.WithContext(ctx).Model(p).
				Update("embedding", types.Vector(embeddings[i])).Error; err != nil {
				return err
			}
		}
		log.Info("Embedded paper batch", "done", end, "total", len(pending))
	}
	return nil
}

func facultyDocument(f *types.Faculty, papers []*types.Paper) string {
	parts := []string{"Professor " + f.Name}
	if f.Affiliation != "" {
		parts = append(parts, "at "+f.Affiliation)
	}
	if len(papers) > 0 {
		parts = append(parts, "\nResearch papers:")
		for _, p := range papers {
			parts = append(parts, "- "+p.Title)
			if p.Abstract != "" {
				parts = append(parts, "  "+abstractSnippet(p.Abstract))
			}
		}
	}
	return strings.Join(parts, "\n")
}

// abstractSnippet caps an abstract at abstractSnippetLen characters, counting
// runes so a multi-byte character is never split.
func abstractSnippet(abstract string) string {
	runes := []rune(abstract)
	if len(runes) <= abstractSnippetLen {
		return abstract
	}
	return string(runes[:abstractSnippetLen])
}
