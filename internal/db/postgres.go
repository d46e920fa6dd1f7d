package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/yungbote/advisormatch-backend/internal/platform/logger"
	"github.com/yungbote/advisormatch-backend/internal/types"
	"github.com/yungbote/advisormatch-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "advisormatch", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("Failed to connect to Postgres: %w", err)
	}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS vector;`).Error; err != nil {
		log.Error("Failed to enable vector extension", "error", err)
		return nil, fmt.Errorf("Failed to enable vector extension: %w", err)
	}

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.Faculty{},
		&types.Paper{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}

	if err := s.db.Exec(`
		ALTER TABLE "paper"
		DROP CONSTRAINT IF EXISTS "fk_paper_faculty_id";
	`).Error; err != nil {
		return fmt.Errorf("Failed to reset fk_paper_faculty_id: %w", err)
	}
	if err := s.db.Exec(`
		ALTER TABLE "paper"
		ADD CONSTRAINT "fk_paper_faculty_id"
		FOREIGN KEY ("faculty_id")
		REFERENCES "faculty"("id")
		ON DELETE SET NULL
	`).Error; err != nil {
		return fmt.Errorf("Failed to add fk_paper_faculty_id: %w", err)
	}

	return s.migrateSearchIndexes()
}

// migrateSearchIndexes creates the retrieval indexes: a GIN full-text index
// over the faculty search document (name + research summary + tags) and HNSW
// cosine indexes over both embedding columns.
func (s *PostgresService) migrateSearchIndexes() error {
	s.log.Info("Creating search indexes...")

	if err := s.db.Exec(`
		CREATE INDEX IF NOT EXISTS faculty_fulltext_idx ON faculty
		USING GIN (
			to_tsvector('english',
				name || ' ' ||
				COALESCE(research_summary, '') || ' ' ||
				COALESCE(research_tags::text, '')
			)
		)
	`).Error; err != nil {
		return fmt.Errorf("Failed to create faculty_fulltext_idx: %w", err)
	}

	if err := s.db.Exec(`
		CREATE INDEX IF NOT EXISTS faculty_embedding_idx ON faculty
		USING hnsw (embedding vector_cosine_ops)
	`).Error; err != nil {
		return fmt.Errorf("Failed to create faculty_embedding_idx: %w", err)
	}

	if err := s.db.Exec(`
		CREATE INDEX IF NOT EXISTS paper_embedding_idx ON paper
		USING hnsw (embedding vector_cosine_ops)
	`).Error; err != nil {
		return fmt.Errorf("Failed to create paper_embedding_idx: %w", err)
	}

	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
