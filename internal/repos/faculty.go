package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/yungbote/advisormatch-backend/internal/platform/logger"
	"github.com/yungbote/advisormatch-backend/internal/types"
)

// searchDocSQL is the faculty full-text search document. It must stay in
// sync with the expression indexed by faculty_fulltext_idx.
const searchDocSQL = `to_tsvector('english', name || ' ' || COALESCE(research_summary, '') || ' ' || COALESCE(research_tags::text, ''))`

// SearchFilter is applied identically to the lexical and the vector side of
// hybrid search, so both rankings are computed over the same candidate pool.
type SearchFilter struct {
	MinHIndex    int
	Universities []string
}

type FacultyHit struct {
	Faculty    *types.Faculty
	Similarity float64
}

type FacultyRepo interface {
	// SearchLexical returns faculty ids ranked by full-text relevance.
	SearchLexical(ctx context.Context, query string, filter SearchFilter, limit int) ([]int64, error)
	// SearchByEmbedding returns faculty ranked by cosine similarity to the
	// query embedding. Faculty without embeddings never match.
	SearchByEmbedding(ctx context.Context, embedding types.Vector, filter SearchFilter, limit int) ([]FacultyHit, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*types.Faculty, error)
	GetByID(ctx context.Context, id int64) (*types.Faculty, error)
}

type facultyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFacultyRepo(db *gorm.DB, baseLog *logger.Logger) FacultyRepo {
	return &facultyRepo{db: db, log: baseLog.With("repo", "FacultyRepo")}
}

func (fr *facultyRepo) SearchLexical(ctx context.Context, query string, filter SearchFilter, limit int) ([]int64, error) {
	sql := `
		SELECT id,
		       ts_rank(` + searchDocSQL + `, plainto_tsquery('english', ?)) AS rank
		FROM faculty
		WHERE ` + searchDocSQL + ` @@ plainto_tsquery('english', ?)
			AND h_index >= ?`
	args := []interface{}{query, query, filter.MinHIndex}
	if len(filter.Universities) > 0 {
		sql += `
			AND affiliation IN ?`
		args = append(args, filter.Universities)
	}
	sql += `
		ORDER BY rank DESC, id ASC
		LIMIT ?`
	args = append(args, limit)

	type row struct {
		ID   int64   `gorm:"column:id"`
		Rank float64 `gorm:"column:rank"`
	}
	var rows []row
	if err := fr.db.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

func (fr *facultyRepo) SearchByEmbedding(ctx context.Context, embedding types.Vector, filter SearchFilter, limit int) ([]FacultyHit, error) {
	sql := `
		SELECT *,
		       1 - (embedding <=> ?) AS similarity
		FROM faculty
		WHERE embedding IS NOT NULL
			AND h_index >= ?`
	args := []interface{}{embedding, filter.MinHIndex}
	if len(filter.Universities) > 0 {
		sql += `
			AND affiliation IN ?`
		args = append(args, filter.Universities)
	}
	sql += `
		ORDER BY embedding <=> ?
		LIMIT ?`
	args = append(args, embedding, limit)

	type row struct {
		types.Faculty
		Similarity float64 `gorm:"column:similarity"`
	}
	var rows []row
	if err := fr.db.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	hits := make([]FacultyHit, 0, len(rows))
	for i := range rows {
		faculty := rows[i].Faculty
		hits = append(hits, FacultyHit{Faculty: &faculty, Similarity: rows[i].Similarity})
	}
	return hits, nil
}

func (fr *facultyRepo) GetByIDs(ctx context.Context, ids []int64) ([]*types.Faculty, error) {
	var results []*types.Faculty
	if len(ids) == 0 {
		return results, nil
	}
	if err := fr.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (fr *facultyRepo) GetByID(ctx context.Context, id int64) (*types.Faculty, error) {
	var result types.Faculty
	err := fr.db.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}
