package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/yungbote/advisormatch-backend/internal/platform/logger"
	"github.com/yungbote/advisormatch-backend/internal/types"
)

type PaperRepo interface {
	// SearchByEmbedding returns papers ranked by cosine similarity to the
	// query embedding, skipping excluded ids. requireAbstract additionally
	// drops papers with an empty abstract (the exploration flow shows
	// abstracts to the user).
	SearchByEmbedding(ctx context.Context, embedding types.Vector, excludeIDs []int64, limit int, requireAbstract bool) ([]*types.Paper, error)
	// TopByFacultyIDs batch-loads up to perFaculty papers per faculty,
	// ordered by citation count descending, in a single query.
	TopByFacultyIDs(ctx context.Context, facultyIDs []int64, perFaculty int) (map[int64][]*types.Paper, error)
	// TopByFacultyID returns the single highest-citation paper, or nil.
	TopByFacultyID(ctx context.Context, facultyID int64) (*types.Paper, error)
}

type paperRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPaperRepo(db *gorm.DB, baseLog *logger.Logger) PaperRepo {
	return &paperRepo{db: db, log: baseLog.With("repo", "PaperRepo")}
}

func (pr *paperRepo) SearchByEmbedding(ctx context.Context, embedding types.Vector, excludeIDs []int64, limit int, requireAbstract bool) ([]*types.Paper, error) {
	sql := `
		SELECT *
		FROM paper
		WHERE embedding IS NOT NULL`
	args := []interface{}{}
	if requireAbstract {
		sql += `
			AND abstract IS NOT NULL
			AND abstract != ''`
	}
	if len(excludeIDs) > 0 {
		sql += `
			AND id NOT IN ?`
		args = append(args, excludeIDs)
	}
	sql += `
		ORDER BY embedding <=> ?
		LIMIT ?`
	args = append(args, embedding, limit)

	var results []*types.Paper
	if err := pr.db.WithContext(ctx).Raw(sql, args...).Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *paperRepo) TopByFacultyIDs(ctx context.Context, facultyIDs []int64, perFaculty int) (map[int64][]*types.Paper, error) {
	byFaculty := map[int64][]*types.Paper{}
	if len(facultyIDs) == 0 {
		return byFaculty, nil
	}

	var papers []*types.Paper
	if err := pr.db.WithContext(ctx).
		Where("faculty_id IN ?", facultyIDs).
		Order("citation_count DESC NULLS LAST").
		Find(&papers).Error; err != nil {
		return nil, err
	}

	for _, p := range papers {
		if p.FacultyID == nil {
			continue
		}
		fid := *p.FacultyID
		if len(byFaculty[fid]) < perFaculty {
			byFaculty[fid] = append(byFaculty[fid], p)
		}
	}
	return byFaculty, nil
}

func (pr *paperRepo) TopByFacultyID(ctx context.Context, facultyID int64) (*types.Paper, error) {
	var result types.Paper
	err := pr.db.WithContext(ctx).
		Where("faculty_id = ?", facultyID).
		Order("citation_count DESC NULLS LAST").
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}
