package services

import (
	"context"
	"fmt"

	"github.com/yungbote/advisormatch-backend/internal/platform/logger"
	"github.com/yungbote/advisormatch-backend/internal/repos"
	"github.com/yungbote/advisormatch-backend/internal/types"
)

func testLogger(t interface{ Fatalf(string, ...interface{}) }) *logger.Logger {
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

type stubEmbedder struct {
	embedding []float32
	err       error
	calls     []string
}

func (se *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	se.calls = append(se.calls, text)
	if se.err != nil {
		return nil, se.err
	}
	if se.embedding != nil {
		return se.embedding, nil
	}
	return make([]float32, 4), nil
}

type stubLLM struct {
	responses []string
	err       error
	prompts   []string
}

func (sl *stubLLM) Complete(_ context.Context, prompt string, _ int) (string, error) {
	sl.prompts = append(sl.prompts, prompt)
	if sl.err != nil {
		return "", sl.err
	}
	if len(sl.responses) == 0 {
		return "", fmt.Errorf("no stub response configured")
	}
	resp := sl.responses[0]
	if len(sl.responses) > 1 {
		sl.responses = sl.responses[1:]
	}
	return resp, nil
}

type stubFacultyRepo struct {
	lexicalIDs    []int64
	lexicalErr    error
	vectorHits    []repos.FacultyHit
	vectorErr     error
	byID          map[int64]*types.Faculty
	lexicalFilter *repos.SearchFilter
	vectorFilter  *repos.SearchFilter
}

func (sf *stubFacultyRepo) SearchLexical(_ context.Context, _ string, filter repos.SearchFilter, _ int) ([]int64, error) {
	sf.lexicalFilter = &filter
	if sf.lexicalErr != nil {
		return nil, sf.lexicalErr
	}
	return sf.lexicalIDs, nil
}

func (sf *stubFacultyRepo) SearchByEmbedding(_ context.Context, _ types.Vector, filter repos.SearchFilter, _ int) ([]repos.FacultyHit, error) {
	sf.vectorFilter = &filter
	if sf.vectorErr != nil {
		return nil, sf.vectorErr
	}
	return sf.vectorHits, nil
}

func (sf *stubFacultyRepo) GetByIDs(_ context.Context, ids []int64) ([]*types.Faculty, error) {
	var out []*types.Faculty
	for _, id := range ids {
		if f, ok := sf.byID[id]; ok {
			out = append(out, f)
		}
	}
	return out, nil
}

func (sf *stubFacultyRepo) GetByID(_ context.Context, id int64) (*types.Faculty, error) {
	return sf.byID[id], nil
}

type stubPaperRepo struct {
	papers       []*types.Paper
	searchErr    error
	topByFaculty map[int64][]*types.Paper
	excludeSeen  [][]int64
}

func (sp *stubPaperRepo) SearchByEmbedding(_ context.Context, _ types.Vector, excludeIDs []int64, limit int, _ bool) ([]*types.Paper, error) {
	sp.excludeSeen = append(sp.excludeSeen, append([]int64(nil), excludeIDs...))
	if sp.searchErr != nil {
		return nil, sp.searchErr
	}
	excluded := map[int64]bool{}
	for _, id := range excludeIDs {
		excluded[id] = true
	}
	var out []*types.Paper
	for _, p := range sp.papers {
		if excluded[p.ID] {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (sp *stubPaperRepo) TopByFacultyIDs(_ context.Context, facultyIDs []int64, _ int) (map[int64][]*types.Paper, error) {
	out := map[int64][]*types.Paper{}
	for _, id := range facultyIDs {
		if papers, ok := sp.topByFaculty[id]; ok {
			out[id] = papers
		}
	}
	return out, nil
}

func (sp *stubPaperRepo) TopByFacultyID(_ context.Context, facultyID int64) (*types.Paper, error) {
	papers := sp.topByFaculty[facultyID]
	if len(papers) == 0 {
		return nil, nil
	}
	return papers[0], nil
}

func makePapers(n int) []*types.Paper {
	papers := make([]*types.Paper, 0, n)
	for i := 0; i < n; i++ {
		papers = append(papers, &types.Paper{
			ID:       int64(i + 1),
			Title:    fmt.Sprintf("Paper %d", i+1),
			Abstract: fmt.Sprintf("Abstract for paper %d", i+1),
		})
	}
	return papers
}
