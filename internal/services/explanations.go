package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/advisormatch-backend/internal/pkg/errors"
	"github.com/yungbote/advisormatch-backend/internal/platform/logger"
	"github.com/yungbote/advisormatch-backend/internal/repos"
)

const explanationPaperCount = 5

type Explanation struct {
	FacultyName string `json:"faculty_name"`
	Explanation string `json:"explanation"`
}

// ExplanationService writes a short advisor-match rationale for one faculty
// member against free-text interests.
type ExplanationService struct {
	log     *logger.Logger
	faculty repos.FacultyRepo
	papers  repos.PaperRepo
	llm     LLM
}

func NewExplanationService(baseLog *logger.Logger, faculty repos.FacultyRepo, papers repos.PaperRepo, llm LLM) *ExplanationService {
	return &ExplanationService{
		log:     baseLog.With("service", "ExplanationService"),
		faculty: faculty,
		papers:  papers,
		llm:     llm,
	}
}

// Explain returns a 2-3 sentence rationale. An unknown faculty id is
// ErrNotFound; an LLM failure degrades to a templated rationale.
func (xs *ExplanationService) Explain(ctx context.Context, interests string, facultyID int64) (*Explanation, error) {
	if strings.TrimSpace(interests) == "" {
		return nil, fmt.Errorf("interests are required: %w", errors.ErrInvalidArgument)
	}

	faculty, err := xs.faculty.GetByID(ctx, facultyID)
	if err != nil {
		return nil, fmt.Errorf("loading faculty: %w", err)
	}
	if faculty == nil {
		return nil, fmt.Errorf("faculty %d: %w", facultyID, errors.ErrNotFound)
	}

	papersByFaculty, err := xs.papers.TopByFacultyIDs(ctx, []int64{facultyID}, explanationPaperCount)
	if err != nil {
		return nil, fmt.Errorf("loading papers: %w", err)
	}

	var paperList strings.Builder
	for _, p := range papersByFaculty[facultyID] {
		fmt.Fprintf(&paperList, "- %s\n", p.Title)
	}

	prompt := fmt.Sprintf(`A prospective PhD student is interested in: %s

They matched with Professor %s, who has written papers including:
%s
In 2-3 sentences, explain why this professor might be a good research advisor match. Be specific about the connection between the student's interests and the professor's research.`,
		interests, faculty.Name, paperList.String())

	text, err := xs.llm.Complete(ctx, prompt, 250)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			xs.log.Warn("Explanation generation failed, using templated explanation", "faculty_id", facultyID, "error", err)
		}
		text = templatedExplanation(faculty)
	}

	return &Explanation{
		FacultyName: faculty.Name,
		Explanation: text,
	}, nil
}
