package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/advisormatch-backend/internal/pkg/errors"
	"github.com/yungbote/advisormatch-backend/internal/platform/logger"
	"github.com/yungbote/advisormatch-backend/internal/repos"
	"github.com/yungbote/advisormatch-backend/internal/types"
)

const (
	// explorePageSize is how many papers each round shows.
	explorePageSize = 4
	// overFetchFactor over-fetches similarity candidates before diversity
	// sampling spreads them out.
	overFetchFactor = 3
	// maxExploreRounds is the hard cap: after this many user responses the
	// session is ready regardless of the convergence signal.
	maxExploreRounds = 4
	// directionMatchLimit is how many faculty a finished direction matches.
	directionMatchLimit = 3

	abstractPreviewLen = 500
)

const (
	promptRoundZero = "Here are some papers spanning different areas related to your interest. Which aspects resonate with you? What draws you to them or what's missing?"
	promptEarly     = "Based on your interests, here are more focused papers. What specifically interests you about these? What would you like to explore further?"
	promptLate      = "We're narrowing in on your interests. Do any of these capture what you're looking for? Or would you like to see faculty working in this area?"
	promptReady     = "It looks like you're developing a clear research direction! Would you like to see faculty who work in this area, or continue exploring?"
)

type ExplorePaper struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Abstract    string `json:"abstract"`
	Year        *int   `json:"year"`
	Venue       string `json:"venue"`
	FacultyName string `json:"faculty_name"`
}

type StartResult struct {
	SessionID string         `json:"session_id"`
	Papers    []ExplorePaper `json:"papers"`
	Prompt    string         `json:"prompt"`
}

type RespondResult struct {
	Papers  []ExplorePaper `json:"papers"`
	Prompt  string         `json:"prompt"`
	IsReady bool           `json:"is_ready"`
}

type FacultyMatch struct {
	Faculty     FacultyResponse `json:"faculty"`
	Similarity  float64         `json:"similarity"`
	Explanation string          `json:"explanation"`
	KeyPaper    string          `json:"key_paper"`
}

type FinishResult struct {
	DirectionSummary     string         `json:"direction_summary"`
	DirectionDescription string         `json:"direction_description"`
	FacultyMatches       []FacultyMatch `json:"faculty_matches"`
}

// ExplorerService drives the round-based exploration protocol: diverse
// sampling, preference extraction, query refinement, convergence, and the
// final direction synthesis with faculty matching.
type ExplorerService struct {
	log      *logger.Logger
	sessions *SessionStore
	faculty  repos.FacultyRepo
	papers   repos.PaperRepo
	embedder Embedder
	llm      LLM
}

func NewExplorerService(baseLog *logger.Logger, sessions *SessionStore, faculty repos.FacultyRepo, papers repos.PaperRepo, embedder Embedder, llm LLM) *ExplorerService {
	return &ExplorerService{
		log:      baseLog.With("service", "ExplorerService"),
		sessions: sessions,
		faculty:  faculty,
		papers:   papers,
		embedder: embedder,
		llm:      llm,
	}
}

// Start creates a session and returns a diverse first batch of papers
// matching the initial interest, plus the round-0 prompt.
func (es *ExplorerService) Start(ctx context.Context, initialInterest string) (*StartResult, error) {
	interest := strings.TrimSpace(initialInterest)
	if interest == "" {
		return nil, fmt.Errorf("initial interest is required: %w", errors.ErrInvalidArgument)
	}

	papers, err := es.diversePapers(ctx, interest, nil, explorePageSize)
	if err != nil {
		return nil, err
	}
	if len(papers) == 0 {
		return nil, fmt.Errorf("no papers matched the initial interest: %w", errors.ErrNoCandidates)
	}

	session := es.sessions.Create(interest)
	for _, p := range papers {
		session.ShownPaperIDs = append(session.ShownPaperIDs, p.ID)
	}
	session.Conversation = append(session.Conversation, Turn{
		Role:    "system",
		Content: "User interested in: " + interest,
	})

	out, err := es.toExplorePapers(ctx, papers)
	if err != nil {
		return nil, err
	}
	return &StartResult{
		SessionID: session.ID,
		Papers:    out,
		Prompt:    promptRoundZero,
	}, nil
}

// Respond records the user's reaction, refines the query, and returns the
// next batch of unseen papers. LLM failures degrade to using the raw user
// text as the refined query; they never fail the round.
func (es *ExplorerService) Respond(ctx context.Context, sessionID, userText string) (*RespondResult, error) {
	session, err := es.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	session.Conversation = append(session.Conversation, Turn{Role: "user", Content: userText})
	session.Rounds++

	extraction := es.extractPreferences(ctx, session, userText)
	session.Preferences.Liked = append(session.Preferences.Liked, extraction.Liked...)
	session.Preferences.Disliked = append(session.Preferences.Disliked, extraction.Disliked...)
	session.Preferences.Curious = append(session.Preferences.Curious, extraction.Curious...)

	embedding, err := es.embedder.Embed(ctx, extraction.RefinedQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding refined query: %w", err)
	}
	papers, err := es.papers.SearchByEmbedding(ctx, types.Vector(embedding), session.ShownPaperIDs, explorePageSize, true)
	if err != nil {
		return nil, fmt.Errorf("searching papers: %w", err)
	}
	if len(papers) == 0 {
		return nil, fmt.Errorf("no unseen papers match the refined interests: %w", errors.ErrNoCandidates)
	}

	for _, p := range papers {
		session.ShownPaperIDs = append(session.ShownPaperIDs, p.ID)
	}

	isReady := extraction.IsConverged || session.Rounds >= maxExploreRounds
	prompt := roundPrompt(session.Rounds)
	if isReady {
		prompt = promptReady
	}

	out, err := es.toExplorePapers(ctx, papers)
	if err != nil {
		return nil, err
	}
	return &RespondResult{
		Papers:  out,
		Prompt:  prompt,
		IsReady: isReady,
	}, nil
}

// Finish synthesizes the research direction, matches faculty against it, and
// deletes the session.
func (es *ExplorerService) Finish(ctx context.Context, sessionID string) (*FinishResult, error) {
	session, err := es.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	direction := es.synthesizeDirection(ctx, session)

	// The same combined text drives both the embedding and the match
	// explanations.
	directionText := direction.Title + ": " + direction.Description

	embedding, err := es.embedder.Embed(ctx, directionText)
	if err != nil {
		return nil, fmt.Errorf("embedding direction: %w", err)
	}

	// Direction matching is unfiltered pure vector search; there is no
	// h-index floor or university allow-list on this path.
	hits, err := es.faculty.SearchByEmbedding(ctx, types.Vector(embedding), repos.SearchFilter{}, directionMatchLimit)
	if err != nil {
		return nil, fmt.Errorf("matching faculty: %w", err)
	}

	matches := make([]FacultyMatch, 0, len(hits))
	for _, hit := range hits {
		topPaper, err := es.papers.TopByFacultyID(ctx, hit.Faculty.ID)
		if err != nil {
			return nil, fmt.Errorf("loading top paper: %w", err)
		}
		keyPaper := ""
		if topPaper != nil {
			keyPaper = topPaper.Title
		}
		matches = append(matches, FacultyMatch{
			Faculty:     toFacultyResponse(hit.Faculty),
			Similarity:  hit.Similarity,
			Explanation: es.explainMatch(ctx, directionText, hit.Faculty, keyPaper),
			KeyPaper:    keyPaper,
		})
	}

	es.sessions.Delete(session.ID)

	return &FinishResult{
		DirectionSummary:     direction.Title,
		DirectionDescription: direction.Description,
		FacultyMatches:       matches,
	}, nil
}

// diversePapers over-fetches similarity candidates and stride-samples them so
// the batch spreads across the ranked range instead of clustering at the top.
func (es *ExplorerService) diversePapers(ctx context.Context, interest string, excludeIDs []int64, limit int) ([]*types.Paper, error) {
	embedding, err := es.embedder.Embed(ctx, interest)
	if err != nil {
		return nil, fmt.Errorf("embedding interest: %w", err)
	}
	candidates, err := es.papers.SearchByEmbedding(ctx, types.Vector(embedding), excludeIDs, limit*overFetchFactor, true)
	if err != nil {
		return nil, fmt.Errorf("searching papers: %w", err)
	}
	return diversitySample(candidates, limit), nil
}

// diversitySample takes every step-th candidate from the ranked list, where
// step = max(1, len/limit). It returns fewer than limit items only when the
// pool itself is smaller.
func diversitySample(candidates []*types.Paper, limit int) []*types.Paper {
	if len(candidates) == 0 || limit <= 0 {
		return nil
	}
	step := len(candidates) / limit
	if step < 1 {
		step = 1
	}
	out := make([]*types.Paper, 0, limit)
	for i := 0; i < len(candidates) && len(out) < limit; i += step {
		out = append(out, candidates[i])
	}
	return out
}

func roundPrompt(round int) string {
	switch {
	case round == 0:
		return promptRoundZero
	case round < 3:
		return promptEarly
	default:
		return promptLate
	}
}

type preferenceExtraction struct {
	Liked             []string `json:"liked"`
	Disliked          []string `json:"disliked"`
	Curious           []string `json:"curious"`
	RefinedQuery      string   `json:"refined_query"`
	IsConverged       bool     `json:"is_converged"`
	ConvergenceReason string   `json:"convergence_reason"`
}

// extractPreferences asks the LLM for preference deltas, a refined query and
// a convergence signal. Any provider or parse failure degrades to the raw
// user text as the query with no deltas and no convergence.
func (es *ExplorerService) extractPreferences(ctx context.Context, session *Session, userText string) preferenceExtraction {
	fallback := preferenceExtraction{RefinedQuery: userText}

	var convContext strings.Builder
	fmt.Fprintf(&convContext, "Initial interest: %s\n", session.InitialInterest)
	fmt.Fprintf(&convContext, "Rounds so far: %d\n", session.Rounds)
	if len(session.Preferences.Liked) > 0 {
		fmt.Fprintf(&convContext, "Previously liked: %s\n", strings.Join(session.Preferences.Liked, ", "))
	}
	if len(session.Preferences.Curious) > 0 {
		fmt.Fprintf(&convContext, "Previously curious about: %s\n", strings.Join(session.Preferences.Curious, ", "))
	}

	prompt := fmt.Sprintf(`Analyze this user's response about research papers they were shown.

%s

User's latest response:
"%s"

Extract:
1. What aspects they LIKED (topics, methods, applications they found interesting)
2. What they DISLIKED or found uninteresting
3. What they're CURIOUS about or want to explore more
4. A refined search query (5-10 keywords) to find papers matching their evolving interests
5. Whether they seem to have CONVERGED on a specific direction (true if consistent interests over 2+ responses)

Respond in this exact JSON format:
{
    "liked": ["topic1", "topic2"],
    "disliked": ["topic3"],
    "curious": ["aspect1", "aspect2"],
    "refined_query": "keyword1 keyword2 keyword3 specific research terms",
    "is_converged": false,
    "convergence_reason": "why or why not converged"
}`, convContext.String(), userText)

	raw, err := es.llm.Complete(ctx, prompt, 500)
	if err != nil {
		es.log.Warn("Preference extraction failed, falling back to raw response", "session_id", session.ID, "error", err)
		return fallback
	}

	var extraction preferenceExtraction
	if err := decodeJSONBlock(raw, &extraction); err != nil {
		es.log.Warn("Preference extraction returned malformed JSON, falling back to raw response", "session_id", session.ID, "error", err)
		return fallback
	}
	if strings.TrimSpace(extraction.RefinedQuery) == "" {
		extraction.RefinedQuery = userText
	}
	return extraction
}

type researchDirection struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// synthesizeDirection asks the LLM to condense the conversation into a short
// direction. On failure it falls back to a template built from the initial
// interest.
func (es *ExplorerService) synthesizeDirection(ctx context.Context, session *Session) researchDirection {
	fallback := researchDirection{
		Title:       "Research Direction",
		Description: fmt.Sprintf("Based on your interest in %s and exploration of related topics.", session.InitialInterest),
	}

	var context strings.Builder
	fmt.Fprintf(&context, "Initial interest: %s\n\n", session.InitialInterest)
	context.WriteString("Conversation history:\n")
	for _, turn := range session.Conversation {
		fmt.Fprintf(&context, "- %s: %s\n", turn.Role, truncateText(turn.Content, 200))
	}
	fmt.Fprintf(&context, "\nFinal preferences:\n")
	fmt.Fprintf(&context, "- Liked: %s\n", strings.Join(session.Preferences.Liked, ", "))
	fmt.Fprintf(&context, "- Curious about: %s\n", strings.Join(session.Preferences.Curious, ", "))

	prompt := fmt.Sprintf(`Based on this research exploration conversation, synthesize the student's research direction.

%s

Provide:
1. A concise title for their research direction (5-10 words)
2. A 2-3 sentence description of what specifically interests them

Respond in JSON format:
{
    "title": "Research Direction Title",
    "description": "Description of their specific interests and what they want to explore."
}`, context.String())

	raw, err := es.llm.Complete(ctx, prompt, 300)
	if err != nil {
		es.log.Warn("Direction synthesis failed, using templated direction", "session_id", session.ID, "error", err)
		return fallback
	}

	var direction researchDirection
	if err := decodeJSONBlock(raw, &direction); err != nil {
		es.log.Warn("Direction synthesis returned malformed JSON, using templated direction", "session_id", session.ID, "error", err)
		return fallback
	}
	if strings.TrimSpace(direction.Title) == "" || strings.TrimSpace(direction.Description) == "" {
		return fallback
	}
	return direction
}

// explainMatch writes a 1-2 sentence match explanation, falling back to a
// template over up to three research tags when the LLM is unavailable.
func (es *ExplorerService) explainMatch(ctx context.Context, directionText string, faculty *types.Faculty, keyPaper string) string {
	topPaper := keyPaper
	if topPaper == "" {
		topPaper = "N/A"
	}
	prompt := fmt.Sprintf(`In 1-2 sentences, explain why this faculty member matches a student interested in: "%s"

Faculty: %s at %s
Research areas: %s
Top paper: %s`, directionText, faculty.Name, faculty.Affiliation, strings.Join(faculty.ResearchTags, ", "), topPaper)

	explanation, err := es.llm.Complete(ctx, prompt, 100)
	if err != nil || strings.TrimSpace(explanation) == "" {
		if err != nil {
			es.log.Warn("Match explanation failed, using templated explanation", "faculty_id", faculty.ID, "error", err)
		}
		return templatedExplanation(faculty)
	}
	return explanation
}

// truncateText caps s at limit characters plus an ellipsis. It counts runes,
// never splitting a multi-byte character.
func truncateText(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

func templatedExplanation(faculty *types.Faculty) string {
	tags := faculty.ResearchTags
	if len(tags) > 3 {
		tags = tags[:3]
	}
	if len(tags) == 0 {
		return fmt.Sprintf("%s's recent publications align closely with your research direction.", faculty.Name)
	}
	return fmt.Sprintf("%s works on %s, which aligns closely with your research direction.", faculty.Name, strings.Join(tags, ", "))
}

// toExplorePapers projects papers for the client, truncating long abstracts
// and resolving owning faculty names in one batch.
func (es *ExplorerService) toExplorePapers(ctx context.Context, papers []*types.Paper) ([]ExplorePaper, error) {
	var facultyIDs []int64
	seen := map[int64]bool{}
	for _, p := range papers {
		if p.FacultyID != nil && !seen[*p.FacultyID] {
			seen[*p.FacultyID] = true
			facultyIDs = append(facultyIDs, *p.FacultyID)
		}
	}

	nameByID := map[int64]string{}
	if len(facultyIDs) > 0 {
		owners, err := es.faculty.GetByIDs(ctx, facultyIDs)
		if err != nil {
			return nil, fmt.Errorf("loading paper owners: %w", err)
		}
		for _, f := range owners {
			nameByID[f.ID] = f.Name
		}
	}

	out := make([]ExplorePaper, 0, len(papers))
	for _, p := range papers {
		abstract := truncateText(p.Abstract, abstractPreviewLen)
		facultyName := ""
		if p.FacultyID != nil {
			facultyName = nameByID[*p.FacultyID]
		}
		out = append(out, ExplorePaper{
			ID:          p.ID,
			Title:       p.Title,
			Abstract:    abstract,
			Year:        p.Year,
			Venue:       p.Venue,
			FacultyName: facultyName,
		})
	}
	return out, nil
}
