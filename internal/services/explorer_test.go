package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/yungbote/advisormatch-backend/internal/pkg/errors"
	"github.com/yungbote/advisormatch-backend/internal/repos"
	"github.com/yungbote/advisormatch-backend/internal/types"
)

func newTestExplorer(t *testing.T, faculty *stubFacultyRepo, papers *stubPaperRepo, embedder *stubEmbedder, llm *stubLLM) (*ExplorerService, *SessionStore) {
	t.Helper()
	log := testLogger(t)
	sessions := NewSessionStore(time.Hour, log)
	return NewExplorerService(log, sessions, faculty, papers, embedder, llm), sessions
}

func TestDiversitySample(t *testing.T) {
	tests := []struct {
		name    string
		pool    int
		limit   int
		wantIDs []int64
	}{
		{"full stride", 12, 4, []int64{1, 4, 7, 10}},
		{"pool smaller than limit", 3, 4, []int64{1, 2, 3}},
		{"pool equals limit", 4, 4, []int64{1, 2, 3, 4}},
		{"uneven stride", 10, 4, []int64{1, 3, 5, 7}},
		{"empty pool", 0, 4, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sampled := diversitySample(makePapers(tt.pool), tt.limit)
			if len(sampled) != len(tt.wantIDs) {
				t.Fatalf("expected %d papers, got %d", len(tt.wantIDs), len(sampled))
			}
			for i, want := range tt.wantIDs {
				if sampled[i].ID != want {
					t.Fatalf("position %d: expected id %d, got %d", i, want, sampled[i].ID)
				}
			}
		})
	}
}

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{"short passthrough", "brief", 10, "brief"},
		{"exact limit", "12345", 5, "12345"},
		{"ascii truncation", "1234567890", 5, "12345..."},
		{"multibyte truncation", "αβγδε", 3, "αβγ..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateText(tt.in, tt.limit)
			if got != tt.want {
				t.Fatalf("truncateText(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
			}
		})
	}
}

func TestTruncateTextKeepsRunesIntact(t *testing.T) {
	// A long multi-byte abstract must never be cut mid-character.
	long := strings.Repeat("é", abstractPreviewLen+50)
	got := truncateText(long, abstractPreviewLen)
	if !utf8.ValidString(got) {
		t.Fatalf("truncation produced invalid UTF-8")
	}
	if n := len([]rune(got)); n != abstractPreviewLen+3 {
		t.Fatalf("expected %d runes plus ellipsis, got %d", abstractPreviewLen, n)
	}
}

func TestExplorerStart(t *testing.T) {
	papers := &stubPaperRepo{papers: makePapers(12)}
	explorer, sessions := newTestExplorer(t, &stubFacultyRepo{}, papers, &stubEmbedder{}, &stubLLM{})

	result, err := explorer.Start(context.Background(), "protein folding")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if result.SessionID == "" {
		t.Fatalf("expected a session id")
	}
	if len(result.Papers) != 4 {
		t.Fatalf("expected 4 papers, got %d", len(result.Papers))
	}
	if result.Prompt != promptRoundZero {
		t.Fatalf("unexpected prompt %q", result.Prompt)
	}

	session, err := sessions.Get(result.SessionID)
	if err != nil {
		t.Fatalf("Get session: %v", err)
	}
	if len(session.ShownPaperIDs) != 4 {
		t.Fatalf("expected 4 shown paper ids, got %d", len(session.ShownPaperIDs))
	}
	if len(session.Conversation) != 1 || session.Conversation[0].Role != "system" {
		t.Fatalf("expected one system turn, got %+v", session.Conversation)
	}
}

func TestExplorerStartNoCandidates(t *testing.T) {
	explorer, _ := newTestExplorer(t, &stubFacultyRepo{}, &stubPaperRepo{}, &stubEmbedder{}, &stubLLM{})

	_, err := explorer.Start(context.Background(), "an interest matching nothing")
	if !stderrors.Is(err, errors.ErrNoCandidates) {
		t.Fatalf("expected ErrNoCandidates, got %v", err)
	}
}

func TestExplorerStartEmptyInterest(t *testing.T) {
	explorer, _ := newTestExplorer(t, &stubFacultyRepo{}, &stubPaperRepo{}, &stubEmbedder{}, &stubLLM{})

	_, err := explorer.Start(context.Background(), "   ")
	if !stderrors.Is(err, errors.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestExplorerRespondExcludesShownPapers(t *testing.T) {
	papers := &stubPaperRepo{papers: makePapers(30)}
	llm := &stubLLM{responses: []string{`{"liked":["graphs"],"disliked":[],"curious":["dynamics"],"refined_query":"graph dynamics","is_converged":false,"convergence_reason":"still exploring"}`}}
	explorer, sessions := newTestExplorer(t, &stubFacultyRepo{}, papers, &stubEmbedder{}, llm)

	start, err := explorer.Start(context.Background(), "networks")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	result, err := explorer.Respond(context.Background(), start.SessionID, "I like the graph ones")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}

	shown := map[int64]bool{}
	for _, p := range start.Papers {
		shown[p.ID] = true
	}
	for _, p := range result.Papers {
		if shown[p.ID] {
			t.Fatalf("paper %d shown twice", p.ID)
		}
	}

	session, err := sessions.Get(start.SessionID)
	if err != nil {
		t.Fatalf("Get session: %v", err)
	}
	if len(session.ShownPaperIDs) != 8 {
		t.Fatalf("expected 8 shown paper ids after one round, got %d", len(session.ShownPaperIDs))
	}
	if session.Preferences.Liked[0] != "graphs" || session.Preferences.Curious[0] != "dynamics" {
		t.Fatalf("preferences not recorded: %+v", session.Preferences)
	}
	if result.IsReady {
		t.Fatalf("not converged yet, should not be ready")
	}
}

func TestExplorerRespondLLMFailureFallsBack(t *testing.T) {
	papers := &stubPaperRepo{papers: makePapers(30)}
	embedder := &stubEmbedder{}
	llm := &stubLLM{err: fmt.Errorf("provider down")}
	explorer, _ := newTestExplorer(t, &stubFacultyRepo{}, papers, embedder, llm)

	start, err := explorer.Start(context.Background(), "networks")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	userText := "something about temporal graphs"
	if _, err := explorer.Respond(context.Background(), start.SessionID, userText); err != nil {
		t.Fatalf("Respond should survive LLM failure: %v", err)
	}

	// The raw response is embedded as the refined query.
	last := embedder.calls[len(embedder.calls)-1]
	if last != userText {
		t.Fatalf("expected raw user text as refined query, embedded %q", last)
	}
}

func TestExplorerRespondConvergence(t *testing.T) {
	papers := &stubPaperRepo{papers: makePapers(40)}
	llm := &stubLLM{responses: []string{`{"liked":[],"disliked":[],"curious":[],"refined_query":"spiking networks","is_converged":true,"convergence_reason":"consistent focus"}`}}
	explorer, _ := newTestExplorer(t, &stubFacultyRepo{}, papers, &stubEmbedder{}, llm)

	start, err := explorer.Start(context.Background(), "neuromorphic hardware")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	result, err := explorer.Respond(context.Background(), start.SessionID, "definitely spiking networks")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if !result.IsReady {
		t.Fatalf("expected ready after convergence")
	}
	if result.Prompt != promptReady {
		t.Fatalf("expected ready prompt, got %q", result.Prompt)
	}
}

func TestExplorerRespondHardRoundCap(t *testing.T) {
	papers := &stubPaperRepo{papers: makePapers(100)}
	llm := &stubLLM{responses: []string{`{"liked":[],"disliked":[],"curious":[],"refined_query":"keep going","is_converged":false,"convergence_reason":"wandering"}`}}
	explorer, _ := newTestExplorer(t, &stubFacultyRepo{}, papers, &stubEmbedder{}, llm)

	start, err := explorer.Start(context.Background(), "everything")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	var result *RespondResult
	for i := 0; i < maxExploreRounds; i++ {
		result, err = explorer.Respond(context.Background(), start.SessionID, "show me more")
		if err != nil {
			t.Fatalf("Respond round %d: %v", i+1, err)
		}
		if i < maxExploreRounds-1 && result.IsReady {
			t.Fatalf("ready too early at round %d", i+1)
		}
	}
	if !result.IsReady {
		t.Fatalf("expected ready at the round cap")
	}
}

func TestExplorerRespondUnknownSession(t *testing.T) {
	explorer, _ := newTestExplorer(t, &stubFacultyRepo{}, &stubPaperRepo{}, &stubEmbedder{}, &stubLLM{})

	_, err := explorer.Respond(context.Background(), "missing", "hello")
	if !stderrors.Is(err, errors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExplorerFinish(t *testing.T) {
	alice := &types.Faculty{ID: 1, Name: "Alice Chen", Affiliation: "MIT", ResearchTags: []string{"graphs", "dynamics"}}
	faculty := &stubFacultyRepo{
		vectorHits: []repos.FacultyHit{{Faculty: alice, Similarity: 0.91}},
		byID:       map[int64]*types.Faculty{1: alice},
	}
	papers := &stubPaperRepo{
		papers:       makePapers(12),
		topByFaculty: map[int64][]*types.Paper{1: {{ID: 99, Title: "Temporal Graph Networks"}}},
	}
	llm := &stubLLM{responses: []string{
		`{"title":"Temporal Graph Learning","description":"Learning on evolving graph structures."}`,
		"Alice Chen works directly on temporal graphs.",
	}}
	explorer, sessions := newTestExplorer(t, faculty, papers, &stubEmbedder{}, llm)

	start, err := explorer.Start(context.Background(), "graphs over time")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	result, err := explorer.Finish(context.Background(), start.SessionID)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if result.DirectionSummary != "Temporal Graph Learning" {
		t.Fatalf("unexpected direction summary %q", result.DirectionSummary)
	}
	if len(result.FacultyMatches) != 1 {
		t.Fatalf("expected one match, got %d", len(result.FacultyMatches))
	}
	match := result.FacultyMatches[0]
	if match.Faculty.Name != "Alice Chen" || match.KeyPaper != "Temporal Graph Networks" {
		t.Fatalf("unexpected match %+v", match)
	}

	// The explanation prompt sees the same "title: description" text that was
	// embedded for matching.
	explainPrompt := llm.prompts[len(llm.prompts)-1]
	if !strings.Contains(explainPrompt, "Temporal Graph Learning: Learning on evolving graph structures.") {
		t.Fatalf("explanation prompt missing combined direction text: %q", explainPrompt)
	}

	// Finishing consumes the session.
	if _, err := sessions.Get(start.SessionID); !stderrors.Is(err, errors.ErrNotFound) {
		t.Fatalf("expected session deleted after finish, got %v", err)
	}
}

func TestExplorerFinishSynthesisFallback(t *testing.T) {
	alice := &types.Faculty{ID: 1, Name: "Alice Chen", ResearchTags: []string{"graphs"}}
	faculty := &stubFacultyRepo{
		vectorHits: []repos.FacultyHit{{Faculty: alice, Similarity: 0.8}},
		byID:       map[int64]*types.Faculty{1: alice},
	}
	papers := &stubPaperRepo{papers: makePapers(12)}
	llm := &stubLLM{err: fmt.Errorf("provider down")}
	explorer, _ := newTestExplorer(t, faculty, papers, &stubEmbedder{}, llm)

	start, err := explorer.Start(context.Background(), "swarm robotics")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	result, err := explorer.Finish(context.Background(), start.SessionID)
	if err != nil {
		t.Fatalf("Finish should survive LLM failure: %v", err)
	}
	if result.DirectionSummary != "Research Direction" {
		t.Fatalf("expected templated summary, got %q", result.DirectionSummary)
	}
	if result.DirectionDescription != "Based on your interest in swarm robotics and exploration of related topics." {
		t.Fatalf("unexpected templated description %q", result.DirectionDescription)
	}
	if result.FacultyMatches[0].Explanation == "" {
		t.Fatalf("expected templated explanation")
	}
}
