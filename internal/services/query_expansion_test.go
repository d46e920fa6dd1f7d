package services

import (
	"strings"
	"testing"
)

func TestExpandAppendsKnownAbbreviations(t *testing.T) {
	qe := NewQueryExpander(testLogger(t))

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"single abbreviation", "ML research", []string{"machine learning"}},
		{"lowercase matches", "nlp parsing", []string{"natural language processing"}},
		{"punctuation stripped", "interested in RL.", []string{"reinforcement learning"}},
		{"multiple abbreviations", "ML and CV", []string{"machine learning", "computer vision"}},
		{"mixed case biology", "fMRI analysis", []string{"functional magnetic resonance imaging"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := qe.Expand(tt.query)
			if !strings.HasPrefix(got, tt.query) {
				t.Fatalf("expanded query %q does not keep the original prefix %q", got, tt.query)
			}
			for _, phrase := range tt.want {
				if !strings.Contains(got, phrase) {
					t.Fatalf("expected %q in %q", phrase, got)
				}
			}
		})
	}
}

func TestExpandNoMatchIsUnchanged(t *testing.T) {
	qe := NewQueryExpander(testLogger(t))

	for _, query := range []string{"graph neural networks", "HTML rendering", "sMLx token"} {
		if got := qe.Expand(query); got != query {
			t.Fatalf("expected %q unchanged, got %q", query, got)
		}
	}
}

func TestExpandDeduplicatesRepeatedAbbreviations(t *testing.T) {
	qe := NewQueryExpander(testLogger(t))

	got := qe.Expand("ML for ML applications")
	if n := strings.Count(got, "machine learning"); n != 1 {
		t.Fatalf("expected one expansion, found %d in %q", n, got)
	}
}

func TestExpandAppendsEvenWhenPhraseAlreadyPresent(t *testing.T) {
	qe := NewQueryExpander(testLogger(t))

	// The abbreviation token still triggers its expansion when the full
	// phrase is already spelled out; dedup covers only the additions set.
	got := qe.Expand("ML machine learning")
	if got != "ML machine learning machine learning" {
		t.Fatalf("expected appended expansion, got %q", got)
	}
}

func TestExpandFullPhrasesOnlyIsUnchanged(t *testing.T) {
	qe := NewQueryExpander(testLogger(t))

	// Expanded text that contains no abbreviation tokens passes through, so
	// re-expanding it is a no-op.
	query := "machine learning and natural language processing"
	if got := qe.Expand(query); got != query {
		t.Fatalf("expected %q unchanged, got %q", query, got)
	}
}
