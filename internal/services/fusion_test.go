package services

import (
	"math"
	"reflect"
	"testing"
)

func TestFuseRankedScores(t *testing.T) {
	// id 1 is rank 1 lexically and rank 2 in the vector list.
	fused := FuseRanked([]int64{1, 2}, []int64{3, 1}, 60, 10)
	if len(fused) != 3 {
		t.Fatalf("expected 3 fused results, got %d", len(fused))
	}

	want := 1.0/61.0 + 1.0/62.0
	if fused[0].ID != 1 {
		t.Fatalf("expected id 1 first, got %d", fused[0].ID)
	}
	if math.Abs(fused[0].Score-want) > 1e-12 {
		t.Fatalf("expected score %v for id 1, got %v", want, fused[0].Score)
	}
}

func TestFuseRankedBothListsBeatsOneList(t *testing.T) {
	// id 5 appears mid-rank in both lists; ids 1 and 9 top one list each.
	fused := FuseRanked([]int64{1, 5}, []int64{9, 5}, 60, 10)
	if fused[0].ID != 5 {
		t.Fatalf("expected both-lists id 5 to win, got %d", fused[0].ID)
	}
}

func TestFuseRankedExcludesAbsentIDs(t *testing.T) {
	fused := FuseRanked([]int64{1, 2}, []int64{2, 3}, 60, 10)
	for _, fr := range fused {
		if fr.ID != 1 && fr.ID != 2 && fr.ID != 3 {
			t.Fatalf("unexpected id %d in fused output", fr.ID)
		}
	}
	if len(fused) != 3 {
		t.Fatalf("expected 3 results, got %d", len(fused))
	}
}

func TestFuseRankedDeterministicTieBreak(t *testing.T) {
	// ids 1 and 2 score identically: each rank 1 in one list, absent from the
	// other. The one present in the vector list wins the tie.
	first := FuseRanked([]int64{1}, []int64{2}, 60, 10)
	for i := 0; i < 20; i++ {
		again := FuseRanked([]int64{1}, []int64{2}, 60, 10)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("fusion output changed across runs: %v vs %v", first, again)
		}
	}
	if first[0].ID != 2 {
		t.Fatalf("expected vector-side id 2 to win the tie, got %d", first[0].ID)
	}
}

func TestFuseRankedTruncatesToLimit(t *testing.T) {
	fused := FuseRanked([]int64{1, 2, 3, 4, 5}, []int64{6, 7, 8}, 60, 3)
	if len(fused) != 3 {
		t.Fatalf("expected 3 results after truncation, got %d", len(fused))
	}
}

func TestFuseRankedEmptyInputs(t *testing.T) {
	tests := []struct {
		name    string
		lexical []int64
		vector  []int64
		want    int
	}{
		{"both empty", nil, nil, 0},
		{"lexical only", []int64{1, 2}, nil, 2},
		{"vector only", nil, []int64{3}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fused := FuseRanked(tt.lexical, tt.vector, 60, 10)
			if len(fused) != tt.want {
				t.Fatalf("expected %d results, got %d", tt.want, len(fused))
			}
		})
	}
}
