package match

import (
	"testing"

	"github.com/erazemk/najdeno/internal/model"
)

func TestScoreCriteria(t *testing.T) {
	tests := []struct {
		name  string
		lost  model.Item
		found model.Item
		want  int
	}{
		{
			name:  "nothing in common",
			lost:  model.Item{Name: "Umbrella", Category: "Other"},
			found: model.Item{Name: "Laptop", Category: "Electronics"},
			want:  0,
		},
		{
			name:  "category ignores case and spacing",
			lost:  model.Item{Category: " Electronics "},
			found: model.Item{Category: "electronics"},
			want:  40,
		},
		{
			name:  "empty categories do not match",
			lost:  model.Item{},
			found: model.Item{},
			want:  0,
		},
		{
			name:  "color",
			lost:  model.Item{Color: "Black"},
			found: model.Item{Color: "black"},
			want:  10,
		},
		{
			name:  "text capped at thirty",
			lost:  model.Item{Name: "Blue", Description: "leather wallet with student card inside"},
			found: model.Item{Name: "Wallet", Description: "leather wallet, student card inside"},
			want:  30,
		},
		{
			name:  "short words ignored",
			lost:  model.Item{Name: "red pen"},
			found: model.Item{Name: "red pen"},
			want:  0,
		},
		{
			name: "everything",
			lost: model.Item{
				Name: "Keys", Category: "Keys", Description: "car keys on a ring",
				Location: "Main Library 2nd Floor", Color: "silver",
			},
			found: model.Item{
				Name: "Keys", Category: "keys", Description: "bunch of keys with ring",
				Location: "Library", Color: "Silver",
			},
			// "keys" occurs twice in the lost text and counts twice.
			want: 40 + 30 + 20 + 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(&tt.lost, &tt.found); got != tt.want {
				t.Errorf("Score = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScoreLocationIsDirectional(t *testing.T) {
	a := &model.Item{Location: "Main Library 2nd Floor"}
	b := &model.Item{Location: "Library"}

	if got := Score(a, b); got != 20 {
		t.Errorf("lost location containing found location: got %d, want 20", got)
	}
	if got := Score(b, a); got != 0 {
		t.Errorf("reversed roles: got %d, want 0", got)
	}
}

func TestScoreWalletScenario(t *testing.T) {
	lost := &model.Item{Category: "Electronics", Location: "Gym", Description: "black wallet with cards"}
	found := &model.Item{Category: "Electronics", Location: "Gymnasium entrance", Description: "black wallet found near gym"}

	// "Gym" does not contain "Gymnasium entrance", so no location points.
	if got := Score(lost, found); got != 60 {
		t.Errorf("Score = %d, want 60", got)
	}

	got := Rank(lost, []model.Item{*found})
	if len(got) != 1 || got[0].Score != 60 {
		t.Fatalf("Rank = %+v, want one candidate scored 60", got)
	}
}

func TestRank(t *testing.T) {
	lost := &model.Item{
		ID: 1, Category: "Bags", Location: "Cafeteria", Color: "red",
		RejectedMatches: []int64{12},
	}
	matched := int64(13)
	lost.MatchedWith = &matched

	var founds []model.Item
	// 10: 40, 11: 70, 12: 50, 13: 60, 14: 0, 15..18: 40
	founds = append(founds,
		model.Item{ID: 10, Category: "bags"},
		model.Item{ID: 11, Category: "bags", Location: "cafeteria", Color: "red"},
		model.Item{ID: 12, Category: "bags", Color: "red"},
		model.Item{ID: 13, Category: "bags", Location: "Cafeteria"},
		model.Item{ID: 14, Category: "shoes"},
	)
	for id := int64(15); id <= 18; id++ {
		founds = append(founds, model.Item{ID: id, Category: "Bags"})
	}

	got := Rank(lost, founds)
	if len(got) != MaxCandidates {
		t.Fatalf("expected %d candidates, got %d", MaxCandidates, len(got))
	}

	wantIDs := []int64{11, 13, 12, 10, 15}
	for i, want := range wantIDs {
		if got[i].Item.ID != want {
			t.Errorf("position %d: got item %d, want %d", i, got[i].Item.ID, want)
		}
	}

	for _, c := range got {
		if c.Item.ID == 12 && !c.Rejected {
			t.Error("expected item 12 to be flagged rejected")
		}
		if c.Item.ID == 13 && !c.Approved {
			t.Error("expected item 13 to be flagged approved")
		}
		if c.Item.ID == 11 && (c.Rejected || c.Approved) {
			t.Error("expected item 11 to carry no flags")
		}
	}
}

func TestRankBelowThreshold(t *testing.T) {
	lost := &model.Item{Color: "green"}
	got := Rank(lost, []model.Item{{ID: 1, Color: "green"}})
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}
