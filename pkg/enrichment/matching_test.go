package enrichment

import (
	"testing"

	"github.com/nezreka/fulfillment/pkg/catalog"
	"github.com/nezreka/fulfillment/pkg/metaprovider"
)

func TestBestArtistMatchRejectsNumericID(t *testing.T) {
	candidates := []metaprovider.Artist{
		{ID: "8675309", Name: "Radiohead"},
		{ID: "abc123", Name: "Radiohead"},
	}
	got, ok := bestArtistMatch("Radiohead", candidates)
	if !ok {
		t.Fatal("expected a match")
	}
	if got.ID != "abc123" {
		t.Fatalf("ID = %q, want abc123 (numeric-only id must be skipped)", got.ID)
	}
}

func TestBestArtistMatchRejectsLowSimilarity(t *testing.T) {
	candidates := []metaprovider.Artist{{ID: "x1", Name: "Completely Different Band"}}
	if _, ok := bestArtistMatch("Radiohead", candidates); ok {
		t.Fatal("expected no match below threshold")
	}
}

func TestBestUnusedAlbumMatchSkipsUsed(t *testing.T) {
	candidates := []metaprovider.Album{
		{ID: "a1", Name: "OK Computer"},
		{ID: "a2", Name: "OK Computer"},
	}
	used := []bool{true, false}
	idx, ok := bestUnusedAlbumMatch("OK Computer", candidates, used)
	if !ok || idx != 1 {
		t.Fatalf("idx = %d, ok = %v, want 1, true", idx, ok)
	}
}

func TestBestUnusedTrackMatchPrefersTrackNumber(t *testing.T) {
	num := 3
	child := catalog.Track{Title: "Paranoid Android", TrackNumber: &num}
	candidates := []metaprovider.Track{
		{ID: "t1", Name: "Paranoid Android", TrackNumber: 7},
		{ID: "t2", Name: "Paranoid Android", TrackNumber: 3},
	}
	used := make([]bool, 2)
	idx, ok := bestUnusedTrackMatch(child, candidates, used)
	if !ok || idx != 1 {
		t.Fatalf("idx = %d, ok = %v, want 1, true (exact track number)", idx, ok)
	}
}

func TestBestUnusedTrackMatchFallsBackToNameOnly(t *testing.T) {
	child := catalog.Track{Title: "Paranoid Android"}
	candidates := []metaprovider.Track{{ID: "t1", Name: "Paranoid Android", TrackNumber: 3}}
	used := make([]bool, 1)
	idx, ok := bestUnusedTrackMatch(child, candidates, used)
	if !ok || idx != 0 {
		t.Fatalf("idx = %d, ok = %v, want 0, true", idx, ok)
	}
}

func TestParseYear(t *testing.T) {
	cases := map[string]*int{
		"1997-06-16": intPtr(1997),
		"1997":       intPtr(1997),
		"":           nil,
		"garbage":    nil,
	}
	for in, want := range cases {
		got := parseYear(in)
		if (got == nil) != (want == nil) {
			t.Fatalf("parseYear(%q) = %v, want %v", in, got, want)
		}
		if got != nil && *got != *want {
			t.Fatalf("parseYear(%q) = %d, want %d", in, *got, *want)
		}
	}
}

func intPtr(n int) *int { return &n }
