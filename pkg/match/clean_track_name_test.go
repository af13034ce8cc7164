package match

import "testing"

func TestCleanTrackNameRemovesFeaturingCredit(t *testing.T) {
	got := CleanTrackNameForSearch("Blinding Lights (feat. Someone Else)")
	if got != "Blinding Lights" {
		t.Fatalf("CleanTrackNameForSearch = %q", got)
	}
}

func TestCleanTrackNameRemovesExplicitTag(t *testing.T) {
	got := CleanTrackNameForSearch("Money Trees (Explicit)")
	if got != "Money Trees" {
		t.Fatalf("CleanTrackNameForSearch = %q", got)
	}
}

func TestCleanTrackNameRemovesRadioEdit(t *testing.T) {
	got := CleanTrackNameForSearch("Levels (Radio Edit)")
	if got != "Levels" {
		t.Fatalf("CleanTrackNameForSearch = %q", got)
	}
}

func TestCleanTrackNamePreservesMusicalTags(t *testing.T) {
	for _, name := range []string{
		"Layla (Acoustic)",
		"Alive (Remix)",
		"Yesterday (Live)",
		"Hurt (Instrumental)",
		"Angels (Extended Version)",
		"Wonderwall (Remastered)",
	} {
		if got := CleanTrackNameForSearch(name); got != name {
			t.Fatalf("CleanTrackNameForSearch(%q) = %q, want unchanged", name, got)
		}
	}
}

func TestCleanTrackNameFallsBackToOriginalWhenEmptyResult(t *testing.T) {
	got := CleanTrackNameForSearch("(feat. Someone Else)")
	if got != "(feat. Someone Else)" {
		t.Fatalf("CleanTrackNameForSearch = %q, want original", got)
	}
}

func TestCleanTrackNameIsIdempotent(t *testing.T) {
	inputs := []string{
		"Blinding Lights (feat. Someone Else) (Explicit)",
		"Levels (Radio Edit)",
		"Layla (Acoustic)",
		"Plain Title",
	}
	for _, in := range inputs {
		once := CleanTrackNameForSearch(in)
		twice := CleanTrackNameForSearch(once)
		if once != twice {
			t.Fatalf("clean not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}
