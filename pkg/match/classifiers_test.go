package match

import "testing"

func TestIsRemixVersionExcludesRemaster(t *testing.T) {
	names := []string{
		"Money (Remastered)",
		"Money (Remaster)",
		"Money (2011 Remastered Version)",
	}
	for _, n := range names {
		if IsRemixVersion(n) {
			t.Fatalf("IsRemixVersion(%q) = true, want false (remaster excluded)", n)
		}
	}
}

func TestIsRemixVersionMatchesRemix(t *testing.T) {
	if !IsRemixVersion("Alive (Club Mix)") {
		t.Fatalf("expected remix match")
	}
	if !IsRemixVersion("Levels (Radio Edit)") {
		t.Fatalf("expected remix match")
	}
}

func TestIsLiveVersion(t *testing.T) {
	if !IsLiveVersion("Yesterday (Live at Wembley)") {
		t.Fatalf("expected live match")
	}
	if IsLiveVersion("Alive (Club Mix)") {
		t.Fatalf("unexpected live match")
	}
}

func TestIsAcousticVersion(t *testing.T) {
	if !IsAcousticVersion("Layla (Acoustic)") {
		t.Fatalf("expected acoustic match")
	}
}

func TestIsCompilationAlbum(t *testing.T) {
	if !IsCompilationAlbum("Greatest Hits") {
		t.Fatalf("expected compilation match")
	}
	if IsCompilationAlbum("Abbey Road") {
		t.Fatalf("unexpected compilation match")
	}
}

func TestReleaseCategoryThresholds(t *testing.T) {
	cases := []struct {
		count int
		want  string
	}{
		{1, "single"},
		{3, "single"},
		{4, "ep"},
		{6, "ep"},
		{7, "album"},
		{20, "album"},
	}
	for _, c := range cases {
		if got := ReleaseCategory(c.count); got != c.want {
			t.Fatalf("ReleaseCategory(%d) = %q, want %q", c.count, got, c.want)
		}
	}
}
