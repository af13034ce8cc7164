package postprocess

import (
	"path/filepath"
	"testing"

	"github.com/nezreka/fulfillment/pkg/fulfillment"
)

func TestSanitizeComponent(t *testing.T) {
	cases := map[string]string{
		"Sigur Rós":       "Sigur Rós",
		"AC/DC":           "AC_DC",
		"Track: Part Two": "Track_ Part Two",
		"trailing. ":      "trailing",
		"   ":             "Unknown",
		"":                "Unknown",
	}
	for in, want := range cases {
		if got := sanitizeComponent(in); got != want {
			t.Errorf("sanitizeComponent(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLibraryPathWithTrackNumber(t *testing.T) {
	n := 4
	ctxInfo := fulfillment.MatchedContext{
		ArtistName:  "Boards of Canada",
		AlbumName:   "Geogaddi",
		TrackTitle:  "1969",
		TrackNumber: &n,
	}
	got := libraryPath("/library", ctxInfo, ".flac")
	want := filepath.Join("/library", "Boards of Canada", "Geogaddi", "04 - 1969.flac")
	if got != want {
		t.Errorf("libraryPath() = %q, want %q", got, want)
	}
}

func TestLibraryPathWithoutTrackNumber(t *testing.T) {
	ctxInfo := fulfillment.MatchedContext{
		ArtistName: "Boards of Canada",
		AlbumName:  "Geogaddi",
		TrackTitle: "1969",
	}
	got := libraryPath("/library", ctxInfo, ".mp3")
	want := filepath.Join("/library", "Boards of Canada", "Geogaddi", "1969.mp3")
	if got != want {
		t.Errorf("libraryPath() = %q, want %q", got, want)
	}
}

func TestLibraryPathFallsBackOnMissingFields(t *testing.T) {
	got := libraryPath("/library", fulfillment.MatchedContext{}, ".mp3")
	want := filepath.Join("/library", "Unknown Artist", "Unknown Album", "Unknown Title.mp3")
	if got != want {
		t.Errorf("libraryPath() = %q, want %q", got, want)
	}
}

func TestTrackNumberString(t *testing.T) {
	if got := trackNumberString(nil); got != "" {
		t.Errorf("trackNumberString(nil) = %q, want empty", got)
	}
	n := 7
	if got := trackNumberString(&n); got != "7" {
		t.Errorf("trackNumberString(7) = %q, want \"7\"", got)
	}
}
