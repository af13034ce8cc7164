package fulfillment

import (
	"testing"

	"github.com/nezreka/fulfillment/pkg/p2pclient"
)

func TestRankCandidatesPrefersBetterTitleMatch(t *testing.T) {
	tracks := []p2pclient.TrackResult{
		{Username: "alice", Filename: "03 - Totally Wrong Song.mp3", Size: 1},
		{Username: "bob", Filename: "03 - Paranoid Android.flac", Size: 2},
	}
	ranked := rankCandidates(tracks, nil, "Radiohead", "Paranoid Android")
	if len(ranked) != 2 {
		t.Fatalf("len(ranked) = %d, want 2", len(ranked))
	}
	if ranked[0].Username != "bob" {
		t.Fatalf("best candidate = %q, want bob", ranked[0].Username)
	}
}

func TestRankCandidatesFlattenAlbumTracks(t *testing.T) {
	albums := []p2pclient.AlbumResult{
		{
			Username: "carol",
			Dirname:  "Radiohead - OK Computer",
			Tracks: []p2pclient.TrackResult{
				{Filename: "02 - Paranoid Android.flac", Size: 10},
			},
		},
	}
	ranked := rankCandidates(nil, albums, "Radiohead", "Paranoid Android")
	if len(ranked) != 1 {
		t.Fatalf("len(ranked) = %d, want 1", len(ranked))
	}
	if ranked[0].Username != "carol" {
		t.Fatalf("Username = %q, want carol (inherited from album)", ranked[0].Username)
	}
}

func TestQualityTermClampsAtOne(t *testing.T) {
	bitrate := 5000
	c := Candidate{Bitrate: &bitrate}
	if got := qualityTerm(c); got != 1 {
		t.Fatalf("qualityTerm = %v, want 1 (clamped)", got)
	}
}

func TestCandidateKeyUsesBasename(t *testing.T) {
	c := Candidate{Username: "alice", Filename: "/deep/path/song.mp3"}
	if got, want := c.Key(), "alice::song.mp3"; got != want {
		t.Fatalf("Key = %q, want %q", got, want)
	}
}
