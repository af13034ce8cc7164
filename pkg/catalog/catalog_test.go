package catalog_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/nezreka/fulfillment/pkg/catalog"
)

// newTestStore connects to a scratch database named by TEST_DATABASE_DSN
// and applies the schema. Every table-touching test in this package
// requires a live Postgres and is skipped under `go test -short`.
func newTestStore(t *testing.T) *catalog.Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping catalog integration test")
	}
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := catalog.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(s.Close)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if err := s.ClearAllData(ctx); err != nil {
		t.Fatalf("ClearAllData: %v", err)
	}
	return s
}

func TestUpsertArtistAlbumTrackRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	artist, err := s.UpsertArtist(ctx, catalog.UpsertArtistParams{ID: 1, Name: "Radiohead"})
	if err != nil {
		t.Fatalf("UpsertArtist: %v", err)
	}
	if artist.MatchStatus != catalog.MatchUnattempted {
		t.Fatalf("MatchStatus = %q, want unattempted", artist.MatchStatus)
	}

	album, err := s.UpsertAlbum(ctx, catalog.UpsertAlbumParams{ID: 10, ArtistID: 1, Title: "OK Computer"})
	if err != nil {
		t.Fatalf("UpsertAlbum: %v", err)
	}

	track, err := s.UpsertTrack(ctx, catalog.UpsertTrackParams{ID: 100, AlbumID: album.ID, ArtistID: artist.ID, Title: "Paranoid Android"})
	if err != nil {
		t.Fatalf("UpsertTrack: %v", err)
	}

	got, err := s.GetTrack(ctx, track.ID)
	if err != nil {
		t.Fatalf("GetTrack: %v", err)
	}
	if got.Title != "Paranoid Android" {
		t.Fatalf("Title = %q", got.Title)
	}
}

func TestWishlistMergeOnDuplicateAdd(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entry := catalog.WishlistEntry{
		ExternalTrackID: "trk-1",
		Descriptor:      catalog.TrackDescriptor{ID: "trk-1", Name: "Song"},
		FailureReason:   "no remaining sources",
		SourceType:      catalog.SourceWatchlist,
		SourceInfo:      map[string]any{"artist_name": "Radiohead"},
	}
	if err := s.AddToWishlist(ctx, entry); err != nil {
		t.Fatalf("AddToWishlist: %v", err)
	}

	entry.SourceInfo = map[string]any{"scan_timestamp": "2026-01-01T00:00:00Z"}
	if err := s.AddToWishlist(ctx, entry); err != nil {
		t.Fatalf("second AddToWishlist: %v", err)
	}

	due, err := s.ListWishlistDue(ctx, 10)
	if err != nil {
		t.Fatalf("ListWishlistDue: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("len(due) = %d, want 1 (merged, not duplicated)", len(due))
	}
	if due[0].SourceInfo["artist_name"] != "Radiohead" || due[0].SourceInfo["scan_timestamp"] == nil {
		t.Fatalf("SourceInfo = %+v, want merged keys from both adds", due[0].SourceInfo)
	}
}

func TestCheckAlbumCompletenessThreshold(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.UpsertArtist(ctx, catalog.UpsertArtistParams{ID: 2, Name: "Boards of Canada"})
	album, _ := s.UpsertAlbum(ctx, catalog.UpsertAlbumParams{ID: 20, ArtistID: 2, Title: "Geogaddi"})
	for i := int64(1); i <= 9; i++ {
		path := "/library/track.flac"
		s.UpsertTrack(ctx, catalog.UpsertTrackParams{ID: 200 + i, AlbumID: album.ID, ArtistID: 2, Title: "Track", FilePath: &path})
	}

	owned, expected, complete, err := s.CheckAlbumCompleteness(ctx, album.ID, 10)
	if err != nil {
		t.Fatalf("CheckAlbumCompleteness: %v", err)
	}
	if owned != 9 || expected != 10 || !complete {
		t.Fatalf("owned=%d expected=%d complete=%v, want 9/10/true", owned, expected, complete)
	}
}
