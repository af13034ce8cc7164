package watchlist

import (
	"context"
	"time"

	"github.com/nezreka/fulfillment/pkg/catalog"
	"github.com/nezreka/fulfillment/pkg/metaprovider"
)

type fakeStore struct {
	watchlist       []catalog.WatchlistEntry
	touched         []string
	thumbnails      map[string]string
	existing        map[string]bool
	wishlisted      []catalog.WishlistEntry
	similarFresh    map[string]bool
	similarUpserted []catalog.SimilarArtist
	topSimilar      []catalog.SimilarArtist
	poolInserted    []catalog.DiscoveryPoolTrack
	pool            []catalog.DiscoveryPoolTrack
	evicted         int64
	lastPopulated   time.Time
	hasPopulated    bool
	metadata        map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		thumbnails:   map[string]string{},
		existing:     map[string]bool{},
		similarFresh: map[string]bool{},
		metadata:     map[string]string{},
	}
}

func (f *fakeStore) ListWatchlist(ctx context.Context) ([]catalog.WatchlistEntry, error) {
	return f.watchlist, nil
}

func (f *fakeStore) TouchWatchlistScan(ctx context.Context, externalArtistID string) error {
	f.touched = append(f.touched, externalArtistID)
	return nil
}

func (f *fakeStore) RefreshArtistThumbnail(ctx context.Context, externalID, thumbURL string) error {
	f.thumbnails[externalID] = thumbURL
	return nil
}

func (f *fakeStore) CheckTrackExists(ctx context.Context, title, artist string, threshold float64) (catalog.Track, float64, bool, error) {
	key := artist + "|" + title
	return catalog.Track{}, 1.0, f.existing[key], nil
}

func (f *fakeStore) AddToWishlist(ctx context.Context, e catalog.WishlistEntry) error {
	f.wishlisted = append(f.wishlisted, e)
	return nil
}

func (f *fakeStore) SimilarArtistsCacheFresh(ctx context.Context, sourceArtistID string) (bool, error) {
	return f.similarFresh[sourceArtistID], nil
}

func (f *fakeStore) UpsertSimilarArtist(ctx context.Context, sa catalog.SimilarArtist) error {
	f.similarUpserted = append(f.similarUpserted, sa)
	return nil
}

func (f *fakeStore) TopSimilarArtistsByOccurrence(ctx context.Context, limit int) ([]catalog.SimilarArtist, error) {
	if limit < len(f.topSimilar) {
		return f.topSimilar[:limit], nil
	}
	return f.topSimilar, nil
}

func (f *fakeStore) InsertDiscoveryPoolTrack(ctx context.Context, t catalog.DiscoveryPoolTrack) error {
	f.poolInserted = append(f.poolInserted, t)
	return nil
}

func (f *fakeStore) ListDiscoveryPool(ctx context.Context) ([]catalog.DiscoveryPoolTrack, error) {
	return f.pool, nil
}

func (f *fakeStore) EvictDiscoveryPoolOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return f.evicted, nil
}

func (f *fakeStore) DiscoveryPoolLastPopulated(ctx context.Context) (time.Time, bool, error) {
	return f.lastPopulated, f.hasPopulated, nil
}

func (f *fakeStore) GetMetadata(ctx context.Context, key string) (string, bool, error) {
	v, ok := f.metadata[key]
	return v, ok, nil
}

func (f *fakeStore) SetMetadata(ctx context.Context, key, value string) error {
	f.metadata[key] = value
	return nil
}

type fakeProvider struct {
	albums       map[string][]metaprovider.Album
	albumsErr    error
	tracks       map[string][]metaprovider.Track
	tracksErr    error
	related      map[string][]metaprovider.Artist
	relatedErr   error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		albums:  map[string][]metaprovider.Album{},
		tracks:  map[string][]metaprovider.Track{},
		related: map[string][]metaprovider.Artist{},
	}
}

func (f *fakeProvider) GetArtistAlbums(ctx context.Context, id, albumType string, limit int) ([]metaprovider.Album, error) {
	if f.albumsErr != nil {
		return nil, f.albumsErr
	}
	return f.albums[id], nil
}

func (f *fakeProvider) GetAlbumTracks(ctx context.Context, id string) ([]metaprovider.Track, error) {
	if f.tracksErr != nil {
		return nil, f.tracksErr
	}
	return f.tracks[id], nil
}

func (f *fakeProvider) GetRelatedArtists(ctx context.Context, id string) ([]metaprovider.Artist, error) {
	if f.relatedErr != nil {
		return nil, f.relatedErr
	}
	return f.related[id], nil
}
