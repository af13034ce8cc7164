package watchlist

import (
	"context"
	"sort"
	"time"

	"github.com/nezreka/fulfillment/pkg/catalog"
)

const (
	releaseRadarSize       = 50
	releaseRadarShortlist  = 75
	releaseRadarPerArtist  = 6
	discoveryWeeklySize    = 50
	discoveryWeeklyPopular = 20
	discoveryWeeklyMid     = 20
	discoveryWeeklyDeep    = 10
	popularFloor           = 60
	midFloor               = 40
)

// ReleaseRadar scores every pool track by recency, popularity, and
// single-ness, caps each artist at releaseRadarPerArtist, takes the top
// releaseRadarShortlist by score, shuffles, then trims to releaseRadarSize.
func (s *Scanner) ReleaseRadar(ctx context.Context) ([]catalog.DiscoveryPoolTrack, error) {
	pool, err := s.store.ListDiscoveryPool(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	type scored struct {
		track catalog.DiscoveryPoolTrack
		score float64
	}
	ranked := make([]scored, 0, len(pool))
	for _, t := range pool {
		ranked = append(ranked, scored{track: t, score: releaseRadarScore(t, now)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	perArtist := map[string]int{}
	shortlist := make([]catalog.DiscoveryPoolTrack, 0, releaseRadarShortlist)
	for _, r := range ranked {
		if perArtist[r.track.ExternalArtistID] >= releaseRadarPerArtist {
			continue
		}
		perArtist[r.track.ExternalArtistID]++
		shortlist = append(shortlist, r.track)
		if len(shortlist) >= releaseRadarShortlist {
			break
		}
	}

	s.shuffle(len(shortlist), func(i, j int) { shortlist[i], shortlist[j] = shortlist[j], shortlist[i] })
	if len(shortlist) > releaseRadarSize {
		shortlist = shortlist[:releaseRadarSize]
	}
	return shortlist, nil
}

func releaseRadarScore(t catalog.DiscoveryPoolTrack, now time.Time) float64 {
	recency := 0.0
	if t.ReleaseDate != nil {
		age := now.Sub(*t.ReleaseDate)
		if age < 0 {
			age = 0
		}
		recency = 1 - (age.Hours() / 24 / 365)
		if recency < 0 {
			recency = 0
		}
	}
	popularity := 0.0
	if t.Popularity != nil {
		popularity = float64(*t.Popularity) / 100
	}
	isSingle := 0.0
	if t.IsSingle {
		isSingle = 1
	}
	return 0.5*recency + 0.3*popularity + 0.2*isSingle
}

// DiscoveryWeekly partitions the pool by popularity into popular (>=60),
// mid (40-59), and deep-cut (<40) buckets, randomly picks
// 20/20/10 from each (fewer if a bucket runs short), then shuffles the
// combined selection.
func (s *Scanner) DiscoveryWeekly(ctx context.Context) ([]catalog.DiscoveryPoolTrack, error) {
	pool, err := s.store.ListDiscoveryPool(ctx)
	if err != nil {
		return nil, err
	}

	var popular, mid, deep []catalog.DiscoveryPoolTrack
	for _, t := range pool {
		p := 0
		if t.Popularity != nil {
			p = *t.Popularity
		}
		switch {
		case p >= popularFloor:
			popular = append(popular, t)
		case p >= midFloor:
			mid = append(mid, t)
		default:
			deep = append(deep, t)
		}
	}

	selected := make([]catalog.DiscoveryPoolTrack, 0, discoveryWeeklySize)
	selected = append(selected, s.sample(popular, discoveryWeeklyPopular)...)
	selected = append(selected, s.sample(mid, discoveryWeeklyMid)...)
	selected = append(selected, s.sample(deep, discoveryWeeklyDeep)...)

	s.shuffle(len(selected), func(i, j int) { selected[i], selected[j] = selected[j], selected[i] })
	return selected, nil
}

func (s *Scanner) sample(bucket []catalog.DiscoveryPoolTrack, n int) []catalog.DiscoveryPoolTrack {
	cp := append([]catalog.DiscoveryPoolTrack(nil), bucket...)
	s.shuffle(len(cp), func(i, j int) { cp[i], cp[j] = cp[j], cp[i] })
	if n > len(cp) {
		n = len(cp)
	}
	return cp[:n]
}
