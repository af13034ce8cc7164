package watchlist

import (
	"time"

	"github.com/nezreka/fulfillment/pkg/catalog"
)

// selectArtists partitions the watchlist into must-scan (never scanned, or
// older than MustScanAfterDays) and can-skip, takes every must-scan entry
// plus a random sample of can-skip up to MaxArtistsPerRun, then shuffles
// the combined list so must-scan entries don't always run first.
func (s *Scanner) selectArtists(entries []catalog.WatchlistEntry, now time.Time) []catalog.WatchlistEntry {
	cutoff := now.Add(-time.Duration(s.cfg.MustScanAfterDays) * 24 * time.Hour)

	var mustScan, canSkip []catalog.WatchlistEntry
	for _, e := range entries {
		if e.LastScanTimestamp == nil || e.LastScanTimestamp.Before(cutoff) {
			mustScan = append(mustScan, e)
		} else {
			canSkip = append(canSkip, e)
		}
	}

	selected := append([]catalog.WatchlistEntry(nil), mustScan...)
	remaining := s.cfg.MaxArtistsPerRun - len(selected)
	if remaining > 0 && len(canSkip) > 0 {
		s.shuffle(len(canSkip), func(i, j int) { canSkip[i], canSkip[j] = canSkip[j], canSkip[i] })
		if remaining > len(canSkip) {
			remaining = len(canSkip)
		}
		selected = append(selected, canSkip[:remaining]...)
	}
	if len(selected) > s.cfg.MaxArtistsPerRun {
		selected = selected[:s.cfg.MaxArtistsPerRun]
	}

	s.shuffle(len(selected), func(i, j int) { selected[i], selected[j] = selected[j], selected[i] })
	return selected
}
