package postprocess

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"

	"github.com/nezreka/fulfillment/pkg/fulfillment"
)

// writeTags stamps the matched metadata onto the file at path using
// id3v2. A download's existing tags (if any, read via dhowden/tag) fill
// in the year whenever the match didn't resolve one itself. Tag
// failures are logged and swallowed: the file has already been placed
// in the library and a missing tag is not worth losing it over.
func writeTags(path string, ctxInfo fulfillment.MatchedContext) {
	year := ctxInfo.Year
	if year == nil {
		year = readExistingYear(path)
	}

	tg, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		slog.Warn("postprocess: open tags", "path", path, "error", err)
		return
	}
	defer tg.Close()

	tg.SetDefaultEncoding(id3v2.EncodingUTF8)
	tg.SetArtist(ctxInfo.ArtistName)
	tg.SetAlbum(ctxInfo.AlbumName)
	tg.SetTitle(ctxInfo.TrackTitle)
	if year != nil {
		tg.SetYear(strconv.Itoa(*year))
	}
	if ctxInfo.TrackNumber != nil {
		tg.AddTextFrame(tg.CommonID("Track number/Position in set"), tg.DefaultEncoding(), trackNumberString(ctxInfo.TrackNumber))
	}

	if err := tg.Save(); err != nil {
		slog.Warn("postprocess: save tags", "path", path, "error", err)
	}
}

// readExistingYear opens path's pre-existing tags to recover a year the
// matched context left unresolved. Any failure is treated as "no tag".
func readExistingYear(path string) *int {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil
	}
	if y := m.Year(); y > 0 {
		return &y
	}
	return nil
}
