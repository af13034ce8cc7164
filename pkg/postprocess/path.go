package postprocess

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/nezreka/fulfillment/pkg/fulfillment"
)

var illegalPathChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// sanitizeComponent strips characters that are illegal in a path segment
// on common filesystems and trims the stray whitespace/dots Windows and
// macOS both reject at the end of a name.
func sanitizeComponent(s string) string {
	s = illegalPathChars.ReplaceAllString(s, "_")
	s = strings.TrimRight(s, " .")
	s = strings.TrimSpace(s)
	if s == "" {
		return "Unknown"
	}
	return s
}

// libraryKey builds an object-store key for a completed download, rooted
// at the library root: Artist/Album/NN - Title.ext, preserving the
// source file's extension. A missing track number omits the "NN - "
// prefix.
func libraryKey(ctxInfo fulfillment.MatchedContext, sourceExt string) string {
	artist := sanitizeComponent(nonEmpty(ctxInfo.ArtistName, "Unknown Artist"))
	album := sanitizeComponent(nonEmpty(ctxInfo.AlbumName, "Unknown Album"))
	title := sanitizeComponent(nonEmpty(ctxInfo.TrackTitle, "Unknown Title"))

	name := title
	if ctxInfo.TrackNumber != nil {
		name = fmt.Sprintf("%02d - %s", *ctxInfo.TrackNumber, title)
	}
	name += sourceExt

	return filepath.Join(artist, album, name)
}

// libraryPath resolves libraryKey to an absolute filesystem path under root.
func libraryPath(root string, ctxInfo fulfillment.MatchedContext, sourceExt string) string {
	return filepath.Join(root, libraryKey(ctxInfo, sourceExt))
}

func nonEmpty(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func trackNumberString(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
