package metaprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// GetArtist fetches full artist details by id.
func (c *Client) GetArtist(ctx context.Context, id string) (*Artist, error) {
	if IsNumericOnly(id) {
		return nil, fmt.Errorf("metaprovider: invalid artist id %q: numeric-only ids are not valid identities", id)
	}
	body, err := c.get(ctx, "/artists/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	var a Artist
	if err := json.Unmarshal(body, &a); err != nil {
		return nil, fmt.Errorf("metaprovider: parse artist: %w", err)
	}
	return &a, nil
}

// GetArtistAlbums fetches an artist's albums, optionally filtered by
// albumType ("album", "single", "compilation"; empty means all types),
// capped at limit.
func (c *Client) GetArtistAlbums(ctx context.Context, id, albumType string, limit int) ([]Album, error) {
	if IsNumericOnly(id) {
		return nil, fmt.Errorf("metaprovider: invalid artist id %q: numeric-only ids are not valid identities", id)
	}
	q := url.Values{"limit": {fmt.Sprintf("%d", limit)}}
	if albumType != "" {
		q.Set("include_groups", albumType)
	}
	body, err := c.get(ctx, "/artists/"+url.PathEscape(id)+"/albums", q)
	if err != nil {
		return nil, err
	}
	var page AlbumPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("metaprovider: parse artist albums: %w", err)
	}
	return page.Items, nil
}

// GetAlbum fetches full album details by id, including tracks.Items.
func (c *Client) GetAlbum(ctx context.Context, id string) (*Album, error) {
	if IsNumericOnly(id) {
		return nil, fmt.Errorf("metaprovider: invalid album id %q: numeric-only ids are not valid identities", id)
	}
	body, err := c.get(ctx, "/albums/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	var a Album
	if err := json.Unmarshal(body, &a); err != nil {
		return nil, fmt.Errorf("metaprovider: parse album: %w", err)
	}
	return &a, nil
}

// GetRelatedArtists fetches the provider's similar-artists listing for id,
// already ranked by the provider's own relevance ordering.
func (c *Client) GetRelatedArtists(ctx context.Context, id string) ([]Artist, error) {
	if IsNumericOnly(id) {
		return nil, fmt.Errorf("metaprovider: invalid artist id %q: numeric-only ids are not valid identities", id)
	}
	body, err := c.get(ctx, "/artists/"+url.PathEscape(id)+"/related-artists", nil)
	if err != nil {
		return nil, err
	}
	var page struct {
		Artists []Artist `json:"artists"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("metaprovider: parse related artists: %w", err)
	}
	return page.Artists, nil
}

// GetAlbumTracks fetches an album's full track list, paging through the
// provider's cursor until exhausted.
func (c *Client) GetAlbumTracks(ctx context.Context, id string) ([]Track, error) {
	if IsNumericOnly(id) {
		return nil, fmt.Errorf("metaprovider: invalid album id %q: numeric-only ids are not valid identities", id)
	}
	var out []Track
	offset := 0
	for {
		body, err := c.get(ctx, "/albums/"+url.PathEscape(id)+"/tracks", url.Values{
			"limit":  {"50"},
			"offset": {fmt.Sprintf("%d", offset)},
		})
		if err != nil {
			return nil, err
		}
		var page TrackPage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("metaprovider: parse album tracks: %w", err)
		}
		out = append(out, page.Items...)
		if page.Next == nil || len(page.Items) == 0 {
			break
		}
		offset += len(page.Items)
	}
	return out, nil
}
