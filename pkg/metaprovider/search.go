package metaprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

type searchResponse struct {
	Artists *struct {
		Items []Artist `json:"items"`
	} `json:"artists"`
	Albums *struct {
		Items []Album `json:"items"`
	} `json:"albums"`
	Tracks *struct {
		Items []Track `json:"items"`
	} `json:"tracks"`
}

func (c *Client) search(ctx context.Context, kind, q string, limit int) (*searchResponse, error) {
	body, err := c.get(ctx, "/search", url.Values{
		"q":     {q},
		"type":  {kind},
		"limit": {fmt.Sprintf("%d", limit)},
	})
	if err != nil {
		return nil, err
	}
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("metaprovider: parse search response: %w", err)
	}
	return &resp, nil
}

// SearchArtists searches the catalog for up to limit artists matching q.
func (c *Client) SearchArtists(ctx context.Context, q string, limit int) ([]Artist, error) {
	resp, err := c.search(ctx, "artist", q, limit)
	if err != nil {
		return nil, err
	}
	if resp.Artists == nil {
		return nil, nil
	}
	return resp.Artists.Items, nil
}

// SearchAlbums searches the catalog for up to limit albums matching q.
func (c *Client) SearchAlbums(ctx context.Context, q string, limit int) ([]Album, error) {
	resp, err := c.search(ctx, "album", q, limit)
	if err != nil {
		return nil, err
	}
	if resp.Albums == nil {
		return nil, nil
	}
	return resp.Albums.Items, nil
}

// SearchTracks searches the catalog for up to limit tracks matching q.
func (c *Client) SearchTracks(ctx context.Context, q string, limit int) ([]Track, error) {
	resp, err := c.search(ctx, "track", q, limit)
	if err != nil {
		return nil, err
	}
	if resp.Tracks == nil {
		return nil, nil
	}
	return resp.Tracks.Items, nil
}
