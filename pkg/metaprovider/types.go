package metaprovider

// Artist is the provider's artist resource.
type Artist struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Genres     []string `json:"genres"`
	Popularity int      `json:"popularity"`
	Images     []Image  `json:"images"`
}

// Image is one sized variant of an artist/album image.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// Album is the provider's album resource. Tracks is populated on
// GetAlbum but left empty on search/list results, matching the
// provider's actual payload shape.
type Album struct {
	ID                   string     `json:"id"`
	Name                 string     `json:"name"`
	AlbumType            string     `json:"album_type"`
	ReleaseDate          string     `json:"release_date"`
	ReleaseDatePrecision string     `json:"release_date_precision"`
	TotalTracks          int        `json:"total_tracks"`
	Images               []Image    `json:"images"`
	Artists              []Artist   `json:"artists"`
	Genres               []string   `json:"genres"`
	Popularity           int        `json:"popularity"`
	Tracks               TrackPage  `json:"tracks"`
}

// Track is the provider's track resource.
type Track struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	TrackNumber int      `json:"track_number"`
	DiscNumber  int      `json:"disc_number"`
	DurationMs  int64    `json:"duration_ms"`
	Explicit    bool     `json:"explicit"`
	Popularity  int      `json:"popularity"`
	Artists     []Artist `json:"artists"`
	Album       *Album   `json:"album,omitempty"`
}

// TrackPage is a paginated list of tracks, the shape of Album.Tracks and
// of GetAlbumTracks's response.
type TrackPage struct {
	Items []Track `json:"items"`
	Total int     `json:"total"`
	Next  *string `json:"next"`
}

// AlbumPage is a paginated list of albums, the shape of GetArtistAlbums's
// response.
type AlbumPage struct {
	Items []Album `json:"items"`
	Total int     `json:"total"`
	Next  *string `json:"next"`
}
