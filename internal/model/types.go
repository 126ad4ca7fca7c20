package model

import "time"

// MediaType identifies which upstream collection a record came from.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeAudio MediaType = "audio"
)

// Media is the canonical, storage-shaped representation of one upstream item.
// OpenverseID is the upstream-assigned identity and is unique across both
// media types. Rows are fully overwritten on every fetch; only AccessedAt and
// the derived FavouriteCount are maintained outside the fetch path.
type Media struct {
	OpenverseID       string     `json:"openverse_id"`
	Title             string     `json:"title"`
	IndexedOn         time.Time  `json:"indexed_on"`
	ForeignLandingURL string     `json:"foreign_landing_url"`
	URL               string     `json:"url"`
	Creator           *string    `json:"creator,omitempty"`
	CreatorURL        *string    `json:"creator_url,omitempty"`
	License           string     `json:"license"`
	LicenseVersion    *string    `json:"license_version,omitempty"`
	LicenseURL        string     `json:"license_url"`
	Attribution       string     `json:"attribution"`
	Source            *string    `json:"source,omitempty"`
	Category          *string    `json:"category,omitempty"`
	FileSize          *int64     `json:"file_size,omitempty"`
	FileType          *string    `json:"file_type,omitempty"`
	Mature            bool       `json:"mature"`
	ThumbnailURL      *string    `json:"thumbnail_url,omitempty"`
	Width             *int       `json:"width,omitempty"`
	Height            *int       `json:"height,omitempty"`
	Duration          *int       `json:"duration,omitempty"`
	MediaType         MediaType  `json:"media_type"`
	AccessedAt        time.Time  `json:"accessed_at"`
	FavouriteCount    int        `json:"favourite_count"`

	// Tags carries the qualifying tag scores observed on the most recent
	// fetch. It is transient: persisted through the tag index, not as a
	// column of the media row.
	Tags []TagScore `json:"tags,omitempty"`
}

// TagScore associates a tag name with the upstream confidence score.
type TagScore struct {
	Name     string  `json:"name"`
	Accuracy float64 `json:"accuracy"`
}

// SearchRequest captures one logical query against the upstream collections.
type SearchRequest struct {
	Key              string // q, title, tag or creator
	Value            string
	MediaType        string // image, audio or both
	Page             int
	PageSize         int
	IncludeSensitive bool
	SortBy           string // relevance (default) or a record field
	SortDir          string // desc (default) or asc
	Sources          []string
	Licenses         []string
	Extensions       []string

	// UserID is set when the caller is authenticated; used only to record
	// search history.
	UserID string
}

// SearchPage is the per-request result view. It is never persisted.
type SearchPage struct {
	Results    []*Media `json:"results"`
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
	TotalCount int      `json:"total_count"`
	TotalPages int      `json:"total_pages"`
}

// SearchHistory is one append-only log row of a user's search.
type SearchHistory struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	SearchKey   string    `json:"search_key"`
	SearchValue string    `json:"search_value"`
	SearchedAt  time.Time `json:"searched_at"`
}

// Favourite links a user to a cached media record.
type Favourite struct {
	UserID  string    `json:"user_id"`
	MediaID string    `json:"media_id"`
	AddedAt time.Time `json:"added_at"`
	Media   *Media    `json:"media,omitempty"`
}
