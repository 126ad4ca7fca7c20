package openverse

import (
	"errors"
	"fmt"
	"time"

	"github.com/openlens/openlens/internal/model"
)

// TagAccuracyThreshold is the minimum upstream confidence score required for
// a tag association to be kept. Entries at exactly the threshold qualify.
const TagAccuracyThreshold = 0.5

// ErrMalformedItem is returned when an upstream item is missing its
// mandatory identity field.
var ErrMalformedItem = errors.New("openverse: item missing id")

// itemFields names the upstream payload keys for one collection kind.
// Keeping the mapping in one table means a renamed or missing upstream field
// is a one-place change. An empty key marks a field the collection lacks.
type itemFields struct {
	id             string
	title          string
	indexedOn      string
	landingURL     string
	url            string
	creator        string
	creatorURL     string
	license        string
	licenseVersion string
	licenseURL     string
	attribution    string
	source         string
	category       string
	fileSize       string
	fileType       string
	mature         string
	sensitivity    string
	thumbnail      string
	tags           string
	width          string
	height         string
	duration       string
}

var commonFields = itemFields{
	id:             "id",
	title:          "title",
	indexedOn:      "date_created",
	landingURL:     "foreign_landing_url",
	url:            "url",
	creator:        "creator",
	creatorURL:     "creator_url",
	license:        "license",
	licenseVersion: "license_version",
	licenseURL:     "license_url",
	attribution:    "attribution",
	source:         "source",
	category:       "category",
	fileSize:       "file_size",
	fileType:       "file_type",
	mature:         "is_mature",
	sensitivity:    "unstable__sensitivity",
	thumbnail:      "thumbnail",
	tags:           "tags",
}

var fieldsByKind = map[model.MediaType]itemFields{
	model.MediaTypeImage: withDims(commonFields, "width", "height", ""),
	model.MediaTypeAudio: withDims(commonFields, "", "", "duration"),
}

func withDims(f itemFields, width, height, duration string) itemFields {
	f.width, f.height, f.duration = width, height, duration
	return f
}

// Normalize maps one duck-typed upstream item onto the canonical record
// shape. Absent optional fields degrade to nil or a zero default; only a
// missing identity field is a hard failure. The record's accessed timestamp
// is left for the store to maintain.
func Normalize(item map[string]any, kind model.MediaType, now time.Time) (*model.Media, error) {
	f, ok := fieldsByKind[kind]
	if !ok {
		return nil, fmt.Errorf("openverse: unknown media type %q", kind)
	}

	id := stringValue(item[f.id])
	if id == "" {
		return nil, ErrMalformedItem
	}

	m := &model.Media{
		OpenverseID:       id,
		MediaType:         kind,
		Title:             stringValue(item[f.title]),
		ForeignLandingURL: stringValue(item[f.landingURL]),
		URL:               stringValue(item[f.url]),
		Creator:           stringPtr(item[f.creator]),
		CreatorURL:        stringPtr(item[f.creatorURL]),
		License:           stringValue(item[f.license]),
		LicenseVersion:    stringPtr(item[f.licenseVersion]),
		LicenseURL:        stringValue(item[f.licenseURL]),
		Attribution:       stringValue(item[f.attribution]),
		Source:            stringPtr(item[f.source]),
		Category:          stringPtr(item[f.category]),
		FileSize:          int64Ptr(item[f.fileSize]),
		FileType:          stringPtr(item[f.fileType]),
		ThumbnailURL:      stringPtr(item[f.thumbnail]),
	}

	if ts, ok := parseTime(item[f.indexedOn]); ok {
		m.IndexedOn = ts
	} else {
		m.IndexedOn = now
	}

	// Sensitivity is the OR of the explicit mature flag and the experimental
	// sensitivity marker; both are optional and independently absent-safe.
	m.Mature = flagValue(item[f.mature]) || flagValue(item[f.sensitivity])

	if f.width != "" {
		m.Width = intPtr(item[f.width])
	}
	if f.height != "" {
		m.Height = intPtr(item[f.height])
	}
	if f.duration != "" {
		m.Duration = intPtr(item[f.duration])
	}

	m.Tags = qualifyingTags(item[f.tags])
	return m, nil
}

// qualifyingTags keeps tag entries that carry a name and an accuracy at or
// above the threshold. Anything else is dropped silently.
func qualifyingTags(v any) []model.TagScore {
	entries, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []model.TagScore
	for _, e := range entries {
		tag, ok := e.(map[string]any)
		if !ok {
			continue
		}
		name := stringValue(tag["name"])
		accuracy, ok := floatValue(tag["accuracy"])
		if name == "" || !ok || accuracy < TagAccuracyThreshold {
			continue
		}
		out = append(out, model.TagScore{Name: name, Accuracy: accuracy})
	}
	return out
}

// --- duck-typed accessors ---

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func stringPtr(v any) *string {
	if s, ok := v.(string); ok && s != "" {
		return &s
	}
	return nil
}

func floatValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func intPtr(v any) *int {
	if n, ok := floatValue(v); ok {
		i := int(n)
		return &i
	}
	return nil
}

func int64Ptr(v any) *int64 {
	if n, ok := floatValue(v); ok {
		i := int64(n)
		return &i
	}
	return nil
}

// flagValue treats a bool as itself and a non-empty list marker as true.
func flagValue(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case []any:
		return len(t) > 0
	}
	return false
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTime(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
