package openverse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openlens/openlens/internal/model"
)

func TestNormalize_ImageItem(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	item := map[string]any{
		"id":                  "img-1",
		"title":               "A cat",
		"date_created":        "2021-03-04T05:06:07Z",
		"foreign_landing_url": "https://example.com/cat",
		"url":                 "https://img.example.com/cat.jpg",
		"creator":             "alice",
		"license":             "cc0",
		"license_version":     "1.0",
		"license_url":         "https://creativecommons.org/publicdomain/zero/1.0/",
		"attribution":         `"A cat" by alice is marked with CC0 1.0.`,
		"file_size":           float64(123456),
		"width":               float64(640),
		"height":              float64(480),
		"tags": []any{
			map[string]any{"name": "cat", "accuracy": 0.92},
			map[string]any{"name": "pet", "accuracy": 0.5},
			map[string]any{"name": "dog", "accuracy": 0.49},
			map[string]any{"name": "unscored"},
			map[string]any{"accuracy": 0.99},
		},
	}

	m, err := Normalize(item, model.MediaTypeImage, now)
	require.NoError(t, err)

	require.Equal(t, "img-1", m.OpenverseID)
	require.Equal(t, model.MediaTypeImage, m.MediaType)
	require.Equal(t, "A cat", m.Title)
	require.Equal(t, time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC), m.IndexedOn)
	require.NotNil(t, m.Creator)
	require.Equal(t, "alice", *m.Creator)
	require.NotNil(t, m.FileSize)
	require.Equal(t, int64(123456), *m.FileSize)
	require.NotNil(t, m.Width)
	require.Equal(t, 640, *m.Width)
	require.NotNil(t, m.Height)
	require.Nil(t, m.Duration)
	require.False(t, m.Mature)

	// Entries at the threshold qualify; below it or unscored they are dropped.
	require.Equal(t, []model.TagScore{
		{Name: "cat", Accuracy: 0.92},
		{Name: "pet", Accuracy: 0.5},
	}, m.Tags)
}

func TestNormalize_AudioItem(t *testing.T) {
	now := time.Now()
	item := map[string]any{
		"id":       "aud-1",
		"title":    "Rainfall",
		"duration": float64(31500),
		"width":    float64(999), // audio has no dimensions; key must be ignored
	}

	m, err := Normalize(item, model.MediaTypeAudio, now)
	require.NoError(t, err)
	require.Equal(t, model.MediaTypeAudio, m.MediaType)
	require.NotNil(t, m.Duration)
	require.Equal(t, 31500, *m.Duration)
	require.Nil(t, m.Width)
	require.Nil(t, m.Height)
}

func TestNormalize_MissingIDFails(t *testing.T) {
	_, err := Normalize(map[string]any{"title": "nameless"}, model.MediaTypeImage, time.Now())
	require.ErrorIs(t, err, ErrMalformedItem)

	_, err = Normalize(map[string]any{"id": ""}, model.MediaTypeImage, time.Now())
	require.ErrorIs(t, err, ErrMalformedItem)
}

func TestNormalize_SensitivityFlags(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name string
		item map[string]any
		want bool
	}{
		{"absent flags", map[string]any{"id": "x"}, false},
		{"mature bool", map[string]any{"id": "x", "is_mature": true}, true},
		{"sensitivity markers", map[string]any{"id": "x", "unstable__sensitivity": []any{"text"}}, true},
		{"empty sensitivity list", map[string]any{"id": "x", "unstable__sensitivity": []any{}}, false},
		{"either flag wins", map[string]any{"id": "x", "is_mature": false, "unstable__sensitivity": []any{"a"}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := Normalize(tc.item, model.MediaTypeImage, now)
			require.NoError(t, err)
			require.Equal(t, tc.want, m.Mature)
		})
	}
}

func TestNormalize_AbsentOptionalFieldsDegrade(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	m, err := Normalize(map[string]any{"id": "bare"}, model.MediaTypeImage, now)
	require.NoError(t, err)

	require.Nil(t, m.Creator)
	require.Nil(t, m.Source)
	require.Nil(t, m.FileSize)
	require.Nil(t, m.ThumbnailURL)
	require.Empty(t, m.Title)
	require.Empty(t, m.Tags)
	// An unparseable or missing creation date falls back to the fetch time.
	require.Equal(t, now, m.IndexedOn)
}

func TestNormalize_DateLayouts(t *testing.T) {
	now := time.Now()
	for _, raw := range []string{"2020-05-06T07:08:09Z", "2020-05-06T07:08:09", "2020-05-06"} {
		m, err := Normalize(map[string]any{"id": "d", "date_created": raw}, model.MediaTypeImage, now)
		require.NoError(t, err)
		require.Equal(t, 2020, m.IndexedOn.Year(), "layout %s", raw)
		require.Equal(t, time.Month(5), m.IndexedOn.Month(), "layout %s", raw)
	}
}
