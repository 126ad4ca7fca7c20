package services

import (
	"sort"
	"strings"

	"github.com/openlens/openlens/internal/model"
)

// interleave alternates two relevance-ordered lists position by position,
// starting with the first, and continues with whichever list is longer once
// the shorter is exhausted. Upstream relevance is meaningful within a
// collection but not comparable across collections, so positional
// alternation approximates balanced relevance.
func interleave(a, b []*model.Media) []*model.Media {
	out := make([]*model.Media, 0, len(a)+len(b))
	for i := 0; i < len(a) || i < len(b); i++ {
		if i < len(a) {
			out = append(out, a[i])
		}
		if i < len(b) {
			out = append(out, b[i])
		}
	}
	return out
}

// sortMerged orders the concatenated result set by the requested field,
// falling back to the indexed timestamp for unknown fields. The sort is
// stable so ties keep their original relative order.
func sortMerged(items []*model.Media, field, dir string) {
	asc := dir == "asc"
	less := lessBy(field)
	sort.SliceStable(items, func(i, j int) bool {
		if asc {
			return less(items[i], items[j])
		}
		return less(items[j], items[i])
	})
}

func lessBy(field string) func(a, b *model.Media) bool {
	switch field {
	case "title":
		return func(a, b *model.Media) bool {
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		}
	case "creator":
		return func(a, b *model.Media) bool {
			return strVal(a.Creator) < strVal(b.Creator)
		}
	default: // indexed_on and anything unrecognised
		return func(a, b *model.Media) bool {
			return a.IndexedOn.Before(b.IndexedOn)
		}
	}
}

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
