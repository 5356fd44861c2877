// Package filter holds the optional prefilter applied to raw records before
// normalization.
package filter

import (
	"strings"

	"github.com/amishk599/internfeed/internal/model"
)

// Ensure KeywordFilter implements model.RecordFilter.
var _ model.RecordFilter = (*KeywordFilter)(nil)

// KeywordFilter keeps records whose title contains any include keyword and
// whose location contains any location keyword, then drops those matching an
// exclude keyword. Matching is case-insensitive substring. Empty lists are
// treated as "match all" (or, for excludes, "drop none").
type KeywordFilter struct {
	titleKeywords    []string
	titleExcludes    []string
	locations        []string
	locationExcludes []string
}

// Keywords configures a KeywordFilter.
type Keywords struct {
	Titles           []string
	TitleExcludes    []string
	Locations        []string
	LocationExcludes []string
}

// NewKeywordFilter returns a filter for the given keyword lists.
func NewKeywordFilter(k Keywords) *KeywordFilter {
	return &KeywordFilter{
		titleKeywords:    lowerAll(k.Titles),
		titleExcludes:    lowerAll(k.TitleExcludes),
		locations:        lowerAll(k.Locations),
		locationExcludes: lowerAll(k.LocationExcludes),
	}
}

// Match reports whether raw passes the filter.
func (f *KeywordFilter) Match(raw model.RawRecord) bool {
	title := strings.ToLower(raw.Title)
	location := strings.ToLower(raw.Location)

	if len(f.titleKeywords) > 0 && !containsAny(title, f.titleKeywords) {
		return false
	}
	if len(f.locations) > 0 && !containsAny(location, f.locations) {
		return false
	}
	if containsAny(title, f.titleExcludes) || containsAny(location, f.locationExcludes) {
		return false
	}
	return true
}

// AcceptAll is a RecordFilter that passes everything.
type AcceptAll struct{}

func (AcceptAll) Match(model.RawRecord) bool { return true }

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
