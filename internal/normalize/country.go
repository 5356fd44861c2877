package normalize

import (
	"regexp"
	"strings"

	"github.com/amishk599/internfeed/internal/model"
)

// Countries is the closed set of supported countries.
var Countries = []string{
	"United States", "India", "Germany", "United Kingdom", "Canada",
	"Australia", "France", "Netherlands", "Singapore", "Switzerland",
	"Spain", "Italy", "Sweden", "Ireland", "Austria", "Belgium",
	"Portugal", "Poland", "Denmark", "Norway", "Finland",
}

// countrySynonyms maps codes, alternative names and major cities to a
// canonical country. Two-letter codes that double as common words or US
// state abbreviations ("in", "ca", "de", "it") are left out.
var countrySynonyms = []struct {
	key     string
	country string
}{
	{"united states of america", "United States"},
	{"usa", "United States"},
	{"u.s.a.", "United States"},
	{"u.s.", "United States"},
	{"us", "United States"},
	{"new york", "United States"},
	{"san francisco", "United States"},
	{"seattle", "United States"},
	{"boston", "United States"},
	{"great britain", "United Kingdom"},
	{"england", "United Kingdom"},
	{"scotland", "United Kingdom"},
	{"uk", "United Kingdom"},
	{"u.k.", "United Kingdom"},
	{"gb", "United Kingdom"},
	{"london", "United Kingdom"},
	{"manchester", "United Kingdom"},
	{"bangalore", "India"},
	{"bengaluru", "India"},
	{"mumbai", "India"},
	{"delhi", "India"},
	{"hyderabad", "India"},
	{"pune", "India"},
	{"chennai", "India"},
	{"gurgaon", "India"},
	{"noida", "India"},
	{"kolkata", "India"},
	{"berlin", "Germany"},
	{"munich", "Germany"},
	{"hamburg", "Germany"},
	{"deutschland", "Germany"},
	{"toronto", "Canada"},
	{"vancouver", "Canada"},
	{"montreal", "Canada"},
	{"sydney", "Australia"},
	{"melbourne", "Australia"},
	{"paris", "France"},
	{"fr", "France"},
	{"amsterdam", "Netherlands"},
	{"geneva", "Switzerland"},
	{"meyrin", "Switzerland"},
	{"ch", "Switzerland"},
	{"zurich", "Switzerland"},
	{"madrid", "Spain"},
	{"barcelona", "Spain"},
	{"milan", "Italy"},
	{"rome", "Italy"},
	{"stockholm", "Sweden"},
	{"dublin", "Ireland"},
	{"vienna", "Austria"},
	{"brussels", "Belgium"},
	{"lisbon", "Portugal"},
	{"warsaw", "Poland"},
	{"copenhagen", "Denmark"},
	{"oslo", "Norway"},
	{"helsinki", "Finland"},
}

type countryPattern struct {
	re      *regexp.Regexp
	country string
}

// CountryExtractor maps a free-form location to a canonical country.
// Priority: canonical name, then synonym table, then "remote", then Other.
type CountryExtractor struct {
	names    []countryPattern
	synonyms []countryPattern
	remote   *regexp.Regexp
}

// wordPattern matches key only when it is not part of a larger word, so "us"
// does not fire inside "industry".
func wordPattern(key string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(^|[^\pL\pN])` + regexp.QuoteMeta(key) + `($|[^\pL\pN])`)
}

// NewCountryExtractor compiles the country and synonym tables.
func NewCountryExtractor() *CountryExtractor {
	e := &CountryExtractor{remote: wordPattern("remote")}
	for _, c := range Countries {
		e.names = append(e.names, countryPattern{re: wordPattern(c), country: c})
	}
	for _, s := range countrySynonyms {
		e.synonyms = append(e.synonyms, countryPattern{re: wordPattern(s.key), country: s.country})
	}
	return e
}

// Extract returns the country for location. An empty location is Unknown.
func (e *CountryExtractor) Extract(location string) string {
	loc := strings.TrimSpace(location)
	if loc == "" {
		return model.CountryUnknown
	}
	for _, p := range e.names {
		if p.re.MatchString(loc) {
			return p.country
		}
	}
	for _, p := range e.synonyms {
		if p.re.MatchString(loc) {
			return p.country
		}
	}
	if e.remote.MatchString(loc) {
		return model.CountryRemote
	}
	return model.CountryOther
}
