// Package normalize turns raw producer output into canonical, classified
// records. Normalization never fails: missing fields get documented defaults.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/amishk599/internfeed/internal/model"
	"github.com/amishk599/internfeed/internal/recency"
)

// Defaults applied to missing raw fields.
const (
	DefaultTitle       = "Internship"
	DefaultCompany     = "Unknown"
	DefaultLocation    = "Not specified"
	DefaultDuration    = "Not specified"
	DefaultStipend     = "Not specified"
	DefaultDeadline    = "Open"
	DefaultSource      = "Web"
	logoServiceBaseURL = "https://logo.clearbit.com/"
)

// Normalizer converts RawRecords into Records.
type Normalizer struct {
	fields    *FieldClassifier
	countries *CountryExtractor
	now       func() time.Time
}

// NewNormalizer wires a normalizer with the given field classifier. A nil
// classifier uses DefaultFieldRules.
func NewNormalizer(fields *FieldClassifier) *Normalizer {
	if fields == nil {
		fields = NewFieldClassifier(nil)
	}
	return &Normalizer{
		fields:    fields,
		countries: NewCountryExtractor(),
		now:       time.Now,
	}
}

// Normalize converts raw using the current time as the ingestion time.
func (n *Normalizer) Normalize(raw model.RawRecord) model.Record {
	return n.NormalizeAt(raw, n.now())
}

// NormalizeAt converts raw, stamping it with ingestedAt. Records normalized in
// the same run share one timestamp so insertion order breaks ties.
func (n *Normalizer) NormalizeAt(raw model.RawRecord, ingestedAt time.Time) model.Record {
	title := orDefault(raw.Title, DefaultTitle)
	company := orDefault(raw.Company, DefaultCompany)
	location := orDefault(raw.Location, DefaultLocation)

	rec := model.Record{
		ID:           Identity(title, company, location),
		Title:        title,
		Company:      company,
		Location:     location,
		Country:      n.countries.Extract(raw.Location),
		Field:        n.fields.Classify(raw.Title),
		Link:         CanonicalLink(raw.Link),
		Source:       orDefault(raw.Source, DefaultSource),
		Duration:     orDefault(raw.Duration, DefaultDuration),
		Stipend:      orDefault(raw.Stipend, DefaultStipend),
		Deadline:     orDefault(raw.Deadline, DefaultDeadline),
		Requirements: cleanTags(raw.Tags),
		Logo:         LogoURL(raw.Company),
		IngestedAt:   ingestedAt,
	}
	if t, ok := recency.ParseDate(raw.Date, ingestedAt); ok {
		rec.PostedAt = &t
	}
	return rec
}

// Identity hashes the posting's title, company and location into a fixed-width
// hex key. Case and whitespace are ignored, so re-scraped copies of the same
// posting collide even when their links differ.
func Identity(title, company, location string) string {
	parts := []string{squash(title), squash(company), squash(location)}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])
}

// LogoURL guesses a logo for company from its name. The guess is decorative;
// sinks must tolerate it being wrong.
func LogoURL(company string) string {
	domain := squash(company)
	if domain == "" || domain == strings.ToLower(DefaultCompany) {
		return ""
	}
	return logoServiceBaseURL + domain + ".com"
}

func squash(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

func orDefault(s, def string) string {
	if s = strings.Join(strings.Fields(s), " "); s != "" {
		return s
	}
	return def
}

func cleanTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[strings.ToLower(t)] {
			continue
		}
		seen[strings.ToLower(t)] = true
		out = append(out, t)
	}
	return out
}
