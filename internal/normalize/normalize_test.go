package normalize

import (
	"testing"
	"time"

	"github.com/amishk599/internfeed/internal/model"
)

var ingested = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func TestNormalize_EmptyInputGetsDefaults(t *testing.T) {
	n := NewNormalizer(nil)
	rec := n.NormalizeAt(model.RawRecord{}, ingested)

	checks := map[string][2]string{
		"Title":    {rec.Title, DefaultTitle},
		"Company":  {rec.Company, DefaultCompany},
		"Location": {rec.Location, DefaultLocation},
		"Duration": {rec.Duration, DefaultDuration},
		"Stipend":  {rec.Stipend, DefaultStipend},
		"Deadline": {rec.Deadline, DefaultDeadline},
		"Source":   {rec.Source, DefaultSource},
		"Country":  {rec.Country, model.CountryUnknown},
		"Field":    {rec.Field, model.FieldOther},
	}
	for name, c := range checks {
		if c[0] != c[1] {
			t.Errorf("%s = %q, want %q", name, c[0], c[1])
		}
	}
	if len(rec.ID) != 64 {
		t.Errorf("ID length = %d, want 64", len(rec.ID))
	}
	if rec.PostedAt != nil {
		t.Errorf("PostedAt = %v, want nil", rec.PostedAt)
	}
	if rec.Delivered {
		t.Error("new record must not be delivered")
	}
	if !rec.IngestedAt.Equal(ingested) {
		t.Errorf("IngestedAt = %v, want %v", rec.IngestedAt, ingested)
	}
	if rec.Link != "" || rec.Logo != "" {
		t.Errorf("Link = %q, Logo = %q; want both empty", rec.Link, rec.Logo)
	}
}

func TestNormalize_PopulatedRecord(t *testing.T) {
	n := NewNormalizer(nil)
	rec := n.NormalizeAt(model.RawRecord{
		Title:    "  Software   Engineering Intern ",
		Company:  "Acme Corp",
		Location: "Berlin, Germany",
		Link:     "HTTPS://Jobs.Example.com/123?utm_source=feed#apply",
		Date:     model.FreshlyObserved,
		Tags:     []string{"Go", " go ", "SQL", ""},
		Source:   "Internshala",
		Stipend:  "€1000/month",
	}, ingested)

	if rec.Title != "Software Engineering Intern" {
		t.Errorf("Title = %q", rec.Title)
	}
	if rec.Country != "Germany" {
		t.Errorf("Country = %q, want Germany", rec.Country)
	}
	if rec.Field != "Computer Science" {
		t.Errorf("Field = %q, want Computer Science", rec.Field)
	}
	if rec.Link != "https://jobs.example.com/123" {
		t.Errorf("Link = %q", rec.Link)
	}
	if rec.Logo != "https://logo.clearbit.com/acmecorp.com" {
		t.Errorf("Logo = %q", rec.Logo)
	}
	if rec.PostedAt == nil || !rec.PostedAt.Equal(ingested) {
		t.Errorf("PostedAt = %v, want %v", rec.PostedAt, ingested)
	}
	if len(rec.Requirements) != 2 || rec.Requirements[0] != "Go" || rec.Requirements[1] != "SQL" {
		t.Errorf("Requirements = %v, want [Go SQL]", rec.Requirements)
	}
	if rec.Stipend != "€1000/month" {
		t.Errorf("Stipend = %q", rec.Stipend)
	}
}

func TestIdentity_IgnoresCaseWhitespaceAndLink(t *testing.T) {
	n := NewNormalizer(nil)
	a := n.NormalizeAt(model.RawRecord{Title: "Data Intern", Company: "Acme", Location: "Remote", Link: "https://a.example/1"}, ingested)
	b := n.NormalizeAt(model.RawRecord{Title: "data  intern", Company: "ACME", Location: " remote", Link: "https://b.example/2"}, ingested)
	if a.ID != b.ID {
		t.Errorf("IDs differ: %s vs %s", a.ID, b.ID)
	}

	c := n.NormalizeAt(model.RawRecord{Title: "Data Intern", Company: "Acme", Location: "London"}, ingested)
	if a.ID == c.ID {
		t.Error("different locations should produce different IDs")
	}
}

func TestIdentity_FieldBoundariesMatter(t *testing.T) {
	if Identity("ab", "c", "d") == Identity("a", "bc", "d") {
		t.Error("shifting text between fields should change the identity")
	}
}

func TestCountryExtractor(t *testing.T) {
	e := NewCountryExtractor()
	tests := []struct {
		location string
		want     string
	}{
		{"San Francisco, United States", "United States"},
		{"Remote - United Kingdom", "United Kingdom"},
		{"Remote in US", "United States"},
		{"Austin, TX, USA", "United States"},
		{"Bangalore", "India"},
		{"London", "United Kingdom"},
		{"Geneva, CH", "Switzerland"},
		{"Remote", model.CountryRemote},
		{"Remote/Global", model.CountryRemote},
		{"Work from home - industry partner", model.CountryOther},
		{"Tokyo, Japan", model.CountryOther},
		{"", model.CountryUnknown},
		{"   ", model.CountryUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			if got := e.Extract(tt.location); got != tt.want {
				t.Errorf("Extract(%q) = %q, want %q", tt.location, got, tt.want)
			}
		})
	}
}

func TestCountryExtractor_NamePriorityOverSynonym(t *testing.T) {
	e := NewCountryExtractor()
	// "London" is a UK synonym but the explicit country name wins.
	if got := e.Extract("London, Canada"); got != "Canada" {
		t.Errorf("Extract = %q, want Canada", got)
	}
}

func TestFieldClassifier(t *testing.T) {
	c := NewFieldClassifier(nil)
	tests := []struct {
		title string
		want  string
	}{
		{"Backend Developer Intern", "Computer Science"},
		{"Data Analyst Intern", "Data Science & AI"},
		{"Mechanical Design Intern", "Engineering"},
		{"Biotech Research Intern", "Bio & Science"},
		{"Actuarial Intern", "Mathematics"},
		{"Marketing Intern", model.FieldOther},
		{"", model.FieldOther},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := c.Classify(tt.title); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestFieldClassifier_DeclarationOrderBreaksTies(t *testing.T) {
	c := NewFieldClassifier([]FieldRule{
		{Label: "First", Keywords: []string{"Intern"}},
		{Label: "Second", Keywords: []string{"intern"}},
	})
	if got := c.Classify("Summer Intern"); got != "First" {
		t.Errorf("Classify = %q, want First", got)
	}
	if got := c.Labels(); len(got) != 2 || got[0] != "First" {
		t.Errorf("Labels = %v", got)
	}
}

func TestCanonicalLink(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  https://Example.com/jobs/1/  ", "https://example.com/jobs/1"},
		{"https://example.com/jobs?id=2&utm_campaign=x&gclid=y", "https://example.com/jobs?id=2"},
		{"https://www.linkedin.com/jobs/view/123?refId=abc&trackingId=def", "https://www.linkedin.com/jobs/view/123"},
		{"/relative/path", "/relative/path"},
	}
	for _, tt := range tests {
		if got := CanonicalLink(tt.in); got != tt.want {
			t.Errorf("CanonicalLink(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
