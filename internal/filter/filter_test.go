package filter

import (
	"testing"

	"github.com/amishk599/internfeed/internal/model"
)

func raw(title, location string) model.RawRecord {
	return model.RawRecord{Title: title, Location: location}
}

func TestKeywordFilter_Match(t *testing.T) {
	tests := []struct {
		name      string
		keywords  Keywords
		raw       model.RawRecord
		wantMatch bool
	}{
		{
			name:      "matches both title and location",
			keywords:  Keywords{Titles: []string{"intern", "trainee"}, Locations: []string{"Germany", "Remote"}},
			raw:       raw("Software Engineering Intern", "Remote - EU"),
			wantMatch: true,
		},
		{
			name:      "title match but location miss",
			keywords:  Keywords{Titles: []string{"intern"}, Locations: []string{"Germany"}},
			raw:       raw("Data Intern", "London, UK"),
			wantMatch: false,
		},
		{
			name:      "case insensitive matching",
			keywords:  Keywords{Titles: []string{"INTERN"}, Locations: []string{"remote"}},
			raw:       raw("Backend Intern", "REMOTE"),
			wantMatch: true,
		},
		{
			name:      "exclude keyword drops an otherwise matching title",
			keywords:  Keywords{Titles: []string{"intern"}, TitleExcludes: []string{"Senior"}},
			raw:       raw("Senior Intern Coordinator", "Berlin"),
			wantMatch: false,
		},
		{
			name:      "location exclude",
			keywords:  Keywords{LocationExcludes: []string{"on-site only"}},
			raw:       raw("Intern", "Paris (on-site only)"),
			wantMatch: false,
		},
		{
			name:      "blank keywords are ignored",
			keywords:  Keywords{Titles: []string{"  ", ""}, TitleExcludes: []string{""}},
			raw:       raw("Any Role", "Anywhere"),
			wantMatch: true,
		},
		{
			name:      "empty keyword lists pass all",
			raw:       raw("Any Role", "Anywhere"),
			wantMatch: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewKeywordFilter(tt.keywords)
			if got := f.Match(tt.raw); got != tt.wantMatch {
				t.Errorf("Match() = %v, want %v", got, tt.wantMatch)
			}
		})
	}
}

func TestAcceptAll(t *testing.T) {
	if !(AcceptAll{}).Match(model.RawRecord{}) {
		t.Error("AcceptAll rejected a record")
	}
}
