package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/amishk599/internfeed/internal/model"
)

const remotiveBaseURL = "https://remotive.com/api/remote-jobs"

type remotiveJob struct {
	Title                     string   `json:"title"`
	CompanyName               string   `json:"company_name"`
	CandidateRequiredLocation string   `json:"candidate_required_location"`
	URL                       string   `json:"url"`
	Salary                    string   `json:"salary"`
	PublicationDate           string   `json:"publication_date"`
	Tags                      []string `json:"tags"`
}

type remotiveResponse struct {
	Jobs []remotiveJob `json:"jobs"`
}

// RemotiveAdapter fetches remote postings from the Remotive public API.
type RemotiveAdapter struct {
	name     string
	category string
	keywords []string
	client   *http.Client
}

// NewRemotiveAdapter creates a producer for one Remotive category. An empty
// category queries all categories.
func NewRemotiveAdapter(name, category string, keywords []string, client *http.Client) *RemotiveAdapter {
	return &RemotiveAdapter{
		name:     name,
		category: category,
		keywords: keywords,
		client:   client,
	}
}

func (a *RemotiveAdapter) Name() string { return a.name }

// Fetch retrieves the category listing and keeps titles matching keywords.
func (a *RemotiveAdapter) Fetch(ctx context.Context) ([]model.RawRecord, error) {
	u := remotiveBaseURL
	if a.category != "" {
		u += "?category=" + url.QueryEscape(a.category)
	}

	body, err := get(ctx, a.client, u, nil)
	if err != nil {
		return nil, fmt.Errorf("remotive fetch for %s: %w", a.name, err)
	}
	defer body.Close()

	var rr remotiveResponse
	if err := json.NewDecoder(body).Decode(&rr); err != nil {
		return nil, fmt.Errorf("remotive fetch for %s: %w", a.name, err)
	}

	records := make([]model.RawRecord, 0, len(rr.Jobs))
	for _, j := range rr.Jobs {
		title := extractText(j.Title)
		if j.URL == "" || !matchesAnyKeyword(title, a.keywords) {
			continue
		}
		records = append(records, model.RawRecord{
			Title:    title,
			Company:  j.CompanyName,
			Location: j.CandidateRequiredLocation,
			Link:     j.URL,
			Date:     j.PublicationDate,
			Tags:     j.Tags,
			Source:   a.name,
			Stipend:  j.Salary,
		})
	}
	return records, nil
}
