package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/amishk599/internfeed/internal/model"
)

const leverBaseURL = "https://api.lever.co/v0/postings"

// leverCategories represents the categories object in a Lever posting.
type leverCategories struct {
	Team         string   `json:"team"`
	Department   string   `json:"department"`
	Location     string   `json:"location"`
	Commitment   string   `json:"commitment"`
	AllLocations []string `json:"allLocations"`
}

// leverJob represents a single posting in the Lever API response.
type leverJob struct {
	ID         string          `json:"id"`
	Text       string          `json:"text"`
	Categories leverCategories `json:"categories"`
	CreatedAt  int64           `json:"createdAt"`
	HostedURL  string          `json:"hostedUrl"`
}

// LeverAdapter fetches postings from the Lever public postings API.
type LeverAdapter struct {
	name        string
	companySlug string
	companyName string
	keywords    []string
	client      *http.Client
}

// NewLeverAdapter creates a producer for one Lever board.
func NewLeverAdapter(name, companySlug, companyName string, keywords []string, client *http.Client) *LeverAdapter {
	return &LeverAdapter{
		name:        name,
		companySlug: companySlug,
		companyName: companyName,
		keywords:    keywords,
		client:      client,
	}
}

func (a *LeverAdapter) Name() string { return a.name }

// Fetch retrieves all postings on the board.
func (a *LeverAdapter) Fetch(ctx context.Context) ([]model.RawRecord, error) {
	url := fmt.Sprintf("%s/%s?mode=json", leverBaseURL, a.companySlug)

	body, err := get(ctx, a.client, url, nil)
	if err != nil {
		return nil, fmt.Errorf("lever fetch for %s: %w", a.companySlug, err)
	}
	defer body.Close()

	var leverJobs []leverJob
	if err := json.NewDecoder(body).Decode(&leverJobs); err != nil {
		return nil, fmt.Errorf("lever fetch for %s: %w", a.companySlug, err)
	}

	records := make([]model.RawRecord, 0, len(leverJobs))
	for _, lj := range leverJobs {
		if !matchesAnyKeyword(lj.Text, a.keywords) {
			continue
		}
		// Prefer allLocations if available, fallback to location
		location := lj.Categories.Location
		if len(lj.Categories.AllLocations) > 0 {
			location = strings.Join(lj.Categories.AllLocations, ", ")
		}

		// createdAt is Unix milliseconds
		var date string
		if lj.CreatedAt > 0 {
			date = time.UnixMilli(lj.CreatedAt).UTC().Format(time.RFC3339)
		}

		var tags []string
		for _, t := range []string{lj.Categories.Team, lj.Categories.Department, lj.Categories.Commitment} {
			if t != "" {
				tags = append(tags, t)
			}
		}

		records = append(records, model.RawRecord{
			Title:    lj.Text,
			Company:  a.companyName,
			Location: location,
			Link:     lj.HostedURL,
			Date:     date,
			Tags:     tags,
			Source:   a.name,
		})
	}

	return records, nil
}
