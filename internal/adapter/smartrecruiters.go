package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/amishk599/internfeed/internal/model"
)

const (
	smartRecruitersAPIURL  = "https://api.smartrecruiters.com/v1/companies"
	smartRecruitersJobsURL = "https://jobs.smartrecruiters.com"
)

type smartRecruitersPosting struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ReleasedDate string `json:"releasedDate"`
	Company      struct {
		Name string `json:"name"`
	} `json:"company"`
	Location struct {
		City    string `json:"city"`
		Country string `json:"country"`
		Remote  bool   `json:"remote"`
	} `json:"location"`
	Department struct {
		Label string `json:"label"`
	} `json:"department"`
	TypeOfEmployment struct {
		Label string `json:"label"`
	} `json:"typeOfEmployment"`
}

type smartRecruitersResponse struct {
	Content []smartRecruitersPosting `json:"content"`
}

// SmartRecruitersAdapter fetches postings for one company from the
// SmartRecruiters public postings API (CERN publishes here).
type SmartRecruitersAdapter struct {
	name      string
	companyID string
	keywords  []string
	client    *http.Client
}

// NewSmartRecruitersAdapter creates a producer for companyID.
func NewSmartRecruitersAdapter(name, companyID string, keywords []string, client *http.Client) *SmartRecruitersAdapter {
	return &SmartRecruitersAdapter{
		name:      name,
		companyID: companyID,
		keywords:  keywords,
		client:    client,
	}
}

func (a *SmartRecruitersAdapter) Name() string { return a.name }

// Fetch retrieves the company's current postings.
func (a *SmartRecruitersAdapter) Fetch(ctx context.Context) ([]model.RawRecord, error) {
	url := fmt.Sprintf("%s/%s/postings", smartRecruitersAPIURL, a.companyID)

	body, err := get(ctx, a.client, url, nil)
	if err != nil {
		return nil, fmt.Errorf("smartrecruiters fetch for %s: %w", a.companyID, err)
	}
	defer body.Close()

	var sr smartRecruitersResponse
	if err := json.NewDecoder(body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("smartrecruiters fetch for %s: %w", a.companyID, err)
	}

	records := make([]model.RawRecord, 0, len(sr.Content))
	for _, p := range sr.Content {
		if !matchesAnyKeyword(p.Name, a.keywords) {
			continue
		}
		company := p.Company.Name
		if company == "" {
			company = a.companyID
		}

		var tags []string
		for _, t := range []string{p.Department.Label, p.TypeOfEmployment.Label} {
			if t != "" {
				tags = append(tags, t)
			}
		}

		records = append(records, model.RawRecord{
			Title:    p.Name,
			Company:  company,
			Location: smartRecruitersLocation(p),
			Link:     fmt.Sprintf("%s/%s/%s", smartRecruitersJobsURL, a.companyID, p.ID),
			Date:     p.ReleasedDate,
			Tags:     tags,
			Source:   a.name,
		})
	}
	return records, nil
}

// smartRecruitersLocation renders "City, CC", adding "Remote" for remote roles.
// Country codes are upper-cased so the country extractor sees e.g. "CH".
func smartRecruitersLocation(p smartRecruitersPosting) string {
	var parts []string
	if p.Location.City != "" {
		parts = append(parts, p.Location.City)
	}
	if p.Location.Country != "" {
		parts = append(parts, strings.ToUpper(p.Location.Country))
	}
	if p.Location.Remote {
		parts = append(parts, "Remote")
	}
	return strings.Join(parts, ", ")
}
