package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/amishk599/internfeed/internal/model"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"

// greenhouseJob represents a single job in the Greenhouse API response.
type greenhouseJob struct {
	ID          int64              `json:"id"`
	Title       string             `json:"title"`
	Location    greenhouseLocation `json:"location"`
	AbsoluteURL string             `json:"absolute_url"`
	UpdatedAt   string             `json:"updated_at"`
	Departments []struct {
		Name string `json:"name"`
	} `json:"departments"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

// greenhouseResponse is the top-level Greenhouse jobs API response.
type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// GreenhouseAdapter fetches postings from a Greenhouse public job board.
type GreenhouseAdapter struct {
	name        string
	boardToken  string
	companyName string
	keywords    []string
	client      *http.Client
}

// NewGreenhouseAdapter creates a producer for one Greenhouse board. Only
// titles containing one of keywords are kept; no keywords keeps everything.
func NewGreenhouseAdapter(name, boardToken, companyName string, keywords []string, client *http.Client) *GreenhouseAdapter {
	return &GreenhouseAdapter{
		name:        name,
		boardToken:  boardToken,
		companyName: companyName,
		keywords:    keywords,
		client:      client,
	}
}

func (a *GreenhouseAdapter) Name() string { return a.name }

// Fetch retrieves all postings on the board.
func (a *GreenhouseAdapter) Fetch(ctx context.Context) ([]model.RawRecord, error) {
	url := fmt.Sprintf("%s/%s/jobs", greenhouseBaseURL, a.boardToken)

	body, err := get(ctx, a.client, url, nil)
	if err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", a.boardToken, err)
	}
	defer body.Close()

	var ghResp greenhouseResponse
	if err := json.NewDecoder(body).Decode(&ghResp); err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", a.boardToken, err)
	}

	records := make([]model.RawRecord, 0, len(ghResp.Jobs))
	for _, gj := range ghResp.Jobs {
		if !matchesAnyKeyword(gj.Title, a.keywords) {
			continue
		}
		var tags []string
		for _, d := range gj.Departments {
			tags = append(tags, d.Name)
		}
		records = append(records, model.RawRecord{
			Title:    gj.Title,
			Company:  a.companyName,
			Location: gj.Location.Name,
			Link:     gj.AbsoluteURL,
			Date:     gj.UpdatedAt,
			Tags:     tags,
			Source:   a.name,
		})
	}

	return records, nil
}
