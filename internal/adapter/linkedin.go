package adapter

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/internfeed/internal/model"
)

const linkedInDefaultURL = "https://www.linkedin.com/jobs/search?keywords=Computer%20Science%20Intern&location=Worldwide&f_TPR=r86400&position=1&pageNum=0"

// LinkedInAdapter scrapes the public LinkedIn job search page. LinkedIn often
// answers scrapers with 429 or 999; those surface as *model.HTTPError.
type LinkedInAdapter struct {
	name   string
	url    string
	client *http.Client
}

// NewLinkedInAdapter creates a producer for the search page at url. An empty
// url searches worldwide computer science internships from the past day.
func NewLinkedInAdapter(name, url string, client *http.Client) *LinkedInAdapter {
	if url == "" {
		url = linkedInDefaultURL
	}
	return &LinkedInAdapter{name: name, url: url, client: client}
}

func (a *LinkedInAdapter) Name() string { return a.name }

// Fetch downloads the search page and extracts one record per job card.
func (a *LinkedInAdapter) Fetch(ctx context.Context) ([]model.RawRecord, error) {
	body, err := get(ctx, a.client, a.url, browserHeader())
	if err != nil {
		return nil, fmt.Errorf("linkedin fetch for %s: %w", a.name, err)
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("linkedin parse for %s: %w", a.name, err)
	}

	var records []model.RawRecord
	doc.Find("li").Each(func(_ int, card *goquery.Selection) {
		anchor := card.Find("a.base-card__full-link, a.job-search-card__job-title").First()
		if anchor.Length() == 0 {
			return
		}
		href, _ := anchor.Attr("href")
		link, _, _ := strings.Cut(strings.TrimSpace(href), "?")
		title := cleanText(anchor.Text())
		if title == "" {
			title = firstText(card, "h3.base-search-card__title")
		}
		if title == "" || link == "" {
			return
		}

		date, _ := card.Find("time").First().Attr("datetime")
		records = append(records, model.RawRecord{
			Title:    title,
			Company:  firstText(card, "h4.base-search-card__subtitle", "a.hidden-nested-link"),
			Location: firstText(card, "span.job-search-card__location"),
			Link:     link,
			Date:     date,
			Source:   a.name,
		})
	})
	return records, nil
}
