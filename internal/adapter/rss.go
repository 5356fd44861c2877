package adapter

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/amishk599/internfeed/internal/model"
)

// feedDefaultLocation is used for feed items, which rarely carry a location.
const feedDefaultLocation = "Remote"

// RSSAdapter fetches postings from an RSS or Atom feed.
type RSSAdapter struct {
	name     string
	url      string
	keywords []string
	client   *http.Client
}

// NewRSSAdapter creates a producer for the feed at url. Only items whose title
// contains one of keywords are kept; no keywords keeps everything.
func NewRSSAdapter(name, url string, keywords []string, client *http.Client) *RSSAdapter {
	return &RSSAdapter{
		name:     name,
		url:      url,
		keywords: keywords,
		client:   client,
	}
}

func (a *RSSAdapter) Name() string { return a.name }

// Fetch downloads and parses the feed.
func (a *RSSAdapter) Fetch(ctx context.Context) ([]model.RawRecord, error) {
	body, err := get(ctx, a.client, a.url, browserHeader())
	if err != nil {
		return nil, fmt.Errorf("rss fetch for %s: %w", a.name, err)
	}
	defer body.Close()

	feed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, fmt.Errorf("rss parse for %s: %w", a.name, err)
	}

	records := make([]model.RawRecord, 0, len(feed.Items))
	for _, item := range feed.Items {
		link := feedItemLink(item)
		if link == "" || !matchesAnyKeyword(item.Title, a.keywords) {
			continue
		}
		company, title := feedItemCompanyTitle(item, a.name)
		records = append(records, model.RawRecord{
			Title:    title,
			Company:  company,
			Location: feedDefaultLocation,
			Link:     link,
			Date:     feedItemDate(item),
			Tags:     item.Categories,
			Source:   a.name,
		})
	}
	return records, nil
}

// feedItemLink prefers the explicit link, falling back to the GUID if it
// looks like an HTTP URL.
func feedItemLink(item *gofeed.Item) string {
	if item.Link != "" {
		return item.Link
	}
	if strings.HasPrefix(item.GUID, "http") {
		return item.GUID
	}
	return ""
}

// feedItemCompanyTitle takes the company from the item author. Job boards such
// as WeWorkRemotely put it in the title instead ("Acme: Backend Intern").
func feedItemCompanyTitle(item *gofeed.Item, feedName string) (company, title string) {
	title = cleanText(item.Title)
	for _, p := range item.Authors {
		if p != nil && p.Name != "" {
			return p.Name, title
		}
	}
	if c, t, ok := strings.Cut(title, ": "); ok && c != "" && t != "" {
		return c, t
	}
	return feedName, title
}

func feedItemDate(item *gofeed.Item) string {
	switch {
	case item.PublishedParsed != nil:
		return item.PublishedParsed.UTC().Format(time.RFC3339)
	case item.UpdatedParsed != nil:
		return item.UpdatedParsed.UTC().Format(time.RFC3339)
	case item.Published != "":
		return item.Published
	}
	return item.Updated
}
