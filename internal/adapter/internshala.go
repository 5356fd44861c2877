package adapter

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/internfeed/internal/model"
)

const (
	internshalaSite       = "https://internshala.com"
	internshalaDefaultURL = internshalaSite + "/internships/computer-science-internship/"
	internshalaDetailPath = "/internship/detail/"
)

// InternshalaAdapter scrapes the Internshala listing page. The listing shows
// no posting dates, so every card is marked model.FreshlyObserved.
type InternshalaAdapter struct {
	name   string
	url    string
	client *http.Client
}

// NewInternshalaAdapter creates a producer for the listing at url. An empty
// url uses the computer science listing.
func NewInternshalaAdapter(name, url string, client *http.Client) *InternshalaAdapter {
	if url == "" {
		url = internshalaDefaultURL
	}
	return &InternshalaAdapter{name: name, url: url, client: client}
}

func (a *InternshalaAdapter) Name() string { return a.name }

// Fetch downloads the listing page and extracts one record per card that
// links to a detail page.
func (a *InternshalaAdapter) Fetch(ctx context.Context) ([]model.RawRecord, error) {
	body, err := get(ctx, a.client, a.url, browserHeader())
	if err != nil {
		return nil, fmt.Errorf("internshala fetch for %s: %w", a.name, err)
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("internshala parse for %s: %w", a.name, err)
	}

	cards := doc.Find("div.individual_internship")
	if cards.Length() == 0 {
		cards = doc.Find(`div[id^="individual_internship_"]`)
	}

	var records []model.RawRecord
	cards.Each(func(_ int, card *goquery.Selection) {
		title := firstText(card, "h3.heading_4_5", ".heading_4_5", "h3")
		company := firstText(card, "h4.heading_6_company", ".company_name", "a.link_display_like_text")
		if title == "" && company == "" {
			return
		}

		link := internshalaLink(card)
		if !strings.Contains(link, internshalaDetailPath) {
			return
		}

		records = append(records, model.RawRecord{
			Title:    title,
			Company:  company,
			Location: firstText(card, "a.location_link", "span.location_link", "#location_names"),
			Link:     link,
			Date:     model.FreshlyObserved,
			Source:   a.name,
			Stipend:  firstText(card, "span.stipend"),
		})
	})
	return records, nil
}

func internshalaLink(card *goquery.Selection) string {
	if href, ok := card.Attr("data-href"); ok && href != "" {
		return absoluteURL(internshalaSite, href)
	}
	var link string
	card.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if strings.Contains(href, internshalaDetailPath) {
			link = absoluteURL(internshalaSite, href)
			return false
		}
		return true
	})
	return link
}

// firstText returns the cleaned text of the first selector that matches.
func firstText(s *goquery.Selection, selectors ...string) string {
	for _, sel := range selectors {
		if m := s.Find(sel).First(); m.Length() > 0 {
			if t := cleanText(m.Text()); t != "" {
				return t
			}
		}
	}
	return ""
}
