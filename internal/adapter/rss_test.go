package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/">
  <channel>
    <title>Remote Programming Jobs</title>
    <item>
      <title>Acme: Backend Intern</title>
      <link>https://weworkremotely.com/remote-jobs/acme-backend-intern</link>
      <pubDate>Sat, 14 Mar 2026 10:00:00 +0000</pubDate>
      <category>Programming</category>
    </item>
    <item>
      <title>Data Intern</title>
      <guid>https://example.com/jobs/data-intern</guid>
      <dc:creator>Globex</dc:creator>
    </item>
    <item>
      <title>Principal Architect</title>
      <link>https://weworkremotely.com/remote-jobs/principal</link>
    </item>
    <item>
      <title>Intern without link</title>
    </item>
  </channel>
</rss>`

func TestRSSFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("expected a User-Agent header")
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testFeed))
	}))
	defer srv.Close()

	a := NewRSSAdapter("WeWorkRemotely", srv.URL+"/feed.rss", []string{"intern"}, srv.Client())
	records, err := a.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d: %+v", len(records), records)
	}

	first := records[0]
	if first.Company != "Acme" || first.Title != "Backend Intern" {
		t.Errorf("company/title split = %q / %q", first.Company, first.Title)
	}
	if first.Date != "2026-03-14T10:00:00Z" {
		t.Errorf("Date = %q", first.Date)
	}
	if first.Location != "Remote" {
		t.Errorf("Location = %q", first.Location)
	}
	if len(first.Tags) != 1 || first.Tags[0] != "Programming" {
		t.Errorf("Tags = %v", first.Tags)
	}

	second := records[1]
	if second.Link != "https://example.com/jobs/data-intern" {
		t.Errorf("GUID fallback Link = %q", second.Link)
	}
	if second.Company != "Globex" {
		t.Errorf("author Company = %q", second.Company)
	}
	if second.Date != "" {
		t.Errorf("undated item Date = %q", second.Date)
	}
}

func TestRSSFetch_NotAFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>maintenance</body></html>"))
	}))
	defer srv.Close()

	a := NewRSSAdapter("Broken", srv.URL, nil, srv.Client())
	if _, err := a.Fetch(context.Background()); err == nil {
		t.Fatal("expected parse error for non-feed body")
	}
}
