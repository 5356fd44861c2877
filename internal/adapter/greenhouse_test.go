package adapter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amishk599/internfeed/internal/model"
)

func TestGreenhouseFetch_Success(t *testing.T) {
	payload := `{
		"jobs": [
			{
				"id": 12345,
				"title": "Software Engineering Intern",
				"location": {"name": "San Francisco, CA"},
				"absolute_url": "https://boards.greenhouse.io/acme/jobs/12345",
				"updated_at": "2026-02-13T10:00:00Z",
				"departments": [{"name": "Engineering"}]
			},
			{
				"id": 67890,
				"title": "Senior Backend Engineer",
				"location": {"name": "Remote, US"},
				"absolute_url": "https://boards.greenhouse.io/acme/jobs/67890",
				"updated_at": "2026-02-13T11:30:00Z"
			}
		]
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/boards/acme/jobs" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	a := NewGreenhouseAdapter("Acme Careers", "acme", "Acme Corp", []string{"intern"}, redirectClient(srv))

	records, err := a.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record after keyword filter, got %d", len(records))
	}

	r := records[0]
	if r.Title != "Software Engineering Intern" {
		t.Errorf("Title = %q", r.Title)
	}
	if r.Company != "Acme Corp" {
		t.Errorf("Company = %q", r.Company)
	}
	if r.Location != "San Francisco, CA" {
		t.Errorf("Location = %q", r.Location)
	}
	if r.Link != "https://boards.greenhouse.io/acme/jobs/12345" {
		t.Errorf("Link = %q", r.Link)
	}
	if r.Date != "2026-02-13T10:00:00Z" {
		t.Errorf("Date = %q", r.Date)
	}
	if r.Source != "Acme Careers" || a.Name() != "Acme Careers" {
		t.Errorf("Source = %q, Name = %q", r.Source, a.Name())
	}
	if len(r.Tags) != 1 || r.Tags[0] != "Engineering" {
		t.Errorf("Tags = %v", r.Tags)
	}
}

func TestGreenhouseFetch_EmptyBoard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jobs": []}`))
	}))
	defer srv.Close()

	a := NewGreenhouseAdapter("Empty", "empty-co", "Empty Co", nil, redirectClient(srv))
	records, err := a.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected 0 records, got %d", len(records))
	}
}

func TestGreenhouseFetch_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not valid json`))
	}))
	defer srv.Close()

	a := NewGreenhouseAdapter("Bad", "bad-co", "Bad Co", nil, redirectClient(srv))
	if _, err := a.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for malformed JSON, got nil")
	}
}

func TestGreenhouseFetch_HTTPErrorCarriesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	a := NewGreenhouseAdapter("Fail", "fail-co", "Fail Co", nil, redirectClient(srv))
	_, err := a.Fetch(context.Background())

	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *model.HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d", httpErr.StatusCode)
	}
	if httpErr.RetryAfter != 7*time.Second {
		t.Errorf("RetryAfter = %v, want 7s", httpErr.RetryAfter)
	}
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "double-encoded HTML",
			input: "This is the job description. &lt;p&gt;Any HTML included.&lt;/p&gt;",
			want:  "This is the job description. Any HTML included.",
		},
		{
			name:  "nested tags and whitespace",
			input: "&lt;p&gt;We are hiring.&lt;/p&gt;\n&lt;ul&gt;\n  &lt;li&gt;Write code&lt;/li&gt;\n&lt;/ul&gt;",
			want:  "We are hiring. Write code",
		},
		{
			name:  "entity in a title",
			input: "R&amp;D Intern",
			want:  "R&D Intern",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := extractText(tc.input)
			if got != tc.want {
				t.Errorf("extractText(%q)\n got  %q\n want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := map[string]time.Duration{
		"":     0,
		"120":  120 * time.Second,
		"soon": 0,
	}
	for in, want := range tests {
		if got := parseRetryAfter(in); got != want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", in, got, want)
		}
	}
}

// --- helpers ---

// roundTripFunc adapts a function into an http.RoundTripper.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// redirectClient returns a client that sends every request to srv, so
// adapters with fixed API hosts can be pointed at a test server.
func redirectClient(srv *httptest.Server) *http.Client {
	return &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			req.URL.Scheme = "http"
			req.URL.Host = srv.Listener.Addr().String()
			return http.DefaultTransport.RoundTrip(req)
		}),
	}
}
