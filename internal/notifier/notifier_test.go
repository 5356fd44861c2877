package notifier

import (
	"io"
	"log/slog"
	"time"

	"github.com/amishk599/internfeed/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func timePtr(t time.Time) *time.Time { return &t }

func sampleRecord() model.Record {
	return model.Record{
		ID:           "rec-1",
		Title:        "Data <Science> Intern",
		Company:      "acme corp",
		Location:     "Berlin, Germany",
		Country:      "Germany",
		Field:        "Data Science & AI",
		Link:         "https://example.com/apply?id=1&src=feed",
		Source:       "remotive",
		Duration:     "6 months",
		Stipend:      "€1200/month",
		Deadline:     "Open",
		Requirements: []string{"Python", "SQL", "Pandas", "Spark"},
		Logo:         "https://logo.clearbit.com/acmecorp.com",
		PostedAt:     timePtr(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)),
	}
}
