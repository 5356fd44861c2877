package notifier

import (
	"context"
	"log/slog"

	"github.com/amishk599/internfeed/internal/model"
)

// Ensure LogSink implements model.Sink.
var _ model.Sink = (*LogSink)(nil)

// LogSink writes delivered records to the given logger as structured messages.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink returns a sink that logs each record via slog.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Deliver logs the record. It only fails when ctx is already done.
func (n *LogSink) Deliver(ctx context.Context, rec model.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	args := []any{
		"id", rec.ID,
		"company", rec.Company,
		"title", rec.Title,
		"location", rec.Location,
		"country", rec.Country,
		"field", rec.Field,
		"link", rec.Link,
		"source", rec.Source,
	}
	if rec.PostedAt != nil {
		args = append(args, "posted_at", *rec.PostedAt)
	}
	n.logger.Info("new posting", args...)
	return nil
}
