package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/internfeed/internal/model"
)

// Ensure SlackSink implements model.Sink.
var _ model.Sink = (*SlackSink)(nil)

// SlackSink posts records to a Slack channel via an Incoming Webhook.
type SlackSink struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackSink returns a sink that posts each record to Slack via webhook.
func NewSlackSink(webhookURL string, httpClient *http.Client, logger *slog.Logger) (*SlackSink, error) {
	if webhookURL == "" {
		return nil, fmt.Errorf("slack sink: %w", model.ErrMissingCredentials)
	}
	return &SlackSink{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Deliver sends rec as a Block Kit message with the company logo. Slack
// rejects the whole message when the image URL cannot be fetched, so a
// failure is retried once without the logo.
func (s *SlackSink) Deliver(ctx context.Context, rec model.Record) error {
	err := s.post(ctx, buildPayload(rec, true))
	if err == nil {
		s.logger.Info("slack message sent", "id", rec.ID, "title", rec.Title)
		return nil
	}
	if rec.Logo == "" {
		return fmt.Errorf("slack send %s: %w", rec.ID, err)
	}

	s.logger.Warn("slack message failed, retrying without logo", "id", rec.ID, "error", err)
	if err := s.waitRetryAfter(ctx, err); err != nil {
		return err
	}
	if err := s.post(ctx, buildPayload(rec, false)); err != nil {
		return fmt.Errorf("slack send %s: %w", rec.ID, err)
	}
	s.logger.Info("slack message sent", "id", rec.ID, "title", rec.Title, "without_logo", true)
	return nil
}

func (s *SlackSink) post(ctx context.Context, payload slackPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: time.Duration(secs) * time.Second,
			Err:        fmt.Errorf("slack returned %d", resp.StatusCode),
		}
	}
	return nil
}

// waitRetryAfter honours a rate-limit response before the fallback attempt.
func (s *SlackSink) waitRetryAfter(ctx context.Context, err error) error {
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusTooManyRequests {
		return nil
	}
	wait := max(httpErr.RetryAfter, time.Second)
	s.logger.Warn("slack rate limited, waiting", "retry_after", wait)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type      string         `json:"type"`
	Text      *slackText     `json:"text,omitempty"`
	Fields    []slackText    `json:"fields,omitempty"`
	Elements  []slackElement `json:"elements,omitempty"`
	Accessory *slackImage    `json:"accessory,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackElement struct {
	Type  string    `json:"type"`
	Text  slackText `json:"text"`
	URL   string    `json:"url"`
	Style string    `json:"style"`
}

type slackImage struct {
	Type     string `json:"type"`
	ImageURL string `json:"image_url"`
	AltText  string `json:"alt_text"`
}

func buildPayload(rec model.Record, withLogo bool) slackPayload {
	company := displayName(rec.Company)

	summary := slackBlock{
		Type: "section",
		Text: &slackText{Type: "mrkdwn", Text: fmt.Sprintf("*%s*\n%s · %s", company, rec.Field, rec.Country)},
	}
	if withLogo && rec.Logo != "" {
		summary.Accessory = &slackImage{Type: "image", ImageURL: rec.Logo, AltText: company}
	}

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: "🚀 " + rec.Title},
		},
		summary,
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Location:*\n" + rec.Location},
				{Type: "mrkdwn", Text: "*Posted:*\n" + postedText(rec.PostedAt)},
				{Type: "mrkdwn", Text: "*Duration:*\n" + rec.Duration},
				{Type: "mrkdwn", Text: "*Stipend:*\n" + rec.Stipend},
				{Type: "mrkdwn", Text: "*Deadline:*\n" + rec.Deadline},
				{Type: "mrkdwn", Text: "*Source:*\n" + displayName(rec.Source)},
			},
		},
		{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: "*Requirements:*\n• " + strings.Join(requirementLines(rec.Requirements), "\n• ")},
		},
	}

	if rec.Link != "" {
		blocks = append(blocks, slackBlock{
			Type: "actions",
			Elements: []slackElement{
				{
					Type:  "button",
					Text:  slackText{Type: "plain_text", Text: "Apply Now"},
					URL:   rec.Link,
					Style: "primary",
				},
			},
		})
	}
	blocks = append(blocks, slackBlock{Type: "divider"})

	return slackPayload{Blocks: blocks}
}

// SendTestMessage delivers a sample record to verify the integration works.
func SendTestMessage(ctx context.Context, sink model.Sink) error {
	now := time.Now()
	return sink.Deliver(ctx, model.Record{
		ID:           "test-001",
		Title:        "Test Notification: Integration Verified",
		Company:      "internfeed",
		Location:     "Everywhere",
		Country:      model.CountryRemote,
		Field:        "Computer Science",
		Link:         "https://example.com/internships/test",
		Source:       "test",
		Duration:     "3 months",
		Stipend:      "Not specified",
		Deadline:     "Open",
		Requirements: []string{"Go", "SQL"},
		PostedAt:     &now,
		IngestedAt:   now,
	})
}
