package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/amishk599/internfeed/internal/model"
)

// Ensure TelegramSink implements model.Sink.
var _ model.Sink = (*TelegramSink)(nil)

// Telegram limits photo captions to 1024 characters; longer messages go out
// as text only.
const telegramCaptionLimit = 1024

// TelegramSink posts records to a Telegram channel or chat.
type TelegramSink struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	channel string // "@name" when the chat is addressed by username
	logger  *slog.Logger
}

// NewTelegramSink authenticates the bot with the Bot API. chat is either a
// numeric chat ID or an "@channel" username.
func NewTelegramSink(token, chat string, client *http.Client, logger *slog.Logger) (*TelegramSink, error) {
	return newTelegramSink(token, chat, tgbotapi.APIEndpoint, client, logger)
}

func newTelegramSink(token, chat, endpoint string, client *http.Client, logger *slog.Logger) (*TelegramSink, error) {
	if token == "" || chat == "" {
		return nil, fmt.Errorf("telegram sink: %w", model.ErrMissingCredentials)
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram sink: authenticating bot: %w", err)
	}

	s := &TelegramSink{bot: bot, logger: logger}
	if id, err := strconv.ParseInt(chat, 10, 64); err == nil {
		s.chatID = id
	} else {
		s.channel = "@" + strings.TrimPrefix(chat, "@")
	}
	return s, nil
}

// Deliver sends rec as a photo with the company logo and an HTML caption. If
// that fails (typically an unreachable logo URL) it retries once as a plain
// text message.
func (s *TelegramSink) Deliver(ctx context.Context, rec model.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	text := FormatHTML(rec)

	if rec.Logo != "" && utf8.RuneCountInString(text) <= telegramCaptionLimit {
		_, err := s.bot.Send(s.photo(rec.Logo, text))
		if err == nil {
			s.logger.Info("telegram message sent", "id", rec.ID, "title", rec.Title)
			return nil
		}
		s.logger.Warn("telegram photo failed, retrying as text", "id", rec.ID, "error", err)
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	if _, err := s.bot.Send(s.message(text)); err != nil {
		return fmt.Errorf("telegram send %s: %w", rec.ID, err)
	}
	s.logger.Info("telegram message sent", "id", rec.ID, "title", rec.Title, "text_only", true)
	return nil
}

func (s *TelegramSink) photo(url, caption string) tgbotapi.PhotoConfig {
	var p tgbotapi.PhotoConfig
	if s.channel != "" {
		p = tgbotapi.NewPhotoToChannel(s.channel, tgbotapi.FileURL(url))
	} else {
		p = tgbotapi.NewPhoto(s.chatID, tgbotapi.FileURL(url))
	}
	p.Caption = caption
	p.ParseMode = tgbotapi.ModeHTML
	return p
}

func (s *TelegramSink) message(text string) tgbotapi.MessageConfig {
	var m tgbotapi.MessageConfig
	if s.channel != "" {
		m = tgbotapi.NewMessageToChannel(s.channel, text)
	} else {
		m = tgbotapi.NewMessage(s.chatID, text)
	}
	m.ParseMode = tgbotapi.ModeHTML
	m.DisableWebPagePreview = true
	return m
}
