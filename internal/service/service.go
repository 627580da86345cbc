// Package service contains the logic behind the commands of the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/ErikKalkoken/go-dhook"

	"github.com/ErikKalkoken/hookpost/internal/attachment"
	"github.com/ErikKalkoken/hookpost/internal/botapi"
	"github.com/ErikKalkoken/hookpost/internal/config"
	"github.com/ErikKalkoken/hookpost/internal/feedpost"
	"github.com/ErikKalkoken/hookpost/internal/storage"
	"github.com/ErikKalkoken/hookpost/internal/webhook"
)

// Maximum number of messages kept in the history of each webhook
const historyLimit = 100

var (
	ErrNoBotToken     = errors.New("no bot token configured")
	ErrUnknownWebhook = errors.New("unknown webhook")
	ErrWrongKind      = errors.New("wrong kind of webhook")
)

// Target is a webhook which requests are posted to.
type Target struct {
	// Name of a configured webhook or [storage.AdhocWebhook]
	Name    string
	Request webhook.Request
}

// Service executes webhook requests and keeps track of them.
type Service struct {
	bot    *botapi.Client
	cfg    config.Config
	client *webhook.Client
	dhook  *dhook.Client
	poster *feedpost.Poster
	st     *storage.Storage
}

// New returns a new service. All requests share the provided HTTP client.
func New(st *storage.Storage, cfg config.Config, httpClient *http.Client, opts ...webhook.ClientOption) (*Service, error) {
	s := &Service{
		cfg:    cfg,
		client: webhook.NewClient(httpClient, opts...),
		dhook:  dhook.NewClient(),
		poster: feedpost.New(httpClient),
		st:     st,
	}
	if cfg.App.BotToken != "" {
		bot, err := botapi.NewClient(httpClient, cfg.App.BotToken)
		if err != nil {
			return nil, err
		}
		s.bot = bot
	}
	return s, nil
}

// Bot returns the client for the bot API.
func (s *Service) Bot() (*botapi.Client, error) {
	if s.bot == nil {
		return nil, ErrNoBotToken
	}
	return s.bot, nil
}

// Target returns the target for a configured webhook name or a webhook URL.
// Configured webhooks must be of the requested kind
// and their requests have the configured defaults applied.
func (s *Service) Target(nameOrURL string, kind webhook.Kind) (Target, error) {
	if cw, ok := s.cfg.Webhook(nameOrURL); ok {
		if cw.WebhookKind() != kind {
			return Target{}, fmt.Errorf("webhook %s is a %s webhook: %w", cw.Name, cw.WebhookKind(), ErrWrongKind)
		}
		return Target{Name: cw.Name, Request: cw.Request()}, nil
	}
	u, err := url.ParseRequestURI(nameOrURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return Target{}, fmt.Errorf("%s: %w", nameOrURL, ErrUnknownWebhook)
	}
	return Target{Name: storage.AdhocWebhook, Request: webhook.NewRequest(kind, nameOrURL)}, nil
}

// Execute posts a request to the target's webhook.
// Successfully sent messages are added to the history and the stats of the webhook are updated.
func (s *Service) Execute(ctx context.Context, t Target, r webhook.Request) webhook.Result {
	res := s.client.Execute(ctx, r)
	now := time.Now().UTC()
	err := s.st.UpdateWebhookStats(t.Name, func(ws *storage.WebhookStats) {
		if res.IsSuccess() {
			ws.SentCount++
			ws.SentLast = now
		} else {
			ws.ErrorCount++
		}
	})
	if err != nil {
		slog.Error("Failed to update webhook stats", "webhook", t.Name, "error", err)
	}
	if !res.IsSuccess() {
		return res
	}
	m := storage.SentMessage{
		Content: r.Content(),
		SentAt:  now,
	}
	if r.Kind() == webhook.KindForumThread {
		m.ThreadName = r.ThreadName()
	}
	if res.HasMessage() {
		m.ID = res.Message.ID
		m.ChannelID = res.Message.ChannelID
	}
	if guildID := s.cfg.App.GuildID(); !guildID.IsZero() {
		m.URL, _ = res.MessageURL(guildID)
	}
	if err := s.st.RecordSent(t.Name, m); err != nil {
		slog.Error("Failed to record sent message", "webhook", t.Name, "error", err)
		return res
	}
	if err := s.st.CullSent(t.Name, historyLimit); err != nil {
		slog.Error("Failed to cull sent messages", "webhook", t.Name, "error", err)
	}
	return res
}

// MessageURL returns the permalink to the message of a result,
// when a server is configured and the result has a message.
func (s *Service) MessageURL(res webhook.Result) (string, bool) {
	guildID := s.cfg.App.GuildID()
	if guildID.IsZero() {
		return "", false
	}
	return res.MessageURL(guildID)
}

// Ping sends a test message to a configured webhook.
func (s *Service) Ping(webhookName string) error {
	cw, ok := s.cfg.Webhook(webhookName)
	if !ok {
		return fmt.Errorf("no webhook found with the name %s: %w", webhookName, ErrUnknownWebhook)
	}
	if cw.WebhookKind() == webhook.KindForumThread {
		return fmt.Errorf("can not ping forum webhook %s: %w", webhookName, ErrWrongKind)
	}
	dh := s.dhook.NewWebhook(cw.URL)
	_, err := dh.Execute(dhook.Message{Content: "Ping from hookpost"}, nil)
	return err
}

// PostLatestFeedItem posts the latest item of a feed to the target.
func (s *Service) PostLatestFeedItem(ctx context.Context, t Target, feedURL string) (webhook.Result, error) {
	it, err := s.poster.LatestItem(ctx, feedURL)
	if err != nil {
		return webhook.Result{}, err
	}
	r, err := feedpost.Request(t.Request, it)
	if err != nil {
		return webhook.Result{}, err
	}
	return s.Execute(ctx, t, r), nil
}

// ImageFileCapturer returns a screen capturer, which reads the screenshot from an image file.
func ImageFileCapturer(path string) webhook.CaptureFunc {
	return func(ctx context.Context) (image.Image, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		img, _, err := image.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return img, nil
	}
}

// Attachments reads files as attachments.
func Attachments(ctx context.Context, paths ...string) ([]attachment.Attachment, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	return attachment.FromPaths(ctx, paths...)
}
