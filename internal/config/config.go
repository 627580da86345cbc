// Package config provides the app's configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ErikKalkoken/hookpost/internal/snowflake"
	"github.com/ErikKalkoken/hookpost/internal/webhook"
)

const (
	timeoutDefault  = 30
	logLevelDefault = slog.LevelInfo
	kindChannel     = "channel"
	kindForum       = "forum"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	App      ConfigApp
	Webhooks []ConfigWebhook
}

// Webhook returns the webhook with the given name and reports whether it was found.
func (c Config) Webhook(name string) (ConfigWebhook, bool) {
	for _, wh := range c.Webhooks {
		if wh.Name == name {
			return wh, true
		}
	}
	return ConfigWebhook{}, false
}

type ConfigApp struct {
	BotToken string `toml:"bot_token"`
	DBPath   string `toml:"db_path"`
	LogLevel string `toml:"loglevel"`
	ServerID string `toml:"server_id"`
	Timeout  int    `toml:"timeout"`
}

func (ca ConfigApp) LoggerLevel() slog.Level {
	m := map[string]slog.Level{"DEBUG": slog.LevelDebug, "INFO": slog.LevelInfo, "WARN": slog.LevelWarn, "ERROR": slog.LevelError}
	v, ok := m[strings.ToUpper(ca.LogLevel)]
	if !ok {
		return logLevelDefault
	}
	return v
}

// GuildID returns the ID of the configured Discord server or zero if not configured.
func (ca ConfigApp) GuildID() snowflake.ID {
	id, _ := snowflake.Parse(ca.ServerID)
	return id
}

type ConfigWebhook struct {
	Kind     string   `toml:"kind"`
	Name     string   `toml:"name"`
	Tags     []string `toml:"tags"`
	URL      string   `toml:"url"`
	Username string   `toml:"username"`
}

func (cw ConfigWebhook) WebhookKind() webhook.Kind {
	if cw.Kind == kindForum {
		return webhook.KindForumThread
	}
	return webhook.KindChannel
}

// TagIDs returns the default tags for forum posts.
func (cw ConfigWebhook) TagIDs() []snowflake.ID {
	ids := make([]snowflake.ID, 0, len(cw.Tags))
	for _, s := range cw.Tags {
		id, err := snowflake.Parse(s)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// Request returns a new request for this webhook with all configured defaults applied.
func (cw ConfigWebhook) Request() webhook.Request {
	r := webhook.NewRequest(cw.WebhookKind(), cw.URL)
	if cw.Username != "" {
		r = r.WithUsername(cw.Username)
	}
	if tags := cw.TagIDs(); len(tags) > 0 {
		r = r.WithAppliedTags(tags...)
	}
	return r
}

// Default returns a config without webhooks, which has all defaults applied.
func Default() Config {
	var config Config
	if err := parseConfig(&config); err != nil {
		panic(err)
	}
	return config
}

// FromFile reads the config from a TOML file.
func FromFile(path string) (Config, error) {
	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return config, err
	}
	if err := parseConfig(&config); err != nil {
		return config, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return config, nil
}

func parseConfig(config *Config) error {
	webhookNames := make(map[string]bool)
	webhookURLs := make(map[string]bool)
	for i, x := range config.Webhooks {
		if x.Name == "" {
			return fmt.Errorf("one webhook has no name")
		}
		if x.URL == "" {
			return fmt.Errorf("webhook %s has no url", x.Name)
		}
		if _, err := url.ParseRequestURI(x.URL); err != nil {
			return fmt.Errorf("webhook %s has invalid url: %w", x.Name, err)
		}
		if webhookNames[x.Name] {
			return fmt.Errorf("webhook name %s not unique", x.Name)
		}
		webhookNames[x.Name] = true
		if webhookURLs[x.URL] {
			return fmt.Errorf("webhook url of %s not unique", x.Name)
		}
		webhookURLs[x.URL] = true
		switch x.Kind {
		case "":
			config.Webhooks[i].Kind = kindChannel
		case kindChannel, kindForum:
		default:
			return fmt.Errorf("webhook %s has invalid kind: %s", x.Name, x.Kind)
		}
		if len(x.Tags) > 0 && x.Kind != kindForum {
			slog.Warn("Tags defined, but webhook is not a forum", "name", x.Name)
		}
		for _, s := range x.Tags {
			if _, err := snowflake.Parse(s); err != nil {
				return fmt.Errorf("webhook %s has invalid tag %s: %w", x.Name, s, err)
			}
		}
	}
	if config.App.ServerID != "" {
		if _, err := snowflake.Parse(config.App.ServerID); err != nil {
			return fmt.Errorf("invalid server_id: %w", err)
		}
	}
	if config.App.Timeout <= 0 {
		config.App.Timeout = timeoutDefault
	}
	return nil
}
