// Package botapi provides read-only lookups against Discord's bot API.
package botapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/ErikKalkoken/hookpost/internal/snowflake"
)

const baseURL = "https://discord.com/api/v10"

// Client is a client for Discord's bot API.
type Client struct {
	session *discordgo.Session
}

// NewClient returns a new client, which authenticates with a bot token.
// Requests are not retried.
func NewClient(httpClient *http.Client, botToken string) (*Client, error) {
	s, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Client = httpClient
	s.MaxRestRetries = 0
	s.ShouldRetryOnRateLimit = false
	return &Client{session: s}, nil
}

// ChannelJSON returns the channel object as raw JSON.
func (c *Client) ChannelJSON(ctx context.Context, channelID snowflake.ID) ([]byte, error) {
	return c.get(ctx, fmt.Sprintf("%s/channels/%s", baseURL, channelID))
}

// GuildChannelsJSON returns all channels of a guild as raw JSON.
func (c *Client) GuildChannelsJSON(ctx context.Context, guildID snowflake.ID) ([]byte, error) {
	return c.get(ctx, fmt.Sprintf("%s/guilds/%s/channels", baseURL, guildID))
}

// Channel returns a channel or nil when it could not be fetched.
func (c *Client) Channel(ctx context.Context, channelID snowflake.ID) *discordgo.Channel {
	dat, err := c.ChannelJSON(ctx, channelID)
	if err != nil {
		return nil
	}
	var ch discordgo.Channel
	if err := json.Unmarshal(dat, &ch); err != nil {
		slog.Error("Failed to parse channel", "channelID", channelID, "error", err)
		return nil
	}
	return &ch
}

// GuildChannels returns the channels of a guild or nil when they could not be fetched.
func (c *Client) GuildChannels(ctx context.Context, guildID snowflake.ID) []*discordgo.Channel {
	dat, err := c.GuildChannelsJSON(ctx, guildID)
	if err != nil {
		return nil
	}
	var channels []*discordgo.Channel
	if err := json.Unmarshal(dat, &channels); err != nil {
		slog.Error("Failed to parse guild channels", "guildID", guildID, "error", err)
		return nil
	}
	return channels
}

// ForumTags returns the tags available in a forum channel or nil when they could not be fetched.
// Channels which are not forums have no tags.
func (c *Client) ForumTags(ctx context.Context, channelID snowflake.ID) []discordgo.ForumTag {
	ch := c.Channel(ctx, channelID)
	if ch == nil {
		return nil
	}
	return ch.AvailableTags
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	dat, err := c.session.Request(http.MethodGet, url, nil, discordgo.WithContext(ctx))
	if err != nil {
		slog.Error("Failed to get data from Discord", "url", url, "error", err)
		return nil, err
	}
	return dat, nil
}
