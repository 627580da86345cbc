package botapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ErikKalkoken/hookpost/internal/botapi"
)

const forumJSON = `{
	"id": "1170001234567890123",
	"type": 15,
	"guild_id": "42",
	"name": "bugs",
	"available_tags": [
		{"id": "1", "name": "open", "moderated": false, "emoji_id": null, "emoji_name": "🐛"},
		{"id": "2", "name": "closed", "moderated": true, "emoji_id": null, "emoji_name": null}
	]
}`

func TestClient(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	ctx := context.Background()
	c, err := botapi.NewClient(http.DefaultClient, "token")
	require.NoError(t, err)
	t.Run("should return channel JSON and send bot token", func(t *testing.T) {
		httpmock.Reset()
		var auth string
		httpmock.RegisterResponder(
			"GET",
			"https://discord.com/api/v10/channels/1170001234567890123",
			func(req *http.Request) (*http.Response, error) {
				auth = req.Header.Get("Authorization")
				return httpmock.NewStringResponse(200, forumJSON), nil
			},
		)
		dat, err := c.ChannelJSON(ctx, 1170001234567890123)
		if assert.NoError(t, err) {
			assert.JSONEq(t, forumJSON, string(dat))
			assert.Equal(t, "Bot token", auth)
		}
	})
	t.Run("should return channel", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder(
			"GET",
			"https://discord.com/api/v10/channels/1170001234567890123",
			httpmock.NewStringResponder(200, forumJSON),
		)
		ch := c.Channel(ctx, 1170001234567890123)
		if assert.NotNil(t, ch) {
			assert.Equal(t, "1170001234567890123", ch.ID)
			assert.Equal(t, "bugs", ch.Name)
		}
	})
	t.Run("should return forum tags", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder(
			"GET",
			"https://discord.com/api/v10/channels/1170001234567890123",
			httpmock.NewStringResponder(200, forumJSON),
		)
		tags := c.ForumTags(ctx, 1170001234567890123)
		if assert.Len(t, tags, 2) {
			assert.Equal(t, "1", tags[0].ID)
			assert.Equal(t, "open", tags[0].Name)
			assert.True(t, tags[1].Moderated)
		}
	})
	t.Run("should return nil when channel can not be fetched", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder(
			"GET",
			"https://discord.com/api/v10/channels/3",
			httpmock.NewStringResponder(404, `{"message": "Unknown Channel", "code": 10003}`),
		)
		_, err := c.ChannelJSON(ctx, 3)
		assert.Error(t, err)
		assert.Nil(t, c.Channel(ctx, 3))
		assert.Nil(t, c.ForumTags(ctx, 3))
	})
	t.Run("should return nil when channel is invalid JSON", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder(
			"GET",
			"https://discord.com/api/v10/channels/3",
			httpmock.NewStringResponder(200, "invalid"),
		)
		assert.Nil(t, c.Channel(ctx, 3))
	})
	t.Run("should return guild channels", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder(
			"GET",
			"https://discord.com/api/v10/guilds/42/channels",
			httpmock.NewStringResponder(200, "["+forumJSON+`,{"id": "5", "type": 0, "name": "general"}]`),
		)
		channels := c.GuildChannels(ctx, 42)
		if assert.Len(t, channels, 2) {
			assert.Equal(t, "bugs", channels[0].Name)
			assert.Equal(t, "general", channels[1].Name)
		}
	})
	t.Run("should return nil when guild channels can not be fetched", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder(
			"GET",
			"https://discord.com/api/v10/guilds/42/channels",
			httpmock.NewStringResponder(403, `{"message": "Missing Access", "code": 50001}`),
		)
		assert.Nil(t, c.GuildChannels(ctx, 42))
	})
}
