package main

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/urfave/cli/v2"
	bolt "go.etcd.io/bbolt"

	"github.com/ErikKalkoken/hookpost/internal/attachment"
	"github.com/ErikKalkoken/hookpost/internal/botapi"
	"github.com/ErikKalkoken/hookpost/internal/config"
	"github.com/ErikKalkoken/hookpost/internal/consoletable"
	"github.com/ErikKalkoken/hookpost/internal/service"
	"github.com/ErikKalkoken/hookpost/internal/snowflake"
	"github.com/ErikKalkoken/hookpost/internal/storage"
	"github.com/ErikKalkoken/hookpost/internal/webhook"
)

const (
	configFilename   = "hookpost.toml"
	dbFileName       = "hookpost.db"
	boltOpenTimeout  = 5 * time.Second
	commandTimeout   = 5 * time.Minute
	screenshotWidth  = 1920
	screenshotHeight = 1080
)

// cliApp holds the state shared by all commands.
type cliApp struct {
	cfg        config.Config
	db         *bolt.DB
	httpClient *http.Client
	st         *storage.Storage
}

func (a *cliApp) before(cCtx *cli.Context) error {
	p := cCtx.String("config")
	if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) && !cCtx.IsSet("config") {
		a.cfg = config.Default()
		slog.Debug("No config file found. Using defaults", "path", p)
	} else {
		cfg, err := config.FromFile(p)
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		a.cfg = cfg
	}
	if cCtx.IsSet("db") {
		a.cfg.App.DBPath = cCtx.String("db")
	}
	slog.SetLogLoggerLevel(a.cfg.App.LoggerLevel())
	a.httpClient = &http.Client{Timeout: time.Duration(a.cfg.App.Timeout) * time.Second}
	return nil
}

func (a *cliApp) after(cCtx *cli.Context) error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// service opens the database and returns a new service.
func (a *cliApp) service(opts ...webhook.ClientOption) (*service.Service, error) {
	if a.st == nil {
		dir := a.cfg.App.DBPath
		if dir == "" {
			dir = "."
		}
		db, err := bolt.Open(filepath.Join(dir, dbFileName), 0600, &bolt.Options{Timeout: boltOpenTimeout})
		if err != nil {
			return nil, fmt.Errorf("failed to open DB: %w", err)
		}
		a.db = db
		st := storage.New(db, a.cfg)
		if err := st.Init(); err != nil {
			return nil, fmt.Errorf("DB init failed: %w", err)
		}
		a.st = st
	}
	return service.New(a.st, a.cfg, a.httpClient, opts...)
}

// bot returns the bot API client of the service.
func (a *cliApp) bot() (*botapi.Client, error) {
	s, err := a.service()
	if err != nil {
		return nil, err
	}
	return s.Bot()
}

func (a *cliApp) send(cCtx *cli.Context) error {
	return a.execute(cCtx, webhook.KindChannel, nil)
}

func (a *cliApp) post(cCtx *cli.Context) error {
	return a.execute(cCtx, webhook.KindForumThread, func(r webhook.Request) (webhook.Request, error) {
		r = r.WithThreadName(cCtx.String("thread-name"))
		if s := cCtx.String("thread-id"); s != "" {
			id, err := snowflake.Parse(s)
			if err != nil {
				return r, fmt.Errorf("thread-id: %w", err)
			}
			r = r.WithRepliedThreadID(id)
		}
		if tags := cCtx.StringSlice("tag"); len(tags) > 0 {
			ids := make([]snowflake.ID, 0, len(tags))
			for _, s := range tags {
				id, err := snowflake.Parse(s)
				if err != nil {
					return r, fmt.Errorf("tag: %w", err)
				}
				ids = append(ids, id)
			}
			r = r.WithAppliedTags(ids...)
		}
		return r.WithPreventThreadNameOverflow(cCtx.Bool("no-overflow")), nil
	})
}

func (a *cliApp) execute(cCtx *cli.Context, kind webhook.Kind, customize func(webhook.Request) (webhook.Request, error)) error {
	args := cCtx.Args()
	if args.Len() == 0 {
		return errors.New("no webhook specified")
	}
	var opts []webhook.ClientOption
	screenshot := cCtx.String("screenshot")
	if screenshot != "" {
		opts = append(opts,
			webhook.WithScreenCapturer(service.ImageFileCapturer(screenshot)),
			webhook.WithScreenshotOptions(attachment.WithMaxSize(screenshotWidth, screenshotHeight)),
		)
	}
	s, err := a.service(opts...)
	if err != nil {
		return err
	}
	t, err := s.Target(args.First(), kind)
	if err != nil {
		return err
	}
	ctx, cancel := a.context(cCtx)
	defer cancel()
	r := t.Request.WithContent(strings.Join(args.Tail(), " "))
	if u := cCtx.String("username"); u != "" {
		r = r.WithUsername(u)
	}
	files, err := service.Attachments(ctx, cCtx.StringSlice("file")...)
	if err != nil {
		return err
	}
	r = r.WithAttachments(files...).WithCompressToZip(cCtx.Bool("zip"), cCtx.String("zip-name"))
	if p := cCtx.String("image"); p != "" {
		img, err := attachment.FromPath(p)
		if err != nil {
			return err
		}
		r = r.WithAttachedImage(img)
	}
	r = r.WithScreenshot(screenshot != "").WithSuppressResponseWait(cCtx.Bool("no-wait"))
	if customize != nil {
		r, err = customize(r)
		if err != nil {
			return err
		}
	}
	return a.printResult(s, s.Execute(ctx, t, r))
}

func (a *cliApp) printResult(s *service.Service, res webhook.Result) error {
	if !res.IsSuccess() {
		return res.Err()
	}
	if u, ok := s.MessageURL(res); ok {
		fmt.Printf("Message sent: %s\n", u)
	} else if res.HasMessage() {
		fmt.Printf("Message sent with ID %s\n", res.Message.ID)
	} else {
		fmt.Println("Message sent")
	}
	if res.HasMessage() && len(res.Message.Attachments) > 0 {
		table := consoletable.New("Attachments", "ID", "Filename", "Size", "Type")
		for _, x := range res.Message.Attachments {
			table.AddRow(x.ID, x.Filename, consoletable.Bytes(x.Size), x.ContentType)
		}
		table.Print()
	}
	return nil
}

func (a *cliApp) ping(cCtx *cli.Context) error {
	hookName := cCtx.Args().First()
	if hookName == "" {
		return errors.New("no webhook specified")
	}
	s, err := a.service()
	if err != nil {
		return err
	}
	if err := s.Ping(hookName); err != nil {
		return err
	}
	fmt.Printf("Ping sent to %s\n", hookName)
	return nil
}

func (a *cliApp) feed(cCtx *cli.Context) error {
	args := cCtx.Args()
	if args.Len() != 2 {
		return errors.New("need webhook and feed URL")
	}
	kind := webhook.KindChannel
	if cw, ok := a.cfg.Webhook(args.First()); ok {
		kind = cw.WebhookKind()
	} else if cCtx.Bool("forum") {
		kind = webhook.KindForumThread
	}
	s, err := a.service()
	if err != nil {
		return err
	}
	t, err := s.Target(args.First(), kind)
	if err != nil {
		return err
	}
	ctx, cancel := a.context(cCtx)
	defer cancel()
	res, err := s.PostLatestFeedItem(ctx, t, args.Get(1))
	if err != nil {
		return err
	}
	return a.printResult(s, res)
}

func (a *cliApp) bugReport(cCtx *cli.Context) error {
	args := cCtx.Args()
	if args.Len() == 0 {
		return errors.New("no webhook specified")
	}
	s, err := a.service()
	if err != nil {
		return err
	}
	t, err := s.Target(args.First(), webhook.KindForumThread)
	if err != nil {
		return err
	}
	ctx, cancel := a.context(cCtx)
	defer cancel()
	br := service.BugReport{
		Title:       cCtx.String("title"),
		Description: strings.Join(args.Tail(), " "),
		LogFiles:    cCtx.StringSlice("log"),
		ImagePath:   cCtx.String("image"),
	}
	res, err := s.PostBugReport(ctx, t, br)
	if err != nil {
		return err
	}
	return a.printResult(s, res)
}

func (a *cliApp) channel(cCtx *cli.Context) error {
	id, err := snowflake.Parse(cCtx.Args().First())
	if err != nil {
		return fmt.Errorf("channel-id: %w", err)
	}
	bot, err := a.bot()
	if err != nil {
		return err
	}
	ctx, cancel := a.context(cCtx)
	defer cancel()
	dat, err := bot.ChannelJSON(ctx, id)
	if err != nil {
		return err
	}
	return printJSON(dat)
}

func (a *cliApp) guildChannels(cCtx *cli.Context) error {
	guildID := a.cfg.App.GuildID()
	if s := cCtx.Args().First(); s != "" {
		id, err := snowflake.Parse(s)
		if err != nil {
			return fmt.Errorf("server-id: %w", err)
		}
		guildID = id
	}
	if guildID.IsZero() {
		return errors.New("no server specified")
	}
	bot, err := a.bot()
	if err != nil {
		return err
	}
	ctx, cancel := a.context(cCtx)
	defer cancel()
	if cCtx.Bool("json") {
		dat, err := bot.GuildChannelsJSON(ctx, guildID)
		if err != nil {
			return err
		}
		return printJSON(dat)
	}
	channels := bot.GuildChannels(ctx, guildID)
	if channels == nil {
		return fmt.Errorf("failed to fetch channels for server %s", guildID)
	}
	slices.SortFunc(channels, func(x, y *discordgo.Channel) int {
		return cmp.Or(cmp.Compare(x.ParentID, y.ParentID), cmp.Compare(x.Position, y.Position))
	})
	table := consoletable.New("Channels", "ID", "Name", "Type", "Parent", "Tags")
	for _, c := range channels {
		table.AddRow(c.ID, c.Name, channelTypeName(c.Type), c.ParentID, len(c.AvailableTags))
	}
	table.Print()
	return nil
}

func channelTypeName(t discordgo.ChannelType) string {
	switch t {
	case discordgo.ChannelTypeGuildText:
		return "text"
	case discordgo.ChannelTypeGuildVoice:
		return "voice"
	case discordgo.ChannelTypeGuildCategory:
		return "category"
	case discordgo.ChannelTypeGuildNews:
		return "news"
	case discordgo.ChannelTypeGuildStageVoice:
		return "stage"
	case discordgo.ChannelTypeGuildForum:
		return "forum"
	}
	return fmt.Sprintf("other (%d)", t)
}

func (a *cliApp) tags(cCtx *cli.Context) error {
	id, err := snowflake.Parse(cCtx.Args().First())
	if err != nil {
		return fmt.Errorf("channel-id: %w", err)
	}
	bot, err := a.bot()
	if err != nil {
		return err
	}
	ctx, cancel := a.context(cCtx)
	defer cancel()
	tags := bot.ForumTags(ctx, id)
	if tags == nil {
		return fmt.Errorf("failed to fetch tags for channel %s", id)
	}
	table := consoletable.New("Tags", "ID", "Name", "Emoji", "Moderated")
	for _, t := range tags {
		table.AddRow(t.ID, t.Name, t.EmojiName, t.Moderated)
	}
	table.Print()
	return nil
}

func (a *cliApp) snowflake(cCtx *cli.Context) error {
	id, err := snowflake.Parse(cCtx.Args().First())
	if err != nil {
		return err
	}
	fmt.Println(id.Dump())
	return nil
}

func (a *cliApp) history(cCtx *cli.Context) error {
	name := cCtx.Args().First()
	if name == "" {
		return errors.New("no webhook specified")
	}
	s, err := a.service()
	if err != nil {
		return err
	}
	return s.History(os.Stdout, name, cCtx.Int("limit"))
}

func (a *cliApp) stats(cCtx *cli.Context) error {
	s, err := a.service()
	if err != nil {
		return err
	}
	return s.Statistics(os.Stdout)
}

func (a *cliApp) checkConfig(cCtx *cli.Context) error {
	if _, err := config.FromFile(cCtx.String("config")); err != nil {
		return err
	}
	fmt.Println("Config is valid")
	return nil
}

func (a *cliApp) context(cCtx *cli.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cCtx.Context, commandTimeout)
}

func printJSON(dat []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, dat, "", "  "); err != nil {
		return err
	}
	fmt.Println(buf.String())
	return nil
}
