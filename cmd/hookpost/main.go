/*
Hookpost is a CLI tool for posting messages to Discord webhooks.

Usage:

	hookpost [global options] command [command options]

Commands are:

	send            send a message to a channel webhook
	post            create a forum thread or reply to a thread
	ping            send a test message to a configured webhook
	feed            post the latest item of a feed
	bug-report      post a bug report with system information as forum thread
	channel         show a channel as JSON
	guild-channels  list all channels of a server
	tags            list the tags of a forum channel
	snowflake       decode a snowflake ID
	history         show recently sent messages of a webhook
	stats           show statistics for all webhooks
	check-config    check whether the config is valid
	help, h         Shows a list of commands or help for one command

Global flags are:

	--config value  path to configuration file
	--db value      path to directory of the database file
	--help, -h      show help
	--version, -v   print the version

Webhooks are specified by their configured name or by URL.
*/
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Overwritten with current tag when released
var Version = "0.0.0"

func main() {
	a := &cliApp{}
	app := &cli.App{
		Name:  "hookpost",
		Usage: "post messages to Discord webhooks",
		Action: func(*cli.Context) error {
			fmt.Println("Command not found")
			return nil
		},
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to configuration file",
				Value: configFilename,
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "path to directory of the database file. Overrides the configured path.",
			},
		},
		Before: a.before,
		After:  a.after,
		Commands: []*cli.Command{
			{
				Name:      "send",
				Usage:     "send a message to a channel webhook",
				ArgsUsage: "webhook content",
				Flags:     messageFlags(),
				Action:    a.send,
			},
			{
				Name:      "post",
				Usage:     "create a forum thread or reply to a thread",
				ArgsUsage: "webhook content",
				Flags: append(messageFlags(),
					&cli.StringFlag{Name: "thread-name", Aliases: []string{"t"}, Usage: "name of the new thread"},
					&cli.StringFlag{Name: "thread-id", Usage: "ID of the thread to reply to"},
					&cli.StringSliceFlag{Name: "tag", Usage: "ID of a tag to apply to a new thread"},
					&cli.BoolFlag{Name: "no-overflow", Usage: "do not move the rest of a too long thread name into the content"},
				),
				Action: a.post,
			},
			{
				Name:      "ping",
				Usage:     "send a test message to a configured webhook",
				ArgsUsage: "webhook-name",
				Action:    a.ping,
			},
			{
				Name:      "feed",
				Usage:     "post the latest item of a feed",
				ArgsUsage: "webhook feed-url",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "forum", Usage: "post as new forum thread"},
				},
				Action: a.feed,
			},
			{
				Name:      "bug-report",
				Usage:     "post a bug report with system information as forum thread",
				ArgsUsage: "webhook description",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "title of the report", Value: "Bug report"},
					&cli.StringSliceFlag{Name: "log", Usage: "path to a log file to attach"},
					&cli.StringFlag{Name: "image", Usage: "path to an image to attach"},
				},
				Action: a.bugReport,
			},
			{
				Name:      "channel",
				Usage:     "show a channel as JSON",
				ArgsUsage: "channel-id",
				Action:    a.channel,
			},
			{
				Name:      "guild-channels",
				Usage:     "list all channels of a server",
				ArgsUsage: "[server-id]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "show channels as JSON"},
				},
				Action: a.guildChannels,
			},
			{
				Name:      "tags",
				Usage:     "list the tags of a forum channel",
				ArgsUsage: "channel-id",
				Action:    a.tags,
			},
			{
				Name:      "snowflake",
				Usage:     "decode a snowflake ID",
				ArgsUsage: "id",
				Action:    a.snowflake,
			},
			{
				Name:      "history",
				Usage:     "show recently sent messages of a webhook",
				ArgsUsage: "webhook-name",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "maximum number of messages to show", Value: 10},
				},
				Action: a.history,
			},
			{
				Name:   "stats",
				Usage:  "show statistics for all webhooks",
				Action: a.stats,
			},
			{
				Name:   "check-config",
				Usage:  "check whether the config is valid",
				Action: a.checkConfig,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
}

func messageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "override the username of the webhook"},
		&cli.StringSliceFlag{Name: "file", Aliases: []string{"f"}, Usage: "path to a file to attach"},
		&cli.BoolFlag{Name: "zip", Usage: "compress all attached files into one zip file"},
		&cli.StringFlag{Name: "zip-name", Usage: "name of the zip file", Value: "files.zip"},
		&cli.StringFlag{Name: "image", Usage: "path to an image to attach as first file"},
		&cli.StringFlag{Name: "screenshot", Usage: "path to an image to attach as screenshot. It is downscaled and converted to JPEG."},
		&cli.BoolFlag{Name: "no-wait", Usage: "do not wait for the created message"},
	}
}
