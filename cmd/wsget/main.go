package main

import (
	"errors"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v2"

	"github.com/kbukum/wskit/version"
)

func main() {
	cli.VersionPrinter = func(_ *cli.Context) {
		fmt.Println(version.GetFullVersion())
	}

	app := &cli.App{
		Name:      appName,
		Usage:     "issue one HTTP request and print the response",
		UsageText: "wsget [options] URL",
		Version:   version.GetShortVersion(),
		Flags:     flags(),
		Action:    run,
	}

	if err := app.Run(os.Args); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "wsget:", err)
		}
		os.Exit(1)
	}
}

func flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "method",
			Aliases: []string{"X"},
			Usage:   "request method",
			Value:   "GET",
		},
		&cli.StringSliceFlag{
			Name:    "header",
			Aliases: []string{"H"},
			Usage:   "request header as \"Name: value\", repeatable",
		},
		&cli.StringFlag{
			Name:    "user",
			Aliases: []string{"u"},
			Usage:   "username for authentication",
		},
		&cli.StringFlag{
			Name:  "password",
			Usage: "password for authentication",
		},
		&cli.StringFlag{
			Name:  "scheme",
			Usage: "authentication scheme: basic or digest",
			Value: "basic",
		},
		&cli.StringFlag{
			Name:    "body",
			Aliases: []string{"d"},
			Usage:   "request body, @file reads it from a file",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "timeout for the whole exchange",
		},
		&cli.BoolFlag{
			Name:  "no-redirect",
			Usage: "do not follow redirects",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "config file",
			EnvVars: []string{"WSGET_CONFIG"},
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "print the response as JSON",
		},
		&cli.StringFlag{
			Name:  "trace-endpoint",
			Usage: "OTLP/HTTP endpoint, enables tracing",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "debug logging",
		},
	}
}
