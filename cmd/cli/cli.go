// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"net/http"
	// pprof imported for the side effect of registering its HTTP handlers
	_ "net/http/pprof"

	"github.com/snowplow-devops/stream-sentiment/cmd"
	"github.com/snowplow-devops/stream-sentiment/config"
	"github.com/snowplow-devops/stream-sentiment/pkg/models"
	"github.com/snowplow-devops/stream-sentiment/pkg/transform"
)

const (
	appVersion   = cmd.AppVersion
	appName      = cmd.AppName
	appUsage     = "Runs the sentiment transformation and the stream producer locally"
	appCopyright = "(c) 2020-2022 Snowplow Analytics Ltd. All rights reserved."
)

// RunCli allows running application from cli
func RunCli() {
	cfg, sentryEnabled, err := cmd.Init()
	if err != nil {
		exitWithError(err, sentryEnabled)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := NewApp(ctx, cfg, sentryEnabled)
	app.ExitErrHandler = func(context *cli.Context, err error) {
		if err != nil {
			exitWithError(err, sentryEnabled)
		}
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Error("failed to run cli")
	}
}

// NewApp builds the cli application around an already loaded configuration
func NewApp(ctx context.Context, cfg *config.Config, sentryEnabled bool) *cli.App {
	app := cli.NewApp()
	app.Name = appName
	app.Usage = appUsage
	app.Version = appVersion
	app.Copyright = appCopyright
	app.Compiled = time.Now().UTC()
	app.Authors = []cli.Author{
		{
			Name:  "Snowplow Analytics",
			Email: "support@snowplow.io",
		},
	}

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "profile, p",
			Usage: "Enable application profiling endpoint on port 8080",
		},
	}

	app.Before = func(c *cli.Context) error {
		if c.Bool("profile") {
			go func() {
				if err := http.ListenAndServe("localhost:8080", nil); err != nil {
					log.WithError(err).Fatal("failed to start up the server")
				}
			}()
		}
		return nil
	}

	app.Commands = []cli.Command{
		{
			Name:  "transform",
			Usage: "Transforms a Firehose event read from a file or stdin and prints the response",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "file, f",
					Value: "-",
					Usage: "Path to the Firehose event JSON, - reads from stdin",
				},
			},
			Action: func(c *cli.Context) error {
				return runTransform(ctx, cfg, sentryEnabled, c.String("file"), c.App.Writer)
			},
		},
		{
			Name:  "produce",
			Usage: "Puts the configured record onto the configured target",
			Action: func(c *cli.Context) error {
				return runProduce(ctx, cfg, sentryEnabled, c.App.Writer)
			},
		},
	}

	return app
}

func runTransform(ctx context.Context, cfg *config.Config, sentryEnabled bool, path string, out io.Writer) error {
	event, err := readFirehoseEvent(path)
	if err != nil {
		return err
	}

	cl, err := cfg.GetClassifier()
	if err != nil {
		return err
	}

	tr, err := cfg.GetTransformation(cl)
	if err != nil {
		return err
	}

	tags, err := cfg.GetTags()
	if err != nil {
		return err
	}

	obs, err := cfg.GetObserver(tags)
	if err != nil {
		return err
	}
	obs.Start()
	defer obs.Stop()

	h := cmd.NewTransformerHandler(transform.NewStage(tr), obs, sentryEnabled)
	resp, err := h.Handle(ctx, event)
	if err != nil {
		return err
	}

	return writeJSON(out, resp)
}

func runProduce(ctx context.Context, cfg *config.Config, sentryEnabled bool, out io.Writer) error {
	t, err := cfg.GetTarget()
	if err != nil {
		return err
	}
	t.Open()
	defer t.Close()

	p, err := cfg.GetProducer(t)
	if err != nil {
		return err
	}

	tags, err := cfg.GetTags()
	if err != nil {
		return err
	}

	obs, err := cfg.GetObserver(tags)
	if err != nil {
		return err
	}
	obs.Start()
	defer obs.Stop()

	resp, err := cmd.NewProducerHandler(p, t.GetID(), obs, sentryEnabled).Handle(ctx)
	if err != nil {
		return err
	}

	return writeJSON(out, resp)
}

func readFirehoseEvent(path string) (*models.FirehoseEvent, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "Failed to read Firehose event")
		}
		defer f.Close()
		r = f
	}

	var event models.FirehoseEvent
	if err := json.NewDecoder(r).Decode(&event); err != nil {
		return nil, errors.Wrap(err, "Failed to parse Firehose event")
	}
	return &event, nil
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError will ensure we log the error and leave time for Sentry to flush
func exitWithError(err error, flushSentry bool) {
	log.WithFields(log.Fields{"error": err}).Error(err)
	if flushSentry {
		sentry.Flush(2 * time.Second)
	}
	os.Exit(1)
}
