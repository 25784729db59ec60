package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	cli "github.com/urfave/cli/v2"

	"github.com/kbukum/wskit/component"
	"github.com/kbukum/wskit/errors"
	"github.com/kbukum/wskit/httpclient"
	"github.com/kbukum/wskit/logger"
	"github.com/kbukum/wskit/observability"
	"github.com/kbukum/wskit/ws"
)

const shutdownTimeout = 5 * time.Second

// errReported is returned once a failure has been printed as JSON.
var errReported = stderrors.New("error already reported")

// run is the app action. With --json, rejected requests are reported on
// stderr in the errors.Report shape.
func run(c *cli.Context) error {
	err := fetch(c)
	if err == nil || !c.Bool("json") {
		return err
	}
	appErr, ok := errors.AsAppError(err)
	if !ok {
		return err
	}
	enc := json.NewEncoder(c.App.ErrWriter)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(appErr.ToReport()); encErr != nil {
		return err
	}
	return errReported
}

func fetch(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.InvalidInput("url", "exactly one URL argument is required")
	}

	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return err
	}
	if c.Bool("debug") {
		cfg.Debug = true
		cfg.Logging.Level = "debug"
	}
	if ep := c.String("trace-endpoint"); ep != "" {
		cfg.Tracing.Enabled = true
		cfg.Tracing.Endpoint = ep
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.Init(cfg.Logging)
	log := logger.WithComponent(appName)

	req, err := buildRequest(c, c.Args().First())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, opts, err := setupTelemetry(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdown()

	registry := component.NewRegistry()
	engine := httpclient.NewComponent(cfg.HTTP, opts...)
	if err := registry.Register(engine); err != nil {
		return err
	}
	if err := registry.StartAll(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := registry.StopAll(stopCtx); err != nil {
			log.Warn("engine shutdown incomplete", logger.ErrorFields("stop", err))
		}
	}()
	prev := ws.SetClient(engine.Engine())
	defer ws.SetClient(prev)

	log.Debug("sending request", logger.Fields("method", req.Method(), "url", req.URL()))
	resp, err := req.Execute(ctx).Await(ctx)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return printJSON(c.App.Writer, resp)
	}
	return printResponse(c.App.Writer, resp)
}

func buildRequest(c *cli.Context, rawURL string) (*ws.Request, error) {
	req := ws.NewRequest(strings.ToUpper(c.String("method"))).SetURL(rawURL)

	for _, h := range c.StringSlice("header") {
		name, value, err := parseHeader(h)
		if err != nil {
			return nil, err
		}
		req.AddHeader(name, value)
	}

	if user := c.String("user"); user != "" {
		scheme, err := ws.ParseAuthScheme(c.String("scheme"))
		if err != nil {
			return nil, err
		}
		req.Auth(user, c.String("password"), scheme)
	}

	if body := c.String("body"); body != "" {
		data, err := readBody(body)
		if err != nil {
			return nil, err
		}
		req.SetBody(data)
	}
	if d := c.Duration("timeout"); d > 0 {
		req.SetRequestTimeout(d)
	}
	if c.Bool("no-redirect") {
		req.SetFollowRedirects(false)
	}
	return req, nil
}

// parseHeader splits "Name: value". "Name:" yields an empty value.
func parseHeader(s string) (string, string, error) {
	name, value, ok := strings.Cut(s, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", errors.InvalidInput("header", fmt.Sprintf("expected \"Name: value\", got %q", s))
	}
	return name, strings.TrimSpace(value), nil
}

func readBody(arg string) ([]byte, error) {
	if !strings.HasPrefix(arg, "@") {
		return []byte(arg), nil
	}
	data, err := os.ReadFile(arg[1:])
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return data, nil
}

func setupTelemetry(ctx context.Context, cfg *AppConfig) (func(), []httpclient.Option, error) {
	var (
		closers []func(context.Context) error
		opts    []httpclient.Option
	)
	shutdown := func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](sctx); err != nil {
				logger.Warn("telemetry shutdown failed", logger.ErrorFields("shutdown", err))
			}
		}
	}

	if cfg.Tracing.Enabled {
		tp, err := observability.InitTracer(ctx, cfg.Tracing)
		if err != nil {
			return shutdown, nil, err
		}
		closers = append(closers, tp.Shutdown)
	}
	if cfg.Metrics.Enabled {
		mp, err := observability.InitMeter(ctx, cfg.Metrics)
		if err != nil {
			shutdown()
			return func() {}, nil, err
		}
		closers = append(closers, mp.Shutdown)
		m, err := observability.NewMetrics(observability.Meter())
		if err != nil {
			shutdown()
			return func() {}, nil, err
		}
		opts = append(opts, httpclient.WithMetrics(m))
	}
	return shutdown, opts, nil
}

func printResponse(w io.Writer, resp *ws.Response) error {
	if _, err := fmt.Fprintf(w, "%d %s\n", resp.Status(), resp.StatusText()); err != nil {
		return err
	}
	headers := resp.AllHeaders()
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, v := range headers[name] {
			if _, err := fmt.Fprintf(w, "%s: %s\n", name, v); err != nil {
				return err
			}
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	_, err := w.Write(resp.Body())
	return err
}

type jsonResponse struct {
	Status  int                 `json:"status"`
	Text    string              `json:"status_text"`
	URI     string              `json:"uri"`
	Headers map[string][]string `json:"headers"`
	Body    string              `json:"body"`
}

func printJSON(w io.Writer, resp *ws.Response) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonResponse{
		Status:  resp.Status(),
		Text:    resp.StatusText(),
		URI:     resp.URI(),
		Headers: resp.AllHeaders(),
		Body:    resp.BodyString(),
	})
}
