package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/publicsuffix"

	"github.com/kbukum/wskit/logger"
	"github.com/kbukum/wskit/observability"
	"github.com/kbukum/wskit/resilience"
	"github.com/kbukum/wskit/version"
)

type followRedirectsKey struct{}

// Option customizes an Adapter or Engine.
type Option func(*options)

type options struct {
	log       *logger.Logger
	metrics   *observability.Metrics
	transport http.RoundTripper
}

// WithLogger sets the logger. Defaults to the "httpclient" component logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics records request metrics on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTransport replaces the transport built from Config. TLS, HTTP/2 and
// dial settings are then the caller's responsibility.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Get(defaultName)
	}
	return o
}

// Adapter is the synchronous HTTP client underneath the engine. It owns
// the transport, cookie jar and resilience primitives.
type Adapter struct {
	httpClient *http.Client
	config     Config
	opts       options
	baseURL    *url.URL
	cb         *resilience.CircuitBreaker
	rl         *resilience.RateLimiter
	userAgent  string
}

// New creates an adapter from cfg.
func New(cfg Config, opts ...Option) (*Adapter, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Adapter{
		config:    cfg,
		opts:      buildOptions(opts),
		userAgent: cfg.UserAgent,
	}
	if a.userAgent == "" {
		a.userAgent = version.UserAgent()
	}
	if cfg.BaseURL != "" {
		base, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("httpclient: base_url: %w", err)
		}
		a.baseURL = base
	}

	transport := a.opts.transport
	if transport == nil {
		t, err := newTransport(cfg)
		if err != nil {
			return nil, err
		}
		transport = t
	}
	a.httpClient = &http.Client{
		Transport:     transport,
		CheckRedirect: a.checkRedirect,
	}

	if cfg.CookieJar {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("httpclient: cookie jar: %w", err)
		}
		a.httpClient.Jar = jar
	}

	if cfg.CircuitBreaker != nil {
		a.cb = resilience.NewCircuitBreaker(a.observeBreaker(*cfg.CircuitBreaker))
	}
	if cfg.RateLimiter != nil {
		a.rl = resilience.NewRateLimiter(*cfg.RateLimiter)
	}

	return a, nil
}

// observeBreaker logs state changes before calling the configured hook.
func (a *Adapter) observeBreaker(cfg resilience.CircuitBreakerConfig) resilience.CircuitBreakerConfig {
	hook := cfg.OnStateChange
	log := a.opts.log
	cfg.OnStateChange = func(name string, from, to resilience.State) {
		fields := logger.Fields("breaker", name, "from", from.String(), "to", to.String())
		if to == resilience.StateOpen {
			log.Warn("circuit opened", fields)
		} else {
			log.Info("circuit state changed", fields)
		}
		if hook != nil {
			hook(name, from, to)
		}
	}
	return cfg
}

// newTransport builds a fresh transport so HTTP/2 can be configured on it.
// Proxies are not consulted.
func newTransport(cfg Config) (*http.Transport, error) {
	dialer := &net.Dialer{Timeout: cfg.DialTimeout, KeepAlive: 30 * time.Second}
	t := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxConcurrent,
		IdleConnTimeout:       defaultIdleTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}

	if cfg.TLS != nil {
		tlsCfg, err := cfg.TLS.Build()
		if err != nil {
			return nil, err
		}
		t.TLSClientConfig = tlsCfg
	}

	if cfg.EnableHTTP2 {
		if err := http2.ConfigureTransport(t); err != nil {
			return nil, fmt.Errorf("httpclient: configure http2: %w", err)
		}
	}
	return t, nil
}

func (a *Adapter) checkRedirect(req *http.Request, via []*http.Request) error {
	if follow, ok := req.Context().Value(followRedirectsKey{}).(bool); ok && !follow {
		return http.ErrUseLastResponse
	}
	if len(via) >= a.config.MaxRedirects {
		return fmt.Errorf("stopped after %d redirects", a.config.MaxRedirects)
	}
	return nil
}

// Do sends req and classifies non-2xx statuses as *Error. Retryable
// statuses (429, 5xx) are retried when retry is configured.
func (a *Adapter) Do(ctx context.Context, req *Request) (*Response, error) {
	return a.run(ctx, req, true)
}

// Exchange sends req and returns any HTTP status as a response. Only
// transport failures are errors, and only those are retried.
func (a *Adapter) Exchange(ctx context.Context, req *Request) (*Response, error) {
	return a.run(ctx, req, false)
}

func (a *Adapter) run(ctx context.Context, req *Request, classify bool) (*Response, error) {
	timeout := a.config.Timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if req.FollowRedirects != nil {
		ctx = context.WithValue(ctx, followRedirectsKey{}, *req.FollowRedirects)
	}

	attempt := func() (*Response, error) {
		return a.guarded(ctx, req, classify)
	}
	if a.config.Retry == nil {
		return attempt()
	}

	retryCfg := *a.config.Retry
	host := req.DescribeCall().Host
	onRetry := retryCfg.OnRetry
	retryCfg.OnRetry = func(n int, err error, backoff time.Duration) {
		a.opts.log.WithContext(ctx).Debug("retrying request", logger.Fields(
			"attempt", n, logger.FieldError, err.Error(), "backoff", backoff.String(),
		))
		if a.opts.metrics != nil {
			a.opts.metrics.RecordRetry(ctx, host)
		}
		if onRetry != nil {
			onRetry(n, err, backoff)
		}
	}
	resp, err := resilience.Retry(ctx, retryCfg, attempt)
	var he *Error
	if err != nil && !errors.As(err, &he) {
		// ctx ended during a backoff wait
		err = classifyTransport(ctx, err)
	}
	return resp, err
}

// guarded applies the rate limiter and circuit breaker around one send.
// Server errors always count against the breaker; for Exchange they are
// handed back as responses afterwards.
func (a *Adapter) guarded(ctx context.Context, req *Request, classify bool) (*Response, error) {
	if a.rl != nil {
		if err := a.rl.Wait(ctx); err != nil {
			return nil, classifyTransport(ctx, err)
		}
	}
	if a.cb == nil {
		return a.send(ctx, req, classify)
	}

	var resp *Response
	err := a.cb.Execute(func() error {
		var sendErr error
		resp, sendErr = a.send(ctx, req, true)
		return sendErr
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return nil, &Error{Code: ErrCodeConnection, Message: "circuit breaker open", Err: err}
	}
	if err != nil && !classify && resp != nil {
		return resp, nil
	}
	return resp, err
}

// send performs one exchange, answering a single 401 challenge when the
// realm allows it. Status errors come back together with the response.
func (a *Adapter) send(ctx context.Context, req *Request, classify bool) (*Response, error) {
	auth := req.Auth
	if auth == nil {
		auth = a.config.Auth
	}

	httpReq, err := a.buildRequest(ctx, req, auth)
	if err != nil {
		return nil, err
	}
	resp, err := a.roundTrip(ctx, httpReq)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && auth != nil {
		if retry, ok := a.answerChallenge(ctx, req, auth, resp); ok {
			resp, err = a.roundTrip(ctx, retry)
			if err != nil {
				return nil, err
			}
		}
	}

	if classify {
		if classErr := classifyResponse(resp); classErr != nil {
			return resp, classErr
		}
	}
	return resp, nil
}

// answerChallenge builds the authenticated retry for a 401, if any.
func (a *Adapter) answerChallenge(ctx context.Context, req *Request, auth *AuthConfig, resp *Response) (*http.Request, bool) {
	var header string
	switch auth.Type {
	case AuthBasic:
		if auth.Preemptive {
			return nil, false
		}
		preemptive := *auth
		preemptive.Preemptive = true
		retry, err := a.buildRequest(ctx, req, &preemptive)
		return retry, err == nil
	case AuthDigest:
		ch, ok := findDigestChallenge(resp.Header)
		if !ok {
			return nil, false
		}
		retry, err := a.buildRequest(ctx, req, nil)
		if err != nil {
			return nil, false
		}
		header, err = ch.authorize(auth, retry.Method, retry.URL.RequestURI(), newCnonce())
		if err != nil {
			a.opts.log.WithContext(ctx).Warn("cannot answer digest challenge", logger.Fields(logger.FieldError, err.Error()))
			return nil, false
		}
		retry.Header.Set("Authorization", header)
		return retry, true
	default:
		return nil, false
	}
}

func (a *Adapter) roundTrip(ctx context.Context, httpReq *http.Request) (*Response, error) {
	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransport(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(ctx, fmt.Errorf("read response body: %w", err))
	}
	return newResponse(resp, body), nil
}

// ResolveURL applies BaseURL to a relative URL.
func (a *Adapter) ResolveURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if a.baseURL == nil || u.IsAbs() {
		return u, nil
	}
	joined := strings.TrimRight(a.baseURL.String(), "/") + "/" + strings.TrimLeft(raw, "/")
	return url.Parse(joined)
}

// buildRequest constructs the *http.Request for one attempt.
func (a *Adapter) buildRequest(ctx context.Context, req *Request, auth *AuthConfig) (*http.Request, error) {
	u, err := a.ResolveURL(req.URL)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("parse url: %v", err), err)
	}
	if len(req.Query) > 0 {
		q := u.Query()
		for k, vs := range req.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("create request: %v", err), err)
	}

	for k, v := range a.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, vs := range req.Header {
		httpReq.Header.Del(k)
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", a.userAgent)
	}
	if req.VirtualHost != "" {
		httpReq.Host = req.VirtualHost
	}

	auth.apply(httpReq)
	return httpReq, nil
}

// --- provider.RequestResponse[*Request, *Response] ---

// Name returns the configured engine name.
func (a *Adapter) Name() string {
	return a.config.Name
}

// IsAvailable reports false while the circuit breaker is open.
func (a *Adapter) IsAvailable(_ context.Context) bool {
	return a.cb == nil || a.cb.State() != resilience.StateOpen
}

// Execute is Exchange.
func (a *Adapter) Execute(ctx context.Context, req *Request) (*Response, error) {
	return a.Exchange(ctx, req)
}

// Close releases idle connections.
func (a *Adapter) Close(_ context.Context) error {
	a.httpClient.CloseIdleConnections()
	return nil
}

// CircuitBreaker returns the breaker, or nil when none is configured.
func (a *Adapter) CircuitBreaker() *resilience.CircuitBreaker {
	return a.cb
}

// Unwrap returns the underlying *http.Client.
func (a *Adapter) Unwrap() *http.Client {
	return a.httpClient
}

// Config returns the effective configuration.
func (a *Adapter) Config() Config {
	return a.config
}
