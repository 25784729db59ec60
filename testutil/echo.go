package testutil

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/wskit/component"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Echo server digest parameters.
const (
	EchoRealm  = "wskit-test"
	EchoNonce  = "dcd98b7102dd2f0e8b11d0f600bfb0c093"
	EchoOpaque = "5ccc069c403ebaf9f0171e9517f40e41"
)

// EchoRequest is what the echo server saw. It is also the JSON body of
// /echo responses.
type EchoRequest struct {
	Method   string      `json:"method"`
	Path     string      `json:"path"`
	Host     string      `json:"host"`
	Query    url.Values  `json:"query"`
	Header   http.Header `json:"header"`
	Body     string      `json:"body"`
	User     string      `json:"user,omitempty"`
	Password string      `json:"password,omitempty"`
}

// EchoServer is a gin test server that reflects requests back as JSON.
//
// Routes:
//
//	ANY /echo/*path      reflect the request
//	GET /status/:code    answer with code; 3xx redirects to /echo/redirected
//	ANY /basic/*path     require basic credentials
//	ANY /digest/*path    require digest credentials (MD5, qop=auth)
//	GET /slow?d=100ms    sleep before answering
//	ANY /flaky           answer 503 while failures remain, then echo
type EchoServer struct {
	username string
	password string

	mu       sync.RWMutex
	ts       *httptest.Server
	requests []EchoRequest
	failures int
}

var _ component.Component = (*EchoServer)(nil)
var _ Resettable = (*EchoServer)(nil)

// NewEchoServer creates an echo server accepting username/password on the
// protected routes.
func NewEchoServer(username, password string) *EchoServer {
	return &EchoServer{username: username, password: password}
}

// URL returns the base URL, empty before Start.
func (s *EchoServer) URL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ts == nil {
		return ""
	}
	return s.ts.URL
}

// Requests returns a copy of the recorded requests.
func (s *EchoServer) Requests() []EchoRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]EchoRequest(nil), s.requests...)
}

// FailNext makes the next n requests to /flaky answer 503.
func (s *EchoServer) FailNext(n int) {
	s.mu.Lock()
	s.failures = n
	s.mu.Unlock()
}

func (s *EchoServer) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.record)

	r.Any("/echo/*path", s.echo)
	r.GET("/status/:code", s.status)
	r.Any("/basic/*path", s.basic)
	r.Any("/digest/*path", s.digest)
	r.GET("/slow", s.slow)
	r.Any("/flaky", s.flaky)
	return r
}

// record captures the request before any handler runs.
func (s *EchoServer) record(c *gin.Context) {
	body, _ := io.ReadAll(c.Request.Body)
	req := EchoRequest{
		Method: c.Request.Method,
		Path:   c.Request.URL.Path,
		Host:   c.Request.Host,
		Query:  c.Request.URL.Query(),
		Header: c.Request.Header.Clone(),
		Body:   string(body),
	}
	req.User, req.Password, _ = c.Request.BasicAuth()

	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	c.Set("echo", req)
	c.Next()
}

func (s *EchoServer) echo(c *gin.Context) {
	c.Header("Set-Cookie", "echo=1; Path=/")
	c.JSON(http.StatusOK, c.MustGet("echo"))
}

func (s *EchoServer) status(c *gin.Context) {
	code, err := strconv.Atoi(c.Param("code"))
	if err != nil || code < 100 || code > 599 {
		c.String(http.StatusBadRequest, "bad status %q", c.Param("code"))
		return
	}
	if code >= 300 && code < 400 {
		c.Redirect(code, "/echo/redirected")
		return
	}
	if code == http.StatusTooManyRequests || code == http.StatusServiceUnavailable {
		c.Header("Retry-After", "1")
	}
	c.String(code, "status %d", code)
}

func (s *EchoServer) basic(c *gin.Context) {
	user, pass, ok := c.Request.BasicAuth()
	if !ok || user != s.username || pass != s.password {
		c.Header("WWW-Authenticate", fmt.Sprintf("Basic realm=%q", EchoRealm))
		c.String(http.StatusUnauthorized, "unauthorized")
		return
	}
	c.JSON(http.StatusOK, c.MustGet("echo"))
}

func (s *EchoServer) digest(c *gin.Context) {
	auth := c.GetHeader("Authorization")
	if !strings.HasPrefix(auth, "Digest ") || !s.validDigest(c.Request.Method, auth) {
		c.Header("WWW-Authenticate", fmt.Sprintf(
			`Digest realm=%q, qop="auth", algorithm=MD5, nonce=%q, opaque=%q`,
			EchoRealm, EchoNonce, EchoOpaque))
		c.String(http.StatusUnauthorized, "unauthorized")
		return
	}
	c.JSON(http.StatusOK, c.MustGet("echo"))
}

func (s *EchoServer) validDigest(method, header string) bool {
	p := parseAuthParams(strings.TrimPrefix(header, "Digest "))
	if p["username"] != s.username || p["realm"] != EchoRealm ||
		p["nonce"] != EchoNonce || p["opaque"] != EchoOpaque || p["qop"] != "auth" {
		return false
	}
	ha1 := md5Hex(s.username + ":" + EchoRealm + ":" + s.password)
	ha2 := md5Hex(method + ":" + p["uri"])
	want := md5Hex(strings.Join([]string{ha1, p["nonce"], p["nc"], p["cnonce"], p["qop"], ha2}, ":"))
	return p["response"] == want
}

func (s *EchoServer) slow(c *gin.Context) {
	d, err := time.ParseDuration(c.DefaultQuery("d", "1s"))
	if err != nil {
		c.String(http.StatusBadRequest, "bad duration")
		return
	}
	select {
	case <-time.After(d):
		c.String(http.StatusOK, "slept %s", d)
	case <-c.Request.Context().Done():
	}
}

func (s *EchoServer) flaky(c *gin.Context) {
	s.mu.Lock()
	fail := s.failures > 0
	if fail {
		s.failures--
	}
	s.mu.Unlock()

	if fail {
		c.String(http.StatusServiceUnavailable, "try again")
		return
	}
	c.JSON(http.StatusOK, c.MustGet("echo"))
}

// --- component.Component ---

// Name returns "echo-server".
func (s *EchoServer) Name() string { return "echo-server" }

// Start listens on a random local port.
func (s *EchoServer) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ts != nil {
		return fmt.Errorf("component already started")
	}
	s.ts = httptest.NewServer(s.routes())
	return nil
}

// Stop closes the server.
func (s *EchoServer) Stop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ts == nil {
		return nil
	}
	s.ts.Close()
	s.ts = nil
	return nil
}

// Health is healthy while the server is running.
func (s *EchoServer) Health(_ context.Context) component.Health {
	if s.URL() == "" {
		return component.Health{Name: s.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.Health{Name: s.Name(), Status: component.StatusHealthy}
}

// Reset clears recorded requests and pending failures.
func (s *EchoServer) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
	s.failures = 0
	return nil
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// parseAuthParams splits key=value pairs, honouring quoted commas.
func parseAuthParams(s string) map[string]string {
	out := make(map[string]string)
	var parts []string
	start, quoted := 0, false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			quoted = !quoted
		case ',':
			if !quoted {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	for _, p := range parts {
		k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
		if !ok {
			continue
		}
		out[strings.ToLower(k)] = strings.Trim(v, `"`)
	}
	return out
}
