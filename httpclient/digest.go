package httpclient

import (
	"crypto/md5"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"net/http"
	"strings"
)

// digestChallenge is a parsed WWW-Authenticate: Digest header.
type digestChallenge struct {
	realm     string
	nonce     string
	opaque    string
	algorithm string
	qop       []string
}

// findDigestChallenge returns the first Digest challenge in the response headers.
func findDigestChallenge(h http.Header) (*digestChallenge, bool) {
	for _, v := range h.Values("WWW-Authenticate") {
		scheme, params, _ := strings.Cut(strings.TrimSpace(v), " ")
		if !strings.EqualFold(scheme, "Digest") {
			continue
		}
		ch := parseDigestParams(params)
		if ch.nonce == "" {
			continue
		}
		return ch, true
	}
	return nil, false
}

func parseDigestParams(s string) *digestChallenge {
	ch := &digestChallenge{algorithm: "MD5"}
	for _, part := range splitParams(s) {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		value = unquote(strings.TrimSpace(value))
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "realm":
			ch.realm = value
		case "nonce":
			ch.nonce = value
		case "opaque":
			ch.opaque = value
		case "algorithm":
			ch.algorithm = strings.ToUpper(value)
		case "qop":
			for _, q := range strings.Split(value, ",") {
				ch.qop = append(ch.qop, strings.TrimSpace(q))
			}
		}
	}
	return ch
}

// splitParams splits on commas outside quoted strings.
func splitParams(s string) []string {
	var parts []string
	var cur strings.Builder
	quoted, escaped := false, false
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
			cur.WriteRune(r)
		case r == '\\' && quoted:
			escaped = true
			cur.WriteRune(r)
		case r == '"':
			quoted = !quoted
			cur.WriteRune(r)
		case r == ',' && !quoted:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}

// unquote strips a quoted-string's quotes and resolves its quoted-pairs.
func unquote(v string) string {
	if len(v) < 2 || v[0] != '"' || v[len(v)-1] != '"' {
		return v
	}
	v = v[1 : len(v)-1]
	if !strings.Contains(v, `\`) {
		return v
	}
	var b strings.Builder
	for i := 0; i < len(v); i++ {
		if v[i] == '\\' && i+1 < len(v) {
			i++
		}
		b.WriteByte(v[i])
	}
	return b.String()
}

var quotedPairs = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// quote renders v as an RFC 7230 quoted-string.
func quote(v string) string {
	return `"` + quotedPairs.Replace(v) + `"`
}

func (ch *digestChallenge) hasher() (func() hash.Hash, bool) {
	switch strings.TrimSuffix(ch.algorithm, "-SESS") {
	case "MD5":
		return md5.New, true
	case "SHA-256":
		return sha256.New, true
	default:
		return nil, false
	}
}

func (ch *digestChallenge) supportsAuth() bool {
	for _, q := range ch.qop {
		if q == "auth" {
			return true
		}
	}
	return false
}

// authorize computes the Authorization header for method and uri.
// cnonce is injected so tests can reproduce RFC examples.
func (ch *digestChallenge) authorize(auth *AuthConfig, method, uri, cnonce string) (string, error) {
	newHash, ok := ch.hasher()
	if !ok {
		return "", fmt.Errorf("unsupported digest algorithm %q", ch.algorithm)
	}
	if len(ch.qop) > 0 && !ch.supportsAuth() {
		return "", fmt.Errorf("unsupported digest qop %q", strings.Join(ch.qop, ","))
	}
	h := func(parts ...string) string {
		sum := newHash()
		sum.Write([]byte(strings.Join(parts, ":")))
		return hex.EncodeToString(sum.Sum(nil))
	}

	const nc = "00000001"
	ha1 := h(auth.Username, ch.realm, auth.Password)
	if strings.HasSuffix(ch.algorithm, "-SESS") {
		ha1 = h(ha1, ch.nonce, cnonce)
	}
	ha2 := h(method, uri)

	var response string
	if ch.supportsAuth() {
		response = h(ha1, ch.nonce, nc, cnonce, "auth", ha2)
	} else {
		response = h(ha1, ch.nonce, ha2)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `Digest username=%s, realm=%s, nonce=%s, uri=%s, algorithm=%s, response="%s"`,
		quote(auth.Username), quote(ch.realm), quote(ch.nonce), quote(uri), ch.algorithm, response)
	if ch.supportsAuth() {
		fmt.Fprintf(&b, `, qop=auth, nc=%s, cnonce="%s"`, nc, cnonce)
	}
	if ch.opaque != "" {
		fmt.Fprintf(&b, `, opaque=%s`, quote(ch.opaque))
	}
	return b.String(), nil
}

func newCnonce() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
