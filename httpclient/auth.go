package httpclient

import (
	"net/http"
	"strings"

	"github.com/kbukum/wskit/errors"
)

// AuthType identifies the authentication scheme of a realm.
type AuthType int

const (
	// AuthNone disables authentication.
	AuthNone AuthType = iota
	// AuthBasic sends RFC 7617 credentials.
	AuthBasic
	// AuthDigest answers RFC 7616 challenges.
	AuthDigest
	// AuthNTLM is recognised but not implemented by this engine.
	AuthNTLM
	// AuthSPNEGO is recognised but not implemented by this engine.
	AuthSPNEGO
	// AuthKerberos is recognised but not implemented by this engine.
	AuthKerberos
)

var authTypeNames = map[AuthType]string{
	AuthNone:     "NONE",
	AuthBasic:    "BASIC",
	AuthDigest:   "DIGEST",
	AuthNTLM:     "NTLM",
	AuthSPNEGO:   "SPNEGO",
	AuthKerberos: "KERBEROS",
}

// String returns the upper-case scheme name.
func (t AuthType) String() string {
	if name, ok := authTypeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseAuthType parses a scheme name case-insensitively.
func ParseAuthType(s string) (AuthType, bool) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for t, name := range authTypeNames {
		if name == upper {
			return t, true
		}
	}
	return AuthNone, false
}

// AuthConfig is the realm attached to a request.
type AuthConfig struct {
	// Type is the authentication scheme.
	Type AuthType
	// Username and Password are the credentials.
	Username string
	Password string
	// Preemptive sends credentials on the first request instead of waiting
	// for a challenge. Only meaningful for AuthBasic.
	Preemptive bool
}

// BasicAuth creates a preemptive basic auth realm.
func BasicAuth(username, password string) *AuthConfig {
	return &AuthConfig{Type: AuthBasic, Username: username, Password: password, Preemptive: true}
}

// DigestAuth creates a digest auth realm.
func DigestAuth(username, password string) *AuthConfig {
	return &AuthConfig{Type: AuthDigest, Username: username, Password: password}
}

// clone returns a copy so snapshots never share a realm with a builder.
func (a *AuthConfig) clone() *AuthConfig {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}

// supported reports schemes this engine cannot perform.
func (a *AuthConfig) supported() error {
	if a == nil {
		return nil
	}
	switch a.Type {
	case AuthNone, AuthBasic, AuthDigest:
		return nil
	default:
		return errors.Unsupported(a.Type.String() + " authentication").
			WithDetail("scheme", a.Type.String())
	}
}

// apply sets credentials that do not need a challenge. Non-preemptive basic
// auth is sent once the server answers 401.
func (a *AuthConfig) apply(req *http.Request) {
	if a == nil || a.Type != AuthBasic || !a.Preemptive {
		return
	}
	req.SetBasicAuth(a.Username, a.Password)
}
