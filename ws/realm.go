package ws

import (
	"strings"

	"github.com/kbukum/wskit/errors"
	"github.com/kbukum/wskit/httpclient"
)

// AuthScheme is the authentication scheme of a Realm.
type AuthScheme int

// Supported authentication schemes. Only None, Basic and Digest can be
// executed; the rest are parsed and rejected at execution.
const (
	AuthSchemeNone AuthScheme = iota
	AuthSchemeBasic
	AuthSchemeDigest
	AuthSchemeNTLM
	AuthSchemeSPNEGO
	AuthSchemeKerberos
)

var schemeNames = [...]string{"NONE", "BASIC", "DIGEST", "NTLM", "SPNEGO", "KERBEROS"}

// String returns the upper-case scheme name.
func (s AuthScheme) String() string {
	if s < 0 || int(s) >= len(schemeNames) {
		return "UNKNOWN"
	}
	return schemeNames[s]
}

// ParseAuthScheme parses a scheme name case-insensitively.
func ParseAuthScheme(s string) (AuthScheme, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for i, name := range schemeNames {
		if name == upper {
			return AuthScheme(i), nil
		}
	}
	return AuthSchemeNone, errors.InvalidInput("scheme", "unknown auth scheme "+s).
		WithDetail("allowed", schemeNames[:])
}

func (s AuthScheme) authType() httpclient.AuthType {
	switch s {
	case AuthSchemeBasic:
		return httpclient.AuthBasic
	case AuthSchemeDigest:
		return httpclient.AuthDigest
	case AuthSchemeNTLM:
		return httpclient.AuthNTLM
	case AuthSchemeSPNEGO:
		return httpclient.AuthSPNEGO
	case AuthSchemeKerberos:
		return httpclient.AuthKerberos
	default:
		return httpclient.AuthNone
	}
}

// Realm holds credentials for a request.
type Realm struct {
	Principal     string
	Password      string
	Scheme        AuthScheme
	UsePreemptive bool
}

func (r Realm) authConfig() *httpclient.AuthConfig {
	return &httpclient.AuthConfig{
		Type:       r.Scheme.authType(),
		Username:   r.Principal,
		Password:   r.Password,
		Preemptive: r.UsePreemptive,
	}
}
