package httpclient

import (
	"net/http"
	"testing"

	apperrors "github.com/kbukum/wskit/errors"
)

func TestBasicAuth_Preemptive(t *testing.T) {
	auth := BasicAuth("user", "pass")
	req, _ := http.NewRequest("GET", "http://example.com", nil)
	auth.apply(req)
	u, p, ok := req.BasicAuth()
	if !ok || u != "user" || p != "pass" {
		t.Errorf("basic auth not set correctly: user=%q pass=%q ok=%v", u, p, ok)
	}
}

func TestAuth_NoHeaderWithoutChallenge(t *testing.T) {
	for _, auth := range []*AuthConfig{
		nil,
		DigestAuth("user", "pass"),
		{Type: AuthBasic, Username: "user", Password: "pass"},
	} {
		req, _ := http.NewRequest("GET", "http://example.com", nil)
		auth.apply(req)
		if got := req.Header.Get("Authorization"); got != "" {
			t.Errorf("%v: Authorization = %q, want empty", auth, got)
		}
	}
}

func TestParseAuthType(t *testing.T) {
	tests := []struct {
		in   string
		want AuthType
		ok   bool
	}{
		{"basic", AuthBasic, true},
		{"DIGEST", AuthDigest, true},
		{" Ntlm ", AuthNTLM, true},
		{"spnego", AuthSPNEGO, true},
		{"kerberos", AuthKerberos, true},
		{"none", AuthNone, true},
		{"bearer", AuthNone, false},
	}
	for _, tt := range tests {
		got, ok := ParseAuthType(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseAuthType(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
	if AuthType(42).String() != "UNKNOWN" {
		t.Errorf("unknown type String() = %q", AuthType(42).String())
	}
}

func TestAuthConfig_Supported(t *testing.T) {
	for _, typ := range []AuthType{AuthNone, AuthBasic, AuthDigest} {
		if err := (&AuthConfig{Type: typ}).supported(); err != nil {
			t.Errorf("%s: unexpected error %v", typ, err)
		}
	}
	for _, typ := range []AuthType{AuthNTLM, AuthSPNEGO, AuthKerberos} {
		err := (&AuthConfig{Type: typ}).supported()
		appErr, ok := apperrors.AsAppError(err)
		if !ok || appErr.Code != apperrors.ErrCodeUnsupported {
			t.Errorf("%s: got %v, want unsupported AppError", typ, err)
		}
	}
	var nilAuth *AuthConfig
	if err := nilAuth.supported(); err != nil {
		t.Errorf("nil realm: %v", err)
	}
}

func TestAuthConfig_Clone(t *testing.T) {
	orig := BasicAuth("a", "b")
	cp := orig.clone()
	cp.Username = "changed"
	if orig.Username != "a" {
		t.Error("clone shares state with the original")
	}
}
