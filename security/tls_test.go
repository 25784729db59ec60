package security

import (
	"crypto/tls"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTLSConfig_Build_Disabled(t *testing.T) {
	var nilCfg *TLSConfig
	if got, err := nilCfg.Build(); got != nil || err != nil {
		t.Errorf("expected nil, nil for nil config, got %v, %v", got, err)
	}
	if got, err := (&TLSConfig{}).Build(); got != nil || err != nil {
		t.Errorf("expected nil, nil for zero config, got %v, %v", got, err)
	}
}

func TestTLSConfig_Build_Options(t *testing.T) {
	tests := []struct {
		name       string
		cfg        TLSConfig
		minVersion uint16
		skip       bool
		serverName string
	}{
		{"skip verify", TLSConfig{SkipVerify: true}, tls.VersionTLS12, true, ""},
		{"server name", TLSConfig{ServerName: "api.internal"}, tls.VersionTLS12, false, "api.internal"},
		{"tls13", TLSConfig{MinVersion: "1.3"}, tls.VersionTLS13, false, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.cfg.Build()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.MinVersion != tc.minVersion {
				t.Errorf("expected MinVersion %x, got %x", tc.minVersion, got.MinVersion)
			}
			if got.InsecureSkipVerify != tc.skip {
				t.Errorf("expected InsecureSkipVerify=%v", tc.skip)
			}
			if got.ServerName != tc.serverName {
				t.Errorf("expected ServerName %q, got %q", tc.serverName, got.ServerName)
			}
		})
	}
}

func TestTLSConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *TLSConfig
		wantErr string
	}{
		{"nil", nil, ""},
		{"cert without key", &TLSConfig{CertFile: "c.pem"}, "cert_file and key_file"},
		{"key without cert", &TLSConfig{KeyFile: "k.pem"}, "cert_file and key_file"},
		{"bad version", &TLSConfig{MinVersion: "1.0"}, "min_version"},
		{"valid", &TLSConfig{MinVersion: "1.2"}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestTLSConfig_Build_FileErrors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.pem")
	if err := os.WriteFile(garbage, []byte("not a certificate"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		cfg  TLSConfig
	}{
		{"missing CA", TLSConfig{CAFile: filepath.Join(dir, "missing.pem")}},
		{"garbage CA", TLSConfig{CAFile: garbage}},
		{"missing client cert", TLSConfig{CertFile: garbage, KeyFile: garbage}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.cfg.Build(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestTLSConfig_Build_TrustsServerCA(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	caFile := filepath.Join(t.TempDir(), "ca.pem")
	block := &pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw}
	if err := os.WriteFile(caFile, pem.EncodeToMemory(block), 0o600); err != nil {
		t.Fatal(err)
	}

	tlsCfg, err := (&TLSConfig{CAFile: caFile}).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	client := &http.Client{Transport: &http.Transport{TLSClientConfig: tlsCfg}}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("request with custom CA failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}
}
