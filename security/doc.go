// Package security holds the TLS settings the wskit engine applies to its
// transport.
//
//	cfg := security.TLSConfig{
//	    CAFile:     "/etc/wskit/ca.pem",
//	    MinVersion: "1.3",
//	}
//	tlsConfig, err := cfg.Build()
package security
