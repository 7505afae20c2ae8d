package transport

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// ServerTLSConfig builds the TLS configuration a tunnel's QUIC listener
// uses: TLS 1.3 only, single ALPN "rumble". Go's TLS 1.3 cipher suite
// selection is not caller-configurable (the stdlib always offers
// AES-256-GCM, AES-128-GCM and ChaCha20-Poly1305 and picks by hardware
// support). Without AES hardware support Go prefers ChaCha20-Poly1305,
// but AES-128-GCM stays in the offer list either way; there is no
// stdlib knob to drop it from the TLS 1.3 offer list.
func ServerTLSConfig(certPath, keyPath string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, fmt.Errorf("loading server certificate: %w", err)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS13,
		MaxVersion:   tls.VersionTLS13,
		NextProtos:   []string{ALPN},
	}, nil
}

// ClientTLSConfig builds the client-side counterpart. caPath is optional;
// when empty the system trust pool is used.
func ClientTLSConfig(serverName, caPath string) (*tls.Config, error) {
	cfg := &tls.Config{
		ServerName: serverName,
		MinVersion: tls.VersionTLS13,
		MaxVersion: tls.VersionTLS13,
		NextProtos: []string{ALPN},
	}

	if caPath == "" {
		return cfg, nil
	}

	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, fmt.Errorf("reading CA bundle: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %q", caPath)
	}
	cfg.RootCAs = pool

	return cfg, nil
}
