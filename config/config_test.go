package config

import "testing"

func TestServerConfigValidateRequiresTunnels(t *testing.T) {
	cfg := &ServerConfig{Connection: ConnectionConfig{MTU: 1400, TLS: TLSConfig{CertPath: "a", KeyPath: "b"}}}
	if err := cfg.validate(); err == nil {
		t.Fatalf("expected error for config with no tunnels")
	}
}

func TestServerConfigValidateRequiresTLS(t *testing.T) {
	cfg := &ServerConfig{
		Connection: ConnectionConfig{MTU: 1400},
		Tunnels: map[string]TunnelConfig{
			"default": {
				BindAddress: "0.0.0.0:4433",
				Network:     "10.8.0.0/24",
				Users:       []UserConfig{{Username: "a", Password: "b"}},
			},
		},
	}
	if err := cfg.validate(); err == nil {
		t.Fatalf("expected error for missing tls cert/key paths")
	}
}

func TestServerConfigValidateOK(t *testing.T) {
	cfg := &ServerConfig{
		Connection: ConnectionConfig{MTU: 1400, TLS: TLSConfig{CertPath: "a", KeyPath: "b"}},
		Tunnels: map[string]TunnelConfig{
			"default": {
				BindAddress: "0.0.0.0:4433",
				Network:     "10.8.0.0/24",
				Users:       []UserConfig{{Username: "a", Password: "b"}},
			},
		},
	}
	if err := cfg.validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestClientConfigValidateRequiresUsername(t *testing.T) {
	cfg := &ClientConfig{ConnectionString: "example.com:4433", Connection: ConnectionConfig{MTU: 1400}}
	if err := cfg.validate(); err == nil {
		t.Fatalf("expected error for missing username")
	}
}
