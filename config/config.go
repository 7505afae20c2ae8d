// Package config loads the typed configuration records consumed by the
// Rumble server and client from a file plus environment overrides.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LogConfig controls zap/lumberjack output, mirrored on both client and
// server top-level configs.
type LogConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

// TLSConfig carries the certificate material for a tunnel endpoint.
// CertPath/KeyPath are required server-side; CAPath is the client's trust
// root and is optional (falls back to the system pool when empty).
type TLSConfig struct {
	CertPath string `mapstructure:"cert_path"`
	KeyPath  string `mapstructure:"key_path"`
	CAPath   string `mapstructure:"ca_path"`
}

// ConnectionConfig bounds the QUIC transport shared by client and server.
type ConnectionConfig struct {
	MTU             uint16    `mapstructure:"mtu"`
	SendBufferSize  int       `mapstructure:"send_buffer_size"`
	RecvBufferSize  int       `mapstructure:"recv_buffer_size"`
	Timeout         uint64    `mapstructure:"timeout"`
	TLS             TLSConfig `mapstructure:"tls"`
}

// UserConfig is one entry of a tunnel's static user list.
type UserConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// TunnelConfig describes a single server-side tunnel.
type TunnelConfig struct {
	BindAddress string       `mapstructure:"bind_address"`
	Network     string       `mapstructure:"network"`
	Users       []UserConfig `mapstructure:"users"`
}

// AuthConfig is the client's static credential pair.
type AuthConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// ServerConfig is the top-level record for rumble-server.
type ServerConfig struct {
	Connection ConnectionConfig        `mapstructure:"connection"`
	Tunnels    map[string]TunnelConfig `mapstructure:"tunnels"`
	Log        LogConfig               `mapstructure:"log"`
}

// ClientConfig is the top-level record for rumble-client.
type ClientConfig struct {
	ConnectionString string           `mapstructure:"connection_string"`
	Authentication   AuthConfig       `mapstructure:"authentication"`
	Connection       ConnectionConfig `mapstructure:"connection"`
	Log              LogConfig        `mapstructure:"log"`
}

// newViper builds a viper instance bound to path with envPrefix overrides
// following the conventional dotted-to-underscore mapping.
func newViper(path, envPrefix string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config %q: %w", path, err)
	}

	return v, nil
}

// LoadServerConfig reads and validates the server config at path, applying
// RUMBLE_*-style overrides under envPrefix. Unknown keys are rejected.
func LoadServerConfig(path, envPrefix string) (*ServerConfig, error) {
	v, err := newViper(path, envPrefix)
	if err != nil {
		return nil, err
	}

	var cfg ServerConfig
	if err := v.UnmarshalExact(&cfg); err != nil {
		return nil, fmt.Errorf("decoding server config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadClientConfig reads and validates the client config at path, applying
// RUMBLE_*-style overrides under envPrefix. Unknown keys are rejected.
func LoadClientConfig(path, envPrefix string) (*ClientConfig, error) {
	v, err := newViper(path, envPrefix)
	if err != nil {
		return nil, err
	}

	var cfg ClientConfig
	if err := v.UnmarshalExact(&cfg); err != nil {
		return nil, fmt.Errorf("decoding client config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *ServerConfig) validate() error {
	if len(c.Tunnels) == 0 {
		return fmt.Errorf("config: no tunnels defined")
	}
	for name, t := range c.Tunnels {
		if t.BindAddress == "" {
			return fmt.Errorf("config: tunnel %q has no bind_address", name)
		}
		if t.Network == "" {
			return fmt.Errorf("config: tunnel %q has no network", name)
		}
		if len(t.Users) == 0 {
			return fmt.Errorf("config: tunnel %q has no users", name)
		}
	}
	if c.Connection.MTU == 0 {
		return fmt.Errorf("config: connection.mtu must be set")
	}
	if c.Connection.TLS.CertPath == "" || c.Connection.TLS.KeyPath == "" {
		return fmt.Errorf("config: connection.tls requires cert_path and key_path")
	}
	return nil
}

func (c *ClientConfig) validate() error {
	if c.ConnectionString == "" {
		return fmt.Errorf("config: connection_string must be set")
	}
	if c.Authentication.Username == "" {
		return fmt.Errorf("config: authentication.username must be set")
	}
	if c.Connection.MTU == 0 {
		return fmt.Errorf("config: connection.mtu must be set")
	}
	return nil
}
