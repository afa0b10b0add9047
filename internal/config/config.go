// Package config handles TOML configuration parsing, validation, and
// defaults for dhcpradiusd.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the top-level configuration for dhcpradiusd.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Subnet     SubnetConfig     `toml:"subnet"`
	RADIUS     RadiusConfig     `toml:"radius"`
	Dictionary DictionaryConfig `toml:"dictionary"`
}

// ServerConfig holds core server settings.
type ServerConfig struct {
	Interface   string          `toml:"interface"`
	BindAddress string          `toml:"bind_address"`
	ServerID    string          `toml:"server_id"`
	LogLevel    string          `toml:"log_level"`
	RateLimit   RateLimitConfig `toml:"rate_limit"`
}

// RateLimitConfig holds anti-starvation settings (RFC 5765).
type RateLimitConfig struct {
	Enabled               bool `toml:"enabled"`
	MaxDiscoversPerSecond int  `toml:"max_discovers_per_second"`
	MaxPerMACPerSecond    int  `toml:"max_per_mac_per_second"`
}

// SubnetConfig holds the single served subnet's configuration (no
// pool/reservation/lease-database schema: address pool management is
// an explicit Non-goal, so the Policy Host only needs a range and a
// handful of option values).
type SubnetConfig struct {
	Network    string   `toml:"network"`
	RangeStart string   `toml:"range_start"`
	RangeEnd   string   `toml:"range_end"`
	Router     string   `toml:"router"`
	DNSServers []string `toml:"dns_servers"`
	LeaseTime  string   `toml:"lease_time"`
}

// RadiusConfig holds the RADIUS Bridge's posture for the configured
// subnet: whether to gate at all, which server to use, and which DHCP
// attributes to carry across as RADIUS attributes.
type RadiusConfig struct {
	Enabled        bool   `toml:"enabled"`
	Address        string `toml:"address"`
	Secret         string `toml:"secret"`
	Timeout        string `toml:"timeout"`
	Retries        int    `toml:"retries"`
	NASIdentifier  string `toml:"nas_identifier"`
	CallingStation bool   `toml:"calling_station"`
	SendOption82   bool   `toml:"send_option82"`
}

// DictionaryConfig names the optional bbolt override store the
// Dictionary Service widens itself with at startup.
type DictionaryConfig struct {
	OverridePath string `toml:"override_path"`
}

// Load reads and parses a TOML config file, applies defaults, and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// applyDefaults fills in default values for unset fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Interface == "" {
		cfg.Server.Interface = DefaultInterface
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = DefaultLogLevel
	}
	if cfg.Server.RateLimit.MaxDiscoversPerSecond == 0 {
		cfg.Server.RateLimit.MaxDiscoversPerSecond = DefaultRateLimitDiscovers
	}
	if cfg.Server.RateLimit.MaxPerMACPerSecond == 0 {
		cfg.Server.RateLimit.MaxPerMACPerSecond = DefaultRateLimitPerMAC
	}
	if cfg.Subnet.LeaseTime == "" {
		cfg.Subnet.LeaseTime = DefaultLeaseTime.String()
	}
	if cfg.RADIUS.Timeout == "" {
		cfg.RADIUS.Timeout = DefaultRadiusTimeout.String()
	}
}

// validate checks the configuration for errors.
func validate(cfg *Config) error {
	if cfg.Server.ServerID != "" {
		if ip := net.ParseIP(cfg.Server.ServerID); ip == nil {
			return fmt.Errorf("server.server_id %q is not a valid IP address", cfg.Server.ServerID)
		}
	}

	if cfg.Subnet.Network == "" {
		return fmt.Errorf("subnet.network is required")
	}
	_, network, err := net.ParseCIDR(cfg.Subnet.Network)
	if err != nil {
		return fmt.Errorf("subnet.network: invalid network %q: %w", cfg.Subnet.Network, err)
	}

	start := net.ParseIP(cfg.Subnet.RangeStart)
	if start == nil {
		return fmt.Errorf("subnet.range_start: invalid address %q", cfg.Subnet.RangeStart)
	}
	end := net.ParseIP(cfg.Subnet.RangeEnd)
	if end == nil {
		return fmt.Errorf("subnet.range_end: invalid address %q", cfg.Subnet.RangeEnd)
	}
	if !network.Contains(start) {
		return fmt.Errorf("subnet.range_start %s is not in network %s", start, network)
	}
	if !network.Contains(end) {
		return fmt.Errorf("subnet.range_end %s is not in network %s", end, network)
	}

	if cfg.Subnet.Router != "" && net.ParseIP(cfg.Subnet.Router) == nil {
		return fmt.Errorf("subnet.router: invalid address %q", cfg.Subnet.Router)
	}
	for _, dns := range cfg.Subnet.DNSServers {
		if net.ParseIP(dns) == nil {
			return fmt.Errorf("subnet.dns_servers: invalid address %q", dns)
		}
	}

	if cfg.Subnet.LeaseTime != "" {
		if _, err := time.ParseDuration(cfg.Subnet.LeaseTime); err != nil {
			return fmt.Errorf("subnet.lease_time: %w", err)
		}
	}

	if cfg.RADIUS.Enabled {
		if cfg.RADIUS.Address == "" {
			return fmt.Errorf("radius.address is required when radius is enabled")
		}
		if cfg.RADIUS.Secret == "" {
			return fmt.Errorf("radius.secret is required when radius is enabled")
		}
		if _, err := time.ParseDuration(cfg.RADIUS.Timeout); err != nil {
			return fmt.Errorf("radius.timeout: %w", err)
		}
	}

	return nil
}

// LeaseTime returns the configured subnet lease time, falling back to
// the package default if unset or unparsable.
func (cfg *Config) LeaseTime() time.Duration {
	d, err := time.ParseDuration(cfg.Subnet.LeaseTime)
	if err != nil {
		return DefaultLeaseTime
	}
	return d
}

// ServerIP returns the parsed server identifier IP.
func (cfg *Config) ServerIP() net.IP {
	if cfg.Server.ServerID == "" {
		return nil
	}
	return net.ParseIP(cfg.Server.ServerID)
}
