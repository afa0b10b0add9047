package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
[server]
interface = "eth0"
bind_address = "0.0.0.0:67"
server_id = "192.168.1.1"
log_level = "info"

[subnet]
network = "192.168.1.0/24"
range_start = "192.168.1.100"
range_end = "192.168.1.200"
router = "192.168.1.1"
dns_servers = ["8.8.8.8"]
`

func TestLoadMinimalConfig(t *testing.T) {
	path := writeTestConfig(t, minimalConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Server.Interface != "eth0" {
		t.Errorf("Interface = %q, want %q", cfg.Server.Interface, "eth0")
	}
	if cfg.Server.BindAddress != "0.0.0.0:67" {
		t.Errorf("BindAddress = %q, want %q", cfg.Server.BindAddress, "0.0.0.0:67")
	}
	if cfg.Server.ServerID != "192.168.1.1" {
		t.Errorf("ServerID = %q, want %q", cfg.Server.ServerID, "192.168.1.1")
	}
	if cfg.Subnet.Network != "192.168.1.0/24" {
		t.Errorf("Subnet.Network = %q, want %q", cfg.Subnet.Network, "192.168.1.0/24")
	}
	if cfg.Subnet.LeaseTime != DefaultLeaseTime.String() {
		t.Errorf("Subnet.LeaseTime = %q, want default %q", cfg.Subnet.LeaseTime, DefaultLeaseTime.String())
	}
	if cfg.RADIUS.Enabled {
		t.Errorf("RADIUS.Enabled = true, want false (not configured)")
	}
}

func TestLoadAppliesRateLimitDefaults(t *testing.T) {
	path := writeTestConfig(t, minimalConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Server.RateLimit.MaxDiscoversPerSecond != DefaultRateLimitDiscovers {
		t.Errorf("MaxDiscoversPerSecond = %d, want %d", cfg.Server.RateLimit.MaxDiscoversPerSecond, DefaultRateLimitDiscovers)
	}
	if cfg.Server.RateLimit.MaxPerMACPerSecond != DefaultRateLimitPerMAC {
		t.Errorf("MaxPerMACPerSecond = %d, want %d", cfg.Server.RateLimit.MaxPerMACPerSecond, DefaultRateLimitPerMAC)
	}
}

func TestLoadWithRadius(t *testing.T) {
	const cfgText = minimalConfig + `
[radius]
enabled = true
address = "127.0.0.1:1812"
secret = "testing123"
nas_identifier = "dhcpradiusd"
send_option82 = true
`
	path := writeTestConfig(t, cfgText)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if !cfg.RADIUS.Enabled {
		t.Fatal("RADIUS.Enabled = false, want true")
	}
	if cfg.RADIUS.Timeout != DefaultRadiusTimeout.String() {
		t.Errorf("RADIUS.Timeout = %q, want default %q", cfg.RADIUS.Timeout, DefaultRadiusTimeout.String())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.toml"); err == nil {
		t.Fatal("Load: want error for missing file, got nil")
	}
}

func TestValidateRejectsBadServerID(t *testing.T) {
	const cfgText = `
[server]
server_id = "not-an-ip"

[subnet]
network = "192.168.1.0/24"
range_start = "192.168.1.100"
range_end = "192.168.1.200"
`
	path := writeTestConfig(t, cfgText)
	if _, err := Load(path); err == nil {
		t.Fatal("Load: want error for invalid server_id, got nil")
	}
}

func TestValidateRejectsMissingSubnet(t *testing.T) {
	const cfgText = `
[server]
interface = "eth0"
`
	path := writeTestConfig(t, cfgText)
	if _, err := Load(path); err == nil {
		t.Fatal("Load: want error for missing subnet.network, got nil")
	}
}

func TestValidateRejectsRangeOutsideNetwork(t *testing.T) {
	const cfgText = `
[subnet]
network = "192.168.1.0/24"
range_start = "10.0.0.1"
range_end = "10.0.0.200"
`
	path := writeTestConfig(t, cfgText)
	if _, err := Load(path); err == nil {
		t.Fatal("Load: want error for out-of-network range, got nil")
	}
}

func TestValidateRejectsRadiusWithoutSecret(t *testing.T) {
	const cfgText = minimalConfig + `
[radius]
enabled = true
address = "127.0.0.1:1812"
`
	path := writeTestConfig(t, cfgText)
	if _, err := Load(path); err == nil {
		t.Fatal("Load: want error for radius enabled without secret, got nil")
	}
}

func TestConfigLeaseTime(t *testing.T) {
	cfg := &Config{Subnet: SubnetConfig{LeaseTime: "2h"}}
	if got, want := cfg.LeaseTime(), 2*time.Hour; got != want {
		t.Errorf("LeaseTime() = %v, want %v", got, want)
	}

	bad := &Config{Subnet: SubnetConfig{LeaseTime: "garbage"}}
	if got := bad.LeaseTime(); got != DefaultLeaseTime {
		t.Errorf("LeaseTime() with unparsable value = %v, want default %v", got, DefaultLeaseTime)
	}
}

func TestConfigServerIP(t *testing.T) {
	cfg := &Config{Server: ServerConfig{ServerID: "192.168.1.1"}}
	if ip := cfg.ServerIP(); ip == nil || ip.String() != "192.168.1.1" {
		t.Errorf("ServerIP() = %v, want 192.168.1.1", ip)
	}

	empty := &Config{}
	if ip := empty.ServerIP(); ip != nil {
		t.Errorf("ServerIP() with no server_id = %v, want nil", ip)
	}
}
