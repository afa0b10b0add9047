// dhcpradiusd — a DHCPv4 server that gates leases through RADIUS.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dhcpradiusd/dhcpradiusd/internal/config"
	"github.com/dhcpradiusd/dhcpradiusd/internal/dhcp"
	"github.com/dhcpradiusd/dhcpradiusd/internal/dictstore"
	"github.com/dhcpradiusd/dhcpradiusd/internal/logging"
	"github.com/dhcpradiusd/dhcpradiusd/internal/metrics"
	"github.com/dhcpradiusd/dhcpradiusd/internal/radiusbridge"
)

const version = "dev"

func main() {
	configPath := flag.String("config", "/etc/dhcpradiusd/config.toml", "path to configuration file")
	metricsAddr := flag.String("metrics-addr", "", "address to serve /metrics on (e.g. 0.0.0.0:9100); empty disables")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Server.LogLevel, os.Stdout)

	dict, err := buildDictionary(cfg)
	if err != nil {
		logger.Error("building dictionary", "error", err)
		os.Exit(1)
	}

	subnet, err := buildSubnet(cfg)
	if err != nil {
		logger.Error("building subnet config", "error", err)
		os.Exit(1)
	}

	var auth dhcp.AuthGate
	if cfg.RADIUS.Enabled {
		bridge := radiusbridge.NewClient(radiusbridge.SubnetConfig{
			Enabled: true,
			Server: radiusbridge.ServerConfig{
				Address: cfg.RADIUS.Address,
				Secret:  cfg.RADIUS.Secret,
				Timeout: cfg.RADIUS.Timeout,
				Retries: cfg.RADIUS.Retries,
			},
			NASIdentifier:  cfg.RADIUS.NASIdentifier,
			CallingStation: cfg.RADIUS.CallingStation,
			SendOption82:   cfg.RADIUS.SendOption82,
		}, logger)
		auth = bridge
	}

	host := dhcp.NewPolicyHost(cfg.ServerIP(), subnet, dict, auth, logger)

	limiter := dhcp.NewRateLimiter(cfg.Server.RateLimit.Enabled,
		cfg.Server.RateLimit.MaxDiscoversPerSecond, cfg.Server.RateLimit.MaxPerMACPerSecond)

	server := dhcp.NewServer(host, dict, cfg.Server.Interface, cfg.Server.BindAddress, limiter, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Error("starting server", "error", err)
		os.Exit(1)
	}

	metrics.ServerStartTime.SetToCurrentTime()
	metrics.ServerInfo.WithLabelValues(version).Set(1)

	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr, logger)
	}

	<-ctx.Done()
	server.Stop()
}

func serveMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server exited", "error", err)
	}
}

func parseCIDR(s string) (net.IP, *net.IPNet, error) {
	ip, network, err := net.ParseCIDR(s)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid subnet network %q: %w", s, err)
	}
	return ip, network, nil
}

func parseIP(s string) (net.IP, error) {
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, fmt.Errorf("invalid address %q", s)
	}
	return ip, nil
}

func parseOptionalIP(s string) (net.IP, error) {
	if s == "" {
		return nil, nil
	}
	return parseIP(s)
}

func parseIPs(ss []string) ([]net.IP, error) {
	ips := make([]net.IP, 0, len(ss))
	for _, s := range ss {
		ip, err := parseIP(s)
		if err != nil {
			return nil, err
		}
		ips = append(ips, ip)
	}
	return ips, nil
}

// buildDictionary assembles the Dictionary Service (§4.7): the built-in
// RFC 2132 table, optionally overlaid with operator-supplied overrides
// loaded once from a bbolt store at startup.
func buildDictionary(cfg *config.Config) (dhcp.Dictionary, error) {
	base := dhcp.NewDefaultDictionary()
	if cfg.Dictionary.OverridePath == "" {
		return base, nil
	}

	store, err := dictstore.Open(cfg.Dictionary.OverridePath)
	if err != nil {
		return nil, fmt.Errorf("opening dictionary override store: %w", err)
	}
	defer store.Close()

	override, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading dictionary overrides: %w", err)
	}
	return dhcp.OverlayDictionary{Base: base, Override: override}, nil
}

func buildSubnet(cfg *config.Config) (dhcp.Subnet, error) {
	_, network, err := parseCIDR(cfg.Subnet.Network)
	if err != nil {
		return dhcp.Subnet{}, err
	}

	dns, err := parseIPs(cfg.Subnet.DNSServers)
	if err != nil {
		return dhcp.Subnet{}, err
	}

	router, err := parseOptionalIP(cfg.Subnet.Router)
	if err != nil {
		return dhcp.Subnet{}, err
	}

	low, err := parseIP(cfg.Subnet.RangeStart)
	if err != nil {
		return dhcp.Subnet{}, err
	}
	high, err := parseIP(cfg.Subnet.RangeEnd)
	if err != nil {
		return dhcp.Subnet{}, err
	}

	return dhcp.Subnet{
		Network:   network,
		Router:    router,
		DNS:       dns,
		LeaseTime: uint32(cfg.LeaseTime().Seconds()),
		RangeLow:  low,
		RangeHigh: high,
	}, nil
}
