// Package radiusbridge implements the RADIUS Bridge: it turns a DHCP
// Attribute List into RADIUS Access-Request/Accounting-Request
// exchanges and reports back a plain accept/reject decision, so the
// Policy Host never has to know anything about RADIUS wire format.
package radiusbridge

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"layeh.com/radius"
	"layeh.com/radius/rfc2865"
	"layeh.com/radius/rfc2866"
	"layeh.com/radius/rfc2869"

	"github.com/dhcpradiusd/dhcpradiusd/internal/dhcp"
	"github.com/dhcpradiusd/dhcpradiusd/internal/metrics"
	"github.com/dhcpradiusd/dhcpradiusd/pkg/dhcpv4"
)

// ServerConfig names one upstream RADIUS server and its shared secret.
type ServerConfig struct {
	Address string `toml:"address"`
	Secret  string `toml:"secret"`
	Timeout string `toml:"timeout"`
	Retries int    `toml:"retries"`
}

// SubnetConfig is the RADIUS posture for one configured DHCP subnet:
// whether to gate at all, which server to use, and which DHCP
// attributes to carry across as RADIUS attributes.
type SubnetConfig struct {
	Enabled        bool         `toml:"enabled"`
	Server         ServerConfig `toml:"server"`
	NASIdentifier  string       `toml:"nas_identifier"`
	CallingStation bool         `toml:"calling_station"`
	SendOption82   bool         `toml:"send_option82"`
}

// Client is the RADIUS Bridge. It implements dhcp.AuthGate so a
// PolicyHost can treat it as an opaque accept/reject/accounting sink.
type Client struct {
	logger *slog.Logger

	mu     sync.RWMutex
	config SubnetConfig
}

// NewClient builds a RADIUS Bridge for one subnet's configuration.
func NewClient(cfg SubnetConfig, logger *slog.Logger) *Client {
	return &Client{config: cfg, logger: logger}
}

// SetConfig replaces the bridge's subnet configuration, e.g. on a
// config reload.
func (c *Client) SetConfig(cfg SubnetConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config = cfg
}

// Authenticate implements dhcp.AuthGate: it builds an Access-Request
// from the DHCP Attribute List (User-Name from the Option 61
// Client-Identifier when present, else the chaddr MAC; User-Password the
// chaddr MAC; Option 82 sub-attributes when configured) and reports whether the
// server returned Access-Accept. A disabled bridge always accepts,
// treating RADIUS as opt-in per subnet.
func (c *Client) Authenticate(ctx context.Context, attrs *dhcp.AttributeList) (bool, error) {
	c.mu.RLock()
	cfg := c.config
	c.mu.RUnlock()

	if !cfg.Enabled {
		return true, nil
	}

	chaddrAttr, ok := attrs.FindFirst(dhcp.AttrCHAddr)
	if !ok {
		return false, fmt.Errorf("radius bridge: request has no chaddr attribute")
	}
	mac := chaddrAttr.Ethernet()
	if mac == nil {
		mac = net.HardwareAddr(chaddrAttr.Value)
	}

	packet := radius.New(radius.CodeAccessRequest, []byte(cfg.Server.Secret))
	rfc2865.UserName_SetString(packet, userName(attrs, mac))
	rfc2865.UserPassword_SetString(packet, mac.String())
	if cfg.CallingStation {
		rfc2865.CallingStationID_SetString(packet, mac.String())
	}
	if cfg.NASIdentifier != "" {
		rfc2865.NASIdentifier_SetString(packet, cfg.NASIdentifier)
	}

	if cfg.SendOption82 {
		applyOption82(packet, attrs)
	}

	start := time.Now()
	resp, err := c.exchange(ctx, cfg, packet)
	metrics.RadiusLatency.WithLabelValues("auth").Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.RadiusRequests.WithLabelValues("auth", "error").Inc()
		c.logger.Warn("RADIUS authentication request failed",
			"server", cfg.Server.Address, "mac", mac.String(), "error", err)
		return false, err
	}

	accepted := resp.Code == radius.CodeAccessAccept
	outcome := "reject"
	if accepted {
		outcome = "accept"
	}
	metrics.RadiusRequests.WithLabelValues("auth", outcome).Inc()
	c.logger.Debug("RADIUS authentication result",
		"server", cfg.Server.Address, "mac", mac.String(),
		"accepted", accepted, "code", resp.Code.String())
	return accepted, nil
}

// Account implements dhcp.AuthGate: it sends an Accounting-Request
// (Start on lease acquisition, Stop on RELEASE) when RADIUS is enabled
// for the subnet, and is a no-op otherwise.
func (c *Client) Account(ctx context.Context, attrs *dhcp.AttributeList, status string) error {
	c.mu.RLock()
	cfg := c.config
	c.mu.RUnlock()

	if !cfg.Enabled {
		return nil
	}

	chaddrAttr, ok := attrs.FindFirst(dhcp.AttrCHAddr)
	if !ok {
		return fmt.Errorf("radius bridge: accounting request has no chaddr attribute")
	}
	mac := chaddrAttr.Ethernet()
	if mac == nil {
		mac = net.HardwareAddr(chaddrAttr.Value)
	}

	packet := radius.New(radius.CodeAccountingRequest, []byte(cfg.Server.Secret))
	rfc2865.UserName_SetString(packet, mac.String())
	if cfg.NASIdentifier != "" {
		rfc2865.NASIdentifier_SetString(packet, cfg.NASIdentifier)
	}
	rfc2866.AcctSessionID_SetString(packet, mac.String())
	switch status {
	case "Start":
		rfc2866.AcctStatusType_Set(packet, rfc2866.AcctStatusType_Value_Start)
	case "Stop":
		rfc2866.AcctStatusType_Set(packet, rfc2866.AcctStatusType_Value_Stop)
	default:
		rfc2866.AcctStatusType_Set(packet, rfc2866.AcctStatusType_Value_InterimUpdate)
	}

	if yiaddr, ok := attrs.FindFirst(dhcp.AttrYIAddr); ok {
		rfc2865.FramedIPAddress_Set(packet, yiaddr.IPAddr())
	}

	start := time.Now()
	_, err := c.exchange(ctx, cfg, packet)
	metrics.RadiusLatency.WithLabelValues("accounting").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RadiusRequests.WithLabelValues("accounting", "error").Inc()
		c.logger.Warn("RADIUS accounting request failed",
			"server", cfg.Server.Address, "mac", mac.String(), "status", status, "error", err)
		return err
	}
	metrics.RadiusRequests.WithLabelValues("accounting", "ok").Inc()
	return nil
}

func (c *Client) exchange(ctx context.Context, cfg SubnetConfig, packet *radius.Packet) (*radius.Packet, error) {
	timeout := parseTimeout(cfg.Server.Timeout)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return radius.Exchange(ctx, packet, cfg.Server.Address)
}

// applyOption82 carries the relay sub-options of an Option-82-tagged
// request across into RADIUS attributes per RFC 4014: Circuit-ID to
// NAS-Port-Id, Remote-ID to Called-Station-Id, and the relay's own
// address to NAS-IP-Address.
func applyOption82(packet *radius.Packet, attrs *dhcp.AttributeList) {
	for _, a := range attrs.FindAll(dhcp.RelayCode(dhcpv4.RelaySubOptionCircuitID)) {
		rfc2869.NASPortID_SetString(packet, string(a.Value))
	}
	for _, a := range attrs.FindAll(dhcp.RelayCode(dhcpv4.RelaySubOptionRemoteID)) {
		rfc2865.CalledStationID_SetString(packet, string(a.Value))
	}
	if giaddr, ok := attrs.FindFirst(dhcp.AttrGIAddr); ok {
		if ip := giaddr.IPAddr(); ip != nil && !ip.Equal(dhcpv4.ZeroIP) {
			rfc2865.NASIPAddress_Set(packet, ip)
		}
	}
}

// userName resolves the RADIUS User-Name per §4.9: the Option 61
// Client-Identifier when the request carries one, falling back to the
// chaddr MAC otherwise.
func userName(attrs *dhcp.AttributeList, mac net.HardwareAddr) string {
	if cid, ok := attrs.FindFirst(dhcp.AttrClientID); ok {
		if cidMac := cid.Ethernet(); cidMac != nil {
			return cidMac.String()
		}
		return fmt.Sprintf("%x", cid.Value)
	}
	return mac.String()
}

func parseTimeout(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}
