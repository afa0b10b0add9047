package radiusbridge

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"testing"

	"layeh.com/radius"
	"layeh.com/radius/rfc2865"
	"layeh.com/radius/rfc2869"

	"github.com/dhcpradiusd/dhcpradiusd/internal/dhcp"
	"github.com/dhcpradiusd/dhcpradiusd/pkg/dhcpv4"
)

func radiusTestPacket() *radius.Packet {
	return radius.New(radius.CodeAccessRequest, []byte("testing123"))
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func reqWithChaddr(mac net.HardwareAddr) *dhcp.AttributeList {
	list := dhcp.NewAttributeList()
	list.Append(dhcp.NewEthernet(dhcp.AttrCHAddr, mac))
	return list
}

func TestAuthenticateDisabledAlwaysAccepts(t *testing.T) {
	c := NewClient(SubnetConfig{Enabled: false}, testLogger())

	ok, err := c.Authenticate(context.Background(), reqWithChaddr(net.HardwareAddr{0xaa, 0xbb, 0xcc, 0, 0, 1}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("disabled bridge should accept")
	}
}

func TestAuthenticateMissingChaddr(t *testing.T) {
	c := NewClient(SubnetConfig{
		Enabled: true,
		Server:  ServerConfig{Address: "127.0.0.1:19999", Secret: "test", Timeout: "100ms"},
	}, testLogger())

	_, err := c.Authenticate(context.Background(), dhcp.NewAttributeList())
	if err == nil {
		t.Fatal("expected error for request with no chaddr attribute")
	}
}

func TestAuthenticateUnreachableServer(t *testing.T) {
	c := NewClient(SubnetConfig{
		Enabled: true,
		Server:  ServerConfig{Address: "127.0.0.1:19999", Secret: "test", Timeout: "100ms"},
	}, testLogger())

	ok, err := c.Authenticate(context.Background(), reqWithChaddr(net.HardwareAddr{0xaa, 0xbb, 0xcc, 0, 0, 1}))
	if err == nil {
		t.Fatal("expected error when server unreachable")
	}
	if ok {
		t.Error("should not accept when server unreachable")
	}
}

func TestAccountDisabledIsNoop(t *testing.T) {
	c := NewClient(SubnetConfig{Enabled: false}, testLogger())

	if err := c.Account(context.Background(), reqWithChaddr(net.HardwareAddr{0xaa, 0xbb, 0xcc, 0, 0, 1}), "Start"); err != nil {
		t.Fatalf("disabled bridge accounting should be a no-op, got: %v", err)
	}
}

func TestAccountMissingChaddr(t *testing.T) {
	c := NewClient(SubnetConfig{
		Enabled: true,
		Server:  ServerConfig{Address: "127.0.0.1:19999", Secret: "test", Timeout: "100ms"},
	}, testLogger())

	if err := c.Account(context.Background(), dhcp.NewAttributeList(), "Start"); err == nil {
		t.Fatal("expected error for accounting request with no chaddr attribute")
	}
}

func TestSetConfigReplacesSubnetPosture(t *testing.T) {
	c := NewClient(SubnetConfig{Enabled: false}, testLogger())
	c.SetConfig(SubnetConfig{Enabled: true, NASIdentifier: "dhcpradiusd"})

	c.mu.RLock()
	cfg := c.config
	c.mu.RUnlock()

	if !cfg.Enabled || cfg.NASIdentifier != "dhcpradiusd" {
		t.Errorf("SetConfig did not take effect: %+v", cfg)
	}
}

func TestParseTimeoutFallback(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"5s", true},
		{"", false},
		{"invalid", false},
		{"100ms", true},
	}
	for _, tt := range tests {
		got := parseTimeout(tt.input)
		if got <= 0 {
			t.Errorf("parseTimeout(%q) = %v, want positive duration", tt.input, got)
		}
	}
}

func TestUserNamePrefersClientIdentifier(t *testing.T) {
	mac := net.HardwareAddr{0xaa, 0xbb, 0xcc, 0, 0, 1}
	cidMac := net.HardwareAddr{0x11, 0x22, 0x33, 0x44, 0x55, 0x66}

	list := dhcp.NewAttributeList()
	list.Append(dhcp.NewEthernet(dhcp.AttrCHAddr, mac))
	list.Append(dhcp.NewEthernet(dhcp.AttrClientID, cidMac))

	if got := userName(list, mac); got != cidMac.String() {
		t.Errorf("userName() = %q, want Option 61 Client-Identifier %q", got, cidMac.String())
	}
}

func TestUserNameFallsBackToChaddr(t *testing.T) {
	mac := net.HardwareAddr{0xaa, 0xbb, 0xcc, 0, 0, 1}

	list := dhcp.NewAttributeList()
	list.Append(dhcp.NewEthernet(dhcp.AttrCHAddr, mac))

	if got := userName(list, mac); got != mac.String() {
		t.Errorf("userName() = %q, want chaddr fallback %q", got, mac.String())
	}
}

func TestUserNameNonEthernetClientIdentifier(t *testing.T) {
	mac := net.HardwareAddr{0xaa, 0xbb, 0xcc, 0, 0, 1}

	list := dhcp.NewAttributeList()
	list.Append(dhcp.NewEthernet(dhcp.AttrCHAddr, mac))
	list.Append(dhcp.NewOctets(dhcp.AttrClientID, []byte{0x00, 'f', 'o', 'o'}))

	want := fmt.Sprintf("%x", []byte{0x00, 'f', 'o', 'o'})
	if got := userName(list, mac); got != want {
		t.Errorf("userName() = %q, want hex-encoded non-ethernet client id %q", got, want)
	}
}

func TestApplyOption82MapsRelaySubOptions(t *testing.T) {
	list := dhcp.NewAttributeList()
	list.Append(dhcp.Attribute{Code: dhcp.RelayCode(dhcpv4.RelaySubOptionCircuitID), Type: dhcp.TypeOctets, Value: []byte("circuit-1")})
	list.Append(dhcp.Attribute{Code: dhcp.RelayCode(dhcpv4.RelaySubOptionRemoteID), Type: dhcp.TypeOctets, Value: []byte("remote-1")})
	list.Append(dhcp.NewIPAddr(dhcp.AttrGIAddr, net.ParseIP("10.0.0.1")))

	packet := radiusTestPacket()
	applyOption82(packet, list)

	if got := rfc2869.NASPortID_GetString(packet); got != "circuit-1" {
		t.Errorf("NAS-Port-Id = %q, want %q", got, "circuit-1")
	}
	if got := rfc2865.CalledStationID_GetString(packet); got != "remote-1" {
		t.Errorf("Called-Station-Id = %q, want %q", got, "remote-1")
	}
	if got := rfc2865.NASIPAddress_Get(packet); !got.Equal(net.ParseIP("10.0.0.1")) {
		t.Errorf("NAS-IP-Address = %v, want 10.0.0.1", got)
	}
}
