package dhcp

import (
	"context"
	"log/slog"
	"net"
	"sync"

	"github.com/dhcpradiusd/dhcpradiusd/pkg/dhcpv4"
)

// AuthGate is the RADIUS half of the Policy Host's decision: a subnet
// configured for RADIUS authentication asks AuthGate before offering or
// acknowledging a lease, and reports lease lifecycle events to it for
// accounting. Implemented by internal/radiusbridge; declared here so
// this package never imports it (radiusbridge imports dhcp for the
// AttributeList type, not the reverse).
type AuthGate interface {
	Authenticate(ctx context.Context, attrs *AttributeList) (bool, error)
	Account(ctx context.Context, attrs *AttributeList, status string) error
}

// Subnet is the minimal per-subnet configuration the Policy Host needs:
// enough to compute an offer, not a lease database (address pool
// management is an explicit Non-goal).
type Subnet struct {
	Network   *net.IPNet
	Router    net.IP
	DNS       []net.IP
	LeaseTime uint32
	RangeLow  net.IP
	RangeHigh net.IP
}

// PolicyHost implements DHCPDISCOVER -> DHCPOFFER and DHCPREQUEST ->
// DHCPACK/DHCPNAK over a single configured subnet (§4.8), exercising
// the Attribute List and Reply Router against a real two-exchange DORA
// handshake. It deliberately has no lease database or pool allocator:
// leases live in an in-memory map for the process lifetime only.
type PolicyHost struct {
	ServerID net.IP
	Subnet   Subnet
	Dict     Dictionary
	Auth     AuthGate // nil disables RADIUS for this subnet
	Logger   *slog.Logger

	mu     sync.Mutex
	leased map[string]net.IP // chaddr string -> offered/leased IP
	cursor net.IP
}

// Handle implements one DORA step. It returns the response attribute
// list and message type, or ok=false when no reply should be sent
// (e.g. a RELEASE or DECLINE).
func (h *PolicyHost) Handle(ctx context.Context, req *AttributeList) (resp *AttributeList, msgType dhcpv4.MessageType, ok bool) {
	reqType, _ := req.FindFirst(AttrMessageType)
	chaddr, _ := req.FindFirst(AttrCHAddr)
	key := string(chaddr.Value)

	switch dhcpv4.MessageType(reqType.Byte()) {
	case dhcpv4.MessageTypeDiscover:
		return h.handleDiscover(ctx, req, key)
	case dhcpv4.MessageTypeRequest:
		return h.handleRequest(ctx, req, key)
	case dhcpv4.MessageTypeDecline:
		h.mu.Lock()
		delete(h.leased, key)
		h.mu.Unlock()
		return nil, 0, false
	case dhcpv4.MessageTypeRelease:
		h.mu.Lock()
		leasedIP := h.leased[key]
		delete(h.leased, key)
		h.mu.Unlock()
		if h.Auth != nil {
			acct := req.Clone()
			if leasedIP != nil {
				acct.UpdateFirst(AttrYIAddr, NewIPAddr(AttrYIAddr, leasedIP).Value, TypeIPAddr)
			}
			_ = h.Auth.Account(ctx, acct, "Stop")
		}
		return nil, 0, false
	default:
		return nil, 0, false
	}
}

func (h *PolicyHost) handleDiscover(ctx context.Context, req *AttributeList, key string) (*AttributeList, dhcpv4.MessageType, bool) {
	if h.Auth != nil {
		ok, err := h.Auth.Authenticate(ctx, req)
		if err != nil || !ok {
			h.Logger.Info("RADIUS rejected discover, not offering", "error", err)
			return nil, 0, false
		}
	}

	ip := h.offerAddress(key)
	if ip == nil {
		h.Logger.Warn("subnet exhausted, dropping discover")
		return nil, 0, false
	}

	resp := h.baseResponse(ip)
	return resp, dhcpv4.MessageTypeOffer, true
}

func (h *PolicyHost) handleRequest(ctx context.Context, req *AttributeList, key string) (*AttributeList, dhcpv4.MessageType, bool) {
	reqIP, hasReqIP := req.FindFirst(AttrCode{NSOption, uint8(dhcpv4.OptionRequestedIP)})
	ciaddr, _ := req.FindFirst(AttrCIAddr)

	wanted := reqIP.IPAddr()
	if wanted == nil || wanted.Equal(dhcpv4.ZeroIP) {
		wanted = ciaddr.IPAddr()
	}
	if wanted == nil || !h.Subnet.Network.Contains(wanted) {
		return h.nak(), dhcpv4.MessageTypeNak, true
	}

	if h.Auth != nil {
		ok, err := h.Auth.Authenticate(ctx, req)
		if err != nil || !ok {
			return h.nak(), dhcpv4.MessageTypeNak, true
		}
	}

	h.mu.Lock()
	h.leased[key] = wanted
	h.mu.Unlock()

	if h.Auth != nil {
		acct := req.Clone()
		acct.UpdateFirst(AttrYIAddr, NewIPAddr(AttrYIAddr, wanted).Value, TypeIPAddr)
		_ = h.Auth.Account(ctx, acct, "Start")
	}

	_ = hasReqIP
	resp := h.baseResponse(wanted)
	return resp, dhcpv4.MessageTypeAck, true
}

func (h *PolicyHost) nak() *AttributeList {
	resp := NewAttributeList()
	resp.Append(NewIPAddr(AttrCode{NSOption, uint8(dhcpv4.OptionServerIdentifier)}, h.ServerID))
	return resp
}

func (h *PolicyHost) baseResponse(yiaddr net.IP) *AttributeList {
	resp := NewAttributeList()
	resp.Append(NewIPAddr(AttrYIAddr, yiaddr))
	resp.Append(NewIPAddr(AttrCode{NSOption, uint8(dhcpv4.OptionServerIdentifier)}, h.ServerID))
	resp.Append(NewIPAddr(AttrCode{NSOption, uint8(dhcpv4.OptionSubnetMask)}, net.IP(h.Subnet.Network.Mask)))
	resp.Append(NewInteger(AttrCode{NSOption, uint8(dhcpv4.OptionIPLeaseTime)}, h.Subnet.LeaseTime))
	if h.Subnet.Router != nil {
		resp.Append(NewIPAddr(AttrCode{NSOption, uint8(dhcpv4.OptionRouter)}, h.Subnet.Router))
	}
	for _, dns := range h.Subnet.DNS {
		resp.Append(NewIPAddr(AttrCode{NSOption, uint8(dhcpv4.OptionDomainNameServer)}, dns))
	}
	return resp
}

// offerAddress returns the client's already-offered/leased address if
// one exists, or advances the sequential cursor to the next free
// address in range. This is intentionally not a real allocator: no
// expiry, no persistence, no reclaiming beyond DECLINE/RELEASE.
func (h *PolicyHost) offerAddress(key string) net.IP {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ip, ok := h.leased[key]; ok {
		return ip
	}
	if h.cursor == nil {
		h.cursor = append(net.IP(nil), h.Subnet.RangeLow...)
	}
	for {
		if dhcpv4.IPToUint32(h.cursor) > dhcpv4.IPToUint32(h.Subnet.RangeHigh) {
			return nil
		}
		candidate := append(net.IP(nil), h.cursor...)
		h.cursor = dhcpv4.NextIP(h.cursor)
		taken := false
		for _, leased := range h.leased {
			if leased.Equal(candidate) {
				taken = true
				break
			}
		}
		if !taken {
			h.leased[key] = candidate
			return candidate
		}
	}
}

// NewPolicyHost constructs a PolicyHost with its lease map initialized.
func NewPolicyHost(serverID net.IP, subnet Subnet, dict Dictionary, auth AuthGate, logger *slog.Logger) *PolicyHost {
	return &PolicyHost{
		ServerID: serverID,
		Subnet:   subnet,
		Dict:     dict,
		Auth:     auth,
		Logger:   logger,
		leased:   make(map[string]net.IP),
	}
}
