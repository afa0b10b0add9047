package dhcp

import (
	"encoding/binary"
	"net"

	"github.com/dhcpradiusd/dhcpradiusd/pkg/dhcpv4"
)

// ReplyDestination is the outcome of the Reply Router (§4.5): the
// destination IPv4 address and the four port/address fields the Socket
// Adapter needs to actually send the datagram.
type ReplyDestination struct {
	DstIP   net.IP
	DstPort int
	SrcIP   net.IP
	SrcPort int
}

// RouteReply computes the destination of a response per RFC 2131 §4.1,
// implemented as the six-branch priority order of §4.5 (first match
// wins). original is the ingress datagram being answered; msgType is
// the chosen response code; dstSet reports whether the caller has
// already pre-populated an egress destination (the fourth Open Question
// in §9: this branch is reachable only when the caller does so, which
// is treated as intentional, not a bug to paper over).
//
// giaddr, ciaddr, and the broadcast flag are read directly from the
// original request's raw header, not from list: list is the response
// being built, and a response carries none of those three fields. Only
// yiaddr (the address being offered or acknowledged) comes from list.
func RouteReply(original *Datagram, list *AttributeList, msgType dhcpv4.MessageType, dstSet bool, presetDst net.IP) ReplyDestination {
	giaddr := net.IP(original.Bytes[24:28])
	ciaddr := net.IP(original.Bytes[12:16])
	reqFlags := binary.BigEndian.Uint16(original.Bytes[10:12])
	yiaddr, _ := list.FindFirst(AttrYIAddr)

	var dst net.IP
	switch {
	case !giaddr.Equal(dhcpv4.ZeroIP):
		dst = giaddr
	case msgType == dhcpv4.MessageTypeNak:
		dst = dhcpv4.BroadcastIP
	case !ciaddr.Equal(dhcpv4.ZeroIP):
		dst = ciaddr
	case reqFlags&0x8000 != 0:
		dst = dhcpv4.BroadcastIP
	case !dstSet || presetDst == nil || presetDst.Equal(dhcpv4.ZeroIP):
		dst = dhcpv4.BroadcastIP
	default:
		dst = yiaddr.IPAddr()
	}

	srcPort := dhcpv4.ServerPort
	dstPort := dhcpv4.ClientPort
	var srcIP net.IP
	if original.DstAddr != nil {
		srcIP = original.DstAddr.IP
	}
	if original.SrcAddr != nil {
		dstPort = original.SrcAddr.Port
		srcPort = original.DstAddr.Port
	}

	return ReplyDestination{
		DstIP:   dst,
		DstPort: dstPort,
		SrcIP:   srcIP,
		SrcPort: srcPort,
	}
}
