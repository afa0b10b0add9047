package dhcp

import (
	"net"

	"github.com/dhcpradiusd/dhcpradiusd/pkg/dhcpv4"
)

// DecodeHeader reads the 14 named fixed-header fields (§4.2) from b and
// appends one attribute per field to list. b must be at least 236 bytes
// (the caller, ReceiveDatagram, already enforced MIN_PACKET_SIZE).
func DecodeHeader(b []byte, list *AttributeList) {
	hlen := int(b[2])

	list.Append(NewByte(AttrOp, b[0]))
	list.Append(NewByte(AttrHType, b[1]))
	list.Append(NewByte(AttrHLen, b[2]))
	list.Append(NewByte(AttrHops, b[3]))
	list.Append(Attribute{AttrXID, TypeInteger, append([]byte(nil), b[4:8]...)})
	list.Append(Attribute{AttrSecs, TypeShort, append([]byte(nil), b[8:10]...)})
	list.Append(Attribute{AttrFlags, TypeShort, append([]byte(nil), b[10:12]...)})
	list.Append(NewIPAddr(AttrCIAddr, net.IP(b[12:16])))
	list.Append(NewIPAddr(AttrYIAddr, net.IP(b[16:20])))
	list.Append(NewIPAddr(AttrSIAddr, net.IP(b[20:24])))
	list.Append(NewIPAddr(AttrGIAddr, net.IP(b[24:28])))

	if hlen == 6 {
		list.Append(NewEthernet(AttrCHAddr, net.HardwareAddr(b[28:34])))
	} else {
		list.Append(NewOctets(AttrCHAddr, b[28:28+clampHlen(hlen)]))
	}

	if sname := nulTruncate(b[44:108]); len(sname) > 0 {
		list.Append(NewString(AttrSName, string(sname)))
	}
	if file := nulTruncate(b[108:236]); len(file) > 0 {
		list.Append(NewString(AttrFile, string(file)))
	}
}

func clampHlen(hlen int) int {
	if hlen < 0 {
		return 0
	}
	if hlen > 16 {
		return 16
	}
	return hlen
}

func nulTruncate(b []byte) []byte {
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}

// EncodeHeader writes the 14 fixed-header fields into buf[0:236] and the
// magic cookie into buf[236:240]. original is the ingress datagram this
// reply answers, required for xid/flags/ciaddr/chaddr propagation; a nil
// original returns KindMissingOriginal, and op is always BOOTREPLY.
func EncodeHeader(list *AttributeList, original []byte, buf []byte) *CodecError {
	for i := range buf[:240] {
		buf[i] = 0
	}

	if original == nil {
		return errKind(KindMissingOriginal, "encode called without request datagram")
	}

	// yiaddr is the one address field the host policy actually sets; every
	// other address field below is either copied from the request or
	// always zeroed in server replies (siaddr/giaddr), per §4.2.
	if yiaddr, ok := list.FindFirst(AttrYIAddr); ok {
		copy(buf[16:20], dhcpv4.IPToBytes(yiaddr.IPAddr()))
	}

	buf[0] = byte(dhcpv4.OpCodeBootReply)
	buf[1] = byte(dhcpv4.HardwareTypeEthernet)
	buf[2] = original[2]
	buf[3] = 0 // hops always zero in server replies

	copy(buf[4:8], original[4:8])   // xid
	buf[8], buf[9] = 0, 0           // secs always zero in server replies
	copy(buf[10:12], original[10:12]) // flags
	copy(buf[12:16], original[12:16]) // ciaddr

	// siaddr, giaddr always zero in server replies
	for i := 20; i < 28; i++ {
		buf[i] = 0
	}

	hlen := int(original[2])
	copy(buf[28:28+clampHlen(hlen)], original[28:28+clampHlen(hlen)])

	copy(buf[236:240], dhcpv4.MagicCookie)
	return nil
}
