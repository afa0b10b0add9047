package dhcp

import (
	"encoding/binary"
	"net"

	"github.com/dhcpradiusd/dhcpradiusd/pkg/dhcpv4"
)

// Datagram is the Wire Buffer of §4.1: a byte region holding one ingress
// or egress packet plus its length and socket addressing. It owns no
// parsing logic; Decode and Encode build an AttributeList from (or a
// reply Datagram out of) it.
type Datagram struct {
	Bytes []byte

	SrcAddr *net.UDPAddr
	DstAddr *net.UDPAddr

	// Vector is the 16-byte chaddr[0:hlen] || msgtype dedup key computed
	// at receive time (§4.1).
	Vector []byte
}

// NewWireBuffer allocates a zeroed buffer sized to the maximum packet.
func NewWireBuffer() []byte {
	return make([]byte, dhcpv4.MaxPacketSize)
}

// ReceiveDatagram runs the §4.1 validation sequence against raw bytes
// read off the socket and, on success, computes the dedup vector. It
// performs no option parsing; that is the Option Codec's job.
func ReceiveDatagram(b []byte, src, dst *net.UDPAddr) (*Datagram, *CodecError) {
	if len(b) <= 0 {
		return nil, errKind(KindShortRead, "recv returned no data")
	}
	if len(b) < dhcpv4.MinPacketSize {
		return nil, errKind(KindTooSmall, "datagram shorter than MIN_PACKET_SIZE")
	}
	if OpCode := b[0]; OpCode != byte(dhcpv4.OpCodeBootRequest) {
		return nil, errKind(KindNotBootRequest, "op is not BOOTREQUEST")
	}
	if b[1] != byte(dhcpv4.HardwareTypeEthernet) || b[2] != 6 {
		return nil, errKind(KindUnsupportedHardware, "htype/hlen is not Ethernet/6")
	}
	if len(b) < 240 || !bytesEqual(b[236:240], dhcpv4.MagicCookie) {
		return nil, errKind(KindNotDHCP, "magic cookie mismatch")
	}

	msgType, merr := findMessageTypeOption(b[240:])
	if merr != nil {
		return nil, merr
	}

	hlen := int(b[2])
	vector := make([]byte, 16)
	copy(vector, b[28:28+hlen])
	vector[hlen] = msgType

	d := &Datagram{
		Bytes:   append([]byte(nil), b...),
		SrcAddr: src,
		DstAddr: dst,
		Vector:  vector,
	}
	return d, nil
}

// findMessageTypeOption scans the option area only far enough to locate
// Option 53, per §4.1's ingress validation: "Option 53 present and
// exactly one byte long, value in 1..7". It does not build an
// AttributeList; that happens later in the real decode walk.
func findMessageTypeOption(opts []byte) (byte, *CodecError) {
	i := 0
	for i < len(opts) {
		code := opts[i]
		if code == byte(dhcpv4.OptionPad) {
			i++
			continue
		}
		if code == byte(dhcpv4.OptionEnd) {
			break
		}
		if i+1 >= len(opts) {
			break
		}
		length := int(opts[i+1])
		valStart := i + 2
		if valStart+length > len(opts) {
			break
		}
		if code == byte(dhcpv4.OptionDHCPMessageType) {
			if length != 1 {
				return 0, errKind(KindUnknownMessageType, "option 53 is not exactly one byte")
			}
			v := opts[valStart]
			if v < 1 || v > 7 {
				return 0, errKind(KindUnknownMessageType, "option 53 value outside 1..7")
			}
			return v, nil
		}
		i = valStart + length
	}
	return 0, errKind(KindUnknownMessageType, "option 53 missing")
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// xidHost returns the request ID in host byte order, as §4.1 specifies
// for the synthesized request identifier.
func xidHost(b []byte) uint32 {
	return binary.BigEndian.Uint32(b[4:8])
}
