// Package dhcp implements the DHCPv4 wire codec: the Wire Buffer,
// Header Codec, Option Codec, Attribute List, and Reply Router, plus
// the Socket Adapter and Policy Host that exercise them end to end.
package dhcp

import (
	"log/slog"
	"net"
	"sync"

	"github.com/dhcpradiusd/dhcpradiusd/pkg/dhcpv4"
)

// bufferPool reuses MAX_PACKET_SIZE byte buffers across requests, the
// same allocation-avoidance discipline the teacher's packet pool uses
// for its wire buffers.
var bufferPool = sync.Pool{
	New: func() any {
		b := make([]byte, dhcpv4.MaxPacketSize)
		return &b
	},
}

// GetBuffer borrows a zeroed, MAX_PACKET_SIZE-capacity buffer from the
// pool. Callers must PutBuffer it back once the datagram has been sent.
func GetBuffer() *[]byte {
	b := bufferPool.Get().(*[]byte)
	for i := range *b {
		(*b)[i] = 0
	}
	return b
}

// PutBuffer returns a buffer to the pool.
func PutBuffer(b *[]byte) {
	bufferPool.Put(b)
}

// Decode implements the host surface's `decode(Datagram) -> AttributeList
// | Error` entry point: Header Codec then Option Codec over an already
// receive-validated Datagram.
func Decode(d *Datagram, dict Dictionary, logger *slog.Logger) (*AttributeList, *CodecError) {
	list := NewAttributeList()
	DecodeHeader(d.Bytes, list)
	if err := DecodeOptions(d.Bytes, list, dict, logger); err != nil {
		return nil, err
	}
	return list, nil
}

// Encode implements the host surface's `encode(AttributeList,
// OriginalDatagram) -> Datagram | Error` entry point: Header Codec then
// Option Codec, writing into a pooled buffer, followed by the Reply
// Router to address the result.
func Encode(list *AttributeList, original *Datagram, msgType dhcpv4.MessageType, logger *slog.Logger) (*Datagram, *CodecError) {
	if original == nil {
		return nil, errKind(KindMissingOriginal, "encode called without request datagram")
	}
	buf := GetBuffer()
	if err := EncodeHeader(list, original.Bytes, *buf); err != nil {
		PutBuffer(buf)
		return nil, err
	}
	n, err := EncodeOptions(list, msgType, *buf, logger)
	if err != nil {
		PutBuffer(buf)
		return nil, err
	}

	out := append([]byte(nil), (*buf)[:n]...)
	PutBuffer(buf)

	route := RouteReply(original, list, msgType, false, net.IPv4zero)
	return &Datagram{
		Bytes:   out,
		SrcAddr: &net.UDPAddr{IP: route.SrcIP, Port: route.SrcPort},
		DstAddr: &net.UDPAddr{IP: route.DstIP, Port: route.DstPort},
	}, nil
}
