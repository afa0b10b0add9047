package dhcp

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"time"

	"github.com/dhcpradiusd/dhcpradiusd/internal/metrics"
	"github.com/dhcpradiusd/dhcpradiusd/pkg/dhcpv4"
)

// ntpTimestamp8 formats the current time as an RFC 3118-style NTP
// timestamp: seconds since the 1900 epoch, big-endian, followed by the
// fractional-second field derived from the current nanosecond offset.
const ntpEpochOffset = 2208988800

func ntpTimestamp8() []byte {
	now := time.Now()
	buf := make([]byte, 8)
	binary.BigEndian.PutUint32(buf[0:4], uint32(now.Unix()+ntpEpochOffset))
	binary.BigEndian.PutUint32(buf[4:8], uint32((uint64(now.Nanosecond())<<32)/1e9))
	return buf
}

// DecodeOptions walks the TLV option area of a validated datagram
// (§4.3 Decode walk), appending one or more attributes per recognized
// option to list, then applies the post-decode policy (MSFT 98 quirk,
// MTU/MMS clamps). full is the entire datagram, mutable, because the
// MSFT 98 quirk flips a bit in the raw header as well as in the decoded
// flags attribute.
func DecodeOptions(full []byte, list *AttributeList, dict Dictionary, logger *slog.Logger) *CodecError {
	if err := decodeOptionWalk(full[240:], list, dict, logger); err != nil {
		return err
	}
	return applyPostDecodePolicy(full, list, logger)
}

func decodeOptionWalk(opts []byte, list *AttributeList, dict Dictionary, logger *slog.Logger) *CodecError {
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
		value := opts[valStart : valStart+length]
		next := valStart + length

		if length >= 253 {
			logger.Warn("option too long, skipping", "code", code, "length", length)
			i = next
			continue
		}

		if code == byte(dhcpv4.OptionRelayAgentInfo) {
			if err := decodeRelaySubOptions(value, list); err != nil {
				logger.Warn("malformed relay agent info, skipping", "error", err.Error())
			}
			i = next
			continue
		}

		if code == byte(dhcpv4.OptionClientIdentifier) && length == 7 && value[0] == 1 {
			list.Append(NewEthernet(AttrClientID, value[1:7]))
			i = next
			continue
		}

		desc, ok := dict.Lookup(code)
		if !ok {
			metrics.UnknownOptions.WithLabelValues(fmt.Sprintf("%d", code)).Inc()
			logger.Warn("unknown option, skipping", "code", code)
			i = next
			continue
		}
		attrCode := AttrCode{NSOption, code}

		width := desc.Type.Width()
		switch {
		case desc.Array:
			if width <= 0 || length%width != 0 {
				logger.Warn("malformed array option, falling back to raw", "code", code, "length", length)
				list.Append(Attribute{attrCode, TypeOctets, append([]byte(nil), value...)})
				break
			}
			for off := 0; off < length; off += width {
				list.Append(Attribute{attrCode, desc.Type, append([]byte(nil), value[off:off+width]...)})
			}
		case width > 0 && length != width:
			logger.Warn("option length mismatch, falling back to raw", "code", code, "length", length, "want", width)
			list.Append(Attribute{attrCode, TypeOctets, append([]byte(nil), value...)})
		default:
			list.Append(Attribute{attrCode, desc.Type, append([]byte(nil), value...)})
		}
		i = next
	}
	return nil
}

// applyPostDecodePolicy implements §4.3's three post-decode rules: the
// MSFT 98 broadcast fix-up and the interface-MTU / max-message-size
// clamps.
func applyPostDecodePolicy(full []byte, list *AttributeList, logger *slog.Logger) *CodecError {
	giaddr, _ := list.FindFirst(AttrGIAddr)
	msgType, _ := list.FindFirst(AttrMessageType)
	vendorClass, hasVendor := list.FindFirst(AttrVendorClassID)

	if giaddr.IPAddr().Equal(dhcpv4.ZeroIP) &&
		msgType.Byte() == byte(dhcpv4.MessageTypeRequest) &&
		hasVendor && vendorClass.String() == "MSFT 98" {
		if flags, ok := list.FindFirst(AttrFlags); ok {
			v := flags.Short() | 0x8000
			list.UpdateFirst(AttrFlags, []byte{byte(v >> 8), byte(v)}, TypeShort)
		}
		full[10] |= 0x80
		logger.Info("MSFT 98 broadcast fix-up applied")
	}

	mtu, hasMTU := list.FindFirst(AttrInterfaceMTU)
	if hasMTU && mtu.Short() < dhcpv4.DefaultPacketSize {
		return errKind(KindMtuTooSmall, "interface MTU below DEFAULT_PACKET_SIZE")
	}

	mms, hasMMS := list.FindFirst(AttrMaxMsgSize)
	if hasMMS && mms.Short() < dhcpv4.DefaultPacketSize {
		list.UpdateFirst(AttrMaxMsgSize, shortBytes(dhcpv4.DefaultPacketSize), TypeShort)
		logger.Warn("max-dhcp-message-size below 576, coerced", "original", mms.Short())
		hasMMS, mms = true, Attribute{Value: shortBytes(dhcpv4.DefaultPacketSize)}
	}
	if hasMTU && hasMMS && mms.Short() > mtu.Short() {
		list.UpdateFirst(AttrMaxMsgSize, shortBytes(mtu.Short()), TypeShort)
		logger.Warn("max-dhcp-message-size exceeds interface MTU, coerced", "mtu", mtu.Short())
	}
	return nil
}

func shortBytes(v uint16) []byte {
	return []byte{byte(v >> 8), byte(v)}
}

// EncodeOptions serializes every non-header attribute in list into buf
// starting at offset 240, following §4.3's Encode walk exactly: message
// type first, sort, pack runs of identical codes, Option-82 nesting,
// RFC 3118 handling, end marker, padding floor.
func EncodeOptions(list *AttributeList, msgType dhcpv4.MessageType, buf []byte, logger *slog.Logger) (int, *CodecError) {
	list.DeleteByCode(AttrMessageType)
	list.Append(NewByte(AttrMessageType, byte(msgType)))

	applyOption90(list, logger)

	list.SortForEncode()

	offset := 240
	items := list.All()
	i := 0
	relayEmitted := false
	for i < len(items) {
		a := items[i]
		if a.Code.NS == NSAuth {
			i++
			continue
		}
		if a.Code.NS == NSRelaySub {
			if !relayEmitted {
				n, err := encodeRelayAgentInfoOption(items, buf, offset, logger)
				if err != nil {
					return 0, err
				}
				offset += n
				relayEmitted = true
			}
			i++
			continue
		}
		if a.Code.NS != NSOption {
			i++
			continue
		}

		runEnd := i + 1
		for runEnd < len(items) && items[runEnd].Code == a.Code {
			runEnd++
		}
		run := items[i:runEnd]

		n, err := encodeOptionRun(a.Code.Code, run, buf, offset, logger)
		if err != nil {
			return 0, err
		}
		offset += n
		i = runEnd
	}

	buf[offset] = byte(dhcpv4.OptionEnd)
	buf[offset+1] = 0
	offset += 2

	if offset < dhcpv4.DefaultPacketSize {
		for i := offset; i < dhcpv4.DefaultPacketSize; i++ {
			buf[i] = 0
		}
		offset = dhcpv4.DefaultPacketSize
	}
	return offset, nil
}

// encodeOptionRun writes one TLV for a maximal run of same-code
// attributes, stopping early (and warning) if packing another entry
// would push the TLV length past 255.
func encodeOptionRun(code uint8, run []Attribute, buf []byte, offset int, logger *slog.Logger) (int, *CodecError) {
	start := offset
	buf[offset] = code
	lenPos := offset + 1
	offset += 2
	length := 0

	for idx, a := range run {
		if code == byte(dhcpv4.OptionClientIdentifier) && a.Type == TypeEthernet && len(run) == 1 {
			payload := append([]byte{0x01}, a.Value...)
			if length+len(payload) > 255 {
				logger.Warn("TLV overflow, stopping pack", "code", code)
				break
			}
			copy(buf[offset:], payload)
			offset += len(payload)
			length += len(payload)
			continue
		}
		n := len(a.Value)
		if length+n > 255 {
			logger.Warn("TLV overflow, stopping pack", "code", code, "entries_packed", idx)
			break
		}
		copy(buf[offset:], a.Value)
		offset += n
		length += n
	}

	buf[lenPos] = byte(length)
	return offset - start, nil
}

// encodeRelayAgentInfoOption emits one Option 82 TLV per NSRelaySub
// attribute currently in items (§6: "the encoder emits one TLV per
// attribute in the run, not one aggregated TLV" — preserved literally
// from the original source rather than aggregated into one TLV holding
// several sub-options).
func encodeRelayAgentInfoOption(items []Attribute, buf []byte, offset int, logger *slog.Logger) (int, *CodecError) {
	total := 0
	for _, a := range items {
		if a.Code.NS != NSRelaySub {
			continue
		}
		sub := encodeRelaySubOption(a)
		outerLen := len(sub)
		if outerLen > 255 {
			logger.Warn("relay sub-option TLV overflow, skipping", "sub", a.Code.Code)
			continue
		}
		buf[offset+total] = byte(dhcpv4.OptionRelayAgentInfo)
		buf[offset+total+1] = byte(outerLen)
		copy(buf[offset+total+2:], sub)
		total += 2 + outerLen
	}
	return total, nil
}

// applyOption90 implements RFC 3118 Authentication-option handling
// (§4.3's dedicated subsection) on the outbound attribute 90, if present.
func applyOption90(list *AttributeList, logger *slog.Logger) {
	auth, ok := list.FindFirst(AttrAuthentication)
	if !ok {
		return
	}
	v := append([]byte(nil), auth.Value...)

	if len(v) < 2 {
		for len(v) < 2 {
			v = append(v, 0)
		}
	}
	if len(v) < 3 {
		v = append(v, 0) // algorithm byte
		v = append(v, ntpTimestamp8()...)
	}

	switch v[0] {
	case 0: // Configuration Token sub-type
		v[1] = 0 // RDM
		const headerLen = 11
		if len(v) < headerLen {
			v = append(v, make([]byte, headerLen-len(v))...)
		}
		if pw, ok := list.FindFirst(AttrCleartextPassword); ok {
			capacity := 253 - headerLen
			n := len(pw.Value)
			if n > capacity {
				n = capacity
			}
			v = append(v[:headerLen], pw.Value[:n]...)
		} else {
			v = v[:headerLen]
		}
	default:
		logger.Warn("unsupported authentication option sub-type, leaving unchanged", "subtype", v[0])
		list.UpdateFirst(AttrAuthentication, v, TypeOctets)
		return
	}

	list.UpdateFirst(AttrAuthentication, v, TypeOctets)
}
