package dhcp

// decodeRelaySubOptions walks an Option 82 TLV payload (RFC 3046, RFC
// 3527) and appends one attribute per sub-option, tagged under
// NSRelaySub so the Option Codec can keep them distinct from top-level
// options (data model §3: Relay-Agent Sub-Options).
func decodeRelaySubOptions(data []byte, list *AttributeList) *CodecError {
	i := 0
	for i < len(data) {
		if i+1 >= len(data) {
			return errKind(KindMalformedArray, "truncated relay agent sub-option")
		}
		sub := data[i]
		subLen := int(data[i+1])
		i += 2
		if i+subLen > len(data) {
			return errKind(KindMalformedArray, "truncated relay agent sub-option payload")
		}
		subData := data[i : i+subLen]
		i += subLen

		desc, _ := lookupRelaySub(sub)
		if desc.Type == TypeIPAddr && subLen == 4 {
			list.Append(Attribute{RelayCode(sub), TypeIPAddr, append([]byte(nil), subData...)})
		} else {
			list.Append(Attribute{RelayCode(sub), TypeOctets, append([]byte(nil), subData...)})
		}
	}
	return nil
}

// encodeRelaySubOption serializes one NSRelaySub attribute as a nested
// sub-TLV (sub-code, length, value), the payload the Encode walk wraps
// in the outer Option 82 TLV.
func encodeRelaySubOption(a Attribute) []byte {
	buf := make([]byte, 0, 2+len(a.Value))
	buf = append(buf, a.Code.Code, byte(len(a.Value)))
	buf = append(buf, a.Value...)
	return buf
}
