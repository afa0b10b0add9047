package dhcp

import "github.com/dhcpradiusd/dhcpradiusd/pkg/dhcpv4"

// Namespace disambiguates the three disjoint families of attribute code
// that share the wire: synthesized header pseudo-attributes, real DHCP
// option codes, and Relay-Agent-Information (Option 82) sub-options.
//
// The original C source packs all three into one integer (header fields
// at >= 256, option codes directly, and (82, sub) via bit-packing). A
// tagged struct keeps the same disjointness without the bit tricks.
type Namespace uint8

const (
	NSHeader   Namespace = iota // fixed BOOTP header fields
	NSOption                    // DHCP options, RFC 2132 and extensions
	NSRelaySub                  // Option 82 sub-options
	NSAuth                      // synthetic companion attributes not on the wire
)

// AttrCode is the invertible, disjoint attribute-code namespace described
// in the data model: header fields, option codes, and Option-82
// sub-options never collide because NS partitions them.
type AttrCode struct {
	NS   Namespace
	Code uint8
}

func (c AttrCode) String() string {
	switch c.NS {
	case NSHeader:
		return headerFieldNames[c.Code]
	case NSRelaySub:
		return "relay-sub"
	case NSAuth:
		return "auth"
	default:
		return "option"
	}
}

// Header field identifiers. There are exactly fourteen named fixed-header
// fields (data model §3); each gets its own AttrCode under NSHeader.
const (
	HdrOp uint8 = iota
	HdrHType
	HdrHLen
	HdrHops
	HdrXID
	HdrSecs
	HdrFlags
	HdrCIAddr
	HdrYIAddr
	HdrSIAddr
	HdrGIAddr
	HdrCHAddr
	HdrSName
	HdrFile
)

var headerFieldNames = [...]string{
	HdrOp:     "op",
	HdrHType:  "htype",
	HdrHLen:   "hlen",
	HdrHops:   "hops",
	HdrXID:    "xid",
	HdrSecs:   "secs",
	HdrFlags:  "flags",
	HdrCIAddr: "ciaddr",
	HdrYIAddr: "yiaddr",
	HdrSIAddr: "siaddr",
	HdrGIAddr: "giaddr",
	HdrCHAddr: "chaddr",
	HdrSName:  "sname",
	HdrFile:   "file",
}

// AttrOpCode, AttrFlags, etc. are the header AttrCodes the rest of the
// codec refers to by name.
var (
	AttrOp     = AttrCode{NSHeader, HdrOp}
	AttrHType  = AttrCode{NSHeader, HdrHType}
	AttrHLen   = AttrCode{NSHeader, HdrHLen}
	AttrHops   = AttrCode{NSHeader, HdrHops}
	AttrXID    = AttrCode{NSHeader, HdrXID}
	AttrSecs   = AttrCode{NSHeader, HdrSecs}
	AttrFlags  = AttrCode{NSHeader, HdrFlags}
	AttrCIAddr = AttrCode{NSHeader, HdrCIAddr}
	AttrYIAddr = AttrCode{NSHeader, HdrYIAddr}
	AttrSIAddr = AttrCode{NSHeader, HdrSIAddr}
	AttrGIAddr = AttrCode{NSHeader, HdrGIAddr}
	AttrCHAddr = AttrCode{NSHeader, HdrCHAddr}
	AttrSName  = AttrCode{NSHeader, HdrSName}
	AttrFile   = AttrCode{NSHeader, HdrFile}
)

// Option attribute codes the codec special-cases by name rather than
// raw numeric literal.
var (
	AttrMessageType   = AttrCode{NSOption, uint8(dhcpv4.OptionDHCPMessageType)}
	AttrVendorClassID = AttrCode{NSOption, uint8(dhcpv4.OptionVendorClassID)}
	AttrInterfaceMTU  = AttrCode{NSOption, uint8(dhcpv4.OptionInterfaceMTU)}
	AttrMaxMsgSize    = AttrCode{NSOption, uint8(dhcpv4.OptionMaxDHCPMessageSize)}
	AttrClientID       = AttrCode{NSOption, uint8(dhcpv4.OptionClientIdentifier)}
	AttrAuthentication = AttrCode{NSOption, uint8(dhcpv4.OptionAuthentication)}
)

// AttrCleartextPassword is a synthetic, never-wire attribute a Policy
// Host may place in the outbound list alongside attribute 90 so the
// Option 90 encoder has a plaintext secret to embed (RFC 3118's
// Configuration Token sub-type). It is never itself serialized.
var AttrCleartextPassword = AttrCode{NSAuth, 0}

// RelayCode builds the AttrCode for an Option 82 sub-option number.
func RelayCode(sub uint8) AttrCode {
	return AttrCode{NSRelaySub, sub}
}
