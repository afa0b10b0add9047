package dhcp

import (
	"encoding/binary"
	"net"
	"sort"
)

// AttrType is the typed-value tag an Attribute Descriptor resolves a code
// to (data model §3: Attribute Descriptor).
type AttrType uint8

const (
	TypeByte AttrType = iota
	TypeShort
	TypeInteger
	TypeIPAddr
	TypeDate
	TypeString
	TypeOctets
	TypeEthernet
)

// Width returns the fixed wire width of the type, or -1 for variable-width
// types (STRING, OCTETS).
func (t AttrType) Width() int {
	switch t {
	case TypeByte:
		return 1
	case TypeShort:
		return 2
	case TypeInteger, TypeIPAddr, TypeDate:
		return 4
	case TypeEthernet:
		return 6
	default:
		return -1
	}
}

func (t AttrType) String() string {
	switch t {
	case TypeByte:
		return "BYTE"
	case TypeShort:
		return "SHORT"
	case TypeInteger:
		return "INTEGER"
	case TypeIPAddr:
		return "IPADDR"
	case TypeDate:
		return "DATE"
	case TypeString:
		return "STRING"
	case TypeOctets:
		return "OCTETS"
	case TypeEthernet:
		return "ETHERNET"
	default:
		return "UNKNOWN"
	}
}

// Attribute is the Attribute Triple of the data model: a code, a type
// tag, and a payload. Triples are owned by exactly one AttributeList.
type Attribute struct {
	Code  AttrCode
	Type  AttrType
	Value []byte
}

func NewByte(c AttrCode, v uint8) Attribute {
	return Attribute{c, TypeByte, []byte{v}}
}

func NewShort(c AttrCode, v uint16) Attribute {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return Attribute{c, TypeShort, b}
}

func NewInteger(c AttrCode, v uint32) Attribute {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return Attribute{c, TypeInteger, b}
}

func NewIPAddr(c AttrCode, ip net.IP) Attribute {
	ip4 := ip.To4()
	if ip4 == nil {
		ip4 = net.IPv4zero.To4()
	}
	return Attribute{c, TypeIPAddr, append([]byte(nil), ip4...)}
}

func NewEthernet(c AttrCode, mac net.HardwareAddr) Attribute {
	v := make([]byte, 6)
	copy(v, mac)
	return Attribute{c, TypeEthernet, v}
}

func NewString(c AttrCode, s string) Attribute {
	return Attribute{c, TypeString, []byte(s)}
}

func NewOctets(c AttrCode, b []byte) Attribute {
	return Attribute{c, TypeOctets, append([]byte(nil), b...)}
}

func (a Attribute) Byte() uint8 {
	if len(a.Value) < 1 {
		return 0
	}
	return a.Value[0]
}

func (a Attribute) Short() uint16 {
	if len(a.Value) < 2 {
		return 0
	}
	return binary.BigEndian.Uint16(a.Value)
}

func (a Attribute) Integer() uint32 {
	if len(a.Value) < 4 {
		return 0
	}
	return binary.BigEndian.Uint32(a.Value)
}

func (a Attribute) IPAddr() net.IP {
	if len(a.Value) != 4 {
		return nil
	}
	return net.IPv4(a.Value[0], a.Value[1], a.Value[2], a.Value[3])
}

func (a Attribute) Ethernet() net.HardwareAddr {
	if len(a.Value) != 6 {
		return nil
	}
	return net.HardwareAddr(append([]byte(nil), a.Value...))
}

func (a Attribute) String() string {
	return string(a.Value)
}

// AttributeList is the ordered, duplicate-permitting container the
// codec decodes into and encodes from (§4.4: Attribute List). Unlike the
// teacher's map-keyed Options type, order and repeated codes are load
// bearing here: arrays and Option-82 sub-options depend on both.
type AttributeList struct {
	items []Attribute
}

func NewAttributeList() *AttributeList {
	return &AttributeList{}
}

// Append adds an attribute to the end of the list, preserving decode or
// caller insertion order.
func (l *AttributeList) Append(a Attribute) {
	l.items = append(l.items, a)
}

// FindFirst returns the first attribute with the given code, if any.
func (l *AttributeList) FindFirst(code AttrCode) (Attribute, bool) {
	for _, a := range l.items {
		if a.Code == code {
			return a, true
		}
	}
	return Attribute{}, false
}

// FindAll returns every attribute with the given code, in list order.
func (l *AttributeList) FindAll(code AttrCode) []Attribute {
	var out []Attribute
	for _, a := range l.items {
		if a.Code == code {
			out = append(out, a)
		}
	}
	return out
}

// DeleteByCode removes every attribute with the given code.
func (l *AttributeList) DeleteByCode(code AttrCode) {
	kept := l.items[:0]
	for _, a := range l.items {
		if a.Code != code {
			kept = append(kept, a)
		}
	}
	l.items = kept
}

// UpdateFirst replaces the value and type of the first attribute with
// the given code, used by the MTU/MMS clamp policy to coerce a decoded
// value in place. Returns false if no such attribute exists.
func (l *AttributeList) UpdateFirst(code AttrCode, value []byte, typ AttrType) bool {
	for i := range l.items {
		if l.items[i].Code == code {
			l.items[i].Value = value
			l.items[i].Type = typ
			return true
		}
	}
	return false
}

// Has reports whether any attribute with the given code is present.
func (l *AttributeList) Has(code AttrCode) bool {
	_, ok := l.FindFirst(code)
	return ok
}

// Len returns the number of attributes in the list.
func (l *AttributeList) Len() int {
	return len(l.items)
}

// All returns the underlying attributes in list order. Callers must not
// retain the slice past the list's mutation.
func (l *AttributeList) All() []Attribute {
	return l.items
}

// Clone returns a deep copy of the list.
func (l *AttributeList) Clone() *AttributeList {
	out := &AttributeList{items: make([]Attribute, len(l.items))}
	for i, a := range l.items {
		v := append([]byte(nil), a.Value...)
		out.items[i] = Attribute{Code: a.Code, Type: a.Type, Value: v}
	}
	return out
}

// encodeRank assigns the three-way sort priority of §4.3 Encode walk
// step 2: attribute 53 first, attribute 82 last, everything else by
// numeric code.
func encodeRank(a Attribute) (rank int, key uint8) {
	switch {
	case a.Code == AttrMessageType:
		return 0, 0
	case a.Code.NS == NSOption && a.Code.Code == uint8(82):
		return 2, a.Code.Code
	case a.Code.NS == NSRelaySub:
		return 2, a.Code.Code
	default:
		return 1, a.Code.Code
	}
}

// SortForEncode stably reorders the list per the encode-time comparator:
// message-type first, Option-82 (and its sub-options) last, everything
// else non-decreasing by numeric code.
func (l *AttributeList) SortForEncode() {
	sort.SliceStable(l.items, func(i, j int) bool {
		ri, ki := encodeRank(l.items[i])
		rj, kj := encodeRank(l.items[j])
		if ri != rj {
			return ri < rj
		}
		return ki < kj
	})
}
