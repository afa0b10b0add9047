package dhcp

import "github.com/dhcpradiusd/dhcpradiusd/pkg/dhcpv4"

// Descriptor is the Attribute Descriptor of the data model: a dictionary
// resolves a numeric option code to a name, a type tag, and whether the
// option packs an array of same-typed values.
type Descriptor struct {
	Code  uint8
	Name  string
	Type  AttrType
	Array bool
}

// Dictionary maps an option code to its Descriptor. Absent entries are
// not an error; the Option Codec skips option codes the dictionary does
// not recognize (§4.3, §6 Dictionary contract).
type Dictionary interface {
	Lookup(code uint8) (Descriptor, bool)
}

// staticDictionary is a read-only map built once and shared by every
// request; concurrent Lookup calls are safe because nothing ever
// mutates it after construction (§5 Concurrency & Resource Model).
type staticDictionary struct {
	entries map[uint8]Descriptor
}

func (d *staticDictionary) Lookup(code uint8) (Descriptor, bool) {
	desc, ok := d.entries[code]
	return desc, ok
}

// NewDefaultDictionary returns the built-in RFC 2132 option table.
func NewDefaultDictionary() Dictionary {
	return &staticDictionary{entries: defaultDescriptors}
}

// OverlayDictionary lets a secondary source of descriptors (e.g. a
// persisted vendor-option override store) take priority over the base
// table without mutating it.
type OverlayDictionary struct {
	Base     Dictionary
	Override Dictionary
}

func (d OverlayDictionary) Lookup(code uint8) (Descriptor, bool) {
	if d.Override != nil {
		if desc, ok := d.Override.Lookup(code); ok {
			return desc, true
		}
	}
	return d.Base.Lookup(code)
}

var defaultDescriptors = map[uint8]Descriptor{
	uint8(dhcpv4.OptionSubnetMask):             {uint8(dhcpv4.OptionSubnetMask), "Subnet-Mask", TypeIPAddr, false},
	uint8(dhcpv4.OptionTimeOffset):             {uint8(dhcpv4.OptionTimeOffset), "Time-Offset", TypeInteger, false},
	uint8(dhcpv4.OptionRouter):                 {uint8(dhcpv4.OptionRouter), "Router", TypeIPAddr, true},
	uint8(dhcpv4.OptionTimeServer):             {uint8(dhcpv4.OptionTimeServer), "Time-Server", TypeIPAddr, true},
	uint8(dhcpv4.OptionNameServer):             {uint8(dhcpv4.OptionNameServer), "Name-Server", TypeIPAddr, true},
	uint8(dhcpv4.OptionDomainNameServer):       {uint8(dhcpv4.OptionDomainNameServer), "Domain-Name-Server", TypeIPAddr, true},
	uint8(dhcpv4.OptionLogServer):              {uint8(dhcpv4.OptionLogServer), "Log-Server", TypeIPAddr, true},
	uint8(dhcpv4.OptionCookieServer):           {uint8(dhcpv4.OptionCookieServer), "Cookie-Server", TypeIPAddr, true},
	uint8(dhcpv4.OptionLPRServer):              {uint8(dhcpv4.OptionLPRServer), "LPR-Server", TypeIPAddr, true},
	uint8(dhcpv4.OptionImpressServer):          {uint8(dhcpv4.OptionImpressServer), "Impress-Server", TypeIPAddr, true},
	uint8(dhcpv4.OptionResourceLocationServer): {uint8(dhcpv4.OptionResourceLocationServer), "Resource-Location-Server", TypeIPAddr, true},
	uint8(dhcpv4.OptionHostname):               {uint8(dhcpv4.OptionHostname), "Host-Name", TypeString, false},
	uint8(dhcpv4.OptionBootFileSize):           {uint8(dhcpv4.OptionBootFileSize), "Boot-File-Size", TypeShort, false},
	uint8(dhcpv4.OptionMeritDumpFile):          {uint8(dhcpv4.OptionMeritDumpFile), "Merit-Dump-File", TypeString, false},
	uint8(dhcpv4.OptionDomainName):             {uint8(dhcpv4.OptionDomainName), "Domain-Name", TypeString, false},
	uint8(dhcpv4.OptionSwapServer):             {uint8(dhcpv4.OptionSwapServer), "Swap-Server", TypeIPAddr, false},
	uint8(dhcpv4.OptionRootPath):               {uint8(dhcpv4.OptionRootPath), "Root-Path", TypeString, false},
	uint8(dhcpv4.OptionExtensionsPath):         {uint8(dhcpv4.OptionExtensionsPath), "Extensions-Path", TypeString, false},
	uint8(dhcpv4.OptionIPForwarding):           {uint8(dhcpv4.OptionIPForwarding), "IP-Forwarding", TypeByte, false},
	uint8(dhcpv4.OptionNonLocalSourceRouting):  {uint8(dhcpv4.OptionNonLocalSourceRouting), "Non-Local-Source-Routing", TypeByte, false},
	uint8(dhcpv4.OptionPolicyFilter):           {uint8(dhcpv4.OptionPolicyFilter), "Policy-Filter", TypeIPAddr, true},
	uint8(dhcpv4.OptionMaxDatagramReassembly):  {uint8(dhcpv4.OptionMaxDatagramReassembly), "Max-Datagram-Reassembly", TypeShort, false},
	uint8(dhcpv4.OptionDefaultIPTTL):           {uint8(dhcpv4.OptionDefaultIPTTL), "Default-IP-TTL", TypeByte, false},
	uint8(dhcpv4.OptionPathMTUAgingTimeout):    {uint8(dhcpv4.OptionPathMTUAgingTimeout), "Path-MTU-Aging-Timeout", TypeInteger, false},
	uint8(dhcpv4.OptionPathMTUPlateauTable):    {uint8(dhcpv4.OptionPathMTUPlateauTable), "Path-MTU-Plateau-Table", TypeShort, true},
	uint8(dhcpv4.OptionInterfaceMTU):           {uint8(dhcpv4.OptionInterfaceMTU), "Interface-MTU", TypeShort, false},
	uint8(dhcpv4.OptionAllSubnetsLocal):        {uint8(dhcpv4.OptionAllSubnetsLocal), "All-Subnets-Local", TypeByte, false},
	uint8(dhcpv4.OptionBroadcastAddress):       {uint8(dhcpv4.OptionBroadcastAddress), "Broadcast-Address", TypeIPAddr, false},
	uint8(dhcpv4.OptionPerformMaskDiscovery):   {uint8(dhcpv4.OptionPerformMaskDiscovery), "Perform-Mask-Discovery", TypeByte, false},
	uint8(dhcpv4.OptionMaskSupplier):           {uint8(dhcpv4.OptionMaskSupplier), "Mask-Supplier", TypeByte, false},
	uint8(dhcpv4.OptionPerformRouterDiscovery): {uint8(dhcpv4.OptionPerformRouterDiscovery), "Perform-Router-Discovery", TypeByte, false},
	uint8(dhcpv4.OptionRouterSolicitAddr):      {uint8(dhcpv4.OptionRouterSolicitAddr), "Router-Solicitation-Address", TypeIPAddr, false},
	uint8(dhcpv4.OptionStaticRoute):            {uint8(dhcpv4.OptionStaticRoute), "Static-Route", TypeIPAddr, true},
	uint8(dhcpv4.OptionTrailerEncapsulation):   {uint8(dhcpv4.OptionTrailerEncapsulation), "Trailer-Encapsulation", TypeByte, false},
	uint8(dhcpv4.OptionARPCacheTimeout):        {uint8(dhcpv4.OptionARPCacheTimeout), "ARP-Cache-Timeout", TypeInteger, false},
	uint8(dhcpv4.OptionEthernetEncapsulation):  {uint8(dhcpv4.OptionEthernetEncapsulation), "Ethernet-Encapsulation", TypeByte, false},
	uint8(dhcpv4.OptionTCPDefaultTTL):          {uint8(dhcpv4.OptionTCPDefaultTTL), "TCP-Default-TTL", TypeByte, false},
	uint8(dhcpv4.OptionTCPKeepaliveInterval):   {uint8(dhcpv4.OptionTCPKeepaliveInterval), "TCP-Keepalive-Interval", TypeInteger, false},
	uint8(dhcpv4.OptionTCPKeepaliveGarbage):    {uint8(dhcpv4.OptionTCPKeepaliveGarbage), "TCP-Keepalive-Garbage", TypeByte, false},
	uint8(dhcpv4.OptionNISDomain):              {uint8(dhcpv4.OptionNISDomain), "NIS-Domain", TypeString, false},
	uint8(dhcpv4.OptionNISServers):             {uint8(dhcpv4.OptionNISServers), "NIS-Servers", TypeIPAddr, true},
	uint8(dhcpv4.OptionNTPServers):             {uint8(dhcpv4.OptionNTPServers), "NTP-Servers", TypeIPAddr, true},
	uint8(dhcpv4.OptionVendorSpecific):         {uint8(dhcpv4.OptionVendorSpecific), "Vendor-Specific", TypeOctets, false},
	uint8(dhcpv4.OptionNetBIOSNameServer):      {uint8(dhcpv4.OptionNetBIOSNameServer), "NetBIOS-Name-Server", TypeIPAddr, true},
	uint8(dhcpv4.OptionNetBIOSDatagramDist):    {uint8(dhcpv4.OptionNetBIOSDatagramDist), "NetBIOS-Datagram-Dist-Server", TypeIPAddr, true},
	uint8(dhcpv4.OptionNetBIOSNodeType):        {uint8(dhcpv4.OptionNetBIOSNodeType), "NetBIOS-Node-Type", TypeByte, false},
	uint8(dhcpv4.OptionNetBIOSScope):           {uint8(dhcpv4.OptionNetBIOSScope), "NetBIOS-Scope", TypeString, false},
	uint8(dhcpv4.OptionXWindowFontServer):      {uint8(dhcpv4.OptionXWindowFontServer), "X-Window-Font-Server", TypeIPAddr, true},
	uint8(dhcpv4.OptionXWindowDisplayManager):  {uint8(dhcpv4.OptionXWindowDisplayManager), "X-Window-Display-Manager", TypeIPAddr, true},
	uint8(dhcpv4.OptionRequestedIP):            {uint8(dhcpv4.OptionRequestedIP), "Requested-IP-Address", TypeIPAddr, false},
	uint8(dhcpv4.OptionIPLeaseTime):            {uint8(dhcpv4.OptionIPLeaseTime), "IP-Address-Lease-Time", TypeInteger, false},
	uint8(dhcpv4.OptionOverload):               {uint8(dhcpv4.OptionOverload), "Option-Overload", TypeByte, false},
	uint8(dhcpv4.OptionDHCPMessageType):        {uint8(dhcpv4.OptionDHCPMessageType), "DHCP-Message-Type", TypeByte, false},
	uint8(dhcpv4.OptionServerIdentifier):       {uint8(dhcpv4.OptionServerIdentifier), "Server-Identifier", TypeIPAddr, false},
	uint8(dhcpv4.OptionParameterRequestList):   {uint8(dhcpv4.OptionParameterRequestList), "Parameter-Request-List", TypeByte, true},
	uint8(dhcpv4.OptionMessage):                {uint8(dhcpv4.OptionMessage), "Message", TypeString, false},
	uint8(dhcpv4.OptionMaxDHCPMessageSize):     {uint8(dhcpv4.OptionMaxDHCPMessageSize), "Maximum-DHCP-Message-Size", TypeShort, false},
	uint8(dhcpv4.OptionRenewalTime):            {uint8(dhcpv4.OptionRenewalTime), "Renewal-Time", TypeInteger, false},
	uint8(dhcpv4.OptionRebindingTime):          {uint8(dhcpv4.OptionRebindingTime), "Rebinding-Time", TypeInteger, false},
	uint8(dhcpv4.OptionVendorClassID):          {uint8(dhcpv4.OptionVendorClassID), "Vendor-Class-Identifier", TypeString, false},
	uint8(dhcpv4.OptionClientIdentifier):       {uint8(dhcpv4.OptionClientIdentifier), "Client-Identifier", TypeOctets, false},
	uint8(dhcpv4.OptionTFTPServerName):         {uint8(dhcpv4.OptionTFTPServerName), "TFTP-Server-Name", TypeString, false},
	uint8(dhcpv4.OptionBootfileName):           {uint8(dhcpv4.OptionBootfileName), "Bootfile-Name", TypeString, false},
	uint8(dhcpv4.OptionUserClass):              {uint8(dhcpv4.OptionUserClass), "User-Class", TypeOctets, false},
	uint8(dhcpv4.OptionClientFQDN):             {uint8(dhcpv4.OptionClientFQDN), "Client-FQDN", TypeOctets, false},
	uint8(dhcpv4.OptionRelayAgentInfo):         {uint8(dhcpv4.OptionRelayAgentInfo), "Relay-Agent-Information", TypeOctets, false},
	uint8(dhcpv4.OptionAuthentication):         {uint8(dhcpv4.OptionAuthentication), "Authentication", TypeOctets, false},
	uint8(dhcpv4.OptionSubnetSelection):        {uint8(dhcpv4.OptionSubnetSelection), "Subnet-Selection", TypeIPAddr, false},
	uint8(dhcpv4.OptionClasslessStaticRoute):   {uint8(dhcpv4.OptionClasslessStaticRoute), "Classless-Static-Route", TypeOctets, false},
	uint8(dhcpv4.OptionTFTPServerAddress):      {uint8(dhcpv4.OptionTFTPServerAddress), "TFTP-Server-Address", TypeIPAddr, false},
}

// relayDescriptors resolves Option-82 sub-option codes the same way the
// top-level dictionary resolves option codes.
var relayDescriptors = map[uint8]Descriptor{
	dhcpv4.RelaySubOptionCircuitID:  {dhcpv4.RelaySubOptionCircuitID, "Agent-Circuit-ID", TypeOctets, false},
	dhcpv4.RelaySubOptionRemoteID:   {dhcpv4.RelaySubOptionRemoteID, "Agent-Remote-ID", TypeOctets, false},
	dhcpv4.RelaySubOptionLinkSelect: {dhcpv4.RelaySubOptionLinkSelect, "Link-Selection", TypeIPAddr, false},
}

func lookupRelaySub(sub uint8) (Descriptor, bool) {
	d, ok := relayDescriptors[sub]
	if !ok {
		return Descriptor{Code: sub, Name: "relay-sub-unknown", Type: TypeOctets}, true
	}
	return d, ok
}
