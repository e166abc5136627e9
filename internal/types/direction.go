package types

import "net"

var (
	broadcastMAC = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	broadcastIP4 = net.IPv4(255, 255, 255, 255)
)

// IsBroadcast reports whether dst represents a link or IP broadcast
// destination, which the assembler rejects outright (§4.1).
func IsBroadcast(dstMAC net.HardwareAddr, dstIP net.IP) bool {
	if len(dstMAC) > 0 && dstMAC.String() == broadcastMAC.String() {
		return true
	}
	if dstIP != nil && dstIP.Equal(broadcastIP4) {
		return true
	}
	return false
}

// ValidIP reports whether ip parses as a usable address; invalid IPs cause
// the packet to be dropped before keying (§3).
func ValidIP(ip net.IP) bool {
	return ip != nil && (ip.To4() != nil || ip.To16() != nil)
}

// IsPrivate reports whether ip falls in an RFC1918/ULA private range.
func IsPrivate(ip net.IP) bool {
	if ip == nil {
		return false
	}
	privateBlocks := []string{
		"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16", "127.0.0.0/8",
		"fc00::/7", "::1/128",
	}
	for _, cidr := range privateBlocks {
		_, block, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		if block.Contains(ip) {
			return true
		}
	}
	return false
}

// NormalizeDirection decides which side of a packet is the "device side"
// (peer A) per §3: if exactly one side is private, that side is A; if both
// are private, the side with the numerically smaller IP is A.
//
// It returns the ordered pair (peerA, peerB) of (ip, port), swapped from
// (srcIP, srcPort) / (dstIP, dstPort) as needed, and true if the direction
// places the src side as peer A (i.e. this packet is "outbound" from the
// device's perspective).
func NormalizeDirection(srcIP net.IP, srcPort int, dstIP net.IP, dstPort int) (peerAIP net.IP, peerAPort int, peerBIP net.IP, peerBPort int, srcIsA bool) {
	srcPrivate := IsPrivate(srcIP)
	dstPrivate := IsPrivate(dstIP)

	switch {
	case srcPrivate && !dstPrivate:
		return srcIP, srcPort, dstIP, dstPort, true
	case dstPrivate && !srcPrivate:
		return dstIP, dstPort, srcIP, srcPort, false
	case srcPrivate && dstPrivate:
		if compareIP(srcIP, dstIP) <= 0 {
			return srcIP, srcPort, dstIP, dstPort, true
		}
		return dstIP, dstPort, srcIP, srcPort, false
	default:
		// Neither side is private (e.g. both public): fall back to src as A,
		// matching the "assume gateway" default of the original packet
		// processor when no local side can be identified.
		return srcIP, srcPort, dstIP, dstPort, true
	}
}

func compareIP(a, b net.IP) int {
	a4, b4 := a.To4(), b.To4()
	if a4 != nil && b4 != nil {
		for i := range a4 {
			if a4[i] != b4[i] {
				if a4[i] < b4[i] {
					return -1
				}
				return 1
			}
		}
		return 0
	}
	// Mixed or IPv6: compare the 16-byte form.
	a16, b16 := a.To16(), b.To16()
	for i := 0; i < len(a16) && i < len(b16); i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// IsExternal reports whether traffic crossing between a (presumed device)
// peer and the other peer is "external" (private<->public) vs "local"
// (both endpoints private).
func IsExternal(peerAIP, peerBIP net.IP) bool {
	return IsPrivate(peerAIP) != IsPrivate(peerBIP)
}
