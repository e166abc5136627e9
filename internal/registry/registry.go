// Package registry declares the external collaborator interfaces named in
// spec.md §1/§6: the device registry, the hostname resolver, and the ARP
// cache. These surfaces are out of scope to implement (they are owned by
// the packet-capture driver and device-management layers that sit outside
// this pipeline); the pipeline only ever consumes them through these
// interfaces.
package registry

import "net"

// DeviceRegistry resolves a MAC address to an operator-entered device
// product name. A miss (ok=false) means the device is unknown and the
// pipeline emits "unknown" per spec.md §1's Non-goals.
type DeviceRegistry interface {
	Lookup(mac string) (productName string, ok bool)
}

// HostnameResolver resolves an IP to a hostname, returning "" when no
// hostname is known. Must not block on DNS (§5: "DNS resolution... [is] not
// performed inside the core") — implementations are expected to be a cache
// populated out-of-band.
type HostnameResolver interface {
	Resolve(ip net.IP) string
}

// ARPCache maps an IP address to the real device MAC address observed on
// the LAN, used to recover the true device MAC when packets are captured
// from an observer host (e.g. a gateway) whose own L2 address would
// otherwise be mistaken for the device's.
type ARPCache interface {
	GetMACAddr(ip net.IP) (mac string, ok bool)
}

// IdleGate reports whether the core is in "is_inspecting" mode, the
// operator-visible pause gate of §5. When false, producers drop enqueues
// silently instead of blocking.
type IdleGate interface {
	IsInspecting() bool
}
