// Package types defines the data model shared across the behavioral traffic
// pipeline: packet records, flow keys, bursts, and the numeric feature
// vectors (BFV/SBFV) derived from them.
package types

import (
	"net"
	"strconv"
)

// NumericFeatureCount is the number of order-significant numeric columns in
// a BFV/SBFV. TailFieldCount is the number of trailing descriptive columns.
const (
	NumericFeatureCount = 22
	TailFieldCount      = 6
	TotalColumnCount    = NumericFeatureCount + TailFieldCount
)

// FeatureNames lists the 22 numeric BFV columns in order. Used for CSV
// headers and for zipping named features into a standardizer input row.
var FeatureNames = [NumericFeatureCount]string{
	"meanBytes", "minBytes", "maxBytes", "medAbsDev",
	"skewLength", "kurtosisLength",
	"meanTBP", "varTBP", "medianTBP", "kurtosisTBP", "skewTBP",
	"network_total", "network_in", "network_out", "network_external", "network_local",
	"network_in_local", "network_out_local",
	"meanBytes_out_external", "meanBytes_in_external",
	"meanBytes_out_local", "meanBytes_in_local",
}

// TailFieldNames lists the 6 trailing descriptive columns in order.
var TailFieldNames = [TailFieldCount]string{
	"device_mac", "state", "event", "start_time", "protocol", "hosts",
}

// PacketRecord is the ephemeral representation of one observed packet.
// Hostnames are resolved by an external cache and attached before the
// record reaches the burst assembler.
type PacketRecord struct {
	Timestamp     float64 // seconds
	Length        int     // bytes
	L2Src, L2Dst  net.HardwareAddr
	L3Src, L3Dst  net.IP
	L4Src, L4Dst  int
	TransportProto TransportProto
	AppProto       string // highest-layer protocol tag, e.g. "DNS", "" if none
	SrcHostname    string
	DstHostname    string
}

// TransportProto enumerates the transport-layer protocols the assembler
// accepts. All other protocols are rejected before keying.
type TransportProto int

const (
	TransportUnknown TransportProto = iota
	TransportTCP
	TransportUDP
)

func (p TransportProto) String() string {
	switch p {
	case TransportTCP:
		return "tcp"
	case TransportUDP:
		return "udp"
	default:
		return "unknown"
	}
}

// FlowKey is the 6-tuple identifying a directional flow, with the device
// side normalized to "A" per §3.
type FlowKey struct {
	Proto      TransportProto
	PeerAIP    string
	PeerAPort  int
	PeerBIP    string
	PeerBPort  int
	DeviceMAC  string
}

// BFV is the 28-column Burst Feature Vector: 22 numeric features, in
// FeatureNames order, plus 6 tail fields.
type BFV struct {
	Numeric [NumericFeatureCount]float64

	DeviceMAC string
	State     string
	Event     string
	StartTime float64
	Protocol  string
	Hosts     string
}

// SBFV is a BFV whose numeric part has been passed through the device's
// standardizer. Tail fields are preserved verbatim.
type SBFV struct {
	Numeric [NumericFeatureCount]float64

	DeviceMAC string
	State     string
	Event     string
	StartTime float64
	Protocol  string
	Hosts     string
}

// Row returns the 28 columns of a BFV in on-disk order, as used by the idle
// CSV recorder and the standardizer fit trainer.
func (b *BFV) Row() []string {
	out := make([]string, 0, TotalColumnCount)
	for _, v := range b.Numeric {
		out = append(out, formatFloat(v))
	}
	out = append(out, b.DeviceMAC, b.State, b.Event, formatFloat(b.StartTime), b.Protocol, b.Hosts)
	return out
}

// Header returns the 28 column names in on-disk order.
func Header() []string {
	out := make([]string, 0, TotalColumnCount)
	out = append(out, FeatureNames[:]...)
	out = append(out, TailFieldNames[:]...)
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
