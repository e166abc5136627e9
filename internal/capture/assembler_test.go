package capture

import (
	"net"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/fenwicklabs/iotwatch/internal/metrics"
	"github.com/fenwicklabs/iotwatch/internal/pipeline"
	"github.com/fenwicklabs/iotwatch/internal/types"
)

type fakeARP struct {
	macs map[string]string
}

func (f *fakeARP) GetMACAddr(ip net.IP) (string, bool) {
	mac, ok := f.macs[ip.String()]
	return mac, ok
}

func newTestAssembler(t *testing.T) (*Assembler, *pipeline.Queue[types.BFV]) {
	t.Helper()
	out := pipeline.NewQueue[types.BFV](16)
	m := metrics.NewAssemblerMetrics(prometheus.NewRegistry())
	arp := &fakeARP{macs: map[string]string{"10.0.0.5": "aa:bb:cc:dd:ee:ff"}}
	a := NewAssembler(arp, out, m, WithBurstWindowSeconds(1.0))
	return a, out
}

func tcpPacket(ts float64, length int, srcIP, dstIP string, srcPort, dstPort int) types.PacketRecord {
	return types.PacketRecord{
		Timestamp:      ts,
		Length:         length,
		L2Src:          net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		L2Dst:          net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x66},
		L3Src:          net.ParseIP(srcIP),
		L3Dst:          net.ParseIP(dstIP),
		L4Src:          srcPort,
		L4Dst:          dstPort,
		TransportProto: types.TransportTCP,
	}
}

func TestSingletonBurstIsDiscarded(t *testing.T) {
	a, out := newTestAssembler(t)
	a.OnPacket(tcpPacket(0.0, 100, "10.0.0.5", "8.8.8.8", 443, 55123))
	a.Sweep(10.0)
	_, ok := out.TryGet()
	require.False(t, ok, "a single-packet burst must never be emitted")
}

func TestDirectionNormalizationMergesBothSidesIntoOneBurst(t *testing.T) {
	a, out := newTestAssembler(t)
	a.OnPacket(tcpPacket(0.0, 100, "10.0.0.5", "8.8.8.8", 443, 55123))
	a.OnPacket(tcpPacket(0.1, 200, "8.8.8.8", "10.0.0.5", 55123, 443))
	a.Sweep(10.0)

	bfv, ok := out.TryGet()
	require.True(t, ok, "expected one burst emitted")
	require.Equal(t, 2.0, bfv.Numeric[11], "network_total")
	require.Equal(t, 1.0, bfv.Numeric[12], "network_in")
	require.Equal(t, 1.0, bfv.Numeric[13], "network_out")
}

func TestBurstSealedOnWindowExpiry(t *testing.T) {
	a, out := newTestAssembler(t)
	a.OnPacket(tcpPacket(0.0, 100, "10.0.0.5", "8.8.8.8", 443, 1))
	a.OnPacket(tcpPacket(0.5, 100, "10.0.0.5", "8.8.8.8", 443, 1))
	// Arriving 1.6s after t0 exceeds the 1s window and should seal the prior
	// burst before starting a new one.
	a.OnPacket(tcpPacket(1.6, 100, "10.0.0.5", "8.8.8.8", 443, 1))

	bfv, ok := out.TryGet()
	require.True(t, ok)
	require.Equal(t, 2.0, bfv.Numeric[11])
}

func TestBroadcastPacketRejected(t *testing.T) {
	a, out := newTestAssembler(t)
	pkt := tcpPacket(0.0, 100, "10.0.0.5", "255.255.255.255", 443, 1)
	a.OnPacket(pkt)
	a.OnPacket(pkt)
	a.Sweep(10.0)
	_, ok := out.TryGet()
	require.False(t, ok)
}
