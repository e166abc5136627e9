// pcap.go reads packets from an offline pcap file and decodes each into a
// types.PacketRecord, for replaying captured traffic through the pipeline
// (e.g. the §8 end-to-end scenarios, or cmd/iotwatchd's --pcap-input flag).
// Follows
// flow-enricher/internal/flow-enricher/pcap_consumer.go (gopacket.NewPacketSource
// over pcap.OpenOfflineFile) and decode.go's layer-by-layer field extraction.
package capture

import (
	"context"
	"fmt"
	"os"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/gopacket/gopacket/pcap"

	"github.com/fenwicklabs/iotwatch/internal/registry"
	"github.com/fenwicklabs/iotwatch/internal/types"
)

// PacketSink receives a decoded packet record, typically
// Orchestrator.OnPacket.
type PacketSink func(types.PacketRecord)

// ReplayPcapFile decodes every packet in path and calls sink for each one
// that carries a TCP or UDP transport layer. hostnames resolves each
// endpoint's hostname out of band (§5: DNS resolution never happens on the
// hot path itself); a nil resolver leaves hostnames empty.
func ReplayPcapFile(ctx context.Context, path string, hostnames registry.HostnameResolver, sink PacketSink) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("replay pcap %s: %w", path, err)
	}
	defer f.Close()

	handle, err := pcap.OpenOfflineFile(f)
	if err != nil {
		return fmt.Errorf("replay pcap %s: %w", path, err)
	}
	defer handle.Close()

	source := gopacket.NewPacketSource(handle, handle.LinkType())
	for packet := range source.Packets() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rec, ok := decodePacket(packet, hostnames)
		if !ok {
			continue
		}
		sink(rec)
	}
	return nil
}

func decodePacket(packet gopacket.Packet, hostnames registry.HostnameResolver) (types.PacketRecord, bool) {
	var rec types.PacketRecord
	rec.Timestamp = float64(packet.Metadata().Timestamp.UnixNano()) / 1e9
	rec.Length = packet.Metadata().Length

	if ethLayer := packet.Layer(layers.LayerTypeEthernet); ethLayer != nil {
		eth, _ := ethLayer.(*layers.Ethernet)
		rec.L2Src = eth.SrcMAC
		rec.L2Dst = eth.DstMAC
	}

	if ipLayer := packet.Layer(layers.LayerTypeIPv4); ipLayer != nil {
		ip, _ := ipLayer.(*layers.IPv4)
		rec.L3Src = ip.SrcIP
		rec.L3Dst = ip.DstIP
	} else if ip6Layer := packet.Layer(layers.LayerTypeIPv6); ip6Layer != nil {
		ip6, _ := ip6Layer.(*layers.IPv6)
		rec.L3Src = ip6.SrcIP
		rec.L3Dst = ip6.DstIP
	} else {
		return rec, false
	}

	switch {
	case packet.Layer(layers.LayerTypeTCP) != nil:
		tcp, _ := packet.Layer(layers.LayerTypeTCP).(*layers.TCP)
		rec.L4Src = int(tcp.SrcPort)
		rec.L4Dst = int(tcp.DstPort)
		rec.TransportProto = types.TransportTCP
	case packet.Layer(layers.LayerTypeUDP) != nil:
		udp, _ := packet.Layer(layers.LayerTypeUDP).(*layers.UDP)
		rec.L4Src = int(udp.SrcPort)
		rec.L4Dst = int(udp.DstPort)
		rec.TransportProto = types.TransportUDP
	default:
		return rec, false
	}

	rec.AppProto = highestLayerTag(packet)

	if hostnames != nil {
		rec.SrcHostname = hostnames.Resolve(rec.L3Src)
		rec.DstHostname = hostnames.Resolve(rec.L3Dst)
	}

	return rec, true
}

// highestLayerTag maps a handful of well-known application ports/layers to
// the protocol tag §3 calls for ("highest-layer protocol tag"). gopacket
// doesn't itself classify DNS/MDNS/NTP/SSDP/DHCP from raw UDP payloads
// without a dedicated decoder per protocol, so this sticks to the layers
// gopacket/layers classifies directly; anything else yields "" (folded to
// {TCP}/{UDP} downstream per §3).
func highestLayerTag(packet gopacket.Packet) string {
	if packet.Layer(layers.LayerTypeDNS) != nil {
		return "DNS"
	}
	if packet.Layer(layers.LayerTypeTLS) != nil {
		return "TLS"
	}
	return ""
}
