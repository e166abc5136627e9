package types

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsBroadcastDetectsMACAndIPBroadcast(t *testing.T) {
	require.True(t, IsBroadcast(net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, nil))
	require.True(t, IsBroadcast(nil, net.IPv4(255, 255, 255, 255)))
	require.False(t, IsBroadcast(net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}, net.ParseIP("10.0.0.1")))
}

func TestValidIPRejectsNilAndAccepsV4V6(t *testing.T) {
	require.False(t, ValidIP(nil))
	require.True(t, ValidIP(net.ParseIP("10.0.0.1")))
	require.True(t, ValidIP(net.ParseIP("2001:db8::1")))
}

func TestIsPrivateCoversRFC1918AndLoopback(t *testing.T) {
	require.True(t, IsPrivate(net.ParseIP("10.1.2.3")))
	require.True(t, IsPrivate(net.ParseIP("172.16.0.5")))
	require.True(t, IsPrivate(net.ParseIP("192.168.1.1")))
	require.True(t, IsPrivate(net.ParseIP("127.0.0.1")))
	require.False(t, IsPrivate(net.ParseIP("93.184.216.34")))
	require.False(t, IsPrivate(nil))
}

func TestNormalizeDirectionPicksThePrivateSideAsA(t *testing.T) {
	peerAIP, peerAPort, peerBIP, peerBPort, srcIsA := NormalizeDirection(
		net.ParseIP("10.0.0.5"), 54321, net.ParseIP("93.184.216.34"), 443)
	require.Equal(t, "10.0.0.5", peerAIP.String())
	require.Equal(t, 54321, peerAPort)
	require.Equal(t, "93.184.216.34", peerBIP.String())
	require.Equal(t, 443, peerBPort)
	require.True(t, srcIsA)

	peerAIP, _, peerBIP, _, srcIsA = NormalizeDirection(
		net.ParseIP("93.184.216.34"), 443, net.ParseIP("10.0.0.5"), 54321)
	require.Equal(t, "10.0.0.5", peerAIP.String())
	require.Equal(t, "93.184.216.34", peerBIP.String())
	require.False(t, srcIsA)
}

func TestNormalizeDirectionBothPrivateUsesSmallerIP(t *testing.T) {
	peerAIP, _, peerBIP, _, srcIsA := NormalizeDirection(
		net.ParseIP("10.0.0.9"), 1, net.ParseIP("10.0.0.2"), 2)
	require.Equal(t, "10.0.0.2", peerAIP.String())
	require.Equal(t, "10.0.0.9", peerBIP.String())
	require.False(t, srcIsA)
}

func TestIsExternalDiffersOnlyWhenOneSideIsPrivate(t *testing.T) {
	require.True(t, IsExternal(net.ParseIP("10.0.0.1"), net.ParseIP("93.184.216.34")))
	require.False(t, IsExternal(net.ParseIP("10.0.0.1"), net.ParseIP("10.0.0.2")))
	require.False(t, IsExternal(net.ParseIP("93.184.216.34"), net.ParseIP("8.8.8.8")))
}
