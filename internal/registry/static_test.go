package registry

import (
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadStaticDeviceRegistryReadsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"aa:bb:cc:dd:ee:ff":"EchoDot4B"}`), 0o644))

	reg, err := LoadStaticDeviceRegistry(path)
	require.NoError(t, err)

	name, ok := reg.Lookup("aa:bb:cc:dd:ee:ff")
	require.True(t, ok)
	require.Equal(t, "EchoDot4B", name)

	_, ok = reg.Lookup("unknown")
	require.False(t, ok)
}

func TestLoadStaticDeviceRegistryEmptyPathYieldsEmptyRegistry(t *testing.T) {
	reg, err := LoadStaticDeviceRegistry("")
	require.NoError(t, err)
	require.Empty(t, reg.MACs())
}

func TestStaticDeviceRegistrySetAndLocalMACs(t *testing.T) {
	reg, err := LoadStaticDeviceRegistry("")
	require.NoError(t, err)

	reg.Set("aa:bb", "Product")
	name, ok := reg.Lookup("aa:bb")
	require.True(t, ok)
	require.Equal(t, "Product", name)
	require.ElementsMatch(t, []string{"aa:bb"}, reg.LocalMACs())
}

func TestLoadStaticARPCacheReadsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arp.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"192.168.1.5":"aa:bb:cc:dd:ee:ff"}`), 0o644))

	cache, err := LoadStaticARPCache(path)
	require.NoError(t, err)

	mac, ok := cache.GetMACAddr(net.ParseIP("192.168.1.5"))
	require.True(t, ok)
	require.Equal(t, "aa:bb:cc:dd:ee:ff", mac)
}

func TestLoadStaticARPCacheEmptyPathYieldsEmptyCache(t *testing.T) {
	cache, err := LoadStaticARPCache("")
	require.NoError(t, err)

	_, ok := cache.GetMACAddr(net.ParseIP("10.0.0.1"))
	require.False(t, ok)
}

func TestNullHostnameResolverAlwaysEmpty(t *testing.T) {
	var r NullHostnameResolver
	require.Equal(t, "", r.Resolve(net.ParseIP("8.8.8.8")))
}
