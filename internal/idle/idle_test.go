package idle

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fenwicklabs/iotwatch/internal/types"
)

func TestRecorderSkipsNonIdleDevices(t *testing.T) {
	dir := t.TempDir()
	idleSet := NewMemoryIdleSet()
	r := NewRecorder(dir, idleSet, nil)

	err := r.Record(types.BFV{DeviceMAC: "aa:bb"})
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "aa:bb.csv"))
	require.True(t, os.IsNotExist(statErr))
}

func TestRecorderWritesHeaderOnFirstWrite(t *testing.T) {
	dir := t.TempDir()
	idleSet := NewMemoryIdleSet("aa:bb")
	r := NewRecorder(dir, idleSet, nil)

	require.NoError(t, r.Record(types.BFV{DeviceMAC: "aa:bb", Protocol: "TCP"}))
	require.NoError(t, r.Record(types.BFV{DeviceMAC: "aa:bb", Protocol: "UDP"}))

	f, err := os.Open(filepath.Join(dir, "aa:bb.csv"))
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3) // header + 2 rows
	require.Equal(t, types.Header(), rows[0])
}

func TestJSONIdleSetPersistsAcrossLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idle.json")
	s, err := LoadJSONIdleSet(path)
	require.NoError(t, err)
	require.NoError(t, s.SetIdle("aa:bb", true))

	reloaded, err := LoadJSONIdleSet(path)
	require.NoError(t, err)
	require.True(t, reloaded.IsIdle("aa:bb"))
}
