package trainer

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fenwicklabs/iotwatch/internal/types"
)

func writeIdleCSV(t *testing.T, path string, rows int, period float64) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := csv.NewWriter(f)
	require.NoError(t, w.Write(types.Header()))
	for i := 0; i < rows; i++ {
		var bfv types.BFV
		for j := range bfv.Numeric {
			bfv.Numeric[j] = float64(i%5) + float64(j)*0.1
		}
		bfv.DeviceMAC = "aa:bb:cc:dd:ee:ff"
		bfv.State = "idle"
		bfv.StartTime = float64(i) * period
		bfv.Protocol = "TCP"
		bfv.Hosts = "h.example.com"
		require.NoError(t, w.Write(bfv.Row()))
	}
	w.Flush()
	require.NoError(t, w.Error())
}

func TestTrainStandardizerEndToEnd(t *testing.T) {
	root := t.TempDir()
	paths := Paths{ProjectRoot: root, ModelsRoot: filepath.Join(root, "models")}
	mac := "aa:bb:cc:dd:ee:ff"
	writeIdleCSV(t, paths.IdleCSV(mac), 40, 60)

	require.NoError(t, TrainStandardizer(paths, mac))

	require.FileExists(t, paths.StandardizerModel(mac))
	require.FileExists(t, paths.StdTrainCSV(mac))
	require.FileExists(t, paths.StdTestCSV(mac))
}

func TestInferPeriodicityEndToEnd(t *testing.T) {
	root := t.TempDir()
	paths := Paths{ProjectRoot: root, ModelsRoot: filepath.Join(root, "models")}
	mac := "aa:bb:cc:dd:ee:ff"
	model := "echospot"
	writeIdleCSV(t, paths.IdleCSV(mac), 200, 60)

	require.NoError(t, InferPeriodicity(paths, mac, model, 1.0, 30, 7))

	require.FileExists(t, paths.PeriodicityReport(mac))
	require.FileExists(t, paths.Fingerprint(model))
}

func TestTrainPeriodicFilterEndToEnd(t *testing.T) {
	root := t.TempDir()
	paths := Paths{ProjectRoot: root, ModelsRoot: filepath.Join(root, "models")}
	mac := "aa:bb:cc:dd:ee:ff"
	model := "echospot"
	writeIdleCSV(t, paths.IdleCSV(mac), 200, 60)

	require.NoError(t, TrainStandardizer(paths, mac))
	require.NoError(t, InferPeriodicity(paths, mac, model, 1.0, 30, 7))

	stats, err := TrainPeriodicFilter(paths, mac, model, 5.0, 5)
	require.NoError(t, err)
	for tuple, s := range stats {
		require.GreaterOrEqual(t, s.Kept+s.Periodic, 0, tuple)
	}
}

func TestParseFloatOrZero(t *testing.T) {
	require.Equal(t, 1.5, parseFloatOrZero("1.5"))
	require.Equal(t, 0.0, parseFloatOrZero("not-a-number"))
	require.Equal(t, 0.0, parseFloatOrZero(strconv.Itoa(0)))
}
