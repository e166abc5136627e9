// Package idle implements the Idle Recorder side channel (spec.md §4.5):
// appending raw BFVs for operator-marked idle devices to per-device CSVs,
// plus the supplemented is_device_idle persistence
// (original_source/core/utils.py, SPEC_FULL.md feature 5) and gzip
// rotation of the accumulated archives.
package idle

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fenwicklabs/iotwatch/internal/metrics"
	"github.com/fenwicklabs/iotwatch/internal/types"
)

// IdleSet reports whether a device MAC is currently marked idle. Modeled
// as an interface so either an in-memory set (tests) or a JSON-backed one
// (JSONIdleSet) can supply it, per SPEC_FULL.md's supplemented feature 5.
type IdleSet interface {
	IsIdle(mac string) bool
}

// MemoryIdleSet is a simple in-memory IdleSet, useful for tests and for
// wiring to an external control-plane signal directly.
type MemoryIdleSet struct {
	mu   sync.RWMutex
	macs map[string]bool
}

// NewMemoryIdleSet builds a MemoryIdleSet from an initial set of MACs.
func NewMemoryIdleSet(macs ...string) *MemoryIdleSet {
	s := &MemoryIdleSet{macs: make(map[string]bool, len(macs))}
	for _, m := range macs {
		s.macs[m] = true
	}
	return s
}

func (s *MemoryIdleSet) IsIdle(mac string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.macs[mac]
}

// SetIdle marks mac idle or not.
func (s *MemoryIdleSet) SetIdle(mac string, idle bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idle {
		s.macs[mac] = true
	} else {
		delete(s.macs, mac)
	}
}

// Recorder appends BFVs for idle devices to per-device CSVs under
// `<project>/idle-data/<mac>.csv`, serializing concurrent writers per file
// (§4.5).
type Recorder struct {
	dir   string
	idle  IdleSet
	m     *metrics.IdleRecorderMetrics
	locks sync.Map // mac -> *sync.Mutex
}

// NewRecorder builds a Recorder writing under dir.
func NewRecorder(dir string, idle IdleSet, m *metrics.IdleRecorderMetrics) *Recorder {
	return &Recorder{dir: dir, idle: idle, m: m}
}

func (r *Recorder) lockFor(mac string) *sync.Mutex {
	v, _ := r.locks.LoadOrStore(mac, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Record appends bfv's raw row to the device's idle CSV if the device is
// currently marked idle. No-op (not an error) for non-idle devices.
func (r *Recorder) Record(bfv types.BFV) error {
	if !r.idle.IsIdle(bfv.DeviceMAC) {
		return nil
	}

	lock := r.lockFor(bfv.DeviceMAC)
	lock.Lock()
	defer lock.Unlock()

	path := filepath.Join(r.dir, bfv.DeviceMAC+".csv")
	writeHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		writeHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		if r.m != nil {
			r.m.WriteErrors.Inc()
		}
		return fmt.Errorf("idle recorder: open %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(types.Header()); err != nil {
			if r.m != nil {
				r.m.WriteErrors.Inc()
			}
			return fmt.Errorf("idle recorder: write header %s: %w", path, err)
		}
	}
	if err := w.Write(bfv.Row()); err != nil {
		if r.m != nil {
			r.m.WriteErrors.Inc()
		}
		return fmt.Errorf("idle recorder: write row %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		if r.m != nil {
			r.m.WriteErrors.Inc()
		}
		return err
	}
	if r.m != nil {
		r.m.RowsWrittenTotal.Inc()
	}
	return nil
}
