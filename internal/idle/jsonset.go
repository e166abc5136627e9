package idle

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// JSONIdleSet persists the idle-device set to a JSON sidecar file, the
// supplemented feature named in SPEC_FULL.md (grounded on
// original_source/core/utils.py's is_device_idle, which the distilled
// spec.md treats as an externally supplied set but the original actually
// persists to disk).
type JSONIdleSet struct {
	path string
	mu   sync.RWMutex
	macs map[string]bool
}

// LoadJSONIdleSet reads (or, if absent, creates an empty) idle set from
// path.
func LoadJSONIdleSet(path string) (*JSONIdleSet, error) {
	s := &JSONIdleSet{path: path, macs: make(map[string]bool)}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("idle set: read %s: %w", path, err)
	}
	var macs []string
	if err := json.Unmarshal(data, &macs); err != nil {
		return nil, fmt.Errorf("idle set: decode %s: %w", path, err)
	}
	for _, m := range macs {
		s.macs[m] = true
	}
	return s, nil
}

func (s *JSONIdleSet) IsIdle(mac string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.macs[mac]
}

// SetIdle marks mac idle or not and persists the change immediately.
func (s *JSONIdleSet) SetIdle(mac string, idle bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idle {
		s.macs[mac] = true
	} else {
		delete(s.macs, mac)
	}
	return s.saveLocked()
}

func (s *JSONIdleSet) saveLocked() error {
	macs := make([]string, 0, len(s.macs))
	for m := range s.macs {
		macs = append(macs, m)
	}
	data, err := json.Marshal(macs)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}
