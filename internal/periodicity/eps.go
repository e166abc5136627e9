// eps.go implements the supplemented get_eps_by_device table (SPEC_FULL.md
// feature 2, grounded on original_source/core/utils.py:get_eps_by_device
// and core/eps_list.json): a per-device-model DBSCAN eps override, looked
// up via the same fuzzy matcher as model resolution but at the original's
// distinct 0.9 threshold.
package periodicity

import (
	"encoding/json"
	"os"

	"github.com/fenwicklabs/iotwatch/internal/resolver"
)

// DefaultEps is the eps used when no model-specific override is found.
const DefaultEps = 5.0

// EpsThreshold is the fuzzy-match threshold used for EPS lookup, distinct
// from the model resolver's 0.8 (§4.7, SPEC_FULL.md clarified semantics).
const EpsThreshold = 0.9

// EpsTable is the model -> DBSCAN eps override table, persisted at
// `core/eps_list.json` (§6).
type EpsTable struct {
	byModel map[string]float64
	models  []string // sorted keys, for deterministic fuzzy-match order
}

// LoadEpsTable reads the eps table from path.
func LoadEpsTable(path string) (*EpsTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return newEpsTable(raw), nil
}

func newEpsTable(raw map[string]float64) *EpsTable {
	models := make([]string, 0, len(raw))
	for m := range raw {
		models = append(models, m)
	}
	return &EpsTable{byModel: raw, models: sortedCopy(models)}
}

func sortedCopy(xs []string) []string {
	out := append([]string(nil), xs...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// Lookup returns the eps for model, falling back to a fuzzy match at
// EpsThreshold and finally to DefaultEps.
func (t *EpsTable) Lookup(model string) float64 {
	if t == nil {
		return DefaultEps
	}
	if eps, ok := t.byModel[model]; ok {
		return eps
	}
	if match, ok := resolver.FindBestMatch(t.models, model, EpsThreshold); ok {
		return t.byModel[match]
	}
	return DefaultEps
}
