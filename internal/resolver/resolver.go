// Package resolver implements the device name -> model name fuzzy matcher
// of spec.md §4.7, plus the supplemented device-name alias table
// (SPEC_FULL.md, grounded on original_source/core/utils.py's
// device_name_mapping and predict_event.py's echodot4b special case).
package resolver

import (
	"os"
	"regexp"
	"sort"
	"strings"
)

// DefaultModelThreshold is the similarity threshold used for device ->
// model-folder resolution (§4.7).
const DefaultModelThreshold = 0.8

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// normalize lowercases name and collapses runs of non-alphanumeric
// characters to a single underscore, matching §4.7's "lowercased,
// underscore-normalized names."
func normalize(name string) string {
	lower := strings.ToLower(name)
	return strings.Trim(nonAlnum.ReplaceAllString(lower, "_"), "_")
}

// FindBestMatch returns the first candidate (in the order given) whose
// normalized similarity to name is >= threshold, per §4.7: "Return the
// first folder name passing the threshold in deterministic iteration
// order." Candidates should already be in deterministic (sorted) order;
// callers that read a directory listing must sort it first.
func FindBestMatch(candidates []string, name string, threshold float64) (match string, ok bool) {
	normName := normalize(name)
	for _, c := range candidates {
		if normalizedSimilarity(normalize(c), normName) >= threshold {
			return c, true
		}
	}
	return "", false
}

// AliasTable is the explicit device-name -> model-name table consulted
// before the fuzzy resolver (§9 "Dynamic-name model resolution": "an
// explicit device-name->model-name table loaded at start, and the fuzzy
// resolver as fallback"). Lookups are case-insensitive.
type AliasTable struct {
	aliases map[string]string
}

// NewAliasTable builds an AliasTable from a map of device name (or
// device-name fragment) to canonical model name.
func NewAliasTable(aliases map[string]string) *AliasTable {
	normed := make(map[string]string, len(aliases))
	for k, v := range aliases {
		normed[strings.ToLower(k)] = v
	}
	return &AliasTable{aliases: normed}
}

// DefaultAliasTable carries forward the aliases original_source/core/utils.py
// and predict_event.py hard-code, per SPEC_FULL.md's supplemented feature 1.
func DefaultAliasTable() *AliasTable {
	return NewAliasTable(map[string]string{
		"echodot4b": "echospot",
	})
}

// Lookup returns the aliased model name for deviceName, if any.
func (t *AliasTable) Lookup(deviceName string) (modelName string, ok bool) {
	v, ok := t.aliases[strings.ToLower(deviceName)]
	return v, ok
}

// ModelResolver resolves an operator-entered device product name to a model
// folder name, consulting the alias table first and falling back to fuzzy
// matching against the on-disk `<models>/binary/rf/` folder listing.
type ModelResolver struct {
	aliases      *AliasTable
	modelsRoot   string
	threshold    float64
	listDir      func(path string) ([]string, error)
}

// NewModelResolver builds a ModelResolver rooted at modelsRoot (the
// `<models>/binary/rf/` directory).
func NewModelResolver(modelsRoot string, aliases *AliasTable, threshold float64) *ModelResolver {
	if threshold <= 0 {
		threshold = DefaultModelThreshold
	}
	return &ModelResolver{
		aliases:    aliases,
		modelsRoot: modelsRoot,
		threshold:  threshold,
		listDir:    listDirSorted,
	}
}

// Resolve implements §4.7's find_best_match(device_name) contract. A
// resolution failure returns ok=false; callers should treat this as
// "unknown model_name".
func (r *ModelResolver) Resolve(deviceName string) (modelName string, ok bool) {
	if r.aliases != nil {
		if alias, found := r.aliases.Lookup(deviceName); found {
			return alias, true
		}
	}
	candidates, err := r.listDir(r.modelsRoot)
	if err != nil {
		return "", false
	}
	return FindBestMatch(candidates, deviceName, r.threshold)
}

func listDirSorted(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
