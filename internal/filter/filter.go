// Package filter implements the Periodic Filter stage (spec.md §4.3):
// matching an SBFV's (host, protocol) against a device's periodic
// fingerprint and, on a match, running the DBSCAN-predict density test to
// decide whether the traffic is periodic (and therefore dropped).
package filter

import (
	"regexp"
	"strings"

	"github.com/fenwicklabs/iotwatch/internal/modelstore"
	"github.com/fenwicklabs/iotwatch/internal/types"
)

// Outcome is the result of filtering one SBFV, per §4.3's three-way
// contract.
type Outcome int

const (
	OutcomePass Outcome = iota
	OutcomePeriodic
	OutcomeNoFingerprint
)

var controlPlaneProtocols = map[string]bool{
	"DNS": true, "MDNS": true, "NTP": true, "SSDP": true, "DHCP": true,
}

var macLike = regexp.MustCompile(`^([0-9a-f]{2}:){5}[0-9a-f]{2}$`)

// NormalizeProtocol implements §4.3's filter-time protocol normalization:
// TCP/MQTT/TLS fold to TCP, UDP stays UDP, and multiple distinct results
// joined with " & ". This is deliberately different from the training-time
// normalization in internal/periodicity, which keeps TLS as its own bucket
// (SPEC_FULL.md's clarified semantics, from
// original_source/core/periodicity_inference.py).
func NormalizeProtocol(raw string) string {
	tokens := strings.Split(raw, ";")
	seen := make(map[string]bool)
	var out []string
	for _, t := range tokens {
		t = strings.TrimSpace(strings.ToUpper(t))
		var norm string
		switch t {
		case "TCP", "MQTT", "TLS":
			norm = "TCP"
		case "UDP":
			norm = "UDP"
		default:
			continue
		}
		if !seen[norm] {
			seen[norm] = true
			out = append(out, norm)
		}
	}
	return strings.Join(out, " & ")
}

// NormalizeHost implements §4.3's host normalization: lowercased, '?'
// stripped, truncated to the first ';'-separated token.
func NormalizeHost(raw string) string {
	h := strings.ToLower(raw)
	h = strings.ReplaceAll(h, "?", "")
	if idx := strings.Index(h, ";"); idx >= 0 {
		h = h[:idx]
	}
	return h
}

// IsControlPlaneProtocol reports whether raw's (pre-fold) protocol tags
// include a control-plane protocol (§4.3: always dropped, never passed
// through as non-periodic).
func IsControlPlaneProtocol(raw string) bool {
	for _, t := range strings.Split(raw, ";") {
		if controlPlaneProtocols[strings.TrimSpace(strings.ToUpper(t))] {
			return true
		}
	}
	return false
}

// IsNoise reports whether host is control-plane noise: MAC-like, the
// literal "multicast", or a member of the local device MAC set.
func IsNoise(host string, localMACs map[string]bool) bool {
	if macLike.MatchString(host) {
		return true
	}
	if host == "multicast" {
		return true
	}
	return localMACs[host]
}

// entryMatches implements §4.3's match rule for one fingerprint entry: the
// strict (proto, host-pattern) rule, or the relaxed rule using the last
// three labels of host-pattern as a suffix.
func entryMatches(e modelstore.FingerprintEntry, host, proto string) bool {
	if e.Protocol != proto {
		return false
	}
	if types.MatchesHostPattern(host, e.HostPattern) {
		return true
	}
	suffix := types.LastLabels(strings.TrimPrefix(e.HostPattern, "*."), 3)
	return strings.HasSuffix(host, suffix)
}

// ModelLookup loads the density model for a matched (model, host, proto)
// bucket.
type ModelLookup func(model, host, proto string) (*modelstore.FilterModel, error)

// Filter implements §4.3's contract for one SBFV. model is the device's
// resolved model name (as used to key fingerprint/filter-model artifacts).
// localMACs is the set of MAC addresses belonging to devices on this LAN,
// used by IsNoise.
func Filter(sbfv types.SBFV, fp modelstore.Fingerprint, model string, localMACs map[string]bool, loadModel ModelLookup) Outcome {
	if IsControlPlaneProtocol(sbfv.Protocol) {
		return OutcomePeriodic
	}
	host := NormalizeHost(sbfv.Hosts)
	if IsNoise(host, localMACs) {
		return OutcomePeriodic
	}
	proto := NormalizeProtocol(sbfv.Protocol)

	if len(fp) == 0 {
		return OutcomeNoFingerprint
	}

	for _, entry := range fp {
		if !entryMatches(entry, host, proto) {
			continue
		}
		fm, err := loadModel(model, entry.HostPattern, entry.Protocol)
		if err != nil || fm == nil {
			continue
		}
		if fm.Predict(sbfv.Numeric[:]) >= 0 {
			return OutcomePeriodic
		}
		// Non-periodic for this tuple: still an aperiodic candidate, keep
		// scanning the remaining fingerprint tuples (§4.3).
	}

	return OutcomePass
}
