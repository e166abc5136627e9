package periodicity

import "github.com/fenwicklabs/iotwatch/internal/types"

// CoalesceHosts implements §4.6.2 step 1: if two hosts share their
// last-three-labels suffix, both are replaced by "*.<suffix>".
func CoalesceHosts(hosts []string) map[string]string {
	const labelCount = 3
	suffixCount := make(map[string]int)
	for _, h := range hosts {
		suffixCount[types.LastLabels(h, labelCount)]++
	}
	replacement := make(map[string]string, len(hosts))
	for _, h := range hosts {
		suffix := types.LastLabels(h, labelCount)
		if suffixCount[suffix] > 1 {
			replacement[h] = "*." + suffix
		} else {
			replacement[h] = h
		}
	}
	return replacement
}
