package resolver

// lcsLength returns the length of the longest common subsequence of a and
// b, computed with the standard O(len(a)*len(b)) dynamic program.
func lcsLength(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	n, m := len(ra), len(rb)
	if n == 0 || m == 0 {
		return 0
	}
	prev := make([]int, m+1)
	curr := make([]int, m+1)
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[m]
}

// normalizedSimilarity returns a longest-common-subsequence-based
// similarity in [0,1]: twice the LCS length over the sum of both string
// lengths, the same normalization difflib.SequenceMatcher.ratio() uses for
// its matching-blocks measure. original_source/core/utils.py calls a
// find_best_match(name, candidates, threshold) with this ratio-against-
// threshold shape, importing it from core.model_selection and using it at
// a 0.9 threshold in get_eps_by_device; the retrieved pack only carries
// that import and call site, not find_best_match's body (model_selection.py
// as retrieved defines only import_models()), so this LCS implementation is
// not cross-checked against the original function — it's a from-scratch
// stand-in for the same ratio-against-threshold contract, using the
// difflib-style normalization utils.py's own unused `from difflib import
// SequenceMatcher` line suggests the original leaned on.
func normalizedSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	lcs := lcsLength(a, b)
	total := len(a) + len(b)
	if total == 0 {
		return 0
	}
	return 2 * float64(lcs) / float64(total)
}
