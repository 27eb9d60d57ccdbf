package battle

// similarityRatio scores how alike two strings are as 2*M / T, where M is
// the total length of matching blocks found by repeatedly locating the
// longest common substring and recursing on the remainders, and T is the
// combined length of both strings. This mirrors the matching-block ratio
// definition used by the upstream character-name matcher; no corpus
// dependency implements it; the formula itself, not a general text-diff
// library, is the thing being ported.
func similarityRatio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	matched := matchingBlockLength([]rune(a), []rune(b))
	total := len([]rune(a)) + len([]rune(b))
	if total == 0 {
		return 1.0
	}
	return 2.0 * float64(matched) / float64(total)
}

func matchingBlockLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	bestLen, aStart, bStart := 0, 0, 0
	for i := range a {
		for j := range b {
			k := 0
			for i+k < len(a) && j+k < len(b) && a[i+k] == b[j+k] {
				k++
			}
			if k > bestLen {
				bestLen, aStart, bStart = k, i, j
			}
		}
	}
	if bestLen == 0 {
		return 0
	}
	return bestLen +
		matchingBlockLength(a[:aStart], b[:bStart]) +
		matchingBlockLength(a[aStart+bestLen:], b[bStart+bestLen:])
}
