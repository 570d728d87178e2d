package matcher

// Ratio returns the Ratcliff/Obershelp similarity of two strings in [0, 1]:
// twice the number of matching characters divided by the total length. Matching
// characters are found by taking the longest common substring and recursing on
// the pieces to its left and right. The pair is put in canonical order first so
// Ratio(a, b) == Ratio(b, a).
func Ratio(a, b string) float64 {
	if b < a {
		a, b = b, a
	}
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchingRunes(ra, rb)) / float64(total)
}

func matchingRunes(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	i, j, k := longestMatch(a, b)
	if k == 0 {
		return 0
	}
	return k + matchingRunes(a[:i], b[:j]) + matchingRunes(a[i+k:], b[j+k:])
}

// longestMatch finds the longest common substring a[i:i+k] == b[j:j+k]. Ties are
// broken by the smallest i, then the smallest j.
func longestMatch(a, b []rune) (besti, bestj, bestk int) {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > bestk {
					bestk = cur[j]
					besti = i - bestk
					bestj = j - bestk
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return besti, bestj, bestk
}
