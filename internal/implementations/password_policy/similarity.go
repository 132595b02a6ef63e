package passwordpolicy

// similarity is the Ratcliff/Obershelp ratio of a and b: twice the number of
// matching characters divided by the total number of characters.
func similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchingCharacters(ra, rb)) / float64(total)
}

func matchingCharacters(a, b []rune) int {
	i, j, size := longestCommonBlock(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchingCharacters(a[:i], b[:j]) +
		matchingCharacters(a[i+size:], b[j+size:])
}

// longestCommonBlock returns the leftmost longest common substring of a and b.
func longestCommonBlock(a, b []rune) (besti, bestj, bestsize int) {
	lengths := make([]int, len(b)+1)
	for i := range a {
		next := make([]int, len(b)+1)
		for j := range b {
			if a[i] == b[j] {
				next[j+1] = lengths[j] + 1
				if next[j+1] > bestsize {
					besti, bestj, bestsize = i-next[j+1]+1, j-next[j+1]+1, next[j+1]
				}
			}
		}
		lengths = next
	}
	return besti, bestj, bestsize
}
