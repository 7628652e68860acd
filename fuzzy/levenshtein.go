package fuzzy

// DamerauLevenshteinDistance computes the optimal-string-alignment edit
// distance between s1 and s2: insertions, deletions, substitutions, and
// adjacent transpositions all cost one. The computation is bounded: once it
// is certain the distance exceeds maxDistance, maxDistance+1 is returned.
func DamerauLevenshteinDistance(s1, s2 string, maxDistance int) int {
	len1, len2 := len(s1), len(s2)

	diff := len1 - len2
	if diff < 0 {
		diff = -diff
	}
	if diff > maxDistance {
		return maxDistance + 1
	}
	if len1 == 0 {
		return len2
	}
	if len2 == 0 {
		return len1
	}
	if s1 == s2 {
		return 0
	}

	cols := len2 + 1
	dp := make([]int, (len1+1)*cols)
	at := func(i, j int) int { return dp[i*cols+j] }
	set := func(i, j, v int) { dp[i*cols+j] = v }

	for i := 0; i <= len1; i++ {
		set(i, 0, i)
	}
	for j := 0; j <= len2; j++ {
		set(0, j, j)
	}

	for i := 1; i <= len1; i++ {
		rowMin := int(^uint(0) >> 1)
		for j := 1; j <= len2; j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			best := at(i-1, j) + 1 // deletion
			if ins := at(i, j-1) + 1; ins < best {
				best = ins
			}
			if sub := at(i-1, j-1) + cost; sub < best {
				best = sub
			}
			if i > 1 && j > 1 && s1[i-1] == s2[j-2] && s1[i-2] == s2[j-1] {
				if tr := at(i-2, j-2) + cost; tr < best {
					best = tr
				}
			}
			set(i, j, best)
			if best < rowMin {
				rowMin = best
			}
		}
		// Every cell in later rows derives from this row; once the whole
		// row is past the bound the answer is too.
		if rowMin > maxDistance {
			return maxDistance + 1
		}
	}
	return at(len1, len2)
}
