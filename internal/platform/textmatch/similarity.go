package textmatch

import "strings"

const (
	sharedWordWeight  = 5.0
	containmentWeight = 3.0
	minContainedRunes = 4
)

// Similarity normalizes both names and scores them 0-100.
func Similarity(a, b string) float64 {
	return Score(Normalize(a), Normalize(b))
}

// Score compares two normalized names. The base is the better of the
// Levenshtein ratio over the full names and over their cores; shared
// significant words and containment add a small bonus. The result is capped
// at 100.
func Score(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}

	coreA, coreB := Core(a), Core(b)
	score := max(Ratio(a, b), Ratio(coreA, coreB))

	wordsA, wordsB := SignificantWords(a), SignificantWords(b)
	if maxWords := max(len(wordsA), len(wordsB)); maxWords > 0 {
		score += sharedWordWeight * float64(sharedCount(wordsA, wordsB)) / float64(maxWords)
	}

	if coreA != coreB && contains(coreA, coreB) {
		score += containmentWeight
	}

	if score > 100 {
		return 100
	}
	return score
}

// Ratio is the Levenshtein similarity of a and b scaled to 0-100.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 0
	}
	distance := levenshtein(ra, rb)
	return (1 - float64(distance)/float64(longest)) * 100
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

func sharedCount(a, b []string) int {
	seen := make(map[string]struct{}, len(a))
	for _, word := range a {
		seen[word] = struct{}{}
	}
	count := 0
	for _, word := range b {
		if _, ok := seen[word]; ok {
			count++
			delete(seen, word)
		}
	}
	return count
}

func contains(a, b string) bool {
	shorter, longer := a, b
	if len([]rune(shorter)) > len([]rune(longer)) {
		shorter, longer = longer, shorter
	}
	if len([]rune(shorter)) < minContainedRunes {
		return false
	}
	return strings.Contains(longer, shorter)
}
