package perception

// #region imports
import (
	"strings"
)

// #endregion

// #region normalize

var ocrConfusions = strings.NewReplacer(
	"0", "o",
	"1", "l",
	"|", "l",
	"’", "'",
	"‘", "'",
	"“", "\"",
	"”", "\"",
)

const strippedPunct = "·•|[](){}:;,.!?\"'`◎○×"

// NormalizeText lowercases, collapses whitespace, and strips the punctuation
// and rank symbols OCR tends to invent. Used for every fuzzy comparison so
// both sides share one canonical form.
func NormalizeText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	s = strings.Join(strings.Fields(s), " ")
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(strippedPunct, r) {
			continue
		}
		if r == '-' {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(strings.Join(strings.Fields(b.String()), " "))
}

// FixConfusions maps the classic digit/letter OCR swaps onto letters. Apply
// before NormalizeText when matching skill titles.
func FixConfusions(s string) string {
	return ocrConfusions.Replace(s)
}

// TokenizeText splits a normalized string into its word tokens.
func TokenizeText(s string) []string {
	return strings.Fields(NormalizeText(s))
}

// #endregion normalize

// #region fuzzy

// FuzzyRatio is a normalized similarity in [0,1] between two strings, based
// on Levenshtein distance over their normalized forms. 1.0 means equal.
func FuzzyRatio(a, b string) float64 {
	na, nb := NormalizeText(a), NormalizeText(b)
	if na == "" && nb == "" {
		return 1.0
	}
	if na == "" || nb == "" {
		return 0.0
	}
	if na == nb {
		return 1.0
	}
	dist := levenshtein(na, nb)
	longest := len(na)
	if len(nb) > longest {
		longest = len(nb)
	}
	return 1.0 - float64(dist)/float64(longest)
}

// FuzzyContains reports whether needle appears inside haystack at or above
// threshold: direct substring containment of the normalized forms, or a
// sliding token-window ratio for OCR-mangled text.
func FuzzyContains(haystack, needle string, threshold float64) bool {
	_, ok := FuzzyContainsScore(haystack, needle, threshold)
	return ok
}

// FuzzyContainsScore is FuzzyContains returning the best window score too.
func FuzzyContainsScore(haystack, needle string, threshold float64) (float64, bool) {
	nh, nn := NormalizeText(haystack), NormalizeText(needle)
	if nn == "" {
		return 0, false
	}
	if strings.Contains(nh, nn) {
		return 1.0, true
	}
	hTokens := strings.Fields(nh)
	nTokens := strings.Fields(nn)
	if len(hTokens) == 0 {
		return 0, false
	}
	window := len(nTokens)
	if window == 0 {
		window = 1
	}
	best := 0.0
	for i := 0; i <= len(hTokens)-1; i++ {
		end := i + window
		if end > len(hTokens) {
			end = len(hTokens)
		}
		cand := strings.Join(hTokens[i:end], " ")
		if s := FuzzyRatio(cand, nn); s > best {
			best = s
		}
	}
	return best, best >= threshold
}

// FuzzyBestMatch returns the candidate with the highest ratio to the query
// and that ratio. Empty candidates yield ("", 0).
func FuzzyBestMatch(query string, candidates []string) (string, float64) {
	best, bestScore := "", 0.0
	for _, c := range candidates {
		if s := FuzzyRatio(query, c); s > bestScore {
			best, bestScore = c, s
		}
	}
	return best, bestScore
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = minI(minI(curr[j-1]+1, prev[j]+1), prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func minI(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// #endregion fuzzy
