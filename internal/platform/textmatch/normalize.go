package textmatch

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Letters that do not decompose under NFD.
var foldReplacer = strings.NewReplacer(
	"ø", "o", "Ø", "o",
	"æ", "ae", "Æ", "ae",
	"œ", "oe", "Œ", "oe",
	"ß", "ss",
	"đ", "d", "Đ", "d",
	"ł", "l", "Ł", "l",
	"þ", "th", "Þ", "th",
	"ı", "i",
)

// noiseTokens are club-form tokens that carry no identity, so "Hammarby IF"
// and "Hammarby" compare on "hammarby".
var noiseTokens = map[string]struct{}{
	"fc": {}, "fk": {}, "if": {}, "bk": {}, "sk": {}, "ik": {}, "ff": {},
	"afc": {}, "cf": {}, "sc": {}, "ac": {}, "cd": {}, "ud": {}, "sd": {},
	"nk": {}, "rc": {}, "ssc": {}, "ksk": {}, "bc": {}, "club": {}, "the": {},
}

// Normalize lowercases name, strips diacritics and punctuation and collapses
// whitespace. Apostrophes and dots are dropped so "A.F.C." becomes "afc".
func Normalize(name string) string {
	value := foldReplacer.Replace(strings.TrimSpace(name))
	if value == "" {
		return ""
	}

	stripped, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), value)
	if err == nil {
		value = stripped
	}
	value = strings.ToLower(value)

	var builder strings.Builder
	builder.Grow(len(value))
	for _, r := range value {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			builder.WriteRune(r)
		case r == '\'' || r == '’' || r == '.':
		default:
			builder.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(builder.String()), " ")
}

// Core drops noise tokens from an already normalized name. When every token
// is noise the name is returned unchanged.
func Core(normalized string) string {
	words := strings.Fields(normalized)
	kept := make([]string, 0, len(words))
	for _, word := range words {
		if _, noise := noiseTokens[word]; noise {
			continue
		}
		kept = append(kept, word)
	}
	if len(kept) == 0 {
		return normalized
	}
	return strings.Join(kept, " ")
}

// SignificantWords returns the non-noise words of at least three letters.
func SignificantWords(normalized string) []string {
	out := make([]string, 0, 4)
	for _, word := range strings.Fields(Core(normalized)) {
		if len([]rune(word)) < 3 {
			continue
		}
		if _, noise := noiseTokens[word]; noise {
			continue
		}
		out = append(out, word)
	}
	return out
}

// SearchTerm picks the longest significant word, suitable for provider-side
// name search.
func SearchTerm(name string) string {
	best := ""
	for _, word := range SignificantWords(Normalize(name)) {
		if len(word) > len(best) {
			best = word
		}
	}
	return best
}
