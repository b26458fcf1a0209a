package utils

import (
	"strings"
	"unicode/utf8"
)

// 匹配时去掉的标点
var punctuationReplacer = strings.NewReplacer("?", "", "!", "", ".", "", ",", "")

// NormalizeString lowercases s. Accented letters are lowered too, so
// "COÛTE" and "coûte" compare equal.
func NormalizeString(s string) string {
	return strings.ToLower(s)
}

// StripPunctuation removes ? ! . and , from s.
func StripPunctuation(s string) string {
	return punctuationReplacer.Replace(s)
}

// Tokenize lowercases s, strips punctuation, splits on whitespace and drops
// tokens of minLen runes or fewer.
func Tokenize(s string, minLen int) []string {
	fields := strings.Fields(StripPunctuation(NormalizeString(s)))
	out := fields[:0]
	for _, f := range fields {
		if RuneLen(f) > minLen {
			out = append(out, f)
		}
	}
	return out
}

// TokenSet is Tokenize with duplicates removed.
func TokenSet(s string, minLen int) map[string]struct{} {
	tokens := Tokenize(s, minLen)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// RuneLen counts characters rather than bytes.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// ContainsAny reports whether any of the substrings occurs in s.
func ContainsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// 返回两个浮点数中较小的一个
func Min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
