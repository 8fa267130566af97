// Package text provides string transformations shared by the pipeline stages:
// pinyin scrubbing of generated sentences, target-word masking for cloze
// cards, filename sanitizing, and mojibake repair.
package text

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const toneVowels = "āáǎàēéěèīíǐìōóǒòūúǔùǖǘǚǜ"

// Pre-compiled patterns for scrubbing LLM output.
var (
	// Pinyin parentheticals appended to generated sentences, with or without
	// a trailing period: 这是我第一次来中国。(Zhè shì wǒ dì yī cì lái Zhōngguó.)
	pinyinParenDotRe = regexp.MustCompile(`\s*\([A-Za-z` + toneVowels + `\s]+\.\)`)
	pinyinParenRe    = regexp.MustCompile(`\s*\([A-Za-z` + toneVowels + `\s]+\)`)

	// A parenthetical plus anything trailing it: 地质构造 (estructura geológica) - x
	parenAndTailRe = regexp.MustCompile(`\s*\([^)]*\).*$`)

	unsafeFilenameRe = regexp.MustCompile(`[<>:"/\\|?*']`)
	whitespaceRe     = regexp.MustCompile(`\s+`)
)

// CleanPinyinFromSentence removes pinyin parentheticals the LLM sometimes
// appends to Chinese example sentences.
func CleanPinyinFromSentence(sentence string) string {
	if sentence == "" {
		return ""
	}
	result := pinyinParenDotRe.ReplaceAllString(sentence, "")
	result = pinyinParenRe.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// RemoveParentheses drops a parenthetical gloss and anything after it:
// "地质构造 (estructura geológica)" -> "地质构造".
func RemoveParentheses(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(parenAndTailRe.ReplaceAllString(s, ""))
}

// MaskTarget replaces every occurrence of the target word with blanks.
func MaskTarget(text, target string) string {
	if text == "" || target == "" {
		return text
	}
	return strings.ReplaceAll(text, target, "___")
}

// SplitPieces splits a pipe-separated cell into trimmed, non-empty pieces.
func SplitPieces(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, "|") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// FirstPiece returns the first piece of a pipe-separated cell.
func FirstPiece(s string) string {
	pieces := SplitPieces(s)
	if len(pieces) == 0 {
		return ""
	}
	return pieces[0]
}

// LongestPiece returns the longest piece of a pipe-separated cell. Hints use
// it because the longest collocation carries the most context.
func LongestPiece(s string) string {
	pieces := SplitPieces(s)
	longest := ""
	length := 0
	for _, p := range pieces {
		if n := utf8.RuneCountInString(p); n > length {
			longest, length = p, n
		}
	}
	return longest
}

// SanitizeFilename makes text safe for use in an audio filename: unsafe
// characters dropped, whitespace collapsed to underscores, length capped.
func SanitizeFilename(s string, maxRunes int) string {
	safe := unsafeFilenameRe.ReplaceAllString(s, "")
	safe = whitespaceRe.ReplaceAllString(safe, "_")
	runes := []rune(safe)
	if maxRunes > 0 && len(runes) > maxRunes {
		return string(runes[:maxRunes])
	}
	return safe
}

// TruncateRunes returns the first n runes of s.
func TruncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// FixMojibake repairs text that was decoded as latin-1 when it was really
// UTF-8. Each rune below U+0100 maps back to a single byte; if the recovered
// byte string is valid UTF-8 it is the original text, otherwise the input is
// returned untouched.
func FixMojibake(s string) string {
	if s == "" {
		return s
	}
	bytes := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xFF {
			return s // not latin-1 representable, nothing to repair
		}
		bytes = append(bytes, byte(r))
	}
	if !utf8.Valid(bytes) {
		return s
	}
	recovered := string(bytes)
	// Pure ASCII round-trips identically; only accept a real repair.
	if recovered == s {
		return s
	}
	return recovered
}
