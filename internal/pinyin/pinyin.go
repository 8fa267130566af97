// Package pinyin normalizes and masks Hanyu Pinyin romanizations.
//
// Vocabulary sources deliver pinyin in several shapes (numeric tones like
// "lu:3 xing2", "v" for "ü", already-marked diacritics); everything here
// converges on the standard diacritic form.
package pinyin

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// toneMarks holds the tone-1..4 variants for each bare vowel. Tone 5
// (neutral) keeps the bare vowel.
var toneMarks = map[rune][4]rune{
	'a': {'ā', 'á', 'ǎ', 'à'},
	'e': {'ē', 'é', 'ě', 'è'},
	'i': {'ī', 'í', 'ǐ', 'ì'},
	'o': {'ō', 'ó', 'ǒ', 'ò'},
	'u': {'ū', 'ú', 'ǔ', 'ù'},
	'ü': {'ǖ', 'ǘ', 'ǚ', 'ǜ'},
}

var (
	colonToneRe = regexp.MustCompile(`:(\d)`)
	numericRe   = regexp.MustCompile(`^([a-züāáǎàēéěèīíǐìōóǒòūúǔùǖǘǚǜ]+?)(\d)$`)
	runRe       = regexp.MustCompile(`(?i)[a-züv:āáǎàēéěèīíǐìōóǒòūúǔùǖǘǚǜ]+\d`)
)

// StripDiacritics removes tone marks: "xià yǔ" -> "xia yu".
func StripDiacritics(s string) string {
	decomposed := norm.NFKD.String(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Mask reduces each syllable to its initial letter: "xià yǔ" -> "x_ y_".
func Mask(pinyin string) string {
	p := strings.TrimSpace(StripDiacritics(pinyin))
	if p == "" {
		return ""
	}
	fields := strings.Fields(p)
	masked := make([]string, 0, len(fields))
	for _, syl := range fields {
		r := []rune(syl)
		masked = append(masked, string(r[0])+"_")
	}
	return strings.Join(masked, " ")
}

// AddToneMark places the tone mark on the correct vowel of a bare syllable.
//
// Placement rules: 'a' or 'e' wins; the 'o' of "ou" wins; otherwise the last
// vowel carries the mark. Tone 5 (neutral) leaves the syllable unmarked.
func AddToneMark(syllable string, tone int) string {
	if tone < 1 || tone > 5 || syllable == "" {
		return syllable
	}
	if tone == 5 {
		return strings.ReplaceAll(syllable, "v", "ü")
	}

	runes := []rune(syllable)
	capitalized := unicode.IsUpper(runes[0])
	lower := []rune(strings.ReplaceAll(strings.ToLower(syllable), "v", "ü"))

	pos := -1
	switch {
	case indexRune(lower, 'a') >= 0:
		pos = indexRune(lower, 'a')
	case indexRune(lower, 'e') >= 0:
		pos = indexRune(lower, 'e')
	case indexSub(lower, []rune{'o', 'u'}) >= 0:
		pos = indexSub(lower, []rune{'o', 'u'})
	default:
		for i := len(lower) - 1; i >= 0; i-- {
			if strings.ContainsRune("iouü", lower[i]) {
				pos = i
				break
			}
		}
	}
	if pos < 0 {
		return syllable
	}

	marks, ok := toneMarks[lower[pos]]
	if !ok {
		return syllable
	}
	lower[pos] = marks[tone-1]

	if capitalized {
		lower[0] = unicode.ToUpper(lower[0])
	}
	return string(lower)
}

func indexRune(rs []rune, want rune) int {
	for i, r := range rs {
		if r == want {
			return i
		}
	}
	return -1
}

func indexSub(rs, sub []rune) int {
	for i := 0; i+len(sub) <= len(rs); i++ {
		match := true
		for j := range sub {
			if rs[i+j] != sub[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// hasToneMark reports whether s contains any tone-marked vowel. A bare "ü"
// counts as unmarked.
func hasToneMark(s string) bool {
	for _, r := range s {
		for _, marks := range toneMarks {
			for _, m := range marks {
				if r == m {
					return true
				}
			}
		}
	}
	return false
}

// NormalizeSyllable converts one syllable to standard diacritic form.
//
//	lu:3  -> lǚ
//	lv3   -> lǚ
//	lu3   -> lǔ  (a bare u stays u; only the colon and v forms mark ü)
//	xu2   -> xǘ  (after j/q/x/y the u is always ü)
//	r5    -> r
//	wánr5 -> wánr (already marked, neutral digit dropped)
//	lu    -> lu   (no tone information)
func NormalizeSyllable(syllable string) string {
	s := strings.TrimSpace(syllable)
	if s == "" {
		return s
	}

	// Colon tone format: "lu:3" -> "lu3" (the colon marks ü).
	if colonToneRe.MatchString(s) {
		s = strings.Replace(s, ":", "", 1)
		s = strings.Replace(strings.Replace(s, "u", "ü", 1), "v", "ü", 1)
	}

	m := numericRe.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return strings.ReplaceAll(s, "v", "ü")
	}

	base := s[:len(s)-1]
	tone := int(m[2][0] - '0')

	// Already carries a tone mark: the digit is redundant, drop it.
	if hasToneMark(base) {
		return base
	}

	// After j/q/x/y a written u is always pronounced ü.
	switch strings.ToLower(base) {
	case "ju", "qu", "xu", "yu":
		base = base[:len(base)-1] + "ü"
	}
	return AddToneMark(base, tone)
}

// Normalize converts a pinyin string to standard diacritic form. Syllables
// separated by whitespace are converted one by one; digit-joined runs like
// "mei2fa3r5" are split at each tone number first.
func Normalize(pinyin string) string {
	fields := strings.Fields(pinyin)
	if len(fields) == 0 {
		return strings.TrimSpace(pinyin)
	}

	if len(fields) > 1 {
		out := make([]string, 0, len(fields))
		for _, f := range fields {
			out = append(out, NormalizeSyllable(f))
		}
		return strings.Join(out, " ")
	}

	if runs := runRe.FindAllString(fields[0], -1); len(runs) > 1 {
		out := make([]string, 0, len(runs))
		for _, r := range runs {
			out = append(out, NormalizeSyllable(r))
		}
		return strings.Join(out, " ")
	}
	return NormalizeSyllable(fields[0])
}
