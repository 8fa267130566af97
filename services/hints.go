package services

import (
	"fmt"
	"regexp"
	"strings"

	"chinosrs/internal/pinyin"
	"chinosrs/internal/text"
	"chinosrs/models"
)

// posMap translates POS codes (both dotted abbreviations and CTB-style
// single letters) into readable Spanish.
var posMap = map[string]string{
	"n.": "sustantivo", "v.": "verbo", "adj.": "adjetivo", "adv.": "adverbio",
	"prep.": "preposición", "conj.": "conjunción", "pron.": "pronombre",
	"num.": "numeral", "mw.": "clasificador", "part.": "partícula",
	"interj.": "interjección", "a": "adjetivo", "ad": "adj. adverbial",
	"ag": "morfema adj.", "an": "adj. nominal", "b": "adj. no-predicativo",
	"c": "conjunción", "d": "adverbio", "dg": "morfema adv.",
	"e": "interjección", "f": "localidad direccional", "g": "morfema",
	"h": "prefijo", "i": "modismo", "j": "abreviatura", "k": "sufijo",
	"l": "expresión fija", "m": "numeral", "mg": "morfema num.",
	"n": "sustantivo", "ng": "morfema sust.", "nr": "nombre personal",
	"ns": "nombre de lugar", "nt": "nombre organización", "nx": "cadena nominal",
	"nz": "nombre propio", "o": "onomatopeya", "p": "preposición",
	"q": "clasificador", "r": "pronombre", "rg": "morfema pron.",
	"s": "palabra espacial", "t": "palabra temporal", "tg": "morfema temporal",
	"u": "auxiliar", "v": "verbo", "vd": "verbo adverbial",
	"vg": "morfema verbal", "vn": "verbo nominal", "w": "símbolo/puntuación",
	"x": "no clasificado", "y": "partícula modal", "z": "descriptivo",
}

var registerMap = map[string]string{
	"reg:colloquial": "coloquial",
	"reg:neutral":    "neutral",
	"reg:formal":     "formal",
	"reg:literary":   "literario",
}

var freqMap = map[string]string{
	"top1k":  "muy frecuente (top 1000)",
	"top3k":  "frecuente (top 3000)",
	"top5k":  "común (top 5000)",
	"top10k": "poco común (top 10k)",
	"rare":   "rara",
}

// LookupPOS renders a semicolon-separated POS tag cell as readable Spanish.
// Non-pos tags in the cell pass through unchanged, deduplicated.
func LookupPOS(posCode string) string {
	if posCode == "" {
		return ""
	}
	var parts []string
	for _, code := range strings.Split(posCode, ";") {
		code = strings.TrimSpace(code)
		code = strings.TrimPrefix(code, "pos:")
		readable, ok := posMap[strings.ToLower(code)]
		if !ok {
			readable = code
		}
		if readable != "" && !contains(parts, readable) {
			parts = append(parts, readable)
		}
	}
	if len(parts) == 0 {
		return posCode
	}
	return strings.Join(parts, ", ")
}

// LookupRegister renders a register tag as readable Spanish.
func LookupRegister(regCode string) string {
	if r, ok := registerMap[regCode]; ok {
		return r
	}
	return regCode
}

// LookupFrequency renders HSK and frequency tags as readable Spanish.
func LookupFrequency(freqCode string) string {
	if freqCode == "" {
		return ""
	}
	var parts []string
	for _, code := range strings.Split(freqCode, ";") {
		code = strings.TrimSpace(code)
		switch {
		case strings.HasPrefix(code, "hsk:"):
			parts = append(parts, "HSK "+code[len("hsk:"):])
		case strings.HasPrefix(code, "freq:"):
			freq := code[len("freq:"):]
			if readable, ok := freqMap[freq]; ok {
				parts = append(parts, readable)
			} else {
				parts = append(parts, freq)
			}
		}
	}
	if len(parts) == 0 {
		return freqCode
	}
	return strings.Join(parts, ", ")
}

// LookupLength renders a length tag as readable Spanish.
func LookupLength(lengthCode string) string {
	if lengthCode == "" {
		return ""
	}
	lengthCode = strings.TrimPrefix(lengthCode, "length:")
	switch lengthCode {
	case "char", "1":
		return "1 carácter"
	case "word":
		return "palabra"
	case "5+":
		return "5+ caracteres"
	}
	return lengthCode + " caracteres"
}

var (
	pinyinParenRe   = regexp.MustCompile(`\s*\([a-zāáǎàēéěèīíǐìōóǒòūúǔùǖǘǚǜA-Z\s]+\)`)
	leadingPhraseRe = regexp.MustCompile(`(?i)^(la palabra|el verbo|el sustantivo|la expresión)\s+(___\s*)?`)
	articleVerbRe   = regexp.MustCompile(`(?i)^(un|una)\s+(es|significa|se\s+refiere)\s+`)
	spacesRe        = regexp.MustCompile(`\s+`)
	leadingPunctRe  = regexp.MustCompile(`^[,\s\-]+`)
)

// ExtractDefinitionOnly strips the hanzi and pinyin out of a definition so it
// can be shown as a last-resort hint without giving the answer away.
func ExtractDefinitionOnly(definition, hanzi, py string) string {
	if definition == "" {
		return ""
	}
	result := definition

	if hanzi != "" {
		quoted := regexp.MustCompile(`['"«»]*` + regexp.QuoteMeta(hanzi) + `['"«»]*\s*\([^)]*\)`)
		result = quoted.ReplaceAllString(result, "")
	}
	if py != "" {
		pyRe, err := regexp.Compile(`(?i)\s*\([^)]*` + strings.ReplaceAll(regexp.QuoteMeta(py), `\ `, `\s*`) + `[^)]*\)`)
		if err == nil {
			result = pyRe.ReplaceAllString(result, "")
		}
	}
	result = pinyinParenRe.ReplaceAllString(result, "")
	if hanzi != "" {
		result = strings.ReplaceAll(result, hanzi, "___")
	}

	result = leadingPhraseRe.ReplaceAllString(result, "")
	result = spacesRe.ReplaceAllString(result, " ")
	result = strings.TrimSpace(result)
	result = leadingPunctRe.ReplaceAllString(result, "")
	result = articleVerbRe.ReplaceAllString(result, "$2 ")

	runes := []rune(result)
	if len(runes) > 0 {
		result = strings.ToUpper(string(runes[0])) + string(runes[1:])
	}
	return result
}

// HintOptions tune hint building per note model.
type HintOptions struct {
	// IncludeDefinition adds a fourth hint with the scrubbed definition.
	IncludeDefinition bool
	// HideWordInCollocation masks the target word inside the collocation
	// hint. Sentence cards show it, pattern cards hide it.
	HideWordInCollocation bool
}

// Hints are the progressive-revelation hint fields of a note.
type Hints struct {
	Hint1 string
	Hint2 string
	Hint3 string
	Hint4 string
}

// BuildHints assembles the hints for one row. Phase 1 gives grammar and
// frequency info, phase 2 a collocation, phase 3 masked pinyin and length,
// and phase 4 (optional) the scrubbed definition.
func BuildHints(row *models.VocabRow, opts HintOptions) Hints {
	var h Hints

	var phase1 []string
	if row.POS != "" {
		phase1 = append(phase1, "Tipo: "+LookupPOS(row.POS))
	}
	if row.Register != "" {
		phase1 = append(phase1, "Registro: "+LookupRegister(row.Register))
	}
	if row.Frecuencia != "" {
		phase1 = append(phase1, "Nivel: "+LookupFrequency(row.Frecuencia))
	}
	h.Hint1 = strings.Join(phase1, " | ")

	if row.Collocations != "" {
		colloc := text.LongestPiece(row.Collocations)
		if opts.HideWordInCollocation {
			colloc = text.MaskTarget(colloc, row.Hanzi)
		}
		colloc = text.RemoveParentheses(colloc)
		if colloc != "" && colloc != "___" {
			h.Hint2 = "Colocación: " + colloc
		}
	}

	var phase3 []string
	if mask := pinyin.Mask(row.Pinyin); mask != "" {
		phase3 = append(phase3, "Pinyin: "+mask)
	}
	if row.Longitud != "" {
		phase3 = append(phase3, LookupLength(row.Longitud))
	}
	h.Hint3 = strings.Join(phase3, " | ")

	if opts.IncludeDefinition && row.Definition != "" {
		h.Hint4 = ExtractDefinitionOnly(row.Definition, row.Hanzi, row.Pinyin)
	}
	return h
}

func contains(parts []string, s string) bool {
	for _, p := range parts {
		if p == s {
			return true
		}
	}
	return false
}

// FrontLine renders the sentence-card prompt.
func FrontLine(sentence, hanzi string) string {
	return fmt.Sprintf("%s → ¿Qué es %s?", sentence, hanzi)
}
