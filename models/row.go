package models

import "strings"

// CSVHeader is the vocabulary CSV column order. It is part of the contract
// between the pipeline stages, so the order must not change.
var CSVHeader = []string{
	"hanzi",
	"pinyin",
	"definition",
	"example_sentence",
	"example_translation",
	"tips",
	"collocations",
	"pos",
	"register",
	"longitud",
	"tags_seed",
	"frecuencia",
}

// VocabRow is one line of the vocabulary CSV. Multi-valued cells join their
// pieces with " | " (sentences, collocations) or ";" (tags).
type VocabRow struct {
	Hanzi              string
	Pinyin             string
	Definition         string
	ExampleSentence    string
	ExampleTranslation string
	Tips               string
	Collocations       string
	POS                string
	Register           string
	Longitud           string
	TagsSeed           string
	Frecuencia         string
}

// Record renders the row in CSVHeader order.
func (r *VocabRow) Record() []string {
	return []string{
		r.Hanzi,
		r.Pinyin,
		r.Definition,
		r.ExampleSentence,
		r.ExampleTranslation,
		r.Tips,
		r.Collocations,
		r.POS,
		r.Register,
		r.Longitud,
		r.TagsSeed,
		r.Frecuencia,
	}
}

// RowFromRecord builds a VocabRow from a CSV record using the header of the
// file being read, so column order and extra columns are tolerated.
func RowFromRecord(header, record []string) *VocabRow {
	get := func(name string) string {
		for i, h := range header {
			if h == name && i < len(record) {
				return strings.TrimSpace(record[i])
			}
		}
		return ""
	}
	return &VocabRow{
		Hanzi:              get("hanzi"),
		Pinyin:             get("pinyin"),
		Definition:         get("definition"),
		ExampleSentence:    get("example_sentence"),
		ExampleTranslation: get("example_translation"),
		Tips:               get("tips"),
		Collocations:       get("collocations"),
		POS:                get("pos"),
		Register:           get("register"),
		Longitud:           get("longitud"),
		TagsSeed:           get("tags_seed"),
		Frecuencia:         get("frecuencia"),
	}
}

// JoinPieces renders a multi-valued cell: pieces joined with " | ".
func JoinPieces(pieces []string) string {
	kept := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " | ")
}
