package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// VocabEntry is one raw dictionary entry from the JSON vocabulary source.
type VocabEntry struct {
	Simplified string   `json:"simplified"`
	Forms      []Form   `json:"forms"`
	POS        []string `json:"pos"`
	Levels     []string `json:"level"`
	Frequency  int      `json:"frequency"`
}

// Form is one reading of an entry: its transcriptions and meanings.
type Form struct {
	Transcriptions Transcriptions `json:"transcriptions"`
	Meanings       []string       `json:"meanings"`
}

// Transcriptions holds the romanizations of a form.
type Transcriptions struct {
	Pinyin string `json:"pinyin"`
}

// Pinyin returns the pinyin of the first form, if any.
func (e *VocabEntry) Pinyin() string {
	if len(e.Forms) == 0 {
		return ""
	}
	return e.Forms[0].Transcriptions.Pinyin
}

// Meanings returns the meanings of the first form, if any.
func (e *VocabEntry) Meanings() []string {
	if len(e.Forms) == 0 {
		return nil
	}
	return e.Forms[0].Meanings
}

// HSKTag derives the entry's HSK tag from its level markers. New-HSK levels
// ("new-2") win over old ones ("old-4"); trailing "+" is tolerated; the
// lowest level of each family is taken. Returns "" when no level parses.
func (e *VocabEntry) HSKTag() string {
	bestNew, bestOld := 0, 0
	for _, lv := range e.Levels {
		var tail string
		var best *int
		switch {
		case strings.HasPrefix(lv, "new-"):
			tail = strings.TrimSuffix(lv[len("new-"):], "+")
			best = &bestNew
		case strings.HasPrefix(lv, "old-"):
			tail = strings.TrimSuffix(lv[len("old-"):], "+")
			best = &bestOld
		default:
			continue
		}
		n, err := strconv.Atoi(tail)
		if err != nil || n <= 0 {
			continue
		}
		if *best == 0 || n < *best {
			*best = n
		}
	}

	best := bestNew
	if best == 0 {
		best = bestOld
	}
	if best == 0 {
		return ""
	}
	return "hsk:" + strconv.Itoa(best)
}

// FreqTag derives the entry's frequency bucket tag from its rank. Returns ""
// when the rank is missing or non-positive.
func (e *VocabEntry) FreqTag() string {
	switch rank := e.Frequency; {
	case rank <= 0:
		return ""
	case rank <= 1000:
		return "freq:top1k"
	case rank <= 3000:
		return "freq:top3k"
	case rank <= 5000:
		return "freq:top5k"
	case rank <= 10000:
		return "freq:top10k"
	default:
		return "freq:rare"
	}
}

// LengthTag classifies the entry as a single character or a word.
func (e *VocabEntry) LengthTag() string {
	if len([]rune(e.Simplified)) <= 1 {
		return "length:char"
	}
	return "length:word"
}

// Enrichment is the didactic content the LLM generates for an entry.
type Enrichment struct {
	Definition          string     `json:"definition"`
	ExampleSentences    []string   `json:"example_sentence"`
	ExampleTranslations []string   `json:"example_translation"`
	Tips                string     `json:"tips"`
	Collocations        []string   `json:"collocations"`
	Register            string     `json:"register"`
	TagsSeed            StringList `json:"tags_seed"`
}

// StringList tolerates the LLM returning either a string or an array of
// strings for a field.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*l = nil
		} else {
			*l = StringList{single}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = StringList(many)
	return nil
}

// Join renders the list as a semicolon-separated tag cell.
func (l StringList) Join() string {
	parts := make([]string, 0, len(l))
	for _, s := range l {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ";")
}
