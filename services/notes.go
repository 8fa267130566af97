package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"chinosrs/internal/audiofile"
	"chinosrs/internal/logger"
	"chinosrs/internal/sortkey"
	"chinosrs/internal/text"
	"chinosrs/models"
)

// NoteBuilder turns CSV rows into the three note types per word.
type NoteBuilder struct {
	deckName string
	audioDir string
	keys     *sortkey.Generator
}

func NewNoteBuilder(deckName, audioDir string, keys *sortkey.Generator) *NoteBuilder {
	abs, err := filepath.Abs(audioDir)
	if err != nil {
		abs = audioDir
	}
	return &NoteBuilder{deckName: deckName, audioDir: abs, keys: keys}
}

// combinedTags joins the row's seed, frequency and register tags.
func combinedTags(row *models.VocabRow) []string {
	var tags []string
	for _, cell := range []string{row.TagsSeed, row.Frecuencia} {
		for _, t := range strings.Split(cell, ";") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	if reg := strings.TrimSpace(row.Register); reg != "" {
		tags = append(tags, reg)
	}
	return tags
}

// ankiTags renders tags for Anki, which rejects colons.
func ankiTags(kind string, tags []string) []string {
	out := []string{"SRS", kind}
	for _, t := range tags {
		out = append(out, strings.ReplaceAll(t, ":", "-"))
	}
	return out
}

// sentenceAudio builds the audio attachment list for a note: the sentence
// recording plus the word recording, when they exist on disk.
func (b *NoteBuilder) sentenceAudio(sentence, hanzi string) []models.NoteAudio {
	var audio []models.NoteAudio
	if p := audiofile.FindSentence(sentence, b.audioDir); p != "" {
		audio = append(audio, models.NoteAudio{
			Path:     p,
			Filename: filepath.Base(p),
			Fields:   []string{"Audio"},
		})
	}
	if p := audiofile.FindWord(hanzi, b.audioDir); p != "" {
		audio = append(audio, models.NoteAudio{
			Path:     p,
			Filename: filepath.Base(p),
			Fields:   []string{"WordAudio"},
		})
	}
	return audio
}

// BuildNotes produces the SentenceCard, PatternCard and AudioCard notes for
// one row. Each card uses a different example sentence when enough exist.
func (b *NoteBuilder) BuildNotes(row *models.VocabRow) []*models.Note {
	hanzi := strings.TrimSpace(row.Hanzi)

	var sentencesCN []string
	for _, s := range text.SplitPieces(row.ExampleSentence) {
		sentencesCN = append(sentencesCN, text.CleanPinyinFromSentence(s))
	}
	sentencesES := text.SplitPieces(row.ExampleTranslation)
	if len(sentencesCN) == 0 {
		sentencesCN = []string{""}
	}
	if len(sentencesES) == 0 {
		sentencesES = []string{""}
	}
	for len(sentencesES) < len(sentencesCN) {
		sentencesES = append(sentencesES, sentencesES[len(sentencesES)-1])
	}

	tags := combinedTags(row)
	tagCell := strings.Join(tags, ";")
	posReadable := LookupPOS(row.POS)
	registerReadable := LookupRegister(row.Register)
	frequencyReadable := LookupFrequency(row.Frecuencia)

	base := func() map[string]string {
		return map[string]string{
			"Hanzi":      hanzi,
			"Pinyin":     row.Pinyin,
			"Meaning":    row.Definition,
			"Tips":       row.Tips,
			"POS":        posReadable,
			"Register":   registerReadable,
			"Frecuencia": frequencyReadable,
			"Tags":       tagCell,
			"Audio":      "",
			"WordAudio":  "",
		}
	}
	pick := func(idx int) (string, string) {
		if idx >= len(sentencesCN) {
			idx = len(sentencesCN) - 1
		}
		return sentencesCN[idx], sentencesES[idx]
	}

	notes := make([]*models.Note, 0, 3)

	// SentenceCard: first sentence, collocation hint shows the word.
	sentCN, sentES := pick(0)
	hints := BuildHints(row, HintOptions{HideWordInCollocation: false})
	fields := base()
	fields["SentenceCN"] = sentCN
	fields["SentenceES"] = sentES
	fields["Collocations"] = row.Collocations
	fields["FrontLine"] = FrontLine(sentCN, hanzi)
	fields["Hint1"] = hints.Hint1
	fields["Hint2"] = hints.Hint2
	fields["Hint3"] = hints.Hint3
	fields["SortKey"] = b.keys.Generate(row.Frecuencia)
	notes = append(notes, &models.Note{
		DeckName:  b.deckName,
		ModelName: models.ModelSentenceCard,
		Fields:    fields,
		Tags:      ankiTags("Sentence", tags),
		Audio:     b.sentenceAudio(sentCN, hanzi),
	})

	// PatternCard: second sentence with the word blanked out.
	patCN, patES := pick(1)
	hints = BuildHints(row, HintOptions{IncludeDefinition: true, HideWordInCollocation: true})
	fields = base()
	fields["SentenceCN"] = patCN
	fields["SentenceES"] = patES
	fields["ClozeSentence"] = text.MaskTarget(patCN, hanzi)
	fields["MissingPart"] = hanzi
	fields["Hint1"] = hints.Hint1
	fields["Hint2"] = hints.Hint2
	fields["Hint3"] = hints.Hint3
	fields["Hint4"] = hints.Hint4
	fields["SortKey"] = b.keys.Generate(row.Frecuencia)
	notes = append(notes, &models.Note{
		DeckName:  b.deckName,
		ModelName: models.ModelPatternCard,
		Fields:    fields,
		Tags:      ankiTags("Pattern", tags),
		Audio:     b.sentenceAudio(patCN, hanzi),
	})

	// AudioCard: third sentence, comprehension by ear.
	audCN, audES := pick(2)
	hints = BuildHints(row, HintOptions{IncludeDefinition: true, HideWordInCollocation: true})
	fields = base()
	fields["SentenceCN"] = audCN
	fields["SentenceES"] = audES
	fields["Hint1"] = hints.Hint1
	fields["Hint2"] = hints.Hint2
	fields["Hint3"] = hints.Hint3
	fields["Hint4"] = hints.Hint4
	fields["SortKey"] = b.keys.Generate(row.Frecuencia)
	notes = append(notes, &models.Note{
		DeckName:  b.deckName,
		ModelName: models.ModelAudioCard,
		Fields:    fields,
		Tags:      ankiTags("Audio", tags),
		Audio:     b.sentenceAudio(audCN, hanzi),
	})

	return notes
}

// BuildAll builds notes for every row, up to limit when positive.
func (b *NoteBuilder) BuildAll(rows []*models.VocabRow, limit int) []*models.Note {
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	notes := make([]*models.Note, 0, len(rows)*3)
	for _, row := range rows {
		notes = append(notes, b.BuildNotes(row)...)
	}
	return notes
}

// CachePath returns where the generated notes for a CSV are cached.
func CachePath(outputDir, csvFile string) string {
	base := filepath.Base(csvFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outputDir, name+".json")
}

// SaveNotesCache writes the generated notes to the JSON cache.
func SaveNotesCache(notes []*models.Note, cacheFile string) error {
	if err := os.MkdirAll(filepath.Dir(cacheFile), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(notes, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling note cache: %w", err)
	}
	if err := os.WriteFile(cacheFile, data, 0o644); err != nil {
		return fmt.Errorf("writing note cache: %w", err)
	}
	logger.Info("cached %d notes to %s", len(notes), cacheFile)
	return nil
}

// LoadNotesCache reads notes back from the JSON cache.
func LoadNotesCache(cacheFile string) ([]*models.Note, error) {
	data, err := os.ReadFile(cacheFile)
	if err != nil {
		return nil, err
	}
	var notes []*models.Note
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil, fmt.Errorf("parsing note cache %s: %w", cacheFile, err)
	}
	logger.Info("loaded %d notes from cache %s", len(notes), cacheFile)
	return notes, nil
}

// DeduplicateNotes rewrites colliding SortKey fields in place so every note
// sorts uniquely. It returns the subset of notes whose key changed.
func DeduplicateNotes(notes []*models.Note) ([]*models.Note, error) {
	keys := make([]string, len(notes))
	for i, n := range notes {
		keys[i] = n.Fields["SortKey"]
	}
	resolved, changed, err := sortkey.Deduplicate(keys)
	if err != nil {
		return nil, err
	}
	for i, n := range notes {
		n.Fields["SortKey"] = resolved[i]
	}
	dedup := make([]*models.Note, 0, len(changed))
	for _, idx := range changed {
		dedup = append(dedup, notes[idx])
	}
	if len(dedup) > 0 {
		logger.Info("rewrote %d duplicate sort keys", len(dedup))
	} else {
		logger.Info("no duplicate sort keys found")
	}
	return dedup, nil
}
