package services

import (
	"path/filepath"
	"strings"
	"testing"

	"chinosrs/internal/sortkey"
	"chinosrs/models"
)

func testBuilder(t *testing.T) *NoteBuilder {
	t.Helper()
	return NewNoteBuilder("Chino SRS", t.TempDir(), sortkey.NewGenerator(42))
}

func TestBuildNotesProducesThreeCards(t *testing.T) {
	notes := testBuilder(t).BuildNotes(testRow())
	if len(notes) != 3 {
		t.Fatalf("expected 3 notes, got %d", len(notes))
	}

	wantModels := []string{models.ModelSentenceCard, models.ModelPatternCard, models.ModelAudioCard}
	for i, n := range notes {
		if n.ModelName != wantModels[i] {
			t.Errorf("note %d: expected model %s, got %s", i, wantModels[i], n.ModelName)
		}
		if n.DeckName != "Chino SRS" {
			t.Errorf("note %d: wrong deck %q", i, n.DeckName)
		}
		if n.Fields["Hanzi"] != "下雨" {
			t.Errorf("note %d: wrong hanzi %q", i, n.Fields["Hanzi"])
		}
		if len(n.Fields["SortKey"]) != 8 {
			t.Errorf("note %d: bad sort key %q", i, n.Fields["SortKey"])
		}
		if n.Options.AllowDuplicate {
			t.Errorf("note %d: duplicates must not be allowed", i)
		}
	}
}

func TestBuildNotesSentenceRotation(t *testing.T) {
	notes := testBuilder(t).BuildNotes(testRow())

	if notes[0].Fields["SentenceCN"] != "今天下雨了。" {
		t.Errorf("sentence card should use the first sentence, got %q", notes[0].Fields["SentenceCN"])
	}
	if notes[1].Fields["SentenceCN"] != "明天会下雨吗？" {
		t.Errorf("pattern card should use the second sentence, got %q", notes[1].Fields["SentenceCN"])
	}
	if notes[2].Fields["SentenceCN"] != "下雨的时候我喜欢看书。" {
		t.Errorf("audio card should use the third sentence, got %q", notes[2].Fields["SentenceCN"])
	}
}

func TestBuildNotesSingleSentenceFallback(t *testing.T) {
	row := testRow()
	row.ExampleSentence = "今天下雨了。"
	row.ExampleTranslation = "Hoy llovió."
	notes := testBuilder(t).BuildNotes(row)

	for i, n := range notes {
		if n.Fields["SentenceCN"] != "今天下雨了。" {
			t.Errorf("note %d should fall back to the only sentence, got %q", i, n.Fields["SentenceCN"])
		}
		if n.Fields["SentenceES"] != "Hoy llovió." {
			t.Errorf("note %d translation fallback broken: %q", i, n.Fields["SentenceES"])
		}
	}
}

func TestBuildNotesCloze(t *testing.T) {
	notes := testBuilder(t).BuildNotes(testRow())
	pattern := notes[1]

	if pattern.Fields["ClozeSentence"] != "明天会___吗？" {
		t.Errorf("bad cloze sentence: %q", pattern.Fields["ClozeSentence"])
	}
	if pattern.Fields["MissingPart"] != "下雨" {
		t.Errorf("bad missing part: %q", pattern.Fields["MissingPart"])
	}
}

func TestBuildNotesFrontLine(t *testing.T) {
	notes := testBuilder(t).BuildNotes(testRow())
	want := "今天下雨了。 → ¿Qué es 下雨?"
	if notes[0].Fields["FrontLine"] != want {
		t.Errorf("FrontLine = %q, want %q", notes[0].Fields["FrontLine"], want)
	}
}

func TestBuildNotesTags(t *testing.T) {
	notes := testBuilder(t).BuildNotes(testRow())

	tags := notes[0].Tags
	if tags[0] != "SRS" || tags[1] != "Sentence" {
		t.Errorf("unexpected leading tags: %v", tags)
	}
	for _, tag := range tags {
		if strings.Contains(tag, ":") {
			t.Errorf("anki tag contains colon: %q", tag)
		}
	}
	found := false
	for _, tag := range tags {
		if tag == "gram-le" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected gram-le tag, got %v", tags)
	}

	if notes[1].Tags[1] != "Pattern" || notes[2].Tags[1] != "Audio" {
		t.Error("model kind tags misplaced")
	}

	if notes[0].Fields["Tags"] != "gram:le;hsk:1;freq:top1k;reg:neutral" {
		t.Errorf("unexpected combined tag cell: %q", notes[0].Fields["Tags"])
	}
}

func TestBuildNotesReadableLookups(t *testing.T) {
	notes := testBuilder(t).BuildNotes(testRow())
	n := notes[0]
	if !strings.Contains(n.Fields["POS"], "verbo") {
		t.Errorf("POS not readable: %q", n.Fields["POS"])
	}
	if n.Fields["Register"] != "neutral" {
		t.Errorf("register not readable: %q", n.Fields["Register"])
	}
	if !strings.Contains(n.Fields["Frecuencia"], "HSK 1") {
		t.Errorf("frequency not readable: %q", n.Fields["Frecuencia"])
	}
}

func TestBuildAllLimit(t *testing.T) {
	rows := []*models.VocabRow{testRow(), testRow(), testRow()}
	notes := testBuilder(t).BuildAll(rows, 2)
	if len(notes) != 6 {
		t.Errorf("expected 6 notes with limit 2, got %d", len(notes))
	}
}

func TestNotesCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	notes := testBuilder(t).BuildNotes(testRow())

	cacheFile := CachePath(dir, filepath.Join("somewhere", "vocab_batch1.csv"))
	if filepath.Base(cacheFile) != "vocab_batch1.json" {
		t.Errorf("unexpected cache filename: %s", cacheFile)
	}

	if err := SaveNotesCache(notes, cacheFile); err != nil {
		t.Fatalf("SaveNotesCache: %v", err)
	}
	loaded, err := LoadNotesCache(cacheFile)
	if err != nil {
		t.Fatalf("LoadNotesCache: %v", err)
	}
	if len(loaded) != len(notes) {
		t.Fatalf("expected %d notes, got %d", len(notes), len(loaded))
	}
	if loaded[0].Fields["Hanzi"] != "下雨" {
		t.Errorf("cache lost fields: %+v", loaded[0].Fields)
	}
	if loaded[1].ModelName != models.ModelPatternCard {
		t.Errorf("cache lost model name: %s", loaded[1].ModelName)
	}
}

func TestDeduplicateNotes(t *testing.T) {
	mkNote := func(key string) *models.Note {
		return &models.Note{Fields: map[string]string{"SortKey": key}}
	}
	notes := []*models.Note{mkNote("01010005"), mkNote("01010005"), mkNote("01010009")}

	changed, err := DeduplicateNotes(notes)
	if err != nil {
		t.Fatalf("DeduplicateNotes: %v", err)
	}
	if len(changed) != 1 {
		t.Fatalf("expected 1 rewritten note, got %d", len(changed))
	}

	seen := make(map[string]bool)
	for _, n := range notes {
		key := n.Fields["SortKey"]
		if seen[key] {
			t.Errorf("duplicate key survived: %s", key)
		}
		seen[key] = true
	}
	if notes[0].Fields["SortKey"] != "01010005" {
		t.Errorf("first occurrence must keep its key, got %s", notes[0].Fields["SortKey"])
	}
}
