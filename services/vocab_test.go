package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chinosrs/models"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

const entryJSON = `[
  {
    "simplified": "学习",
    "forms": [{"transcriptions": {"pinyin": "xuéxí"}, "meanings": ["estudiar", "aprender"]}],
    "pos": ["v"],
    "level": ["new-1", "old-2"],
    "frequency": 353
  },
  {
    "simplified": "贵重",
    "forms": [{"transcriptions": {"pinyin": "guìzhòng"}, "meanings": ["valioso"]}],
    "pos": ["adj."],
    "level": ["new-6"],
    "frequency": 8200
  }
]`

func TestLoadEntriesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.json")
	writeFile(t, path, "\xef\xbb\xbf"+entryJSON)

	entries, err := LoadEntries(path)
	if err != nil {
		t.Fatalf("LoadEntries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Simplified != "学习" || entries[0].Pinyin() != "xuéxí" {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
}

func TestLoadEntriesDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b_chunk2.json"),
		`[{"simplified": "二", "forms": [], "pos": [], "level": [], "frequency": 0}]`)
	writeFile(t, filepath.Join(dir, "a_chunk1.json"),
		`[{"simplified": "一", "forms": [], "pos": [], "level": [], "frequency": 0}]`)

	entries, err := LoadEntries(dir)
	if err != nil {
		t.Fatalf("LoadEntries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// Chunks load in sorted filename order.
	if entries[0].Simplified != "一" || entries[1].Simplified != "二" {
		t.Errorf("chunk order wrong: %s, %s", entries[0].Simplified, entries[1].Simplified)
	}
}

func TestLoadEntriesMissing(t *testing.T) {
	if _, err := LoadEntries(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestPosTags(t *testing.T) {
	e := &models.VocabEntry{POS: []string{"v", "n"}}
	if got := PosTags(e); got != "pos:v;pos:n" {
		t.Errorf("PosTags = %q, want pos:v;pos:n", got)
	}
	if got := PosTags(&models.VocabEntry{}); got != "" {
		t.Errorf("PosTags of empty entry = %q", got)
	}
}

func TestFreqTags(t *testing.T) {
	e := &models.VocabEntry{
		Levels:    []string{"new-1", "old-2"},
		Frequency: 353,
	}
	if got := FreqTags(e); got != "hsk:1;freq:top1k" {
		t.Errorf("FreqTags = %q, want hsk:1;freq:top1k", got)
	}
	if got := FreqTags(&models.VocabEntry{}); got != "" {
		t.Errorf("FreqTags of empty entry = %q", got)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	rows := []*models.VocabRow{testRow()}

	if err := WriteCSV(path, rows); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	got, err := ReadCSV(path)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}
	if got[0].Hanzi != rows[0].Hanzi || got[0].ExampleSentence != rows[0].ExampleSentence {
		t.Errorf("round trip mismatch: %+v", got[0])
	}
}

func TestReadCSVStripsBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "excel.csv")
	writeFile(t, path, "\xef\xbb\xbfhanzi,pinyin\n下雨,xià yǔ\n")

	rows, err := ReadCSV(path)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(rows) != 1 || rows[0].Hanzi != "下雨" {
		t.Errorf("BOM header broke column mapping: %+v", rows[0])
	}
}

func TestGenerateCSV(t *testing.T) {
	enrichment := models.Enrichment{
		Definition:          "Significa estudiar o aprender algo nuevo.",
		ExampleSentences:    []string{"我每天学习中文。", "他在大学学习。", "学习需要耐心。"},
		ExampleTranslations: []string{"Estudio chino cada día.", "Él estudia en la universidad.", "Estudiar requiere paciencia."},
		Tips:                "Se usa tanto como verbo como sustantivo.",
		Collocations:        []string{"学习中文 (estudiar chino)", "努力学习 (estudiar duro)", "学习方法 (método de estudio)"},
		Register:            "reg:neutral",
	}
	content, _ := json.Marshal(enrichment)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("bad auth header: %q", got)
		}
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": string(content)}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	openai := NewOpenAIService("test-key", "")
	openai.endpoint = srv.URL
	svc := NewVocabService(openai)

	jsonPath := filepath.Join(t.TempDir(), "vocab.json")
	writeFile(t, jsonPath, entryJSON)
	entries, err := LoadEntries(jsonPath)
	if err != nil {
		t.Fatal(err)
	}

	csvPath := filepath.Join(t.TempDir(), "out.csv")
	written, err := svc.GenerateCSV(context.Background(), entries, csvPath, VocabOptions{Workers: 2})
	if err != nil {
		t.Fatalf("GenerateCSV: %v", err)
	}
	if written != 2 {
		t.Fatalf("expected 2 rows written, got %d", written)
	}

	rows, err := ReadCSV(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	if rows[0].Hanzi != "学习" {
		t.Errorf("unexpected hanzi: %q", rows[0].Hanzi)
	}
	if !strings.Contains(rows[0].ExampleSentence, " | ") {
		t.Errorf("sentences not pipe-joined: %q", rows[0].ExampleSentence)
	}
	if rows[0].POS != "pos:v" {
		t.Errorf("unexpected pos cell: %q", rows[0].POS)
	}
	if rows[0].Frecuencia != "hsk:1;freq:top1k" {
		t.Errorf("unexpected frecuencia cell: %q", rows[0].Frecuencia)
	}
	if rows[0].Longitud != "length:word" {
		t.Errorf("unexpected longitud cell: %q", rows[0].Longitud)
	}
	if rows[0].Register != "reg:neutral" {
		t.Errorf("unexpected register: %q", rows[0].Register)
	}
}

func TestGenerateCSVMaxItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": `{"definition": "algo"}`}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	openai := NewOpenAIService("test-key", "")
	openai.endpoint = srv.URL
	svc := NewVocabService(openai)

	jsonPath := filepath.Join(t.TempDir(), "vocab.json")
	writeFile(t, jsonPath, entryJSON)
	entries, _ := LoadEntries(jsonPath)

	csvPath := filepath.Join(t.TempDir(), "out.csv")
	written, err := svc.GenerateCSV(context.Background(), entries, csvPath, VocabOptions{MaxItems: 1})
	if err != nil {
		t.Fatalf("GenerateCSV: %v", err)
	}
	if written != 1 {
		t.Errorf("expected 1 row with MaxItems=1, got %d", written)
	}
}

func TestGenerateCSVSkipsFailedEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), "hanzi: 贵重") {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]string{"message": "rejected"},
			})
			return
		}
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": `{"definition": "algo"}`}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	openai := NewOpenAIService("test-key", "")
	openai.endpoint = srv.URL
	svc := NewVocabService(openai)

	jsonPath := filepath.Join(t.TempDir(), "vocab.json")
	writeFile(t, jsonPath, entryJSON)
	entries, _ := LoadEntries(jsonPath)

	csvPath := filepath.Join(t.TempDir(), "out.csv")
	written, err := svc.GenerateCSV(context.Background(), entries, csvPath, VocabOptions{Workers: 2})
	if err != nil {
		t.Fatalf("GenerateCSV: %v", err)
	}
	if written != 1 {
		t.Fatalf("expected 1 row after one failure, got %d", written)
	}

	rows, err := ReadCSV(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Hanzi != "学习" {
		t.Errorf("surviving row mismatch: %+v", rows)
	}
}

func TestGenerateCSVRequiresKey(t *testing.T) {
	svc := NewVocabService(NewOpenAIService("", ""))
	_, err := svc.GenerateCSV(context.Background(), nil, "out.csv", VocabOptions{})
	if err == nil {
		t.Error("expected error without API key")
	}
}

func TestParseRate(t *testing.T) {
	if v, err := ParseRate("0.9"); err != nil || v != 0.9 {
		t.Errorf("ParseRate(0.9) = %v, %v", v, err)
	}
	if _, err := ParseRate("fast"); err == nil {
		t.Error("expected error for non-numeric rate")
	}
	if _, err := ParseRate("-1"); err == nil {
		t.Error("expected error for negative rate")
	}
}
