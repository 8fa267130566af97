package services

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chinosrs/models"
)

// mp3Payload is large enough to pass the corrupt-output check.
var mp3Payload = bytes.Repeat([]byte("ID3 fake audio "), 100)

func TestGoogleTTSSynthesize(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write(mp3Payload)
	}))
	defer srv.Close()

	engine := NewGoogleTTSEngine("zh-CN")
	engine.endpoint = srv.URL

	out := filepath.Join(t.TempDir(), "out.mp3")
	if err := engine.Synthesize(context.Background(), "今天下雨了。", out); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if !bytes.Equal(data, mp3Payload) {
		t.Error("output does not match server payload")
	}
	for _, want := range []string{"tl=zh-CN", "client=tw-ob", "ie=UTF-8"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query missing %s: %s", want, gotQuery)
		}
	}
}

func TestGoogleTTSEmptyText(t *testing.T) {
	engine := NewGoogleTTSEngine("")
	if err := engine.Synthesize(context.Background(), "", "out.mp3"); err == nil {
		t.Error("expected error for empty text")
	}
}

func TestAzureSynthesize(t *testing.T) {
	var gotSSML string
	var gotKey, gotFormat string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := new(bytes.Buffer)
		body.ReadFrom(r.Body)
		gotSSML = body.String()
		gotKey = r.Header.Get("Ocp-Apim-Subscription-Key")
		gotFormat = r.Header.Get("X-Microsoft-OutputFormat")
		w.Write(mp3Payload)
	}))
	defer srv.Close()

	engine := NewAzureTTSEngine("azure-key", "eastus", "", 0.9, false)
	engine.endpoint = srv.URL

	out := filepath.Join(t.TempDir(), "out.mp3")
	if err := engine.Synthesize(context.Background(), "你好", out); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if gotKey != "azure-key" {
		t.Errorf("bad subscription key header: %q", gotKey)
	}
	if gotFormat != "audio-16khz-128kbitrate-mono-mp3" {
		t.Errorf("bad output format header: %q", gotFormat)
	}
	if !strings.Contains(gotSSML, "zh-CN-XiaoxiaoNeural") {
		t.Errorf("SSML missing default voice: %s", gotSSML)
	}
	if !strings.Contains(gotSSML, "rate='-10%'") {
		t.Errorf("SSML missing prosody rate: %s", gotSSML)
	}
	if !strings.Contains(gotSSML, "你好") {
		t.Errorf("SSML missing text: %s", gotSSML)
	}
}

func TestAzureRetriesRateLimit(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write(mp3Payload)
	}))
	defer srv.Close()

	engine := NewAzureTTSEngine("azure-key", "eastus", "", 1.0, false)
	engine.endpoint = srv.URL

	out := filepath.Join(t.TempDir(), "out.mp3")
	if err := engine.Synthesize(context.Background(), "你好", out); err != nil {
		t.Fatalf("Synthesize after retry: %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestAzureRequiresKey(t *testing.T) {
	engine := NewAzureTTSEngine("", "", "", 1.0, false)
	if err := engine.Available(); err == nil {
		t.Error("expected error without key")
	}
}

func TestProsodyRate(t *testing.T) {
	tests := []struct {
		speed float64
		want  string
	}{
		{1.0, "+0%"},
		{0.9, "-10%"},
		{1.25, "+25%"},
	}
	for _, tt := range tests {
		if got := prosodyRate(tt.speed); got != tt.want {
			t.Errorf("prosodyRate(%v) = %q, want %q", tt.speed, got, tt.want)
		}
	}
}

func TestNewEngine(t *testing.T) {
	cfg := models.DefaultConfig()
	engine, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if engine.Name() != "gtts" {
		t.Errorf("default engine should be gtts, got %s", engine.Name())
	}

	cfg.TTSEngine = "azure"
	engine, err = NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine azure: %v", err)
	}
	if engine.Name() != "azure" {
		t.Errorf("expected azure, got %s", engine.Name())
	}

	cfg.TTSEngine = "espeak"
	if _, err := NewEngine(cfg); err == nil {
		t.Error("expected error for unknown engine")
	}
}

// stubEngine records synthesize calls and writes fixed payloads.
type stubEngine struct {
	calls []string
	fail  map[string]bool
	small bool
}

func (s *stubEngine) Name() string     { return "stub" }
func (s *stubEngine) Available() error { return nil }
func (s *stubEngine) Workers() int     { return 2 }

func (s *stubEngine) Synthesize(ctx context.Context, text, outputPath string) error {
	s.calls = append(s.calls, text)
	if s.fail[text] {
		return context.DeadlineExceeded
	}
	payload := mp3Payload
	if s.small {
		payload = []byte("tiny")
	}
	return os.WriteFile(outputPath, payload, 0o644)
}

func TestAudioServiceGenerate(t *testing.T) {
	dir := t.TempDir()
	engine := &stubEngine{}
	svc := NewAudioService(engine, dir)

	stats, err := svc.Generate(context.Background(), []*models.VocabRow{testRow()}, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	// Three sentences plus the word itself.
	if stats.Generated != 4 {
		t.Errorf("expected 4 generated, got %d", stats.Generated)
	}
	if stats.Failed != 0 || stats.Skipped != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	// The word audio goes through the word_ naming scheme.
	foundWord := false
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "word_") {
			foundWord = true
		}
	}
	if !foundWord {
		t.Error("word audio file missing")
	}
}

func TestAudioServiceSkipsExisting(t *testing.T) {
	dir := t.TempDir()
	engine := &stubEngine{}
	svc := NewAudioService(engine, dir)

	if _, err := svc.Generate(context.Background(), []*models.VocabRow{testRow()}, nil); err != nil {
		t.Fatal(err)
	}
	engine.calls = nil

	stats, err := svc.Generate(context.Background(), []*models.VocabRow{testRow()}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(engine.calls) != 0 {
		t.Errorf("expected no synthesis calls on second run, got %d", len(engine.calls))
	}
	if stats.Skipped != 4 {
		t.Errorf("expected 4 skipped, got %d", stats.Skipped)
	}
}

func TestAudioServiceDiscardsSmallOutputs(t *testing.T) {
	dir := t.TempDir()
	engine := &stubEngine{small: true}
	svc := NewAudioService(engine, dir)

	stats, err := svc.Generate(context.Background(), []*models.VocabRow{testRow()}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Failed != 4 {
		t.Errorf("expected 4 failures for tiny outputs, got %d", stats.Failed)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("tiny outputs should be deleted, found %d files", len(entries))
	}
}

func TestAudioServicePartialFailure(t *testing.T) {
	dir := t.TempDir()
	engine := &stubEngine{fail: map[string]bool{"下雨": true}}
	svc := NewAudioService(engine, dir)

	stats, err := svc.Generate(context.Background(), []*models.VocabRow{testRow()}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Generated != 3 || stats.Failed != 1 {
		t.Errorf("expected 3 generated and 1 failed, got %+v", stats)
	}
}
