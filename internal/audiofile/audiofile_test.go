package audiofile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHash_StableAndShort(t *testing.T) {
	h := Hash("这件首饰非常贵重。")
	if len(h) != 8 {
		t.Errorf("len(Hash()) = %d, want 8", len(h))
	}
	if h != Hash("这件首饰非常贵重。") {
		t.Error("Hash() should be deterministic")
	}
	if h == Hash("别的句子") {
		t.Error("different inputs should hash differently")
	}
}

func TestSentenceFilename(t *testing.T) {
	name := SentenceFilename("这件首饰非常贵重。")
	if !strings.HasSuffix(name, ".mp3") {
		t.Errorf("SentenceFilename() = %q, want .mp3 suffix", name)
	}
	if !strings.Contains(name, Hash("这件首饰非常贵重。")) {
		t.Errorf("SentenceFilename() = %q, should embed the hash", name)
	}
}

func TestWordFilename(t *testing.T) {
	name := WordFilename("贵重")
	if !strings.HasPrefix(name, "word_") {
		t.Errorf("WordFilename() = %q, want word_ prefix", name)
	}
	if !strings.Contains(name, Hash("贵重")) {
		t.Errorf("WordFilename() = %q, should embed the hash", name)
	}
}

func TestFindSentenceAndWord(t *testing.T) {
	dir := t.TempDir()

	sentence := "他把贵重的文件放在保险箱里。"
	word := "贵重"

	sentPath := filepath.Join(dir, SentenceFilename(sentence))
	wordPath := filepath.Join(dir, WordFilename(word))
	for _, p := range []string{sentPath, wordPath} {
		if err := os.WriteFile(p, []byte("mp3"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	got := FindSentence(sentence, dir)
	if got == "" || filepath.Base(got) != filepath.Base(sentPath) {
		t.Errorf("FindSentence() = %q, want %q", got, sentPath)
	}

	got = FindWord(word, dir)
	if got == "" || filepath.Base(got) != filepath.Base(wordPath) {
		t.Errorf("FindWord() = %q, want %q", got, wordPath)
	}

	// The word lookup must not match sentence files even when the sentence
	// contains the word.
	if FindWord("没有的词", dir) != "" {
		t.Error("FindWord() should return empty for missing audio")
	}
	if FindSentence("没有的句子", dir) != "" {
		t.Error("FindSentence() should return empty for missing audio")
	}
}

func TestFind_MissingDir(t *testing.T) {
	if FindSentence("句子", "/nonexistent/dir") != "" {
		t.Error("FindSentence() on missing dir should return empty")
	}
	if FindWord("词", "/nonexistent/dir") != "" {
		t.Error("FindWord() on missing dir should return empty")
	}
}
