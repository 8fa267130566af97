// Package audiofile defines the audio filename convention shared by the
// audio generation and deck building stages. A file is located by the MD5
// hash of its source text, so both stages must clean the text identically
// before hashing.
package audiofile

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"chinosrs/internal/config"
	"chinosrs/internal/text"
)

// Hash returns the short content hash embedded in audio filenames.
func Hash(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:config.AudioHashLength]
}

// SentenceFilename names the audio file for an example sentence:
// <sanitized prefix>_<hash>.mp3
func SentenceFilename(sentence string) string {
	prefix := text.SanitizeFilename(text.TruncateRunes(sentence, config.SentenceNamePrefixLen), 0)
	return fmt.Sprintf("%s_%s.mp3", prefix, Hash(sentence))
}

// WordFilename names the audio file for a single word:
// word_<sanitized hanzi>_<hash>.mp3
func WordFilename(hanzi string) string {
	return fmt.Sprintf("word_%s_%s.mp3", text.SanitizeFilename(hanzi, 0), Hash(hanzi))
}

// FindSentence locates the audio file for a sentence in dir by hash match.
// Returns the absolute path, or "" when no file matches.
func FindSentence(sentence, dir string) string {
	if sentence == "" {
		return ""
	}
	return findByHash(dir, Hash(sentence), "")
}

// FindWord locates the audio file for a word in dir by hash match among
// word_-prefixed files. Returns the absolute path, or "" when none matches.
func FindWord(hanzi, dir string) string {
	if hanzi == "" {
		return ""
	}
	return findByHash(dir, Hash(hanzi), "word_")
}

func findByHash(dir, hash, prefix string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".mp3") {
			continue
		}
		if prefix != "" && !strings.HasPrefix(name, prefix) {
			continue
		}
		if strings.Contains(name, hash) {
			abs, err := filepath.Abs(filepath.Join(dir, name))
			if err != nil {
				return ""
			}
			return abs
		}
	}
	return ""
}
