package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"chinosrs/internal/audiofile"
	"chinosrs/internal/config"
	"chinosrs/internal/logger"
	"chinosrs/internal/text"
	"chinosrs/internal/worker"
	"chinosrs/models"
)

// Engine is a text-to-speech backend.
type Engine interface {
	// Name identifies the engine ("gtts", "azure").
	Name() string
	// Available reports whether the engine can be used (credentials etc).
	Available() error
	// Workers is the parallelism the engine tolerates.
	Workers() int
	// Synthesize writes an MP3 for text to outputPath.
	Synthesize(ctx context.Context, text, outputPath string) error
}

// NewEngine builds the configured TTS engine.
func NewEngine(cfg *models.Config) (Engine, error) {
	switch cfg.TTSEngine {
	case "", "gtts":
		return NewGoogleTTSEngine(cfg.GoogleTTSLang), nil
	case "azure":
		return NewAzureTTSEngine(cfg.AzureKey, cfg.AzureRegion, cfg.AzureVoice,
			cfg.AzureSpeed, cfg.AzureRandomVoice), nil
	default:
		return nil, fmt.Errorf("unknown TTS engine %q (use gtts or azure)", cfg.TTSEngine)
	}
}

// AudioStats summarizes a batch audio run.
type AudioStats struct {
	Generated int
	Skipped   int
	Failed    int
}

// audioTask is one pending synthesis.
type audioTask struct {
	text string
	path string
}

// AudioService generates the sentence and word audio files a CSV needs.
type AudioService struct {
	engine Engine
	dir    string
}

func NewAudioService(engine Engine, audioDir string) *AudioService {
	return &AudioService{engine: engine, dir: audioDir}
}

// tasksForRow lists the audio files a row needs: one per example sentence
// plus one for the word itself. Sentences are hashed after pinyin
// parentheticals are stripped, so editing pinyin glosses does not orphan
// existing audio.
func (s *AudioService) tasksForRow(row *models.VocabRow) []audioTask {
	var tasks []audioTask
	for _, sentence := range text.SplitPieces(row.ExampleSentence) {
		clean := text.CleanPinyinFromSentence(sentence)
		if clean == "" {
			continue
		}
		tasks = append(tasks, audioTask{
			text: clean,
			path: filepath.Join(s.dir, audiofile.SentenceFilename(clean)),
		})
	}
	if hanzi := strings.TrimSpace(row.Hanzi); hanzi != "" {
		tasks = append(tasks, audioTask{
			text: hanzi,
			path: filepath.Join(s.dir, audiofile.WordFilename(hanzi)),
		})
	}
	return tasks
}

// Generate synthesizes every missing audio file for rows. Existing files are
// skipped; outputs smaller than MinAudioFileSize are treated as corrupt and
// regenerated on the next run.
func (s *AudioService) Generate(ctx context.Context, rows []*models.VocabRow, onProgress func(completed, total int)) (*AudioStats, error) {
	if err := s.engine.Available(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating audio dir: %w", err)
	}

	stats := &AudioStats{}
	seen := make(map[string]bool)
	var pending []audioTask
	for _, row := range rows {
		for _, t := range s.tasksForRow(row) {
			if seen[t.path] {
				continue
			}
			seen[t.path] = true
			if fi, err := os.Stat(t.path); err == nil && fi.Size() >= config.MinAudioFileSize {
				stats.Skipped++
				continue
			}
			pending = append(pending, t)
		}
	}

	if len(pending) == 0 {
		logger.Info("all %d audio files already present", stats.Skipped)
		return stats, nil
	}
	logger.Info("generating %d audio files with %s (%d already present)",
		len(pending), s.engine.Name(), stats.Skipped)

	process := func(ctx context.Context, i int, t audioTask) (struct{}, error) {
		if err := s.engine.Synthesize(ctx, t.text, t.path); err != nil {
			return struct{}{}, fmt.Errorf("%s: %w", filepath.Base(t.path), err)
		}
		if fi, err := os.Stat(t.path); err != nil || fi.Size() < config.MinAudioFileSize {
			os.Remove(t.path)
			return struct{}{}, fmt.Errorf("%s: output too small, discarded", filepath.Base(t.path))
		}
		return struct{}{}, nil
	}

	_, errs := worker.ProcessWithErrors(ctx, pending, s.engine.Workers(), process, onProgress)
	stats.Failed = len(errs)
	stats.Generated = len(pending) - len(errs)
	for _, err := range errs {
		logger.Warn("audio failed: %v", err)
	}
	logger.Info("audio done: %d generated, %d skipped, %d failed",
		stats.Generated, stats.Skipped, stats.Failed)
	return stats, nil
}
