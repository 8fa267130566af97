package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"chinosrs/internal/config"
	"chinosrs/internal/logger"
	"chinosrs/internal/sortkey"
	"chinosrs/models"
)

// ProgressCallback reports pipeline progress: the current stage, overall
// percent (0-100) and a human-readable message.
type ProgressCallback func(stage string, percent int, message string)

// Pipeline runs the full vocabulary-to-deck flow: enrichment, audio
// generation and note upload.
type Pipeline struct {
	cfg        *models.Config
	vocab      *VocabService
	audio      *AudioService
	anki       *AnkiService
	deck       *DeckService
	OnProgress ProgressCallback
}

// NewPipeline wires the stages from the loaded configuration.
func NewPipeline(cfg *models.Config) (*Pipeline, error) {
	engine, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	anki := NewAnkiService(cfg.AnkiConnectURL)
	return &Pipeline{
		cfg:   cfg,
		vocab: NewVocabService(NewOpenAIService(cfg.OpenAIKey, cfg.OpenAIModel)),
		audio: NewAudioService(engine, cfg.AudioDir),
		anki:  anki,
		deck:  NewDeckService(anki, cfg.OutputDir),
	}, nil
}

func (p *Pipeline) progress(stage string, percent int, format string, args ...interface{}) {
	if p.OnProgress != nil {
		p.OnProgress(stage, percent, fmt.Sprintf(format, args...))
	}
}

// scale maps completed/total onto the [from, to] percent window.
func scale(from, to, completed, total int) int {
	if total <= 0 {
		return from
	}
	return from + (to-from)*completed/total
}

// Result summarizes a full pipeline run.
type Result struct {
	RunID   string
	CSVPath string
	Rows    int
	Audio   *AudioStats
	Upload  *UploadStats
	Elapsed time.Duration
}

// Run executes the whole pipeline for a vocabulary JSON input. Each run gets
// a unique ID so its artifacts can be told apart.
func (p *Pipeline) Run(ctx context.Context, inputPath string, opts VocabOptions) (*Result, error) {
	runID := uuid.New().String()[:8]
	start := time.Now()
	logger.Info("pipeline run %s starting for %s", runID, inputPath)

	// Stage 1: enrichment.
	p.progress("vocab", config.ProgressVocabStart, "loading vocabulary from %s", inputPath)
	entries, err := LoadEntries(inputPath)
	if err != nil {
		return nil, err
	}

	base := filepath.Base(inputPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	csvPath := filepath.Join(p.cfg.OutputDir, fmt.Sprintf("%s_%s.csv", name, runID))

	vocabOpts := opts
	vocabOpts.OnProgress = func(completed, total int) {
		p.progress("vocab",
			scale(config.ProgressVocabStart, config.ProgressVocabEnd, completed, total),
			"enriched %d/%d entries", completed, total)
	}
	rows, err := p.vocab.GenerateCSV(ctx, entries, csvPath, vocabOpts)
	if err != nil {
		return nil, fmt.Errorf("enrichment stage: %w", err)
	}

	// Stage 2: audio.
	p.progress("audio", config.ProgressAudioStart, "generating audio")
	csvRows, err := ReadCSV(csvPath)
	if err != nil {
		return nil, err
	}
	audioStats, err := p.audio.Generate(ctx, csvRows, func(completed, total int) {
		p.progress("audio",
			scale(config.ProgressAudioStart, config.ProgressAudioEnd, completed, total),
			"synthesized %d/%d files", completed, total)
	})
	if err != nil {
		return nil, fmt.Errorf("audio stage: %w", err)
	}

	// Stage 3: deck upload.
	p.progress("deck", config.ProgressDeckStart, "uploading to Anki")
	if _, err := p.anki.Version(ctx); err != nil {
		return nil, fmt.Errorf("deck stage: %w", err)
	}
	if err := p.anki.EnsureDeck(ctx, p.cfg.DeckName); err != nil {
		return nil, fmt.Errorf("deck stage: %w", err)
	}
	if err := p.deck.SetupModels(ctx, false); err != nil {
		return nil, fmt.Errorf("deck stage: %w", err)
	}

	builder := NewNoteBuilder(p.cfg.DeckName, p.cfg.AudioDir,
		sortkey.NewGenerator(time.Now().UnixNano()))
	notes := builder.BuildAll(csvRows, 0)
	if err := SaveNotesCache(notes, CachePath(p.cfg.OutputDir, csvPath)); err != nil {
		logger.Warn("note cache not saved: %v", err)
	}
	if _, err := DeduplicateNotes(notes); err != nil {
		return nil, fmt.Errorf("deck stage: %w", err)
	}
	uploadStats, err := p.deck.Upload(ctx, notes)
	if err != nil {
		return nil, fmt.Errorf("deck stage: %w", err)
	}

	p.progress("deck", config.ProgressDeckEnd, "done")
	result := &Result{
		RunID:   runID,
		CSVPath: csvPath,
		Rows:    rows,
		Audio:   audioStats,
		Upload:  uploadStats,
		Elapsed: time.Since(start),
	}
	logger.Info("pipeline run %s finished in %s: %d rows, %d audio generated, %d notes added",
		runID, result.Elapsed.Round(time.Second), rows, audioStats.Generated, uploadStats.Added)
	return result, nil
}
