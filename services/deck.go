package services

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"chinosrs/internal/config"
	"chinosrs/internal/logger"
	"chinosrs/internal/text"
	"chinosrs/models"
)

//go:embed templates
var templateFS embed.FS

// cardCSS is shared by the three note types.
var cardCSS = loadTemplate("card.css")

func loadTemplate(name string) string {
	data, err := templateFS.ReadFile("templates/" + name)
	if err != nil {
		// Templates are compiled in; a miss is a packaging bug.
		panic(fmt.Sprintf("missing card template %s: %v", name, err))
	}
	return string(data)
}

// modelSpec defines one note type to be created in Anki.
type modelSpec struct {
	name     string
	fields   []string
	template string // template file basename without _front/_back suffix
}

var modelSpecs = []modelSpec{
	{
		name: models.ModelSentenceCard,
		fields: []string{
			"SortKey", "Hanzi", "Pinyin", "Meaning", "SentenceCN", "SentenceES",
			"Tips", "Collocations", "POS", "Register", "Frecuencia", "Tags",
			"Audio", "WordAudio", "FrontLine", "Hint1", "Hint2", "Hint3",
		},
		template: "sentence_card",
	},
	{
		name: models.ModelPatternCard,
		fields: []string{
			"SortKey", "Hanzi", "Pinyin", "Meaning", "SentenceCN", "SentenceES",
			"Tips", "Pattern", "POS", "Register", "Frecuencia", "Audio",
			"WordAudio", "Tags", "ClozeSentence", "MissingPart",
			"Hint1", "Hint2", "Hint3", "Hint4",
		},
		template: "pattern_card",
	},
	{
		name: models.ModelAudioCard,
		fields: []string{
			"SortKey", "Hanzi", "Pinyin", "Meaning", "SentenceCN", "SentenceES",
			"Tips", "POS", "Register", "Frecuencia", "Tags", "Audio",
			"WordAudio", "Hint1", "Hint2", "Hint3", "Hint4",
		},
		template: "audio_card",
	},
}

// DeckService manages note types and uploads notes to Anki.
type DeckService struct {
	anki      *AnkiService
	outputDir string
}

func NewDeckService(anki *AnkiService, outputDir string) *DeckService {
	return &DeckService{anki: anki, outputDir: outputDir}
}

// SetupModels ensures the three note types exist. With forceRecreate, the
// existing models (and their notes) are deleted first.
func (d *DeckService) SetupModels(ctx context.Context, forceRecreate bool) error {
	for _, spec := range modelSpecs {
		if forceRecreate {
			if err := d.anki.DeleteModel(ctx, spec.name); err != nil {
				logger.Debug("delete model %s: %v", spec.name, err)
			}
		}
		exists, err := d.anki.ModelExists(ctx, spec.name)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		cards := []CardTemplate{{
			Name:  spec.name,
			Front: loadTemplate(spec.template + "_front.html"),
			Back:  loadTemplate(spec.template + "_back.html"),
		}}
		if err := d.anki.CreateModel(ctx, spec.name, spec.fields, cardCSS, cards); err != nil {
			return fmt.Errorf("creating model %s: %w", spec.name, err)
		}
		logger.Info("created note type %s", spec.name)
	}
	return nil
}

// UploadStats summarizes an upload run.
type UploadStats struct {
	Added  int
	Failed int
}

// Upload sends notes in batches. A failing batch is written to an artifact
// file and then probed note by note to pin down the offender, so one bad
// note does not sink the rest of the run.
func (d *DeckService) Upload(ctx context.Context, notes []*models.Note) (*UploadStats, error) {
	stats := &UploadStats{}
	if len(notes) == 0 {
		logger.Info("no notes to upload")
		return stats, nil
	}

	batchSize := config.NoteUploadBatchSize
	totalBatches := (len(notes) + batchSize - 1) / batchSize
	start := time.Now()

	for i := 0; i < len(notes); i += batchSize {
		end := i + batchSize
		if end > len(notes) {
			end = len(notes)
		}
		batch := notes[i:end]
		batchNum := i/batchSize + 1

		added, skipped, err := d.anki.AddNotes(ctx, batch)
		if err != nil {
			stats.Failed += len(batch)
			d.reportBatchFailure(ctx, batch, batchNum, err)
			continue
		}
		stats.Added += added
		stats.Failed += skipped

		elapsed := time.Since(start)
		eta := time.Duration(float64(elapsed) / float64(batchNum) * float64(totalBatches-batchNum))
		logger.Info("batch %d/%d: %d added, %d failed/duplicates, ETA %s",
			batchNum, totalBatches, added, skipped, eta.Round(time.Second))
	}

	logger.Info("upload done in %s: %d added, %d failed/duplicates",
		time.Since(start).Round(time.Second), stats.Added, stats.Failed)
	return stats, nil
}

// reportBatchFailure saves the failing batch to disk and retries its notes
// one at a time until the poisonous one surfaces.
func (d *DeckService) reportBatchFailure(ctx context.Context, batch []*models.Note, batchNum int, batchErr error) {
	logger.Error("batch %d failed: %v", batchNum, batchErr)

	artifact := filepath.Join(d.outputDir,
		fmt.Sprintf("batch_%d_error_%s.json", batchNum, uuid.New().String()[:8]))
	if data, err := json.MarshalIndent(batch, "", "  "); err == nil {
		if err := os.WriteFile(artifact, data, 0o644); err == nil {
			logger.Info("failing batch saved to %s", artifact)
		}
	}

	for idx, note := range batch {
		_, skipped, err := d.anki.AddNotes(ctx, []*models.Note{note})
		if err != nil {
			logger.Error("note %d in batch %d rejected (hanzi=%s model=%s): %v",
				idx+1, batchNum, note.Fields["Hanzi"], note.ModelName, err)
			noteFile := filepath.Join(d.outputDir,
				fmt.Sprintf("note_error_%s.json", uuid.New().String()[:8]))
			if data, mErr := json.MarshalIndent(note, "", "  "); mErr == nil {
				os.WriteFile(noteFile, data, 0o644)
				logger.Info("rejected note saved to %s", noteFile)
			}
			return
		}
		if skipped > 0 {
			logger.Warn("note %d in batch %d skipped as duplicate (hanzi=%s model=%s)",
				idx+1, batchNum, note.Fields["Hanzi"], note.ModelName)
		}
	}
}

// WriteDump saves a deck dump to a JSON file and returns the path.
func (d *DeckService) WriteDump(dump []models.DumpedNote, deckName string) (string, error) {
	if err := os.MkdirAll(d.outputDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(d.outputDir,
		fmt.Sprintf("anki_dump_%s.json", text.SanitizeFilename(deckName, 0)))
	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling dump: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing dump: %w", err)
	}
	logger.Info("dumped %d notes from %q to %s", len(dump), deckName, path)
	return path, nil
}
