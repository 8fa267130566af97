package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"chinosrs/internal/config"
	"chinosrs/internal/logger"
	"chinosrs/internal/text"
	"chinosrs/internal/worker"
	"chinosrs/models"
)

// VocabOptions control a vocabulary enrichment run.
type VocabOptions struct {
	// MaxItems caps how many entries are processed. 0 means all.
	MaxItems int
	// Delay inserts a pause before each API call to smooth out rate limits.
	Delay time.Duration
	// Workers overrides the default parallelism when positive.
	Workers int
	// OnProgress, when set, receives completed/total counts as rows finish.
	OnProgress func(completed, total int)
}

// VocabService turns raw JSON vocabulary into the enriched CSV.
type VocabService struct {
	openai *OpenAIService
}

func NewVocabService(openai *OpenAIService) *VocabService {
	return &VocabService{openai: openai}
}

// LoadEntries reads vocabulary entries from a JSON file or from a directory
// of JSON chunks (processed in sorted filename order).
func LoadEntries(path string) ([]*models.VocabEntry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("vocabulary path: %w", err)
	}
	if !info.IsDir() {
		return loadEntriesFile(path)
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".json") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning vocabulary dir: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .json files found under %s", path)
	}
	sort.Strings(files)

	var all []*models.VocabEntry
	for _, f := range files {
		entries, err := loadEntriesFile(f)
		if err != nil {
			return nil, err
		}
		logger.Debug("loaded %d entries from %s", len(entries), filepath.Base(f))
		all = append(all, entries...)
	}
	return all, nil
}

func loadEntriesFile(path string) ([]*models.VocabEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var entries []*models.VocabEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	// Some exports come through a latin-1 round trip; repair what we can.
	for _, e := range entries {
		e.Simplified = text.FixMojibake(e.Simplified)
		for i := range e.Forms {
			e.Forms[i].Transcriptions.Pinyin = text.FixMojibake(e.Forms[i].Transcriptions.Pinyin)
		}
	}
	return entries, nil
}

// PosTags renders the entry's POS codes as a semicolon-joined tag cell.
func PosTags(e *models.VocabEntry) string {
	var tags []string
	for _, p := range e.POS {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, "pos:"+p)
		}
	}
	return strings.Join(tags, ";")
}

// FreqTags renders the HSK and frequency bucket tags of an entry.
func FreqTags(e *models.VocabEntry) string {
	var tags []string
	if t := e.HSKTag(); t != "" {
		tags = append(tags, t)
	}
	if t := e.FreqTag(); t != "" {
		tags = append(tags, t)
	}
	return strings.Join(tags, ";")
}

// buildRow merges a raw entry with its enrichment into a CSV row.
func buildRow(e *models.VocabEntry, enr *models.Enrichment) *models.VocabRow {
	register := strings.TrimSpace(enr.Register)
	if register == "" {
		register = "reg:neutral"
	}
	return &models.VocabRow{
		Hanzi:              e.Simplified,
		Pinyin:             e.Pinyin(),
		Definition:         strings.TrimSpace(enr.Definition),
		ExampleSentence:    models.JoinPieces(enr.ExampleSentences),
		ExampleTranslation: models.JoinPieces(enr.ExampleTranslations),
		Tips:               strings.TrimSpace(enr.Tips),
		Collocations:       models.JoinPieces(enr.Collocations),
		POS:                PosTags(e),
		Register:           register,
		Longitud:           e.LengthTag(),
		TagsSeed:           enr.TagsSeed.Join(),
		Frecuencia:         FreqTags(e),
	}
}

// GenerateCSV enriches entries concurrently and writes them to outputPath,
// flushing row by row so a partial run still leaves a usable file. It returns
// the number of rows written.
func (s *VocabService) GenerateCSV(ctx context.Context, entries []*models.VocabEntry, outputPath string, opts VocabOptions) (int, error) {
	if err := s.openai.CheckAPIKey(); err != nil {
		return 0, err
	}
	if opts.MaxItems > 0 && opts.MaxItems < len(entries) {
		entries = entries[:opts.MaxItems]
	}
	if len(entries) == 0 {
		return 0, fmt.Errorf("no vocabulary entries to process")
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = config.WorkersOpenAI
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return 0, fmt.Errorf("creating output dir: %w", err)
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", outputPath, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(models.CSVHeader); err != nil {
		return 0, fmt.Errorf("writing header: %w", err)
	}
	w.Flush()

	logger.Info("enriching %d entries with %s (%d workers)", len(entries), s.openai.Model(), workers)
	start := time.Now()

	process := func(ctx context.Context, i int, e *models.VocabEntry) (*models.VocabRow, error) {
		if opts.Delay > 0 {
			select {
			case <-time.After(opts.Delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		enr, err := s.openai.Enrich(ctx, e.Simplified, e.Pinyin(), e.POS, e.Meanings())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Simplified, err)
		}
		return buildRow(e, enr), nil
	}

	written := 0
	failures := 0
	var writeErr error
	worker.ProcessOrdered(ctx, entries, workers, process, func(i int, row *models.VocabRow, err error) {
		if err != nil {
			failures++
			logger.Warn("entry skipped: %v", err)
			return
		}
		if writeErr != nil {
			return
		}
		if writeErr = w.Write(row.Record()); writeErr != nil {
			return
		}
		w.Flush()
		written++
	}, func(completed, total int) {
		if opts.OnProgress != nil {
			opts.OnProgress(completed, total)
		}
		if completed%25 == 0 || completed == total {
			elapsed := time.Since(start)
			rate := float64(completed) / elapsed.Seconds()
			remaining := time.Duration(float64(total-completed)/rate) * time.Second
			cost := EstimateCost(completed * config.EnrichTokensPerCall)
			logger.Info("progress %d/%d (%.1f/s, ETA %s, ~$%.3f)",
				completed, total, rate, remaining.Round(time.Second), cost)
		}
	})
	if writeErr != nil {
		return written, fmt.Errorf("writing row: %w", writeErr)
	}
	if err := w.Error(); err != nil {
		return written, err
	}
	logger.Info("wrote %d/%d rows to %s in %s (%d failures)",
		written, len(entries), outputPath, time.Since(start).Round(time.Second), failures)
	return written, nil
}

// ReadCSV loads an enriched vocabulary CSV back into rows.
func ReadCSV(path string) ([]*models.VocabRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}
	rows := make([]*models.VocabRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		rows = append(rows, models.RowFromRecord(header, rec))
	}
	return rows, nil
}

// WriteCSV writes rows under the standard header.
func WriteCSV(path string, rows []*models.VocabRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(models.CSVHeader); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row.Record()); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ParseRate parses a user-supplied speech rate like "1.0" into a float.
func ParseRate(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid speech rate %q", s)
	}
	return v, nil
}
