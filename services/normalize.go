package services

import (
	"fmt"

	"chinosrs/internal/logger"
	"chinosrs/internal/pinyin"
)

// NormalizePinyinCSV rewrites the pinyin column of a CSV, converting numeric
// tones to diacritics. An empty outputPath rewrites the file in place; a
// clean in-place run skips the write entirely. It returns how many rows
// changed.
func NormalizePinyinCSV(csvPath, outputPath string) (int, error) {
	rows, err := ReadCSV(csvPath)
	if err != nil {
		return 0, err
	}
	if outputPath == "" {
		outputPath = csvPath
	}

	changed := 0
	for _, row := range rows {
		normalized := pinyin.Normalize(row.Pinyin)
		if normalized != row.Pinyin {
			logger.Debug("pinyin %q -> %q", row.Pinyin, normalized)
			row.Pinyin = normalized
			changed++
		}
	}

	if changed == 0 && outputPath == csvPath {
		logger.Info("pinyin already normalized in %s", csvPath)
		return 0, nil
	}
	if err := WriteCSV(outputPath, rows); err != nil {
		return 0, fmt.Errorf("rewriting %s: %w", outputPath, err)
	}
	logger.Info("normalized pinyin in %d/%d rows, written to %s", changed, len(rows), outputPath)
	return changed, nil
}
