package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"chinosrs/internal/audiofile"
	"chinosrs/internal/text"
	"chinosrs/models"
)

// Severity levels for validation issues.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// ValidationIssue is one problem found in a CSV row.
type ValidationIssue struct {
	Row      int
	Hanzi    string
	Field    string
	Issue    string
	Severity string
}

func (i ValidationIssue) String() string {
	icon := "WARN"
	if i.Severity == SeverityError {
		icon = "ERROR"
	}
	return fmt.Sprintf("[%s] Row %d (%s) - %s: %s", icon, i.Row, i.Hanzi, i.Field, i.Issue)
}

func issue(row int, hanzi, field, msg, severity string) ValidationIssue {
	if hanzi == "" {
		hanzi = "???"
	}
	return ValidationIssue{Row: row, Hanzi: hanzi, Field: field, Issue: msg, Severity: severity}
}

var (
	latinRunRe  = regexp.MustCompile(`[a-zA-Z]{2,}`)
	parenBodyRe = regexp.MustCompile(`\([^)]*\)`)
)

// ValidateRow runs the quality checks on one CSV row. rowNum is the
// 1-based line number in the file (header is line 1).
func ValidateRow(row *models.VocabRow, rowNum int) []ValidationIssue {
	var issues []ValidationIssue
	hanzi := strings.TrimSpace(row.Hanzi)

	required := []struct{ name, value string }{
		{"hanzi", row.Hanzi},
		{"pinyin", row.Pinyin},
		{"definition", row.Definition},
		{"example_sentence", row.ExampleSentence},
		{"example_translation", row.ExampleTranslation},
		{"tips", row.Tips},
		{"collocations", row.Collocations},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			issues = append(issues, issue(rowNum, hanzi, f.name, "campo requerido vacío", SeverityError))
		}
	}

	sentencesCN := text.SplitPieces(row.ExampleSentence)
	sentencesES := text.SplitPieces(row.ExampleTranslation)
	if len(sentencesCN) > 0 && len(sentencesCN) != 3 {
		issues = append(issues, issue(rowNum, hanzi, "example_sentence",
			fmt.Sprintf("se esperan 3 oraciones, encontradas %d", len(sentencesCN)), SeverityWarning))
	}
	if len(sentencesES) > 0 && len(sentencesES) != 3 {
		issues = append(issues, issue(rowNum, hanzi, "example_translation",
			fmt.Sprintf("se esperan 3 traducciones, encontradas %d", len(sentencesES)), SeverityWarning))
	}
	if len(sentencesCN) > 0 && len(sentencesES) > 0 && len(sentencesCN) != len(sentencesES) {
		issues = append(issues, issue(rowNum, hanzi, "sentences",
			fmt.Sprintf("desbalance: %d CN vs %d ES", len(sentencesCN), len(sentencesES)), SeverityError))
	}

	collocations := text.SplitPieces(row.Collocations)
	if n := len(collocations); n > 0 && (n < 3 || n > 5) {
		issues = append(issues, issue(rowNum, hanzi, "collocations",
			fmt.Sprintf("esperadas 3-5 colocaciones, encontradas %d", n), SeverityWarning))
	}

	// The target word has to show up in at least one sentence (pinyin
	// glosses excluded).
	if hanzi != "" && len(sentencesCN) > 0 {
		found := false
		for _, s := range sentencesCN {
			if before, _, _ := strings.Cut(s, "("); strings.Contains(before, hanzi) {
				found = true
				break
			}
		}
		if !found {
			issues = append(issues, issue(rowNum, hanzi, "example_sentence",
				fmt.Sprintf("%q no aparece en ninguna oración", hanzi), SeverityError))
		}
	}

	if def := strings.TrimSpace(row.Definition); def != "" {
		n := len([]rune(def))
		if n < 20 {
			issues = append(issues, issue(rowNum, hanzi, "definition",
				fmt.Sprintf("definición muy corta (%d caracteres)", n), SeverityWarning))
		}
		if n > 500 {
			issues = append(issues, issue(rowNum, hanzi, "definition",
				fmt.Sprintf("definición muy larga (%d caracteres)", n), SeverityWarning))
		}
	}

	if py := strings.TrimSpace(row.Pinyin); py != "" {
		if py == strings.ToUpper(py) && py != strings.ToLower(py) {
			issues = append(issues, issue(rowNum, hanzi, "pinyin", "pinyin en mayúsculas", SeverityWarning))
		}
		if strings.IndexFunc(py, unicode.IsDigit) >= 0 {
			issues = append(issues, issue(rowNum, hanzi, "pinyin", "pinyin contiene números", SeverityWarning))
		}
	}

	if freq := strings.TrimSpace(row.Frecuencia); freq != "" {
		if !strings.Contains(freq, "hsk:") {
			issues = append(issues, issue(rowNum, hanzi, "frecuencia", "falta etiqueta HSK", SeverityWarning))
		}
		if !strings.Contains(freq, "freq:") {
			issues = append(issues, issue(rowNum, hanzi, "frecuencia", "falta etiqueta frecuencia", SeverityWarning))
		}
	}

	// Pinyin outside parentheses or in brackets survives cleanup and ends
	// up read aloud by TTS.
	for i, s := range sentencesCN {
		field := fmt.Sprintf("example_sentence[%d]", i+1)
		withoutParens := parenBodyRe.ReplaceAllString(s, "")
		if latinRunRe.MatchString(withoutParens) {
			issues = append(issues, issue(rowNum, hanzi, field,
				"posible pinyin fuera de paréntesis (no será limpiado)", SeverityWarning))
		}
		if strings.ContainsAny(s, "[{") {
			issues = append(issues, issue(rowNum, hanzi, field,
				"pinyin en corchetes o llaves no será limpiado", SeverityWarning))
		}
	}

	for i, c := range collocations {
		if !strings.Contains(c, "(") {
			issues = append(issues, issue(rowNum, hanzi, fmt.Sprintf("collocations[%d]", i+1),
				"colocación sin glosa entre paréntesis", SeverityWarning))
		}
	}

	return issues
}

// ValidateCSV checks every row of an enriched CSV.
func ValidateCSV(csvPath string) ([]ValidationIssue, int, error) {
	rows, err := ReadCSV(csvPath)
	if err != nil {
		return nil, 0, err
	}
	var issues []ValidationIssue
	for i, row := range rows {
		issues = append(issues, ValidateRow(row, i+2)...)
	}
	return issues, len(rows), nil
}

// CountBySeverity splits issues into error and warning counts.
func CountBySeverity(issues []ValidationIssue) (errors, warnings int) {
	for _, i := range issues {
		if i.Severity == SeverityError {
			errors++
		} else {
			warnings++
		}
	}
	return errors, warnings
}

// CoverageReport compares the JSON vocabulary against the generated CSV.
type CoverageReport struct {
	JSONTotal int
	CSVTotal  int
	Missing   []string
}

// Coverage reports the CSV's coverage percentage, 100 when the JSON is empty.
func (r *CoverageReport) Coverage() float64 {
	if r.JSONTotal == 0 {
		return 100
	}
	return float64(r.JSONTotal-len(r.Missing)) / float64(r.JSONTotal) * 100
}

// ValidateCoverage finds JSON entries that never made it into the CSV.
func ValidateCoverage(jsonPath, csvPath string) (*CoverageReport, error) {
	entries, err := LoadEntries(jsonPath)
	if err != nil {
		return nil, err
	}
	rows, err := ReadCSV(csvPath)
	if err != nil {
		return nil, err
	}

	inCSV := make(map[string]bool, len(rows))
	for _, row := range rows {
		if h := strings.TrimSpace(row.Hanzi); h != "" {
			inCSV[h] = true
		}
	}

	report := &CoverageReport{CSVTotal: len(inCSV)}
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		h := strings.TrimSpace(e.Simplified)
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		report.JSONTotal++
		if !inCSV[h] {
			report.Missing = append(report.Missing, h)
		}
	}
	return report, nil
}

// ExportMissingEntries writes the entries absent from the CSV to a JSON file
// so they can be re-run through enrichment.
func ExportMissingEntries(jsonPath string, missing []string, outputPath string) (int, error) {
	entries, err := LoadEntries(jsonPath)
	if err != nil {
		return 0, err
	}
	want := make(map[string]bool, len(missing))
	for _, h := range missing {
		want[h] = true
	}
	var keep []*models.VocabEntry
	for _, e := range entries {
		if want[strings.TrimSpace(e.Simplified)] {
			keep = append(keep, e)
		}
	}
	data, err := json.MarshalIndent(keep, "", "  ")
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return 0, err
	}
	return len(keep), nil
}

// MissingAudio is one expected audio file that does not exist.
type MissingAudio struct {
	Row   int
	Hanzi string
	Type  string
	Path  string
}

// AudioReport summarizes an audio existence check.
type AudioReport struct {
	Expected int
	Missing  []MissingAudio
}

// ValidateAudio checks that every audio file the CSV implies exists on disk.
// Shared sentences are only counted once.
func ValidateAudio(csvPath, audioDir string) (*AudioReport, error) {
	rows, err := ReadCSV(csvPath)
	if err != nil {
		return nil, err
	}

	report := &AudioReport{}
	seen := make(map[string]bool)
	check := func(rowNum int, hanzi, kind, path string) {
		if seen[path] {
			return
		}
		seen[path] = true
		report.Expected++
		if _, err := os.Stat(path); err != nil {
			report.Missing = append(report.Missing, MissingAudio{
				Row: rowNum, Hanzi: hanzi, Type: kind, Path: path,
			})
		}
	}

	for i, row := range rows {
		rowNum := i + 2
		hanzi := strings.TrimSpace(row.Hanzi)
		if hanzi != "" {
			check(rowNum, hanzi, "word", filepath.Join(audioDir, audiofile.WordFilename(hanzi)))
		}
		for j, s := range text.SplitPieces(row.ExampleSentence) {
			clean := text.CleanPinyinFromSentence(s)
			if clean == "" {
				continue
			}
			check(rowNum, hanzi, fmt.Sprintf("sentence[%d]", j+1),
				filepath.Join(audioDir, audiofile.SentenceFilename(clean)))
		}
	}
	return report, nil
}
