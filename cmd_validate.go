package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chinosrs/services"
)

var (
	validateErrorsOnly  bool
	validateJSON        string
	validateAudioDir    string
	validateExportPath  string
	validateShowMissing bool
)

var validateCmd = &cobra.Command{
	Use:   "validate <vocabulary.csv>",
	Short: "Check CSV quality, coverage and audio completeness",
	Long: `Runs quality checks on an enriched CSV: required fields, sentence
counts, pinyin format and tag completeness. With --json it also reports
which vocabulary entries never made it into the CSV, and with --audio-dir
it checks that every expected MP3 exists.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateErrorsOnly, "errors-only", false, "show only errors")
	validateCmd.Flags().StringVar(&validateJSON, "json", "", "vocabulary JSON to check coverage against")
	validateCmd.Flags().StringVar(&validateAudioDir, "audio-dir", "", "audio directory to check for missing files")
	validateCmd.Flags().StringVar(&validateExportPath, "export-missing", "", "write entries missing from the CSV to this JSON file")
	validateCmd.Flags().BoolVar(&validateShowMissing, "show-missing", false, "list missing entries and files")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	csvFile := args[0]

	issues, total, err := services.ValidateCSV(csvFile)
	if err != nil {
		return err
	}
	errors, warnings := services.CountBySeverity(issues)

	fmt.Printf("Rows:     %d\n", total)
	fmt.Printf("Errors:   %d\n", errors)
	fmt.Printf("Warnings: %d\n", warnings)
	for _, i := range issues {
		if validateErrorsOnly && i.Severity != services.SeverityError {
			continue
		}
		fmt.Printf("  %s\n", i)
	}

	if validateJSON != "" {
		report, err := services.ValidateCoverage(validateJSON, csvFile)
		if err != nil {
			return err
		}
		fmt.Printf("\nCoverage: %d/%d entries (%.2f%%)\n",
			report.JSONTotal-len(report.Missing), report.JSONTotal, report.Coverage())
		if validateShowMissing {
			for _, h := range report.Missing {
				fmt.Printf("  missing: %s\n", h)
			}
		}
		if validateExportPath != "" && len(report.Missing) > 0 {
			n, err := services.ExportMissingEntries(validateJSON, report.Missing, validateExportPath)
			if err != nil {
				return err
			}
			fmt.Printf("Exported %d missing entries to %s\n", n, validateExportPath)
		}
	}

	if validateAudioDir != "" {
		report, err := services.ValidateAudio(csvFile, validateAudioDir)
		if err != nil {
			return err
		}
		fmt.Printf("\nAudio: %d/%d files present\n",
			report.Expected-len(report.Missing), report.Expected)
		if validateShowMissing {
			for _, m := range report.Missing {
				fmt.Printf("  missing %s for row %d (%s)\n", m.Type, m.Row, m.Hanzi)
			}
		}
	}

	if errors > 0 {
		return fmt.Errorf("%d validation errors", errors)
	}
	return nil
}
