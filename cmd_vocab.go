package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"chinosrs/services"
)

var (
	vocabOutput  string
	vocabModel   string
	vocabMax     int
	vocabDelayMS int
	vocabWorkers int
)

var vocabCmd = &cobra.Command{
	Use:   "vocab <vocabulary.json|dir>",
	Short: "Enrich JSON vocabulary into a CSV",
	Long: `Reads vocabulary entries from a JSON file (or a directory of JSON
chunks) and enriches each one through the OpenAI API: Spanish definition,
three example sentences with translations, usage tips and collocations.
The result is written to a CSV, flushed row by row.`,
	Args: cobra.ExactArgs(1),
	RunE: runVocab,
}

func init() {
	vocabCmd.Flags().StringVarP(&vocabOutput, "output", "o", "", "output CSV path (default outputs/<input>.csv)")
	vocabCmd.Flags().StringVar(&vocabModel, "model", "", "OpenAI model (default from config)")
	vocabCmd.Flags().IntVar(&vocabMax, "max-items", 0, "process at most N entries (0 = all)")
	vocabCmd.Flags().IntVar(&vocabDelayMS, "delay-ms", 0, "pause before each API call in milliseconds")
	vocabCmd.Flags().IntVar(&vocabWorkers, "workers", 0, "parallel API calls (default per provider)")
	rootCmd.AddCommand(vocabCmd)
}

func runVocab(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	entries, err := services.LoadEntries(args[0])
	if err != nil {
		return err
	}

	output := vocabOutput
	if output == "" {
		base := filepath.Base(args[0])
		name := strings.TrimSuffix(base, filepath.Ext(base))
		output = filepath.Join(cfg.OutputDir, name+".csv")
	}

	model := cfg.OpenAIModel
	if vocabModel != "" {
		model = vocabModel
	}
	svc := services.NewVocabService(services.NewOpenAIService(cfg.OpenAIKey, model))
	written, err := svc.GenerateCSV(cmd.Context(), entries, output, services.VocabOptions{
		MaxItems: vocabMax,
		Delay:    time.Duration(vocabDelayMS) * time.Millisecond,
		Workers:  vocabWorkers,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Wrote %d rows to %s\n", written, output)
	return nil
}
