package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"chinosrs/services"
)

var (
	runMax     int
	runDelayMS int
)

var runCmd = &cobra.Command{
	Use:   "run <vocabulary.json|dir>",
	Short: "Run the whole pipeline: vocab, audio, deck",
	Long: `Enriches the vocabulary, synthesizes the audio and uploads the
notes to Anki in one go. Each run gets its own ID, and its CSV lands in the
output directory so the stages can also be re-run individually.`,
	Args: cobra.ExactArgs(1),
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().IntVar(&runMax, "max-items", 0, "process at most N entries (0 = all)")
	runCmd.Flags().IntVar(&runDelayMS, "delay-ms", 0, "pause before each enrichment call in milliseconds")
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	pipeline, err := services.NewPipeline(cfg)
	if err != nil {
		return err
	}
	pipeline.OnProgress = func(stage string, percent int, message string) {
		fmt.Printf("\r[%3d%%] %s: %-60s", percent, stage, message)
		if percent == 100 {
			fmt.Println()
		}
	}

	result, err := pipeline.Run(cmd.Context(), args[0], services.VocabOptions{
		MaxItems: runMax,
		Delay:    time.Duration(runDelayMS) * time.Millisecond,
	})
	if err != nil {
		return err
	}

	fmt.Printf("\nRun %s finished in %s\n", result.RunID, result.Elapsed.Round(time.Second))
	fmt.Printf("  CSV:   %s (%d rows)\n", result.CSVPath, result.Rows)
	fmt.Printf("  Audio: %d generated, %d skipped, %d failed\n",
		result.Audio.Generated, result.Audio.Skipped, result.Audio.Failed)
	fmt.Printf("  Notes: %d added, %d failed/duplicates\n",
		result.Upload.Added, result.Upload.Failed)
	return nil
}
