package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"chinosrs/internal/logger"
	"chinosrs/models"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "chinosrs",
	Short: "Mandarin vocabulary to Anki deck pipeline",
	Long: `chinosrs turns raw JSON vocabulary into a ready-to-review Anki deck:

  vocab      enrich entries into a CSV (definitions, sentences, hints)
  audio      synthesize MP3s for sentences and words
  deck       build notes and upload them through AnkiConnect
  run        the three stages above, end to end
  dump       export an existing deck to JSON
  validate   check CSV quality, coverage and audio completeness
  normalize  convert numeric pinyin tones to diacritics

Credentials come from the environment or a .env file (OPENAI_API_KEY,
AZURE_TTS_KEY, ...). Everything else lives in the JSON config file.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(verbose)
		// The .env file is optional.
		if err := godotenv.Load(); err == nil {
			logger.Debug(".env loaded")
		}
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// loadConfig reads the config file and applies environment overrides.
func loadConfig() (*models.Config, error) {
	cfg, err := models.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func main() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
