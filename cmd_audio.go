package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chinosrs/services"
)

var (
	audioEngine      string
	audioDir         string
	audioSpeed       float64
	audioVoice       string
	audioRandomVoice bool
)

var audioCmd = &cobra.Command{
	Use:   "audio <vocabulary.csv>",
	Short: "Generate MP3s for the CSV's sentences and words",
	Long: `Synthesizes one MP3 per example sentence plus one per word, named
by content hash so re-runs only produce what is missing. Supported engines:
gtts (no credentials) and azure (needs AZURE_TTS_KEY).`,
	Args: cobra.ExactArgs(1),
	RunE: runAudio,
}

func init() {
	audioCmd.Flags().StringVar(&audioEngine, "engine", "", "TTS engine: gtts or azure (default from config)")
	audioCmd.Flags().StringVar(&audioDir, "audio-dir", "", "output directory (default from config)")
	audioCmd.Flags().Float64Var(&audioSpeed, "speed", 0, "azure speech speed, 1.0 = normal")
	audioCmd.Flags().StringVar(&audioVoice, "voice", "", "azure voice name")
	audioCmd.Flags().BoolVar(&audioRandomVoice, "random-voice", false, "azure: pick a random voice per file")
	rootCmd.AddCommand(audioCmd)
}

func runAudio(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if audioEngine != "" {
		cfg.TTSEngine = audioEngine
	}
	if audioDir != "" {
		cfg.AudioDir = audioDir
	}
	if audioSpeed > 0 {
		cfg.AzureSpeed = audioSpeed
	}
	if audioVoice != "" {
		cfg.AzureVoice = audioVoice
	}
	if audioRandomVoice {
		cfg.AzureRandomVoice = true
	}

	rows, err := services.ReadCSV(args[0])
	if err != nil {
		return err
	}

	engine, err := services.NewEngine(cfg)
	if err != nil {
		return err
	}
	svc := services.NewAudioService(engine, cfg.AudioDir)
	stats, err := svc.Generate(cmd.Context(), rows, nil)
	if err != nil {
		return err
	}

	fmt.Printf("Audio: %d generated, %d skipped, %d failed\n",
		stats.Generated, stats.Skipped, stats.Failed)
	if stats.Failed > 0 {
		return fmt.Errorf("%d audio files failed", stats.Failed)
	}
	return nil
}
