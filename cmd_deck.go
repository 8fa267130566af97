package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"chinosrs/internal/logger"
	"chinosrs/internal/sortkey"
	"chinosrs/models"
	"chinosrs/services"
)

var (
	deckLimit       int
	deckForceModels bool
	deckSkipCache   bool
	deckOnlyDedup   bool
	deckYes         bool
)

var deckCmd = &cobra.Command{
	Use:   "deck <vocabulary.csv>",
	Short: "Build notes from the CSV and upload them to Anki",
	Long: `Builds three notes per row (sentence, pattern and audio cards),
attaches existing audio files, resolves sort key collisions and uploads
everything through AnkiConnect in batches. Generated notes are cached as
JSON in the output directory so a re-run can skip the build step.`,
	Args: cobra.ExactArgs(1),
	RunE: runDeck,
}

func init() {
	deckCmd.Flags().IntVar(&deckLimit, "limit", 0, "process at most N CSV rows (0 = all)")
	deckCmd.Flags().BoolVar(&deckForceModels, "force-recreate", false, "delete and recreate the note types")
	deckCmd.Flags().BoolVar(&deckSkipCache, "skip-cache", false, "rebuild notes even when a cache exists")
	deckCmd.Flags().BoolVar(&deckOnlyDedup, "only-deduplicated", false, "upload only notes whose sort key was rewritten")
	deckCmd.Flags().BoolVarP(&deckYes, "yes", "y", false, "use an existing cache without asking")
	rootCmd.AddCommand(deckCmd)
}

// confirm asks a yes/no question on stdin.
func confirm(prompt string) bool {
	fmt.Printf("%s (s/n): ", prompt)
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "s" || answer == "y"
}

func buildOrLoadNotes(cfg *models.Config, csvFile, cachePath string, useCache bool) ([]*models.Note, error) {
	if useCache {
		return services.LoadNotesCache(cachePath)
	}
	rows, err := services.ReadCSV(csvFile)
	if err != nil {
		return nil, err
	}
	builder := services.NewNoteBuilder(cfg.DeckName, cfg.AudioDir,
		sortkey.NewGenerator(time.Now().UnixNano()))
	notes := builder.BuildAll(rows, deckLimit)
	if err := services.SaveNotesCache(notes, cachePath); err != nil {
		logger.Warn("note cache not saved: %v", err)
	}
	return notes, nil
}

func runDeck(cmd *cobra.Command, args []string) error {
	csvFile := args[0]
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	anki := services.NewAnkiService(cfg.AnkiConnectURL)
	if _, err := anki.Version(ctx); err != nil {
		return err
	}
	if err := anki.EnsureDeck(ctx, cfg.DeckName); err != nil {
		return err
	}

	deck := services.NewDeckService(anki, cfg.OutputDir)
	if err := deck.SetupModels(ctx, deckForceModels); err != nil {
		return err
	}

	cachePath := services.CachePath(cfg.OutputDir, csvFile)
	useCache := false
	if !deckSkipCache {
		if _, err := os.Stat(cachePath); err == nil {
			useCache = deckYes || confirm(fmt.Sprintf("Cache found at %s. Use it?", cachePath))
		}
	}

	notes, err := buildOrLoadNotes(cfg, csvFile, cachePath, useCache)
	if err != nil {
		return err
	}

	dedup, err := services.DeduplicateNotes(notes)
	if err != nil {
		return err
	}

	toUpload := notes
	if deckOnlyDedup {
		toUpload = dedup
		logger.Info("uploading only the %d deduplicated notes", len(toUpload))
	}

	stats, err := deck.Upload(ctx, toUpload)
	if err != nil {
		return err
	}
	fmt.Printf("Upload: %d added, %d failed/duplicates\n", stats.Added, stats.Failed)
	return nil
}
