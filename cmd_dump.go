package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chinosrs/services"
)

var dumpDeckName string

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Export an Anki deck to JSON",
	Long: `Fetches every note of the configured deck through AnkiConnect and
writes them to a timestamped JSON file in the output directory.`,
	Args: cobra.NoArgs,
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().StringVar(&dumpDeckName, "deck", "", "deck name (default from config)")
	rootCmd.AddCommand(dumpCmd)
}

func runDump(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	deckName := dumpDeckName
	if deckName == "" {
		deckName = cfg.DeckName
	}

	ctx := cmd.Context()
	anki := services.NewAnkiService(cfg.AnkiConnectURL)
	if _, err := anki.Version(ctx); err != nil {
		return err
	}

	dump, err := anki.DumpDeck(ctx, deckName)
	if err != nil {
		return err
	}
	if len(dump) == 0 {
		fmt.Printf("Deck %q has no notes\n", deckName)
		return nil
	}

	deck := services.NewDeckService(anki, cfg.OutputDir)
	path, err := deck.WriteDump(dump, deckName)
	if err != nil {
		return err
	}
	fmt.Printf("Dumped %d notes to %s\n", len(dump), path)
	return nil
}
