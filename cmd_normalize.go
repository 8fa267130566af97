package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chinosrs/services"
)

var normalizeOutput string

var normalizeCmd = &cobra.Command{
	Use:   "normalize <vocabulary.csv>",
	Short: "Convert numeric pinyin tones to diacritics",
	Long: `Rewrites the pinyin column: "lu:3 xing2" becomes "lǚ xíng". Rows
already carrying tone marks are left untouched. Without --output the file
is rewritten in place.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		changed, err := services.NormalizePinyinCSV(args[0], normalizeOutput)
		if err != nil {
			return err
		}
		fmt.Printf("Normalized %d rows\n", changed)
		return nil
	},
}

func init() {
	normalizeCmd.Flags().StringVarP(&normalizeOutput, "output", "o", "", "write the result here instead of in place")
	rootCmd.AddCommand(normalizeCmd)
}
