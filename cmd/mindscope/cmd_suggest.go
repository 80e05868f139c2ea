package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"mindscope/internal/suggest"
)

var suggestLimit int

var suggestCmd = &cobra.Command{
	Use:   "suggest [partial]",
	Short: "Rank mention completions for a partial key",
	Long: `Ranks the entities the actor could mention, best match first. With no
partial key it shows the default set: builtins followed by recently
referenced entities.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSuggest,
}

func init() {
	suggestCmd.Flags().IntVar(&suggestLimit, "limit", suggest.DefaultLimit, "Maximum suggestions to show")
}

func runSuggest(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	eng, closeStore, err := openEngine()
	if err != nil {
		return err
	}
	defer closeStore()

	partial := ""
	if len(args) > 0 {
		partial = args[0]
	}
	entries, err := eng.Suggest(ctx, partial, requestAccess(), suggestLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no suggestions")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("@%-20s %-12s %s\n", e.Key, e.Category, e.DisplayName)
	}
	return nil
}
