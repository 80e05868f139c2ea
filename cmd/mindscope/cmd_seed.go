package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"mindscope/internal/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a demo workspace in the database",
	Long: `Populates the database with a small demo workspace: builtins, a couple
of tracks and tasks, contacts, and a track shared in from a second
project. The default --actor and --project flags match the seeded data.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	st, err := store.Open(dbPath, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	seed, err := st.SeedDemo(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("seeded demo workspace at %s\n", dbPath)
	fmt.Printf("actor:   %s\n", seed.ActorID)
	fmt.Printf("project: %s\n", seed.ProjectID)
	return nil
}
