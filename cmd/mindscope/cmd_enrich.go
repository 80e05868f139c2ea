package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mindscope/internal/snapshot"
)

var enrichPurpose string

var enrichCmd = &cobra.Command{
	Use:   "enrich [text]",
	Short: "Resolve @mentions in request text and show the resulting scope",
	Long: `Scans the text for @mentions, resolves each one against the workspace,
builds budgeted snapshots, and prints the resolution summary along with
what the request scope would carry.

Example:
  mindscope enrich "put @MarketingPlan on the @calendar"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEnrich,
}

func init() {
	enrichCmd.Flags().StringVar(&enrichPurpose, "purpose", "chat", "Request purpose (selects the budget policy)")
}

func runEnrich(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	eng, closeStore, err := openEngine()
	if err != nil {
		return err
	}
	defer closeStore()

	scope := &snapshot.Scope{Purpose: enrichPurpose}
	result, err := eng.EnrichRequest(ctx, strings.Join(args, " "), scope, requestAccess(), enrichPurpose)
	if err != nil {
		return err
	}

	fmt.Println(result.Summary.String())

	if len(scope.TrackIDs) > 0 {
		fmt.Printf("tracks in scope:  %s\n", strings.Join(scope.TrackIDs, ", "))
	}
	if len(scope.TaskIDs) > 0 {
		fmt.Printf("tasks in scope:   %s\n", strings.Join(scope.TaskIDs, ", "))
	}
	var flags []string
	if scope.IncludeTrackDetails {
		flags = append(flags, "track-details")
	}
	if scope.IncludePeople {
		flags = append(flags, "people")
	}
	if scope.IncludeSchedule {
		flags = append(flags, "schedule")
	}
	if scope.IncludeTaskList {
		flags = append(flags, "task-list")
	}
	if len(flags) > 0 {
		fmt.Printf("inclusion flags:  %s\n", strings.Join(flags, ", "))
	}

	for _, fail := range result.SnapshotErrors {
		fmt.Printf("snapshot failed:  %s %s: %v\n", fail.Entity.Category, fail.Entity.ID, fail.Err)
	}
	return nil
}
