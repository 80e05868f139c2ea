package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"mindscope/internal/engine"
	"mindscope/internal/entity"
	"mindscope/internal/policy"
	"mindscope/internal/store"
)

var (
	// Global flags
	verbose      bool
	dbPath       string
	policiesPath string
	timeout      time.Duration

	// Per-request flags shared by enrich and suggest
	actorID     string
	projectID   string
	allowShared bool

	// Logger
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "mindscope",
	Short: "mindscope - workspace mention resolution engine",
	Long: `mindscope resolves @mentions in request text against a workspace
directory, applies per-purpose budget policies, and reports what was
attached to the request scope and why.

Seed a demo workspace first:

  mindscope seed
  mindscope enrich "put @MarketingPlan on the @calendar"
  mindscope suggest mark`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// defaultPurposes backs the CLI when no policy file is supplied.
var defaultPurposes = map[string]policy.Budget{
	"chat":     {MaxMentions: 5, MaxTextPerEntity: 200, MaxTotalText: 1000},
	"planning": {MaxMentions: 5, MaxTextPerEntity: 80, MaxTotalText: 400},
	"summary":  {MaxMentions: 3, MaxTextPerEntity: 40, MaxTotalText: 120},
}

func loadPolicies() (*policy.Table, error) {
	if policiesPath != "" {
		return policy.LoadTable(policiesPath)
	}
	return policy.NewTable(defaultPurposes)
}

// openEngine wires the store-backed engine used by enrich and suggest.
// The returned closer releases the database handle.
func openEngine() (*engine.Engine, func(), error) {
	policies, err := loadPolicies()
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(dbPath, logger)
	if err != nil {
		return nil, nil, err
	}
	eng, err := engine.New(engine.Config{
		Directory:  st,
		Access:     st,
		Attributes: st,
		Recents:    st,
		Policies:   policies,
		Logger:     logger,
	})
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}
	return eng, func() { _ = st.Close() }, nil
}

func requestAccess() entity.AccessContext {
	return entity.AccessContext{
		ActorID:     actorID,
		ProjectID:   projectID,
		Allowed:     entity.AllCategories(),
		AllowShared: allowShared,
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "mindscope.db"
	}
	return filepath.Join(home, ".mindscope", "workspace.db")
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDBPath(), "Workspace database path")
	rootCmd.PersistentFlags().StringVar(&policiesPath, "policies", "", "Budget policy YAML (default: built-in table)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Operation timeout")
	rootCmd.PersistentFlags().StringVar(&actorID, "actor", "demo-actor", "Requesting actor ID")
	rootCmd.PersistentFlags().StringVar(&projectID, "project", "proj-home", "Active project ID")
	rootCmd.PersistentFlags().BoolVar(&allowShared, "allow-shared", true, "Enable the shared-track tier")

	rootCmd.AddCommand(enrichCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
