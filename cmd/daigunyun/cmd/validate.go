package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/keuin/daigunyun/internal/config"
	"github.com/keuin/daigunyun/internal/logger"
	"github.com/keuin/daigunyun/internal/relation"
)

// connectCheckTimeout bounds the per-run connectivity probe.
const connectCheckTimeout = 30 * time.Second

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and check relation connectivity",
	Long: `Validate checks the configuration file and connects to every
configured relation to verify its data source is reachable.

Checks performed:
  - Configuration syntax and required fields
  - Field id uniqueness and referential validity
  - Relation name uniqueness
  - Data source connectivity per relation

Example:
  daigunyun validate --config daigunyun.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Printf("\n=== Configuration Validation ===\n")
	fmt.Printf("Config file: %s\n", configFile)

	if err := cfg.Validate(); err != nil {
		color.Red.Println("configuration invalid")
		return err
	}
	color.Green.Printf("configuration OK: %d fields, %d relations\n\n", len(cfg.Fields), len(cfg.Relations))

	log := logger.NewDefault()
	ctx, cancel := context.WithTimeout(context.Background(), connectCheckTimeout)
	defer cancel()

	hasErrors := false
	for _, rc := range cfg.Relations {
		rd, err := relation.New(ctx, rc, log)
		if err != nil {
			color.Red.Printf("relation %s: %v\n", rc.Name, err)
			hasErrors = true
			continue
		}
		rd.Close()
		color.Green.Printf("relation %s: reachable (%d fields)\n", rc.Name, len(rc.Fields))
	}

	if hasErrors {
		return fmt.Errorf("validation failed for one or more relations")
	}

	fmt.Println("\n=== Validation Complete ===")
	return nil
}
