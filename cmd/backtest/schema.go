package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	engine "github.com/rxtech-lab/argo-options/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-options/internal/strategy"
	"gopkg.in/yaml.v3"
)

const (
	SchemaFile       = "backtest-engine-v1-config.json"
	SampleConfigFile = "backtest-engine-v1-config.yaml"
)

// SampleConfig is the config written next to the schema: the defaults with one
// strategy per variant.
func SampleConfig() engine.BacktestConfig {
	return engine.TestConfig(
		[]time.Time{time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC)},
		engine.StrategyConfig{ID: "mean_reversion", Variant: strategy.VariantReversion, Window: 30, Threshold: 0.005, MomentumWindow: engine.DefaultMomentumWindow},
		engine.StrategyConfig{ID: "directional", Variant: strategy.VariantDirectional, Window: 20, Threshold: 0.005, MomentumWindow: engine.DefaultMomentumWindow},
		engine.StrategyConfig{ID: "semi_directional", Variant: strategy.VariantConfirmedReversion, Window: 30, Threshold: 0.003, MomentumWindow: engine.DefaultMomentumWindow, MomentumThreshold: 0.003},
	)
}

// WriteSchema writes the config JSON schema into dir, plus a sample config when none exists.
func WriteSchema(dir string) error {
	config := engine.EmptyConfig()

	schemaJSON, err := config.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	schemaPath := filepath.Join(dir, SchemaFile)
	if err := os.WriteFile(schemaPath, []byte(schemaJSON), 0644); err != nil {
		return fmt.Errorf("failed to write schema to file: %w", err)
	}

	log.Printf("Schema successfully generated at %s", schemaPath)

	sampleConfigPath := filepath.Join(dir, SampleConfigFile)
	if _, err := os.Stat(sampleConfigPath); !os.IsNotExist(err) {
		return nil
	}

	yamlBytes, err := yaml.Marshal(SampleConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal sample config to yaml: %w", err)
	}

	yamlBytes = append([]byte("# yaml-language-server: $schema="+SchemaFile+"\n"), yamlBytes...)
	if err := os.WriteFile(sampleConfigPath, yamlBytes, 0644); err != nil {
		return fmt.Errorf("failed to write sample config to file: %w", err)
	}

	log.Printf("Sample config successfully generated at %s", sampleConfigPath)

	return nil
}
