package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	sim "github.com/inference-sim/mm1-sim/sim"
)

// Flag names double as viper keys; env vars are MM1_<KEY> with '-' → '_'.
const (
	keyMeanInterarrival = "mean-interarrival"
	keyMeanService      = "mean-service"
	keyCustomers        = "customers"
	keyQueueLimit       = "queue-limit"
	keySeed             = "seed"

	envPrefix = "mm1"
)

// FileConfig is the on-disk run configuration.
// All fields are optional; nil fields fall back to flags, env, then flag
// defaults. A present zero is kept so validation can reject it.
type FileConfig struct {
	MeanInterarrival  *float64 `yaml:"mean_interarrival"`
	MeanService       *float64 `yaml:"mean_service"`
	NumDelaysRequired *int     `yaml:"num_delays_required"`
	QueueLimit        *int     `yaml:"queue_limit"`
	Seed              *int64   `yaml:"seed"`
}

// runParams is everything a run needs after all config sources are merged.
type runParams struct {
	Sim  sim.Config
	Seed int64
}

// LoadYAMLConfig parses a YAML run configuration.
// Uses strict field checking: unknown keys are errors.
func LoadYAMLConfig(path string) (FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var fc FileConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&fc); err != nil {
		return FileConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return fc, nil
}

// LoadLegacyInput parses the classic one-line input file:
//
//	<mean interarrival> <mean service> <number of customers>
func LoadLegacyInput(path string) (FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, fmt.Errorf("read input %s: %w", path, err)
	}
	return parseLegacyInput(string(data))
}

func parseLegacyInput(s string) (FileConfig, error) {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return FileConfig{}, fmt.Errorf("legacy input: want 3 fields, got %d in %q", len(fields), line)
	}
	ta, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return FileConfig{}, fmt.Errorf("legacy input: mean interarrival: %w", err)
	}
	ts, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return FileConfig{}, fmt.Errorf("legacy input: mean service: %w", err)
	}
	n, err := strconv.Atoi(fields[2])
	if err != nil {
		return FileConfig{}, fmt.Errorf("legacy input: number of customers: %w", err)
	}
	return FileConfig{MeanInterarrival: &ta, MeanService: &ts, NumDelaysRequired: &n}, nil
}

// settings returns the present fields keyed by flag name.
func (fc FileConfig) settings() map[string]any {
	m := make(map[string]any)
	if fc.MeanInterarrival != nil {
		m[keyMeanInterarrival] = *fc.MeanInterarrival
	}
	if fc.MeanService != nil {
		m[keyMeanService] = *fc.MeanService
	}
	if fc.NumDelaysRequired != nil {
		m[keyCustomers] = *fc.NumDelaysRequired
	}
	if fc.QueueLimit != nil {
		m[keyQueueLimit] = *fc.QueueLimit
	}
	if fc.Seed != nil {
		m[keySeed] = *fc.Seed
	}
	return m
}

// resolveConfig merges the configuration sources for cmd. Precedence, highest
// first: explicitly set flags, MM1_* environment, --config YAML, --input
// legacy file, flag defaults.
func resolveConfig(cmd *cobra.Command) (runParams, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, key := range []string{keyMeanInterarrival, keyMeanService, keyCustomers, keyQueueLimit, keySeed} {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(key)); err != nil {
			return runParams{}, fmt.Errorf("bind flag %s: %w", key, err)
		}
	}

	if inputPath != "" {
		fc, err := LoadLegacyInput(inputPath)
		if err != nil {
			return runParams{}, err
		}
		if err := v.MergeConfigMap(fc.settings()); err != nil {
			return runParams{}, fmt.Errorf("merge input %s: %w", inputPath, err)
		}
	}
	if configPath != "" {
		fc, err := LoadYAMLConfig(configPath)
		if err != nil {
			return runParams{}, err
		}
		if err := v.MergeConfigMap(fc.settings()); err != nil {
			return runParams{}, fmt.Errorf("merge config %s: %w", configPath, err)
		}
	}

	p := runParams{
		Sim: sim.Config{
			MeanInterarrival:  v.GetFloat64(keyMeanInterarrival),
			MeanService:       v.GetFloat64(keyMeanService),
			NumDelaysRequired: v.GetInt(keyCustomers),
			QueueLimit:        v.GetInt(keyQueueLimit),
		},
		Seed: v.GetInt64(keySeed),
	}
	if p.Sim.QueueLimit <= 0 {
		return runParams{}, fmt.Errorf("queue limit must be > 0, got %d", p.Sim.QueueLimit)
	}
	if err := p.Sim.Validate(); err != nil {
		return runParams{}, err
	}
	return p, nil
}
