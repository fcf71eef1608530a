package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sim "github.com/inference-sim/mm1-sim/sim"
)

// newTestCommand returns a command carrying the model flags, with the
// package-level config-source paths reset after the test.
func newTestCommand(t *testing.T) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "test"}
	addModelFlags(c)
	t.Cleanup(func() {
		inputPath = ""
		configPath = ""
	})
	return c
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func ptr[T any](v T) *T { return &v }

func legacy(ta, ts float64, n int) FileConfig {
	return FileConfig{MeanInterarrival: ptr(ta), MeanService: ptr(ts), NumDelaysRequired: ptr(n)}
}

func TestParseLegacyInput(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    FileConfig
		wantErr bool
	}{
		{"classic", "1.0 0.5 1000\n", legacy(1.0, 0.5, 1000), false},
		{"extra whitespace", "  2   1.5\t10  ", legacy(2, 1.5, 10), false},
		{"only first line read", "1 0.5 5\ngarbage here", legacy(1, 0.5, 5), false},
		{"zeros kept", "0 0.5 0", legacy(0, 0.5, 0), false},
		{"too few fields", "1.0 0.5", FileConfig{}, true},
		{"bad float", "x 0.5 10", FileConfig{}, true},
		{"bad count", "1 0.5 ten", FileConfig{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLegacyInput(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadYAMLConfig_Strict(t *testing.T) {
	// GIVEN a config with a typo'd key
	path := writeFile(t, "bad.yaml", "mean_interarival: 1.0\n")

	// WHEN loaded
	_, err := LoadYAMLConfig(path)

	// THEN strict parsing rejects it
	assert.Error(t, err)
}

func TestLoadYAMLConfig_AllFields(t *testing.T) {
	path := writeFile(t, "ok.yaml", `mean_interarrival: 2.0
mean_service: 1.0
num_delays_required: 50
queue_limit: 7
seed: 0
`)
	fc, err := LoadYAMLConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ptr(2.0), fc.MeanInterarrival)
	assert.Equal(t, ptr(1.0), fc.MeanService)
	assert.Equal(t, ptr(50), fc.NumDelaysRequired)
	assert.Equal(t, ptr(7), fc.QueueLimit)
	require.NotNil(t, fc.Seed)
	assert.Equal(t, int64(0), *fc.Seed)
}

func TestResolveConfig_Defaults(t *testing.T) {
	c := newTestCommand(t)

	p, err := resolveConfig(c)
	require.NoError(t, err)

	assert.Equal(t, sim.NewConfig(1.0, 0.5, 1000), p.Sim)
	assert.Equal(t, int64(42), p.Seed)
}

func TestResolveConfig_Precedence(t *testing.T) {
	// GIVEN a legacy input, a YAML config, an env var and an explicit flag
	c := newTestCommand(t)
	legacy := writeFile(t, "mm1.in", "3.0 2.0 77\n")
	yamlPath := writeFile(t, "run.yaml", "mean_service: 1.5\nqueue_limit: 9\n")
	require.NoError(t, c.Flags().Set("input", legacy))
	require.NoError(t, c.Flags().Set("config", yamlPath))
	t.Setenv("MM1_CUSTOMERS", "88")
	require.NoError(t, c.Flags().Set(keySeed, "5"))

	// WHEN resolved
	p, err := resolveConfig(c)
	require.NoError(t, err)

	// THEN each field comes from the highest-precedence source that set it
	assert.Equal(t, 3.0, p.Sim.MeanInterarrival, "legacy input")
	assert.Equal(t, 1.5, p.Sim.MeanService, "yaml overrides legacy")
	assert.Equal(t, 88, p.Sim.NumDelaysRequired, "env overrides files")
	assert.Equal(t, 9, p.Sim.QueueLimit, "yaml")
	assert.Equal(t, int64(5), p.Seed, "flag")
}

func TestResolveConfig_FlagOverridesEnv(t *testing.T) {
	c := newTestCommand(t)
	t.Setenv("MM1_MEAN_SERVICE", "0.9")
	require.NoError(t, c.Flags().Set(keyMeanService, "0.25"))

	p, err := resolveConfig(c)
	require.NoError(t, err)
	assert.Equal(t, 0.25, p.Sim.MeanService)
}

func TestResolveConfig_RejectsInvalid(t *testing.T) {
	tests := []struct {
		flag, value string
	}{
		{keyMeanInterarrival, "0"},
		{keyMeanService, "-1"},
		{keyCustomers, "0"},
		{keyQueueLimit, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			c := newTestCommand(t)
			require.NoError(t, c.Flags().Set(tt.flag, tt.value))
			_, err := resolveConfig(c)
			assert.Error(t, err)
		})
	}
}

func TestLoadYAMLConfig_AbsentFieldsNil(t *testing.T) {
	path := writeFile(t, "partial.yaml", "mean_service: 0\n")
	fc, err := LoadYAMLConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ptr(0.0), fc.MeanService)
	assert.Nil(t, fc.MeanInterarrival)
	assert.Nil(t, fc.NumDelaysRequired)
	assert.Nil(t, fc.QueueLimit)
	assert.Nil(t, fc.Seed)
}

func TestResolveConfig_ExplicitZeroInFile_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		flag    string
		file    string
		content string
	}{
		{"legacy mean interarrival", "input", "mm1.in", "0 0.5 1000\n"},
		{"legacy customers", "input", "mm1.in", "1.0 0.5 0\n"},
		{"yaml mean interarrival", "config", "run.yaml", "mean_interarrival: 0\n"},
		{"yaml mean service", "config", "run.yaml", "mean_service: 0\n"},
		{"yaml customers", "config", "run.yaml", "num_delays_required: 0\n"},
		{"yaml queue limit", "config", "run.yaml", "queue_limit: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN a file that sets one field to zero over otherwise valid defaults
			c := newTestCommand(t)
			require.NoError(t, c.Flags().Set(tt.flag, writeFile(t, tt.file, tt.content)))

			// WHEN resolved
			_, err := resolveConfig(c)

			// THEN the zero reaches validation instead of falling back to the default
			assert.Error(t, err)
		})
	}
}

func TestResolveConfig_MissingInputFile(t *testing.T) {
	c := newTestCommand(t)
	require.NoError(t, c.Flags().Set("input", filepath.Join(t.TempDir(), "missing.in")))
	_, err := resolveConfig(c)
	assert.Error(t, err)
}
