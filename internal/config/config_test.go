package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/dirclean/internal/classify"
	"github.com/idelchi/dirclean/internal/config"
)

func flagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.RegisterFlags(flags)
	require.NoError(t, flags.Parse(args))

	return flags
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "dirclean.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load("", flagSet(t))
	require.NoError(t, err)

	want := classify.DefaultPolicy()

	assert.Equal(t, want.AgeThreshold, cfg.Policy.AgeThreshold)
	assert.Equal(t, want.LargeFileBytes, cfg.Policy.LargeFileBytes)
	assert.Equal(t, want.AnomalyMinBytes, cfg.Policy.AnomalyMinBytes)
	assert.Equal(t, want.AnomalyMaxBytes, cfg.Policy.AnomalyMaxBytes)
	assert.Equal(t, want.IgnoredExtensions, cfg.Policy.IgnoredExtensions)
	assert.Equal(t, want.RequiredExtensions, cfg.Policy.RequiredExtensions)
	assert.Equal(t, want.Rules, cfg.Policy.Rules)
	assert.Equal(t, config.DefaultExcludes, cfg.Excludes)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
ageThresholdDays: 7
largeFileBytes: 1GiB
anomalyMinBytes: 1MB
anomalyMaxBytes: 2MB
ignoredExtensions: [bak, .TMP]
rules: [old, non-essential]
hashWorkers: 3
`)

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.File)
	assert.Equal(t, 7*24*time.Hour, cfg.Policy.AgeThreshold)
	assert.Equal(t, int64(1<<30), cfg.Policy.LargeFileBytes)
	assert.Equal(t, int64(1_000_000), cfg.Policy.AnomalyMinBytes)
	assert.Equal(t, int64(2_000_000), cfg.Policy.AnomalyMaxBytes)
	assert.Equal(t, []string{".bak", ".tmp"}, cfg.Policy.IgnoredExtensions)
	assert.Equal(t, []classify.Reason{classify.ReasonOld, classify.ReasonNonEssential}, cfg.Policy.Rules)
	assert.Equal(t, 3, cfg.Policy.HashWorkers)
}

func TestLoadFlagsOverrideFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "largeFileBytes: 1GiB\nrules: [old]\n")

	cfg, err := config.Load(path, flagSet(t, "--large=5MiB", "--rules=temporary,duplicate"))
	require.NoError(t, err)

	assert.Equal(t, int64(5<<20), cfg.Policy.LargeFileBytes)
	assert.Equal(t, []classify.Reason{classify.ReasonTemporary, classify.ReasonDuplicate}, cfg.Policy.Rules)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("DIRCLEAN_AGE_THRESHOLD_DAYS", "90")
	t.Setenv("DIRCLEAN_REQUIRED_EXTENSIONS", ".go,.md")

	cfg, err := config.Load("", flagSet(t))
	require.NoError(t, err)

	assert.Equal(t, 90*24*time.Hour, cfg.Policy.AgeThreshold)
	assert.Equal(t, []string{".go", ".md"}, cfg.Policy.RequiredExtensions)

	cfg, err = config.Load("", flagSet(t, "--age-days=1"))
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.Policy.AgeThreshold)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{"unknown rule", []string{"--rules=old,bogus"}},
		{"bad size", []string{"--large=lots"}},
		{"inverted band", []string{"--anomaly-min=10MiB", "--anomaly-max=1MiB"}},
		{"negative workers", []string{"--workers=-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.Load("", flagSet(t, tt.args...))
			require.Error(t, err)
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
}
