// Package config resolves the classification policy and scan settings from
// defaults, a config file, DIRCLEAN_* environment variables and flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/idelchi/dirclean/internal/classify"
)

// Configuration keys.
const (
	KeyAgeThresholdDays   = "ageThresholdDays"
	KeyLargeFileBytes     = "largeFileBytes"
	KeyAnomalyMinBytes    = "anomalyMinBytes"
	KeyAnomalyMaxBytes    = "anomalyMaxBytes"
	KeyIgnoredExtensions  = "ignoredExtensions"
	KeyRequiredExtensions = "requiredExtensions"
	KeyRules              = "rules"
	KeyHashWorkers        = "hashWorkers"
	KeyExclude            = "exclude"
)

const (
	// EnvPrefix prefixes every environment variable.
	EnvPrefix = "DIRCLEAN"
	// FileName is the config file looked up in the working and home directories,
	// with any extension viper supports.
	FileName = ".dirclean"
)

// DefaultExcludes contains the default exclusion patterns.
//
//nolint:gochecknoglobals // Config constant
var DefaultExcludes = []string{`.*\.git/.*`, `.*node_modules/.*`}

type binding struct {
	key  string
	flag string
	env  string
}

//nolint:gochecknoglobals // Static table
var bindings = []binding{
	{KeyAgeThresholdDays, "age-days", "AGE_THRESHOLD_DAYS"},
	{KeyLargeFileBytes, "large", "LARGE_FILE_BYTES"},
	{KeyAnomalyMinBytes, "anomaly-min", "ANOMALY_MIN_BYTES"},
	{KeyAnomalyMaxBytes, "anomaly-max", "ANOMALY_MAX_BYTES"},
	{KeyIgnoredExtensions, "temp-ext", "IGNORED_EXTENSIONS"},
	{KeyRequiredExtensions, "keep-ext", "REQUIRED_EXTENSIONS"},
	{KeyRules, "rules", "RULES"},
	{KeyHashWorkers, "workers", "HASH_WORKERS"},
	{KeyExclude, "exclude", "EXCLUDE"},
}

// Config is the resolved configuration.
type Config struct {
	// Policy drives classification.
	Policy classify.Policy
	// Excludes are regex patterns of paths to skip while walking.
	Excludes []string
	// File is the config file that was read, or empty.
	File string
}

// RegisterFlags adds the flags Load understands to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.StringSliceP("exclude", "e", DefaultExcludes, "Regex patterns to exclude")
	flags.StringSlice("rules", names(classify.DefaultRules()),
		"Cleanup rules to apply ("+strings.Join(names(classify.AllReasons()), ", ")+")")
	flags.Int("age-days", int(classify.DefaultAgeThreshold/(24*time.Hour)), "Files untouched for longer than this many days are old")
	flags.String("large", humanize.IBytes(uint64(classify.DefaultLargeFileBytes)), "Files bigger than this are large")
	flags.String("anomaly-min", humanize.IBytes(uint64(classify.DefaultAnomalyMinBytes)), "Lower bound of the anomalous size band")
	flags.String("anomaly-max", humanize.IBytes(uint64(classify.DefaultAnomalyMaxBytes)), "Upper bound of the anomalous size band")
	flags.StringSlice("temp-ext", classify.DefaultIgnoredExtensions(), "Extensions treated as temporary")
	flags.StringSlice("keep-ext", classify.DefaultRequiredExtensions(), "Extensions kept by the non-essential rule")
	flags.IntP("workers", "j", 0, "Concurrent hashing workers (0=number of CPUs)")
}

// Load resolves the configuration. An explicit file must exist; otherwise
// FileName is looked up in the working directory and then the home directory.
// Flags may be nil.
func Load(file string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()

	setDefaults(v)

	for _, b := range bindings {
		if err := v.BindEnv(b.key, EnvPrefix+"_"+b.env); err != nil {
			return Config{}, err
		}

		if flags == nil {
			continue
		}

		if f := flags.Lookup(b.flag); f != nil {
			if err := v.BindPFlag(b.key, f); err != nil {
				return Config{}, err
			}
		}
	}

	if err := readFile(v, file); err != nil {
		return Config{}, err
	}

	policy, err := policyFrom(v)
	if err != nil {
		return Config{}, err
	}

	return Config{
		Policy:   policy,
		Excludes: list(v, KeyExclude),
		File:     v.ConfigFileUsed(),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyAgeThresholdDays, int(classify.DefaultAgeThreshold/(24*time.Hour)))
	v.SetDefault(KeyLargeFileBytes, classify.DefaultLargeFileBytes)
	v.SetDefault(KeyAnomalyMinBytes, classify.DefaultAnomalyMinBytes)
	v.SetDefault(KeyAnomalyMaxBytes, classify.DefaultAnomalyMaxBytes)
	v.SetDefault(KeyIgnoredExtensions, classify.DefaultIgnoredExtensions())
	v.SetDefault(KeyRequiredExtensions, classify.DefaultRequiredExtensions())
	v.SetDefault(KeyRules, names(classify.DefaultRules()))
	v.SetDefault(KeyHashWorkers, 0)
	v.SetDefault(KeyExclude, DefaultExcludes)
}

func readFile(v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(file)

		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %q: %w", file, err)
		}

		return nil
	}

	v.SetConfigName(FileName)
	v.AddConfigPath(".")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}

		return fmt.Errorf("reading config: %w", err)
	}

	return nil
}

func policyFrom(v *viper.Viper) (classify.Policy, error) {
	policy := classify.DefaultPolicy()

	var errs []error

	days := v.GetInt(KeyAgeThresholdDays)
	policy.AgeThreshold = time.Duration(days) * 24 * time.Hour

	for key, dst := range map[string]*int64{
		KeyLargeFileBytes:  &policy.LargeFileBytes,
		KeyAnomalyMinBytes: &policy.AnomalyMinBytes,
		KeyAnomalyMaxBytes: &policy.AnomalyMaxBytes,
	} {
		n, err := bytesOf(v.GetString(key))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))

			continue
		}

		*dst = n
	}

	policy.IgnoredExtensions = classify.NormalizeExtensions(list(v, KeyIgnoredExtensions))
	policy.RequiredExtensions = classify.NormalizeExtensions(list(v, KeyRequiredExtensions))
	policy.HashWorkers = v.GetInt(KeyHashWorkers)

	policy.Rules = policy.Rules[:0:0]

	for _, name := range list(v, KeyRules) {
		reason, err := classify.ParseReason(name)
		if err != nil {
			errs = append(errs, err)

			continue
		}

		policy.Rules = append(policy.Rules, reason)
	}

	if err := errors.Join(errs...); err != nil {
		return classify.Policy{}, err
	}

	if err := policy.Validate(); err != nil {
		return classify.Policy{}, err
	}

	return policy, nil
}

// bytesOf parses a size such as "100MiB", "1.5GB" or "4096".
func bytesOf(s string) (int64, error) {
	n, err := humanize.ParseBytes(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}

	if n > math.MaxInt64 {
		return 0, fmt.Errorf("size %q out of range", s)
	}

	return int64(n), nil
}

// list reads a string list, also splitting comma separated values as they
// arrive from environment variables.
func list(v *viper.Viper, key string) []string {
	var out []string

	for _, item := range v.GetStringSlice(key) {
		for part := range strings.SplitSeq(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}

	return out
}

func names(reasons []classify.Reason) []string {
	out := make([]string, len(reasons))
	for i, r := range reasons {
		out[i] = string(r)
	}

	return out
}
