package classify

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"
	"time"
)

// Reason tags why a file was selected.
type Reason string

// Reasons, in the order rules run and reasons are reported.
const (
	ReasonOld          Reason = "old"
	ReasonLarge        Reason = "large"
	ReasonDuplicate    Reason = "duplicate"
	ReasonTemporary    Reason = "temporary"
	ReasonNonEssential Reason = "non-essential"
	ReasonAnomalous    Reason = "anomalous-size"
)

// Default policy values.
const (
	DefaultAgeThreshold          = 30 * 24 * time.Hour
	DefaultLargeFileBytes  int64 = 100 << 20
	DefaultAnomalyMinBytes int64 = 10 << 20
	DefaultAnomalyMaxBytes int64 = 200 << 20
)

// AllReasons returns every reason in canonical order.
func AllReasons() []Reason {
	return []Reason{
		ReasonOld,
		ReasonLarge,
		ReasonDuplicate,
		ReasonTemporary,
		ReasonNonEssential,
		ReasonAnomalous,
	}
}

// DefaultRules returns the rules enabled unless configured otherwise.
func DefaultRules() []Reason {
	return []Reason{ReasonOld, ReasonLarge, ReasonDuplicate, ReasonTemporary}
}

// DefaultIgnoredExtensions returns the extensions treated as temporary.
func DefaultIgnoredExtensions() []string {
	return []string{".tmp", ".sys", ".dll", ".log"}
}

// DefaultRequiredExtensions returns the extensions kept by the non-essential rule.
func DefaultRequiredExtensions() []string {
	return []string{".jpg", ".png", ".txt", ".pdf"}
}

// ParseReason converts a rule name into a Reason.
func ParseReason(name string) (Reason, error) {
	reason := Reason(strings.ToLower(strings.TrimSpace(name)))
	if !slices.Contains(AllReasons(), reason) {
		return "", fmt.Errorf("unknown rule %q: must be one of %v", name, AllReasons())
	}

	return reason, nil
}

// rank orders reasons canonically.
func (r Reason) rank() int {
	return slices.Index(AllReasons(), r)
}

// Policy holds the classification parameters.
type Policy struct {
	// AgeThreshold selects files not modified for longer than this.
	AgeThreshold time.Duration
	// LargeFileBytes selects files bigger than this.
	LargeFileBytes int64
	// AnomalyMinBytes and AnomalyMaxBytes bound the anomalous size band (exclusive).
	AnomalyMinBytes int64
	AnomalyMaxBytes int64
	// IgnoredExtensions are temporary extensions.
	IgnoredExtensions []string
	// RequiredExtensions are the extensions to keep; anything else is non-essential.
	RequiredExtensions []string
	// Rules lists the enabled rules.
	Rules []Reason
	// HashWorkers bounds concurrent content hashing (0 = GOMAXPROCS).
	HashWorkers int
	// Now returns the reference time for the age rule (nil = time.Now).
	Now func() time.Time
}

// DefaultPolicy returns the default classification policy.
func DefaultPolicy() Policy {
	return Policy{
		AgeThreshold:       DefaultAgeThreshold,
		LargeFileBytes:     DefaultLargeFileBytes,
		AnomalyMinBytes:    DefaultAnomalyMinBytes,
		AnomalyMaxBytes:    DefaultAnomalyMaxBytes,
		IgnoredExtensions:  DefaultIgnoredExtensions(),
		RequiredExtensions: DefaultRequiredExtensions(),
		Rules:              DefaultRules(),
	}
}

// Validate checks the policy for inconsistent values.
func (p Policy) Validate() error {
	var errs []error

	if p.AgeThreshold < 0 {
		errs = append(errs, errors.New("age threshold cannot be negative"))
	}

	if p.LargeFileBytes < 0 {
		errs = append(errs, errors.New("large file threshold cannot be negative"))
	}

	if p.AnomalyMinBytes < 0 || p.AnomalyMaxBytes < 0 {
		errs = append(errs, errors.New("anomaly bounds cannot be negative"))
	} else if p.AnomalyMinBytes >= p.AnomalyMaxBytes {
		errs = append(errs, fmt.Errorf("anomaly minimum (%d) must be below maximum (%d)", p.AnomalyMinBytes, p.AnomalyMaxBytes))
	}

	if p.HashWorkers < 0 {
		errs = append(errs, errors.New("hash workers cannot be negative"))
	}

	for _, r := range p.Rules {
		if r.rank() < 0 {
			errs = append(errs, fmt.Errorf("unknown rule %q", r))
		}
	}

	return errors.Join(errs...)
}

func (p Policy) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}

	return time.Now()
}

func (p Policy) hashWorkers() int {
	if p.HashWorkers > 0 {
		return p.HashWorkers
	}

	return runtime.GOMAXPROCS(0)
}

// NormalizeExtensions lowercases extensions and ensures a leading dot.
// Empty values and duplicates are dropped.
func NormalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))

	for _, ext := range exts {
		ext = strings.ToLower(strings.Trim(strings.TrimSpace(ext), "'\""))
		if ext == "" || ext == "." {
			continue
		}

		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}

		if !slices.Contains(out, ext) {
			out = append(out, ext)
		}
	}

	return out
}
