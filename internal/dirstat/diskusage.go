package dirstat

import "errors"

// ErrDiskUsageUnsupported is returned on platforms without a volume space query.
var ErrDiskUsageUnsupported = errors.New("disk usage query not supported on this platform")

// DiskUsage describes the space on the volume holding a path.
type DiskUsage struct {
	// Total is the volume capacity in bytes.
	Total uint64 `json:"total" yaml:"total"`
	// Used is the space in use in bytes.
	Used uint64 `json:"used" yaml:"used"`
	// Free is the space available to the current user in bytes.
	Free uint64 `json:"free" yaml:"free"`
}
