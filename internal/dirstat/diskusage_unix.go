//go:build linux || darwin || freebsd

package dirstat

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// VolumeUsage queries the volume that holds path.
func VolumeUsage(path string) (DiskUsage, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return DiskUsage{}, fmt.Errorf("querying volume of %q: %w", path, err)
	}

	bsize := uint64(st.Bsize) //nolint:gosec // Block size is never negative

	return DiskUsage{
		Total: uint64(st.Blocks) * bsize,
		Used:  (uint64(st.Blocks) - uint64(st.Bfree)) * bsize,
		Free:  uint64(st.Bavail) * bsize, //nolint:gosec // Available blocks are never negative
	}, nil
}
