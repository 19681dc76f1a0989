//go:build !linux && !darwin && !freebsd && !windows

package dirstat

// VolumeUsage is not available on this platform.
func VolumeUsage(string) (DiskUsage, error) {
	return DiskUsage{}, ErrDiskUsageUnsupported
}
