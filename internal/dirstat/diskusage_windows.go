//go:build windows

package dirstat

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// VolumeUsage queries the volume that holds path.
func VolumeUsage(path string) (DiskUsage, error) {
	ptr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return DiskUsage{}, fmt.Errorf("encoding path %q: %w", path, err)
	}

	var available, total, totalFree uint64
	if err := windows.GetDiskFreeSpaceEx(ptr, &available, &total, &totalFree); err != nil {
		return DiskUsage{}, fmt.Errorf("querying volume of %q: %w", path, err)
	}

	return DiskUsage{
		Total: total,
		Used:  total - totalFree,
		Free:  available,
	}, nil
}
