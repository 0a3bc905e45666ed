//go:build unix

package bfast

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// ReadFile parses a BFAST container from a file. Files at or above
// mmapThreshold are memory-mapped instead of copied, so gigabyte-scale
// models do not pass through the heap; the mapping is released by
// Container.Close.
func ReadFile(path string, mmapThreshold int64) (*Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("bfast: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("bfast: stat %s: %w", path, err)
	}

	if info.Size() < mmapThreshold {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("bfast: read %s: %w", path, err)
		}
		c, err := Read(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return c, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(info.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("bfast: mmap %s: %w", path, err)
	}
	c, err := Read(data)
	if err != nil {
		_ = unix.Munmap(data)
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.close = func() error { return unix.Munmap(data) }
	return c, nil
}
