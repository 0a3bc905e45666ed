//go:build !unix

package bfast

import (
	"fmt"
	"os"
)

// ReadFile parses a BFAST container from a file. On platforms without mmap
// support the file is always read into memory; mmapThreshold is ignored.
func ReadFile(path string, mmapThreshold int64) (*Container, error) {
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
