//go:build !unix

package mmap

import (
	"io"
	"os"
)

// Fallback for platforms without unix mmap: read the file into memory.
// Catalog segments are modest in size, so this is acceptable outside of
// production deployments.

func mmapFile(f *os.File, size int) ([]byte, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(io.NewSectionReader(f, 0, int64(size)), data); err != nil {
		return nil, err
	}
	return data, nil
}

func munmapFile(data []byte) error {
	return nil
}
