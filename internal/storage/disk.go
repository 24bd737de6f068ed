package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Footprint is the on-disk size of the database and the item index.
type Footprint struct {
	DatabaseBytes int64 `json:"database_bytes"`
	IndexBytes    int64 `json:"index_bytes"`
}

// Total returns the combined size.
func (f Footprint) Total() int64 {
	return f.DatabaseBytes + f.IndexBytes
}

// MeasureFootprint sizes the database file (with its WAL and shared-memory siblings)
// and the index directory. Missing paths count as zero.
func MeasureFootprint(dbPath, indexPath string) (Footprint, error) {
	var fp Footprint
	for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		n, err := sizeOf(p)
		if err != nil {
			return fp, err
		}
		fp.DatabaseBytes += n
	}
	n, err := sizeOf(indexPath)
	if err != nil {
		return fp, err
	}
	fp.IndexBytes = n
	return fp, nil
}

func sizeOf(path string) (int64, error) {
	if path == "" {
		return 0, nil
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return info.Size(), nil
	}

	var total int64
	err = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		total += fi.Size()
		return nil
	})
	return total, err
}
