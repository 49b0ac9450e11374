// Package archive bundles multi-file uploads into a single zip container.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
)

// Entry is a single named payload to include in an archive.
type Entry struct {
	Name   string
	Reader io.Reader
}

// Build writes a zip archive containing the given entries, in order, to w.
// Entry names and bytes are preserved exactly. Entries that share a name are
// all written; extraction tools resolve the duplicate with the last entry,
// matching standard archive semantics.
func Build(w io.Writer, entries []Entry) error {
	zw := zip.NewWriter(w)

	for _, entry := range entries {
		ew, err := zw.Create(entry.Name)
		if err != nil {
			zw.Close()
			return fmt.Errorf("failed to add %s to archive: %w", entry.Name, err)
		}
		if _, err := io.Copy(ew, entry.Reader); err != nil {
			zw.Close()
			return fmt.Errorf("failed to write %s to archive: %w", entry.Name, err)
		}
	}

	return zw.Close()
}
