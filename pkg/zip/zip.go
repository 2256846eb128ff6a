package zip

import (
	"archive/zip"
	"fmt"
	"io"
	"time"
)

// Entry is one file in an export bundle.
type Entry struct {
	Name     string
	Modified time.Time
	Data     []byte
}

// Write streams entries into a zip archive on w. Entries with an empty name
// are skipped.
func Write(w io.Writer, entries []Entry) error {
	zw := zip.NewWriter(w)
	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		hdr := &zip.FileHeader{Name: e.Name, Method: zip.Store, Modified: e.Modified}
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("zip: create %s: %w", e.Name, err)
		}
		if _, err := fw.Write(e.Data); err != nil {
			return fmt.Errorf("zip: write %s: %w", e.Name, err)
		}
	}
	return zw.Close()
}
