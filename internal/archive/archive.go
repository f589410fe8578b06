// Package archive turns raw ZIP bytes into a filtered sequence of image
// entries for batch analysis.
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrBadArchive signals that the payload is not a well-formed ZIP
// container. This is the only extraction failure that aborts a batch.
var ErrBadArchive = errors.New("not a valid zip archive")

var imageExtensions = []string{".jpg", ".jpeg", ".png"}

// Reader lists and opens the image entries of a ZIP payload.
type Reader struct {
	zr *zip.Reader
}

// NewReader opens the archive container.
func NewReader(data []byte) (*Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArchive, err)
	}
	return &Reader{zr: zr}, nil
}

// ImageEntries returns the names of entries with an image extension,
// case-insensitively, in archive order. Directory entries are excluded.
func (r *Reader) ImageEntries() []string {
	var names []string
	for _, f := range r.zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if isImageName(f.Name) {
			names = append(names, f.Name)
		}
	}
	return names
}

// ReadEntry returns the content of one archive entry.
func (r *Reader) ReadEntry(name string) ([]byte, error) {
	f, err := r.zr.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open archive entry %s: %w", name, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read archive entry %s: %w", name, err)
	}
	return data, nil
}

func isImageName(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
