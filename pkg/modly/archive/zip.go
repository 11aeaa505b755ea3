package archive

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// ZipProvider lists zip-format containers (.zip, .ts4script). Other
// extensions yield ErrNotAnArchive.
type ZipProvider struct{}

// NewZipProvider returns a ZipProvider.
func NewZipProvider() *ZipProvider {
	return &ZipProvider{}
}

// List reads the central directory of the zip at path.
func (p *ZipProvider) List(path string) ([]Entry, error) {
	if !zipExtensions[strings.ToLower(filepath.Ext(path))] {
		return nil, ErrNotAnArchive
	}

	r, err := zip.OpenReader(path)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return nil, &ReadError{Path: path, Err: errors.Join(ErrNotAnArchive, err)}
		}
		return nil, &ReadError{Path: path, Err: err}
	}
	defer r.Close()

	entries := make([]Entry, 0, len(r.File))
	for _, f := range r.File {
		entries = append(entries, Entry{
			Name:     f.Name,
			Modified: f.Modified,
			Size:     int64(f.UncompressedSize64),
			IsDir:    f.FileInfo().IsDir(),
		})
	}
	return entries, nil
}

var _ Provider = (*ZipProvider)(nil)
