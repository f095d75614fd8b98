// Package files stores task attachments on local disk. References handed
// back to callers are bare filenames, never paths, so a stored reference can
// not escape the upload directory.
package files

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/taskhub/backend/usecase"
)

var whitespacePattern = regexp.MustCompile(`\s+`)

type Store struct {
	dir string
}

var _ usecase.FileStore = (*Store)(nil)

// NewStore creates the upload directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

// Save writes the upload under a timestamp-prefixed, dash-normalized,
// lowercased name and returns that name as the reference.
func (s *Store) Save(name string, r io.Reader) (string, error) {
	base := filepath.Base(name)
	base = whitespacePattern.ReplaceAllString(base, "-")
	ref := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), strings.ToLower(base))

	f, err := os.Create(filepath.Join(s.dir, ref))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return ref, nil
}

// Remove deletes a stored attachment by reference. Removing a reference
// that no longer exists is not an error.
func (s *Store) Remove(ref string) error {
	if ref == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.Base(ref)))
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// Path returns the on-disk location for a reference.
func (s *Store) Path(ref string) string {
	return filepath.Join(s.dir, filepath.Base(ref))
}
