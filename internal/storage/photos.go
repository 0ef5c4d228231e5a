package storage

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const maxNameAttempts = 10

// PhotoStore persists uploaded contact pictures on the local filesystem.
// Files live under <root>/<ownerID>/<random>.<ext> and are served statically
// under /content/photos.
type PhotoStore struct {
	root    string
	baseURL string
}

// NewPhotoStore creates a photo store rooted at dir
func NewPhotoStore(dir, baseURL string) *PhotoStore {
	return &PhotoStore{
		root:    dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Root returns the directory the store writes into
func (s *PhotoStore) Root() string {
	return s.root
}

// Save stores the uploaded picture bytes for a user and returns the
// generated filename. The extension is derived from the declared MIME type;
// the random name is regenerated on the off chance it already exists.
func (s *PhotoStore) Save(ownerID string, data io.Reader, mimeType string) (string, error) {
	ext, err := extensionFor(mimeType)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(s.root, ownerID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create photo directory: %w", err)
	}

	for i := 0; i < maxNameAttempts; i++ {
		name := uuid.New().String() + ext
		f, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create photo file: %w", err)
		}

		if _, err := io.Copy(f, data); err != nil {
			f.Close()
			os.Remove(f.Name())
			return "", fmt.Errorf("failed to write photo file: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("failed to close photo file: %w", err)
		}
		return name, nil
	}

	return "", fmt.Errorf("failed to generate unique photo name after %d attempts", maxNameAttempts)
}

// Delete removes a stored picture. Deleting a file that is already gone is
// not an error.
func (s *PhotoStore) Delete(ownerID, filename string) error {
	// filename comes from our own records, but never allow it to escape
	// the owner's directory
	if filename != filepath.Base(filename) {
		return fmt.Errorf("invalid photo filename %q", filename)
	}

	err := os.Remove(filepath.Join(s.root, ownerID, filename))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete photo file: %w", err)
	}
	return nil
}

// URL returns the public URL of a stored picture
func (s *PhotoStore) URL(ownerID, filename string) string {
	return fmt.Sprintf("%s/content/photos/%s/%s", s.baseURL, ownerID, url.PathEscape(filename))
}

// extensionFor maps a declared MIME type to a file extension
func extensionFor(mimeType string) (string, error) {
	switch mimeType {
	case "image/jpeg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	}

	exts, err := mime.ExtensionsByType(mimeType)
	if err != nil || len(exts) == 0 {
		return "", fmt.Errorf("unsupported picture type %q", mimeType)
	}
	return exts[0], nil
}
