// Package files stores task uploads on local disk and serves them by URL.
package files

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"agencyhub/internal/apperr"
)

// MaxUploadSize is the largest accepted file, in bytes.
const MaxUploadSize int64 = 10 << 20

// Upload describes a stored file.
type Upload struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	FileSize int64  `json:"fileSize"`
}

// LocalStore keeps uploads in a directory and addresses them under publicBase.
type LocalStore struct {
	dir        string
	publicBase string
	logger     *slog.Logger
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir, publicBase string, logger *slog.Logger) (*LocalStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	base := "/" + strings.Trim(publicBase, "/")
	return &LocalStore{dir: dir, publicBase: base, logger: logger}, nil
}

// Dir returns the directory files are written to.
func (s *LocalStore) Dir() string { return s.dir }

// PublicBase returns the URL prefix files are served under.
func (s *LocalStore) PublicBase() string { return s.publicBase }

// Save writes r under a fresh name keeping the extension of name. Content
// larger than MaxUploadSize is rejected and nothing is kept.
func (s *LocalStore) Save(name string, r io.Reader) (Upload, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return Upload{}, apperr.Invalid("file name is required")
	}

	stored := uuid.NewString() + strings.ToLower(filepath.Ext(name))
	target := filepath.Join(s.dir, stored)
	f, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return Upload{}, fmt.Errorf("create upload: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(r, MaxUploadSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > MaxUploadSize {
		err = apperr.Invalid("file exceeds %d MiB", MaxUploadSize>>20)
	}
	if err == nil && n == 0 {
		err = apperr.Invalid("file is empty")
	}
	if err != nil {
		_ = os.Remove(target)
		if errors.Is(err, apperr.ErrValidation) {
			return Upload{}, err
		}
		return Upload{}, fmt.Errorf("write upload: %w", err)
	}

	mtype, err := mimetype.DetectFile(target)
	if err != nil {
		_ = os.Remove(target)
		return Upload{}, fmt.Errorf("detect file type: %w", err)
	}

	s.logger.Info("file stored", slog.String("name", name), slog.String("file", stored), slog.Int64("size", n))
	return Upload{
		URL:      path.Join(s.publicBase, stored),
		FileName: name,
		FileType: mtype.String(),
		FileSize: n,
	}, nil
}

// Delete removes the file addressed by url. Unknown files are NotFound.
func (s *LocalStore) Delete(url string) error {
	stored, ok := strings.CutPrefix(url, s.publicBase+"/")
	if !ok {
		if i := strings.Index(url, s.publicBase+"/"); i >= 0 {
			stored, ok = url[i+len(s.publicBase)+1:], true
		}
	}
	if !ok || stored == "" || strings.ContainsAny(stored, `/\`) || stored == ".." {
		return apperr.Invalid("url does not address an upload")
	}
	if err := os.Remove(filepath.Join(s.dir, stored)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.NotFound("file")
		}
		return fmt.Errorf("delete upload: %w", err)
	}
	return nil
}
