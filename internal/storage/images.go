package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"example.com/restaurant-pos/config"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Upload validation errors
var (
	ErrUnsupportedType = errors.New("only image files are allowed (jpeg, jpg, png, gif, webp)")
	ErrTooLarge        = errors.New("image exceeds the maximum upload size")
	ErrNotManaged      = errors.New("image path is not managed by this store")
)

var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Upload is an image received from a client
type Upload struct {
	Filename string
	Content  io.Reader
}

// LocalImageStore keeps item images on local disk and hands out public paths
type LocalImageStore struct {
	dir      string
	prefix   string
	maxBytes int64
	now      func() time.Time
}

// NewLocalImageStore creates the upload directory if needed
func NewLocalImageStore(cfg config.StorageConfig) (*LocalImageStore, error) {
	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create upload directory")
	}

	prefix := strings.TrimRight(cfg.PublicPrefix, "/")
	if prefix == "" {
		prefix = "/uploads"
	}

	return &LocalImageStore{
		dir:      cfg.UploadDir,
		prefix:   prefix,
		maxBytes: cfg.MaxImageBytes,
		now:      time.Now,
	}, nil
}

// Dir is the directory served under PublicPrefix
func (s *LocalImageStore) Dir() string {
	return s.dir
}

// PublicPrefix is the URL path images are served from
func (s *LocalImageStore) PublicPrefix() string {
	return s.prefix
}

// Save validates an upload by extension, size and sniffed content, writes it
// under a generated name and returns its public path.
func (s *LocalImageStore) Save(_ context.Context, upload Upload) (string, error) {
	ext := strings.ToLower(filepath.Ext(upload.Filename))
	if !allowedExtensions[ext] {
		return "", ErrUnsupportedType
	}

	data, err := io.ReadAll(io.LimitReader(upload.Content, s.maxBytes+1))
	if err != nil {
		return "", errors.Wrap(err, "failed to read upload")
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrTooLarge
	}
	if !strings.HasPrefix(mimetype.Detect(data).String(), "image/") {
		return "", ErrUnsupportedType
	}

	name := fmt.Sprintf("item-%d-%d%s", s.now().UnixMilli(), uuid.New().ID(), ext)
	dst := filepath.Join(s.dir, name)

	file, err := os.Create(dst)
	if err != nil {
		return "", errors.Wrap(err, "failed to create image file")
	}

	if _, err := io.Copy(file, bytes.NewReader(data)); err != nil {
		file.Close()
		os.Remove(dst)
		return "", errors.Wrap(err, "failed to write image file")
	}
	if err := file.Close(); err != nil {
		os.Remove(dst)
		return "", errors.Wrap(err, "failed to close image file")
	}

	log.Debug().Str("file", name).Int("bytes", len(data)).Msg("image stored")
	return path.Join(s.prefix, name), nil
}

// Remove deletes the image behind a public path. Missing files are not an error.
func (s *LocalImageStore) Remove(_ context.Context, publicPath string) error {
	name := strings.TrimPrefix(publicPath, s.prefix+"/")
	if name == publicPath || name == "" || strings.ContainsAny(name, `/\`) {
		return ErrNotManaged
	}

	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove image file")
	}
	return nil
}
