package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/notekeeper/apiserver/config"
	"github.com/notekeeper/apiserver/internal/services"
)

const (
	formFieldImage = "image"
	// formOverhead covers multipart boundaries and text fields around the image.
	formOverhead = 1 << 20
)

var errUploadTooLarge = errors.New("upload too large")

// Uploader stages multipart files on disk under unique names and reads them
// back. The staged copy is always removed before returning.
type Uploader struct {
	dir      string
	maxBytes int64
}

func NewUploader(cfg config.UploadConfig) *Uploader {
	dir := cfg.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	return &Uploader{dir: dir, maxBytes: cfg.MaxBytes}
}

// BodyLimit is the largest request body that can carry a maximum-size image.
func (u *Uploader) BodyLimit() int64 {
	if u.maxBytes <= 0 {
		return 0
	}
	return u.maxBytes + formOverhead
}

// Read returns the contents of the named multipart file, or nil when the
// request carries none. parseFields must have run first.
func (u *Uploader) Read(r *http.Request, field string) ([]byte, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, nil
	}
	header := r.MultipartForm.File[field][0]
	if u.maxBytes > 0 && header.Size > u.maxBytes {
		return nil, errUploadTooLarge
	}

	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(u.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(filepath.Base(header.Filename)))
	path := filepath.Join(u.dir, "upload-"+uuid.NewString()+ext)

	dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}
	defer os.Remove(path)

	var reader io.Reader = src
	if u.maxBytes > 0 {
		reader = io.LimitReader(src, u.maxBytes+1)
	}
	written, err := io.Copy(dst, reader)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}
	if u.maxBytes > 0 && written > u.maxBytes {
		return nil, errUploadTooLarge
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}

func uploadError(err error) error {
	if errors.Is(err, errUploadTooLarge) {
		return &services.ValidationError{Fields: []services.FieldError{{Field: formFieldImage, Msg: "Image is too large"}}}
	}
	return err
}
