package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"fashionStudio/internal/imagery"
)

// ErrUploaderDisabled indicates that uploads are not currently enabled.
var ErrUploaderDisabled = errors.New("media uploader disabled")

// UploadInput wraps the payload required for persisting a file.
type UploadInput struct {
	Filename    string
	ContentType string
	Body        io.Reader
	Size        int64
}

// UploadResult captures the canonical object key and its accessible URL.
type UploadResult struct {
	Key string
	URL string
}

// Uploader hides the backing implementation for storing files.
type Uploader interface {
	Upload(ctx context.Context, input UploadInput) (UploadResult, error)
}

type disabledUploader struct{}

func (disabledUploader) Upload(_ context.Context, _ UploadInput) (UploadResult, error) {
	return UploadResult{}, ErrUploaderDisabled
}

// Disabled returns an uploader that always signals disabled uploads.
func Disabled() Uploader {
	return disabledUploader{}
}

// UploadImage stores an encoded image under name, adding the extension that
// matches its MIME type.
func UploadImage(ctx context.Context, u Uploader, name string, img imagery.Image) (UploadResult, error) {
	return u.Upload(ctx, UploadInput{
		Filename:    name + Extension(img.MIME),
		ContentType: img.MIME,
		Body:        bytes.NewReader(img.Data),
		Size:        int64(len(img.Data)),
	})
}

// Extension returns the file extension for an image MIME type.
func Extension(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

// objectName turns filename into a collision-free object key. The directory and
// base name are kept so keys stay traceable; a fresh uuid is appended.
func objectName(filename string) string {
	clean := filepath.ToSlash(filename)
	ext := strings.ToLower(path.Ext(clean))
	if len(ext) > 10 {
		ext = ext[:10]
	}

	name := uuid.NewString() + ext
	if base := strings.TrimSuffix(path.Base(clean), path.Ext(clean)); base != "" && base != "." && base != ".." && base != "/" {
		name = base + "-" + name
	}
	if dir := sanitizeDir(path.Dir(clean)); dir != "" {
		name = dir + "/" + name
	}
	return name
}
