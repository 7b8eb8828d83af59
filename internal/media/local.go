package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalUploader stores files on the local filesystem and serves them under
// URLPrefix (mounted as /media by the server).
type LocalUploader struct {
	BaseDir   string
	URLPrefix string
}

// NewLocalUploader constructs an uploader that writes to the provided directory.
// If baseDir is empty, a fashionstudio directory under os.TempDir() is used.
func NewLocalUploader(baseDir, urlPrefix string) (*LocalUploader, error) {
	dir := baseDir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "fashionstudio-media")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create local media dir: %w", err)
	}
	prefix := strings.TrimSuffix(urlPrefix, "/")
	if prefix == "" {
		prefix = "/media"
	}
	return &LocalUploader{BaseDir: dir, URLPrefix: prefix}, nil
}

// Upload writes the content to BaseDir and returns its key relative to BaseDir.
func (l *LocalUploader) Upload(_ context.Context, input UploadInput) (UploadResult, error) {
	if input.Body == nil {
		return UploadResult{}, fmt.Errorf("upload body is required")
	}

	key := objectName(input.Filename)
	target := filepath.Join(l.BaseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return UploadResult{}, fmt.Errorf("create media subdir: %w", err)
	}
	file, err := os.Create(target)
	if err != nil {
		return UploadResult{}, fmt.Errorf("create media file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, input.Body); err != nil {
		os.Remove(target)
		return UploadResult{}, fmt.Errorf("write media file: %w", err)
	}

	return UploadResult{
		Key: key,
		URL: l.URLPrefix + "/" + key,
	}, nil
}

// sanitizeDir keeps only plain path segments so uploads cannot escape BaseDir.
func sanitizeDir(dir string) string {
	var parts []string
	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "/")
}
