package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fashionStudio/internal/imagery"
)

func TestLocalUploaderWritesUnderSessionDir(t *testing.T) {
	dir := t.TempDir()
	u, err := NewLocalUploader(dir, "/media/")
	require.NoError(t, err)

	res, err := UploadImage(context.Background(), u, "sess-1/front", imagery.Image{MIME: "image/png", Data: []byte("png-bytes")})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.Key, "sess-1/front-"), res.Key)
	assert.True(t, strings.HasSuffix(res.Key, ".png"), res.Key)
	assert.Equal(t, "/media/"+res.Key, res.URL)

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(res.Key)))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestLocalUploaderRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	u, err := NewLocalUploader(dir, "")
	require.NoError(t, err)

	res, err := u.Upload(context.Background(), UploadInput{Filename: "../../etc/passwd.txt", Body: strings.NewReader("x")})
	require.NoError(t, err)
	assert.Equal(t, "etc", strings.Split(res.Key, "/")[0])
	assert.FileExists(t, filepath.Join(dir, filepath.FromSlash(res.Key)))
}

func TestObjectNameKeepsBaseName(t *testing.T) {
	first := objectName("sess-3/results/2-abc.png")
	second := objectName("sess-3/results/2-abc.png")
	assert.True(t, strings.HasPrefix(first, "sess-3/results/2-abc-"), first)
	assert.True(t, strings.HasSuffix(first, ".png"), first)
	assert.NotEqual(t, first, second)

	bare := objectName(".png")
	assert.NotContains(t, bare, "/")
	assert.True(t, strings.HasSuffix(bare, ".png"), bare)
	assert.False(t, strings.HasPrefix(bare, "-"), bare)
}

func TestDisabledUploader(t *testing.T) {
	_, err := Disabled().Upload(context.Background(), UploadInput{})
	assert.ErrorIs(t, err, ErrUploaderDisabled)
}

func TestS3KeysAndURLs(t *testing.T) {
	u := &s3Uploader{bucket: "looks", region: "eu-north-1", prefix: "studio"}
	key := u.buildKey("sess-9/back.png")
	assert.True(t, strings.HasPrefix(key, "studio/sess-9/back-"), key)
	assert.True(t, strings.HasSuffix(key, ".png"), key)
	assert.Equal(t, "https://looks.s3.eu-north-1.amazonaws.com/"+key, u.objectURL(key))

	assert.Equal(t, "http://minio:9000/looks", publicBaseURL(Config{Bucket: "looks", Endpoint: "http://minio:9000/", ForcePathStyle: true}))
	assert.Equal(t, "https://cdn.example.com", publicBaseURL(Config{PublicURL: "https://cdn.example.com/"}))
}

func TestNewUploaderDisabledWithoutBucket(t *testing.T) {
	u, err := NewUploader(context.Background(), Config{})
	require.NoError(t, err)
	_, err = u.Upload(context.Background(), UploadInput{})
	assert.ErrorIs(t, err, ErrUploaderDisabled)
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".png", Extension("image/png"))
	assert.Equal(t, ".jpg", Extension("image/jpeg"))
	assert.Equal(t, ".webp", Extension("IMAGE/WEBP"))
	assert.Equal(t, ".bin", Extension("application/x-unknown-thing"))
}
