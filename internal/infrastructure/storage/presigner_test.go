package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/wardenlink/pkg/config"
)

func TestNewDisabled(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{Provider: "none"}, nil)
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = New(context.Background(), config.StorageConfig{Provider: "ftp"}, nil)
	assert.ErrorContains(t, err, "unsupported storage provider")
}

func TestS3PresignPut(t *testing.T) {
	p, err := NewS3Presigner(config.StorageConfig{
		S3Bucket:   "wardens",
		S3Region:   "us-east-1",
		S3Endpoint: "http://localhost:9000",
		S3KeyID:    "minio",
		S3Secret:   "minio-secret",
	})
	require.NoError(t, err)

	url, err := p.PresignPut(context.Background(), "attachments/u1/abc.jpg", "image/jpeg", 10*time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:9000/wardens/attachments/u1/abc.jpg?"), url)
	assert.Contains(t, url, "X-Amz-Expires=600")
	assert.Equal(t, "http://localhost:9000/wardens/attachments/u1/abc.jpg", p.PublicURL("attachments/u1/abc.jpg"))
}

func TestS3PublicURLDefaults(t *testing.T) {
	p, err := NewS3Presigner(config.StorageConfig{S3Bucket: "wardens", S3Region: "ap-south-1"})
	require.NoError(t, err)
	assert.Equal(t, "https://wardens.s3.ap-south-1.amazonaws.com/a/b.png", p.PublicURL("a/b.png"))

	p, err = NewS3Presigner(config.StorageConfig{S3Bucket: "wardens", PublicURL: "https://cdn.example/"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/a/b.png", p.PublicURL("/a/b.png"))

	_, err = NewS3Presigner(config.StorageConfig{})
	assert.Error(t, err)
}

func TestGCSRequiresCredentials(t *testing.T) {
	_, err := NewGCSPresigner(context.Background(), config.StorageConfig{GCSBucket: "b"})
	assert.ErrorContains(t, err, "credentials file")
}
