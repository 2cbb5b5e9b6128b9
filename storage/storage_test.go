package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("local", func(t *testing.T) {
		s, err := New(ctx, Config{Type: "local", BaseDir: t.TempDir()})
		require.NoError(t, err)
		assert.IsType(t, &LocalStorage{}, s)
	})

	t.Run("local requires base dir", func(t *testing.T) {
		_, err := New(ctx, Config{Type: "local"})
		assert.Error(t, err)
	})

	t.Run("s3 applies prefix and expiry", func(t *testing.T) {
		s, err := New(ctx, Config{Type: "S3", S3Bucket: "bucket", S3Region: "us-east-1", S3Prefix: "/shots/", PresignExpiry: time.Hour})
		require.NoError(t, err)
		s3s := s.(*S3Storage)
		assert.Equal(t, "shots", s3s.prefix)
		assert.Equal(t, time.Hour, s3s.presignExpiration)

		key, err := s3s.objectKey("runs/r1/a.png")
		require.NoError(t, err)
		assert.Equal(t, "shots/runs/r1/a.png", key)
	})

	t.Run("s3 requires bucket", func(t *testing.T) {
		_, err := New(ctx, Config{Type: "s3", S3Region: "us-east-1"})
		assert.Error(t, err)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := New(ctx, Config{Type: "gcs"})
		assert.ErrorContains(t, err, "unsupported storage type")
	})
}

func TestCleanKey(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{key: "runs/r1/a.png", want: "runs/r1/a.png"},
		{key: "runs//r1/./a.png", want: "runs/r1/a.png"},
		{key: "runs/r1/../r2/a.png", want: "runs/r2/a.png"},
		{key: "../a.png", wantErr: true},
		{key: "/a.png", wantErr: true},
		{key: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := cleanKey(tt.key)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsS3NotFoundError(t *testing.T) {
	assert.True(t, isS3NotFoundError(&smithy.GenericAPIError{Code: "NoSuchKey"}))
	assert.True(t, isS3NotFoundError(&smithy.GenericAPIError{Code: "NotFound"}))
	assert.False(t, isS3NotFoundError(&smithy.GenericAPIError{Code: "AccessDenied"}))
	assert.False(t, isS3NotFoundError(errors.New("boom")))
}

func TestArtifactStore_SaveScreenshot(t *testing.T) {
	ctx := context.Background()
	local, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	store := NewArtifactStore(local)
	store.now = func() time.Time { return time.Unix(0, 42) }

	ref, err := store.SaveScreenshot(ctx, "run-1", "SC001 failure!", []byte("png"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ref, "SC001_failure-42.png"), ref)

	data, err := os.ReadFile(ref)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}

type failingBlobs struct{ BlobStorage }

func (failingBlobs) Put(context.Context, string, string, io.Reader) error {
	return errors.New("disk full")
}

func TestArtifactStore_SaveScreenshotPropagatesPutError(t *testing.T) {
	_, err := NewArtifactStore(failingBlobs{}).SaveScreenshot(context.Background(), "r", "l", nil)
	assert.ErrorContains(t, err, "disk full")
}

func TestScreenshotKey(t *testing.T) {
	at := time.Unix(0, 7)
	assert.Equal(t, "runs/r-1/home-7.png", ScreenshotKey("r-1", "home", at))
	assert.Equal(t, "runs/adhoc/screenshot-7.png", ScreenshotKey("", "", at))
	assert.Equal(t, "runs/a_b/x-7.png", ScreenshotKey("a/b", "../x", at))
}
