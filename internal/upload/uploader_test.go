package upload_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/gtcs8803/submit/internal/upload"
	mockuploader "github.com/gtcs8803/submit/internal/upload/mock"
)

// sha256 of "hello world"
const helloSum = "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"

func TestHashed(t *testing.T) {
	t.Run("Uploads", func(t *testing.T) {
		ctx := context.Background()

		ctrl := gomock.NewController(t)
		u := mockuploader.NewMockUploader(ctrl)

		reader := strings.NewReader("hello world")
		// partially consumed readers are rewound
		_, err := reader.Seek(5, io.SeekStart)
		require.NoError(t, err)

		u.EXPECT().Exists(gomock.Any(), helloSum).Return(false, nil).Times(1)
		u.EXPECT().Upload(gomock.Any(), gomock.Any(), int64(11), helloSum, "text/plain").Return(nil).Times(1)

		key, err := upload.Hashed(ctx, u, reader, 11, "text/plain")
		require.NoError(t, err)
		assert.Equal(t, helloSum, key)
	})

	t.Run("AlreadyExists", func(t *testing.T) {
		ctx := context.Background()

		ctrl := gomock.NewController(t)
		u := mockuploader.NewMockUploader(ctrl)

		u.EXPECT().Exists(gomock.Any(), helloSum).Return(true, nil).Times(1)

		key, err := upload.Hashed(ctx, u, strings.NewReader("hello world"), 11, "text/plain")
		require.NoError(t, err)
		assert.Equal(t, helloSum, key)
	})

	t.Run("ExistsError", func(t *testing.T) {
		ctx := context.Background()

		ctrl := gomock.NewController(t)
		u := mockuploader.NewMockUploader(ctrl)

		u.EXPECT().Exists(gomock.Any(), helloSum).Return(false, errors.New("expected error")).Times(1)

		_, err := upload.Hashed(ctx, u, strings.NewReader("hello world"), 11, "text/plain")
		require.Error(t, err)
	})
}

func TestHashedFile(t *testing.T) {
	t.Run("JSONContentType", func(t *testing.T) {
		ctx := context.Background()

		path := filepath.Join(t.TempDir(), "echo-result-2024-01-02-03-04-05.json")
		require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o600))

		ctrl := gomock.NewController(t)
		u := mockuploader.NewMockUploader(ctrl)

		u.EXPECT().Exists(gomock.Any(), helloSum).Return(false, nil).Times(1)
		u.EXPECT().Upload(gomock.Any(), gomock.Any(), int64(11), helloSum, "application/json").Return(nil).Times(1)

		key, err := upload.HashedFile(ctx, u, path)
		require.NoError(t, err)
		assert.Equal(t, helloSum, key)
	})

	t.Run("MissingFile", func(t *testing.T) {
		ctx := context.Background()

		ctrl := gomock.NewController(t)
		u := mockuploader.NewMockUploader(ctrl)

		_, err := upload.HashedFile(ctx, u, filepath.Join(t.TempDir(), "missing.json"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}
