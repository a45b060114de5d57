package archive_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/gtcs8803/submit/internal/archive"
	"github.com/gtcs8803/submit/internal/audit"
	mockuploader "github.com/gtcs8803/submit/internal/upload/mock"
)

func TestArchive(t *testing.T) {
	ctx := context.Background()
	auditContext := audit.Context{CourseID: "cs8803-02", QuizID: "pr4_rpc"}

	path := filepath.Join(t.TempDir(), "pr4_rpc-result-2024-01-02-03-04-05.json")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o600))
	sum := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"

	t.Run("Uploads", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		u := mockuploader.NewMockUploader(ctrl)

		u.EXPECT().Exists(gomock.Any(), sum).Return(false, nil)
		u.EXPECT().Upload(gomock.Any(), gomock.Any(), int64(11), sum, "application/json").Return(nil)
		u.EXPECT().Location(gomock.Any()).Return("http://localhost:9000/artifacts", nil)

		var buf bytes.Buffer
		objectName, err := archive.New(u, audit.New(&buf)).Archive(ctx, auditContext, path)
		require.NoError(t, err)

		assert.Equal(t, sum, objectName)
		assert.Contains(t, buf.String(), `"event_type":"artifact_archived"`)
		assert.Contains(t, buf.String(), sum)
	})

	t.Run("UploadFails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		u := mockuploader.NewMockUploader(ctrl)

		u.EXPECT().Exists(gomock.Any(), sum).Return(false, errors.New("expected error"))

		var buf bytes.Buffer
		_, err := archive.New(u, audit.New(&buf)).Archive(ctx, auditContext, path)
		require.Error(t, err)
		assert.Empty(t, buf.String(), "nothing archived so nothing audited")
	})

	t.Run("NilTrail", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		u := mockuploader.NewMockUploader(ctrl)

		u.EXPECT().Exists(gomock.Any(), sum).Return(true, nil)
		u.EXPECT().Location(gomock.Any()).Return("bucket", nil)

		_, err := archive.New(u, nil).Archive(ctx, auditContext, path)
		require.NoError(t, err)
	})
}
