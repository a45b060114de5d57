package submission_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gtcs8803/submit/internal/hash"
	"github.com/gtcs8803/submit/internal/submission"
)

func TestBuildManifest(t *testing.T) {
	ctx := context.Background()

	t.Run("DescribesFiles", func(t *testing.T) {
		dir := writeFiles(t, map[string]string{
			"minifyjpeg.x":      "program MINIFYJPEG_PROG { version V1 { int PING(void) = 1; } = 1; } = 0x31230000;\n",
			"readme-student.md": "# Project README\n\nSome notes.\n",
		})

		manifest, err := submission.BuildManifest(ctx, submission.Options{
			CourseID:  "cs8803-02",
			QuizID:    "pr4_rpc",
			Filenames: []string{"minifyjpeg.x", "readme-student.md"},
			Dir:       dir,
		})
		require.NoError(t, err)

		require.Len(t, manifest.Files, 2)
		assert.Equal(t, "minifyjpeg.x", manifest.Files[0].Name)
		assert.Equal(t, "RPC", manifest.Files[0].Language)
		assert.Equal(t, "Markdown", manifest.Files[1].Language)
		assert.Equal(t, hash.Buffer([]byte("# Project README\n\nSome notes.\n")), manifest.Files[1].SHA256)
		assert.Equal(t, int64(len("# Project README\n\nSome notes.\n")), manifest.Files[1].Size)
		assert.Nil(t, manifest.Commit, "temp dirs are not repositories")
	})

	t.Run("MissingFiles", func(t *testing.T) {
		_, err := submission.BuildManifest(ctx, submission.Options{
			CourseID:  "cs8803-02",
			QuizID:    "pr2_sandbox",
			Filenames: []string{"pr2_sandbox.c"},
			Dir:       t.TempDir(),
		})
		require.ErrorIs(t, err, submission.ErrMissingFile)
	})
}
