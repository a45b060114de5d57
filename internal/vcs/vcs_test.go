package vcs_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gtcs8803/submit/internal/vcs"
)

func TestDescribe(t *testing.T) {
	t.Run("NotARepository", func(t *testing.T) {
		rev, err := vcs.Describe(t.TempDir())
		require.NoError(t, err)
		assert.Nil(t, rev)
	})

	t.Run("NoCommits", func(t *testing.T) {
		dir := t.TempDir()
		_, err := git.PlainInit(dir, false)
		require.NoError(t, err)

		rev, err := vcs.Describe(dir)
		require.NoError(t, err)
		assert.Nil(t, rev)
	})

	t.Run("CleanAndDirty", func(t *testing.T) {
		dir := t.TempDir()
		repo, err := git.PlainInit(dir, false)
		require.NoError(t, err)

		path := filepath.Join(dir, "echoclient.c")
		require.NoError(t, os.WriteFile(path, []byte("int main(void) { return 0; }\n"), 0o600))

		worktree, err := repo.Worktree()
		require.NoError(t, err)
		_, err = worktree.Add("echoclient.c")
		require.NoError(t, err)
		commit, err := worktree.Commit("initial", &git.CommitOptions{
			Author: &object.Signature{Name: "student", Email: "student@example.com", When: time.Now()},
		})
		require.NoError(t, err)

		sub := filepath.Join(dir, "echo")
		require.NoError(t, os.Mkdir(sub, 0o755))

		rev, err := vcs.Describe(sub)
		require.NoError(t, err, "should find repository from a subdirectory")
		require.NotNil(t, rev)
		assert.Equal(t, commit.String(), rev.Commit)
		assert.False(t, rev.Dirty)

		require.NoError(t, os.WriteFile(path, []byte("int main(void) { return 1; }\n"), 0o600))

		rev, err = vcs.Describe(dir)
		require.NoError(t, err)
		require.NotNil(t, rev)
		assert.True(t, rev.Dirty)
	})
}
