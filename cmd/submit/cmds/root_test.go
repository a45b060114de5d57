package cmds_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gtcs8803/submit/cmd/submit/cmds"
	"github.com/gtcs8803/submit/internal/config"
	exiterrors "github.com/gtcs8803/submit/internal/exit_errors"
	"github.com/gtcs8803/submit/internal/types"
)

// Completes every submission on the first status read with an error report
func grader(t *testing.T) *httptest.Server {
	t.Helper()

	e := echo.New()
	e.POST("/v1/courses/:course/quizzes/:quiz/submissions/", func(c echo.Context) error {
		return c.JSON(http.StatusCreated, types.CreateSubmissionResponse{
			SubmissionID: "s1",
			Status:       types.SubmissionStatusPending,
		})
	})
	e.GET("/v1/submissions/:id/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, types.SubmissionStatusResponse{
			SubmissionID: c.Param("id"),
			Status:       types.SubmissionStatusComplete,
			ErrorReport:  []byte(`{"description": "boom"}`),
		})
	})

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, url string, distinct bool) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "submit.yaml")
	content := fmt.Sprintf(`credentials:
  api_key_id: id
  api_key_token: token
endpoints:
  local:
    gt: %s
exit_codes:
  distinct: %t
`, url, distinct)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := cmds.NewRootCmd(&out)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSubmit(t *testing.T) {
	srv := grader(t)

	quizDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(quizDir, "readme-student.md"), []byte("# readme\n"), 0o600))

	t.Run("ErrorReport", func(t *testing.T) {
		out, err := execute(t, "pr4", "readme",
			"--environment", "local",
			"--config", writeConfig(t, srv.URL, false),
			"--dir", quizDir,
		)
		require.NoError(t, err)

		assert.Regexp(t, regexp.MustCompile(
			`^Description: boom\nSomething went wrong\.  Please see the error report in `+
				`pr4_readme-error-report-\d{4}-\d{2}-\d{2}-\d{2}-\d{2}-\d{2}\.json\.\n$`,
		), out)

		matches, err := filepath.Glob(filepath.Join(quizDir, "pr4_readme-error-report-*.json"))
		require.NoError(t, err)
		assert.NotEmpty(t, matches)
	})

	t.Run("DistinctExitCode", func(t *testing.T) {
		_, err := execute(t, "pr4", "readme",
			"--environment", "local",
			"--config", writeConfig(t, srv.URL, true),
			"--dir", quizDir,
		)

		var ee exiterrors.ExitError
		require.True(t, errors.As(err, &ee), "should exit with a code")
		assert.Equal(t, exiterrors.ExitErrorReport, ee.Code)
		assert.NoError(t, ee.Err)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := execute(t, "pr4", "rpc",
			"--environment", "local",
			"--config", writeConfig(t, srv.URL, false),
			"--dir", quizDir,
		)
		require.Error(t, err)
	})

	t.Run("NoEndpoint", func(t *testing.T) {
		_, err := execute(t, "pr4", "readme",
			"--provider", "udacity",
			"--config", writeConfig(t, srv.URL, false),
			"--dir", quizDir,
		)
		require.ErrorIs(t, err, config.ErrNoEndpoint)
	})
}

func TestArgs(t *testing.T) {
	tests := map[string][]string{
		"UnknownQuiz":      {"pr1", "nope"},
		"MissingQuiz":      {"pr3"},
		"ExtraQuiz":        {"pr1", "echo", "transfer"},
		"SandboxTakesNone": {"pr2", "sandbox"},
		"BadProvider":      {"pr1", "echo", "--provider", "coursera"},
		"BadEnvironment":   {"pr1", "echo", "--environment", "qa"},
	}

	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := execute(t, args...)
			require.Error(t, err)
		})
	}
}

func TestToolHelp(t *testing.T) {
	for _, tool := range []string{"pr1", "pr2"} {
		t.Run(tool, func(t *testing.T) {
			cmd, _, err := cmds.NewRootCmd(&bytes.Buffer{}).Find([]string{tool})
			require.NoError(t, err)

			assert.Contains(t, cmd.Long, "endpoints.<environment>.<provider>")
			assert.Contains(t, cmd.Long, "production and staging URLs must be configured")
		})
	}
}
