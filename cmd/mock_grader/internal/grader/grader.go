package grader

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/gtcs8803/submit/internal/types"
	"github.com/gtcs8803/submit/internal/validator"
)

const (
	APIKeyID    = "api_key_id"
	APIKeyToken = "api_key_token" // #nosec
)

var notFoundError = echo.NewHTTPError(http.StatusNotFound, types.StringError("not found"))

func badRequest(msg string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, types.StringError(msg))
}

type submission struct {
	quizID string
	// status reads left before the submission completes
	pending     int
	result      json.RawMessage
	errorReport json.RawMessage
}

// In-memory grading service
type Grader struct {
	mu          sync.Mutex
	submissions map[string]*submission
	// status reads answered with pending before a submission completes
	pendingPolls int
	// results larger than this are handed out by URL
	inlineLimit int
}

func New(pendingPolls, inlineLimit int) *Grader {
	return &Grader{
		submissions:  map[string]*submission{},
		pendingPolls: pendingPolls,
		inlineLimit:  inlineLimit,
	}
}

func BasicAuthValidator(id, token string, _ echo.Context) (bool, error) {
	return id == APIKeyID && token == APIKeyToken, nil
}

func (g *Grader) BuildEcho(logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	validate := validator.Create()
	e.Validator = &validate

	e.Pre(middleware.AddTrailingSlash())

	e.Use(
		otelecho.Middleware("mock-grader"),
		slogecho.NewWithConfig(logger, slogecho.Config{}),
	)

	e.GET("/health/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	v1 := e.Group("/v1", middleware.BasicAuth(BasicAuthValidator))
	v1.POST("/courses/:course_id/quizzes/:quiz_id/submissions/", g.create)
	v1.GET("/submissions/:submission_id/", g.status)

	// stands in for a presigned storage url, so no auth
	e.GET("/results/:submission_id/", g.resultDownload)

	return e
}

type uploadedFile struct {
	name string
	size int64
}

func (g *Grader) create(c echo.Context) error {
	quizID := c.Param("quiz_id")

	form, err := c.MultipartForm()
	if err != nil {
		return badRequest("expected a multipart upload")
	}

	manifest := types.Manifest{}
	if err := json.Unmarshal([]byte(c.FormValue("manifest")), &manifest); err != nil {
		return badRequest("invalid manifest")
	}
	if err := c.Validate(&manifest); err != nil {
		return c.JSON(http.StatusBadRequest, types.ValidationError(err))
	}

	files := make([]uploadedFile, 0, len(form.File["files"]))
	for _, fh := range form.File["files"] {
		f, err := fh.Open()
		if err != nil {
			return err
		}
		n, err := io.Copy(io.Discard, f)
		f.Close()
		if err != nil {
			return err
		}
		files = append(files, uploadedFile{name: fh.Filename, size: n})
	}
	if len(files) != len(manifest.Files) {
		return badRequest(fmt.Sprintf("manifest lists %d files, %d uploaded", len(manifest.Files), len(files)))
	}

	s, err := grade(quizID, files)
	if err != nil {
		return err
	}
	s.pending = g.pendingPolls

	id := uuid.NewString()
	g.mu.Lock()
	g.submissions[id] = s
	g.mu.Unlock()

	return c.JSON(http.StatusCreated, types.CreateSubmissionResponse{
		SubmissionID: id,
		Status:       types.SubmissionStatusPending,
	})
}

// Outcome is picked by quiz key
func grade(quizID string, files []uploadedFile) (*submission, error) {
	s := &submission{quizID: quizID}

	var err error
	switch {
	case strings.HasSuffix(quizID, "_unknown"):
	case strings.HasSuffix(quizID, "_readme"):
		s.result = json.RawMessage("{}")
		s.errorReport, err = json.Marshal(map[string]any{
			"description": "readme could not be graded",
			"traceback":   "Traceback (most recent call last):\n  grader: readme-student.md: missing sections",
		})
	case quizID == "pr2_sandbox":
		s.result, err = json.Marshal(types.ResultPayload{Tests: []types.TestRecord{{
			Description: "Sandbox program runs to completion",
			Output:      types.TestOutput{PassFail: "passed"},
		}}})
	default:
		result := types.ResultPayload{Tests: make([]types.TestRecord, 0, len(files))}
		for _, f := range files {
			passfail := "passed"
			if f.size == 0 {
				passfail = "failed"
			}
			result.Tests = append(result.Tests, types.TestRecord{
				Description: fmt.Sprintf("%s is present and non-empty", f.name),
				Output:      types.TestOutput{PassFail: passfail},
			})
		}
		s.result, err = json.Marshal(result)
	}
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (g *Grader) lookup(id string) (*submission, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.submissions[id]
	return s, ok
}

func (g *Grader) status(c echo.Context) error {
	id := c.Param("submission_id")

	g.mu.Lock()
	s, ok := g.submissions[id]
	pending := ok && s.pending > 0
	if pending {
		s.pending--
	}
	g.mu.Unlock()

	if !ok {
		return notFoundError
	}

	response := types.SubmissionStatusResponse{SubmissionID: id, Status: types.SubmissionStatusPending}
	if pending {
		return c.JSON(http.StatusOK, response)
	}

	response.Status = types.SubmissionStatusComplete
	response.ErrorReport = s.errorReport
	if len(s.result) > g.inlineLimit {
		resultURL := fmt.Sprintf("%s://%s/results/%s/", c.Scheme(), c.Request().Host, id)
		response.ResultURL = &resultURL
	} else {
		response.Result = s.result
	}

	return c.JSON(http.StatusOK, response)
}

func (g *Grader) resultDownload(c echo.Context) error {
	s, ok := g.lookup(c.Param("submission_id"))
	if !ok || s.result == nil {
		return notFoundError
	}

	return c.JSONBlob(http.StatusOK, s.result)
}
