package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gtcs8803/submit/internal/fetch"
	"github.com/gtcs8803/submit/internal/logger"
	"github.com/gtcs8803/submit/internal/types"
	"github.com/gtcs8803/submit/internal/validator"
)

// Ensure HTTPHandle implements Handle and Identified interfaces.
var (
	_ Handle     = (*HTTPHandle)(nil)
	_ Identified = (*HTTPHandle)(nil)
)

// Caps API error bodies echoed into error messages
const maxErrorBody = 4 << 10

// Where and how to reach the grading service
type Service struct {
	BaseURL     string
	APIKeyID    string
	APIKeyToken string
	Client      *retryablehttp.Client
	// Downloads results handed out by URL. Defaults to an HTTPFetcher sharing Client.
	Fetcher fetch.Fetcher
}

// Handle backed by the grading service's HTTP API
type HTTPHandle struct {
	svc       Service
	id        string
	manifest  *types.Manifest
	last      *types.SubmissionStatusResponse
	validator validator.CustomValidator
	// result downloaded from last.ResultURL
	fetched json.RawMessage
}

// Retrying client for the grading service. Only connection failures are retried; any response is final.
func NewHTTPClient(timeout time.Duration) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.HTTPClient.Timeout = timeout
	client.RetryMax = 3
	client.Logger = logger.Logger
	client.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err == nil {
			return false, nil
		}

		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}

	return client
}

// Uploads the file set and returns a handle on the new submission
func New(ctx context.Context, opts Options, svc Service) (*HTTPHandle, error) {
	ctx, span := tracer.Start(ctx, "submission.New", trace.WithAttributes(
		attribute.String("course", opts.CourseID),
		attribute.String("quiz", opts.QuizID),
		attribute.String("environment", opts.Environment.String()),
		attribute.String("provider", opts.Provider.String()),
	))
	defer span.End()

	h := &HTTPHandle{svc: svc, validator: validator.Create()}
	if h.svc.Client == nil {
		h.svc.Client = NewHTTPClient(30 * time.Second)
	}
	if h.svc.Fetcher == nil {
		h.svc.Fetcher = fetch.NewHTTPFetcher(h.svc.Client, fetch.DefaultMaxSize)
	}

	if err := h.validator.Validate(&opts); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid options")
		return nil, fmt.Errorf("invalid submission options: %w", err)
	}

	manifest, err := BuildManifest(ctx, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to build manifest")
		return nil, err
	}
	h.manifest = manifest

	body, contentType, err := encodeUpload(opts, manifest)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to encode upload")
		return nil, err
	}

	endpoint, err := url.JoinPath(
		svc.BaseURL,
		"v1", "courses", opts.CourseID, "quizzes", opts.QuizID, "submissions",
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid base url")
		return nil, fmt.Errorf("invalid grading service url: %w", err)
	}

	req, err := h.newRequest(ctx, http.MethodPost, endpoint+"/", body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to construct request")
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Idempotency-Key", uuid.NewString())

	created := types.CreateSubmissionResponse{}
	if err := h.do(req, &created); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create submission")
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}
	h.id = created.SubmissionID

	span.SetAttributes(attribute.String("submission_id", h.id))
	logger.Logger.InfoContext(ctx, "created submission",
		"submission_id", h.id,
		"quiz", opts.QuizID,
		"files", len(manifest.Files),
	)

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "created submission")
	return h, nil
}

// Multipart body with one `files` part per file in order followed by the `manifest` part
func encodeUpload(opts Options, manifest *types.Manifest) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, name := range opts.Filenames {
		part, err := mw.CreateFormFile("files", name)
		if err != nil {
			return nil, "", err
		}

		f, err := os.Open(filepath.Join(opts.Dir, name))
		if err != nil {
			return nil, "", err
		}
		_, err = io.Copy(part, f)
		f.Close()
		if err != nil {
			return nil, "", fmt.Errorf("failed to read %s: %w", name, err)
		}
	}

	manifestJSON, err := json.Marshal(manifest)
	if err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("manifest", string(manifestJSON)); err != nil {
		return nil, "", err
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}

	return buf.Bytes(), mw.FormDataContentType(), nil
}

func (h *HTTPHandle) newRequest(
	ctx context.Context,
	method, endpoint string,
	body []byte,
) (*retryablehttp.Request, error) {
	var rawBody any
	if body != nil {
		rawBody = body
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, endpoint, rawBody)
	if err != nil {
		return nil, fmt.Errorf("failed to construct request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(h.svc.APIKeyID, h.svc.APIKeyToken)

	return req, nil
}

// Sends the request and decodes a 2xx JSON body into out, validating it
func (h *HTTPHandle) do(req *retryablehttp.Request, out any) error {
	resp, err := h.svc.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}

	if err := h.validator.Validate(out); err != nil {
		return fmt.Errorf("invalid response body: %w", err)
	}

	return nil
}

func (h *HTTPHandle) ID() string {
	return h.id
}

func (h *HTTPHandle) Manifest() *types.Manifest {
	return h.manifest
}

func (h *HTTPHandle) Poll(ctx context.Context) (bool, error) {
	ctx, span := tracer.Start(ctx, "HTTPHandle.Poll", trace.WithAttributes(
		attribute.String("submission_id", h.id),
	))
	defer span.End()

	endpoint, err := url.JoinPath(h.svc.BaseURL, "v1", "submissions", h.id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid base url")
		return false, err
	}

	req, err := h.newRequest(ctx, http.MethodGet, endpoint+"/", nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to construct request")
		return false, err
	}

	status := types.SubmissionStatusResponse{}
	if err := h.do(req, &status); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get submission status")
		return false, fmt.Errorf("failed to get submission status: %w", err)
	}
	h.last = &status

	complete := status.Status == types.SubmissionStatusComplete
	span.SetAttributes(attribute.Bool("complete", complete))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "polled submission")
	return complete, nil
}

func (h *HTTPHandle) complete() bool {
	return h.last != nil && h.last.Status == types.SubmissionStatusComplete
}

func (h *HTTPHandle) Result(ctx context.Context) (json.RawMessage, error) {
	if !h.complete() {
		return nil, ErrNotComplete
	}

	inline := h.last.Result
	if len(inline) > 0 && !bytes.Equal(inline, []byte("null")) {
		return inline, nil
	}
	if h.last.ResultURL == nil || *h.last.ResultURL == "" {
		return inline, nil
	}

	if h.fetched != nil {
		return h.fetched, nil
	}

	ctx, span := tracer.Start(ctx, "HTTPHandle.Result", trace.WithAttributes(
		attribute.String("submission_id", h.id),
	))
	defer span.End()

	body, err := h.svc.Fetcher.Fetch(ctx, *h.last.ResultURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch result")
		return nil, fmt.Errorf("failed to fetch result: %w", err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read result")
		return nil, fmt.Errorf("failed to read result: %w", err)
	}

	if !json.Valid(raw) {
		err = fmt.Errorf("result at %s is not valid JSON", *h.last.ResultURL)
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid result")
		return nil, err
	}
	h.fetched = raw

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "fetched result")
	return h.fetched, nil
}

func (h *HTTPHandle) ErrorReport(_ context.Context) (json.RawMessage, error) {
	if !h.complete() {
		return nil, ErrNotComplete
	}

	return h.last.ErrorReport, nil
}
