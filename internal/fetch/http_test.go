package fetch_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/gtcs8803/submit/internal/fetch"
)

func TestHTTP(t *testing.T) {
	ctx := context.Background()

	e := echo.New()
	payload := `{"tests": [{"description": "Client connects", "output": {"passfail": "PASS"}}]}`
	e.GET("/results/abc.json", func(c echo.Context) error {
		return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, []byte(payload))
	})

	e.GET("/results/stream.json", func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		c.Response().WriteHeader(http.StatusOK)
		for range 3 {
			if _, err := c.Response().Write([]byte(payload)); err != nil {
				return err
			}
			c.Response().Flush()
		}
		return nil
	})

	server := httptest.NewServer(e)
	defer server.Close()

	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.Logger = nil

	t.Run("ValidPath", func(t *testing.T) {
		fetcher := fetch.NewHTTPFetcher(client, fetch.DefaultMaxSize)
		body, err := fetcher.Fetch(ctx, fmt.Sprintf("%s/results/abc.json", server.URL))
		require.NoError(t, err, "failed to fetch")
		defer body.Close()

		actual, err := io.ReadAll(body)
		require.NoError(t, err, "failed to read content")

		require.Equal(t, []byte(payload), actual, "wrong body fetched")
	})

	t.Run("InvalidPath", func(t *testing.T) {
		fetcher := fetch.NewHTTPFetcher(client, fetch.DefaultMaxSize)
		_, err := fetcher.Fetch(ctx, fmt.Sprintf("%s/results/missing.json", server.URL))
		require.ErrorContains(t, err, "invalid status code: 404")
	})

	t.Run("ExactlyMaxSize", func(t *testing.T) {
		fetcher := fetch.NewHTTPFetcher(client, int64(len(payload)))
		body, err := fetcher.Fetch(ctx, fmt.Sprintf("%s/results/abc.json", server.URL))
		require.NoError(t, err)
		defer body.Close()

		actual, err := io.ReadAll(body)
		require.NoError(t, err)
		require.Equal(t, []byte(payload), actual)
	})

	t.Run("AnnouncedTooLarge", func(t *testing.T) {
		fetcher := fetch.NewHTTPFetcher(client, 10)
		_, err := fetcher.Fetch(ctx, fmt.Sprintf("%s/results/abc.json", server.URL))
		require.ErrorIs(t, err, fetch.ErrTooLarge)
	})

	t.Run("StreamedTooLarge", func(t *testing.T) {
		fetcher := fetch.NewHTTPFetcher(client, 10)
		body, err := fetcher.Fetch(ctx, fmt.Sprintf("%s/results/stream.json", server.URL))
		require.NoError(t, err, "length is unknown up front")
		defer body.Close()

		_, err = io.ReadAll(body)
		require.ErrorIs(t, err, fetch.ErrTooLarge)
	})
}
