package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/BookReviewGo/pkg/errors"
	"github.com/utafrali/BookReviewGo/pkg/httpclient"
	"github.com/utafrali/BookReviewGo/pkg/logger"
)

func volumesJSON(n int) string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"id":"vol-%d","volumeInfo":{"title":"Book %d","authors":["A"],"imageLinks":{"thumbnail":"http://books.example/t%d.jpg"}}}`, i, i, i)
	}
	return fmt.Sprintf(`{"totalItems":%d,"items":[%s]}`, n, strings.Join(items, ","))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	httpCfg := httpclient.DefaultConfig()
	httpCfg.MaxRetries = 0
	cbCfg := httpclient.DefaultCircuitBreakerConfig("catalog-test-" + t.Name())
	cb := httpclient.NewCircuitBreakerClient(httpclient.New(httpCfg), cbCfg, logger.Discard())

	return NewClient(cb, Config{BaseURL: srv.URL + "/", APIKey: "secret"}, logger.Discard())
}

func TestFetchByCategory_FirstPage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/volumes", r.URL.Path)
		assert.Equal(t, "subject:Science Fiction", r.URL.Query().Get("q"))
		assert.Equal(t, "10", r.URL.Query().Get("maxResults"))
		assert.Empty(t, r.URL.Query().Get("startIndex"))
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		_, _ = w.Write([]byte(volumesJSON(10)))
	})

	page, err := c.FetchByCategory(context.Background(), "Science Fiction", "")
	require.NoError(t, err)
	require.Len(t, page.Items, 10)
	assert.Equal(t, "10", page.NextPageToken)
	assert.Equal(t, "vol-0", page.Items[0].ID)
	assert.Equal(t, "Book 0", page.Items[0].Title)
	assert.Equal(t, "https://books.example/t0.jpg", page.Items[0].ThumbnailURL)
}

func TestFetchByCategory_NextPageAndLastPage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "20", r.URL.Query().Get("startIndex"))
		_, _ = w.Write([]byte(volumesJSON(4)))
	})

	page, err := c.FetchByCategory(context.Background(), "Poetry", "20")
	require.NoError(t, err)
	assert.Len(t, page.Items, 4)
	assert.Empty(t, page.NextPageToken)
}

func TestFetchByCategory_NoItems(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"totalItems":0}`))
	})

	page, err := c.FetchByCategory(context.Background(), "Poetry", "")
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Empty(t, page.NextPageToken)
}

func TestFetchByCategory_Validation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := c.FetchByCategory(context.Background(), " ", "")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	_, err = c.FetchByCategory(context.Background(), "Poetry", "abc")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestSearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "dune herbert", r.URL.Query().Get("q"))
		assert.Equal(t, "40", r.URL.Query().Get("maxResults"))
		assert.Equal(t, "40", r.URL.Query().Get("startIndex"))
		_, _ = w.Write([]byte(volumesJSON(40)))
	})

	page, err := c.Search(context.Background(), "  dune herbert ", 40)
	require.NoError(t, err)
	assert.Len(t, page.Items, 40)
	assert.Equal(t, "80", page.NextPageToken)
}

func TestSearch_Validation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := c.Search(context.Background(), "", 0)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	_, err = c.Search(context.Background(), "dune", -1)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestGetBook(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/volumes/zyTCAlFPjgYC", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"zyTCAlFPjgYC","volumeInfo":{"title":"The Google Story","pageCount":207,"averageRating":3.5,"ratingsCount":136,"categories":["Business"],"language":"en"}}`))
	})

	book, err := c.GetBook(context.Background(), "zyTCAlFPjgYC")
	require.NoError(t, err)
	assert.Equal(t, "The Google Story", book.Title)
	require.NotNil(t, book.PageCount)
	assert.Equal(t, 207, *book.PageCount)
	require.NotNil(t, book.AverageRating)
	assert.Equal(t, 3.5, *book.AverageRating)
	assert.Equal(t, []string{"Business"}, book.Categories)
}

func TestGetBook_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":404,"message":"The volume ID could not be found."}}`))
	})

	_, err := c.GetBook(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestUpstreamFailureIsTransient(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Search(context.Background(), "dune", 0)
	assert.True(t, apperrors.IsTransient(err))
	assert.Equal(t, http.StatusServiceUnavailable, apperrors.HTTPStatus(err))
}

func TestMalformedBodyIsInternal(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[`))
	})

	_, err := c.Search(context.Background(), "dune", 0)
	assert.True(t, errors.Is(err, apperrors.ErrInternal))
}

func TestUnreachableIsTransient(t *testing.T) {
	httpCfg := httpclient.DefaultConfig()
	httpCfg.MaxRetries = 0
	httpCfg.Timeout = time.Second
	cb := httpclient.NewCircuitBreakerClient(httpclient.New(httpCfg), httpclient.DefaultCircuitBreakerConfig("catalog-unreachable"), logger.Discard())
	c := NewClient(cb, Config{BaseURL: "http://127.0.0.1:1"}, logger.Discard())

	err := c.Ping(context.Background())
	assert.True(t, apperrors.IsTransient(err))
}
