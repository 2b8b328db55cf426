// Package catalog reads books from the Google Books volumes API.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/utafrali/BookReviewGo/internal/domain"
	apperrors "github.com/utafrali/BookReviewGo/pkg/errors"
	"github.com/utafrali/BookReviewGo/pkg/httpclient"
	"github.com/utafrali/BookReviewGo/pkg/pagination"
)

// Page sizes.
const (
	CategoryPageSize = 10
	SearchPageSize   = 40
)

const upstream = "books catalog"

// Doer sends GET requests. *httpclient.CircuitBreakerClient satisfies it.
type Doer interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// Config configures the catalog client.
type Config struct {
	BaseURL string `env:"BASE_URL" envDefault:"https://www.googleapis.com/books/v1"`
	APIKey  string `env:"API_KEY"`
}

// Client is a read-only catalog client.
type Client struct {
	http    Doer
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

// NewClient creates a catalog client.
func NewClient(doer Doer, cfg Config, logger *slog.Logger) *Client {
	return &Client{
		http:    doer,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		logger:  logger,
	}
}

// FetchByCategory returns one page of books in category. pageToken is the
// start index returned by the previous page, or empty for the first page.
// NextPageToken is set only when a full page came back.
func (c *Client) FetchByCategory(ctx context.Context, category, pageToken string) (*domain.CatalogPage, error) {
	if strings.TrimSpace(category) == "" {
		return nil, apperrors.Validation("category", "is required")
	}
	window, err := pagination.FromToken(pageToken, CategoryPageSize)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("q", "subject:"+category)
	q.Set("maxResults", strconv.Itoa(window.Size))
	if window.Start > 0 {
		q.Set("startIndex", strconv.Itoa(window.Start))
	}

	items, err := c.volumes(ctx, q)
	if err != nil {
		return nil, err
	}
	return &domain.CatalogPage{Items: items, NextPageToken: window.NextToken(len(items))}, nil
}

// Search runs a free-text query starting at startIndex.
func (c *Client) Search(ctx context.Context, query string, startIndex int) (*domain.CatalogPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.Validation("q", "is required")
	}
	window, err := pagination.FromStart(startIndex, SearchPageSize)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("maxResults", strconv.Itoa(window.Size))
	q.Set("startIndex", strconv.Itoa(window.Start))

	items, err := c.volumes(ctx, q)
	if err != nil {
		return nil, err
	}
	return &domain.CatalogPage{Items: items, NextPageToken: window.NextToken(len(items))}, nil
}

// GetBook returns a single volume.
func (c *Client) GetBook(ctx context.Context, id string) (*domain.BookSnapshot, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.Validation("bookId", "is required")
	}

	var v volume
	if err := c.get(ctx, c.url("/volumes/"+url.PathEscape(id), url.Values{}), &v); err != nil {
		return nil, err
	}
	book := v.snapshot()
	return &book, nil
}

// Ping checks that the catalog answers.
func (c *Client) Ping(ctx context.Context) error {
	q := url.Values{}
	q.Set("q", "subject:fiction")
	q.Set("maxResults", "1")
	_, err := c.volumes(ctx, q)
	return err
}

func (c *Client) volumes(ctx context.Context, q url.Values) ([]domain.BookSnapshot, error) {
	var resp volumesResponse
	if err := c.get(ctx, c.url("/volumes", q), &resp); err != nil {
		return nil, err
	}

	books := make([]domain.BookSnapshot, 0, len(resp.Items))
	for _, v := range resp.Items {
		if v.ID == "" {
			continue
		}
		books = append(books, v.snapshot())
	}
	return books, nil
}

func (c *Client) url(path string, q url.Values) string {
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	u := c.baseURL + path
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

func (c *Client) get(ctx context.Context, u string, dst any) error {
	resp, err := c.http.Get(ctx, u)
	if err != nil {
		c.logger.WarnContext(ctx, "catalog request failed", slog.String("error", err.Error()))
		return httpclient.MapTransportError(err, upstream)
	}
	if resp.StatusCode != http.StatusOK {
		return httpclient.ParseResponseError(resp, upstream)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return apperrors.Internal(fmt.Errorf("decode %s response: %w", upstream, err))
	}
	return nil
}
