// Package pagination handles offset page tokens for upstreams that page by
// start index.
package pagination

import (
	"strconv"

	apperrors "github.com/utafrali/BookReviewGo/pkg/errors"
)

// Window is one page request.
type Window struct {
	Start int
	Size  int
}

// FromToken starts a window at the offset encoded in token. An empty token
// is the first page.
func FromToken(token string, size int) (Window, error) {
	if token == "" {
		return Window{Size: size}, nil
	}
	n, err := strconv.Atoi(token)
	if err != nil || n < 0 {
		return Window{}, apperrors.Validation("page_token", "is invalid")
	}
	return Window{Start: n, Size: size}, nil
}

// FromStart starts a window at an explicit offset.
func FromStart(start, size int) (Window, error) {
	if start < 0 {
		return Window{}, apperrors.Validation("start_index", "must be a non-negative integer")
	}
	return Window{Start: start, Size: size}, nil
}

// NextToken returns the token of the following page, or "" when got items
// did not fill this one.
func (w Window) NextToken(got int) string {
	if got < w.Size {
		return ""
	}
	return strconv.Itoa(w.Start + w.Size)
}
