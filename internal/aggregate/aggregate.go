// Package aggregate derives ratings summaries and ordered review lists from
// a set of reviews. Every function is pure and safe for concurrent use.
package aggregate

import (
	"cmp"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/utafrali/BookReviewGo/internal/domain"
	apperrors "github.com/utafrali/BookReviewGo/pkg/errors"
)

// Order is a review list ordering.
type Order string

const (
	OrderNewest     Order = "newest"
	OrderOldest     Order = "oldest"
	OrderRatingDesc Order = "rating_desc"
	OrderRatingAsc  Order = "rating_asc"
)

// DefaultOrder is used when the caller does not ask for one.
const DefaultOrder = OrderNewest

// Orders lists every supported ordering.
var Orders = []Order{OrderNewest, OrderOldest, OrderRatingDesc, OrderRatingAsc}

// ParseOrder maps a query value to an Order. The empty string yields
// DefaultOrder.
func ParseOrder(s string) (Order, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultOrder, nil
	}
	for _, o := range Orders {
		if string(o) == s {
			return o, nil
		}
	}
	return "", apperrors.Validation("sort", "must be one of newest, oldest, rating_desc, rating_asc")
}

// Summarize computes the aggregate rating of reviews. With no reviews the
// average is 0 and the display string is domain.NoRatingDisplay.
func Summarize(reviews []domain.Review) domain.AggregateRating {
	agg := domain.AggregateRating{
		Breakdown: make(map[int]int, domain.MaxRating),
		Display:   domain.NoRatingDisplay,
	}
	for star := domain.MinRating; star <= domain.MaxRating; star++ {
		agg.Breakdown[star] = 0
	}
	if len(reviews) == 0 {
		return agg
	}

	sum := 0
	for i := range reviews {
		sum += reviews[i].Rating
		agg.Breakdown[reviews[i].Rating]++
	}
	agg.Count = len(reviews)
	agg.Average = round1(float64(sum) / float64(agg.Count))
	agg.Display = strconv.FormatFloat(agg.Average, 'f', 1, 64)
	return agg
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Sort returns a copy of reviews in the given order. The input is never
// modified. Equal keys fall back to created_at then id so the result does
// not depend on input order.
func Sort(reviews []domain.Review, order Order) []domain.Review {
	out := slices.Clone(reviews)
	if out == nil {
		out = []domain.Review{}
	}
	slices.SortStableFunc(out, comparator(order))
	return out
}

// View builds the snapshot a book screen renders.
func View(bookID string, reviews []domain.Review, order Order) domain.ReviewView {
	return domain.ReviewView{
		BookID:  bookID,
		Order:   string(order),
		Summary: Summarize(reviews),
		Reviews: Sort(reviews, order),
	}
}

func comparator(order Order) func(a, b domain.Review) int {
	switch order {
	case OrderOldest:
		return func(a, b domain.Review) int {
			if c := compareDated(a, b, false); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		}
	case OrderRatingDesc:
		return func(a, b domain.Review) int {
			if c := cmp.Compare(b.Rating, a.Rating); c != 0 {
				return c
			}
			return newestThenID(a, b)
		}
	case OrderRatingAsc:
		return func(a, b domain.Review) int {
			if c := cmp.Compare(a.Rating, b.Rating); c != 0 {
				return c
			}
			return newestThenID(a, b)
		}
	default:
		return newestThenID
	}
}

func newestThenID(a, b domain.Review) int {
	if c := compareDated(a, b, true); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// compareDated orders by created_at; reviews without a timestamp go last
// in either direction.
func compareDated(a, b domain.Review, desc bool) int {
	az, bz := a.CreatedAt.IsZero(), b.CreatedAt.IsZero()
	switch {
	case az && bz:
		return 0
	case az:
		return 1
	case bz:
		return -1
	}
	if desc {
		return b.CreatedAt.Compare(a.CreatedAt)
	}
	return a.CreatedAt.Compare(b.CreatedAt)
}
