package catalog

import (
	"strings"

	"github.com/utafrali/BookReviewGo/internal/domain"
)

type volumesResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []volume `json:"items"`
}

type volume struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title         string   `json:"title"`
		Authors       []string `json:"authors"`
		Publisher     string   `json:"publisher"`
		PublishedDate string   `json:"publishedDate"`
		Description   string   `json:"description"`
		PageCount     *int     `json:"pageCount"`
		Categories    []string `json:"categories"`
		AverageRating *float64 `json:"averageRating"`
		RatingsCount  *int     `json:"ratingsCount"`
		Language      string   `json:"language"`
		PreviewLink   string   `json:"previewLink"`
		ImageLinks    struct {
			SmallThumbnail string `json:"smallThumbnail"`
			Thumbnail      string `json:"thumbnail"`
		} `json:"imageLinks"`
	} `json:"volumeInfo"`
}

// snapshot maps a volume to a BookSnapshot. Thumbnails are upgraded to
// https; the catalog still returns http links for many volumes.
func (v volume) snapshot() domain.BookSnapshot {
	info := v.VolumeInfo
	thumb := info.ImageLinks.Thumbnail
	if thumb == "" {
		thumb = info.ImageLinks.SmallThumbnail
	}
	if rest, ok := strings.CutPrefix(thumb, "http://"); ok {
		thumb = "https://" + rest
	}

	return domain.BookSnapshot{
		ID:            v.ID,
		Title:         info.Title,
		Authors:       info.Authors,
		ThumbnailURL:  thumb,
		Description:   info.Description,
		AverageRating: info.AverageRating,
		RatingsCount:  info.RatingsCount,
		Publisher:     info.Publisher,
		PublishedDate: info.PublishedDate,
		PageCount:     info.PageCount,
		Categories:    info.Categories,
		PreviewLink:   info.PreviewLink,
		Language:      info.Language,
	}
}
