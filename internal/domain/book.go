package domain

// BookSnapshot is a catalog item as returned by the external books catalog.
// This service never mutates catalog data.
type BookSnapshot struct {
	ID            string   `json:"id" validate:"required,max=64"`
	Title         string   `json:"title" validate:"required,max=500"`
	Authors       []string `json:"authors,omitempty"`
	ThumbnailURL  string   `json:"thumbnail_url,omitempty"`
	Description   string   `json:"description,omitempty"`
	AverageRating *float64 `json:"average_rating,omitempty"`
	RatingsCount  *int     `json:"ratings_count,omitempty"`
	Publisher     string   `json:"publisher,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"`
	PageCount     *int     `json:"page_count,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	PreviewLink   string   `json:"preview_link,omitempty"`
	Language      string   `json:"language,omitempty"`
}

// CatalogPage is one page of catalog results. NextPageToken is empty when
// there are no more pages.
type CatalogPage struct {
	Items         []BookSnapshot `json:"items"`
	NextPageToken string         `json:"next_page_token,omitempty"`
}
