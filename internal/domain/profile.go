package domain

import (
	"strings"
	"time"
)

// Profile bounds.
const (
	MaxFullNameLength = 100
	AnonymousUsername = "Anonymous"
)

// Profile is the user's public identity inside the app.
type Profile struct {
	UserID             string    `json:"user_id"`
	Email              string    `json:"email"`
	FullName           string    `json:"full_name"`
	AvatarID           string    `json:"avatar_id,omitempty"`
	SelectedCategories []string  `json:"selected_categories"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// DisplayName is the name snapshotted onto reviews: the full name, then the
// local part of the email, then AnonymousUsername.
func (p *Profile) DisplayName() string {
	if p == nil {
		return AnonymousUsername
	}
	if name := strings.TrimSpace(p.FullName); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(p.Email, "@"); ok && local != "" {
		return local
	}
	return AnonymousUsername
}

// Avatar is one of the fixed profile pictures a user can pick.
type Avatar struct {
	ID    string `json:"id"`
	Asset string `json:"asset"`
}

// Avatars is the closed set of selectable avatars, in display order.
var Avatars = []Avatar{
	{ID: "lion", Asset: "lion.png"},
	{ID: "owl", Asset: "owl.png"},
	{ID: "koala", Asset: "koala.png"},
	{ID: "sealion", Asset: "sea-lion.png"},
	{ID: "dog", Asset: "dog.png"},
	{ID: "boy", Asset: "boy.png"},
	{ID: "man0", Asset: "man.png"},
	{ID: "man1", Asset: "man(1).png"},
	{ID: "man2", Asset: "man(2).png"},
	{ID: "man3", Asset: "man(3).png"},
	{ID: "man4", Asset: "man(4).png"},
	{ID: "man5", Asset: "man(5).png"},
	{ID: "woman0", Asset: "woman.png"},
	{ID: "woman1", Asset: "woman(1).png"},
	{ID: "woman2", Asset: "woman(2).png"},
	{ID: "meerkat", Asset: "meerkat.png"},
	{ID: "chicken", Asset: "chicken.png"},
	{ID: "bear", Asset: "bear.png"},
	{ID: "cat", Asset: "cat.png"},
}

// DefaultAvatarAsset is rendered when a profile has no avatar.
const DefaultAvatarAsset = "default-avatar.png"

// LookupAvatar returns the avatar with the given id.
func LookupAvatar(id string) (Avatar, bool) {
	for _, a := range Avatars {
		if a.ID == id {
			return a, true
		}
	}
	return Avatar{}, false
}

// Categories is the closed list of catalog subjects a user can follow.
var Categories = []string{
	"Fiction", "Science", "Fairytales", "Adventure", "Fantasy", "Mystery",
	"Biography", "History", "Romance", "Thriller", "Horror", "Science Fiction",
	"Poetry", "Drama", "Self-Help", "Cookbooks", "Travel", "Children's Literature",
	"Young Adult", "Art", "Philosophy", "Psychology", "Business", "Technology",
	"Health and Fitness", "Memoir", "Crime", "Politics", "Education",
	"Religion and Spirituality", "Humor", "Graphic Novels", "Environmental",
	"Cultural Studies",
}

// IsCategory reports whether name is in Categories, ignoring case.
func IsCategory(name string) bool {
	for _, c := range Categories {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}
