package domain

// Session identifies the caller of a controller operation. It is built from
// a validated token at the edge and passed explicitly to every call.
type Session struct {
	UserID string
	Email  string
}

// Authenticated reports whether the session carries a user.
func (s Session) Authenticated() bool {
	return s.UserID != ""
}
