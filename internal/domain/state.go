package domain

// ReviewState is the lifecycle position of one user's review of one book.
type ReviewState string

const (
	ReviewStateNone      ReviewState = "no_review"
	ReviewStateDrafting  ReviewState = "drafting"
	ReviewStateSubmitted ReviewState = "submitted"
	ReviewStateEditing   ReviewState = "editing"
	ReviewStateDeleted   ReviewState = "deleted"
)

var reviewTransitions = map[ReviewState][]ReviewState{
	ReviewStateNone:      {ReviewStateDrafting},
	ReviewStateDrafting:  {ReviewStateSubmitted, ReviewStateNone},
	ReviewStateSubmitted: {ReviewStateEditing, ReviewStateDeleted},
	ReviewStateEditing:   {ReviewStateSubmitted},
	ReviewStateDeleted:   {ReviewStateDrafting},
}

// CanTransition reports whether a review may move from one state to another.
func CanTransition(from, to ReviewState) bool {
	for _, next := range reviewTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ReviewStateOf returns the persisted state for a possibly-nil review.
func ReviewStateOf(r *Review) ReviewState {
	if r == nil {
		return ReviewStateNone
	}
	return ReviewStateSubmitted
}
