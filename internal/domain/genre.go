package domain

// Genre is a category identified by a unique slug.
type Genre struct {
	Timestamps
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// BookGenre is a genre as assigned to a specific book.
// Confidence is nil when the assignment carries no score.
type BookGenre struct {
	Genre
	Confidence *float64 `json:"confidence,omitempty"`
}
