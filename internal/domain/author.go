package domain

// Author is a person credited on one or more books.
type Author struct {
	Timestamps
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	SortName       string         `json:"sortName,omitempty"`
	ExternalSource ExternalSource `json:"externalSource,omitempty"`
	ExternalID     string         `json:"externalId,omitempty"`
}

// BookAuthor is an author as credited on a specific book.
// Lower positions display first; ties keep insertion order.
type BookAuthor struct {
	Author
	Role     string `json:"role,omitempty"`
	Position int    `json:"position"`
}
