package domain

import (
	"fmt"
	"strings"
	"time"
)

// Reaction is a user's mutually exclusive opinion of a book.
type Reaction string

// Reactions.
const (
	ReactionLike    Reaction = "LIKE"
	ReactionDislike Reaction = "DISLIKE"
)

// ParseReaction accepts a reaction name in any case.
func ParseReaction(s string) (Reaction, error) {
	switch r := Reaction(strings.ToUpper(strings.TrimSpace(s))); r {
	case ReactionLike, ReactionDislike:
		return r, nil
	}
	return "", fmt.Errorf("unknown reaction %q", s)
}

// ReadingStatus is a user's reading progress on a book.
type ReadingStatus string

// Reading statuses.
const (
	StatusWant    ReadingStatus = "WANT"
	StatusReading ReadingStatus = "READING"
	StatusRead    ReadingStatus = "READ"
	StatusDNF     ReadingStatus = "DNF"
)

// ParseReadingStatus accepts a status name in any case.
func ParseReadingStatus(s string) (ReadingStatus, error) {
	switch st := ReadingStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusWant, StatusReading, StatusRead, StatusDNF:
		return st, nil
	}
	return "", fmt.Errorf("unknown reading status %q", s)
}

// UserBookReaction records one user's reaction to one book.
// A repeat call for the same pair replaces the reaction.
type UserBookReaction struct {
	Timestamps
	UserID   string   `json:"userId"`
	BookID   string   `json:"bookId"`
	Reaction Reaction `json:"reaction"`
}

// UserBookStatus records one user's reading status for one book.
type UserBookStatus struct {
	Timestamps
	UserID     string        `json:"userId"`
	BookID     string        `json:"bookId"`
	Status     ReadingStatus `json:"status"`
	StartedAt  *time.Time    `json:"startedAt,omitempty"`
	FinishedAt *time.Time    `json:"finishedAt,omitempty"`
}
