package domain

import (
	"fmt"
	"strings"
)

// ExternalSource identifies the third-party catalog a record was imported from.
// The zero value means the record has no external identity.
type ExternalSource string

// Known external sources.
const (
	ExternalSourceUnspecified ExternalSource = ""
	ExternalSourceOpenLibrary ExternalSource = "OPEN_LIBRARY"
	ExternalSourceGoogleBooks ExternalSource = "GOOGLE_BOOKS"
	ExternalSourceOther       ExternalSource = "OTHER"
)

// IsSet reports whether s names a real source.
func (s ExternalSource) IsSet() bool {
	return s != ExternalSourceUnspecified
}

// IsValid reports whether s is unset or one of the known sources.
func (s ExternalSource) IsValid() bool {
	switch s {
	case ExternalSourceUnspecified, ExternalSourceOpenLibrary, ExternalSourceGoogleBooks, ExternalSourceOther:
		return true
	}
	return false
}

// ParseExternalSource accepts a source name in any case, or the numeric wire
// codes 0-3 used by older clients.
func ParseExternalSource(s string) (ExternalSource, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "0", "UNSPECIFIED", "EXTERNAL_SOURCE_UNSPECIFIED":
		return ExternalSourceUnspecified, nil
	case "1", string(ExternalSourceOpenLibrary):
		return ExternalSourceOpenLibrary, nil
	case "2", string(ExternalSourceGoogleBooks):
		return ExternalSourceGoogleBooks, nil
	case "3", string(ExternalSourceOther):
		return ExternalSourceOther, nil
	}
	return ExternalSourceUnspecified, fmt.Errorf("unknown external source %q", s)
}
