package genre

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Science Fiction", "science-fiction"},
		{"LitRPG", "litrpg"},
		{"Sci-Fi/Fantasy", "sci-fi-fantasy"},
		{"  Noir  ", "noir"},
		{"Romance Épique", "romance-epique"},
		{"---", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestResolveSlug(t *testing.T) {
	assert.Equal(t, "scifi", ResolveSlug(" SciFi ", "Science Fiction"))
	assert.Equal(t, "science-fiction", ResolveSlug("", "Science Fiction"))
	assert.Empty(t, ResolveSlug("", ""))
}
