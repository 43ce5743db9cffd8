package openlibrary

// Doc is one result of the search.json endpoint. Only the fields the
// catalog maps are decoded.
type Doc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	Subtitle         string   `json:"subtitle"`
	FirstPublishYear int      `json:"first_publish_year"`
	CoverID          int64    `json:"cover_i"`
	AuthorName       []string `json:"author_name"`
	AuthorKey        []string `json:"author_key"`
	Language         []string `json:"language"`
}

type searchResponse struct {
	NumFound int   `json:"numFound"`
	Docs     []Doc `json:"docs"`
}
