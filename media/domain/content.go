package domain

import "context"

const (
	PostTypeProduct          = "product"
	PostTypeAttachment       = "attachment"
	PostTypeElementorLibrary = "elementor_library"
)

type Compare int

const (
	CompareEqual Compare = iota
	CompareLike
)

// MetaClause filters content items by a custom field
type MetaClause struct {
	Key     string
	Value   string
	Compare Compare
}

// Query describes an existence check against the content store.
//
// Empty PostTypes matches every content kind except revisions. AnyStatus widens the default
// status set (published, private, draft, pending, scheduled) to every status but auto-drafts.
type Query struct {
	PostTypes  []string
	AnyStatus  bool
	Meta       *MetaClause
	Search     string
	ExcludeIDs []int64

	// Accept, when set, is applied to the meta value of each candidate row;
	// the query matches on the first accepted row.
	Accept func(metaValue string) bool
}

type ContentStore interface {
	// Exists reports whether at least one content item matches q
	Exists(ctx context.Context, q Query) (bool, error)

	// Meta returns a single custom field value, or "" when it is not set
	Meta(ctx context.Context, postID int64, key string) (string, error)
}
