package application

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dfryer1193/mediasweep/media/domain"
)

const (
	thumbnailIDKey      = "_thumbnail_id"
	productGalleryKey   = "_product_image_gallery"
	attachedFileKey     = "_wp_attached_file"
	jetEngineGalleryKey = "_jet_engine_gallery"
	elementorDataKey    = "_elementor_data"
	yithWishlistKey     = "_yith_wcwl_image"
)

// Predicate decides whether one consumer references an attachment
type Predicate interface {
	Name() string
	Check(ctx context.Context, att domain.Attachment) (bool, error)
}

// GalleryMatch selects how ID-list custom fields are compared
type GalleryMatch string

const (
	// GalleryMatchSubstring treats the ID as referenced when it appears anywhere in the field,
	// so "12" also matches a gallery holding "123"
	GalleryMatchSubstring GalleryMatch = "substring"
	// GalleryMatchToken requires the ID to appear as a whole list entry
	GalleryMatchToken GalleryMatch = "token"
)

func ParseGalleryMatch(s string) (GalleryMatch, error) {
	switch GalleryMatch(strings.ToLower(s)) {
	case "", GalleryMatchSubstring:
		return GalleryMatchSubstring, nil
	case GalleryMatchToken:
		return GalleryMatchToken, nil
	}
	return "", fmt.Errorf("unknown gallery match mode %q", s)
}

type PredicateOptions struct {
	GalleryMatch GalleryMatch
}

// NewPredicates builds the ordered predicate list. Predicates for optional plugins are only
// included when caps reports the plugin as active.
func NewPredicates(store domain.ContentStore, caps domain.Capabilities, opts PredicateOptions) []Predicate {
	predicates := []Predicate{
		featuredImage(store),
		idListField("product-gallery", store, productGalleryKey, []string{domain.PostTypeProduct}, opts.GalleryMatch),
		attachedFile(store),
		contentURL("content-url", store, nil),
	}

	if caps.JetEngine {
		predicates = append(predicates, idListField("jet-engine-gallery", store, jetEngineGalleryKey, nil, opts.GalleryMatch))
	}

	if caps.Elementor {
		predicates = append(predicates,
			contentURL("elementor-library", store, []string{domain.PostTypeElementorLibrary}),
			elementorData(store),
		)
	}

	if caps.YITHWishlist {
		predicates = append(predicates, idListField("yith-wishlist", store, yithWishlistKey, []string{domain.PostTypeProduct}, opts.GalleryMatch))
	}

	return predicates
}

// queryPredicate runs one or more existence queries built from the attachment.
// It matches when any query matches; an empty query list means there is nothing to look for.
type queryPredicate struct {
	name    string
	store   domain.ContentStore
	queries func(att domain.Attachment) []domain.Query
}

func (p *queryPredicate) Name() string {
	return p.name
}

func (p *queryPredicate) Check(ctx context.Context, att domain.Attachment) (bool, error) {
	for _, q := range p.queries(att) {
		found, err := p.store.Exists(ctx, q)
		if err != nil {
			return false, err
		}
		if found {
			return true, nil
		}
	}
	return false, nil
}

// featuredImage matches products whose featured image is the attachment
func featuredImage(store domain.ContentStore) Predicate {
	return &queryPredicate{
		name:  "featured-image",
		store: store,
		queries: func(att domain.Attachment) []domain.Query {
			return []domain.Query{{
				PostTypes: []string{domain.PostTypeProduct},
				AnyStatus: true,
				Meta: &domain.MetaClause{
					Key:     thumbnailIDKey,
					Value:   strconv.FormatInt(att.ID, 10),
					Compare: domain.CompareEqual,
				},
			}}
		},
	}
}

// idListField matches items whose custom field holds a list of attachment IDs containing this one
func idListField(name string, store domain.ContentStore, key string, postTypes []string, mode GalleryMatch) Predicate {
	return &queryPredicate{
		name:  name,
		store: store,
		queries: func(att domain.Attachment) []domain.Query {
			id := strconv.FormatInt(att.ID, 10)
			q := domain.Query{
				PostTypes: postTypes,
				AnyStatus: true,
				Meta: &domain.MetaClause{
					Key:     key,
					Value:   id,
					Compare: domain.CompareLike,
				},
			}
			if mode == GalleryMatchToken {
				q.Accept = func(v string) bool {
					return containsIDToken(v, id)
				}
			}
			return []domain.Query{q}
		},
	}
}

// attachedFile matches other items pointing at the same stored file
func attachedFile(store domain.ContentStore) Predicate {
	return &queryPredicate{
		name:  "attached-file",
		store: store,
		queries: func(att domain.Attachment) []domain.Query {
			if att.File == "" {
				return nil
			}
			return []domain.Query{{
				AnyStatus: true,
				Meta: &domain.MetaClause{
					Key:     attachedFileKey,
					Value:   att.File,
					Compare: domain.CompareLike,
				},
				ExcludeIDs: []int64{att.ID},
			}}
		},
	}
}

// contentURL matches items whose searchable text contains the attachment URL
func contentURL(name string, store domain.ContentStore, postTypes []string) Predicate {
	return &queryPredicate{
		name:  name,
		store: store,
		queries: func(att domain.Attachment) []domain.Query {
			if att.URL == "" {
				return nil
			}
			return []domain.Query{{
				PostTypes: postTypes,
				AnyStatus: true,
				Search:    att.URL,
			}}
		},
	}
}

// elementorData matches Elementor builder JSON that embeds the attachment URL,
// either JSON-escaped ("https:\/\/...") or as written
func elementorData(store domain.ContentStore) Predicate {
	return &queryPredicate{
		name:  "elementor-data",
		store: store,
		queries: func(att domain.Attachment) []domain.Query {
			if att.URL == "" {
				return nil
			}
			query := func(value string) domain.Query {
				return domain.Query{
					AnyStatus: true,
					Meta: &domain.MetaClause{
						Key:     elementorDataKey,
						Value:   value,
						Compare: domain.CompareLike,
					},
				}
			}
			return []domain.Query{
				query(strings.ReplaceAll(att.URL, "/", `\/`)),
				query(att.URL),
			}
		},
	}
}
