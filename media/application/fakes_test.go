package application

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/dfryer1193/mediasweep/media/domain"
)

const testUploadsURL = "https://shop.example/wp-content/uploads"

var errStoreDown = errors.New("store unavailable")

type fakeItem struct {
	ID      int64
	Type    string
	Status  string
	Content string
	Meta    map[string]string
}

// fakeStore is an in-memory content store with WordPress-like query semantics
type fakeStore struct {
	mu      sync.Mutex
	items   []fakeItem
	nextID  int64
	queries int

	// failMetaKey makes every query on that meta key fail
	failMetaKey string
	// listGate, when set, blocks ListImageAttachments until it is closed
	listGate chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1}
}

func (s *fakeStore) add(item fakeItem) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == 0 {
		item.ID = s.nextID
	}
	if item.ID >= s.nextID {
		s.nextID = item.ID + 1
	}
	if item.Status == "" {
		item.Status = "publish"
	}
	if item.Type == "" {
		item.Type = "post"
	}
	if item.Meta == nil {
		item.Meta = map[string]string{}
	}
	s.items = append(s.items, item)
	return item.ID
}

func (s *fakeStore) addImage(id int64, file string) int64 {
	return s.add(fakeItem{
		ID:     id,
		Type:   domain.PostTypeAttachment,
		Status: "inherit",
		Meta:   map[string]string{attachedFileKey: file},
	})
}

func (s *fakeStore) remove(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, item := range s.items {
		if item.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

func (s *fakeStore) queryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries
}

func (s *fakeStore) Exists(_ context.Context, q domain.Query) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++

	if q.Meta != nil && q.Meta.Key == s.failMetaKey {
		return false, errStoreDown
	}

	for _, item := range s.items {
		if len(q.PostTypes) > 0 && !slices.Contains(q.PostTypes, item.Type) {
			continue
		}
		if len(q.PostTypes) == 0 && item.Type == "revision" {
			continue
		}
		if q.AnyStatus && item.Status == "auto-draft" {
			continue
		}
		if !q.AnyStatus && !slices.Contains([]string{"publish", "private", "draft", "pending", "future"}, item.Status) {
			continue
		}
		if slices.Contains(q.ExcludeIDs, item.ID) {
			continue
		}
		if q.Search != "" && !strings.Contains(item.Content, q.Search) {
			continue
		}

		if q.Meta != nil {
			value, ok := item.Meta[q.Meta.Key]
			if !ok {
				continue
			}
			if q.Meta.Compare == domain.CompareEqual && value != q.Meta.Value {
				continue
			}
			if q.Meta.Compare == domain.CompareLike && !strings.Contains(value, q.Meta.Value) {
				continue
			}
			if q.Accept != nil && !q.Accept(value) {
				continue
			}
		}

		return true, nil
	}

	return false, nil
}

func (s *fakeStore) Meta(_ context.Context, postID int64, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.items {
		if item.ID == postID {
			return item.Meta[key], nil
		}
	}
	return "", nil
}

func (s *fakeStore) images() []domain.Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()

	var atts []domain.Attachment
	for _, item := range s.items {
		if item.Type != domain.PostTypeAttachment || item.Status != "inherit" {
			continue
		}
		file := item.Meta[attachedFileKey]
		atts = append(atts, domain.Attachment{
			ID:       item.ID,
			MIMEType: "image/jpeg",
			File:     file,
			URL:      testUploadsURL + "/" + file,
		})
	}
	slices.SortFunc(atts, func(a, b domain.Attachment) int {
		return int(a.ID - b.ID)
	})
	return atts
}

func (s *fakeStore) CountImageAttachments(_ context.Context) (int, error) {
	return len(s.images()), nil
}

func (s *fakeStore) ListImageAttachments(ctx context.Context, afterID int64, limit int) ([]domain.Attachment, error) {
	if s.listGate != nil {
		select {
		case <-s.listGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	var page []domain.Attachment
	for _, att := range s.images() {
		if att.ID <= afterID {
			continue
		}
		page = append(page, att)
		if limit > 0 && len(page) == limit {
			break
		}
	}
	return page, nil
}

// fakeRepository deletes attachments from a fakeStore
type fakeRepository struct {
	store   *fakeStore
	failIDs map[int64]bool
}

var errDeleteFailed = errors.New("unlink failed")

func (r *fakeRepository) DeleteAttachment(_ context.Context, att domain.Attachment) error {
	if r.failIDs[att.ID] {
		return errDeleteFailed
	}
	if !r.store.remove(att.ID) {
		return errors.New("attachment not found")
	}
	return nil
}

// stubPredicate returns canned results and counts calls
type stubPredicate struct {
	name    string
	results []bool
	err     error
	calls   int
}

func (p *stubPredicate) Name() string {
	return p.name
}

func (p *stubPredicate) Check(_ context.Context, _ domain.Attachment) (bool, error) {
	p.calls++
	if p.err != nil {
		return false, p.err
	}
	if len(p.results) == 0 {
		return false, nil
	}
	i := p.calls - 1
	if i >= len(p.results) {
		i = len(p.results) - 1
	}
	return p.results[i], nil
}
