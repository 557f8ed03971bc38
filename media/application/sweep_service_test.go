package application

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/dfryer1193/mediasweep/media/domain"
)

func newTestService(store *fakeStore, failIDs map[int64]bool) *SweepService {
	collector := newTestCollector(store, domain.Capabilities{}, CollectorConfig{})
	return NewSweepService(collector, &fakeRepository{store: store, failIDs: failIDs})
}

func TestSweepService_ScanOnlyDeletesNothing(t *testing.T) {
	store := newFakeStore()
	store.addImage(1, "a.jpg")

	result, report, err := newTestService(store, nil).Sweep(context.Background(), false)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if len(result.Unused) != 1 {
		t.Errorf("Unused = %v, want 1 image", result.UnusedIDs())
	}
	if len(report.Deleted) != 0 || len(report.Failed) != 0 {
		t.Errorf("report = %+v, want empty", report)
	}
	if len(store.images()) != 1 {
		t.Error("scan without delete removed an image")
	}
}

func TestSweepService_DeleteThenRescanIsEmpty(t *testing.T) {
	store := newFakeStore()
	store.addImage(1, "a.jpg")
	store.addImage(2, "b.jpg")
	store.addImage(3, "c.jpg")
	store.add(fakeItem{Type: "product", Meta: map[string]string{thumbnailIDKey: "1"}})

	service := newTestService(store, nil)

	result, report, err := service.Sweep(context.Background(), true)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if want := []int64{2, 3}; !reflect.DeepEqual(result.UnusedIDs(), want) {
		t.Errorf("Unused = %v, want %v", result.UnusedIDs(), want)
	}
	if want := []int64{2, 3}; !reflect.DeepEqual(report.Deleted, want) {
		t.Errorf("Deleted = %v, want %v", report.Deleted, want)
	}

	rescan, err := service.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(rescan.Unused) != 0 {
		t.Errorf("rescan found %v, want nothing", rescan.UnusedIDs())
	}
}

func TestSweepService_ReportsActualDeletions(t *testing.T) {
	store := newFakeStore()
	store.addImage(1, "a.jpg")
	store.addImage(2, "b.jpg")

	_, report, err := newTestService(store, map[int64]bool{1: true}).Sweep(context.Background(), true)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if want := []int64{2}; !reflect.DeepEqual(report.Deleted, want) {
		t.Errorf("Deleted = %v, want %v", report.Deleted, want)
	}
	if len(report.Failed) != 1 || report.Failed[0].AttachmentID != 1 || !errors.Is(report.Failed[0].Err, errDeleteFailed) {
		t.Errorf("Failed = %+v, want attachment 1", report.Failed)
	}
}

func TestSweepService_DeleteStopsWhenCancelled(t *testing.T) {
	store := newFakeStore()
	store.addImage(1, "a.jpg")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := newTestService(store, nil).Delete(ctx, []domain.Attachment{{ID: 1}})
	if len(report.Deleted) != 0 {
		t.Errorf("Deleted = %v, want none", report.Deleted)
	}
	if len(report.Failed) != 1 || !errors.Is(report.Failed[0].Err, context.Canceled) {
		t.Errorf("Failed = %+v, want a cancelled entry", report.Failed)
	}
	if len(store.images()) != 1 {
		t.Error("image removed after cancellation")
	}
}

func TestSweepService_DeleteUnusedKeepsImagesItCannotRecheck(t *testing.T) {
	store := newFakeStore()
	store.addImage(1, "a.jpg")
	service := newTestService(store, nil)

	result, err := service.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	store.failMetaKey = thumbnailIDKey
	report := service.DeleteUnused(context.Background(), result.Unused)

	if len(report.Deleted) != 0 || len(report.Skipped) != 0 {
		t.Errorf("report = %+v, want nothing deleted or skipped", report)
	}
	if len(report.Failed) != 1 || report.Failed[0].AttachmentID != 1 || !errors.Is(report.Failed[0].Err, errStoreDown) {
		t.Errorf("Failed = %+v, want attachment 1 with the store error", report.Failed)
	}
	if len(store.images()) != 1 {
		t.Error("image was deleted although its recheck failed")
	}
}

func TestSweepService_DeleteSkipsRecheck(t *testing.T) {
	store := newFakeStore()
	store.addImage(1, "a.jpg")
	store.add(fakeItem{Type: "product", Meta: map[string]string{thumbnailIDKey: "1"}})
	service := newTestService(store, nil)

	report := service.Delete(context.Background(), store.images())

	if want := []int64{1}; !reflect.DeepEqual(report.Deleted, want) {
		t.Errorf("Deleted = %v, want %v", report.Deleted, want)
	}
}
