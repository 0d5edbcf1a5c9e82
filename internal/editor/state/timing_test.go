package state

import "testing"

func TestTimingPointStoreInsertKeepsOffsetOrder(t *testing.T) {
	var store TimingPointStore
	store.Insert(TimingPoint{ID: 1, Offset: 4000})
	store.Insert(TimingPoint{ID: 2, Offset: 0})
	store.Insert(TimingPoint{ID: 3, Offset: 2000})

	points := store.All()
	wantOrder := []uint64{2, 3, 1}
	for i, id := range wantOrder {
		if points[i].ID != id {
			t.Fatalf("expected id %d at index %d, got %d", id, i, points[i].ID)
		}
	}
}

func TestTimingPointStoreUpdateReordersOnOffsetChange(t *testing.T) {
	var store TimingPointStore
	store.Insert(TimingPoint{ID: 1, Offset: 0})
	store.Insert(TimingPoint{ID: 2, Offset: 1000})

	if !store.UpdateByID(1, TimingPoint{Offset: 5000}) {
		t.Fatalf("expected update to succeed")
	}
	points := store.All()
	if points[0].ID != 2 || points[1].ID != 1 {
		t.Fatalf("expected reorder after offset change, got %v, %v", points[0].ID, points[1].ID)
	}
	if points[1].Offset != 5000 {
		t.Fatalf("expected new offset to stick, got %d", points[1].Offset)
	}
}

func TestTimingPointStoreDeleteUnknownID(t *testing.T) {
	var store TimingPointStore
	store.Insert(TimingPoint{ID: 1, Offset: 0})

	if _, removed := store.DeleteByID(99); removed {
		t.Fatalf("expected delete of unknown id to be a no-op")
	}
	if store.Len() != 1 {
		t.Fatalf("expected store untouched, got %d points", store.Len())
	}
}
