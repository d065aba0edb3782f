package store

import (
	"context"
	"errors"
	"testing"
)

func TestSaveGetAll_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	req := createTestRequest("offline_1714554000000_42", 2)
	req.CustomerName = "Budi & <Sari>"

	id, err := s.Save(ctx, req)
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	all, err := s.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll() failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("GetAll() returned %d items, want 1", len(all))
	}

	got := all[0]
	if got.LocalID != id {
		t.Errorf("LocalID = %d, want %d", got.LocalID, id)
	}
	if got.Err != nil {
		t.Errorf("Err = %v, want nil", got.Err)
	}
	if !got.Timestamp.Equal(testNow) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, testNow)
	}
	p := got.Payload
	if p.ClientRef != req.ClientRef || p.UserID != req.UserID || p.CustomerName != req.CustomerName {
		t.Errorf("payload header = %+v, want %+v", p, req)
	}
	if !p.IsOffline {
		t.Error("IsOffline lost in round trip")
	}
	if !p.TotalAmount.Equal(req.TotalAmount) {
		t.Errorf("TotalAmount = %s, want %s", p.TotalAmount, req.TotalAmount)
	}
	if len(p.Items) != 1 || p.Items[0].Quantity != 2 || p.Items[0].StockSnapshot != 10 {
		t.Errorf("Items = %+v", p.Items)
	}
}

func TestGetAll_EmptyIsNotNil(t *testing.T) {
	s := createTestStore(t)

	all, err := s.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll() failed: %v", err)
	}
	if all == nil || len(all) != 0 {
		t.Errorf("GetAll() = %#v, want empty slice", all)
	}
}

func TestGetAll_OrderedByLocalID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	var ids []int64
	for i := 1; i <= 3; i++ {
		id, err := s.Save(ctx, createTestRequest("r", i))
		if err != nil {
			t.Fatalf("Save(%d) failed: %v", i, err)
		}
		ids = append(ids, id)
	}

	all, err := s.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll() failed: %v", err)
	}
	for i, p := range all {
		if p.LocalID != ids[i] {
			t.Errorf("all[%d].LocalID = %d, want %d", i, p.LocalID, ids[i])
		}
		if p.Payload.Items[0].Quantity != i+1 {
			t.Errorf("all[%d] quantity = %d, want %d", i, p.Payload.Items[0].Quantity, i+1)
		}
	}
}

func TestRemove(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	keep, _ := s.Save(ctx, createTestRequest("a", 1))
	drop, _ := s.Save(ctx, createTestRequest("b", 1))

	if err := s.Remove(ctx, drop); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	if err := s.Remove(ctx, drop); err != nil {
		t.Errorf("second Remove() = %v, want nil", err)
	}
	if err := s.Remove(ctx, 9999); err != nil {
		t.Errorf("Remove(unknown) = %v, want nil", err)
	}

	all, _ := s.GetAll(ctx)
	if len(all) != 1 || all[0].LocalID != keep {
		t.Errorf("GetAll() after Remove = %+v", all)
	}
}

func TestLocalIDNeverReused(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, _ := s.Save(ctx, createTestRequest("a", 1))
	if err := s.Remove(ctx, first); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	second, err := s.Save(ctx, createTestRequest("b", 1))
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	if second <= first {
		t.Errorf("second local id %d reuses or precedes %d", second, first)
	}
}

func TestCountMatchesGetAll(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if _, err := s.Save(ctx, createTestRequest("r", 1)); err != nil {
			t.Fatalf("Save() failed: %v", err)
		}
	}
	all, _ := s.GetAll(ctx)
	s.Remove(ctx, all[1].LocalID)

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	all, _ = s.GetAll(ctx)
	if n != len(all) || n != 3 {
		t.Errorf("Count() = %d, len(GetAll()) = %d, want 3", n, len(all))
	}
}

func TestGetAll_UndecodablePayload(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	good, _ := s.Save(ctx, createTestRequest("good", 1))

	db, err := s.open(ctx)
	if err != nil {
		t.Fatalf("open() failed: %v", err)
	}
	_, err = db.ExecContext(ctx, `INSERT INTO pending_transactions (payload, created_at) VALUES ('{not json', ?)`, formatTime(testNow))
	db.Close()
	if err != nil {
		t.Fatalf("insert corrupt row: %v", err)
	}

	all, err := s.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll() failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("GetAll() returned %d items, want 2", len(all))
	}
	if all[0].LocalID != good || all[0].Err != nil {
		t.Errorf("good row = %+v", all[0])
	}
	if all[1].Err == nil {
		t.Error("corrupt row has no Err")
	}
}

func TestSave_UnavailableStore(t *testing.T) {
	s := createTestStore(t)
	s.path = t.TempDir() // a directory cannot be opened as a database

	_, err := s.Save(context.Background(), createTestRequest("x", 1))
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Save() error = %v, want ErrUnavailable", err)
	}
}
