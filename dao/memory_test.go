package dao

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"support-agent/model"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	session, err := store.GetOrCreate(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if session.ID != "s1" {
		t.Fatalf("ID = %q, want s1", session.ID)
	}

	session.PersistentEntities["order_number"] = "54582"
	session.State.ActiveIntent = model.IntentBillingIssue
	session.State.Context = &model.BillingContext{OrderID: 54582}
	session.AddMessage(model.RoleUser, "I was charged twice")
	if err := store.Save(ctx, session); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetOrCreate(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if got.PersistentEntities["order_number"] != "54582" {
		t.Error("persistent entities lost in round trip")
	}
	if got.State.ActiveIntent != model.IntentBillingIssue {
		t.Errorf("ActiveIntent = %q, want billing_issue", got.State.ActiveIntent)
	}
	// 上下文信封必须还原成带类型的结构
	bc, ok := got.State.Context.(*model.BillingContext)
	if !ok {
		t.Fatalf("Context restored as %T, want *BillingContext", got.State.Context)
	}
	if bc.OrderID != 54582 {
		t.Errorf("Context.OrderID = %d, want 54582", bc.OrderID)
	}
	if len(got.History) != 1 {
		t.Errorf("history len = %d, want 1", len(got.History))
	}
}

func TestMemoryStoreSnapshotIsolation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	session, _ := store.GetOrCreate(ctx, "s1")
	session.PersistentEntities["resolution"] = "refund"
	if err := store.Save(ctx, session); err != nil {
		t.Fatal(err)
	}

	// 未 Save 的改动不得泄漏回存储
	dirty, _ := store.GetOrCreate(ctx, "s1")
	dirty.PersistentEntities["resolution"] = "cancel"

	clean, _ := store.GetOrCreate(ctx, "s1")
	if clean.PersistentEntities["resolution"] != "refund" {
		t.Error("unsaved mutation leaked into the store")
	}
}

func TestMemoryStoreDestroyIdempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	session, _ := store.GetOrCreate(ctx, "s1")
	if err := store.Save(ctx, session); err != nil {
		t.Fatal(err)
	}
	if err := store.Destroy(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	if err := store.Destroy(ctx, "s1"); err != nil {
		t.Fatalf("second destroy must succeed, got %v", err)
	}
	if err := store.Destroy(ctx, "never-existed"); err != nil {
		t.Fatalf("destroying unknown session must succeed, got %v", err)
	}
}

func TestMemoryStoreRejectsEmptyID(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.GetOrCreate(ctx, ""); !errors.Is(err, ErrInvalidParam) {
		t.Errorf("GetOrCreate(\"\") err = %v, want ErrInvalidParam", err)
	}
	if err := store.Save(ctx, nil); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Save(nil) err = %v, want ErrInvalidSession", err)
	}
	if err := store.Save(ctx, &model.Session{}); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Save(empty ID) err = %v, want ErrInvalidSession", err)
	}
}

func TestMemoryStoreIdleSince(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	old, _ := store.GetOrCreate(ctx, "old")
	old.LastActiveAt = time.Now().Add(-time.Hour)
	if err := store.Save(ctx, old); err != nil {
		t.Fatal(err)
	}
	fresh, _ := store.GetOrCreate(ctx, "fresh")
	fresh.Touch()
	if err := store.Save(ctx, fresh); err != nil {
		t.Fatal(err)
	}

	idle, err := store.IdleSince(ctx, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if len(idle) != 1 || idle[0] != "old" {
		t.Errorf("idle = %v, want [old]", idle)
	}
}

func TestMemoryStoreConcurrentSessions(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n%10))
			session, err := store.GetOrCreate(ctx, id)
			if err != nil {
				t.Error(err)
				return
			}
			session.AddMessage(model.RoleUser, "hi")
			if err := store.Save(ctx, session); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()
}
