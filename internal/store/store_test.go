package store

import (
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestInsertList(t *testing.T) {
	s := New()
	inOrder := true
	first := s.Insert(SagaRequest{Target: "a", TargetID: "1", TargetRef: []string{"x", "y", "z"}, InOrder: &inOrder})
	second := s.Insert(SagaRequest{Target: "b", TargetID: "2", TargetRef: []string{}})

	if first == second {
		t.Fatal("Insert() returned duplicate ids")
	}
	if first.Version() != 4 {
		t.Errorf("id version = %d, want 4", first.Version())
	}

	got := s.ListAll()
	if len(got) != 2 {
		t.Fatalf("ListAll() len = %d, want 2", len(got))
	}
	if got[0].Saga.ID != first || got[1].Saga.ID != second {
		t.Errorf("ListAll() order = %v, %v; want insertion order", got[0].Saga.ID, got[1].Saga.ID)
	}
	if got[0].Config.Target != "a" || got[0].Config.InOrder == nil || !*got[0].Config.InOrder {
		t.Errorf("ListAll()[0].Config = %+v", got[0].Config)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestListReturnsCopies(t *testing.T) {
	s := New()
	refs := []string{"r1", "r2", "r3"}
	s.Insert(SagaRequest{Target: "t", TargetRef: refs})
	refs[0] = "mutated"

	got := s.ListAll()
	if got[0].Config.TargetRef[0] != "r1" {
		t.Errorf("stored ref changed through caller slice: %v", got[0].Config.TargetRef)
	}
	got[0].Config.TargetRef[1] = "mutated"
	if s.ListAll()[0].Config.TargetRef[1] != "r2" {
		t.Error("stored ref changed through ListAll() result")
	}
}

func TestConcurrentInsert(t *testing.T) {
	s := New()
	const writers, each = 8, 50

	var wg sync.WaitGroup
	ids := make(chan uuid.UUID, writers*each)
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				ids <- s.Insert(SagaRequest{Target: "t"})
				_ = s.ListAll()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[uuid.UUID]bool{}
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
	if s.Len() != writers*each {
		t.Errorf("Len() = %d, want %d", s.Len(), writers*each)
	}
}
