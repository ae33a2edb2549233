package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"retreatcore/pkg/domain"
)

func fixtureDocument() *domain.Document {
	doc := domain.NewDocument()
	doc.Title = "Spring Retreat"
	doc.Admins = []string{"admin@x.com"}
	doc.Registrations["reg-1"] = domain.Registration{
		Group: "a@x.com", FullName: "Alice Allison", Name: "Alice", Email: "a@x.com",
		Phone: "1", Emergency: "2", Reservations: []string{}, Adjustments: []domain.Adjustment{},
	}
	return doc
}

func TestNewStoreFromNilStartsWithSkeleton(t *testing.T) {
	doc, err := NewStore(nil).Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc == nil || doc.Registrations == nil || doc.Title != "" {
		t.Fatalf("unexpected document %+v", doc)
	}
}

func TestUpdateCommitsReturnedDocument(t *testing.T) {
	store := NewStore(fixtureDocument())
	err := store.Update(context.Background(), func(doc *domain.Document) (*domain.Document, error) {
		doc.Title = "Renamed"
		return doc, nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	doc, _ := store.Load(context.Background())
	if doc.Title != "Renamed" {
		t.Fatalf("title %q", doc.Title)
	}
}

func TestUpdateErrorCommitsNothing(t *testing.T) {
	store := NewStore(fixtureDocument())
	boom := errors.New("boom")
	err := store.Update(context.Background(), func(doc *domain.Document) (*domain.Document, error) {
		doc.Title = "Mutated"
		return doc, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("error %v", err)
	}
	doc, _ := store.Load(context.Background())
	if doc.Title != "Spring Retreat" {
		t.Fatalf("failed update leaked: %q", doc.Title)
	}
}

func TestUpdateNilResultKeepsDocument(t *testing.T) {
	store := NewStore(fixtureDocument())
	err := store.Update(context.Background(), func(*domain.Document) (*domain.Document, error) {
		return nil, nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	doc, _ := store.Load(context.Background())
	if doc.Title != "Spring Retreat" {
		t.Fatalf("title %q", doc.Title)
	}
}

func TestUpdateHonorsContextCancellation(t *testing.T) {
	store := NewStore(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := store.Update(ctx, func(doc *domain.Document) (*domain.Document, error) { return doc, nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error %v", err)
	}
}

func TestLoadReturnsDetachedCopy(t *testing.T) {
	store := NewStore(fixtureDocument())
	doc, _ := store.Load(context.Background())
	reg := doc.Registrations["reg-1"]
	reg.Phone = "tampered"
	doc.Registrations["reg-1"] = reg

	fresh, _ := store.Load(context.Background())
	if fresh.Registrations["reg-1"].Phone == "tampered" {
		t.Fatal("loaded document aliases committed state")
	}
}

func TestUpdateCallbackMutationsDoNotLeakOnFailure(t *testing.T) {
	store := NewStore(fixtureDocument())
	_ = store.Update(context.Background(), func(doc *domain.Document) (*domain.Document, error) {
		delete(doc.Registrations, "reg-1")
		return nil, errors.New("abort")
	})
	doc, _ := store.Load(context.Background())
	if _, ok := doc.Registrations["reg-1"]; !ok {
		t.Fatal("callback mutation leaked into committed state")
	}
}

func TestConcurrentUpdatesAreLinearized(t *testing.T) {
	store := NewStore(nil)
	const workers = 32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Update(context.Background(), func(doc *domain.Document) (*domain.Document, error) {
				doc.Registrations[fmt.Sprintf("reg-%d", i)] = domain.Registration{Name: fmt.Sprintf("r%d", i)}
				return doc, nil
			})
		}(i)
	}
	wg.Wait()
	doc, _ := store.Load(context.Background())
	if len(doc.Registrations) != workers {
		t.Fatalf("registrations %d, want %d", len(doc.Registrations), workers)
	}
}
