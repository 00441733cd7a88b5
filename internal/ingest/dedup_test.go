package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/jobhunterpro/jobhunter/internal/models"
)

// fakeLookup is an in-memory Lookup for dedup tests.
type fakeLookup struct {
	byFP  map[string]*models.Posting
	byURL map[string]*models.Posting
	fail  error
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{
		byFP:  make(map[string]*models.Posting),
		byURL: make(map[string]*models.Posting),
	}
}

func (f *fakeLookup) add(p *models.Posting) {
	f.byFP[p.Fingerprint] = p
	if p.URL != "" {
		f.byURL[p.URL] = p
	}
}

func (f *fakeLookup) FindByFingerprint(_ context.Context, fp string) (*models.Posting, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	return f.byFP[fp], nil
}

func (f *fakeLookup) FindByURL(_ context.Context, url string) (*models.Posting, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	return f.byURL[url], nil
}

func TestDedupAcceptsNewPosting(t *testing.T) {
	d := NewDeduplicator(newFakeLookup())

	p := &models.Posting{
		Fingerprint: Fingerprint("Backend Engineer", "Acme", "Nairobi"),
		URL:         "https://example.com/jobs/1",
	}
	if err := d.Check(context.Background(), p); err != nil {
		t.Fatalf("Check() = %v, want nil", err)
	}
}

func TestDedupRejectsStoredFingerprint(t *testing.T) {
	store := newFakeLookup()
	stored := &models.Posting{
		Fingerprint: Fingerprint("Backend Engineer", "Acme", "Nairobi"),
		URL:         "https://example.com/jobs/1",
	}
	store.add(stored)

	d := NewDeduplicator(store)
	dup := &models.Posting{
		Fingerprint: stored.Fingerprint,
		URL:         "https://example.com/jobs/other",
	}
	if err := d.Check(context.Background(), dup); !errors.Is(err, ErrDuplicatePosting) {
		t.Fatalf("Check() = %v, want ErrDuplicatePosting", err)
	}
}

// A retitled listing keeps its URL; the URL check must catch what the
// fingerprint misses.
func TestDedupURLCatchesRetitledListing(t *testing.T) {
	store := newFakeLookup()
	store.add(&models.Posting{
		Fingerprint: Fingerprint("SOC Analyst", "Acme", "Nairobi"),
		URL:         "https://example.com/jobs/42",
	})

	d := NewDeduplicator(store)
	retitled := &models.Posting{
		Fingerprint: Fingerprint("SOC Analyst I", "Acme", "Nairobi"),
		URL:         "https://example.com/jobs/42",
	}
	if retitled.Fingerprint == Fingerprint("SOC Analyst", "Acme", "Nairobi") {
		t.Fatal("test postings must have distinct fingerprints")
	}
	if err := d.Check(context.Background(), retitled); !errors.Is(err, ErrDuplicatePosting) {
		t.Fatalf("Check() = %v, want ErrDuplicatePosting via URL", err)
	}
}

func TestDedupInBatchReservation(t *testing.T) {
	d := NewDeduplicator(newFakeLookup())
	ctx := context.Background()

	first := &models.Posting{
		Fingerprint: Fingerprint("Backend Engineer", "Acme", "Nairobi"),
		URL:         "https://example.com/jobs/1",
	}
	if err := d.Check(ctx, first); err != nil {
		t.Fatalf("first Check() = %v", err)
	}

	// Same fingerprint, nothing yet in storage.
	second := &models.Posting{Fingerprint: first.Fingerprint}
	if err := d.Check(ctx, second); !errors.Is(err, ErrDuplicatePosting) {
		t.Errorf("fingerprint reservation: Check() = %v, want ErrDuplicatePosting", err)
	}

	// Same URL, different fingerprint.
	third := &models.Posting{
		Fingerprint: Fingerprint("Backend Engineer II", "Acme", "Nairobi"),
		URL:         first.URL,
	}
	if err := d.Check(ctx, third); !errors.Is(err, ErrDuplicatePosting) {
		t.Errorf("url reservation: Check() = %v, want ErrDuplicatePosting", err)
	}
}

func TestDedupEmptyURLNeverCollides(t *testing.T) {
	d := NewDeduplicator(newFakeLookup())
	ctx := context.Background()

	a := &models.Posting{Fingerprint: Fingerprint("Role A", "Acme", "Nairobi")}
	b := &models.Posting{Fingerprint: Fingerprint("Role B", "Acme", "Nairobi")}
	if err := d.Check(ctx, a); err != nil {
		t.Fatalf("Check(a) = %v", err)
	}
	if err := d.Check(ctx, b); err != nil {
		t.Fatalf("Check(b) = %v; empty URLs must not dedup against each other", err)
	}
}

func TestDedupWrapsLookupFailure(t *testing.T) {
	store := newFakeLookup()
	store.fail = errors.New("disk on fire")

	d := NewDeduplicator(store)
	err := d.Check(context.Background(), &models.Posting{Fingerprint: "abc"})

	var serr *StorageError
	if !errors.As(err, &serr) {
		t.Fatalf("Check() = %v, want *StorageError", err)
	}
	if errors.Is(err, ErrDuplicatePosting) {
		t.Error("lookup failure must not read as a duplicate")
	}
}
