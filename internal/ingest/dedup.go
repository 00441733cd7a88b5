package ingest

import (
	"context"

	"github.com/jobhunterpro/jobhunter/internal/models"
)

// Lookup is the slice of storage the deduplicator needs.
type Lookup interface {
	FindByFingerprint(ctx context.Context, fingerprint string) (*models.Posting, error)
	FindByURL(ctx context.Context, url string) (*models.Posting, error)
}

// Deduplicator decides whether an incoming posting is the same as one already
// stored. It also remembers fingerprints and URLs accepted earlier in the
// current batch so near-duplicates arriving together are not both persisted.
// Not safe for concurrent use; the pipeline runs the dedup phase sequentially.
type Deduplicator struct {
	store   Lookup
	seenFP  map[string]struct{}
	seenURL map[string]struct{}
}

func NewDeduplicator(store Lookup) *Deduplicator {
	return &Deduplicator{
		store:   store,
		seenFP:  make(map[string]struct{}),
		seenURL: make(map[string]struct{}),
	}
}

// Check returns nil and reserves the posting's identity when the posting is
// new. It returns ErrDuplicatePosting when the fingerprint or URL is already
// known, and a StorageError when the lookup itself fails.
func (d *Deduplicator) Check(ctx context.Context, p *models.Posting) error {
	if _, ok := d.seenFP[p.Fingerprint]; ok {
		return ErrDuplicatePosting
	}
	if p.URL != "" {
		if _, ok := d.seenURL[p.URL]; ok {
			return ErrDuplicatePosting
		}
	}

	existing, err := d.store.FindByFingerprint(ctx, p.Fingerprint)
	if err != nil {
		return &StorageError{Op: "find fingerprint", Err: err}
	}
	if existing != nil {
		return ErrDuplicatePosting
	}

	// URL equality is a stronger signal than the fingerprint: minor title
	// variance must not slip the same listing in twice.
	if p.URL != "" {
		existing, err = d.store.FindByURL(ctx, p.URL)
		if err != nil {
			return &StorageError{Op: "find url", Err: err}
		}
		if existing != nil {
			return ErrDuplicatePosting
		}
	}

	d.seenFP[p.Fingerprint] = struct{}{}
	if p.URL != "" {
		d.seenURL[p.URL] = struct{}{}
	}

	return nil
}
