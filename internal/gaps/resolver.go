package gaps

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"

	"spechub/internal/registry"
	"spechub/pkg/models"
)

// ErrNoMatch means the platform answered but found nothing confident
// enough to persist. It is terminal: no retry.
var ErrNoMatch = errors.New("no confident match")

// Searcher finds the external reference id for a canonical name.
// Implemented by PlatformClient; tests plug in fakes.
type Searcher interface {
	Search(ctx context.Context, category models.Category, name string) (string, error)
}

// MissCleaner lets the resolver drop ledger rows for names it resolved.
type MissCleaner interface {
	Clear(ctx context.Context, category models.Category, names []string) error
}

// Unresolved is one name the resolver could not map, with the reason.
type Unresolved struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ResolveReport is the outcome of one ResolveMissing run.
type ResolveReport struct {
	Category   models.Category   `json:"category"`
	Resolved   map[string]string `json:"resolved"`
	Unresolved []Unresolved      `json:"unresolved"`
}

// Resolver queries the external platform for missing registry mappings
// and persists the ones it can confirm.
type Resolver struct {
	Registry *registry.Store
	Searcher Searcher
	Misses   MissCleaner // optional

	// MaxRetries bounds transient-failure retries per name.
	MaxRetries uint
}

func NewResolver(reg *registry.Store, searcher Searcher) *Resolver {
	return &Resolver{Registry: reg, Searcher: searcher, MaxRetries: 3}
}

// ResolveMissing looks up each name sequentially (one call completes
// before the next starts), retrying transient failures with exponential
// backoff. Confirmed matches are added to the registry and the category
// file is persisted once at the end, after the usual timestamped
// backup. Names that stay unresolved are reported, never dropped.
func (r *Resolver) ResolveMissing(ctx context.Context, category models.Category, names []string) (*ResolveReport, error) {
	report := &ResolveReport{
		Category:   category,
		Resolved:   make(map[string]string),
		Unresolved: []Unresolved{},
	}

	for _, name := range names {
		id, err := r.searchWithRetry(ctx, category, name)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			report.Unresolved = append(report.Unresolved, Unresolved{Name: name, Reason: err.Error()})
			continue
		}
		r.Registry.Put(category, name, id)
		report.Resolved[name] = id
		log.Printf("[gaps] resolved %s/%q -> %s", category, name, id)
	}

	if len(report.Resolved) > 0 {
		if err := r.Registry.Save(category); err != nil {
			return report, fmt.Errorf("persist registry %s: %w", category, err)
		}
		if r.Misses != nil {
			resolved := make([]string, 0, len(report.Resolved))
			for n := range report.Resolved {
				resolved = append(resolved, n)
			}
			if err := r.Misses.Clear(ctx, category, resolved); err != nil {
				log.Printf("[gaps] clear ledger: %v", err)
			}
		}
	}
	return report, nil
}

func (r *Resolver) searchWithRetry(ctx context.Context, category models.Category, name string) (string, error) {
	var id string

	op := func() error {
		var err error
		id, err = r.Searcher.Search(ctx, category, name)
		if errors.Is(err, ErrNoMatch) {
			return backoff.Permanent(err)
		}
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxElapsedTime = 30 * time.Second

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(r.MaxRetries)), ctx))
	if err != nil {
		return "", err
	}
	return id, nil
}
