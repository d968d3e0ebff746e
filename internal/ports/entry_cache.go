package ports

import (
	"context"

	"github.com/stackgnosis/sg-cli/internal/domain"
)

// EntryCache keeps the last-fetched entries available for offline reads.
// Get returns domain.ErrEntryNotFound on a miss.
type EntryCache interface {
	Get(ctx context.Context, slug string) (domain.Entry, error)
	List(ctx context.Context) ([]domain.Entry, error)
	Put(ctx context.Context, entry domain.Entry) error
	PutAll(ctx context.Context, entries []domain.Entry) error
}
