// Package repositories defines the persistence interfaces consumed by the
// service layer.
package repositories

import (
	"context"

	"github.com/deimos91-cmyk/felpe-scuola/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsUnavailable() bool
}

// DeleteAllResult reports how far a bulk delete progressed. Deleted counts
// documents removed across all committed batches, including those before a
// failure.
type DeleteAllResult struct {
	Deleted int
	Batches int
}

// OrderFeed delivers live order snapshots until stopped. Updates carries the
// full ordered list per snapshot; after the channel closes, Err reports why
// the feed ended, nil for a clean stop.
type OrderFeed interface {
	Updates() <-chan []domain.Order
	Err() error
	Stop()
}

// OrderRepository persists preorder submissions.
type OrderRepository interface {
	// Insert stores a new order under its pre-assigned ID. The creation
	// timestamp is set by the backend, not the caller.
	Insert(ctx context.Context, order domain.Order) error
	// List returns every order, newest first.
	List(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) error
	Delete(ctx context.Context, orderID string) error
	// DeleteAll removes every order in chunked batches. On failure the
	// result still reflects the batches that committed.
	DeleteAll(ctx context.Context) (DeleteAllResult, error)
	// Subscribe opens a live feed over the collection. The feed follows
	// ctx: cancelling it ends the stream.
	Subscribe(ctx context.Context) (OrderFeed, error)
}
