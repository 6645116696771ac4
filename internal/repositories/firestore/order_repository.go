package firestore

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/deimos91-cmyk/felpe-scuola/internal/domain"
	pfirestore "github.com/deimos91-cmyk/felpe-scuola/internal/platform/firestore"
	"github.com/deimos91-cmyk/felpe-scuola/internal/repositories"
)

const (
	defaultOrdersCollection = "orders"

	// Firestore caps a write batch at 500 mutations; 450 leaves headroom.
	deleteBatchSize = 450
)

type orderDocument struct {
	ProductType string    `firestore:"productType"`
	ModelKey    string    `firestore:"modelKey"`
	Variant     string    `firestore:"variant"`
	Color       string    `firestore:"color"`
	Size        *string   `firestore:"size"`
	Qty         int       `firestore:"qty"`
	Name        string    `firestore:"name"`
	ClassName   string    `firestore:"className"`
	Contact     string    `firestore:"contact"`
	Notes       string    `firestore:"notes"`
	Status      string    `firestore:"status"`
	CreatedAt   time.Time `firestore:"createdAt,serverTimestamp"`
}

func encodeOrderDocument(order domain.Order) orderDocument {
	doc := orderDocument{
		ProductType: order.ProductType,
		ModelKey:    string(order.ModelKey),
		Variant:     string(order.Variant),
		Color:       order.Color,
		Qty:         order.Qty,
		Name:        order.Name,
		ClassName:   order.ClassName,
		Contact:     order.Contact,
		Notes:       order.Notes,
		Status:      string(order.EffectiveStatus()),
	}
	if order.Size != "" {
		size := order.Size
		doc.Size = &size
	}
	return doc
}

func decodeOrderDocument(id string, doc orderDocument) domain.Order {
	order := domain.Order{
		ID:          id,
		ProductType: doc.ProductType,
		ModelKey:    domain.ModelKey(doc.ModelKey),
		Variant:     domain.Variant(doc.Variant),
		Color:       doc.Color,
		Qty:         doc.Qty,
		Name:        doc.Name,
		ClassName:   doc.ClassName,
		Contact:     doc.Contact,
		Notes:       doc.Notes,
		Status:      domain.OrderStatus(doc.Status),
		CreatedAt:   doc.CreatedAt,
	}
	if doc.Size != nil {
		order.Size = *doc.Size
	}
	if order.Status == "" {
		order.Status = domain.OrderStatusNew
	}
	return order
}

// OrderRepository is the Firestore-backed implementation of
// repositories.OrderRepository.
type OrderRepository struct {
	base       *pfirestore.BaseRepository[domain.Order]
	collection string
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)

// NewOrderRepository constructs a Firestore-backed order repository. An empty
// collection name falls back to the default.
func NewOrderRepository(provider *pfirestore.Provider, collection string) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository: firestore provider is required")
	}
	collection = strings.TrimSpace(collection)
	if collection == "" {
		collection = defaultOrdersCollection
	}

	encoder := func(ctx context.Context, value domain.Order) (any, error) {
		return encodeOrderDocument(value), nil
	}
	decoder := func(ctx context.Context, snap *firestore.DocumentSnapshot) (domain.Order, error) {
		var doc orderDocument
		if err := snap.DataTo(&doc); err != nil {
			return domain.Order{}, err
		}
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = snap.CreateTime
		}
		return decodeOrderDocument(snap.Ref.ID, doc), nil
	}

	base := pfirestore.NewBaseRepository[domain.Order](provider, collection, encoder, decoder)
	return &OrderRepository{base: base, collection: collection}, nil
}

// Insert stores a new order document under its pre-assigned ID.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	order.ID = strings.TrimSpace(order.ID)
	if order.ID == "" {
		return errors.New("order repository: id is required")
	}

	docRef, err := r.base.DocumentRef(ctx, order.ID)
	if err != nil {
		return err
	}
	if _, err := docRef.Create(ctx, encodeOrderDocument(order)); err != nil {
		return pfirestore.WrapError("orders.insert", err)
	}
	return nil
}

// Ping issues a minimal read against the collection. The readiness probe
// uses it to confirm the backend answers.
func (r *OrderRepository) Ping(ctx context.Context) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}

	_, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Limit(1).Select()
	})
	return err
}

// List returns all orders, newest first.
func (r *OrderRepository) List(ctx context.Context) ([]domain.Order, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("order repository not initialised")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("createdAt", firestore.Desc)
	})
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, doc.Data)
	}
	return orders, nil
}

// UpdateStatus updates the status field of an existing order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return errors.New("order repository: id is required")
	}

	_, err := r.base.Update(ctx, orderID, []firestore.Update{
		{Path: "status", Value: string(status)},
	})
	return err
}

// Delete removes one order document.
func (r *OrderRepository) Delete(ctx context.Context, orderID string) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return errors.New("order repository: id is required")
	}
	return r.base.Delete(ctx, orderID)
}

// DeleteAll removes every order in sequential batches. Batches that committed
// before a failure stay deleted; the result reports how far the wipe got.
func (r *OrderRepository) DeleteAll(ctx context.Context) (repositories.DeleteAllResult, error) {
	if r == nil || r.base == nil {
		return repositories.DeleteAllResult{}, errors.New("order repository not initialised")
	}

	client, err := r.base.Client(ctx)
	if err != nil {
		return repositories.DeleteAllResult{}, err
	}
	coll, err := r.base.CollectionRef(ctx)
	if err != nil {
		return repositories.DeleteAllResult{}, err
	}

	var result repositories.DeleteAllResult
	for {
		refs, err := coll.Query.Limit(deleteBatchSize).Select().Documents(ctx).GetAll()
		if err != nil {
			return result, pfirestore.WrapError("orders.delete_all", err)
		}
		if len(refs) == 0 {
			return result, nil
		}

		batch := client.Batch()
		for _, snap := range refs {
			batch.Delete(snap.Ref)
		}
		if _, err := batch.Commit(ctx); err != nil {
			return result, pfirestore.WrapError("orders.delete_all", err)
		}
		result.Deleted += len(refs)
		result.Batches++

		if len(refs) < deleteBatchSize {
			return result, nil
		}
	}
}

// Subscribe opens a live feed over the order collection, newest first.
func (r *OrderRepository) Subscribe(ctx context.Context) (repositories.OrderFeed, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("order repository not initialised")
	}

	iter, err := r.base.Snapshots(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("createdAt", firestore.Desc)
	})
	if err != nil {
		return nil, err
	}

	feed := &orderFeed{
		updates: make(chan []domain.Order, 1),
		stop:    make(chan struct{}),
	}
	go feed.run(ctx, r.base, iter)
	return feed, nil
}

type orderFeed struct {
	updates  chan []domain.Order
	stop     chan struct{}
	stopOnce sync.Once
	err      error
}

func (f *orderFeed) Updates() <-chan []domain.Order { return f.updates }

func (f *orderFeed) Err() error { return f.err }

func (f *orderFeed) Stop() {
	f.stopOnce.Do(func() { close(f.stop) })
}

func (f *orderFeed) run(ctx context.Context, base *pfirestore.BaseRepository[domain.Order], iter *firestore.QuerySnapshotIterator) {
	defer close(f.updates)
	defer iter.Stop()

	for {
		select {
		case <-f.stop:
			return
		default:
		}

		snap, err := iter.Next()
		if err != nil {
			if ctx.Err() == nil {
				f.err = pfirestore.WrapError("orders.subscribe", err)
			}
			return
		}

		orders := make([]domain.Order, 0, snap.Size)
		decodeFailed := false
		docs := snap.Documents
		for {
			docSnap, err := docs.Next()
			if err != nil {
				break
			}
			decoded, err := base.DecodeSnapshot(ctx, docSnap)
			if err != nil {
				decodeFailed = true
				continue
			}
			orders = append(orders, decoded.Data)
		}
		if decodeFailed && len(orders) == 0 {
			continue
		}

		// Drop the stale snapshot when the consumer lags; only the latest
		// state matters.
		select {
		case f.updates <- orders:
		case <-f.stop:
			return
		default:
			select {
			case <-f.updates:
			default:
			}
			select {
			case f.updates <- orders:
			case <-f.stop:
				return
			default:
			}
		}
	}
}
