package domain

import (
	"strconv"
	"strings"
	"time"
)

// Variant identifies the sub-population of a model key. It affects the
// available sizes and the image naming convention.
type Variant string

const (
	VariantAdult    Variant = "adult"
	VariantKids     Variant = "kids"
	VariantStandard Variant = "standard"
)

// ModelKey identifies a physical product template independent of colour and size.
type ModelKey string

const (
	ModelKangaroo ModelKey = "KANGAROO"
	ModelWhale    ModelKey = "WHALE"
	ModelVolcano  ModelKey = "VOLCANO"
	ModelTenerife ModelKey = "TENERIFE"
)

// Product is a statically defined catalog entry. Products are immutable and
// never change after build time.
type Product struct {
	Title       string
	ModelKey    ModelKey
	Variant     Variant
	Price       int
	Description string
	Details     []string
	Colors      []string
	Sizes       []string
}

// HasSizes reports whether the product is ordered with a size.
func (p Product) HasSizes() bool {
	return len(p.Sizes) > 0
}

// DefaultColor returns the first colour in the list, the default selection.
func (p Product) DefaultColor() string {
	if len(p.Colors) == 0 {
		return ""
	}
	return p.Colors[0]
}

// DefaultSize returns the first size, or the empty string for unsized products.
func (p Product) DefaultSize() string {
	if len(p.Sizes) == 0 {
		return ""
	}
	return p.Sizes[0]
}

// OrderStatus tracks admin triage of a submitted preorder.
type OrderStatus string

const (
	OrderStatusNew  OrderStatus = "new"
	OrderStatusSeen OrderStatus = "seen"
)

// Order is a customer preorder submission. Status transitions from new to
// seen via admin action; no other field is ever mutated after creation.
type Order struct {
	ID          string
	ProductType string
	ModelKey    ModelKey
	Variant     Variant
	Color       string
	Size        string // empty means the product has no sizes; persisted as null
	Qty         int
	Name        string
	ClassName   string
	Contact     string
	Notes       string
	Status      OrderStatus
	CreatedAt   time.Time
}

// EffectiveStatus treats orders without a recorded status as new.
func (o Order) EffectiveStatus() OrderStatus {
	if strings.TrimSpace(string(o.Status)) == "" {
		return OrderStatusNew
	}
	return o.Status
}

// Quantity bounds for a single preorder.
const (
	QtyMin = 1
	QtyMax = 10
)

// ClampQty parses a raw quantity input and clamps it to [QtyMin, QtyMax].
// Non-numeric input yields QtyMin.
func ClampQty(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return QtyMin
	}
	return ClampQtyInt(n)
}

// ClampQtyInt clamps an already-parsed quantity to [QtyMin, QtyMax].
func ClampQtyInt(n int) int {
	if n < QtyMin {
		return QtyMin
	}
	if n > QtyMax {
		return QtyMax
	}
	return n
}
