package domain

import (
	"time"
)

// ChangeType identifies the kind of mutation a record went through or is
// awaiting review for. Values match the legacy wire format.
type ChangeType string

const (
	ChangeCreate ChangeType = "Create"
	ChangeUpdate ChangeType = "Update"
	ChangeDelete ChangeType = "Delete"
)

// Valid reports whether c is one of the known change kinds.
func (c ChangeType) Valid() bool {
	switch c {
	case ChangeCreate, ChangeUpdate, ChangeDelete:
		return true
	}
	return false
}

// ProductDetail represents a product in the catalog.
//
// IsActive doubles as the review lock: an inactive product is hidden from
// catalog queries and refuses further price updates until its pending
// approval is resolved.
type ProductDetail struct {
	ID         int64      `json:"id" db:"id"`
	Name       string     `json:"name" db:"name"`
	Price      float64    `json:"price" db:"price"`
	PostedDate time.Time  `json:"posted_date" db:"posted_date"`
	IsActive   bool       `json:"is_active" db:"is_active"`
	Status     ChangeType `json:"status" db:"status"`
}

// ApprovalQueue is a pending-decision record. A product has at most one open
// entry at a time; the entry is deleted when the decision is resolved and is
// never updated in place.
//
// ChangeType is recorded when the entry is enqueued and keys the
// approve/reject transition table. OriginalPrice and OriginalStatus are the
// pre-mutation snapshot used to roll back a rejected price update; they are
// nil for create- and delete-type entries, which need no rollback data.
type ApprovalQueue struct {
	ID             int64       `json:"id" db:"id"`
	ProductID      int64       `json:"product_id" db:"product_id"`
	ChangeType     ChangeType  `json:"change_type" db:"change_type"`
	RequestReason  string      `json:"request_reason" db:"request_reason"`
	RequestDate    time.Time   `json:"request_date" db:"request_date"`
	OriginalPrice  *float64    `json:"original_price,omitempty" db:"original_price"`
	OriginalStatus *ChangeType `json:"original_status,omitempty" db:"original_status"`
}

// PendingApproval pairs an open queue entry with the product it references.
type PendingApproval struct {
	Entry   ApprovalQueue `json:"entry"`
	Product ProductDetail `json:"product"`
}

// ProductFilter narrows a catalog query. Zero/nil fields are ignored; price
// and date bounds are inclusive.
type ProductFilter struct {
	Name      string
	MinPrice  *float64
	MaxPrice  *float64
	StartDate *time.Time
	EndDate   *time.Time
}
