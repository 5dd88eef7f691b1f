// Package ledger tracks the central warehouse pool and per-region stock
// counters for each product.
//
// The two pools are deliberately non-conserving: a transfer moves quantity
// from central to a region, but manual region adjustments never touch the
// central pool and vice versa. Order creation and fulfillment do not move
// stock at all; the only mutations are the explicit operations below.
package ledger

import (
	"errors"
	"time"
)

// MovementType enumerates supported stock movements.
type MovementType string

const (
	// MovementTransfer moves stock from the central pool to a region.
	MovementTransfer MovementType = "TRANSFER"
	// MovementRegionAdjust applies a clamped delta to a region counter.
	MovementRegionAdjust MovementType = "REGION_ADJUST"
	// MovementRegionClear resets a region counter to zero.
	MovementRegionClear MovementType = "REGION_CLEAR"
	// MovementCentralAdjust applies a clamped delta to the central pool.
	MovementCentralAdjust MovementType = "CENTRAL_ADJUST"
)

// Movement records a single ledger mutation for the audit trail.
type Movement struct {
	ID         int64        `json:"id"`
	ProductID  int64        `json:"product_id"`
	RegionCode string       `json:"region_code,omitempty"`
	Type       MovementType `json:"type"`
	Qty        int64        `json:"qty"`
	Note       string       `json:"note,omitempty"`
	ActorID    int64        `json:"actor_id"`
	At         time.Time    `json:"at"`
}

// MovementFilter narrows movement listings.
type MovementFilter struct {
	ProductID  int64
	RegionCode string
	Limit      int
}

// TransferInput describes a central-to-region stock transfer. A non-empty
// IdempotencyKey deduplicates client retries.
type TransferInput struct {
	ProductID      int64
	RegionCode     string
	Qty            int64
	Note           string
	ActorID        int64
	IdempotencyKey string
}

// RegionAdjustInput describes a manual region counter adjustment. When Clear
// is set the counter is reset to zero and Delta is ignored.
type RegionAdjustInput struct {
	ProductID  int64
	RegionCode string
	Delta      int64
	Clear      bool
	Note       string
	ActorID    int64
}

// CentralAdjustInput describes a manual central pool adjustment.
type CentralAdjustInput struct {
	ProductID int64
	Delta     int64
	Note      string
	ActorID   int64
}

// ErrInsufficientStock is returned when a transfer exceeds the central pool.
var ErrInsufficientStock = errors.New("ledger: insufficient central stock")

// ErrInvalidQuantity indicates a non-positive transfer quantity or a no-op delta.
var ErrInvalidQuantity = errors.New("ledger: invalid quantity")

// ErrRegionRequired indicates a missing destination region.
var ErrRegionRequired = errors.New("ledger: destination region required")

// ErrUnknownRegion indicates a destination region that is not registered.
var ErrUnknownRegion = errors.New("ledger: unknown destination region")
