package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/meridian-dist/meridian/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// NotifierPort publishes coarse change signals after successful mutations.
type NotifierPort interface {
	Changed(ctx context.Context, entity string) error
}

// IdempotencyPort deduplicates retried mutations by client-supplied key.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Service coordinates ledger operations.
type Service struct {
	repo     RepositoryPort
	audit    AuditPort
	idem     IdempotencyPort
	notifier NotifierPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, idem IdempotencyPort, notifier NotifierPort) *Service {
	return &Service{repo: repo, audit: audit, idem: idem, notifier: notifier}
}

// Transfer moves qty units from the central pool into a region counter.
// The central debit is a single conditional update, so a transfer exceeding
// the pool fails atomically with ErrInsufficientStock and no partial effect.
func (s *Service) Transfer(ctx context.Context, input TransferInput) error {
	if input.Qty <= 0 {
		return ErrInvalidQuantity
	}
	region := normalizeRegion(input.RegionCode)
	if region == "" {
		return ErrRegionRequired
	}

	if input.IdempotencyKey != "" && s.idem != nil {
		if err := s.idem.CheckAndInsert(ctx, input.IdempotencyKey, "ledger"); err != nil {
			return err
		}
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		exists, err := tx.ProductExists(ctx, input.ProductID)
		if err != nil {
			return err
		}
		if !exists {
			return shared.ErrNotFound
		}
		known, err := tx.RegionExists(ctx, region)
		if err != nil {
			return err
		}
		if !known {
			return ErrUnknownRegion
		}
		applied, err := tx.DebitCentral(ctx, input.ProductID, input.Qty)
		if err != nil {
			return err
		}
		if !applied {
			return ErrInsufficientStock
		}
		if err := tx.CreditRegion(ctx, input.ProductID, region, input.Qty); err != nil {
			return err
		}
		return tx.InsertMovement(ctx, Movement{
			ProductID:  input.ProductID,
			RegionCode: region,
			Type:       MovementTransfer,
			Qty:        input.Qty,
			Note:       input.Note,
			ActorID:    input.ActorID,
			At:         time.Now().UTC(),
		})
	})
	if err != nil {
		// Release the key so the client may retry after a failure.
		if input.IdempotencyKey != "" && s.idem != nil {
			_ = s.idem.Delete(ctx, input.IdempotencyKey)
		}
		return err
	}

	s.record(ctx, input.ActorID, MovementTransfer, input.ProductID, region, input.Qty, input.Note)
	s.changed(ctx)
	return nil
}

// AdjustRegion applies a clamped delta to a region counter, or resets it to
// zero when Clear is set. The central pool is never touched.
func (s *Service) AdjustRegion(ctx context.Context, input RegionAdjustInput) (int64, error) {
	region := normalizeRegion(input.RegionCode)
	if region == "" {
		return 0, ErrRegionRequired
	}
	if !input.Clear && input.Delta == 0 {
		return 0, ErrInvalidQuantity
	}

	var result int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		exists, err := tx.ProductExists(ctx, input.ProductID)
		if err != nil {
			return err
		}
		if !exists {
			return shared.ErrNotFound
		}
		known, err := tx.RegionExists(ctx, region)
		if err != nil {
			return err
		}
		if !known {
			return ErrUnknownRegion
		}
		movementType := MovementRegionAdjust
		qty := input.Delta
		if input.Clear {
			movementType = MovementRegionClear
			qty = 0
			if err := tx.ClearRegion(ctx, input.ProductID, region); err != nil {
				return err
			}
		} else {
			result, err = tx.AdjustRegionClamped(ctx, input.ProductID, region, input.Delta)
			if err != nil {
				return err
			}
		}
		return tx.InsertMovement(ctx, Movement{
			ProductID:  input.ProductID,
			RegionCode: region,
			Type:       movementType,
			Qty:        qty,
			Note:       input.Note,
			ActorID:    input.ActorID,
			At:         time.Now().UTC(),
		})
	})
	if err != nil {
		return 0, err
	}

	movementType := MovementRegionAdjust
	if input.Clear {
		movementType = MovementRegionClear
	}
	s.record(ctx, input.ActorID, movementType, input.ProductID, region, input.Delta, input.Note)
	s.changed(ctx)
	return result, nil
}

// AdjustCentral applies a clamped delta to the central pool. Region counters
// are never touched.
func (s *Service) AdjustCentral(ctx context.Context, input CentralAdjustInput) (int64, error) {
	if input.Delta == 0 {
		return 0, ErrInvalidQuantity
	}

	var result int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		result, err = tx.AdjustCentralClamped(ctx, input.ProductID, input.Delta)
		if err != nil {
			return err
		}
		return tx.InsertMovement(ctx, Movement{
			ProductID: input.ProductID,
			Type:      MovementCentralAdjust,
			Qty:       input.Delta,
			Note:      input.Note,
			ActorID:   input.ActorID,
			At:        time.Now().UTC(),
		})
	})
	if err != nil {
		return 0, err
	}

	s.record(ctx, input.ActorID, MovementCentralAdjust, input.ProductID, "", input.Delta, input.Note)
	s.changed(ctx)
	return result, nil
}

// Movements lists the movement trail for a product.
func (s *Service) Movements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	if filter.ProductID == 0 {
		return nil, shared.ErrNotFound
	}
	return s.repo.ListMovements(ctx, filter)
}

func (s *Service) record(ctx context.Context, actorID int64, movementType MovementType, productID int64, region string, qty int64, note string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   fmt.Sprintf("ledger:%s", movementType),
		Entity:   "product",
		EntityID: fmt.Sprintf("%d", productID),
		Meta: map[string]any{
			"region": region,
			"qty":    qty,
			"note":   note,
		},
	})
}

func (s *Service) changed(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	_ = s.notifier.Changed(ctx, "products")
}

func normalizeRegion(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
