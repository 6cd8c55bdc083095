package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gatepass/backend/internal/domain/gatepass"
	"github.com/gatepass/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormGatePassRepository implements gatepass.Repository using GORM
type GormGatePassRepository struct {
	db *gorm.DB
}

// NewGormGatePassRepository creates a new GormGatePassRepository
func NewGormGatePassRepository(db *gorm.DB) *GormGatePassRepository {
	return &GormGatePassRepository{db: db}
}

// Save persists the aggregate and its items
func (r *GormGatePassRepository) Save(ctx context.Context, gp *gatepass.GatePassRequest) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(gp).Error
}

// SaveTransition persists a stage transition only while the stored record is
// still in the expected stage. A concurrent transition that got there first
// leaves the database untouched and surfaces as ErrStaleWriteConflict.
func (r *GormGatePassRepository) SaveTransition(ctx context.Context, gp *gatepass.GatePassRequest, expected gatepass.GatePassStatus) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&gatepass.GatePassRequest{}).
			Where("id = ? AND status = ?", gp.ID, expected).
			Updates(map[string]interface{}{
				"status":               gp.Status,
				"status_changed_at":    gp.StatusChangedAt,
				"comment":              gp.Comment,
				"rejected_by":          gp.RejectedBy,
				"rejected_at":          gp.RejectedAt,
				"rejection_level":      gp.RejectionLevel,
				"loader_service_no":    gp.LoaderServiceNo,
				"receiving_service_no": gp.ReceivingServiceNo,
				"vehicle_no":           gp.VehicleNo,
				"version":              gp.Version,
				"updated_at":           gp.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&gatepass.GatePassRequest{}).
				Where("id = ?", gp.ID).
				Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return shared.ErrNotFound
			}
			return shared.ErrStaleWriteConflict
		}

		// Returnable selections made on final approval ride along with the
		// transition.
		for idx := range gp.Items {
			item := &gp.Items[idx]
			if err := tx.Model(&gatepass.GatePassItem{}).
				Where("id = ?", item.ID).
				Updates(map[string]interface{}{
					"return_state": item.ReturnState,
					"returned_at":  item.ReturnedAt,
					"updated_at":   item.UpdatedAt,
				}).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// FindByRefNo loads a request by reference number, items included
func (r *GormGatePassRepository) FindByRefNo(ctx context.Context, refNo string) (*gatepass.GatePassRequest, error) {
	var gp gatepass.GatePassRequest
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("ref_no = ?", refNo).
		First(&gp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &gp, nil
}

// ListByStatus returns the status records for every request currently in one
// of the given stages
func (r *GormGatePassRepository) ListByStatus(ctx context.Context, statuses []gatepass.GatePassStatus, filter shared.Filter) ([]gatepass.StatusRecord, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("status IN ?", statuses)

	return r.listRecords(query, filter)
}

// ListBySender returns the status records for requests submitted by the
// given service number
func (r *GormGatePassRepository) ListBySender(ctx context.Context, senderServiceNo string, filter shared.Filter) ([]gatepass.StatusRecord, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("sender_service_no = ?", senderServiceNo)

	return r.listRecords(query, filter)
}

func (r *GormGatePassRepository) listRecords(query *gorm.DB, filter shared.Filter) ([]gatepass.StatusRecord, error) {
	orderBy := ValidateSortField(filter.OrderBy, GatePassSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)

	if filter.PageSize > 0 {
		query = query.
			Offset((filter.Page - 1) * filter.PageSize).
			Limit(filter.PageSize)
	}

	var requests []gatepass.GatePassRequest
	if err := query.Order(orderBy + " " + orderDir).Find(&requests).Error; err != nil {
		return nil, err
	}

	records := make([]gatepass.StatusRecord, 0, len(requests))
	for idx := range requests {
		records = append(records, gatepass.RecordFromRequest(&requests[idx]))
	}
	return records, nil
}

// MarkItemsReturned transitions the given serials to RETURNED in one
// transaction; either every eligible item transitions or none do.
func (r *GormGatePassRepository) MarkItemsReturned(ctx context.Context, refNo string, serials []string) (int, error) {
	updated := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var gp gatepass.GatePassRequest
		if err := tx.
			Preload("Items").
			Where("ref_no = ?", refNo).
			First(&gp).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		count, err := gp.MarkReturned(serials)
		if err != nil {
			return err
		}
		updated = count
		if count == 0 {
			return nil
		}

		for idx := range gp.Items {
			item := &gp.Items[idx]
			if err := tx.Model(&gatepass.GatePassItem{}).
				Where("id = ?", item.ID).
				Updates(map[string]interface{}{
					"return_state": item.ReturnState,
					"returned_at":  item.ReturnedAt,
					"updated_at":   item.UpdatedAt,
				}).Error; err != nil {
				return err
			}
		}

		return tx.Model(&gatepass.GatePassRequest{}).
			Where("id = ?", gp.ID).
			Updates(map[string]interface{}{
				"version":    gp.Version,
				"updated_at": gp.UpdatedAt,
			}).Error
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// AppendItem adds an item to a non-terminal request
func (r *GormGatePassRepository) AppendItem(ctx context.Context, refNo string, item *gatepass.GatePassItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var gp gatepass.GatePassRequest
		if err := tx.
			Preload("Items").
			Where("ref_no = ?", refNo).
			First(&gp).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		if gp.Status.IsTerminal() {
			return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot add items to a %s gate pass", gp.Status))
		}
		for idx := range gp.Items {
			if gp.Items[idx].SerialNumber == item.SerialNumber {
				return shared.NewDomainError("DUPLICATE_SERIAL", fmt.Sprintf("Serial number %s already exists on this gate pass", item.SerialNumber))
			}
		}

		item.RequestID = gp.ID
		if err := tx.Create(item).Error; err != nil {
			return err
		}

		return tx.Model(&gatepass.GatePassRequest{}).
			Where("id = ?", gp.ID).
			Updates(map[string]interface{}{
				"version":    gp.Version + 1,
				"updated_at": time.Now(),
			}).Error
	})
}

// GenerateRefNo produces the next GP-<year>-<seq> reference number. The
// sequence restarts every year; the unique index on ref_no backstops any
// race between concurrent submissions.
func (r *GormGatePassRepository) GenerateRefNo(ctx context.Context) (string, error) {
	year := time.Now().Year()
	prefix := fmt.Sprintf("GP-%d-", year)

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&gatepass.GatePassRequest{}).
		Where("ref_no LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}

// Ensure GormGatePassRepository implements gatepass.Repository
var _ gatepass.Repository = (*GormGatePassRepository)(nil)
