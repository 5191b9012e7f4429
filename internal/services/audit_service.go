package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"quarterdeck/internal/audit"
	apperrors "quarterdeck/internal/errors"
	"quarterdeck/internal/logger"
	"quarterdeck/internal/models"
	"quarterdeck/internal/pagination"
)

// auditService owns the append-only audit trail.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Record appends a new audit record. The append runs only after the
// underlying mutation has succeeded; if it fails anyway, the failure is
// logged as a warning and swallowed so auditing never rolls back or blocks
// the mutation it describes.
func (s *auditService) Record(entry RecordEntry) *models.AuditRecord {
	record := &models.AuditRecord{
		ActorID:      entry.Actor.ID,
		ActorName:    entry.Actor.Name,
		Action:       string(entry.Action),
		ResourceType: string(entry.ResourceType),
		ResourceID:   entry.ResourceID,
		IPAddress:    entry.IPAddress,
	}
	if record.ActorName == "" {
		record.ActorName = models.SystemActor
	}

	if entry.Payload != nil {
		data, err := json.Marshal(entry.Payload)
		if err != nil {
			logger.Get().Errorw("failed to marshal audit payload",
				"error", err,
				"action", entry.Action,
			)
			data = []byte("{}")
		}
		record.Payload = data
	}

	if entry.Metadata != nil {
		data, err := json.Marshal(entry.Metadata)
		if err != nil {
			logger.Get().Errorw("failed to marshal audit metadata",
				"error", err,
				"action", entry.Action,
			)
			data = []byte("{}")
		}
		record.Metadata = data
	}

	if err := s.db.Create(record).Error; err != nil {
		logger.Get().Warnw("audit append failed; mutation is NOT rolled back",
			"error", err,
			"action", entry.Action,
			"resource_type", entry.ResourceType,
			"resource_id", entry.ResourceID,
			"actor", record.ActorName,
		)
		return nil
	}
	return record
}

// GetRecord loads a single record by id.
func (s *auditService) GetRecord(id uint) (*models.AuditRecord, error) {
	var record models.AuditRecord
	if err := s.db.First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRecordNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &record, nil
}

// Query returns a filtered page of the trail, newest first. Ties on
// created_at are broken by id so the ordering is total.
func (s *auditService) Query(filter AuditFilter, page pagination.PageRequest) (*pagination.PageResponse[models.AuditRecord], error) {
	page.Defaults()

	base := s.db.Model(&models.AuditRecord{})

	if filter.Actor != "" {
		base = base.Where("actor_name = ?", filter.Actor)
	}
	if filter.Action != "" {
		base = base.Where("action = ?", filter.Action)
	}
	if filter.ResourceType != "" {
		base = base.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.From != nil {
		base = base.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		base = base.Where("created_at <= ?", *filter.To)
	}
	if filter.CriticalOnly {
		critical := audit.CriticalActions()
		names := make([]string, len(critical))
		for i, a := range critical {
			names[i] = string(a)
		}
		base = base.Where("action IN ?", names)
	}
	if filter.FreeText != "" {
		needle := "%" + strings.ToLower(filter.FreeText) + "%"
		base = base.Where(
			"LOWER(action) LIKE ? OR LOWER(actor_name) LIKE ? OR LOWER(resource_type) LIKE ? OR LOWER(CAST(payload AS TEXT)) LIKE ?",
			needle, needle, needle, needle,
		)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var records []models.AuditRecord
	if err := base.
		Order("created_at DESC").
		Order("id DESC").
		Scopes(pagination.Paginate(page)).
		Find(&records).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(records, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// MarkConsumed claims the record's undo capability with a conditional update.
// The consumed_at IS NULL guard makes the check-then-set atomic per record:
// of two racing claims exactly one updates a row, the other sees zero rows
// affected and fails with ErrAlreadyConsumed.
func (s *auditService) MarkConsumed(id uint) error {
	res := s.db.Model(&models.AuditRecord{}).
		Where("id = ? AND consumed_at IS NULL", id).
		Update("consumed_at", time.Now())
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrAlreadyConsumed
	}
	return nil
}

// ReleaseConsumed clears a claim after the restore or revert that held it
// failed. Best effort: a failure here leaves the record consumed and is
// surfaced in the log.
func (s *auditService) ReleaseConsumed(id uint) {
	if err := s.db.Model(&models.AuditRecord{}).
		Where("id = ?", id).
		Update("consumed_at", nil).Error; err != nil {
		logger.Get().Errorw("failed to release consumed claim",
			"error", err,
			"record_id", id,
		)
	}
}

// Purge hard-deletes the given records and appends one summary record for
// the purge itself, so the trail always explains its own gaps.
func (s *auditService) Purge(ids []uint, actor Actor, ip string) (int64, error) {
	if len(ids) == 0 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "no record ids given")
	}

	res := s.db.Unscoped().Where("id IN ?", ids).Delete(&models.AuditRecord{})
	if res.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}

	s.Record(RecordEntry{
		Actor:     actor,
		Action:    audit.ActionAuditPurged,
		IPAddress: ip,
		Metadata: map[string]any{
			"deleted_count": res.RowsAffected,
			"requested_ids": fmt.Sprint(ids),
		},
	})

	return res.RowsAffected, nil
}
