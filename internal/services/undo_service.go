package services

import (
	"errors"
	"strconv"

	"quarterdeck/internal/audit"
	apperrors "quarterdeck/internal/errors"
	"quarterdeck/internal/events"
	"quarterdeck/internal/logger"
	"quarterdeck/internal/resources"
)

// undoService hosts the restore and revert engines. It never touches a
// concrete store: all resource access goes through the adapter registry, and
// every successful undo is itself audited and broadcast.
type undoService struct {
	audit    AuditServicer
	registry *resources.Registry
	hub      *events.Hub
}

// NewUndoService creates a new UndoServicer.
func NewUndoService(auditSvc AuditServicer, registry *resources.Registry, hub *events.Hub) UndoServicer {
	return &undoService{audit: auditSvc, registry: registry, hub: hub}
}

// Restore recreates a deleted resource from the delete record's snapshot.
//
// The record is claimed (consumed) before the store is touched: two restores
// racing on the same record id then resolve at the conditional update, and
// the loser fails with ErrAlreadyConsumed without creating a second copy.
// If the create fails afterwards, the claim is released so the operator can
// retry, which is the designed path for NameConflict.
func (s *undoService) Restore(recordID uint, newName string, actor Actor, ip string) (uint, error) {
	record, err := s.audit.GetRecord(recordID)
	if err != nil {
		return 0, err
	}

	meta, ok := audit.MetaOf(audit.Action(record.Action))
	if !ok || meta.Undo != audit.UndoRestore {
		return 0, apperrors.WithMessage(apperrors.ErrNotRestorable,
			"record #"+itoa(record.ID)+" ("+record.Action+") is not a restorable delete entry")
	}
	if record.Consumed() {
		return 0, alreadyConsumed(record.ID)
	}

	adapter, ok := s.registry.Lookup(resources.Type(record.ResourceType))
	if !ok {
		return 0, apperrors.WithMessage(apperrors.ErrNotRestorable,
			"no store registered for resource type "+record.ResourceType)
	}

	snapshot, err := audit.DecodeSnapshot(record.Payload)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	state := snapshot.State
	if state == nil {
		state = resources.State{}
	}
	if newName != "" {
		info := resources.InfoFor(adapter.Type())
		state[info.NaturalKey] = newName
	}

	if err := s.audit.MarkConsumed(record.ID); err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code == apperrors.ErrAlreadyConsumed.Code {
			return 0, alreadyConsumed(record.ID)
		}
		return 0, err
	}

	newID, name, err := adapter.Create(state)
	if err != nil {
		s.audit.ReleaseConsumed(record.ID)
		return 0, err
	}

	s.audit.Record(RecordEntry{
		Actor:        actor,
		Action:       audit.ForResource(adapter.Type(), audit.VerbRestored),
		ResourceType: adapter.Type(),
		ResourceID:   newID,
		Payload:      audit.RestoreOutcome(record.ID, state),
		IPAddress:    ip,
	})
	s.hub.Publish(events.Event{Category: string(adapter.Type()), ID: newID})

	logger.Get().Infow("resource restored",
		"resource_type", adapter.Type(),
		"resource_id", newID,
		"name", name,
		"source_record", record.ID,
		"actor", actor.Name,
	)
	return newID, nil
}

// Revert re-applies the prior values of an update record onto the live
// resource. Only the fields present in the diff are written; everything else
// is left alone. The overwrite is unconditional: current values are not
// compared against the diff's recorded after values first, so a revert can
// discard an unrelated intervening edit to the same field.
func (s *undoService) Revert(recordID uint, actor Actor, ip string) (uint, error) {
	record, err := s.audit.GetRecord(recordID)
	if err != nil {
		return 0, err
	}

	meta, ok := audit.MetaOf(audit.Action(record.Action))
	if !ok || meta.Undo != audit.UndoRevert {
		return 0, apperrors.WithMessage(apperrors.ErrNotRevertable,
			"record #"+itoa(record.ID)+" ("+record.Action+") is not a revertable update entry")
	}
	if record.Consumed() {
		return 0, alreadyConsumed(record.ID)
	}

	adapter, ok := s.registry.Lookup(resources.Type(record.ResourceType))
	if !ok {
		return 0, apperrors.WithMessage(apperrors.ErrNotRevertable,
			"no store registered for resource type "+record.ResourceType)
	}

	// The resource must still exist; a deleted resource is the restore
	// engine's job.
	if _, err := adapter.Get(record.ResourceID); err != nil {
		return 0, apperrors.WithMessage(apperrors.ErrResourceGone,
			record.ResourceType+" #"+itoa(record.ResourceID)+" no longer exists; restore it from its delete entry instead")
	}

	diff, err := audit.DecodeDiff(record.Payload)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	before := diff.BeforeValues()
	if len(before) == 0 {
		return 0, apperrors.WithMessage(apperrors.ErrNotRevertable,
			"record #"+itoa(record.ID)+" has no revertable field values")
	}

	if err := s.audit.MarkConsumed(record.ID); err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code == apperrors.ErrAlreadyConsumed.Code {
			return 0, alreadyConsumed(record.ID)
		}
		return 0, err
	}

	if err := adapter.Update(record.ResourceID, before); err != nil {
		s.audit.ReleaseConsumed(record.ID)
		return 0, err
	}

	s.audit.Record(RecordEntry{
		Actor:        actor,
		Action:       audit.ForResource(adapter.Type(), audit.VerbReverted),
		ResourceType: adapter.Type(),
		ResourceID:   record.ResourceID,
		Payload:      audit.RevertOutcome(record.ID, before),
		IPAddress:    ip,
	})
	s.hub.Publish(events.Event{Category: string(adapter.Type()), ID: record.ResourceID})

	logger.Get().Infow("resource reverted",
		"resource_type", adapter.Type(),
		"resource_id", record.ResourceID,
		"source_record", record.ID,
		"actor", actor.Name,
	)
	return record.ResourceID, nil
}

func alreadyConsumed(recordID uint) error {
	return apperrors.WithMessage(apperrors.ErrAlreadyConsumed,
		"record #"+itoa(recordID)+" has already been restored or reverted")
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
