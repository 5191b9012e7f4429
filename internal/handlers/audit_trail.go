package handlers

import (
	"github.com/gin-gonic/gin"

	"quarterdeck/internal/audit"
	"quarterdeck/internal/events"
	"quarterdeck/internal/resources"
	"quarterdeck/internal/services"
)

// Trail records resource mutations on the audit trail and broadcasts the
// change signal. Handlers call it after the store mutation has succeeded, so
// a failed mutation never leaves a record and a failed record never rolls
// back a mutation.
type Trail struct {
	audit services.AuditServicer
	hub   *events.Hub
}

// NewTrail creates a Trail over the given recorder and broadcaster.
func NewTrail(auditSvc services.AuditServicer, hub *events.Hub) *Trail {
	return &Trail{audit: auditSvc, hub: hub}
}

// Created records a create and notifies subscribers. state is the full
// post-create state.
func (t *Trail) Created(c *gin.Context, rt resources.Type, id uint, state resources.State) {
	actor, _ := getActor(c)
	info := resources.InfoFor(rt)
	t.audit.Record(services.RecordEntry{
		Actor:        actor,
		Action:       audit.ForResource(rt, audit.VerbCreated),
		ResourceType: rt,
		ResourceID:   id,
		Payload:      audit.CaptureCreate(state, info.Sensitive),
		IPAddress:    c.ClientIP(),
	})
	t.hub.Publish(events.Event{Category: string(rt), ID: id})
}

// Updated records a field-wise diff between the two states and notifies
// subscribers. A no-op update (empty diff) is still recorded so the trail
// reflects the operator's action.
func (t *Trail) Updated(c *gin.Context, rt resources.Type, id uint, before, after resources.State) {
	actor, _ := getActor(c)
	info := resources.InfoFor(rt)
	t.audit.Record(services.RecordEntry{
		Actor:        actor,
		Action:       audit.ForResource(rt, audit.VerbUpdated),
		ResourceType: rt,
		ResourceID:   id,
		Payload:      audit.CaptureUpdate(before, after, info.Sensitive),
		IPAddress:    c.ClientIP(),
	})
	t.hub.Publish(events.Event{Category: string(rt), ID: id})
}

// Deleted records the full pre-delete snapshot, the state a later restore
// recreates, and notifies subscribers.
func (t *Trail) Deleted(c *gin.Context, rt resources.Type, id uint, before resources.State) {
	actor, _ := getActor(c)
	info := resources.InfoFor(rt)
	t.audit.Record(services.RecordEntry{
		Actor:        actor,
		Action:       audit.ForResource(rt, audit.VerbDeleted),
		ResourceType: rt,
		ResourceID:   id,
		Payload:      audit.CaptureDelete(before, info.Sensitive),
		IPAddress:    c.ClientIP(),
	})
	t.hub.Publish(events.Event{Category: string(rt), ID: id})
}

// Executed records a non-reversible action (a command run against a
// resource) with free-form metadata, and notifies subscribers.
func (t *Trail) Executed(c *gin.Context, rt resources.Type, id uint, metadata map[string]any) {
	actor, _ := getActor(c)
	t.audit.Record(services.RecordEntry{
		Actor:        actor,
		Action:       audit.ActionCommandExecuted,
		ResourceType: rt,
		ResourceID:   id,
		Metadata:     metadata,
		IPAddress:    c.ClientIP(),
	})
	t.hub.Publish(events.Event{Category: string(rt), ID: id})
}
