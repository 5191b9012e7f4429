// Package audit defines the action vocabulary of the trail and the pure
// snapshot/diff capture functions that build record payloads.
package audit

import (
	"fmt"

	"quarterdeck/internal/resources"
)

// Action is a domain verb crossed with a lifecycle stage, e.g.
// "service_created" or "ssh_host_deleted". Non-resource actions such as
// "login_failed" carry no undo capability.
type Action string

// Verb is the lifecycle stage of a resource action.
type Verb string

const (
	VerbCreated  Verb = "created"
	VerbUpdated  Verb = "updated"
	VerbDeleted  Verb = "deleted"
	VerbRestored Verb = "restored"
	VerbReverted Verb = "reverted"
)

// Non-resource actions.
const (
	ActionLogin           Action = "login"
	ActionLoginFailed     Action = "login_failed"
	ActionCommandExecuted Action = "command_executed"
	ActionAuditPurged     Action = "audit_purged"
)

// UndoKind says which undo operation, if any, a record of this action
// supports.
type UndoKind int

const (
	UndoNone UndoKind = iota
	UndoRestore
	UndoRevert
)

// Meta is the display and policy metadata attached to each action. It is a
// single lookup table rather than conditionals scattered across handlers.
type Meta struct {
	Label    string
	Critical bool
	Undo     UndoKind
}

var actionMeta = map[Action]Meta{
	ActionLogin:           {Label: "Logged in"},
	ActionLoginFailed:     {Label: "Failed login", Critical: true},
	ActionCommandExecuted: {Label: "Executed command"},
	ActionAuditPurged:     {Label: "Purged audit records", Critical: true},
}

var verbMeta = map[Verb]Meta{
	VerbCreated:  {Label: "Created"},
	VerbUpdated:  {Label: "Updated", Undo: UndoRevert},
	VerbDeleted:  {Label: "Deleted", Critical: true, Undo: UndoRestore},
	VerbRestored: {Label: "Restored"},
	VerbReverted: {Label: "Reverted"},
}

func init() {
	for _, t := range resources.Types() {
		for verb, meta := range verbMeta {
			action := ForResource(t, verb)
			meta.Label = fmt.Sprintf("%s %s", meta.Label, t)
			// Role and account changes are security relevant even when
			// they are plain updates.
			if t == resources.TypeUser {
				meta.Critical = true
			}
			actionMeta[action] = meta
		}
	}
}

// ForResource composes the action for a resource type and lifecycle verb.
func ForResource(t resources.Type, verb Verb) Action {
	return Action(fmt.Sprintf("%s_%s", t, verb))
}

// MetaOf returns the metadata for a known action.
func MetaOf(a Action) (Meta, bool) {
	m, ok := actionMeta[a]
	return m, ok
}

// Known reports whether a is part of the closed action set.
func Known(a Action) bool {
	_, ok := actionMeta[a]
	return ok
}

// CriticalActions returns the fixed set of security-relevant actions used by
// the criticalOnly audit filter.
func CriticalActions() []Action {
	out := make([]Action, 0, len(actionMeta))
	for a, m := range actionMeta {
		if m.Critical {
			out = append(out, a)
		}
	}
	return out
}
