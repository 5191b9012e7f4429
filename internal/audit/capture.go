package audit

import (
	"bytes"
	"encoding/json"
)

// Payload kinds stored in the type tag of every audit payload.
const (
	KindCreateSnapshot = "create_snapshot"
	KindUpdateDiff     = "update_diff"
	KindDeleteSnapshot = "delete_snapshot"
	KindRestoreOutcome = "restore_outcome"
	KindRevertOutcome  = "revert_outcome"
)

// Payload is a type-tagged audit record payload.
type Payload interface {
	PayloadKind() string
}

// Snapshot is the full state of a resource at capture time, used for both
// create and delete records. Sensitive fields are already stripped.
type Snapshot struct {
	Kind  string         `json:"kind"`
	State map[string]any `json:"state"`
}

// PayloadKind implements Payload.
func (s Snapshot) PayloadKind() string { return s.Kind }

// FieldChange is one changed field in an update diff. For sensitive fields
// only the Changed marker is set; the values themselves are never stored.
type FieldChange struct {
	Before  json.RawMessage `json:"before,omitempty"`
	After   json.RawMessage `json:"after,omitempty"`
	Changed bool            `json:"changed,omitempty"`
}

// Diff is the field-restricted before/after pair for an update record.
type Diff struct {
	Kind   string                 `json:"kind"`
	Fields map[string]FieldChange `json:"fields"`
}

// PayloadKind implements Payload.
func (d Diff) PayloadKind() string { return d.Kind }

// Outcome records the result of a restore or revert: which record it
// consumed and the state that was applied.
type Outcome struct {
	Kind           string         `json:"kind"`
	SourceRecordID uint           `json:"source_record_id"`
	State          map[string]any `json:"state,omitempty"`
}

// PayloadKind implements Payload.
func (o Outcome) PayloadKind() string { return o.Kind }

// CaptureCreate builds the payload for a create record: the full post-create
// state with sensitive fields stripped.
func CaptureCreate(after map[string]any, sensitive []string) Snapshot {
	return Snapshot{Kind: KindCreateSnapshot, State: maskState(after, sensitive)}
}

// CaptureDelete builds the payload for a delete record: the full pre-delete
// state with sensitive fields stripped. This is the state a restore recreates.
func CaptureDelete(before map[string]any, sensitive []string) Snapshot {
	return Snapshot{Kind: KindDeleteSnapshot, State: maskState(before, sensitive)}
}

// CaptureUpdate builds the field-wise diff between two states. Only keys
// present in both states whose serialized values differ are included; keys
// absent from both are omitted entirely. Sensitive fields are reduced to a
// boolean changed marker. Unrecognized field values pass through opaquely via
// their JSON form.
func CaptureUpdate(before, after map[string]any, sensitive []string) Diff {
	diff := Diff{Kind: KindUpdateDiff, Fields: make(map[string]FieldChange)}
	secret := sensitiveSet(sensitive)

	for key, oldVal := range before {
		newVal, ok := after[key]
		if !ok {
			continue
		}
		oldRaw := encode(oldVal)
		newRaw := encode(newVal)
		if bytes.Equal(oldRaw, newRaw) {
			continue
		}
		if secret[key] {
			diff.Fields[key] = FieldChange{Changed: true}
			continue
		}
		diff.Fields[key] = FieldChange{Before: oldRaw, After: newRaw}
	}
	return diff
}

// RestoreOutcome builds the payload for a resource_restored record.
func RestoreOutcome(sourceRecordID uint, applied map[string]any) Outcome {
	return Outcome{Kind: KindRestoreOutcome, SourceRecordID: sourceRecordID, State: applied}
}

// RevertOutcome builds the payload for a resource_reverted record.
func RevertOutcome(sourceRecordID uint, applied map[string]any) Outcome {
	return Outcome{Kind: KindRevertOutcome, SourceRecordID: sourceRecordID, State: applied}
}

// DecodeSnapshot parses a stored create or delete payload.
func DecodeSnapshot(raw []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// DecodeDiff parses a stored update payload.
func DecodeDiff(raw []byte) (Diff, error) {
	var d Diff
	if err := json.Unmarshal(raw, &d); err != nil {
		return Diff{}, err
	}
	return d, nil
}

// BeforeValues decodes the prior values of a diff, skipping sensitive changed
// markers, which carry no value to re-apply.
func (d Diff) BeforeValues() map[string]any {
	out := make(map[string]any, len(d.Fields))
	for key, change := range d.Fields {
		if change.Changed || len(change.Before) == 0 {
			continue
		}
		var v any
		if err := json.Unmarshal(change.Before, &v); err != nil {
			continue
		}
		out[key] = v
	}
	return out
}

func maskState(state map[string]any, sensitive []string) map[string]any {
	masked := make(map[string]any, len(state))
	for k, v := range state {
		masked[k] = v
	}
	for _, field := range sensitive {
		delete(masked, field)
	}
	return masked
}

func sensitiveSet(fields []string) map[string]bool {
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}

// encode serializes a single field value. Unserializable values compare as
// empty so capture stays total.
func encode(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
