// Package resources defines the closed set of resource types the dashboard
// manages and the per-type store contract the undo engines drive. The audit
// trail never talks to a concrete store directly; it goes through an Adapter
// looked up from the Registry.
package resources

// Type identifies one kind of managed resource.
type Type string

const (
	TypeService  Type = "service"
	TypeHost     Type = "host"
	TypeSSHHost  Type = "ssh_host"
	TypeCategory Type = "category"
	TypeUser     Type = "user"
)

// Info describes the audit-relevant shape of a resource type: which field is
// its human-meaningful uniqueness key, and which fields hold credentials that
// must never appear unmasked in a stored payload.
type Info struct {
	NaturalKey string
	Sensitive  []string
}

var infos = map[Type]Info{
	TypeService:  {NaturalKey: "name"},
	TypeHost:     {NaturalKey: "name"},
	TypeSSHHost:  {NaturalKey: "name", Sensitive: []string{"password", "private_key"}},
	TypeCategory: {NaturalKey: "name"},
	TypeUser:     {NaturalKey: "username", Sensitive: []string{"password_hash"}},
}

// Types returns all known resource types.
func Types() []Type {
	return []Type{TypeService, TypeHost, TypeSSHHost, TypeCategory, TypeUser}
}

// Valid reports whether t is a known resource type.
func Valid(t Type) bool {
	_, ok := infos[t]
	return ok
}

// InfoFor returns the type descriptor for t. The zero Info is returned for
// unknown types so callers degrade to "no natural key, nothing sensitive".
func InfoFor(t Type) Info {
	return infos[t]
}
