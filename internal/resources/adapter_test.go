package resources

import "testing"

type stubAdapter struct {
	t Type
}

func (a stubAdapter) Type() Type                            { return a.t }
func (a stubAdapter) Get(id uint) (State, error)            { return nil, nil }
func (a stubAdapter) Create(state State) (uint, string, error) { return 0, "", nil }
func (a stubAdapter) Update(id uint, fields State) error    { return nil }

func TestRegistry(t *testing.T) {
	t.Run("register_and_lookup", func(t *testing.T) {
		r := NewRegistry()
		r.Register(stubAdapter{t: TypeService})

		a, ok := r.Lookup(TypeService)
		if !ok {
			t.Fatal("expected adapter for service")
		}
		if a.Type() != TypeService {
			t.Errorf("expected service adapter, got %s", a.Type())
		}
	})

	t.Run("lookup_unregistered", func(t *testing.T) {
		r := NewRegistry()
		if _, ok := r.Lookup(TypeHost); ok {
			t.Error("expected no adapter for an unregistered type")
		}
	})

	t.Run("double_register_panics", func(t *testing.T) {
		r := NewRegistry()
		r.Register(stubAdapter{t: TypeHost})

		defer func() {
			if recover() == nil {
				t.Error("expected a panic on double registration")
			}
		}()
		r.Register(stubAdapter{t: TypeHost})
	})
}

func TestSnapshot(t *testing.T) {
	type fixture struct {
		Name   string `json:"name"`
		Port   int    `json:"port"`
		Secret string `json:"-"`
	}

	state, err := Snapshot(fixture{Name: "backup", Port: 22, Secret: "hunter2"})
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	if state["name"] != "backup" {
		t.Errorf("expected name backup, got %v", state["name"])
	}
	if state["port"] != float64(22) {
		t.Errorf("expected port 22, got %v", state["port"])
	}
	if _, ok := state["Secret"]; ok {
		t.Error("json-excluded fields must not appear in the state")
	}
}

func TestInfoFor(t *testing.T) {
	info := InfoFor(TypeSSHHost)
	if info.NaturalKey != "name" {
		t.Errorf("expected natural key name, got %s", info.NaturalKey)
	}
	if len(info.Sensitive) != 2 {
		t.Errorf("expected two sensitive fields, got %v", info.Sensitive)
	}

	if InfoFor(TypeUser).NaturalKey != "username" {
		t.Error("user natural key should be username")
	}

	zero := InfoFor(Type("bogus"))
	if zero.NaturalKey != "" || len(zero.Sensitive) != 0 {
		t.Errorf("unknown types should degrade to the zero Info, got %+v", zero)
	}
}

func TestValid(t *testing.T) {
	for _, rt := range Types() {
		if !Valid(rt) {
			t.Errorf("%s should be valid", rt)
		}
	}
	if Valid(Type("printer")) {
		t.Error("unknown types are invalid")
	}
}
