package strategy

import (
	"errors"
	"testing"
)

func TestParamsGet(t *testing.T) {
	p := Params{"short": 5, "threshold": 0.02}

	if got := p.Get("threshold", 0.01); got != 0.02 {
		t.Errorf(`Get("threshold") = %v, want 0.02`, got)
	}
	if got := p.Get("missing", 0.01); got != 0.01 {
		t.Errorf(`Get("missing") = %v, want default 0.01`, got)
	}
	if got := p.IntGet("short", 10); got != 5 {
		t.Errorf(`IntGet("short") = %v, want 5`, got)
	}
	if got := p.IntGet("missing", 10); got != 10 {
		t.Errorf(`IntGet("missing") = %v, want default 10`, got)
	}
}

func TestParseParams(t *testing.T) {
	p, err := ParseParams("short=10, long=30,threshold=0.02")
	if err != nil {
		t.Fatalf("ParseParams returned error: %v", err)
	}
	if p["short"] != 10 || p["long"] != 30 || p["threshold"] != 0.02 {
		t.Errorf("ParseParams = %v, want short=10 long=30 threshold=0.02", p)
	}

	empty, err := ParseParams("")
	if err != nil {
		t.Fatalf("ParseParams(\"\") returned error: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("ParseParams(\"\") = %v, want empty", empty)
	}

	if _, err := ParseParams("short"); err == nil {
		t.Error("ParseParams accepted a pair without '='")
	}
	if _, err := ParseParams("short=abc"); err == nil {
		t.Error("ParseParams accepted a non-numeric value")
	}
}

func TestRegistryBuild(t *testing.T) {
	r := NewRegistry()
	r.Register("stub", func(p Params) (any, error) {
		return p.Get("x", 0), nil
	})

	v, err := r.Build("stub", Params{"x": 7})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if v.(float64) != 7 {
		t.Errorf("Build returned %v, want 7", v)
	}
}

func TestRegistryBuildUnknown(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Build("nonexistent", nil); err == nil {
		t.Error("Build succeeded for unregistered strategy")
	}
}

func TestRegistryBuildFactoryError(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("bad params")
	r.Register("failing", func(Params) (any, error) { return nil, boom })

	if _, err := r.Build("failing", nil); !errors.Is(err, boom) {
		t.Errorf("Build error = %v, want factory error", err)
	}
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry()
	r.Register("beta", func(Params) (any, error) { return nil, nil })
	r.Register("alpha", func(Params) (any, error) { return nil, nil })

	names := r.List()
	if len(names) != 2 {
		t.Fatalf("List returned %d names, want 2", len(names))
	}
	// List returns sorted names.
	if names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("List returned %v, want [alpha beta]", names)
	}
}
