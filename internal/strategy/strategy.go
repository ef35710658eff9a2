// Package strategy defines the named-strategy registry used to build
// backtestable strategy values from parameter sets, and provides the Params
// helper the builtin strategies configure themselves with.
package strategy

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Params holds named numeric strategy parameters, e.g. moving average
// periods or oscillator thresholds.
type Params map[string]float64

// Get returns the parameter named key, or def when it is absent.
func (p Params) Get(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// IntGet returns the parameter named key truncated to int, or def when it is
// absent.
func (p Params) IntGet(key string, def int) int {
	if v, ok := p[key]; ok {
		return int(v)
	}
	return def
}

// ParseParams parses a comma-separated list of name=value pairs, e.g.
// "short=10,long=30". An empty string yields an empty Params.
func ParseParams(s string) (Params, error) {
	p := Params{}
	if strings.TrimSpace(s) == "" {
		return p, nil
	}
	for _, pair := range strings.Split(s, ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return nil, fmt.Errorf("parameter %q is not name=value", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", pair, err)
		}
		p[strings.TrimSpace(name)] = v
	}
	return p, nil
}

// Factory builds a strategy value from parameters. The returned value must
// implement backtest.Decider or backtest.Stateful; the engine resolves the
// shape at the start of a run.
type Factory func(p Params) (any, error)

// Registry holds a named collection of strategy factories for lookup and
// enumeration.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty strategy Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory to the registry under the given name.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// Build constructs the named strategy with the given parameters.
func (r *Registry) Build(name string, p Params) (any, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
	return f(p)
}

// List returns a sorted slice of all registered strategy names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
