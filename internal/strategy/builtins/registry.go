package builtins

import "backlite/internal/strategy"

var factories = map[string]strategy.Factory{}

func register(name string, f strategy.Factory) {
	factories[name] = f
}

// RegisterAll adds every builtin strategy factory to reg.
func RegisterAll(reg *strategy.Registry) {
	for name, f := range factories {
		reg.Register(name, f)
	}
}
